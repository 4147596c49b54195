package termview

import (
	"image"
	"image/color"

	"github.com/gdamore/tcell/v2"
	"golang.org/x/image/draw"
)

// upperHalf paints the top half of a cell in the foreground colour and
// the bottom half in the background colour, giving two pixels per cell.
const upperHalf = '▀'

// Blit scales img onto the whole screen, two vertical pixels per cell.
// Transparent pixels show bg.
func Blit(screen tcell.Screen, img image.Image, bg color.Color) {
	cols, rows := screen.Size()
	if cols <= 0 || rows <= 0 {
		return
	}
	small := image.NewRGBA(image.Rect(0, 0, cols, rows*2))
	draw.Draw(small, small.Bounds(), image.NewUniform(bg), image.Point{}, draw.Src)
	draw.CatmullRom.Scale(small, small.Bounds(), img, img.Bounds(), draw.Over, nil)

	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			top := small.RGBAAt(x, 2*y)
			bottom := small.RGBAAt(x, 2*y+1)
			st := tcell.StyleDefault.Foreground(cellColor(top)).Background(cellColor(bottom))
			screen.SetContent(x, y, upperHalf, nil, st)
		}
	}
}

func cellColor(c color.RGBA) tcell.Color {
	return tcell.NewRGBColor(int32(c.R), int32(c.G), int32(c.B))
}
