package paint

import (
	"image/color"

	"github.com/fogleman/gg"

	"github.com/ha1tch/graphcanvas/pkg/geom"
	"github.com/ha1tch/graphcanvas/pkg/style"
)

// SelectionBox fills and outlines the rubber-band box r, given in model
// coordinates. The border keeps its width on screen at any zoom.
func (p *Painter) SelectionBox(dc *gg.Context, r geom.Rect, core style.Core, v View) {
	tl := r.Min()
	dc.DrawRectangle(tl.X, tl.Y, r.W, r.H)
	dc.SetColor(core.SelectionBoxColor.With(core.SelectionBoxOpacity))
	dc.FillPreserve()

	if core.SelectionBoxBorderWidth > 0 && v.Zoom > 0 {
		dc.SetLineWidth(core.SelectionBoxBorderWidth / v.Zoom)
		dc.SetColor(core.SelectionBoxBorderColor.With(core.SelectionBoxOpacity))
		dc.Stroke()
	}
	dc.ClearPath()
}

// ActiveBackground draws the disc shown under the cursor while the
// background is pressed for panning. Its size is constant on screen.
func (p *Painter) ActiveBackground(dc *gg.Context, at geom.Point, core style.Core, v View) {
	if core.ActiveBgSize <= 0 || v.Zoom <= 0 {
		return
	}
	dc.DrawCircle(at.X, at.Y, core.ActiveBgSize/v.Zoom)
	dc.SetColor(core.ActiveBgColor.With(core.ActiveBgOpacity))
	dc.Fill()
}

var watermarkColor = color.NRGBA{0x66, 0x66, 0x66, 0x80}

// Watermark writes text in the bottom-right corner of the surface,
// ignoring the current transform.
func (p *Painter) Watermark(dc *gg.Context, text string, v View) {
	if text == "" {
		return
	}
	ratio := v.PixelRatio
	if ratio <= 0 {
		ratio = 1
	}
	dc.Push()
	defer dc.Pop()
	dc.Identity()
	dc.SetFontFace(p.Fonts.Face(11 * ratio))
	dc.SetColor(watermarkColor)
	dc.DrawStringAnchored(text, float64(dc.Width())-6*ratio, float64(dc.Height())-6*ratio, 1, 0)
}
