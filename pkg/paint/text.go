package paint

import (
	"math"
	"strings"

	"github.com/fogleman/gg"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"

	"github.com/ha1tch/graphcanvas/pkg/geom"
	"github.com/ha1tch/graphcanvas/pkg/scene"
	"github.com/ha1tch/graphcanvas/pkg/style"
)

// FontCache hands out Go Regular faces by pixel size. Sizes are quantised
// to quarter pixels so zooming does not create a face per frame.
type FontCache struct {
	font  *opentype.Font
	faces map[int]font.Face
}

// NewFontCache parses the embedded Go Regular font.
func NewFontCache() *FontCache {
	fnt, err := opentype.Parse(goregular.TTF)
	if err != nil {
		panic(err) // should never happen with embedded font
	}
	return &FontCache{font: fnt, faces: make(map[int]font.Face)}
}

// Face returns a face whose em is px surface pixels.
func (c *FontCache) Face(px float64) font.Face {
	key := max(int(math.Round(px*4)), 1)
	if f, ok := c.faces[key]; ok {
		return f
	}
	f, err := opentype.NewFace(c.font, &opentype.FaceOptions{
		Size:    float64(key) / 4,
		DPI:     72,
		Hinting: font.HintingNone,
	})
	if err != nil {
		panic(err)
	}
	c.faces[key] = f
	return f
}

// Len returns the number of faces created so far.
func (c *FontCache) Len() int { return len(c.faces) }

// Directions the outline is stamped in around each glyph run.
var outlineOffsets = []geom.Point{
	{X: 1, Y: 0}, {X: -1, Y: 0}, {X: 0, Y: 1}, {X: 0, Y: -1},
	{X: 0.7071, Y: 0.7071}, {X: -0.7071, Y: 0.7071},
	{X: 0.7071, Y: -0.7071}, {X: -0.7071, Y: -0.7071},
}

// Label returns the element's label after its text transform.
func Label(st *style.Style) string {
	switch st.TextTransform {
	case style.TransformUppercase:
		return strings.ToUpper(st.Label)
	case style.TransformLowercase:
		return strings.ToLower(st.Label)
	}
	return st.Label
}

// text draws el's label anchored at the model point at. ax and ay follow
// gg.DrawStringAnchored with y on the baseline. The label is drawn in
// screen space so glyphs are rasterised at their final size.
func (p *Painter) text(dc *gg.Context, el scene.Element, at geom.Point, ax, ay float64, v View) {
	st := el.Style()
	if st.Label == "" {
		return
	}
	if st.FontSize*v.Zoom < st.MinZoomedFontSize {
		return
	}
	op := scene.EffectiveOpacity(el)
	if op <= 0 {
		return
	}
	px := st.FontSize * v.Scale()
	if px <= 0 {
		return
	}

	label := Label(st)
	alpha := st.TextOpacity * op
	sx, sy := dc.TransformPoint(at.X, at.Y)

	dc.Push()
	defer dc.Pop()
	dc.Identity()
	dc.SetFontFace(p.Fonts.Face(px))

	if ow := st.TextOutlineWidth * v.Scale(); ow > 0 {
		dc.SetColor(st.TextOutlineColor.With(alpha))
		for _, d := range outlineOffsets {
			dc.DrawStringAnchored(label, sx+d.X*ow, sy+d.Y*ow, ax, ay)
		}
	}
	dc.SetColor(st.Color.With(alpha))
	dc.DrawStringAnchored(label, sx, sy, ax, ay)
}
