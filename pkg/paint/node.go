package paint

import (
	"image"

	"github.com/fogleman/gg"

	"github.com/ha1tch/graphcanvas/pkg/scene"
	"github.com/ha1tch/graphcanvas/pkg/style"
)

// Node draws the body of n: its shape filled with the background colour or
// clipped bitmap, then its border.
func (p *Painter) Node(dc *gg.Context, n scene.Node) {
	st := n.Style()
	if !st.Shown() {
		return
	}
	op := scene.EffectiveOpacity(n)
	if op <= 0 {
		return
	}

	pos := n.Position()
	w, h := n.Width(), n.Height()
	sh := p.Shapes.Shape(st.Shape)

	if st.BackgroundImage == "" {
		shapePath(dc, sh, pos, w, h)
		dc.SetColor(st.BackgroundColor.With(st.BackgroundOpacity * op))
		dc.Fill()
	} else if img, ok := p.image(st.BackgroundImage); ok {
		// The bitmap keeps its natural size, centred and clipped to the shape
		dc.Push()
		shapePath(dc, sh, pos, w, h)
		dc.Clip()
		dc.Translate(pos.X, pos.Y)
		dc.DrawImageAnchored(img, 0, 0, 0.5, 0.5)
		dc.Pop()
	} else {
		shapePath(dc, sh, pos, w, h)
		dc.SetColor(imageFallback.With(op))
		dc.Fill()
	}

	if st.BorderWidth > 0 {
		shapePath(dc, sh, pos, w, h)
		dc.SetLineWidth(st.BorderWidth)
		dc.SetColor(st.BorderColor.With(st.BorderOpacity * op))
		dc.Stroke()
	}
}

// Overlay opacity of an active element whose style sets none.
const activeOverlayOpacity = 0.25

func overlayOpacity(el scene.Element) float64 {
	if op := el.Style().OverlayOpacity; op > 0 || !el.Active() {
		return op
	}
	return activeOverlayOpacity
}

func (p *Painter) image(url string) (image.Image, bool) {
	if p.Images == nil {
		return nil, false
	}
	return p.Images.GetOrFetch(url)
}

// NodeOverlay draws the highlight shown on an active node: its shape grown
// by the overlay padding in the overlay colour.
func (p *Painter) NodeOverlay(dc *gg.Context, n scene.Node) {
	st := n.Style()
	op := overlayOpacity(n)
	if !st.Shown() || op <= 0 || scene.EffectiveOpacity(n) <= 0 {
		return
	}
	pad := st.OverlayPadding
	shapePath(dc, p.Shapes.Shape(st.Shape), n.Position(), n.Width()+2*pad, n.Height()+2*pad)
	dc.SetColor(st.OverlayColor.With(op))
	dc.Fill()
}

// NodeText draws n's label beside, above, below or over the node according
// to its text alignment.
func (p *Painter) NodeText(dc *gg.Context, n scene.Node, v View) {
	st := n.Style()
	if st.Label == "" || !st.Shown() {
		return
	}
	pos := n.Position()
	w, h := n.Width(), n.Height()

	anchor := pos
	ax, ay := 0.5, 0.5
	switch st.TextHAlign {
	case style.HAlignLeft:
		anchor.X, ax = pos.X-w/2, 1
	case style.HAlignRight:
		anchor.X, ax = pos.X+w/2, 0
	}
	switch st.TextVAlign {
	case style.VAlignTop:
		anchor.Y, ay = pos.Y-h/2, 0
	case style.VAlignBottom:
		anchor.Y, ay = pos.Y+h/2, 1
	}

	p.text(dc, n, anchor, ax, ay, v)
}
