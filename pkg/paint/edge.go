package paint

import (
	"image"
	"image/color"
	"math"

	"github.com/fogleman/gg"

	"github.com/ha1tch/graphcanvas/pkg/geom"
	"github.com/ha1tch/graphcanvas/pkg/scene"
	"github.com/ha1tch/graphcanvas/pkg/style"
)

// Edge draws e from the geometry in sc: the stroke in its line style, then
// both arrowheads. Straight edges flagged too short draw only their arrows;
// edges flagged with no arrow placement draw no arrows.
func (p *Painter) Edge(dc *gg.Context, e scene.Edge, sc *scene.Scratch, v View) {
	st := e.Style()
	if sc == nil || !st.Shown() {
		return
	}
	w := st.Width.Px
	if w <= 0 {
		return
	}
	segs := sc.Segments()
	if len(segs) == 0 {
		return
	}
	op := scene.EffectiveOpacity(e)

	if !(sc.Class == scene.ClassStraight && sc.TooShort) {
		p.stroke(dc, segs, st.LineStyle, w, st.LineColor.With(op), v)
	}

	if !sc.NoArrowPlacement {
		arrowhead(dc, st.SourceArrowShape, sc.ArrowStart, sc.ArrowStart.Sub(e.Source().Position()), w, st.SourceArrowColor.With(op))
		arrowhead(dc, st.TargetArrowShape, sc.ArrowEnd, sc.ArrowEnd.Sub(e.Target().Position()), w, st.TargetArrowColor.With(op))
	}
}

// EdgeOverlay draws the highlight shown on an active edge: a solid stroke
// widened by the overlay padding on each side.
func (p *Painter) EdgeOverlay(dc *gg.Context, e scene.Edge, sc *scene.Scratch, v View) {
	st := e.Style()
	op := overlayOpacity(e)
	if sc == nil || !st.Shown() || op <= 0 {
		return
	}
	segs := sc.Segments()
	if len(segs) == 0 {
		return
	}
	w := st.Width.Px + 2*st.OverlayPadding
	p.stroke(dc, segs, style.LineSolid, w, st.OverlayColor.With(op), v)
}

// EdgeText draws e's label centred on the middle of its curve.
func (p *Painter) EdgeText(dc *gg.Context, e scene.Edge, sc *scene.Scratch, v View) {
	if sc == nil || sc.Class == scene.ClassUnknown || !e.Style().Shown() {
		return
	}
	p.text(dc, e, sc.Midpoint(), 0.5, 0.5, v)
}

func (p *Painter) stroke(dc *gg.Context, segs []geom.Quad, ls style.LineStyle, w float64, c color.NRGBA, v View) {
	scale := v.Scale()
	switch ls {
	case style.LineDotted:
		tile := p.Tiles.Dot(w, scale, c)
		for _, q := range segs {
			for _, s := range q.Stamps(dotSpacing) {
				stamp(dc, tile, s.Pos, 0, scale)
			}
		}
	case style.LineDashed:
		tile := p.Tiles.Dash(w, scale, c)
		for _, q := range segs {
			for _, s := range q.Stamps(dashSpacing) {
				stamp(dc, tile, s.Pos, math.Atan2(s.Tangent.X, -s.Tangent.Y), scale)
			}
		}
	default:
		dc.NewSubPath()
		dc.MoveTo(segs[0].P0.X, segs[0].P0.Y)
		for _, q := range segs {
			dc.QuadraticTo(q.C.X, q.C.Y, q.P1.X, q.P1.Y)
		}
		dc.SetLineWidth(w)
		dc.SetColor(c)
		dc.Stroke()
	}
}

// stamp draws tile centred on at, rotated so its vertical axis follows
// angle, at one tile pixel per surface pixel.
func stamp(dc *gg.Context, tile image.Image, at geom.Point, angle, scale float64) {
	dc.Push()
	dc.Translate(at.X, at.Y)
	if angle != 0 {
		dc.Rotate(angle)
	}
	if scale > 0 {
		dc.Scale(1/scale, 1/scale)
	}
	dc.DrawImageAnchored(tile, 0, 0, 0.5, 0.5)
	dc.Pop()
}

// arrowhead fills the named arrow shape at anchor, pointing against disp
// (the vector from the node centre to the anchor).
func arrowhead(dc *gg.Context, name string, anchor, disp geom.Point, edgeWidth float64, c color.NRGBA) {
	a := geom.Arrow(name)
	if a.IsNone() {
		return
	}
	d := disp.Unit()
	size := geom.ArrowSize(edgeWidth)

	dc.Push()
	dc.Translate(anchor.X, anchor.Y)
	dc.Rotate(math.Atan2(d.X, -d.Y))
	dc.Scale(size, size)
	if a.Radius > 0 {
		dc.DrawCircle(0, 0, a.Radius)
	} else {
		polyPath(dc, a.Points)
	}
	dc.SetColor(c)
	dc.Fill()
	dc.Pop()
}
