package gesture

import (
	"math"

	"github.com/ha1tch/graphcanvas/pkg/geom"
	"github.com/ha1tch/graphcanvas/pkg/scene"
)

func hittable(el scene.Element) bool {
	return el.Style().Shown() && scene.EffectiveOpacity(el) > 0
}

// HitTest returns the element under the model point p: the topmost node
// whose shape contains it, otherwise the nearest edge within half its
// width plus the hit tolerance. Edges need solved geometry.
func (r *Recognizer) HitTest(p geom.Point) scene.Element {
	els := r.graph.ZSorted()
	for i := len(els) - 1; i >= 0; i-- {
		n, ok := els[i].(scene.Node)
		if !ok || !hittable(n) {
			continue
		}
		sh := r.shapes.Shape(n.Style().Shape)
		if sh.Contains(n.Position(), n.Width(), n.Height(), p, n.Style().BorderWidth/2) {
			return n
		}
	}

	zoom := r.graph.Zoom()
	if zoom <= 0 {
		zoom = 1
	}
	var best scene.Element
	bestDist := math.Inf(1)
	for _, e := range r.graph.Edges() {
		if !hittable(e) {
			continue
		}
		d, ok := r.solver.Distance(e, p)
		if !ok {
			continue
		}
		tol := e.Style().Width.Px/2 + r.cfg.EdgeHitTolerance/zoom
		if d <= tol && d < bestDist {
			best, bestDist = e, d
		}
	}
	return best
}

// InBox returns the elements enclosed by box, in model coordinates: nodes
// whose bounding box intersects it and edges whose trimmed endpoints both
// lie inside it.
func (r *Recognizer) InBox(box geom.Rect) []scene.Element {
	var out []scene.Element
	for _, n := range r.graph.Nodes() {
		if !hittable(n) {
			continue
		}
		p := n.Position()
		bb := geom.Rect{X: p.X, Y: p.Y, W: n.OuterWidth(), H: n.OuterHeight()}
		if box.Intersects(bb) {
			out = append(out, n)
		}
	}
	for _, e := range r.graph.Edges() {
		if !hittable(e) {
			continue
		}
		sc, ok := r.store.Peek(e)
		if !ok || sc.Class == scene.ClassUnknown {
			continue
		}
		if box.Contains(sc.Start) && box.Contains(sc.End) {
			out = append(out, e)
		}
	}
	return out
}
