// Package edgegeom computes edge geometry: classification into self-loop,
// straight and bezier edges, control points for parallel edges, endpoints
// trimmed to node shapes and arrowhead anchors. Results are cached in the
// render scratch and recomputed only when an edge's inputs change.
package edgegeom

import (
	"math"

	"github.com/ha1tch/graphcanvas/pkg/geom"
	"github.com/ha1tch/graphcanvas/pkg/scene"
)

// maxLoopHistory caps the sampled curve points kept for a self-loop.
const maxLoopHistory = 12

// curveSamples are the parameters sampled on each quadratic segment.
var curveSamples = [...]float64{0.05, 0.25, 0.35, 0.65, 0.75, 0.95}

// Stats counts signature cache hits and misses.
type Stats struct {
	Hits   int
	Misses int
}

// Solver computes edge geometry into a scratch store.
type Solver struct {
	shapes geom.ShapeSet
	store  *scene.ScratchStore
	stats  Stats
}

// New creates a solver resolving node shapes through shapes.
func New(shapes geom.ShapeSet, store *scene.ScratchStore) *Solver {
	if shapes == nil {
		shapes = geom.DefaultShapes()
	}
	return &Solver{shapes: shapes, store: store}
}

// Stats returns the cache counters accumulated so far.
func (s *Solver) Stats() Stats { return s.stats }

// ResetStats zeroes the cache counters.
func (s *Solver) ResetStats() { s.stats = Stats{} }

type pairKey struct{ a, b string }

func keyOf(e scene.Edge) pairKey {
	a, b := e.Source().ID(), e.Target().ID()
	if a > b {
		a, b = b, a
	}
	return pairKey{a, b}
}

// Update classifies every displayed edge and recomputes the geometry of
// those whose signature changed. Edges are grouped by unordered endpoint
// pair in first-seen order; hidden edges take no slot in their group.
func (s *Solver) Update(edges []scene.Edge) {
	groups := make(map[pairKey][]scene.Edge)
	var order []pairKey
	for _, e := range edges {
		if !e.Style().Displayed() {
			continue
		}
		k := keyOf(e)
		if _, ok := groups[k]; !ok {
			order = append(order, k)
		}
		groups[k] = append(groups[k], e)
	}

	for _, k := range order {
		s.updateGroup(groups[k])
	}
}

func (s *Solver) updateGroup(group []scene.Edge) {
	src, tgt := group[0].Source(), group[0].Target()
	srcPos, tgtPos := src.Position(), tgt.Position()
	mid := geom.Mid(srcPos, tgtPos)

	// Perpendicular to the group's source->target axis
	var perp geom.Point
	if len(group) > 1 {
		perp = geom.Pt(tgtPos.Y-srcPos.Y, srcPos.X-tgtPos.X).Unit()
	}

	n := len(group)
	for i, e := range group {
		sc := s.store.For(e)
		sig := scene.Signature{
			SrcPos: srcPos,
			TgtPos: tgtPos,
			SrcW:   src.OuterWidth(),
			SrcH:   src.OuterHeight(),
			TgtW:   tgt.OuterWidth(),
			TgtH:   tgt.OuterHeight(),
			Index:  i,
			Group:  n,
		}
		if sc.HasSig && sc.Sig == sig {
			s.stats.Hits++
			continue
		}
		s.stats.Misses++
		sc.Sig, sc.HasSig = sig, true

		step := e.Style().ControlPointStepSize
		switch {
		case e.Source() == e.Target():
			s.selfLoop(sc, e.Source(), i, step)
		case n%2 == 1 && i == n/2:
			sc.Class = scene.ClassStraight
		default:
			sc.Class = scene.ClassBezier
			sc.Ctrl = mid.Add(perp.Scale((0.5 - float64(n)/2 + float64(i)) * step))
		}
		s.Endpoints(e)
	}
}

// selfLoop places the two control points of the i-th loop on n. Offsets
// grow sub-linearly with node size and linearly with the loop index so
// successive loops fan outward.
func (s *Solver) selfLoop(sc *scene.Scratch, n scene.Node, i int, step float64) {
	p := n.Position()
	fan := step * (float64(i)/3 + 1)

	sc.Class = scene.ClassSelf
	sc.LoopA = geom.Pt(p.X, p.Y-(1+math.Pow(n.Height(), 1.12)/100)*fan)
	sc.LoopC = geom.Pt(p.X-(1+math.Pow(n.Width(), 1.12)/100)*fan, p.Y)
	sc.LoopMid = geom.Mid(sc.LoopA, sc.LoopC)
}

// boundary intersects the line from toward to n's centre with n's shape.
func (s *Solver) boundary(n scene.Node, toward geom.Point) (geom.Point, bool) {
	st := n.Style()
	sh := s.shapes.Shape(st.Shape)
	return sh.IntersectLine(n.Position(), n.Width(), n.Height(), toward, st.BorderWidth/2)
}

// Endpoints recomputes the trimmed stroke ends and arrow anchors of e from
// its current classification, then records sampled curve points for hit
// testing. Edges not yet classified are left untouched.
func (s *Solver) Endpoints(e scene.Edge) {
	sc := s.store.For(e)
	src, tgt := e.Source(), e.Target()
	st := e.Style()
	width := st.Width.Px
	srcArrow, tgtArrow := geom.Arrow(st.SourceArrowShape), geom.Arrow(st.TargetArrowShape)

	var towardSrc, towardTgt geom.Point
	switch sc.Class {
	case scene.ClassSelf:
		towardSrc, towardTgt = sc.LoopA, sc.LoopC
	case scene.ClassBezier:
		towardSrc, towardTgt = sc.Ctrl, sc.Ctrl
	case scene.ClassStraight:
		towardSrc, towardTgt = tgt.Position(), src.Position()
	default:
		return
	}

	sc.NoArrowPlacement = false

	hit, ok := s.boundary(tgt, towardTgt)
	if !ok {
		sc.NoArrowPlacement = sc.Class == scene.ClassStraight
		hit = tgt.Position()
	}
	sc.ArrowEnd = geom.ShortenIntersection(hit, towardTgt, tgtArrow.Spacing(width))
	sc.End = geom.ShortenIntersection(hit, towardTgt, tgtArrow.Gap(width))

	hit, ok = s.boundary(src, towardSrc)
	if !ok {
		sc.NoArrowPlacement = sc.NoArrowPlacement || sc.Class == scene.ClassStraight
		hit = src.Position()
	}
	sc.ArrowStart = geom.ShortenIntersection(hit, towardSrc, srcArrow.Spacing(width))
	sc.Start = geom.ShortenIntersection(hit, towardSrc, srcArrow.Gap(width))

	sc.TooShort = false
	if sc.Class == scene.ClassStraight {
		nodeDisp := tgt.Position().Sub(src.Position())
		edgeDisp := sc.End.Sub(sc.Start)
		sc.TooShort = nodeDisp.Dot(edgeDisp) < 0 || edgeDisp.Len() == 0
	}

	s.sampleCurve(sc)
}

// sampleCurve appends samples of the drawn segments to the curve history.
// Non-loop edges start from scratch each time; loops keep accumulating and
// start over once the cap is reached.
func (s *Solver) sampleCurve(sc *scene.Scratch) {
	loop := sc.Class == scene.ClassSelf
	if !loop {
		sc.CurvePts = sc.CurvePts[:0]
	}
	for _, q := range sc.Segments() {
		if loop && len(sc.CurvePts) >= maxLoopHistory {
			sc.CurvePts = sc.CurvePts[:0]
		}
		for _, t := range curveSamples {
			sc.CurvePts = append(sc.CurvePts, q.At(t))
		}
	}
}

// Bounds returns the bounding box of e's drawn geometry including its
// arrow anchors. ok is false for edges without computed geometry.
func (s *Solver) Bounds(e scene.Edge) (geom.Rect, bool) {
	sc, ok := s.store.Peek(e)
	if !ok {
		return geom.Rect{}, false
	}
	segs := sc.Segments()
	if len(segs) == 0 {
		return geom.Rect{}, false
	}
	b := segs[0].Bounds()
	for _, q := range segs[1:] {
		b = b.Union(q.Bounds())
	}
	return b.Union(geom.Bounds([]geom.Point{sc.ArrowStart, sc.ArrowEnd})), true
}

// Distance returns how far p lies from e's drawn curve. ok is false for
// edges without computed geometry.
func (s *Solver) Distance(e scene.Edge, p geom.Point) (float64, bool) {
	sc, ok := s.store.Peek(e)
	if !ok {
		return 0, false
	}
	segs := sc.Segments()
	if len(segs) == 0 {
		return 0, false
	}
	best := math.Inf(1)
	for _, q := range segs {
		best = math.Min(best, q.DistanceTo(p))
	}
	return best, true
}
