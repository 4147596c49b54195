package scene

import "github.com/ha1tch/graphcanvas/pkg/geom"

// EdgeClass is the geometric classification of an edge.
type EdgeClass int

const (
	ClassUnknown EdgeClass = iota
	ClassSelf
	ClassStraight
	ClassBezier
)

func (c EdgeClass) String() string {
	switch c {
	case ClassSelf:
		return "self"
	case ClassStraight:
		return "straight"
	case ClassBezier:
		return "bezier"
	}
	return "unknown"
}

// Signature is the input to an edge's cached geometry. Any change forces
// recomputation.
type Signature struct {
	SrcPos, TgtPos geom.Point
	SrcW, SrcH     float64
	TgtW, TgtH     float64
	Index, Group   int
}

// Scratch is the renderer's private cache attached to one element.
type Scratch struct {
	// InDragLayer places the element on the drag layer.
	InDragLayer bool

	// Edge geometry
	Class   EdgeClass
	Sig     Signature
	HasSig  bool
	Ctrl    geom.Point // bezier control point
	LoopA   geom.Point // self-loop first control point
	LoopC   geom.Point // self-loop second control point
	LoopMid geom.Point

	Start, End           geom.Point // trimmed stroke endpoints
	ArrowStart, ArrowEnd geom.Point // arrowhead anchors

	NoArrowPlacement bool
	TooShort         bool

	// CurvePts is the sampled curve history used for hit testing.
	CurvePts []geom.Point
}

// Segments returns the drawn geometry as quadratic segments.
func (s *Scratch) Segments() []geom.Quad {
	switch s.Class {
	case ClassSelf:
		return []geom.Quad{
			{P0: s.Start, C: s.LoopA, P1: s.LoopMid},
			{P0: s.LoopMid, C: s.LoopC, P1: s.End},
		}
	case ClassBezier:
		return []geom.Quad{{P0: s.Start, C: s.Ctrl, P1: s.End}}
	case ClassStraight:
		return []geom.Quad{geom.Line(s.Start, s.End)}
	}
	return nil
}

// Midpoint returns the label anchor of an edge.
func (s *Scratch) Midpoint() geom.Point {
	switch s.Class {
	case ClassSelf:
		return s.LoopMid
	case ClassBezier:
		return geom.Quad{P0: s.Start, C: s.Ctrl, P1: s.End}.At(0.5)
	}
	return geom.Mid(s.Start, s.End)
}

// ScratchStore lazily attaches Scratch to elements.
type ScratchStore struct {
	m map[Element]*Scratch
}

// NewScratchStore returns an empty store.
func NewScratchStore() *ScratchStore {
	return &ScratchStore{m: make(map[Element]*Scratch)}
}

// For returns the element's scratch, creating it on first use.
func (s *ScratchStore) For(el Element) *Scratch {
	sc, ok := s.m[el]
	if !ok {
		sc = &Scratch{}
		s.m[el] = sc
	}
	return sc
}

// Peek returns the scratch without creating it.
func (s *ScratchStore) Peek(el Element) (*Scratch, bool) {
	sc, ok := s.m[el]
	return sc, ok
}

// InDragLayer reports the element's drag-layer flag.
func (s *ScratchStore) InDragLayer(el Element) bool {
	sc, ok := s.m[el]
	return ok && sc.InDragLayer
}

// Retain drops scratch for every element not in live.
func (s *ScratchStore) Retain(live []Element) {
	keep := make(map[Element]struct{}, len(live))
	for _, el := range live {
		keep[el] = struct{}{}
	}
	for el := range s.m {
		if _, ok := keep[el]; !ok {
			delete(s.m, el)
		}
	}
}

// Len returns the number of elements with scratch attached.
func (s *ScratchStore) Len() int {
	return len(s.m)
}
