package graph

import (
	"github.com/ha1tch/graphcanvas/pkg/geom"
	"github.com/ha1tch/graphcanvas/pkg/scene"
	"github.com/ha1tch/graphcanvas/pkg/style"
)

// element holds what nodes and edges share.
type element struct {
	g          *Graph
	id         string
	st         style.Style
	selected   bool
	selectable bool
	active     bool
	handlers   map[string][]scene.Handler
}

func (e *element) ID() string          { return e.id }
func (e *element) Style() *style.Style { return &e.st }
func (e *element) Selected() bool      { return e.selected }
func (e *element) Selectable() bool    { return e.selectable }
func (e *element) Active() bool        { return e.active }
func (e *element) SetActive(v bool)    { e.active = v }

// On registers a handler for a named event on this element.
func (e *element) On(name string, h scene.Handler) {
	if e.handlers == nil {
		e.handlers = make(map[string][]scene.Handler)
	}
	e.handlers[name] = append(e.handlers[name], h)
}

func (e *element) emit(self scene.Element, name string, ev scene.Event) {
	ev.Name = name
	ev.Target = self
	for _, h := range e.handlers[name] {
		h(ev)
	}
	// Bubble to the graph
	e.g.dispatch(name, ev)
}

// Node is a vertex; it becomes a compound parent once it has children.
type Node struct {
	element
	pos       geom.Point
	parent    *Node
	children  []*Node
	edges     []*Edge
	locked    bool
	grabbable bool
	grabbed   bool
}

var _ scene.Node = (*Node)(nil)

func (n *Node) IsNode() bool { return true }

// Emit implements scene.Element.
func (n *Node) Emit(name string, ev scene.Event) { n.emit(n, name, ev) }

// Position returns the centre. Auto-sized compounds derive it from their
// children.
func (n *Node) Position() geom.Point {
	if n.AutoSized() {
		b := n.childBounds()
		return geom.Pt(b.X, b.Y)
	}
	return n.pos
}

// SetPosition moves the node. Auto-sized compounds follow their children
// and ignore it.
func (n *Node) SetPosition(p geom.Point) {
	if n.AutoSized() {
		return
	}
	n.pos = p
}

func (n *Node) Width() float64 {
	if n.AutoSized() {
		return n.childBounds().W + 2*n.st.Padding
	}
	return fixedOr(n.st.Width, 30)
}

func (n *Node) Height() float64 {
	if n.AutoSized() {
		return n.childBounds().H + 2*n.st.Padding
	}
	return fixedOr(n.st.Height, 30)
}

func (n *Node) OuterWidth() float64  { return n.Width() + n.st.BorderWidth }
func (n *Node) OuterHeight() float64 { return n.Height() + n.st.BorderWidth }

func fixedOr(l style.Length, def float64) float64 {
	if l.Auto {
		return def
	}
	return l.Px
}

// childBounds covers the outer boxes of all children.
func (n *Node) childBounds() geom.Rect {
	var b geom.Rect
	for i, c := range n.children {
		p := c.Position()
		r := geom.Rect{X: p.X, Y: p.Y, W: c.OuterWidth(), H: c.OuterHeight()}
		if i == 0 {
			b = r
		} else {
			b = b.Union(r)
		}
	}
	return b
}

func (n *Node) Locked() bool      { return n.locked }
func (n *Node) Grabbable() bool   { return n.grabbable }
func (n *Node) Grabbed() bool     { return n.grabbed }
func (n *Node) SetGrabbed(v bool) { n.grabbed = v }

// SetLocked locks or unlocks the node.
func (n *Node) SetLocked(v bool) { n.locked = v }

// Parent returns the compound parent or nil.
func (n *Node) Parent() scene.Node {
	if n.parent == nil {
		return nil
	}
	return n.parent
}

func (n *Node) Children() []scene.Node {
	out := make([]scene.Node, len(n.children))
	for i, c := range n.children {
		out[i] = c
	}
	return out
}

func (n *Node) IsParent() bool { return len(n.children) > 0 }

// AutoSized reports a compound parent with automatic width and height.
func (n *Node) AutoSized() bool {
	return len(n.children) > 0 && n.st.Width.Auto && n.st.Height.Auto
}

func (n *Node) ConnectedEdges() []scene.Edge {
	out := make([]scene.Edge, len(n.edges))
	for i, e := range n.edges {
		out[i] = e
	}
	return out
}

func (n *Node) depth() int {
	d := 0
	for p := n.parent; p != nil; p = p.parent {
		d++
	}
	return d
}

// Edge connects two nodes.
type Edge struct {
	element
	source, target *Node
}

var _ scene.Edge = (*Edge)(nil)

func (e *Edge) IsNode() bool { return false }

// Emit implements scene.Element.
func (e *Edge) Emit(name string, ev scene.Event) { e.emit(e, name, ev) }

func (e *Edge) Source() scene.Node { return e.source }
func (e *Edge) Target() scene.Node { return e.target }
