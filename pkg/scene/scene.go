// Package scene declares what the renderer consumes from the graph: element
// accessors, selection and event dispatch, the viewport, feature switches
// and lifecycle notifications. It also owns the per-element render scratch.
package scene

import (
	"github.com/ha1tch/graphcanvas/pkg/geom"
	"github.com/ha1tch/graphcanvas/pkg/style"
)

// Event names emitted on elements and on the graph.
const (
	EventTapStart    = "tapstart"
	EventTapEnd      = "tapend"
	EventTap         = "tap"
	EventTapHold     = "taphold"
	EventClick       = "click"
	EventVClick      = "vclick"
	EventMouseDown   = "mousedown"
	EventMouseUp     = "mouseup"
	EventMouseMove   = "mousemove"
	EventMouseOver   = "mouseover"
	EventMouseOut    = "mouseout"
	EventVMouseDown  = "vmousedown"
	EventVMouseUp    = "vmouseup"
	EventVMouseMove  = "vmousemove"
	EventTouchStart  = "touchstart"
	EventTouchMove   = "touchmove"
	EventTouchEnd    = "touchend"
	EventTouchOver   = "touchover"
	EventTouchOut    = "touchout"
	EventTapDrag     = "tapdrag"
	EventCxtTapStart = "cxttapstart"
	EventCxtDrag     = "cxtdrag"
	EventCxtTapEnd   = "cxttapend"
	EventCxtTap      = "cxttap"
	EventGrab        = "grab"
	EventDrag        = "drag"
	EventFree        = "free"
	EventPosition    = "position"
	EventSelect      = "select"
	EventUnselect    = "unselect"
	EventPan         = "pan"
	EventZoom        = "zoom"
	EventViewport    = "viewport"
	EventInitRender  = "initrender"
)

// Event is delivered to element and graph handlers.
type Event struct {
	Name     string
	Target   Element // nil when the graph itself is the target
	Position geom.Point
}

// Handler receives named events.
type Handler func(Event)

// Element is a node or an edge.
type Element interface {
	ID() string
	IsNode() bool
	Style() *style.Style

	Selected() bool
	Selectable() bool
	Active() bool
	SetActive(bool)

	// Emit dispatches a named event on the element; it bubbles to the graph.
	Emit(name string, ev Event)
}

// Node is a graph vertex, possibly a compound parent.
type Node interface {
	Element

	Position() geom.Point
	SetPosition(geom.Point)

	// Width and Height exclude the border; the outer variants include it.
	Width() float64
	Height() float64
	OuterWidth() float64
	OuterHeight() float64

	Locked() bool
	Grabbable() bool
	Grabbed() bool
	SetGrabbed(bool)

	Parent() Node
	Children() []Node
	IsParent() bool

	// AutoSized reports a compound whose size derives from its children.
	AutoSized() bool

	// ConnectedEdges returns the edges incident to the node.
	ConnectedEdges() []Edge
}

// Edge connects a source to a target node.
type Edge interface {
	Element
	Source() Node
	Target() Node
}

// SelectionType governs how clicks and boxes change the selection.
type SelectionType int

const (
	// SelectExclusive replaces the selection unless the modifier is held.
	SelectExclusive SelectionType = iota
	// SelectAdditive toggles clicked elements and adds boxed ones.
	SelectAdditive
)

func (t SelectionType) String() string {
	if t == SelectAdditive {
		return "additive"
	}
	return "exclusive"
}

// NotifyKind is a lifecycle notification delivered to the renderer.
type NotifyKind int

const (
	NotifyAdd NotifyKind = iota
	NotifyRemove
	NotifyLoad
	NotifyViewport
	NotifyStyle
	NotifyDestroy
)

func (k NotifyKind) String() string {
	switch k {
	case NotifyAdd:
		return "add"
	case NotifyRemove:
		return "remove"
	case NotifyLoad:
		return "load"
	case NotifyViewport:
		return "viewport"
	case NotifyStyle:
		return "style"
	case NotifyDestroy:
		return "destroy"
	}
	return "unknown"
}

// Graph is the collection the renderer draws and mutates.
type Graph interface {
	Nodes() []Node
	Edges() []Edge

	// ZSorted returns every element in paint order, bottom first.
	ZSorted() []Element

	Select(els ...Element)
	Unselect(els ...Element)
	UnselectAll()
	SelectedElements() []Element

	Emit(name string, ev Event)

	Pan() geom.Point
	Zoom() float64
	SetViewport(pan geom.Point, zoom float64)
	PanBy(d geom.Point)
	// ZoomAt sets the zoom level keeping the rendered point fixed.
	ZoomAt(level float64, rendered geom.Point)

	PanningEnabled() bool
	ZoomingEnabled() bool
	BoxSelectionEnabled() bool
	SelectionType() SelectionType

	CoreStyle() style.Core

	// Subscribe registers for lifecycle notifications.
	Subscribe(fn func(NotifyKind)) (unsubscribe func())
}

// Viewport returns the graph's current transform.
func Viewport(g Graph) geom.Transform {
	return geom.Transform{Pan: g.Pan(), Zoom: g.Zoom()}
}

// Draggable reports whether a node can be grabbed: visible, opaque,
// unlocked and grabbable.
func Draggable(n Node) bool {
	return n.Style().Shown() && !n.Locked() && n.Grabbable()
}

// EffectiveOpacity multiplies the element opacity with every ancestor's.
// A zero result means the element or an ancestor is fully transparent.
func EffectiveOpacity(el Element) float64 {
	op := el.Style().Opacity
	n, ok := el.(Node)
	if !ok {
		return op
	}
	for p := n.Parent(); p != nil && op > 0; p = p.Parent() {
		op *= p.Style().Opacity
	}
	return op
}

// Ancestors returns the parent chain of n, nearest first.
func Ancestors(n Node) []Node {
	var out []Node
	for p := n.Parent(); p != nil; p = p.Parent() {
		out = append(out, p)
	}
	return out
}
