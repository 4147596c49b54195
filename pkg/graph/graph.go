// Package graph is an in-memory node-link graph with selection, named
// events, a viewport and compound nodes. It is the collection the renderer
// draws and the gesture recognizer mutates.
package graph

import (
	"math"
	"sort"

	"github.com/google/uuid"
	"go.trai.ch/zerr"

	"github.com/ha1tch/graphcanvas/pkg/geom"
	"github.com/ha1tch/graphcanvas/pkg/scene"
	"github.com/ha1tch/graphcanvas/pkg/style"
)

// Errors returned by structural mutations.
var (
	ErrDuplicateID = zerr.New("duplicate element id")
	ErrUnknownNode = zerr.New("unknown node")
	ErrUnknownID   = zerr.New("unknown element id")
	ErrCycle       = zerr.New("parent cycle")
)

// Options configures a Graph.
type Options struct {
	MinZoom             float64
	MaxZoom             float64
	PanningEnabled      bool
	ZoomingEnabled      bool
	BoxSelectionEnabled bool
	SelectionType       scene.SelectionType
	Core                style.Core
}

// DefaultOptions returns the default graph options.
func DefaultOptions() Options {
	return Options{
		MinZoom:             1e-50,
		MaxZoom:             1e50,
		PanningEnabled:      true,
		ZoomingEnabled:      true,
		BoxSelectionEnabled: true,
		SelectionType:       scene.SelectExclusive,
		Core:                style.DefaultCore(),
	}
}

// Graph holds nodes and edges in insertion order.
type Graph struct {
	opts  Options
	nodes []*Node
	edges []*Edge
	byID  map[string]scene.Element

	pan  geom.Point
	zoom float64

	handlers map[string][]scene.Handler
	subs     map[int]func(scene.NotifyKind)
	nextSub  int
}

var _ scene.Graph = (*Graph)(nil)

// New creates an empty graph.
func New(opts Options) *Graph {
	return &Graph{
		opts:     opts,
		byID:     make(map[string]scene.Element),
		zoom:     1,
		handlers: make(map[string][]scene.Handler),
		subs:     make(map[int]func(scene.NotifyKind)),
	}
}

// NodeData describes a node to add.
type NodeData struct {
	ID         string
	Parent     string
	Position   geom.Point
	Style      map[string]string
	Locked     bool
	Grabbable  *bool
	Selectable *bool
	Selected   bool
}

// EdgeData describes an edge to add.
type EdgeData struct {
	ID         string
	Source     string
	Target     string
	Style      map[string]string
	Selectable *bool
	Selected   bool
}

func boolOr(p *bool, def bool) bool {
	if p == nil {
		return def
	}
	return *p
}

// AddNode adds a node. A missing ID is generated.
func (g *Graph) AddNode(d NodeData) (*Node, error) {
	n, err := g.addNode(d, style.DefaultNode())
	if err != nil {
		return nil, err
	}
	if d.Parent != "" {
		if err := g.setParent(n, d.Parent); err != nil {
			g.removeNode(n)
			return nil, err
		}
	}
	g.notify(scene.NotifyAdd)
	return n, nil
}

func (g *Graph) addNode(d NodeData, defaults style.Style) (*Node, error) {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	if _, ok := g.byID[d.ID]; ok {
		return nil, zerr.With(ErrDuplicateID, "id", d.ID)
	}

	st := defaults
	if err := st.ApplyAll(d.Style); err != nil {
		return nil, zerr.With(err, "id", d.ID)
	}

	n := &Node{
		element: element{
			g:          g,
			id:         d.ID,
			st:         st,
			selected:   d.Selected,
			selectable: boolOr(d.Selectable, true),
		},
		pos:       d.Position,
		locked:    d.Locked,
		grabbable: boolOr(d.Grabbable, true),
	}
	g.nodes = append(g.nodes, n)
	g.byID[n.id] = n
	return n, nil
}

func (g *Graph) setParent(n *Node, parentID string) error {
	p, ok := g.byID[parentID].(*Node)
	if !ok {
		return zerr.With(ErrUnknownNode, "parent", parentID)
	}
	for a := p; a != nil; a = a.parent {
		if a == n {
			return zerr.With(ErrCycle, "id", n.id)
		}
	}
	n.parent = p
	p.children = append(p.children, n)
	return nil
}

// AddEdge adds an edge between existing nodes. A missing ID is generated.
func (g *Graph) AddEdge(d EdgeData) (*Edge, error) {
	e, err := g.addEdge(d, style.DefaultEdge())
	if err != nil {
		return nil, err
	}
	g.notify(scene.NotifyAdd)
	return e, nil
}

func (g *Graph) addEdge(d EdgeData, defaults style.Style) (*Edge, error) {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	if _, ok := g.byID[d.ID]; ok {
		return nil, zerr.With(ErrDuplicateID, "id", d.ID)
	}
	src, ok := g.byID[d.Source].(*Node)
	if !ok {
		return nil, zerr.With(zerr.With(ErrUnknownNode, "source", d.Source), "edge", d.ID)
	}
	tgt, ok := g.byID[d.Target].(*Node)
	if !ok {
		return nil, zerr.With(zerr.With(ErrUnknownNode, "target", d.Target), "edge", d.ID)
	}

	st := defaults
	if err := st.ApplyAll(d.Style); err != nil {
		return nil, zerr.With(err, "id", d.ID)
	}

	e := &Edge{
		element: element{
			g:          g,
			id:         d.ID,
			st:         st,
			selected:   d.Selected,
			selectable: boolOr(d.Selectable, true),
		},
		source: src,
		target: tgt,
	}
	g.edges = append(g.edges, e)
	g.byID[e.id] = e
	src.edges = append(src.edges, e)
	if tgt != src {
		tgt.edges = append(tgt.edges, e)
	}
	return e, nil
}

// Remove deletes an element. Removing a node also removes its incident
// edges and detaches its children.
func (g *Graph) Remove(id string) error {
	el, ok := g.byID[id]
	if !ok {
		return zerr.With(ErrUnknownID, "id", id)
	}
	switch v := el.(type) {
	case *Node:
		for _, e := range append([]*Edge(nil), v.edges...) {
			g.removeEdge(e)
		}
		g.removeNode(v)
	case *Edge:
		g.removeEdge(v)
	}
	g.notify(scene.NotifyRemove)
	return nil
}

func (g *Graph) removeNode(n *Node) {
	for _, c := range n.children {
		c.parent = nil
	}
	if n.parent != nil {
		n.parent.children = without(n.parent.children, n)
	}
	g.nodes = without(g.nodes, n)
	delete(g.byID, n.id)
}

func (g *Graph) removeEdge(e *Edge) {
	e.source.edges = without(e.source.edges, e)
	e.target.edges = without(e.target.edges, e)
	g.edges = without(g.edges, e)
	delete(g.byID, e.id)
}

func without[T comparable](s []T, v T) []T {
	out := s[:0]
	for _, x := range s {
		if x != v {
			out = append(out, x)
		}
	}
	return out
}

// Get looks up an element by ID.
func (g *Graph) Get(id string) (scene.Element, bool) {
	el, ok := g.byID[id]
	return el, ok
}

// Node looks up a node by ID.
func (g *Graph) Node(id string) (*Node, bool) {
	n, ok := g.byID[id].(*Node)
	return n, ok
}

// Edge looks up an edge by ID.
func (g *Graph) Edge(id string) (*Edge, bool) {
	e, ok := g.byID[id].(*Edge)
	return e, ok
}

func (g *Graph) Nodes() []scene.Node {
	out := make([]scene.Node, len(g.nodes))
	for i, n := range g.nodes {
		out[i] = n
	}
	return out
}

func (g *Graph) Edges() []scene.Edge {
	out := make([]scene.Edge, len(g.edges))
	for i, e := range g.edges {
		out[i] = e
	}
	return out
}

// ZSorted paints compound parents first, shallowest first, then edges,
// then leaf nodes.
func (g *Graph) ZSorted() []scene.Element {
	var parents, leaves []*Node
	for _, n := range g.nodes {
		if n.IsParent() {
			parents = append(parents, n)
		} else {
			leaves = append(leaves, n)
		}
	}
	sort.SliceStable(parents, func(i, j int) bool {
		return parents[i].depth() < parents[j].depth()
	})

	out := make([]scene.Element, 0, len(g.nodes)+len(g.edges))
	for _, n := range parents {
		out = append(out, n)
	}
	for _, e := range g.edges {
		out = append(out, e)
	}
	for _, n := range leaves {
		out = append(out, n)
	}
	return out
}

// Selection

func (g *Graph) Select(els ...scene.Element) {
	for _, el := range els {
		b := base(el)
		if b == nil || !b.selectable || b.selected {
			continue
		}
		b.selected = true
		el.Emit(scene.EventSelect, scene.Event{})
	}
}

func (g *Graph) Unselect(els ...scene.Element) {
	for _, el := range els {
		b := base(el)
		if b == nil || !b.selected {
			continue
		}
		b.selected = false
		el.Emit(scene.EventUnselect, scene.Event{})
	}
}

func (g *Graph) UnselectAll() {
	g.Unselect(g.SelectedElements()...)
}

func (g *Graph) SelectedElements() []scene.Element {
	var out []scene.Element
	for _, n := range g.nodes {
		if n.selected {
			out = append(out, n)
		}
	}
	for _, e := range g.edges {
		if e.selected {
			out = append(out, e)
		}
	}
	return out
}

func base(el scene.Element) *element {
	switch v := el.(type) {
	case *Node:
		return &v.element
	case *Edge:
		return &v.element
	}
	return nil
}

// Events

// On registers a graph-level handler. Element events bubble here.
func (g *Graph) On(name string, h scene.Handler) {
	g.handlers[name] = append(g.handlers[name], h)
}

// Emit dispatches a named event with the graph as target.
func (g *Graph) Emit(name string, ev scene.Event) {
	ev.Name = name
	ev.Target = nil
	g.dispatch(name, ev)
}

func (g *Graph) dispatch(name string, ev scene.Event) {
	for _, h := range g.handlers[name] {
		h(ev)
	}
}

// Viewport

// Pan returns the rendered position of the model origin.
func (g *Graph) Pan() geom.Point { return g.pan }

// Zoom returns the current scale factor.
func (g *Graph) Zoom() float64 { return g.zoom }

func (g *Graph) clampZoom(z float64) float64 {
	return math.Max(g.opts.MinZoom, math.Min(g.opts.MaxZoom, z))
}

// SetViewport replaces pan and zoom, clamping zoom to the configured range.
func (g *Graph) SetViewport(pan geom.Point, zoom float64) {
	zoom = g.clampZoom(zoom)
	panned := pan != g.pan
	zoomed := zoom != g.zoom
	if !panned && !zoomed {
		return
	}
	g.pan, g.zoom = pan, zoom

	if panned {
		g.Emit(scene.EventPan, scene.Event{})
	}
	if zoomed {
		g.Emit(scene.EventZoom, scene.Event{})
	}
	g.Emit(scene.EventViewport, scene.Event{})
	g.notify(scene.NotifyViewport)
}

// PanBy shifts the viewport by d rendered pixels.
func (g *Graph) PanBy(d geom.Point) {
	g.SetViewport(g.pan.Add(d), g.zoom)
}

// ZoomAt sets the zoom level while keeping the model point under rendered
// in place.
func (g *Graph) ZoomAt(level float64, rendered geom.Point) {
	level = g.clampZoom(level)
	model := scene.Viewport(g).ToModel(rendered)
	g.SetViewport(rendered.Sub(model.Scale(level)), level)
}

// PanningEnabled reports whether user gestures may pan.
func (g *Graph) PanningEnabled() bool { return g.opts.PanningEnabled }

// ZoomingEnabled reports whether user gestures may zoom.
func (g *Graph) ZoomingEnabled() bool { return g.opts.ZoomingEnabled }

// BoxSelectionEnabled reports whether shift-drag draws a selection box.
func (g *Graph) BoxSelectionEnabled() bool { return g.opts.BoxSelectionEnabled }

// SelectionType returns how clicks combine with the current selection.
func (g *Graph) SelectionType() scene.SelectionType { return g.opts.SelectionType }

// CoreStyle returns the styling for the selection box and pan marker.
func (g *Graph) CoreStyle() style.Core { return g.opts.Core }

// SetOptions replaces the feature switches and limits.
func (g *Graph) SetOptions(opts Options) {
	g.opts = opts
	g.SetViewport(g.pan, g.zoom)
}

// Options returns the current options.
func (g *Graph) Options() Options { return g.opts }

// Notifications

// Subscribe registers fn for change notifications and returns a function
// that removes it.
func (g *Graph) Subscribe(fn func(scene.NotifyKind)) func() {
	id := g.nextSub
	g.nextSub++
	g.subs[id] = fn
	return func() { delete(g.subs, id) }
}

func (g *Graph) notify(kind scene.NotifyKind) {
	ids := make([]int, 0, len(g.subs))
	for id := range g.subs {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		if fn, ok := g.subs[id]; ok {
			fn(kind)
		}
	}
}

// StyleChanged tells subscribers that computed styles were edited in place.
func (g *Graph) StyleChanged() {
	g.notify(scene.NotifyStyle)
}

// Destroy notifies subscribers that the graph is going away.
func (g *Graph) Destroy() {
	g.notify(scene.NotifyDestroy)
}

// Bounds returns the bounding box of every node's outer box.
func (g *Graph) Bounds() geom.Rect {
	var b geom.Rect
	for i, n := range g.nodes {
		p := n.Position()
		r := geom.Rect{X: p.X, Y: p.Y, W: n.OuterWidth(), H: n.OuterHeight()}
		if i == 0 {
			b = r
		} else {
			b = b.Union(r)
		}
	}
	return b
}
