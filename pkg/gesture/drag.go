package gesture

import (
	"github.com/ha1tch/graphcanvas/pkg/compositor"
	"github.com/ha1tch/graphcanvas/pkg/geom"
	"github.com/ha1tch/graphcanvas/pkg/scene"
)

const reasonDragEnd = "Node/nodes back from drag"

// grab builds the drag set for a press on pressed and moves it onto the
// drag layer.
//
// An unselected node is dragged alone; a selected one drags every
// draggable selected node. Auto-sized compounds bring their descendants,
// stopping below any fixed-size compound. Dragged nodes go up with their
// edges and their ancestors, so compound parents resize above them.
func (r *Recognizer) grab(pressed scene.Node, at geom.Point) {
	var roots []scene.Node
	if pressed.Selected() {
		for _, el := range r.graph.SelectedElements() {
			if n, ok := el.(scene.Node); ok && scene.Draggable(n) {
				roots = append(roots, n)
			}
		}
	} else {
		roots = []scene.Node{pressed}
	}

	seen := make(map[scene.Node]struct{})
	add := func(n scene.Node) {
		if _, ok := seen[n]; ok {
			return
		}
		seen[n] = struct{}{}
		r.s.DragSet = append(r.s.DragSet, n)
	}

	for _, n := range roots {
		add(n)
		n.SetGrabbed(true)
		if n.AutoSized() {
			addDescendants(n, add)
		}
	}
	for _, n := range r.s.DragSet {
		r.flag(n)
		for _, e := range n.ConnectedEdges() {
			r.flag(e)
		}
		r.flagAncestors(n)
	}
	r.s.grabbed = pressed
	r.emit(pressed, at, scene.EventGrab)
	r.comp.InvalidatePartition()
}

func addDescendants(n scene.Node, add func(scene.Node)) {
	for _, c := range n.Children() {
		add(c)
		if c.AutoSized() {
			addDescendants(c, add)
		}
	}
}

func (r *Recognizer) flagAncestors(n scene.Node) {
	for p := n.Parent(); p != nil; p = p.Parent() {
		r.flag(p)
	}
}

func (r *Recognizer) flag(el scene.Element) {
	if r.s.flagged == nil {
		r.s.flagged = make(map[scene.Element]struct{})
	}
	r.s.flagged[el] = struct{}{}
	r.store.For(el).InDragLayer = true
}

// moveDragSet translates every draggable node in the drag set by d.
func (r *Recognizer) moveDragSet(d geom.Point, at geom.Point) {
	first := !r.s.DidDrag
	var moved []scene.Node
	for _, n := range r.s.DragSet {
		if !scene.Draggable(n) {
			continue
		}
		n.SetPosition(n.Position().Add(d))
		moved = append(moved, n)
	}
	if len(moved) == 0 {
		return
	}
	r.s.DidDrag = true
	r.setMode(ModeDragging)
	for _, n := range moved {
		r.emit(n, at, scene.EventDrag, scene.EventPosition)
	}
	if first {
		r.comp.MarkDirty(compositor.Node, "Node(s) and edge(s) moved to drag layer")
	}
	r.comp.MarkDirty(compositor.Drag, "Nodes dragged")
}

// releaseDrag takes everything off the drag layer, emits free on the
// grabbed node and invalidates both element layers once.
func (r *Recognizer) releaseDrag(at geom.Point) {
	if len(r.s.flagged) == 0 && len(r.s.DragSet) == 0 {
		return
	}
	for el := range r.s.flagged {
		if sc, ok := r.store.Peek(el); ok {
			sc.InDragLayer = false
		}
	}
	wasGrabbed := false
	for _, n := range r.s.DragSet {
		if n.Grabbed() {
			wasGrabbed = true
			n.SetGrabbed(false)
		}
	}
	if r.s.grabbed != nil && wasGrabbed {
		r.emit(r.s.grabbed, at, scene.EventFree)
	}
	r.s.flagged = nil
	r.s.DragSet = nil
	r.s.grabbed = nil

	r.comp.InvalidatePartition()
	r.comp.MarkDirty(compositor.Drag, reasonDragEnd)
	r.comp.MarkDirty(compositor.Node, reasonDragEnd)
}

// releaseEverything clears drag flags and activation on the whole graph,
// used when a second finger lands.
func (r *Recognizer) releaseEverything() {
	r.releaseDrag(r.s.Last)
	for _, n := range r.graph.Nodes() {
		n.SetGrabbed(false)
		r.unactivate(n)
	}
	for _, e := range r.graph.Edges() {
		r.unactivate(e)
	}
}
