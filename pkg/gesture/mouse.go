package gesture

import (
	"github.com/ha1tch/graphcanvas/pkg/compositor"
	"github.com/ha1tch/graphcanvas/pkg/geom"
	"github.com/ha1tch/graphcanvas/pkg/scene"
)

// PointerKind distinguishes press, move and release.
type PointerKind int

const (
	PointerDown PointerKind = iota
	PointerMove
	PointerUp
)

// Button is the mouse button involved in a pointer event.
type Button int

const (
	ButtonPrimary Button = iota
	ButtonSecondary
)

// PointerEvent is a mouse event at Pos in container pixels.
type PointerEvent struct {
	Kind   PointerKind
	Button Button
	Pos    geom.Point
	Shift  bool
}

// Releases closer than this to the press position count as clicks.
const clickSlop = 0.5

// HandlePointer processes one mouse event.
func (r *Recognizer) HandlePointer(ev PointerEvent) {
	end := r.comp.Batch()
	defer end()

	switch ev.Kind {
	case PointerDown:
		r.pointerDown(ev)
	case PointerMove:
		r.pointerMove(ev)
	case PointerUp:
		r.pointerUp(ev)
	}
	r.comp.Redraw()
}

func (r *Recognizer) pointerDown(ev PointerEvent) {
	pos := r.toModel(ev.Pos)
	near := r.HitTest(pos)

	r.bgTimer.Stop()
	r.releaseDrag(pos)
	r.reset()
	r.s.Down = near
	r.s.Shift = ev.Shift
	r.s.DownTime = r.loop.Now()
	r.s.StartScreen, r.s.LastScreen = ev.Pos, ev.Pos
	r.s.Start, r.s.Last = pos, pos

	if ev.Button == ButtonSecondary {
		r.setMode(ModeContextGesture)
		r.activate(near)
		r.emit(near, pos, scene.EventCxtTapStart)
		return
	}

	r.setMode(ModePendingClassify)
	r.activate(near)
	if n, ok := near.(scene.Node); ok && scene.Draggable(n) {
		r.grab(n, pos)
	}
	r.emit(near, pos, scene.EventMouseDown, scene.EventTapStart, scene.EventVMouseDown)

	if near == nil || isEdge(near) {
		r.bgTimer = r.loop.AfterFunc(r.cfg.PanOrBoxDelay, r.panOrBoxTimeout)
	}
}

// panOrBoxTimeout turns a background press that has not moved into a pan
// and shows the active-background marker.
func (r *Recognizer) panOrBoxTimeout() {
	end := r.comp.Batch()
	defer end()

	if r.s.Mode != ModePendingClassify || r.s.Moved >= r.cfg.MoveThreshold {
		return
	}
	if !r.graph.PanningEnabled() || r.boxRequested() {
		return
	}
	r.unactivate(r.s.Down)
	r.setMode(ModePanning)
	r.setBgActive(r.s.Last)
	r.comp.Redraw()
}

// boxRequested reports a press that should box-select rather than pan.
func (r *Recognizer) boxRequested() bool {
	if !r.graph.BoxSelectionEnabled() {
		return false
	}
	return r.s.Shift || !r.graph.PanningEnabled()
}

func (r *Recognizer) pointerMove(ev PointerEvent) {
	pos := r.toModel(ev.Pos)
	near := r.HitTest(pos)
	r.emit(near, pos, scene.EventMouseMove)

	switch r.s.Mode {
	case ModeContextGesture:
		r.emit(r.s.Down, pos, scene.EventCxtDrag)
		r.s.CxtDragged = true

	case ModePanning:
		if r.graph.PanningEnabled() {
			r.graph.PanBy(ev.Pos.Sub(r.s.LastScreen))
		}
		pos = r.toModel(ev.Pos)

	case ModePendingClassify:
		r.s.Moved = max(r.s.Moved, manhattan(ev.Pos, r.s.StartScreen))
		r.hover(near, pos, scene.EventMouseOut, scene.EventMouseOver)
		switch {
		case len(r.s.DragSet) > 0:
			r.moveDragSet(pos.Sub(r.s.Last), pos)
		case r.s.Down == nil || isEdge(r.s.Down):
			r.unactivate(r.s.Down)
			if r.s.Moved < r.cfg.MoveThreshold {
				break
			}
			r.bgTimer.Stop()
			if r.boxRequested() {
				r.setMode(ModeBoxSelecting)
				r.s.BoxStart, r.s.BoxEnd, r.s.HasBox = r.s.Start, pos, true
				r.comp.MarkDirty(compositor.SelectBox, "Mouse moved, redraw selection box")
			} else if r.graph.PanningEnabled() {
				r.setMode(ModePanning)
				r.graph.PanBy(ev.Pos.Sub(r.s.LastScreen))
				pos = r.toModel(ev.Pos)
			}
		}

	case ModeDragging:
		r.hover(near, pos, scene.EventMouseOut, scene.EventMouseOver)
		r.moveDragSet(pos.Sub(r.s.Last), pos)

	case ModeBoxSelecting:
		r.hover(near, pos, scene.EventMouseOut, scene.EventMouseOver)
		r.s.BoxEnd = pos
		r.comp.MarkDirty(compositor.SelectBox, "Mouse moved, redraw selection box")

	default:
		r.hover(near, pos, scene.EventMouseOut, scene.EventMouseOver)
	}

	r.s.LastScreen = ev.Pos
	r.s.Last = pos
}

func (r *Recognizer) pointerUp(ev PointerEvent) {
	if r.s.Mode == ModeIdle {
		return
	}
	pos := r.toModel(ev.Pos)
	near := r.HitTest(pos)
	down := r.s.Down

	r.bgTimer.Stop()
	r.clearBgActive()
	r.unactivate(down)

	if r.s.Mode == ModeContextGesture {
		r.emit(down, pos, scene.EventCxtTapEnd)
		if !r.s.CxtDragged {
			r.emit(down, pos, scene.EventCxtTap)
		}
		r.reset()
		return
	}

	mode := r.s.Mode
	pending := mode == ModePendingClassify
	click := pending && ev.Pos.Dist(r.s.StartScreen) < clickSlop

	if down == nil && pending {
		if len(r.graph.SelectedElements()) > 0 {
			r.graph.UnselectAll()
			r.comp.MarkDirty(compositor.Node, "De-select")
		}
	}

	if click {
		r.emit(near, pos, scene.EventClick, scene.EventTap, scene.EventVClick)
	}
	r.emit(near, pos, scene.EventMouseUp, scene.EventTapEnd, scene.EventVMouseUp)

	if pending && near != nil && near == down && near.Selectable() {
		r.selectClicked(near, r.s.Shift)
	}

	if mode == ModeBoxSelecting {
		r.selectBoxed(r.InBox(geom.RectFromCorners(r.s.BoxStart, pos)), r.s.Shift)
	}

	r.releaseDrag(pos)
	r.comp.MarkDirty(compositor.SelectBox, "Mouse up, selection box gone")
	r.reset()
}
