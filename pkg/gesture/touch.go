package gesture

import (
	"math"

	"github.com/ha1tch/graphcanvas/pkg/compositor"
	"github.com/ha1tch/graphcanvas/pkg/geom"
	"github.com/ha1tch/graphcanvas/pkg/scene"
)

// TouchKind distinguishes touch start, move and end.
type TouchKind int

const (
	TouchStart TouchKind = iota
	TouchMove
	TouchEnd
)

// TouchEvent lists the fingers currently on the surface, in container
// pixels. For TouchEnd it lists the fingers that remain.
type TouchEvent struct {
	Kind    TouchKind
	Touches []geom.Point
}

// HandleTouch processes one touch event.
func (r *Recognizer) HandleTouch(ev TouchEvent) {
	end := r.comp.Batch()
	defer end()

	switch ev.Kind {
	case TouchStart:
		r.touchStart(ev.Touches)
	case TouchMove:
		r.touchMove(ev.Touches)
	case TouchEnd:
		r.touchEnd(ev.Touches)
	}
	r.comp.Redraw()
}

func (r *Recognizer) inside(p geom.Point) bool {
	return p.X >= 0 && p.X <= r.width && p.Y >= 0 && p.Y <= r.height
}

func (r *Recognizer) beginPinch(f1, f2 geom.Point) {
	r.pinch = pinchState{
		f1:          f1,
		f2:          f2,
		dist:        f1.Dist(f2),
		modelCenter: r.toModel(geom.Mid(f1, f2)),
		inside:      r.inside(f1) && r.inside(f2),
	}
}

func (r *Recognizer) touchStart(ts []geom.Point) {
	if len(ts) == 0 {
		return
	}
	r.clearBgActive()

	if len(ts) >= 2 {
		r.s.TapMoved = true
		r.releaseEverything()
		r.beginPinch(ts[0], ts[1])
		r.s.Down = nil

		if r.pinch.dist < r.cfg.ContextTouchDistance {
			var start scene.Element
			for _, f := range ts[:2] {
				if n, ok := r.HitTest(r.toModel(f)).(scene.Node); ok {
					start = n
					break
				}
			}
			r.activate(start)
			r.emit(start, r.toModel(ts[0]), scene.EventCxtTapStart)
			r.s.Down = start
			r.s.CxtDragged = false
			r.setMode(ModeContextGesture)
			return
		}
		r.setMode(ModePinchZooming)
		return
	}

	p := ts[0]
	pos := r.toModel(p)
	near := r.HitTest(pos)

	r.releaseDrag(pos)
	r.reset()
	r.s.Down = near
	r.s.DownTime = r.loop.Now()
	r.s.StartScreen, r.s.LastScreen = p, p
	r.s.Start, r.s.Last = pos, pos
	r.setMode(ModeTapHoldPending)

	if near != nil {
		r.activate(near)
		if n, ok := near.(scene.Node); ok && scene.Draggable(n) {
			r.grab(n, pos)
		}
	} else {
		r.setBgActive(pos)
	}
	r.emit(near, pos, scene.EventTouchStart, scene.EventTapStart, scene.EventVMouseDown)

	r.tapHoldTimer.Stop()
	r.tapHoldTimer = r.loop.AfterFunc(r.cfg.TapHoldDelay, r.tapHold)
}

// tapHold fires taphold for a finger that has stayed put. It is cancelled
// softly: movement or a resolved tap turns it into a no-op.
func (r *Recognizer) tapHold() {
	if r.s.TapMoved || r.s.TapResolved {
		return
	}
	if r.loop.Now().Sub(r.s.DownTime) < r.cfg.TapHoldMinElapsed {
		return
	}
	end := r.comp.Batch()
	defer end()

	r.emit(r.s.Down, r.s.Last, scene.EventTapHold)
	if r.s.Down == nil {
		r.graph.UnselectAll()
		r.comp.MarkDirty(compositor.Node, "taphold")
	}
	r.comp.Redraw()
}

func (r *Recognizer) touchMove(ts []geom.Point) {
	switch {
	case len(ts) == 0:
		return
	case r.s.Mode == ModeContextGesture && len(ts) >= 2:
		r.contextTouchMove(ts)
	case len(ts) >= 3 && r.graph.BoxSelectionEnabled():
		r.boxTouchMove(ts[:3])
	case len(ts) >= 2:
		r.pinchMove(ts[0], ts[1])
	default:
		r.singleTouchMove(ts[0])
	}
}

func (r *Recognizer) contextTouchMove(ts []geom.Point) {
	d := ts[0].Dist(ts[1])
	pos := r.toModel(ts[0])
	if d >= r.cfg.ContextCancelDistance || d >= r.pinch.dist*r.cfg.ContextCancelFactor {
		start := r.s.Down
		r.unactivate(start)
		r.emit(start, pos, scene.EventCxtTapEnd)
		r.s.Down = nil
		r.clearBgActive()
		r.comp.MarkDirty(compositor.SelectBox, "context gesture cancelled")
		r.setMode(ModePinchZooming)
		r.pinchMove(ts[0], ts[1])
		return
	}
	r.emit(r.s.Down, pos, scene.EventCxtDrag)
	r.s.CxtDragged = true
}

func (r *Recognizer) boxTouchMove(ts []geom.Point) {
	r.clearBgActive()
	c := r.toModel(geom.Centroid(ts))
	if r.s.Mode != ModeBoxSelecting || !r.s.HasBox {
		r.setMode(ModeBoxSelecting)
		r.s.BoxStart, r.s.BoxEnd, r.s.HasBox = c, c.Add(geom.Pt(1, 1)), true
	} else {
		r.s.BoxEnd = c
	}
	r.comp.MarkDirty(compositor.SelectBox, "Touch moved, redraw selection box")
}

// pinchMove zooms by the change in finger spread and pans by the mean
// finger displacement, about the model point that was under the fingers'
// midpoint when the pinch began.
func (r *Recognizer) pinchMove(f1, f2 geom.Point) {
	r.clearBgActive()
	r.setMode(ModePinchZooming)
	if !r.graph.ZoomingEnabled() || !r.graph.PanningEnabled() {
		return
	}
	p := &r.pinch
	if p.dist == 0 {
		r.beginPinch(f1, f2)
		return
	}
	d := f1.Dist(f2)
	factor := d / p.dist
	t := f1.Sub(p.f1).Add(f2.Sub(p.f2)).Scale(0.5)
	if !p.inside || (factor == 1 && t == (geom.Point{})) {
		return
	}

	z1 := r.graph.Zoom()
	z2 := z1 * factor
	pan1 := r.graph.Pan()
	ctr := p.modelCenter.Scale(z1).Add(pan1)
	pan2 := ctr.Sub(ctr.Sub(pan1).Sub(t).Scale(z2 / z1))
	r.graph.SetViewport(pan2, z2)

	p.dist, p.f1, p.f2 = d, f1, f2
	r.s.Pinching = true
}

func (r *Recognizer) singleTouchMove(p geom.Point) {
	pos := r.toModel(p)
	start := r.s.Down

	if len(r.s.DragSet) > 0 {
		r.moveDragSet(pos.Sub(r.s.Last), pos)
	}

	near := r.HitTest(pos)
	if start != nil {
		r.emit(start, pos, scene.EventTouchMove)
	} else {
		r.emit(near, pos, scene.EventTouchMove)
	}
	r.hover(near, pos, scene.EventTouchOut, scene.EventTouchOver)

	if math.Abs(p.X-r.s.StartScreen.X) > r.cfg.MoveThreshold || math.Abs(p.Y-r.s.StartScreen.Y) > r.cfg.MoveThreshold {
		r.s.TapMoved = true
	}

	swipe := r.s.Mode == ModeTapHoldPending || r.s.Mode == ModePanning
	if swipe && (start == nil || isEdge(start)) && r.graph.PanningEnabled() {
		if start != nil {
			r.unactivate(start)
			if !r.s.HasBgActive {
				r.setBgActive(pos)
			}
		}
		r.graph.PanBy(p.Sub(r.s.LastScreen))
		r.s.SwipePanning = true
		r.setMode(ModePanning)
		pos = r.toModel(p)
	}

	r.s.LastScreen = p
	r.s.Last = pos
}

func (r *Recognizer) touchEnd(remaining []geom.Point) {
	if r.s.Mode == ModeContextGesture {
		start := r.s.Down
		r.unactivate(start)
		r.emit(start, r.s.Last, scene.EventCxtTapEnd)
		if !r.s.CxtDragged {
			r.emit(start, r.s.Last, scene.EventCxtTap)
		}
		if n, ok := start.(scene.Node); ok {
			n.SetGrabbed(false)
		}
		r.reset()
		r.s.TapMoved = true
		return
	}

	r.s.SwipePanning = false

	if len(remaining) < 3 && r.s.Mode == ModeBoxSelecting {
		if r.s.HasBox {
			r.selectBoxed(r.InBox(geom.RectFromCorners(r.s.BoxStart, r.s.BoxEnd)), false)
		}
		r.s.HasBox = false
		r.comp.MarkDirty(compositor.SelectBox, "Touch ended, selection box gone")
		r.setMode(ModePinchZooming)
	}
	if len(remaining) >= 2 {
		r.beginPinch(remaining[0], remaining[1])
		return
	}
	r.s.Pinching = false
	if r.s.Mode == ModePinchZooming {
		r.setMode(ModeIdle)
	}
	if len(remaining) > 0 {
		return
	}

	start := r.s.Down
	pos := r.s.Last
	mode := r.s.Mode
	r.unactivate(start)
	r.clearBgActive()

	if start != nil {
		r.releaseDrag(pos)
		r.emit(start, pos, scene.EventTouchEnd, scene.EventTapEnd, scene.EventVMouseUp)
	} else {
		r.emit(r.HitTest(pos), pos, scene.EventTouchEnd, scene.EventTapEnd, scene.EventVMouseUp)
	}

	if start != nil && mode == ModeTapHoldPending && !r.s.DidDrag && start.Selectable() &&
		r.s.LastScreen.Dist(r.s.StartScreen) < r.cfg.TapSlop {
		r.selectClicked(start, false)
	}

	tapped := false
	if mode == ModeTapHoldPending && !r.s.TapMoved && r.tapHoldTimer.Pending() {
		r.emit(start, pos, scene.EventTap, scene.EventVClick)
		tapped = true
	}

	r.reset()
	r.s.TapMoved = true
	r.s.TapResolved = tapped
}
