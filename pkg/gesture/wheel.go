package gesture

import (
	"math"

	"github.com/ha1tch/graphcanvas/pkg/compositor"
	"github.com/ha1tch/graphcanvas/pkg/geom"
)

// WheelEvent carries whichever delta fields the input source reports;
// unset fields are zero.
type WheelEvent struct {
	Pos         geom.Point
	DeltaY      float64 // pixels, positive scrolls down
	WheelDelta  float64 // legacy units of 120 per notch, positive scrolls up
	WheelDeltaY float64
	Detail      float64 // lines, positive scrolls down
}

// ZoomDelta normalises the event to a base-ten zoom exponent: the first
// non-zero of the legacy vertical delta, the legacy delta, the line
// detail and the pixel delta.
func (ev WheelEvent) ZoomDelta() float64 {
	switch {
	case ev.WheelDeltaY != 0:
		return ev.WheelDeltaY / 1000
	case ev.WheelDelta != 0:
		return ev.WheelDelta / 1000
	case ev.Detail != 0:
		return ev.Detail / -32
	}
	return -ev.DeltaY / 500
}

// HandleWheel zooms about the point under the cursor.
func (r *Recognizer) HandleWheel(ev WheelEvent) {
	end := r.comp.Batch()
	defer end()

	if r.graph.PanningEnabled() && r.graph.ZoomingEnabled() {
		r.graph.ZoomAt(r.graph.Zoom()*math.Pow(10, ev.ZoomDelta()), ev.Pos)
	}

	r.wheelActive = true
	r.wheelTimer.Stop()
	r.wheelTimer = r.loop.AfterFunc(r.cfg.WheelSettle, r.wheelSettled)
	r.comp.Redraw()
}

func (r *Recognizer) wheelSettled() {
	end := r.comp.Batch()
	defer end()

	r.wheelActive = false
	r.comp.MarkDirty(compositor.Node, "wheel settled")
	r.comp.Redraw()
}

// WheelActive reports whether a wheel gesture has not yet settled.
func (r *Recognizer) WheelActive() bool { return r.wheelActive }
