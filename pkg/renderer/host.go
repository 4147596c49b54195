package renderer

import (
	"image"

	"github.com/ha1tch/graphcanvas/pkg/gesture"
)

// Input receives raw events from a host. Calls may come from any
// goroutine; the renderer moves them onto its loop.
type Input interface {
	Pointer(ev gesture.PointerEvent)
	Touch(ev gesture.TouchEvent)
	Wheel(ev gesture.WheelEvent)
	Resize(w, h int, dpr float64)
}

// Host is the container a renderer draws for: it reports its logical size
// and device pixel ratio and delivers input to registered listeners.
type Host interface {
	Size() (w, h int, dpr float64)
	// Listen registers in and returns a function that removes exactly
	// that registration.
	Listen(in Input) (remove func())
}

// Presenter is implemented by hosts that display composited frames.
type Presenter interface {
	Present(img *image.RGBA)
}

// input forwards host events onto the renderer's loop.
type input struct {
	r *Renderer
}

func (in input) Pointer(ev gesture.PointerEvent) {
	in.r.post(func() { in.r.rec.HandlePointer(ev) })
}

func (in input) Touch(ev gesture.TouchEvent) {
	in.r.post(func() { in.r.rec.HandleTouch(ev) })
}

func (in input) Wheel(ev gesture.WheelEvent) {
	in.r.post(func() { in.r.rec.HandleWheel(ev) })
}

func (in input) Resize(w, h int, dpr float64) {
	in.r.post(func() { in.r.resize(w, h, dpr) })
}

// Headless is a fixed-size host with no input, for exports and servers.
type Headless struct {
	W, H int
	DPR  float64
}

// Size implements Host. A zero DPR reports 1.
func (hl Headless) Size() (w, h int, dpr float64) {
	if hl.DPR <= 0 {
		return hl.W, hl.H, 1
	}
	return hl.W, hl.H, hl.DPR
}

// Listen implements Host. Headless hosts never deliver input.
func (Headless) Listen(Input) (remove func()) {
	return func() {}
}
