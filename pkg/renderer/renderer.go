// Package renderer assembles a compositor and a gesture recognizer around
// one graph and one host. It owns the subscriptions between them: graph
// lifecycle notifications become layer invalidations, host input is moved
// onto the loop, and composited frames are handed back to hosts that can
// show them.
package renderer

import (
	"image"
	"io"

	"github.com/charmbracelet/log"
	"go.trai.ch/zerr"

	"github.com/ha1tch/graphcanvas/pkg/compositor"
	"github.com/ha1tch/graphcanvas/pkg/geom"
	"github.com/ha1tch/graphcanvas/pkg/gesture"
	"github.com/ha1tch/graphcanvas/pkg/loop"
	"github.com/ha1tch/graphcanvas/pkg/scene"
)

var (
	ErrNoGraph = zerr.New("renderer requires a graph")
	ErrNoHost  = zerr.New("renderer requires a host")
)

// Options configures a Renderer. Graph and Host are required.
type Options struct {
	Graph scene.Graph
	Host  Host
	// Loop runs every renderer task. Nil creates one on the real clock;
	// the caller then drives it through Loop().Run.
	Loop    *loop.Loop
	Fetcher compositor.Fetcher
	Shapes  geom.ShapeSet
	Logger  *log.Logger

	ShowOverlay         bool
	HideEdgesOnViewport bool

	Compositor compositor.Config
	Gesture    gesture.Config

	// OnReady runs after the first frame.
	OnReady func()
}

// Renderer draws one graph into one host.
type Renderer struct {
	graph  scene.Graph
	host   Host
	loop   *loop.Loop
	logger *log.Logger
	comp   *compositor.Compositor
	rec    *gesture.Recognizer

	// bindings undo every registration the renderer made.
	bindings []func()

	notifications int
	destroyed     bool
}

// New wires a renderer and requests its first frame.
func New(opts Options) (*Renderer, error) {
	if opts.Graph == nil {
		return nil, ErrNoGraph
	}
	if opts.Host == nil {
		return nil, ErrNoHost
	}
	l := opts.Loop
	if l == nil {
		l = loop.New(nil)
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	r := &Renderer{
		graph:  opts.Graph,
		host:   opts.Host,
		loop:   l,
		logger: logger,
	}

	w, h, dpr := opts.Host.Size()
	r.comp = compositor.New(compositor.Options{
		Graph:               opts.Graph,
		Loop:                l,
		Fetcher:             opts.Fetcher,
		Logger:              logger,
		Width:               w,
		Height:              h,
		PixelRatio:          dpr,
		ShowOverlay:         opts.ShowOverlay,
		HideEdgesOnViewport: opts.HideEdgesOnViewport,
		Config:              opts.Compositor,
		OnReady:             opts.OnReady,
		OnFrame:             r.present,
	})
	r.rec = gesture.New(gesture.Options{
		Graph:      opts.Graph,
		Compositor: r.comp,
		Loop:       l,
		Shapes:     opts.Shapes,
		Logger:     logger,
		Config:     opts.Gesture,
		Width:      float64(w),
		Height:     float64(h),
	})

	r.bindings = append(r.bindings,
		opts.Graph.Subscribe(r.Notify),
		opts.Host.Listen(input{r: r}),
	)

	logger.Debug("renderer created", "width", w, "height", h, "dpr", dpr)
	r.comp.Redraw()
	return r, nil
}

// Loop returns the loop the renderer runs on.
func (r *Renderer) Loop() *loop.Loop { return r.loop }

// Compositor returns the layer compositor.
func (r *Renderer) Compositor() *compositor.Compositor { return r.comp }

// Recognizer returns the gesture recognizer.
func (r *Renderer) Recognizer() *gesture.Recognizer { return r.rec }

// Notifications counts the lifecycle notifications handled so far.
func (r *Renderer) Notifications() int { return r.notifications }

func (r *Renderer) post(fn func()) {
	r.loop.Post(func() {
		if r.destroyed {
			return
		}
		fn()
	})
}

// Notify reacts to a graph lifecycle notification. Structural changes drop
// scratch state of removed elements and the cached drag partition; every
// notification invalidates the element layers and requests a redraw.
func (r *Renderer) Notify(kind scene.NotifyKind) {
	if kind == scene.NotifyDestroy {
		r.Destroy()
		return
	}
	if r.destroyed {
		return
	}
	end := r.comp.Batch()
	defer end()

	switch kind {
	case scene.NotifyAdd, scene.NotifyRemove, scene.NotifyLoad:
		r.comp.InvalidatePartition()
		r.comp.Store().Retain(r.graph.ZSorted())
	case scene.NotifyViewport:
		r.comp.MarkDirty(compositor.SelectBox, "viewchange")
	}
	r.comp.MarkDirty(compositor.Drag, "notify")
	r.comp.MarkDirty(compositor.Node, "notify")

	r.notifications++
	r.comp.Redraw()
}

// resize matches the layer surfaces to a new host size.
func (r *Renderer) resize(w, h int, dpr float64) {
	end := r.comp.Batch()
	defer end()

	r.comp.Resize(w, h, dpr)
	r.rec.SetSize(float64(w), float64(h))
	r.comp.MarkDirty(compositor.Node, "resize")
	r.comp.MarkDirty(compositor.Overlay, "resize")
	r.comp.Redraw()
}

func (r *Renderer) present() {
	p, ok := r.host.(Presenter)
	if !ok {
		return
	}
	p.Present(r.comp.Composite())
}

// Composite returns the current layers stacked into one image.
func (r *Renderer) Composite() *image.RGBA {
	return r.comp.Composite()
}

// Destroy removes the renderer's own registrations from the graph and the
// host and halts future redraws. It is idempotent.
func (r *Renderer) Destroy() {
	if r.destroyed {
		return
	}
	r.destroyed = true
	for i := len(r.bindings) - 1; i >= 0; i-- {
		r.bindings[i]()
	}
	r.bindings = nil
	r.rec.Stop()
	r.comp.Destroy()
	r.logger.Debug("renderer destroyed")
}

// Destroyed reports whether Destroy has been called.
func (r *Renderer) Destroyed() bool { return r.destroyed }
