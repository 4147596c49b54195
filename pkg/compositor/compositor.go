// Package compositor owns the stacked drawing surfaces and decides when and
// what to repaint. Layers are repainted only when dirty, redraw requests
// are throttled to the measured frame cost, and every frame is deferred at
// least one loop tick. Background images are loaded through the
// compositor's image cache.
package compositor

import (
	"fmt"
	"image"
	"io"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fogleman/gg"
	"golang.org/x/image/draw"

	"github.com/ha1tch/graphcanvas/pkg/edgegeom"
	"github.com/ha1tch/graphcanvas/pkg/geom"
	"github.com/ha1tch/graphcanvas/pkg/loop"
	"github.com/ha1tch/graphcanvas/pkg/paint"
	"github.com/ha1tch/graphcanvas/pkg/scene"
)

// ReasonImageLoaded is recorded on Node and Drag when a bitmap arrives.
const ReasonImageLoaded = "image finished load"

// Interaction reports the gesture state that affects painting.
type Interaction interface {
	// SelectionBox returns the rubber-band box in model coordinates.
	SelectionBox() (geom.Rect, bool)
	// ActiveBackground returns where the pan marker sits, in model
	// coordinates.
	ActiveBackground() (geom.Point, bool)
	// InProgress reports a viewport gesture such as a drag-pan or pinch.
	InProgress() bool
}

// Config tunes frame pacing and caching.
type Config struct {
	MinFrameInterval time.Duration
	MaxFrameInterval time.Duration
	ImageKeepTicks   int
	Watermark        string
}

// DefaultConfig returns 60 fps pacing with a one second ceiling.
func DefaultConfig() Config {
	return Config{
		MinFrameInterval: time.Second / 60,
		MaxFrameInterval: time.Second,
		ImageKeepTicks:   DefaultImageKeepTicks,
		Watermark:        "graphcanvas",
	}
}

// Options configures a Compositor. Graph and Loop are required.
type Options struct {
	Graph   scene.Graph
	Store   *scene.ScratchStore
	Solver  *edgegeom.Solver
	Painter *paint.Painter
	Loop    *loop.Loop
	Fetcher Fetcher
	Logger  *log.Logger

	// Logical size of the host and its device pixel ratio.
	Width, Height int
	PixelRatio    float64

	ShowOverlay         bool
	HideEdgesOnViewport bool
	Interaction         Interaction
	Config              Config

	// OnReady runs after the first normal frame.
	OnReady func()
	// OnFrame runs after every normal frame that painted a layer.
	OnFrame func()
}

type partition struct {
	static []scene.Element
	drag   []scene.Element
}

// Compositor paints a graph onto four layered surfaces.
type Compositor struct {
	graph       scene.Graph
	store       *scene.ScratchStore
	solver      *edgegeom.Solver
	painter     *paint.Painter
	loop        *loop.Loop
	logger      *log.Logger
	images      *ImageCache
	interaction Interaction
	cfg         Config

	showOverlay bool
	hideEdges   bool
	onReady     func()
	onFrame     func()

	width, height int
	dpr           float64
	layers        [numLayers]*layer
	part          *partition

	// Pacing
	accepted   bool
	lastAccept time.Time
	avg        time.Duration
	throttle   *loop.Timer
	frameTimer *loop.Timer

	batchDepth   int
	batchPending bool

	frames    int
	ready     bool
	destroyed bool
}

// New creates a compositor with every layer dirty.
func New(opts Options) *Compositor {
	if opts.Graph == nil || opts.Loop == nil {
		panic("compositor: graph and loop are required")
	}
	cfg := opts.Config
	def := DefaultConfig()
	if cfg.MinFrameInterval <= 0 {
		cfg.MinFrameInterval = def.MinFrameInterval
	}
	if cfg.MaxFrameInterval < cfg.MinFrameInterval {
		cfg.MaxFrameInterval = max(def.MaxFrameInterval, cfg.MinFrameInterval)
	}
	if cfg.Watermark == "" {
		cfg.Watermark = def.Watermark
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	c := &Compositor{
		graph:       opts.Graph,
		store:       opts.Store,
		solver:      opts.Solver,
		painter:     opts.Painter,
		loop:        opts.Loop,
		logger:      logger,
		interaction: opts.Interaction,
		cfg:         cfg,
		showOverlay: opts.ShowOverlay,
		hideEdges:   opts.HideEdgesOnViewport,
		onReady:     opts.OnReady,
		onFrame:     opts.OnFrame,
	}
	if c.store == nil {
		c.store = scene.NewScratchStore()
	}
	c.images = NewImageCache(c.loop, opts.Fetcher, logger, cfg.ImageKeepTicks, c.imageLoaded)
	if c.painter == nil {
		c.painter = paint.NewPainter(c.images)
	} else if c.painter.Images == nil {
		c.painter.Images = c.images
	}
	if c.solver == nil {
		c.solver = edgegeom.New(c.painter.Shapes, c.store)
	}

	for i := range c.layers {
		c.layers[i] = &layer{}
	}
	c.Resize(opts.Width, opts.Height, opts.PixelRatio)
	return c
}

// SetInteraction replaces the gesture state source.
func (c *Compositor) SetInteraction(i Interaction) { c.interaction = i }

// Store returns the scratch store shared with the solver.
func (c *Compositor) Store() *scene.ScratchStore { return c.store }

// Solver returns the edge geometry solver.
func (c *Compositor) Solver() *edgegeom.Solver { return c.solver }

// Images returns the background image cache.
func (c *Compositor) Images() *ImageCache { return c.images }

// MarkDirty flags layer for repaint and records why.
func (c *Compositor) MarkDirty(l Layer, reason string) {
	ly := c.layers[l]
	ly.dirty = true
	if reason != "" {
		ly.reasons = append(ly.reasons, reason)
	}
}

// MarkAllDirty flags every layer.
func (c *Compositor) MarkAllDirty(reason string) {
	for _, l := range paintOrder {
		c.MarkDirty(l, reason)
	}
}

// Dirty reports whether layer is waiting for a repaint.
func (c *Compositor) Dirty(l Layer) bool { return c.layers[l].dirty }

// Reasons returns the reasons recorded since the layer was last painted.
func (c *Compositor) Reasons(l Layer) []string {
	return append([]string(nil), c.layers[l].reasons...)
}

// Paints returns how many times layer has been repainted.
func (c *Compositor) Paints(l Layer) int { return c.layers[l].paints }

// Frames returns the number of normal frames painted.
func (c *Compositor) Frames() int { return c.frames }

// Ready reports whether the first frame has been painted.
func (c *Compositor) Ready() bool { return c.ready }

// Surface returns the context backing layer.
func (c *Compositor) Surface(l Layer) *gg.Context { return c.layers[l].dc }

// InvalidatePartition drops the cached split between drag-layer and
// static elements.
func (c *Compositor) InvalidatePartition() { c.part = nil }

// Size returns the logical size and device pixel ratio.
func (c *Compositor) Size() (w, h int, dpr float64) { return c.width, c.height, c.dpr }

// Resize reallocates the surfaces for a new host size and dirties every
// layer. It does nothing when the size is unchanged.
func (c *Compositor) Resize(w, h int, dpr float64) {
	if dpr <= 0 {
		dpr = 1
	}
	w, h = max(w, 1), max(h, 1)
	if c.layers[0].dc != nil && w == c.width && h == c.height && dpr == c.dpr {
		return
	}
	c.width, c.height, c.dpr = w, h, dpr

	sw := int(math.Ceil(float64(w) * dpr))
	sh := int(math.Ceil(float64(h) * dpr))
	for _, ly := range c.layers {
		ly.dc = gg.NewContext(sw, sh)
	}
	c.MarkAllDirty("resize")
}

// FrameInterval returns the minimum spacing between accepted frames.
func (c *Compositor) FrameInterval() time.Duration {
	return min(max(c.avg, c.cfg.MinFrameInterval), c.cfg.MaxFrameInterval)
}

// Batch defers Redraw requests until the returned function is called, then
// issues at most one. Batches nest.
func (c *Compositor) Batch() (end func()) {
	c.batchDepth++
	done := false
	return func() {
		if done {
			return
		}
		done = true
		c.batchDepth--
		if c.batchDepth == 0 && c.batchPending {
			c.batchPending = false
			c.Redraw()
		}
	}
}

// Redraw requests a frame. Requests arriving sooner than FrameInterval
// after the last accepted one are coalesced into a single deferred request
// timed for the remaining interval.
func (c *Compositor) Redraw() {
	if c.destroyed {
		return
	}
	if c.batchDepth > 0 {
		c.batchPending = true
		return
	}
	c.request()
}

func (c *Compositor) request() {
	if c.destroyed {
		return
	}
	now := c.loop.Now()
	interval := c.FrameInterval()
	if elapsed := now.Sub(c.lastAccept); c.accepted && elapsed < interval {
		c.throttle.Stop()
		c.throttle = c.loop.AfterFunc(interval-elapsed, c.request)
		return
	}

	c.throttle.Stop()
	c.throttle = nil
	c.accepted = true
	c.lastAccept = now
	if c.frameTimer.Pending() {
		return
	}
	c.frameTimer = c.loop.AfterFunc(0, c.frame)
}

func (c *Compositor) frame() {
	c.frameTimer = nil
	if c.destroyed {
		return
	}
	start := c.lastAccept

	painted := c.paintLayers()
	c.images.Tick()

	elapsed := c.loop.Now().Sub(start)
	c.avg = c.avg/2 + elapsed/2
	c.frames++
	if len(painted) > 0 {
		c.logger.Debug("frame", "layers", strings.Join(painted, " "), "elapsed", elapsed)
		if c.onFrame != nil {
			c.onFrame()
		}
	}

	if !c.ready {
		c.ready = true
		if c.onReady != nil {
			c.onReady()
		}
		c.graph.Emit(scene.EventInitRender, scene.Event{})
	}
}

// edgesHidden reports whether edges are skipped for this frame.
func (c *Compositor) edgesHidden() bool {
	return c.hideEdges && c.interaction != nil && c.interaction.InProgress()
}

func (c *Compositor) partitioned() *partition {
	if c.part != nil {
		return c.part
	}
	p := &partition{}
	for _, el := range c.graph.ZSorted() {
		if c.store.InDragLayer(el) {
			p.drag = append(p.drag, el)
		} else {
			p.static = append(p.static, el)
		}
	}
	c.part = p
	return p
}

// paintLayers repaints every dirty layer and returns a description of
// each for logging. Flags are cleared before painting so invalidations
// raised while painting survive to the next frame.
func (c *Compositor) paintLayers() []string {
	var dirty [numLayers]bool
	var painted []string
	for _, l := range paintOrder {
		ly := c.layers[l]
		if ly.dirty {
			painted = append(painted, fmt.Sprintf("%s%q", l, ly.reasons))
		}
		dirty[l] = ly.take()
	}

	hide := c.edgesHidden()
	if (dirty[Node] || dirty[Drag]) && !hide {
		c.solver.Update(c.graph.Edges())
	}

	t := scene.Viewport(c.graph).Scaled(c.dpr)
	view := paint.View{Zoom: c.graph.Zoom(), PixelRatio: c.dpr}
	part := c.partitioned()

	if dirty[Node] {
		ly := c.layers[Node]
		paint.Clear(ly.dc, t)
		c.drawElements(ly.dc, part.static, view, hide)
		ly.paints++
	}
	if dirty[Drag] {
		ly := c.layers[Drag]
		paint.Clear(ly.dc, t)
		c.drawElements(ly.dc, part.drag, view, hide)
		ly.paints++
	}
	if dirty[SelectBox] {
		ly := c.layers[SelectBox]
		paint.Clear(ly.dc, t)
		c.drawInteraction(ly.dc, view)
		ly.paints++
	}
	if dirty[Overlay] {
		ly := c.layers[Overlay]
		paint.Clear(ly.dc, geom.Transform{Zoom: 1})
		if c.showOverlay {
			c.painter.Watermark(ly.dc, c.cfg.Watermark, view)
		}
		ly.paints++
	}
	return painted
}

// drawElements paints bodies in z order, then labels and overlays on top.
func (c *Compositor) drawElements(dc *gg.Context, els []scene.Element, view paint.View, hideEdges bool) {
	for _, el := range els {
		if n, ok := el.(scene.Node); ok {
			c.painter.Node(dc, n)
		} else if e, ok := el.(scene.Edge); ok && !hideEdges {
			sc, _ := c.store.Peek(e)
			c.painter.Edge(dc, e, sc, view)
		}
	}
	for _, el := range els {
		if n, ok := el.(scene.Node); ok {
			c.painter.NodeText(dc, n, view)
			c.painter.NodeOverlay(dc, n)
		} else if e, ok := el.(scene.Edge); ok && !hideEdges {
			sc, _ := c.store.Peek(e)
			c.painter.EdgeText(dc, e, sc, view)
			c.painter.EdgeOverlay(dc, e, sc, view)
		}
	}
}

func (c *Compositor) drawInteraction(dc *gg.Context, view paint.View) {
	if c.interaction == nil {
		return
	}
	core := c.graph.CoreStyle()
	if r, ok := c.interaction.SelectionBox(); ok {
		c.painter.SelectionBox(dc, r, core, view)
	}
	if at, ok := c.interaction.ActiveBackground(); ok {
		c.painter.ActiveBackground(dc, at, core, view)
	}
}

// RedrawOptions configures a forced frame.
type RedrawOptions struct {
	// Surface receives the drawing. Required.
	Surface *gg.Context
	// DrawAll paints every element whether or not its layer is dirty.
	DrawAll bool
	// Zoom and Pan override the graph viewport when set.
	Zoom float64
	Pan  *geom.Point
	// Done runs on the loop after the surface has been drawn.
	Done func()
}

// RedrawWith paints onto a caller-supplied surface one tick from now. It
// bypasses throttling, does not clear the surface, uses the transform
// exactly as given without the device pixel ratio and leaves the dirty
// flags untouched.
func (c *Compositor) RedrawWith(opts RedrawOptions) {
	if opts.Surface == nil {
		panic("compositor: forced redraw without a surface")
	}
	if c.destroyed {
		return
	}
	c.loop.AfterFunc(0, func() {
		if c.destroyed {
			return
		}
		c.paintForced(opts)
		if opts.Done != nil {
			opts.Done()
		}
	})
}

func (c *Compositor) paintForced(opts RedrawOptions) {
	t := scene.Viewport(c.graph)
	if opts.Zoom > 0 {
		t.Zoom = opts.Zoom
	}
	if opts.Pan != nil {
		t.Pan = *opts.Pan
	}
	view := paint.View{Zoom: t.Zoom, PixelRatio: 1}

	drawNode := opts.DrawAll || c.layers[Node].dirty
	drawDrag := opts.DrawAll || c.layers[Drag].dirty
	hide := c.edgesHidden()
	if (drawNode || drawDrag) && !hide {
		c.solver.Update(c.graph.Edges())
	}

	dc := opts.Surface
	paint.ApplyTransform(dc, t)
	part := c.partitioned()
	if drawNode {
		c.drawElements(dc, part.static, view, hide)
	}
	if drawDrag {
		c.drawElements(dc, part.drag, view, hide)
	}
	if c.layers[SelectBox].dirty {
		c.drawInteraction(dc, view)
	}
}

// Composite stacks the layers bottom to top into a new image at surface
// resolution.
func (c *Compositor) Composite() *image.RGBA {
	b := c.layers[Node].dc.Image().Bounds()
	dst := image.NewRGBA(b)
	for _, l := range paintOrder {
		draw.Draw(dst, b, c.layers[l].dc.Image(), b.Min, draw.Over)
	}
	return dst
}

func (c *Compositor) imageLoaded(url string) {
	c.logger.Debug("image loaded", "url", url)
	c.MarkDirty(Node, ReasonImageLoaded)
	c.MarkDirty(Drag, ReasonImageLoaded)
	c.Redraw()
}

// Destroy stops pending frames and image loads. Later requests do nothing.
func (c *Compositor) Destroy() {
	if c.destroyed {
		return
	}
	c.destroyed = true
	c.throttle.Stop()
	c.frameTimer.Stop()
	c.images.Close()
}

// Destroyed reports whether Destroy has been called.
func (c *Compositor) Destroyed() bool { return c.destroyed }
