// Package gesture turns raw pointer, touch and wheel input into graph
// events, selection changes, viewport changes and node drags. All state
// lives in one Session whose Mode says what the current gesture is; every
// handler runs inside a compositor batch and issues exactly one redraw
// request.
package gesture

import (
	"io"
	"math"
	"time"

	"github.com/charmbracelet/log"

	"github.com/ha1tch/graphcanvas/pkg/compositor"
	"github.com/ha1tch/graphcanvas/pkg/edgegeom"
	"github.com/ha1tch/graphcanvas/pkg/geom"
	"github.com/ha1tch/graphcanvas/pkg/loop"
	"github.com/ha1tch/graphcanvas/pkg/scene"
)

// Mode is the gesture currently in progress.
type Mode int

const (
	ModeIdle Mode = iota
	// ModePendingClassify: a primary press that is not yet a click, pan,
	// box or drag.
	ModePendingClassify
	ModePanning
	ModeBoxSelecting
	ModeDragging
	ModePinchZooming
	ModeContextGesture
	// ModeTapHoldPending: a single finger is down and may become a tap or
	// a taphold.
	ModeTapHoldPending
)

func (m Mode) String() string {
	switch m {
	case ModeIdle:
		return "idle"
	case ModePendingClassify:
		return "pending"
	case ModePanning:
		return "panning"
	case ModeBoxSelecting:
		return "box-selecting"
	case ModeDragging:
		return "dragging"
	case ModePinchZooming:
		return "pinch-zooming"
	case ModeContextGesture:
		return "context"
	case ModeTapHoldPending:
		return "taphold-pending"
	}
	return "unknown"
}

// Config holds the recognizer's timings and distances. Distances are in
// logical container pixels.
type Config struct {
	PanOrBoxDelay     time.Duration
	TapHoldDelay      time.Duration
	TapHoldMinElapsed time.Duration
	WheelSettle       time.Duration

	// MoveThreshold separates a press from a move.
	MoveThreshold float64
	// TapSlop is how far a finger may travel and still select on release.
	TapSlop float64
	// ContextTouchDistance is the largest two-finger spread that starts a
	// context gesture.
	ContextTouchDistance float64
	// A context gesture becomes a pinch past either limit.
	ContextCancelFactor   float64
	ContextCancelDistance float64
	// EdgeHitTolerance widens edges for hit testing.
	EdgeHitTolerance float64
}

// DefaultConfig returns the standard timings.
func DefaultConfig() Config {
	return Config{
		PanOrBoxDelay:         400 * time.Millisecond,
		TapHoldDelay:          time.Second,
		TapHoldMinElapsed:     250 * time.Millisecond,
		WheelSettle:           100 * time.Millisecond,
		MoveThreshold:         4,
		TapSlop:               6,
		ContextTouchDistance:  100,
		ContextCancelFactor:   1.5,
		ContextCancelDistance: 150,
		EdgeHitTolerance:      4,
	}
}

// Session is the state of the gesture in progress. Points suffixed
// Screen are in container pixels; the rest are model coordinates.
type Session struct {
	Mode Mode

	// Down is the element pressed at the start, nil for the background.
	Down  scene.Element
	Hover scene.Element

	Shift    bool
	DownTime time.Time

	StartScreen, LastScreen geom.Point
	Start, Last             geom.Point

	// Moved is the largest Manhattan distance from the press, in pixels.
	Moved float64

	DidDrag    bool
	CxtDragged bool

	// DragSet holds the nodes moved by the drag, grabbed node first.
	DragSet []scene.Node

	BoxStart, BoxEnd geom.Point
	HasBox           bool

	BgActive    geom.Point
	HasBgActive bool

	// Touch
	TapMoved     bool
	TapResolved  bool
	SwipePanning bool
	Pinching     bool

	grabbed scene.Node
	flagged map[scene.Element]struct{}
}

type pinchState struct {
	f1, f2      geom.Point
	dist        float64
	modelCenter geom.Point
	inside      bool
}

// Options configures a Recognizer. Graph, Compositor and Loop are
// required.
type Options struct {
	Graph      scene.Graph
	Compositor *compositor.Compositor
	Loop       *loop.Loop
	Shapes     geom.ShapeSet
	Logger     *log.Logger
	Config     Config

	// Container size in logical pixels.
	Width, Height float64
}

// Recognizer interprets input for one graph.
type Recognizer struct {
	graph  scene.Graph
	comp   *compositor.Compositor
	store  *scene.ScratchStore
	solver *edgegeom.Solver
	shapes geom.ShapeSet
	loop   *loop.Loop
	logger *log.Logger
	cfg    Config

	width, height float64

	s     Session
	pinch pinchState

	bgTimer      *loop.Timer
	tapHoldTimer *loop.Timer
	wheelTimer   *loop.Timer
	wheelActive  bool
}

// New creates a recognizer and registers it as the compositor's
// interaction source.
func New(opts Options) *Recognizer {
	if opts.Graph == nil || opts.Compositor == nil || opts.Loop == nil {
		panic("gesture: graph, compositor and loop are required")
	}
	cfg := opts.Config
	if cfg == (Config{}) {
		cfg = DefaultConfig()
	}
	shapes := opts.Shapes
	if shapes == nil {
		shapes = geom.DefaultShapes()
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	r := &Recognizer{
		graph:  opts.Graph,
		comp:   opts.Compositor,
		store:  opts.Compositor.Store(),
		solver: opts.Compositor.Solver(),
		shapes: shapes,
		loop:   opts.Loop,
		logger: logger,
		cfg:    cfg,
		width:  opts.Width,
		height: opts.Height,
	}
	opts.Compositor.SetInteraction(r)
	return r
}

// SetSize updates the container size.
func (r *Recognizer) SetSize(w, h float64) {
	r.width, r.height = w, h
}

// Session returns a copy of the current gesture state.
func (r *Recognizer) Session() Session { return r.s }

// Mode returns the current gesture mode.
func (r *Recognizer) Mode() Mode { return r.s.Mode }

// SelectionBox implements compositor.Interaction.
func (r *Recognizer) SelectionBox() (geom.Rect, bool) {
	if r.s.Mode != ModeBoxSelecting || !r.s.HasBox {
		return geom.Rect{}, false
	}
	return geom.RectFromCorners(r.s.BoxStart, r.s.BoxEnd), true
}

// ActiveBackground implements compositor.Interaction.
func (r *Recognizer) ActiveBackground() (geom.Point, bool) {
	return r.s.BgActive, r.s.HasBgActive
}

// InProgress implements compositor.Interaction. It reports viewport
// gestures: a drag-pan, a pinch, a swipe-pan or a wheel that has not
// settled.
func (r *Recognizer) InProgress() bool {
	return r.s.Mode == ModePanning || r.s.Pinching || r.s.SwipePanning || r.wheelActive
}

// Stop cancels every pending timer.
func (r *Recognizer) Stop() {
	r.bgTimer.Stop()
	r.tapHoldTimer.Stop()
	r.wheelTimer.Stop()
}

func (r *Recognizer) setMode(m Mode) {
	if r.s.Mode == m {
		return
	}
	r.logger.Debug("gesture", "from", r.s.Mode, "to", m)
	r.s.Mode = m
}

// reset starts a fresh session, keeping the hover target.
func (r *Recognizer) reset() {
	r.setMode(ModeIdle)
	r.s = Session{Hover: r.s.Hover}
}

func (r *Recognizer) toModel(p geom.Point) geom.Point {
	return scene.Viewport(r.graph).ToModel(p)
}

func (r *Recognizer) emit(el scene.Element, at geom.Point, names ...string) {
	for _, name := range names {
		ev := scene.Event{Name: name, Position: at}
		if el == nil {
			r.graph.Emit(name, ev)
		} else {
			el.Emit(name, ev)
		}
	}
}

// markFor dirties the layer el is drawn on.
func (r *Recognizer) markFor(el scene.Element, reason string) {
	if r.store.InDragLayer(el) {
		r.comp.MarkDirty(compositor.Drag, reason)
	} else {
		r.comp.MarkDirty(compositor.Node, reason)
	}
}

func (r *Recognizer) activate(el scene.Element) {
	if el == nil || el.Active() {
		return
	}
	el.SetActive(true)
	r.markFor(el, "activate")
}

func (r *Recognizer) unactivate(el scene.Element) {
	if el == nil || !el.Active() {
		return
	}
	el.SetActive(false)
	r.markFor(el, "unactivate")
}

func (r *Recognizer) setBgActive(at geom.Point) {
	r.s.BgActive, r.s.HasBgActive = at, true
	r.comp.MarkDirty(compositor.SelectBox, "bgactive")
}

func (r *Recognizer) clearBgActive() {
	if !r.s.HasBgActive {
		return
	}
	r.s.HasBgActive = false
	r.comp.MarkDirty(compositor.SelectBox, "bgactive cleared")
}

// hover emits out/over events when the element under the cursor changes.
func (r *Recognizer) hover(near scene.Element, at geom.Point, out, over string) {
	if near == r.s.Hover {
		return
	}
	if r.s.Hover != nil {
		r.emit(r.s.Hover, at, out)
	}
	if near != nil {
		r.emit(near, at, over)
	}
	r.s.Hover = near
}

// selectClicked applies the click rule to a single element.
func (r *Recognizer) selectClicked(el scene.Element, shift bool) {
	if r.graph.SelectionType() == scene.SelectAdditive {
		if el.Selected() {
			r.graph.Unselect(el)
		} else {
			r.graph.Select(el)
		}
	} else {
		if !shift {
			r.graph.UnselectAll()
		}
		r.graph.Select(el)
	}
	r.comp.MarkDirty(compositor.Node, "sglslct")
	r.comp.MarkDirty(compositor.Drag, "sglslct")
}

// selectBoxed applies the box rule to the enclosed elements.
func (r *Recognizer) selectBoxed(els []scene.Element, shift bool) {
	var selectable []scene.Element
	for _, el := range els {
		if el.Selectable() {
			selectable = append(selectable, el)
		}
	}
	if r.graph.SelectionType() == scene.SelectExclusive && !shift {
		r.graph.UnselectAll()
	}
	r.graph.Select(selectable...)
	if len(els) > 0 {
		r.comp.MarkDirty(compositor.Node, "Selection")
	}
}

func manhattan(a, b geom.Point) float64 {
	return math.Abs(a.X-b.X) + math.Abs(a.Y-b.Y)
}

func isEdge(el scene.Element) bool {
	return el != nil && !el.IsNode()
}
