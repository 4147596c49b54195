// Package termview hosts a renderer in a terminal. Each cell stands for a
// block of logical pixels; mouse events are translated to pointer and
// wheel events at the cell centre, and presented frames are drawn with
// half-block characters.
package termview

import (
	"context"
	"image"
	"image/color"
	"io"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/gdamore/tcell/v2"

	"github.com/ha1tch/graphcanvas/pkg/geom"
	"github.com/ha1tch/graphcanvas/pkg/gesture"
	"github.com/ha1tch/graphcanvas/pkg/renderer"
)

// Options configures a View.
type Options struct {
	// Logical pixels per terminal cell.
	CellWidth, CellHeight int
	// WheelStep is the pixel delta reported per wheel notch.
	WheelStep float64
	// Background shows through transparent pixels.
	Background color.Color
	Logger     *log.Logger

	// OnKey sees every key except the quit keys. Returning true quits.
	OnKey func(ev *tcell.EventKey) bool
}

// DefaultOptions returns 8x16 pixel cells on a white background.
func DefaultOptions() Options {
	return Options{
		CellWidth:  8,
		CellHeight: 16,
		WheelStep:  100,
		Background: color.White,
	}
}

type frameReady struct{}

type quitRequest struct{}

// View is a renderer.Host and renderer.Presenter backed by a tcell screen.
type View struct {
	screen tcell.Screen
	opts   Options
	logger *log.Logger

	mu        sync.Mutex
	listeners map[int]renderer.Input
	next      int
	frame     *image.RGBA

	// Mouse state, touched only by the event goroutine.
	buttons tcell.ButtonMask
}

var (
	_ renderer.Host      = (*View)(nil)
	_ renderer.Presenter = (*View)(nil)
)

// New wraps an initialised screen.
func New(screen tcell.Screen, opts Options) *View {
	def := DefaultOptions()
	if opts.CellWidth <= 0 {
		opts.CellWidth = def.CellWidth
	}
	if opts.CellHeight <= 0 {
		opts.CellHeight = def.CellHeight
	}
	if opts.WheelStep <= 0 {
		opts.WheelStep = def.WheelStep
	}
	if opts.Background == nil {
		opts.Background = def.Background
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &View{
		screen:    screen,
		opts:      opts,
		logger:    logger,
		listeners: make(map[int]renderer.Input),
	}
}

// Size implements renderer.Host.
func (v *View) Size() (w, h int, dpr float64) {
	cols, rows := v.screen.Size()
	return cols * v.opts.CellWidth, rows * v.opts.CellHeight, 1
}

// Listen implements renderer.Host.
func (v *View) Listen(in renderer.Input) (remove func()) {
	v.mu.Lock()
	defer v.mu.Unlock()
	id := v.next
	v.next++
	v.listeners[id] = in
	return func() {
		v.mu.Lock()
		defer v.mu.Unlock()
		delete(v.listeners, id)
	}
}

// Listeners returns how many inputs are registered.
func (v *View) Listeners() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.listeners)
}

func (v *View) each(fn func(renderer.Input)) {
	v.mu.Lock()
	ins := make([]renderer.Input, 0, len(v.listeners))
	for _, in := range v.listeners {
		ins = append(ins, in)
	}
	v.mu.Unlock()
	for _, in := range ins {
		fn(in)
	}
}

// Present implements renderer.Presenter. It keeps only the latest frame
// and wakes the event loop to draw it.
func (v *View) Present(img *image.RGBA) {
	v.mu.Lock()
	v.frame = img
	v.mu.Unlock()
	_ = v.screen.PostEvent(tcell.NewEventInterrupt(frameReady{}))
}

// Draw blits the latest presented frame and shows the screen.
func (v *View) Draw() {
	v.mu.Lock()
	img := v.frame
	v.frame = nil
	v.mu.Unlock()
	if img == nil {
		return
	}
	Blit(v.screen, img, v.opts.Background)
	v.screen.Show()
}

// Run polls terminal events until a quit key, OnKey asks to quit or ctx
// is cancelled.
func (v *View) Run(ctx context.Context) error {
	stop := context.AfterFunc(ctx, func() {
		_ = v.screen.PostEvent(tcell.NewEventInterrupt(quitRequest{}))
	})
	defer stop()

	for {
		ev := v.screen.PollEvent()
		if ev == nil {
			return nil
		}
		if v.HandleEvent(ev) {
			return ctx.Err()
		}
	}
}

// HandleEvent processes one terminal event and reports whether the view
// should quit.
func (v *View) HandleEvent(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventResize:
		v.screen.Sync()
		w, h, dpr := v.Size()
		v.logger.Debug("terminal resized", "width", w, "height", h)
		v.each(func(in renderer.Input) { in.Resize(w, h, dpr) })
	case *tcell.EventKey:
		return v.handleKey(ev)
	case *tcell.EventMouse:
		v.handleMouse(ev)
	case *tcell.EventInterrupt:
		switch ev.Data().(type) {
		case quitRequest:
			return true
		case frameReady:
			v.Draw()
		}
	}
	return false
}

func (v *View) handleKey(ev *tcell.EventKey) bool {
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return true
	case tcell.KeyRune:
		if ev.Rune() == 'q' {
			return true
		}
	}
	if v.opts.OnKey != nil {
		return v.opts.OnKey(ev)
	}
	return false
}

// cellCentre maps a cell to the logical pixel at its centre.
func (v *View) cellCentre(x, y int) geom.Point {
	return geom.Pt(
		float64(x*v.opts.CellWidth)+float64(v.opts.CellWidth)/2,
		float64(y*v.opts.CellHeight)+float64(v.opts.CellHeight)/2,
	)
}

// handleMouse turns tcell's button state snapshots into press, move and
// release transitions.
func (v *View) handleMouse(ev *tcell.EventMouse) {
	x, y := ev.Position()
	pos := v.cellCentre(x, y)
	buttons := ev.Buttons()
	shift := ev.Modifiers()&tcell.ModShift != 0

	switch {
	case buttons&tcell.WheelUp != 0:
		v.each(func(in renderer.Input) { in.Wheel(gesture.WheelEvent{Pos: pos, DeltaY: -v.opts.WheelStep}) })
		return
	case buttons&tcell.WheelDown != 0:
		v.each(func(in renderer.Input) { in.Wheel(gesture.WheelEvent{Pos: pos, DeltaY: v.opts.WheelStep}) })
		return
	}

	pressed := buttons & (tcell.Button1 | tcell.Button2)
	prev := v.buttons
	v.buttons = pressed

	send := func(kind gesture.PointerKind, b gesture.Button) {
		pe := gesture.PointerEvent{Kind: kind, Button: b, Pos: pos, Shift: shift}
		v.each(func(in renderer.Input) { in.Pointer(pe) })
	}

	switch {
	case prev == 0 && pressed&tcell.Button1 != 0:
		send(gesture.PointerDown, gesture.ButtonPrimary)
	case prev == 0 && pressed&tcell.Button2 != 0:
		send(gesture.PointerDown, gesture.ButtonSecondary)
	case prev != 0 && pressed == 0:
		b := gesture.ButtonPrimary
		if prev&tcell.Button1 == 0 {
			b = gesture.ButtonSecondary
		}
		send(gesture.PointerUp, b)
	default:
		send(gesture.PointerMove, gesture.ButtonPrimary)
	}
}
