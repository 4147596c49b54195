package renderer

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ha1tch/graphcanvas/pkg/compositor"
	"github.com/ha1tch/graphcanvas/pkg/geom"
	"github.com/ha1tch/graphcanvas/pkg/gesture"
	"github.com/ha1tch/graphcanvas/pkg/graph"
	"github.com/ha1tch/graphcanvas/pkg/loop"
)

type fakeHost struct {
	w, h      int
	dpr       float64
	listeners map[int]Input
	next      int
	presented []*image.RGBA
}

func newFakeHost(w, h int) *fakeHost {
	return &fakeHost{w: w, h: h, dpr: 1, listeners: make(map[int]Input)}
}

func (h *fakeHost) Size() (int, int, float64) { return h.w, h.h, h.dpr }

func (h *fakeHost) Listen(in Input) func() {
	id := h.next
	h.next++
	h.listeners[id] = in
	return func() { delete(h.listeners, id) }
}

func (h *fakeHost) Present(img *image.RGBA) { h.presented = append(h.presented, img) }

func (h *fakeHost) each(fn func(Input)) {
	for _, in := range h.listeners {
		fn(in)
	}
}

type nopInput struct{}

func (nopInput) Pointer(gesture.PointerEvent) {}
func (nopInput) Touch(gesture.TouchEvent)     {}
func (nopInput) Wheel(gesture.WheelEvent)     {}
func (nopInput) Resize(int, int, float64)     {}

func pairGraph(t *testing.T) *graph.Graph {
	t.Helper()
	g := graph.New(graph.DefaultOptions())
	_, err := g.AddNode(graph.NodeData{ID: "a", Position: geom.Pt(50, 50), Style: map[string]string{"background-color": "red"}})
	require.NoError(t, err)
	_, err = g.AddNode(graph.NodeData{ID: "b", Position: geom.Pt(150, 50), Style: map[string]string{"background-color": "blue"}})
	require.NoError(t, err)
	_, err = g.AddEdge(graph.EdgeData{ID: "ab", Source: "a", Target: "b"})
	require.NoError(t, err)
	return g
}

type fixture struct {
	clock clockwork.FakeClock
	loop  *loop.Loop
	graph *graph.Graph
	host  *fakeHost
	r     *Renderer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	clock := clockwork.NewFakeClock()
	f := &fixture{
		clock: clock,
		loop:  loop.New(clock),
		graph: pairGraph(t),
		host:  newFakeHost(200, 100),
	}
	r, err := New(Options{Graph: f.graph, Host: f.host, Loop: f.loop})
	require.NoError(t, err)
	t.Cleanup(r.Destroy)
	f.r = r
	return f
}

func rgba(img *image.RGBA, x, y int) color.RGBA { return img.RGBAAt(x, y) }

func TestNewRequiresGraphAndHost(t *testing.T) {
	_, err := New(Options{Host: newFakeHost(10, 10)})
	assert.ErrorIs(t, err, ErrNoGraph)

	_, err = New(Options{Graph: graph.New(graph.DefaultOptions())})
	assert.ErrorIs(t, err, ErrNoHost)
}

func TestFirstFrameIsPresented(t *testing.T) {
	f := newFixture(t)

	f.loop.RunPending()

	require.Len(t, f.host.presented, 1)
	assert.Equal(t, color.RGBA{255, 0, 0, 255}, rgba(f.host.presented[0], 50, 50))
	assert.True(t, f.r.Compositor().Ready())
}

func TestOnReadyRuns(t *testing.T) {
	clock := clockwork.NewFakeClock()
	l := loop.New(clock)
	ready := 0
	r, err := New(Options{Graph: pairGraph(t), Host: newFakeHost(50, 50), Loop: l, OnReady: func() { ready++ }})
	require.NoError(t, err)
	defer r.Destroy()

	l.RunPending()
	assert.Equal(t, 1, ready)
}

func TestNotifyInvalidatesElementLayers(t *testing.T) {
	f := newFixture(t)
	f.loop.RunPending()

	_, err := f.graph.AddNode(graph.NodeData{ID: "c", Position: geom.Pt(100, 80)})
	require.NoError(t, err)

	assert.Equal(t, 1, f.r.Notifications())
	assert.Equal(t, []string{"notify"}, f.r.Compositor().Reasons(compositor.Node))
	assert.Equal(t, []string{"notify"}, f.r.Compositor().Reasons(compositor.Drag))
	assert.False(t, f.r.Compositor().Dirty(compositor.SelectBox))
}

func TestNotifyViewportDirtiesSelectBox(t *testing.T) {
	f := newFixture(t)
	f.loop.RunPending()

	f.graph.PanBy(geom.Pt(10, 0))

	assert.Equal(t, []string{"viewchange"}, f.r.Compositor().Reasons(compositor.SelectBox))
	assert.True(t, f.r.Compositor().Dirty(compositor.Node))
}

func TestRemoveDropsScratch(t *testing.T) {
	f := newFixture(t)
	f.loop.RunPending()
	edge, ok := f.graph.Edge("ab")
	require.True(t, ok)
	store := f.r.Compositor().Store()
	_, ok = store.Peek(edge)
	require.True(t, ok, "the first frame solves the edge")

	require.NoError(t, f.graph.Remove("ab"))

	_, ok = store.Peek(edge)
	assert.False(t, ok)
}

func TestHostInputRunsOnLoop(t *testing.T) {
	f := newFixture(t)
	f.loop.RunPending()
	a, _ := f.graph.Node("a")

	f.host.each(func(in Input) {
		in.Pointer(gesture.PointerEvent{Kind: gesture.PointerDown, Pos: geom.Pt(50, 50)})
		in.Pointer(gesture.PointerEvent{Kind: gesture.PointerUp, Pos: geom.Pt(50, 50)})
	})
	assert.False(t, a.Selected(), "input waits for the loop")

	f.loop.RunPending()
	assert.True(t, a.Selected())
}

func TestHostResize(t *testing.T) {
	f := newFixture(t)
	f.loop.RunPending()

	f.host.each(func(in Input) { in.Resize(300, 150, 2) })
	f.loop.RunPending()

	w, h, dpr := f.r.Compositor().Size()
	assert.Equal(t, 300, w)
	assert.Equal(t, 150, h)
	assert.Equal(t, 2.0, dpr)
	assert.Equal(t, 600, f.r.Compositor().Surface(compositor.Node).Width())
}

func TestDestroyRemovesOnlyOwnListeners(t *testing.T) {
	clock := clockwork.NewFakeClock()
	l := loop.New(clock)
	g := pairGraph(t)
	host := newFakeHost(200, 100)
	removeOther := host.Listen(nopInput{})
	defer removeOther()

	r, err := New(Options{Graph: g, Host: host, Loop: l})
	require.NoError(t, err)
	require.Len(t, host.listeners, 2)

	var own Input
	for id, in := range host.listeners {
		if id != 0 {
			own = in
		}
	}

	r.Destroy()
	r.Destroy()
	assert.True(t, r.Destroyed())
	assert.Len(t, host.listeners, 1)
	assert.Equal(t, nopInput{}, host.listeners[0])

	_, err = g.AddNode(graph.NodeData{ID: "c"})
	require.NoError(t, err)
	assert.Equal(t, 0, r.Notifications(), "graph subscription removed")

	a, _ := g.Node("a")
	own.Pointer(gesture.PointerEvent{Kind: gesture.PointerDown, Pos: geom.Pt(50, 50)})
	own.Pointer(gesture.PointerEvent{Kind: gesture.PointerUp, Pos: geom.Pt(50, 50)})
	l.RunPending()
	assert.False(t, a.Selected())
	assert.Equal(t, 0, r.Compositor().Frames())
}

func TestGraphDestroyDestroysRenderer(t *testing.T) {
	f := newFixture(t)

	f.graph.Destroy()

	assert.True(t, f.r.Destroyed())
	assert.Empty(t, f.host.listeners)
}

func TestFitTransform(t *testing.T) {
	tests := []struct {
		name     string
		content  geom.Rect
		min, max float64
		want     geom.Transform
	}{
		{"fits the tighter axis", geom.Rect{X: 100, Y: 50, W: 200, H: 100}, 0, 0, geom.Transform{Pan: geom.Pt(50, 75), Zoom: 1.5}},
		{"max zoom", geom.Rect{X: 100, Y: 50, W: 200, H: 100}, 0, 1, geom.Transform{Pan: geom.Pt(100, 100), Zoom: 1}},
		{"small content", geom.Rect{W: 10, H: 10}, 0, 0, geom.Transform{Pan: geom.Pt(200, 150), Zoom: 2}},
		{"min zoom", geom.Rect{W: 10, H: 10}, 3, 0, geom.Transform{Pan: geom.Pt(200, 150), Zoom: 3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FitTransform(tt.content, 400, 300, 50, tt.min, tt.max)
			assert.InDelta(t, tt.want.Zoom, got.Zoom, 1e-9)
			assert.InDelta(t, tt.want.Pan.X, got.Pan.X, 1e-9)
			assert.InDelta(t, tt.want.Pan.Y, got.Pan.Y, 1e-9)
		})
	}
}

func TestSnapshotFitsContent(t *testing.T) {
	f := newFixture(t)
	f.loop.RunPending()
	f.graph.SetViewport(geom.Pt(-500, -500), 3)
	f.loop.RunPending()
	dirty := f.r.Compositor().Dirty(compositor.Node)

	var got *image.RGBA
	f.r.Snapshot(SnapshotOptions{Width: 200, Height: 100, Fit: true, Supersample: 1, Background: color.White},
		func(img *image.RGBA) { got = img })
	assert.Nil(t, got, "snapshots wait one tick")
	f.loop.RunPending()

	require.NotNil(t, got)
	assert.Equal(t, image.Rect(0, 0, 200, 100), got.Bounds())
	assert.Equal(t, color.RGBA{255, 0, 0, 255}, rgba(got, 50, 50))
	assert.Equal(t, color.RGBA{0, 0, 255, 255}, rgba(got, 150, 50))
	assert.Equal(t, color.RGBA{255, 255, 255, 255}, rgba(got, 100, 95))
	assert.Equal(t, dirty, f.r.Compositor().Dirty(compositor.Node), "live layers untouched")
	assert.Equal(t, 3.0, f.graph.Zoom())
}

func TestSnapshotSupersamples(t *testing.T) {
	f := newFixture(t)

	var got *image.RGBA
	f.r.Snapshot(SnapshotOptions{Width: 200, Height: 100, Fit: true, Supersample: 3},
		func(img *image.RGBA) { got = img })
	f.loop.RunPending()

	require.NotNil(t, got)
	assert.Equal(t, image.Rect(0, 0, 200, 100), got.Bounds())
	c := rgba(got, 50, 50)
	assert.Greater(t, c.R, uint8(200))
	assert.Less(t, c.B, uint8(50))
	assert.Equal(t, uint8(0), rgba(got, 100, 95).A, "no background")
}

func TestExportAndEncode(t *testing.T) {
	l := loop.New(nil)
	r, err := New(Options{Graph: pairGraph(t), Host: newFakeHost(200, 100), Loop: l})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	runDone := make(chan struct{})
	go func() {
		defer close(runDone)
		_ = l.Run(ctx)
	}()

	opts := DefaultSnapshotOptions()
	opts.Width, opts.Height = 200, 100
	img, err := r.Export(ctx, opts)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, EncodePNG(&buf, img))
	decoded, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 200, 100), decoded.Bounds())

	cancel()
	<-runDone
}

func TestExportCancelled(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.r.Export(ctx, DefaultSnapshotOptions())
	assert.ErrorContains(t, err, "snapshot cancelled")
}
