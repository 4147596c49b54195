package gesture

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ha1tch/graphcanvas/pkg/compositor"
	"github.com/ha1tch/graphcanvas/pkg/geom"
	"github.com/ha1tch/graphcanvas/pkg/graph"
	"github.com/ha1tch/graphcanvas/pkg/loop"
	"github.com/ha1tch/graphcanvas/pkg/scene"
)

type fixture struct {
	clock  clockwork.FakeClock
	loop   *loop.Loop
	graph  *graph.Graph
	comp   *compositor.Compositor
	rec    *Recognizer
	events []string
}

var recorded = []string{
	scene.EventMouseDown, scene.EventMouseUp, scene.EventClick,
	scene.EventTapStart, scene.EventTapEnd, scene.EventTap, scene.EventTapHold,
	scene.EventVMouseDown, scene.EventVMouseUp, scene.EventVClick,
	scene.EventTouchStart, scene.EventTouchEnd,
	scene.EventCxtTapStart, scene.EventCxtDrag, scene.EventCxtTapEnd, scene.EventCxtTap,
	scene.EventGrab, scene.EventDrag, scene.EventFree,
}

func newFixture(t *testing.T, g *graph.Graph) *fixture {
	t.Helper()
	clock := clockwork.NewFakeClock()
	l := loop.New(clock)
	comp := compositor.New(compositor.Options{Graph: g, Loop: l, Width: 200, Height: 100})
	t.Cleanup(comp.Destroy)

	f := &fixture{clock: clock, loop: l, graph: g, comp: comp}
	f.rec = New(Options{Graph: g, Compositor: comp, Loop: l, Width: 200, Height: 100})
	t.Cleanup(f.rec.Stop)

	for _, name := range recorded {
		g.On(name, func(ev scene.Event) {
			id := ""
			if ev.Target != nil {
				id = ev.Target.ID()
			}
			f.events = append(f.events, ev.Name+"@"+id)
		})
	}
	return f
}

// pairGraph has nodes a at (50,50) and b at (150,50) joined by edge ab.
func pairGraph(t *testing.T) *graph.Graph {
	t.Helper()
	g := graph.New(graph.DefaultOptions())
	_, err := g.AddNode(graph.NodeData{ID: "a", Position: geom.Pt(50, 50)})
	require.NoError(t, err)
	_, err = g.AddNode(graph.NodeData{ID: "b", Position: geom.Pt(150, 50)})
	require.NoError(t, err)
	_, err = g.AddEdge(graph.EdgeData{ID: "ab", Source: "a", Target: "b"})
	require.NoError(t, err)
	return g
}

func (f *fixture) node(t *testing.T, id string) *graph.Node {
	t.Helper()
	n, ok := f.graph.Node(id)
	require.True(t, ok)
	return n
}

func (f *fixture) solve() {
	f.comp.Solver().Update(f.graph.Edges())
}

func (f *fixture) press(x, y float64, shift bool) {
	f.rec.HandlePointer(PointerEvent{Kind: PointerDown, Pos: geom.Pt(x, y), Shift: shift})
}

func (f *fixture) move(x, y float64, shift bool) {
	f.rec.HandlePointer(PointerEvent{Kind: PointerMove, Pos: geom.Pt(x, y), Shift: shift})
}

func (f *fixture) release(x, y float64, shift bool) {
	f.rec.HandlePointer(PointerEvent{Kind: PointerUp, Pos: geom.Pt(x, y), Shift: shift})
}

func (f *fixture) click(x, y float64, shift bool) {
	f.press(x, y, shift)
	f.release(x, y, shift)
}

func (f *fixture) touch(kind TouchKind, pts ...geom.Point) {
	f.rec.HandleTouch(TouchEvent{Kind: kind, Touches: pts})
}

func (f *fixture) advance(d time.Duration) {
	f.clock.Advance(d)
	f.loop.RunPending()
}

func TestBackgroundClickEmitsClickWithoutPanning(t *testing.T) {
	f := newFixture(t, pairGraph(t))

	f.click(100, 90, false)

	assert.Equal(t, []string{
		"mousedown@", "tapstart@", "vmousedown@",
		"click@", "tap@", "vclick@",
		"mouseup@", "tapend@", "vmouseup@",
	}, f.events)
	assert.Equal(t, geom.Point{}, f.graph.Pan())
	assert.Equal(t, ModeIdle, f.rec.Mode())
}

func TestBackgroundClickClearsSelection(t *testing.T) {
	f := newFixture(t, pairGraph(t))
	a := f.node(t, "a")
	f.graph.Select(a)

	f.click(100, 90, false)

	assert.False(t, a.Selected())
}

func TestClickSelectsExclusively(t *testing.T) {
	f := newFixture(t, pairGraph(t))
	a, b := f.node(t, "a"), f.node(t, "b")
	f.graph.Select(b)

	f.click(50, 50, false)
	assert.True(t, a.Selected())
	assert.False(t, b.Selected())

	f.click(150, 50, true)
	assert.True(t, a.Selected(), "shift keeps the selection")
	assert.True(t, b.Selected())

	assert.Contains(t, f.events, "click@a")
	assert.Contains(t, f.events, "grab@a")
	assert.Contains(t, f.events, "free@a")
	assert.False(t, a.Grabbed())
}

func TestClickTogglesInAdditiveMode(t *testing.T) {
	g := pairGraph(t)
	opts := g.Options()
	opts.SelectionType = scene.SelectAdditive
	g.SetOptions(opts)
	f := newFixture(t, g)
	a, b := f.node(t, "a"), f.node(t, "b")

	f.click(50, 50, false)
	f.click(150, 50, false)
	assert.True(t, a.Selected())
	assert.True(t, b.Selected())

	f.click(50, 50, false)
	assert.False(t, a.Selected())
	assert.True(t, b.Selected())
}

func TestBackgroundDragPans(t *testing.T) {
	f := newFixture(t, pairGraph(t))

	f.press(100, 90, false)
	f.move(102, 90, false)
	assert.Equal(t, ModePendingClassify, f.rec.Mode(), "below the move threshold")
	assert.Equal(t, geom.Point{}, f.graph.Pan())

	f.move(110, 95, false)
	assert.Equal(t, ModePanning, f.rec.Mode())
	assert.Equal(t, geom.Pt(8, 5), f.graph.Pan())
	assert.True(t, f.rec.InProgress())

	f.move(120, 95, false)
	assert.Equal(t, geom.Pt(18, 5), f.graph.Pan())

	f.release(120, 95, false)
	assert.Equal(t, ModeIdle, f.rec.Mode())
	assert.False(t, f.rec.InProgress())
	assert.NotContains(t, f.events, "click@")
}

func TestHoldOnBackgroundStartsPan(t *testing.T) {
	f := newFixture(t, pairGraph(t))

	f.press(100, 90, false)
	f.advance(399 * time.Millisecond)
	assert.Equal(t, ModePendingClassify, f.rec.Mode())

	f.advance(time.Millisecond)
	assert.Equal(t, ModePanning, f.rec.Mode())
	at, ok := f.rec.ActiveBackground()
	require.True(t, ok)
	assert.Equal(t, geom.Pt(100, 90), at)

	f.release(100, 90, false)
	_, ok = f.rec.ActiveBackground()
	assert.False(t, ok)
	assert.Equal(t, ModeIdle, f.rec.Mode())
}

func TestHoldWithShiftDoesNotPan(t *testing.T) {
	f := newFixture(t, pairGraph(t))

	f.press(100, 90, true)
	f.advance(time.Second)
	assert.Equal(t, ModePendingClassify, f.rec.Mode())
}

func TestShiftDragBoxSelects(t *testing.T) {
	f := newFixture(t, pairGraph(t))
	f.solve()

	f.press(5, 5, true)
	f.move(195, 95, true)
	assert.Equal(t, ModeBoxSelecting, f.rec.Mode())
	box, ok := f.rec.SelectionBox()
	require.True(t, ok)
	assert.Equal(t, geom.RectFromCorners(geom.Pt(5, 5), geom.Pt(195, 95)), box)
	assert.Equal(t, geom.Point{}, f.graph.Pan())

	f.release(195, 95, true)
	_, ok = f.rec.SelectionBox()
	assert.False(t, ok)

	var ids []string
	for _, el := range f.graph.SelectedElements() {
		ids = append(ids, el.ID())
	}
	assert.ElementsMatch(t, []string{"a", "b", "ab"}, ids)
}

func TestBoxSelectWhenPanningDisabled(t *testing.T) {
	g := pairGraph(t)
	opts := g.Options()
	opts.PanningEnabled = false
	g.SetOptions(opts)
	f := newFixture(t, g)

	f.press(5, 5, false)
	f.move(100, 95, false)
	assert.Equal(t, ModeBoxSelecting, f.rec.Mode())

	f.release(100, 95, false)
	assert.True(t, f.node(t, "a").Selected())
	assert.False(t, f.node(t, "b").Selected())
}

func TestNodeDragUsesDragLayer(t *testing.T) {
	f := newFixture(t, pairGraph(t))
	a := f.node(t, "a")
	edge, ok := f.graph.Edge("ab")
	require.True(t, ok)
	store := f.comp.Store()

	f.press(50, 50, false)
	require.Equal(t, []scene.Node{a}, f.rec.Session().DragSet)
	assert.True(t, a.Grabbed())
	assert.True(t, store.InDragLayer(a))
	assert.True(t, store.InDragLayer(edge))
	assert.False(t, store.InDragLayer(f.node(t, "b")))

	f.move(60, 55, false)
	assert.Equal(t, ModeDragging, f.rec.Mode())
	assert.Equal(t, geom.Pt(60, 55), a.Position())
	assert.Contains(t, f.events, "drag@a")
	assert.True(t, f.comp.Dirty(compositor.Drag))

	f.release(60, 55, false)
	assert.False(t, a.Grabbed())
	assert.False(t, store.InDragLayer(a))
	assert.False(t, store.InDragLayer(edge))
	assert.False(t, a.Selected(), "a drag is not a click")
	assert.Contains(t, f.events, "free@a")
	assert.Contains(t, f.comp.Reasons(compositor.Node), reasonDragEnd)
}

func TestDraggingSelectedNodeMovesSelection(t *testing.T) {
	f := newFixture(t, pairGraph(t))
	a, b := f.node(t, "a"), f.node(t, "b")
	f.graph.Select(a, b)

	f.press(50, 50, false)
	f.move(50, 70, false)
	f.release(50, 70, false)

	assert.Equal(t, geom.Pt(50, 70), a.Position())
	assert.Equal(t, geom.Pt(150, 70), b.Position())
}

func TestLockedNodeIsNotDragged(t *testing.T) {
	f := newFixture(t, pairGraph(t))
	a := f.node(t, "a")
	a.SetLocked(true)

	f.press(50, 50, false)
	f.move(70, 50, false)
	f.release(70, 50, false)

	assert.Equal(t, geom.Pt(50, 50), a.Position())
	assert.NotContains(t, f.events, "grab@a")
}

func TestCompoundDragSet(t *testing.T) {
	g := graph.New(graph.DefaultOptions())
	add := func(d graph.NodeData) {
		_, err := g.AddNode(d)
		require.NoError(t, err)
	}
	add(graph.NodeData{ID: "p", Style: map[string]string{"width": "auto", "height": "auto", "shape": "rectangle"}})
	add(graph.NodeData{ID: "a", Parent: "p", Position: geom.Pt(50, 50)})
	add(graph.NodeData{ID: "f", Parent: "p", Position: geom.Pt(100, 50), Style: map[string]string{"width": "60", "height": "60"}})
	add(graph.NodeData{ID: "g", Parent: "f", Position: geom.Pt(100, 50)})
	add(graph.NodeData{ID: "x", Position: geom.Pt(180, 90)})
	for _, d := range []graph.EdgeData{{ID: "ax", Source: "a", Target: "x"}, {ID: "gx", Source: "g", Target: "x"}} {
		_, err := g.AddEdge(d)
		require.NoError(t, err)
	}
	f := newFixture(t, g)

	// Inside p's rectangle, clear of its children.
	f.press(67, 75, false)

	var ids []string
	for _, n := range f.rec.Session().DragSet {
		ids = append(ids, n.ID())
	}
	assert.Equal(t, []string{"p", "a", "f"}, ids)
	assert.Contains(t, f.events, "grab@p")

	store := f.comp.Store()
	for _, id := range ids {
		assert.True(t, store.InDragLayer(f.node(t, id)), id)
	}
	ax, _ := g.Edge("ax")
	gx, _ := g.Edge("gx")
	assert.True(t, store.InDragLayer(ax), "edges of dragged descendants are lifted")
	assert.False(t, store.InDragLayer(f.node(t, "g")), "nothing below a fixed-size compound")
	assert.False(t, store.InDragLayer(gx))
	assert.False(t, store.InDragLayer(f.node(t, "x")))

	f.release(67, 75, false)
	for _, id := range []string{"p", "a", "f"} {
		assert.False(t, store.InDragLayer(f.node(t, id)), id)
	}
	assert.False(t, store.InDragLayer(ax))
}

func TestFixedSizeCompoundDragsAlone(t *testing.T) {
	g := graph.New(graph.DefaultOptions())
	_, err := g.AddNode(graph.NodeData{ID: "p", Position: geom.Pt(100, 50), Style: map[string]string{"width": "120", "height": "80", "shape": "rectangle"}})
	require.NoError(t, err)
	_, err = g.AddNode(graph.NodeData{ID: "c", Parent: "p", Position: geom.Pt(60, 30)})
	require.NoError(t, err)
	f := newFixture(t, g)
	p, c := f.node(t, "p"), f.node(t, "c")

	f.press(130, 75, false)

	require.Len(t, f.rec.Session().DragSet, 1)
	assert.Same(t, p, f.rec.Session().DragSet[0])
	assert.True(t, f.comp.Store().InDragLayer(p))
	assert.False(t, f.comp.Store().InDragLayer(c))

	f.move(140, 75, false)
	f.release(140, 75, false)
	assert.Equal(t, geom.Pt(110, 50), p.Position())
	assert.Equal(t, geom.Pt(60, 30), c.Position())
}

func TestChildDragLiftsAncestors(t *testing.T) {
	g := graph.New(graph.DefaultOptions())
	_, err := g.AddNode(graph.NodeData{ID: "p", Style: map[string]string{"width": "auto", "height": "auto", "shape": "rectangle"}})
	require.NoError(t, err)
	_, err = g.AddNode(graph.NodeData{ID: "a", Parent: "p", Position: geom.Pt(50, 50)})
	require.NoError(t, err)
	_, err = g.AddNode(graph.NodeData{ID: "b", Parent: "p", Position: geom.Pt(120, 50)})
	require.NoError(t, err)
	f := newFixture(t, g)

	f.press(50, 50, false)

	require.Len(t, f.rec.Session().DragSet, 1)
	store := f.comp.Store()
	assert.True(t, store.InDragLayer(f.node(t, "a")))
	assert.True(t, store.InDragLayer(f.node(t, "p")), "parent resizes above the dragged child")
	assert.False(t, store.InDragLayer(f.node(t, "b")))
}

func TestSecondaryButtonIsContextGesture(t *testing.T) {
	f := newFixture(t, pairGraph(t))
	a := f.node(t, "a")

	f.rec.HandlePointer(PointerEvent{Kind: PointerDown, Button: ButtonSecondary, Pos: geom.Pt(50, 50)})
	assert.Equal(t, ModeContextGesture, f.rec.Mode())
	assert.True(t, a.Active())
	f.rec.HandlePointer(PointerEvent{Kind: PointerUp, Button: ButtonSecondary, Pos: geom.Pt(50, 50)})

	assert.Equal(t, []string{"cxttapstart@a", "cxttapend@a", "cxttap@a"}, f.events)
	assert.False(t, a.Active())
	assert.False(t, a.Selected())
}

func TestHitTest(t *testing.T) {
	f := newFixture(t, pairGraph(t))
	f.solve()

	assert.Equal(t, "a", f.rec.HitTest(geom.Pt(50, 50)).ID())
	assert.Equal(t, "ab", f.rec.HitTest(geom.Pt(100, 50)).ID())
	assert.Equal(t, "ab", f.rec.HitTest(geom.Pt(100, 53)).ID(), "within the tolerance")
	assert.Nil(t, f.rec.HitTest(geom.Pt(100, 60)))

	f.node(t, "a").Style().Opacity = 0
	assert.Nil(t, f.rec.HitTest(geom.Pt(50, 40)), "transparent nodes are not hit")
}

func TestInBox(t *testing.T) {
	f := newFixture(t, pairGraph(t))
	f.solve()

	var ids []string
	for _, el := range f.rec.InBox(geom.RectFromCorners(geom.Pt(0, 0), geom.Pt(100, 100))) {
		ids = append(ids, el.ID())
	}
	assert.Equal(t, []string{"a"}, ids)
}

func TestWheelZoomsAboutCursor(t *testing.T) {
	f := newFixture(t, pairGraph(t))
	cursor := geom.Pt(100, 50)
	before := scene.Viewport(f.graph).ToModel(cursor)

	f.rec.HandleWheel(WheelEvent{Pos: cursor, DeltaY: -500})

	assert.InDelta(t, 10, f.graph.Zoom(), 1e-9)
	after := scene.Viewport(f.graph).ToScreen(before)
	assert.InDelta(t, cursor.X, after.X, 1e-9)
	assert.InDelta(t, cursor.Y, after.Y, 1e-9)
	assert.True(t, f.rec.InProgress())

	f.advance(99 * time.Millisecond)
	assert.True(t, f.rec.WheelActive())
	f.advance(time.Millisecond)
	assert.False(t, f.rec.WheelActive())
	assert.False(t, f.rec.InProgress())
}

func TestWheelZoomDelta(t *testing.T) {
	assert.InDelta(t, 0.12, WheelEvent{WheelDeltaY: 120, WheelDelta: 240}.ZoomDelta(), 1e-9)
	assert.InDelta(t, 0.24, WheelEvent{WheelDelta: 240}.ZoomDelta(), 1e-9)
	assert.InDelta(t, -0.1, WheelEvent{Detail: 3.2}.ZoomDelta(), 1e-9)
	assert.InDelta(t, -0.2, WheelEvent{DeltaY: 100}.ZoomDelta(), 1e-9)
}

func TestWheelIgnoredWhenZoomingDisabled(t *testing.T) {
	g := pairGraph(t)
	opts := g.Options()
	opts.ZoomingEnabled = false
	g.SetOptions(opts)
	f := newFixture(t, g)

	f.rec.HandleWheel(WheelEvent{Pos: geom.Pt(10, 10), DeltaY: -500})
	assert.Equal(t, 1.0, f.graph.Zoom())
}

func TestPinchKeepsCentroidFixed(t *testing.T) {
	f := newFixture(t, pairGraph(t))

	f.touch(TouchStart, geom.Pt(100, 100), geom.Pt(200, 100))
	assert.Equal(t, ModePinchZooming, f.rec.Mode())

	f.touch(TouchMove, geom.Pt(50, 100), geom.Pt(250, 100))
	assert.InDelta(t, 2, f.graph.Zoom(), 1e-9)
	assert.Equal(t, geom.Pt(-150, -100), f.graph.Pan())
	centre := scene.Viewport(f.graph).ToScreen(geom.Pt(150, 100))
	assert.InDelta(t, 150, centre.X, 1e-9)
	assert.InDelta(t, 100, centre.Y, 1e-9)
	assert.True(t, f.rec.InProgress())

	f.touch(TouchEnd, geom.Pt(250, 100))
	assert.False(t, f.rec.Session().Pinching)
	f.touch(TouchEnd)
	assert.Equal(t, ModeIdle, f.rec.Mode())
	assert.NotContains(t, f.events, "tap@")
}

func TestPinchOutsideContainerIsIgnored(t *testing.T) {
	f := newFixture(t, pairGraph(t))

	f.touch(TouchStart, geom.Pt(100, 50), geom.Pt(300, 50))
	f.touch(TouchMove, geom.Pt(50, 50), geom.Pt(350, 50))
	assert.Equal(t, 1.0, f.graph.Zoom())
}

func TestCloseFingersStartContextGesture(t *testing.T) {
	f := newFixture(t, pairGraph(t))
	a := f.node(t, "a")

	f.touch(TouchStart, geom.Pt(50, 50), geom.Pt(100, 50))
	assert.Equal(t, ModeContextGesture, f.rec.Mode())
	assert.True(t, a.Active())

	f.touch(TouchMove, geom.Pt(50, 50), geom.Pt(110, 50))
	assert.Equal(t, ModeContextGesture, f.rec.Mode())
	assert.Contains(t, f.events, "cxtdrag@a")

	f.touch(TouchEnd)
	assert.Equal(t, []string{"cxttapstart@a", "cxtdrag@a", "cxttapend@a"}, f.events,
		"a dragged context gesture ends without cxttap")
	assert.False(t, a.Active())
}

func TestSpreadingFingersTurnsContextIntoPinch(t *testing.T) {
	f := newFixture(t, pairGraph(t))
	a := f.node(t, "a")

	f.touch(TouchStart, geom.Pt(50, 50), geom.Pt(100, 50))
	f.touch(TouchMove, geom.Pt(20, 50), geom.Pt(130, 50))

	assert.Equal(t, ModePinchZooming, f.rec.Mode())
	assert.False(t, a.Active())
	assert.Equal(t, []string{"cxttapstart@a", "cxttapend@a"}, f.events)
	assert.InDelta(t, 2.2, f.graph.Zoom(), 1e-9)
}

func TestTapHoldOnBackground(t *testing.T) {
	f := newFixture(t, pairGraph(t))
	a := f.node(t, "a")
	f.graph.Select(a)

	f.touch(TouchStart, geom.Pt(100, 90))
	assert.Equal(t, ModeTapHoldPending, f.rec.Mode())
	f.advance(time.Second)

	assert.Contains(t, f.events, "taphold@")
	assert.False(t, a.Selected())
}

func TestTapHoldCancelledByMovement(t *testing.T) {
	f := newFixture(t, pairGraph(t))

	f.touch(TouchStart, geom.Pt(100, 90))
	f.touch(TouchMove, geom.Pt(110, 90))
	assert.Equal(t, ModePanning, f.rec.Mode(), "background swipe pans")
	assert.Equal(t, geom.Pt(10, 0), f.graph.Pan())

	f.advance(time.Second)
	assert.NotContains(t, f.events, "taphold@")

	f.touch(TouchEnd)
	assert.NotContains(t, f.events, "tap@")
	assert.False(t, f.rec.InProgress())
}

func TestTapSelectsAndSuppressesTapHold(t *testing.T) {
	f := newFixture(t, pairGraph(t))
	a := f.node(t, "a")

	f.touch(TouchStart, geom.Pt(50, 50))
	f.advance(100 * time.Millisecond)
	f.touch(TouchEnd)

	assert.True(t, a.Selected())
	assert.Contains(t, f.events, "tap@a")
	assert.Contains(t, f.events, "touchend@a")
	assert.True(t, f.rec.Session().TapResolved)

	f.advance(time.Second)
	assert.NotContains(t, f.events, "taphold@a")
}

func TestTouchDragMovesNode(t *testing.T) {
	f := newFixture(t, pairGraph(t))
	a := f.node(t, "a")

	f.touch(TouchStart, geom.Pt(50, 50))
	f.touch(TouchMove, geom.Pt(50, 80))
	assert.Equal(t, geom.Pt(50, 80), a.Position())
	assert.Equal(t, ModeDragging, f.rec.Mode())
	assert.Equal(t, geom.Point{}, f.graph.Pan())

	f.touch(TouchEnd)
	assert.False(t, a.Selected())
	assert.False(t, a.Grabbed())
	assert.Contains(t, f.events, "free@a")
}

func TestTouchHover(t *testing.T) {
	g := pairGraph(t)
	var hovers []string
	for _, name := range []string{scene.EventTouchOver, scene.EventTouchOut} {
		g.On(name, func(ev scene.Event) {
			hovers = append(hovers, ev.Name+"@"+ev.Target.ID())
		})
	}
	f := newFixture(t, g)

	f.touch(TouchStart, geom.Pt(100, 90))
	f.touch(TouchMove, geom.Pt(50, 50))
	assert.Equal(t, []string{"touchover@a"}, hovers)

	// The swipe panned by (-50,-40), so this lands on empty model space.
	f.touch(TouchMove, geom.Pt(100, 90))
	assert.Equal(t, []string{"touchover@a", "touchout@a"}, hovers)

	f.touch(TouchEnd)
}

func TestThreeFingerBoxSelect(t *testing.T) {
	f := newFixture(t, pairGraph(t))

	f.touch(TouchStart, geom.Pt(10, 10), geom.Pt(190, 10))
	f.touch(TouchMove, geom.Pt(10, 10), geom.Pt(190, 10), geom.Pt(100, 90))
	assert.Equal(t, ModeBoxSelecting, f.rec.Mode())
	_, ok := f.rec.SelectionBox()
	assert.True(t, ok)

	f.touch(TouchMove, geom.Pt(0, 70), geom.Pt(20, 70), geom.Pt(10, 70))
	f.touch(TouchEnd, geom.Pt(0, 70), geom.Pt(20, 70))

	assert.True(t, f.node(t, "a").Selected())
	assert.False(t, f.node(t, "b").Selected())
	_, ok = f.rec.SelectionBox()
	assert.False(t, ok)
}

func TestHandlersIssueOneFrame(t *testing.T) {
	f := newFixture(t, pairGraph(t))

	f.click(50, 50, false)
	f.loop.RunPending()
	assert.Equal(t, 1, f.comp.Frames())
}
