package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ha1tch/graphcanvas/pkg/config"
	"github.com/ha1tch/graphcanvas/pkg/graph"
	"github.com/ha1tch/graphcanvas/pkg/renderer"
)

const pairDocument = `{
  "nodes": [
    {"id": "a", "position": {"x": 50, "y": 50}, "style": {"background-color": "red"}},
    {"id": "b", "position": {"x": 150, "y": 50}, "style": {"background-color": "blue"}}
  ],
  "edges": [
    {"id": "ab", "source": "a", "target": "b"}
  ]
}`

// workspace holds a document and a settings path in a temp directory.
type workspace struct {
	dir    string
	doc    string
	config string
}

func newWorkspace(t *testing.T) workspace {
	t.Helper()
	dir := t.TempDir()
	ws := workspace{
		dir:    dir,
		doc:    filepath.Join(dir, "pair.json"),
		config: filepath.Join(dir, "graphcanvas.toml"),
	}
	require.NoError(t, os.WriteFile(ws.doc, []byte(pairDocument), 0o644))
	return ws
}

func newTestCLI() *CLI {
	return New(io.Discard, LogInfo)
}

func execute(t *testing.T, c *CLI, args ...string) (string, error) {
	t.Helper()
	root := c.RootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func hasColour(img image.Image, match func(r, g, b uint32) bool) bool {
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, _ := img.At(x, y).RGBA()
			if match(r>>8, g>>8, bl>>8) {
				return true
			}
		}
	}
	return false
}

func reddish(r, g, b uint32) bool { return r > 200 && g < 60 && b < 60 }
func blueish(r, g, b uint32) bool { return b > 200 && r < 60 && g < 60 }

func TestRenderWritesPNG(t *testing.T) {
	ws := newWorkspace(t)
	out := filepath.Join(ws.dir, "out.png")

	_, err := execute(t, newTestCLI(), "--config", ws.config, "render", ws.doc,
		"-o", out, "--width", "200", "--height", "120", "--supersample", "1")
	require.NoError(t, err)

	f, err := os.Open(out)
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)

	assert.Equal(t, image.Rect(0, 0, 200, 120), img.Bounds())
	assert.True(t, hasColour(img, reddish), "node a should be drawn")
	assert.True(t, hasColour(img, blueish), "node b should be drawn")
}

func TestRenderToStdoutUsesConfigSize(t *testing.T) {
	ws := newWorkspace(t)
	cfg := config.Default()
	cfg.Snapshot.Width, cfg.Snapshot.Height = 64, 48
	cfg.Snapshot.Supersample = 2
	require.NoError(t, config.Save(ws.config, cfg))

	out, err := execute(t, newTestCLI(), "--config", ws.config, "render", ws.doc, "-o", "-")
	require.NoError(t, err)

	img, err := png.Decode(strings.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 64, 48), img.Bounds())
}

func TestRenderErrors(t *testing.T) {
	ws := newWorkspace(t)

	_, err := execute(t, newTestCLI(), "--config", ws.config, "render", filepath.Join(ws.dir, "missing.json"))
	assert.ErrorContains(t, err, "failed to read document")

	_, err = execute(t, newTestCLI(), "--config", ws.config, "render")
	assert.Error(t, err)

	require.NoError(t, os.WriteFile(ws.config, []byte("[view]\ncell_width = -1\n"), 0o644))
	_, err = execute(t, newTestCLI(), "--config", ws.config, "render", ws.doc)
	assert.ErrorContains(t, err, "invalid config")
}

func TestDefaultOutput(t *testing.T) {
	assert.Equal(t, "graphs/pair.png", defaultOutput("graphs/pair.json"))
	assert.Equal(t, "pair.png", defaultOutput("pair.yaml"))
	assert.Equal(t, "pair.png", defaultOutput("pair"))
}

// serving starts a session's loop and an HTTP server in front of it.
func serving(t *testing.T) (*httptest.Server, *session) {
	t.Helper()
	ws := newWorkspace(t)
	c := newTestCLI()
	c.configPath = ws.config

	snap := renderer.DefaultSnapshotOptions()
	snap.Width, snap.Height, snap.Supersample = 200, 100, 1
	s, err := c.openSession(ws.doc, renderer.Headless{W: snap.Width, H: snap.Height})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = s.loop.Run(ctx)
	}()

	ts := httptest.NewServer(newServer(s, snap, c.Logger))
	t.Cleanup(func() {
		ts.Close()
		cancel()
		<-done
	})
	return ts, s
}

func get(t *testing.T, url string) *http.Response {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestServeHealth(t *testing.T) {
	ts, _ := serving(t)
	assert.Equal(t, http.StatusNoContent, get(t, ts.URL+"/healthz").StatusCode)
}

func TestServeSnapshot(t *testing.T) {
	ts, _ := serving(t)

	resp := get(t, ts.URL+"/graph.png?width=120&height=80")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))

	img, err := png.Decode(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 120, 80), img.Bounds())
	assert.True(t, hasColour(img, reddish))
}

func TestServeSnapshotRejectsBadSize(t *testing.T) {
	ts, _ := serving(t)
	for _, q := range []string{"width=0", "height=abc", "supersample=-2"} {
		resp := get(t, ts.URL+"/graph.png?"+q)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, q)
	}
}

func TestServeDocument(t *testing.T) {
	ts, _ := serving(t)

	resp := get(t, ts.URL+"/graph")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	var doc graph.Document
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&doc))
	assert.Len(t, doc.Nodes, 2)
	assert.Len(t, doc.Edges, 1)

	resp = get(t, ts.URL+"/graph?format=yaml")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	parsed, err := graph.ParseDocument(body, graph.FormatYAML)
	require.NoError(t, err)
	assert.Len(t, parsed.Nodes, 2)
}

func TestServeNode(t *testing.T) {
	ts, _ := serving(t)

	resp := get(t, ts.URL+"/nodes/b")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var nd graph.NodeDoc
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&nd))
	assert.Equal(t, "b", nd.ID)
	assert.Equal(t, 150.0, nd.Position.X)

	assert.Equal(t, http.StatusNotFound, get(t, ts.URL+"/nodes/zz").StatusCode)
}

func TestServeViewport(t *testing.T) {
	ts, s := serving(t)

	put := func(body string) *http.Response {
		req, err := http.NewRequest(http.MethodPut, ts.URL+"/viewport", strings.NewReader(body))
		require.NoError(t, err)
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		t.Cleanup(func() { resp.Body.Close() })
		return resp
	}

	resp := put(`{"zoom": 2, "pan": {"x": 10, "y": -5}}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var vp graph.ViewportDoc
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&vp))
	assert.Equal(t, 2.0, vp.Zoom)
	assert.Equal(t, graph.PointDoc{X: 10, Y: -5}, vp.Pan)

	zoom, err := onLoop(context.Background(), s.loop, func() (float64, error) {
		return s.graph.Zoom(), nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2.0, zoom)

	assert.Equal(t, http.StatusBadRequest, put(`{"zoom": 0}`).StatusCode)
	assert.Equal(t, http.StatusBadRequest, put(`not json`).StatusCode)
}

func TestOnLoopCancelled(t *testing.T) {
	ws := newWorkspace(t)
	c := newTestCLI()
	s, err := c.openSession(ws.doc, renderer.Headless{W: 10, H: 10})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = onLoop(ctx, s.loop, func() (int, error) { return 1, nil })
	assert.ErrorIs(t, err, context.Canceled)
}

func TestViewQuitsAndRemembersDirectory(t *testing.T) {
	ws := newWorkspace(t)
	c := newTestCLI()
	c.configPath = ws.config

	screen := tcell.NewSimulationScreen("UTF-8")
	require.NoError(t, screen.Init())
	defer screen.Fini()
	screen.SetSize(40, 10)

	for _, r := range "+-0f" {
		require.NoError(t, screen.PostEvent(tcell.NewEventKey(tcell.KeyRune, r, tcell.ModNone)))
	}
	require.NoError(t, screen.PostEvent(tcell.NewEventKey(tcell.KeyRune, 'q', tcell.ModNone)))

	done := make(chan error, 1)
	go func() { done <- c.runView(context.Background(), screen, ws.doc) }()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("view did not quit")
	}

	saved, err := config.Load(ws.config)
	require.NoError(t, err)
	dir, err := filepath.Abs(ws.dir)
	require.NoError(t, err)
	assert.Equal(t, dir, saved.LastDir)
}

func TestViewKeys(t *testing.T) {
	ws := newWorkspace(t)
	c := newTestCLI()
	s, err := c.openSession(ws.doc, renderer.Headless{W: 200, H: 100})
	require.NoError(t, err)
	s.loop.RunPending()

	viewKey(s, '+')
	assert.InDelta(t, keyZoomStep, s.graph.Zoom(), 1e-9)
	viewKey(s, '-')
	assert.InDelta(t, 1.0, s.graph.Zoom(), 1e-9)

	viewKey(s, 'f')
	assert.NotEqual(t, 1.0, s.graph.Zoom())

	viewKey(s, '0')
	assert.Equal(t, 1.0, s.graph.Zoom())
	assert.Zero(t, s.graph.Pan())
}
