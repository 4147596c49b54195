package cli

import (
	"context"

	"github.com/gdamore/tcell/v2"
	"github.com/spf13/cobra"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"

	"github.com/ha1tch/graphcanvas/pkg/geom"
	"github.com/ha1tch/graphcanvas/pkg/graph"
	"github.com/ha1tch/graphcanvas/pkg/renderer"
	"github.com/ha1tch/graphcanvas/pkg/termview"
)

const (
	keyZoomStep   = 1.25
	keyFitPadding = 20
)

func (c *CLI) viewCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "view <document>",
		Short: "Explore a graph document in the terminal",
		Long: `Explore a graph document in the terminal.

Drag with the left button to pan or move nodes, shift-drag to box select,
scroll to zoom. Keys: + and - zoom, 0 resets the viewport, f fits the
content, q or Esc quits.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			screen, err := tcell.NewScreen()
			if err != nil {
				return zerr.Wrap(err, "failed to create screen")
			}
			if err := screen.Init(); err != nil {
				return zerr.Wrap(err, "failed to initialise screen")
			}
			defer screen.Fini()
			screen.EnableMouse()
			screen.Clear()

			return c.runView(cmd.Context(), screen, args[0])
		},
	}
}

// runView runs the interactive view on an initialised screen until a
// quit key or ctx is cancelled.
func (c *CLI) runView(ctx context.Context, screen tcell.Screen, path string) error {
	var s *session

	opts := c.cfg.ViewOptions()
	opts.Logger = c.Logger
	opts.OnKey = func(ev *tcell.EventKey) bool {
		if ev.Key() != tcell.KeyRune {
			return false
		}
		r := ev.Rune()
		s.loop.Post(func() { viewKey(s, r) })
		return false
	}
	view := termview.New(screen, opts)

	s, err := c.openSession(path, view)
	if err != nil {
		return err
	}
	defer c.rememberDir(path)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return ignoreCanceled(s.loop.Run(gctx))
	})
	g.Go(func() error {
		defer cancel()
		return ignoreCanceled(view.Run(gctx))
	})
	err = g.Wait()
	s.r.Destroy()
	return err
}

// viewKey applies a viewport key. It runs on the loop.
func viewKey(s *session, key rune) {
	g := s.graph
	w, h, _ := s.r.Compositor().Size()
	centre := geom.Pt(float64(w)/2, float64(h)/2)

	switch key {
	case '+', '=':
		g.ZoomAt(g.Zoom()*keyZoomStep, centre)
	case '-':
		g.ZoomAt(g.Zoom()/keyZoomStep, centre)
	case '0':
		g.SetViewport(geom.Point{}, 1)
	case 'f':
		fit(s, g, float64(w), float64(h))
	}
}

func fit(s *session, g *graph.Graph, w, h float64) {
	s.r.Compositor().Solver().Update(g.Edges())
	t := renderer.FitTransform(s.r.ContentBounds(), w, h, keyFitPadding, 0, 0)
	g.SetViewport(t.Pan, t.Zoom)
}
