// Package cli implements the graphcanvas command-line interface.
//
// Every command loads a graph document (JSON or YAML), builds a renderer
// around it and drives the renderer's loop on its own goroutine. Settings
// come from a TOML file (see package config) and --verbose switches the
// logger to debug level.
package cli

import (
	"context"
	"errors"
	"io"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"go.trai.ch/zerr"

	"github.com/ha1tch/graphcanvas/pkg/compositor"
	"github.com/ha1tch/graphcanvas/pkg/config"
	"github.com/ha1tch/graphcanvas/pkg/graph"
	"github.com/ha1tch/graphcanvas/pkg/loop"
	"github.com/ha1tch/graphcanvas/pkg/renderer"
)

const appName = "graphcanvas"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
	cfg        *config.Config
}

// New creates a CLI writing logs to w.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: log.NewWithOptions(w, log.Options{
			ReportTimestamp: true,
			TimeFormat:      "15:04:05.00",
			Level:           level,
		}),
		cfg: config.Default(),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Draw and explore node-link graphs",
		Long:         `graphcanvas renders graph documents to PNG, explores them interactively in the terminal and serves snapshots over HTTP.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.loadConfig()
		},
	}
	root.PersistentFlags().StringVar(&c.configPath, "config", config.DefaultPath(), "settings file")

	root.AddCommand(c.renderCommand())
	root.AddCommand(c.viewCommand())
	root.AddCommand(c.serveCommand())
	return root
}

func (c *CLI) loadConfig() error {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	c.cfg = cfg
	c.Logger.Debug("config loaded", "path", c.configPath)
	return nil
}

// rememberDir records the document's directory as the last one used.
func (c *CLI) rememberDir(path string) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return
	}
	c.cfg.LastDir = filepath.Dir(abs)
	if err := config.Save(c.configPath, c.cfg); err != nil {
		c.Logger.Warn("could not save config", "err", err)
	}
}

// session is one loaded graph with its renderer and loop.
type session struct {
	graph *graph.Graph
	loop  *loop.Loop
	r     *renderer.Renderer
}

// openSession loads path and attaches a renderer to host. Image paths in
// the document resolve relative to the document.
func (c *CLI) openSession(path string, host renderer.Host) (*session, error) {
	doc, err := graph.ReadFile(path)
	if err != nil {
		return nil, err
	}
	g, err := graph.FromDocument(doc)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to load document"), "path", path)
	}

	lp := loop.New(nil)
	r, err := renderer.New(renderer.Options{
		Graph:               g,
		Host:                host,
		Loop:                lp,
		Fetcher:             compositor.URLFetcher{Dir: filepath.Dir(path)},
		Logger:              c.Logger,
		ShowOverlay:         c.cfg.Renderer.ShowOverlay,
		HideEdgesOnViewport: c.cfg.Renderer.HideEdgesOnViewport,
		Compositor:          c.cfg.CompositorConfig(),
		Gesture:             c.cfg.GestureConfig(),
	})
	if err != nil {
		return nil, err
	}
	c.Logger.Debug("document loaded", "path", path, "nodes", len(g.Nodes()), "edges", len(g.Edges()))
	return &session{graph: g, loop: lp, r: r}, nil
}

// onLoop runs fn on the loop goroutine and waits for its result.
func onLoop[T any](ctx context.Context, lp *loop.Loop, fn func() (T, error)) (T, error) {
	type result struct {
		v   T
		err error
	}
	ch := make(chan result, 1)
	lp.Post(func() {
		v, err := fn()
		ch <- result{v, err}
	})
	select {
	case res := <-ch:
		return res.v, res.err
	case <-ctx.Done():
		var zero T
		return zero, zerr.Wrap(ctx.Err(), "loop task cancelled")
	}
}

// ignoreCanceled treats a cancelled context as a clean stop.
func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
