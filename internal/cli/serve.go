package cli

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"

	"github.com/ha1tch/graphcanvas/pkg/geom"
	"github.com/ha1tch/graphcanvas/pkg/graph"
	"github.com/ha1tch/graphcanvas/pkg/renderer"
)

const shutdownTimeout = 5 * time.Second

func (c *CLI) serveCommand() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve <document>",
		Short: "Serve PNG snapshots and the document over HTTP",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("addr") {
				addr = c.cfg.Serve.Addr
			}
			return c.runServe(cmd.Context(), args[0], addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")
	return cmd
}

func (c *CLI) runServe(ctx context.Context, path, addr string) error {
	snap := c.cfg.SnapshotOptions()
	s, err := c.openSession(path, renderer.Headless{W: snap.Width, H: snap.Height})
	if err != nil {
		return err
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           newServer(s, snap, c.Logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return ignoreCanceled(s.loop.Run(gctx))
	})
	g.Go(func() error {
		c.Logger.Info("listening", "addr", addr, "document", path)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return zerr.With(zerr.Wrap(err, "server failed"), "addr", addr)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// server exposes one session over HTTP. Every graph access is posted to
// the session's loop.
type server struct {
	s      *session
	snap   renderer.SnapshotOptions
	logger *log.Logger
}

func newServer(s *session, snap renderer.SnapshotOptions, logger *log.Logger) http.Handler {
	srv := &server{s: s, snap: snap, logger: logger}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(logger))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	r.Get("/graph.png", srv.handleSnapshot)
	r.Get("/graph", srv.handleDocument)
	r.Get("/nodes/{id}", srv.handleNode)
	r.Put("/viewport", srv.handleViewport)
	return r
}

func requestLogger(logger *log.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Debug("request", "method", r.Method, "path", r.URL.Path,
				"status", ww.Status(), "elapsed", time.Since(start))
		})
	}
}

func httpError(w http.ResponseWriter, status int, err error) {
	http.Error(w, err.Error(), status)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// queryInt reads a positive integer query parameter, or def when absent.
func queryInt(r *http.Request, key string, def int) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return 0, zerr.With(zerr.New("invalid query parameter"), key, raw)
	}
	return v, nil
}

// handleSnapshot renders a PNG. Query parameters width, height and
// supersample override the defaults; fit=false keeps the live viewport.
func (srv *server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	opts := srv.snap
	var err error
	if opts.Width, err = queryInt(r, "width", opts.Width); err != nil {
		httpError(w, http.StatusBadRequest, err)
		return
	}
	if opts.Height, err = queryInt(r, "height", opts.Height); err != nil {
		httpError(w, http.StatusBadRequest, err)
		return
	}
	if opts.Supersample, err = queryInt(r, "supersample", opts.Supersample); err != nil {
		httpError(w, http.StatusBadRequest, err)
		return
	}
	if r.URL.Query().Get("fit") == "false" {
		opts.Fit = false
	}

	img, err := srv.s.r.Export(r.Context(), opts)
	if err != nil {
		httpError(w, http.StatusServiceUnavailable, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	if err := renderer.EncodePNG(w, img); err != nil {
		srv.logger.Warn("snapshot write failed", "err", err)
	}
}

// handleDocument returns the graph as a document; format=yaml switches
// the encoding.
func (srv *server) handleDocument(w http.ResponseWriter, r *http.Request) {
	format := graph.FormatJSON
	contentType := "application/json"
	if r.URL.Query().Get("format") == "yaml" {
		format, contentType = graph.FormatYAML, "application/yaml"
	}
	data, err := onLoop(r.Context(), srv.s.loop, func() ([]byte, error) {
		return srv.s.graph.ToDocument().Marshal(format)
	})
	if err != nil {
		httpError(w, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", contentType)
	_, _ = w.Write(data)
}

func (srv *server) handleNode(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	nd, err := onLoop(r.Context(), srv.s.loop, func() (*graph.NodeDoc, error) {
		for _, nd := range srv.s.graph.ToDocument().Nodes {
			if nd.ID == id {
				return &nd, nil
			}
		}
		return nil, zerr.With(graph.ErrUnknownID, "id", id)
	})
	if err != nil {
		httpError(w, http.StatusNotFound, err)
		return
	}
	writeJSON(w, nd)
}

// handleViewport replaces the viewport with the JSON body and returns the
// result after zoom clamping.
func (srv *server) handleViewport(w http.ResponseWriter, r *http.Request) {
	var req graph.ViewportDoc
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpError(w, http.StatusBadRequest, zerr.Wrap(err, "invalid viewport"))
		return
	}
	if req.Zoom <= 0 {
		httpError(w, http.StatusBadRequest, zerr.New("zoom must be positive"))
		return
	}
	vp, err := onLoop(r.Context(), srv.s.loop, func() (graph.ViewportDoc, error) {
		g := srv.s.graph
		g.SetViewport(geom.Pt(req.Pan.X, req.Pan.Y), req.Zoom)
		pan := g.Pan()
		return graph.ViewportDoc{Zoom: g.Zoom(), Pan: graph.PointDoc{X: pan.X, Y: pan.Y}}, nil
	})
	if err != nil {
		httpError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, vp)
}
