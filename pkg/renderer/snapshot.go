package renderer

import (
	"context"
	"image"
	"image/color"
	"image/png"
	"io"
	"math"

	"github.com/fogleman/gg"
	"go.trai.ch/zerr"
	"golang.org/x/image/draw"

	"github.com/ha1tch/graphcanvas/pkg/compositor"
	"github.com/ha1tch/graphcanvas/pkg/geom"
	"github.com/ha1tch/graphcanvas/pkg/scene"
)

// Content smaller than this many model units is framed as if it were this
// size, so a single node is not blown up to fill the image.
const minFitContent = 100

// SnapshotOptions configures an export.
type SnapshotOptions struct {
	// Output size in pixels. Zero uses the host size.
	Width, Height int
	// Fit frames the graph's content instead of the current viewport.
	Fit     bool
	Padding float64
	// Bounds on the fitted zoom. Zero leaves that side unbounded.
	MinZoom, MaxZoom float64
	// Supersample renders at this multiple and downsamples.
	Supersample int
	// Background fills the image first. Nil leaves it transparent.
	Background color.Color
}

// DefaultSnapshotOptions fits the content on white with 4x supersampling.
func DefaultSnapshotOptions() SnapshotOptions {
	return SnapshotOptions{
		Fit:         true,
		Padding:     50,
		MinZoom:     0.3,
		MaxZoom:     1.5,
		Supersample: 4,
		Background:  color.White,
	}
}

// FitTransform returns the transform that centres content in a w by h
// image with padding on every side.
func FitTransform(content geom.Rect, w, h, padding, minZoom, maxZoom float64) geom.Transform {
	cw := math.Max(content.W, minFitContent)
	ch := math.Max(content.H, minFitContent)

	availW := w - 2*padding
	availH := h - 2*padding
	if availW <= 0 || availH <= 0 {
		availW, availH = w, h
	}

	zoom := math.Min(availW/cw, availH/ch)
	if maxZoom > 0 && zoom > maxZoom {
		zoom = maxZoom
	}
	if minZoom > 0 && zoom < minZoom {
		zoom = minZoom
	}
	return geom.Transform{
		Pan:  geom.Pt(w/2-content.X*zoom, h/2-content.Y*zoom),
		Zoom: zoom,
	}
}

// ContentBounds covers every shown node's outer box and every solved
// edge's curve and arrows.
func (r *Renderer) ContentBounds() geom.Rect {
	var b geom.Rect
	first := true
	add := func(x geom.Rect) {
		if first {
			b, first = x, false
			return
		}
		b = b.Union(x)
	}
	for _, n := range r.graph.Nodes() {
		if !n.Style().Shown() {
			continue
		}
		p := n.Position()
		add(geom.Rect{X: p.X, Y: p.Y, W: n.OuterWidth(), H: n.OuterHeight()})
	}
	for _, e := range r.graph.Edges() {
		if bb, ok := r.comp.Solver().Bounds(e); ok {
			add(bb)
		}
	}
	return b
}

// Snapshot paints every element onto a fresh image one tick from now and
// passes it to done on the loop. The live layers and their dirty flags are
// left alone.
func (r *Renderer) Snapshot(opts SnapshotOptions, done func(*image.RGBA)) {
	w, h := opts.Width, opts.Height
	if w <= 0 || h <= 0 {
		w, h, _ = r.host.Size()
	}
	ss := max(opts.Supersample, 1)

	dc := gg.NewContext(w*ss, h*ss)
	if opts.Background != nil {
		dc.SetColor(opts.Background)
		dc.Clear()
	}

	t := scene.Viewport(r.graph)
	if opts.Fit {
		r.comp.Solver().Update(r.graph.Edges())
		t = FitTransform(r.ContentBounds(), float64(w), float64(h), opts.Padding, opts.MinZoom, opts.MaxZoom)
	}
	t = t.Scaled(float64(ss))
	pan := t.Pan

	r.comp.RedrawWith(compositor.RedrawOptions{
		Surface: dc,
		DrawAll: true,
		Zoom:    t.Zoom,
		Pan:     &pan,
		Done: func() {
			src := dc.Image()
			dst := image.NewRGBA(image.Rect(0, 0, w, h))
			if ss == 1 {
				draw.Draw(dst, dst.Bounds(), src, src.Bounds().Min, draw.Src)
			} else {
				draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
			}
			done(dst)
		},
	})
}

// Export takes a snapshot and waits for it. It must not be called from the
// loop goroutine; something else has to be running the loop.
func (r *Renderer) Export(ctx context.Context, opts SnapshotOptions) (*image.RGBA, error) {
	result := make(chan *image.RGBA, 1)
	r.loop.Post(func() {
		r.Snapshot(opts, func(img *image.RGBA) { result <- img })
	})
	select {
	case img := <-result:
		return img, nil
	case <-ctx.Done():
		return nil, zerr.Wrap(ctx.Err(), "snapshot cancelled")
	}
}

// EncodePNG writes img as a PNG.
func EncodePNG(w io.Writer, img image.Image) error {
	if err := png.Encode(w, img); err != nil {
		return zerr.Wrap(err, "failed to encode png")
	}
	return nil
}
