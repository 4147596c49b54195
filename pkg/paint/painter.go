// Package paint draws single graph elements onto a gg context: node shapes
// with optional bitmaps, edges with tiled dash patterns and arrowheads,
// outlined labels and the selection decorations. Geometry comes from the
// edge solver's scratch; nothing here decides what to draw or when.
package paint

import (
	"image"
	"image/color"

	"github.com/fogleman/gg"

	"github.com/ha1tch/graphcanvas/pkg/geom"
	"github.com/ha1tch/graphcanvas/pkg/style"
)

// ImageSource resolves background-image URLs. ok is false while the
// bitmap is still loading or failed to load.
type ImageSource interface {
	GetOrFetch(url string) (img image.Image, ok bool)
}

// View describes the transform the context is drawing under.
type View struct {
	Zoom       float64 // graph zoom
	PixelRatio float64 // device pixels per logical pixel; zero means 1
}

// Scale is the number of surface pixels per model unit.
func (v View) Scale() float64 {
	if v.PixelRatio <= 0 {
		return v.Zoom
	}
	return v.Zoom * v.PixelRatio
}

// Painter holds the shared resources used to draw elements.
type Painter struct {
	Shapes geom.ShapeSet
	Images ImageSource
	Fonts  *FontCache
	Tiles  *TileCache
}

// NewPainter creates a painter with the default shapes and fresh caches.
// images may be nil, in which case image-backed nodes always draw the
// fallback.
func NewPainter(images ImageSource) *Painter {
	return &Painter{
		Shapes: geom.DefaultShapes(),
		Images: images,
		Fonts:  NewFontCache(),
		Tiles:  NewTileCache(),
	}
}

// Colour drawn in place of a background image until it loads.
var imageFallback = style.RGB(0x55, 0x55, 0x55)

// shapePath adds the outline of shape to the current path.
func shapePath(dc *gg.Context, sh geom.Shape, c geom.Point, w, h float64) {
	if _, ok := sh.(geom.Ellipse); ok {
		dc.DrawEllipse(c.X, c.Y, w/2, h/2)
		return
	}
	polyPath(dc, sh.Outline(c, w, h))
}

func polyPath(dc *gg.Context, pts []geom.Point) {
	if len(pts) == 0 {
		return
	}
	dc.NewSubPath()
	dc.MoveTo(pts[0].X, pts[0].Y)
	for _, p := range pts[1:] {
		dc.LineTo(p.X, p.Y)
	}
	dc.ClosePath()
}

// Clear resets the whole surface to transparent under an identity
// transform and then applies t.
func Clear(dc *gg.Context, t geom.Transform) {
	dc.Identity()
	dc.ResetClip()
	dc.ClearPath()
	dc.SetColor(color.Transparent)
	dc.Clear()
	ApplyTransform(dc, t)
}

// ApplyTransform sets the context matrix to screen = model*zoom + pan.
func ApplyTransform(dc *gg.Context, t geom.Transform) {
	dc.Identity()
	dc.Translate(t.Pan.X, t.Pan.Y)
	dc.Scale(t.Zoom, t.Zoom)
}
