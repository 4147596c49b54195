package paint

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/cespare/xxhash/v2"
	"github.com/fogleman/gg"
)

// Stamp spacing along the path, in model units.
const (
	dotSpacing  = 16
	dashSpacing = 14
)

// TileCache keeps the small bitmaps stamped along dotted and dashed edges,
// keyed by a hash of everything that affects their pixels.
type TileCache struct {
	tiles map[uint64]*image.RGBA
}

// NewTileCache returns an empty cache.
func NewTileCache() *TileCache {
	return &TileCache{tiles: make(map[uint64]*image.RGBA)}
}

// Len returns the number of cached tiles.
func (c *TileCache) Len() int { return len(c.tiles) }

func tileKey(kind string, w, h, stroke float64, c color.NRGBA) uint64 {
	return xxhash.Sum64String(fmt.Sprintf("%s|%.2f|%.2f|%.2f|%02x%02x%02x%02x",
		kind, w, h, stroke, c.R, c.G, c.B, c.A))
}

func tileSize(v float64) int {
	return max(int(math.Ceil(v)), 1)
}

// Dot returns a round dot tile for an edge of the given width, sized in
// surface pixels at scale.
func (c *TileCache) Dot(edgeWidth, scale float64, col color.NRGBA) *image.RGBA {
	radius := math.Max(edgeWidth*1.6, 3.4) * scale
	key := tileKey("dot", radius, radius, 0, col)
	if t, ok := c.tiles[key]; ok {
		return t
	}

	size := tileSize(radius * 2)
	dc := gg.NewContext(size, size)
	dc.DrawCircle(float64(size)/2, float64(size)/2, radius*0.5)
	dc.SetColor(col)
	dc.Fill()

	t := dc.Image().(*image.RGBA)
	c.tiles[key] = t
	return t
}

// Dash returns a vertical dash tile for an edge of the given width, sized
// in surface pixels at scale.
func (c *TileCache) Dash(edgeWidth, scale float64, col color.NRGBA) *image.RGBA {
	w, h := edgeWidth*2*scale, 7.8*scale
	key := tileKey("dash", w, h, edgeWidth*scale, col)
	if t, ok := c.tiles[key]; ok {
		return t
	}

	tw, th := tileSize(w), tileSize(h)
	dc := gg.NewContext(tw, th)
	dc.SetLineCapButt()
	dc.SetLineWidth(edgeWidth * scale)
	dc.DrawLine(float64(tw)/2, float64(th)*0.2, float64(tw)/2, float64(th)*0.8)
	dc.SetColor(col)
	dc.Stroke()

	t := dc.Image().(*image.RGBA)
	c.tiles[key] = t
	return t
}
