// Package geom provides the pure geometry used by the renderer: points,
// rectangles, the viewport transform, quadratic curves, node shapes and
// arrowhead shapes.
package geom

import "math"

// Point represents a 2D coordinate.
type Point struct {
	X, Y float64
}

// Pt is shorthand for Point{x, y}.
func Pt(x, y float64) Point {
	return Point{x, y}
}

// Add returns p+q.
func (p Point) Add(q Point) Point {
	return Point{p.X + q.X, p.Y + q.Y}
}

// Sub returns p-q.
func (p Point) Sub(q Point) Point {
	return Point{p.X - q.X, p.Y - q.Y}
}

// Scale returns p multiplied by s.
func (p Point) Scale(s float64) Point {
	return Point{p.X * s, p.Y * s}
}

// Dot returns the dot product of p and q.
func (p Point) Dot(q Point) float64 {
	return p.X*q.X + p.Y*q.Y
}

// Len returns the Euclidean length of p.
func (p Point) Len() float64 {
	return math.Sqrt(p.X*p.X + p.Y*p.Y)
}

// Dist returns the distance between p and q.
func (p Point) Dist(q Point) float64 {
	return p.Sub(q).Len()
}

// Unit returns p normalised to length 1. The zero vector stays zero.
func (p Point) Unit() Point {
	l := p.Len()
	if l == 0 {
		return Point{}
	}
	return Point{p.X / l, p.Y / l}
}

// Mid returns the midpoint between p and q.
func Mid(p, q Point) Point {
	return Point{(p.X + q.X) / 2, (p.Y + q.Y) / 2}
}

// Centroid returns the average of pts.
func Centroid(pts []Point) Point {
	if len(pts) == 0 {
		return Point{}
	}
	var c Point
	for _, p := range pts {
		c = c.Add(p)
	}
	return c.Scale(1 / float64(len(pts)))
}

// Rect represents an axis-aligned rectangle.
type Rect struct {
	X, Y float64 // Center
	W, H float64 // Full width and height
}

// RectFromCorners builds a Rect spanning two arbitrary corners.
func RectFromCorners(a, b Point) Rect {
	return Rect{
		X: (a.X + b.X) / 2,
		Y: (a.Y + b.Y) / 2,
		W: math.Abs(a.X - b.X),
		H: math.Abs(a.Y - b.Y),
	}
}

// Min returns the top-left corner.
func (r Rect) Min() Point {
	return Point{r.X - r.W/2, r.Y - r.H/2}
}

// Max returns the bottom-right corner.
func (r Rect) Max() Point {
	return Point{r.X + r.W/2, r.Y + r.H/2}
}

// Contains reports whether p lies inside r, edges included.
func (r Rect) Contains(p Point) bool {
	return math.Abs(p.X-r.X) <= r.W/2 && math.Abs(p.Y-r.Y) <= r.H/2
}

// Intersects reports whether r and o share any area or touch.
func (r Rect) Intersects(o Rect) bool {
	return math.Abs(r.X-o.X) <= (r.W+o.W)/2 && math.Abs(r.Y-o.Y) <= (r.H+o.H)/2
}

// Union returns the smallest Rect covering both r and o.
func (r Rect) Union(o Rect) Rect {
	rmin, rmax := r.Min(), r.Max()
	omin, omax := o.Min(), o.Max()
	return RectFromCorners(
		Point{math.Min(rmin.X, omin.X), math.Min(rmin.Y, omin.Y)},
		Point{math.Max(rmax.X, omax.X), math.Max(rmax.Y, omax.Y)},
	)
}

// Bounds returns the bounding rectangle of pts.
func Bounds(pts []Point) Rect {
	if len(pts) == 0 {
		return Rect{}
	}

	minX, minY := pts[0].X, pts[0].Y
	maxX, maxY := pts[0].X, pts[0].Y
	for _, p := range pts {
		if p.X < minX {
			minX = p.X
		}
		if p.Y < minY {
			minY = p.Y
		}
		if p.X > maxX {
			maxX = p.X
		}
		if p.Y > maxY {
			maxY = p.Y
		}
	}
	return RectFromCorners(Point{minX, minY}, Point{maxX, maxY})
}

// RectOverlap returns the overlap area between two rectangles.
// Returns 0 if they don't overlap.
func RectOverlap(a, b Rect) float64 {
	overlapX := (a.W/2 + b.W/2) - math.Abs(a.X-b.X)
	overlapY := (a.H/2 + b.H/2) - math.Abs(a.Y-b.Y)

	if overlapX <= 0 || overlapY <= 0 {
		return 0
	}
	return overlapX * overlapY
}

// Transform maps model coordinates to screen coordinates:
// screen = model*Zoom + Pan.
type Transform struct {
	Pan  Point
	Zoom float64
}

// ToScreen projects a model-space point onto the screen.
func (t Transform) ToScreen(m Point) Point {
	return Point{m.X*t.Zoom + t.Pan.X, m.Y*t.Zoom + t.Pan.Y}
}

// ToModel projects a screen-space point back into model space.
func (t Transform) ToModel(s Point) Point {
	if t.Zoom == 0 {
		return Point{}
	}
	return Point{(s.X - t.Pan.X) / t.Zoom, (s.Y - t.Pan.Y) / t.Zoom}
}

// Scaled multiplies both pan and zoom by ratio, as used for device pixel ratio.
func (t Transform) Scaled(ratio float64) Transform {
	return Transform{Pan: t.Pan.Scale(ratio), Zoom: t.Zoom * ratio}
}
