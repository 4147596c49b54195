// Node shapes: boundary intersection, containment and outlines.

package geom

import (
	"math"
	"sort"
)

// Shape is a node shape scaled to a w×h box around a centre point.
type Shape interface {
	Name() string

	// IntersectLine returns where the line from toward to the centre crosses
	// the shape boundary grown by padding. ok is false when there is no
	// crossing, e.g. toward lies inside a polygon.
	IntersectLine(center Point, w, h float64, toward Point, padding float64) (p Point, ok bool)

	// Contains reports whether p lies inside the shape grown by padding.
	Contains(center Point, w, h float64, p Point, padding float64) bool

	// Outline returns the closed boundary as a polygon.
	Outline(center Point, w, h float64) []Point
}

// ShapeSet resolves shape names to shapes.
type ShapeSet interface {
	Shape(name string) Shape
}

// Shapes is the default ShapeSet. Unknown names resolve to the ellipse.
type Shapes map[string]Shape

// DefaultShapes returns the built-in node shapes.
func DefaultShapes() Shapes {
	s := Shapes{}
	for _, sh := range []Shape{
		Ellipse{},
		RoundRectangle{},
		NewPolygon("rectangle", []Point{{-1, -1}, {1, -1}, {1, 1}, {-1, 1}}),
		NewPolygon("triangle", regularPolygon(3, 0)),
		NewPolygon("diamond", []Point{{0, -1}, {1, 0}, {0, 1}, {-1, 0}}),
		NewPolygon("pentagon", regularPolygon(5, 0)),
		NewPolygon("hexagon", regularPolygon(6, 0)),
		NewPolygon("heptagon", regularPolygon(7, 0)),
		NewPolygon("octagon", regularPolygon(8, math.Pi/8)),
		NewPolygon("star", starPolygon(5, 0.4)),
	} {
		s[sh.Name()] = sh
	}
	return s
}

// Shape implements ShapeSet.
func (s Shapes) Shape(name string) Shape {
	if sh, ok := s[name]; ok {
		return sh
	}
	return Ellipse{}
}

// Names returns the registered shape names in sorted order.
func (s Shapes) Names() []string {
	names := make([]string, 0, len(s))
	for n := range s {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Ellipse is the default node shape.
type Ellipse struct{}

// Name implements Shape.
func (Ellipse) Name() string { return "ellipse" }

// IntersectLine implements Shape.
func (Ellipse) IntersectLine(center Point, w, h float64, toward Point, padding float64) (Point, bool) {
	dir := toward.Sub(center).Unit()
	if dir == (Point{}) {
		return Point{}, false
	}
	x, y := ellipseEdgePoint(center.X, center.Y, w/2+padding, h/2+padding, dir.X, dir.Y)
	return Point{x, y}, true
}

// Contains implements Shape.
func (Ellipse) Contains(center Point, w, h float64, p Point, padding float64) bool {
	rx, ry := w/2+padding, h/2+padding
	if rx <= 0 || ry <= 0 {
		return false
	}
	dx, dy := (p.X-center.X)/rx, (p.Y-center.Y)/ry
	return dx*dx+dy*dy <= 1
}

// Outline implements Shape.
func (Ellipse) Outline(center Point, w, h float64) []Point {
	const steps = 48
	pts := make([]Point, steps)
	for i := range pts {
		a := 2 * math.Pi * float64(i) / steps
		pts[i] = Point{center.X + w/2*math.Cos(a), center.Y + h/2*math.Sin(a)}
	}
	return pts
}

// ellipseEdgePoint calculates the point on an ellipse edge in a given direction.
// cx, cy: centre; rx, ry: semi-axes; nx, ny: normalised direction
func ellipseEdgePoint(cx, cy, rx, ry, nx, ny float64) (float64, float64) {
	// For ellipse (x/rx)² + (y/ry)² = 1, point in direction (nx, ny) is at:
	// t = 1 / sqrt((nx/rx)² + (ny/ry)²)
	t := 1.0 / math.Sqrt((nx*nx)/(rx*rx)+(ny*ny)/(ry*ry))
	return cx + nx*t, cy + ny*t
}

// Polygon is a shape defined by vertices in unit space [-1,1]².
type Polygon struct {
	name   string
	points []Point
}

// NewPolygon builds a polygon shape from unit-space vertices.
func NewPolygon(name string, unit []Point) Polygon {
	return Polygon{name: name, points: unit}
}

// Name implements Shape.
func (p Polygon) Name() string { return p.name }

func (p Polygon) scaled(center Point, w, h, padding float64) []Point {
	hw, hh := w/2+padding, h/2+padding
	pts := make([]Point, len(p.points))
	for i, u := range p.points {
		pts[i] = Point{center.X + u.X*hw, center.Y + u.Y*hh}
	}
	return pts
}

// IntersectLine implements Shape.
func (p Polygon) IntersectLine(center Point, w, h float64, toward Point, padding float64) (Point, bool) {
	return polygonIntersectLine(p.scaled(center, w, h, padding), center, toward)
}

// Contains implements Shape.
func (p Polygon) Contains(center Point, w, h float64, pt Point, padding float64) bool {
	return pointInPolygon(p.scaled(center, w, h, padding), pt)
}

// Outline implements Shape.
func (p Polygon) Outline(center Point, w, h float64) []Point {
	return p.scaled(center, w, h, 0)
}

// RoundRectangle is a rectangle with corners rounded by a quarter of the
// smaller side, capped at 8 units.
type RoundRectangle struct{}

// Name implements Shape.
func (RoundRectangle) Name() string { return "roundrectangle" }

// IntersectLine implements Shape.
func (r RoundRectangle) IntersectLine(center Point, w, h float64, toward Point, padding float64) (Point, bool) {
	return polygonIntersectLine(r.Outline(center, w+2*padding, h+2*padding), center, toward)
}

// Contains implements Shape.
func (r RoundRectangle) Contains(center Point, w, h float64, p Point, padding float64) bool {
	return pointInPolygon(r.Outline(center, w+2*padding, h+2*padding), p)
}

// Outline implements Shape.
func (RoundRectangle) Outline(center Point, w, h float64) []Point {
	radius := math.Min(math.Min(w, h)/4, 8)
	hw, hh := w/2, h/2

	// Corner centres, clockwise from top-right
	corners := []struct {
		c     Point
		start float64
	}{
		{Point{center.X + hw - radius, center.Y - hh + radius}, -math.Pi / 2},
		{Point{center.X + hw - radius, center.Y + hh - radius}, 0},
		{Point{center.X - hw + radius, center.Y + hh - radius}, math.Pi / 2},
		{Point{center.X - hw + radius, center.Y - hh + radius}, math.Pi},
	}

	const arcSteps = 6
	pts := make([]Point, 0, 4*(arcSteps+1))
	for _, k := range corners {
		for i := 0; i <= arcSteps; i++ {
			a := k.start + (math.Pi/2)*float64(i)/arcSteps
			pts = append(pts, Point{k.c.X + radius*math.Cos(a), k.c.Y + radius*math.Sin(a)})
		}
	}
	return pts
}

// polygonIntersectLine intersects the segment toward→center with every
// polygon side and returns the crossing closest to toward.
func polygonIntersectLine(poly []Point, center, toward Point) (Point, bool) {
	best := Point{}
	bestDist := math.MaxFloat64
	found := false

	for i := range poly {
		a, b := poly[i], poly[(i+1)%len(poly)]
		if p, ok := segmentIntersection(toward, center, a, b); ok {
			if d := p.Dist(toward); d < bestDist {
				best, bestDist, found = p, d, true
			}
		}
	}
	return best, found
}

// segmentIntersection returns the crossing point of segments p1-p2 and p3-p4.
func segmentIntersection(p1, p2, p3, p4 Point) (Point, bool) {
	d := (p2.X-p1.X)*(p4.Y-p3.Y) - (p2.Y-p1.Y)*(p4.X-p3.X)
	if d == 0 {
		return Point{}, false
	}
	ua := ((p4.X-p3.X)*(p1.Y-p3.Y) - (p4.Y-p3.Y)*(p1.X-p3.X)) / d
	ub := ((p2.X-p1.X)*(p1.Y-p3.Y) - (p2.Y-p1.Y)*(p1.X-p3.X)) / d
	if ua < 0 || ua > 1 || ub < 0 || ub > 1 {
		return Point{}, false
	}
	return Point{p1.X + ua*(p2.X-p1.X), p1.Y + ua*(p2.Y-p1.Y)}, true
}

// pointInPolygon is the even-odd ray casting test.
func pointInPolygon(poly []Point, p Point) bool {
	inside := false
	for i, j := 0, len(poly)-1; i < len(poly); j, i = i, i+1 {
		a, b := poly[i], poly[j]
		if (a.Y > p.Y) != (b.Y > p.Y) &&
			p.X < (b.X-a.X)*(p.Y-a.Y)/(b.Y-a.Y)+a.X {
			inside = !inside
		}
	}
	return inside
}

func regularPolygon(sides int, rotation float64) []Point {
	pts := make([]Point, sides)
	for i := range pts {
		a := -math.Pi/2 + rotation + 2*math.Pi*float64(i)/float64(sides)
		pts[i] = Point{math.Cos(a), math.Sin(a)}
	}
	return pts
}

func starPolygon(spikes int, inner float64) []Point {
	pts := make([]Point, 0, spikes*2)
	for i := 0; i < spikes*2; i++ {
		r := 1.0
		if i%2 == 1 {
			r = inner
		}
		a := -math.Pi/2 + math.Pi*float64(i)/float64(spikes)
		pts = append(pts, Point{r * math.Cos(a), r * math.Sin(a)})
	}
	return pts
}

// ShortenIntersection moves intersection toward offset by amount along the
// line between them. It never crosses offset; an over-long amount leaves a
// point just off offset.
func ShortenIntersection(intersection, offset Point, amount float64) Point {
	disp := intersection.Sub(offset)
	length := disp.Len()
	if length == 0 {
		return intersection
	}
	ratio := (length - amount) / length
	if ratio < 0 {
		ratio = 0.00001
	}
	return offset.Add(disp.Scale(ratio))
}
