// Quadratic Bézier evaluation and arc-length sampling for edge drawing.

package geom

import "math"

// Quad is a quadratic Bézier segment.
type Quad struct {
	P0, C, P1 Point
}

// Line returns a degenerate Quad whose control point sits at the midpoint,
// so straight edges can be sampled with the same code as curves.
func Line(a, b Point) Quad {
	return Quad{P0: a, C: Mid(a, b), P1: b}
}

// At computes the point on the curve at parameter t ∈ [0,1].
func (q Quad) At(t float64) Point {
	mt := 1 - t
	return Point{
		X: mt*mt*q.P0.X + 2*mt*t*q.C.X + t*t*q.P1.X,
		Y: mt*mt*q.P0.Y + 2*mt*t*q.C.Y + t*t*q.P1.Y,
	}
}

// Tangent computes the derivative vector at parameter t.
func (q Quad) Tangent(t float64) Point {
	return Point{
		X: 2*(1-t)*(q.C.X-q.P0.X) + 2*t*(q.P1.X-q.C.X),
		Y: 2*(1-t)*(q.C.Y-q.P0.Y) + 2*t*(q.P1.Y-q.C.Y),
	}
}

// quadSamples is the resolution of the arc-length table.
const quadSamples = 64

// Length approximates the length of the curve by sampling.
func (q Quad) Length() float64 {
	length := 0.0
	prev := q.P0
	for i := 1; i <= quadSamples; i++ {
		curr := q.At(float64(i) / quadSamples)
		length += curr.Dist(prev)
		prev = curr
	}
	return length
}

// Bounds returns a rectangle enclosing the curve. The control point hull
// always encloses a Bézier curve.
func (q Quad) Bounds() Rect {
	return Bounds([]Point{q.P0, q.C, q.P1})
}

// DistanceTo returns the approximate shortest distance from p to the curve.
func (q Quad) DistanceTo(p Point) float64 {
	best := math.MaxFloat64
	prev := q.P0
	for i := 1; i <= quadSamples; i++ {
		curr := q.At(float64(i) / quadSamples)
		if d := segmentDistance(prev, curr, p); d < best {
			best = d
		}
		prev = curr
	}
	return best
}

// Stamp is one sample placed along a curve.
type Stamp struct {
	Pos     Point
	Tangent Point // unit vector
}

// Stamps places samples at evenly spaced arc-length intervals along the
// curve, starting at the first point. A non-positive spacing returns nil.
func (q Quad) Stamps(spacing float64) []Stamp {
	if spacing <= 0 {
		return nil
	}

	// Cumulative arc length at each table entry
	var table [quadSamples + 1]float64
	prev := q.P0
	for i := 1; i <= quadSamples; i++ {
		curr := q.At(float64(i) / quadSamples)
		table[i] = table[i-1] + curr.Dist(prev)
		prev = curr
	}
	total := table[quadSamples]

	var stamps []Stamp
	seg := 0
	for s := 0.0; s <= total+1e-9; s += spacing {
		for seg < quadSamples-1 && table[seg+1] < s {
			seg++
		}
		span := table[seg+1] - table[seg]
		local := 0.0
		if span > 0 {
			local = (s - table[seg]) / span
		}
		t := (float64(seg) + local) / quadSamples

		tan := q.Tangent(t).Unit()
		if tan == (Point{}) {
			tan = q.P1.Sub(q.P0).Unit()
		}
		stamps = append(stamps, Stamp{Pos: q.At(t), Tangent: tan})
	}
	return stamps
}

// segmentDistance returns the distance from p to the segment a-b.
func segmentDistance(a, b, p Point) float64 {
	ab := b.Sub(a)
	l2 := ab.Dot(ab)
	if l2 == 0 {
		return p.Dist(a)
	}
	t := p.Sub(a).Dot(ab) / l2
	t = math.Max(0, math.Min(1, t))
	return p.Dist(a.Add(ab.Scale(t)))
}
