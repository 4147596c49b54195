package geom

import "math"

// ArrowShape describes an arrowhead in unit space. The tip sits at the
// origin and the body extends toward -Y; drawing rotates +Y onto the
// direction pointing into the node.
type ArrowShape struct {
	Name   string
	Points []Point // nil for circle and none
	Radius float64 // circle only
}

// Arrowhead shapes by name.
var arrowShapes = map[string]ArrowShape{
	"none":     {Name: "none"},
	"triangle": {Name: "triangle", Points: []Point{{-0.15, -0.3}, {0, 0}, {0.15, -0.3}}},
	"square":   {Name: "square", Points: []Point{{-0.12, 0}, {0.12, 0}, {0.12, -0.24}, {-0.12, -0.24}}},
	"diamond":  {Name: "diamond", Points: []Point{{-0.14, -0.14}, {0, -0.28}, {0.14, -0.14}, {0, 0}}},
	"tee":      {Name: "tee", Points: []Point{{-0.15, 0}, {0.15, 0}, {0.15, -0.1}, {-0.15, -0.1}}},
	"circle":   {Name: "circle", Radius: 0.15},
}

// Arrow returns the named arrowhead; unknown names resolve to "none".
func Arrow(name string) ArrowShape {
	if a, ok := arrowShapes[name]; ok {
		return a
	}
	return arrowShapes["none"]
}

// ArrowSize is the unit-to-model scale of an arrowhead on an edge of the
// given width.
func ArrowSize(edgeWidth float64) float64 {
	return math.Max(math.Pow(edgeWidth*13.37, 0.9), 29)
}

// IsNone reports whether the shape draws nothing.
func (a ArrowShape) IsNone() bool {
	return a.Points == nil && a.Radius == 0
}

// Spacing is how far the arrow anchor sits back from the shape boundary.
func (a ArrowShape) Spacing(edgeWidth float64) float64 {
	if a.Radius > 0 {
		return ArrowSize(edgeWidth) * a.Radius
	}
	return 0
}

// Gap is how far the edge stroke stops short of the shape boundary so the
// line end is hidden under the arrowhead.
func (a ArrowShape) Gap(edgeWidth float64) float64 {
	if a.IsNone() {
		return 0
	}
	return edgeWidth * 2
}
