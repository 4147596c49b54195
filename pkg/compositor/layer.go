package compositor

import "github.com/fogleman/gg"

// Layer identifies one of the stacked drawing surfaces.
type Layer int

const (
	// SelectBox holds the rubber-band box and the active-background marker.
	SelectBox Layer = iota
	// Drag holds elements moving in the current gesture.
	Drag
	// Overlay holds the watermark.
	Overlay
	// Node holds every element not in the drag layer.
	Node

	numLayers
)

// paintOrder lists the layers bottom to top.
var paintOrder = [...]Layer{Node, Overlay, Drag, SelectBox}

func (l Layer) String() string {
	switch l {
	case SelectBox:
		return "select-box"
	case Drag:
		return "drag"
	case Overlay:
		return "overlay"
	case Node:
		return "node"
	}
	return "unknown"
}

// Layers returns every layer in paint order.
func Layers() []Layer {
	return paintOrder[:]
}

type layer struct {
	dc      *gg.Context
	dirty   bool
	reasons []string
	paints  int
}

// take reports whether the layer was dirty and clears the flag and reasons.
func (l *layer) take() bool {
	d := l.dirty
	l.dirty = false
	l.reasons = l.reasons[:0]
	return d
}
