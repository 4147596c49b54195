package graph

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"

	"github.com/ha1tch/graphcanvas/pkg/geom"
	"github.com/ha1tch/graphcanvas/pkg/scene"
	"github.com/ha1tch/graphcanvas/pkg/style"
)

// Document is the on-disk representation of a graph (JSON or YAML).
type Document struct {
	Viewport *ViewportDoc `json:"viewport,omitempty" yaml:"viewport,omitempty"`
	Options  OptionsDoc   `json:"options" yaml:"options"`
	Defaults DefaultsDoc  `json:"defaults" yaml:"defaults"`
	Nodes    []NodeDoc    `json:"nodes" yaml:"nodes"`
	Edges    []EdgeDoc    `json:"edges" yaml:"edges"`
}

// ViewportDoc is the initial pan and zoom.
type ViewportDoc struct {
	Zoom float64  `json:"zoom" yaml:"zoom"`
	Pan  PointDoc `json:"pan" yaml:"pan"`
}

// PointDoc is a 2D coordinate.
type PointDoc struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// OptionsDoc holds feature switches; nil means the default.
type OptionsDoc struct {
	Panning       *bool   `json:"panning,omitempty" yaml:"panning,omitempty"`
	Zooming       *bool   `json:"zooming,omitempty" yaml:"zooming,omitempty"`
	BoxSelection  *bool   `json:"box_selection,omitempty" yaml:"box_selection,omitempty"`
	SelectionType string  `json:"selection_type,omitempty" yaml:"selection_type,omitempty"` // "exclusive" or "additive"
	MinZoom       float64 `json:"min_zoom,omitempty" yaml:"min_zoom,omitempty"`
	MaxZoom       float64 `json:"max_zoom,omitempty" yaml:"max_zoom,omitempty"`
}

// DefaultsDoc overrides default styles for every node or edge.
type DefaultsDoc struct {
	Node map[string]string `json:"node,omitempty" yaml:"node,omitempty"`
	Edge map[string]string `json:"edge,omitempty" yaml:"edge,omitempty"`
	Core map[string]string `json:"core,omitempty" yaml:"core,omitempty"`
}

// NodeDoc is one node.
type NodeDoc struct {
	ID         string            `json:"id" yaml:"id"`
	Parent     string            `json:"parent,omitempty" yaml:"parent,omitempty"`
	Label      string            `json:"label,omitempty" yaml:"label,omitempty"`
	Position   PointDoc          `json:"position" yaml:"position"`
	Style      map[string]string `json:"style,omitempty" yaml:"style,omitempty"`
	Locked     bool              `json:"locked,omitempty" yaml:"locked,omitempty"`
	Grabbable  *bool             `json:"grabbable,omitempty" yaml:"grabbable,omitempty"`
	Selectable *bool             `json:"selectable,omitempty" yaml:"selectable,omitempty"`
	Selected   bool              `json:"selected,omitempty" yaml:"selected,omitempty"`
}

// EdgeDoc is one edge.
type EdgeDoc struct {
	ID         string            `json:"id,omitempty" yaml:"id,omitempty"`
	Source     string            `json:"source" yaml:"source"`
	Target     string            `json:"target" yaml:"target"`
	Label      string            `json:"label,omitempty" yaml:"label,omitempty"`
	Style      map[string]string `json:"style,omitempty" yaml:"style,omitempty"`
	Selectable *bool             `json:"selectable,omitempty" yaml:"selectable,omitempty"`
	Selected   bool              `json:"selected,omitempty" yaml:"selected,omitempty"`
}

// Format is a document encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ErrUnknownFormat is returned for unsupported document encodings.
var ErrUnknownFormat = zerr.New("unknown document format")

// DetectFormat guesses the encoding from a file extension.
func DetectFormat(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	}
	return FormatJSON
}

// ParseDocument decodes a document.
func ParseDocument(data []byte, format Format) (*Document, error) {
	var doc Document
	switch format {
	case FormatJSON:
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, zerr.Wrap(err, "failed to parse JSON document")
		}
	case FormatYAML:
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, zerr.Wrap(err, "failed to parse YAML document")
		}
	default:
		return nil, zerr.With(ErrUnknownFormat, "format", string(format))
	}
	return &doc, nil
}

// ReadFile loads a document from disk, picking the format by extension.
func ReadFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to read document"), "path", path)
	}
	doc, err := ParseDocument(data, DetectFormat(path))
	if err != nil {
		return nil, zerr.With(err, "path", path)
	}
	return doc, nil
}

// Marshal encodes the document.
func (d *Document) Marshal(format Format) ([]byte, error) {
	switch format {
	case FormatYAML:
		return yaml.Marshal(d)
	case FormatJSON:
		return json.MarshalIndent(d, "", "  ")
	}
	return nil, zerr.With(ErrUnknownFormat, "format", string(format))
}

// GraphOptions merges the document options into the defaults.
func (d *Document) GraphOptions() (Options, error) {
	opts := DefaultOptions()
	o := d.Options
	opts.PanningEnabled = boolOr(o.Panning, opts.PanningEnabled)
	opts.ZoomingEnabled = boolOr(o.Zooming, opts.ZoomingEnabled)
	opts.BoxSelectionEnabled = boolOr(o.BoxSelection, opts.BoxSelectionEnabled)
	if o.MinZoom > 0 {
		opts.MinZoom = o.MinZoom
	}
	if o.MaxZoom > 0 {
		opts.MaxZoom = o.MaxZoom
	}

	switch o.SelectionType {
	case "", "exclusive", "single":
		opts.SelectionType = scene.SelectExclusive
	case "additive":
		opts.SelectionType = scene.SelectAdditive
	default:
		return opts, zerr.With(zerr.New("invalid selection type"), "value", o.SelectionType)
	}

	core, err := parseCore(opts.Core, d.Defaults.Core)
	if err != nil {
		return opts, err
	}
	opts.Core = core
	return opts, nil
}

func parseCore(core style.Core, props map[string]string) (style.Core, error) {
	for name, raw := range props {
		var err error
		switch name {
		case "selection-box-color":
			core.SelectionBoxColor, err = style.ParseColor(raw)
		case "selection-box-border-color":
			core.SelectionBoxBorderColor, err = style.ParseColor(raw)
		case "active-bg-color":
			core.ActiveBgColor, err = style.ParseColor(raw)
		case "selection-box-opacity":
			core.SelectionBoxOpacity, err = parseNumber(raw)
		case "selection-box-border-width":
			core.SelectionBoxBorderWidth, err = parseNumber(raw)
		case "active-bg-opacity":
			core.ActiveBgOpacity, err = parseNumber(raw)
		case "active-bg-size":
			core.ActiveBgSize, err = parseNumber(raw)
		default:
			err = style.ErrUnknownProperty
		}
		if err != nil {
			return core, zerr.With(err, "property", name)
		}
	}
	return core, nil
}

func parseNumber(raw string) (float64, error) {
	l, err := style.ParseLength(raw)
	return l.Px, err
}

// FromDocument builds a graph from a document.
func FromDocument(d *Document) (*Graph, error) {
	opts, err := d.GraphOptions()
	if err != nil {
		return nil, err
	}
	g := New(opts)
	if err := g.Load(d); err != nil {
		return nil, err
	}
	return g, nil
}

// Load replaces the graph contents with the document's and notifies
// subscribers once.
func (g *Graph) Load(d *Document) error {
	g.nodes, g.edges = nil, nil
	g.byID = make(map[string]scene.Element)

	nodeDefaults := style.DefaultNode()
	if err := nodeDefaults.ApplyAll(d.Defaults.Node); err != nil {
		return zerr.Wrap(err, "invalid node defaults")
	}
	edgeDefaults := style.DefaultEdge()
	if err := edgeDefaults.ApplyAll(d.Defaults.Edge); err != nil {
		return zerr.Wrap(err, "invalid edge defaults")
	}

	// Nodes first, then parents, so children may precede their parents
	for _, nd := range d.Nodes {
		if _, err := g.addNode(nd.data(), withLabel(nodeDefaults, nd.Label)); err != nil {
			return err
		}
	}
	for _, nd := range d.Nodes {
		if nd.Parent == "" {
			continue
		}
		n, ok := g.Node(nd.ID)
		if !ok {
			return zerr.With(zerr.New("child node needs an explicit id"), "parent", nd.Parent)
		}
		if err := g.setParent(n, nd.Parent); err != nil {
			return err
		}
	}
	for _, ed := range d.Edges {
		if _, err := g.addEdge(ed.data(), withLabel(edgeDefaults, ed.Label)); err != nil {
			return err
		}
	}

	if d.Viewport != nil {
		zoom := d.Viewport.Zoom
		if zoom == 0 {
			zoom = 1
		}
		g.pan = geom.Pt(d.Viewport.Pan.X, d.Viewport.Pan.Y)
		g.zoom = g.clampZoom(zoom)
	}

	g.notify(scene.NotifyLoad)
	return nil
}

func withLabel(s style.Style, label string) style.Style {
	if label != "" {
		s.Label = label
	}
	return s
}

func (nd NodeDoc) data() NodeData {
	return NodeData{
		ID:         nd.ID,
		Position:   geom.Pt(nd.Position.X, nd.Position.Y),
		Style:      nd.Style,
		Locked:     nd.Locked,
		Grabbable:  nd.Grabbable,
		Selectable: nd.Selectable,
		Selected:   nd.Selected,
	}
}

func (ed EdgeDoc) data() EdgeData {
	return EdgeData{
		ID:         ed.ID,
		Source:     ed.Source,
		Target:     ed.Target,
		Style:      ed.Style,
		Selectable: ed.Selectable,
		Selected:   ed.Selected,
	}
}

// ToDocument captures the graph as a document.
func (g *Graph) ToDocument() *Document {
	d := &Document{
		Viewport: &ViewportDoc{Zoom: g.zoom, Pan: PointDoc{g.pan.X, g.pan.Y}},
	}
	for _, n := range g.nodes {
		nd := NodeDoc{
			ID:       n.id,
			Label:    n.st.Label,
			Position: PointDoc{n.pos.X, n.pos.Y},
			Locked:   n.locked,
			Selected: n.selected,
		}
		if n.parent != nil {
			nd.Parent = n.parent.id
		}
		d.Nodes = append(d.Nodes, nd)
	}
	for _, e := range g.edges {
		d.Edges = append(d.Edges, EdgeDoc{
			ID:       e.id,
			Source:   e.source.id,
			Target:   e.target.id,
			Label:    e.st.Label,
			Selected: e.selected,
		})
	}
	return d
}
