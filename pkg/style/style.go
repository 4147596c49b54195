package style

import (
	"strconv"
	"strings"

	"go.trai.ch/zerr"
)

// Keyword-valued properties.
type (
	Visibility    string
	Display       string
	LineStyle     string
	HAlign        string
	VAlign        string
	TextTransform string
)

const (
	Visible Visibility = "visible"
	Hidden  Visibility = "hidden"

	DisplayElement Display = "element"
	DisplayNone    Display = "none"

	LineSolid  LineStyle = "solid"
	LineDotted LineStyle = "dotted"
	LineDashed LineStyle = "dashed"

	HAlignLeft   HAlign = "left"
	HAlignCenter HAlign = "center"
	HAlignRight  HAlign = "right"

	VAlignTop    VAlign = "top"
	VAlignCenter VAlign = "center"
	VAlignBottom VAlign = "bottom"

	TransformNone      TextTransform = "none"
	TransformUppercase TextTransform = "uppercase"
	TransformLowercase TextTransform = "lowercase"
)

// Style is the computed style of one element. Nodes ignore the edge
// fields and vice versa; Width is the node width or the edge line width.
type Style struct {
	Visibility Visibility
	Display    Display
	Opacity    float64

	// Label text
	Label             string
	Color             Color
	TextOpacity       float64
	TextOutlineColor  Color
	TextOutlineWidth  float64
	FontSize          float64
	MinZoomedFontSize float64
	TextHAlign        HAlign
	TextVAlign        VAlign
	TextTransform     TextTransform

	// Overlay drawn over active elements
	OverlayColor   Color
	OverlayPadding float64
	OverlayOpacity float64

	// Node body
	Width             Length
	Height            Length
	Shape             string
	BackgroundColor   Color
	BackgroundOpacity float64
	BackgroundImage   string
	BorderWidth       float64
	BorderColor       Color
	BorderOpacity     float64

	// Compound padding around children of auto-sized parents
	Padding float64

	// Edge line
	LineColor            Color
	LineStyle            LineStyle
	SourceArrowShape     string
	SourceArrowColor     Color
	TargetArrowShape     string
	TargetArrowColor     Color
	ControlPointStepSize float64
}

// Displayed reports whether the element takes part in rendering at all.
func (s *Style) Displayed() bool {
	return s.Display != DisplayNone
}

// Shown reports whether the element is displayed, visible and not fully
// transparent.
func (s *Style) Shown() bool {
	return s.Displayed() && s.Visibility != Hidden && s.Opacity > 0
}

// property accessors by CSS-like name
type property struct {
	get func(s *Style) Value
	set func(s *Style, raw string) error
}

func colorProp(f func(s *Style) *Color) property {
	return property{
		get: func(s *Style) Value { return Value{Kind: KindColor, Color: *f(s)} },
		set: func(s *Style, raw string) error {
			c, err := ParseColor(raw)
			if err != nil {
				return err
			}
			*f(s) = c
			return nil
		},
	}
}

func numberProp(f func(s *Style) *float64) property {
	return property{
		get: func(s *Style) Value { return Value{Kind: KindNumber, Number: *f(s)} },
		set: func(s *Style, raw string) error {
			v, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(raw), "px"), 64)
			if err != nil {
				return zerr.With(zerr.Wrap(err, "invalid number"), "value", raw)
			}
			*f(s) = v
			return nil
		},
	}
}

func lengthProp(f func(s *Style) *Length) property {
	return property{
		get: func(s *Style) Value { return Value{Kind: KindLength, Length: *f(s)} },
		set: func(s *Style, raw string) error {
			l, err := ParseLength(raw)
			if err != nil {
				return err
			}
			*f(s) = l
			return nil
		},
	}
}

func stringProp(kind Kind, f func(s *Style) *string) property {
	return property{
		get: func(s *Style) Value { return Value{Kind: kind, Str: *f(s)} },
		set: func(s *Style, raw string) error {
			*f(s) = raw
			return nil
		},
	}
}

// keywordProp validates raw against the allowed keywords.
func keywordProp[T ~string](f func(s *Style) *T, allowed ...T) property {
	return property{
		get: func(s *Style) Value { return Value{Kind: KindKeyword, Str: string(*f(s))} },
		set: func(s *Style, raw string) error {
			for _, a := range allowed {
				if string(a) == raw {
					*f(s) = a
					return nil
				}
			}
			return zerr.With(ErrBadKeyword, "value", raw)
		},
	}
}

// ErrUnknownProperty is returned by Set for names the style does not carry.
var ErrUnknownProperty = zerr.New("unknown style property")

// ErrBadKeyword is returned by Set for keywords outside the allowed set.
var ErrBadKeyword = zerr.New("invalid keyword")

var properties = map[string]property{
	"visibility": keywordProp(func(s *Style) *Visibility { return &s.Visibility }, Visible, Hidden),
	"display":    keywordProp(func(s *Style) *Display { return &s.Display }, DisplayElement, DisplayNone),
	"opacity":    numberProp(func(s *Style) *float64 { return &s.Opacity }),

	"content":              stringProp(KindString, func(s *Style) *string { return &s.Label }),
	"color":                colorProp(func(s *Style) *Color { return &s.Color }),
	"text-opacity":         numberProp(func(s *Style) *float64 { return &s.TextOpacity }),
	"text-outline-color":   colorProp(func(s *Style) *Color { return &s.TextOutlineColor }),
	"text-outline-width":   numberProp(func(s *Style) *float64 { return &s.TextOutlineWidth }),
	"font-size":            numberProp(func(s *Style) *float64 { return &s.FontSize }),
	"min-zoomed-font-size": numberProp(func(s *Style) *float64 { return &s.MinZoomedFontSize }),
	"text-halign":          keywordProp(func(s *Style) *HAlign { return &s.TextHAlign }, HAlignLeft, HAlignCenter, HAlignRight),
	"text-valign":          keywordProp(func(s *Style) *VAlign { return &s.TextVAlign }, VAlignTop, VAlignCenter, VAlignBottom),
	"text-transform":       keywordProp(func(s *Style) *TextTransform { return &s.TextTransform }, TransformNone, TransformUppercase, TransformLowercase),

	"overlay-color":   colorProp(func(s *Style) *Color { return &s.OverlayColor }),
	"overlay-padding": numberProp(func(s *Style) *float64 { return &s.OverlayPadding }),
	"overlay-opacity": numberProp(func(s *Style) *float64 { return &s.OverlayOpacity }),

	"width":              lengthProp(func(s *Style) *Length { return &s.Width }),
	"height":             lengthProp(func(s *Style) *Length { return &s.Height }),
	"shape":              stringProp(KindKeyword, func(s *Style) *string { return &s.Shape }),
	"background-color":   colorProp(func(s *Style) *Color { return &s.BackgroundColor }),
	"background-opacity": numberProp(func(s *Style) *float64 { return &s.BackgroundOpacity }),
	"background-image":   stringProp(KindString, func(s *Style) *string { return &s.BackgroundImage }),
	"border-width":       numberProp(func(s *Style) *float64 { return &s.BorderWidth }),
	"border-color":       colorProp(func(s *Style) *Color { return &s.BorderColor }),
	"border-opacity":     numberProp(func(s *Style) *float64 { return &s.BorderOpacity }),
	"padding":            numberProp(func(s *Style) *float64 { return &s.Padding }),

	"line-color":              colorProp(func(s *Style) *Color { return &s.LineColor }),
	"line-style":              keywordProp(func(s *Style) *LineStyle { return &s.LineStyle }, LineSolid, LineDotted, LineDashed),
	"source-arrow-shape":      stringProp(KindKeyword, func(s *Style) *string { return &s.SourceArrowShape }),
	"source-arrow-color":      colorProp(func(s *Style) *Color { return &s.SourceArrowColor }),
	"target-arrow-shape":      stringProp(KindKeyword, func(s *Style) *string { return &s.TargetArrowShape }),
	"target-arrow-color":      colorProp(func(s *Style) *Color { return &s.TargetArrowColor }),
	"control-point-step-size": numberProp(func(s *Style) *float64 { return &s.ControlPointStepSize }),
}

// Lookup returns the value of a property by name.
func (s *Style) Lookup(name string) (Value, bool) {
	p, ok := properties[name]
	if !ok {
		return Value{}, false
	}
	return p.get(s), true
}

// Set parses raw and assigns it to the named property.
func (s *Style) Set(name, raw string) error {
	p, ok := properties[name]
	if !ok {
		return zerr.With(ErrUnknownProperty, "property", name)
	}
	if err := p.set(s, raw); err != nil {
		return zerr.With(err, "property", name)
	}
	return nil
}

// ApplyAll sets every property in props, stopping at the first error.
func (s *Style) ApplyAll(props map[string]string) error {
	for name, raw := range props {
		if err := s.Set(name, raw); err != nil {
			return err
		}
	}
	return nil
}

// DefaultNode returns the default computed style of a node.
func DefaultNode() Style {
	return Style{
		Visibility:        Visible,
		Display:           DisplayElement,
		Opacity:           1,
		Color:             RGB(0, 0, 0),
		TextOpacity:       1,
		TextOutlineColor:  RGB(255, 255, 255),
		FontSize:          16,
		MinZoomedFontSize: 0,
		TextHAlign:        HAlignCenter,
		TextVAlign:        VAlignTop,
		TextTransform:     TransformNone,
		OverlayColor:      RGB(0, 0, 0),
		OverlayPadding:    10,
		Width:             Px(30),
		Height:            Px(30),
		Shape:             "ellipse",
		BackgroundColor:   RGB(0x88, 0x88, 0x88),
		BackgroundOpacity: 1,
		BorderColor:       RGB(0, 0, 0),
		BorderOpacity:     1,
		Padding:           10,
	}
}

// DefaultEdge returns the default computed style of an edge.
func DefaultEdge() Style {
	return Style{
		Visibility:           Visible,
		Display:              DisplayElement,
		Opacity:              1,
		Color:                RGB(0, 0, 0),
		TextOpacity:          1,
		TextOutlineColor:     RGB(255, 255, 255),
		FontSize:             16,
		TextHAlign:           HAlignCenter,
		TextVAlign:           VAlignCenter,
		TextTransform:        TransformNone,
		OverlayColor:         RGB(0, 0, 0),
		OverlayPadding:       10,
		Width:                Px(1),
		LineColor:            RGB(0xbb, 0xbb, 0xbb),
		LineStyle:            LineSolid,
		SourceArrowShape:     "none",
		SourceArrowColor:     RGB(0xbb, 0xbb, 0xbb),
		TargetArrowShape:     "none",
		TargetArrowColor:     RGB(0xbb, 0xbb, 0xbb),
		ControlPointStepSize: 40,
	}
}

// Core is the style of graph-wide decorations.
type Core struct {
	SelectionBoxColor       Color
	SelectionBoxOpacity     float64
	SelectionBoxBorderColor Color
	SelectionBoxBorderWidth float64
	ActiveBgColor           Color
	ActiveBgOpacity         float64
	ActiveBgSize            float64
}

// DefaultCore returns the default graph-wide decoration style.
func DefaultCore() Core {
	return Core{
		SelectionBoxColor:       RGB(0xdd, 0xdd, 0xdd),
		SelectionBoxOpacity:     0.65,
		SelectionBoxBorderColor: RGB(0xaa, 0xaa, 0xaa),
		SelectionBoxBorderWidth: 1,
		ActiveBgColor:           RGB(0, 0, 0),
		ActiveBgOpacity:         0.15,
		ActiveBgSize:            15,
	}
}
