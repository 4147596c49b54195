// Package style holds the computed, strongly typed style of graph elements.
// Values are resolved upstream; the renderer only reads them.
package style

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"

	colorful "github.com/lucasb-eyer/go-colorful"
	"go.trai.ch/zerr"
)

// Kind tags the payload carried by a Value.
type Kind uint8

const (
	KindNone Kind = iota
	KindColor
	KindLength
	KindNumber
	KindKeyword
	KindString
)

func (k Kind) String() string {
	switch k {
	case KindColor:
		return "color"
	case KindLength:
		return "length"
	case KindNumber:
		return "number"
	case KindKeyword:
		return "keyword"
	case KindString:
		return "string"
	}
	return "none"
}

// Value is a tagged union over the property value kinds, used for
// name-based lookup. Only the field matching Kind is meaningful.
type Value struct {
	Kind   Kind
	Color  Color
	Length Length
	Number float64
	Str    string // keyword or string payload
}

func (v Value) String() string {
	switch v.Kind {
	case KindColor:
		return v.Color.Hex()
	case KindLength:
		return v.Length.String()
	case KindNumber:
		return strconv.FormatFloat(v.Number, 'g', -1, 64)
	case KindKeyword, KindString:
		return v.Str
	}
	return ""
}

// Color is an opaque RGB colour; opacity is a separate property.
type Color struct {
	R, G, B uint8
}

// RGB is shorthand for a Color literal.
func RGB(r, g, b uint8) Color {
	return Color{r, g, b}
}

// ErrBadColor is returned for unparseable colour strings.
var ErrBadColor = zerr.New("invalid colour")

// named colours accepted besides hex notation
var namedColors = map[string]Color{
	"black":  {0, 0, 0},
	"white":  {255, 255, 255},
	"red":    {255, 0, 0},
	"green":  {0, 128, 0},
	"blue":   {0, 0, 255},
	"yellow": {255, 255, 0},
	"orange": {255, 165, 0},
	"purple": {128, 0, 128},
	"gray":   {128, 128, 128},
	"grey":   {128, 128, 128},
}

// ParseColor accepts "#rgb", "#rrggbb", "rgb(r,g,b)" or a basic colour name.
func ParseColor(s string) (Color, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if c, ok := namedColors[s]; ok {
		return c, nil
	}

	if strings.HasPrefix(s, "rgb(") && strings.HasSuffix(s, ")") {
		parts := strings.Split(s[4:len(s)-1], ",")
		if len(parts) != 3 {
			return Color{}, zerr.With(ErrBadColor, "value", s)
		}
		var rgb [3]uint8
		for i, p := range parts {
			n, err := strconv.Atoi(strings.TrimSpace(p))
			if err != nil || n < 0 || n > 255 {
				return Color{}, zerr.With(ErrBadColor, "value", s)
			}
			rgb[i] = uint8(n)
		}
		return Color{rgb[0], rgb[1], rgb[2]}, nil
	}

	// Expand #rgb shorthand
	if len(s) == 4 && s[0] == '#' {
		s = fmt.Sprintf("#%c%c%c%c%c%c", s[1], s[1], s[2], s[2], s[3], s[3])
	}
	c, err := colorful.Hex(s)
	if err != nil {
		return Color{}, zerr.With(zerr.Wrap(err, ErrBadColor.Error()), "value", s)
	}
	r, g, b := c.RGB255()
	return Color{r, g, b}, nil
}

// MustColor parses s and panics on failure. For literals only.
func MustColor(s string) Color {
	c, err := ParseColor(s)
	if err != nil {
		panic(err)
	}
	return c
}

// Hex formats the colour as #rrggbb.
func (c Color) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// With returns the colour combined with an opacity in [0,1].
func (c Color) With(opacity float64) color.NRGBA {
	if opacity < 0 {
		opacity = 0
	}
	if opacity > 1 {
		opacity = 1
	}
	return color.NRGBA{c.R, c.G, c.B, uint8(opacity*255 + 0.5)}
}

// Length is a pixel length or "auto".
type Length struct {
	Px   float64
	Auto bool
}

// Px is shorthand for a fixed Length.
func Px(v float64) Length {
	return Length{Px: v}
}

// Auto is the "auto" length.
var Auto = Length{Auto: true}

func (l Length) String() string {
	if l.Auto {
		return "auto"
	}
	return strconv.FormatFloat(l.Px, 'g', -1, 64) + "px"
}

// ParseLength accepts "auto", "12", or "12px".
func ParseLength(s string) (Length, error) {
	s = strings.TrimSpace(s)
	if s == "auto" {
		return Auto, nil
	}
	v, err := strconv.ParseFloat(strings.TrimSuffix(s, "px"), 64)
	if err != nil {
		return Length{}, zerr.With(zerr.Wrap(err, "invalid length"), "value", s)
	}
	return Px(v), nil
}
