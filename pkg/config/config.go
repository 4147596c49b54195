// Package config reads and writes the graphcanvas settings file.
package config

import (
	"errors"
	"image/color"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"go.trai.ch/zerr"

	"github.com/ha1tch/graphcanvas/pkg/compositor"
	"github.com/ha1tch/graphcanvas/pkg/gesture"
	"github.com/ha1tch/graphcanvas/pkg/renderer"
	"github.com/ha1tch/graphcanvas/pkg/style"
	"github.com/ha1tch/graphcanvas/pkg/termview"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = zerr.New("invalid config")

// Config holds persistent settings.
type Config struct {
	LastDir    string           `toml:"last_dir"`
	Renderer   RendererConfig   `toml:"renderer"`
	Compositor CompositorConfig `toml:"compositor"`
	Gesture    GestureConfig    `toml:"gesture"`
	View       ViewConfig       `toml:"view"`
	Snapshot   SnapshotConfig   `toml:"snapshot"`
	Serve      ServeConfig      `toml:"serve"`
}

// RendererConfig holds renderer switches.
type RendererConfig struct {
	ShowOverlay         bool `toml:"show_overlay"`
	HideEdgesOnViewport bool `toml:"hide_edges_on_viewport"`
}

// CompositorConfig controls frame pacing and the image cache.
type CompositorConfig struct {
	MinFrameInterval Duration `toml:"min_frame_interval"`
	MaxFrameInterval Duration `toml:"max_frame_interval"`
	ImageKeepTicks   int      `toml:"image_keep_ticks"`
	Watermark        string   `toml:"watermark"`
}

// GestureConfig holds gesture timings and distances.
type GestureConfig struct {
	PanOrBoxDelay         Duration `toml:"pan_or_box_delay"`
	TapHoldDelay          Duration `toml:"tap_hold_delay"`
	TapHoldMinElapsed     Duration `toml:"tap_hold_min_elapsed"`
	WheelSettle           Duration `toml:"wheel_settle"`
	MoveThreshold         float64  `toml:"move_threshold"`
	TapSlop               float64  `toml:"tap_slop"`
	ContextTouchDistance  float64  `toml:"context_touch_distance"`
	ContextCancelFactor   float64  `toml:"context_cancel_factor"`
	ContextCancelDistance float64  `toml:"context_cancel_distance"`
	EdgeHitTolerance      float64  `toml:"edge_hit_tolerance"`
}

// ViewConfig controls the terminal host.
type ViewConfig struct {
	CellWidth  int     `toml:"cell_width"`
	CellHeight int     `toml:"cell_height"`
	WheelStep  float64 `toml:"wheel_step"`
	Background string  `toml:"background"`
}

// SnapshotConfig controls PNG export.
type SnapshotConfig struct {
	Width       int     `toml:"width"`
	Height      int     `toml:"height"`
	Padding     float64 `toml:"padding"`
	MinZoom     float64 `toml:"min_zoom"`
	MaxZoom     float64 `toml:"max_zoom"`
	Supersample int     `toml:"supersample"`
	Background  string  `toml:"background"` // empty for transparent
}

// ServeConfig controls the HTTP surface.
type ServeConfig struct {
	Addr string `toml:"addr"`
}

// Duration is a time.Duration written as "250ms" in TOML.
type Duration struct {
	time.Duration
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return zerr.With(zerr.Wrap(err, "invalid duration"), "value", string(text))
	}
	d.Duration = v
	return nil
}

// Default returns the default configuration.
func Default() *Config {
	cwd, _ := os.Getwd()
	g := gesture.DefaultConfig()
	c := compositor.DefaultConfig()
	v := termview.DefaultOptions()
	s := renderer.DefaultSnapshotOptions()
	return &Config{
		LastDir: cwd,
		Compositor: CompositorConfig{
			MinFrameInterval: Duration{c.MinFrameInterval},
			MaxFrameInterval: Duration{c.MaxFrameInterval},
			ImageKeepTicks:   c.ImageKeepTicks,
			Watermark:        c.Watermark,
		},
		Gesture: GestureConfig{
			PanOrBoxDelay:         Duration{g.PanOrBoxDelay},
			TapHoldDelay:          Duration{g.TapHoldDelay},
			TapHoldMinElapsed:     Duration{g.TapHoldMinElapsed},
			WheelSettle:           Duration{g.WheelSettle},
			MoveThreshold:         g.MoveThreshold,
			TapSlop:               g.TapSlop,
			ContextTouchDistance:  g.ContextTouchDistance,
			ContextCancelFactor:   g.ContextCancelFactor,
			ContextCancelDistance: g.ContextCancelDistance,
			EdgeHitTolerance:      g.EdgeHitTolerance,
		},
		View: ViewConfig{
			CellWidth:  v.CellWidth,
			CellHeight: v.CellHeight,
			WheelStep:  v.WheelStep,
			Background: "white",
		},
		Snapshot: SnapshotConfig{
			Width:       800,
			Height:      600,
			Padding:     s.Padding,
			MinZoom:     s.MinZoom,
			MaxZoom:     s.MaxZoom,
			Supersample: s.Supersample,
			Background:  "white",
		},
		Serve: ServeConfig{Addr: "localhost:8080"},
	}
}

// DefaultPath returns ~/.graphcanvas.toml, or a relative path when the
// home directory is unknown.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".graphcanvas.toml"
	}
	return filepath.Join(home, ".graphcanvas.toml")
}

// Load reads path over the defaults. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to read config"), "path", path)
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to parse config"), "path", path)
	}
	if err := cfg.Validate(); err != nil {
		return nil, zerr.With(err, "path", path)
	}
	return cfg, nil
}

// Save writes cfg to path, creating parent directories.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return zerr.Wrap(err, "failed to create config directory")
	}
	f, err := os.Create(path)
	if err != nil {
		return zerr.With(zerr.Wrap(err, "failed to create config"), "path", path)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to write config"), "path", path)
	}
	return nil
}

func invalid(field string, value any) error {
	return zerr.With(zerr.With(ErrInvalid, "field", field), "value", value)
}

// Validate rejects values the components cannot run with.
func (c *Config) Validate() error {
	switch {
	case c.Compositor.MinFrameInterval.Duration < 0:
		return invalid("compositor.min_frame_interval", c.Compositor.MinFrameInterval)
	case c.Compositor.MaxFrameInterval.Duration < c.Compositor.MinFrameInterval.Duration:
		return invalid("compositor.max_frame_interval", c.Compositor.MaxFrameInterval)
	case c.Compositor.ImageKeepTicks < 0:
		return invalid("compositor.image_keep_ticks", c.Compositor.ImageKeepTicks)
	case c.Gesture.MoveThreshold < 0:
		return invalid("gesture.move_threshold", c.Gesture.MoveThreshold)
	case c.Gesture.ContextCancelFactor < 1:
		return invalid("gesture.context_cancel_factor", c.Gesture.ContextCancelFactor)
	case c.View.CellWidth <= 0:
		return invalid("view.cell_width", c.View.CellWidth)
	case c.View.CellHeight <= 0:
		return invalid("view.cell_height", c.View.CellHeight)
	case c.Snapshot.Width < 0 || c.Snapshot.Height < 0:
		return invalid("snapshot.size", [2]int{c.Snapshot.Width, c.Snapshot.Height})
	case c.Snapshot.Supersample < 1:
		return invalid("snapshot.supersample", c.Snapshot.Supersample)
	case c.Snapshot.MaxZoom > 0 && c.Snapshot.MinZoom > c.Snapshot.MaxZoom:
		return invalid("snapshot.min_zoom", c.Snapshot.MinZoom)
	}
	if _, err := parseBackground(c.View.Background); err != nil {
		return zerr.Wrap(err, ErrInvalid.Error())
	}
	if _, err := parseBackground(c.Snapshot.Background); err != nil {
		return zerr.Wrap(err, ErrInvalid.Error())
	}
	return nil
}

// parseBackground accepts a style colour; empty means no colour.
func parseBackground(s string) (color.Color, error) {
	if s == "" {
		return nil, nil
	}
	c, err := style.ParseColor(s)
	if err != nil {
		return nil, err
	}
	return c.With(1), nil
}

// GestureConfig converts to the recognizer's settings.
func (c *Config) GestureConfig() gesture.Config {
	g := c.Gesture
	return gesture.Config{
		PanOrBoxDelay:         g.PanOrBoxDelay.Duration,
		TapHoldDelay:          g.TapHoldDelay.Duration,
		TapHoldMinElapsed:     g.TapHoldMinElapsed.Duration,
		WheelSettle:           g.WheelSettle.Duration,
		MoveThreshold:         g.MoveThreshold,
		TapSlop:               g.TapSlop,
		ContextTouchDistance:  g.ContextTouchDistance,
		ContextCancelFactor:   g.ContextCancelFactor,
		ContextCancelDistance: g.ContextCancelDistance,
		EdgeHitTolerance:      g.EdgeHitTolerance,
	}
}

// CompositorConfig converts to the compositor's settings.
func (c *Config) CompositorConfig() compositor.Config {
	return compositor.Config{
		MinFrameInterval: c.Compositor.MinFrameInterval.Duration,
		MaxFrameInterval: c.Compositor.MaxFrameInterval.Duration,
		ImageKeepTicks:   c.Compositor.ImageKeepTicks,
		Watermark:        c.Compositor.Watermark,
	}
}

// SnapshotOptions converts to fitted export options.
func (c *Config) SnapshotOptions() renderer.SnapshotOptions {
	s := c.Snapshot
	bg, _ := parseBackground(s.Background)
	return renderer.SnapshotOptions{
		Width:       s.Width,
		Height:      s.Height,
		Fit:         true,
		Padding:     s.Padding,
		MinZoom:     s.MinZoom,
		MaxZoom:     s.MaxZoom,
		Supersample: s.Supersample,
		Background:  bg,
	}
}

// ViewOptions converts to terminal host options.
func (c *Config) ViewOptions() termview.Options {
	bg, _ := parseBackground(c.View.Background)
	return termview.Options{
		CellWidth:  c.View.CellWidth,
		CellHeight: c.View.CellHeight,
		WheelStep:  c.View.WheelStep,
		Background: bg,
	}
}
