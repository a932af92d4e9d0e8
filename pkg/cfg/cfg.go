package cfg

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalid is wrapped by every validation failure so callers can test for
// configuration errors with errors.Is without matching message text.
var ErrInvalid = errors.New("invalid config")

// Preset selects a bundle of hand-drawn stylization values. Custom leaves the
// explicit HandDrawn fields in force.
type Preset int

const (
	PresetNone Preset = iota
	PresetSubtle
	PresetMedium
	PresetStrong
	PresetCustom
)

func (p Preset) String() string {
	switch p {
	case PresetNone:
		return "none"
	case PresetSubtle:
		return "subtle"
	case PresetMedium:
		return "medium"
	case PresetStrong:
		return "strong"
	case PresetCustom:
		return "custom"
	}
	return fmt.Sprintf("preset(%d)", int(p))
}

// ParsePreset maps a preset name to its value. Used by hosts that take the
// preset as a string flag.
func ParsePreset(s string) (Preset, error) {
	switch s {
	case "none", "":
		return PresetNone, nil
	case "subtle":
		return PresetSubtle, nil
	case "medium":
		return PresetMedium, nil
	case "strong":
		return PresetStrong, nil
	case "custom":
		return PresetCustom, nil
	}
	return PresetNone, fmt.Errorf("unknown hand-drawn preset %q: %w", s, ErrInvalid)
}

// ColorMode controls how path colors are assigned in the output document.
type ColorMode int

const (
	// LineOnly draws every path in the uniform line color.
	LineOnly ColorMode = iota
	// PreserveColor samples the source raster under each path.
	PreserveColor
)

// HandDrawn holds the stylization strengths, all in [0,1] except MultiPass.
type HandDrawn struct {
	Preset Preset

	// Tremor is the per-point jitter amplitude scale.
	Tremor float64
	// VariableWeight scales curvature-driven stroke width modulation.
	VariableWeight float64
	// Taper scales endpoint width tapering.
	Taper float64
	// MultiPass is the number of extra overlay strokes per path (0-3).
	MultiPass int
}

// Config is the full pipeline configuration. It is validated once at pipeline
// entry and treated as immutable for the duration of a run; stages receive it
// by pointer and never write to it.
type Config struct {
	// Detail in [0,1]; 0 keeps only the strongest edges, 1 keeps the most.
	// All detection and simplification thresholds derive from this single
	// knob unless overridden below.
	Detail float64

	// StrokeWidth is the base stroke width in pixels at a 1080p reference
	// resolution; it is rescaled to the processed image size.
	StrokeWidth float64

	// MaxDimension bounds the longer image dimension after preprocessing.
	MaxDimension int
	// MaxPixels rejects inputs above this pixel count before any work runs.
	MaxPixels int

	// Multipass enables the additional directional tracing passes.
	Multipass bool
	// ReversePass and DiagonalPass select which extra passes may run.
	ReversePass  bool
	DiagonalPass bool
	// ReverseDetail/DiagonalDetail override Detail for those passes when
	// nonzero. The standard pass always uses Detail.
	ReverseDetail  float64
	DiagonalDetail float64
	// PassStrengthThreshold skips an enabled directional pass whose
	// estimated benefit falls below it (0 runs every enabled pass).
	PassStrengthThreshold float64

	// NoiseFiltering enables edge-preserving smoothing before detection.
	NoiseFiltering bool

	// FlowField enables the smoothed tangent flow field and the flow-guided
	// difference-of-Gaussians edge response.
	FlowField bool

	// Epsilon overrides the detail-derived Douglas-Peucker tolerance in
	// pixels when nonzero. Must be positive when set.
	Epsilon float64
	// FitTolerance is the maximum cubic fitting error in pixels.
	FitTolerance float64

	HandDrawn HandDrawn

	ColorMode ColorMode
	// LineColor is the uniform stroke color for LineOnly mode, as #rrggbb.
	LineColor string

	// Precision is the number of decimal places in output coordinates.
	Precision int

	// Seed drives all stylization randomness; fixed seed, fixed output.
	Seed int64

	// TimeBudget optionally bounds total processing time. When the budget is
	// nearly consumed, optional passes and the flow field are skipped rather
	// than failing. Zero means no budget.
	TimeBudget time.Duration
}

// Default returns the configuration used when a host supplies nothing.
func Default() Config {
	return Config{
		Detail:                0.5,
		StrokeWidth:           1.2,
		MaxDimension:          2048,
		MaxPixels:             32 << 20, // 32 megapixels
		PassStrengthThreshold: 0.3,
		FitTolerance:          2.0,
		HandDrawn:             HandDrawn{Preset: PresetNone},
		LineColor:             "#000000",
		Precision:             2,
		Seed:                  42,
	}
}

// Resolved returns the hand-drawn values with the preset applied. Custom
// passes the explicit fields through; None zeroes them.
func (h HandDrawn) Resolved() HandDrawn {
	switch h.Preset {
	case PresetNone:
		return HandDrawn{Preset: PresetNone}
	case PresetSubtle:
		return HandDrawn{Preset: PresetSubtle, Tremor: 0.05, VariableWeight: 0.15, Taper: 0.1, MultiPass: 0}
	case PresetMedium:
		return HandDrawn{Preset: PresetMedium, Tremor: 0.15, VariableWeight: 0.3, Taper: 0.3, MultiPass: 1}
	case PresetStrong:
		return HandDrawn{Preset: PresetStrong, Tremor: 0.25, VariableWeight: 0.6, Taper: 0.5, MultiPass: 2}
	}
	return h
}

// Validate checks every field range and names the offending field. It is run
// once at pipeline entry, before any image data is touched.
func (c *Config) Validate() error {
	if c.Detail < 0 || c.Detail > 1 {
		return fmt.Errorf("detail %g outside [0,1]: %w", c.Detail, ErrInvalid)
	}
	if c.StrokeWidth <= 0 {
		return fmt.Errorf("stroke width %g must be positive: %w", c.StrokeWidth, ErrInvalid)
	}
	if c.MaxDimension < 16 {
		return fmt.Errorf("max dimension %d too small: %w", c.MaxDimension, ErrInvalid)
	}
	if c.MaxPixels <= 0 {
		return fmt.Errorf("max pixels %d must be positive: %w", c.MaxPixels, ErrInvalid)
	}
	for _, f := range []struct {
		name string
		v    float64
	}{
		{"reverse pass detail", c.ReverseDetail},
		{"diagonal pass detail", c.DiagonalDetail},
		{"pass strength threshold", c.PassStrengthThreshold},
	} {
		if f.v < 0 || f.v > 1 {
			return fmt.Errorf("%s %g outside [0,1]: %w", f.name, f.v, ErrInvalid)
		}
	}
	if c.Epsilon < 0 {
		return fmt.Errorf("epsilon %g must not be negative: %w", c.Epsilon, ErrInvalid)
	}
	if c.FitTolerance <= 0 {
		return fmt.Errorf("fit tolerance %g must be positive: %w", c.FitTolerance, ErrInvalid)
	}
	h := c.HandDrawn
	if h.Preset < PresetNone || h.Preset > PresetCustom {
		return fmt.Errorf("hand-drawn preset %d unknown: %w", int(h.Preset), ErrInvalid)
	}
	if h.Preset == PresetCustom {
		for _, f := range []struct {
			name string
			v    float64
		}{
			{"tremor", h.Tremor},
			{"variable weight", h.VariableWeight},
			{"taper", h.Taper},
		} {
			if f.v < 0 || f.v > 1 {
				return fmt.Errorf("hand-drawn %s %g outside [0,1]: %w", f.name, f.v, ErrInvalid)
			}
		}
	}
	if h.MultiPass < 0 || h.MultiPass > 3 {
		return fmt.Errorf("multi-pass intensity %d outside [0,3]: %w", h.MultiPass, ErrInvalid)
	}
	if c.ColorMode != LineOnly && c.ColorMode != PreserveColor {
		return fmt.Errorf("color mode %d unknown: %w", int(c.ColorMode), ErrInvalid)
	}
	if c.Precision < 0 || c.Precision > 6 {
		return fmt.Errorf("precision %d outside [0,6]: %w", c.Precision, ErrInvalid)
	}
	if c.TimeBudget < 0 {
		return fmt.Errorf("time budget %s must not be negative: %w", c.TimeBudget, ErrInvalid)
	}
	return nil
}
