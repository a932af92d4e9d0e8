package cfg

import "math"

// Thresholds are the per-run pixel-space values derived from the single
// Detail knob and the processed image size. They are computed once after
// preprocessing and shared read-only by the remaining stages.
type Thresholds struct {
	// Epsilon is the Douglas-Peucker tolerance in pixels.
	Epsilon float64
	// MinStrokeLength prunes simplified paths shorter than this.
	MinStrokeLength float64
	// HighThreshold and LowThreshold are the hysteresis cutoffs on the
	// normalized [0,1] gradient magnitude. Higher detail lowers both.
	HighThreshold float64
	LowThreshold  float64
	// MinBranchLength prunes traced fragments below this many points.
	MinBranchLength int
	// Window is the side length of the local-statistics window used by
	// adaptive thresholding.
	Window int
	// Sensitivity is the Sauvola-style k for the adaptive threshold.
	Sensitivity float64
	// Diagonal is the processed image diagonal in pixels.
	Diagonal float64
}

// DeriveThresholds maps detail and the processed dimensions to concrete
// pixel-space thresholds. The mapping is intentionally monotonic in detail:
// raising detail never raises a detection threshold, so more detail can only
// add edges.
func DeriveThresholds(c *Config, width, height int) Thresholds {
	detail := math.Max(0, math.Min(1, c.Detail))
	diag := math.Hypot(float64(width), float64(height))
	if diag < 1 {
		diag = 1
	}

	eps := (0.003 + 0.012*(1-detail)) * diag
	eps = math.Max(0.003*diag, math.Min(0.015*diag, eps))
	if c.Epsilon > 0 {
		eps = c.Epsilon
	}

	high := 0.1 + 0.4*(1-detail)
	window := 21 + 2*int(5*(1-detail)) // 21..31, odd

	return Thresholds{
		Epsilon:         eps,
		MinStrokeLength: 10 + 40*(1-detail),
		HighThreshold:   high,
		LowThreshold:    0.4 * high,
		MinBranchLength: 4 + int(8*(1-detail)),
		Window:          window,
		Sensitivity:     0.3 + 0.2*(1-detail),
		Diagonal:        diag,
	}
}

// WithDetail returns a copy of the config with the detail knob replaced,
// for per-pass detail overrides.
func (c *Config) WithDetail(detail float64) Config {
	out := *c
	out.Detail = detail
	return out
}

// StrokeWidthFor converts the configured 1080p-reference width to the given
// resolution. The reference diagonal is that of a 1920x1080 frame.
func (c *Config) StrokeWidthFor(width, height int) float64 {
	const refDiag = 2202.9 // hypot(1920, 1080)
	diag := math.Hypot(float64(width), float64(height))
	w := c.StrokeWidth * diag / refDiag
	return math.Max(0.3, math.Min(10, w))
}
