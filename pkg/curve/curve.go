// Package curve turns raw traced paths into piecewise cubic curves: each
// path is simplified with a bounded deviation, lightly smoothed, split at
// corners, and fit with least-squares cubics under a maximum error.
package curve

import (
	"context"
	"math"

	"golang.org/x/sync/errgroup"

	"linetrace/pkg/cfg"
	"linetrace/pkg/geometry"
	"linetrace/pkg/trace"
)

// CubicBezier is one cubic segment. P0 and P3 are on-curve endpoints.
type CubicBezier struct {
	P0, P1, P2, P3 geometry.Point
}

// At evaluates the segment at parameter t in [0,1].
func (b CubicBezier) At(t float64) geometry.Point {
	u := 1 - t
	return geometry.Point{
		X: u*u*u*b.P0.X + 3*u*u*t*b.P1.X + 3*u*t*t*b.P2.X + t*t*t*b.P3.X,
		Y: u*u*u*b.P0.Y + 3*u*u*t*b.P1.Y + 3*u*t*t*b.P2.Y + t*t*t*b.P3.Y,
	}
}

// Path is a fitted curve path. Segments are C0 continuous: each segment's P3
// equals the next segment's P0.
type Path struct {
	ID       int
	Segments []CubicBezier
	Closed   bool
	Strength float64
}

// Start returns the first on-curve point.
func (p *Path) Start() geometry.Point { return p.Segments[0].P0 }

// cornerAngle is the turn angle above which a vertex is treated as a corner
// and fitting is split rather than smoothed across it.
const cornerAngle = 75 * math.Pi / 180

// Fit fits every raw path concurrently. Thresholds are derived from the
// joint extent of the input paths; hosts that know the processed image size
// use FitWith.
func Fit(ctx context.Context, paths []trace.RawPath, c *cfg.Config) ([]Path, error) {
	maxX, maxY := 0.0, 0.0
	for _, p := range paths {
		b := p.Points.Bounds()
		maxX = math.Max(maxX, b.Max.X)
		maxY = math.Max(maxY, b.Max.Y)
	}
	th := cfg.DeriveThresholds(c, int(maxX)+1, int(maxY)+1)
	return FitWith(ctx, paths, c, th)
}

// FitWith is Fit with explicit thresholds. Degenerate paths (fewer than two
// distinct points after simplification) and paths shorter than the minimum
// stroke length are dropped silently.
func FitWith(ctx context.Context, paths []trace.RawPath, c *cfg.Config, th cfg.Thresholds) ([]Path, error) {
	results := make([]*Path, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for i := range paths {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = fitOne(&paths[i], c, th)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	out := make([]Path, 0, len(paths))
	for _, r := range results {
		if r != nil {
			out = append(out, *r)
		}
	}
	return out, nil
}

func fitOne(raw *trace.RawPath, c *cfg.Config, th cfg.Thresholds) *Path {
	points := raw.Points
	if raw.Closed && len(points) > 1 && points[0] != points[len(points)-1] {
		// Close the loop exactly so the last segment lands on the start.
		points = append(append(geometry.Polyline{}, points...), points[0])
	}

	simplified := points.Simplify(th.Epsilon)
	if len(simplified) < 2 {
		return nil
	}
	if !distinct(simplified) {
		return nil
	}
	if simplified.Length() < th.MinStrokeLength {
		return nil
	}
	simplified = simplified.SmoothKeepEnds(1)

	var segments []CubicBezier
	for _, run := range splitAtCorners(simplified) {
		segments = append(segments, fitRun(run, c.FitTolerance)...)
	}
	if len(segments) == 0 {
		return nil
	}
	return &Path{
		ID:       raw.ID,
		Segments: segments,
		Closed:   raw.Closed,
		Strength: raw.Strength,
	}
}

func distinct(points geometry.Polyline) bool {
	for i := 1; i < len(points); i++ {
		if points[i] != points[0] {
			return true
		}
	}
	return false
}

// splitAtCorners cuts the polyline at sharp turns so each run is smooth
// enough for a tangent-continuous fit. Every run shares its boundary point
// with the next, preserving C0 continuity across the whole path.
func splitAtCorners(points geometry.Polyline) []geometry.Polyline {
	var runs []geometry.Polyline
	start := 0
	for i := 1; i < len(points)-1; i++ {
		v1 := points[i].Minus(points[i-1])
		v2 := points[i+1].Minus(points[i])
		angle := math.Abs(math.Atan2(v1.CrossProductZ(v2), v1.Dot(v2)))
		if angle > cornerAngle {
			runs = append(runs, points[start:i+1])
			start = i
		}
	}
	runs = append(runs, points[start:])
	return runs
}
