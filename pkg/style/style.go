// Package style applies the hand-drawn look to fitted curves: seeded tremor,
// curvature-driven width modulation, endpoint tapering, and optional overlay
// strokes. With everything at zero the stage is an exact pass-through.
package style

import (
	"math"

	"linetrace/pkg/cfg"
	"linetrace/pkg/curve"
	"linetrace/pkg/geometry"
)

// Stroke is a renderable stroke: perturbed cubic segments plus a width
// profile. Widths holds one non-negative factor per on-curve point
// (len(Segments)+1); the document builder scales them by the resolved base
// stroke width.
type Stroke struct {
	PathID   int
	Overlay  int // 0 is the base stroke, 1..n are sketch overlays
	Segments []curve.CubicBezier
	Widths   []float64
	Opacity  float64
	Closed   bool
	Strength float64
}

const (
	// maxTremorPx is the jitter amplitude in pixels at full tremor.
	maxTremorPx = 2.0
	// taperFraction of the path length tapers at each end.
	taperFraction = 0.25
	// overlayTremor scales the extra strokes' independent jitter.
	overlayTremor = 0.7
	// overlayWidth narrows the extra strokes against the base stroke.
	overlayWidth = 0.8
)

// Apply stylizes every path. It never fails; an empty input yields an empty
// output. All randomness is a pure function of (seed, path id, point index),
// so output is reproducible regardless of evaluation order.
func Apply(paths []curve.Path, c *cfg.Config) []Stroke {
	h := c.HandDrawn.Resolved()
	strokes := make([]Stroke, 0, len(paths)*(1+h.MultiPass))
	for i := range paths {
		p := &paths[i]
		if len(p.Segments) == 0 {
			continue
		}
		strokes = append(strokes, stylize(p, c, h, 0))
		for o := 1; o <= h.MultiPass; o++ {
			strokes = append(strokes, stylize(p, c, h, o))
		}
	}
	return strokes
}

func stylize(p *curve.Path, c *cfg.Config, h cfg.HandDrawn, overlay int) Stroke {
	n := len(p.Segments)
	s := Stroke{
		PathID:   p.ID,
		Overlay:  overlay,
		Segments: make([]curve.CubicBezier, n),
		Widths:   make([]float64, n+1),
		Opacity:  1,
		Closed:   p.Closed,
		Strength: p.Strength,
	}
	copy(s.Segments, p.Segments)

	tremor := h.Tremor
	widthScale := 1.0
	if overlay > 0 {
		tremor *= overlayTremor
		widthScale = overlayWidth
		s.Opacity = math.Max(0.25, 0.45-0.05*float64(overlay))
	}

	if tremor > 0 {
		applyTremor(&s, c.Seed, tremor, overlay)
	}
	fillWidths(&s, p, h, widthScale)
	return s
}

// applyTremor displaces each on-curve point along its local normal and drags
// the adjacent control points with it, preserving segment continuity.
func applyTremor(s *Stroke, seed int64, tremor float64, overlay int) {
	n := len(s.Segments)
	amp := tremor * maxTremorPx
	offsets := make([]geometry.Vector2, n+1)
	for k := 0; k <= n; k++ {
		idx := k
		if s.Closed && k == n {
			idx = 0 // a closed loop must land back on its jittered start
		}
		normal := normalAt(s.Segments, k)
		j := jitter(seed, s.PathID, idx, overlay)
		offsets[k] = normal.Scale(j * amp)
	}
	for k := range s.Segments {
		s.Segments[k].P0 = s.Segments[k].P0.Add(offsets[k])
		s.Segments[k].P1 = s.Segments[k].P1.Add(offsets[k])
		s.Segments[k].P2 = s.Segments[k].P2.Add(offsets[k+1])
		s.Segments[k].P3 = s.Segments[k].P3.Add(offsets[k+1])
	}
}

// normalAt returns the unit normal at on-curve point k of the segment chain.
func normalAt(segs []curve.CubicBezier, k int) geometry.Vector2 {
	var tangent geometry.Vector2
	switch {
	case k == 0:
		tangent = segs[0].P1.Minus(segs[0].P0)
	case k == len(segs):
		last := segs[len(segs)-1]
		tangent = last.P3.Minus(last.P2)
	default:
		in := segs[k-1].P3.Minus(segs[k-1].P2)
		out := segs[k].P1.Minus(segs[k].P0)
		tangent = in.Normalized().Add(out.Normalized())
	}
	if tangent.Magnitude() < 1e-12 {
		tangent = geometry.Vector2{X: 1}
	}
	return tangent.Normal()
}

// fillWidths builds the per-point width profile: curvature modulation first,
// then endpoint tapering. Open paths taper over a quarter of their length at
// each end; closed paths never taper.
func fillWidths(s *Stroke, p *curve.Path, h cfg.HandDrawn, scale float64) {
	n := len(s.Segments)
	for k := 0; k <= n; k++ {
		w := scale
		if h.VariableWeight > 0 {
			// High curvature widens the stroke a little, like ink pooling
			// in a slow turn.
			cNorm := math.Min(1, curvatureAt(p.Segments, k)/(math.Pi/2))
			w *= 1 + h.VariableWeight*0.5*(cNorm-0.2)
		}
		if w < 0.1 {
			w = 0.1
		}
		s.Widths[k] = w
	}
	if h.Taper <= 0 || s.Closed || n == 0 {
		return
	}
	total := chainLength(s.Segments)
	if total <= 0 {
		return
	}
	zone := total * taperFraction
	pos := 0.0
	for k := 0; k <= n; k++ {
		if k > 0 {
			pos += segLength(s.Segments[k-1])
		}
		d := math.Min(pos, total-pos)
		if d < zone {
			t := d / zone
			// Smoothstep ramp from the tapered tip width to full width.
			ramp := t * t * (3 - 2*t)
			mult := (1 - h.Taper) + h.Taper*ramp
			// Tips never pinch below half width.
			if mult < 0.5 {
				mult = 0.5
			}
			s.Widths[k] *= mult
		}
	}
}

// curvatureAt measures the turn angle between the segments meeting at
// on-curve point k, zero at open endpoints.
func curvatureAt(segs []curve.CubicBezier, k int) float64 {
	if k <= 0 || k >= len(segs) {
		return 0
	}
	in := segs[k-1].P3.Minus(segs[k-1].P2)
	out := segs[k].P1.Minus(segs[k].P0)
	return math.Abs(math.Atan2(in.CrossProductZ(out), in.Dot(out)))
}

func segLength(b curve.CubicBezier) float64 {
	// Chord/net average is plenty for width positioning.
	chord := b.P0.Distance(b.P3)
	net := b.P0.Distance(b.P1) + b.P1.Distance(b.P2) + b.P2.Distance(b.P3)
	return (chord + net) / 2
}

func chainLength(segs []curve.CubicBezier) float64 {
	total := 0.0
	for _, s := range segs {
		total += segLength(s)
	}
	return total
}

// jitter returns a deterministic value in [-1,1] from the seed, path id,
// point index, and overlay stream, using a splitmix-style mix. No shared
// generator state, so stylization is order independent.
func jitter(seed int64, pathID, index, overlay int) float64 {
	x := uint64(seed)
	x ^= uint64(pathID)*0x9E3779B97F4A7C15 + uint64(index)*0xBF58476D1CE4E5B9
	x ^= uint64(overlay) << 48
	x += 0x9E3779B97F4A7C15
	x ^= x >> 30
	x *= 0xBF58476D1CE4E5B9
	x ^= x >> 27
	x *= 0x94D049BB133111EB
	x ^= x >> 31
	return float64(x>>11)/float64(1<<52) - 1
}
