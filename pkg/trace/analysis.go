package trace

import (
	"math"

	"linetrace/pkg/edges"
)

// directionalProfile summarizes how much the extra passes could add over the
// standard top-down raster pass.
type directionalProfile struct {
	// DiagonalBenefit in [0,1]: fraction of edge energy on diagonal
	// orientations, which the axis-aligned scans fragment the most.
	DiagonalBenefit float64
	// ReverseBenefit in [0,1]: how much edge energy sits in the bottom-right
	// half of the image, where the standard scan reaches contours last and
	// tends to pick them up mid-stroke.
	ReverseBenefit float64
}

// analyzeDirectional inspects the edge map and scores the optional passes.
// The caller skips passes whose score falls below the configured threshold.
func analyzeDirectional(m *edges.Map) directionalProfile {
	var total, diagonal, lower float64
	midX, midY := float64(m.W)/2, float64(m.H)/2
	for y := 0; y < m.H; y++ {
		for x := 0; x < m.W; x++ {
			i := y*m.W + x
			if !m.Edge[i] {
				continue
			}
			mag := float64(m.Mag[i])
			total += mag
			angle := math.Abs(math.Atan2(float64(m.DirY[i]), float64(m.DirX[i])))
			// Distance from the nearest axis orientation, peaking at 45°.
			for angle > math.Pi/2 {
				angle -= math.Pi / 2
			}
			if d := math.Min(angle, math.Pi/2-angle); d > math.Pi/8 {
				diagonal += mag
			}
			if float64(x) >= midX || float64(y) >= midY {
				lower += mag
			}
		}
	}
	if total == 0 {
		return directionalProfile{}
	}
	return directionalProfile{
		DiagonalBenefit: diagonal / total,
		// The bottom-right region holds 3/4 of a uniform image, so rescale to
		// put uniform content at 0.5 and bottom-heavy content above it.
		ReverseBenefit: math.Min(1, (lower/total)*(2.0/3.0)),
	}
}
