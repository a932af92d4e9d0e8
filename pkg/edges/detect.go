// Package edges computes the edge map and the optional tangent flow field
// that the tracer follows. Detection is gradient based: Sobel derivatives,
// non-maximum suppression, then adaptive double thresholding with a bounded
// hysteresis expansion.
package edges

import (
	"context"
	"math"

	"linetrace/pkg/cfg"
	"linetrace/pkg/raster"
)

// Map is the per-pixel edge data shared read-only by the tracing passes.
// Direction is meaningful only where Edge is set.
type Map struct {
	W, H int
	// Mag is the normalized edge strength in [0,1].
	Mag []float32
	// DirX, DirY is the unit gradient direction (normal to the edge).
	DirX, DirY []float32
	// Edge marks pixels that survived suppression and thresholding.
	Edge []bool
}

// Index returns the flat offset of (x, y) with no bounds check.
func (m *Map) Index(x, y int) int { return y*m.W + x }

// EdgeAt reports whether (x, y) is an edge pixel, false outside the map.
func (m *Map) EdgeAt(x, y int) bool {
	if x < 0 || y < 0 || x >= m.W || y >= m.H {
		return false
	}
	return m.Edge[y*m.W+x]
}

// CountEdges returns the number of edge pixels.
func (m *Map) CountEdges() int {
	n := 0
	for _, e := range m.Edge {
		if e {
			n++
		}
	}
	return n
}

// Detect runs edge detection on the preprocessed buffer. A blank image is not
// an error; it yields a map with no edge pixels. The flow field is nil unless
// enabled in the config.
func Detect(ctx context.Context, an *raster.Analysis, c *cfg.Config) (*Map, *Flow, error) {
	th := cfg.DeriveThresholds(c, an.Width, an.Height)
	return detect(ctx, an, c, th)
}

// DetectWith is Detect with explicit thresholds, for callers that derive
// their own instead of using the detail knob.
func DetectWith(ctx context.Context, an *raster.Analysis, c *cfg.Config, th cfg.Thresholds) (*Map, *Flow, error) {
	return detect(ctx, an, c, th)
}

func detect(ctx context.Context, an *raster.Analysis, c *cfg.Config, th cfg.Thresholds) (*Map, *Flow, error) {
	w, h := an.Width, an.Height

	// Pre-smoothing before differentiation. Higher detail settings blur a
	// touch more so the lowered thresholds do not fire on pixel noise.
	sigma := 1.0 + c.Detail
	lum, err := raster.GaussianBlur(an.Lum, w, h, sigma)
	if err != nil {
		return nil, nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	m := &Map{
		W: w, H: h,
		Mag:  make([]float32, w*h),
		DirX: make([]float32, w*h),
		DirY: make([]float32, w*h),
		Edge: make([]bool, w*h),
	}
	gx, gy := sobel(lum, w, h)
	if err := gradientMagnitude(m, gx, gy); err != nil {
		return nil, nil, err
	}

	var flow *Flow
	if c.FlowField {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		flow, err = computeFlow(gx, gy, w, h)
		if err != nil {
			return nil, nil, err
		}
		// The flow-guided response replaces the raw magnitude so that
		// suppression and thresholding operate on the coherent signal.
		resp, err := flowGuidedDoG(lum, flow, w, h)
		if err != nil {
			return nil, nil, err
		}
		m.Mag = resp
	}

	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	suppressed := nonMaxSuppress(m)
	strong, weak := adaptiveThreshold(suppressed, w, h, th)
	hysteresis(m, strong, weak)
	return m, flow, nil
}

func sobel(lum []float32, w, h int) (gx, gy []float32) {
	gx = make([]float32, w*h)
	gy = make([]float32, w*h)
	at := func(x, y int) float32 {
		if x < 0 {
			x = 0
		} else if x >= w {
			x = w - 1
		}
		if y < 0 {
			y = 0
		} else if y >= h {
			y = h - 1
		}
		return lum[y*w+x]
	}
	raster.ParallelRows(h, func(y0, y1 int) error {
		for y := y0; y < y1; y++ {
			for x := 0; x < w; x++ {
				tl, tc, tr := at(x-1, y-1), at(x, y-1), at(x+1, y-1)
				ml, mr := at(x-1, y), at(x+1, y)
				bl, bc, br := at(x-1, y+1), at(x, y+1), at(x+1, y+1)
				gx[y*w+x] = (tr + 2*mr + br) - (tl + 2*ml + bl)
				gy[y*w+x] = (bl + 2*bc + br) - (tl + 2*tc + tr)
			}
		}
		return nil
	})
	return gx, gy
}

// gradientMagnitude fills Mag with the normalized L1 magnitude and DirX/DirY
// with the unit gradient direction.
func gradientMagnitude(m *Map, gx, gy []float32) error {
	var maxMag float32
	for i := range gx {
		mag := float32(math.Abs(float64(gx[i])) + math.Abs(float64(gy[i])))
		m.Mag[i] = mag
		if mag > maxMag {
			maxMag = mag
		}
	}
	if maxMag == 0 {
		return nil
	}
	inv := 1 / maxMag
	return raster.ParallelRows(m.H, func(y0, y1 int) error {
		for i := y0 * m.W; i < y1*m.W; i++ {
			m.Mag[i] *= inv
			l := float32(math.Hypot(float64(gx[i]), float64(gy[i])))
			if l > 0 {
				m.DirX[i] = gx[i] / l
				m.DirY[i] = gy[i] / l
			}
		}
		return nil
	})
}

// nonMaxSuppress thins the magnitude ridge to one pixel across the gradient
// direction, quantized to the four principal angles.
func nonMaxSuppress(m *Map) []float32 {
	w, h := m.W, m.H
	out := make([]float32, w*h)
	magAt := func(x, y int) float32 {
		if x < 0 || y < 0 || x >= w || y >= h {
			return 0
		}
		return m.Mag[y*w+x]
	}
	raster.ParallelRows(h, func(y0, y1 int) error {
		for y := y0; y < y1; y++ {
			for x := 0; x < w; x++ {
				i := y*w + x
				mag := m.Mag[i]
				if mag == 0 {
					continue
				}
				dx, dy := neighborOffset(m.DirX[i], m.DirY[i])
				if mag >= magAt(x+dx, y+dy) && mag >= magAt(x-dx, y-dy) {
					out[i] = mag
				}
			}
		}
		return nil
	})
	return out
}

// neighborOffset quantizes a unit gradient to the nearest of the four
// principal directions and returns the step toward the positive side.
func neighborOffset(dx, dy float32) (int, int) {
	angle := math.Atan2(float64(dy), float64(dx))
	if angle < 0 {
		angle += math.Pi
	}
	switch {
	case angle < math.Pi/8 || angle >= 7*math.Pi/8:
		return 1, 0
	case angle < 3*math.Pi/8:
		return 1, 1
	case angle < 5*math.Pi/8:
		return 0, 1
	default:
		return -1, 1
	}
}

// adaptiveThreshold classifies suppressed magnitudes into strong and weak
// sets. The hysteresis cutoffs are scaled per pixel by local mean and
// deviation over the configured window, so low-contrast regions still
// contribute edges while busy regions do not flood the tracer.
func adaptiveThreshold(mag []float32, w, h int, th cfg.Thresholds) (strong, weak []bool) {
	strong = make([]bool, w*h)
	weak = make([]bool, w*h)

	sum, sumSq := integralImages(mag, w, h)
	var gSum, gSumSq float64
	for _, v := range mag {
		gSum += float64(v)
		gSumSq += float64(v) * float64(v)
	}
	n := float64(w * h)
	gMean := gSum / n
	gStd := math.Sqrt(math.Max(0, gSumSq/n-gMean*gMean))
	norm := gMean + th.Sensitivity*gStd
	if norm < 1e-9 {
		norm = 1e-9
	}

	r := th.Window / 2
	raster.ParallelRows(h, func(y0, y1 int) error {
		for y := y0; y < y1; y++ {
			for x := 0; x < w; x++ {
				i := y*w + x
				if mag[i] == 0 {
					continue
				}
				mean, std := windowStats(sum, sumSq, w, h, x, y, r)
				scale := (mean + th.Sensitivity*std) / norm
				if scale < 0.5 {
					scale = 0.5
				} else if scale > 1.5 {
					scale = 1.5
				}
				high := th.HighThreshold * scale
				low := th.LowThreshold * scale
				v := float64(mag[i])
				if v >= high {
					strong[i] = true
				} else if v >= low {
					weak[i] = true
				}
			}
		}
		return nil
	})
	return strong, weak
}

// integralImages returns summed-area tables of mag and mag squared, each with
// an extra leading row and column of zeros.
func integralImages(mag []float32, w, h int) (sum, sumSq []float64) {
	sum = make([]float64, (w+1)*(h+1))
	sumSq = make([]float64, (w+1)*(h+1))
	for y := 0; y < h; y++ {
		var rowSum, rowSumSq float64
		for x := 0; x < w; x++ {
			v := float64(mag[y*w+x])
			rowSum += v
			rowSumSq += v * v
			sum[(y+1)*(w+1)+x+1] = sum[y*(w+1)+x+1] + rowSum
			sumSq[(y+1)*(w+1)+x+1] = sumSq[y*(w+1)+x+1] + rowSumSq
		}
	}
	return sum, sumSq
}

func windowStats(sum, sumSq []float64, w, h, x, y, r int) (mean, std float64) {
	x0, y0 := x-r, y-r
	x1, y1 := x+r+1, y+r+1
	if x0 < 0 {
		x0 = 0
	}
	if y0 < 0 {
		y0 = 0
	}
	if x1 > w {
		x1 = w
	}
	if y1 > h {
		y1 = h
	}
	area := float64((x1 - x0) * (y1 - y0))
	s := sum[y1*(w+1)+x1] - sum[y0*(w+1)+x1] - sum[y1*(w+1)+x0] + sum[y0*(w+1)+x0]
	sq := sumSq[y1*(w+1)+x1] - sumSq[y0*(w+1)+x1] - sumSq[y1*(w+1)+x0] + sumSq[y0*(w+1)+x0]
	mean = s / area
	std = math.Sqrt(math.Max(0, sq/area-mean*mean))
	return mean, std
}

// hysteresis seeds the edge set from strong pixels and grows it into weak
// neighbors. Growth is capped at three sweeps, which bounds the work on
// pathological inputs while connecting any realistic gap.
func hysteresis(m *Map, strong, weak []bool) {
	w, h := m.W, m.H
	copy(m.Edge, strong)
	for sweep := 0; sweep < 3; sweep++ {
		changed := false
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				i := y*w + x
				if !weak[i] || m.Edge[i] {
					continue
				}
			neighbors:
				for dy := -1; dy <= 1; dy++ {
					for dx := -1; dx <= 1; dx++ {
						if m.EdgeAt(x+dx, y+dy) {
							m.Edge[i] = true
							changed = true
							break neighbors
						}
					}
				}
			}
		}
		if !changed {
			break
		}
	}
}
