package edges

import (
	"math"

	"linetrace/pkg/raster"
)

// Flow is the smoothed edge tangent flow field. Tangents are unit vectors
// aligned with local edge direction; Coherency in [0,1] rates how anisotropic
// the neighborhood is (1 means a clean directional structure).
type Flow struct {
	W, H      int
	TX, TY    []float32
	Coherency []float32
}

// TangentAt returns the flow tangent at (x, y), zero outside the field.
func (f *Flow) TangentAt(x, y int) (float32, float32) {
	if x < 0 || y < 0 || x >= f.W || y >= f.H {
		return 0, 0
	}
	i := y*f.W + x
	return f.TX[i], f.TY[i]
}

const (
	etfIterations = 3
	etfRadius     = 4
)

// computeFlow builds the edge tangent flow from raw Sobel gradients. The
// initial field comes from structure tensor eigenanalysis; it is then refined
// by iterated weighted averaging so tangents align along coherent contours.
func computeFlow(gx, gy []float32, w, h int) (*Flow, error) {
	// Structure tensor components, smoothed so the eigenvectors describe the
	// neighborhood rather than single-pixel noise.
	exx := make([]float32, w*h)
	exy := make([]float32, w*h)
	eyy := make([]float32, w*h)
	for i := range gx {
		exx[i] = gx[i] * gx[i]
		exy[i] = gx[i] * gy[i]
		eyy[i] = gy[i] * gy[i]
	}
	var err error
	if exx, err = raster.GaussianBlur(exx, w, h, 2.0); err != nil {
		return nil, err
	}
	if exy, err = raster.GaussianBlur(exy, w, h, 2.0); err != nil {
		return nil, err
	}
	if eyy, err = raster.GaussianBlur(eyy, w, h, 2.0); err != nil {
		return nil, err
	}

	f := &Flow{
		W: w, H: h,
		TX:        make([]float32, w*h),
		TY:        make([]float32, w*h),
		Coherency: make([]float32, w*h),
	}
	err = raster.ParallelRows(h, func(y0, y1 int) error {
		for i := y0 * w; i < y1*w; i++ {
			a, b, c := float64(exx[i]), float64(exy[i]), float64(eyy[i])
			trace := a + c
			det := math.Sqrt((a-c)*(a-c) + 4*b*b)
			l1 := (trace + det) / 2
			l2 := (trace - det) / 2
			if trace > 1e-12 {
				f.Coherency[i] = float32((l1 - l2) / (l1 + l2 + 1e-12))
			}
			// The minor eigenvector runs along the edge.
			tx, ty := minorEigenvector(a, b, c, l1)
			f.TX[i] = float32(tx)
			f.TY[i] = float32(ty)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	mag := make([]float32, w*h)
	for i := range gx {
		mag[i] = float32(math.Hypot(float64(gx[i]), float64(gy[i])))
	}
	for it := 0; it < etfIterations; it++ {
		if err := refineFlow(f, mag); err != nil {
			return nil, err
		}
	}
	return f, nil
}

// minorEigenvector returns the unit eigenvector of the 2x2 tensor
// [[a b][b c]] for the smaller eigenvalue, which points along the edge.
func minorEigenvector(a, b, c, major float64) (float64, float64) {
	// The major eigenvector is (major-c, b); the tangent is its normal.
	tx, ty := -b, major-c
	l := math.Hypot(tx, ty)
	if l < 1e-12 {
		// Isotropic neighborhood; any direction serves.
		return 1, 0
	}
	return tx / l, ty / l
}

// refineFlow replaces each tangent with the magnitude- and alignment-weighted
// average of its neighborhood. Neighbors with stronger gradients pull harder;
// anti-parallel tangents are flipped before averaging so opposite sides of a
// stroke reinforce instead of cancel.
func refineFlow(f *Flow, mag []float32) error {
	w, h := f.W, f.H
	nx := make([]float32, w*h)
	ny := make([]float32, w*h)
	err := raster.ParallelRows(h, func(y0, y1 int) error {
		for y := y0; y < y1; y++ {
			for x := 0; x < w; x++ {
				i := y*w + x
				cx, cy := float64(f.TX[i]), float64(f.TY[i])
				cm := float64(mag[i])
				var sx, sy float64
				for dy := -etfRadius; dy <= etfRadius; dy++ {
					yy := y + dy
					if yy < 0 || yy >= h {
						continue
					}
					for dx := -etfRadius; dx <= etfRadius; dx++ {
						xx := x + dx
						if xx < 0 || xx >= w {
							continue
						}
						j := yy*w + xx
						tx, ty := float64(f.TX[j]), float64(f.TY[j])
						dot := cx*tx + cy*ty
						sign := 1.0
						if dot < 0 {
							sign = -1
							dot = -dot
						}
						// Magnitude weight favors the stronger neighbor.
						wm := (float64(mag[j]) - cm + 1) / 2
						if wm < 0 {
							wm = 0
						}
						wgt := wm * dot * sign
						sx += tx * wgt
						sy += ty * wgt
					}
				}
				l := math.Hypot(sx, sy)
				if l < 1e-12 {
					nx[i], ny[i] = f.TX[i], f.TY[i]
					continue
				}
				nx[i] = float32(sx / l)
				ny[i] = float32(sy / l)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	copy(f.TX, nx)
	copy(f.TY, ny)
	return nil
}

const (
	fdogSigmaC = 1.0
	fdogSigmaS = 1.6
	fdogSigmaM = 3.0
	fdogRho    = 0.99
)

// flowGuidedDoG evaluates a difference of Gaussians across the flow normal,
// then integrates the response along the flow tangent. Dark coherent lines
// yield a strong response; the result is normalized to [0,1] and substitutes
// for the raw gradient magnitude.
func flowGuidedDoG(lum []float32, f *Flow, w, h int) ([]float32, error) {
	sample := func(x, y float64) float64 {
		xi := clampInt(int(math.Round(x)), 0, w-1)
		yi := clampInt(int(math.Round(y)), 0, h-1)
		return float64(lum[yi*w+xi])
	}

	// Pass 1: 1-D DoG across the flow direction.
	radiusT := int(math.Ceil(3 * fdogSigmaS))
	hg := make([]float32, w*h)
	err := raster.ParallelRows(h, func(y0, y1 int) error {
		for y := y0; y < y1; y++ {
			for x := 0; x < w; x++ {
				i := y*w + x
				// The normal to the tangent crosses the line.
				nxv, nyv := float64(-f.TY[i]), float64(f.TX[i])
				var acc, norm float64
				for t := -radiusT; t <= radiusT; t++ {
					ft := gauss(float64(t), fdogSigmaC) - fdogRho*gauss(float64(t), fdogSigmaS)
					acc += sample(float64(x)+nxv*float64(t), float64(y)+nyv*float64(t)) * ft
					norm += math.Abs(ft)
				}
				if norm > 0 {
					hg[i] = float32(acc / norm)
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Pass 2: smooth the response along the flow by walking the tangent in
	// both directions.
	steps := int(math.Ceil(3 * fdogSigmaM))
	out := make([]float32, w*h)
	var maxResp float32
	err = raster.ParallelRows(h, func(y0, y1 int) error {
		for y := y0; y < y1; y++ {
			for x := 0; x < w; x++ {
				i := y*w + x
				acc := float64(hg[i]) * gauss(0, fdogSigmaM)
				norm := gauss(0, fdogSigmaM)
				for _, dir := range []float64{1, -1} {
					px, py := float64(x), float64(y)
					tx, ty := float64(f.TX[i])*dir, float64(f.TY[i])*dir
					for s := 1; s <= steps; s++ {
						px += tx
						py += ty
						xi := clampInt(int(math.Round(px)), 0, w-1)
						yi := clampInt(int(math.Round(py)), 0, h-1)
						j := yi*w + xi
						wgt := gauss(float64(s), fdogSigmaM)
						acc += float64(hg[j]) * wgt
						norm += wgt
						// Follow the field as it bends.
						ntx, nty := float64(f.TX[j]), float64(f.TY[j])
						if ntx*tx+nty*ty < 0 {
							ntx, nty = -ntx, -nty
						}
						tx, ty = ntx, nty
					}
				}
				// Negative responses mark line centers.
				v := acc / norm
				if v < 0 {
					out[i] = float32(math.Tanh(-v * 10))
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	for _, v := range out {
		if v > maxResp {
			maxResp = v
		}
	}
	if maxResp > 0 {
		inv := 1 / maxResp
		for i := range out {
			out[i] *= inv
		}
	}
	return out, nil
}

func gauss(t, sigma float64) float64 {
	return math.Exp(-t * t / (2 * sigma * sigma))
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
