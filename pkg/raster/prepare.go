package raster

import (
	"context"
	"image"
	"math"

	"golang.org/x/image/draw"

	"linetrace/pkg/cfg"
	"linetrace/pkg/color"
)

// Analysis is the normalized buffer set produced by Prepare and consumed by
// edge detection. Lum is row-major luminance in [0,1]; Src keeps the resized
// color pixels around for color sampling at document assembly.
type Analysis struct {
	Width  int
	Height int
	// Scale maps processed coordinates back to source: src = processed/Scale.
	Scale float64
	Lum   []float32
	Src   *image.NRGBA
}

// LumAt returns the luminance at (x, y), clamping coordinates to the buffer.
func (a *Analysis) LumAt(x, y int) float32 {
	if x < 0 {
		x = 0
	} else if x >= a.Width {
		x = a.Width - 1
	}
	if y < 0 {
		y = 0
	} else if y >= a.Height {
		y = a.Height - 1
	}
	return a.Lum[y*a.Width+x]
}

// Prepare resizes the input so its longer dimension fits within
// cfg.MaxDimension, converts to luminance, and optionally denoises. The input
// buffer is never modified. Prepare assumes the buffer and config were already
// validated at pipeline entry.
func Prepare(ctx context.Context, src *Buffer, c *cfg.Config) (*Analysis, error) {
	if err := src.Validate(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	img := src.NRGBA()
	scale := 1.0
	longer := src.Width
	if src.Height > longer {
		longer = src.Height
	}
	if longer > c.MaxDimension {
		scale = float64(c.MaxDimension) / float64(longer)
		w := int(math.Round(float64(src.Width) * scale))
		h := int(math.Round(float64(src.Height) * scale))
		if w < 1 {
			w = 1
		}
		if h < 1 {
			h = 1
		}
		dst := image.NewNRGBA(image.Rect(0, 0, w, h))
		// Area-style bilinear for downscale; Catmull-Rom would ring on
		// large reductions and is reserved for upscales.
		var scaler draw.Scaler = draw.ApproxBiLinear
		if scale > 1 {
			scaler = draw.CatmullRom
		}
		scaler.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)
		img = dst
	}

	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	an := &Analysis{
		Width:  w,
		Height: h,
		Scale:  scale,
		Lum:    make([]float32, w*h),
		Src:    img,
	}

	err := ParallelRows(h, func(y0, y1 int) error {
		for y := y0; y < y1; y++ {
			row := img.Pix[y*img.Stride : y*img.Stride+w*4]
			out := an.Lum[y*w : (y+1)*w]
			for x := 0; x < w; x++ {
				out[x] = color.Luminance(row[x*4], row[x*4+1], row[x*4+2])
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if c.NoiseFiltering {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		// Range sigma follows the image's own contrast so that flat scans
		// get strong smoothing and busy photos keep their edges.
		rangeSigma := contentRangeSigma(an.Lum)
		filtered, err := bilateral(an.Lum, w, h, 2.0, rangeSigma)
		if err != nil {
			return nil, err
		}
		filtered, err = GaussianBlur(filtered, w, h, 0.8)
		if err != nil {
			return nil, err
		}
		an.Lum = filtered
	}
	return an, nil
}

// contentRangeSigma derives the bilateral range sigma from the global
// luminance spread, clamped to keep the filter useful on extreme inputs.
func contentRangeSigma(lum []float32) float64 {
	if len(lum) == 0 {
		return 0.1
	}
	var sum, sumSq float64
	for _, v := range lum {
		sum += float64(v)
		sumSq += float64(v) * float64(v)
	}
	n := float64(len(lum))
	mean := sum / n
	variance := sumSq/n - mean*mean
	if variance < 0 {
		variance = 0
	}
	sigma := 2 * math.Sqrt(variance)
	return math.Max(0.05, math.Min(0.3, sigma))
}

// bilateral is an edge-preserving smoother: each output pixel is a weighted
// average of its neighborhood where the weight falls off with both spatial
// and luminance distance.
func bilateral(lum []float32, w, h int, spatialSigma, rangeSigma float64) ([]float32, error) {
	radius := int(math.Ceil(2 * spatialSigma))
	spatial := make([]float64, (2*radius+1)*(2*radius+1))
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			d2 := float64(dx*dx + dy*dy)
			spatial[(dy+radius)*(2*radius+1)+(dx+radius)] =
				math.Exp(-d2 / (2 * spatialSigma * spatialSigma))
		}
	}
	invRange := 1 / (2 * rangeSigma * rangeSigma)

	out := make([]float32, len(lum))
	err := ParallelRows(h, func(y0, y1 int) error {
		for y := y0; y < y1; y++ {
			for x := 0; x < w; x++ {
				center := float64(lum[y*w+x])
				var acc, norm float64
				for dy := -radius; dy <= radius; dy++ {
					yy := clampInt(y+dy, 0, h-1)
					for dx := -radius; dx <= radius; dx++ {
						xx := clampInt(x+dx, 0, w-1)
						v := float64(lum[yy*w+xx])
						diff := v - center
						wgt := spatial[(dy+radius)*(2*radius+1)+(dx+radius)] *
							math.Exp(-diff*diff*invRange)
						acc += v * wgt
						norm += wgt
					}
				}
				out[y*w+x] = float32(acc / norm)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// GaussianBlur applies a separable Gaussian with the given sigma. Borders are
// clamped. A sigma at or below zero returns the input unchanged.
func GaussianBlur(lum []float32, w, h int, sigma float64) ([]float32, error) {
	if sigma <= 0 {
		return lum, nil
	}
	kernel := gaussianKernel(sigma)
	radius := len(kernel) / 2

	tmp := make([]float32, len(lum))
	err := ParallelRows(h, func(y0, y1 int) error {
		for y := y0; y < y1; y++ {
			for x := 0; x < w; x++ {
				var acc float64
				for k := -radius; k <= radius; k++ {
					xx := clampInt(x+k, 0, w-1)
					acc += float64(lum[y*w+xx]) * kernel[k+radius]
				}
				tmp[y*w+x] = float32(acc)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	out := make([]float32, len(lum))
	err = ParallelRows(h, func(y0, y1 int) error {
		for y := y0; y < y1; y++ {
			for x := 0; x < w; x++ {
				var acc float64
				for k := -radius; k <= radius; k++ {
					yy := clampInt(y+k, 0, h-1)
					acc += float64(tmp[yy*w+x]) * kernel[k+radius]
				}
				out[y*w+x] = float32(acc)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func gaussianKernel(sigma float64) []float64 {
	radius := int(math.Ceil(3 * sigma))
	if radius < 1 {
		radius = 1
	}
	kernel := make([]float64, 2*radius+1)
	sum := 0.0
	for i := -radius; i <= radius; i++ {
		v := math.Exp(-float64(i*i) / (2 * sigma * sigma))
		kernel[i+radius] = v
		sum += v
	}
	for i := range kernel {
		kernel[i] /= sum
	}
	return kernel
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
