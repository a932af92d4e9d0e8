// Package raster holds the input pixel buffer and the preprocessing stage
// that turns it into normalized analysis buffers for edge detection.
package raster

import (
	"fmt"
	"image"

	"golang.org/x/sync/errgroup"
)

// Buffer is an owned, interleaved 8-bit raster. Channels is 3 (RGB) or 4
// (RGBA). A Buffer is immutable once constructed; later stages produce new
// buffers instead of mutating it.
type Buffer struct {
	Width    int
	Height   int
	Channels int
	Pix      []byte
}

// FromImage copies an image.Image into a 4-channel Buffer.
func FromImage(img image.Image) *Buffer {
	b := img.Bounds()
	buf := &Buffer{
		Width:    b.Dx(),
		Height:   b.Dy(),
		Channels: 4,
		Pix:      make([]byte, b.Dx()*b.Dy()*4),
	}
	i := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bb, a := img.At(x, y).RGBA()
			buf.Pix[i] = byte(r >> 8)
			buf.Pix[i+1] = byte(g >> 8)
			buf.Pix[i+2] = byte(bb >> 8)
			buf.Pix[i+3] = byte(a >> 8)
			i += 4
		}
	}
	return buf
}

// Validate checks the declared dimensions against the pixel data. It does not
// enforce resource limits; those are checked at pipeline entry.
func (b *Buffer) Validate() error {
	if b == nil {
		return fmt.Errorf("nil raster buffer")
	}
	if b.Width <= 0 || b.Height <= 0 {
		return fmt.Errorf("zero-area raster %dx%d", b.Width, b.Height)
	}
	if b.Channels != 3 && b.Channels != 4 {
		return fmt.Errorf("unsupported channel count %d", b.Channels)
	}
	if want := b.Width * b.Height * b.Channels; len(b.Pix) != want {
		return fmt.Errorf("pixel buffer length %d does not match %dx%dx%d=%d",
			len(b.Pix), b.Width, b.Height, b.Channels, want)
	}
	return nil
}

// At returns the RGBA components at (x, y). RGB buffers report full alpha.
func (b *Buffer) At(x, y int) (r, g, bb, a byte) {
	i := (y*b.Width + x) * b.Channels
	if b.Channels == 3 {
		return b.Pix[i], b.Pix[i+1], b.Pix[i+2], 0xff
	}
	return b.Pix[i], b.Pix[i+1], b.Pix[i+2], b.Pix[i+3]
}

// NRGBA copies the buffer into a standard image for resampling.
func (b *Buffer) NRGBA() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, b.Width, b.Height))
	for y := 0; y < b.Height; y++ {
		for x := 0; x < b.Width; x++ {
			r, g, bb, a := b.At(x, y)
			i := img.PixOffset(x, y)
			img.Pix[i] = r
			img.Pix[i+1] = g
			img.Pix[i+2] = bb
			img.Pix[i+3] = a
		}
	}
	return img
}

// ParallelRows runs fn over horizontal bands of rows concurrently. Bands are
// disjoint, so fn may write to per-row output without synchronization.
func ParallelRows(height int, fn func(y0, y1 int) error) error {
	const bands = 8
	if height < bands*4 {
		return fn(0, height)
	}
	var g errgroup.Group
	step := (height + bands - 1) / bands
	for y := 0; y < height; y += step {
		y0, y1 := y, y+step
		if y1 > height {
			y1 = height
		}
		g.Go(func() error { return fn(y0, y1) })
	}
	return g.Wait()
}
