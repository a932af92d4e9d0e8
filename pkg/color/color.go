// Package color holds the small color conversions the pipeline needs:
// luminance for analysis, hex notation for SVG styling, and averaging for
// per-path color sampling.
package color

import "fmt"

// RGB is an 8-bit sRGB triple.
type RGB struct {
	R, G, B byte
}

// Luminance converts an sRGB triple to Rec. 601 luma in [0,1].
func Luminance(r, g, b byte) float32 {
	return (0.299*float32(r) + 0.587*float32(g) + 0.114*float32(b)) / 255
}

// Hex renders the color as #rrggbb for SVG attributes.
func (c RGB) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// ParseHex parses #rrggbb (the leading # is required).
func ParseHex(s string) (RGB, error) {
	var c RGB
	if len(s) != 7 || s[0] != '#' {
		return c, fmt.Errorf("color %q is not #rrggbb", s)
	}
	if _, err := fmt.Sscanf(s[1:], "%02x%02x%02x", &c.R, &c.G, &c.B); err != nil {
		return c, fmt.Errorf("color %q is not #rrggbb: %v", s, err)
	}
	return c, nil
}

// Average accumulates sampled colors and reports their mean. The zero value
// is ready to use; an empty average reports black.
type Average struct {
	r, g, b uint64
	n       uint64
}

func (a *Average) Add(r, g, b byte) {
	a.r += uint64(r)
	a.g += uint64(g)
	a.b += uint64(b)
	a.n++
}

func (a *Average) Count() int { return int(a.n) }

func (a *Average) RGB() RGB {
	if a.n == 0 {
		return RGB{}
	}
	return RGB{
		R: byte(a.r / a.n),
		G: byte(a.g / a.n),
		B: byte(a.b / a.n),
	}
}
