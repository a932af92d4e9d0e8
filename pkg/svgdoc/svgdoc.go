// Package svgdoc assembles stylized strokes into the final SVG document:
// styling and color assignment, degenerate-geometry pruning, and XML
// serialization.
package svgdoc

import (
	"encoding/xml"
	"fmt"
	"math"
	"strings"

	"linetrace/pkg/cfg"
	"linetrace/pkg/color"
	"linetrace/pkg/raster"
	"linetrace/pkg/style"
	"linetrace/pkg/svgpath"
)

// Entry is one drawable path with its resolved styling.
type Entry struct {
	Path    []*svgpath.SubPath
	Color   string
	Width   float64
	Opacity float64
}

// Document is the assembled vector document. It is append-only during
// assembly and treated as immutable once serialized.
type Document struct {
	Width     int
	Height    int
	Precision int
	Entries   []*Entry
}

// PathCount returns the number of drawable entries.
func (d *Document) PathCount() int { return len(d.Entries) }

// Assemble converts strokes from processed-image coordinates into a document
// on the source-image canvas. Degenerate entries (zero-extent or exact
// duplicates) are dropped. src supplies pixels for color sampling in
// PreserveColor mode; scale is the processed/source ratio from preprocessing.
func Assemble(strokes []style.Stroke, src *raster.Buffer, scale float64, c *cfg.Config) *Document {
	doc := &Document{
		Width:     src.Width,
		Height:    src.Height,
		Precision: c.Precision,
	}
	if scale <= 0 {
		scale = 1
	}
	inv := 1 / scale
	baseWidth := c.StrokeWidthFor(src.Width, src.Height)

	seen := make(map[string]bool)
	for i := range strokes {
		s := &strokes[i]
		if len(s.Segments) == 0 {
			continue
		}
		sub := strokeSubPath(s, inv)
		if degenerate(sub) {
			continue
		}
		d := svgpath.ToString([]*svgpath.SubPath{sub}, c.Precision)
		if seen[d] {
			continue
		}
		seen[d] = true

		width := baseWidth * meanWidth(s.Widths)
		if width < 0.1 {
			width = 0.1
		}
		doc.Entries = append(doc.Entries, &Entry{
			Path:    []*svgpath.SubPath{sub},
			Color:   strokeColor(s, src, inv, c),
			Width:   width,
			Opacity: s.Opacity,
		})
	}
	return doc
}

func strokeSubPath(s *style.Stroke, inv float64) *svgpath.SubPath {
	first := s.Segments[0]
	sub := &svgpath.SubPath{X: first.P0.X * inv, Y: first.P0.Y * inv}
	for _, seg := range s.Segments {
		sub.DrawTo = append(sub.DrawTo, &svgpath.DrawTo{
			Command: svgpath.CurveTo,
			X1:      seg.P1.X * inv, Y1: seg.P1.Y * inv,
			X2: seg.P2.X * inv, Y2: seg.P2.Y * inv,
			X: seg.P3.X * inv, Y: seg.P3.Y * inv,
		})
	}
	if s.Closed {
		sub.DrawTo = append(sub.DrawTo, &svgpath.DrawTo{
			Command: svgpath.ClosePath, X: sub.X, Y: sub.Y,
		})
	}
	return sub
}

// degenerate reports whether the subpath spans no area at all, within a
// half-pixel in both axes.
func degenerate(sub *svgpath.SubPath) bool {
	minX, maxX := sub.X, sub.X
	minY, maxY := sub.Y, sub.Y
	for _, d := range sub.DrawTo {
		minX = math.Min(minX, d.X)
		maxX = math.Max(maxX, d.X)
		minY = math.Min(minY, d.Y)
		maxY = math.Max(maxY, d.Y)
	}
	return maxX-minX < 0.5 && maxY-minY < 0.5
}

func meanWidth(widths []float64) float64 {
	if len(widths) == 0 {
		return 1
	}
	sum := 0.0
	for _, w := range widths {
		sum += w
	}
	return sum / float64(len(widths))
}

// strokeColor picks the entry color: the uniform line color, or the average
// source color sampled under the stroke's on-curve points.
func strokeColor(s *style.Stroke, src *raster.Buffer, inv float64, c *cfg.Config) string {
	if c.ColorMode != cfg.PreserveColor {
		return c.LineColor
	}
	var avg color.Average
	samplePoint := func(x, y float64) {
		xi := int(math.Round(x * inv))
		yi := int(math.Round(y * inv))
		if xi < 0 || yi < 0 || xi >= src.Width || yi >= src.Height {
			return
		}
		r, g, b, _ := src.At(xi, yi)
		avg.Add(r, g, b)
	}
	samplePoint(s.Segments[0].P0.X, s.Segments[0].P0.Y)
	for _, seg := range s.Segments {
		// Midpoint sample catches the color between the anchors.
		mid := seg.At(0.5)
		samplePoint(mid.X, mid.Y)
		samplePoint(seg.P3.X, seg.P3.Y)
	}
	if avg.Count() == 0 {
		return c.LineColor
	}
	return avg.RGB().Hex()
}

type svgNode struct {
	XMLName  xml.Name
	Xmlns    string     `xml:"xmlns,attr,omitempty"`
	Width    string     `xml:"width,attr,omitempty"`
	Height   string     `xml:"height,attr,omitempty"`
	ViewBox  string     `xml:"viewBox,attr,omitempty"`
	Version  string     `xml:"version,attr,omitempty"`
	D        string     `xml:"d,attr,omitempty"`
	Styles   string     `xml:"style,attr,omitempty"`
	Children []*svgNode `xml:",any"`
}

// Marshal serializes the document as standalone SVG markup. Serialization is
// a pure function of the document: the same document always yields the same
// bytes.
func (d *Document) Marshal() ([]byte, error) {
	root := &svgNode{
		XMLName: xml.Name{Local: "svg"},
		Xmlns:   "http://www.w3.org/2000/svg",
		Width:   fmt.Sprintf("%d", d.Width),
		Height:  fmt.Sprintf("%d", d.Height),
		ViewBox: fmt.Sprintf("0 0 %d %d", d.Width, d.Height),
		Version: "1.1",
	}
	for _, e := range d.Entries {
		var sb strings.Builder
		sb.WriteString("fill:none;stroke:")
		sb.WriteString(e.Color)
		sb.WriteString(";stroke-width:")
		sb.WriteString(svgpath.FormatNumber(e.Width, 2))
		if e.Opacity < 1 {
			sb.WriteString(";stroke-opacity:")
			sb.WriteString(svgpath.FormatNumber(e.Opacity, 2))
		}
		sb.WriteString(";stroke-linecap:round;stroke-linejoin:round")
		root.Children = append(root.Children, &svgNode{
			XMLName: xml.Name{Local: "path"},
			D:       svgpath.ToString(e.Path, d.Precision),
			Styles:  sb.String(),
		})
	}
	return xml.MarshalIndent(root, "", "  ")
}
