// Package svgpath models SVG path geometry as subpaths of absolute draw
// commands and serializes them as path data strings.
package svgpath

import (
	"strconv"
	"strings"
)

type SubPath struct {
	X, Y   float64
	DrawTo []*DrawTo
}

type Command string

const (
	ClosePath Command = "Z"
	LineTo    Command = "L"
	CurveTo   Command = "C"
)

type DrawTo struct {
	Command Command
	X, Y    float64
	X1, Y1  float64
	X2, Y2  float64
}

// EndPoint returns the point the subpath ends on after its last command.
func (s *SubPath) EndPoint() (float64, float64) {
	for i := len(s.DrawTo) - 1; i >= 0; i-- {
		d := s.DrawTo[i]
		if d.Command == ClosePath {
			return s.X, s.Y
		}
		return d.X, d.Y
	}
	return s.X, s.Y
}

// FormatNumber renders a coordinate with the given number of decimal places,
// trimming trailing zeros so output stays compact.
func FormatNumber(n float64, precision int) string {
	s := strconv.FormatFloat(n, 'f', precision, 64)
	if precision > 0 && strings.Contains(s, ".") {
		s = strings.TrimRight(s, "0")
		s = strings.TrimSuffix(s, ".")
	}
	if s == "-0" {
		s = "0"
	}
	return s
}

// ToString serializes the subpaths as SVG path data. Coordinates are rounded
// to the given precision; the output is a pure function of the input.
func ToString(groups []*SubPath, precision int) string {
	var buf strings.Builder

	f := func(n float64) string {
		return FormatNumber(n, precision)
	}
	for i, group := range groups {
		if i > 0 {
			buf.WriteString(" ")
		}
		buf.WriteString("M " + f(group.X) + " " + f(group.Y))
		for _, drawTo := range group.DrawTo {
			switch drawTo.Command {
			case LineTo:
				buf.WriteString(" L " + f(drawTo.X) + " " + f(drawTo.Y))
			case CurveTo:
				buf.WriteString(" C " +
					f(drawTo.X1) + " " + f(drawTo.Y1) + " " +
					f(drawTo.X2) + " " + f(drawTo.Y2) + " " +
					f(drawTo.X) + " " + f(drawTo.Y))
			case ClosePath:
				buf.WriteString(" Z")
			}
		}
	}

	return buf.String()
}
