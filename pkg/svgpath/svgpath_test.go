package svgpath

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		n         float64
		precision int
		want      string
	}{
		{1.23456, 2, "1.23"},
		{1.20000, 2, "1.2"},
		{1.00000, 2, "1"},
		{-0.004, 2, "0"},
		{10, 0, "10"},
		{2.5, 0, "2"},
		{1.23456, 4, "1.2346"},
	}
	for _, tt := range tests {
		if got := FormatNumber(tt.n, tt.precision); got != tt.want {
			t.Errorf("FormatNumber(%v, %d) = %q, want %q", tt.n, tt.precision, got, tt.want)
		}
	}
}

func TestToString(t *testing.T) {
	paths := []*SubPath{
		{
			X: 1.004, Y: 2,
			DrawTo: []*DrawTo{
				{Command: CurveTo, X1: 2, Y1: 2, X2: 3, Y2: 4, X: 4.5, Y: 4},
				{Command: LineTo, X: 6, Y: 4},
				{Command: ClosePath, X: 1.004, Y: 2},
			},
		},
		{
			X: 10, Y: 10,
			DrawTo: []*DrawTo{
				{Command: LineTo, X: 12.345, Y: 10},
			},
		},
	}
	want := "M 1 2 C 2 2 3 4 4.5 4 L 6 4 Z M 10 10 L 12.35 10"
	if diff := cmp.Diff(want, ToString(paths, 2)); diff != "" {
		t.Errorf("ToString mismatch (-want +got):\n%s", diff)
	}
}

func TestEndPoint(t *testing.T) {
	open := &SubPath{X: 1, Y: 1, DrawTo: []*DrawTo{{Command: LineTo, X: 5, Y: 6}}}
	if x, y := open.EndPoint(); x != 5 || y != 6 {
		t.Errorf("open end point (%g,%g), want (5,6)", x, y)
	}
	closed := &SubPath{X: 1, Y: 1, DrawTo: []*DrawTo{
		{Command: LineTo, X: 5, Y: 6},
		{Command: ClosePath, X: 1, Y: 1},
	}}
	if x, y := closed.EndPoint(); x != 1 || y != 1 {
		t.Errorf("closed end point (%g,%g), want the start (1,1)", x, y)
	}
	empty := &SubPath{X: 3, Y: 4}
	if x, y := empty.EndPoint(); x != 3 || y != 4 {
		t.Errorf("empty end point (%g,%g), want (3,4)", x, y)
	}
}
