package geometry

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestSimplify(t *testing.T) {
	tests := []struct {
		name    string
		points  Polyline
		epsilon float64
		want    Polyline
	}{
		{
			name:    "too few points",
			points:  Polyline{{X: 1, Y: 1}},
			epsilon: 1,
			want:    nil,
		},
		{
			name:    "two points pass through",
			points:  Polyline{{X: 0, Y: 0}, {X: 5, Y: 5}},
			epsilon: 1,
			want:    Polyline{{X: 0, Y: 0}, {X: 5, Y: 5}},
		},
		{
			name: "collinear collapses to endpoints",
			points: Polyline{
				{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 2, Y: 0}, {X: 3, Y: 0},
			},
			epsilon: 0.5,
			want:    Polyline{{X: 0, Y: 0}, {X: 3, Y: 0}},
		},
		{
			name: "corner is kept",
			points: Polyline{
				{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 2, Y: 0}, {X: 2, Y: 1}, {X: 2, Y: 2},
			},
			epsilon: 0.5,
			want:    Polyline{{X: 0, Y: 0}, {X: 2, Y: 0}, {X: 2, Y: 2}},
		},
		{
			name: "small wiggle removed",
			points: Polyline{
				{X: 0, Y: 0}, {X: 1, Y: 0.2}, {X: 2, Y: -0.2}, {X: 3, Y: 0},
			},
			epsilon: 0.5,
			want:    Polyline{{X: 0, Y: 0}, {X: 3, Y: 0}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.points.Simplify(tt.epsilon)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Simplify mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSimplifyBounds(t *testing.T) {
	// A noisy sine arc: output must be no longer than input and every input
	// point must stay within epsilon of the simplified chain.
	var points Polyline
	for i := 0; i <= 200; i++ {
		x := float64(i) * 0.5
		points = append(points, Point{X: x, Y: 20 * math.Sin(x/15)})
	}
	for _, epsilon := range []float64{0.1, 0.5, 2.0, 10.0} {
		got := points.Simplify(epsilon)
		if len(got) > len(points) {
			t.Errorf("epsilon %g: simplified has more points (%d) than input (%d)",
				epsilon, len(got), len(points))
		}
		if got[0] != points[0] || got[len(got)-1] != points[len(points)-1] {
			t.Errorf("epsilon %g: endpoints not preserved", epsilon)
		}
		if dev := MaxDeviation(points, got); dev > epsilon {
			t.Errorf("epsilon %g: max deviation %g exceeds tolerance", epsilon, dev)
		}
	}
}

func TestSmoothKeepEnds(t *testing.T) {
	points := Polyline{{X: 0, Y: 0}, {X: 1, Y: 1}, {X: 2, Y: -1}, {X: 3, Y: 0}}
	smoothed := points.SmoothKeepEnds(2)
	if smoothed[0] != points[0] || smoothed[len(smoothed)-1] != points[len(points)-1] {
		t.Fatal("smoothing moved an endpoint")
	}
	if len(smoothed) != len(points) {
		t.Fatalf("smoothing changed point count: %d != %d", len(smoothed), len(points))
	}
	// Interior roughness must not increase.
	if math.Abs(smoothed[1].Y-smoothed[2].Y) >= math.Abs(points[1].Y-points[2].Y) {
		t.Error("smoothing did not reduce interior variation")
	}
}

func TestSegmentDistance(t *testing.T) {
	seg := LineSegment{A: Point{X: 0, Y: 0}, B: Point{X: 10, Y: 0}}
	tests := []struct {
		p    Point
		want float64
	}{
		{Point{X: 5, Y: 3}, 3},
		{Point{X: -4, Y: 0}, 4},
		{Point{X: 13, Y: 4}, 5},
		{Point{X: 0, Y: 0}, 0},
	}
	for _, tt := range tests {
		if got := seg.Distance(tt.p); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("Distance(%v) = %g, want %g", tt.p, got, tt.want)
		}
	}
}

func TestCurvature(t *testing.T) {
	straight := Polyline{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 2, Y: 0}}
	if c := straight.Curvature(1); c != 0 {
		t.Errorf("straight line curvature = %g, want 0", c)
	}
	bend := Polyline{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}}
	if c := bend.Curvature(1); c <= 0 {
		t.Errorf("right-angle curvature = %g, want > 0", c)
	}
}
