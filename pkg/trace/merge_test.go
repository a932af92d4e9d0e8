package trace

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"linetrace/pkg/cfg"
	"linetrace/pkg/geometry"
)

func line(x0, y float64, n int, id int, pass Pass, strength float64) RawPath {
	points := make(geometry.Polyline, n)
	for i := range points {
		points[i] = geometry.Point{X: x0 + float64(i), Y: y}
	}
	return RawPath{ID: id, Pass: pass, Points: points, Strength: strength}
}

func TestMergeDropsFullDuplicate(t *testing.T) {
	th := cfg.Thresholds{MinBranchLength: 5}
	paths := []RawPath{
		line(0, 10, 20, 1, PassStandard, 0.9),
		line(0, 11, 20, 2, PassReverse, 0.5), // within the dedup band
	}
	got := mergePaths(paths, th)
	if len(got) != 1 {
		t.Fatalf("got %d paths, want 1 after dedup", len(got))
	}
	if got[0].ID != 1 {
		t.Errorf("kept path %d, want the stronger path 1", got[0].ID)
	}
}

func TestMergeTrimsToRemainder(t *testing.T) {
	th := cfg.Thresholds{MinBranchLength: 5}
	// The reverse path retraces the standard path but extends 10 points
	// beyond it; the extension must survive as a trimmed path.
	paths := []RawPath{
		line(0, 10, 20, 1, PassStandard, 0.9),
		line(0, 10, 30, 2, PassReverse, 0.5),
	}
	got := mergePaths(paths, th)
	if len(got) != 2 {
		t.Fatalf("got %d paths, want 2 (original plus trimmed remainder)", len(got))
	}
	var remainder *RawPath
	for i := range got {
		if got[i].ID == 2 {
			remainder = &got[i]
		}
	}
	if remainder == nil {
		t.Fatal("trimmed remainder missing")
	}
	if len(remainder.Points) >= 30 {
		t.Errorf("remainder kept %d points, want the overlap removed", len(remainder.Points))
	}
	for _, p := range remainder.Points {
		if p.X < 20-dedupRadius {
			t.Errorf("remainder point %v lies inside the covered stretch", p)
		}
	}
}

func TestMergeKeepsDisjointPaths(t *testing.T) {
	th := cfg.Thresholds{MinBranchLength: 5}
	paths := []RawPath{
		line(0, 10, 20, 1, PassStandard, 0.9),
		line(0, 40, 20, 2, PassStandard, 0.8),
	}
	got := mergePaths(paths, th)
	if len(got) != 2 {
		t.Fatalf("got %d paths, want both disjoint paths kept", len(got))
	}
}

func TestSortPathsStableKey(t *testing.T) {
	a := line(5, 10, 10, 7, PassReverse, 0.4)
	b := line(5, 10, 10, 3, PassStandard, 0.4)
	c := line(0, 2, 10, 9, PassDiagonal, 0.1)
	paths := []RawPath{a, b, c}
	sortPaths(paths)
	// Topmost bbox first; equal boxes break ties by strength then pass.
	wantIDs := []int{9, 3, 7}
	var gotIDs []int
	for _, p := range paths {
		gotIDs = append(gotIDs, p.ID)
	}
	if diff := cmp.Diff(wantIDs, gotIDs); diff != "" {
		t.Errorf("sort order mismatch (-want +got):\n%s", diff)
	}
}

func TestLongestUncovered(t *testing.T) {
	points := make(geometry.Polyline, 10)
	for i := range points {
		points[i] = geometry.Point{X: float64(i)}
	}
	tests := []struct {
		name string
		mask []bool
		want int // expected run length, 0 for nil
	}{
		{"all covered", []bool{true, true, true, true, true, true, true, true, true, true}, 0},
		{"none covered", make([]bool, 10), 10},
		{"tail free", []bool{true, true, true, true, true, true, false, false, false, false}, 4},
		{"middle free", []bool{true, true, false, false, false, true, true, true, true, true}, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := longestUncovered(points, tt.mask)
			if len(got) != tt.want {
				t.Errorf("run length %d, want %d", len(got), tt.want)
			}
		})
	}
}
