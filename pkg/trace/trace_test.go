package trace_test

import (
	"context"
	"testing"
	"unicode/utf8"

	"github.com/google/go-cmp/cmp"

	"linetrace/pkg/cfg"
	"linetrace/pkg/edges"
	"linetrace/pkg/trace"
)

// makeMap builds an edge map from a rune grid: ◼ marks an edge pixel. All
// edge pixels get full strength and a vertical gradient, so the implied
// tangent runs horizontally.
func makeMap(rows ...string) *edges.Map {
	w := utf8.RuneCountInString(rows[0])
	h := len(rows)
	m := &edges.Map{
		W: w, H: h,
		Mag:  make([]float32, w*h),
		DirX: make([]float32, w*h),
		DirY: make([]float32, w*h),
		Edge: make([]bool, w*h),
	}
	i := 0
	for _, row := range rows {
		for _, ch := range row {
			if ch == '◼' {
				m.Edge[i] = true
				m.Mag[i] = 1
				m.DirY[i] = 1
			}
			i++
		}
	}
	return m
}

func totalLength(paths []trace.RawPath) float64 {
	sum := 0.0
	for _, p := range paths {
		sum += p.Points.Length()
	}
	return sum
}

func TestTraceLine(t *testing.T) {
	m := makeMap(
		"◻◻◻◻◻◻◻◻◻◻◻◻◻◻◻◻",
		"◻◼◼◼◼◼◼◼◼◼◼◼◼◼◼◻",
		"◻◻◻◻◻◻◻◻◻◻◻◻◻◻◻◻",
	)
	c := cfg.Default()
	paths, warnings, err := trace.Run(context.Background(), m, nil, &c)
	if err != nil {
		t.Fatal(err)
	}
	if len(warnings) != 0 {
		t.Errorf("unexpected warnings: %v", warnings)
	}
	if len(paths) != 1 {
		t.Fatalf("got %d paths, want 1", len(paths))
	}
	p := paths[0]
	if p.Closed {
		t.Error("straight line reported as closed")
	}
	if len(p.Points) != 14 {
		t.Errorf("path has %d points, want 14", len(p.Points))
	}
	if p.Strength < 0.99 {
		t.Errorf("strength %g, want ~1 for uniform magnitude", p.Strength)
	}
}

func TestTraceSquareIsClosed(t *testing.T) {
	m := makeMap(
		"◻◻◻◻◻◻◻◻◻◻◻◻",
		"◻◼◼◼◼◼◼◼◼◼◼◻",
		"◻◼◻◻◻◻◻◻◻◻◼◻",
		"◻◼◻◻◻◻◻◻◻◻◼◻",
		"◻◼◻◻◻◻◻◻◻◻◼◻",
		"◻◼◻◻◻◻◻◻◻◻◼◻",
		"◻◼◻◻◻◻◻◻◻◻◼◻",
		"◻◼◻◻◻◻◻◻◻◻◼◻",
		"◻◼◻◻◻◻◻◻◻◻◼◻",
		"◻◼◻◻◻◻◻◻◻◻◼◻",
		"◻◼◼◼◼◼◼◼◼◼◼◻",
		"◻◻◻◻◻◻◻◻◻◻◻◻",
	)
	c := cfg.Default()
	paths, _, err := trace.Run(context.Background(), m, nil, &c)
	if err != nil {
		t.Fatal(err)
	}
	if len(paths) != 1 {
		t.Fatalf("got %d paths, want 1 for a square outline", len(paths))
	}
	if !paths[0].Closed {
		t.Error("square outline not detected as closed")
	}
	b := paths[0].Points.Bounds()
	if b.Min.X != 1 || b.Min.Y != 1 || b.Max.X != 10 || b.Max.Y != 10 {
		t.Errorf("bounds %+v do not match the outline", b)
	}
}

func TestEmptyMapYieldsNoPaths(t *testing.T) {
	m := makeMap(
		"◻◻◻◻",
		"◻◻◻◻",
	)
	c := cfg.Default()
	paths, _, err := trace.Run(context.Background(), m, nil, &c)
	if err != nil {
		t.Fatalf("empty map must not fail: %v", err)
	}
	if len(paths) != 0 {
		t.Errorf("got %d paths from an empty map", len(paths))
	}
}

func TestMultipassIsSuperset(t *testing.T) {
	m := makeMap(
		"◻◻◻◻◻◻◻◻◻◻◻◻◻◻◻◻",
		"◻◼◼◼◼◼◼◼◼◼◼◼◼◼◼◻",
		"◻◻◻◻◻◻◻◻◻◻◻◻◻◻◻◻",
		"◻◻◻◻◻◻◻◻◻◻◻◻◻◻◻◻",
		"◻◼◼◼◼◼◼◼◼◼◼◼◼◼◼◻",
		"◻◻◻◻◻◻◻◻◻◻◻◻◻◻◻◻",
	)
	single := cfg.Default()
	sPaths, _, err := trace.Run(context.Background(), m, nil, &single)
	if err != nil {
		t.Fatal(err)
	}

	multi := cfg.Default()
	multi.Multipass = true
	multi.ReversePass = true
	multi.PassStrengthThreshold = 0
	mPaths, _, err := trace.Run(context.Background(), m, nil, &multi)
	if err != nil {
		t.Fatal(err)
	}

	sLen := totalLength(sPaths)
	mLen := totalLength(mPaths)
	if mLen < sLen-1e-9 {
		t.Errorf("multipass coverage %g less than standard %g", mLen, sLen)
	}
	// Dedup must keep the duplicated reverse geometry out.
	if mLen > sLen*1.5 {
		t.Errorf("multipass coverage %g suggests duplicates survived (standard %g)", mLen, sLen)
	}
}

func TestPassSkipWarning(t *testing.T) {
	// A single horizontal line has no diagonal energy, so the diagonal pass
	// must be skipped with a warning at a nonzero threshold.
	m := makeMap(
		"◻◻◻◻◻◻◻◻◻◻◻◻◻◻◻◻",
		"◻◼◼◼◼◼◼◼◼◼◼◼◼◼◼◻",
		"◻◻◻◻◻◻◻◻◻◻◻◻◻◻◻◻",
	)
	c := cfg.Default()
	c.Multipass = true
	c.DiagonalPass = true
	c.PassStrengthThreshold = 0.3
	_, warnings, err := trace.Run(context.Background(), m, nil, &c)
	if err != nil {
		t.Fatal(err)
	}
	if len(warnings) != 1 {
		t.Fatalf("got warnings %v, want one diagonal skip warning", warnings)
	}
}

func TestRunIsDeterministic(t *testing.T) {
	m := makeMap(
		"◻◻◻◻◻◻◻◻◻◻◻◻",
		"◻◼◼◼◼◼◼◼◼◼◼◻",
		"◻◼◻◻◻◻◻◻◻◻◼◻",
		"◻◼◻◻◼◼◼◻◻◻◼◻",
		"◻◼◻◻◻◻◻◻◻◻◼◻",
		"◻◼◼◼◼◼◼◼◼◼◼◻",
		"◻◻◻◻◻◻◻◻◻◻◻◻",
	)
	c := cfg.Default()
	c.Multipass = true
	c.ReversePass = true
	c.DiagonalPass = true
	c.PassStrengthThreshold = 0

	first, _, err := trace.Run(context.Background(), m, nil, &c)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 5; i++ {
		again, _, err := trace.Run(context.Background(), m, nil, &c)
		if err != nil {
			t.Fatal(err)
		}
		if diff := cmp.Diff(first, again); diff != "" {
			t.Fatalf("run %d differs (-first +again):\n%s", i, diff)
		}
	}
}
