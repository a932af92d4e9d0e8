package vectorize_test

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"linetrace/pkg/cfg"
	"linetrace/pkg/raster"
	"linetrace/pkg/svgpath"
	"linetrace/pkg/vectorize"
)

// fill builds a solid raster and lets the callback paint regions black.
func fill(w, h int, paint func(x, y int) bool) *raster.Buffer {
	buf := &raster.Buffer{Width: w, Height: h, Channels: 4, Pix: make([]byte, w*h*4)}
	i := 0
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := byte(0xff)
			if paint != nil && paint(x, y) {
				v = 0
			}
			buf.Pix[i] = v
			buf.Pix[i+1] = v
			buf.Pix[i+2] = v
			buf.Pix[i+3] = 0xff
			i += 4
		}
	}
	return buf
}

func subPathBounds(sub *svgpath.SubPath) (minX, minY, maxX, maxY float64) {
	minX, maxX = sub.X, sub.X
	minY, maxY = sub.Y, sub.Y
	for _, d := range sub.DrawTo {
		minX = math.Min(minX, d.X)
		maxX = math.Max(maxX, d.X)
		minY = math.Min(minY, d.Y)
		maxY = math.Max(maxY, d.Y)
	}
	return minX, minY, maxX, maxY
}

func TestNestedSquare(t *testing.T) {
	src := fill(100, 100, func(x, y int) bool {
		return x >= 30 && x < 70 && y >= 30 && y < 70
	})
	c := cfg.Default()
	res, err := vectorize.Run(context.Background(), src, &c, nil)
	require.NoError(t, err)
	require.Equal(t, 1, res.Document.PathCount(),
		"a single square outline must yield exactly one path")

	sub := res.Document.Entries[0].Path[0]
	last := sub.DrawTo[len(sub.DrawTo)-1]
	assert.Equal(t, svgpath.ClosePath, last.Command, "square outline must be closed")

	minX, minY, maxX, maxY := subPathBounds(sub)
	assert.InDelta(t, 30, minX, 2.5)
	assert.InDelta(t, 30, minY, 2.5)
	assert.InDelta(t, 69, maxX, 2.5)
	assert.InDelta(t, 69, maxY, 2.5)
}

func TestBlankInput(t *testing.T) {
	src := fill(50, 50, nil)
	c := cfg.Default()
	res, err := vectorize.Run(context.Background(), src, &c, nil)
	require.NoError(t, err, "blank input is valid")
	assert.Equal(t, 0, res.Document.PathCount())
	assert.Contains(t, string(res.SVG), "<svg")
	assert.Equal(t, 0, res.Stats.PathCount)
	assert.Equal(t, len(res.SVG), res.Stats.OutputSizeBytes)
}

func TestFailFastValidation(t *testing.T) {
	src := fill(10, 10, nil)

	bad := cfg.Default()
	bad.Detail = -1
	_, err := vectorize.Run(context.Background(), src, &bad, nil)
	assert.True(t, errors.Is(err, vectorize.ErrConfig), "got %v", err)

	c := cfg.Default()
	zero := &raster.Buffer{Width: 0, Height: 10, Channels: 4}
	_, err = vectorize.Run(context.Background(), zero, &c, nil)
	assert.True(t, errors.Is(err, vectorize.ErrInput), "got %v", err)

	big := cfg.Default()
	big.MaxPixels = 50
	_, err = vectorize.Run(context.Background(), src, &big, nil)
	assert.True(t, errors.Is(err, vectorize.ErrResource), "got %v", err)
}

func TestValidationRunsBeforeProgress(t *testing.T) {
	src := fill(10, 10, nil)
	bad := cfg.Default()
	bad.Detail = 2
	called := false
	_, err := vectorize.Run(context.Background(), src, &bad,
		func(string, int) { called = true })
	require.Error(t, err)
	assert.False(t, called, "progress must not fire before validation passes")
}

func TestDeterministicOutput(t *testing.T) {
	src := fill(80, 80, func(x, y int) bool {
		return x >= 20 && x < 60 && y >= 20 && y < 60
	})
	c := cfg.Default()
	c.HandDrawn = cfg.HandDrawn{Preset: cfg.PresetMedium}
	c.Multipass = true
	c.ReversePass = true
	c.PassStrengthThreshold = 0

	first, err := vectorize.Run(context.Background(), src, &c, nil)
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		again, err := vectorize.Run(context.Background(), src, &c, nil)
		require.NoError(t, err)
		assert.Equal(t, string(first.SVG), string(again.SVG),
			"run %d produced different bytes", i)
	}
}

func TestProgressPerStage(t *testing.T) {
	src := fill(60, 60, func(x, y int) bool { return x == 30 })
	c := cfg.Default()
	var names []string
	var percents []int
	_, err := vectorize.Run(context.Background(), src, &c, func(stage string, pct int) {
		names = append(names, stage)
		percents = append(percents, pct)
	})
	require.NoError(t, err)

	seen := map[string]int{}
	for _, n := range names {
		seen[n]++
	}
	for n, count := range seen {
		assert.LessOrEqual(t, count, 1, "stage %s reported %d times", n, count)
	}
	for i := 1; i < len(percents); i++ {
		assert.GreaterOrEqual(t, percents[i], percents[i-1])
	}
	assert.Equal(t, 100, percents[len(percents)-1])
}

func TestCancellationDegradesGracefully(t *testing.T) {
	src := fill(60, 60, func(x, y int) bool { return x == 30 })
	c := cfg.Default()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, err := vectorize.Run(ctx, src, &c, nil)
	require.NoError(t, err, "cancellation must degrade, not fail")
	assert.Equal(t, 0, res.Document.PathCount())
	assert.NotEmpty(t, res.Stats.Warnings)
}

func TestStatsTimings(t *testing.T) {
	src := fill(50, 50, func(x, y int) bool { return y == 25 })
	c := cfg.Default()
	res, err := vectorize.Run(context.Background(), src, &c, nil)
	require.NoError(t, err)
	for _, stage := range []string{"prepare", "detect", "trace", "fit", "style", "assemble"} {
		_, ok := res.Stats.StageTimings[stage]
		assert.True(t, ok, "missing timing for stage %s", stage)
	}
	assert.GreaterOrEqual(t, res.Stats.ProcessingTimeMS, int64(0))
}
