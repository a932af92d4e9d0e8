// Package vectorize is the pipeline entry point: it validates input, runs
// the stages in order, and assembles the output document plus statistics.
package vectorize

import (
	"context"
	"fmt"
	"time"

	"linetrace/pkg/cfg"
	"linetrace/pkg/curve"
	"linetrace/pkg/edges"
	"linetrace/pkg/raster"
	"linetrace/pkg/style"
	"linetrace/pkg/svgdoc"
	"linetrace/pkg/trace"
)

// ProgressFunc is called at stage boundaries with the stage name and overall
// percentage, at most once per stage. It must return quickly; the pipeline
// calls it inline.
type ProgressFunc func(stage string, percent int)

// Stats is the per-run statistics record.
type Stats struct {
	ProcessingTimeMS int64
	PathCount        int
	OutputSizeBytes  int
	// StageTimings maps stage name to elapsed milliseconds.
	StageTimings map[string]int64
	Warnings     []string
}

// Result is the complete pipeline output.
type Result struct {
	Document *svgdoc.Document
	// SVG is the serialized document markup.
	SVG   []byte
	Stats Stats
}

// pipeline stages in order, for progress reporting.
var stages = []string{"prepare", "detect", "trace", "fit", "style", "assemble"}

// Run executes the whole pipeline on one raster. Validation failures are
// reported before any pixel work begins. Cooperative cancellation via ctx is
// honored at stage boundaries and yields the best document available from
// the completed stages rather than an error.
func Run(ctx context.Context, src *raster.Buffer, c *cfg.Config, progress ProgressFunc) (*Result, error) {
	start := time.Now()

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfig, err)
	}
	if err := src.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInput, err)
	}
	if px := src.Width * src.Height; px > c.MaxPixels {
		return nil, fmt.Errorf("%w: %d pixels exceeds limit %d", ErrResource, px, c.MaxPixels)
	}

	// The caller's config stays untouched; budget policy mutates this copy.
	run := *c
	r := &runState{
		cfg:      &run,
		progress: progress,
		start:    start,
		timings:  make(map[string]int64, len(stages)),
	}

	var (
		an      *raster.Analysis
		strokes []style.Stroke
	)

	err := r.stage(ctx, 0, func() error {
		var err error
		an, err = raster.Prepare(ctx, src, r.cfg)
		return err
	})
	if err != nil {
		// Nothing traced yet; cancellation here degrades to an empty
		// document, anything else has no valid degradation path.
		if ctx.Err() == nil {
			return nil, fmt.Errorf("%w: prepare: %v", ErrProcess, err)
		}
		r.warn("canceled during prepare, returning empty document")
		return r.finish(strokes, src, 1, start)
	}

	r.applyBudget()

	var (
		em   *edges.Map
		flow *edges.Flow
	)
	err = r.stage(ctx, 1, func() error {
		var err error
		em, flow, err = edges.Detect(ctx, an, r.cfg)
		return err
	})
	if err != nil {
		if ctx.Err() == nil {
			return nil, fmt.Errorf("%w: detect: %v", ErrProcess, err)
		}
		r.warn("canceled during detect, returning empty document")
		return r.finish(strokes, src, an.Scale, start)
	}

	r.applyBudget()

	var rawPaths []trace.RawPath
	err = r.stage(ctx, 2, func() error {
		var err error
		var warnings []string
		rawPaths, warnings, err = trace.Run(ctx, em, flow, r.cfg)
		r.Stats().Warnings = append(r.Stats().Warnings, warnings...)
		return err
	})
	if err != nil {
		if ctx.Err() == nil {
			return nil, fmt.Errorf("%w: trace: %v", ErrProcess, err)
		}
		r.warn("canceled during trace, returning empty document")
		return r.finish(strokes, src, an.Scale, start)
	}

	var fitted []curve.Path
	err = r.stage(ctx, 3, func() error {
		th := cfg.DeriveThresholds(r.cfg, an.Width, an.Height)
		var err error
		fitted, err = curve.FitWith(ctx, rawPaths, r.cfg, th)
		return err
	})
	if err != nil {
		if ctx.Err() == nil {
			return nil, fmt.Errorf("%w: fit: %v", ErrProcess, err)
		}
		r.warn("canceled during fit, returning empty document")
		return r.finish(strokes, src, an.Scale, start)
	}

	if err := r.stage(ctx, 4, func() error {
		strokes = style.Apply(fitted, r.cfg)
		return nil
	}); err != nil {
		r.warn("canceled before style, returning document from completed stages")
	}

	return r.finish(strokes, src, an.Scale, start)
}

type runState struct {
	cfg      *cfg.Config
	progress ProgressFunc
	start    time.Time
	timings  map[string]int64
	stats    Stats
}

func (r *runState) Stats() *Stats { return &r.stats }

func (r *runState) warn(msg string) {
	r.stats.Warnings = append(r.stats.Warnings, msg)
}

// stage times one stage and reports progress once on completion.
func (r *runState) stage(ctx context.Context, idx int, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t0 := time.Now()
	err := fn()
	r.timings[stages[idx]] = time.Since(t0).Milliseconds()
	if err == nil && r.progress != nil {
		r.progress(stages[idx], (idx+1)*100/len(stages))
	}
	return err
}

// applyBudget enforces the optional time budget: when early stages have
// already consumed most of it, the optional flow field and the extra
// directional passes are skipped with a warning instead of overrunning.
func (r *runState) applyBudget() {
	if r.cfg.TimeBudget <= 0 {
		return
	}
	elapsed := time.Since(r.start)
	if r.cfg.FlowField && elapsed > r.cfg.TimeBudget/3 {
		r.cfg.FlowField = false
		r.warn("time budget pressure: flow field disabled")
	}
	if r.cfg.Multipass && elapsed > r.cfg.TimeBudget*2/3 {
		r.cfg.Multipass = false
		r.warn("time budget pressure: extra directional passes disabled")
	}
}

// finish assembles, serializes, and fills the statistics record. It runs
// even on a cancellation path, producing a valid (possibly empty) document.
func (r *runState) finish(strokes []style.Stroke, src *raster.Buffer, scale float64, start time.Time) (*Result, error) {
	t0 := time.Now()
	doc := svgdoc.Assemble(strokes, src, scale, r.cfg)
	out, err := doc.Marshal()
	if err != nil {
		return nil, fmt.Errorf("%w: assemble: %v", ErrProcess, err)
	}
	r.timings["assemble"] = time.Since(t0).Milliseconds()
	if r.progress != nil {
		r.progress("assemble", 100)
	}

	r.stats.ProcessingTimeMS = time.Since(start).Milliseconds()
	r.stats.PathCount = doc.PathCount()
	r.stats.OutputSizeBytes = len(out)
	r.stats.StageTimings = r.timings
	return &Result{Document: doc, SVG: out, Stats: r.stats}, nil
}
