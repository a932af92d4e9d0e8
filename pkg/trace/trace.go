// Package trace follows edge pixels into ordered point paths. Up to three
// directional passes run independently over the same edge map, each with its
// own visited state, and the results are merged into one deduplicated set.
package trace

import (
	"context"
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"

	"linetrace/pkg/cfg"
	"linetrace/pkg/edges"
	"linetrace/pkg/geometry"
)

// Pass identifies which directional pass produced a path.
type Pass int

const (
	PassStandard Pass = iota
	PassReverse
	PassDiagonal
)

func (p Pass) String() string {
	switch p {
	case PassStandard:
		return "standard"
	case PassReverse:
		return "reverse"
	case PassDiagonal:
		return "diagonal"
	}
	return fmt.Sprintf("pass(%d)", int(p))
}

// RawPath is an ordered pixel path with provenance. Strength is the mean
// normalized gradient magnitude along the path.
type RawPath struct {
	ID       int
	Pass     Pass
	Points   geometry.Polyline
	Strength float64
	Closed   bool
}

// Run traces all enabled passes and merges their paths. Pass-level problems
// are reported as warnings, never as errors; zero paths is a valid result.
// The returned order is deterministic regardless of scheduling.
func Run(ctx context.Context, m *edges.Map, flow *edges.Flow, c *cfg.Config) ([]RawPath, []string, error) {
	th := cfg.DeriveThresholds(c, m.W, m.H)
	var warnings []string

	passes := []Pass{PassStandard}
	if c.Multipass {
		profile := analyzeDirectional(m)
		if c.ReversePass {
			if c.PassStrengthThreshold > 0 && profile.ReverseBenefit < c.PassStrengthThreshold {
				warnings = append(warnings, fmt.Sprintf(
					"reverse pass skipped: benefit %.2f below threshold %.2f",
					profile.ReverseBenefit, c.PassStrengthThreshold))
			} else {
				passes = append(passes, PassReverse)
			}
		}
		if c.DiagonalPass {
			if c.PassStrengthThreshold > 0 && profile.DiagonalBenefit < c.PassStrengthThreshold {
				warnings = append(warnings, fmt.Sprintf(
					"diagonal pass skipped: benefit %.2f below threshold %.2f",
					profile.DiagonalBenefit, c.PassStrengthThreshold))
			} else {
				passes = append(passes, PassDiagonal)
			}
		}
	}

	results := make([][]RawPath, len(passes))
	g, gctx := errgroup.WithContext(ctx)
	for idx, p := range passes {
		idx, p := idx, p
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			floor := passFloor(p, c, th)
			tr := &tracer{
				m:       m,
				flow:    flow,
				pass:    p,
				minMag:  floor,
				minLen:  th.MinBranchLength,
				visited: make([]bool, m.W*m.H),
			}
			results[idx] = tr.run()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, warnings, err
	}

	var all []RawPath
	for _, r := range results {
		all = append(all, r...)
	}
	merged := mergePaths(all, th)
	return merged, warnings, nil
}

// passFloor computes the extra magnitude floor for a pass. The standard pass
// accepts every pixel that survived adaptive thresholding; a directional pass
// with a stricter (lower) detail override only follows stronger pixels.
func passFloor(p Pass, c *cfg.Config, base cfg.Thresholds) float32 {
	var detail float64
	switch p {
	case PassReverse:
		detail = c.ReverseDetail
	case PassDiagonal:
		detail = c.DiagonalDetail
	default:
		return 0
	}
	if detail == 0 || detail == c.Detail {
		return 0
	}
	over := c.WithDetail(detail)
	th := cfg.DeriveThresholds(&over, 0, 0)
	if th.HighThreshold <= base.HighThreshold {
		return 0
	}
	return float32(th.HighThreshold)
}

// sortPaths orders paths by their stable merge key: bounding box top-left,
// then descending strength, then pass index, then id. This removes any
// dependence on pass scheduling.
func sortPaths(paths []RawPath) {
	sort.SliceStable(paths, func(i, j int) bool {
		bi := paths[i].Points.Bounds()
		bj := paths[j].Points.Bounds()
		if bi.Min.Y != bj.Min.Y {
			return bi.Min.Y < bj.Min.Y
		}
		if bi.Min.X != bj.Min.X {
			return bi.Min.X < bj.Min.X
		}
		if paths[i].Strength != paths[j].Strength {
			return paths[i].Strength > paths[j].Strength
		}
		if paths[i].Pass != paths[j].Pass {
			return paths[i].Pass < paths[j].Pass
		}
		return paths[i].ID < paths[j].ID
	})
}
