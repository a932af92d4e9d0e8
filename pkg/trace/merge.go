package trace

import (
	"math"

	"github.com/asim/quadtree"

	"linetrace/pkg/cfg"
	"linetrace/pkg/geometry"
)

// dedupRadius is the distance band within which sample points from two
// passes are considered the same physical edge, and dedupOverlap is the
// fraction of a path that must fall inside the band before the path is
// treated as a duplicate. Both are fixed policy values, not config.
const (
	dedupRadius  = 2.5
	dedupOverlap = 0.7
)

// mergePaths reconciles paths from all passes into one set. Paths are taken
// in stable sorted order; each path is kept only where it does not retrace
// geometry already claimed by an earlier (stronger) path. Kept geometry is
// indexed in a quadtree so overlap checks stay cheap.
func mergePaths(paths []RawPath, th cfg.Thresholds) []RawPath {
	if len(paths) == 0 {
		return nil
	}
	sortPaths(paths)

	tree := newCoverTree(paths)
	var out []RawPath
	for _, p := range paths {
		covered := 0
		mask := make([]bool, len(p.Points))
		for i, pt := range p.Points {
			if tree.covered(pt) {
				covered++
				mask[i] = true
			}
		}
		if float64(covered)/float64(len(p.Points)) > dedupOverlap {
			// Mostly a duplicate: keep only the longest uncovered stretch,
			// and only if it still makes a worthwhile path on its own.
			rest := longestUncovered(p.Points, mask)
			if len(rest) < th.MinBranchLength {
				continue
			}
			p.Points = rest
			p.Closed = false
		}
		for _, pt := range p.Points {
			tree.add(pt)
		}
		out = append(out, p)
	}
	return out
}

// coverTree indexes the sample points of already kept paths.
type coverTree struct {
	qt *quadtree.QuadTree
}

func newCoverTree(paths []RawPath) *coverTree {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, p := range paths {
		b := p.Points.Bounds()
		minX = math.Min(minX, b.Min.X)
		minY = math.Min(minY, b.Min.Y)
		maxX = math.Max(maxX, b.Max.X)
		maxY = math.Max(maxY, b.Max.Y)
	}
	midX, midY := (minX+maxX)/2, (minY+maxY)/2
	// Margin keeps boundary points inside the root box.
	halfW := maxX - midX + 10
	halfH := maxY - midY + 10
	aabb := quadtree.NewAABB(
		quadtree.NewPoint(midX, midY, nil),
		quadtree.NewPoint(halfW, halfH, nil))
	return &coverTree{qt: quadtree.New(aabb, 0, nil)}
}

func (t *coverTree) add(p geometry.Point) {
	t.qt.Insert(quadtree.NewPoint(p.X, p.Y, nil))
}

func (t *coverTree) covered(p geometry.Point) bool {
	aabb := quadtree.NewAABB(
		quadtree.NewPoint(p.X, p.Y, nil),
		quadtree.NewPoint(dedupRadius, dedupRadius, nil))
	for _, q := range t.qt.Search(aabb) {
		qx, qy := q.Coordinates()
		if math.Hypot(qx-p.X, qy-p.Y) <= dedupRadius {
			return true
		}
	}
	return false
}

// longestUncovered returns the longest contiguous run of points not marked
// covered, or nil if every point is covered.
func longestUncovered(points geometry.Polyline, mask []bool) geometry.Polyline {
	bestStart, bestLen := 0, 0
	start := -1
	for i := 0; i <= len(points); i++ {
		if i < len(points) && !mask[i] {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			if l := i - start; l > bestLen {
				bestStart, bestLen = start, l
			}
			start = -1
		}
	}
	if bestLen == 0 {
		return nil
	}
	return points[bestStart : bestStart+bestLen]
}
