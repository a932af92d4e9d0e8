package trace

import (
	"linetrace/pkg/edges"
	"linetrace/pkg/geometry"
)

// tracer executes one directional pass. It owns its visited marking, so
// passes can run concurrently over the same read-only edge map.
type tracer struct {
	m       *edges.Map
	flow    *edges.Flow
	pass    Pass
	minMag  float32
	minLen  int
	visited []bool

	seq   int
	paths []RawPath
	// seeds holds branch points discovered while following a path; they are
	// drained before scanning resumes so branches stay near their parent in
	// the output order.
	seeds []pixel
}

type pixel struct {
	x, y int
}

// neighborSteps is the fixed 8-neighborhood order. Keeping it constant makes
// tie-breaks between equally scored candidates deterministic.
var neighborSteps = [8]pixel{
	{1, 0}, {1, 1}, {0, 1}, {-1, 1}, {-1, 0}, {-1, -1}, {0, -1}, {1, -1},
}

func (t *tracer) run() []RawPath {
	t.scan(func(x, y int) {
		if !t.usable(x, y) {
			return
		}
		t.follow(x, y)
		for len(t.seeds) > 0 {
			s := t.seeds[0]
			t.seeds = t.seeds[1:]
			if t.usable(s.x, s.y) {
				t.follow(s.x, s.y)
			}
		}
	})
	return t.paths
}

// scan visits every pixel in the pass's direction: the standard pass rasters
// top-down, the reverse pass bottom-up mirrored, and the diagonal pass walks
// anti-diagonals. Different orders seed paths at different ends of the same
// contours, which is what makes the extra passes find geometry the standard
// pass fragments.
func (t *tracer) scan(visit func(x, y int)) {
	w, h := t.m.W, t.m.H
	switch t.pass {
	case PassReverse:
		for y := h - 1; y >= 0; y-- {
			for x := w - 1; x >= 0; x-- {
				visit(x, y)
			}
		}
	case PassDiagonal:
		for d := 0; d <= w+h-2; d++ {
			x0 := 0
			if d >= h {
				x0 = d - h + 1
			}
			for x := x0; x <= d && x < w; x++ {
				visit(x, d-x)
			}
		}
	default:
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				visit(x, y)
			}
		}
	}
}

func (t *tracer) usable(x, y int) bool {
	if x < 0 || y < 0 || x >= t.m.W || y >= t.m.H {
		return false
	}
	i := y*t.m.W + x
	return t.m.Edge[i] && !t.visited[i] && t.m.Mag[i] >= t.minMag
}

// follow builds one path from a seed pixel by walking the edge in both
// directions, then records it if it is long enough.
func (t *tracer) follow(x, y int) {
	i := y*t.m.W + x
	t.visited[i] = true

	// The initial heading is the edge tangent, perpendicular to the stored
	// gradient direction.
	tx := float64(-t.m.DirY[i])
	ty := float64(t.m.DirX[i])
	if tx == 0 && ty == 0 {
		tx = 1
	}

	forward := t.walk(x, y, tx, ty)
	backward := t.walk(x, y, -tx, -ty)

	points := make(geometry.Polyline, 0, len(forward)+len(backward)+1)
	for j := len(backward) - 1; j >= 0; j-- {
		points = append(points, backward[j])
	}
	points = append(points, geometry.Point{X: float64(x), Y: float64(y)})
	points = append(points, forward...)

	if len(points) < t.minLen {
		return
	}

	var sum float64
	for _, p := range points {
		sum += float64(t.m.Mag[int(p.Y)*t.m.W+int(p.X)])
	}

	closed := len(points) >= 8 && points[0].Distance(points[len(points)-1]) < 2

	t.paths = append(t.paths, RawPath{
		ID:       int(t.pass)<<20 | t.seq,
		Pass:     t.pass,
		Points:   points,
		Strength: sum / float64(len(points)),
		Closed:   closed,
	})
	t.seq++
}

// walk follows the edge from (x, y) in roughly direction (dx, dy), marking
// pixels visited, until no acceptable continuation remains. Extra acceptable
// neighbors at a step are branch points and are queued as future seeds.
func (t *tracer) walk(x, y int, dx, dy float64) geometry.Polyline {
	var out geometry.Polyline
	for {
		bestScore := -2.0
		bestIdx := -1
		extra := 0
		for n, step := range neighborSteps {
			nx, ny := x+step.x, y+step.y
			if !t.usable(nx, ny) {
				continue
			}
			extra++
			score := t.score(nx, ny, step, dx, dy)
			if score > bestScore {
				bestScore = score
				bestIdx = n
			}
		}
		if bestIdx < 0 {
			return out
		}
		// A sharp reversal means the contour genuinely ends here; leaving it
		// for another seed avoids zigzag paths.
		if bestScore < -0.5 {
			return out
		}
		if extra > 1 {
			// Remaining candidates become branch seeds.
			for n, step := range neighborSteps {
				if n == bestIdx {
					continue
				}
				nx, ny := x+step.x, y+step.y
				if t.usable(nx, ny) {
					t.seeds = append(t.seeds, pixel{nx, ny})
				}
			}
		}
		step := neighborSteps[bestIdx]
		x, y = x+step.x, y+step.y
		t.visited[y*t.m.W+x] = true
		out = append(out, geometry.Point{X: float64(x), Y: float64(y)})
		l := stepLen(step)
		dx, dy = float64(step.x)/l, float64(step.y)/l
	}
}

// score rates a candidate step: continuation along the current heading
// dominates, the flow tangent (when present) pulls toward coherent contours,
// and stronger pixels win ties.
func (t *tracer) score(nx, ny int, step pixel, dx, dy float64) float64 {
	l := stepLen(step)
	sx, sy := float64(step.x)/l, float64(step.y)/l
	score := sx*dx + sy*dy
	if t.flow != nil {
		fx, fy := t.flow.TangentAt(nx, ny)
		fdot := float64(fx)*sx + float64(fy)*sy
		if fdot < 0 {
			fdot = -fdot
		}
		score = 0.6*score + 0.4*fdot
	}
	return score + 0.1*float64(t.m.Mag[ny*t.m.W+nx])
}

func stepLen(p pixel) float64 {
	if p.x != 0 && p.y != 0 {
		return 1.4142135623730951
	}
	return 1
}
