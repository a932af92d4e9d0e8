package geometry

// Simplify reduces the polyline with the Douglas-Peucker algorithm. The two
// endpoints are always retained, the output never has more points than the
// input, and no input point lies further than epsilon from the output.
func (points Polyline) Simplify(epsilon float64) Polyline {
	if len(points) < 2 {
		return nil
	}

	firstPoint, lastPoint := points[0], points[len(points)-1]
	if len(points) == 2 {
		return Polyline{firstPoint, lastPoint}
	}

	// Find the point with the max distance from the chord between the first
	// and last points.
	chord := LineSegment{A: firstPoint, B: lastPoint}
	dmax := 0.0
	index := 0
	for i := 1; i < len(points)-1; i++ {
		d := chord.Distance(points[i])
		if d > dmax {
			index = i
			dmax = d
		}
	}

	if dmax < epsilon {
		return Polyline{firstPoint, lastPoint}
	}

	// Split at the worst point and recurse; both halves keep the split point
	// so the join stays exact.
	left := points[:index+1].Simplify(epsilon)
	right := points[index:].Simplify(epsilon)
	return append(left[:len(left)-1], right...)
}

// SmoothKeepEnds applies a light 3-point moving average to interior points,
// leaving both endpoints fixed. It reduces pixel-grid staircasing without
// reintroducing points removed by simplification.
func (points Polyline) SmoothKeepEnds(iterations int) Polyline {
	if len(points) < 3 || iterations <= 0 {
		return points
	}
	cur := make(Polyline, len(points))
	copy(cur, points)
	next := make(Polyline, len(points))
	for it := 0; it < iterations; it++ {
		next[0] = cur[0]
		next[len(cur)-1] = cur[len(cur)-1]
		for i := 1; i < len(cur)-1; i++ {
			next[i] = Point{
				X: (cur[i-1].X + 2*cur[i].X + cur[i+1].X) / 4,
				Y: (cur[i-1].Y + 2*cur[i].Y + cur[i+1].Y) / 4,
			}
		}
		cur, next = next, cur
	}
	return cur
}
