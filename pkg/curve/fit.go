package curve

import (
	"math"

	"linetrace/pkg/geometry"
)

// fitRun fits one smooth polyline run with least-squares cubics, splitting
// recursively until every segment is within tolerance of the input points.
func fitRun(points geometry.Polyline, tolerance float64) []CubicBezier {
	if len(points) < 2 {
		return nil
	}
	if len(points) == 2 {
		return []CubicBezier{lineSegmentCubic(points[0], points[1])}
	}
	left := tangentAt(points, 0)
	right := tangentAt(points, len(points)-1).Scale(-1)
	return fitCubic(points, left, right, tolerance)
}

// tangentAt estimates the unit tangent at an endpoint or interior vertex by
// central differences.
func tangentAt(points geometry.Polyline, i int) geometry.Vector2 {
	switch {
	case i == 0:
		return points[1].Minus(points[0]).Normalized()
	case i == len(points)-1:
		return points[i].Minus(points[i-1]).Normalized()
	default:
		return points[i+1].Minus(points[i-1]).Normalized()
	}
}

// lineSegmentCubic is the exact cubic for a straight segment, with control
// points at the thirds.
func lineSegmentCubic(a, b geometry.Point) CubicBezier {
	return CubicBezier{
		P0: a,
		P1: a.Lerp(b, 1.0/3.0),
		P2: a.Lerp(b, 2.0/3.0),
		P3: b,
	}
}

const reparamIterations = 4

// fitCubic is the classic least-squares fit with chord-length
// parameterization, Newton-Raphson reparameterization, and recursive
// subdivision at the worst point when the error bound cannot be met.
func fitCubic(points geometry.Polyline, leftTangent, rightTangent geometry.Vector2, tolerance float64) []CubicBezier {
	if len(points) == 2 {
		return []CubicBezier{lineSegmentCubic(points[0], points[1])}
	}

	u := chordLengthParameterize(points)
	bez := generateBezier(points, u, leftTangent, rightTangent)
	maxErr, splitIdx := maxError(points, bez, u)
	if maxErr <= tolerance {
		return []CubicBezier{bez}
	}

	// A modest overshoot is usually parameterization error; refine before
	// giving up and splitting.
	if maxErr <= tolerance*tolerance {
		for i := 0; i < reparamIterations; i++ {
			u = reparameterize(points, u, bez)
			bez = generateBezier(points, u, leftTangent, rightTangent)
			maxErr, splitIdx = maxError(points, bez, u)
			if maxErr <= tolerance {
				return []CubicBezier{bez}
			}
		}
	}

	centerTangent := tangentAt(points, splitIdx)
	left := fitCubic(points[:splitIdx+1], leftTangent, centerTangent.Scale(-1), tolerance)
	right := fitCubic(points[splitIdx:], centerTangent, rightTangent, tolerance)
	return append(left, right...)
}

func chordLengthParameterize(points geometry.Polyline) []float64 {
	u := make([]float64, len(points))
	for i := 1; i < len(points); i++ {
		u[i] = u[i-1] + points[i].Distance(points[i-1])
	}
	total := u[len(u)-1]
	if total > 0 {
		for i := range u {
			u[i] /= total
		}
	}
	return u
}

// generateBezier solves the 2x2 least-squares system for the two inner
// control point distances along the endpoint tangents.
func generateBezier(points geometry.Polyline, u []float64, leftTangent, rightTangent geometry.Vector2) CubicBezier {
	first := points[0]
	last := points[len(points)-1]

	var c00, c01, c11, x0, x1 float64
	for i, t := range u {
		b := 1 - t
		b0 := b * b * b
		b1 := 3 * t * b * b
		b2 := 3 * t * t * b
		b3 := t * t * t

		a1 := leftTangent.Scale(b1)
		a2 := rightTangent.Scale(b2)

		c00 += a1.Dot(a1)
		c01 += a1.Dot(a2)
		c11 += a2.Dot(a2)

		tmp := points[i].Minus(
			first.Scale(b0 + b1).Add(last.Scale(b2 + b3)))
		x0 += a1.Dot(tmp)
		x1 += a2.Dot(tmp)
	}

	detC := c00*c11 - c01*c01
	var alphaL, alphaR float64
	if math.Abs(detC) > 1e-12 {
		alphaL = (x0*c11 - x1*c01) / detC
		alphaR = (c00*x1 - c01*x0) / detC
	}

	// Wu/Barsky fallback when the solution is degenerate or folds back.
	segLen := first.Distance(last)
	epsilon := 1e-6 * segLen
	if alphaL < epsilon || alphaR < epsilon {
		alphaL = segLen / 3
		alphaR = alphaL
	}

	return CubicBezier{
		P0: first,
		P1: first.Add(leftTangent.Scale(alphaL)),
		P2: last.Add(rightTangent.Scale(alphaR)),
		P3: last,
	}
}

// maxError returns the largest distance between the points and the curve at
// their parameter values, and the index of the worst point.
func maxError(points geometry.Polyline, bez CubicBezier, u []float64) (float64, int) {
	worst := 0.0
	idx := len(points) / 2
	for i := 1; i < len(points)-1; i++ {
		d := bez.At(u[i]).Distance(points[i])
		if d > worst {
			worst = d
			idx = i
		}
	}
	return worst, idx
}

// reparameterize moves each parameter value one Newton-Raphson step toward
// the closest point on the curve.
func reparameterize(points geometry.Polyline, u []float64, bez CubicBezier) []float64 {
	out := make([]float64, len(u))
	for i := range u {
		out[i] = newtonRaphson(bez, points[i], u[i])
	}
	return out
}

func newtonRaphson(bez CubicBezier, p geometry.Point, t float64) float64 {
	d := bez.At(t).Minus(p)

	// First and second derivative control nets.
	d1 := [3]geometry.Point{
		bez.P1.Minus(bez.P0).Scale(3),
		bez.P2.Minus(bez.P1).Scale(3),
		bez.P3.Minus(bez.P2).Scale(3),
	}
	d2 := [2]geometry.Point{
		d1[1].Minus(d1[0]).Scale(2),
		d1[2].Minus(d1[1]).Scale(2),
	}

	u1 := 1 - t
	q1 := geometry.Point{
		X: u1*u1*d1[0].X + 2*u1*t*d1[1].X + t*t*d1[2].X,
		Y: u1*u1*d1[0].Y + 2*u1*t*d1[1].Y + t*t*d1[2].Y,
	}
	q2 := geometry.Point{
		X: u1*d2[0].X + t*d2[1].X,
		Y: u1*d2[0].Y + t*d2[1].Y,
	}

	num := d.Dot(q1)
	den := q1.Dot(q1) + d.Dot(q2)
	if math.Abs(den) < 1e-12 {
		return t
	}
	nt := t - num/den
	return math.Max(0, math.Min(1, nt))
}
