package geometry

import (
	"math"
)

type Point struct {
	X float64
	Y float64
}

type Vector2 = Point

type LineSegment struct {
	A Point
	B Point
}

type Rectangle struct {
	Min Point
	Max Point
}

// Polyline is an ordered, non-empty point sequence.
type Polyline []Point

func (a Vector2) Minus(b Vector2) Vector2 {
	return Vector2{
		X: a.X - b.X,
		Y: a.Y - b.Y,
	}
}

func (a Vector2) Add(b Vector2) Vector2 {
	return Vector2{
		X: a.X + b.X,
		Y: a.Y + b.Y,
	}
}

func (v Vector2) Magnitude() float64 {
	return math.Hypot(v.X, v.Y)
}

func (a Vector2) Dot(b Vector2) float64 {
	return a.X*b.X + a.Y*b.Y
}

func (a Vector2) CrossProductZ(b Vector2) float64 {
	return a.X*b.Y - a.Y*b.X
}

// Normalized returns the unit vector in v's direction, or the zero vector
// when v is degenerate.
func (v Vector2) Normalized() Vector2 {
	m := v.Magnitude()
	if m < 1e-12 {
		return Vector2{}
	}
	return Vector2{X: v.X / m, Y: v.Y / m}
}

// Normal returns the left-hand unit normal of v.
func (v Vector2) Normal() Vector2 {
	n := v.Normalized()
	return Vector2{X: -n.Y, Y: n.X}
}

// Distance returns the distance between two points.
func (p Point) Distance(other Point) float64 {
	return math.Hypot(p.X-other.X, p.Y-other.Y)
}

// Scale returns the point scaled by the given factor f.
func (p Point) Scale(f float64) Point {
	return Point{X: p.X * f, Y: p.Y * f}
}

// Lerp returns the point a fraction t of the way from p to other.
func (p Point) Lerp(other Point, t float64) Point {
	return Point{
		X: p.X + (other.X-p.X)*t,
		Y: p.Y + (other.Y-p.Y)*t,
	}
}

func (s LineSegment) Length() float64 {
	return s.A.Distance(s.B)
}

// Distance returns the distance between a point and a line segment, treating
// points beyond either end as measured to the nearest endpoint.
func (s LineSegment) Distance(p Point) float64 {
	ab := s.B.Minus(s.A)
	ap := p.Minus(s.A)
	den := ab.Dot(ab)
	if den < 1e-12 {
		return ap.Magnitude()
	}
	t := ap.Dot(ab) / den
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	return p.Distance(s.A.Add(ab.Scale(t)))
}

// Length returns the total arc length of the polyline.
func (line Polyline) Length() float64 {
	total := 0.0
	for i := 1; i < len(line); i++ {
		total += line[i].Distance(line[i-1])
	}
	return total
}

// Bounds returns the axis-aligned bounding box of the polyline. An empty
// polyline yields an inverted box.
func (line Polyline) Bounds() Rectangle {
	r := Rectangle{
		Min: Point{X: math.Inf(1), Y: math.Inf(1)},
		Max: Point{X: math.Inf(-1), Y: math.Inf(-1)},
	}
	for _, p := range line {
		r.Min.X = math.Min(r.Min.X, p.X)
		r.Min.Y = math.Min(r.Min.Y, p.Y)
		r.Max.X = math.Max(r.Max.X, p.X)
		r.Max.Y = math.Max(r.Max.Y, p.Y)
	}
	return r
}

// Reverse returns a new polyline with the point order flipped.
func (line Polyline) Reverse() Polyline {
	out := make(Polyline, len(line))
	for i, p := range line {
		out[len(line)-1-i] = p
	}
	return out
}

// MaxDeviation returns the maximum perpendicular distance from any point of
// the original polyline to the simplified one. Used to verify simplification
// tolerance bounds.
func MaxDeviation(original, simplified Polyline) float64 {
	if len(simplified) < 2 {
		return 0
	}
	worst := 0.0
	for _, p := range original {
		best := math.Inf(1)
		for i := 1; i < len(simplified); i++ {
			seg := LineSegment{A: simplified[i-1], B: simplified[i]}
			best = math.Min(best, seg.Distance(p))
		}
		worst = math.Max(worst, best)
	}
	return worst
}

// Curvature returns the turn angle per unit length at interior index i,
// zero at the endpoints.
func (line Polyline) Curvature(i int) float64 {
	if i <= 0 || i >= len(line)-1 {
		return 0
	}
	v1 := line[i].Minus(line[i-1])
	v2 := line[i+1].Minus(line[i])
	angle := math.Abs(math.Atan2(v1.CrossProductZ(v2), v1.Dot(v2)))
	avgLen := (v1.Magnitude() + v2.Magnitude()) / 2
	if avgLen < 1e-9 {
		return 0
	}
	return angle / avgLen
}
