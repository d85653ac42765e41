package geom

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// epsilon is the relative tolerance for treating three points as collinear.
const epsilon = 1e-9

type Segment struct {
	A, B r2.Vec
}

// Segments splits a polyline into its segments.
func Segments(points []r2.Vec) []Segment {
	if len(points) < 2 {
		return nil
	}
	segs := make([]Segment, 0, len(points)-1)
	for i := 1; i < len(points); i++ {
		segs = append(segs, Segment{A: points[i-1], B: points[i]})
	}
	return segs
}

func (s Segment) Box() r2.Box {
	return BoxOf(s.A, s.B)
}

// Intersects reports whether s and t share at least one point. Touching endpoints and
// collinear overlaps count.
func (s Segment) Intersects(t Segment) bool {
	o1 := orientation(s.A, s.B, t.A)
	o2 := orientation(s.A, s.B, t.B)
	o3 := orientation(t.A, t.B, s.A)
	o4 := orientation(t.A, t.B, s.B)
	if o1 != o2 && o3 != o4 {
		return true
	}
	switch {
	case o1 == 0 && within(s.A, s.B, t.A):
		return true
	case o2 == 0 && within(s.A, s.B, t.B):
		return true
	case o3 == 0 && within(t.A, t.B, s.A):
		return true
	case o4 == 0 && within(t.A, t.B, s.B):
		return true
	}
	return false
}

// orientation returns 1 if abc turns one way, -1 the other way, and 0 if collinear.
func orientation(a, b, c r2.Vec) int {
	ab := r2.Sub(b, a)
	ac := r2.Sub(c, a)
	v := r2.Cross(ab, ac)
	tol := epsilon * r2.Norm(ab) * r2.Norm(ac)
	switch {
	case v > tol:
		return 1
	case v < -tol:
		return -1
	default:
		return 0
	}
}

// within reports whether p (known to be collinear with ab) lies between a and b.
func within(a, b, p r2.Vec) bool {
	tol := epsilon * (1 + r2.Norm(r2.Sub(b, a)))
	return p.X >= math.Min(a.X, b.X)-tol && p.X <= math.Max(a.X, b.X)+tol &&
		p.Y >= math.Min(a.Y, b.Y)-tol && p.Y <= math.Max(a.Y, b.Y)+tol
}

// BoxOf returns the smallest axis-aligned box containing points.
func BoxOf(points ...r2.Vec) r2.Box {
	if len(points) == 0 {
		return r2.Box{}
	}
	b := r2.Box{Min: points[0], Max: points[0]}
	for _, p := range points[1:] {
		b = Extend(b, p)
	}
	return b
}

// Extend grows b to contain p.
func Extend(b r2.Box, p r2.Vec) r2.Box {
	b.Min.X = math.Min(b.Min.X, p.X)
	b.Min.Y = math.Min(b.Min.Y, p.Y)
	b.Max.X = math.Max(b.Max.X, p.X)
	b.Max.Y = math.Max(b.Max.Y, p.Y)
	return b
}

// Union returns the smallest box containing a and b.
func Union(a, b r2.Box) r2.Box {
	return Extend(Extend(a, b.Min), b.Max)
}

// Overlaps reports whether a and b share at least one point, growing both by pad.
func Overlaps(a, b r2.Box, pad float64) bool {
	return a.Min.X-pad <= b.Max.X+pad && b.Min.X-pad <= a.Max.X+pad &&
		a.Min.Y-pad <= b.Max.Y+pad && b.Min.Y-pad <= a.Max.Y+pad
}
