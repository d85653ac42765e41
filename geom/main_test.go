package geom

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"gonum.org/v1/gonum/spatial/r2"
)

var approx = cmpopts.EquateApprox(0, 1e-9)

func TestRotate(t *testing.T) {
	cases := []struct {
		name     string
		v        r2.Vec
		heading  float64
		expected r2.Vec
	}{
		{"identity", r2.Vec{X: 1, Y: 2}, 0, r2.Vec{X: 1, Y: 2}},
		{"quarter", r2.Vec{Y: 1}, math.Pi / 2, r2.Vec{X: 1}},
		{"half", r2.Vec{X: 1, Y: 1}, math.Pi, r2.Vec{X: -1, Y: -1}},
		{"negative quarter", r2.Vec{Y: 1}, -math.Pi / 2, r2.Vec{X: -1}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := Rotate(c.v, c.heading)
			if !cmp.Equal(got, c.expected, approx) {
				t.Fatalf("diff: %s", cmp.Diff(c.expected, got, approx))
			}
		})
	}
}

func TestNormalizeAngle(t *testing.T) {
	cases := []struct {
		in, expected float64
	}{
		{0, 0},
		{-2 * math.Pi, 0},
		{2 * math.Pi, 0},
		{math.Pi, math.Pi},
		{-math.Pi, math.Pi},
		{3 * math.Pi / 2, -math.Pi / 2},
		{-5 * math.Pi / 2, -math.Pi / 2},
	}
	for _, c := range cases {
		got := NormalizeAngle(c.in)
		if !cmp.Equal(got, c.expected, approx) {
			t.Errorf("NormalizeAngle(%f) = %f, expected %f", c.in, got, c.expected)
		}
		if math.Signbit(got) && got == 0 {
			t.Errorf("NormalizeAngle(%f) returned negative zero", c.in)
		}
	}
}

func TestSolve(t *testing.T) {
	target := r2.Vec{X: 10, Y: 20}
	targetHeading := math.Pi / 3
	anchorOffset := r2.Vec{X: -5, Y: 7}
	anchorHeading := 2.0
	pose := Solve(target, targetHeading, anchorOffset, anchorHeading)
	if got := pose.Apply(anchorOffset); !cmp.Equal(got, target, approx) {
		t.Fatalf("anchor lands on %v, expected %v", got, target)
	}
	if diff := AngleBetween(pose.ApplyHeading(anchorHeading), targetHeading); !cmp.Equal(diff, math.Pi, approx) {
		t.Fatalf("anchor and target headings differ by %f, expected π", diff)
	}
}

func TestSegmentIntersects(t *testing.T) {
	seg := func(ax, ay, bx, by float64) Segment {
		return Segment{A: r2.Vec{X: ax, Y: ay}, B: r2.Vec{X: bx, Y: by}}
	}
	cases := []struct {
		name     string
		s, u     Segment
		expected bool
	}{
		{"cross", seg(0, 0, 10, 10), seg(0, 10, 10, 0), true},
		{"parallel", seg(0, 0, 10, 0), seg(0, 1, 10, 1), false},
		{"collinear overlap", seg(0, 0, 0, 128), seg(0, 50, 0, 178), true},
		{"collinear apart", seg(0, 0, 0, 10), seg(0, 11, 0, 20), false},
		{"touching endpoints", seg(0, 0, 0, 10), seg(0, 10, 5, 15), true},
		{"T junction", seg(-5, 5, 5, 5), seg(0, 5, 0, 20), true},
		{"miss", seg(0, 0, 1, 1), seg(2, 0, 3, -5), false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := c.s.Intersects(c.u); got != c.expected {
				t.Fatalf("s∩u: got %t, expected %t", got, c.expected)
			}
			if got := c.u.Intersects(c.s); got != c.expected {
				t.Fatalf("u∩s: got %t, expected %t", got, c.expected)
			}
		})
	}
}

func TestOverlaps(t *testing.T) {
	a := BoxOf(r2.Vec{}, r2.Vec{X: 1, Y: 1})
	b := BoxOf(r2.Vec{X: 2, Y: 2}, r2.Vec{X: 3, Y: 3})
	if Overlaps(a, b, 0) {
		t.Fatal("disjoint boxes overlap")
	}
	if !Overlaps(a, b, 0.6) {
		t.Fatal("padded boxes should overlap")
	}
	u := Union(a, b)
	if !cmp.Equal(u, r2.Box{Max: r2.Vec{X: 3, Y: 3}}) {
		t.Fatalf("union: %v", u)
	}
}
