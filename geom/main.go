// Package geom is the ground-plane math shared by the resolver, the collision validator and
// layout loading.
//
// Vectors are r2.Vec with X as the x axis and Y as the z axis of the scene. Headings are in
// radians about the vertical axis; heading 0 points towards +z.
package geom

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Pose is a rigid transform on the ground plane.
type Pose struct {
	Position r2.Vec
	Heading  float64
}

func (p Pose) String() string {
	return fmt.Sprintf("(%.3f, %.3f)@%.4frad", p.Position.X, p.Position.Y, p.Heading)
}

// Apply transforms a local point into world space.
func (p Pose) Apply(v r2.Vec) r2.Vec {
	return r2.Add(p.Position, Rotate(v, p.Heading))
}

// ApplyHeading transforms a local heading into world space.
func (p Pose) ApplyHeading(h float64) float64 {
	return NormalizeAngle(p.Heading + h)
}

// Rotate rotates v about the origin by heading.
// Seen from above with x to the right and z up, positive headings turn clockwise (+z towards +x).
func Rotate(v r2.Vec, heading float64) r2.Vec {
	sin, cos := math.Sincos(heading)
	return r2.Vec{
		X: v.X*cos + v.Y*sin,
		Y: -v.X*sin + v.Y*cos,
	}
}

// NormalizeAngle maps a into (-π, π].
func NormalizeAngle(a float64) float64 {
	a = math.Mod(a, 2*math.Pi)
	if a <= -math.Pi {
		a += 2 * math.Pi
	} else if a > math.Pi {
		a -= 2 * math.Pi
	}
	if a == 0 {
		// no negative zero
		return 0
	}
	return a
}

// AngleBetween returns the absolute difference of two headings, in [0, π].
func AngleBetween(a, b float64) float64 {
	return math.Abs(NormalizeAngle(a - b))
}

// Solve returns the pose of a piece whose anchor port (offset and heading in the piece's local
// space) lands on a target port given in world space. The anchor ends up facing the target, so
// its world heading is targetHeading+π.
func Solve(target r2.Vec, targetHeading float64, anchorOffset r2.Vec, anchorHeading float64) Pose {
	h := NormalizeAngle(targetHeading - (anchorHeading + math.Pi))
	return Pose{
		Position: r2.Sub(target, Rotate(anchorOffset, h)),
		Heading:  h,
	}
}

// Distance is the Euclidean distance between a and b.
func Distance(a, b r2.Vec) float64 {
	return r2.Norm(r2.Sub(a, b))
}
