package piece

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r2"
	"nyiyui.ca/hato/senro/piece/duplo"
)

// arc samples a curve's centreline from the origin; side is 1 to bend towards +x, -1 towards -x.
func arc(side float64) Polyline {
	pts := make(Polyline, 0, duplo.CurveSegments+1)
	for i := 0; i <= duplo.CurveSegments; i++ {
		angle := float64(i) / duplo.CurveSegments * duplo.CurveAngle
		sin, cos := math.Sincos(angle)
		pts = append(pts, r2.Vec{
			X: (duplo.CurveRadius - cos*duplo.CurveRadius) * side,
			Y: sin * duplo.CurveRadius,
		})
	}
	return pts
}

// Paths returns the centreline of each rail strand of a piece.
// The first and last points of each strand coincide with ports.
// It panics if k is unknown.
func Paths(k Kind, mirror bool) []Polyline {
	switch k {
	case Straight:
		return []Polyline{{{}, {Y: duplo.StraightLength}}}
	case Curved:
		return []Polyline{arc(side(mirror))}
	case YSwitch:
		return []Polyline{arc(-1), arc(1)}
	case XCrossing60:
		half := duplo.StraightLength / 2
		sin, cos := math.Sincos(duplo.CrossingAngle)
		return []Polyline{
			{{Y: -half}, {Y: half}},
			{{X: -sin * half, Y: -cos * half}, {X: sin * half, Y: cos * half}},
		}
	case Cross90:
		half := duplo.StraightLength / 2
		return []Polyline{
			{{}, {Y: duplo.StraightLength}},
			{{X: -half, Y: half}, {X: half, Y: half}},
		}
	default:
		panic(fmt.Sprintf("unknown piece kind %q", string(k)))
	}
}
