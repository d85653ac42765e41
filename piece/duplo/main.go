// Package duplo contains preset dimensions for the LEGO DUPLO series of toy train tracks.
// All lengths are in mm.
package duplo

import "math"

// Dimensions from
// https://bricks.stackexchange.com/questions/9539/what-is-the-length-of-a-duplo-train-bridge
// https://www.cailliau.org/en/Alphabetical/L/Lego/Duplo/Train/Rails/Dimensions/
const (
	LDU = 0.4
	// Stud is the System stud pitch.
	Stud = 20 * LDU
	// DuploStud is twice the System stud pitch.
	DuploStud = 2 * Stud
)

const (
	// StraightLength is the effective length of a straight (8 DUPLO studs).
	StraightLength = 8 * DuploStud
	// CurveRadius is the centreline radius of a curve, measured rather than a whole number of
	// studs.
	CurveRadius = 16.165 * DuploStud
	// CurveAngle is the sweep of one curve. Three curves make a quarter circle.
	CurveAngle = math.Pi / 6
	// CrossingAngle is the angle between the two chords of the 60° crossing.
	CrossingAngle = math.Pi / 3
	// CurveSegments is how many straight segments a curve centreline is sampled into.
	CurveSegments = 32
)
