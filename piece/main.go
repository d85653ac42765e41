// Package piece is the catalogue of track pieces: which ports each kind of piece has and
// what its rails look like, all in the piece's local space.
//
// Local space has the piece's base port at or near the origin, heading 0 towards +z.
package piece

import (
	"errors"
	"fmt"

	"golang.org/x/exp/slices"
	"gonum.org/v1/gonum/spatial/r2"
)

type Kind string

const (
	Straight    Kind = "STRAIGHT"
	Curved      Kind = "CURVED"
	YSwitch     Kind = "Y_SWITCH"
	XCrossing60 Kind = "X_CROSSING_60"
	Cross90     Kind = "CROSS_90"
)

// Kinds lists every kind of piece, in toolbar order.
var Kinds = []Kind{Straight, Curved, YSwitch, XCrossing60, Cross90}

// legacyKinds are names written by older layout files.
var legacyKinds = map[string]Kind{
	"Y_TRACK": YSwitch,
	"X_TRACK": XCrossing60,
}

var ErrUnknownKind = errors.New("unknown kind")

// ParseKind parses a kind name, including legacy names.
func ParseKind(s string) (Kind, error) {
	k := Kind(s)
	if k.Valid() {
		return k, nil
	}
	if k, ok := legacyKinds[s]; ok {
		return k, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

func (k Kind) Valid() bool {
	return slices.Contains(Kinds, k)
}

// mustValid panics if k is not a known kind.
func (k Kind) mustValid() {
	if !k.Valid() {
		panic(fmt.Sprintf("unknown piece kind %q", string(k)))
	}
}

// Mirrorable reports whether the mirror flag changes the shape of k.
// Only curves can be flipped; a Y switch always has both branches.
func Mirrorable(k Kind) bool {
	k.mustValid()
	return k == Curved
}

type PortID string

const (
	PortStart    PortID = "start"
	PortEnd      PortID = "end"
	PortEndLeft  PortID = "end_left"
	PortEndRight PortID = "end_right"
	PortAStart   PortID = "a_start"
	PortBStart   PortID = "b_start"
	PortAEnd     PortID = "a_end"
	PortBEnd     PortID = "b_end"
)

// Port is a connection point of a piece.
type Port struct {
	ID PortID
	// Offset from the piece's origin.
	Offset r2.Vec
	// Heading points outward, away from the piece along the rail.
	Heading float64
}

func (p Port) String() string {
	return fmt.Sprintf("%s(%.3f, %.3f)@%.4frad", p.ID, p.Offset.X, p.Offset.Y, p.Heading)
}

// Polyline is one rail strand's centreline.
type Polyline []r2.Vec
