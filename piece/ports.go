package piece

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r2"
	"nyiyui.ca/hato/senro/piece/duplo"
)

// curveEnd returns the end of a curve's centreline; side is 1 to bend towards +x, -1 towards -x.
func curveEnd(side float64) r2.Vec {
	return r2.Vec{
		X: (duplo.CurveRadius - math.Cos(duplo.CurveAngle)*duplo.CurveRadius) * side,
		Y: math.Sin(duplo.CurveAngle) * duplo.CurveRadius,
	}
}

// side returns which way a mirrorable piece bends.
func side(mirror bool) float64 {
	if mirror {
		return -1
	}
	return 1
}

// Ports returns the ports of a piece in a fixed order.
// It panics if k is unknown.
func Ports(k Kind, mirror bool) []Port {
	switch k {
	case Straight:
		return []Port{
			{ID: PortStart, Heading: math.Pi},
			{ID: PortEnd, Offset: r2.Vec{Y: duplo.StraightLength}, Heading: 0},
		}
	case Curved:
		s := side(mirror)
		return []Port{
			{ID: PortStart, Heading: math.Pi},
			{ID: PortEnd, Offset: curveEnd(s), Heading: s * duplo.CurveAngle},
		}
	case YSwitch:
		return []Port{
			{ID: PortStart, Heading: math.Pi},
			{ID: PortEndLeft, Offset: curveEnd(-1), Heading: -duplo.CurveAngle},
			{ID: PortEndRight, Offset: curveEnd(1), Heading: duplo.CurveAngle},
		}
	case XCrossing60:
		half := duplo.StraightLength / 2
		sin, cos := math.Sincos(duplo.CrossingAngle)
		return []Port{
			{ID: PortAStart, Offset: r2.Vec{Y: -half}, Heading: math.Pi},
			{ID: PortBStart, Offset: r2.Vec{X: -sin * half, Y: -cos * half}, Heading: duplo.CrossingAngle - math.Pi},
			{ID: PortAEnd, Offset: r2.Vec{Y: half}, Heading: 0},
			{ID: PortBEnd, Offset: r2.Vec{X: sin * half, Y: cos * half}, Heading: duplo.CrossingAngle},
		}
	case Cross90:
		half := duplo.StraightLength / 2
		return []Port{
			{ID: PortAStart, Heading: math.Pi},
			{ID: PortBStart, Offset: r2.Vec{X: -half, Y: half}, Heading: -math.Pi / 2},
			{ID: PortAEnd, Offset: r2.Vec{Y: duplo.StraightLength}, Heading: 0},
			{ID: PortBEnd, Offset: r2.Vec{X: half, Y: half}, Heading: math.Pi / 2},
		}
	default:
		panic(fmt.Sprintf("unknown piece kind %q", string(k)))
	}
}

// PortIDs returns the IDs of Ports(k, mirror), in the same order.
func PortIDs(k Kind, mirror bool) []PortID {
	ports := Ports(k, mirror)
	ids := make([]PortID, len(ports))
	for i, p := range ports {
		ids[i] = p.ID
	}
	return ids
}

// LookupPort finds a port by ID.
func LookupPort(k Kind, mirror bool, id PortID) (Port, bool) {
	for _, p := range Ports(k, mirror) {
		if p.ID == id {
			return p, true
		}
	}
	return Port{}, false
}

// MustLookupPort is LookupPort but panics if the port doesn't exist.
func MustLookupPort(k Kind, mirror bool, id PortID) Port {
	p, ok := LookupPort(k, mirror, id)
	if !ok {
		panic(fmt.Sprintf("piece %s (mirror %t) has no port %q", k, mirror, id))
	}
	return p
}

// AnchorPorts returns the ports a piece can be grabbed by when placing it.
func AnchorPorts(k Kind, mirror bool) []Port {
	ports := Ports(k, mirror)
	switch k {
	case Straight, Curved:
		return ports[:1]
	case YSwitch:
		return ports
	case XCrossing60, Cross90:
		// a_start and b_start
		return ports[:2]
	default:
		panic("unreachable")
	}
}

// Anchor picks the anchor port for index, cycling through AnchorPorts.
func Anchor(k Kind, mirror bool, index int) Port {
	anchors := AnchorPorts(k, mirror)
	i := index % len(anchors)
	if i < 0 {
		i += len(anchors)
	}
	return anchors[i]
}
