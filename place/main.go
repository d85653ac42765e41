// Package place works out where a piece would go if dropped at the cursor: which existing
// port it snaps to, and the exact pose that joins the two.
//
// Resolving has no side effects; a Ghost only changes the layout once it is passed to
// layout.Layout.Add.
package place

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r2"
	"nyiyui.ca/hato/senro/collide"
	"nyiyui.ca/hato/senro/geom"
	"nyiyui.ca/hato/senro/layout"
	"nyiyui.ca/hato/senro/piece"
)

// DefaultSnapThreshold is the furthest (in mm) the cursor can be from a port to snap to it.
const DefaultSnapThreshold = 30

// Tool is the piece being placed and how it is held.
type Tool struct {
	Kind   piece.Kind
	Mirror bool
	// AnchorIndex selects which port the piece is grabbed by; see piece.Anchor.
	AnchorIndex int
}

// Anchor returns the port the piece is grabbed by.
func (t Tool) Anchor() piece.Port {
	return piece.Anchor(t.Kind, t.Mirror, t.AnchorIndex)
}

// Ghost is the proposed placement of a Tool.
type Ghost struct {
	Kind   piece.Kind
	Mirror bool
	Pose   geom.Pose
	// Anchor is the port the piece is grabbed by.
	Anchor piece.PortID
	// Snapped is true if the anchor was joined to an existing port.
	Snapped bool
	// Occupied is true if the target port is taken or the piece would collide with other tracks.
	Occupied bool
	// Snap is set iff Snapped.
	Snap *layout.Snap
}

func (g Ghost) String() string {
	state := "free"
	if g.Snapped {
		state = fmt.Sprintf("snapped %s/%s←%s", g.Snap.ParentID, g.Snap.ParentPort, g.Snap.ChildPort)
	}
	if g.Occupied {
		state += " occupied"
	}
	return fmt.Sprintf("%s %s %s", g.Kind, g.Pose, state)
}

type Resolver struct {
	SnapThreshold float64
	Collide       collide.Validator
}

func NewResolver() Resolver {
	return Resolver{
		SnapThreshold: DefaultSnapThreshold,
		Collide:       collide.NewValidator(),
	}
}

// target finds the port closest to cursor and under the snap threshold.
// Ties go to the port found first: tracks in placement order, ports in piece order.
func (r Resolver) target(cursor r2.Vec, y layout.Layout) (layout.WorldPort, bool) {
	var best layout.WorldPort
	found := false
	bestDist := r.SnapThreshold
	for _, t := range y.Tracks() {
		for _, p := range t.WorldPorts() {
			if d := geom.Distance(cursor, p.Position); d < bestDist {
				best = p
				bestDist = d
				found = true
			}
		}
	}
	return best, found
}

// Resolve proposes where tool would be placed with the cursor at cursor.
//
// If a port of y is within the snap threshold, the tool's anchor port is joined to the closest
// one. Otherwise the anchor port is put on the cursor with the piece unrotated.
func (r Resolver) Resolve(cursor r2.Vec, tool Tool, y layout.Layout) Ghost {
	anchor := tool.Anchor()
	g := Ghost{
		Kind:   tool.Kind,
		Mirror: tool.Mirror,
		Anchor: anchor.ID,
	}
	target, ok := r.target(cursor, y)
	if ok {
		g.Pose = geom.Solve(target.Position, target.Heading, anchor.Offset, anchor.Heading)
		g.Snapped = true
		g.Occupied = target.Occupied()
		g.Snap = &layout.Snap{
			ParentID:   target.Track,
			ParentPort: target.ID,
			ChildPort:  anchor.ID,
		}
	} else {
		g.Pose = geom.Pose{Position: r2.Sub(cursor, anchor.Offset)}
	}
	if !g.Occupied {
		g.Occupied = r.Collide.Collides(collide.Candidate{Kind: tool.Kind, Mirror: tool.Mirror, Pose: g.Pose}, y)
	}
	return g
}

// Accepts reports whether g may be added to y: the first piece goes anywhere, every other piece
// must snap to a free port without colliding.
func Accepts(y layout.Layout, g Ghost) bool {
	return y.Empty() || (g.Snapped && !g.Occupied)
}

// Place adds g to y if Accepts allows it.
func Place(y layout.Layout, g Ghost) (layout.Layout, layout.TrackID, bool) {
	if !Accepts(y, g) {
		return y, "", false
	}
	y2, id := y.Add(g.Kind, g.Mirror, g.Pose, g.Snap)
	return y2, id, true
}
