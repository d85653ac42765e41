// Package persist converts layouts to and from their saved form.
//
// A saved layout is a list of islands. Only the first record of each island (its root) carries a
// position and rotation; every other track's pose is rebuilt on load by walking the connections
// out from the root and joining each neighbour onto its parent's port.
package persist

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/spatial/r2"
	"nyiyui.ca/hato/senro/geom"
	"nyiyui.ca/hato/senro/layout"
	"nyiyui.ca/hato/senro/piece"
)

var (
	ErrMissingField      = errors.New("missing field")
	ErrUnknownKind       = piece.ErrUnknownKind
	ErrPortMismatch      = errors.New("connections don't match the piece's ports")
	ErrDanglingReference = errors.New("connection to a track outside the island")
	ErrNoReciprocal      = errors.New("connection not returned by neighbour")
	ErrDuplicateID       = errors.New("duplicate track ID")
	ErrUnreachable       = errors.New("track not reachable from island root")
	ErrInvariant         = layout.ErrInvariant
)

// Record is one track in saved form.
type Record struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	// Mirror defaults to IsLeft, then false.
	Mirror *bool `json:"mirror,omitempty"`
	// IsLeft is the old name of Mirror. It is read but never written.
	IsLeft      *bool              `json:"isLeft,omitempty"`
	Connections map[string]*string `json:"connections"`
	// Position is [x, y, z] in mm, with y always 0. Only the island root has it.
	Position *[3]float64 `json:"position,omitempty"`
	// Rotation is the heading in radians. Only the island root has it.
	Rotation *float64 `json:"rotation,omitempty"`
}

// Island is a connected group of tracks, root first.
type Island []Record

func record(t layout.Track, root bool) Record {
	mirror := t.Mirror
	r := Record{
		ID:          string(t.ID),
		Type:        string(t.Kind),
		Mirror:      &mirror,
		Connections: map[string]*string{},
	}
	for _, pid := range piece.PortIDs(t.Kind, t.Mirror) {
		if n := t.Connections[pid]; n != "" {
			s := string(n)
			r.Connections[string(pid)] = &s
		} else {
			r.Connections[string(pid)] = nil
		}
	}
	if root {
		heading := t.Pose.Heading
		r.Position = &[3]float64{t.Pose.Position.X, 0, t.Pose.Position.Y}
		r.Rotation = &heading
	}
	return r
}

// Serialize splits y into islands. Each island's root is its earliest placed track.
func Serialize(y layout.Layout) []Island {
	islands := y.Islands()
	res := make([]Island, len(islands))
	for i, ids := range islands {
		island := make(Island, len(ids))
		for j, id := range ids {
			island[j] = record(y.MustLookup(id), j == 0)
		}
		res[i] = island
	}
	return res
}

// pending is a Record that has been checked on its own but not yet placed.
type pending struct {
	id     layout.TrackID
	kind   piece.Kind
	mirror bool
	conns  map[piece.PortID]layout.TrackID
	pose   geom.Pose
	placed bool
}

func parse(r Record) (*pending, error) {
	if r.ID == "" {
		return nil, fmt.Errorf("%w: id", ErrMissingField)
	}
	if r.Type == "" {
		return nil, fmt.Errorf("track %s: %w: type", r.ID, ErrMissingField)
	}
	kind, err := piece.ParseKind(r.Type)
	if err != nil {
		return nil, fmt.Errorf("track %s: %w", r.ID, err)
	}
	var mirror bool
	switch {
	case r.Mirror != nil:
		mirror = *r.Mirror
	case r.IsLeft != nil:
		mirror = *r.IsLeft
	}
	if r.Connections == nil {
		return nil, fmt.Errorf("track %s: %w: connections", r.ID, ErrMissingField)
	}
	ids := piece.PortIDs(kind, mirror)
	if len(r.Connections) != len(ids) {
		return nil, fmt.Errorf("track %s: %w: got %d ports, %s has %d", r.ID, ErrPortMismatch, len(r.Connections), kind, len(ids))
	}
	conns := make(map[piece.PortID]layout.TrackID, len(ids))
	for _, pid := range ids {
		n, ok := r.Connections[string(pid)]
		if !ok {
			return nil, fmt.Errorf("track %s: %w: port %s absent", r.ID, ErrPortMismatch, pid)
		}
		if n != nil {
			conns[pid] = layout.TrackID(*n)
		} else {
			conns[pid] = ""
		}
	}
	return &pending{id: layout.TrackID(r.ID), kind: kind, mirror: mirror, conns: conns}, nil
}

// reciprocal returns the first port of p, in port order, that connects to other.
func (p *pending) reciprocal(other layout.TrackID) (piece.PortID, bool) {
	for _, pid := range piece.PortIDs(p.kind, p.mirror) {
		if p.conns[pid] == other {
			return pid, true
		}
	}
	return "", false
}

func (p *pending) worldPort(pid piece.PortID) layout.WorldPort {
	for _, wp := range layout.PortsAt(p.kind, p.mirror, p.pose) {
		if wp.ID == pid {
			return wp
		}
	}
	panic(fmt.Sprintf("track %s has no port %s", p.id, pid))
}

func deserializeIsland(island Island, seen map[layout.TrackID]bool) ([]layout.Track, error) {
	if len(island) == 0 {
		return nil, fmt.Errorf("%w: empty island has no root", ErrMissingField)
	}
	members := make([]*pending, len(island))
	byID := make(map[layout.TrackID]*pending, len(island))
	for i, r := range island {
		p, err := parse(r)
		if err != nil {
			return nil, err
		}
		if seen[p.id] {
			return nil, fmt.Errorf("track %s: %w", p.id, ErrDuplicateID)
		}
		seen[p.id] = true
		members[i] = p
		byID[p.id] = p
	}
	for _, p := range members {
		for _, pid := range piece.PortIDs(p.kind, p.mirror) {
			n := p.conns[pid]
			if n == "" {
				continue
			}
			if _, ok := byID[n]; !ok {
				return nil, fmt.Errorf("track %s port %s: %w: %s", p.id, pid, ErrDanglingReference, n)
			}
		}
	}

	rootRecord := island[0]
	if rootRecord.Position == nil {
		return nil, fmt.Errorf("root %s: %w: position", rootRecord.ID, ErrMissingField)
	}
	if rootRecord.Rotation == nil {
		return nil, fmt.Errorf("root %s: %w: rotation", rootRecord.ID, ErrMissingField)
	}
	root := members[0]
	root.pose = geom.Pose{
		Position: r2.Vec{X: rootRecord.Position[0], Y: rootRecord.Position[2]},
		Heading:  geom.NormalizeAngle(*rootRecord.Rotation),
	}
	root.placed = true

	queue := []*pending{root}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, pid := range piece.PortIDs(current.kind, current.mirror) {
			n := current.conns[pid]
			if n == "" {
				continue
			}
			neighbour := byID[n]
			anchorID, ok := neighbour.reciprocal(current.id)
			if !ok {
				return nil, fmt.Errorf("track %s port %s → %s: %w", current.id, pid, n, ErrNoReciprocal)
			}
			if neighbour.placed {
				continue
			}
			target := current.worldPort(pid)
			anchor := piece.MustLookupPort(neighbour.kind, neighbour.mirror, anchorID)
			neighbour.pose = geom.Solve(target.Position, target.Heading, anchor.Offset, anchor.Heading)
			neighbour.placed = true
			queue = append(queue, neighbour)
		}
	}

	tracks := make([]layout.Track, len(members))
	for i, p := range members {
		if !p.placed {
			return nil, fmt.Errorf("track %s (root %s): %w", p.id, root.id, ErrUnreachable)
		}
		tracks[i] = layout.Track{
			ID:          p.id,
			Kind:        p.kind,
			Mirror:      p.mirror,
			Pose:        p.pose,
			Connections: p.conns,
		}
	}
	return tracks, nil
}

// Deserialize rebuilds a layout from islands. On error, no layout is returned.
func Deserialize(islands []Island) (layout.Layout, error) {
	seen := map[layout.TrackID]bool{}
	var tracks []layout.Track
	for i, island := range islands {
		ts, err := deserializeIsland(island, seen)
		if err != nil {
			return layout.Layout{}, fmt.Errorf("island %d: %w", i, err)
		}
		tracks = append(tracks, ts...)
	}
	y, err := layout.FromTracks(tracks)
	if err != nil {
		return layout.Layout{}, err
	}
	return y, nil
}

// Absolute lists every track with its pose, in placement order. The result is meant for display;
// it isn't grouped into islands and can't be passed to Deserialize.
func Absolute(y layout.Layout) []Record {
	tracks := y.Tracks()
	res := make([]Record, len(tracks))
	for i, t := range tracks {
		res[i] = record(t, true)
	}
	return res
}
