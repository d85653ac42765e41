// Package layout is the network of placed track pieces and how their ports are joined.
//
// A Layout is an immutable value: Add, Delete and UpdateGeometryCache return a new Layout and
// leave the receiver as it was, so readers holding an older Layout never see a half-applied
// change.
package layout

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/exp/slices"
	"nyiyui.ca/hato/senro/geom"
	"nyiyui.ca/hato/senro/piece"
)

// TrackID identifies a Track. The zero value means "no track".
type TrackID string

// NewTrackID returns a fresh random TrackID.
func NewTrackID() TrackID {
	return TrackID(uuid.NewString())
}

type Track struct {
	ID     TrackID
	Kind   piece.Kind
	Mirror bool
	Pose   geom.Pose
	// Connections has exactly one entry per port of the piece. Unconnected ports map to "".
	Connections map[piece.PortID]TrackID
	// Geometry is display data derived from the piece by a renderer. It is never persisted.
	Geometry any
}

func (t Track) String() string {
	b := new(strings.Builder)
	fmt.Fprintf(b, "%s %s", t.ID, t.Kind)
	if t.Mirror {
		fmt.Fprint(b, " mirror")
	}
	fmt.Fprintf(b, " %s", t.Pose)
	for _, id := range piece.PortIDs(t.Kind, t.Mirror) {
		if n := t.Connections[id]; n != "" {
			fmt.Fprintf(b, " %s→%s", id, n)
		} else {
			fmt.Fprintf(b, " %s→NA", id)
		}
	}
	return b.String()
}

// Port returns the port on t that is connected to other, if any.
// When several ports connect to other, the first in port order is returned.
func (t Track) Port(other TrackID) (piece.PortID, bool) {
	for _, id := range piece.PortIDs(t.Kind, t.Mirror) {
		if t.Connections[id] == other {
			return id, true
		}
	}
	return "", false
}

func (t Track) cloneConnections() map[piece.PortID]TrackID {
	conns := make(map[piece.PortID]TrackID, len(t.Connections))
	for k, v := range t.Connections {
		conns[k] = v
	}
	return conns
}

// Snap says which existing port a new track attaches to, and by which of its own ports.
type Snap struct {
	ParentID   TrackID
	ParentPort piece.PortID
	ChildPort  piece.PortID
}

type Layout struct {
	tracks []Track
	index  map[TrackID]int
}

func (y Layout) Len() int { return len(y.tracks) }

func (y Layout) Empty() bool { return len(y.tracks) == 0 }

// Tracks returns the tracks in placement order.
// The Connections maps are shared with the Layout and must not be modified.
func (y Layout) Tracks() []Track {
	return slices.Clone(y.tracks)
}

func (y Layout) Lookup(id TrackID) (Track, bool) {
	i, ok := y.index[id]
	if !ok {
		return Track{}, false
	}
	return y.tracks[i], true
}

// MustLookup is Lookup but panics if the track doesn't exist.
func (y Layout) MustLookup(id TrackID) Track {
	t, ok := y.Lookup(id)
	if !ok {
		panic(fmt.Sprintf("track %s doesn't exist", id))
	}
	return t
}

// Count returns how many tracks of each kind there are.
func (y Layout) Count() map[piece.Kind]int {
	res := map[piece.Kind]int{}
	for _, t := range y.tracks {
		res[t.Kind]++
	}
	return res
}

func reindex(tracks []Track) map[TrackID]int {
	index := make(map[TrackID]int, len(tracks))
	for i, t := range tracks {
		index[t.ID] = i
	}
	return index
}

// Add places a new track and returns the new Layout and the track's ID.
// If snap is not nil, the new track's snap.ChildPort and the parent's snap.ParentPort are
// joined.
//
// Add panics if the parent doesn't exist, a port doesn't belong to its piece, or either port
// is already taken.
func (y Layout) Add(kind piece.Kind, mirror bool, pose geom.Pose, snap *Snap) (Layout, TrackID) {
	id := NewTrackID()
	return y.add(id, kind, mirror, pose, snap), id
}

func (y Layout) add(id TrackID, kind piece.Kind, mirror bool, pose geom.Pose, snap *Snap) Layout {
	if _, ok := y.index[id]; ok {
		panic(fmt.Sprintf("track %s already exists", id))
	}
	conns := map[piece.PortID]TrackID{}
	for _, pid := range piece.PortIDs(kind, mirror) {
		conns[pid] = ""
	}
	tracks := make([]Track, len(y.tracks), len(y.tracks)+1)
	copy(tracks, y.tracks)
	if snap != nil {
		pi, ok := y.index[snap.ParentID]
		if !ok {
			panic(fmt.Sprintf("snap parent %s doesn't exist", snap.ParentID))
		}
		parent := tracks[pi]
		piece.MustLookupPort(parent.Kind, parent.Mirror, snap.ParentPort)
		piece.MustLookupPort(kind, mirror, snap.ChildPort)
		if taken := parent.Connections[snap.ParentPort]; taken != "" {
			panic(fmt.Sprintf("port %s of track %s is already connected to %s", snap.ParentPort, parent.ID, taken))
		}
		parent.Connections = parent.cloneConnections()
		parent.Connections[snap.ParentPort] = id
		tracks[pi] = parent
		conns[snap.ChildPort] = snap.ParentID
	}
	pose.Heading = geom.NormalizeAngle(pose.Heading)
	tracks = append(tracks, Track{
		ID:          id,
		Kind:        kind,
		Mirror:      mirror,
		Pose:        pose,
		Connections: conns,
	})
	return Layout{tracks: tracks, index: reindex(tracks)}
}

// Delete removes a track and disconnects every port that was connected to it.
// Deleting a track that doesn't exist returns y unchanged.
func (y Layout) Delete(id TrackID) Layout {
	if _, ok := y.index[id]; !ok {
		return y
	}
	tracks := make([]Track, 0, len(y.tracks)-1)
	for _, t := range y.tracks {
		if t.ID == id {
			continue
		}
		if _, connected := t.Port(id); connected {
			t.Connections = t.cloneConnections()
			for pid, n := range t.Connections {
				if n == id {
					t.Connections[pid] = ""
				}
			}
		}
		tracks = append(tracks, t)
	}
	return Layout{tracks: tracks, index: reindex(tracks)}
}

// UpdateGeometryCache attaches renderer data to a track. It doesn't affect connectivity.
// Unknown tracks are ignored, as a renderer may finish after the track was deleted.
func (y Layout) UpdateGeometryCache(id TrackID, data any) Layout {
	i, ok := y.index[id]
	if !ok {
		return y
	}
	tracks := slices.Clone(y.tracks)
	tracks[i].Geometry = data
	return Layout{tracks: tracks, index: y.index}
}

// FromTracks builds a Layout from fully specified tracks, e.g. when loading a saved layout.
// The tracks must satisfy the same invariants that Add and Delete keep.
func FromTracks(tracks []Track) (Layout, error) {
	ts := make([]Track, len(tracks))
	for i, t := range tracks {
		t.Connections = t.cloneConnections()
		t.Pose.Heading = geom.NormalizeAngle(t.Pose.Heading)
		ts[i] = t
	}
	y := Layout{tracks: ts, index: reindex(ts)}
	if len(y.index) != len(ts) {
		return Layout{}, fmt.Errorf("%w: duplicate track ID", ErrInvariant)
	}
	if err := y.CheckInvariants(); err != nil {
		return Layout{}, err
	}
	return y, nil
}
