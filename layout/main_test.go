package layout

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
	"gonum.org/v1/gonum/spatial/r2"
	"nyiyui.ca/hato/senro/geom"
	"nyiyui.ca/hato/senro/piece"
)

// randomAdd attaches a random piece to a random free port, or starts a new island.
func randomAdd(t *testing.T, rng *rand.Rand, y Layout) (Layout, TrackID) {
	t.Helper()
	kind := piece.Kinds[rng.Intn(len(piece.Kinds))]
	mirror := rng.Intn(2) == 0
	var free []WorldPort
	for _, tr := range y.Tracks() {
		for _, p := range tr.WorldPorts() {
			if !p.Occupied() {
				free = append(free, p)
			}
		}
	}
	if len(free) == 0 || rng.Intn(8) == 0 {
		pose := geom.Pose{Position: r2.Vec{X: rng.Float64() * 1000, Y: rng.Float64() * 1000}, Heading: rng.Float64() * 2 * math.Pi}
		return y.Add(kind, mirror, pose, nil)
	}
	target := free[rng.Intn(len(free))]
	anchor := piece.Anchor(kind, mirror, rng.Intn(4))
	pose := geom.Solve(target.Position, target.Heading, anchor.Offset, anchor.Heading)
	return y.Add(kind, mirror, pose, &Snap{ParentID: target.Track, ParentPort: target.ID, ChildPort: anchor.ID})
}

func TestInvariantsUnderAddDelete(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	var y Layout
	var ids []TrackID
	for step := 0; step < 500; step++ {
		if len(ids) > 0 && rng.Intn(3) == 0 {
			i := rng.Intn(len(ids))
			y = y.Delete(ids[i])
			ids = append(ids[:i], ids[i+1:]...)
		} else {
			var id TrackID
			y, id = randomAdd(t, rng, y)
			ids = append(ids, id)
		}
		if err := y.CheckInvariants(); err != nil {
			t.Fatalf("step %d: %s", step, err)
		}
		if y.Len() != len(ids) {
			t.Fatalf("step %d: %d tracks, expected %d", step, y.Len(), len(ids))
		}
	}
}

func TestAddSnap(t *testing.T) {
	var y Layout
	y, first := y.Add(piece.Straight, false, geom.Pose{}, nil)
	end := y.MustLookup(first).WorldPorts()[1]
	y2, second := y.Add(piece.Straight, false, geom.Pose{Position: end.Position}, &Snap{
		ParentID:   first,
		ParentPort: piece.PortEnd,
		ChildPort:  piece.PortStart,
	})
	if got := y2.MustLookup(first).Connections[piece.PortEnd]; got != second {
		t.Fatalf("parent end: got %q, expected %q", got, second)
	}
	expected := map[piece.PortID]TrackID{piece.PortStart: first, piece.PortEnd: ""}
	if got := y2.MustLookup(second).Connections; !cmp.Equal(got, expected) {
		t.Fatalf("child connections: %s", cmp.Diff(expected, got))
	}
	// copy-on-write: the old layout is untouched
	if got := y.MustLookup(first).Connections[piece.PortEnd]; got != "" {
		t.Fatalf("old layout was modified: end → %q", got)
	}
	if y.Len() != 1 {
		t.Fatalf("old layout has %d tracks", y.Len())
	}
}

func TestAddPanics(t *testing.T) {
	var y Layout
	y, first := y.Add(piece.Straight, false, geom.Pose{}, nil)
	y, _ = y.Add(piece.Straight, false, geom.Pose{}, &Snap{ParentID: first, ParentPort: piece.PortEnd, ChildPort: piece.PortStart})
	cases := []struct {
		name string
		snap Snap
	}{
		{"missing parent", Snap{ParentID: "nope", ParentPort: piece.PortEnd, ChildPort: piece.PortStart}},
		{"bad parent port", Snap{ParentID: first, ParentPort: piece.PortEndLeft, ChildPort: piece.PortStart}},
		{"bad child port", Snap{ParentID: first, ParentPort: piece.PortStart, ChildPort: piece.PortAStart}},
		{"taken parent port", Snap{ParentID: first, ParentPort: piece.PortEnd, ChildPort: piece.PortStart}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Fatal("expected panic")
				}
			}()
			snap := c.snap
			y.Add(piece.Straight, false, geom.Pose{}, &snap)
		})
	}
}

func TestDelete(t *testing.T) {
	var y Layout
	y, a := y.Add(piece.YSwitch, false, geom.Pose{}, nil)
	ports := y.MustLookup(a).WorldPorts()
	y, b := y.Add(piece.Straight, false, geom.Pose{}, &Snap{ParentID: a, ParentPort: ports[1].ID, ChildPort: piece.PortStart})
	y, c := y.Add(piece.Straight, false, geom.Pose{}, &Snap{ParentID: a, ParentPort: ports[2].ID, ChildPort: piece.PortStart})
	y2 := y.Delete(a)
	if _, ok := y2.Lookup(a); ok {
		t.Fatal("deleted track still present")
	}
	for _, id := range []TrackID{b, c} {
		for pid, n := range y2.MustLookup(id).Connections {
			if n == a {
				t.Fatalf("track %s port %s still connects to deleted track", id, pid)
			}
		}
	}
	y2.MustCheckInvariants()
	if got := y2.Delete(a); got.Len() != y2.Len() {
		t.Fatal("deleting a missing track changed the layout")
	}
	// the old layout still has a connected to b
	if got := y.MustLookup(b).Connections[piece.PortStart]; got != a {
		t.Fatalf("old layout was modified: b.start → %q", got)
	}
}

func TestIslands(t *testing.T) {
	var y Layout
	y, a := y.Add(piece.Straight, false, geom.Pose{}, nil)
	y, b := y.Add(piece.Curved, false, geom.Pose{}, &Snap{ParentID: a, ParentPort: piece.PortEnd, ChildPort: piece.PortStart})
	y, c := y.Add(piece.Straight, false, geom.Pose{Position: r2.Vec{X: 1000}}, nil)
	y, d := y.Add(piece.Straight, false, geom.Pose{}, &Snap{ParentID: a, ParentPort: piece.PortStart, ChildPort: piece.PortStart})
	y, e := y.Add(piece.Straight, false, geom.Pose{}, &Snap{ParentID: c, ParentPort: piece.PortEnd, ChildPort: piece.PortStart})
	expected := [][]TrackID{{a, d, b}, {c, e}}
	if got := y.Islands(); !cmp.Equal(got, expected) {
		t.Fatalf("diff: %s", cmp.Diff(expected, got))
	}
	if got := y.Neighbours(a); !cmp.Equal(got, []TrackID{d, b}) {
		t.Fatalf("neighbours: %v", got)
	}
}

func TestCount(t *testing.T) {
	var y Layout
	y, _ = y.Add(piece.Straight, false, geom.Pose{}, nil)
	y, _ = y.Add(piece.Straight, false, geom.Pose{}, nil)
	y, _ = y.Add(piece.Curved, true, geom.Pose{}, nil)
	expected := map[piece.Kind]int{piece.Straight: 2, piece.Curved: 1}
	if got := y.Count(); !cmp.Equal(got, expected) {
		t.Fatalf("diff: %s", cmp.Diff(expected, got))
	}
}

func TestUpdateGeometryCache(t *testing.T) {
	var y Layout
	y, a := y.Add(piece.Straight, false, geom.Pose{}, nil)
	y2 := y.UpdateGeometryCache(a, "mesh")
	if got := y2.MustLookup(a).Geometry; got != "mesh" {
		t.Fatalf("geometry: %v", got)
	}
	if got := y.MustLookup(a).Geometry; got != nil {
		t.Fatalf("old layout was modified: %v", got)
	}
	if got := y2.UpdateGeometryCache("nope", 1); got.Len() != 1 {
		t.Fatal("unknown track changed the layout")
	}
}

func TestFromTracksRejectsAsymmetry(t *testing.T) {
	_, err := FromTracks([]Track{
		{ID: "a", Kind: piece.Straight, Connections: map[piece.PortID]TrackID{piece.PortStart: "", piece.PortEnd: "b"}},
		{ID: "b", Kind: piece.Straight, Connections: map[piece.PortID]TrackID{piece.PortStart: "", piece.PortEnd: ""}},
	})
	if !errors.Is(err, ErrInvariant) {
		t.Fatalf("expected ErrInvariant, got %v", err)
	}
	_, err = FromTracks([]Track{
		{ID: "a", Kind: piece.Straight, Connections: map[piece.PortID]TrackID{piece.PortStart: ""}},
	})
	if !errors.Is(err, ErrInvariant) {
		t.Fatalf("missing port: expected ErrInvariant, got %v", err)
	}
}
