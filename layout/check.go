package layout

import (
	"errors"
	"fmt"

	"nyiyui.ca/hato/senro/piece"
)

// ErrInvariant is wrapped by every error returned from CheckInvariants.
var ErrInvariant = errors.New("layout invariant violated")

// CheckInvariants checks that:
//   - every track's Connections has exactly the ports of its piece,
//   - every connection points to an existing, different track,
//   - connections are symmetric: A has as many ports joined to B as B has joined to A.
func (y Layout) CheckInvariants() error {
	for _, t := range y.tracks {
		if t.ID == "" {
			return fmt.Errorf("%w: track with empty ID", ErrInvariant)
		}
		if !t.Kind.Valid() {
			return fmt.Errorf("%w: track %s: unknown kind %q", ErrInvariant, t.ID, t.Kind)
		}
		ids := piece.PortIDs(t.Kind, t.Mirror)
		if len(t.Connections) != len(ids) {
			return fmt.Errorf("%w: track %s: %d connection entries for %d ports", ErrInvariant, t.ID, len(t.Connections), len(ids))
		}
		for _, pid := range ids {
			n, ok := t.Connections[pid]
			if !ok {
				return fmt.Errorf("%w: track %s: no connection entry for port %s", ErrInvariant, t.ID, pid)
			}
			if n == "" {
				continue
			}
			if n == t.ID {
				return fmt.Errorf("%w: track %s: port %s connects to itself", ErrInvariant, t.ID, pid)
			}
			other, ok := y.Lookup(n)
			if !ok {
				return fmt.Errorf("%w: track %s: port %s connects to nonexistent track %s", ErrInvariant, t.ID, pid, n)
			}
			if there, back := countLinks(t, n), countLinks(other, t.ID); there != back {
				return fmt.Errorf("%w: track %s has %d links to %s but %d links back", ErrInvariant, t.ID, there, n, back)
			}
		}
	}
	return nil
}

// MustCheckInvariants panics if CheckInvariants fails.
func (y Layout) MustCheckInvariants() {
	if err := y.CheckInvariants(); err != nil {
		panic(err)
	}
}

func countLinks(t Track, other TrackID) int {
	n := 0
	for _, c := range t.Connections {
		if c == other {
			n++
		}
	}
	return n
}
