package workspace

import (
	"errors"
	"sync"
	"testing"
	"time"

	"gonum.org/v1/gonum/spatial/r2"
	"nyiyui.ca/hato/senro/persist"
	"nyiyui.ca/hato/senro/piece"
	"nyiyui.ca/hato/senro/piece/duplo"
	"nyiyui.ca/hato/senro/place"
)

func TestPlaceTwoStraights(t *testing.T) {
	w := New(place.NewResolver())
	if _, ok := w.Place(); ok {
		t.Fatal("placed without a tool")
	}
	w.SelectTool(piece.Straight)
	if _, ok := w.Place(); ok {
		t.Fatal("placed without a cursor")
	}
	g := w.Hover(r2.Vec{}).Ghost
	if g == nil || g.Snapped {
		t.Fatalf("unexpected ghost %v", g)
	}
	first, ok := w.Place()
	if !ok {
		t.Fatal("first piece rejected")
	}
	g = w.Hover(r2.Vec{X: 2, Y: duplo.StraightLength - 3}).Ghost
	if g == nil || !g.Snapped || g.Occupied {
		t.Fatalf("unexpected ghost %v", g)
	}
	second, ok := w.Place()
	if !ok {
		t.Fatal("second piece rejected")
	}
	s := w.Snapshot()
	if s.Layout.Len() != 2 {
		t.Fatalf("%d tracks, expected 2", s.Layout.Len())
	}
	if got := s.Layout.MustLookup(first).Connections[piece.PortEnd]; got != second {
		t.Fatalf("first end connected to %q", got)
	}
	// the port just used is now taken
	if s.Ghost == nil || !s.Ghost.Occupied {
		t.Fatalf("ghost after placing: %v", s.Ghost)
	}
	if _, ok := w.Place(); ok {
		t.Fatal("placed onto an occupied port")
	}
	if got := s.Layout.Count()[piece.Straight]; got != 2 {
		t.Fatalf("count %d, expected 2", got)
	}
}

func TestAlternate(t *testing.T) {
	w := New(place.NewResolver())
	if w.Alternate() {
		t.Fatal("alternated without a tool")
	}
	w.SelectTool(piece.Curved)
	if !w.Alternate() || !w.Snapshot().Tool.Mirror {
		t.Fatal("curve not mirrored")
	}
	if w.CycleAnchor() {
		t.Fatal("curve has one anchor")
	}
	w.SelectTool(piece.YSwitch)
	if w.Snapshot().Tool.Mirror {
		t.Fatal("SelectTool kept mirror")
	}
	if w.ToggleMirror() {
		t.Fatal("mirrored a Y switch")
	}
	for _, expected := range []int{1, 2, 0} {
		if !w.Alternate() {
			t.Fatal("Alternate failed")
		}
		if got := w.Snapshot().Tool.AnchorIndex; got != expected {
			t.Fatalf("anchor %d, expected %d", got, expected)
		}
	}
	w.ClearTool()
	if w.Snapshot().Tool != nil {
		t.Fatal("tool not cleared")
	}
}

func TestLoadKeepsLayoutOnError(t *testing.T) {
	w := New(place.NewResolver())
	w.SelectTool(piece.Straight)
	w.Hover(r2.Vec{})
	id, _ := w.Place()
	bad := []persist.Island{{{ID: "x", Type: "HELIX"}}}
	if err := w.Load(bad); !errors.Is(err, persist.ErrUnknownKind) {
		t.Fatalf("got %v, expected %v", err, persist.ErrUnknownKind)
	}
	if _, ok := w.Snapshot().Layout.Lookup(id); !ok {
		t.Fatal("layout replaced by failed load")
	}
	saved := w.Save()
	w.Reset()
	if !w.Snapshot().Layout.Empty() {
		t.Fatal("Reset left tracks")
	}
	if err := w.Load(saved); err != nil {
		t.Fatal(err)
	}
	if _, ok := w.Snapshot().Layout.Lookup(id); !ok {
		t.Fatal("track missing after reload")
	}
}

func TestDelete(t *testing.T) {
	w := New(place.NewResolver())
	w.SelectTool(piece.Straight)
	w.Hover(r2.Vec{})
	id, _ := w.Place()
	if !w.Delete(id) {
		t.Fatal("Delete failed")
	}
	if w.Delete(id) {
		t.Fatal("deleted twice")
	}
}

func TestPublishes(t *testing.T) {
	w := New(place.NewResolver())
	ch := make(chan Snapshot, 8)
	w.SnapshotMux.Subscribe("test", ch)
	defer w.SnapshotMux.Unsubscribe(ch)
	w.SelectTool(piece.Straight)
	select {
	case s := <-ch:
		if s.Version != 1 || s.Tool == nil || s.Tool.Kind != piece.Straight {
			t.Fatalf("unexpected snapshot %+v", s)
		}
	case <-time.After(time.Second):
		t.Fatal("no snapshot published")
	}
	if got := w.SnapshotMux.Current().Version; got != 1 {
		t.Fatalf("Current version %d, expected 1", got)
	}
}

func TestConcurrentReaders(t *testing.T) {
	w := New(place.NewResolver())
	w.SelectTool(piece.Curved)
	var wg sync.WaitGroup
	done := make(chan struct{})
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			var last uint64
			for {
				select {
				case <-done:
					return
				default:
				}
				s := w.Snapshot()
				if s.Version < last {
					t.Error("version went backwards")
					return
				}
				last = s.Version
				s.Layout.MustCheckInvariants()
			}
		}()
	}
	for i := 0; i < 200; i++ {
		w.Hover(r2.Vec{X: float64(i), Y: float64(i)})
		w.Place()
		w.Alternate()
	}
	close(done)
	wg.Wait()
}

func TestSetTool(t *testing.T) {
	w := New(place.NewResolver())
	ch := make(chan Snapshot, 8)
	w.SnapshotMux.Subscribe("test", ch)
	defer w.SnapshotMux.Unsubscribe(ch)
	w.SetTool(piece.Curved, true)
	select {
	case s := <-ch:
		if s.Tool == nil || s.Tool.Kind != piece.Curved || !s.Tool.Mirror {
			t.Fatalf("first snapshot has tool %+v", s.Tool)
		}
	case <-time.After(time.Second):
		t.Fatal("no snapshot published")
	}
	w.SetTool(piece.YSwitch, true)
	if w.Snapshot().Tool.Mirror {
		t.Fatal("Y switch mirrored")
	}
}

func TestHoverSnapshot(t *testing.T) {
	w := New(place.NewResolver())
	if s := w.Hover(r2.Vec{}); s.Ghost != nil || s.Cursor == nil {
		t.Fatalf("hover without tool: %+v", s)
	}
	w.SelectTool(piece.Straight)
	w.Hover(r2.Vec{})
	w.Place()
	s := w.Hover(r2.Vec{Y: duplo.StraightLength})
	if s.Version != w.Snapshot().Version {
		t.Fatalf("Hover returned version %d, latest is %d", s.Version, w.Snapshot().Version)
	}
	if s.Ghost == nil || !s.Ghost.Snapped || !place.Accepts(s.Layout, *s.Ghost) {
		t.Fatalf("unexpected ghost %v", s.Ghost)
	}
}
