// Package workspace holds the layout being edited and the state of the placing tool.
//
// All changes go through one Workspace, which serializes them. Readers take a Snapshot, which is
// never modified after it is published.
package workspace

import (
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/spatial/r2"
	"nyiyui.ca/hato/senro/layout"
	"nyiyui.ca/hato/senro/notify"
	"nyiyui.ca/hato/senro/persist"
	"nyiyui.ca/hato/senro/piece"
	"nyiyui.ca/hato/senro/place"
)

// Snapshot is the state of a Workspace at one point in time.
type Snapshot struct {
	// Version increases by one with every change.
	Version uint64
	Layout  layout.Layout
	// Tool is nil when no piece is selected.
	Tool *place.Tool
	// Cursor is nil until the first Hover.
	Cursor *r2.Vec
	// Ghost is nil when there is no tool or no cursor.
	Ghost *place.Ghost
}

type Workspace struct {
	lock     sync.Mutex
	resolver place.Resolver
	layout   layout.Layout
	tool     *place.Tool
	cursor   *r2.Vec
	ghost    *place.Ghost
	version  uint64

	snapshot    atomic.Pointer[Snapshot]
	sender      *notify.MultiplexerSender[Snapshot]
	SnapshotMux *notify.Multiplexer[Snapshot]
}

func New(resolver place.Resolver) *Workspace {
	w := &Workspace{resolver: resolver}
	s := Snapshot{}
	w.snapshot.Store(&s)
	w.sender, w.SnapshotMux = notify.NewMultiplexerSender("workspace", s)
	return w
}

// Snapshot returns the latest published state.
func (w *Workspace) Snapshot() Snapshot {
	return *w.snapshot.Load()
}

// publish must be called with lock held.
func (w *Workspace) publish() Snapshot {
	w.version++
	s := Snapshot{
		Version: w.version,
		Layout:  w.layout,
	}
	if w.tool != nil {
		tool := *w.tool
		s.Tool = &tool
	}
	if w.cursor != nil {
		cursor := *w.cursor
		s.Cursor = &cursor
	}
	if w.ghost != nil {
		ghost := *w.ghost
		s.Ghost = &ghost
	}
	w.snapshot.Store(&s)
	w.sender.Send(s)
	return s
}

// reresolve recomputes the ghost after the tool, cursor or layout changed.
// lock must be held.
func (w *Workspace) reresolve() {
	if w.tool == nil || w.cursor == nil {
		w.ghost = nil
		return
	}
	g := w.resolver.Resolve(*w.cursor, *w.tool, w.layout)
	w.ghost = &g
}

// SelectTool starts placing kind, grabbed by its first anchor and unmirrored.
func (w *Workspace) SelectTool(kind piece.Kind) {
	w.SetTool(kind, false)
}

// SetTool starts placing kind, grabbed by its first anchor. mirror is ignored for pieces that
// have no mirror image.
func (w *Workspace) SetTool(kind piece.Kind, mirror bool) {
	w.lock.Lock()
	defer w.lock.Unlock()
	w.tool = &place.Tool{Kind: kind, Mirror: mirror && piece.Mirrorable(kind)}
	w.reresolve()
	w.publish()
}

func (w *Workspace) ClearTool() {
	w.lock.Lock()
	defer w.lock.Unlock()
	w.tool = nil
	w.reresolve()
	w.publish()
}

// ToggleMirror flips the tool if it has a mirror image.
func (w *Workspace) ToggleMirror() bool {
	w.lock.Lock()
	defer w.lock.Unlock()
	return w.toggleMirror()
}

func (w *Workspace) toggleMirror() bool {
	if w.tool == nil || !piece.Mirrorable(w.tool.Kind) {
		return false
	}
	tool := *w.tool
	tool.Mirror = !tool.Mirror
	w.tool = &tool
	w.reresolve()
	w.publish()
	return true
}

// CycleAnchor grabs the tool by its next anchor port.
func (w *Workspace) CycleAnchor() bool {
	w.lock.Lock()
	defer w.lock.Unlock()
	return w.cycleAnchor()
}

func (w *Workspace) cycleAnchor() bool {
	if w.tool == nil {
		return false
	}
	n := len(piece.AnchorPorts(w.tool.Kind, w.tool.Mirror))
	if n < 2 {
		return false
	}
	tool := *w.tool
	tool.AnchorIndex = (tool.AnchorIndex + 1) % n
	w.tool = &tool
	w.reresolve()
	w.publish()
	return true
}

// Alternate mirrors a curve, and cycles the anchor of anything else.
func (w *Workspace) Alternate() bool {
	w.lock.Lock()
	defer w.lock.Unlock()
	if w.tool == nil {
		return false
	}
	if piece.Mirrorable(w.tool.Kind) {
		return w.toggleMirror()
	}
	return w.cycleAnchor()
}

// Hover moves the cursor and returns the snapshot it produced. Its Ghost is nil when no tool is
// selected, and was resolved against its Layout.
func (w *Workspace) Hover(cursor r2.Vec) Snapshot {
	w.lock.Lock()
	defer w.lock.Unlock()
	w.cursor = &cursor
	w.reresolve()
	return w.publish()
}

// Place adds the ghost at the cursor to the layout if it is accepted.
func (w *Workspace) Place() (layout.TrackID, bool) {
	w.lock.Lock()
	defer w.lock.Unlock()
	w.reresolve()
	if w.ghost == nil {
		return "", false
	}
	y, id, ok := place.Place(w.layout, *w.ghost)
	if !ok {
		zap.S().Debugw("placement rejected", "ghost", w.ghost.String())
		return "", false
	}
	w.layout = y
	zap.S().Infow("placed track", "track", w.layout.MustLookup(id).String())
	w.reresolve()
	w.publish()
	return id, true
}

// Delete removes a track. It reports whether the track existed.
func (w *Workspace) Delete(id layout.TrackID) bool {
	w.lock.Lock()
	defer w.lock.Unlock()
	if _, ok := w.layout.Lookup(id); !ok {
		return false
	}
	w.layout = w.layout.Delete(id)
	zap.S().Infow("deleted track", "id", id)
	w.reresolve()
	w.publish()
	return true
}

// UpdateGeometryCache stores renderer data on a track.
func (w *Workspace) UpdateGeometryCache(id layout.TrackID, data any) {
	w.lock.Lock()
	defer w.lock.Unlock()
	w.layout = w.layout.UpdateGeometryCache(id, data)
	w.publish()
}

// Reset empties the layout. The tool is kept.
func (w *Workspace) Reset() {
	w.lock.Lock()
	defer w.lock.Unlock()
	w.layout = layout.Layout{}
	zap.S().Info("reset layout")
	w.reresolve()
	w.publish()
}

// Load replaces the layout with islands. On error the current layout is kept.
func (w *Workspace) Load(islands []persist.Island) error {
	y, err := persist.Deserialize(islands)
	if err != nil {
		zap.S().Warnw("load failed", "err", err)
		return err
	}
	w.SetLayout(y)
	return nil
}

// SetLayout replaces the layout with y, which must already satisfy the layout invariants.
func (w *Workspace) SetLayout(y layout.Layout) {
	w.lock.Lock()
	defer w.lock.Unlock()
	w.layout = y
	zap.S().Infow("replaced layout", "tracks", y.Len())
	w.reresolve()
	w.publish()
}

func (w *Workspace) Save() []persist.Island {
	return persist.Serialize(w.Snapshot().Layout)
}
