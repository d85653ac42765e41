package kujo

import (
	"gonum.org/v1/gonum/spatial/r2"
	"nyiyui.ca/hato/senro/geom"
	"nyiyui.ca/hato/senro/layout"
	"nyiyui.ca/hato/senro/persist"
	"nyiyui.ca/hato/senro/piece"
	"nyiyui.ca/hato/senro/place"
	"nyiyui.ca/hato/senro/workspace"
)

// point is [x, y, z] with y = 0, matching saved layouts.
type point [3]float64

func toPoint(v r2.Vec) point { return point{v.X, 0, v.Y} }

func (p point) vec() r2.Vec { return r2.Vec{X: p[0], Y: p[2]} }

type ToolView struct {
	Type        piece.Kind `json:"type"`
	Mirror      bool       `json:"mirror"`
	AnchorIndex int        `json:"anchorIndex"`
	Anchor      string     `json:"anchor"`
}

type GhostView struct {
	Type       piece.Kind     `json:"type"`
	Mirror     bool           `json:"mirror"`
	Position   point          `json:"position"`
	Rotation   float64        `json:"rotation"`
	Anchor     piece.PortID   `json:"anchor"`
	Snapped    bool           `json:"snapped"`
	Occupied   bool           `json:"occupied"`
	Accepted   bool           `json:"accepted"`
	ParentID   layout.TrackID `json:"parentId,omitempty"`
	ParentPort piece.PortID   `json:"parentPort,omitempty"`
}

type SnapshotView struct {
	Version uint64             `json:"version"`
	Tracks  []persist.Record   `json:"tracks"`
	Count   map[piece.Kind]int `json:"count"`
	Tool    *ToolView          `json:"tool"`
	Cursor  *point             `json:"cursor"`
	Ghost   *GhostView         `json:"ghost"`
}

func toolView(t place.Tool) *ToolView {
	return &ToolView{
		Type:        t.Kind,
		Mirror:      t.Mirror,
		AnchorIndex: t.AnchorIndex,
		Anchor:      string(t.Anchor().ID),
	}
}

func ghostView(y layout.Layout, g place.Ghost) *GhostView {
	v := &GhostView{
		Type:     g.Kind,
		Mirror:   g.Mirror,
		Position: toPoint(g.Pose.Position),
		Rotation: g.Pose.Heading,
		Anchor:   g.Anchor,
		Snapped:  g.Snapped,
		Occupied: g.Occupied,
		Accepted: place.Accepts(y, g),
	}
	if g.Snap != nil {
		v.ParentID = g.Snap.ParentID
		v.ParentPort = g.Snap.ParentPort
	}
	return v
}

func snapshotView(s workspace.Snapshot) SnapshotView {
	v := SnapshotView{
		Version: s.Version,
		Tracks:  persist.Absolute(s.Layout),
		Count:   s.Layout.Count(),
	}
	if s.Tool != nil {
		v.Tool = toolView(*s.Tool)
	}
	if s.Cursor != nil {
		c := toPoint(*s.Cursor)
		v.Cursor = &c
	}
	if s.Ghost != nil {
		v.Ghost = ghostView(s.Layout, *s.Ghost)
	}
	return v
}

type PortView struct {
	ID       piece.PortID `json:"id"`
	Position point        `json:"position"`
	Rotation float64      `json:"rotation"`
}

type PieceView struct {
	Type    piece.Kind     `json:"type"`
	Mirror  bool           `json:"mirror"`
	Ports   []PortView     `json:"ports"`
	Anchors []piece.PortID `json:"anchors"`
	Paths   [][]point      `json:"paths"`
}

// pieceViews describes every piece in local space, mirrored and not.
func pieceViews() []PieceView {
	var res []PieceView
	for _, kind := range piece.Kinds {
		for _, mirror := range []bool{false, true} {
			v := PieceView{Type: kind, Mirror: mirror}
			for _, p := range piece.Ports(kind, mirror) {
				v.Ports = append(v.Ports, PortView{ID: p.ID, Position: toPoint(p.Offset), Rotation: geom.NormalizeAngle(p.Heading)})
			}
			for _, p := range piece.AnchorPorts(kind, mirror) {
				v.Anchors = append(v.Anchors, p.ID)
			}
			for _, path := range piece.Paths(kind, mirror) {
				points := make([]point, len(path))
				for i, p := range path {
					points[i] = toPoint(p)
				}
				v.Paths = append(v.Paths, points)
			}
			res = append(res, v)
		}
	}
	return res
}
