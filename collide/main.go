// Package collide decides whether a piece about to be placed would run its rails through
// tracks it isn't joining.
package collide

import (
	"gonum.org/v1/gonum/spatial/r2"
	"nyiyui.ca/hato/senro/geom"
	"nyiyui.ca/hato/senro/layout"
	"nyiyui.ca/hato/senro/piece"
)

// DefaultCoincidenceThreshold is how close (in mm) two ports must be to count as joined.
const DefaultCoincidenceThreshold = 0.1

// boxPad keeps touching segments from being pruned by rounding.
const boxPad = 1e-6

// Candidate is a fully resolved piece that hasn't been placed yet.
type Candidate struct {
	Kind   piece.Kind
	Mirror bool
	Pose   geom.Pose
}

type Validator struct {
	// CoincidenceThreshold is how close (in mm) two ports must be for their tracks to count as
	// joined, exempting them from collision.
	CoincidenceThreshold float64
}

func NewValidator() Validator {
	return Validator{CoincidenceThreshold: DefaultCoincidenceThreshold}
}

// Neighbours returns the tracks that have a port coinciding with one of c's ports.
func (v Validator) Neighbours(c Candidate, y layout.Layout) map[layout.TrackID]bool {
	mine := layout.PortsAt(c.Kind, c.Mirror, c.Pose)
	res := map[layout.TrackID]bool{}
	for _, t := range y.Tracks() {
		for _, theirs := range t.WorldPorts() {
			for _, p := range mine {
				if geom.Distance(p.Position, theirs.Position) < v.CoincidenceThreshold {
					res[t.ID] = true
				}
			}
		}
	}
	return res
}

// rails is a track's rails cut into segments, with bounding boxes.
type rails struct {
	segs  []geom.Segment
	boxes []r2.Box
	box   r2.Box
}

func newRails(paths []piece.Polyline) rails {
	var r rails
	for _, path := range paths {
		for _, s := range geom.Segments(path) {
			b := s.Box()
			if len(r.segs) == 0 {
				r.box = b
			} else {
				r.box = geom.Union(r.box, b)
			}
			r.segs = append(r.segs, s)
			r.boxes = append(r.boxes, b)
		}
	}
	return r
}

func (r rails) intersects(o rails) bool {
	if !geom.Overlaps(r.box, o.box, boxPad) {
		return false
	}
	for i, s := range r.segs {
		if !geom.Overlaps(r.boxes[i], o.box, boxPad) {
			continue
		}
		for j, u := range o.segs {
			if !geom.Overlaps(r.boxes[i], o.boxes[j], boxPad) {
				continue
			}
			if s.Intersects(u) {
				return true
			}
		}
	}
	return false
}

// Collides reports whether c's rails touch the rails of any track in y other than the ones c
// joins (see Neighbours).
func (v Validator) Collides(c Candidate, y layout.Layout) bool {
	exempt := v.Neighbours(c, y)
	mine := newRails(layout.PathsAt(c.Kind, c.Mirror, c.Pose))
	for _, t := range y.Tracks() {
		if exempt[t.ID] {
			continue
		}
		if mine.intersects(newRails(t.WorldPaths())) {
			return true
		}
	}
	return false
}

// collidesNaive is Collides without any bounding box pruning.
func (v Validator) collidesNaive(c Candidate, y layout.Layout) bool {
	exempt := v.Neighbours(c, y)
	mine := layout.PathsAt(c.Kind, c.Mirror, c.Pose)
	for _, t := range y.Tracks() {
		if exempt[t.ID] {
			continue
		}
		for _, a := range mine {
			for _, b := range t.WorldPaths() {
				for _, s := range geom.Segments(a) {
					for _, u := range geom.Segments(b) {
						if s.Intersects(u) {
							return true
						}
					}
				}
			}
		}
	}
	return false
}
