package layout

import "nyiyui.ca/hato/senro/piece"

// Islands splits the layout into its connected groups of tracks.
// Islands are ordered by their first track in placement order; within an island, tracks are in
// breadth-first order from that first track, visiting ports in piece order.
func (y Layout) Islands() [][]TrackID {
	visited := make([]bool, len(y.tracks))
	var islands [][]TrackID
	for root := range y.tracks {
		if visited[root] {
			continue
		}
		visited[root] = true
		island := []TrackID{y.tracks[root].ID}
		queue := []int{root}
		for len(queue) > 0 {
			current := queue[0]
			queue = queue[1:]
			t := y.tracks[current]
			for _, pid := range piece.PortIDs(t.Kind, t.Mirror) {
				n := t.Connections[pid]
				if n == "" {
					continue
				}
				ni, ok := y.index[n]
				if !ok || visited[ni] {
					continue
				}
				visited[ni] = true
				island = append(island, n)
				queue = append(queue, ni)
			}
		}
		islands = append(islands, island)
	}
	return islands
}

// Neighbours returns the tracks joined to id, in port order, without duplicates.
func (y Layout) Neighbours(id TrackID) []TrackID {
	t := y.MustLookup(id)
	var res []TrackID
	seen := map[TrackID]bool{}
	for _, pid := range piece.PortIDs(t.Kind, t.Mirror) {
		n := t.Connections[pid]
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		res = append(res, n)
	}
	return res
}
