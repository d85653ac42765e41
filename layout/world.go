package layout

import (
	"gonum.org/v1/gonum/spatial/r2"
	"nyiyui.ca/hato/senro/geom"
	"nyiyui.ca/hato/senro/piece"
)

// WorldPort is a port transformed into world space.
type WorldPort struct {
	Track    TrackID
	ID       piece.PortID
	Position r2.Vec
	Heading  float64
	// Neighbour is the track joined at this port, or "".
	Neighbour TrackID
}

func (p WorldPort) Occupied() bool { return p.Neighbour != "" }

// PortsAt returns the ports of a piece placed at pose, in piece order.
func PortsAt(kind piece.Kind, mirror bool, pose geom.Pose) []WorldPort {
	ports := piece.Ports(kind, mirror)
	res := make([]WorldPort, len(ports))
	for i, p := range ports {
		res[i] = WorldPort{
			ID:       p.ID,
			Position: pose.Apply(p.Offset),
			Heading:  pose.ApplyHeading(p.Heading),
		}
	}
	return res
}

// PathsAt returns the rails of a piece placed at pose.
func PathsAt(kind piece.Kind, mirror bool, pose geom.Pose) []piece.Polyline {
	paths := piece.Paths(kind, mirror)
	res := make([]piece.Polyline, len(paths))
	for i, path := range paths {
		world := make(piece.Polyline, len(path))
		for j, p := range path {
			world[j] = pose.Apply(p)
		}
		res[i] = world
	}
	return res
}

// WorldPorts returns t's ports in world space, with their neighbours.
func (t Track) WorldPorts() []WorldPort {
	ports := PortsAt(t.Kind, t.Mirror, t.Pose)
	for i := range ports {
		ports[i].Track = t.ID
		ports[i].Neighbour = t.Connections[ports[i].ID]
	}
	return ports
}

// WorldPaths returns t's rails in world space.
func (t Track) WorldPaths() []piece.Polyline {
	return PathsAt(t.Kind, t.Mirror, t.Pose)
}
