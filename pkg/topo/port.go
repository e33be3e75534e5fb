package topo

import (
	"context"
	"maps"
	"slices"
	"strings"
)

// Port is a named node in the pipeline topology: a data source (camera)
// or a downstream processing stage.
//
// A port is "trackable" when the device can report changes to its
// upstream wiring; the monitor registers a Track subscription for every
// trackable port in the current snapshot. Whether a port is a source or
// trackable is decided at construction time by the introspector - the
// core never inspects the handle to find out.
type Port struct {
	Name      string            // unique within a snapshot
	Source    bool              // topology root with no upstream input
	Trackable bool              // supports Handle.Track
	Handle    Handle            // device-side object, nil for passive ports
	Info      map[string]string // plugin type, driver version, etc.
}

// Handle is the opaque device-side object backing a port.
//
// Track registers fn to run whenever the port's upstream wiring changes.
// Implementations must not invoke fn synchronously from within Track
// itself: registration happens while the monitor holds its state lock,
// and a synchronous callback would re-enter it. Callbacks fired from
// other goroutines at any later point are fine.
type Handle interface {
	Track(fn func()) (Subscription, error)
}

// Subscription is the cancel handle for one Track registration. It is
// captured when the subscription is created, so cancellation never needs
// to look the port up in any snapshot - in particular not in the snapshot
// the port has just disappeared from.
type Subscription interface {
	Cancel() error
}

// Edge is a directed connection meaning "Dest reads from Src".
type Edge struct {
	Src  string
	Dest string
}

func (e Edge) String() string { return e.Src + " -> " + e.Dest }

// compareEdges orders edges by source name, then destination name.
func compareEdges(a, b Edge) int {
	if c := strings.Compare(a.Src, b.Src); c != 0 {
		return c
	}
	return strings.Compare(a.Dest, b.Dest)
}

// Introspector returns one consistent view of the device topology per
// call. The call may block up to the device timeout; rate limiting is the
// caller's concern. A failed call must leave the caller's state alone.
type Introspector interface {
	Introspect(ctx context.Context) (Snapshot, error)
}

// Snapshot is an immutable (port set, edge set) pair representing the
// topology at one instant. The zero value is a valid empty snapshot.
//
// Snapshots are replaced wholesale, never mutated: accessors return
// copies or sorted slices, and the backing maps are never written after
// NewSnapshot returns.
type Snapshot struct {
	ports map[string]Port
	edges map[Edge]struct{}
}

// NewSnapshot builds a snapshot from a port list and an edge list.
//
// Edges referencing a port name absent from ports are invalid and are
// dropped rather than treated as fatal; the dropped edges are returned so
// the caller can log them. Duplicate port names keep the last entry.
func NewSnapshot(ports []Port, edges []Edge) (Snapshot, []Edge) {
	s := Snapshot{
		ports: make(map[string]Port, len(ports)),
		edges: make(map[Edge]struct{}, len(edges)),
	}
	for _, p := range ports {
		s.ports[p.Name] = p
	}

	var dropped []Edge
	for _, e := range edges {
		if _, ok := s.ports[e.Src]; !ok {
			dropped = append(dropped, e)
			continue
		}
		if _, ok := s.ports[e.Dest]; !ok {
			dropped = append(dropped, e)
			continue
		}
		s.edges[e] = struct{}{}
	}
	return s, dropped
}

// Port looks up a port by name.
func (s Snapshot) Port(name string) (Port, bool) {
	p, ok := s.ports[name]
	return p, ok
}

// HasPort reports whether name exists in the snapshot.
func (s Snapshot) HasPort(name string) bool {
	_, ok := s.ports[name]
	return ok
}

// HasEdge reports whether the directed edge src -> dest exists.
func (s Snapshot) HasEdge(src, dest string) bool {
	_, ok := s.edges[Edge{Src: src, Dest: dest}]
	return ok
}

// Ports returns all ports sorted by name.
func (s Snapshot) Ports() []Port {
	out := make([]Port, 0, len(s.ports))
	for _, name := range s.PortNames() {
		out = append(out, s.ports[name])
	}
	return out
}

// PortNames returns all port names sorted.
func (s Snapshot) PortNames() []string {
	return slices.Sorted(maps.Keys(s.ports))
}

// Edges returns all edges sorted by (src, dest).
func (s Snapshot) Edges() []Edge {
	out := make([]Edge, 0, len(s.edges))
	for e := range s.edges {
		out = append(out, e)
	}
	slices.SortFunc(out, compareEdges)
	return out
}

// Sources returns the names of all source ports, sorted.
func (s Snapshot) Sources() []string {
	var out []string
	for name, p := range s.ports {
		if p.Source {
			out = append(out, name)
		}
	}
	slices.Sort(out)
	return out
}

// PortCount returns the number of ports.
func (s Snapshot) PortCount() int { return len(s.ports) }

// EdgeCount returns the number of edges.
func (s Snapshot) EdgeCount() int { return len(s.edges) }
