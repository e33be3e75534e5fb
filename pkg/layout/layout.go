// Package layout computes deterministic 2-D coordinates for a port
// topology, suitable for diagram rendering.
//
// The engine is a pure function over a (port set, edge set) pair: no
// retained state, no randomness, no dependence on map iteration order.
// Two calls with identical arguments return identical maps, so it may be
// called concurrently from any goroutine.
package layout

import (
	"slices"

	"github.com/lwiedman/portgraph/pkg/topo"
)

// Default spacings, sized for a 100x40 node box with 1.5x padding.
const (
	DefaultXSpacing = 150
	DefaultYSpacing = 60
)

// Point is a 2-D coordinate.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Position places every port of the topology and returns a map from port
// name to coordinate.
//
// Source ports are roots: each is placed in name order at origin.X,
// stacking vertically, and its downstream tree fans out to the right.
// Children of a port are visited in name order, one xSpacing to the
// right, spread ySpacing apart and shifted up by half their count so the
// fan centers on the parent. Ports unreachable from any root are placed
// afterwards in their input order, continuing the vertical stacking.
//
// Self-loop edges are excluded from every child list before recursing;
// together with the already-placed check this bounds the recursion on
// self-referential and cyclic wiring. Every port in ports appears in the
// result exactly once.
func Position(edges []topo.Edge, ports []topo.Port, xSpacing, ySpacing float64, origin Point) map[string]Point {
	positions := make(map[string]Point, len(ports))

	// Child lists keyed by source, name-sorted, self-loops dropped. The
	// self-loop exclusion must never be omitted: a port feeding itself
	// would otherwise recurse forever.
	children := make(map[string][]string)
	for _, e := range edges {
		if e.Src == e.Dest {
			continue
		}
		children[e.Src] = append(children[e.Src], e.Dest)
	}
	for _, kids := range children {
		slices.Sort(kids)
	}

	var place func(port string, x, y float64)
	place = func(port string, x, y float64) {
		if _, done := positions[port]; done {
			return
		}
		positions[port] = Point{X: x, Y: y}

		kids := children[port]
		if len(kids) == 0 {
			return
		}
		y -= ySpacing * float64(len(kids)/2)
		for i, kid := range kids {
			place(kid, x+xSpacing, y+float64(i)*ySpacing)
		}
	}

	// nextY continues stacking below everything placed so far; before the
	// first placement it is simply the origin.
	nextY := func() float64 {
		if len(positions) == 0 {
			return origin.Y
		}
		max := origin.Y
		first := true
		for _, p := range positions {
			if first || p.Y > max {
				max = p.Y
				first = false
			}
		}
		return max + ySpacing
	}

	var roots []string
	for _, p := range ports {
		if p.Source {
			roots = append(roots, p.Name)
		}
	}
	slices.Sort(roots)

	for _, root := range roots {
		place(root, origin.X, nextY())
	}

	// Ports disconnected from every root, in input order.
	for _, p := range ports {
		if _, done := positions[p.Name]; !done {
			place(p.Name, origin.X, nextY())
		}
	}

	return positions
}

// Snapshot is a convenience wrapper around Position for a whole snapshot
// with the default spacings.
func Snapshot(s topo.Snapshot) map[string]Point {
	return Position(s.Edges(), s.Ports(), DefaultXSpacing, DefaultYSpacing, Point{})
}
