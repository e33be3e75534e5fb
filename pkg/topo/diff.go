package topo

import "slices"

// Diff is the four-way partition between two snapshots. All lists are
// sorted so that event delivery order is deterministic for identical
// inputs.
type Diff struct {
	PortsAdded   []string
	PortsRemoved []string
	EdgesAdded   []Edge
	EdgesRemoved []Edge
}

// ComputeDiff returns the structural difference between old and new.
//
// The partition satisfies:
//
//	PortsAdded ∩ PortsRemoved = ∅
//	(old.ports − PortsRemoved) ∪ PortsAdded == new.ports
//
// and the analogous identities for edges. Both snapshots are read-only;
// computing a diff is pure set arithmetic.
func ComputeDiff(old, new Snapshot) Diff {
	var d Diff

	for name := range old.ports {
		if _, ok := new.ports[name]; !ok {
			d.PortsRemoved = append(d.PortsRemoved, name)
		}
	}
	for name := range new.ports {
		if _, ok := old.ports[name]; !ok {
			d.PortsAdded = append(d.PortsAdded, name)
		}
	}
	for e := range old.edges {
		if _, ok := new.edges[e]; !ok {
			d.EdgesRemoved = append(d.EdgesRemoved, e)
		}
	}
	for e := range new.edges {
		if _, ok := old.edges[e]; !ok {
			d.EdgesAdded = append(d.EdgesAdded, e)
		}
	}

	slices.Sort(d.PortsAdded)
	slices.Sort(d.PortsRemoved)
	slices.SortFunc(d.EdgesAdded, compareEdges)
	slices.SortFunc(d.EdgesRemoved, compareEdges)
	return d
}

// Empty reports whether the diff carries no changes at all.
func (d Diff) Empty() bool {
	return len(d.PortsAdded) == 0 &&
		len(d.PortsRemoved) == 0 &&
		len(d.EdgesAdded) == 0 &&
		len(d.EdgesRemoved) == 0
}
