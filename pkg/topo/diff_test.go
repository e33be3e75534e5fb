package topo

import (
	"reflect"
	"testing"
)

func snap(t *testing.T, names []string, edges []Edge) Snapshot {
	t.Helper()
	ports := make([]Port, len(names))
	for i, n := range names {
		ports[i] = Port{Name: n}
	}
	s, dropped := NewSnapshot(ports, edges)
	if len(dropped) != 0 {
		t.Fatalf("test snapshot dropped edges: %v", dropped)
	}
	return s
}

func TestComputeDiffEmpty(t *testing.T) {
	s := snap(t, []string{"a", "b"}, []Edge{{Src: "a", Dest: "b"}})

	d := ComputeDiff(s, s)
	if !d.Empty() {
		t.Errorf("diff of identical snapshots should be empty: %+v", d)
	}

	d = ComputeDiff(Snapshot{}, Snapshot{})
	if !d.Empty() {
		t.Errorf("diff of zero snapshots should be empty: %+v", d)
	}
}

func TestComputeDiffPartition(t *testing.T) {
	old := snap(t, []string{"cam1", "stats1", "roi1"}, []Edge{
		{Src: "cam1", Dest: "stats1"},
		{Src: "cam1", Dest: "roi1"},
	})
	new := snap(t, []string{"cam1", "stats1", "stats2"}, []Edge{
		{Src: "cam1", Dest: "stats1"},
		{Src: "stats1", Dest: "stats2"},
	})

	d := ComputeDiff(old, new)

	if got, want := d.PortsAdded, []string{"stats2"}; !reflect.DeepEqual(got, want) {
		t.Errorf("PortsAdded = %v, want %v", got, want)
	}
	if got, want := d.PortsRemoved, []string{"roi1"}; !reflect.DeepEqual(got, want) {
		t.Errorf("PortsRemoved = %v, want %v", got, want)
	}
	if got, want := d.EdgesAdded, []Edge{{Src: "stats1", Dest: "stats2"}}; !reflect.DeepEqual(got, want) {
		t.Errorf("EdgesAdded = %v, want %v", got, want)
	}
	if got, want := d.EdgesRemoved, []Edge{{Src: "cam1", Dest: "roi1"}}; !reflect.DeepEqual(got, want) {
		t.Errorf("EdgesRemoved = %v, want %v", got, want)
	}
}

func TestComputeDiffSorted(t *testing.T) {
	old := snap(t, []string{"z", "m", "a"}, nil)
	new := snap(t, []string{"c", "b", "q"}, []Edge{
		{Src: "q", Dest: "b"},
		{Src: "b", Dest: "c"},
		{Src: "b", Dest: "q"},
	})

	d := ComputeDiff(old, new)

	if got, want := d.PortsRemoved, []string{"a", "m", "z"}; !reflect.DeepEqual(got, want) {
		t.Errorf("PortsRemoved not sorted: %v", got)
	}
	if got, want := d.PortsAdded, []string{"b", "c", "q"}; !reflect.DeepEqual(got, want) {
		t.Errorf("PortsAdded not sorted: %v", got)
	}
	want := []Edge{{Src: "b", Dest: "c"}, {Src: "b", Dest: "q"}, {Src: "q", Dest: "b"}}
	if !reflect.DeepEqual(d.EdgesAdded, want) {
		t.Errorf("EdgesAdded not sorted by (src, dest): %v", d.EdgesAdded)
	}
}

func TestComputeDiffFromEmpty(t *testing.T) {
	new := snap(t, []string{"cam1", "stats1"}, []Edge{{Src: "cam1", Dest: "stats1"}})

	d := ComputeDiff(Snapshot{}, new)
	if got, want := d.PortsAdded, []string{"cam1", "stats1"}; !reflect.DeepEqual(got, want) {
		t.Errorf("PortsAdded = %v, want %v", got, want)
	}
	if len(d.PortsRemoved) != 0 || len(d.EdgesRemoved) != 0 {
		t.Errorf("nothing should be removed against the empty snapshot: %+v", d)
	}

	// And the reverse: everything disappears.
	d = ComputeDiff(new, Snapshot{})
	if got, want := d.PortsRemoved, []string{"cam1", "stats1"}; !reflect.DeepEqual(got, want) {
		t.Errorf("PortsRemoved = %v, want %v", got, want)
	}
	if len(d.PortsAdded) != 0 || len(d.EdgesAdded) != 0 {
		t.Errorf("nothing should be added going to the empty snapshot: %+v", d)
	}
}

func TestNewSnapshotDropsUnknownEdges(t *testing.T) {
	s, dropped := NewSnapshot(
		[]Port{{Name: "a"}, {Name: "b"}},
		[]Edge{
			{Src: "a", Dest: "b"},
			{Src: "a", Dest: "ghost"},
			{Src: "ghost", Dest: "b"},
		},
	)

	if len(dropped) != 2 {
		t.Fatalf("expected 2 dropped edges, got %v", dropped)
	}
	if s.EdgeCount() != 1 || !s.HasEdge("a", "b") {
		t.Errorf("valid edge should survive: %v", s.Edges())
	}
}

func TestSnapshotAccessorsSorted(t *testing.T) {
	s := snap(t, []string{"zeta", "alpha", "mid"}, nil)

	if got, want := s.PortNames(), []string{"alpha", "mid", "zeta"}; !reflect.DeepEqual(got, want) {
		t.Errorf("PortNames = %v, want %v", got, want)
	}
}

func TestSnapshotSources(t *testing.T) {
	s, _ := NewSnapshot([]Port{
		{Name: "stats1"},
		{Name: "cam2", Source: true},
		{Name: "cam1", Source: true},
	}, nil)

	if got, want := s.Sources(), []string{"cam1", "cam2"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Sources = %v, want %v", got, want)
	}
}
