package layout

import (
	"reflect"
	"testing"

	"github.com/lwiedman/portgraph/pkg/topo"
)

func ports(names ...string) []topo.Port {
	out := make([]topo.Port, len(names))
	for i, n := range names {
		out[i] = topo.Port{Name: n}
	}
	return out
}

func source(name string) topo.Port {
	return topo.Port{Name: name, Source: true}
}

func TestPositionSingleSource(t *testing.T) {
	got := Position(nil, []topo.Port{source("cam1")}, 100, 40, Point{})

	want := map[string]Point{"cam1": {X: 0, Y: 0}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Position = %v, want %v", got, want)
	}
}

func TestPositionLinearChain(t *testing.T) {
	ps := append([]topo.Port{source("cam1")}, ports("p1", "p2")...)
	edges := []topo.Edge{
		{Src: "cam1", Dest: "p1"},
		{Src: "p1", Dest: "p2"},
	}

	got := Position(edges, ps, 100, 40, Point{})

	want := map[string]Point{
		"cam1": {X: 0, Y: 0},
		"p1":   {X: 100, Y: 0},
		"p2":   {X: 200, Y: 0},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Position = %v, want %v", got, want)
	}
}

func TestPositionFanCentersOnParent(t *testing.T) {
	ps := append([]topo.Port{source("cam1")}, ports("a", "b", "c")...)
	edges := []topo.Edge{
		{Src: "cam1", Dest: "a"},
		{Src: "cam1", Dest: "b"},
		{Src: "cam1", Dest: "c"},
	}

	got := Position(edges, ps, 100, 40, Point{})

	// Three children shift up by one spacing and fan downwards, so the
	// middle child sits level with the parent.
	want := map[string]Point{
		"cam1": {X: 0, Y: 0},
		"a":    {X: 100, Y: -40},
		"b":    {X: 100, Y: 0},
		"c":    {X: 100, Y: 40},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Position = %v, want %v", got, want)
	}
}

func TestPositionMultipleRootsStack(t *testing.T) {
	ps := []topo.Port{source("cam2"), source("cam1")}

	got := Position(nil, ps, 100, 40, Point{})

	// Roots place in name order; the second continues below the first.
	want := map[string]Point{
		"cam1": {X: 0, Y: 0},
		"cam2": {X: 0, Y: 40},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Position = %v, want %v", got, want)
	}
}

func TestPositionOrigin(t *testing.T) {
	got := Position(nil, []topo.Port{source("cam1")}, 100, 40, Point{X: 10, Y: 20})

	want := map[string]Point{"cam1": {X: 10, Y: 20}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Position = %v, want %v", got, want)
	}
}

func TestPositionSelfLoopTerminates(t *testing.T) {
	ps := ports("a")
	edges := []topo.Edge{{Src: "a", Dest: "a"}}

	got := Position(edges, ps, 100, 40, Point{})

	if _, ok := got["a"]; !ok {
		t.Error("self-looping port must still be placed")
	}
	if len(got) != 1 {
		t.Errorf("Position = %v, want exactly one entry", got)
	}
}

func TestPositionCycleTerminates(t *testing.T) {
	ps := append([]topo.Port{source("cam1")}, ports("a", "b")...)
	edges := []topo.Edge{
		{Src: "cam1", Dest: "a"},
		{Src: "a", Dest: "b"},
		{Src: "b", Dest: "a"},
	}

	got := Position(edges, ps, 100, 40, Point{})
	if len(got) != 3 {
		t.Errorf("every port must be placed exactly once, got %v", got)
	}
}

func TestPositionDiamondPlacesOnce(t *testing.T) {
	ps := append([]topo.Port{source("cam1")}, ports("a", "b", "shared")...)
	edges := []topo.Edge{
		{Src: "cam1", Dest: "a"},
		{Src: "cam1", Dest: "b"},
		{Src: "a", Dest: "shared"},
		{Src: "b", Dest: "shared"},
	}

	got := Position(edges, ps, 100, 40, Point{})
	if len(got) != 4 {
		t.Fatalf("expected 4 placements, got %v", got)
	}
	// "a" sorts before "b", so its subtree claims the shared port.
	if got["shared"].X != 200 {
		t.Errorf("shared port should sit one level past its first parent: %v", got["shared"])
	}
}

func TestPositionDisconnectedPortsInputOrder(t *testing.T) {
	ps := append([]topo.Port{source("cam1")}, ports("zzz", "aaa")...)

	got := Position(nil, ps, 100, 40, Point{})

	// Leftovers keep input order: zzz stacks before aaa despite sorting
	// after it.
	want := map[string]Point{
		"cam1": {X: 0, Y: 0},
		"zzz":  {X: 0, Y: 40},
		"aaa":  {X: 0, Y: 80},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Position = %v, want %v", got, want)
	}
}

func TestPositionTotality(t *testing.T) {
	ps := append([]topo.Port{source("cam1"), source("cam2")}, ports("p1", "p2", "orphan")...)
	edges := []topo.Edge{
		{Src: "cam1", Dest: "p1"},
		{Src: "p1", Dest: "p2"},
		{Src: "p2", Dest: "p1"},
		{Src: "orphan", Dest: "orphan"},
	}

	got := Position(edges, ps, 100, 40, Point{})
	if len(got) != len(ps) {
		t.Fatalf("expected %d placements, got %d: %v", len(ps), len(got), got)
	}
	for _, p := range ps {
		if _, ok := got[p.Name]; !ok {
			t.Errorf("port %q missing from result", p.Name)
		}
	}
}

func TestPositionDeterminism(t *testing.T) {
	ps := append([]topo.Port{source("cam1"), source("cam2")}, ports("a", "b", "c", "d")...)
	edges := []topo.Edge{
		{Src: "cam1", Dest: "a"},
		{Src: "cam1", Dest: "b"},
		{Src: "cam2", Dest: "c"},
		{Src: "c", Dest: "d"},
	}

	first := Position(edges, ps, 150, 60, Point{})
	for i := 0; i < 50; i++ {
		if got := Position(edges, ps, 150, 60, Point{}); !reflect.DeepEqual(got, first) {
			t.Fatalf("run %d differs: %v vs %v", i, got, first)
		}
	}
}

func TestSnapshotWrapper(t *testing.T) {
	s, _ := topo.NewSnapshot([]topo.Port{source("cam1"), {Name: "p1"}}, []topo.Edge{{Src: "cam1", Dest: "p1"}})

	got := Snapshot(s)
	want := map[string]Point{
		"cam1": {X: 0, Y: 0},
		"p1":   {X: DefaultXSpacing, Y: 0},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Snapshot = %v, want %v", got, want)
	}
}
