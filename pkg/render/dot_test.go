package render

import (
	"strings"
	"testing"

	"github.com/lwiedman/portgraph/pkg/topo"
)

func testSnapshot(t *testing.T) topo.Snapshot {
	t.Helper()
	s, dropped := topo.NewSnapshot([]topo.Port{
		{Name: "cam1", Source: true, Info: map[string]string{"plugin_type": "camera", "driver": "v2"}},
		{Name: "stats1"},
		{Name: "loopy"},
	}, []topo.Edge{
		{Src: "cam1", Dest: "stats1"},
		{Src: "loopy", Dest: "loopy"},
	})
	if len(dropped) != 0 {
		t.Fatalf("test snapshot dropped edges: %v", dropped)
	}
	return s
}

func TestToDOT(t *testing.T) {
	dot := ToDOT(testSnapshot(t), Options{})

	if !strings.HasPrefix(dot, "digraph ports {") {
		t.Errorf("missing digraph header:\n%s", dot)
	}
	if !strings.Contains(dot, "rankdir=LR") {
		t.Error("missing left-to-right rankdir")
	}
	if !strings.Contains(dot, `"cam1" [label="cam1", fillcolor=lightblue];`) {
		t.Errorf("source port not highlighted:\n%s", dot)
	}
	if !strings.Contains(dot, `"cam1" -> "stats1";`) {
		t.Errorf("edge missing:\n%s", dot)
	}
	// Self-loops stay visible but flagged.
	if !strings.Contains(dot, `"loopy" -> "loopy" [style=dashed, color=red];`) {
		t.Errorf("self-loop should be drawn dashed:\n%s", dot)
	}
}

func TestToDOTDetailed(t *testing.T) {
	dot := ToDOT(testSnapshot(t), Options{Detailed: true})

	// Info attributes appear in the label, sorted by key.
	if !strings.Contains(dot, "driver: v2\\nplugin_type: camera") {
		t.Errorf("detailed label missing or unsorted:\n%s", dot)
	}
}

func TestToDOTDeterministic(t *testing.T) {
	s := testSnapshot(t)
	first := ToDOT(s, Options{Detailed: true})
	for i := 0; i < 10; i++ {
		if got := ToDOT(s, Options{Detailed: true}); got != first {
			t.Fatal("DOT output differs across calls")
		}
	}
}

func TestToDOTEmptySnapshot(t *testing.T) {
	dot := ToDOT(topo.Snapshot{}, Options{})
	if !strings.HasPrefix(dot, "digraph ports {") || !strings.HasSuffix(dot, "}\n") {
		t.Errorf("empty snapshot should still be a valid graph:\n%s", dot)
	}
}
