package cli

import (
	"errors"
	"io"
	"path/filepath"
	"testing"

	"github.com/lwiedman/portgraph/pkg/graphio"
	"github.com/lwiedman/portgraph/pkg/topo"
)

// writeSnapshot writes a snapshot file with the given ports and edges.
func writeSnapshot(t *testing.T, path string, names []string, edges []topo.Edge) {
	t.Helper()
	ports := make([]topo.Port, len(names))
	for i, n := range names {
		ports[i] = topo.Port{Name: n}
	}
	snap, dropped := topo.NewSnapshot(ports, edges)
	if len(dropped) != 0 {
		t.Fatalf("unexpected dropped edges: %v", dropped)
	}
	if err := graphio.WriteFile(snap, path); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func runDiff(t *testing.T, oldPath, newPath string) error {
	t.Helper()
	c := New(io.Discard, LogInfo)
	cmd := c.diffCommand()
	cmd.SetArgs([]string{oldPath, newPath})
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	return cmd.Execute()
}

func TestDiffCommandIdenticalExitsZero(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.json")
	b := filepath.Join(dir, "b.json")
	writeSnapshot(t, a, []string{"cam1", "stats1"}, []topo.Edge{{Src: "cam1", Dest: "stats1"}})
	writeSnapshot(t, b, []string{"cam1", "stats1"}, []topo.Edge{{Src: "cam1", Dest: "stats1"}})

	if err := runDiff(t, a, b); err != nil {
		t.Errorf("identical snapshots: got error %v, want nil", err)
	}
}

func TestDiffCommandChangesExitNonZero(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.json")
	b := filepath.Join(dir, "b.json")
	writeSnapshot(t, a, []string{"cam1", "stats1"}, []topo.Edge{{Src: "cam1", Dest: "stats1"}})
	writeSnapshot(t, b, []string{"cam1", "stats2"}, []topo.Edge{{Src: "cam1", Dest: "stats2"}})

	err := runDiff(t, a, b)
	if !errors.Is(err, ErrSnapshotsDiffer) {
		t.Errorf("differing snapshots: got %v, want ErrSnapshotsDiffer", err)
	}
}

func TestDiffCommandMissingFile(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.json")
	writeSnapshot(t, a, []string{"cam1"}, nil)

	err := runDiff(t, a, filepath.Join(dir, "missing.json"))
	if err == nil || errors.Is(err, ErrSnapshotsDiffer) {
		t.Errorf("missing file: got %v, want a read error", err)
	}
}
