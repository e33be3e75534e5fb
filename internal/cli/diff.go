package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/lwiedman/portgraph/pkg/graphio"
	"github.com/lwiedman/portgraph/pkg/topo"
)

// ErrSnapshotsDiffer is returned by the diff command when the two
// snapshots are not identical, so the process exits non-zero the way
// diff(1) does. The changes themselves have already been printed.
var ErrSnapshotsDiffer = errors.New("snapshots differ")

// diffCommand creates the diff command.
func (c *CLI) diffCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "diff <old.json> <new.json>",
		Short: "Compare two topology snapshot files",
		Long: `Diff loads two snapshot files and prints the changes between them in
delivery order: edges disconnected, ports removed, ports added, edges
connected. Exits 0 when the snapshots match, 1 when they differ.`,
		Args:          cobra.ExactArgs(2),
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			oldSnap, dropped, err := graphio.ReadFile(args[0])
			if err != nil {
				return err
			}
			warnDropped(c, args[0], dropped)

			newSnap, dropped, err := graphio.ReadFile(args[1])
			if err != nil {
				return err
			}
			warnDropped(c, args[1], dropped)

			d := topo.ComputeDiff(oldSnap, newSnap)
			if d.Empty() {
				printInfo("no changes")
				return nil
			}

			for _, e := range d.EdgesRemoved {
				printRemoved("edge", fmtEdge(e.Src, e.Dest))
			}
			for _, name := range d.PortsRemoved {
				printRemoved("port", name)
			}
			for _, name := range d.PortsAdded {
				printAdded("port", name)
			}
			for _, e := range d.EdgesAdded {
				printAdded("edge", fmtEdge(e.Src, e.Dest))
			}

			printDetail("%d changes", len(d.EdgesRemoved)+len(d.PortsRemoved)+len(d.PortsAdded)+len(d.EdgesAdded))
			return ErrSnapshotsDiffer
		},
	}

	return cmd
}

func warnDropped(c *CLI, path string, dropped []topo.Edge) {
	for _, e := range dropped {
		c.Logger.Warn("ignoring edge with unknown port", "file", path, "edge", e.String())
	}
}
