// Package render turns topology snapshots into Graphviz DOT and SVG for
// sharing outside the live TUI.
package render

import (
	"bytes"
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/lwiedman/portgraph/pkg/topo"
)

// Options configures DOT output.
type Options struct {
	// Detailed includes the port information attributes in node labels.
	Detailed bool
}

// ToDOT converts a snapshot to Graphviz DOT format, left to right in
// data-flow order. Source ports are filled to stand out; self-loop edges
// are kept but drawn dashed so miswired plugins are visible instead of
// hidden.
//
// Output is deterministic: ports and edges are emitted name-sorted.
func ToDOT(s topo.Snapshot, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph ports {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("\n")

	for _, p := range s.Ports() {
		attrs := []string{fmt.Sprintf("label=%q", fmtLabel(p, opts.Detailed))}
		if p.Source {
			attrs = append(attrs, "fillcolor=lightblue")
		}
		fmt.Fprintf(&buf, "  %q [%s];\n", p.Name, strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, e := range s.Edges() {
		if e.Src == e.Dest {
			fmt.Fprintf(&buf, "  %q -> %q [style=dashed, color=red];\n", e.Src, e.Dest)
			continue
		}
		fmt.Fprintf(&buf, "  %q -> %q;\n", e.Src, e.Dest)
	}

	buf.WriteString("}\n")
	return buf.String()
}

func fmtLabel(p topo.Port, detailed bool) string {
	if !detailed || len(p.Info) == 0 {
		return p.Name
	}
	parts := make([]string, 0, len(p.Info))
	for _, k := range slices.Sorted(maps.Keys(p.Info)) {
		parts = append(parts, fmt.Sprintf("%s: %s", k, p.Info[k]))
	}
	return p.Name + "\n" + strings.Join(parts, "\n")
}

// SVG renders a DOT graph to SVG using Graphviz.
func SVG(dot string) ([]byte, error) {
	ctx := context.Background()
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return buf.Bytes(), nil
}
