// Package diagram keeps a renderable node/connection model in sync with
// a topology monitor.
//
// Diagram implements topo.Listener: each refresh's events arrive in the
// monitor's delivery order (edges-removed, ports-removed, ports-added,
// edges-added) and are applied to the model one by one, so the diagram
// never holds a connection to a node that is already gone. After each
// batch the model is re-laid-out if auto-layout is enabled.
//
// The package contains no drawing code; a widget layer reads Nodes and
// Connections and renders them however it likes.
package diagram

import (
	"io"
	"slices"
	"strings"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/lwiedman/portgraph/pkg/layout"
	"github.com/lwiedman/portgraph/pkg/topo"
)

// Node is one rendered port.
type Node struct {
	Name   string
	Source bool // sources have no inbound terminal
	Pos    layout.Point
}

// Diagram mirrors the monitor's topology as nodes and connections.
type Diagram struct {
	monitor *topo.Monitor
	logger  *log.Logger

	mu    sync.Mutex
	nodes map[string]*Node
	conns map[topo.Edge]struct{}

	autoLayout bool
	xSpacing   float64
	ySpacing   float64
	origin     layout.Point
}

// Option configures a Diagram.
type Option func(*Diagram)

// WithAutoLayout toggles re-layout after each event batch. Enabled by
// default.
func WithAutoLayout(enabled bool) Option {
	return func(d *Diagram) { d.autoLayout = enabled }
}

// WithSpacing overrides the layout spacings.
func WithSpacing(x, y float64) Option {
	return func(d *Diagram) { d.xSpacing, d.ySpacing = x, y }
}

// WithLogger sets the diagram logger.
func WithLogger(l *log.Logger) Option {
	return func(d *Diagram) { d.logger = l }
}

// New creates a diagram bound to m and subscribes it for events. The
// monitor is only read for port attributes; the diagram never refreshes
// it.
func New(m *topo.Monitor, opts ...Option) *Diagram {
	d := &Diagram{
		monitor:    m,
		nodes:      make(map[string]*Node),
		conns:      make(map[topo.Edge]struct{}),
		autoLayout: true,
		xSpacing:   layout.DefaultXSpacing,
		ySpacing:   layout.DefaultYSpacing,
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.logger == nil {
		d.logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	m.Subscribe(d)
	return d
}

// Close detaches the diagram from its monitor.
func (d *Diagram) Close() {
	d.monitor.Unsubscribe(d)
}

// EdgeRemoved disconnects the terminals for src -> dest.
func (d *Diagram) EdgeRemoved(src, dest string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	e := topo.Edge{Src: src, Dest: dest}
	if _, ok := d.conns[e]; !ok {
		d.logger.Debug("edge removed that did not connect known ports", "edge", e.String())
		return
	}
	delete(d.conns, e)
}

// PortRemoved disconnects any remaining edges touching name, then
// removes its node.
func (d *Diagram) PortRemoved(name string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for e := range d.conns {
		if e.Src == name || e.Dest == name {
			delete(d.conns, e)
		}
	}
	delete(d.nodes, name)
}

// PortAdded creates a node for the port, reading its source flag from
// the monitor's current snapshot.
func (d *Diagram) PortAdded(name string) {
	port, _ := d.monitor.Current().Port(name)
	d.mu.Lock()
	defer d.mu.Unlock()
	d.nodes[name] = &Node{Name: name, Source: port.Source}
}

// EdgeAdded connects the two terminals unless the edge is a self-loop or
// touches an unknown node.
func (d *Diagram) EdgeAdded(src, dest string) {
	if src == dest {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.nodes[src]; !ok {
		d.logger.Debug("edge added to unknown port", "edge", src+" -> "+dest)
		return
	}
	if _, ok := d.nodes[dest]; !ok {
		d.logger.Debug("edge added to unknown port", "edge", src+" -> "+dest)
		return
	}
	d.conns[topo.Edge{Src: src, Dest: dest}] = struct{}{}
}

// TopologyChanged ends the batch: with auto-layout enabled, every node
// is moved to its computed coordinate.
func (d *Diagram) TopologyChanged(topo.Diff) {
	if !d.autoLayout {
		return
	}
	d.Relayout()
}

// Relayout recomputes positions from the diagram's current node and
// connection sets and moves every node.
func (d *Diagram) Relayout() {
	d.mu.Lock()
	defer d.mu.Unlock()

	ports := make([]topo.Port, 0, len(d.nodes))
	for _, n := range d.nodes {
		ports = append(ports, topo.Port{Name: n.Name, Source: n.Source})
	}
	// Layout places leftover ports in input order; sort so the result
	// does not depend on map iteration.
	slices.SortFunc(ports, func(a, b topo.Port) int {
		return strings.Compare(a.Name, b.Name)
	})

	edges := make([]topo.Edge, 0, len(d.conns))
	for e := range d.conns {
		edges = append(edges, e)
	}

	positions := layout.Position(edges, ports, d.xSpacing, d.ySpacing, d.origin)
	for name, pos := range positions {
		if n, ok := d.nodes[name]; ok {
			n.Pos = pos
		}
	}
}

// Nodes returns a name-sorted copy of the current nodes.
func (d *Diagram) Nodes() []Node {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]Node, 0, len(d.nodes))
	for _, n := range d.nodes {
		out = append(out, *n)
	}
	slices.SortFunc(out, func(a, b Node) int { return strings.Compare(a.Name, b.Name) })
	return out
}

// Node returns a copy of one node.
func (d *Diagram) Node(name string) (Node, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	n, ok := d.nodes[name]
	if !ok {
		return Node{}, false
	}
	return *n, true
}

// Connections returns the current connections sorted by (src, dest).
func (d *Diagram) Connections() []topo.Edge {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]topo.Edge, 0, len(d.conns))
	for e := range d.conns {
		out = append(out, e)
	}
	slices.SortFunc(out, func(a, b topo.Edge) int {
		if c := strings.Compare(a.Src, b.Src); c != 0 {
			return c
		}
		return strings.Compare(a.Dest, b.Dest)
	})
	return out
}

// Connected reports whether src -> dest is currently drawn.
func (d *Diagram) Connected(src, dest string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.conns[topo.Edge{Src: src, Dest: dest}]
	return ok
}

var (
	_ topo.Listener      = (*Diagram)(nil)
	_ topo.BatchListener = (*Diagram)(nil)
)
