// Package graphio is the canonical serialization format for topology
// snapshots. Used for CLI output, the HTTP API, caching, and the wire
// format of device introspection endpoints.
//
// The format is human-readable and deterministic: ports and edges are
// emitted name-sorted, so identical snapshots marshal to identical bytes.
// Device handles are process-local and do not serialize; a decoded port
// keeps its trackable flag for display but carries no handle.
package graphio

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/lwiedman/portgraph/pkg/topo"
)

// Document is the serialized form of one snapshot.
type Document struct {
	Device string       `json:"device,omitempty" bson:"device,omitempty"`
	Ports  []PortRecord `json:"ports" bson:"ports"`
	Edges  []EdgeRecord `json:"edges" bson:"edges"`
}

// PortRecord is the serialized form of one port.
type PortRecord struct {
	Name      string            `json:"name" bson:"name"`
	Source    bool              `json:"source,omitempty" bson:"source,omitempty"`
	Trackable bool              `json:"trackable,omitempty" bson:"trackable,omitempty"`
	Info      map[string]string `json:"info,omitempty" bson:"info,omitempty"`
}

// EdgeRecord is the serialized form of one directed edge.
type EdgeRecord struct {
	From string `json:"from" bson:"from"`
	To   string `json:"to" bson:"to"`
}

// FromSnapshot converts a snapshot to its serialization format with
// name-sorted ports and edges.
func FromSnapshot(s topo.Snapshot) Document {
	ports := s.Ports()
	edges := s.Edges()

	doc := Document{
		Ports: make([]PortRecord, len(ports)),
		Edges: make([]EdgeRecord, len(edges)),
	}
	for i, p := range ports {
		doc.Ports[i] = PortRecord{
			Name:      p.Name,
			Source:    p.Source,
			Trackable: p.Trackable,
			Info:      p.Info,
		}
	}
	for i, e := range edges {
		doc.Edges[i] = EdgeRecord{From: e.Src, To: e.Dest}
	}
	return doc
}

// Snapshot converts the document back to a snapshot. Edges referencing a
// port the document does not declare are dropped and returned so the
// caller can log them.
func (d Document) Snapshot() (topo.Snapshot, []topo.Edge) {
	ports := make([]topo.Port, len(d.Ports))
	for i, p := range d.Ports {
		ports[i] = topo.Port{
			Name:      p.Name,
			Source:    p.Source,
			Trackable: p.Trackable,
			Info:      p.Info,
		}
	}
	edges := make([]topo.Edge, len(d.Edges))
	for i, e := range d.Edges {
		edges[i] = topo.Edge{Src: e.From, Dest: e.To}
	}
	return topo.NewSnapshot(ports, edges)
}

// Marshal converts a snapshot to indented JSON bytes.
func Marshal(s topo.Snapshot) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(s, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Write writes a snapshot as JSON to w.
func Write(s topo.Snapshot, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(FromSnapshot(s)); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// WriteFile writes a snapshot to a JSON file with 0644 permissions.
func WriteFile(s topo.Snapshot, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return Write(s, f)
}

// Read decodes a JSON snapshot from r. The second return value lists
// edges that referenced undeclared ports and were dropped.
func Read(r io.Reader) (topo.Snapshot, []topo.Edge, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return topo.Snapshot{}, nil, fmt.Errorf("decode: %w", err)
	}
	snap, dropped := doc.Snapshot()
	return snap, dropped, nil
}

// ReadFile reads a snapshot from a JSON file.
func ReadFile(path string) (topo.Snapshot, []topo.Edge, error) {
	f, err := os.Open(path)
	if err != nil {
		return topo.Snapshot{}, nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return Read(f)
}

// Unmarshal decodes JSON bytes into a snapshot, dropping edges that
// reference undeclared ports.
func Unmarshal(data []byte) (topo.Snapshot, []topo.Edge, error) {
	return Read(bytes.NewReader(data))
}
