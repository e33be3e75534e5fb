// Package introspect provides topo.Introspector implementations: a fixed
// snapshot for tests and fixtures, an in-memory simulated device with
// rewirable trackable ports, and an HTTP client for real device
// introspection endpoints.
package introspect

import (
	"context"
	"sync"

	"github.com/lwiedman/portgraph/pkg/topo"
)

// Static serves a fixed snapshot. Swap the snapshot or inject an error at
// any time; both take effect on the next Introspect call. Useful for
// tests and for rendering from files.
type Static struct {
	mu   sync.Mutex
	snap topo.Snapshot
	err  error
}

// NewStatic creates a static introspector serving snap.
func NewStatic(snap topo.Snapshot) *Static {
	return &Static{snap: snap}
}

// Introspect returns the configured snapshot or error.
func (s *Static) Introspect(ctx context.Context) (topo.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return topo.Snapshot{}, s.err
	}
	return s.snap, nil
}

// Set replaces the served snapshot and clears any injected error.
func (s *Static) Set(snap topo.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap = snap
	s.err = nil
}

// SetError makes subsequent Introspect calls fail with err.
func (s *Static) SetError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

var _ topo.Introspector = (*Static)(nil)
