// Package topo maintains a live model of a signal-processing pipeline's
// port connectivity.
//
// The package has two halves. The data model (Port, Edge, Snapshot, Diff)
// is a set of immutable values with pure set arithmetic between them. The
// Monitor owns the single mutable piece of state - the current snapshot
// plus the Track subscriptions derived from it - behind one mutex, and
// turns successive snapshots into ordered add/remove events.
//
// # Refresh cycle
//
// Refresh queries the Introspector, diffs the result against the current
// snapshot under the lock, reconciles subscriptions, swaps the snapshot,
// and only then - outside the lock - delivers events to listeners. Both
// the introspection call and event delivery happen unlocked: the former
// may block for the full device timeout, and the latter may synchronously
// trigger another Refresh from inside a listener without deadlocking.
//
// # Event ordering
//
// Per refresh, events are delivered as edges-removed, ports-removed,
// ports-added, edges-added. Consumers tearing down visuals therefore see
// an edge disappear before either of its endpoints does.
package topo

import (
	"context"
	"io"
	"slices"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/lwiedman/portgraph/pkg/observability"
)

// Listener receives topology change events. Methods are invoked in
// delivery order while the monitor holds no locks; a listener may call
// Refresh from inside a handler.
type Listener interface {
	PortAdded(name string)
	PortRemoved(name string)
	EdgeAdded(src, dest string)
	EdgeRemoved(src, dest string)
}

// BatchListener is optionally implemented by listeners that want the
// whole diff of a refresh as a single call, delivered after the
// individual events of that refresh.
type BatchListener interface {
	TopologyChanged(d Diff)
}

// subscription ties one trackable port to its registration. The uuid
// exists purely for log correlation across subscribe/cancel lines.
type subscription struct {
	id     string
	cancel Subscription
}

// Monitor watches one device's port topology.
//
// All access to the current snapshot and the subscription table happens
// under a single non-reentrant mutex. The locked section is pure set
// arithmetic and map updates, so lock hold times are bounded; device I/O
// and event delivery are always performed unlocked.
//
// A Monitor is long-lived, typically one per device. Use NewMonitor.
type Monitor struct {
	introspector Introspector
	logger       *log.Logger

	mu      sync.Mutex
	current Snapshot
	subs    map[string]*subscription

	lmu       sync.RWMutex
	listeners []Listener
}

// NewMonitor creates a monitor over the given introspector. A nil logger
// discards output. The monitor starts with an empty snapshot; call
// Refresh to load the first topology.
func NewMonitor(in Introspector, logger *log.Logger) *Monitor {
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return &Monitor{
		introspector: in,
		logger:       logger,
		subs:         make(map[string]*subscription),
	}
}

// Subscribe registers a listener for subsequent refreshes.
func (m *Monitor) Subscribe(l Listener) {
	m.lmu.Lock()
	defer m.lmu.Unlock()
	m.listeners = append(m.listeners, l)
}

// Unsubscribe removes a previously registered listener. Unknown listeners
// are ignored.
func (m *Monitor) Unsubscribe(l Listener) {
	m.lmu.Lock()
	defer m.lmu.Unlock()
	for i, reg := range m.listeners {
		if reg == l {
			m.listeners = slices.Delete(m.listeners, i, i+1)
			return
		}
	}
}

// Current returns the last successfully introspected snapshot.
func (m *Monitor) Current() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// TrackedPorts returns the names of ports with an active Track
// subscription, sorted.
func (m *Monitor) TrackedPorts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.subs))
	for name := range m.subs {
		out = append(out, name)
	}
	slices.Sort(out)
	return out
}

// Refresh re-reads the device topology and publishes the difference
// against the previous snapshot.
//
// Refresh is all-or-nothing: if introspection fails the error is logged
// and returned, and the current snapshot, subscriptions, and listeners
// are left exactly as they were. Concurrent calls are safe; callbacks
// registered via Track invoke Refresh themselves, so re-entrant
// triggering from unrelated goroutines is the expected steady state.
func (m *Monitor) Refresh(ctx context.Context) error {
	start := time.Now()
	observability.Monitor().OnRefreshStart(ctx)

	snap, err := m.introspector.Introspect(ctx)
	if err != nil {
		m.logger.Error("introspection failed, keeping last snapshot", "err", err)
		observability.Monitor().OnRefreshComplete(ctx, 0, 0, time.Since(start), err)
		return err
	}

	m.mu.Lock()
	d := ComputeDiff(m.current, snap)

	for _, name := range d.PortsRemoved {
		sub, ok := m.subs[name]
		if !ok {
			continue
		}
		delete(m.subs, name)
		// The cancel handle was captured at registration time from the
		// snapshot now being discarded; the new snapshot no longer knows
		// this port.
		if err := sub.cancel.Cancel(); err != nil {
			m.logger.Warn("cancel port tracking", "port", name, "sub", sub.id, "err", err)
		} else {
			m.logger.Debug("stopped tracking port", "port", name, "sub", sub.id)
		}
	}

	for _, name := range d.PortsAdded {
		port, ok := snap.Port(name)
		if !ok || !port.Trackable || port.Handle == nil {
			continue
		}
		cancel, err := port.Handle.Track(m.onPortChanged)
		if err != nil {
			m.logger.Warn("track port", "port", name, "err", err)
			continue
		}
		sub := &subscription{id: uuid.NewString(), cancel: cancel}
		m.subs[name] = sub
		m.logger.Debug("tracking port", "port", name, "sub", sub.id)
	}

	m.current = snap
	m.mu.Unlock()

	m.publish(d)
	observability.Monitor().OnRefreshComplete(ctx, snap.PortCount(), snap.EdgeCount(), time.Since(start), nil)
	return nil
}

// Close cancels all outstanding Track subscriptions. The monitor keeps
// its snapshot and can be refreshed again afterwards.
func (m *Monitor) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for name, sub := range m.subs {
		if err := sub.cancel.Cancel(); err != nil {
			m.logger.Warn("cancel port tracking", "port", name, "sub", sub.id, "err", err)
		}
		delete(m.subs, name)
	}
	return nil
}

// onPortChanged is the Track callback: a device-side wiring change simply
// triggers another refresh. The error is already logged by Refresh.
func (m *Monitor) onPortChanged() {
	_ = m.Refresh(context.Background())
}

// publish delivers the diff to all listeners in the contract order:
// edges-removed, ports-removed, ports-added, edges-added, then the batch
// event. Empty categories are skipped; an all-empty diff publishes
// nothing. Runs without holding the state lock.
func (m *Monitor) publish(d Diff) {
	if d.Empty() {
		return
	}

	m.lmu.RLock()
	listeners := slices.Clone(m.listeners)
	m.lmu.RUnlock()

	for _, e := range d.EdgesRemoved {
		for _, l := range listeners {
			l.EdgeRemoved(e.Src, e.Dest)
		}
	}
	for _, name := range d.PortsRemoved {
		for _, l := range listeners {
			l.PortRemoved(name)
		}
	}
	for _, name := range d.PortsAdded {
		for _, l := range listeners {
			l.PortAdded(name)
		}
	}
	for _, e := range d.EdgesAdded {
		for _, l := range listeners {
			l.EdgeAdded(e.Src, e.Dest)
		}
	}
	for _, l := range listeners {
		if bl, ok := l.(BatchListener); ok {
			bl.TopologyChanged(d)
		}
	}

	events := len(d.EdgesRemoved) + len(d.PortsRemoved) + len(d.PortsAdded) + len(d.EdgesAdded)
	observability.Monitor().OnEventsPublished(context.Background(), events)
}
