package introspect

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	pgerrors "github.com/lwiedman/portgraph/pkg/errors"
	"github.com/lwiedman/portgraph/pkg/observability"
	"github.com/lwiedman/portgraph/pkg/topo"
)

// SimDevice is an in-memory pipeline device. Cameras are source ports
// with no upstream input; processors read from a configurable upstream
// port and expose trackable handles, so a monitor over a SimDevice
// exercises the full subscription path without hardware.
//
// SetSource rewires a processor and fires its Track callbacks on the
// calling goroutine after the device lock is released, mirroring a
// device-side change notification.
type SimDevice struct {
	name string

	mu     sync.Mutex
	logger *log.Logger
	ports  map[string]*simPort
}

type simPort struct {
	dev      *SimDevice
	name     string
	source   bool
	upstream string // empty for cameras
	info     map[string]string

	trackers map[int]func()
	nextID   int
}

// NewSimDevice creates an empty simulated device.
func NewSimDevice(name string) *SimDevice {
	return &SimDevice{
		name:   name,
		logger: log.New(io.Discard),
		ports:  make(map[string]*simPort),
	}
}

// SetLogger routes device debug logging to l. A nil logger is ignored.
func (d *SimDevice) SetLogger(l *log.Logger) {
	if l == nil {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.logger = l
}

// Name returns the device name.
func (d *SimDevice) Name() string { return d.name }

// AddCamera adds a source port. Cameras have no input and are not
// trackable.
func (d *SimDevice) AddCamera(name string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.ports[name] = &simPort{
		dev:      d,
		name:     name,
		source:   true,
		info:     map[string]string{"plugin_type": "camera"},
		trackers: make(map[int]func()),
	}
}

// AddProcessor adds a downstream port reading from upstream. The
// upstream port does not need to exist yet; a dangling reference simply
// produces no edge until it does.
func (d *SimDevice) AddProcessor(name, upstream string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.ports[name] = &simPort{
		dev:      d,
		name:     name,
		upstream: upstream,
		info:     map[string]string{"plugin_type": "processor"},
		trackers: make(map[int]func()),
	}
}

// RemovePort removes a port from the device. Edges into or out of it
// disappear from the next snapshot.
func (d *SimDevice) RemovePort(name string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.ports, name)
}

// SetInfo merges additional information attributes into a port.
func (d *SimDevice) SetInfo(name string, info map[string]string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	p, ok := d.ports[name]
	if !ok {
		return
	}
	for k, v := range info {
		p.info[k] = v
	}
}

// SetSource rewires dest to read from src and notifies dest's trackers.
//
// Fails when either port is unknown, when src == dest, or when dest is a
// camera (no input to rewire). Callbacks run after the device lock is
// released, so a callback may introspect the device again.
func (d *SimDevice) SetSource(src, dest string) error {
	d.mu.Lock()
	if _, ok := d.ports[src]; !ok {
		d.mu.Unlock()
		return pgerrors.New(pgerrors.ErrCodePortNotFound, "unknown source port: %s", src)
	}
	p, ok := d.ports[dest]
	if !ok {
		d.mu.Unlock()
		return pgerrors.New(pgerrors.ErrCodePortNotFound, "unknown destination port: %s", dest)
	}
	if src == dest {
		d.mu.Unlock()
		return pgerrors.New(pgerrors.ErrCodeSelfConnection, "cannot connect %s to itself", dest)
	}
	if p.source {
		d.mu.Unlock()
		return pgerrors.New(pgerrors.ErrCodePortNotWritable, "port %s has no input", dest)
	}

	p.upstream = src
	callbacks := make([]func(), 0, len(p.trackers))
	for _, fn := range p.trackers {
		callbacks = append(callbacks, fn)
	}
	d.mu.Unlock()

	for _, fn := range callbacks {
		fn()
	}
	return nil
}

// Introspect builds a snapshot of the current port wiring.
func (d *SimDevice) Introspect(ctx context.Context) (topo.Snapshot, error) {
	start := time.Now()
	observability.Device().OnIntrospect(ctx, d.name)

	d.mu.Lock()
	ports := make([]topo.Port, 0, len(d.ports))
	var edges []topo.Edge
	for _, p := range d.ports {
		port := topo.Port{
			Name:   p.name,
			Source: p.source,
			Info:   cloneInfo(p.info),
		}
		if !p.source {
			port.Trackable = true
			port.Handle = p
		}
		ports = append(ports, port)
		if p.upstream != "" {
			edges = append(edges, topo.Edge{Src: p.upstream, Dest: p.name})
		}
	}
	logger := d.logger
	d.mu.Unlock()

	// Edges naming a port the device no longer has are dropped here.
	snap, dropped := topo.NewSnapshot(ports, edges)
	for _, e := range dropped {
		logger.Debug("dropping edge to unknown port", "device", d.name, "edge", e.String())
	}
	observability.Device().OnIntrospectResult(ctx, d.name, snap.PortCount(), time.Since(start), nil)
	return snap, nil
}

// Track implements topo.Handle. The callback is never invoked from
// inside Track itself; it fires on subsequent SetSource calls.
func (p *simPort) Track(fn func()) (topo.Subscription, error) {
	p.dev.mu.Lock()
	defer p.dev.mu.Unlock()
	id := p.nextID
	p.nextID++
	p.trackers[id] = fn
	return &simSubscription{port: p, id: id}, nil
}

type simSubscription struct {
	port *simPort
	id   int
}

func (s *simSubscription) Cancel() error {
	s.port.dev.mu.Lock()
	defer s.port.dev.mu.Unlock()
	delete(s.port.trackers, s.id)
	return nil
}

func cloneInfo(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

var (
	_ topo.Introspector = (*SimDevice)(nil)
	_ topo.Handle       = (*simPort)(nil)
)
