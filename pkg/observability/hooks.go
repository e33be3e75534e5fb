// Package observability provides hooks for metrics, tracing, and logging.
//
// This package enables optional instrumentation without adding hard
// dependencies on specific observability backends. Consumers register
// hooks at startup to receive events about monitor refreshes, device
// introspection calls, and cache operations.
//
// The package uses a simple hooks pattern: interfaces per event category,
// no-op default implementations, and a global registry populated by main.
// Libraries call the accessors to emit events:
//
//	observability.Monitor().OnRefreshStart(ctx)
//	// ... introspect and diff ...
//	observability.Monitor().OnRefreshComplete(ctx, ports, edges, elapsed, err)
package observability

import (
	"context"
	"sync"
	"time"
)

// MonitorHooks receives events from the topology monitor.
type MonitorHooks interface {
	// OnRefreshStart records the beginning of a refresh cycle.
	OnRefreshStart(ctx context.Context)

	// OnRefreshComplete records the end of a refresh cycle with the
	// resulting snapshot size. On failure ports and edges are zero and
	// err is non-nil.
	OnRefreshComplete(ctx context.Context, ports, edges int, duration time.Duration, err error)

	// OnEventsPublished records how many diff events one refresh
	// delivered to listeners.
	OnEventsPublished(ctx context.Context, events int)
}

// DeviceHooks receives events from device introspection I/O.
type DeviceHooks interface {
	// OnIntrospect records an introspection attempt against a device.
	OnIntrospect(ctx context.Context, device string)

	// OnIntrospectResult records the outcome of an introspection call.
	OnIntrospectResult(ctx context.Context, device string, ports int, duration time.Duration, err error)
}

// CacheHooks receives events from cache operations.
type CacheHooks interface {
	OnCacheHit(ctx context.Context, keyType string)
	OnCacheMiss(ctx context.Context, keyType string)
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// NoopMonitorHooks is a no-op implementation of MonitorHooks.
type NoopMonitorHooks struct{}

func (NoopMonitorHooks) OnRefreshStart(context.Context)                                    {}
func (NoopMonitorHooks) OnRefreshComplete(context.Context, int, int, time.Duration, error) {}
func (NoopMonitorHooks) OnEventsPublished(context.Context, int)                            {}

// NoopDeviceHooks is a no-op implementation of DeviceHooks.
type NoopDeviceHooks struct{}

func (NoopDeviceHooks) OnIntrospect(context.Context, string) {}
func (NoopDeviceHooks) OnIntrospectResult(context.Context, string, int, time.Duration, error) {
}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

var (
	monitorHooks MonitorHooks = NoopMonitorHooks{}
	deviceHooks  DeviceHooks  = NoopDeviceHooks{}
	cacheHooks   CacheHooks   = NoopCacheHooks{}
	hooksMu      sync.RWMutex
)

// SetMonitorHooks registers custom monitor hooks. Call once at startup
// before the first refresh.
func SetMonitorHooks(h MonitorHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		monitorHooks = h
	}
}

// SetDeviceHooks registers custom device hooks. Call once at startup
// before the first introspection.
func SetDeviceHooks(h DeviceHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		deviceHooks = h
	}
}

// SetCacheHooks registers custom cache hooks. Call once at startup before
// any cache operations.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// Monitor returns the registered monitor hooks.
func Monitor() MonitorHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return monitorHooks
}

// Device returns the registered device hooks.
func Device() DeviceHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return deviceHooks
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// Reset restores all hooks to their no-op defaults. Primarily useful for
// testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	monitorHooks = NoopMonitorHooks{}
	deviceHooks = NoopDeviceHooks{}
	cacheHooks = NoopCacheHooks{}
}
