package introspect

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/lwiedman/portgraph/pkg/cache"
	"github.com/lwiedman/portgraph/pkg/graphio"
	"github.com/lwiedman/portgraph/pkg/httputil"
	"github.com/lwiedman/portgraph/pkg/observability"
	"github.com/lwiedman/portgraph/pkg/topo"
)

// DefaultSnapshotTTL bounds how long a cached snapshot may serve in place
// of a live introspection call.
const DefaultSnapshotTTL = 15 * time.Second

// Client introspects a device over HTTP. The endpoint is expected to
// serve a graphio.Document at GET {base}/topology.
//
// Ports decoded from the wire are passive: they keep their trackable flag
// for display but carry no handle, so a monitor over a Client sees
// topology changes only through explicit or periodic refreshes. Transient
// failures (network errors, 5xx) are retried with exponential backoff;
// an optional cache short-circuits repeat calls within the TTL.
type Client struct {
	base   string
	device string
	http   *http.Client
	logger *log.Logger

	cache cache.Cache
	keyer cache.Keyer
	ttl   time.Duration
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient sets the underlying HTTP client (for timeouts, TLS).
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.http = hc }
}

// WithLogger sets the client logger.
func WithLogger(l *log.Logger) ClientOption {
	return func(c *Client) { c.logger = l }
}

// WithDevice sets the device name used in logs, hooks, and cache keys.
// Defaults to the base URL.
func WithDevice(name string) ClientOption {
	return func(c *Client) { c.device = name }
}

// WithCache serves snapshots from cc within ttl of the last live call.
// A ttl of zero uses DefaultSnapshotTTL.
func WithCache(cc cache.Cache, ttl time.Duration) ClientOption {
	return func(c *Client) {
		c.cache = cc
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// NewClient creates an HTTP introspector for the endpoint at base.
func NewClient(base string, opts ...ClientOption) *Client {
	c := &Client{
		base:  strings.TrimRight(base, "/"),
		http:  &http.Client{Timeout: 10 * time.Second},
		keyer: cache.NewDefaultKeyer(),
		ttl:   DefaultSnapshotTTL,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.device == "" {
		c.device = c.base
	}
	if c.logger == nil {
		c.logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return c
}

// Introspect fetches the current topology from the device endpoint.
func (c *Client) Introspect(ctx context.Context) (topo.Snapshot, error) {
	start := time.Now()
	observability.Device().OnIntrospect(ctx, c.device)

	key := c.keyer.SnapshotKey(c.device, c.base)
	if c.cache != nil {
		if data, hit, err := c.cache.Get(ctx, key); err == nil && hit {
			observability.Cache().OnCacheHit(ctx, "snapshot")
			snap, dropped, err := graphio.Unmarshal(data)
			if err == nil {
				c.logDropped(dropped)
				observability.Device().OnIntrospectResult(ctx, c.device, snap.PortCount(), time.Since(start), nil)
				return snap, nil
			}
			// Corrupt cache entry: fall through to a live call.
			_ = c.cache.Delete(ctx, key)
		} else if err == nil {
			observability.Cache().OnCacheMiss(ctx, "snapshot")
		}
	}

	var doc graphio.Document
	url := c.base + "/topology"
	err := httputil.RetryWithBackoff(ctx, func() error {
		return httputil.GetJSON(ctx, c.http, url, &doc)
	})
	if err != nil {
		observability.Device().OnIntrospectResult(ctx, c.device, 0, time.Since(start), err)
		return topo.Snapshot{}, err
	}

	snap, dropped := doc.Snapshot()
	c.logDropped(dropped)

	if c.cache != nil {
		if data, err := graphio.Marshal(snap); err == nil {
			if err := c.cache.Set(ctx, key, data, c.ttl); err == nil {
				observability.Cache().OnCacheSet(ctx, "snapshot", len(data))
			}
		}
	}

	observability.Device().OnIntrospectResult(ctx, c.device, snap.PortCount(), time.Since(start), nil)
	return snap, nil
}

func (c *Client) logDropped(dropped []topo.Edge) {
	for _, e := range dropped {
		c.logger.Debug("dropping edge to unknown port", "device", c.device, "edge", e.String())
	}
}

var _ topo.Introspector = (*Client)(nil)
