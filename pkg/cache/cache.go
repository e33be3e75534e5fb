// Package cache provides keyed byte caching for introspection snapshots
// and rendered artifacts.
//
// The cache stores the latest value per key with an optional TTL; it is a
// rate-limit relief for device endpoints and a memoization layer for
// renders, never an ordered history of topologies.
//
// Backends: file (CLI default), null (disabled), redis (multi-instance
// deployments), mongo (TTL-indexed collection).
package cache

import (
	"context"
	"time"
)

// Cache is the storage interface shared by all backends.
type Cache interface {
	// Get retrieves a value. The bool reports whether the key was found
	// and unexpired.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value. A ttl of zero means no expiration.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a value. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// Keyer generates cache keys for the different value types.
type Keyer interface {
	// SnapshotKey keys the latest introspected snapshot of one device
	// endpoint.
	SnapshotKey(device, endpoint string) string

	// ArtifactKey keys a rendered artifact by snapshot content hash and
	// output format.
	ArtifactKey(snapshotHash, format string) string
}

// DefaultKeyer hashes key components with SHA-256.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// SnapshotKey generates a key for a device's latest snapshot.
func (DefaultKeyer) SnapshotKey(device, endpoint string) string {
	return hashKey("snapshot", device, endpoint)
}

// ArtifactKey generates a key for a rendered artifact.
func (DefaultKeyer) ArtifactKey(snapshotHash, format string) string {
	return hashKey("artifact", snapshotHash, format)
}
