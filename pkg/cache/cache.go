// Package cache stores rendered graph artifacts between CLI runs.
//
// Rendering an evaluation graph through Graphviz and librsvg is the slowest
// thing the CLI does, while the DOT source only changes when a rig's topology
// does. Artifacts are therefore keyed by a hash of the DOT source and the
// output format, see [ArtifactKey].
//
// # Implementations
//
//   - [FileCache]: one JSON file per entry under a directory
//   - [NullCache]: never stores anything, for --no-cache and tests
package cache

import (
	"context"
	"time"
)

// Cache is a byte store with optional expiry.
type Cache interface {
	// Get returns the value for key. A missing or expired entry is a miss,
	// not an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of zero never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases resources held by the cache.
	Close() error
}

// ArtifactTTL is how long rendered artifacts are kept.
const ArtifactTTL = 7 * 24 * time.Hour
