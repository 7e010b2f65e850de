// Package cache provides content-addressed caching for pipeline outputs.
//
// Rendered artifacts are the expensive part of a meshify run: Graphviz
// layout dominates wall time for large meshes. Artifacts are therefore
// cached under keys derived from the topology document's content hash, so
// an unchanged topology never renders twice. Backends: a sharded file
// cache for CLI usage, Redis for shared deployments, and a null cache for
// --no-cache runs.
package cache

import (
	"context"
	"os"
	"path/filepath"
	"time"
)

// TTLArtifact is how long rendered artifacts stay cached. Content-hashed
// keys never serve stale data, so the TTL only bounds disk usage.
const TTLArtifact = 7 * 24 * time.Hour

// Cache is a byte-oriented key-value store with per-entry TTL.
//
// Get returns (nil, false, nil) on a miss; an error means the backend
// itself failed. A ttl of zero means no expiry.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// DefaultDir returns the file cache location, ~/.cache/meshify on Linux.
func DefaultDir() (string, error) {
	base, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "meshify"), nil
}
