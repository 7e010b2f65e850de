// Package archive keeps a compact record of every pipeline run for the
// history command and the artifact server's run listing.
//
// A Run stores counts and timings, not the topology itself; topologies
// and artifacts live on disk (or in the cache) and are referenced by the
// run id. Backends: per-run JSON files for CLI usage, MongoDB for shared
// deployments. Archive writes are advisory: callers log failures and move
// on, a run is never failed by its bookkeeping.
package archive

import (
	"context"
	"os"
	"path/filepath"
	"time"
)

// Run is one archived pipeline run.
type Run struct {
	ID        string    `json:"id"          bson:"_id"`
	Name      string    `json:"name,omitempty" bson:"name,omitempty"`
	CreatedAt time.Time `json:"created_at"  bson:"created_at"`

	Nodes      int `json:"nodes"       bson:"nodes"`
	Edges      int `json:"edges"       bson:"edges"`
	EdgesAdded int `json:"edges_added" bson:"edges_added"`
	CutsBefore int `json:"cuts_before" bson:"cuts_before"`
	CutsAfter  int `json:"cuts_after"  bson:"cuts_after"`
	Blocks     int `json:"blocks"      bson:"blocks"`
	LeafBlocks int `json:"leaf_blocks" bson:"leaf_blocks"`

	Seed       uint64 `json:"seed,omitempty" bson:"seed,omitempty"`
	DurationMS int64  `json:"duration_ms"    bson:"duration_ms"`
}

// Store persists runs.
//
// Get returns (nil, nil) when the id is unknown. List returns newest
// first, at most limit entries; limit <= 0 means no bound.
type Store interface {
	Put(ctx context.Context, run *Run) error
	Get(ctx context.Context, id string) (*Run, error)
	List(ctx context.Context, limit int) ([]*Run, error)
	Close(ctx context.Context) error
}

// DefaultDir returns the file store location, honoring XDG_DATA_HOME.
func DefaultDir() (string, error) {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "meshify", "runs"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".local", "share", "meshify", "runs"), nil
}
