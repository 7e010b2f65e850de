package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Keyer derives cache keys for the pipeline's cacheable stages.
type Keyer interface {
	// TopologyKey content-addresses a serialized topology document.
	TopologyKey(doc []byte) string

	// ArtifactKey addresses one rendered artifact of a topology.
	ArtifactKey(topoHash string, opts ArtifactKeyOpts) string
}

// ArtifactKeyOpts are the render parameters that change artifact bytes.
// Anything that alters the output must appear here, or stale artifacts
// would be served for a matching topology.
type ArtifactKeyOpts struct {
	Format   string `json:"format"`
	Detailed bool   `json:"detailed"`
}

// DefaultKeyer is the standard key scheme.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard keyer.
func NewDefaultKeyer() Keyer {
	return &DefaultKeyer{}
}

// TopologyKey generates a key for a serialized topology document.
func (k *DefaultKeyer) TopologyKey(doc []byte) string {
	return "topo:" + Hash(doc)
}

// ArtifactKey generates a key for a rendered artifact.
func (k *DefaultKeyer) ArtifactKey(topoHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", topoHash, opts)
}

// hashKey generates a cache key by hashing the components.
// The key format is: prefix:hash(parts...)
func hashKey(prefix string, parts ...interface{}) string {
	data, _ := json.Marshal(parts)
	hash := sha256.Sum256(data)
	// Full SHA-256 (64 hex chars) to prevent collisions.
	return fmt.Sprintf("%s:%s", prefix, hex.EncodeToString(hash[:]))
}

// Hash computes a SHA-256 hash of the input data.
// Returns the full 64-character hex string.
func Hash(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}
