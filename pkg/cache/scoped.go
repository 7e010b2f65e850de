package cache

// ScopedKeyer wraps a Keyer with a prefix, giving named runs their own
// cache namespace. The pipeline scopes keys by the run name when one is
// set, so two topologies that happen to hash alike under different names
// stay apart.
//
//	keyer := cache.NewScopedKeyer(cache.NewDefaultKeyer(), "name:prod-mesh:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer that prepends prefix to every key.
// A nil inner falls back to the default keyer.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// TopologyKey generates a prefixed topology content key.
func (k *ScopedKeyer) TopologyKey(doc []byte) string {
	return k.prefix + k.inner.TopologyKey(doc)
}

// ArtifactKey generates a prefixed artifact key.
func (k *ScopedKeyer) ArtifactKey(topoHash string, opts ArtifactKeyOpts) string {
	return k.prefix + k.inner.ArtifactKey(topoHash, opts)
}
