package cache

// ScopedKeyer wraps a Keyer with a prefix so several deployments can share
// one backend without colliding.
//
// Example usage:
//
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "staging:")
//	keyer.LatestKey("menu") // "staging:snapshot:menu:latest"
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// SnapshotKey generates a prefixed per-frame snapshot key.
func (k *ScopedKeyer) SnapshotKey(scene string, frame uint64) string {
	return k.prefix + k.inner.SnapshotKey(scene, frame)
}

// LatestKey generates a prefixed latest-snapshot key.
func (k *ScopedKeyer) LatestKey(scene string) string {
	return k.prefix + k.inner.LatestKey(scene)
}

// RunKey generates a prefixed run key.
func (k *ScopedKeyer) RunKey(sceneHash string, opts RunKeyOpts) string {
	return k.prefix + k.inner.RunKey(sceneHash, opts)
}
