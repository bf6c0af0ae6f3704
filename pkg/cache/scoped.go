package cache

// ScopedKeyer wraps a Keyer with a prefix for namespace isolation, e.g.
// separating per-tenant artifacts in a shared Redis.
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

// ImageKey generates a prefixed key for fetched remote image bytes.
func (k *ScopedKeyer) ImageKey(url string) string {
	return k.prefix + k.inner.ImageKey(url)
}

// ArtifactKey generates a prefixed key for a rendered artifact.
func (k *ScopedKeyer) ArtifactKey(docHash string, opts ArtifactKeyOpts) string {
	return k.prefix + k.inner.ArtifactKey(docHash, opts)
}
