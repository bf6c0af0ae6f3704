// Package cache provides byte caching with pluggable backends.
//
// The CLI uses the file backend (~/.cache/sketchlift/); the HTTP service
// can use the redis backend for multi-instance deployments; the null
// backend disables caching entirely. Cached data is remote image bytes
// and rendered artifacts — never font loads, which stay memoized inside a
// single render invocation.
package cache

import (
	"context"
	"time"
)

// Cache TTLs per data class.
const (
	// TTLImage is how long fetched remote image bytes are kept. Remote
	// references in generated documents go stale quickly.
	TTLImage = 24 * time.Hour

	// TTLArtifact is how long rendered artifacts are kept. Artifacts are
	// keyed by content hash, so a long TTL is safe.
	TTLArtifact = 7 * 24 * time.Hour
)

// Cache is the interface for cache backends.
type Cache interface {
	// Get retrieves a value. The second return reports whether the key
	// was present and unexpired.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value with the given TTL. A TTL of 0 never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a value.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// ArtifactKeyOpts carries the render options that affect artifact output.
type ArtifactKeyOpts struct {
	Format     string
	Width      float64
	Height     float64
	Screenshot string // content hash of the background screenshot, "" for none
}

// Keyer generates cache keys for the different data classes.
type Keyer interface {
	// ImageKey generates a key for fetched remote image bytes.
	ImageKey(url string) string

	// ArtifactKey generates a key for a rendered artifact, given the
	// content hash of the normalized document.
	ArtifactKey(docHash string, opts ArtifactKeyOpts) string
}

// DefaultKeyer hashes key components with SHA-256 under a class prefix.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard keyer.
func NewDefaultKeyer() Keyer {
	return &DefaultKeyer{}
}

// ImageKey generates a key for fetched remote image bytes.
func (k *DefaultKeyer) ImageKey(url string) string {
	return hashKey("image", url)
}

// ArtifactKey generates a key for a rendered artifact.
func (k *DefaultKeyer) ArtifactKey(docHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", docHash, opts)
}
