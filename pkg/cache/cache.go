// Package cache provides the key-value cache shared by the chip resolver
// and the visualize pipeline.
//
// Two things are cached: the port widths read from a sibling chip file
// (keyed on the file's content hash, so an edited file is re-read) and the
// rendered artifacts of a visualization (keyed on the hash of the canonical
// graph JSON plus the output options).
//
// # Backends
//
//   - [FileCache]: one file per entry under the XDG cache directory (CLI default)
//   - [RedisCache]: a shared Redis instance (viewer server deployments)
//   - [NullCache]: stores nothing (--no-cache, tests)
//
// # Keys
//
// Keys are produced by a [Keyer] so that the layout of the key space lives in
// one place. [ScopedKeyer] prefixes every key; the CLI scopes keys to the
// build version so an upgrade does not serve diagrams from an older renderer.
package cache

import (
	"context"
	"time"
)

// Cache is a byte-oriented key-value store with per-entry expiration.
type Cache interface {
	// Get returns the stored value and true, or nil and false on a miss.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A zero ttl never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases the backend's resources.
	Close() error
}

// Default entry lifetimes.
const (
	TTLWidths   = 30 * 24 * time.Hour
	TTLArtifact = 7 * 24 * time.Hour
)

// Keyer builds cache keys.
type Keyer interface {
	// WidthKey identifies the port widths read from a chip definition.
	WidthKey(chip, sourceHash string) string

	// ArtifactKey identifies one rendered output of a graph.
	ArtifactKey(graphHash string, opts ArtifactKeyOpts) string
}

// ArtifactKeyOpts are the render options that change an artifact's bytes.
type ArtifactKeyOpts struct {
	Format    string   `json:"format"`
	Palette   []string `json:"palette,omitempty"`
	Scripts   []string `json:"scripts,omitempty"`
	EventsURL string   `json:"events_url,omitempty"`
}

// DefaultKeyer is the standard [Keyer].
type DefaultKeyer struct{}

// NewDefaultKeyer returns the standard keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// WidthKey returns "widths:<chip>:<sourceHash>".
func (DefaultKeyer) WidthKey(chip, sourceHash string) string {
	return "widths:" + chip + ":" + sourceHash
}

// ArtifactKey hashes the graph hash together with the options.
func (DefaultKeyer) ArtifactKey(graphHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", graphHash, opts)
}

// Ensure DefaultKeyer implements Keyer.
var _ Keyer = DefaultKeyer{}
