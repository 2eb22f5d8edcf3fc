// Package store persists library bundles so a generator can be rebuilt
// without re-reading bundle files.
package store

import (
	"github.com/kittclouds/gmgen/pkg/library"
)

// Bundle is one stored version of a library bundle.
// Every upsert adds a version; only the newest is current.
type Bundle struct {
	Key       string        `json:"key"`
	Version   int           `json:"version"`
	Data      *library.Data `json:"data"`
	IsCurrent bool          `json:"isCurrent"`
	CreatedAt int64         `json:"createdAt"`
	UpdatedAt int64         `json:"updatedAt"`
}

// Storer defines the interface for bundle persistence.
// This allows swapping between MemStore (testing) and SQLiteStore (production).
type Storer interface {
	// Bundles - current versions
	UpsertBundle(data *library.Data) error
	GetBundle(key string) (*Bundle, error)
	DeleteBundle(key string) error
	ListBundles() ([]*Bundle, error)
	CountBundles() (int, error)

	// Bundles - history
	GetBundleVersion(key string, version int) (*Bundle, error)
	ListBundleVersions(key string) ([]*Bundle, error)

	// Lifecycle
	Close() error
}
