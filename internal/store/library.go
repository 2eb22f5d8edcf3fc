package store

import (
	"fmt"

	"github.com/kittclouds/gmgen/pkg/library"
)

// LoadLibrary builds a library from the current version of every stored
// bundle, in key order.
func LoadLibrary(s Storer) (*library.Library, error) {
	bundles, err := s.ListBundles()
	if err != nil {
		return nil, fmt.Errorf("list bundles: %w", err)
	}
	content := make([]*library.Data, len(bundles))
	for i, b := range bundles {
		content[i] = b.Data
	}
	return library.New(content)
}

// ImportLibrary upserts every bundle of lib and reports how many it stored.
func ImportLibrary(s Storer, lib *library.Library) (int, error) {
	n := 0
	for _, d := range lib.Content() {
		if err := s.UpsertBundle(d); err != nil {
			return n, fmt.Errorf("store bundle %q: %w", d.Key, err)
		}
		n++
	}
	return n, nil
}
