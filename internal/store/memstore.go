package store

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/kittclouds/gmgen/pkg/errs"
	"github.com/kittclouds/gmgen/pkg/library"
)

// MemStore is an in-memory implementation of Storer for testing.
type MemStore struct {
	mu      sync.RWMutex
	history map[string][]*Bundle // oldest first
}

// NewMemStore creates a new in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{history: make(map[string][]*Bundle)}
}

// Close is a no-op for MemStore.
func (s *MemStore) Close() error {
	return nil
}

// =============================================================================
// Bundle CRUD
// =============================================================================

func (s *MemStore) UpsertBundle(data *library.Data) error {
	if data == nil || data.Key == "" {
		return fmt.Errorf("%w: bundle needs a key", errs.ErrMalformedInput)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UnixMilli()
	next := &Bundle{
		Key:       data.Key,
		Version:   1,
		Data:      data.Clone(),
		IsCurrent: true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	versions := s.history[data.Key]
	if n := len(versions); n > 0 {
		cur := versions[n-1]
		cur.IsCurrent = false
		next.Version = cur.Version + 1
		next.CreatedAt = cur.CreatedAt
	}
	s.history[data.Key] = append(versions, next)
	return nil
}

func (s *MemStore) GetBundle(key string) (*Bundle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	versions := s.history[key]
	if len(versions) == 0 {
		return nil, nil
	}
	return copyBundle(versions[len(versions)-1]), nil
}

func (s *MemStore) DeleteBundle(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.history, key)
	return nil
}

// ListBundles returns the current version of every bundle, ordered by key.
func (s *MemStore) ListBundles() ([]*Bundle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.history))
	for k := range s.history {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	result := make([]*Bundle, 0, len(keys))
	for _, k := range keys {
		versions := s.history[k]
		result = append(result, copyBundle(versions[len(versions)-1]))
	}
	return result, nil
}

func (s *MemStore) CountBundles() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.history), nil
}

// =============================================================================
// History
// =============================================================================

func (s *MemStore) GetBundleVersion(key string, version int) (*Bundle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, b := range s.history[key] {
		if b.Version == version {
			return copyBundle(b), nil
		}
	}
	return nil, nil
}

// ListBundleVersions returns every version of key, newest first.
func (s *MemStore) ListBundleVersions(key string) ([]*Bundle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	versions := s.history[key]
	result := make([]*Bundle, 0, len(versions))
	for i := len(versions) - 1; i >= 0; i-- {
		result = append(result, copyBundle(versions[i]))
	}
	return result, nil
}

func copyBundle(b *Bundle) *Bundle {
	out := *b
	out.Data = b.Data.Clone()
	return &out
}
