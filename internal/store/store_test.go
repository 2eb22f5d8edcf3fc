package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kittclouds/gmgen/pkg/errs"
	"github.com/kittclouds/gmgen/pkg/library"
	"github.com/kittclouds/gmgen/pkg/value"
)

// =============================================================================
// Store Factory for Testing Both Implementations
// =============================================================================

// storeFactory creates a store for testing.
// We test both MemStore and SQLiteStore with the same test suite.
type storeFactory func() (Storer, error)

func memStoreFactory() (Storer, error) {
	return NewMemStore(), nil
}

func sqliteStoreFactory() (Storer, error) {
	return NewSQLiteStore()
}

// runTestsForAllStores runs a test function against both store implementations.
func runTestsForAllStores(t *testing.T, testName string, testFn func(t *testing.T, store Storer)) {
	factories := map[string]storeFactory{
		"MemStore":    memStoreFactory,
		"SQLiteStore": sqliteStoreFactory,
	}

	for name, factory := range factories {
		t.Run(name+"/"+testName, func(t *testing.T) {
			store, err := factory()
			require.NoError(t, err, "Failed to create store")
			defer store.Close()
			testFn(t, store)
		})
	}
}

func tavern() *library.Data {
	d := library.NewData("tavern")
	d.Define("innkeeper", "{Mira|Old Tom}")
	d.Values["drink"] = []value.Item{{Value: "ale", Weight: 3}, {Value: "mead", Weight: 1}}
	d.Values["mood"] = []value.Item{{Value: "rowdy", Weight: 1}}
	d.Templates = []string{"%innkeeper% pours you a %drink%."}
	return d
}

// =============================================================================
// Bundle CRUD Tests
// =============================================================================

func TestStoreCreation(t *testing.T) {
	runTestsForAllStores(t, "Creation", func(t *testing.T, store Storer) {
		require.NotNil(t, store, "Store should not be nil")
		count, err := store.CountBundles()
		require.NoError(t, err)
		assert.Equal(t, 0, count)
	})
}

func TestBundleUpsertAndGet(t *testing.T) {
	runTestsForAllStores(t, "UpsertAndGet", func(t *testing.T, store Storer) {
		d := tavern()
		require.NoError(t, store.UpsertBundle(d), "UpsertBundle should not error")

		got, err := store.GetBundle("tavern")
		require.NoError(t, err, "GetBundle should not error")
		require.NotNil(t, got, "Retrieved bundle should not be nil")

		assert.Equal(t, "tavern", got.Key)
		assert.Equal(t, 1, got.Version)
		assert.True(t, got.IsCurrent)
		assert.Equal(t, d.Definitions, got.Data.Definitions)
		assert.Equal(t, d.Values, got.Data.Values)
		assert.Equal(t, d.Templates, got.Data.Templates)
		assert.NotZero(t, got.CreatedAt)

		// Stored copies are detached from the caller's bundle.
		d.Templates[0] = "changed"
		got, err = store.GetBundle("tavern")
		require.NoError(t, err)
		assert.Equal(t, "%innkeeper% pours you a %drink%.", got.Data.Templates[0])
	})
}

func TestBundleGetNotFound(t *testing.T) {
	runTestsForAllStores(t, "GetNotFound", func(t *testing.T, store Storer) {
		b, err := store.GetBundle("nonexistent")
		require.NoError(t, err, "GetBundle for nonexistent should not error")
		assert.Nil(t, b, "Should return nil for nonexistent bundle")

		b, err = store.GetBundleVersion("nonexistent", 1)
		require.NoError(t, err)
		assert.Nil(t, b)
	})
}

func TestBundleRejectsKeyless(t *testing.T) {
	runTestsForAllStores(t, "RejectsKeyless", func(t *testing.T, store Storer) {
		assert.ErrorIs(t, store.UpsertBundle(library.NewData("")), errs.ErrMalformedInput)
		assert.ErrorIs(t, store.UpsertBundle(nil), errs.ErrMalformedInput)
	})
}

func TestBundleDelete(t *testing.T) {
	runTestsForAllStores(t, "Delete", func(t *testing.T, store Storer) {
		require.NoError(t, store.UpsertBundle(tavern()))
		require.NoError(t, store.UpsertBundle(tavern()))

		require.NoError(t, store.DeleteBundle("tavern"))

		b, err := store.GetBundle("tavern")
		require.NoError(t, err)
		assert.Nil(t, b, "Bundle should be deleted")

		versions, err := store.ListBundleVersions("tavern")
		require.NoError(t, err)
		assert.Empty(t, versions, "Delete removes history too")

		// Deleting twice is not an error.
		require.NoError(t, store.DeleteBundle("tavern"))
	})
}

func TestBundleListAndCount(t *testing.T) {
	runTestsForAllStores(t, "ListAndCount", func(t *testing.T, store Storer) {
		for _, key := range []string{"zeta", "alpha", "mid"} {
			require.NoError(t, store.UpsertBundle(library.NewData(key)))
		}
		require.NoError(t, store.UpsertBundle(library.NewData("alpha")))

		bundles, err := store.ListBundles()
		require.NoError(t, err)
		require.Len(t, bundles, 3)

		keys := make([]string, len(bundles))
		for i, b := range bundles {
			keys[i] = b.Key
		}
		assert.Equal(t, []string{"alpha", "mid", "zeta"}, keys)
		assert.Equal(t, 2, bundles[0].Version)

		count, err := store.CountBundles()
		require.NoError(t, err)
		assert.Equal(t, 3, count)
	})
}

// =============================================================================
// Version History Tests
// =============================================================================

func TestBundleVersions(t *testing.T) {
	runTestsForAllStores(t, "Versions", func(t *testing.T, store Storer) {
		d := tavern()
		require.NoError(t, store.UpsertBundle(d))

		first, err := store.GetBundle("tavern")
		require.NoError(t, err)

		d.Templates = []string{"The %mood% crowd goes quiet."}
		require.NoError(t, store.UpsertBundle(d))

		current, err := store.GetBundle("tavern")
		require.NoError(t, err)
		assert.Equal(t, 2, current.Version)
		assert.Equal(t, first.CreatedAt, current.CreatedAt, "CreatedAt survives new versions")
		assert.Equal(t, []string{"The %mood% crowd goes quiet."}, current.Data.Templates)

		old, err := store.GetBundleVersion("tavern", 1)
		require.NoError(t, err)
		require.NotNil(t, old)
		assert.False(t, old.IsCurrent)
		assert.Equal(t, []string{"%innkeeper% pours you a %drink%."}, old.Data.Templates)

		versions, err := store.ListBundleVersions("tavern")
		require.NoError(t, err)
		require.Len(t, versions, 2)
		assert.Equal(t, 2, versions[0].Version, "Newest first")
		assert.Equal(t, 1, versions[1].Version)

		count, err := store.CountBundles()
		require.NoError(t, err)
		assert.Equal(t, 1, count, "History does not count as bundles")
	})
}

// =============================================================================
// Library Round Trip
// =============================================================================

func TestLibraryRoundTrip(t *testing.T) {
	runTestsForAllStores(t, "LibraryRoundTrip", func(t *testing.T, store Storer) {
		lib, err := library.New([]*library.Data{tavern(), library.NewData("empty")})
		require.NoError(t, err)

		n, err := ImportLibrary(store, lib)
		require.NoError(t, err)
		assert.Equal(t, 2, n)

		loaded, err := LoadLibrary(store)
		require.NoError(t, err)
		require.Equal(t, 2, loaded.Len())

		got, err := loaded.Get("tavern")
		require.NoError(t, err)
		assert.Equal(t, tavern().Values, got.Values)
		assert.Equal(t, tavern().Definitions, got.Definitions)

		ok, err := loaded.Has("empty")
		require.NoError(t, err)
		assert.True(t, ok)
	})
}

func TestLoadLibraryEmptyStore(t *testing.T) {
	runTestsForAllStores(t, "LoadEmpty", func(t *testing.T, store Storer) {
		lib, err := LoadLibrary(store)
		require.NoError(t, err)
		assert.Equal(t, 0, lib.Len())
	})
}
