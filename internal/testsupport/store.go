package testsupport

import (
	"context"
	"testing"

	"scout/internal/config"
	"scout/internal/folders"
	"scout/internal/index"
)

// MustOpenStore opens a folders.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *folders.Store {
	t.Helper()

	store, err := folders.Open(cfg)
	if err != nil {
		t.Fatalf("folders.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// MustOpenIndex opens an index.Store for tests and registers cleanup.
func MustOpenIndex(t testing.TB, cfg *config.Config) *index.Store {
	t.Helper()

	store, err := index.Open(cfg)
	if err != nil {
		t.Fatalf("index.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// AddWhitelist registers a whitelist root for tests using the provided store.
func AddWhitelist(t testing.TB, store *folders.Store, path string) *folders.Directory {
	t.Helper()

	dir, err := store.Add(context.Background(), path, "")
	if err != nil {
		t.Fatalf("store.Add(%s): %v", path, err)
	}
	return dir
}
