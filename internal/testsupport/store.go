package testsupport

import (
	"context"
	"testing"
	"time"

	"romkeeper/internal/catalog"
	"romkeeper/internal/config"
)

// MustOpenStore opens a catalog.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *catalog.Store {
	t.Helper()

	store, err := catalog.Open(cfg)
	if err != nil {
		t.Fatalf("catalog.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// SeedEntry upserts a minimal entry for tests and returns it.
func SeedEntry(t testing.TB, store *catalog.Store, path, system string, size int64) *catalog.Entry {
	t.Helper()

	entry := &catalog.Entry{
		Path:    path,
		System:  system,
		Size:    size,
		ModTime: time.Now().UTC(),
		Status:  catalog.StatusUnknown,
	}
	if err := store.Upsert(context.Background(), entry); err != nil {
		t.Fatalf("store.Upsert: %v", err)
	}
	return entry
}
