package testsupport

import (
	"context"
	"testing"

	"murmur/internal/config"
	"murmur/internal/logging"
	"murmur/internal/memory"
)

// MustOpenStore opens a memory.Store for tests against the configured storage
// backend and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *memory.Store {
	t.Helper()

	var storage memory.Storage
	switch cfg.Storage.Backend {
	case "sqlite":
		sqliteStorage, err := memory.OpenSQLiteStorage(cfg.Paths.DataDir)
		if err != nil {
			t.Fatalf("open sqlite storage: %v", err)
		}
		t.Cleanup(func() {
			_ = sqliteStorage.Close()
		})
		storage = sqliteStorage
	default:
		storage = memory.NewFileStorage(cfg.Paths.DataDir)
	}

	store := memory.NewStore(storage, logging.NewNop())
	store.Load(context.Background())
	return store
}
