package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"log/slog"

	"murmur/internal/config"
	"murmur/internal/memory"
)

// openMemoryStore acquires the data directory lock, opens the configured
// storage backend, and loads the collection. The returned closer releases
// both the backend and the lock.
func openMemoryStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*memory.Store, func(), error) {
	lock, err := memory.AcquireLock(cfg.Paths.DataDir)
	if err != nil {
		return nil, nil, err
	}

	var storage memory.Storage
	closeStorage := func() error { return nil }
	switch cfg.Storage.Backend {
	case "sqlite":
		sqliteStorage, err := memory.OpenSQLiteStorage(cfg.Paths.DataDir)
		if err != nil {
			_ = lock.Unlock()
			return nil, nil, err
		}
		storage = sqliteStorage
		closeStorage = sqliteStorage.Close
	default:
		storage = memory.NewFileStorage(cfg.Paths.DataDir)
	}

	store := memory.NewStore(storage, logger)
	store.Load(ctx)
	if advisory := store.LastError(); advisory != "" {
		logger.Warn("memory collection loaded with errors", slog.String("detail", advisory))
	}

	cleanup := func() {
		_ = closeStorage()
		_ = lock.Unlock()
	}
	return store, cleanup, nil
}

// resolveMemoryID matches a full id or a unique id prefix against the
// collection.
func resolveMemoryID(store *memory.Store, ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", errors.New("memory id required")
	}

	if _, ok := store.Get(ref); ok {
		return ref, nil
	}

	var matches []string
	for _, m := range store.List() {
		if strings.HasPrefix(m.ID, ref) {
			matches = append(matches, m.ID)
		}
	}
	switch len(matches) {
	case 0:
		return "", fmt.Errorf("no memory matches %q", ref)
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("%q is ambiguous: %d memories match", ref, len(matches))
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
