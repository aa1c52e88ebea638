package memory_test

import (
	"context"
	"testing"

	"murmur/internal/memory"
)

func sampleMemories() []memory.Memory {
	pinned := mem("pinned", 1500, true)
	pinned.ActionItems = []string{"buy milk", "email Ana"}
	pinned.CompletedItems = []int{0}
	pinned.Transcript = "remember the milk and email Ana about the draft"
	return []memory.Memory{pinned, mem("plain", 3000, false)}
}

func TestFileStorageRoundTrip(t *testing.T) {
	storage := memory.NewFileStorage(t.TempDir())
	ctx := context.Background()

	loaded, err := storage.Load(ctx)
	if err != nil {
		t.Fatalf("load missing file: %v", err)
	}
	if len(loaded) != 0 {
		t.Fatalf("expected empty collection, got %d", len(loaded))
	}

	saved := sampleMemories()
	if err := storage.Save(ctx, saved); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err = storage.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	assertCollectionsEqual(t, saved, loaded)
}

func TestSQLiteStorageRoundTrip(t *testing.T) {
	storage, err := memory.OpenSQLiteStorage(t.TempDir())
	if err != nil {
		t.Fatalf("open sqlite storage: %v", err)
	}
	t.Cleanup(func() { storage.Close() })
	ctx := context.Background()

	saved := sampleMemories()
	if err := storage.Save(ctx, saved); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := storage.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	assertCollectionsEqual(t, saved, loaded)

	// Second save replaces, not appends.
	if err := storage.Save(ctx, saved[:1]); err != nil {
		t.Fatalf("second save: %v", err)
	}
	loaded, err = storage.Load(ctx)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if len(loaded) != 1 {
		t.Fatalf("expected replacement semantics, got %d entries", len(loaded))
	}
}

func assertCollectionsEqual(t *testing.T, want, got []memory.Memory) {
	t.Helper()
	if len(want) != len(got) {
		t.Fatalf("expected %d memories, got %d", len(want), len(got))
	}
	byID := make(map[string]memory.Memory, len(got))
	for _, m := range got {
		byID[m.ID] = m
	}
	for _, expected := range want {
		actual, ok := byID[expected.ID]
		if !ok {
			t.Fatalf("memory %s missing after round trip", expected.ID)
		}
		if actual.Title != expected.Title ||
			actual.Category != expected.Category ||
			actual.Mood != expected.Mood ||
			actual.Transcript != expected.Transcript ||
			actual.Pinned != expected.Pinned {
			t.Fatalf("memory %s mismatch: %#v", expected.ID, actual)
		}
		if !actual.CreatedAt.Equal(expected.CreatedAt) {
			t.Fatalf("memory %s createdAt mismatch: %v vs %v", expected.ID, actual.CreatedAt, expected.CreatedAt)
		}
		if len(actual.ActionItems) != len(expected.ActionItems) {
			t.Fatalf("memory %s action items mismatch: %#v", expected.ID, actual.ActionItems)
		}
		if len(actual.CompletedItems) != len(expected.CompletedItems) {
			t.Fatalf("memory %s completed items mismatch: %#v", expected.ID, actual.CompletedItems)
		}
	}
}
