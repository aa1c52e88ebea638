package memory_test

import (
	"testing"
	"time"

	"murmur/internal/memory"
)

func mem(id string, createdAtMs int64, pinned bool) memory.Memory {
	return memory.Memory{
		ID:             id,
		Title:          "t-" + id,
		Category:       "Other",
		ActionItems:    []string{},
		CompletedItems: []int{},
		Mood:           "neutral",
		CreatedAt:      time.UnixMilli(createdAtMs).UTC(),
		Pinned:         pinned,
	}
}

func TestSortPinnedFirstThenNewest(t *testing.T) {
	input := []memory.Memory{
		mem("a", 1000, false),
		mem("b", 2000, false),
		mem("c", 500, true),
		mem("d", 3000, true),
	}

	sorted := memory.Sorted(input)

	want := []string{"d", "c", "b", "a"}
	for i, id := range want {
		if sorted[i].ID != id {
			t.Fatalf("position %d: expected %s, got %s", i, id, sorted[i].ID)
		}
	}

	// Input order untouched by Sorted.
	if input[0].ID != "a" {
		t.Fatalf("expected input untouched, got %s first", input[0].ID)
	}
}

func TestSortIdempotent(t *testing.T) {
	input := []memory.Memory{
		mem("a", 10, true),
		mem("b", 10, true),
		mem("c", 30, false),
		mem("d", 20, false),
	}

	once := memory.Sorted(input)
	twice := memory.Sorted(once)

	for i := range once {
		if once[i].ID != twice[i].ID {
			t.Fatalf("position %d: sort not idempotent (%s vs %s)", i, once[i].ID, twice[i].ID)
		}
	}
}

func TestSortEqualTimestampsDeterministic(t *testing.T) {
	first := memory.Sorted([]memory.Memory{mem("b", 100, false), mem("a", 100, false)})
	second := memory.Sorted([]memory.Memory{mem("a", 100, false), mem("b", 100, false)})

	for i := range first {
		if first[i].ID != second[i].ID {
			t.Fatalf("position %d: ordering depends on input order (%s vs %s)", i, first[i].ID, second[i].ID)
		}
	}
}
