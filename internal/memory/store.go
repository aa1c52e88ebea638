package memory

import (
	"context"
	"log/slog"
	"sync"

	"murmur/internal/logging"
)

// Storage is the durable collaborator behind the store. Implementations are
// responsible only for atomic whole-collection reads and writes.
type Storage interface {
	Load(ctx context.Context) ([]Memory, error)
	Save(ctx context.Context, memories []Memory) error
}

// Store is the authoritative in-process view of all memories. One mutex guards
// the collection together with its persistence call: mutations from a single
// caller are strictly ordered and at most one write is in flight at a time.
//
// Persistence is best-effort mirroring. A failed save records an advisory
// error without rolling back the in-memory mutation; the in-memory state is
// the source of truth for the current process lifetime.
type Store struct {
	mu        sync.Mutex
	memories  []Memory
	storage   Storage
	logger    *slog.Logger
	lastError string
}

// NewStore creates a store over the given durable collaborator.
func NewStore(storage Storage, logger *slog.Logger) *Store {
	return &Store{
		storage: storage,
		logger:  logging.WithComponent(logger, "memory-store"),
	}
}

// Load replaces the in-memory collection with the collaborator's contents,
// re-sorted. On failure the collection is cleared rather than left stale and
// an advisory error is recorded.
func (s *Store) Load(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastError = ""
	loaded, err := s.storage.Load(ctx)
	if err != nil {
		s.memories = nil
		s.lastError = "Failed to load memories."
		s.logger.Error("load memories failed", logging.Error(err))
		return
	}
	Sort(loaded)
	s.memories = loaded
}

// Add inserts a memory at the front, re-sorts, and persists the collection.
func (s *Store) Add(ctx context.Context, m Memory) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.memories = append([]Memory{m}, s.memories...)
	Sort(s.memories)
	s.persistLocked(ctx)
}

// Remove deletes all memories matching id; absent ids are a no-op for the
// collection but the result is still persisted.
func (s *Store) Remove(ctx context.Context, id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.memories[:0]
	for _, m := range s.memories {
		if m.ID != id {
			kept = append(kept, m)
		}
	}
	s.memories = kept
	s.persistLocked(ctx)
}

// TogglePin flips the pin state of the matching memory, re-sorts, persists.
func (s *Store) TogglePin(ctx context.Context, id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexLocked(id)
	if idx < 0 {
		return
	}
	s.memories[idx].Pinned = !s.memories[idx].Pinned
	Sort(s.memories)
	s.persistLocked(ctx)
}

// ToggleActionItem flips completion of one action item. An out-of-range index
// is a full no-op: no mutation, no persistence call, no error.
func (s *Store) ToggleActionItem(ctx context.Context, id string, index int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	memIdx := s.indexLocked(id)
	if memIdx < 0 {
		return
	}
	m := &s.memories[memIdx]
	if index < 0 || index >= len(m.ActionItems) {
		return
	}

	pos := -1
	for i, value := range m.CompletedItems {
		if value == index {
			pos = i
			break
		}
	}
	if pos >= 0 {
		m.CompletedItems = append(m.CompletedItems[:pos], m.CompletedItems[pos+1:]...)
	} else {
		inserted := false
		for i, value := range m.CompletedItems {
			if index < value {
				m.CompletedItems = append(m.CompletedItems[:i], append([]int{index}, m.CompletedItems[i:]...)...)
				inserted = true
				break
			}
		}
		if !inserted {
			m.CompletedItems = append(m.CompletedItems, index)
		}
	}
	s.persistLocked(ctx)
}

// Get returns the memory matching id.
func (s *Store) Get(id string) (Memory, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexLocked(id)
	if idx < 0 {
		return Memory{}, false
	}
	return s.memories[idx], true
}

// List returns a copy of the collection in display order.
func (s *Store) List() []Memory {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Memory, len(s.memories))
	copy(out, s.memories)
	return out
}

// LastError reports the most recent load/save advisory message, if any.
func (s *Store) LastError() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastError
}

// ClearLastError discards the recorded advisory message.
func (s *Store) ClearLastError() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastError = ""
}

func (s *Store) indexLocked(id string) int {
	for i, m := range s.memories {
		if m.ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) persistLocked(ctx context.Context) {
	snapshot := make([]Memory, len(s.memories))
	copy(snapshot, s.memories)
	if err := s.storage.Save(ctx, snapshot); err != nil {
		s.lastError = "Failed to save memories."
		s.logger.Error("save memories failed", logging.Error(err))
		return
	}
	s.lastError = ""
}
