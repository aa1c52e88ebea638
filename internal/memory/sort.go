package memory

import (
	"sort"
	"strings"
)

// Sort orders memories pinned-first, then newest createdAt first within each
// pin group. The ordering is total and deterministic (id breaks timestamp
// ties), so it is safe for both display and test assertions. Sorting is
// idempotent and recomputed after every mutation, never incrementally
// maintained.
func Sort(memories []Memory) {
	sort.SliceStable(memories, func(i, j int) bool {
		lhs, rhs := memories[i], memories[j]
		if lhs.Pinned != rhs.Pinned {
			return lhs.Pinned
		}
		if !lhs.CreatedAt.Equal(rhs.CreatedAt) {
			return lhs.CreatedAt.After(rhs.CreatedAt)
		}
		return strings.Compare(lhs.ID, rhs.ID) < 0
	})
}

// Sorted returns a sorted copy, leaving the input untouched.
func Sorted(memories []Memory) []Memory {
	out := make([]Memory, len(memories))
	copy(out, memories)
	Sort(out)
	return out
}
