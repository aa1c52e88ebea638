// Package memory holds the durable Memory model and the ordered, pinned-first
// store backing every murmur surface.
//
// The store keeps the collection sorted (pinned before unpinned, newest first
// within each group) and mirrors every mutation to a durable collaborator:
// whole-file JSON by default, SQLite as an alternative. Persistence failures
// are recorded as advisory messages; the in-memory collection is never rolled
// back.
package memory
