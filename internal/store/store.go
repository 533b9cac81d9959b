// Package store defines the remote ordered-list storage port.
//
// The Store interface mirrors the Redis list command set:
// - length, absolute index get/set, inclusive-stop range, trim
// - head/tail push and pop
// - remove-first-matching by value
// - optimistic watch/commit transactions with automatic retry
//
// Two backends implement it: a Redis client and an in-memory store with
// the same transactional semantics, used for tests and embedding.
package store

import (
	"context"
	"errors"
)

var (
	// ErrNil is returned when a read addresses a missing element
	// (out-of-range index, pop on an empty list).
	ErrNil = errors.New("store: nil reply")

	// ErrOutOfRange is returned by Set when the index does not address
	// an existing element.
	ErrOutOfRange = errors.New("store: index out of range")
)

// Store is a remote ordered list of byte strings, keyed by name.
// Range and Trim use Redis conventions: stop is inclusive and negative
// positions count from the tail.
type Store interface {
	Len(ctx context.Context, key string) (int64, error)
	Get(ctx context.Context, key string, index int64) ([]byte, error)
	Set(ctx context.Context, key string, index int64, value []byte) error
	Range(ctx context.Context, key string, start, stop int64) ([][]byte, error)
	Trim(ctx context.Context, key string, start, stop int64) error
	Delete(ctx context.Context, key string) error

	PushLeft(ctx context.Context, key string, values ...[]byte) (int64, error)
	PushRight(ctx context.Context, key string, values ...[]byte) (int64, error)
	PopLeft(ctx context.Context, key string) ([]byte, error)
	PopRight(ctx context.Context, key string) ([]byte, error)

	// Remove deletes occurrences equal to value: the first count from the
	// head when count > 0, from the tail when count < 0, all when zero.
	// Returns the number removed.
	Remove(ctx context.Context, key string, count int64, value []byte) (int64, error)

	// Atomic runs fn against a consistent view of the watched keys.
	// Reads on the Tx execute immediately; writes are queued and commit
	// as one atomic batch only if no watched key changed since the first
	// read. On conflict the whole fn is re-invoked with fresh state until
	// it commits; contention never surfaces to the caller. Any error
	// returned by fn aborts the transaction with no writes applied.
	Atomic(ctx context.Context, fn func(Tx) error, keys ...string) error

	Close() error
}

// Tx is the view handed to an Atomic body. Len, Get and Range observe the
// watched snapshot; the remaining methods queue writes for commit.
type Tx interface {
	Len(ctx context.Context, key string) (int64, error)
	Get(ctx context.Context, key string, index int64) ([]byte, error)
	Range(ctx context.Context, key string, start, stop int64) ([][]byte, error)

	Set(key string, index int64, value []byte)
	PushLeft(key string, values ...[]byte)
	PushRight(key string, values ...[]byte)
	PopLeft(key string)
	PopRight(key string)
	Trim(key string, start, stop int64)
	Remove(key string, count int64, value []byte)
	Delete(key string)
}
