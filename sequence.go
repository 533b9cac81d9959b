package redlist

import (
	"context"

	"github.com/listkit/redlist/internal/store"
)

// Sequence is the mutable-sequence contract implemented by List. Callers
// that only need positional access can depend on this instead of the
// concrete type.
type Sequence interface {
	Len(ctx context.Context) (int64, error)
	Get(ctx context.Context, index int64) (any, error)
	Set(ctx context.Context, index int64, value any) error
	Insert(ctx context.Context, index int64, value any) error
	Delete(ctx context.Context, index int64) error
	Values(ctx context.Context) ([]any, error)
}

var _ Sequence = (*List)(nil)

// Store is the remote list storage port.
// Re-exported from internal/store for convenience.
type Store = store.Store

// Tx is the transactional view handed to a Store.Atomic body.
// Re-exported from internal/store for convenience.
type Tx = store.Tx

// NewMemoryStore returns an in-process Store with the same transactional
// semantics as the Redis backend. Useful for tests and embedding.
func NewMemoryStore() Store {
	return store.NewMemory()
}
