package redlist

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/listkit/redlist/internal/store"
)

// List is a mutable sequence whose authoritative storage is a remote
// ordered-list store. Indices follow Python conventions: negative values
// count from the tail, and slices address half-open ranges.
//
// A List is not safe for concurrent use by multiple goroutines; the remote
// list itself may be shared with other clients, and every read-then-write
// operation runs as an optimistic transaction that retries transparently
// when another client touches the key mid-flight.
type List struct {
	store store.Store
	key   string
	codec Codec
	log   *slog.Logger

	writeback bool
	cache     *writebackCache

	// marker is the per-instance sentinel used to delete by position via
	// the store's remove-by-value primitive. Codec output is either a
	// JSON value or a zstd frame, so this byte form can never collide
	// with a stored element.
	marker []byte
}

// New creates a List on an existing store. Lists sharing a key share data.
func New(s Store, opts ...Option) *List {
	options := defaultOptions()
	for _, opt := range opts {
		opt(options)
	}

	key := options.Key
	if key == "" {
		key = generateKey()
	}

	return &List{
		store:     s,
		key:       key,
		codec:     options.Codec,
		log:       options.Logger,
		writeback: options.Writeback,
		cache:     newWritebackCache(),
		marker:    []byte("redlist:marker:" + uuid.NewString()),
	}
}

// Open dials a Redis server and returns a List backed by it.
func Open(addr string, opts ...Option) (*List, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	l := New(store.NewRedis(client), opts...)
	if rs, ok := l.store.(*store.Redis); ok {
		rs.SetLogger(l.log)
	}
	return l, nil
}

// Key returns the remote store key.
func (l *List) Key() string { return l.key }

func (l *List) Close() error {
	return l.store.Close()
}

// Len returns the current remote length.
func (l *List) Len(ctx context.Context) (int64, error) {
	return l.store.Len(ctx, l.key)
}

// Get returns the element at index. With write-back enabled the cache is
// consulted first and misses are cached.
func (l *List) Get(ctx context.Context, index int64) (any, error) {
	// Without write-back a single remote fetch suffices; the store's
	// indexing scheme matches ours and an absent reply means out of range.
	if !l.writeback {
		raw, err := l.store.Get(ctx, l.key, index)
		if errors.Is(err, store.ErrNil) {
			return nil, ErrIndexOutOfRange
		}
		if err != nil {
			return nil, err
		}
		return l.codec.Decode(raw)
	}

	var value any
	var abs int64
	var hit bool
	err := l.store.Atomic(ctx, func(tx store.Tx) error {
		value, hit = nil, false

		n, err := tx.Len(ctx, l.key)
		if err != nil {
			return err
		}
		abs = normalizeIndex(index, n)
		if abs < 0 || abs >= n {
			return ErrIndexOutOfRange
		}

		if v, ok := l.cache.get(abs); ok {
			value, hit = v, true
			return nil
		}

		raw, err := tx.Get(ctx, l.key, abs)
		if errors.Is(err, store.ErrNil) {
			return ErrIndexOutOfRange
		}
		if err != nil {
			return err
		}
		value, err = l.codec.Decode(raw)
		return err
	}, l.key)
	if err != nil {
		return nil, err
	}
	if !hit {
		l.cache.set(abs, value)
	}
	return value, nil
}

// Set overwrites the element at index.
func (l *List) Set(ctx context.Context, index int64, value any) error {
	raw, err := l.codec.Encode(value)
	if err != nil {
		return err
	}

	if !l.writeback {
		err := l.store.Set(ctx, l.key, index, raw)
		if errors.Is(err, store.ErrOutOfRange) {
			return ErrIndexOutOfRange
		}
		return err
	}

	// The cache is keyed by absolute position, so the write needs the
	// length observed in the same transaction as the overwrite.
	var abs int64
	err = l.store.Atomic(ctx, func(tx store.Tx) error {
		n, err := tx.Len(ctx, l.key)
		if err != nil {
			return err
		}
		abs = normalizeIndex(index, n)
		if abs < 0 || abs >= n {
			return ErrIndexOutOfRange
		}
		tx.Set(l.key, abs, raw)
		return nil
	}, l.key)
	if err != nil {
		return err
	}
	l.cache.set(abs, value)
	return nil
}

// Slice returns the elements addressed by s, in slice order.
func (l *List) Slice(ctx context.Context, s Slice) ([]any, error) {
	var out []any
	err := l.store.Atomic(ctx, func(tx store.Tx) error {
		out = nil

		n, err := tx.Len(ctx, l.key)
		if err != nil {
			return err
		}
		r, err := s.normalize(n)
		if err != nil {
			return err
		}
		if r.empty() {
			out = []any{}
			return nil
		}

		raw, err := tx.Range(ctx, l.key, r.start, max(r.stop-1, 0))
		if err != nil {
			return err
		}

		vals := make([]any, 0, len(raw))
		for j, b := range raw {
			if v, ok := l.cache.get(r.start + int64(j)); ok {
				vals = append(vals, v)
				continue
			}
			v, err := l.codec.Decode(b)
			if err != nil {
				return err
			}
			vals = append(vals, v)
		}

		if !r.forward {
			for a, b := 0, len(vals)-1; a < b; a, b = a+1, b-1 {
				vals[a], vals[b] = vals[b], vals[a]
			}
		}
		if r.step > 1 {
			sampled := make([]any, 0, (len(vals)+int(r.step)-1)/int(r.step))
			for i := 0; i < len(vals); i += int(r.step) {
				sampled = append(sampled, vals[i])
			}
			vals = sampled
		}

		out = vals
		return nil
	}, l.key)
	return out, err
}

// SetSlice replaces the range addressed by s with values. The list is
// rebuilt around the new middle, so this is O(n). Only forward unit-step
// slices can be assigned.
func (l *List) SetSlice(ctx context.Context, s Slice, values []any) error {
	if err := s.spliceable(); err != nil {
		return err
	}

	middle := make([][]byte, len(values))
	for i, v := range values {
		raw, err := l.codec.Encode(v)
		if err != nil {
			return err
		}
		middle[i] = raw
	}

	err := l.store.Atomic(ctx, func(tx store.Tx) error {
		n, err := tx.Len(ctx, l.key)
		if err != nil {
			return err
		}
		r, err := s.normalize(n)
		if err != nil {
			return err
		}
		// Crossed bounds assign nothing away: the new values are inserted
		// at start and every existing element is kept, as with Python's
		// list[4:2] = values.
		if r.stop < r.start {
			r.stop = r.start
		}

		left, err := l.remainder(ctx, tx, 0, r.start)
		if err != nil {
			return err
		}
		right, err := l.remainder(ctx, tx, r.stop, n)
		if err != nil {
			return err
		}

		all := make([][]byte, 0, len(left)+len(middle)+len(right))
		all = append(all, left...)
		all = append(all, middle...)
		all = append(all, right...)

		tx.Delete(l.key)
		if len(all) > 0 {
			tx.PushRight(l.key, all...)
		}
		return nil
	}, l.key)
	if err != nil {
		return err
	}
	// The remainders were read through the cache overlay, so every cached
	// write is now part of the rebuilt list.
	l.cache.clear()
	return nil
}

// DeleteSlice removes the range addressed by s. An empty range is a no-op,
// a range covering everything clears the list, a range touching one
// boundary is a trim, and an interior range rebuilds the list from both
// remainders. Only forward unit-step slices can be deleted.
func (l *List) DeleteSlice(ctx context.Context, s Slice) error {
	if err := s.spliceable(); err != nil {
		return err
	}

	mutated := false
	err := l.store.Atomic(ctx, func(tx store.Tx) error {
		mutated = false

		n, err := tx.Len(ctx, l.key)
		if err != nil {
			return err
		}
		r, err := s.normalize(n)
		if err != nil {
			return err
		}
		if r.empty() {
			return nil
		}
		mutated = true

		switch {
		case r.start == 0 && r.stop == n:
			tx.Delete(l.key)
		case r.start == 0:
			if err := l.flushInto(tx); err != nil {
				return err
			}
			tx.Trim(l.key, r.stop, -1)
		case r.stop == n:
			if err := l.flushInto(tx); err != nil {
				return err
			}
			tx.Trim(l.key, 0, r.start-1)
		default:
			left, err := l.remainder(ctx, tx, 0, r.start)
			if err != nil {
				return err
			}
			right, err := l.remainder(ctx, tx, r.stop, n)
			if err != nil {
				return err
			}
			all := append(left, right...)
			tx.Delete(l.key)
			if len(all) > 0 {
				tx.PushRight(l.key, all...)
			}
		}
		return nil
	}, l.key)
	if err != nil {
		return err
	}
	if mutated {
		l.cache.clear()
	}
	return nil
}

// Append pushes value to the tail.
func (l *List) Append(ctx context.Context, value any) error {
	raw, err := l.codec.Encode(value)
	if err != nil {
		return err
	}
	n, err := l.store.PushRight(ctx, l.key, raw)
	if err != nil {
		return err
	}
	if l.writeback {
		l.cache.set(n-1, value)
	}
	return nil
}

// Insert places value before the element at index. Indices beyond either
// end clamp to the boundary, as with Python's list.insert.
func (l *List) Insert(ctx context.Context, index int64, value any) error {
	raw, err := l.codec.Encode(value)
	if err != nil {
		return err
	}

	switch index {
	case 0:
		if _, err := l.store.PushLeft(ctx, l.key, raw); err != nil {
			return err
		}
		if l.writeback {
			l.cache.shiftFrom(0)
			l.cache.set(0, value)
		}
		return nil
	case -1:
		n, err := l.store.PushRight(ctx, l.key, raw)
		if err != nil {
			return err
		}
		if l.writeback {
			l.cache.set(n-1, value)
		}
		return nil
	}

	// Middle insert: take everything from the insertion point to the end,
	// drop it from the remote list, then push it back behind the new
	// value, all in one committed transaction.
	var abs int64
	err = l.store.Atomic(ctx, func(tx store.Tx) error {
		n, err := tx.Len(ctx, l.key)
		if err != nil {
			return err
		}
		abs = normalizeIndex(index, n)
		abs = min(max(abs, 0), n)

		var rest [][]byte
		if abs < n {
			rest, err = tx.Range(ctx, l.key, abs, -1)
			if err != nil {
				return err
			}
		}

		if abs == 0 {
			tx.Delete(l.key)
		} else {
			tx.Trim(l.key, 0, abs-1)
		}
		tx.PushRight(l.key, append([][]byte{raw}, rest...)...)
		return nil
	}, l.key)
	if err != nil {
		return err
	}
	if l.writeback {
		l.cache.shiftFrom(abs)
		l.cache.set(abs, value)
	}
	return nil
}

// Extend pushes values to the tail in one batch.
func (l *List) Extend(ctx context.Context, values ...any) error {
	if len(values) == 0 {
		return nil
	}
	encoded := make([][]byte, len(values))
	for i, v := range values {
		raw, err := l.codec.Encode(v)
		if err != nil {
			return err
		}
		encoded[i] = raw
	}

	var base int64
	err := l.store.Atomic(ctx, func(tx store.Tx) error {
		n, err := tx.Len(ctx, l.key)
		if err != nil {
			return err
		}
		base = n
		tx.PushRight(l.key, encoded...)
		return nil
	}, l.key)
	if err != nil {
		return err
	}
	if l.writeback {
		for i, v := range values {
			l.cache.set(base+int64(i), v)
		}
	}
	return nil
}

// ExtendFrom appends every element of other, materialized inside the same
// transaction snapshot so a concurrently moving source cannot interleave.
// Extending a list with itself doubles it exactly once. Both lists must
// share a store; the snapshot cannot span two backends.
func (l *List) ExtendFrom(ctx context.Context, other *List) error {
	if other.store != l.store {
		return ErrStoreMismatch
	}

	keys := []string{l.key}
	if other.key != l.key {
		keys = append(keys, other.key)
	}

	var base int64
	var values []any
	err := l.store.Atomic(ctx, func(tx store.Tx) error {
		values = nil

		raw, err := tx.Range(ctx, other.key, 0, -1)
		if err != nil {
			return err
		}
		encoded := make([][]byte, 0, len(raw))
		for i, b := range raw {
			var v any
			if cached, ok := other.cache.get(int64(i)); ok {
				v = cached
			} else if v, err = other.codec.Decode(b); err != nil {
				return err
			}
			e, err := l.codec.Encode(v)
			if err != nil {
				return err
			}
			values = append(values, v)
			encoded = append(encoded, e)
		}

		base, err = tx.Len(ctx, l.key)
		if err != nil {
			return err
		}
		if len(encoded) > 0 {
			tx.PushRight(l.key, encoded...)
		}
		return nil
	}, keys...)
	if err != nil {
		return err
	}
	if l.writeback {
		for i, v := range values {
			l.cache.set(base+int64(i), v)
		}
	}
	return nil
}

// Pop removes and returns the tail element.
func (l *List) Pop(ctx context.Context) (any, error) {
	return l.PopAt(ctx, -1)
}

// PopAt removes and returns the element at index.
func (l *List) PopAt(ctx context.Context, index int64) (any, error) {
	switch index {
	case 0:
		return l.popLeft(ctx)
	case -1:
		return l.popRight(ctx)
	default:
		return l.popMiddle(ctx, index)
	}
}

// Delete removes the element at index.
func (l *List) Delete(ctx context.Context, index int64) error {
	_, err := l.PopAt(ctx, index)
	return err
}

func (l *List) popLeft(ctx context.Context) (any, error) {
	raw, err := l.store.PopLeft(ctx, l.key)
	if errors.Is(err, store.ErrNil) {
		return nil, ErrIndexOutOfRange
	}
	if err != nil {
		return nil, err
	}

	value, err := l.codec.Decode(raw)
	if err != nil {
		return nil, err
	}
	if l.writeback {
		if v, ok := l.cache.get(0); ok {
			value = v
		}
		l.cache.dropAndShift(0)
	}
	return value, nil
}

func (l *List) popRight(ctx context.Context) (any, error) {
	// Emptiness has to be checked against the length observed in the same
	// transaction as the pop.
	var value any
	var last int64
	err := l.store.Atomic(ctx, func(tx store.Tx) error {
		value = nil

		n, err := tx.Len(ctx, l.key)
		if err != nil {
			return err
		}
		if n == 0 {
			return ErrIndexOutOfRange
		}
		last = n - 1

		raw, err := tx.Get(ctx, l.key, last)
		if errors.Is(err, store.ErrNil) {
			return ErrIndexOutOfRange
		}
		if err != nil {
			return err
		}
		if value, err = l.codec.Decode(raw); err != nil {
			return err
		}
		tx.PopRight(l.key)
		return nil
	}, l.key)
	if err != nil {
		return nil, err
	}
	if l.writeback {
		if v, ok := l.cache.get(last); ok {
			value = v
		}
		l.cache.dropAndShift(last)
	}
	return value, nil
}

// popMiddle removes an interior element without a native delete-by-index
// primitive: overwrite the position with the per-instance sentinel, then
// remove the sentinel's first occurrence by value.
func (l *List) popMiddle(ctx context.Context, index int64) (any, error) {
	var value any
	var abs int64
	err := l.store.Atomic(ctx, func(tx store.Tx) error {
		value = nil

		n, err := tx.Len(ctx, l.key)
		if err != nil {
			return err
		}
		abs = normalizeIndex(index, n)
		if abs < 0 || abs >= n {
			return ErrIndexOutOfRange
		}

		raw, err := tx.Get(ctx, l.key, abs)
		if errors.Is(err, store.ErrNil) {
			return ErrIndexOutOfRange
		}
		if err != nil {
			return err
		}
		if value, err = l.codec.Decode(raw); err != nil {
			return err
		}

		tx.Set(l.key, abs, l.marker)
		tx.Remove(l.key, 1, l.marker)
		return nil
	}, l.key)
	if err != nil {
		return nil, err
	}
	if l.writeback {
		if v, ok := l.cache.get(abs); ok {
			value = v
		}
		l.cache.dropAndShift(abs)
	}
	return value, nil
}

// Remove deletes the first occurrence equal to value. Removing an absent
// value is a silent no-op.
func (l *List) Remove(ctx context.Context, value any) error {
	raw, err := l.codec.Encode(value)
	if err != nil {
		return err
	}

	if !l.writeback || l.cache.len() == 0 {
		_, err := l.store.Remove(ctx, l.key, 1, raw)
		return err
	}

	// Cached writes may change which element matches first, so the cache
	// is flushed in the same batch as the removal.
	err = l.store.Atomic(ctx, func(tx store.Tx) error {
		if err := l.flushInto(tx); err != nil {
			return err
		}
		tx.Remove(l.key, 1, raw)
		return nil
	}, l.key)
	if err != nil {
		return err
	}
	l.cache.clear()
	return nil
}

// Index returns the absolute index of the first element equal to value,
// or ErrValueNotFound.
func (l *List) Index(ctx context.Context, value any) (int64, error) {
	return l.index(ctx, value, nil, nil)
}

// IndexRange is Index restricted to absolute positions in [start, stop).
// Negative bounds count from the tail.
func (l *List) IndexRange(ctx context.Context, value any, start, stop int64) (int64, error) {
	return l.index(ctx, value, &start, &stop)
}

func (l *List) index(ctx context.Context, value any, start, stop *int64) (int64, error) {
	needle, err := l.codec.Encode(value)
	if err != nil {
		return 0, err
	}

	var found int64
	err = l.store.Atomic(ctx, func(tx store.Tx) error {
		n, err := tx.Len(ctx, l.key)
		if err != nil {
			return err
		}

		lo, hi := int64(0), n
		if start != nil {
			lo = max(normalizeIndex(*start, n), 0)
		}
		if stop != nil {
			hi = min(normalizeIndex(*stop, n), n)
		}
		if lo >= hi {
			return ErrValueNotFound
		}

		raw, err := tx.Range(ctx, l.key, lo, hi-1)
		if err != nil {
			return err
		}
		for j, b := range raw {
			abs := lo + int64(j)
			eff := b
			if v, ok := l.cache.get(abs); ok {
				if eff, err = l.codec.Encode(v); err != nil {
					return err
				}
			}
			if bytes.Equal(eff, needle) {
				found = abs
				return nil
			}
		}
		return ErrValueNotFound
	}, l.key)
	return found, err
}

// Count returns the number of elements equal to value.
func (l *List) Count(ctx context.Context, value any) (int64, error) {
	needle, err := l.codec.Encode(value)
	if err != nil {
		return 0, err
	}

	raw, err := l.store.Range(ctx, l.key, 0, -1)
	if err != nil {
		return 0, err
	}

	var count int64
	for i, b := range raw {
		eff := b
		if v, ok := l.cache.get(int64(i)); ok {
			if eff, err = l.codec.Encode(v); err != nil {
				return 0, err
			}
		}
		if bytes.Equal(eff, needle) {
			count++
		}
	}
	return count, nil
}

// Values returns every element in order, with the cache overlay applied.
func (l *List) Values(ctx context.Context) ([]any, error) {
	raw, err := l.store.Range(ctx, l.key, 0, -1)
	if err != nil {
		return nil, err
	}

	out := make([]any, len(raw))
	for i, b := range raw {
		if v, ok := l.cache.get(int64(i)); ok {
			out[i] = v
			continue
		}
		if out[i], err = l.codec.Decode(b); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Reverse reverses the list in place by pairwise swaps inside one
// transaction. Cached write-back entries are not renumbered; callers
// relying on the cache across a reverse must Sync first.
func (l *List) Reverse(ctx context.Context) error {
	return l.store.Atomic(ctx, func(tx store.Tx) error {
		n, err := tx.Len(ctx, l.key)
		if err != nil {
			return err
		}
		for i := int64(0); i < n/2; i++ {
			left, err := tx.Get(ctx, l.key, i)
			if err != nil {
				return err
			}
			right, err := tx.Get(ctx, l.key, n-1-i)
			if err != nil {
				return err
			}
			tx.Set(l.key, i, right)
			tx.Set(l.key, n-1-i, left)
		}
		return nil
	}, l.key)
}

// Sync writes every cached entry back to its remote position and clears
// the cache, as one atomic batch. Syncing an empty cache is a no-op.
func (l *List) Sync(ctx context.Context) error {
	if l.cache.len() == 0 {
		return nil
	}
	l.log.Debug("flushing write-back cache", "key", l.key, "entries", l.cache.len())

	err := l.store.Atomic(ctx, func(tx store.Tx) error {
		return l.flushInto(tx)
	}, l.key)
	if err != nil {
		return fmt.Errorf("sync %s: %w", l.key, err)
	}
	l.cache.clear()
	return nil
}

// Clear deletes the remote list.
func (l *List) Clear(ctx context.Context) error {
	if err := l.store.Delete(ctx, l.key); err != nil {
		return err
	}
	l.cache.clear()
	return nil
}

// flushInto queues a Set for every cached entry, in ascending index order.
func (l *List) flushInto(tx store.Tx) error {
	for _, i := range l.cache.indexes() {
		v, _ := l.cache.get(i)
		raw, err := l.codec.Encode(v)
		if err != nil {
			return err
		}
		tx.Set(l.key, i, raw)
	}
	return nil
}

// remainder reads the encoded elements in [lo, hi) with the cache overlay
// applied, so a rebuild carries cached writes into the new list.
func (l *List) remainder(ctx context.Context, tx store.Tx, lo, hi int64) ([][]byte, error) {
	if lo >= hi {
		return nil, nil
	}
	raw, err := tx.Range(ctx, l.key, lo, hi-1)
	if err != nil {
		return nil, err
	}
	for j := range raw {
		if v, ok := l.cache.get(lo + int64(j)); ok {
			if raw[j], err = l.codec.Encode(v); err != nil {
				return nil, err
			}
		}
	}
	return raw, nil
}
