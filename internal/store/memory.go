package store

import (
	"bytes"
	"context"
	"sync"
)

// Memory implements Store in process memory with the same optimistic
// transaction semantics as the Redis backend: every key carries a version
// counter bumped on mutation, and Atomic commits its queued writes only if
// the watched versions are unchanged since the snapshot was taken.
type Memory struct {
	mu       sync.Mutex
	lists    map[string][][]byte
	versions map[string]uint64
}

func NewMemory() *Memory {
	return &Memory{
		lists:    make(map[string][][]byte),
		versions: make(map[string]uint64),
	}
}

func (m *Memory) Len(ctx context.Context, key string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.lists[key])), nil
}

func (m *Memory) Get(ctx context.Context, key string, index int64) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.getLocked(key, index)
}

func (m *Memory) Set(ctx context.Context, key string, index int64, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.setLocked(key, index, value)
}

func (m *Memory) Range(ctx context.Context, key string, start, stop int64) ([][]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rangeLocked(key, start, stop), nil
}

func (m *Memory) Trim(ctx context.Context, key string, start, stop int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trimLocked(key, start, stop)
	return nil
}

func (m *Memory) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleteLocked(key)
	return nil
}

func (m *Memory) PushLeft(ctx context.Context, key string, values ...[]byte) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pushLeftLocked(key, values...), nil
}

func (m *Memory) PushRight(ctx context.Context, key string, values ...[]byte) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pushRightLocked(key, values...), nil
}

func (m *Memory) PopLeft(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.popLocked(key, false)
}

func (m *Memory) PopRight(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.popLocked(key, true)
}

func (m *Memory) Remove(ctx context.Context, key string, count int64, value []byte) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.removeLocked(key, count, value), nil
}

// Atomic snapshots the watched versions, runs fn (reads observe live
// state, writes are queued), and applies the queue under the lock only if
// no watched key was touched in between. Otherwise the attempt is
// discarded and fn re-runs with fresh state.
func (m *Memory) Atomic(ctx context.Context, fn func(Tx) error, keys ...string) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		m.mu.Lock()
		watched := make(map[string]uint64, len(keys))
		for _, k := range keys {
			watched[k] = m.versions[k]
		}
		m.mu.Unlock()

		tx := &memoryTx{m: m}
		if err := fn(tx); err != nil {
			return err
		}

		m.mu.Lock()
		stale := false
		for _, k := range keys {
			if m.versions[k] != watched[k] {
				stale = true
				break
			}
		}
		if stale {
			m.mu.Unlock()
			continue
		}

		// Commit: apply every queued write, reporting the first failure
		// without stopping, matching a Redis MULTI/EXEC batch.
		var err error
		for _, op := range tx.queue {
			if operr := op(); operr != nil && err == nil {
				err = operr
			}
		}
		m.mu.Unlock()
		return err
	}
}

func (m *Memory) Close() error { return nil }

type memoryTx struct {
	m     *Memory
	queue []func() error
}

func (t *memoryTx) Len(ctx context.Context, key string) (int64, error) {
	return t.m.Len(ctx, key)
}

func (t *memoryTx) Get(ctx context.Context, key string, index int64) ([]byte, error) {
	return t.m.Get(ctx, key, index)
}

func (t *memoryTx) Range(ctx context.Context, key string, start, stop int64) ([][]byte, error) {
	return t.m.Range(ctx, key, start, stop)
}

func (t *memoryTx) Set(key string, index int64, value []byte) {
	t.queue = append(t.queue, func() error { return t.m.setLocked(key, index, value) })
}

func (t *memoryTx) PushLeft(key string, values ...[]byte) {
	t.queue = append(t.queue, func() error { t.m.pushLeftLocked(key, values...); return nil })
}

func (t *memoryTx) PushRight(key string, values ...[]byte) {
	t.queue = append(t.queue, func() error { t.m.pushRightLocked(key, values...); return nil })
}

func (t *memoryTx) PopLeft(key string) {
	t.queue = append(t.queue, func() error { _, err := t.m.popLocked(key, false); return err })
}

func (t *memoryTx) PopRight(key string) {
	t.queue = append(t.queue, func() error { _, err := t.m.popLocked(key, true); return err })
}

func (t *memoryTx) Trim(key string, start, stop int64) {
	t.queue = append(t.queue, func() error { t.m.trimLocked(key, start, stop); return nil })
}

func (t *memoryTx) Remove(key string, count int64, value []byte) {
	t.queue = append(t.queue, func() error { t.m.removeLocked(key, count, value); return nil })
}

func (t *memoryTx) Delete(key string) {
	t.queue = append(t.queue, func() error { t.m.deleteLocked(key); return nil })
}

// The locked helpers below require m.mu to be held, except inside Atomic's
// commit where the lock is already taken. Index and range arithmetic
// follows Redis: negative positions count from the tail, range stops are
// inclusive, and a list that becomes empty disappears.

func (m *Memory) touch(key string) {
	m.versions[key]++
}

func (m *Memory) getLocked(key string, index int64) ([]byte, error) {
	items := m.lists[key]
	n := int64(len(items))
	if index < 0 {
		index += n
	}
	if index < 0 || index >= n {
		return nil, ErrNil
	}
	return items[index], nil
}

func (m *Memory) setLocked(key string, index int64, value []byte) error {
	items := m.lists[key]
	n := int64(len(items))
	if index < 0 {
		index += n
	}
	if index < 0 || index >= n {
		return ErrOutOfRange
	}
	items[index] = value
	m.touch(key)
	return nil
}

func (m *Memory) rangeBounds(start, stop, n int64) (int64, int64, bool) {
	if start < 0 {
		start = max(n+start, 0)
	}
	if stop < 0 {
		stop = n + stop
	}
	stop = min(stop, n-1)
	if n == 0 || start > stop || start >= n {
		return 0, 0, false
	}
	return start, stop, true
}

func (m *Memory) rangeLocked(key string, start, stop int64) [][]byte {
	items := m.lists[key]
	lo, hi, ok := m.rangeBounds(start, stop, int64(len(items)))
	if !ok {
		return nil
	}
	out := make([][]byte, hi-lo+1)
	copy(out, items[lo:hi+1])
	return out
}

func (m *Memory) trimLocked(key string, start, stop int64) {
	items, exists := m.lists[key]
	if !exists {
		return
	}
	lo, hi, ok := m.rangeBounds(start, stop, int64(len(items)))
	if !ok {
		delete(m.lists, key)
		m.touch(key)
		return
	}
	m.lists[key] = items[lo : hi+1]
	m.touch(key)
}

func (m *Memory) deleteLocked(key string) {
	if _, exists := m.lists[key]; !exists {
		return
	}
	delete(m.lists, key)
	m.touch(key)
}

func (m *Memory) pushLeftLocked(key string, values ...[]byte) int64 {
	items := m.lists[key]
	// LPUSH order: each value lands at the head in turn.
	for _, v := range values {
		items = append([][]byte{v}, items...)
	}
	m.lists[key] = items
	m.touch(key)
	return int64(len(items))
}

func (m *Memory) pushRightLocked(key string, values ...[]byte) int64 {
	items := append(m.lists[key], values...)
	m.lists[key] = items
	m.touch(key)
	return int64(len(items))
}

func (m *Memory) popLocked(key string, tail bool) ([]byte, error) {
	items := m.lists[key]
	if len(items) == 0 {
		return nil, ErrNil
	}
	var v []byte
	if tail {
		v = items[len(items)-1]
		items = items[:len(items)-1]
	} else {
		v = items[0]
		items = items[1:]
	}
	if len(items) == 0 {
		delete(m.lists, key)
	} else {
		m.lists[key] = items
	}
	m.touch(key)
	return v, nil
}

func (m *Memory) removeLocked(key string, count int64, value []byte) int64 {
	items := m.lists[key]
	if len(items) == 0 {
		return 0
	}

	limit := count
	if limit < 0 {
		limit = -limit
	}
	fromTail := count < 0

	kept := make([][]byte, 0, len(items))
	var removed int64
	scan := func(v []byte) bool {
		if (count == 0 || removed < limit) && bytes.Equal(v, value) {
			removed++
			return true
		}
		return false
	}

	if fromTail {
		for i := len(items) - 1; i >= 0; i-- {
			if !scan(items[i]) {
				kept = append(kept, items[i])
			}
		}
		for l, r := 0, len(kept)-1; l < r; l, r = l+1, r-1 {
			kept[l], kept[r] = kept[r], kept[l]
		}
	} else {
		for _, v := range items {
			if !scan(v) {
				kept = append(kept, v)
			}
		}
	}

	if removed == 0 {
		return 0
	}
	if len(kept) == 0 {
		delete(m.lists, key)
	} else {
		m.lists[key] = kept
	}
	m.touch(key)
	return removed
}
