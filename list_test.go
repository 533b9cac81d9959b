package redlist

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/listkit/redlist/internal/store"
)

func newTestList(t *testing.T, opts ...Option) *List {
	t.Helper()
	opts = append([]Option{WithKey("test:" + t.Name())}, opts...)
	return New(NewMemoryStore(), opts...)
}

func seed(t *testing.T, l *List, values ...any) {
	t.Helper()
	require.NoError(t, l.Extend(context.Background(), values...))
}

func requireValues(t *testing.T, l *List, want ...any) {
	t.Helper()
	got, err := l.Values(context.Background())
	require.NoError(t, err)
	if want == nil {
		want = []any{}
	}
	assert.Equal(t, want, got)
}

func TestAppendAndGet(t *testing.T) {
	ctx := context.Background()
	l := newTestList(t)

	require.NoError(t, l.Append(ctx, "a"))
	require.NoError(t, l.Append(ctx, "b"))

	v, err := l.Get(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, "a", v)

	v, err = l.Get(ctx, -1)
	require.NoError(t, err)
	assert.Equal(t, "b", v)
}

func TestReadYourWrite(t *testing.T) {
	ctx := context.Background()
	for _, writeback := range []bool{false, true} {
		l := newTestList(t)
		if writeback {
			l = newTestList(t, WithWriteback())
		}
		seed(t, l, "a", "b", "c")

		require.NoError(t, l.Set(ctx, 1, "B"))
		v, err := l.Get(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, "B", v, "writeback=%v", writeback)
	}
}

func TestExtendRoundTrip(t *testing.T) {
	ctx := context.Background()
	l := newTestList(t)
	want := []any{"a", "b", "c", "d"}
	seed(t, l, want...)

	n, err := l.Len(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(len(want)), n)

	for i, w := range want {
		v, err := l.Get(ctx, int64(i))
		require.NoError(t, err)
		assert.Equal(t, w, v)
	}
}

func TestLenMatchesValues(t *testing.T) {
	ctx := context.Background()
	l := newTestList(t)
	seed(t, l, "a", "b", "c")

	n, err := l.Len(ctx)
	require.NoError(t, err)
	vals, err := l.Values(ctx)
	require.NoError(t, err)
	assert.Equal(t, int(n), len(vals))
}

func TestGetOutOfRange(t *testing.T) {
	ctx := context.Background()
	l := newTestList(t)
	seed(t, l, "a", "b", "c")

	_, err := l.Get(ctx, 10)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)

	_, err = l.Get(ctx, -4)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
}

func TestSetOutOfRange(t *testing.T) {
	ctx := context.Background()
	l := newTestList(t)
	seed(t, l, "a")

	assert.ErrorIs(t, l.Set(ctx, 5, "x"), ErrIndexOutOfRange)

	wb := newTestList(t, WithWriteback())
	seed(t, wb, "a")
	assert.ErrorIs(t, wb.Set(ctx, 5, "x"), ErrIndexOutOfRange)
}

func TestPopEmpty(t *testing.T) {
	ctx := context.Background()
	l := newTestList(t)

	_, err := l.Pop(ctx)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)

	_, err = l.PopAt(ctx, 0)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
}

func TestPopEnds(t *testing.T) {
	ctx := context.Background()
	l := newTestList(t)
	seed(t, l, "a", "b", "c")

	v, err := l.PopAt(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, "a", v)

	v, err = l.Pop(ctx)
	require.NoError(t, err)
	assert.Equal(t, "c", v)

	requireValues(t, l, "b")
}

func TestPopMiddleSentinel(t *testing.T) {
	ctx := context.Background()
	l := newTestList(t)
	// A duplicate of the deleted value sits at the head; the sentinel
	// swap must not remove it.
	seed(t, l, "c", "b", "c", "d")

	v, err := l.PopAt(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, "c", v)

	requireValues(t, l, "c", "b", "d")
}

func TestPopNegativeMiddle(t *testing.T) {
	ctx := context.Background()
	l := newTestList(t)
	seed(t, l, "a", "b", "c")

	v, err := l.PopAt(ctx, -2)
	require.NoError(t, err)
	assert.Equal(t, "b", v)
	requireValues(t, l, "a", "c")
}

func TestSliceSemantics(t *testing.T) {
	ctx := context.Background()
	l := newTestList(t)
	seed(t, l, "0", "1", "2", "3", "4")

	got, err := l.Slice(ctx, NewSlice().From(1).To(4))
	require.NoError(t, err)
	assert.Equal(t, []any{"1", "2", "3"}, got)

	got, err = l.Slice(ctx, NewSlice().By(-1))
	require.NoError(t, err)
	assert.Equal(t, []any{"4", "3", "2", "1", "0"}, got)

	got, err = l.Slice(ctx, NewSlice().From(1).To(4).By(2))
	require.NoError(t, err)
	assert.Equal(t, []any{"1", "3"}, got)

	got, err = l.Slice(ctx, NewSlice().From(2).To(2))
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = l.Slice(ctx, NewSlice().From(4).To(2))
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = l.Slice(ctx, NewSlice().By(0))
	assert.ErrorIs(t, err, ErrZeroStep)
}

func TestSetSlice(t *testing.T) {
	ctx := context.Background()
	l := newTestList(t)
	seed(t, l, "a", "b", "c", "d", "e")

	require.NoError(t, l.SetSlice(ctx, NewSlice().From(1).To(4), []any{"X", "Y"}))
	requireValues(t, l, "a", "X", "Y", "e")

	// Replacing everything.
	require.NoError(t, l.SetSlice(ctx, NewSlice(), []any{"z"}))
	requireValues(t, l, "z")
}

func TestSetSliceCrossed(t *testing.T) {
	ctx := context.Background()
	l := newTestList(t)
	seed(t, l, "a", "b", "c", "d", "e")

	// Crossed bounds keep every element and insert at start, matching
	// Python's list[4:2] = values.
	require.NoError(t, l.SetSlice(ctx, NewSlice().From(4).To(2), []any{"x"}))
	requireValues(t, l, "a", "b", "c", "d", "x", "e")
}

func TestSetSliceSteppedRejected(t *testing.T) {
	ctx := context.Background()
	l := newTestList(t)
	seed(t, l, "a", "b", "c")

	assert.ErrorIs(t, l.SetSlice(ctx, NewSlice().By(2), []any{"x"}), ErrSteppedSplice)
	assert.ErrorIs(t, l.SetSlice(ctx, NewSlice().By(0), []any{"x"}), ErrZeroStep)
	assert.ErrorIs(t, l.DeleteSlice(ctx, NewSlice().By(-1)), ErrSteppedSplice)
}

func TestDeleteSlice(t *testing.T) {
	ctx := context.Background()

	t.Run("empty range is a no-op", func(t *testing.T) {
		l := newTestList(t)
		seed(t, l, "a", "b", "c")
		require.NoError(t, l.DeleteSlice(ctx, NewSlice().From(2).To(2)))
		requireValues(t, l, "a", "b", "c")
	})

	t.Run("full range clears", func(t *testing.T) {
		l := newTestList(t)
		seed(t, l, "a", "b", "c")
		require.NoError(t, l.DeleteSlice(ctx, NewSlice()))
		n, err := l.Len(ctx)
		require.NoError(t, err)
		assert.Zero(t, n)
	})

	t.Run("left boundary trims", func(t *testing.T) {
		l := newTestList(t)
		seed(t, l, "a", "b", "c", "d", "e")
		require.NoError(t, l.DeleteSlice(ctx, NewSlice().To(2)))
		requireValues(t, l, "c", "d", "e")
	})

	t.Run("right boundary trims", func(t *testing.T) {
		l := newTestList(t)
		seed(t, l, "a", "b", "c", "d", "e")
		require.NoError(t, l.DeleteSlice(ctx, NewSlice().From(3)))
		requireValues(t, l, "a", "b", "c")
	})

	t.Run("interior range rebuilds", func(t *testing.T) {
		l := newTestList(t)
		seed(t, l, "a", "b", "c", "d", "e")
		require.NoError(t, l.DeleteSlice(ctx, NewSlice().From(1).To(3)))
		requireValues(t, l, "a", "d", "e")
	})

	t.Run("crossed range is a no-op", func(t *testing.T) {
		l := newTestList(t)
		seed(t, l, "a", "b", "c", "d", "e")
		require.NoError(t, l.DeleteSlice(ctx, NewSlice().From(4).To(2)))
		requireValues(t, l, "a", "b", "c", "d", "e")

		require.NoError(t, l.DeleteSlice(ctx, NewSlice().From(-1).To(1)))
		requireValues(t, l, "a", "b", "c", "d", "e")
	})
}

func TestInsert(t *testing.T) {
	ctx := context.Background()
	l := newTestList(t)
	seed(t, l, "b", "d")

	require.NoError(t, l.Insert(ctx, 0, "a"))
	requireValues(t, l, "a", "b", "d")

	require.NoError(t, l.Insert(ctx, 2, "c"))
	requireValues(t, l, "a", "b", "c", "d")

	require.NoError(t, l.Insert(ctx, -1, "e"))
	requireValues(t, l, "a", "b", "c", "d", "e")
}

func TestInsertClamps(t *testing.T) {
	ctx := context.Background()
	l := newTestList(t)
	seed(t, l, "a", "b")

	require.NoError(t, l.Insert(ctx, 10, "z"))
	requireValues(t, l, "a", "b", "z")

	require.NoError(t, l.Insert(ctx, -10, "y"))
	requireValues(t, l, "y", "a", "b", "z")
}

func TestInsertRenumbersCache(t *testing.T) {
	ctx := context.Background()
	l := newTestList(t, WithWriteback())
	seed(t, l, "x", "x", "x")

	// Divergent overlay at 0 and 2; index 1 uncached.
	l.cache.clear()
	l.cache.set(0, "a")
	l.cache.set(2, "c")

	require.NoError(t, l.Insert(ctx, 1, "b"))

	// The entry formerly at 2 must now be keyed at 3.
	v, ok := l.cache.get(3)
	require.True(t, ok)
	assert.Equal(t, "c", v)

	got, err := l.Get(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, "c", got)

	require.NoError(t, l.Sync(ctx))
	requireValues(t, l, "a", "b", "x", "c")
}

func TestPopRenumbersCache(t *testing.T) {
	ctx := context.Background()
	l := newTestList(t, WithWriteback())
	seed(t, l, "x", "x", "x")

	l.cache.clear()
	l.cache.set(0, "a")
	l.cache.set(2, "c")

	v, err := l.PopAt(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "x", v)

	require.NoError(t, l.Sync(ctx))
	requireValues(t, l, "a", "c")
}

func TestSyncIdempotent(t *testing.T) {
	ctx := context.Background()
	l := newTestList(t, WithWriteback())
	seed(t, l, "a", "b")

	l.cache.set(0, "A")
	require.NoError(t, l.Sync(ctx))
	assert.Zero(t, l.cache.len())
	requireValues(t, l, "A", "b")

	require.NoError(t, l.Sync(ctx))
	assert.Zero(t, l.cache.len())
	requireValues(t, l, "A", "b")
}

func TestWritebackSession(t *testing.T) {
	ctx := context.Background()
	l := newTestList(t)
	seed(t, l, "a", "b")

	err := l.Writeback(ctx, func(l *List) error {
		l.cache.set(1, "B")
		return nil
	})
	require.NoError(t, err)

	assert.False(t, l.writeback)
	assert.Zero(t, l.cache.len())
	requireValues(t, l, "a", "B")
}

func TestWritebackSessionSyncsOnError(t *testing.T) {
	ctx := context.Background()
	l := newTestList(t)
	seed(t, l, "a", "b")

	boom := errors.New("boom")
	err := l.Writeback(ctx, func(l *List) error {
		l.cache.set(0, "A")
		return boom
	})
	assert.ErrorIs(t, err, boom)

	// The cached write must survive the failing scope.
	requireValues(t, l, "A", "b")
}

func TestIndexAndCount(t *testing.T) {
	ctx := context.Background()
	l := newTestList(t)
	seed(t, l, "a", "b", "a", "c")

	i, err := l.Index(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, int64(0), i)

	i, err = l.IndexRange(ctx, "a", 1, 4)
	require.NoError(t, err)
	assert.Equal(t, int64(2), i)

	_, err = l.Index(ctx, "z")
	assert.ErrorIs(t, err, ErrValueNotFound)

	_, err = l.IndexRange(ctx, "a", 1, 2)
	assert.ErrorIs(t, err, ErrValueNotFound)

	n, err := l.Count(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	n, err = l.Count(ctx, "z")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestWritebackOverlayReads(t *testing.T) {
	ctx := context.Background()
	l := newTestList(t, WithWriteback())
	seed(t, l, "a", "b", "c")

	// A cached write diverging from the remote value must win on every
	// read path until it is flushed.
	l.cache.set(1, "B")

	got, err := l.Slice(ctx, NewSlice())
	require.NoError(t, err)
	assert.Equal(t, []any{"a", "B", "c"}, got)

	i, err := l.Index(ctx, "B")
	require.NoError(t, err)
	assert.Equal(t, int64(1), i)

	_, err = l.Index(ctx, "b")
	assert.ErrorIs(t, err, ErrValueNotFound)

	n, err := l.Count(ctx, "B")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = l.Count(ctx, "b")
	require.NoError(t, err)
	assert.Zero(t, n)

	require.NoError(t, l.Sync(ctx))
	requireValues(t, l, "a", "B", "c")
}

func TestRemove(t *testing.T) {
	ctx := context.Background()
	l := newTestList(t)
	seed(t, l, "a", "b", "a")

	require.NoError(t, l.Remove(ctx, "a"))
	requireValues(t, l, "b", "a")

	// Removing an absent value is a silent no-op.
	require.NoError(t, l.Remove(ctx, "z"))
	requireValues(t, l, "b", "a")
}

func TestReverse(t *testing.T) {
	ctx := context.Background()
	l := newTestList(t)
	seed(t, l, "a", "b", "c", "d", "e")

	require.NoError(t, l.Reverse(ctx))
	requireValues(t, l, "e", "d", "c", "b", "a")

	even := newTestList(t)
	seed(t, even, "a", "b", "c", "d")
	require.NoError(t, even.Reverse(ctx))
	requireValues(t, even, "d", "c", "b", "a")
}

func TestClear(t *testing.T) {
	ctx := context.Background()
	l := newTestList(t, WithWriteback())
	seed(t, l, "a", "b")

	require.NoError(t, l.Clear(ctx))
	n, err := l.Len(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Zero(t, l.cache.len())
}

func TestExtendFrom(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	l1 := New(s, WithKey("test:extendfrom:1"))
	l2 := New(s, WithKey("test:extendfrom:2"))
	seed(t, l1, "a", "b")
	seed(t, l2, "c", "d")

	require.NoError(t, l1.ExtendFrom(ctx, l2))
	requireValues(t, l1, "a", "b", "c", "d")
	requireValues(t, l2, "c", "d")
}

func TestExtendFromDifferentStore(t *testing.T) {
	ctx := context.Background()
	l1 := New(NewMemoryStore(), WithKey("test:mismatch:1"))
	l2 := New(NewMemoryStore(), WithKey("test:mismatch:2"))
	seed(t, l2, "c", "d")

	assert.ErrorIs(t, l1.ExtendFrom(ctx, l2), ErrStoreMismatch)
	requireValues(t, l1)
}

func TestExtendFromSelf(t *testing.T) {
	ctx := context.Background()
	l := newTestList(t)
	seed(t, l, "a", "b")

	require.NoError(t, l.ExtendFrom(ctx, l))
	requireValues(t, l, "a", "b", "a", "b")
}

// contentiousStore injects a concurrent mutation between a transaction's
// reads and its commit, exactly once.
type contentiousStore struct {
	store.Store
	inject func()
	once   sync.Once
	calls  int
}

func (c *contentiousStore) Atomic(ctx context.Context, fn func(store.Tx) error, keys ...string) error {
	return c.Store.Atomic(ctx, func(tx store.Tx) error {
		c.calls++
		if err := fn(tx); err != nil {
			return err
		}
		c.once.Do(c.inject)
		return nil
	}, keys...)
}

func TestInsertRetriesUnderContention(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	cs := &contentiousStore{Store: mem}
	cs.inject = func() {
		// Another client appends while the insert transaction is in
		// flight; the watched key changes and the commit must abort.
		_, err := mem.PushRight(ctx, "test:contended", []byte(`"z"`))
		require.NoError(t, err)
	}

	// Seed through the raw store so the injection fires during the
	// insert's transaction, not the seeding one.
	for _, v := range []string{`"a"`, `"b"`, `"d"`, `"e"`} {
		_, err := mem.PushRight(ctx, "test:contended", []byte(v))
		require.NoError(t, err)
	}

	l := New(cs, WithKey("test:contended"))
	require.NoError(t, l.Insert(ctx, 2, "c"))
	assert.Equal(t, 2, cs.calls, "transaction should have retried once")

	requireValues(t, l, "a", "b", "c", "d", "e", "z")
}
