// Package redlist provides a mutable, indexable sequence whose
// authoritative storage is a Redis list, behaving like a local sequence
// to its caller.
//
// Indices follow Python conventions: negative positions count from the
// tail, slices are half-open and direction-aware. Every operation that
// reads remote state before writing runs as an optimistic transaction
// (WATCH + MULTI/EXEC) and retries transparently when another client
// mutates the key mid-flight.
//
// Basic usage:
//
//	l, _ := redlist.Open("localhost:6379", redlist.WithKey("jobs"))
//
//	l.Append(ctx, "a")
//	l.Extend(ctx, "b", "c", "d")
//
//	v, _ := l.Get(ctx, -1)                               // "d"
//	mid, _ := l.Slice(ctx, redlist.NewSlice().From(1).To(3))
//	rev, _ := l.Slice(ctx, redlist.NewSlice().By(-1))    // reversed copy
//
//	l.Insert(ctx, 1, "x")
//	l.Delete(ctx, 2)
//	l.Reverse(ctx)
//
// With a write-back session, overwrites are cached locally and flushed in
// one atomic batch when the scope exits, on success or failure:
//
//	err := l.Writeback(ctx, func(l *redlist.List) error {
//		l.Set(ctx, 0, "updated")
//		l.Set(ctx, 4, "also updated")
//		return nil
//	})
//
// Values pass through a pluggable Codec (JSON by default, optionally
// zstd-compressed), and the store itself is an interface: NewMemoryStore
// returns an in-process backend with the same transactional semantics,
// useful for tests.
package redlist
