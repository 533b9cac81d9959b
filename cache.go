package redlist

import "sort"

// writebackCache is the local overlay of unflushed writes, keyed by
// absolute index into the current remote length. Entries are more
// authoritative than the remote value at the same position until Sync
// writes them back.
//
// Renumbering always builds a fresh map and swaps it in, so a structural
// shift is computed from the complete entry set rather than incrementally
// during an unordered scan.
type writebackCache struct {
	entries map[int64]any
}

func newWritebackCache() *writebackCache {
	return &writebackCache{entries: make(map[int64]any)}
}

func (c *writebackCache) get(i int64) (any, bool) {
	v, ok := c.entries[i]
	return v, ok
}

func (c *writebackCache) set(i int64, v any) {
	c.entries[i] = v
}

func (c *writebackCache) len() int {
	return len(c.entries)
}

func (c *writebackCache) clear() {
	c.entries = make(map[int64]any)
}

// indexes returns the cached indexes in ascending order, for
// deterministic flushes.
func (c *writebackCache) indexes() []int64 {
	out := make([]int64, 0, len(c.entries))
	for i := range c.entries {
		out = append(out, i)
	}
	sort.Slice(out, func(a, b int) bool { return out[a] < out[b] })
	return out
}

// shiftFrom renumbers for an insertion at absolute position p: every entry
// at or past p moves up by one. The inserted value itself is cached by the
// caller afterwards.
func (c *writebackCache) shiftFrom(p int64) {
	fresh := make(map[int64]any, len(c.entries))
	for i, v := range c.entries {
		if i >= p {
			fresh[i+1] = v
		} else {
			fresh[i] = v
		}
	}
	c.entries = fresh
}

// dropAndShift renumbers for a removal at absolute position p: the entry
// at p is dropped and every entry past it moves down by one.
func (c *writebackCache) dropAndShift(p int64) {
	fresh := make(map[int64]any, len(c.entries))
	for i, v := range c.entries {
		switch {
		case i < p:
			fresh[i] = v
		case i > p:
			fresh[i-1] = v
		}
	}
	c.entries = fresh
}
