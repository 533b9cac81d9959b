package redlist

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCacheShiftFrom(t *testing.T) {
	c := newWritebackCache()
	c.set(0, "a")
	c.set(2, "c")

	// Insert at 1: the entry at 2 must move to 3, the entry at 0 stays.
	c.shiftFrom(1)
	c.set(1, "b")

	v, ok := c.get(0)
	assert.True(t, ok)
	assert.Equal(t, "a", v)

	v, ok = c.get(1)
	assert.True(t, ok)
	assert.Equal(t, "b", v)

	_, ok = c.get(2)
	assert.False(t, ok)

	v, ok = c.get(3)
	assert.True(t, ok)
	assert.Equal(t, "c", v)
}

func TestCacheDropAndShift(t *testing.T) {
	c := newWritebackCache()
	c.set(0, "a")
	c.set(1, "b")
	c.set(3, "d")

	c.dropAndShift(1)

	v, ok := c.get(0)
	assert.True(t, ok)
	assert.Equal(t, "a", v)

	_, ok = c.get(1)
	assert.False(t, ok)

	v, ok = c.get(2)
	assert.True(t, ok)
	assert.Equal(t, "d", v)
	assert.Equal(t, 2, c.len())
}

func TestCacheIndexesSorted(t *testing.T) {
	c := newWritebackCache()
	c.set(5, "f")
	c.set(0, "a")
	c.set(2, "c")

	assert.Equal(t, []int64{0, 2, 5}, c.indexes())
}

func TestCacheClear(t *testing.T) {
	c := newWritebackCache()
	c.set(0, "a")
	c.clear()
	assert.Equal(t, 0, c.len())
	_, ok := c.get(0)
	assert.False(t, ok)
}
