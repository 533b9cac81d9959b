package redlist

// normalizeIndex resolves a signed index against the list length n.
// Negative indices count from the tail. The result is not bounds-checked;
// callers treat anything outside [0, n) as out of range.
func normalizeIndex(index, n int64) int64 {
	if index >= 0 {
		return index
	}
	return n + index
}

// Slice addresses a sub-range of a list, Python-style. The zero bound is
// distinct from an absent bound, so bounds are set fluently:
//
//	NewSlice()                 // the whole list
//	NewSlice().From(1).To(4)   // elements 1, 2, 3
//	NewSlice().By(-1)          // the whole list, reversed
//	NewSlice().From(-3)        // the last three elements
type Slice struct {
	start *int64
	stop  *int64
	step  int64
}

// NewSlice returns a slice covering the whole list with step 1.
func NewSlice() Slice {
	return Slice{step: 1}
}

// From sets the start bound. Negative values count from the tail.
func (s Slice) From(i int64) Slice {
	s.start = &i
	return s
}

// To sets the stop bound (exclusive). Negative values count from the tail.
func (s Slice) To(i int64) Slice {
	s.stop = &i
	return s
}

// By sets the step. A negative step walks the range tail to head.
func (s Slice) By(step int64) Slice {
	s.step = step
	return s
}

// sliceRange is a slice resolved against a concrete length: a forward
// half-open range [start, stop) plus the direction and step magnitude to
// apply to the fetched elements afterwards.
type sliceRange struct {
	start   int64
	stop    int64
	step    int64
	forward bool
	n       int64
}

// empty reports whether the range addresses no elements. Crossed bounds
// (stop before start, as in list[4:2]) are empty, not a wrapped range.
func (r sliceRange) empty() bool { return r.stop <= r.start }

// normalize resolves the slice against length n.
func (s Slice) normalize(n int64) (sliceRange, error) {
	if s.step == 0 {
		return sliceRange{}, ErrZeroStep
	}

	forward := s.step > 0
	step := s.step
	if step < 0 {
		step = -step
	}

	var start int64
	switch {
	case s.start == nil:
		if forward {
			start = 0
		} else {
			start = n - 1
		}
	case *s.start < 0:
		start = max(n+*s.start, 0)
	default:
		start = min(*s.start, n)
	}

	var stop int64
	switch {
	case s.stop == nil:
		if forward {
			stop = n
		} else {
			stop = -1
		}
	case *s.stop < 0:
		stop = max(n+*s.stop, 0)
	default:
		stop = min(*s.stop, n)
	}

	// Remap a backward slice to a forward half-open range. Direction is
	// reapplied to the fetched values.
	if !forward {
		start, stop = min(stop+1, n), min(start+1, n)
	}

	return sliceRange{start: start, stop: stop, step: step, forward: forward, n: n}, nil
}

// spliceable reports whether the slice may address a structural mutation
// (assignment or deletion). Only a forward unit step can splice without
// re-deriving arbitrary interleavings.
func (s Slice) spliceable() error {
	switch s.step {
	case 0:
		return ErrZeroStep
	case 1:
		return nil
	default:
		return ErrSteppedSplice
	}
}
