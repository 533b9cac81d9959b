package redlist

import "errors"

var (
	ErrIndexOutOfRange = errors.New("redlist: index out of range")
	ErrValueNotFound   = errors.New("redlist: value not found")
	ErrZeroStep        = errors.New("redlist: slice step cannot be zero")
	ErrSteppedSplice   = errors.New("redlist: slice assignment and deletion support forward step 1 only")
	ErrStoreMismatch   = errors.New("redlist: lists are backed by different stores")
)
