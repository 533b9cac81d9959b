package redlist

import "context"

// Writeback runs fn with the write-back cache enabled, then flushes it.
// Sync is invoked exactly once on every exit path, including when fn
// fails, so no cached write is silently lost; fn's error wins when both
// fn and the flush fail. The previous write-back setting is restored on
// exit.
func (l *List) Writeback(ctx context.Context, fn func(*List) error) (err error) {
	prev := l.writeback
	l.writeback = true
	defer func() {
		serr := l.Sync(ctx)
		l.writeback = prev
		if err == nil {
			err = serr
		}
	}()
	return fn(l)
}
