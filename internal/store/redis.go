package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/redis/go-redis/v9"
	"github.com/sourcegraph/conc/pool"
)

const (
	// DefaultConcurrency bounds parallel chunk fetches for large ranges.
	DefaultConcurrency = 8

	// rangeChunk is the largest span fetched with a single LRANGE before
	// the read is split into parallel chunks.
	rangeChunk = 4096
)

// Redis implements Store on a Redis list. Transactions use WATCH with a
// MULTI/EXEC commit and retry on contention via redis.TxFailedErr.
type Redis struct {
	client      redis.UniversalClient
	log         *slog.Logger
	concurrency int
}

func NewRedis(client redis.UniversalClient) *Redis {
	return &Redis{
		client:      client,
		log:         slog.Default(),
		concurrency: DefaultConcurrency,
	}
}

// SetConcurrency bounds the number of parallel range-chunk fetches.
func (r *Redis) SetConcurrency(n int) {
	if n > 0 {
		r.concurrency = n
	}
}

func (r *Redis) SetLogger(log *slog.Logger) {
	if log != nil {
		r.log = log
	}
}

func (r *Redis) Len(ctx context.Context, key string) (int64, error) {
	return r.client.LLen(ctx, key).Result()
}

func (r *Redis) Get(ctx context.Context, key string, index int64) ([]byte, error) {
	v, err := r.client.LIndex(ctx, key, index).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNil
	}
	return v, err
}

func (r *Redis) Set(ctx context.Context, key string, index int64, value []byte) error {
	err := r.client.LSet(ctx, key, index, value).Err()
	return mapSetErr(err)
}

// Range fetches [start, stop] (inclusive, Redis conventions). Spans larger
// than rangeChunk are split and fetched in parallel, then reassembled in
// order. Negative bounds are resolved against LLEN only to size the span;
// the single-command path passes them to LRANGE untouched, so a small read
// stays one atomic command even if the list moves after the length probe.
func (r *Redis) Range(ctx context.Context, key string, start, stop int64) ([][]byte, error) {
	first, last := start, stop
	if first < 0 || last < 0 {
		n, err := r.client.LLen(ctx, key).Result()
		if err != nil {
			return nil, err
		}
		if first < 0 {
			first = max(n+first, 0)
		}
		if last < 0 {
			last = n + last
		}
		last = min(last, n-1)
	}

	span := last - first + 1
	if span <= rangeChunk {
		vals, err := r.client.LRange(ctx, key, start, stop).Result()
		if err != nil {
			return nil, err
		}
		return toBytes(vals), nil
	}

	chunks := (span + rangeChunk - 1) / rangeChunk
	results := make([][][]byte, chunks)

	p := pool.New().WithMaxGoroutines(r.concurrency).WithContext(ctx).WithCancelOnError()
	for i := int64(0); i < chunks; i++ {
		lo := first + i*rangeChunk
		hi := min(lo+rangeChunk-1, last)
		p.Go(func(ctx context.Context) error {
			vals, err := r.client.LRange(ctx, key, lo, hi).Result()
			if err != nil {
				return fmt.Errorf("range chunk [%d,%d]: %w", lo, hi, err)
			}
			results[i] = toBytes(vals)
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		return nil, err
	}

	out := make([][]byte, 0, span)
	for _, chunk := range results {
		out = append(out, chunk...)
	}
	return out, nil
}

func (r *Redis) Trim(ctx context.Context, key string, start, stop int64) error {
	return r.client.LTrim(ctx, key, start, stop).Err()
}

func (r *Redis) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, key).Err()
}

func (r *Redis) PushLeft(ctx context.Context, key string, values ...[]byte) (int64, error) {
	return r.client.LPush(ctx, key, toArgs(values)...).Result()
}

func (r *Redis) PushRight(ctx context.Context, key string, values ...[]byte) (int64, error) {
	return r.client.RPush(ctx, key, toArgs(values)...).Result()
}

func (r *Redis) PopLeft(ctx context.Context, key string) ([]byte, error) {
	v, err := r.client.LPop(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNil
	}
	return v, err
}

func (r *Redis) PopRight(ctx context.Context, key string) ([]byte, error) {
	v, err := r.client.RPop(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNil
	}
	return v, err
}

func (r *Redis) Remove(ctx context.Context, key string, count int64, value []byte) (int64, error) {
	return r.client.LRem(ctx, key, count, value).Result()
}

func (r *Redis) Atomic(ctx context.Context, fn func(Tx) error, keys ...string) error {
	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := r.client.Watch(ctx, func(rtx *redis.Tx) error {
			t := &redisTx{ctx: ctx, tx: rtx}
			if err := fn(t); err != nil {
				return err
			}
			if len(t.queue) == 0 {
				return nil
			}
			_, err := rtx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				for _, op := range t.queue {
					op(pipe)
				}
				return nil
			})
			return err
		}, keys...)

		if errors.Is(err, redis.TxFailedErr) {
			r.log.Debug("optimistic transaction conflict, retrying",
				"keys", keys, "attempt", attempt)
			continue
		}
		return err
	}
}

func (r *Redis) Close() error {
	return r.client.Close()
}

type redisTx struct {
	ctx   context.Context
	tx    *redis.Tx
	queue []func(redis.Pipeliner)
}

func (t *redisTx) Len(ctx context.Context, key string) (int64, error) {
	return t.tx.LLen(ctx, key).Result()
}

func (t *redisTx) Get(ctx context.Context, key string, index int64) ([]byte, error) {
	v, err := t.tx.LIndex(ctx, key, index).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNil
	}
	return v, err
}

func (t *redisTx) Range(ctx context.Context, key string, start, stop int64) ([][]byte, error) {
	vals, err := t.tx.LRange(ctx, key, start, stop).Result()
	if err != nil {
		return nil, err
	}
	return toBytes(vals), nil
}

func (t *redisTx) Set(key string, index int64, value []byte) {
	t.queue = append(t.queue, func(pipe redis.Pipeliner) {
		pipe.LSet(t.ctx, key, index, value)
	})
}

func (t *redisTx) PushLeft(key string, values ...[]byte) {
	t.queue = append(t.queue, func(pipe redis.Pipeliner) {
		pipe.LPush(t.ctx, key, toArgs(values)...)
	})
}

func (t *redisTx) PushRight(key string, values ...[]byte) {
	t.queue = append(t.queue, func(pipe redis.Pipeliner) {
		pipe.RPush(t.ctx, key, toArgs(values)...)
	})
}

func (t *redisTx) PopLeft(key string) {
	t.queue = append(t.queue, func(pipe redis.Pipeliner) {
		pipe.LPop(t.ctx, key)
	})
}

func (t *redisTx) PopRight(key string) {
	t.queue = append(t.queue, func(pipe redis.Pipeliner) {
		pipe.RPop(t.ctx, key)
	})
}

func (t *redisTx) Trim(key string, start, stop int64) {
	t.queue = append(t.queue, func(pipe redis.Pipeliner) {
		pipe.LTrim(t.ctx, key, start, stop)
	})
}

func (t *redisTx) Remove(key string, count int64, value []byte) {
	t.queue = append(t.queue, func(pipe redis.Pipeliner) {
		pipe.LRem(t.ctx, key, count, value)
	})
}

func (t *redisTx) Delete(key string) {
	t.queue = append(t.queue, func(pipe redis.Pipeliner) {
		pipe.Del(t.ctx, key)
	})
}

func mapSetErr(err error) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	if strings.Contains(msg, "index out of range") || strings.Contains(msg, "no such key") {
		return ErrOutOfRange
	}
	return err
}

func toArgs(values [][]byte) []any {
	args := make([]any, len(values))
	for i, v := range values {
		args[i] = v
	}
	return args
}

func toBytes(vals []string) [][]byte {
	out := make([][]byte, len(vals))
	for i, v := range vals {
		out[i] = []byte(v)
	}
	return out
}
