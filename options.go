package redlist

import (
	"log/slog"

	"github.com/google/uuid"
)

// DefaultKeyPrefix namespaces generated keys in the remote store.
const DefaultKeyPrefix = "redlist:"

// Options configures a List.
type Options struct {
	Key       string
	Writeback bool
	Codec     Codec
	Logger    *slog.Logger
}

// Option is a functional option for configuring New and Open.
type Option func(*Options)

func defaultOptions() *Options {
	return &Options{
		Codec:  JSON,
		Logger: slog.Default(),
	}
}

// WithKey sets the remote store key. Lists with the same key point to the
// same data. Without it a random uuid-based key is generated.
func WithKey(key string) Option {
	return func(o *Options) { o.Key = key }
}

// WithWriteback enables the local write-back cache. Cached writes are
// flushed to the store by Sync.
func WithWriteback() Option {
	return func(o *Options) { o.Writeback = true }
}

// WithCodec sets the value codec. Default is JSON.
func WithCodec(c Codec) Option {
	return func(o *Options) {
		if c != nil {
			o.Codec = c
		}
	}
}

// WithLogger sets the logger. Default is slog.Default().
func WithLogger(log *slog.Logger) Option {
	return func(o *Options) {
		if log != nil {
			o.Logger = log
		}
	}
}

func generateKey() string {
	return DefaultKeyPrefix + uuid.NewString()
}
