package ltp

import (
	"runtime"

	"github.com/rs/zerolog"

	"ltp.dev/ltpgo/lexicon"
	"ltp.dev/ltpgo/logger"
)

const DefaultCacheSize = 1024

type Option func(*options)

type options struct {
	modelHome string
	logger    zerolog.Logger
	workers   int
	cacheSize int
	lexicon   lexicon.Store
}

func defaultOptions() options {
	return options{
		logger:    logger.NewLogger("LTP"),
		workers:   runtime.NumCPU(),
		cacheSize: DefaultCacheSize,
	}
}

// WithModelHome overrides the LTP_MODEL_HOME directory.
func WithModelHome(dir string) Option {
	return func(o *options) {
		o.modelHome = dir
	}
}

func WithLogger(l zerolog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithWorkers bounds how many sentences of a batch run at once.
func WithWorkers(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.workers = n
		}
	}
}

// WithCacheSize sets the number of cached sentence results, 0 disables the cache.
func WithCacheSize(n int) Option {
	return func(o *options) {
		if n >= 0 {
			o.cacheSize = n
		}
	}
}

// WithLexicon persists custom words in store and preloads the stored ones.
func WithLexicon(store lexicon.Store) Option {
	return func(o *options) {
		o.lexicon = store
	}
}
