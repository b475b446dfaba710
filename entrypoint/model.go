package main

import (
	"context"

	"github.com/rs/zerolog"

	"ltp.dev/ltpgo/lexicon"
	"ltp.dev/ltpgo/lexicon/sqlite"
	"ltp.dev/ltpgo/ltp"
)

var openLexicon = sqlite.Open

type modelFlags struct {
	name      string
	home      string
	lexicon   string
	workers   int
	cacheSize int
}

func (f modelFlags) open(ctx context.Context, log zerolog.Logger) (*ltp.LTP, error) {
	opts := []ltp.Option{
		ltp.WithLogger(log),
		ltp.WithWorkers(f.workers),
		ltp.WithCacheSize(f.cacheSize),
	}
	if f.home != "" {
		opts = append(opts, ltp.WithModelHome(f.home))
	}
	var store lexicon.Store
	if f.lexicon != "" {
		var err error
		store, err = openLexicon(ctx, f.lexicon)
		if err != nil {
			return nil, err
		}
		opts = append(opts, ltp.WithLexicon(store))
	}
	l, err := ltp.New(f.name, opts...)
	if err != nil {
		if store != nil {
			if cerr := store.Close(); cerr != nil {
				log.Err(cerr).Msg("Failed to close lexicon")
			}
		}
		return nil, err
	}
	log.Info().
		Str("model", l.Name()).
		Interface("tasks", l.Tasks()).
		Msg("Loaded model")
	return l, nil
}
