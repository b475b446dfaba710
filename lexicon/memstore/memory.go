package memstore

import (
	"context"
	"sort"
	"sync"

	"ltp.dev/ltpgo/lexicon"
)

// Store is an in-memory lexicon.Store.
type Store struct {
	mu    sync.RWMutex
	words map[string]int
}

func New() *Store {
	return &Store{words: make(map[string]int)}
}

func (s *Store) Close() error { return nil }

func (s *Store) Add(ctx context.Context, words []lexicon.Word) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, w := range words {
		if freq, ok := s.words[w.Text]; !ok || w.Freq > freq {
			s.words[w.Text] = w.Freq
		}
	}
	return nil
}

// All returns the words sorted by text.
func (s *Store) All(ctx context.Context) ([]lexicon.Word, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	words := make([]lexicon.Word, 0, len(s.words))
	for text, freq := range s.words {
		words = append(words, lexicon.Word{Text: text, Freq: freq})
	}
	sort.Slice(words, func(i, j int) bool { return words[i].Text < words[j].Text })
	return words, nil
}
