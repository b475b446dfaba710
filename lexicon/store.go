package lexicon

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"ltp.dev/ltpgo/utils"
)

// Word is a custom vocabulary entry.
type Word struct {
	Text string `json:"text"`
	Freq int    `json:"freq"`
}

// Store persists custom vocabulary. Adding a known word keeps the larger frequency.
type Store interface {
	Add(ctx context.Context, words []Word) error
	All(ctx context.Context) ([]Word, error)
	Close() error
}

// ReadWords reads lines of a word optionally followed by its frequency.
func ReadWords(r io.Reader, defaultFreq int) ([]Word, error) {
	lines, err := utils.ReadLines(r)
	if err != nil {
		return nil, err
	}
	words := make([]Word, 0, len(lines))
	for i, line := range lines {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		w := Word{Text: fields[0], Freq: defaultFreq}
		if len(fields) > 1 {
			freq, err := strconv.Atoi(fields[1])
			if err != nil {
				return nil, fmt.Errorf("line %d: bad frequency %q", i+1, fields[1])
			}
			w.Freq = freq
		}
		words = append(words, w)
	}
	return words, nil
}
