package pos

import (
	"strconv"

	"ltp.dev/ltpgo/ml/perceptron"
)

const (
	prefixLength = 3
	suffixLength = 3

	tagBegin = "*SB*"
)

// ContextGenerator adds the features that depend on earlier decisions to the
// static word features of position index.
type ContextGenerator interface {
	GetContext(index int, words []string, static [][]uint64, priorTags []string) []uint64
}

type defaultContextGenerator struct{}

func (g defaultContextGenerator) GetContext(index int, words []string, static [][]uint64, tags []string) []uint64 {
	prev, prevprev := tagBegin, tagBegin
	if index > 0 {
		prev = tags[index-1]
		if index > 1 {
			prevprev = tags[index-2]
		}
	}

	fs := make(perceptron.Features, len(static[index]), len(static[index])+3)
	copy(fs, static[index])
	fs.Add("t-1", prev)
	fs.Add("t-2t-1", prevprev, prev)
	fs.Add("w0t-1", words[index], prev)
	return fs
}

func NewContextGenerator() ContextGenerator {
	return defaultContextGenerator{}
}

// WordFeatures builds the word window templates of every word: unigrams,
// bigrams and the trigram around it, first and last chars, length, prefixes
// and suffixes.
func WordFeatures(words []string) [][]uint64 {
	n := len(words)
	chars := make([][]rune, n)
	for i, w := range words {
		chars[i] = []rune(w)
		if len(chars[i]) == 0 {
			chars[i] = []rune{' '}
		}
	}

	features := make([][]uint64, n)
	for idx, cur := range words {
		last := n - idx - 1
		ch := chars[idx]
		fs := make(perceptron.Features, 0, 22)

		fs.Add("w0", cur)
		fs.Add("first_last", string(ch[0]), string(ch[len(ch)-1]))
		fs.Add("len", strconv.Itoa(len(ch)))
		for i := 0; i < prefixLength && i < len(ch); i++ {
			fs.Add("pre"+strconv.Itoa(i), string(ch[:i+1]))
		}
		for i := 0; i < suffixLength && i < len(ch); i++ {
			fs.Add("suf"+strconv.Itoa(i), string(ch[len(ch)-i-1:]))
		}

		if idx > 0 {
			prev := words[idx-1]
			prevChars := chars[idx-1]
			fs.Add("w-1", prev)
			fs.Add("w-1w0", prev, cur)
			fs.Add("last-1first0", string(prevChars[len(prevChars)-1]), string(ch[0]))
			if idx > 1 {
				prev2 := words[idx-2]
				fs.Add("w-2", prev2)
				fs.Add("w-2w-1", prev2, prev)
				fs.Add("w-2w0", prev2, cur)
			}
		}

		if last > 0 {
			next := words[idx+1]
			fs.Add("w1", next)
			fs.Add("w0w1", cur, next)
			fs.Add("last0first1", string(ch[len(ch)-1]), string(chars[idx+1][0]))
			if last > 1 {
				next2 := words[idx+2]
				fs.Add("w2", next2)
				fs.Add("w1w2", next, next2)
				fs.Add("w0w2", cur, next2)
			}
		}

		if idx > 0 && last > 0 {
			fs.Add("w-1w0w1", words[idx-1], cur, words[idx+1])
		}
		features[idx] = fs
	}
	return features
}
