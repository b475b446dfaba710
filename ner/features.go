package ner

import (
	"ltp.dev/ltpgo/ml/perceptron"
)

const (
	padBegin = "\x02"
	padEnd   = "\x03"
)

func window(items []string, i, offset int) string {
	j := i + offset
	switch {
	case j < 0:
		return padBegin
	case j >= len(items):
		return padEnd
	}
	return items[j]
}

// Features builds word and part of speech window features.
func Features(words, tags []string) [][]uint64 {
	features := make([][]uint64, len(words))
	for i := range words {
		w := func(o int) string { return window(words, i, o) }
		p := func(o int) string { return window(tags, i, o) }
		runes := []rune(words[i])

		fs := make(perceptron.Features, 0, 20)
		fs.Add("w-2", w(-2))
		fs.Add("w-1", w(-1))
		fs.Add("w0", w(0))
		fs.Add("w1", w(1))
		fs.Add("w2", w(2))
		fs.Add("w-1w0", w(-1), w(0))
		fs.Add("w0w1", w(0), w(1))
		fs.Add("p-2", p(-2))
		fs.Add("p-1", p(-1))
		fs.Add("p0", p(0))
		fs.Add("p1", p(1))
		fs.Add("p2", p(2))
		fs.Add("p-1p0", p(-1), p(0))
		fs.Add("p0p1", p(0), p(1))
		fs.Add("w0p0", w(0), p(0))
		if len(runes) > 0 {
			fs.Add("first", string(runes[0]))
			fs.Add("last", string(runes[len(runes)-1]))
			fs.Add("p0last", p(0), string(runes[len(runes)-1]))
		}
		features[i] = fs
	}
	return features
}
