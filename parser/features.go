package parser

import (
	"strconv"

	"ltp.dev/ltpgo/ml/perceptron"
)

const (
	rootToken = "<ROOT>"
	padToken  = "<PAD>"

	maxBetween = 10
)

// withRoot prepends the root token to words and tags.
func withRoot(words, tags []string) ([]string, []string) {
	w := make([]string, 0, len(words)+1)
	t := make([]string, 0, len(tags)+1)
	w = append(append(w, rootToken), words...)
	t = append(append(t, rootToken), tags...)
	for len(t) < len(w) {
		t = append(t, padToken)
	}
	return w, t
}

func distanceBucket(d int) string {
	switch {
	case d <= 5:
		return strconv.Itoa(d)
	case d <= 10:
		return "6-10"
	}
	return "10+"
}

func at(items []string, i int) string {
	if i < 0 || i >= len(items) {
		return padToken
	}
	return items[i]
}

// ArcFeatures builds the features of every arc h -> d over root-prefixed
// words and tags. The diagonal and arcs into the root are nil.
func ArcFeatures(words, tags []string) [][][]uint64 {
	n := len(words)
	features := make([][][]uint64, n)
	for h := range features {
		features[h] = make([][]uint64, n)
		for d := 1; d < n; d++ {
			if h != d {
				features[h][d] = arcFeatures(words, tags, h, d)
			}
		}
	}
	return features
}

func arcFeatures(words, tags []string, h, d int) []uint64 {
	dir := "R"
	lo, hi := h, d
	if h > d {
		dir = "L"
		lo, hi = d, h
	}
	dist := distanceBucket(hi - lo)

	hw, hp := words[h], tags[h]
	dw, dp := words[d], tags[d]

	fs := make(perceptron.Features, 0, 24+maxBetween)
	fs.Add("hw", dir, hw)
	fs.Add("hp", dir, hp)
	fs.Add("hwhp", dir, hw, hp)
	fs.Add("dw", dir, dw)
	fs.Add("dp", dir, dp)
	fs.Add("dwdp", dir, dw, dp)
	fs.Add("hwhpdwdp", dir, hw, hp, dw, dp)
	fs.Add("hpdwdp", dir, hp, dw, dp)
	fs.Add("hwdwdp", dir, hw, dw, dp)
	fs.Add("hwhpdp", dir, hw, hp, dp)
	fs.Add("hwhpdw", dir, hw, hp, dw)
	fs.Add("hwdw", dir, hw, dw)
	fs.Add("hpdp", dir, hp, dp)
	fs.Add("hpdpdist", dir, dist, hp, dp)
	fs.Add("hwdwdist", dir, dist, hw, dw)
	fs.Add("dist", dir, dist)

	fs.Add("hp+1dp-1", dir, hp, at(tags, h+1), at(tags, d-1), dp)
	fs.Add("hp-1dp-1", dir, at(tags, h-1), hp, at(tags, d-1), dp)
	fs.Add("hp+1dp+1", dir, hp, at(tags, h+1), dp, at(tags, d+1))
	fs.Add("hp-1dp+1", dir, at(tags, h-1), hp, dp, at(tags, d+1))

	for b, count := lo+1, 0; b < hi && count < maxBetween; b, count = b+1, count+1 {
		fs.Add("hpbpdp", dir, hp, tags[b], dp)
	}
	return fs
}
