package cws

import (
	"golang.org/x/text/width"

	"ltp.dev/ltpgo/ml/perceptron"
	"ltp.dev/ltpgo/utils"
)

const (
	charBegin = "\x02"
	charEnd   = "\x03"
)

// Normalize folds full width forms to their half width counterparts.
func Normalize(r rune) rune {
	if folded := width.LookupRune(r).Folded(); folded != 0 {
		return folded
	}
	return r
}

// Features builds the character window features of every rune.
func Features(runes []rune) [][]uint64 {
	n := len(runes)
	chars := make([]string, n+4)
	types := make([]string, n+2)
	chars[0], chars[1] = charBegin, charBegin
	chars[n+2], chars[n+3] = charEnd, charEnd
	types[0], types[n+1] = string(utils.CharBorder), string(utils.CharBorder)
	for i, r := range runes {
		norm := Normalize(r)
		chars[i+2] = string(norm)
		types[i+1] = string(utils.CharType(norm))
	}

	features := make([][]uint64, n)
	for i := 0; i < n; i++ {
		c := chars[i : i+5]
		t := types[i : i+3]
		fs := make(perceptron.Features, 0, 14)
		fs.Add("c-2", c[0])
		fs.Add("c-1", c[1])
		fs.Add("c0", c[2])
		fs.Add("c1", c[3])
		fs.Add("c2", c[4])
		fs.Add("c-2c-1", c[0], c[1])
		fs.Add("c-1c0", c[1], c[2])
		fs.Add("c0c1", c[2], c[3])
		fs.Add("c1c2", c[3], c[4])
		fs.Add("c-1c1", c[1], c[3])
		fs.Add("t-1", t[0])
		fs.Add("t0", t[1])
		fs.Add("t1", t[2])
		fs.Add("t-1t0t1", t[0], t[1], t[2])
		if c[1] == c[2] {
			fs.Add("dup-1", "1")
		}
		features[i] = fs
	}
	return features
}
