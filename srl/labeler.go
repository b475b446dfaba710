package srl

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"ltp.dev/ltpgo/ml/decode"
	"ltp.dev/ltpgo/ml/perceptron"
	"ltp.dev/ltpgo/types"
)

var (
	DefaultPredicateTags = []string{"v"}

	ErrBadModel = errors.New("model is not a srl model")
)

const (
	padBegin = "\x02"
	padEnd   = "\x03"
)

func at(items []string, i int) string {
	switch {
	case i < 0:
		return padBegin
	case i >= len(items):
		return padEnd
	}
	return items[i]
}

func position(i, predicate int) string {
	switch {
	case i < predicate:
		return "before"
	case i > predicate:
		return "after"
	}
	return "self"
}

func distance(i, predicate int) string {
	d := i - predicate
	if d < 0 {
		d = -d
	}
	switch {
	case d <= 4:
		return strconv.Itoa(d)
	case d <= 8:
		return "5-8"
	}
	return "9+"
}

// Features builds the predicate relative features of every word.
func Features(words, tags []string, predicate int) [][]uint64 {
	pw, pp := words[predicate], tags[predicate]
	features := make([][]uint64, len(words))
	for i := range words {
		pos, dist := position(i, predicate), distance(i, predicate)
		w, p := words[i], tags[i]

		fs := make(perceptron.Features, 0, 16)
		fs.Add("w0", w)
		fs.Add("p0", p)
		fs.Add("w-1", at(words, i-1))
		fs.Add("w1", at(words, i+1))
		fs.Add("p-1p0", at(tags, i-1), p)
		fs.Add("p0p1", p, at(tags, i+1))
		fs.Add("pred", pw)
		fs.Add("predpos", pp)
		fs.Add("position", pos)
		fs.Add("positiondist", pos, dist)
		fs.Add("w0position", w, pos)
		fs.Add("p0position", p, pos)
		fs.Add("p0pred", p, pw)
		fs.Add("w0pred", w, pw)
		fs.Add("p0predposdist", p, pp, pos, dist)
		fs.Add("pred-1pred1", at(words, predicate-1), at(words, predicate+1))
		features[i] = fs
	}
	return features
}

type Labeler struct {
	model         *perceptron.Model
	mask          *decode.Mask
	outside       int
	predicateTags map[string]bool
}

func New(model *perceptron.Model, predicateTags []string) (*Labeler, error) {
	outside, ok := model.LabelID(decode.Outside)
	if !ok {
		return nil, fmt.Errorf("%w: missing label %s", ErrBadModel, decode.Outside)
	}
	mask, err := decode.TransitionMask(model.Labels, decode.SchemeBIO)
	if err != nil {
		return nil, err
	}
	if len(predicateTags) == 0 {
		predicateTags = DefaultPredicateTags
	}
	tags := make(map[string]bool, len(predicateTags))
	for _, t := range predicateTags {
		tags[t] = true
	}
	return &Labeler{model: model, mask: mask, outside: outside, predicateTags: tags}, nil
}

func Load(path string, predicateTags []string) (*Labeler, error) {
	model, err := perceptron.Load(path)
	if err != nil {
		return nil, err
	}
	return New(model, predicateTags)
}

func (l *Labeler) Model() *perceptron.Model {
	return l.model
}

// Predicates returns the indexes of words whose tag marks a predicate.
func (l *Labeler) Predicates(tags []string) []int {
	var idx []int
	for i, t := range tags {
		if l.predicateTags[t] {
			idx = append(idx, i)
		}
	}
	return idx
}

// ArgumentLabels tags the words around predicate with BIO roles; the predicate itself is O.
func (l *Labeler) ArgumentLabels(words, tags []string, predicate int) []string {
	return l.model.LabelsOf(l.decode(l.model, Features(words, tags, predicate), predicate))
}

func (l *Labeler) decode(m *perceptron.Model, features [][]uint64, predicate int) []int {
	allowed := make([][]bool, len(features))
	row := make([]bool, m.NumLabels())
	row[l.outside] = true
	allowed[predicate] = row
	return decode.Viterbi(m.Emissions(features), m.TransitionMatrix(), l.mask, allowed)
}

// Label finds every predicate and its arguments.
func (l *Labeler) Label(words, tags []string) []types.Predicate {
	predicates := []types.Predicate{}
	for _, p := range l.Predicates(tags) {
		labels := l.ArgumentLabels(words, tags, p)
		predicates = append(predicates, types.Predicate{
			Index:     p,
			Predicate: words[p],
			Arguments: Arguments(words, labels),
		})
	}
	return predicates
}

func Arguments(words, labels []string) []types.Argument {
	chunks := decode.GetEntities(labels, decode.SchemeBIO)
	args := make([]types.Argument, 0, len(chunks))
	for _, c := range chunks {
		args = append(args, types.Argument{
			Role:  c.Label,
			Text:  strings.Join(words[c.Start:c.End+1], ""),
			Start: c.Start,
			End:   c.End,
		})
	}
	return args
}
