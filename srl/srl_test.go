package srl

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"ltp.dev/ltpgo/ml/perceptron"
	"ltp.dev/ltpgo/types"
)

const corpus = `{"words":["他","叫","汤姆","去","拿","外衣","。"],"pos":["r","v","nh","v","v","n","wp"],"predicates":[{"index":1,"arguments":[{"role":"A0","start":0,"end":0},{"role":"A1","start":2,"end":2},{"role":"A2","start":3,"end":5}]},{"index":4,"arguments":[{"role":"A0","start":2,"end":2},{"role":"A1","start":5,"end":5}]}]}
{"words":["汤姆","生病","了"],"pos":["nh","v","u"],"predicates":[{"index":1,"arguments":[{"role":"A0","start":0,"end":0}]}]}
`

func TestReadCorpus(t *testing.T) {
	samples, err := ReadCorpus(strings.NewReader(corpus))
	require.NoError(t, err)
	require.Len(t, samples, 2)
	require.Equal(t, 4, samples[0].Predicates[1].Index)

	_, err = ReadCorpus(strings.NewReader(`{"words":["a"],"pos":[]}`))
	require.Error(t, err)
	_, err = ReadCorpus(strings.NewReader(`{"words":["a"],"pos":["v"],"predicates":[{"index":0,"arguments":[{"role":"A0","start":0,"end":3}]}]}`))
	require.Error(t, err)
	_, err = ReadCorpus(strings.NewReader(`not json`))
	require.Error(t, err)
}

func TestBIO(t *testing.T) {
	labels := BIO(5, []GoldArgument{{Role: "A0", Start: 0, End: 1}, {Role: "A1", Start: 3, End: 3}})
	require.Equal(t, []string{"B-A0", "I-A0", "O", "B-A1", "O"}, labels)

	args := Arguments([]string{"他", "们", "去", "北京", "了"}, labels)
	require.Equal(t, []types.Argument{
		{Role: "A0", Text: "他们", Start: 0, End: 1},
		{Role: "A1", Text: "北京", Start: 3, End: 3},
	}, args)
}

func TestTrainAndLabel(t *testing.T) {
	samples, err := ReadCorpus(strings.NewReader(corpus))
	require.NoError(t, err)

	trainer := &perceptron.Trainer{Epochs: 10, Logger: zerolog.Nop()}
	model, err := Train(context.Background(), trainer, samples, samples, nil)
	require.NoError(t, err)

	labeler, err := New(model, nil)
	require.NoError(t, err)
	require.Greater(t, Evaluate(labeler, samples).F1(), 0.8)

	s := samples[0]
	predicates := labeler.Label(s.Words, s.POS)
	require.Len(t, predicates, 3)
	require.Equal(t, 1, predicates[0].Index)
	require.Equal(t, "叫", predicates[0].Predicate)
	for _, p := range predicates {
		for _, a := range p.Arguments {
			require.False(t, a.Start <= p.Index && p.Index <= a.End, "argument covers its predicate")
		}
	}

	require.Equal(t, []types.Predicate{}, labeler.Label(nil, nil))
}

func TestPredicateTags(t *testing.T) {
	model := perceptron.NewModel([]string{"O", "B-A0", "I-A0"}, true)
	labeler, err := New(model, []string{"v", "vn"})
	require.NoError(t, err)
	require.Equal(t, []int{0, 2}, labeler.Predicates([]string{"v", "n", "vn"}))

	_, err = New(perceptron.NewModel([]string{"B-A0"}, true), nil)
	require.True(t, errors.Is(err, ErrBadModel))
}
