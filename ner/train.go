package ner

import (
	"context"
	"fmt"
	"io"
	"strings"

	"ltp.dev/ltpgo/ml/decode"
	"ltp.dev/ltpgo/ml/metrics"
	"ltp.dev/ltpgo/ml/perceptron"
	"ltp.dev/ltpgo/utils"
)

type Sample struct {
	Words  []string
	POS    []string
	Labels []string
}

// ReadCorpus reads lines of word/pos/label tokens split at the last two slashes.
func ReadCorpus(r io.Reader) ([]Sample, error) {
	lines, err := utils.ReadLines(r)
	if err != nil {
		return nil, err
	}
	samples := make([]Sample, 0, len(lines))
	for lineNo, line := range lines {
		var s Sample
		for _, token := range strings.Fields(line) {
			labelIdx := strings.LastIndexByte(token, '/')
			if labelIdx <= 0 {
				return nil, fmt.Errorf("line %d: bad token %q", lineNo+1, token)
			}
			posIdx := strings.LastIndexByte(token[:labelIdx], '/')
			if posIdx <= 0 || labelIdx == len(token)-1 || posIdx == labelIdx-1 {
				return nil, fmt.Errorf("line %d: bad token %q", lineNo+1, token)
			}
			s.Words = append(s.Words, token[:posIdx])
			s.POS = append(s.POS, token[posIdx+1:labelIdx])
			s.Labels = append(s.Labels, token[labelIdx+1:])
		}
		if len(s.Words) > 0 {
			samples = append(samples, s)
		}
	}
	return samples, nil
}

func collectLabels(samples []Sample) []string {
	labels := []string{decode.Outside}
	seen := map[string]bool{decode.Outside: true}
	for _, s := range samples {
		for _, l := range s.Labels {
			if !seen[l] {
				seen[l] = true
				labels = append(labels, l)
			}
		}
	}
	return labels
}

func Train(ctx context.Context, trainer *perceptron.Trainer, train, dev []Sample) (*perceptron.Model, error) {
	model := perceptron.NewModel(collectLabels(train), true)
	model.Meta["task"] = "ner"
	mask, err := decode.TransitionMask(model.Labels, decode.SchemeBIES)
	if err != nil {
		return nil, err
	}

	examples := make([]perceptron.Example, 0, len(train))
	for _, s := range train {
		seq := &perceptron.Sequence{Features: Features(s.Words, s.POS), Labels: make([]int, len(s.Labels))}
		for i, l := range s.Labels {
			seq.Labels[i], _ = model.LabelID(l)
		}
		examples = append(examples, seq)
	}

	trainer.Decoder = func(m *perceptron.Model, ex perceptron.Example) []int {
		seq := ex.(*perceptron.Sequence)
		return decode.Viterbi(m.Emissions(seq.Features), m.TransitionMatrix(), mask, nil)
	}
	if len(dev) > 0 {
		trainer.Evaluate = func(_ int, m *perceptron.Model) float64 {
			rec, err := New(m)
			if err != nil {
				return 0
			}
			return Evaluate(rec, dev).F1()
		}
	}
	return trainer.Train(ctx, model, examples)
}

// Evaluate scores exact entity matches.
func Evaluate(rec *Recognizer, gold []Sample) metrics.Counter {
	var total metrics.Counter
	for _, s := range gold {
		predicted := decode.GetEntities(rec.Labels(s.Words, s.POS), decode.SchemeBIES)
		total.Add(metrics.CountSets(predicted, decode.GetEntities(s.Labels, decode.SchemeBIES)))
	}
	return total
}
