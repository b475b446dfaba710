package cws

import (
	"context"
	"io"
	"strings"

	"ltp.dev/ltpgo/ml/decode"
	"ltp.dev/ltpgo/ml/metrics"
	"ltp.dev/ltpgo/ml/perceptron"
	"ltp.dev/ltpgo/utils"
)

// ReadCorpus reads one sentence per line, words separated by whitespace.
func ReadCorpus(r io.Reader) ([][]string, error) {
	lines, err := utils.ReadLines(r)
	if err != nil {
		return nil, err
	}
	corpus := make([][]string, 0, len(lines))
	for _, line := range lines {
		if words := strings.Fields(line); len(words) > 0 {
			corpus = append(corpus, words)
		}
	}
	return corpus, nil
}

func Examples(model *perceptron.Model, corpus [][]string) []perceptron.Example {
	examples := make([]perceptron.Example, 0, len(corpus))
	for _, words := range corpus {
		runes := []rune(strings.Join(words, ""))
		tags := Tags(words)
		seq := &perceptron.Sequence{Features: Features(runes), Labels: make([]int, len(tags))}
		for i, tag := range tags {
			seq.Labels[i], _ = model.LabelID(tag)
		}
		examples = append(examples, seq)
	}
	return examples
}

func sequenceDecoder(mask *decode.Mask) perceptron.Decoder {
	return func(m *perceptron.Model, ex perceptron.Example) []int {
		seq := ex.(*perceptron.Sequence)
		return decode.Viterbi(m.Emissions(seq.Features), m.TransitionMatrix(), mask, nil)
	}
}

// Train fits a segmentation model; dev may be empty.
func Train(ctx context.Context, trainer *perceptron.Trainer, train, dev [][]string) (*perceptron.Model, error) {
	model := perceptron.NewModel(Labels, true)
	model.Meta["task"] = "cws"
	mask, err := decode.TransitionMask(Labels, decode.SchemeBMES)
	if err != nil {
		return nil, err
	}
	trainer.Decoder = sequenceDecoder(mask)
	if len(dev) > 0 {
		trainer.Evaluate = func(_ int, m *perceptron.Model) float64 {
			seg, err := New(m, false)
			if err != nil {
				return 0
			}
			return Evaluate(seg, dev).F1()
		}
	}
	return trainer.Train(ctx, model, Examples(model, train))
}

// Evaluate scores segmentation by word spans.
func Evaluate(seg *Segmenter, gold [][]string) metrics.Counter {
	var total metrics.Counter
	for _, words := range gold {
		predicted := seg.Segment(strings.Join(words, ""))
		total.Add(metrics.CountSets(wordSpans(predicted), wordSpans(words)))
	}
	return total
}

func wordSpans(words []string) [][2]int {
	spans := make([][2]int, len(words))
	offset := 0
	for i, w := range words {
		n := len([]rune(w))
		spans[i] = [2]int{offset, offset + n}
		offset += n
	}
	return spans
}
