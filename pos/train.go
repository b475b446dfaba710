package pos

import (
	"context"
	"fmt"
	"io"
	"strings"

	"ltp.dev/ltpgo/ml/metrics"
	"ltp.dev/ltpgo/ml/perceptron"
	"ltp.dev/ltpgo/utils"
)

type Sample struct {
	Words []string
	Tags  []string
}

// ReadCorpus reads lines of word/tag tokens. The tag follows the last slash.
func ReadCorpus(r io.Reader) ([]Sample, error) {
	lines, err := utils.ReadLines(r)
	if err != nil {
		return nil, err
	}
	samples := make([]Sample, 0, len(lines))
	for lineNo, line := range lines {
		var sample Sample
		for _, token := range strings.Fields(line) {
			idx := strings.LastIndexByte(token, '/')
			if idx <= 0 || idx == len(token)-1 {
				return nil, fmt.Errorf("line %d: bad token %q", lineNo+1, token)
			}
			sample.Words = append(sample.Words, token[:idx])
			sample.Tags = append(sample.Tags, token[idx+1:])
		}
		if len(sample.Words) > 0 {
			samples = append(samples, sample)
		}
	}
	return samples, nil
}

// CollectTags lists the distinct tags of samples in first seen order.
func CollectTags(samples []Sample) []string {
	seen := make(map[string]bool)
	var tags []string
	for _, s := range samples {
		for _, tag := range s.Tags {
			if !seen[tag] {
				seen[tag] = true
				tags = append(tags, tag)
			}
		}
	}
	return tags
}

type example struct {
	words  []string
	static [][]uint64
	gold   []int
	model  *perceptron.Model
	gen    ContextGenerator
}

func (ex *example) Gold() []int {
	return ex.gold
}

func (ex *example) Parts(y []int) []perceptron.Part {
	tags := ex.model.LabelsOf(y)
	parts := make([]perceptron.Part, len(y))
	for i, l := range y {
		parts[i] = perceptron.Part{Features: ex.gen.GetContext(i, ex.words, ex.static, tags), Label: l}
	}
	return parts
}

func (ex *example) Chain() bool {
	return false
}

// Train fits a tagging model decoded with a beam of beamSize.
func Train(ctx context.Context, trainer *perceptron.Trainer, train, dev []Sample, beamSize int) (*perceptron.Model, error) {
	model := perceptron.NewModel(CollectTags(train), false)
	model.Meta["task"] = "pos"
	gen := NewContextGenerator()
	validator := NewSequenceValidator(nil)

	examples := make([]perceptron.Example, 0, len(train))
	for _, s := range train {
		ex := &example{words: s.Words, static: WordFeatures(s.Words), model: model, gen: gen}
		ex.gold = make([]int, len(s.Tags))
		for i, tag := range s.Tags {
			ex.gold[i], _ = model.LabelID(tag)
		}
		examples = append(examples, ex)
	}

	trainer.Decoder = func(m *perceptron.Model, e perceptron.Example) []int {
		ex := e.(*example)
		seq, ok := NewBeamSearch(m, beamSize)(ex.words, ex.static, gen, validator)
		if !ok || len(seq.Labels) != len(ex.words) {
			return make([]int, len(ex.words))
		}
		return seq.Labels
	}
	if len(dev) > 0 {
		trainer.Evaluate = func(_ int, m *perceptron.Model) float64 {
			tagger, err := NewTagger(m, WithBeamSize(beamSize))
			if err != nil {
				return 0
			}
			return Evaluate(tagger, dev).Precision()
		}
	}
	return trainer.Train(ctx, model, examples)
}

// Evaluate returns tag accuracy as a counter.
func Evaluate(tagger *Tagger, gold []Sample) metrics.Counter {
	var total metrics.Counter
	for _, s := range gold {
		total.Add(metrics.Accuracy(tagger.Tag(s.Words), s.Tags))
	}
	return total
}
