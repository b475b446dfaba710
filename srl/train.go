package srl

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"ltp.dev/ltpgo/ml/decode"
	"ltp.dev/ltpgo/ml/metrics"
	"ltp.dev/ltpgo/ml/perceptron"
	"ltp.dev/ltpgo/utils"
)

type GoldArgument struct {
	Role  string `json:"role"`
	Start int    `json:"start"`
	End   int    `json:"end"`
}

type GoldPredicate struct {
	Index     int            `json:"index"`
	Arguments []GoldArgument `json:"arguments"`
}

type Sample struct {
	Words      []string        `json:"words"`
	POS        []string        `json:"pos"`
	Predicates []GoldPredicate `json:"predicates"`
}

// ReadCorpus reads one JSON sample per line.
func ReadCorpus(r io.Reader) ([]Sample, error) {
	lines, err := utils.ReadLines(r)
	if err != nil {
		return nil, err
	}
	samples := make([]Sample, 0, len(lines))
	for lineNo, line := range lines {
		var s Sample
		if err := json.Unmarshal([]byte(line), &s); err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo+1, err)
		}
		if len(s.Words) != len(s.POS) {
			return nil, fmt.Errorf("line %d: %d words but %d tags", lineNo+1, len(s.Words), len(s.POS))
		}
		for _, p := range s.Predicates {
			if p.Index < 0 || p.Index >= len(s.Words) {
				return nil, fmt.Errorf("line %d: predicate %d out of range", lineNo+1, p.Index)
			}
			for _, a := range p.Arguments {
				if a.Start < 0 || a.End < a.Start || a.End >= len(s.Words) {
					return nil, fmt.Errorf("line %d: argument [%d, %d] out of range", lineNo+1, a.Start, a.End)
				}
			}
		}
		samples = append(samples, s)
	}
	return samples, nil
}

// BIO converts the arguments of a predicate into labels, one per word.
func BIO(n int, args []GoldArgument) []string {
	labels := make([]string, n)
	for i := range labels {
		labels[i] = decode.Outside
	}
	for _, a := range args {
		labels[a.Start] = "B-" + a.Role
		for i := a.Start + 1; i <= a.End; i++ {
			labels[i] = "I-" + a.Role
		}
	}
	return labels
}

type example struct {
	perceptron.Sequence
	predicate int
}

func collectLabels(samples []Sample) []string {
	labels := []string{decode.Outside}
	seen := map[string]bool{decode.Outside: true}
	for _, s := range samples {
		for _, p := range s.Predicates {
			for _, a := range p.Arguments {
				for _, l := range []string{"B-" + a.Role, "I-" + a.Role} {
					if !seen[l] {
						seen[l] = true
						labels = append(labels, l)
					}
				}
			}
		}
	}
	return labels
}

func Train(ctx context.Context, trainer *perceptron.Trainer, train, dev []Sample, predicateTags []string) (*perceptron.Model, error) {
	model := perceptron.NewModel(collectLabels(train), true)
	model.Meta["task"] = "srl"
	labeler, err := New(model, predicateTags)
	if err != nil {
		return nil, err
	}

	var examples []perceptron.Example
	for _, s := range train {
		for _, p := range s.Predicates {
			labels := BIO(len(s.Words), p.Arguments)
			ex := &example{predicate: p.Index}
			ex.Features = Features(s.Words, s.POS, p.Index)
			ex.Labels = make([]int, len(labels))
			for i, l := range labels {
				ex.Labels[i], _ = model.LabelID(l)
			}
			examples = append(examples, ex)
		}
	}

	trainer.Decoder = func(m *perceptron.Model, e perceptron.Example) []int {
		ex := e.(*example)
		return labeler.decode(m, ex.Features, ex.predicate)
	}
	if len(dev) > 0 {
		trainer.Evaluate = func(_ int, m *perceptron.Model) float64 {
			l, err := New(m, predicateTags)
			if err != nil {
				return 0
			}
			return Evaluate(l, dev).F1()
		}
	}
	return trainer.Train(ctx, model, examples)
}

// Evaluate scores labeled arguments of the gold predicates.
func Evaluate(l *Labeler, gold []Sample) metrics.Counter {
	var total metrics.Counter
	for _, s := range gold {
		for _, p := range s.Predicates {
			predicted := decode.GetEntities(l.ArgumentLabels(s.Words, s.POS, p.Index), decode.SchemeBIO)
			total.Add(metrics.CountSets(predicted, decode.GetEntities(BIO(len(s.Words), p.Arguments), decode.SchemeBIO)))
		}
	}
	return total
}
