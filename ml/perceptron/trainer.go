package perceptron

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"

	"github.com/rs/zerolog"
)

type Algorithm string

const (
	AveragedPerceptron Algorithm = "ap"
	PassiveAggressive  Algorithm = "pa"
)

var ErrUnknownAlgorithm = errors.New("unknown training algorithm")

func ParseAlgorithm(s string) (Algorithm, error) {
	switch Algorithm(s) {
	case AveragedPerceptron, PassiveAggressive:
		return Algorithm(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownAlgorithm, s)
}

// Part is one feature row set contributing to the label of a structure.
type Part struct {
	Features []uint64
	Label    int
}

// Example is a training structure the model can decode and decompose.
type Example interface {
	Gold() []int
	// Parts lists the features scored for structure y.
	Parts(y []int) []Part
	// Chain reports whether consecutive labels of y score transitions.
	Chain() bool
}

// Decoder predicts the best structure of ex under the current weights.
type Decoder func(m *Model, ex Example) []int

// Sequence is a tagging example, one label per position.
type Sequence struct {
	Features [][]uint64
	Labels   []int
}

func (s *Sequence) Gold() []int {
	return s.Labels
}

func (s *Sequence) Parts(y []int) []Part {
	parts := make([]Part, len(y))
	for i, l := range y {
		parts[i] = Part{Features: s.Features[i], Label: l}
	}
	return parts
}

func (s *Sequence) Chain() bool {
	return true
}

// Classification is a sequence whose positions are independent.
type Classification struct {
	Sequence
}

func (c *Classification) Chain() bool {
	return false
}

type Trainer struct {
	Algorithm Algorithm
	Epochs    int
	// C bounds the passive aggressive step.
	C       float64
	Seed    int64
	Shuffle bool
	Decoder Decoder
	// Evaluate is called with the averaged model after every epoch.
	Evaluate func(epoch int, m *Model) float64
	Logger   zerolog.Logger
}

type weightKey struct {
	index      int
	transition bool
}

type averager struct {
	weightTotal []float64
	weightStamp []int
	transTotal  []float64
	transStamp  []int
}

func (a *averager) update(m *Model, k weightKey, delta float64, now int) {
	if k.transition {
		a.transTotal[k.index] += float64(now-a.transStamp[k.index]) * m.Transitions[k.index]
		a.transStamp[k.index] = now
		m.Transitions[k.index] += delta
		return
	}
	for len(a.weightTotal) < len(m.Weights) {
		a.weightTotal = append(a.weightTotal, 0)
		a.weightStamp = append(a.weightStamp, now)
	}
	a.weightTotal[k.index] += float64(now-a.weightStamp[k.index]) * m.Weights[k.index]
	a.weightStamp[k.index] = now
	m.Weights[k.index] += delta
}

// averaged returns a copy of m holding the averaged weights at time now.
func (a *averager) averaged(m *Model, now int) *Model {
	avg := &Model{
		Labels:      m.Labels,
		Index:       make(map[uint64]int32, len(m.Index)),
		Weights:     make([]float64, len(m.Weights)),
		Transitions: make([]float64, len(m.Transitions)),
		Meta:        m.Meta,
	}
	for f, row := range m.Index {
		avg.Index[f] = row
	}
	if now == 0 {
		copy(avg.Weights, m.Weights)
		copy(avg.Transitions, m.Transitions)
		avg.buildLabelIndex()
		return avg
	}
	for i, w := range m.Weights {
		total, stamp := 0.0, now
		if i < len(a.weightTotal) {
			total, stamp = a.weightTotal[i], a.weightStamp[i]
		}
		avg.Weights[i] = (total + float64(now-stamp)*w) / float64(now)
	}
	for i, w := range m.Transitions {
		avg.Transitions[i] = (a.transTotal[i] + float64(now-a.transStamp[i])*w) / float64(now)
	}
	if len(avg.Transitions) == 0 {
		avg.Transitions = nil
	}
	avg.buildLabelIndex()
	return avg
}

// Train fits m on examples and returns the averaged model.
func (t *Trainer) Train(ctx context.Context, m *Model, examples []Example) (*Model, error) {
	if t.Decoder == nil {
		return nil, errors.New("trainer has no decoder")
	}
	if t.Algorithm == "" {
		t.Algorithm = AveragedPerceptron
	}
	if _, err := ParseAlgorithm(string(t.Algorithm)); err != nil {
		return nil, err
	}
	if t.C <= 0 {
		t.C = 1
	}
	epochs := t.Epochs
	if epochs <= 0 {
		epochs = 10
	}

	avg := &averager{
		transTotal: make([]float64, len(m.Transitions)),
		transStamp: make([]int, len(m.Transitions)),
	}
	order := make([]int, len(examples))
	for i := range order {
		order[i] = i
	}
	rnd := rand.New(rand.NewSource(t.Seed))

	now := 0
	for epoch := 1; epoch <= epochs; epoch++ {
		if t.Shuffle {
			rnd.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })
		}
		errCount := 0
		for _, idx := range order {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			now++
			ex := examples[idx]
			gold := ex.Gold()
			pred := t.Decoder(m, ex)
			loss := hamming(gold, pred)
			if loss == 0 {
				continue
			}
			errCount++
			t.update(m, avg, ex, gold, pred, loss, now)
		}

		event := t.Logger.Info().
			Int("epoch", epoch).
			Int("errors", errCount).
			Int("examples", len(examples)).
			Int("features", m.NumFeatures())
		if t.Evaluate != nil {
			event = event.Float64("score", t.Evaluate(epoch, avg.averaged(m, now)))
		}
		event.Msg("Epoch finished")
	}
	return avg.averaged(m, now), nil
}

func (t *Trainer) update(m *Model, avg *averager, ex Example, gold, pred []int, loss int, now int) {
	n := m.NumLabels()
	diff := make(map[weightKey]float64)
	collect := func(y []int, sign float64) {
		for _, part := range ex.Parts(y) {
			for _, f := range part.Features {
				row := m.featureRow(f)
				diff[weightKey{index: row*n + part.Label}] += sign
			}
		}
		if ex.Chain() && m.HasTransitions() {
			prev := n
			for _, l := range y {
				diff[weightKey{index: prev*n + l, transition: true}] += sign
				prev = l
			}
		}
	}
	collect(gold, 1)
	collect(pred, -1)

	step := 1.0
	if t.Algorithm == PassiveAggressive {
		margin, norm := 0.0, 0.0
		for k, d := range diff {
			if k.transition {
				margin += d * m.Transitions[k.index]
			} else {
				margin += d * m.Weights[k.index]
			}
			norm += d * d
		}
		if norm == 0 {
			return
		}
		step = math.Min(t.C, (float64(loss)-margin)/norm)
		if step <= 0 {
			return
		}
	}
	for k, d := range diff {
		if d != 0 {
			avg.update(m, k, step*d, now)
		}
	}
}

func hamming(gold, pred []int) int {
	loss := 0
	for i := range gold {
		if i >= len(pred) || gold[i] != pred[i] {
			loss++
		}
	}
	return loss
}
