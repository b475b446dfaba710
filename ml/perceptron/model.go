package perceptron

import (
	"compress/gzip"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strings"
)

var ErrLabelMismatch = errors.New("label count mismatch")

// Model is a hashed-feature linear model with optional first order transitions.
// Weights holds one row of len(Labels) scores per feature. Transitions holds
// (len(Labels)+1) rows, the last row scores the sentence start.
type Model struct {
	Labels      []string          `json:"labels"`
	Index       map[uint64]int32  `json:"features"`
	Weights     []float64         `json:"weights"`
	Transitions []float64         `json:"transitions,omitempty"`
	Meta        map[string]string `json:"meta,omitempty"`

	labelIndex map[string]int
}

func NewModel(labels []string, withTransitions bool) *Model {
	m := &Model{
		Labels: append([]string(nil), labels...),
		Index:  make(map[uint64]int32),
		Meta:   make(map[string]string),
	}
	if withTransitions {
		m.Transitions = make([]float64, (len(labels)+1)*len(labels))
	}
	m.buildLabelIndex()
	return m
}

func (m *Model) buildLabelIndex() {
	m.labelIndex = make(map[string]int, len(m.Labels))
	for i, l := range m.Labels {
		m.labelIndex[l] = i
	}
}

func (m *Model) NumLabels() int {
	return len(m.Labels)
}

func (m *Model) NumFeatures() int {
	return len(m.Index)
}

func (m *Model) HasTransitions() bool {
	return len(m.Transitions) > 0
}

// LabelID returns the index of label, false when the model does not know it.
func (m *Model) LabelID(label string) (int, bool) {
	id, ok := m.labelIndex[label]
	return id, ok
}

func (m *Model) Label(id int) string {
	return m.Labels[id]
}

func (m *Model) LabelsOf(ids []int) []string {
	res := make([]string, len(ids))
	for i, id := range ids {
		res[i] = m.Labels[id]
	}
	return res
}

// Score sums the rows of the known features.
func (m *Model) Score(feats []uint64) []float64 {
	n := len(m.Labels)
	scores := make([]float64, n)
	for _, f := range feats {
		row, ok := m.Index[f]
		if !ok {
			continue
		}
		w := m.Weights[int(row)*n : int(row+1)*n]
		for l := range scores {
			scores[l] += w[l]
		}
	}
	return scores
}

// ScoreLabel is Score restricted to one label.
func (m *Model) ScoreLabel(feats []uint64, label int) float64 {
	n := len(m.Labels)
	s := 0.0
	for _, f := range feats {
		if row, ok := m.Index[f]; ok {
			s += m.Weights[int(row)*n+label]
		}
	}
	return s
}

func (m *Model) Emissions(features [][]uint64) [][]float64 {
	res := make([][]float64, len(features))
	for i, feats := range features {
		res[i] = m.Score(feats)
	}
	return res
}

// Transition scores prev -> cur; prev < 0 is the sentence start.
func (m *Model) Transition(prev, cur int) float64 {
	if !m.HasTransitions() {
		return 0
	}
	n := len(m.Labels)
	if prev < 0 {
		prev = n
	}
	return m.Transitions[prev*n+cur]
}

// TransitionMatrix returns the transitions as rows, the last row being the start.
func (m *Model) TransitionMatrix() [][]float64 {
	if !m.HasTransitions() {
		return nil
	}
	n := len(m.Labels)
	res := make([][]float64, n+1)
	for i := range res {
		res[i] = m.Transitions[i*n : (i+1)*n]
	}
	return res
}

// featureRow returns the row of f, allocating it when missing.
func (m *Model) featureRow(f uint64) int {
	if row, ok := m.Index[f]; ok {
		return int(row)
	}
	row := len(m.Index)
	m.Index[f] = int32(row)
	m.Weights = append(m.Weights, make([]float64, len(m.Labels))...)
	return row
}

// Compress drops feature rows whose largest absolute weight is below threshold.
func (m *Model) Compress(threshold float64) int {
	n := len(m.Labels)
	index := make(map[uint64]int32, len(m.Index))
	weights := make([]float64, 0, len(m.Weights))
	dropped := 0
	for f, row := range m.Index {
		w := m.Weights[int(row)*n : int(row+1)*n]
		keep := false
		for _, v := range w {
			if math.Abs(v) >= threshold && v != 0 {
				keep = true
				break
			}
		}
		if !keep {
			dropped++
			continue
		}
		index[f] = int32(len(index))
		weights = append(weights, w...)
	}
	m.Index = index
	m.Weights = weights
	return dropped
}

// Validate checks the shape of a decoded model and indexes its labels.
func (m *Model) Validate() error {
	if m.Index == nil {
		m.Index = make(map[uint64]int32)
	}
	n := len(m.Labels)
	if n == 0 || len(m.Weights) != len(m.Index)*n {
		return fmt.Errorf("%w: %d labels, %d features, %d weights", ErrLabelMismatch, n, len(m.Index), len(m.Weights))
	}
	if len(m.Transitions) > 0 && len(m.Transitions) != (n+1)*n {
		return fmt.Errorf("%w: %d transitions for %d labels", ErrLabelMismatch, len(m.Transitions), n)
	}
	m.buildLabelIndex()
	return nil
}

func (m *Model) Write(w io.Writer) error {
	return json.NewEncoder(w).Encode(m)
}

func Read(r io.Reader) (*Model, error) {
	var m Model
	if err := json.NewDecoder(r).Decode(&m); err != nil {
		return nil, err
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Save writes the model as JSON, gzip compressed when path ends with .gz.
func (m *Model) Save(path string) error {
	return SaveJSON(path, m)
}

func Load(path string) (*Model, error) {
	var m Model
	if err := LoadJSON(path, &m); err != nil {
		return nil, err
	}
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return &m, nil
}

// SaveJSON encodes v into path, gzip compressed when path ends with .gz.
func SaveJSON(path string, v interface{}) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	if !strings.HasSuffix(path, ".gz") {
		return json.NewEncoder(f).Encode(v)
	}
	zw := gzip.NewWriter(f)
	if err := json.NewEncoder(zw).Encode(v); err != nil {
		return err
	}
	return zw.Close()
}

// LoadJSON decodes path into v, reading gzip when path ends with .gz.
func LoadJSON(path string, v interface{}) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		zr, err := gzip.NewReader(f)
		if err != nil {
			return err
		}
		defer zr.Close()
		r = zr
	}
	if err := json.NewDecoder(r).Decode(v); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}
