package parser

import (
	"errors"
	"fmt"
	"math"

	"ltp.dev/ltpgo/ml/decode"
	"ltp.dev/ltpgo/ml/perceptron"
	"ltp.dev/ltpgo/types"
)

const arcLabel = "arc"

var (
	ErrBadModel    = errors.New("model is not a parser model")
	ErrUnknownMode = errors.New("unknown semantic graph mode")
)

type Mode string

const (
	ModeGraph Mode = types.SDPModeGraph
	ModeTree  Mode = types.SDPModeTree
	ModeMix   Mode = types.SDPModeMix
)

func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "":
		return ModeGraph, nil
	case ModeGraph, ModeTree, ModeMix:
		return Mode(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMode, s)
}

// Model pairs the arc scorer with the relation labeler.
type Model struct {
	Arcs      *perceptron.Model `json:"arcs"`
	Relations *perceptron.Model `json:"relations"`
}

func (m *Model) Validate() error {
	if m.Arcs == nil || m.Relations == nil {
		return fmt.Errorf("%w: missing arc or relation model", ErrBadModel)
	}
	if err := m.Arcs.Validate(); err != nil {
		return err
	}
	if err := m.Relations.Validate(); err != nil {
		return err
	}
	if m.Arcs.NumLabels() != 1 {
		return fmt.Errorf("%w: arc model has %d labels", ErrBadModel, m.Arcs.NumLabels())
	}
	return nil
}

func (m *Model) Save(path string) error {
	return perceptron.SaveJSON(path, m)
}

func LoadModel(path string) (*Model, error) {
	var m Model
	if err := perceptron.LoadJSON(path, &m); err != nil {
		return nil, err
	}
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return &m, nil
}

type Parser struct {
	model *Model
}

func New(model *Model) (*Parser, error) {
	if err := model.Validate(); err != nil {
		return nil, err
	}
	return &Parser{model: model}, nil
}

func Load(path string) (*Parser, error) {
	model, err := LoadModel(path)
	if err != nil {
		return nil, err
	}
	return New(model)
}

func (p *Parser) Model() *Model {
	return p.model
}

// scoreArcs returns scores[h][d] over root-prefixed positions, -Inf where no arc may go.
func scoreArcs(arcs *perceptron.Model, features [][][]uint64) [][]float64 {
	n := len(features)
	scores := make([][]float64, n)
	for h := range scores {
		scores[h] = make([]float64, n)
		for d := range scores[h] {
			if features[h][d] == nil {
				scores[h][d] = math.Inf(-1)
				continue
			}
			scores[h][d] = arcs.ScoreLabel(features[h][d], 0)
		}
	}
	return scores
}

func (p *Parser) relation(feats []uint64) string {
	return p.model.Relations.Label(decode.Argmax(p.model.Relations.Score(feats), nil))
}

// Parse builds a dependency tree with one root child.
func (p *Parser) Parse(words, tags []string) types.Dependency {
	dep := types.Dependency{Head: []int{}, Label: []string{}}
	if len(words) == 0 {
		return dep
	}
	w, t := withRoot(words, tags)
	features := ArcFeatures(w, t)
	heads := decode.Eisner(scoreArcs(p.model.Arcs, features))
	for d := 1; d < len(heads); d++ {
		dep.Head = append(dep.Head, heads[d])
		dep.Label = append(dep.Label, p.relation(features[heads[d]][d]))
	}
	return dep
}

// ParseGraph builds a semantic graph in the given mode. Arcs are ordered by
// dependent then head.
func (p *Parser) ParseGraph(words, tags []string, mode Mode) []types.SemanticArc {
	arcs := []types.SemanticArc{}
	if len(words) == 0 {
		return arcs
	}
	w, t := withRoot(words, tags)
	features := ArcFeatures(w, t)
	scores := scoreArcs(p.model.Arcs, features)
	graph := decodeGraph(scores, mode)

	for d := 1; d < len(graph); d++ {
		for h := range graph[d] {
			if graph[d][h] {
				arcs = append(arcs, types.SemanticArc{
					Dependent: d,
					Head:      h,
					Label:     p.relation(features[h][d]),
				})
			}
		}
	}
	return arcs
}

// decodeGraph returns graph[d][h] for the selected arcs.
func decodeGraph(scores [][]float64, mode Mode) [][]bool {
	n := len(scores)
	graph := make([][]bool, n)
	for d := range graph {
		graph[d] = make([]bool, n)
	}

	if mode == ModeTree || mode == ModeMix {
		heads := decode.Eisner(scores)
		for d := 1; d < n; d++ {
			graph[d][heads[d]] = true
		}
	}
	if mode == ModeTree {
		return graph
	}

	for d := 1; d < n; d++ {
		best, found := 0, false
		for h := 0; h < n; h++ {
			if h == d {
				continue
			}
			if scores[h][d] > 0 {
				graph[d][h] = true
				found = true
			}
			if scores[h][d] > scores[best][d] {
				best = h
			}
		}
		if !found && mode == ModeGraph {
			graph[d][best] = true
		}
	}
	return graph
}
