package parser

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"ltp.dev/ltpgo/ml/decode"
	"ltp.dev/ltpgo/ml/metrics"
	"ltp.dev/ltpgo/ml/perceptron"
	"ltp.dev/ltpgo/types"
	"ltp.dev/ltpgo/utils"
)

const (
	colForm   = 1
	colPOS    = 4
	colHead   = 6
	colRel    = 7
	colDeps   = 8
	minFields = 8
)

// Sentence is a gold annotated sentence. Heads are 1-based with 0 as root.
type Sentence struct {
	Words     []string
	POS       []string
	Heads     []int
	Relations []string
	Arcs      []types.SemanticArc
}

// ReadCoNLL reads CoNLL-X blocks. A ninth column of head:label pairs joined
// by | fills the semantic arcs, otherwise HEAD and DEPREL do.
func ReadCoNLL(r io.Reader) ([]Sentence, error) {
	blocks, err := utils.ReadBlocks(r)
	if err != nil {
		return nil, err
	}
	sentences := make([]Sentence, 0, len(blocks))
	for b, block := range blocks {
		var s Sentence
		for _, line := range block {
			if strings.HasPrefix(line, "#") {
				continue
			}
			fields := strings.Split(line, "\t")
			if len(fields) < minFields {
				fields = strings.Fields(line)
			}
			if len(fields) < minFields {
				return nil, fmt.Errorf("sentence %d: expected %d columns in %q", b+1, minFields, line)
			}
			dependent := len(s.Words) + 1
			head, err := strconv.Atoi(fields[colHead])
			if err != nil {
				return nil, fmt.Errorf("sentence %d: bad head %q", b+1, fields[colHead])
			}
			s.Words = append(s.Words, fields[colForm])
			s.POS = append(s.POS, fields[colPOS])
			s.Heads = append(s.Heads, head)
			s.Relations = append(s.Relations, fields[colRel])

			if len(fields) > colDeps && fields[colDeps] != "_" {
				for _, pair := range strings.Split(fields[colDeps], "|") {
					idx := strings.IndexByte(pair, ':')
					if idx <= 0 {
						return nil, fmt.Errorf("sentence %d: bad deps %q", b+1, pair)
					}
					h, err := strconv.Atoi(pair[:idx])
					if err != nil {
						return nil, fmt.Errorf("sentence %d: bad deps %q", b+1, pair)
					}
					s.Arcs = append(s.Arcs, types.SemanticArc{Dependent: dependent, Head: h, Label: pair[idx+1:]})
				}
			} else {
				s.Arcs = append(s.Arcs, types.SemanticArc{Dependent: dependent, Head: head, Label: fields[colRel]})
			}
		}
		for _, h := range s.Heads {
			if h < 0 || h > len(s.Words) {
				return nil, fmt.Errorf("sentence %d: head %d out of range", b+1, h)
			}
		}
		for _, arc := range s.Arcs {
			if arc.Head < 0 || arc.Head > len(s.Words) || arc.Head == arc.Dependent {
				return nil, fmt.Errorf("sentence %d: arc %d -> %d out of range", b+1, arc.Head, arc.Dependent)
			}
		}
		if len(s.Words) > 0 {
			sentences = append(sentences, s)
		}
	}
	return sentences, nil
}

type treeExample struct {
	features [][][]uint64
	gold     []int
}

func (ex *treeExample) Gold() []int {
	return ex.gold
}

func (ex *treeExample) Parts(heads []int) []perceptron.Part {
	parts := make([]perceptron.Part, 0, len(heads)-1)
	for d := 1; d < len(heads); d++ {
		parts = append(parts, perceptron.Part{Features: ex.features[heads[d]][d]})
	}
	return parts
}

func (ex *treeExample) Chain() bool {
	return false
}

// graphExample encodes a graph as a flat indicator vector over d*n+h.
type graphExample struct {
	features [][][]uint64
	gold     []int
}

func (ex *graphExample) Gold() []int {
	return ex.gold
}

func (ex *graphExample) Parts(y []int) []perceptron.Part {
	n := len(ex.features)
	var parts []perceptron.Part
	for k, v := range y {
		if v == 1 {
			parts = append(parts, perceptron.Part{Features: ex.features[k%n][k/n]})
		}
	}
	return parts
}

func (ex *graphExample) Chain() bool {
	return false
}

func flattenGraph(graph [][]bool) []int {
	n := len(graph)
	flat := make([]int, n*n)
	for d := range graph {
		for h, ok := range graph[d] {
			if ok {
				flat[d*n+h] = 1
			}
		}
	}
	return flat
}

func collectRelations(sentences []Sentence, semantic bool) []string {
	seen := make(map[string]bool)
	var labels []string
	add := func(l string) {
		if !seen[l] {
			seen[l] = true
			labels = append(labels, l)
		}
	}
	for _, s := range sentences {
		if semantic {
			for _, arc := range s.Arcs {
				add(arc.Label)
			}
			continue
		}
		for _, rel := range s.Relations {
			add(rel)
		}
	}
	return labels
}

// trainRelations fits the labeler on gold arcs.
func trainRelations(ctx context.Context, trainer *perceptron.Trainer, sentences []Sentence, semantic bool) (*perceptron.Model, error) {
	model := perceptron.NewModel(collectRelations(sentences, semantic), false)
	examples := make([]perceptron.Example, 0, len(sentences))
	for _, s := range sentences {
		w, t := withRoot(s.Words, s.POS)
		ex := &perceptron.Classification{}
		addArc := func(h, d int, label string) {
			id, _ := model.LabelID(label)
			ex.Features = append(ex.Features, arcFeatures(w, t, h, d))
			ex.Labels = append(ex.Labels, id)
		}
		if semantic {
			for _, arc := range s.Arcs {
				addArc(arc.Head, arc.Dependent, arc.Label)
			}
		} else {
			for i, h := range s.Heads {
				addArc(h, i+1, s.Relations[i])
			}
		}
		examples = append(examples, ex)
	}

	relTrainer := *trainer
	relTrainer.Evaluate = nil
	relTrainer.Decoder = func(m *perceptron.Model, e perceptron.Example) []int {
		return decode.Greedy(m.Emissions(e.(*perceptron.Classification).Features), nil)
	}
	return relTrainer.Train(ctx, model, examples)
}

// TrainDependency fits a tree parser.
func TrainDependency(ctx context.Context, trainer *perceptron.Trainer, train, dev []Sentence) (*Model, error) {
	arcs := perceptron.NewModel([]string{arcLabel}, false)
	arcs.Meta["task"] = "dep"

	examples := make([]perceptron.Example, 0, len(train))
	for _, s := range train {
		w, t := withRoot(s.Words, s.POS)
		gold := append([]int{-1}, s.Heads...)
		examples = append(examples, &treeExample{features: ArcFeatures(w, t), gold: gold})
	}

	arcTrainer := *trainer
	arcTrainer.Decoder = func(m *perceptron.Model, e perceptron.Example) []int {
		return decode.Eisner(scoreArcs(m, e.(*treeExample).features))
	}
	if len(dev) > 0 {
		arcTrainer.Evaluate = func(_ int, m *perceptron.Model) float64 {
			var uas metrics.Counter
			for _, s := range dev {
				w, t := withRoot(s.Words, s.POS)
				heads := decode.Eisner(scoreArcs(m, ArcFeatures(w, t)))
				uas.Add(metrics.Accuracy(heads[1:], s.Heads))
			}
			return uas.Precision()
		}
	}
	avgArcs, err := arcTrainer.Train(ctx, arcs, examples)
	if err != nil {
		return nil, err
	}
	rels, err := trainRelations(ctx, trainer, train, false)
	if err != nil {
		return nil, err
	}
	rels.Meta["task"] = "dep"
	return &Model{Arcs: avgArcs, Relations: rels}, nil
}

// TrainSemantic fits a graph parser; the arc scorer learns to score gold arcs above zero.
func TrainSemantic(ctx context.Context, trainer *perceptron.Trainer, train, dev []Sentence) (*Model, error) {
	arcs := perceptron.NewModel([]string{arcLabel}, false)
	arcs.Meta["task"] = "sdp"

	examples := make([]perceptron.Example, 0, len(train))
	for _, s := range train {
		w, t := withRoot(s.Words, s.POS)
		n := len(w)
		gold := make([]int, n*n)
		for _, arc := range s.Arcs {
			gold[arc.Dependent*n+arc.Head] = 1
		}
		examples = append(examples, &graphExample{features: ArcFeatures(w, t), gold: gold})
	}

	arcTrainer := *trainer
	arcTrainer.Decoder = func(m *perceptron.Model, e perceptron.Example) []int {
		return flattenGraph(decodeGraph(scoreArcs(m, e.(*graphExample).features), ModeGraph))
	}
	if len(dev) > 0 {
		arcTrainer.Evaluate = func(_ int, m *perceptron.Model) float64 {
			var total metrics.Counter
			for _, s := range dev {
				w, t := withRoot(s.Words, s.POS)
				graph := decodeGraph(scoreArcs(m, ArcFeatures(w, t)), ModeGraph)
				var predicted, gold [][2]int
				for d := range graph {
					for h, ok := range graph[d] {
						if ok {
							predicted = append(predicted, [2]int{d, h})
						}
					}
				}
				for _, arc := range s.Arcs {
					gold = append(gold, [2]int{arc.Dependent, arc.Head})
				}
				total.Add(metrics.CountSets(predicted, gold))
			}
			return total.F1()
		}
	}
	avgArcs, err := arcTrainer.Train(ctx, arcs, examples)
	if err != nil {
		return nil, err
	}
	rels, err := trainRelations(ctx, trainer, train, true)
	if err != nil {
		return nil, err
	}
	rels.Meta["task"] = "sdp"
	return &Model{Arcs: avgArcs, Relations: rels}, nil
}

// EvaluateDependency returns unlabeled and labeled attachment counters.
func EvaluateDependency(p *Parser, gold []Sentence) (uas, las metrics.Counter) {
	for _, s := range gold {
		dep := p.Parse(s.Words, s.POS)
		uas.Add(metrics.Accuracy(dep.Head, s.Heads))
		labeled := make([]string, len(dep.Head))
		goldLabeled := make([]string, len(s.Heads))
		for i := range dep.Head {
			labeled[i] = strconv.Itoa(dep.Head[i]) + ":" + dep.Label[i]
		}
		for i := range s.Heads {
			goldLabeled[i] = strconv.Itoa(s.Heads[i]) + ":" + s.Relations[i]
		}
		las.Add(metrics.Accuracy(labeled, goldLabeled))
	}
	return uas, las
}

// EvaluateSemantic scores labeled arcs.
func EvaluateSemantic(p *Parser, gold []Sentence, mode Mode) metrics.Counter {
	var total metrics.Counter
	for _, s := range gold {
		total.Add(metrics.CountSets(p.ParseGraph(s.Words, s.POS, mode), s.Arcs))
	}
	return total
}
