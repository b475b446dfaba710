package cws

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"unicode"

	"ltp.dev/ltpgo/ml/decode"
	"ltp.dev/ltpgo/ml/perceptron"
	"ltp.dev/ltpgo/utils"
)

const (
	LabelB = "B"
	LabelM = "M"
	LabelE = "E"
	LabelS = "S"
)

var (
	Labels = []string{LabelB, LabelM, LabelE, LabelS}

	ErrBadModel   = errors.New("model is not a segmentation model")
	ErrEmptyWord  = errors.New("empty word")
	ErrSpacedWord = errors.New("word contains whitespace")
)

type Segmenter struct {
	model      *perceptron.Model
	mask       *decode.Mask
	labels     [4]int
	typeConcat bool

	mu    sync.RWMutex
	vocab *utils.Trie
}

func New(model *perceptron.Model, typeConcat bool) (*Segmenter, error) {
	s := &Segmenter{
		model:      model,
		typeConcat: typeConcat,
		vocab:      utils.NewTrie(),
	}
	for i, l := range Labels {
		id, ok := model.LabelID(l)
		if !ok {
			return nil, fmt.Errorf("%w: missing label %s", ErrBadModel, l)
		}
		s.labels[i] = id
	}
	mask, err := decode.TransitionMask(model.Labels, decode.SchemeBMES)
	if err != nil {
		return nil, err
	}
	s.mask = mask
	return s, nil
}

func Load(path string, typeConcat bool) (*Segmenter, error) {
	model, err := perceptron.Load(path)
	if err != nil {
		return nil, err
	}
	return New(model, typeConcat)
}

func (s *Segmenter) Model() *perceptron.Model {
	return s.model
}

// AddWord registers a custom word; it reports whether the word was new.
// Segment splits on whitespace first, so words containing it are rejected.
func (s *Segmenter) AddWord(word string, freq int) (bool, error) {
	word, err := CheckWord(word)
	if err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.vocab.Add(word, freq), nil
}

// CheckWord trims word and validates it as a custom word.
func CheckWord(word string) (string, error) {
	word = strings.TrimSpace(word)
	if word == "" {
		return "", ErrEmptyWord
	}
	if strings.IndexFunc(word, unicode.IsSpace) >= 0 {
		return "", fmt.Errorf("%w: %q", ErrSpacedWord, word)
	}
	return word, nil
}

func (s *Segmenter) Words() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.vocab.Words()
}

// Segment splits text into words. Whitespace always separates words and is dropped.
func (s *Segmenter) Segment(text string) []string {
	var words []string
	for _, chunk := range strings.FieldsFunc(text, unicode.IsSpace) {
		words = append(words, s.segmentChunk([]rune(chunk))...)
	}
	if words == nil {
		return []string{}
	}
	return words
}

func (s *Segmenter) segmentChunk(runes []rune) []string {
	allowed := s.constraints(runes)
	emissions := s.model.Emissions(Features(runes))
	path := decode.Viterbi(emissions, s.model.TransitionMatrix(), s.mask, allowed)
	return Words(runes, s.model.LabelsOf(path))
}

// constraints fixes the labels of chars covered by custom words and concat runs.
func (s *Segmenter) constraints(runes []rune) [][]bool {
	var allowed [][]bool
	fix := func(start, end int) {
		if allowed == nil {
			allowed = make([][]bool, len(runes))
		}
		for i := start; i < end; i++ {
			row := make([]bool, s.model.NumLabels())
			switch {
			case end-start == 1:
				row[s.labels[3]] = true
			case i == start:
				row[s.labels[0]] = true
			case i == end-1:
				row[s.labels[2]] = true
			default:
				row[s.labels[1]] = true
			}
			allowed[i] = row
		}
	}

	s.mu.RLock()
	var spans [][2]int
	if s.vocab.Len() > 0 {
		spans = s.vocab.ForwardMaxMatch(runes)
	}
	s.mu.RUnlock()

	covered := make([]bool, len(runes))
	for _, span := range spans {
		fix(span[0], span[1])
		for i := span[0]; i < span[1]; i++ {
			covered[i] = true
		}
	}

	if s.typeConcat {
		for _, run := range concatRuns(runes) {
			free := true
			for i := run[0]; i < run[1]; i++ {
				if covered[i] {
					free = false
					break
				}
			}
			if free {
				fix(run[0], run[1])
			}
		}
	}
	return allowed
}

// concatRuns finds runs of at least two latin letters or two digits.
func concatRuns(runes []rune) [][2]int {
	var runs [][2]int
	for i := 0; i < len(runes); {
		t := utils.CharType(runes[i])
		j := i + 1
		if utils.IsConcatType(t) {
			for j < len(runes) && utils.CharType(runes[j]) == t {
				j++
			}
			if j-i > 1 {
				runs = append(runs, [2]int{i, j})
			}
		}
		i = j
	}
	return runs
}

// Words joins runes by BMES labels.
func Words(runes []rune, labels []string) []string {
	words := make([]string, 0, len(runes))
	start := 0
	for i, l := range labels {
		if i > start && (l == LabelB || l == LabelS) {
			words = append(words, string(runes[start:i]))
			start = i
		}
		if l == LabelE || l == LabelS {
			words = append(words, string(runes[start:i+1]))
			start = i + 1
		}
	}
	if start < len(runes) {
		words = append(words, string(runes[start:]))
	}
	return words
}

// Tags converts words into BMES labels, one per rune.
func Tags(words []string) []string {
	var tags []string
	for _, w := range words {
		n := len([]rune(w))
		switch n {
		case 0:
		case 1:
			tags = append(tags, LabelS)
		default:
			tags = append(tags, LabelB)
			for i := 1; i < n-1; i++ {
				tags = append(tags, LabelM)
			}
			tags = append(tags, LabelE)
		}
	}
	return tags
}
