package pos

import (
	"errors"
	"os"

	"ltp.dev/ltpgo/ml/perceptron"
)

const DefaultBeamSize = 3

var ErrBadModel = errors.New("model is not a pos model")

type Tagger struct {
	model     *perceptron.Model
	search    BeamSearch
	ctx       ContextGenerator
	validator SequenceValidator
}

type TaggerOption func(*taggerOptions)

type taggerOptions struct {
	beamSize int
	dict     TagDictionary
}

func WithBeamSize(size int) TaggerOption {
	return func(o *taggerOptions) {
		if size > 0 {
			o.beamSize = size
		}
	}
}

func WithTagDictionary(dict TagDictionary) TaggerOption {
	return func(o *taggerOptions) {
		o.dict = dict
	}
}

func NewTagger(model *perceptron.Model, opts ...TaggerOption) (*Tagger, error) {
	if model.NumLabels() == 0 {
		return nil, ErrBadModel
	}
	o := taggerOptions{beamSize: DefaultBeamSize}
	for _, opt := range opts {
		opt(&o)
	}
	return &Tagger{
		model:     model,
		search:    NewBeamSearch(model, o.beamSize),
		ctx:       NewContextGenerator(),
		validator: NewSequenceValidator(o.dict),
	}, nil
}

// Load reads a model and an optional tag dictionary file.
func Load(path string, dictPath string, opts ...TaggerOption) (*Tagger, error) {
	model, err := perceptron.Load(path)
	if err != nil {
		return nil, err
	}
	if dictPath != "" {
		f, err := os.Open(dictPath)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		dict, err := ReadTagDictionary(f)
		if err != nil {
			return nil, err
		}
		opts = append(opts, WithTagDictionary(dict))
	}
	return NewTagger(model, opts...)
}

func (t *Tagger) Model() *perceptron.Model {
	return t.model
}

func (t *Tagger) Tag(words []string) []string {
	res, isOk := t.search(words, WordFeatures(words), t.ctx, t.validator)
	if !isOk || res.Outcomes == nil {
		return []string{}
	}
	return res.Outcomes
}
