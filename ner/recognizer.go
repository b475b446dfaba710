package ner

import (
	"errors"
	"fmt"
	"strings"

	"ltp.dev/ltpgo/ml/decode"
	"ltp.dev/ltpgo/ml/perceptron"
	"ltp.dev/ltpgo/types"
)

const (
	TypePerson       = "Nh"
	TypePlace        = "Ns"
	TypeOrganization = "Ni"
)

var ErrBadModel = errors.New("model is not a ner model")

type Recognizer struct {
	model *perceptron.Model
	mask  *decode.Mask
}

func New(model *perceptron.Model) (*Recognizer, error) {
	if _, ok := model.LabelID(decode.Outside); !ok {
		return nil, fmt.Errorf("%w: missing label %s", ErrBadModel, decode.Outside)
	}
	mask, err := decode.TransitionMask(model.Labels, decode.SchemeBIES)
	if err != nil {
		return nil, err
	}
	return &Recognizer{model: model, mask: mask}, nil
}

func Load(path string) (*Recognizer, error) {
	model, err := perceptron.Load(path)
	if err != nil {
		return nil, err
	}
	return New(model)
}

func (r *Recognizer) Model() *perceptron.Model {
	return r.model
}

// Labels returns the BIES label of every word.
func (r *Recognizer) Labels(words, tags []string) []string {
	if len(words) == 0 {
		return []string{}
	}
	emissions := r.model.Emissions(Features(words, tags))
	path := decode.Viterbi(emissions, r.model.TransitionMatrix(), r.mask, nil)
	return r.model.LabelsOf(path)
}

func (r *Recognizer) Recognize(words, tags []string) []types.Entity {
	return Entities(words, r.Labels(words, tags))
}

// Entities turns BIES labels into entities with word spans.
func Entities(words, labels []string) []types.Entity {
	chunks := decode.GetEntities(labels, decode.SchemeBIES)
	entities := make([]types.Entity, 0, len(chunks))
	for _, c := range chunks {
		entities = append(entities, types.Entity{
			Label: c.Label,
			Text:  strings.Join(words[c.Start:c.End+1], ""),
			Start: c.Start,
			End:   c.End,
		})
	}
	return entities
}
