package pipeline

import (
	"ltp.dev/ltpgo/types"
)

type SentenceResult struct {
	Index int                 `json:"index"`
	Text  string              `json:"text"`
	Begin int32               `json:"begin"`
	End   int32               `json:"end"`
	CWS   []string            `json:"cws,omitempty"`
	POS   []string            `json:"pos,omitempty"`
	NER   []types.Entity      `json:"ner,omitempty"`
	SRL   []types.Predicate   `json:"srl,omitempty"`
	DEP   *types.Dependency   `json:"dep,omitempty"`
	SDP   []types.SemanticArc `json:"sdp,omitempty"`
}

// Response is the document pipeline result. Offsets are in runes.
type Response struct {
	DocId     string           `json:"doc_id"`
	Version   string           `json:"version"`
	Tasks     []types.Task     `json:"tasks"`
	Sentences []SentenceResult `json:"sentences"`
	Error     string           `json:"error,omitempty"`
}

func newSentenceResult(sent types.Sentence) SentenceResult {
	res := SentenceResult{
		Index: sent.Index,
		Text:  sent.String(),
		Begin: sent.Begin,
		End:   sent.End,
	}
	if a := sent.Analysis; a != nil {
		res.CWS = a.Words
		res.POS = a.Tags
		res.NER = a.Entities
		res.SRL = a.Predicates
		res.DEP = a.Dependency
		res.SDP = a.Semantic
	}
	return res
}

// NewResponseBuilder collects analyzed sentences in document order.
func NewResponseBuilder(version string) func(in <-chan types.Sentence, request Request, tasks []types.Task) <-chan Response {
	return func(in <-chan types.Sentence, request Request, tasks []types.Task) <-chan Response {
		out := make(chan Response, 1)
		go func() {
			defer close(out)
			response := Response{
				DocId:     request.Tid,
				Version:   version,
				Tasks:     tasks,
				Sentences: []SentenceResult{},
			}
			for sent := range in {
				response.Sentences = append(response.Sentences, newSentenceResult(sent))
			}
			out <- response
		}()
		return out
	}
}
