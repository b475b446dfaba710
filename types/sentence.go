package types

// Sentence is a span of the source document plus the analysis run on it.
type Sentence struct {
	Span
	Index    int       `json:"index"`
	Analysis *Analysis `json:"-"`
}

func (sent *Sentence) String() string {
	if sent.Text == nil {
		return ""
	}
	return *sent.Text
}
