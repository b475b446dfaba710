package types

// Entity is a named entity over word indexes [Start, End].
type Entity struct {
	Label string `json:"label"`
	Text  string `json:"text"`
	Start int    `json:"start"`
	End   int    `json:"end"`
}

// Argument is a semantic role over word indexes [Start, End].
type Argument struct {
	Role  string `json:"role"`
	Text  string `json:"text"`
	Start int    `json:"start"`
	End   int    `json:"end"`
}

type Predicate struct {
	Index     int        `json:"index"`
	Predicate string     `json:"predicate"`
	Arguments []Argument `json:"arguments"`
}

// Dependency holds one head per word, 1-based with 0 as root.
type Dependency struct {
	Head  []int    `json:"head"`
	Label []string `json:"label"`
}

// SemanticArc links Dependent to Head, 1-based with head 0 as root.
type SemanticArc struct {
	Dependent int    `json:"dependent"`
	Head      int    `json:"head"`
	Label     string `json:"label"`
}

// Output carries one field per requested task, aligned with the input batch.
type Output struct {
	CWS [][]string      `json:"cws,omitempty"`
	POS [][]string      `json:"pos,omitempty"`
	NER [][]Entity      `json:"ner,omitempty"`
	SRL [][]Predicate   `json:"srl,omitempty"`
	DEP []Dependency    `json:"dep,omitempty"`
	SDP [][]SemanticArc `json:"sdp,omitempty"`
}

func (out *Output) Has(task Task) bool {
	switch task {
	case TaskCWS:
		return out.CWS != nil
	case TaskPOS:
		return out.POS != nil
	case TaskNER:
		return out.NER != nil
	case TaskSRL:
		return out.SRL != nil
	case TaskDEP:
		return out.DEP != nil
	case TaskSDP:
		return out.SDP != nil
	}
	return false
}

// Analysis is the full result for one sentence.
type Analysis struct {
	Words      []string
	Tags       []string
	Entities   []Entity
	Predicates []Predicate
	Dependency *Dependency
	Semantic   []SemanticArc
}

// Clone returns a deep copy, so callers cannot reach shared slices.
func (a *Analysis) Clone() *Analysis {
	c := &Analysis{
		Words:    cloneSlice(a.Words),
		Tags:     cloneSlice(a.Tags),
		Entities: cloneSlice(a.Entities),
		Semantic: cloneSlice(a.Semantic),
	}
	if a.Predicates != nil {
		c.Predicates = make([]Predicate, len(a.Predicates))
		for i, p := range a.Predicates {
			p.Arguments = cloneSlice(p.Arguments)
			c.Predicates[i] = p
		}
	}
	if a.Dependency != nil {
		c.Dependency = &Dependency{
			Head:  cloneSlice(a.Dependency.Head),
			Label: cloneSlice(a.Dependency.Label),
		}
	}
	return c
}

func cloneSlice[T any](v []T) []T {
	if v == nil {
		return nil
	}
	return append(make([]T, 0, len(v)), v...)
}

// NewOutput allocates the fields of the given tasks for a batch of n sentences.
func NewOutput(tasks TaskSet, n int) *Output {
	out := &Output{}
	if tasks.Has(TaskCWS) {
		out.CWS = make([][]string, n)
	}
	if tasks.Has(TaskPOS) {
		out.POS = make([][]string, n)
	}
	if tasks.Has(TaskNER) {
		out.NER = make([][]Entity, n)
	}
	if tasks.Has(TaskSRL) {
		out.SRL = make([][]Predicate, n)
	}
	if tasks.Has(TaskDEP) {
		out.DEP = make([]Dependency, n)
	}
	if tasks.Has(TaskSDP) {
		out.SDP = make([][]SemanticArc, n)
	}
	return out
}

// Set stores a sentence analysis at position i for the allocated fields.
func (out *Output) Set(i int, a *Analysis) {
	if out.CWS != nil {
		out.CWS[i] = a.Words
	}
	if out.POS != nil {
		out.POS[i] = a.Tags
	}
	if out.NER != nil {
		out.NER[i] = nonNilEntities(a.Entities)
	}
	if out.SRL != nil {
		out.SRL[i] = nonNilPredicates(a.Predicates)
	}
	if out.DEP != nil && a.Dependency != nil {
		out.DEP[i] = *a.Dependency
	}
	if out.SDP != nil {
		out.SDP[i] = nonNilArcs(a.Semantic)
	}
}

func nonNilEntities(v []Entity) []Entity {
	if v == nil {
		return []Entity{}
	}
	return v
}

func nonNilPredicates(v []Predicate) []Predicate {
	if v == nil {
		return []Predicate{}
	}
	return v
}

func nonNilArcs(v []SemanticArc) []SemanticArc {
	if v == nil {
		return []SemanticArc{}
	}
	return v
}
