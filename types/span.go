package types

// Span covers runes [Begin, End) of the source text.
type Span struct {
	Begin int32   `json:"begin"`
	End   int32   `json:"end"`
	Text  *string `json:"text"`
}
