package ltp

import "ltp.dev/ltpgo/nlp"

type StnSplit = nlp.StnSplit

func NewStnSplit() *StnSplit {
	return nlp.NewStnSplit()
}
