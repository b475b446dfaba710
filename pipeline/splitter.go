package pipeline

import "ltp.dev/ltpgo/types"

// NewSentenceBatcher groups sentences into slices of at most size elements.
func NewSentenceBatcher(size int) func(in <-chan types.Sentence) <-chan []types.Sentence {
	if size < 1 {
		size = 1
	}
	return func(in <-chan types.Sentence) <-chan []types.Sentence {
		out := make(chan []types.Sentence)
		go func() {
			defer close(out)
			batch := make([]types.Sentence, 0, size)
			for sent := range in {
				batch = append(batch, sent)
				if len(batch) == size {
					out <- batch
					batch = make([]types.Sentence, 0, size)
				}
			}
			if len(batch) > 0 {
				out <- batch
			}
		}()
		return out
	}
}

func mergeBatches(in <-chan []types.Sentence) <-chan types.Sentence {
	out := make(chan types.Sentence)
	go func() {
		defer close(out)
		for batch := range in {
			for _, sent := range batch {
				out <- sent
			}
		}
	}()
	return out
}
