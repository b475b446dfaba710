package pipeline

import (
	"context"

	"ltp.dev/ltpgo/types"
)

// Analyzer is the part of *ltp.LTP used by the document pipeline.
type Analyzer interface {
	Tasks() []types.Task
	Pipeline(ctx context.Context, inputs []string, tasks ...types.Task) (*types.Output, error)
}

// NewAnalyzerStage runs the analyzer over each batch and attaches one Analysis per sentence.
// The first failure is reported through errc and the remaining batches are drained.
func NewAnalyzerStage(analyzer Analyzer) func(ctx context.Context, in <-chan []types.Sentence, tasks []types.Task, errc chan<- error) <-chan []types.Sentence {
	return func(ctx context.Context, in <-chan []types.Sentence, tasks []types.Task, errc chan<- error) <-chan []types.Sentence {
		out := make(chan []types.Sentence)
		go func() {
			defer close(out)
			failed := false
			for batch := range in {
				if failed {
					continue
				}
				texts := make([]string, len(batch))
				for i := range batch {
					texts[i] = batch[i].String()
				}
				res, err := analyzer.Pipeline(ctx, texts, tasks...)
				if err != nil {
					failed = true
					errc <- err
					continue
				}
				for i := range batch {
					batch[i].Analysis = analysisAt(res, i)
				}
				out <- batch
			}
		}()
		return out
	}
}

func analysisAt(out *types.Output, i int) *types.Analysis {
	a := &types.Analysis{}
	if out.CWS != nil {
		a.Words = out.CWS[i]
	}
	if out.POS != nil {
		a.Tags = out.POS[i]
	}
	if out.NER != nil {
		a.Entities = out.NER[i]
	}
	if out.SRL != nil {
		a.Predicates = out.SRL[i]
	}
	if out.DEP != nil {
		dep := out.DEP[i]
		a.Dependency = &dep
	}
	if out.SDP != nil {
		a.Semantic = out.SDP[i]
	}
	return a
}
