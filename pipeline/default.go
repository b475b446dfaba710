package pipeline

import (
	"context"
	"encoding/json"
	"errors"

	"ltp.dev/ltpgo/logger"
	"ltp.dev/ltpgo/ltp"
	"ltp.dev/ltpgo/nlp"
	"ltp.dev/ltpgo/types"
)

const DefaultBatchSize = 16

var ErrNoAnalyzer = errors.New("pipeline: analyzer is required")

// Pipeline analyzes one document and emits the marshalled Response.
type Pipeline func(request Request) <-chan string

type Params struct {
	Analyzer  Analyzer      `json:"-"`
	BatchSize int           `json:"batch_size"`
	Split     *nlp.StnSplit `json:"split"`
}

func NewDefault(params Params) (Pipeline, error) {
	ltpLogger := logger.NewLogger("Document pipeline")
	errLogger := ltpLogger.With().Caller().Logger()
	if params.Analyzer == nil {
		errLogger.Err(ErrNoAnalyzer).Msg("Failed to create document pipeline")
		return nil, ErrNoAnalyzer
	}
	if params.BatchSize <= 0 {
		params.BatchSize = DefaultBatchSize
	}
	if params.Split == nil {
		params.Split = nlp.NewStnSplit()
	}
	ltpLogger.Info().
		Interface("params", params).
		Msg("Starting document pipeline (see parameters in 'params' field)")

	splitter := nlp.NewSentenceSplitter(params.Split)
	batcher := NewSentenceBatcher(params.BatchSize)
	analyzer := NewAnalyzerStage(params.Analyzer)
	builder := NewResponseBuilder(ltp.Version)

	return func(request Request) <-chan string {
		responseChan := make(chan string, 1)
		pplnLog := ltpLogger.With().Str("tid", request.Tid).Logger()
		pplnLog.Info().Msg("Started document pipeline")
		reqErrLogger := pplnLog.With().Caller().Logger()

		go func() {
			defer close(responseChan)
			tasks := request.Tasks
			if len(tasks) == 0 {
				tasks = params.Analyzer.Tasks()
			}
			tasks = types.NewTaskSet(tasks...).List()

			in := make(chan string)
			errc := make(chan error, 1)

			sents := splitter(in)
			analyzed := analyzer(context.Background(), batcher(sents), tasks, errc)
			result := builder(mergeBatches(analyzed), request, tasks)

			in <- request.Text
			close(in)

			response := <-result
			select {
			case err := <-errc:
				reqErrLogger.Err(err).Msg("Failed to analyze document")
				response.Sentences = []SentenceResult{}
				response.Error = err.Error()
			default:
			}

			buf, err := json.Marshal(response)
			if err != nil {
				reqErrLogger.Err(err).Msg("Failed to marshall response")
				return
			}
			pplnLog.Info().
				Int("sentences", len(response.Sentences)).
				Msg("Finished document pipeline")
			responseChan <- string(buf)
		}()

		return responseChan
	}, nil
}
