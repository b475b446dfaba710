package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"ltp.dev/ltpgo/ltp"
	"ltp.dev/ltpgo/nlp"
	"ltp.dev/ltpgo/pipeline"
	"ltp.dev/ltpgo/types"
)

// NLP is the part of *ltp.LTP served over HTTP.
type NLP interface {
	pipeline.Analyzer
	Name() string
	PipelineWords(ctx context.Context, inputs [][]string, tasks ...types.Task) (*types.Output, error)
	AddWords(words []string, freq int) error
}

type Handler struct {
	NLP      NLP
	Pipeline pipeline.Pipeline
	Split    *nlp.StnSplit

	ids    *idGenerator
	logger zerolog.Logger
}

func NewHandler(service NLP, ppln pipeline.Pipeline) *Handler {
	return &Handler{
		NLP:      service,
		Pipeline: ppln,
		Split:    nlp.NewStnSplit(),
		ids:      newIdGenerator(),
		logger:   defaultLogger,
	}
}

// Routes registers every endpoint on a new mux.
func (h *Handler) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/pipeline", h.handle(http.MethodPost, h.pipeline))
	mux.HandleFunc("/split", h.handle(http.MethodPost, h.split))
	mux.HandleFunc("/words", h.handle(http.MethodPost, h.words))
	mux.HandleFunc("/documents", h.handle(http.MethodPost, h.documents))
	mux.HandleFunc("/version", h.handle(http.MethodGet, h.version))
	return mux
}

type statusError struct {
	status int
	err    error
}

func (e *statusError) Error() string {
	return e.err.Error()
}

func (e *statusError) Unwrap() error {
	return e.err
}

func withStatus(status int, err error) error {
	return &statusError{status: status, err: err}
}

type endpoint func(r *http.Request, requestId string, logger zerolog.Logger) (interface{}, error)

func (h *Handler) handle(method string, fn endpoint) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		requestId := h.ids.next()
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set(RequestIdHeader, requestId)

		logger := makeRequestLogger(h.logger, r, requestId)

		if r.Method != method {
			logger.Err(nil).Int("status", http.StatusMethodNotAllowed).Msgf("Only '%s' method is allowed here", method)
			w.Header().Set("Allow", method)
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}

		resp, err := fn(r, requestId, logger)
		if err != nil {
			status := statusOf(err)
			logger.Err(err).Int("status", status).Msg("Failed to process request")
			writeError(w, status, err.Error())
			return
		}

		if raw, ok := resp.(string); ok {
			_, _ = io.WriteString(w, raw)
		} else if err := json.NewEncoder(w).Encode(resp); err != nil {
			logger.Err(err).Msg("Failed to write response")
			return
		}
		logger.Info().Int("status", http.StatusOK).Msg("Finished processing request")
	}
}

func statusOf(err error) int {
	var se *statusError
	switch {
	case errors.As(err, &se):
		return se.status
	case errors.Is(err, types.ErrUnknownTask),
		errors.Is(err, ltp.ErrUnsupportedTask),
		errors.Is(err, ltp.ErrPretokenizedCWS),
		errors.Is(err, ltp.ErrEmptyWord),
		errors.Is(err, ltp.ErrSpacedWord):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func decode(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		return withStatus(http.StatusBadRequest, err)
	}
	return nil
}

type PipelineRequest struct {
	Inputs []string   `json:"inputs"`
	Words  [][]string `json:"words"`
	Tasks  []string   `json:"tasks"`
}

func (h *Handler) pipeline(r *http.Request, _ string, logger zerolog.Logger) (interface{}, error) {
	var req PipelineRequest
	if err := decode(r, &req); err != nil {
		return nil, err
	}
	if req.Inputs != nil && req.Words != nil {
		return nil, withStatus(http.StatusBadRequest, errors.New("only one of inputs and words may be set"))
	}
	tasks, err := types.ParseTasks(req.Tasks)
	if err != nil {
		return nil, err
	}

	logger.Info().
		Int("inputs", len(req.Inputs)+len(req.Words)).
		Interface("tasks", tasks).
		Msg("Starting pipeline for request from API")
	if req.Words != nil {
		return h.NLP.PipelineWords(r.Context(), req.Words, tasks...)
	}
	return h.NLP.Pipeline(r.Context(), req.Inputs, tasks...)
}

type SplitRequest struct {
	Texts   []string      `json:"texts"`
	Options *nlp.StnSplit `json:"options,omitempty"`
}

type SplitResponse struct {
	Sentences []string `json:"sentences"`
}

func (h *Handler) split(r *http.Request, _ string, _ zerolog.Logger) (interface{}, error) {
	var req SplitRequest
	if err := decode(r, &req); err != nil {
		return nil, err
	}
	split := h.Split
	if req.Options != nil {
		split = req.Options
	}
	sents := split.BatchSplit(req.Texts)
	if sents == nil {
		sents = []string{}
	}
	return SplitResponse{Sentences: sents}, nil
}

type WordsRequest struct {
	Words []string `json:"words"`
	Freq  int      `json:"freq"`
}

// WordsResponse counts the words of the request, known ones included.
type WordsResponse struct {
	Received int `json:"received"`
}

func (h *Handler) words(r *http.Request, _ string, _ zerolog.Logger) (interface{}, error) {
	var req WordsRequest
	if err := decode(r, &req); err != nil {
		return nil, err
	}
	if err := h.NLP.AddWords(req.Words, req.Freq); err != nil {
		return nil, err
	}
	return WordsResponse{Received: len(req.Words)}, nil
}

// documents runs the document pipeline over the raw body. Tasks come from
// the comma separated "tasks" query parameter.
func (h *Handler) documents(r *http.Request, requestId string, logger zerolog.Logger) (interface{}, error) {
	msg, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, withStatus(http.StatusBadRequest, err)
	}

	var names []string
	if q := r.URL.Query().Get("tasks"); q != "" {
		names = strings.Split(q, ",")
	}
	tasks, err := types.ParseTasks(names)
	if err != nil {
		return nil, err
	}
	supported := types.NewTaskSet(h.NLP.Tasks()...)
	for _, t := range tasks {
		if !supported.Has(t) {
			return nil, withStatus(http.StatusUnprocessableEntity, errors.New("unsupported task: "+string(t)))
		}
	}

	request := pipeline.Request{
		Tid:   requestId,
		Text:  string(msg),
		Tasks: tasks,
	}
	logger.Info().Str("tid", request.Tid).Msg("Starting document pipeline for request from API")
	resp, ok := <-h.Pipeline(request)
	if !ok {
		return nil, errors.New("document pipeline returned no response")
	}

	var check struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal([]byte(resp), &check); err != nil {
		return nil, err
	}
	if check.Error != "" {
		return nil, errors.New(check.Error)
	}
	return resp, nil
}

type VersionResponse struct {
	Version string       `json:"version"`
	Model   string       `json:"model"`
	Tasks   []types.Task `json:"tasks"`
}

func (h *Handler) version(_ *http.Request, _ string, _ zerolog.Logger) (interface{}, error) {
	return VersionResponse{
		Version: ltp.Version,
		Model:   h.NLP.Name(),
		Tasks:   h.NLP.Tasks(),
	}, nil
}
