package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"ltp.dev/ltpgo/cws"
	"ltp.dev/ltpgo/ltp"
	"ltp.dev/ltpgo/pipeline"
	"ltp.dev/ltpgo/types"
)

type mockNLP struct {
	words []string
	freq  int
}

func (m *mockNLP) Name() string {
	return "mock"
}

func (m *mockNLP) Tasks() []types.Task {
	return []types.Task{types.TaskCWS, types.TaskPOS}
}

func (m *mockNLP) analyze(words [][]string, tasks []types.Task) (*types.Output, error) {
	set := types.NewTaskSet(tasks...)
	if len(tasks) == 0 {
		set = types.NewTaskSet(m.Tasks()...)
	}
	for t := range set {
		if t != types.TaskCWS && t != types.TaskPOS {
			return nil, fmt.Errorf("%w: %q", ltp.ErrUnsupportedTask, t)
		}
	}
	out := types.NewOutput(set, len(words))
	for i, w := range words {
		tags := make([]string, len(w))
		for j := range tags {
			tags[j] = "n"
		}
		out.Set(i, &types.Analysis{Words: w, Tags: tags})
	}
	return out, nil
}

func (m *mockNLP) Pipeline(_ context.Context, inputs []string, tasks ...types.Task) (*types.Output, error) {
	words := make([][]string, len(inputs))
	for i, in := range inputs {
		words[i] = strings.Fields(in)
	}
	return m.analyze(words, tasks)
}

func (m *mockNLP) PipelineWords(_ context.Context, inputs [][]string, tasks ...types.Task) (*types.Output, error) {
	for _, t := range tasks {
		if t == types.TaskCWS {
			return nil, ltp.ErrPretokenizedCWS
		}
	}
	return m.analyze(inputs, tasks)
}

func (m *mockNLP) AddWords(words []string, freq int) error {
	for _, w := range words {
		if _, err := cws.CheckWord(w); err != nil {
			return err
		}
	}
	m.words = append(m.words, words...)
	m.freq = freq
	return nil
}

func newTestServer(t *testing.T) (*httptest.Server, *mockNLP) {
	t.Helper()
	nlp := &mockNLP{}
	ppln, err := pipeline.NewDefault(pipeline.Params{Analyzer: nlp})
	require.NoError(t, err)
	h := NewHandler(nlp, ppln)
	h.logger = zerolog.Nop()
	srv := httptest.NewServer(h.Routes())
	t.Cleanup(srv.Close)
	return srv, nlp
}

func post(t *testing.T, url, body string) (*http.Response, []byte) {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := readAll(resp)
	require.NoError(t, err)
	return resp, raw
}

func readAll(resp *http.Response) ([]byte, error) {
	var raw json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, err
	}
	return raw, nil
}

func TestPipelineEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	t.Run("inputs", func(t *testing.T) {
		resp, raw := post(t, srv.URL+"/pipeline", `{"inputs":["他 叫 汤姆"],"tasks":["cws"]}`)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		_, err := ulid.Parse(resp.Header.Get(RequestIdHeader))
		require.NoError(t, err)

		var out types.Output
		require.NoError(t, json.Unmarshal(raw, &out))
		require.Equal(t, [][]string{{"他", "叫", "汤姆"}}, out.CWS)
		require.Nil(t, out.POS)
	})

	t.Run("words", func(t *testing.T) {
		resp, raw := post(t, srv.URL+"/pipeline", `{"words":[["他","叫"]],"tasks":["pos"]}`)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var out types.Output
		require.NoError(t, json.Unmarshal(raw, &out))
		require.Equal(t, [][]string{{"n", "n"}}, out.POS)
	})

	cases := []struct {
		name   string
		body   string
		status int
	}{
		{"bad json", `{"inputs":`, http.StatusBadRequest},
		{"inputs and words", `{"inputs":[],"words":[]}`, http.StatusBadRequest},
		{"unknown task", `{"inputs":["a"],"tasks":["lemma"]}`, http.StatusUnprocessableEntity},
		{"unsupported task", `{"inputs":["a"],"tasks":["dep"]}`, http.StatusUnprocessableEntity},
		{"cws on words", `{"words":[["a"]],"tasks":["cws"]}`, http.StatusUnprocessableEntity},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			resp, _ := post(t, srv.URL+"/pipeline", c.body)
			require.Equal(t, c.status, resp.StatusCode)
		})
	}
}

func TestMethodNotAllowed(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/pipeline")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
	require.Equal(t, http.MethodPost, resp.Header.Get("Allow"))

	resp, _ = post(t, srv.URL+"/version", `{}`)
	require.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestSplitEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, raw := post(t, srv.URL+"/split", `{"texts":["他叫汤姆去拿外衣。汤姆去了！"]}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out SplitResponse
	require.NoError(t, json.Unmarshal(raw, &out))
	require.Equal(t, []string{"他叫汤姆去拿外衣。", "汤姆去了！"}, out.Sentences)

	resp, raw = post(t, srv.URL+"/split", `{"texts":[]}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.JSONEq(t, `{"sentences":[]}`, string(raw))
}

func TestWordsEndpoint(t *testing.T) {
	srv, nlp := newTestServer(t)

	resp, raw := post(t, srv.URL+"/words", `{"words":["汤姆去","SCSG"],"freq":2}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.JSONEq(t, `{"received":2}`, string(raw))
	require.Equal(t, []string{"汤姆去", "SCSG"}, nlp.words)
	require.Equal(t, 2, nlp.freq)

	resp, _ = post(t, srv.URL+"/words", `{"words":[" "]}`)
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	resp, _ = post(t, srv.URL+"/words", `{"words":["New York"]}`)
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestDocumentsEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, raw := post(t, srv.URL+"/documents?tasks=pos", "他 叫 汤姆。你 好！")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var doc pipeline.Response
	require.NoError(t, json.Unmarshal(raw, &doc))
	require.Equal(t, resp.Header.Get(RequestIdHeader), doc.DocId)
	require.Equal(t, ltp.Version, doc.Version)
	require.Equal(t, []types.Task{types.TaskPOS}, doc.Tasks)
	require.Len(t, doc.Sentences, 2)
	require.Equal(t, []string{"n", "n", "n"}, doc.Sentences[0].POS)
	require.EqualValues(t, 7, doc.Sentences[1].Begin)

	resp, _ = post(t, srv.URL+"/documents?tasks=srl", "他叫汤姆。")
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	resp, _ = post(t, srv.URL+"/documents?tasks=nope", "他叫汤姆。")
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestVersionEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/version")
	require.NoError(t, err)
	raw, err := readAll(resp)
	resp.Body.Close()
	require.NoError(t, err)
	require.JSONEq(t, `{"version":"4.2.4","model":"mock","tasks":["cws","pos"]}`, string(raw))
}
