package ltp

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"ltp.dev/ltpgo/lexicon"
	"ltp.dev/ltpgo/lexicon/memstore"
	"ltp.dev/ltpgo/types"
)

var allTasks = types.AllTasks()

func newTestLTP(t *testing.T, opts ...Option) *LTP {
	home := buildHome(t, allTasks...)
	opts = append([]Option{WithModelHome(home), WithLogger(zerolog.Nop()), WithWorkers(2)}, opts...)
	l, err := New(LegacyModel, opts...)
	require.NoError(t, err)
	return l
}

func TestNew(t *testing.T) {
	l := newTestLTP(t)
	require.Equal(t, allTasks, l.Tasks())
	require.Equal(t, LegacyModel, l.Name())
	require.Equal(t, "cpu", l.Device())

	t.Run("neural", func(t *testing.T) {
		for _, name := range NeuralModels {
			_, err := New(name, WithModelHome(t.TempDir()))
			require.True(t, errors.Is(err, ErrNeuralBackend))
		}
	})

	t.Run("not found", func(t *testing.T) {
		_, err := New("LTP/legacy", WithModelHome(t.TempDir()))
		require.True(t, errors.Is(err, ErrModelNotFound))
	})

	t.Run("directory", func(t *testing.T) {
		dir := buildModel(t, types.TaskCWS)
		l, err := New(dir, WithLogger(zerolog.Nop()))
		require.NoError(t, err)
		require.Equal(t, []types.Task{types.TaskCWS}, l.Tasks())
	})
}

func TestTo(t *testing.T) {
	l := newTestLTP(t)

	moved, err := l.To("cpu")
	require.NoError(t, err)
	require.Same(t, l, moved)

	for _, device := range []string{"cuda", "cuda:0", "mps"} {
		_, err = l.To(device)
		require.True(t, errors.Is(err, ErrUnsupportedDevice))
	}
	_, err = l.To("tpu")
	require.True(t, errors.Is(err, ErrInvalidDevice))
	_, err = l.To("cuda:x")
	require.True(t, errors.Is(err, ErrInvalidDevice))
	require.Equal(t, "cpu", l.Device())
}

func TestParseDevice(t *testing.T) {
	d, err := ParseDevice("CUDA:1")
	require.NoError(t, err)
	require.Equal(t, Device{Kind: "cuda", Index: 1}, d)
	require.Equal(t, "cuda:1", d.String())

	d, err = ParseDevice("cpu")
	require.NoError(t, err)
	require.Equal(t, "cpu", d.String())
}

func TestPipeline(t *testing.T) {
	ctx := context.Background()
	l := newTestLTP(t)
	inputs := []string{"他叫汤姆去拿外衣。", "汤姆生病了。", ""}

	t.Run("all tasks", func(t *testing.T) {
		out, err := l.Pipeline(ctx, inputs)
		require.NoError(t, err)
		for _, task := range allTasks {
			require.True(t, out.Has(task), task)
		}
		require.Len(t, out.CWS, 3)
		for i := range inputs {
			require.Len(t, out.POS[i], len(out.CWS[i]))
			require.Len(t, out.DEP[i].Head, len(out.CWS[i]))
			require.NotNil(t, out.NER[i])
			require.NotNil(t, out.SRL[i])
			require.NotNil(t, out.SDP[i])
		}
		require.Empty(t, out.CWS[2])
	})

	t.Run("only requested tasks", func(t *testing.T) {
		out, err := l.Pipeline(ctx, inputs, types.TaskDEP)
		require.NoError(t, err)
		require.True(t, out.Has(types.TaskDEP))
		require.False(t, out.Has(types.TaskCWS))
		require.False(t, out.Has(types.TaskPOS))
	})

	t.Run("words", func(t *testing.T) {
		words := [][]string{{"汤姆", "生病", "了", "。"}}
		out, err := l.PipelineWords(ctx, words, types.TaskPOS, types.TaskNER)
		require.NoError(t, err)
		require.Len(t, out.POS[0], 4)
		require.False(t, out.Has(types.TaskCWS))

		_, err = l.PipelineWords(ctx, words, types.TaskCWS)
		require.True(t, errors.Is(err, ErrPretokenizedCWS))

		out, err = l.PipelineWords(ctx, words)
		require.NoError(t, err)
		require.False(t, out.Has(types.TaskCWS))
		require.True(t, out.Has(types.TaskSDP))
	})

	t.Run("canceled", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := l.Pipeline(cctx, inputs)
		require.True(t, errors.Is(err, context.Canceled))
	})
}

func TestUnsupportedTask(t *testing.T) {
	dir := buildModel(t, types.TaskCWS, types.TaskPOS)
	l, err := New(dir, WithLogger(zerolog.Nop()))
	require.NoError(t, err)

	_, err = l.Pipeline(context.Background(), []string{"汤姆生病了。"}, types.TaskNER)
	require.True(t, errors.Is(err, ErrUnsupportedTask))

	out, err := l.Pipeline(context.Background(), []string{"汤姆生病了。"}, types.TaskPOS)
	require.NoError(t, err)
	require.Len(t, out.POS, 1)
}

func TestAddWords(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	l := newTestLTP(t, WithLexicon(store), WithCacheSize(16))

	require.NoError(t, l.AddWords([]string{"SCSG", "IP地址"}, 1))
	out, err := l.Pipeline(ctx, []string{"SCSGIP地址"}, types.TaskCWS)
	require.NoError(t, err)
	require.Equal(t, []string{"SCSG", "IP地址"}, out.CWS[0])

	// cached results are dropped when the vocabulary changes
	_, err = l.Pipeline(ctx, []string{"他叫汤姆去拿外衣。"}, types.TaskCWS)
	require.NoError(t, err)
	require.NoError(t, l.AddWord("汤姆去", 2))
	out, err = l.Pipeline(ctx, []string{"他叫汤姆去拿外衣。"}, types.TaskCWS)
	require.NoError(t, err)
	require.Contains(t, out.CWS[0], "汤姆去")

	require.True(t, errors.Is(l.AddWords([]string{"ok", " "}, 1), ErrEmptyWord))
	require.Equal(t, []string{"IP地址", "SCSG", "汤姆去"}, l.Words())

	stored, err := store.All(ctx)
	require.NoError(t, err)
	require.Len(t, stored, 3)

	// a new handle picks the stored words up
	reloaded, err := New(l.config.Dir, WithLogger(zerolog.Nop()), WithLexicon(store))
	require.NoError(t, err)
	require.Equal(t, []string{"IP地址", "SCSG", "汤姆去"}, reloaded.Words())
}

type failingStore struct {
	*memstore.Store
}

func (s failingStore) Add(context.Context, []lexicon.Word) error {
	return errors.New("disk full")
}

func TestAddWordsStoreFailure(t *testing.T) {
	ctx := context.Background()
	l := newTestLTP(t, WithLexicon(failingStore{memstore.New()}), WithCacheSize(16))

	before, err := l.Pipeline(ctx, []string{"SCSGIP地址"}, types.TaskCWS)
	require.NoError(t, err)
	require.NotEqual(t, []string{"SCSG", "IP地址"}, before.CWS[0])

	err = l.AddWords([]string{"SCSG", "IP地址"}, 1)
	require.Error(t, err)
	require.Contains(t, err.Error(), "disk full")
	require.Equal(t, []string{"IP地址", "SCSG"}, l.Words())

	// the segmenter already uses the words, so the cached result must not survive
	after, err := l.Pipeline(ctx, []string{"SCSGIP地址"}, types.TaskCWS)
	require.NoError(t, err)
	require.Equal(t, []string{"SCSG", "IP地址"}, after.CWS[0])
}

func TestAddWordsWithSpaces(t *testing.T) {
	l := newTestLTP(t)
	err := l.AddWords([]string{"SCSG", "New York"}, 1)
	require.True(t, errors.Is(err, ErrSpacedWord))
	require.Empty(t, l.Words())
}

func TestCachedResultsAreCopies(t *testing.T) {
	ctx := context.Background()
	l := newTestLTP(t, WithCacheSize(16))

	t.Run("raw", func(t *testing.T) {
		out, err := l.Pipeline(ctx, []string{"汤姆生病了。"}, types.TaskCWS, types.TaskPOS)
		require.NoError(t, err)
		words := append([]string(nil), out.CWS[0]...)
		tags := append([]string(nil), out.POS[0]...)
		out.CWS[0][0] = "MUTATED"
		out.POS[0][0] = "x"

		for i := 0; i < 2; i++ {
			again, err := l.Pipeline(ctx, []string{"汤姆生病了。"}, types.TaskCWS, types.TaskPOS)
			require.NoError(t, err)
			require.Equal(t, words, again.CWS[0])
			require.Equal(t, tags, again.POS[0])
			again.CWS[0][0] = "MUTATED"
		}
	})

	t.Run("pretokenized", func(t *testing.T) {
		input := []string{"汤姆", "生病", "了", "。"}
		out, err := l.PipelineWords(ctx, [][]string{input}, types.TaskDEP)
		require.NoError(t, err)
		heads := append([]int(nil), out.DEP[0].Head...)
		out.DEP[0].Head[0] = 99

		again, err := l.PipelineWords(ctx, [][]string{input}, types.TaskDEP)
		require.NoError(t, err)
		require.Equal(t, heads, again.DEP[0].Head)
	})
}

func TestStaleResultsAreNotCached(t *testing.T) {
	l := newTestLTP(t, WithCacheSize(16))
	key := cacheKey(input{text: "汤姆生病了。"}, types.NewTaskSet(types.TaskCWS))

	_, vocab, ok := l.cached(key)
	require.False(t, ok)

	// words registered while the analysis was running
	l.invalidateCache()
	l.store(key, vocab, &types.Analysis{Words: []string{"汤姆生病了。"}})
	_, _, ok = l.cached(key)
	require.False(t, ok)

	_, vocab, _ = l.cached(key)
	l.store(key, vocab, &types.Analysis{Words: []string{"汤姆", "生病", "了", "。"}})
	cached, _, ok := l.cached(key)
	require.True(t, ok)
	require.Equal(t, []string{"汤姆", "生病", "了", "。"}, cached.Words)
}

func TestStnSplit(t *testing.T) {
	sents := NewStnSplit().Split("他叫汤姆去拿外衣。汤姆生病了。")
	require.Equal(t, []string{"他叫汤姆去拿外衣。", "汤姆生病了。"}, sents)
	require.Equal(t, "4.2.4", Version)
}
