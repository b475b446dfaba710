package ltp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"ltp.dev/ltpgo/cws"
	"ltp.dev/ltpgo/lexicon"
	"ltp.dev/ltpgo/ner"
	"ltp.dev/ltpgo/parser"
	"ltp.dev/ltpgo/pos"
	"ltp.dev/ltpgo/srl"
	"ltp.dev/ltpgo/types"
	"ltp.dev/ltpgo/utils"
)

const Version = "4.2.4"

var (
	ErrUnsupportedTask = errors.New("unsupported task")
	ErrPretokenizedCWS = errors.New("cws cannot run on pre-tokenized input")
	ErrEmptyWord       = cws.ErrEmptyWord
	ErrSpacedWord      = cws.ErrSpacedWord
)

// LTP runs the legacy analyzers of one model directory.
type LTP struct {
	name      string
	config    *types.ModelConfig
	logger    zerolog.Logger
	errLogger zerolog.Logger
	workers   int
	lexicon   lexicon.Store

	mu     sync.RWMutex
	device Device

	// vocab is bumped whenever custom words change; entries computed under
	// an older vocab are not cached.
	cacheMu sync.Mutex
	vocab   uint64
	cache   *lru.Cache[uint64, *types.Analysis]

	supported  types.TaskSet
	segmenter  *cws.Segmenter
	tagger     *pos.Tagger
	recognizer *ner.Recognizer
	labeler    *srl.Labeler
	depParser  *parser.Parser
	sdpParser  *parser.Parser
	sdpMode    parser.Mode
}

// New loads the model registered under name.
func New(name string, opts ...Option) (*LTP, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.modelHome == "" {
		cfg, err := LoadConfig()
		if err != nil {
			return nil, err
		}
		o.modelHome = cfg.ModelHome
	}

	cfg, err := Resolve(name, o.modelHome)
	if err != nil {
		return nil, err
	}
	return NewFromConfig(name, cfg, opts...)
}

// NewFromConfig loads the task models listed in cfg.
func NewFromConfig(name string, cfg *types.ModelConfig, opts ...Option) (*LTP, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	l := &LTP{
		name:      name,
		config:    cfg,
		logger:    o.logger,
		errLogger: o.logger.With().Caller().Logger(),
		workers:   o.workers,
		lexicon:   o.lexicon,
		device:    Device{Kind: DeviceCPU, Index: -1},
		supported: types.NewTaskSet(),
	}
	if o.cacheSize > 0 {
		cache, err := lru.New[uint64, *types.Analysis](o.cacheSize)
		if err != nil {
			return nil, err
		}
		l.cache = cache
	}

	if err := l.loadModels(); err != nil {
		l.errLogger.Err(err).Str("model", name).Msg("Failed to load models")
		return nil, err
	}
	if err := l.loadLexicon(); err != nil {
		l.errLogger.Err(err).Msg("Failed to load stored words")
		return nil, err
	}

	l.logger.Info().
		Str("model", name).
		Interface("tasks", l.Tasks()).
		Msg("Model loaded")
	return l, nil
}

func (l *LTP) loadModels() error {
	cfg := l.config
	for _, task := range types.AllTasks() {
		path, ok := cfg.ModelPath(task)
		if !ok {
			continue
		}
		tc := cfg.Tasks[task]
		var err error
		switch task {
		case types.TaskCWS:
			l.segmenter, err = cws.Load(path, cfg.TypeConcat())
		case types.TaskPOS:
			dict := ""
			if tc.Dictionary != "" {
				dict = cfg.Resolve(tc.Dictionary)
			}
			l.tagger, err = pos.Load(path, dict, pos.WithBeamSize(tc.BeamSize))
		case types.TaskNER:
			l.recognizer, err = ner.Load(path)
		case types.TaskSRL:
			l.labeler, err = srl.Load(path, tc.PredicateTags)
		case types.TaskDEP:
			l.depParser, err = parser.Load(path)
		case types.TaskSDP:
			if l.sdpMode, err = parser.ParseMode(tc.Mode); err == nil {
				l.sdpParser, err = parser.Load(path)
			}
		}
		if err != nil {
			return fmt.Errorf("%s: %w", task, err)
		}
		l.supported[task] = true
		l.logger.Debug().Str("task", string(task)).Str("path", path).Msg("Task model loaded")
	}
	if len(l.supported) == 0 {
		return fmt.Errorf("%w: %s has no task models", types.ErrInvalidConfig, l.name)
	}
	return nil
}

func (l *LTP) loadLexicon() error {
	if l.lexicon == nil || l.segmenter == nil {
		return nil
	}
	words, err := l.lexicon.All(context.Background())
	if err != nil {
		return err
	}
	for _, w := range words {
		if _, err := l.segmenter.AddWord(w.Text, w.Freq); err != nil {
			return err
		}
	}
	if len(words) > 0 {
		l.logger.Info().Int("words", len(words)).Msg("Stored words loaded")
	}
	return nil
}

func (l *LTP) Name() string {
	return l.name
}

// Tasks lists the tasks the loaded model supports in execution order.
func (l *LTP) Tasks() []types.Task {
	return l.supported.List()
}

func (l *LTP) Device() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.device.String()
}

// To moves the model to device. The legacy backend only runs on the cpu.
func (l *LTP) To(device string) (*LTP, error) {
	d, err := ParseDevice(device)
	if err != nil {
		return nil, err
	}
	if d.Kind != DeviceCPU {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedDevice, d)
	}
	l.mu.Lock()
	l.device = d
	l.mu.Unlock()
	return l, nil
}

// AddWord registers a custom word used by segmentation.
func (l *LTP) AddWord(word string, freq int) error {
	return l.AddWords([]string{word}, freq)
}

// AddWords registers custom words; nothing is added when any word is blank
// or contains whitespace.
func (l *LTP) AddWords(words []string, freq int) error {
	if l.segmenter == nil {
		return fmt.Errorf("%w: %s", ErrUnsupportedTask, types.TaskCWS)
	}
	entries := make([]lexicon.Word, 0, len(words))
	for _, w := range words {
		w, err := cws.CheckWord(w)
		if err != nil {
			return err
		}
		entries = append(entries, lexicon.Word{Text: w, Freq: freq})
	}

	added := 0
	var addErr error
	for _, e := range entries {
		isNew, err := l.segmenter.AddWord(e.Text, e.Freq)
		if err != nil {
			addErr = err
			break
		}
		if isNew {
			added++
		}
	}
	if added > 0 {
		l.invalidateCache()
	}
	if addErr != nil {
		return addErr
	}
	if l.lexicon != nil {
		if err := l.lexicon.Add(context.Background(), entries); err != nil {
			l.errLogger.Err(err).Int("words", len(entries)).Msg("Failed to store words")
			return fmt.Errorf("words added but not stored: %w", err)
		}
	}
	l.logger.Debug().Int("words", len(entries)).Int("new", added).Msg("Words added")
	return nil
}

func (l *LTP) invalidateCache() {
	l.cacheMu.Lock()
	defer l.cacheMu.Unlock()
	l.vocab++
	if l.cache != nil {
		l.cache.Purge()
	}
}

// cached returns a copy of the cached analysis for key and the current vocab.
func (l *LTP) cached(key uint64) (*types.Analysis, uint64, bool) {
	l.cacheMu.Lock()
	defer l.cacheMu.Unlock()
	a, ok := l.cache.Get(key)
	if !ok {
		return nil, l.vocab, false
	}
	return a.Clone(), l.vocab, true
}

// store caches a copy of a unless the vocab changed since it was computed.
func (l *LTP) store(key uint64, vocab uint64, a *types.Analysis) {
	l.cacheMu.Lock()
	defer l.cacheMu.Unlock()
	if vocab != l.vocab {
		return
	}
	l.cache.Add(key, a.Clone())
}

// Words returns the registered custom words.
func (l *LTP) Words() []string {
	if l.segmenter == nil {
		return nil
	}
	return l.segmenter.Words()
}

func (l *LTP) resolveTasks(tasks []types.Task) (types.TaskSet, error) {
	if len(tasks) == 0 {
		return types.NewTaskSet(l.Tasks()...), nil
	}
	requested := types.NewTaskSet()
	for _, t := range tasks {
		if !l.supported.Has(t) {
			return nil, fmt.Errorf("%w: %q", ErrUnsupportedTask, t)
		}
		requested[t] = true
	}
	return requested, nil
}

// Pipeline analyzes raw sentences. No tasks means every supported task; only
// requested tasks are set on the output.
func (l *LTP) Pipeline(ctx context.Context, inputs []string, tasks ...types.Task) (*types.Output, error) {
	requested, err := l.resolveTasks(tasks)
	if err != nil {
		return nil, err
	}
	return l.run(ctx, len(inputs), requested, false, func(i int) input {
		return input{text: inputs[i]}
	})
}

// PipelineWords analyzes pre-tokenized sentences.
func (l *LTP) PipelineWords(ctx context.Context, inputs [][]string, tasks ...types.Task) (*types.Output, error) {
	if len(tasks) == 0 {
		for _, t := range l.Tasks() {
			if t != types.TaskCWS {
				tasks = append(tasks, t)
			}
		}
		if len(tasks) == 0 {
			return nil, fmt.Errorf("%w: model only segments", ErrUnsupportedTask)
		}
	}
	for _, t := range tasks {
		if t == types.TaskCWS {
			return nil, ErrPretokenizedCWS
		}
	}
	requested, err := l.resolveTasks(tasks)
	if err != nil {
		return nil, err
	}
	return l.run(ctx, len(inputs), requested, true, func(i int) input {
		return input{words: inputs[i], pretokenized: true}
	})
}

type input struct {
	text         string
	words        []string
	pretokenized bool
}

func (l *LTP) run(ctx context.Context, n int, requested types.TaskSet, pretokenized bool, get func(i int) input) (*types.Output, error) {
	run := requested.WithRequirements()
	if pretokenized {
		delete(run, types.TaskCWS)
	}
	for t := range run {
		if !l.supported.Has(t) {
			return nil, fmt.Errorf("%w: %q needed by the requested tasks", ErrUnsupportedTask, t)
		}
	}

	out := types.NewOutput(requested, n)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.workers)
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			a, err := l.analyze(get(i), run)
			if err != nil {
				return fmt.Errorf("input %d: %w", i, err)
			}
			out.Set(i, a)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func cacheKey(in input, run types.TaskSet) uint64 {
	var b strings.Builder
	for _, t := range run.List() {
		b.WriteString(string(t))
		b.WriteByte(',')
	}
	if in.pretokenized {
		b.WriteString("\x00w\x00")
		b.WriteString(strings.Join(in.words, "\x1f"))
	} else {
		b.WriteString("\x00t\x00")
		b.WriteString(in.text)
	}
	return utils.HashString(b.String())
}

func (l *LTP) analyze(in input, run types.TaskSet) (a *types.Analysis, err error) {
	defer utils.RecoverWithError(&err)

	var key, vocab uint64
	if l.cache != nil {
		key = cacheKey(in, run)
		cached, current, ok := l.cached(key)
		if ok {
			return cached, nil
		}
		vocab = current
	}

	a = &types.Analysis{Words: append([]string(nil), in.words...)}
	if !in.pretokenized {
		a.Words = l.segmenter.Segment(in.text)
	}
	if a.Words == nil {
		a.Words = []string{}
	}
	if run.Has(types.TaskPOS) {
		a.Tags = l.tagger.Tag(a.Words)
	}
	if run.Has(types.TaskNER) {
		a.Entities = l.recognizer.Recognize(a.Words, a.Tags)
	}
	if run.Has(types.TaskSRL) {
		a.Predicates = l.labeler.Label(a.Words, a.Tags)
	}
	if run.Has(types.TaskDEP) {
		dep := l.depParser.Parse(a.Words, a.Tags)
		a.Dependency = &dep
	}
	if run.Has(types.TaskSDP) {
		a.Semantic = l.sdpParser.ParseGraph(a.Words, a.Tags, l.sdpMode)
	}

	if l.cache != nil {
		l.store(key, vocab, a)
	}
	return a, nil
}

// Close releases the lexicon store.
func (l *LTP) Close() error {
	if l.lexicon != nil {
		return l.lexicon.Close()
	}
	return nil
}
