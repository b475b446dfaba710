package ltp

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"ltp.dev/ltpgo/cws"
	"ltp.dev/ltpgo/ml/perceptron"
	"ltp.dev/ltpgo/ner"
	"ltp.dev/ltpgo/parser"
	"ltp.dev/ltpgo/pos"
	"ltp.dev/ltpgo/srl"
	"ltp.dev/ltpgo/types"
)

const (
	cwsCorpus = "他 叫 汤姆 去 拿 外衣 。\n汤姆 生病 了 。\n他 去 了 医院 。\n"
	posCorpus = "他/r 叫/v 汤姆/nh 去/v 拿/v 外衣/n 。/wp\n汤姆/nh 生病/v 了/u 。/wp\n他/r 去/v 了/u 医院/n 。/wp\n"
	nerCorpus = "他/r/O 叫/v/O 汤姆/nh/S-Nh 去/v/O 拿/v/O 外衣/n/O 。/wp/O\n汤姆/nh/S-Nh 去/v/O 北京/ns/S-Ns 。/wp/O\n"
	srlCorpus = `{"words":["他","叫","汤姆","去","拿","外衣","。"],"pos":["r","v","nh","v","v","n","wp"],"predicates":[{"index":1,"arguments":[{"role":"A0","start":0,"end":0},{"role":"A1","start":2,"end":2}]}]}` + "\n"
	depCorpus = "1\t汤姆\t_\tnh\tnh\t_\t2\tSBV\t2:AGT\n2\t生病\t_\tv\tv\t_\t0\tHED\t0:Root\n3\t了\t_\tu\tu\t_\t2\tRAD\t2:mTone\n"
)

var testTrainer = perceptron.Trainer{Epochs: 3, Logger: zerolog.Nop()}

// buildModel trains tiny models for tasks and writes a model directory.
func buildModel(t *testing.T, tasks ...types.Task) string {
	t.Helper()
	dir := t.TempDir()
	writeModel(t, dir, tasks...)
	return dir
}

func writeModel(t *testing.T, dir string, tasks ...types.Task) {
	t.Helper()
	ctx := context.Background()
	cfg := &types.ModelConfig{
		Name:    LegacyModel,
		Backend: types.BackendLegacy,
		Tasks:   make(map[types.Task]types.TaskConfig),
	}

	for _, task := range tasks {
		trainer := testTrainer
		file := string(task) + ".json.gz"
		path := filepath.Join(dir, file)
		tc := types.TaskConfig{Model: file}

		switch task {
		case types.TaskCWS:
			corpus, err := cws.ReadCorpus(strings.NewReader(cwsCorpus))
			require.NoError(t, err)
			m, err := cws.Train(ctx, &trainer, corpus, nil)
			require.NoError(t, err)
			require.NoError(t, m.Save(path))
		case types.TaskPOS:
			samples, err := pos.ReadCorpus(strings.NewReader(posCorpus))
			require.NoError(t, err)
			m, err := pos.Train(ctx, &trainer, samples, nil, 2)
			require.NoError(t, err)
			require.NoError(t, m.Save(path))
			tc.BeamSize = 2
		case types.TaskNER:
			samples, err := ner.ReadCorpus(strings.NewReader(nerCorpus))
			require.NoError(t, err)
			m, err := ner.Train(ctx, &trainer, samples, nil)
			require.NoError(t, err)
			require.NoError(t, m.Save(path))
		case types.TaskSRL:
			samples, err := srl.ReadCorpus(strings.NewReader(srlCorpus))
			require.NoError(t, err)
			m, err := srl.Train(ctx, &trainer, samples, nil, nil)
			require.NoError(t, err)
			require.NoError(t, m.Save(path))
		case types.TaskDEP, types.TaskSDP:
			sentences, err := parser.ReadCoNLL(strings.NewReader(depCorpus))
			require.NoError(t, err)
			var m *parser.Model
			if task == types.TaskDEP {
				m, err = parser.TrainDependency(ctx, &trainer, sentences, nil)
			} else {
				m, err = parser.TrainSemantic(ctx, &trainer, sentences, nil)
				tc.Mode = types.SDPModeGraph
			}
			require.NoError(t, err)
			require.NoError(t, m.Save(path))
		}
		cfg.Tasks[task] = tc
	}
	require.NoError(t, cfg.Save(dir))
}

// buildHome lays out a model home with the legacy model under its hub name.
func buildHome(t *testing.T, tasks ...types.Task) string {
	t.Helper()
	home := t.TempDir()
	dir := filepath.Join(home, "LTP", "legacy")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	writeModel(t, dir, tasks...)
	return home
}
