package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"ltp.dev/ltpgo/cws"
	"ltp.dev/ltpgo/logger"
	"ltp.dev/ltpgo/ltp"
	"ltp.dev/ltpgo/ml/perceptron"
	"ltp.dev/ltpgo/ner"
	"ltp.dev/ltpgo/parser"
	"ltp.dev/ltpgo/pos"
	"ltp.dev/ltpgo/srl"
	"ltp.dev/ltpgo/types"
)

type trainFlags struct {
	train         string
	dev           string
	output        string
	register      string
	epochs        int
	algorithm     string
	c             float64
	seed          int64
	shuffle       bool
	compress      float64
	beamSize      int
	mode          string
	predicateTags []string
}

func readCorpus[T any](path string, read func(io.Reader) (T, error)) (T, error) {
	var zero T
	if path == "" {
		return zero, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return zero, err
	}
	defer f.Close()
	corpus, err := read(f)
	if err != nil {
		return zero, fmt.Errorf("%s: %w", path, err)
	}
	return corpus, nil
}

func newTrainCmd() *cobra.Command {
	flags := trainFlags{}
	cmd := &cobra.Command{
		Use:   "train <cws|pos|ner|dep|sdp|srl>",
		Short: "Train a legacy model from a gold corpus",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			task, err := types.ParseTask(args[0])
			if err != nil {
				return err
			}
			algorithm, err := perceptron.ParseAlgorithm(flags.algorithm)
			if err != nil {
				return err
			}
			log := logger.NewLogger("Train").With().Str("task", string(task)).Logger()
			trainer := &perceptron.Trainer{
				Algorithm: algorithm,
				Epochs:    flags.epochs,
				C:         flags.c,
				Seed:      flags.seed,
				Shuffle:   flags.shuffle,
				Logger:    log,
			}
			if err := os.MkdirAll(filepath.Dir(flags.output), 0o755); err != nil {
				return err
			}
			tc, err := trainTask(cmd, task, trainer, flags, log)
			if err != nil {
				return err
			}
			log.Info().Str("output", flags.output).Msg("Saved model")
			if flags.register != "" {
				return registerModel(flags.register, task, flags.output, tc)
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&flags.train, "train", "", "gold training corpus")
	f.StringVar(&flags.dev, "dev", "", "gold development corpus evaluated after every epoch")
	f.StringVar(&flags.output, "output", "", "model file, gzip compressed when it ends in .gz")
	f.StringVar(&flags.register, "register", "", "model directory whose config.yaml receives the trained task")
	f.IntVar(&flags.epochs, "epochs", 10, "training epochs")
	f.StringVar(&flags.algorithm, "algorithm", string(perceptron.AveragedPerceptron), "ap or pa")
	f.Float64Var(&flags.c, "c", 1, "passive aggressive aggressiveness")
	f.Int64Var(&flags.seed, "seed", 1, "shuffle seed")
	f.BoolVar(&flags.shuffle, "shuffle", true, "shuffle examples every epoch")
	f.Float64Var(&flags.compress, "compress", 0, "drop features whose weights are all below this magnitude")
	f.IntVar(&flags.beamSize, "beam", pos.DefaultBeamSize, "pos beam size")
	f.StringVar(&flags.mode, "mode", types.SDPModeGraph, "sdp decoding mode: graph, tree or mix")
	f.StringSliceVar(&flags.predicateTags, "predicate-tags", srl.DefaultPredicateTags, "srl predicate pos tags")
	_ = cmd.MarkFlagRequired("train")
	_ = cmd.MarkFlagRequired("output")
	return cmd
}

func compress(m *perceptron.Model, threshold float64, log zerolog.Logger) {
	if threshold <= 0 {
		return
	}
	removed := m.Compress(threshold)
	log.Info().Int("removed", removed).Int("features", m.NumFeatures()).Msg("Compressed model")
}

// trainTask trains, evaluates and saves one model and returns its config entry.
func trainTask(cmd *cobra.Command, task types.Task, trainer *perceptron.Trainer, flags trainFlags, log zerolog.Logger) (types.TaskConfig, error) {
	ctx := cmd.Context()
	tc := types.TaskConfig{}

	switch task {
	case types.TaskCWS:
		train, err := readCorpus(flags.train, cws.ReadCorpus)
		if err != nil {
			return tc, err
		}
		dev, err := readCorpus(flags.dev, cws.ReadCorpus)
		if err != nil {
			return tc, err
		}
		m, err := cws.Train(ctx, trainer, train, dev)
		if err != nil {
			return tc, err
		}
		compress(m, flags.compress, log)
		if len(dev) > 0 {
			seg, err := cws.New(m, false)
			if err != nil {
				return tc, err
			}
			log.Info().Str("f1", cws.Evaluate(seg, dev).String()).Msg("Development score")
		}
		return tc, m.Save(flags.output)

	case types.TaskPOS:
		train, err := readCorpus(flags.train, pos.ReadCorpus)
		if err != nil {
			return tc, err
		}
		dev, err := readCorpus(flags.dev, pos.ReadCorpus)
		if err != nil {
			return tc, err
		}
		m, err := pos.Train(ctx, trainer, train, dev, flags.beamSize)
		if err != nil {
			return tc, err
		}
		compress(m, flags.compress, log)
		tc.BeamSize = flags.beamSize
		return tc, m.Save(flags.output)

	case types.TaskNER:
		train, err := readCorpus(flags.train, ner.ReadCorpus)
		if err != nil {
			return tc, err
		}
		dev, err := readCorpus(flags.dev, ner.ReadCorpus)
		if err != nil {
			return tc, err
		}
		m, err := ner.Train(ctx, trainer, train, dev)
		if err != nil {
			return tc, err
		}
		compress(m, flags.compress, log)
		return tc, m.Save(flags.output)

	case types.TaskSRL:
		train, err := readCorpus(flags.train, srl.ReadCorpus)
		if err != nil {
			return tc, err
		}
		dev, err := readCorpus(flags.dev, srl.ReadCorpus)
		if err != nil {
			return tc, err
		}
		m, err := srl.Train(ctx, trainer, train, dev, flags.predicateTags)
		if err != nil {
			return tc, err
		}
		compress(m, flags.compress, log)
		tc.PredicateTags = flags.predicateTags
		return tc, m.Save(flags.output)

	case types.TaskDEP, types.TaskSDP:
		train, err := readCorpus(flags.train, parser.ReadCoNLL)
		if err != nil {
			return tc, err
		}
		dev, err := readCorpus(flags.dev, parser.ReadCoNLL)
		if err != nil {
			return tc, err
		}
		var m *parser.Model
		if task == types.TaskDEP {
			m, err = parser.TrainDependency(ctx, trainer, train, dev)
		} else {
			if _, err = parser.ParseMode(flags.mode); err != nil {
				return tc, err
			}
			tc.Mode = flags.mode
			m, err = parser.TrainSemantic(ctx, trainer, train, dev)
		}
		if err != nil {
			return tc, err
		}
		compress(m.Arcs, flags.compress, log)
		compress(m.Relations, flags.compress, log)
		return tc, m.Save(flags.output)
	}
	return tc, fmt.Errorf("%w: %q", types.ErrUnknownTask, task)
}

// registerModel adds the trained task to the config.yaml of dir, creating it when missing.
func registerModel(dir string, task types.Task, output string, tc types.TaskConfig) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	cfg, err := types.LoadModelConfig(dir)
	if errors.Is(err, os.ErrNotExist) {
		cfg = &types.ModelConfig{
			Name:    ltp.LegacyModel,
			Backend: types.BackendLegacy,
			Dir:     dir,
		}
	} else if err != nil {
		return err
	}
	if cfg.Tasks == nil {
		cfg.Tasks = make(map[types.Task]types.TaskConfig)
	}

	absDir, err := filepath.Abs(dir)
	if err != nil {
		return err
	}
	absOutput, err := filepath.Abs(output)
	if err != nil {
		return err
	}
	tc.Model, err = filepath.Rel(absDir, absOutput)
	if err != nil {
		tc.Model = absOutput
	}
	cfg.Tasks[task] = tc
	if err := cfg.Validate(); err != nil {
		return err
	}
	return cfg.Save(dir)
}
