package main

import (
	"encoding/json"
	"strings"

	"github.com/spf13/cobra"

	"ltp.dev/ltpgo/logger"
	"ltp.dev/ltpgo/ltp"
	"ltp.dev/ltpgo/types"
	"ltp.dev/ltpgo/utils"
)

func newPredictCmd() *cobra.Command {
	model := modelFlags{name: ltp.LegacyModel}
	var (
		taskNames []string
		words     []string
		wordFreq  int
		pretok    bool
	)
	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Analyze stdin lines and print the output as JSON",
		Long: `predict reads one sentence per line from stdin and prints a single JSON
object with one field per requested task. With --pretokenized every line is
a whitespace separated list of words.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			log := logger.NewLogger("Predict")
			tasks, err := types.ParseTasks(taskNames)
			if err != nil {
				return err
			}
			lines, err := utils.ReadLines(cmd.InOrStdin())
			if err != nil {
				return err
			}

			l, err := model.open(cmd.Context(), log)
			if err != nil {
				return err
			}
			defer l.Close()
			if len(words) > 0 {
				if err := l.AddWords(words, wordFreq); err != nil {
					return err
				}
			}

			var out *types.Output
			if pretok {
				inputs := make([][]string, len(lines))
				for i, line := range lines {
					inputs[i] = strings.Fields(line)
				}
				out, err = l.PipelineWords(cmd.Context(), inputs, tasks...)
			} else {
				out, err = l.Pipeline(cmd.Context(), lines, tasks...)
			}
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetEscapeHTML(false)
			return enc.Encode(out)
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&model.name, "model", model.name, "model name or directory")
	flags.StringVar(&model.home, "model-home", "", "model home directory, defaults to $LTP_MODEL_HOME")
	flags.StringVar(&model.lexicon, "lexicon", "", "sqlite file with custom words")
	flags.IntVar(&model.workers, "workers", 0, "sentences analyzed in parallel, defaults to the number of CPUs")
	flags.IntVar(&model.cacheSize, "cache-size", ltp.DefaultCacheSize, "cached sentence results")
	flags.StringSliceVar(&taskNames, "tasks", nil, "tasks to run, defaults to every task of the model")
	flags.StringSliceVar(&words, "word", nil, "custom words for the segmenter")
	flags.IntVar(&wordFreq, "word-freq", 1, "frequency of the custom words")
	flags.BoolVar(&pretok, "pretokenized", false, "lines are whitespace separated words")
	return cmd
}
