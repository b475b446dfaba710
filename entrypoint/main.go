package main

import (
	"os"

	"github.com/spf13/cobra"

	"ltp.dev/ltpgo/logger"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "ltp",
		Short: "Chinese language technology platform",
		Long: `ltp segments, tags, recognizes entities, labels semantic roles and
parses dependencies of Chinese text with legacy perceptron models.`,
		SilenceUsage: true,
	}
	root.AddCommand(
		newServeCmd(),
		newPredictCmd(),
		newSplitCmd(),
		newTrainCmd(),
		newVersionCmd(),
	)
	return root
}

func main() {
	logger.SetupLogging()
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
