package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"ltp.dev/ltpgo/ltp"
	"ltp.dev/ltpgo/utils"
)

func newSplitCmd() *cobra.Command {
	split := ltp.NewStnSplit()
	cmd := &cobra.Command{
		Use:   "split",
		Short: "Split stdin into sentences, one per line",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			lines, err := utils.ReadLines(cmd.InOrStdin())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, sent := range split.BatchSplit(lines) {
				if _, err := fmt.Fprintln(out, sent); err != nil {
					return err
				}
			}
			return nil
		},
	}
	flags := cmd.Flags()
	flags.BoolVar(&split.UseZh, "zh", true, "split on Chinese terminators")
	flags.BoolVar(&split.UseEn, "en", true, "split on English terminators")
	flags.BoolVar(&split.BracketAsEntity, "bracket-as-entity", true, "never split inside brackets")
	flags.BoolVar(&split.ZhQuoteAsEntity, "zh-quote-as-entity", true, "never split inside Chinese quotes")
	flags.BoolVar(&split.EnQuoteAsEntity, "en-quote-as-entity", true, "never split inside English quotes")
	return cmd
}
