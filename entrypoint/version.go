package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"ltp.dev/ltpgo/ltp"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the ltp version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), ltp.Version)
			return err
		},
	}
}
