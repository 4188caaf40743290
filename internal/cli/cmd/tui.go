package cmd

import (
	"github.com/spf13/cobra"
)

func newTuiCmd() *cobra.Command {
	return &cobra.Command{
		Use:           "tui [urls...]",
		Short:         "Run the batch with an interactive progress view",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExecute(cmd, args, runMode{TUI: true})
		},
	}
}
