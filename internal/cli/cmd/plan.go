package cmd

import (
	"github.com/spf13/cobra"
)

func newPlanCmd() *cobra.Command {
	return &cobra.Command{
		Use:           "plan [urls...]",
		Short:         "Resolve and select formats without downloading",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExecute(cmd, args, runMode{Plan: true})
		},
	}
}
