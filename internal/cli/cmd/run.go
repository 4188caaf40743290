package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"vidbatch/internal/config"
	"vidbatch/internal/console"
	"vidbatch/internal/dirs"
	"vidbatch/internal/pipeline"
	"vidbatch/internal/progress"
	"vidbatch/internal/ui"
)

type runMode struct {
	TUI  bool
	Plan bool
}

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:           "run [urls...]",
		Short:         "Download every link in order (default command)",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExecute(cmd, args, runMode{})
		},
	}
}

func runExecute(cmd *cobra.Command, args []string, mode runMode) error {
	s, err := config.Load()
	if err != nil {
		return &ExitError{Code: ExitCLIError, Err: err}
	}
	opts, err := s.BatchOptions()
	if err != nil {
		return &ExitError{Code: ExitCLIError, Err: err}
	}
	opts.DryRun = mode.Plan
	urls, err := s.URLs(args)
	if err != nil {
		return &ExitError{Code: ExitCLIError, Err: err}
	}

	runID := uuid.NewString()
	logger, closeLog, logPath := newRunLogger(runID, mode.TUI, opts.Verbose)
	defer closeLog()
	entry := logrus.NewEntry(logger)
	if s.ConfigFile != "" {
		entry.WithField("file", s.ConfigFile).Debug("Loaded config")
	}
	for _, w := range s.Warnings() {
		entry.Warn(w)
	}

	tc, err := buildToolchain(s, opts, entry)
	if err != nil {
		return err
	}

	newService := func(rep progress.Reporter) *pipeline.Service {
		svc := []pipeline.Option{
			pipeline.WithBackend(tc.backend),
			pipeline.WithBatchOptions(opts),
			pipeline.WithReporter(rep),
			pipeline.WithLogger(entry),
			pipeline.WithRunID(runID),
		}
		if tc.merger != nil {
			svc = append(svc, pipeline.WithMerger(tc.merger))
		}
		return pipeline.NewService(svc...)
	}

	var (
		sum    pipeline.Summary
		runErr error
	)
	if mode.TUI {
		sum, runErr = ui.Run(cmd.Context(), urls, logger, func(ctx context.Context, rep progress.Reporter) (pipeline.Summary, error) {
			return newService(rep).RunBatch(ctx, urls)
		})
		if logPath != "" {
			fmt.Fprintf(cmd.ErrOrStderr(), "Log: %s\n", logPath)
		}
	} else {
		rep := console.NewReporter(os.Stderr, console.IsTerminal(os.Stderr), opts.Verbose)
		sum, runErr = newService(rep).RunBatch(cmd.Context(), urls)
	}

	out := cmd.OutOrStdout()
	if mode.Plan {
		printPlan(out, sum)
	}
	printSummary(out, sum)

	if runErr != nil {
		if errors.Is(runErr, context.Canceled) {
			return &ExitError{Code: ExitCLIError, Err: errors.New("interrupted")}
		}
		return &ExitError{Code: ExitCLIError, Err: runErr}
	}
	if sum.HasFailures() && opts.FailOnError {
		return &ExitError{Code: ExitItemFailed, Err: fmt.Errorf("%d of %d item(s) failed", sum.Failed, sum.Total)}
	}
	return nil
}

// newRunLogger returns the logger for a run. While the TUI owns the
// terminal, log lines go to a per-run file instead of stderr.
func newRunLogger(runID string, tui, verbose bool) (*logrus.Logger, func(), string) {
	if !tui {
		return console.NewLogger(os.Stderr, verbose, console.IsTerminal(os.Stderr)), func() {}, ""
	}
	path, err := dirs.LogFile(runID)
	if err == nil {
		err = dirs.Ensure(filepath.Dir(path))
	}
	var f *os.File
	if err == nil {
		f, err = os.Create(path)
	}
	if err != nil {
		return console.NewLogger(io.Discard, verbose, false), func() {}, ""
	}
	return console.NewLogger(f, verbose, false), func() { _ = f.Close() }, path
}
