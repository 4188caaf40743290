// Package ui is the interactive bubbletea front end for a batch run.
package ui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"

	"vidbatch/internal/pipeline"
	"vidbatch/internal/progress"
)

// BatchFunc runs the batch with the given reporter attached.
type BatchFunc func(ctx context.Context, rep progress.Reporter) (pipeline.Summary, error)

// Run shows the TUI while batch processes urls. It returns once the batch
// has finished or was cancelled from the keyboard. Item log lines written to
// logger also appear in the item's row (toggle with "l").
func Run(ctx context.Context, urls []string, logger *logrus.Logger, batch BatchFunc) (pipeline.Summary, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	prog := tea.NewProgram(NewModel(urls, cancel))
	if logger != nil {
		logger.AddHook(logHook{send: prog.Send})
	}

	type outcome struct {
		sum pipeline.Summary
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		sum, err := batch(ctx, teaReporter{send: prog.Send})
		done <- outcome{sum: sum, err: err}
		prog.Send(batchDoneMsg{Summary: sum, Err: err})
	}()

	if _, err := prog.Run(); err != nil {
		cancel()
		<-done
		return pipeline.Summary{}, err
	}
	// A forced quit leaves the batch running; stop it and wait.
	cancel()
	out := <-done
	return out.sum, out.err
}
