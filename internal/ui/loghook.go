package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"

	"vidbatch/internal/progress"
)

// logHook mirrors log entries that belong to an item into that item's row.
type logHook struct {
	send func(tea.Msg)
}

func (h logHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (h logHook) Fire(e *logrus.Entry) error {
	job, ok := e.Data["job"].(string)
	if !ok {
		return nil
	}
	line := e.Message
	if err, ok := e.Data[logrus.ErrorKey].(error); ok {
		line += ": " + err.Error()
	}
	stream := progress.StreamStdout
	if e.Level <= logrus.WarnLevel {
		stream = progress.StreamStderr
	}
	h.send(jobLogMsg{L: progress.Log{JobID: job, Stream: stream, Line: line}})
	return nil
}
