// Package console renders batch progress for plain terminals and pipes.
package console

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"golang.org/x/term"
)

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return f != nil && term.IsTerminal(int(f.Fd()))
}

// NewLogger builds the logger used for status lines.
func NewLogger(out io.Writer, verbose, color bool) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(out)
	l.SetFormatter(&logrus.TextFormatter{
		TimestampFormat:        "15:04:05",
		FullTimestamp:          true,
		ForceColors:            color,
		DisableColors:          !color,
		DisableLevelTruncation: true,
		PadLevelText:           true,
	})
	l.SetLevel(logrus.InfoLevel)
	if verbose {
		l.SetLevel(logrus.DebugLevel)
	}
	return l
}
