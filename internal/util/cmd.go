package util

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"

	"github.com/alessio/shellescape"
)

// yt-dlp --dump-json prints the whole document on one line, often past 1 MiB.
const maxLine = 8 << 20

// CmdRunner runs subprocesses. Components take one so tests can fake tools.
type CmdRunner interface {
	Run(ctx context.Context, spec CmdSpec) (CmdResult, error)
}

// DefaultRunner executes real processes via Run.
type DefaultRunner struct{}

// NewDefaultRunner returns the exec-backed runner.
func NewDefaultRunner() DefaultRunner {
	return DefaultRunner{}
}

// Run implements CmdRunner.
func (DefaultRunner) Run(ctx context.Context, spec CmdSpec) (CmdResult, error) {
	return Run(ctx, spec)
}

// CmdSpec describes one external tool invocation.
type CmdSpec struct {
	Path string
	Args []string
	Env  []string // appended to the inherited environment
	Dir  string

	// Line callbacks run on the reader goroutines, in output order per stream.
	StdoutLine func(string)
	StderrLine func(string)

	// CaptureStdout buffers stdout into the result even when StdoutLine is set.
	CaptureStdout bool
}

// CmdResult holds captured output and the exit status.
type CmdResult struct {
	Stdout []byte
	Stderr []byte
	Code   int // -1 when the process could not be started or was killed
	Err    error
}

// Run executes spec and waits for it. Stderr is always captured. A non-zero
// exit returns an error as well as the populated result.
func Run(ctx context.Context, spec CmdSpec) (CmdResult, error) {
	cmd := exec.CommandContext(ctx, spec.Path, spec.Args...)
	cmd.Dir = spec.Dir
	if spec.Env != nil {
		cmd.Env = append(os.Environ(), spec.Env...)
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return CmdResult{Code: -1, Err: err}, err
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return CmdResult{Code: -1, Err: err}, err
	}
	if err := cmd.Start(); err != nil {
		return CmdResult{Code: -1, Err: err}, fmt.Errorf("start %s: %w", spec.Path, err)
	}

	var (
		outBuf, errBuf bytes.Buffer
		wg             sync.WaitGroup
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		capture := spec.CaptureStdout || spec.StdoutLine == nil
		scanLines(stdout, spec.StdoutLine, &outBuf, capture)
	}()
	go func() {
		defer wg.Done()
		scanLines(stderr, spec.StderrLine, &errBuf, true)
	}()

	// Pipes must be drained before Wait closes them.
	wg.Wait()
	waitErr := cmd.Wait()

	res := CmdResult{Stdout: outBuf.Bytes(), Stderr: errBuf.Bytes(), Err: waitErr}
	if waitErr == nil {
		return res, nil
	}
	res.Code = -1
	var exitErr *exec.ExitError
	if errors.As(waitErr, &exitErr) {
		res.Code = exitErr.ExitCode()
	}
	return res, fmt.Errorf("command failed (exit %d): %w", res.Code, waitErr)
}

func scanLines(r io.Reader, each func(string), buf *bytes.Buffer, capture bool) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64<<10), maxLine)
	for sc.Scan() {
		line := sc.Text()
		if each != nil {
			each(line)
		}
		if capture {
			buf.WriteString(line)
			buf.WriteByte('\n')
		}
	}
	// A line over maxLine stops the scan; keep the pipe drained so the
	// process is not blocked on a full buffer.
	_, _ = io.Copy(io.Discard, r)
}

// CommandLine renders a copy-pasteable command line for logs.
func CommandLine(path string, args []string) string {
	return shellescape.QuoteCommand(append([]string{path}, args...))
}
