// Package merger muxes a video-only and an audio-only file into one container
// with ffmpeg, copying both streams.
package merger

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"vidbatch/internal/model"
	"vidbatch/internal/progress"
	"vidbatch/internal/util"
)

// Request describes one merge.
type Request struct {
	JobID      string
	VideoPath  string
	AudioPath  string
	OutputPath string
	Duration   time.Duration // used for percent; zero means unknown
}

// Merger runs ffmpeg through a CmdRunner.
type Merger struct {
	ffmpegPath string
	log        *logrus.Entry
	runner     util.CmdRunner
}

// Option configures a Merger.
type Option func(*Merger)

// WithRunner replaces the process runner (tests use a fake).
func WithRunner(r util.CmdRunner) Option {
	return func(m *Merger) { m.runner = r }
}

// WithLogger sets where the ffmpeg command line and diagnostics are
// logged, at debug level.
func WithLogger(l *logrus.Entry) Option {
	return func(m *Merger) { m.log = l }
}

// New creates a Merger for the given ffmpeg binary.
func New(ffmpegPath string, opts ...Option) *Merger {
	m := &Merger{ffmpegPath: ffmpegPath, runner: util.NewDefaultRunner()}
	for _, o := range opts {
		o(m)
	}
	if m.log == nil {
		m.log = logrus.NewEntry(logrus.StandardLogger())
	}
	return m
}

// Merge muxes req.VideoPath and req.AudioPath into req.OutputPath.
//
// On success both inputs are deleted. On failure the partial output is
// removed and the inputs are left in place so the tracks are not lost.
func (m *Merger) Merge(ctx context.Context, req Request, report func(progress.Update)) error {
	if m.ffmpegPath == "" {
		return fmt.Errorf("%w: ffmpeg path is required", model.ErrConfiguration)
	}
	if req.VideoPath == "" || req.AudioPath == "" || req.OutputPath == "" {
		return fmt.Errorf("%w: merge requires video, audio and output paths", model.ErrConfiguration)
	}
	if err := util.EnsureDir(filepath.Dir(req.OutputPath)); err != nil {
		return fmt.Errorf("ensure output dir: %w", err)
	}

	var ps ProgressState
	args := BuildArgs(req.VideoPath, req.AudioPath, req.OutputPath, true)
	m.log.Debugf("+ %s", util.CommandLine(m.ffmpegPath, args))
	res, runErr := m.runner.Run(ctx, util.CmdSpec{
		Path: m.ffmpegPath,
		Args: args,
		StderrLine: func(line string) {
			m.log.WithField("tool", "ffmpeg").Debug(line)
		},
		StdoutLine: func(line string) {
			if u, ok := ps.UpdateFromLine(line, req.JobID, req.Duration); ok && report != nil {
				report(u)
			}
		},
	})
	if runErr != nil {
		_ = util.RemoveIfExists(req.OutputPath)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: ffmpeg exit %d: %s", model.ErrMerge, res.Code, lastLine(res.Stderr))
	}
	if !util.NonEmptyFile(req.OutputPath) {
		_ = util.RemoveIfExists(req.OutputPath)
		return fmt.Errorf("%w: ffmpeg produced no output", model.ErrMerge)
	}

	_ = util.RemoveIfExists(req.VideoPath)
	_ = util.RemoveIfExists(req.AudioPath)
	return nil
}

func lastLine(b []byte) string {
	s := strings.TrimSpace(string(b))
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	}
	if s == "" {
		return "no diagnostics"
	}
	return s
}
