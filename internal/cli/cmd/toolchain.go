package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"vidbatch/internal/backend"
	"vidbatch/internal/config"
	"vidbatch/internal/downloader"
	"vidbatch/internal/merger"
	"vidbatch/internal/model"
	"vidbatch/internal/pipeline"
	"vidbatch/internal/util/deps"
	"vidbatch/internal/util/format"
)

// toolchain is the backend and merger a run works with.
type toolchain struct {
	backend pipeline.Backend
	merger  pipeline.Merger // nil when ffmpeg is unavailable and not needed

	downloaderPath string
	ffmpegPath     string
}

// needsMerger reports whether the run can produce split plans that must be
// merged on disk.
func needsMerger(opts model.BatchOptions) bool {
	return opts.Mode == model.ModeVideoAudio && !opts.DryRun
}

func buildToolchain(s config.Settings, opts model.BatchOptions, log *logrus.Entry) (toolchain, error) {
	var tc toolchain

	limit, err := parseLimitRate(s.LimitRate)
	if err != nil {
		return tc, &ExitError{Code: ExitCLIError, Err: err}
	}

	switch s.Backend {
	case config.BackendYTDLP:
		path, err := deps.FindDownloader(s.DLBinary)
		if err != nil {
			return tc, &ExitError{Code: ExitMissingDep, Err: err}
		}
		dlOpts := []downloader.Option{
			downloader.WithLogger(log),
			downloader.WithCookiesFromBrowser(s.CookiesFromBrowser),
		}
		if limit > 0 {
			dlOpts = append(dlOpts, downloader.WithLimitRate(strconv.FormatInt(limit, 10)))
		}
		tc.backend = downloader.New(path, dlOpts...)
		tc.downloaderPath = path
	default:
		if s.CookiesFromBrowser != "" {
			log.Warn("--cookies-from-browser only applies to --backend ytdlp; ignoring")
		}
		tc.backend = backend.NewNative(backend.WithRateLimit(limit))
	}

	ff, err := deps.FindFFmpeg(s.FFmpeg)
	switch {
	case err == nil:
		tc.ffmpegPath = ff
		tc.merger = merger.New(ff, merger.WithLogger(log))
	case needsMerger(opts):
		return tc, &ExitError{Code: ExitMissingDep, Err: err}
	default:
		log.WithError(err).Debug("ffmpeg not found; not needed for this run")
	}
	return tc, nil
}

// parseLimitRate accepts sizes like "2MB", "500KiB" or a plain byte count.
// Empty and "0" mean unlimited.
func parseLimitRate(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "0" {
		return 0, nil
	}
	n, err := format.ParseBytes(s)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: invalid --limit-rate %q", model.ErrConfiguration, s)
	}
	return n, nil
}
