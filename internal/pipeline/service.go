// Package pipeline runs a batch of video references through resolve, select,
// download and merge, one item at a time.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"vidbatch/internal/merger"
	"vidbatch/internal/model"
	"vidbatch/internal/progress"
	"vidbatch/internal/selector"
	"vidbatch/internal/util"
	"vidbatch/internal/util/format"
	"vidbatch/internal/util/media"
)

// Service is the batch orchestrator.
type Service struct {
	backend  Backend
	merger   Merger
	opts     model.BatchOptions
	retry    RetryConfig
	reporter progress.Reporter
	log      *logrus.Entry
	runID    string
	sleep    func(ctx context.Context, d time.Duration) error
}

// Option configures a Service.
type Option func(*Service)

// WithBackend sets the metadata and stream backend.
func WithBackend(b Backend) Option {
	return func(s *Service) { s.backend = b }
}

// WithMerger sets the track merger used for split plans.
func WithMerger(m Merger) Option {
	return func(s *Service) { s.merger = m }
}

// WithBatchOptions sets run-level options.
func WithBatchOptions(o model.BatchOptions) Option {
	return func(s *Service) { s.opts = o }
}

// WithRetryConfig replaces the retry policy. MaxAttempts and BaseDelay from
// the batch options still take precedence when set.
func WithRetryConfig(c RetryConfig) Option {
	return func(s *Service) { s.retry = c }
}

// WithReporter attaches a progress reporter.
func WithReporter(rp progress.Reporter) Option {
	return func(s *Service) { s.reporter = rp }
}

// WithLogger sets the structured logger.
func WithLogger(l *logrus.Entry) Option {
	return func(s *Service) { s.log = l }
}

// WithRunID sets the batch run ID attached to log lines.
func WithRunID(id string) Option {
	return func(s *Service) { s.runID = id }
}

// WithSleep replaces the inter-item wait (tests).
func WithSleep(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(s *Service) { s.sleep = fn }
}

// NewService constructs a Service, filling defaults for anything unset.
func NewService(opts ...Option) *Service {
	s := &Service{
		opts:  model.DefaultBatchOptions(),
		retry: DefaultRetryConfig(),
	}
	for _, o := range opts {
		o(s)
	}
	if s.opts.MaxAttempts > 0 {
		s.retry.MaxAttempts = s.opts.MaxAttempts
	}
	if s.opts.RetryBaseDelay > 0 {
		s.retry.BaseDelay = s.opts.RetryBaseDelay
	}
	if s.opts.Mode == "" {
		s.opts.Mode = model.ModeVideoAudio
	}
	if s.opts.OutDir == "" {
		s.opts.OutDir = "."
	}
	if s.reporter == nil {
		s.reporter = progress.Nop{}
	}
	if s.runID == "" {
		s.runID = uuid.NewString()
	}
	if s.log == nil {
		s.log = logrus.NewEntry(logrus.StandardLogger())
	}
	s.log = s.log.WithField("run", shortID(s.runID))
	if s.sleep == nil {
		s.sleep = sleepContext
	}
	return s
}

// RunID returns the batch run identifier.
func (s *Service) RunID() string { return s.runID }

// ItemResult is the outcome of one video reference.
type ItemResult struct {
	Index      int
	URL        string
	Title      string
	State      progress.Stage // done, skipped or failed
	Job        *model.DownloadJob
	OutputPath string
	Bytes      int64
	Err        error
}

// Summary aggregates a batch run.
type Summary struct {
	RunID     string
	Total     int
	Completed int
	Skipped   int
	Failed    int
	Results   []ItemResult
}

// HasFailures reports whether any item failed.
func (s Summary) HasFailures() bool { return s.Failed > 0 }

func (s *Summary) add(r ItemResult) {
	s.Results = append(s.Results, r)
	switch r.State {
	case progress.StageDone:
		s.Completed++
	case progress.StageSkipped:
		s.Skipped++
	default:
		s.Failed++
	}
}

// RunBatch processes urls strictly in order. Item failures are logged and
// recorded; the loop always moves on. A fixed delay separates successive
// items. The returned error is non-nil only when ctx is cancelled.
func (s *Service) RunBatch(ctx context.Context, urls []string) (Summary, error) {
	sum := Summary{RunID: s.runID, Total: len(urls)}
	s.log.WithFields(logrus.Fields{"items": len(urls), "mode": s.opts.Mode, "out": s.opts.OutDir}).
		Info("Starting batch")

	for i, url := range urls {
		s.reporter.Update(progress.Update{
			JobID: jobID(i + 1), Index: i + 1, Total: len(urls), URL: url,
			Stage: progress.StagePending, Percent: -1, Message: "Queued",
		})
	}

	for i, url := range urls {
		res := s.RunItem(ctx, i+1, len(urls), url)
		sum.add(res)

		if err := ctx.Err(); err != nil {
			return sum, err
		}
		if i < len(urls)-1 && s.opts.Delay > 0 {
			s.log.Debugf("Waiting %s before next item", s.opts.Delay)
			if err := s.sleep(ctx, s.opts.Delay); err != nil {
				return sum, err
			}
		}
	}

	s.log.WithFields(logrus.Fields{
		"completed": sum.Completed, "skipped": sum.Skipped, "failed": sum.Failed,
	}).Info("Batch finished")
	return sum, nil
}

// RunItem takes one video reference from pending to a terminal state.
func (s *Service) RunItem(ctx context.Context, index, total int, rawURL string) ItemResult {
	it := &item{
		svc:   s,
		res:   ItemResult{Index: index, URL: rawURL},
		id:    jobID(index),
		total: total,
		log:   s.log.WithFields(logrus.Fields{"job": jobID(index), "item": fmt.Sprintf("%d/%d", index, total), "url": rawURL}),
	}

	if err := it.run(ctx); err != nil {
		it.fail(err)
	}
	return it.res
}

// item carries the state of one RunItem call.
type item struct {
	svc   *Service
	res   ItemResult
	id    string
	total int
	log   *logrus.Entry
}

func (it *item) update(u progress.Update) {
	u.JobID = it.id
	u.Index = it.res.Index
	u.Total = it.total
	u.URL = it.res.URL
	it.svc.reporter.Update(u)
}

func (it *item) stage(st progress.Stage, msg string) {
	it.update(progress.Update{Stage: st, Percent: -1, Message: msg})
	it.log.WithField("state", st).Debug(msg)
}

func (it *item) run(ctx context.Context) error {
	s := it.svc
	if s.backend == nil {
		return model.NewItemError(it.res.URL, "resolve", fmt.Errorf("%w: no backend configured", model.ErrConfiguration))
	}
	u, err := util.ParseURL(it.res.URL)
	if err == nil && !s.opts.AnyHost {
		_, u, err = util.DetectPlatform(it.res.URL)
	}
	if err != nil {
		return model.NewItemError(it.res.URL, "resolve", fmt.Errorf("%w: %v", model.ErrConfiguration, err))
	}
	url := u.String()
	it.res.URL = url

	it.stage(progress.StageResolving, "Resolving")
	info, err := withRetry(ctx, it, "resolve", func(ctx context.Context) (model.VideoInfo, error) {
		return s.backend.BasicInfo(ctx, url)
	})
	if err != nil {
		return model.NewItemError(url, "resolve", err)
	}
	it.res.Title = info.Title
	it.log = it.log.WithField("title", info.Title)
	it.log.WithField("duration", format.Duration(info.Duration)).Info("Resolved")

	base := media.BasePath(s.opts.OutDir, info.Title)
	if existing, ok := media.FindExisting(base, selector.Extensions(s.opts.Mode)); ok {
		it.skip(existing)
		return nil
	}

	md, err := withRetry(ctx, it, "resolve", func(ctx context.Context) (model.VideoMetadata, error) {
		return s.backend.FullInfo(ctx, url)
	})
	if err != nil {
		return model.NewItemError(url, "resolve", err)
	}

	it.stage(progress.StageSelecting, "Selecting format")
	plan, err := selector.Select(md.Streams, s.opts.Mode)
	if err != nil {
		return model.NewItemError(url, "select", err)
	}
	job := buildJob(url, s.opts.Mode, base, plan)
	if err := job.Validate(); err != nil {
		return model.NewItemError(url, "select", err)
	}
	it.res.Job = &job
	it.res.OutputPath = job.OutputPath

	if s.opts.DryRun {
		it.done(0, "Planned")
		return nil
	}
	if job.Split() && s.merger == nil {
		return model.NewItemError(url, "merge", fmt.Errorf("%w: ffmpeg is required to merge split tracks", model.ErrConfiguration))
	}
	if err := util.EnsureDir(s.opts.OutDir); err != nil {
		return model.NewItemError(url, "download", fmt.Errorf("%w: %v", model.ErrTransfer, err))
	}

	if !job.Split() {
		part := media.TrackPath(base, "part", job.Single.Container)
		if err := it.fetchSingle(ctx, *job.Single, part, job.OutputPath); err != nil {
			return model.NewItemError(url, "download", err)
		}
		it.done(util.FileSize(job.OutputPath), "Saved")
		return nil
	}

	if err := it.fetch(ctx, *job.Video, job.VideoPath, "video"); err != nil {
		return model.NewItemError(url, "download", err)
	}
	if err := it.fetch(ctx, *job.Audio, job.AudioPath, "audio"); err != nil {
		return model.NewItemError(url, "download", err)
	}

	it.stage(progress.StageMerging, "Merging")
	err = s.merger.Merge(ctx, merger.Request{
		JobID:      it.id,
		VideoPath:  job.VideoPath,
		AudioPath:  job.AudioPath,
		OutputPath: job.OutputPath,
		Duration:   md.Duration,
	}, func(u progress.Update) { it.update(u) })
	if err != nil {
		return model.NewItemError(url, "merge", err)
	}
	it.done(util.FileSize(job.OutputPath), "Saved")
	return nil
}

// fetchSingle downloads to a side file and renames on success, so an
// interrupted transfer never looks like a finished file to the
// existing-output check.
func (it *item) fetchSingle(ctx context.Context, stream model.StreamDescriptor, part, dest string) error {
	if err := it.fetch(ctx, stream, part, ""); err != nil {
		_ = util.RemoveIfExists(part)
		return err
	}
	if err := os.Rename(part, dest); err != nil {
		return fmt.Errorf("%w: %v", model.ErrTransfer, err)
	}
	return nil
}

func (it *item) fetch(ctx context.Context, stream model.StreamDescriptor, dest, track string) error {
	op, msg := "download", "Downloading"
	if track != "" {
		op += " " + track
		msg += " " + track
	}
	it.update(progress.Update{Stage: progress.StageDownloading, Track: track, Percent: -1, Size: stream.Size, Message: msg})
	it.log.WithFields(logrus.Fields{"state": progress.StageDownloading, "stream": stream.String()}).Info(msg)

	_, err := withRetry(ctx, it, op, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, it.svc.backend.Fetch(ctx, it.res.URL, stream, dest, func(done, total int64) {
			if total <= 0 {
				total = stream.Size
			}
			it.update(progress.Update{
				Stage:   progress.StageDownloading,
				Track:   track,
				Percent: progress.Percent(done, total),
				Done:    done,
				Size:    total,
				Message: msg,
			})
		})
	})
	return err
}

// withRetry runs fn under the service retry policy, logging each retry
// against the item.
func withRetry[T any](ctx context.Context, it *item, op string, fn func(ctx context.Context) (T, error)) (T, error) {
	cfg := it.retryConfig(op)
	return RetryWithBackoff(ctx, fn, cfg.MaxAttempts, cfg.BaseDelay, WithPolicy(cfg))
}

func (it *item) retryConfig(op string) RetryConfig {
	cfg := it.svc.retry
	prev := cfg.OnRetry
	cfg.OnRetry = func(attempt int, err error, wait time.Duration) {
		it.log.WithError(err).WithFields(logrus.Fields{"attempt": attempt, "wait": wait.Round(time.Millisecond)}).
			Warnf("%s failed, retrying", op)
		if prev != nil {
			prev(attempt, err, wait)
		}
	}
	return cfg
}

func (it *item) skip(existing string) {
	it.res.State = progress.StageSkipped
	it.res.OutputPath = existing
	it.res.Bytes = util.FileSize(existing)
	it.update(progress.Update{Stage: progress.StageSkipped, Percent: 100, Message: "Already downloaded"})
	it.log.WithField("file", existing).Info("Already downloaded, skipping")
	it.svc.reporter.Result(progress.Result{
		JobID: it.id, Index: it.res.Index, URL: it.res.URL, Title: it.res.Title,
		OutputPath: existing, Bytes: it.res.Bytes, Skipped: true,
	})
}

func (it *item) done(size int64, verb string) {
	it.res.State = progress.StageDone
	it.res.Bytes = size
	msg := fmt.Sprintf("%s: %s", verb, it.res.OutputPath)
	if size > 0 {
		msg = fmt.Sprintf("%s (%s)", msg, format.HumanizeBytes(size))
	}
	it.update(progress.Update{Stage: progress.StageDone, Percent: 100, Done: size, Message: msg})
	it.log.WithField("state", progress.StageDone).Info(msg)
	it.svc.reporter.Result(progress.Result{
		JobID: it.id, Index: it.res.Index, URL: it.res.URL, Title: it.res.Title,
		OutputPath: it.res.OutputPath, Bytes: size,
	})
}

func (it *item) fail(err error) {
	it.res.State = progress.StageFailed
	it.res.Err = err
	it.update(progress.Update{Stage: progress.StageFailed, Percent: -1, Message: err.Error()})
	entry := it.log.WithError(err).WithField("state", progress.StageFailed)
	switch {
	case errors.Is(err, context.Canceled):
		entry.Warn("Interrupted")
	case errors.Is(err, model.ErrAuthentication):
		entry.Error("Authentication required: sign in to the site in your browser and retry")
	default:
		entry.Error("Item failed, continuing")
	}
	it.svc.reporter.Result(progress.Result{
		JobID: it.id, Index: it.res.Index, URL: it.res.URL, Title: it.res.Title, Err: err,
	})
}

// buildJob derives output and temporary paths for a selection plan.
func buildJob(url string, mode model.Mode, base string, plan selector.Plan) model.DownloadJob {
	job := model.DownloadJob{URL: url, Mode: mode}
	if plan.Split() {
		p := media.SplitPaths(base, plan.Video.Container, plan.Audio.Container,
			selector.MergedContainer(plan.Video.Container, plan.Audio.Container))
		job.Video, job.Audio = plan.Video, plan.Audio
		job.OutputPath, job.VideoPath, job.AudioPath = p.Output, p.Video, p.Audio
		return job
	}
	job.Single = plan.Single
	job.OutputPath = media.SinglePaths(base, plan.Single.Container).Output
	return job
}

func jobID(index int) string {
	return strconv.Itoa(index)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
