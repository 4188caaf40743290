package console

import (
	"fmt"
	"io"
	"math"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"

	"vidbatch/internal/progress"
)

// Reporter draws transfer bars on a terminal, or prints a line every ten
// percent when output is not a terminal. Stage changes are left to the
// logger; the reporter only renders byte and merge progress.
type Reporter struct {
	mu      sync.Mutex
	out     io.Writer
	tty     bool
	verbose bool

	bar     *progressbar.ProgressBar
	barKey  string
	lastPct map[string]int
}

// NewReporter creates a Reporter writing to out.
func NewReporter(out io.Writer, tty, verbose bool) *Reporter {
	return &Reporter{out: out, tty: tty, verbose: verbose, lastPct: map[string]int{}}
}

// Update implements progress.Reporter.
func (r *Reporter) Update(u progress.Update) {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch {
	case u.Stage == progress.StageDownloading && (u.Done > 0 || u.Size > 0):
		r.render(u, u.Track, u.Size, u.Done)
	case u.Stage == progress.StageMerging && u.Percent >= 0:
		r.render(u, "merge", 100, int64(math.Round(u.Percent)))
	default:
		r.finish()
	}
}

// Log implements progress.Reporter. Tool output is shown only when verbose.
func (r *Reporter) Log(l progress.Log) {
	if !r.verbose {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.finish()
	fmt.Fprintln(r.out, l.Line)
}

// Result implements progress.Reporter.
func (r *Reporter) Result(progress.Result) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.finish()
}

func (r *Reporter) render(u progress.Update, track string, total, done int64) {
	key := u.JobID + "/" + track
	label := fmt.Sprintf("[%d/%d]", u.Index, u.Total)
	if track != "" {
		label += " " + track
	}

	if !r.tty {
		pct := int(progress.Percent(done, total))
		if total <= 0 {
			return
		}
		step := pct / 10 * 10
		if last, ok := r.lastPct[key]; ok && step <= last {
			return
		}
		r.lastPct[key] = step
		fmt.Fprintf(r.out, "%s %3d%%\n", label, step)
		return
	}

	if key != r.barKey {
		r.finish()
		r.bar = r.newBar(total, label, track == "merge")
		r.barKey = key
	}
	if total > 0 && r.bar.GetMax64() != total {
		r.bar.ChangeMax64(total)
	}
	_ = r.bar.Set64(done)
}

func (r *Reporter) newBar(total int64, label string, percentOnly bool) *progressbar.ProgressBar {
	if total <= 0 {
		total = -1
	}
	out := r.out
	return progressbar.NewOptions64(total,
		progressbar.OptionSetDescription(label),
		progressbar.OptionSetWriter(out),
		progressbar.OptionShowBytes(!percentOnly),
		progressbar.OptionSetWidth(10),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionShowCount(),
		progressbar.OptionOnCompletion(func() { fmt.Fprint(out, "\n") }),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionFullWidth(),
		progressbar.OptionSetRenderBlankState(true),
	)
}

func (r *Reporter) finish() {
	if r.bar == nil {
		return
	}
	if !r.bar.IsFinished() {
		_ = r.bar.Finish()
	}
	r.bar = nil
	r.barKey = ""
}
