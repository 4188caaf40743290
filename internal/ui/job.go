package ui

import (
	bubblesprogress "github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"

	"vidbatch/internal/progress"
)

const logRingSize = 200

type jobState struct {
	id     string
	url    string
	title  string
	stage  progress.Stage
	track  string
	status string
	err    error
	done   bool

	outputPath string
	bytes      int64
	percent    float64 // -1 means unknown

	spinner spinner.Model
	bar     bubblesprogress.Model

	logsRing []string
}

func newJobState(id, url string, styles Styles) *jobState {
	sp := spinner.New()
	sp.Style = styles.Spinner
	return &jobState{
		id:      id,
		url:     url,
		stage:   progress.StagePending,
		status:  "Queued",
		percent: -1,
		spinner: sp,
		bar: bubblesprogress.New(
			bubblesprogress.WithDefaultGradient(),
			bubblesprogress.WithWidth(40),
		),
	}
}

func (js *jobState) apply(u progress.Update) {
	if js.done {
		return
	}
	js.stage = u.Stage
	js.track = u.Track
	js.percent = u.Percent
	if u.Message != "" {
		js.status = u.Message
	}
	if u.Done > 0 {
		js.bytes = u.Done
	}
}

func (js *jobState) appendLog(line string) {
	if len(js.logsRing) >= logRingSize {
		js.logsRing = js.logsRing[1:]
	}
	js.logsRing = append(js.logsRing, line)
}

func (js *jobState) finish(r progress.Result) {
	js.done = true
	js.err = r.Err
	if r.Title != "" {
		js.title = r.Title
	}
	switch {
	case r.Err != nil:
		js.stage = progress.StageFailed
		js.status = r.Err.Error()
		js.percent = -1
	case r.Skipped:
		js.stage = progress.StageSkipped
		js.outputPath = r.OutputPath
		js.bytes = r.Bytes
		js.percent = -1
	default:
		js.stage = progress.StageDone
		js.outputPath = r.OutputPath
		js.bytes = r.Bytes
		js.percent = -1
	}
}
