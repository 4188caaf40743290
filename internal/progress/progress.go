// Package progress defines the events the batch orchestrator emits while it
// works through a list of URLs. Console and TUI front ends implement Reporter.
package progress

import "time"

// Stage identifies the step an item is in.
type Stage string

const (
	StagePending     Stage = "pending"
	StageResolving   Stage = "resolving"
	StageSelecting   Stage = "selecting"
	StageDownloading Stage = "downloading"
	StageMerging     Stage = "merging"
	StageDone        Stage = "done"
	StageSkipped     Stage = "skipped"
	StageFailed      Stage = "failed"
)

// Terminal reports whether no further updates follow this stage.
func (s Stage) Terminal() bool {
	return s == StageDone || s == StageSkipped || s == StageFailed
}

// LogStream indicates which stream produced a log line.
type LogStream int

const (
	StreamStdout LogStream = iota
	StreamStderr
)

// Update conveys progress or stage changes for one item.
// Percent is 0..100 when known; negative means unknown.
type Update struct {
	JobID string
	Index int // 1-based position in the batch
	Total int // batch size
	URL   string
	Stage Stage

	Track   string  // "video", "audio" or empty for a single stream
	Percent float64 // 0..100, or <0 if unknown

	Done  int64 // bytes received so far
	Size  int64 // total bytes, 0 if unknown
	ETA   *time.Duration
	Speed string // e.g. "2.5MiB/s"

	Message string
}

// Log is a raw output line from an external tool.
type Log struct {
	JobID  string
	Stream LogStream
	Line   string
}

// Result is emitted once per item when it reaches a terminal stage.
type Result struct {
	JobID      string
	Index      int
	URL        string
	Title      string
	OutputPath string
	Bytes      int64
	Skipped    bool
	Err        error // nil on success or skip
}

// Reporter is implemented by any observer interested in progress events.
type Reporter interface {
	Update(u Update)
	Log(l Log)
	Result(r Result)
}

// Nop discards every event.
type Nop struct{}

func (Nop) Update(Update) {}
func (Nop) Log(Log)       {}
func (Nop) Result(Result) {}

// Percent computes a percentage from byte counts; -1 when total is unknown.
func Percent(done, total int64) float64 {
	if total <= 0 {
		return -1
	}
	p := float64(done) / float64(total) * 100
	if p > 100 {
		p = 100
	}
	return p
}
