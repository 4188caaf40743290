package merger

import (
	"strconv"
	"strings"
	"time"

	"vidbatch/internal/progress"
)

// ProgressState accumulates key=value lines from ffmpeg's -progress output
// until a "progress=" marker closes the block.
type ProgressState struct {
	OutTimeUs int64 // ffmpeg's out_time_ms is in microseconds despite the name
	Speed     string
	TotalSize int64
}

// UpdateFromLine feeds one line. It returns an update when a block ends.
func (ps *ProgressState) UpdateFromLine(line, jobID string, duration time.Duration) (progress.Update, bool) {
	key, val, found := strings.Cut(line, "=")
	if !found {
		return progress.Update{}, false
	}
	key = strings.TrimSpace(key)
	val = strings.TrimSpace(val)

	switch key {
	case "out_time_ms", "out_time_us":
		if v, err := strconv.ParseInt(val, 10, 64); err == nil {
			ps.OutTimeUs = v
		}
	case "speed":
		ps.Speed = val
	case "total_size":
		if v, err := strconv.ParseInt(val, 10, 64); err == nil {
			ps.TotalSize = v
		}
	case "progress":
		percent := -1.0
		if duration > 0 {
			percent = float64(ps.OutTimeUs) / float64(duration.Microseconds()) * 100
			if percent > 100 {
				percent = 100
			}
			if percent < 0 {
				percent = 0
			}
		}
		if val == "end" {
			percent = 100
		}
		return progress.Update{
			JobID:   jobID,
			Stage:   progress.StageMerging,
			Percent: percent,
			Done:    ps.TotalSize,
			Speed:   ps.Speed,
			Message: "Merging",
		}, true
	}
	return progress.Update{}, false
}
