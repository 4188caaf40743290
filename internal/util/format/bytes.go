package format

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
)

// HumanizeBytes converts a byte count into a human-readable string (e.g., "1.5 MiB").
func HumanizeBytes(b int64) string {
	if b < 0 {
		b = 0
	}
	return humanize.IBytes(uint64(b))
}

// ParseBytes parses sizes as printed by yt-dlp ("10.00MiB", "~1.2GiB").
func ParseBytes(s string) (int64, error) {
	if len(s) > 0 && s[0] == '~' {
		s = s[1:]
	}
	n, err := humanize.ParseBytes(s)
	if err != nil {
		return 0, err
	}
	return int64(n), nil
}

// Duration renders a video length as H:MM:SS or M:SS.
func Duration(d time.Duration) string {
	secs := int(d.Round(time.Second) / time.Second)
	h, m, s := secs/3600, (secs%3600)/60, secs%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}
