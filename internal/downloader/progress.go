package downloader

import (
	"strconv"
	"strings"
	"time"

	"vidbatch/internal/util/format"
)

// Progress is one parsed yt-dlp progress line.
type Progress struct {
	Percent float64 // <0 if unknown
	Done    int64
	Total   int64 // 0 if unknown
	Speed   string
	ETA     *time.Duration
}

// ParseProgress parses yt-dlp --newline progress output such as
//
//	[download]  45.2% of 10.00MiB at  1.50MiB/s ETA 00:04
//	[download] 100% of ~ 10.00MiB in 00:00:02 at 4.2MiB/s
func ParseProgress(line string) (p Progress, ok bool) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "[download]") {
		return Progress{}, false
	}
	rest := strings.TrimSpace(strings.TrimPrefix(line, "[download]"))

	idx := strings.Index(rest, "%")
	if idx == -1 {
		return Progress{}, false
	}
	pct, err := strconv.ParseFloat(strings.TrimSpace(rest[:idx]), 64)
	if err != nil {
		return Progress{}, false
	}
	p.Percent = pct

	if i := strings.Index(rest, " of "); i != -1 {
		sizePart := strings.TrimSpace(rest[i+4:])
		sizePart = strings.TrimSpace(strings.TrimPrefix(sizePart, "~"))
		if j := strings.Index(sizePart, " "); j != -1 {
			sizePart = sizePart[:j]
		}
		if n, err := format.ParseBytes(sizePart); err == nil {
			p.Total = n
			p.Done = int64(float64(p.Total) * pct / 100)
		}
	}

	if i := strings.Index(rest, " at "); i != -1 {
		speedPart := strings.TrimSpace(rest[i+4:])
		if j := strings.Index(speedPart, " "); j != -1 {
			speedPart = speedPart[:j]
		}
		if speedPart != "" && speedPart != "Unknown" {
			p.Speed = speedPart
		}
	}

	if i := strings.Index(rest, "ETA "); i != -1 {
		etaStr := strings.TrimSpace(rest[i+4:])
		if j := strings.Index(etaStr, " "); j != -1 {
			etaStr = etaStr[:j]
		}
		if d, err := parseETA(etaStr); err == nil {
			p.ETA = &d
		}
	}
	return p, true
}

// parseETA parses "SS", "MM:SS" or "HH:MM:SS".
func parseETA(s string) (time.Duration, error) {
	var total time.Duration
	parts := strings.Split(s, ":")
	if len(parts) > 3 {
		return 0, strconv.ErrSyntax
	}
	for _, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil {
			return 0, err
		}
		total = total*60 + time.Duration(n)
	}
	return total * time.Second, nil
}
