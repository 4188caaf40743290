package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Mode selects which tracks a batch downloads.
type Mode string

const (
	ModeVideoAudio Mode = "video+audio"
	ModeVideoOnly  Mode = "video-only"
	ModeAudioOnly  Mode = "audio-only"
)

// Modes lists the accepted mode values in display order.
func Modes() []Mode {
	return []Mode{ModeVideoAudio, ModeVideoOnly, ModeAudioOnly}
}

// ParseMode validates a user-supplied mode string (case-insensitive).
func ParseMode(s string) (Mode, error) {
	m := Mode(strings.ToLower(strings.TrimSpace(s)))
	switch m {
	case ModeVideoAudio, ModeVideoOnly, ModeAudioOnly:
		return m, nil
	case "":
		return ModeVideoAudio, nil
	}
	return "", fmt.Errorf("%w: invalid mode %q (valid: video+audio|video-only|audio-only)", ErrConfiguration, s)
}

// StreamKind classifies an encoded stream by the tracks it carries.
type StreamKind string

const (
	KindVideoOnly StreamKind = "video-only"
	KindAudioOnly StreamKind = "audio-only"
	KindCombined  StreamKind = "combined"
)

// KindOf derives the stream kind from its capability flags.
// A stream with neither track reports an empty kind.
func KindOf(hasVideo, hasAudio bool) StreamKind {
	switch {
	case hasVideo && hasAudio:
		return KindCombined
	case hasVideo:
		return KindVideoOnly
	case hasAudio:
		return KindAudioOnly
	default:
		return ""
	}
}

// StreamDescriptor describes one encoding offered by the source platform.
type StreamDescriptor struct {
	ID           string // itag or yt-dlp format_id
	Kind         StreamKind
	Height       int    // numeric resolution label, 0 for audio-only
	QualityLabel string // e.g. "1080p60"
	Bitrate      int    // bits per second, 0 if unknown
	Container    string // file extension without dot: mp4, webm, m4a
	HasVideo     bool
	HasAudio     bool
	Size         int64 // bytes, 0 if unknown
}

// String renders a compact description used in logs and plans.
func (s StreamDescriptor) String() string {
	switch s.Kind {
	case KindAudioOnly:
		return fmt.Sprintf("%s %s %dkbps", s.ID, s.Container, s.Bitrate/1000)
	default:
		label := s.QualityLabel
		if label == "" {
			label = fmt.Sprintf("%dp", s.Height)
		}
		return fmt.Sprintf("%s %s %s (%s)", s.ID, s.Container, label, s.Kind)
	}
}

// VideoInfo is the basic metadata needed before any stream is chosen.
type VideoInfo struct {
	ID       string
	Title    string
	Author   string
	Duration time.Duration
}

// VideoMetadata is the full metadata of one remote item, including streams.
type VideoMetadata struct {
	VideoInfo
	Streams []StreamDescriptor
}

// DownloadJob is the resolved plan for one video reference. It holds either
// a single combined stream or a video-only + audio-only pair to be merged.
type DownloadJob struct {
	URL  string
	Mode Mode

	Single *StreamDescriptor // combined, video-only or audio-only
	Video  *StreamDescriptor // split plan: video-only track
	Audio  *StreamDescriptor // split plan: audio-only track

	OutputPath string
	VideoPath  string // split plan temporary
	AudioPath  string // split plan temporary
}

// Split reports whether the job downloads separate tracks for merging.
func (j DownloadJob) Split() bool {
	return j.Video != nil && j.Audio != nil
}

// Validate enforces the single-or-pair invariant.
func (j DownloadJob) Validate() error {
	switch {
	case j.Single != nil && (j.Video != nil || j.Audio != nil):
		return errors.New("job mixes a single stream with split tracks")
	case j.Single == nil && !j.Split():
		return errors.New("job has no streams")
	case j.Split() && (j.Video.Kind != KindVideoOnly || j.Audio.Kind != KindAudioOnly):
		return errors.New("split job requires a video-only and an audio-only stream")
	}
	return nil
}

// BatchOptions holds run-level configuration passed to the orchestrator.
type BatchOptions struct {
	Mode           Mode
	OutDir         string
	Delay          time.Duration // pause between successive items
	MaxAttempts    int           // per network-sensitive step
	RetryBaseDelay time.Duration
	DryRun         bool
	FailOnError    bool
	Verbose        bool
	AnyHost        bool // skip the YouTube host check; the backend decides what it supports
}

// DefaultBatchOptions returns the defaults used when flags are not set.
func DefaultBatchOptions() BatchOptions {
	return BatchOptions{
		Mode:           ModeVideoAudio,
		OutDir:         ".",
		Delay:          2 * time.Second,
		MaxAttempts:    3,
		RetryBaseDelay: time.Second,
	}
}
