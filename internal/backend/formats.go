package backend

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/kkdai/youtube/v2"

	"vidbatch/internal/model"
)

// descriptor maps a player format onto a stream descriptor.
func descriptor(f youtube.Format) (model.StreamDescriptor, bool) {
	mime := strings.ToLower(f.MimeType)
	hasVideo := strings.HasPrefix(mime, "video/")
	hasAudio := strings.HasPrefix(mime, "audio/") || f.AudioChannels > 0
	kind := model.KindOf(hasVideo, hasAudio)
	if kind == "" {
		return model.StreamDescriptor{}, false
	}

	bitrate := f.AverageBitrate
	if bitrate == 0 {
		bitrate = f.Bitrate
	}
	height := 0
	if hasVideo {
		height = heightFromLabel(f.QualityLabel)
		if height == 0 {
			height = f.Height
		}
	}

	return model.StreamDescriptor{
		ID:           strconv.Itoa(f.ItagNo),
		Kind:         kind,
		Height:       height,
		QualityLabel: f.QualityLabel,
		Bitrate:      bitrate,
		Container:    containerFromMime(mime),
		HasVideo:     hasVideo,
		HasAudio:     hasAudio,
		Size:         f.ContentLength,
	}, true
}

// heightFromLabel reads the numeric part of labels like "1080p60" or "720p HDR".
func heightFromLabel(label string) int {
	end := 0
	for end < len(label) && label[end] >= '0' && label[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0
	}
	n, _ := strconv.Atoi(label[:end])
	return n
}

// containerFromMime turns `video/mp4; codecs="..."` into a file extension.
func containerFromMime(mime string) string {
	if i := strings.Index(mime, ";"); i >= 0 {
		mime = mime[:i]
	}
	typ, sub, ok := strings.Cut(strings.TrimSpace(mime), "/")
	if !ok {
		return "bin"
	}
	switch {
	case typ == "audio" && sub == "mp4":
		return "m4a"
	case sub == "3gpp":
		return "3gp"
	default:
		return sub
	}
}

// metadataError folds player errors into ErrMetadataFetch, keeping the cause
// in the message. Cancellation passes through untouched.
func metadataError(ctx context.Context, err error) error {
	if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
		return err
	}
	reason := "network"
	switch {
	case errors.Is(err, youtube.ErrLoginRequired),
		errors.Is(err, youtube.ErrVideoPrivate),
		errors.Is(err, youtube.ErrNotPlayableInEmbed):
		reason = "restricted"
	case errors.Is(err, youtube.ErrInvalidCharactersInVideoID),
		errors.Is(err, youtube.ErrVideoIDMinLength):
		reason = "invalid video id"
	case errors.Is(err, context.DeadlineExceeded):
		reason = "timeout"
	}
	var statusErr *youtube.ErrPlayabiltyStatus
	if errors.As(err, &statusErr) {
		reason = "unavailable"
	}
	return fmt.Errorf("%w (%s): %v", model.ErrMetadataFetch, reason, err)
}

func isUnexpectedStatus(err error, code int) bool {
	var statusErr youtube.ErrUnexpectedStatusCode
	if errors.As(err, &statusErr) {
		return int(statusErr) == code
	}
	return false
}
