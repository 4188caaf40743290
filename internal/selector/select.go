// Package selector picks the stream (or stream pair) to download for a mode.
package selector

import (
	"fmt"

	"vidbatch/internal/model"
)

// Plan is the outcome of format selection: either Single, or Video+Audio.
type Plan struct {
	Single *model.StreamDescriptor
	Video  *model.StreamDescriptor
	Audio  *model.StreamDescriptor
}

// Split reports whether the plan needs a merge step.
func (p Plan) Split() bool {
	return p.Video != nil && p.Audio != nil
}

// Select picks the best stream(s) for the requested mode.
//
// In video+audio mode a separate video-only + audio-only pair is preferred
// over the best combined stream only when the video-only resolution is
// strictly higher and an audio-only stream exists.
func Select(streams []model.StreamDescriptor, mode model.Mode) (Plan, error) {
	switch mode {
	case model.ModeAudioOnly:
		a := bestAudio(streams)
		if a == nil {
			return Plan{}, fmt.Errorf("%w: no audio-only stream", model.ErrNoSuitableFormat)
		}
		return Plan{Single: a}, nil

	case model.ModeVideoOnly:
		v := bestVideo(streams, model.KindVideoOnly)
		if v == nil {
			return Plan{}, fmt.Errorf("%w: no video-only stream", model.ErrNoSuitableFormat)
		}
		return Plan{Single: v}, nil

	case model.ModeVideoAudio:
		combined := bestVideo(streams, model.KindCombined)
		video := bestVideo(streams, model.KindVideoOnly)
		audio := bestAudio(streams)

		if video != nil && audio != nil {
			if combined == nil || video.Height > combined.Height {
				return Plan{Video: video, Audio: audio}, nil
			}
		}
		if combined != nil {
			return Plan{Single: combined}, nil
		}
		return Plan{}, fmt.Errorf("%w: no combined stream and no video+audio pair", model.ErrNoSuitableFormat)
	}
	return Plan{}, fmt.Errorf("%w: unknown mode %q", model.ErrConfiguration, mode)
}

// FilterByKind returns the streams of the given kind in their original order.
func FilterByKind(streams []model.StreamDescriptor, kind model.StreamKind) []model.StreamDescriptor {
	var out []model.StreamDescriptor
	for _, s := range streams {
		if s.Kind == kind {
			out = append(out, s)
		}
	}
	return out
}

// Extensions lists the plausible containers a finished download can have
// for the given mode. Used by the pre-flight existing-file check.
func Extensions(mode model.Mode) []string {
	if mode == model.ModeAudioOnly {
		return []string{"m4a", "webm", "mp3", "opus", "ogg"}
	}
	return []string{"mp4", "webm", "mkv"}
}

// MergedContainer chooses the output container for a stream-copy merge.
func MergedContainer(videoExt, audioExt string) string {
	switch {
	case videoExt == "mp4" && (audioExt == "m4a" || audioExt == "mp4"):
		return "mp4"
	case videoExt == "webm" && audioExt == "webm":
		return "webm"
	default:
		return "mkv"
	}
}

// bestAudio returns the audio-only stream with the highest bitrate.
// Ties keep the first seen.
func bestAudio(streams []model.StreamDescriptor) *model.StreamDescriptor {
	return best(FilterByKind(streams, model.KindAudioOnly), func(a, b model.StreamDescriptor) bool { return a.Bitrate > b.Bitrate })
}

// bestVideo returns the stream of kind with the highest resolution.
// Ties keep the first seen.
func bestVideo(streams []model.StreamDescriptor, kind model.StreamKind) *model.StreamDescriptor {
	return best(FilterByKind(streams, kind), func(a, b model.StreamDescriptor) bool { return a.Height > b.Height })
}

// best returns the first element no other element beats. candidates is
// owned by the caller's filter, so the result does not alias the input.
func best(candidates []model.StreamDescriptor, better func(a, b model.StreamDescriptor) bool) *model.StreamDescriptor {
	var top *model.StreamDescriptor
	for i := range candidates {
		if top == nil || better(candidates[i], *top) {
			top = &candidates[i]
		}
	}
	return top
}
