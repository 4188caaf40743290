package downloader

import (
	"strings"
	"time"

	"vidbatch/internal/model"
)

// YTDLPInfo mirrors the fields of yt-dlp --dump-json output that we use.
type YTDLPInfo struct {
	ID       string        `json:"id"`
	Title    string        `json:"title"`
	Uploader string        `json:"uploader"`
	Channel  string        `json:"channel"`
	Duration float64       `json:"duration"`
	Formats  []YTDLPFormat `json:"formats"`
}

// YTDLPFormat is one entry of the "formats" array.
type YTDLPFormat struct {
	FormatID       string  `json:"format_id"`
	Ext            string  `json:"ext"`
	VCodec         string  `json:"vcodec"`
	ACodec         string  `json:"acodec"`
	Height         int     `json:"height"`
	FormatNote     string  `json:"format_note"`
	TBR            float64 `json:"tbr"` // kbit/s
	ABR            float64 `json:"abr"` // kbit/s
	Filesize       float64 `json:"filesize"`
	FilesizeApprox float64 `json:"filesize_approx"`
	Protocol       string  `json:"protocol"`
}

func hasCodec(c string) bool {
	return c != "" && c != "none"
}

// Descriptor converts a yt-dlp format into a stream descriptor. ok is false
// for entries that carry neither track (storyboards and the like).
func (f YTDLPFormat) Descriptor() (model.StreamDescriptor, bool) {
	hasVideo, hasAudio := hasCodec(f.VCodec), hasCodec(f.ACodec)
	kind := model.KindOf(hasVideo, hasAudio)
	if kind == "" || f.FormatID == "" {
		return model.StreamDescriptor{}, false
	}

	kbps := f.TBR
	if kind == model.KindAudioOnly && f.ABR > 0 {
		kbps = f.ABR
	}
	size := f.Filesize
	if size <= 0 {
		size = f.FilesizeApprox
	}
	height := f.Height
	if !hasVideo {
		height = 0
	}

	return model.StreamDescriptor{
		ID:           f.FormatID,
		Kind:         kind,
		Height:       height,
		QualityLabel: f.FormatNote,
		Bitrate:      int(kbps * 1000),
		Container:    strings.ToLower(f.Ext),
		HasVideo:     hasVideo,
		HasAudio:     hasAudio,
		Size:         int64(size),
	}, true
}

// Info returns the basic metadata.
func (i YTDLPInfo) Info() model.VideoInfo {
	author := i.Uploader
	if author == "" {
		author = i.Channel
	}
	return model.VideoInfo{
		ID:       i.ID,
		Title:    i.Title,
		Author:   author,
		Duration: time.Duration(i.Duration * float64(time.Second)),
	}
}

// Metadata returns the full metadata including usable streams in the order
// yt-dlp lists them.
func (i YTDLPInfo) Metadata() model.VideoMetadata {
	md := model.VideoMetadata{VideoInfo: i.Info()}
	for _, f := range i.Formats {
		if d, ok := f.Descriptor(); ok {
			md.Streams = append(md.Streams, d)
		}
	}
	return md
}
