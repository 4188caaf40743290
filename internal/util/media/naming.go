// Package media derives on-disk names for downloads from video metadata.
package media

import (
	"path/filepath"
	"strings"

	"vidbatch/internal/util"
)

// Paths lists every file a job may write.
type Paths struct {
	Base   string // outDir/<sanitized title>, no extension
	Output string
	Video  string // split-track temporary
	Audio  string // split-track temporary
}

// BasePath joins the output directory with the sanitized title.
func BasePath(outDir, title string) string {
	if outDir == "" {
		outDir = "."
	}
	return filepath.Join(outDir, util.SanitizeFilename(title))
}

// WithExt appends a container extension to a base path.
func WithExt(base, ext string) string {
	return base + "." + strings.TrimPrefix(ext, ".")
}

// TrackPath names a temporary split-track file: <base>_video.<ext>.
func TrackPath(base, track, ext string) string {
	return WithExt(base+"_"+track, ext)
}

// SinglePaths returns the paths for a one-stream job.
func SinglePaths(base, ext string) Paths {
	return Paths{Base: base, Output: WithExt(base, ext)}
}

// SplitPaths returns the paths for a video+audio job merged into outExt.
func SplitPaths(base, videoExt, audioExt, outExt string) Paths {
	return Paths{
		Base:   base,
		Output: WithExt(base, outExt),
		Video:  TrackPath(base, "video", videoExt),
		Audio:  TrackPath(base, "audio", audioExt),
	}
}
