// Package deps locates the external tools vidbatch shells out to.
package deps

import (
	"fmt"
	"os"
	"os/exec"
)

// FindDownloader returns the path to yt-dlp.
// If customPath is non-empty, it tries that path or looks it up in PATH.
func FindDownloader(customPath string) (string, error) {
	if customPath != "" {
		return findCustom(customPath, "downloader")
	}
	if p, err := exec.LookPath("yt-dlp"); err == nil {
		return p, nil
	}
	return "", fmt.Errorf("could not find yt-dlp in PATH. Please install yt-dlp or use --backend native.")
}

// FindFFmpeg returns the path to ffmpeg, honoring an explicit override.
func FindFFmpeg(customPath string) (string, error) {
	if customPath != "" {
		return findCustom(customPath, "ffmpeg")
	}
	if p, err := exec.LookPath("ffmpeg"); err == nil {
		return p, nil
	}
	return "", fmt.Errorf("could not find ffmpeg in PATH. Please install ffmpeg.")
}

func findCustom(path, what string) (string, error) {
	if fi, err := os.Stat(path); err == nil && !fi.IsDir() {
		return path, nil
	}
	if p, err := exec.LookPath(path); err == nil {
		return p, nil
	}
	return "", fmt.Errorf("could not find %s at %q", what, path)
}
