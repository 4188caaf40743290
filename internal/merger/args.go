package merger

// BuildArgs constructs the ffmpeg arguments for a stream-copy mux of one
// video track and one audio track. Nothing is re-encoded.
func BuildArgs(videoPath, audioPath, outputPath string, includeProgress bool) []string {
	args := []string{
		"-y",
		"-i", videoPath,
		"-i", audioPath,
		"-map", "0:v:0",
		"-map", "1:a:0",
		"-c:v", "copy",
		"-c:a", "copy",
	}
	if includeProgress {
		args = append(args, "-progress", "pipe:1", "-nostats")
	}
	return append(args, outputPath)
}
