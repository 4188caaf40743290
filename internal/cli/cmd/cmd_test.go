package cmd

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"vidbatch/internal/model"
	"vidbatch/internal/pipeline"
	"vidbatch/internal/progress"
)

func isolate(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("XDG_STATE_HOME", dir)
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	if args == nil {
		args = []string{}
	}
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func exitCode(t *testing.T, err error) int {
	t.Helper()
	if err == nil {
		return ExitOK
	}
	var ee *ExitError
	if !errors.As(err, &ee) {
		t.Fatalf("error %v is not an ExitError", err)
	}
	return ee.Code
}

func TestExecute_EarlyFailures(t *testing.T) {
	tests := []struct {
		name string
		args []string
		code int
	}{
		{name: "no urls", args: nil, code: ExitCLIError},
		{name: "invalid mode", args: []string{"--mode", "best", "https://youtu.be/x"}, code: ExitCLIError},
		{name: "invalid backend", args: []string{"--backend", "curl", "https://youtu.be/x"}, code: ExitCLIError},
		{name: "invalid limit rate", args: []string{"--limit-rate", "fast", "https://youtu.be/x"}, code: ExitCLIError},
		{name: "missing links file", args: []string{"--links-file", "/nonexistent/links.json"}, code: ExitCLIError},
		{
			name: "missing downloader",
			args: []string{"--backend", "ytdlp", "--dl-binary", "/nonexistent/yt-dlp", "https://youtu.be/x"},
			code: ExitMissingDep,
		},
		{
			name: "missing ffmpeg for video+audio",
			args: []string{"--ffmpeg", "/nonexistent/ffmpeg", "https://youtu.be/x"},
			code: ExitMissingDep,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			_, err := execute(t, tt.args...)
			if got := exitCode(t, err); got != tt.code {
				t.Errorf("exit code = %d, want %d (err: %v)", got, tt.code, err)
			}
		})
	}
}

func TestExecute_ConfigErrorIsConfiguration(t *testing.T) {
	isolate(t)
	_, err := execute(t, "--mode", "best", "https://youtu.be/x")
	if !errors.Is(err, model.ErrConfiguration) {
		t.Errorf("err = %v, want ErrConfiguration in chain", err)
	}
}

func fakeTool(t *testing.T, name string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, []byte("#!/bin/sh\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestDoctor(t *testing.T) {
	isolate(t)
	ff := fakeTool(t, "ffmpeg")
	dl := fakeTool(t, "yt-dlp")

	out, err := execute(t, "doctor", "--ffmpeg", ff, "--dl-binary", dl, "--backend", "ytdlp")
	if err != nil {
		t.Fatalf("doctor: %v", err)
	}
	for _, want := range []string{"Backend:    ytdlp", "FFmpeg:     " + ff, "Downloader: " + dl} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	_, err = execute(t, "doctor", "--ffmpeg", "/nonexistent/ffmpeg")
	if got := exitCode(t, err); got != ExitMissingDep {
		t.Errorf("doctor without ffmpeg exit = %d, want %d", got, ExitMissingDep)
	}
}

func TestCompletion(t *testing.T) {
	isolate(t)
	out, err := execute(t, "completion", "bash")
	if err != nil {
		t.Fatalf("completion: %v", err)
	}
	if !strings.Contains(out, "vidbatch") {
		t.Errorf("bash completion does not mention the command")
	}
	if _, err := execute(t, "completion", "tcsh"); err == nil {
		t.Errorf("unsupported shell should fail")
	}
}

func TestParseLimitRate(t *testing.T) {
	tests := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{in: "", want: 0},
		{in: "0", want: 0},
		{in: "500", want: 500},
		{in: "2MB", want: 2_000_000},
		{in: "1MiB", want: 1 << 20},
		{in: " 64KiB ", want: 64 << 10},
		{in: "fast", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseLimitRate(tt.in)
			if tt.wantErr {
				if !errors.Is(err, model.ErrConfiguration) {
					t.Fatalf("err = %v, want ErrConfiguration", err)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Errorf("parseLimitRate(%q) = %d, %v; want %d", tt.in, got, err, tt.want)
			}
		})
	}
}

func TestNeedsMerger(t *testing.T) {
	tests := []struct {
		opts model.BatchOptions
		want bool
	}{
		{model.BatchOptions{Mode: model.ModeVideoAudio}, true},
		{model.BatchOptions{Mode: model.ModeVideoAudio, DryRun: true}, false},
		{model.BatchOptions{Mode: model.ModeAudioOnly}, false},
		{model.BatchOptions{Mode: model.ModeVideoOnly}, false},
	}
	for _, tt := range tests {
		if got := needsMerger(tt.opts); got != tt.want {
			t.Errorf("needsMerger(%+v) = %v, want %v", tt.opts, got, tt.want)
		}
	}
}

func sampleSummary() pipeline.Summary {
	video := &model.StreamDescriptor{ID: "137", Kind: model.KindVideoOnly, Height: 1080, Container: "mp4", HasVideo: true}
	audio := &model.StreamDescriptor{ID: "140", Kind: model.KindAudioOnly, Bitrate: 128000, Container: "m4a", HasAudio: true}
	single := &model.StreamDescriptor{ID: "18", Kind: model.KindCombined, Height: 360, Container: "mp4", HasVideo: true, HasAudio: true}
	return pipeline.Summary{
		Total:     5,
		Completed: 2,
		Skipped:   1,
		Failed:    1,
		Results: []pipeline.ItemResult{
			{
				Index: 1, URL: "https://youtu.be/a", Title: "Split", State: progress.StageDone, Bytes: 2048,
				Job: &model.DownloadJob{Video: video, Audio: audio, OutputPath: "out/Split.mp4", VideoPath: "out/Split_video.mp4", AudioPath: "out/Split_audio.m4a"},
				OutputPath: "out/Split.mp4",
			},
			{
				Index: 2, URL: "https://youtu.be/b", Title: "Single", State: progress.StageDone, Bytes: 1024,
				Job: &model.DownloadJob{Single: single, OutputPath: "out/Single.mp4"}, OutputPath: "out/Single.mp4",
			},
			{Index: 3, URL: "https://youtu.be/c", Title: "Old", State: progress.StageSkipped, OutputPath: "out/Old.mp4"},
			{Index: 4, URL: "https://youtu.be/d", State: progress.StageFailed, Err: model.NewItemError("https://youtu.be/d", "resolve", model.ErrMetadataFetch)},
		},
	}
}

func TestPrintSummary(t *testing.T) {
	var b bytes.Buffer
	printSummary(&b, sampleSummary())
	out := b.String()
	for _, want := range []string{
		"Done: 2 completed, 1 skipped, 1 failed of 5 (3.0 KiB downloaded)",
		"failed: resolve [https://youtu.be/d]: metadata fetch failed",
		"not started: 1",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
}

func TestPrintPlan(t *testing.T) {
	var b bytes.Buffer
	printPlan(&b, sampleSummary())
	out := b.String()
	for _, want := range []string{
		"[1/5] https://youtu.be/a",
		"Video:   137 mp4 1080p (video-only)",
		"Audio:   140 m4a 128kbps",
		"Merge:   out/Split_video.mp4 + out/Split_audio.m4a",
		"Stream:  18 mp4 360p (combined)",
		"Skip:    already downloaded (out/Old.mp4)",
		"Error:   resolve [https://youtu.be/d]",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("plan missing %q:\n%s", want, out)
		}
	}
}
