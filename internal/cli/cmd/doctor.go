package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"vidbatch/internal/config"
	"vidbatch/internal/util/deps"
)

func newDoctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:           "doctor",
		Short:         "Check external tools (ffmpeg, yt-dlp) and configuration",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := config.Load()
			if err != nil {
				return &ExitError{Code: ExitCLIError, Err: err}
			}
			out := cmd.OutOrStdout()

			cfg := s.ConfigFile
			if cfg == "" {
				cfg = "(none)"
			}
			fmt.Fprintf(out, "Config:     %s\n", cfg)
			fmt.Fprintf(out, "Backend:    %s\n", s.Backend)

			var missing error
			ff, ferr := deps.FindFFmpeg(s.FFmpeg)
			if ferr != nil {
				fmt.Fprintf(out, "FFmpeg:     missing (%v)\n", ferr)
				missing = ferr
			} else {
				fmt.Fprintf(out, "FFmpeg:     %s\n", ff)
			}

			dl, derr := deps.FindDownloader(s.DLBinary)
			switch {
			case derr == nil:
				fmt.Fprintf(out, "Downloader: %s\n", dl)
			case s.Backend == config.BackendYTDLP:
				fmt.Fprintf(out, "Downloader: missing (%v)\n", derr)
				missing = derr
			default:
				fmt.Fprintf(out, "Downloader: not found (only needed with --backend ytdlp)\n")
			}

			if missing != nil {
				return &ExitError{Code: ExitMissingDep, Err: missing}
			}
			return nil
		},
	}
}
