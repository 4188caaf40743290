package cmd

import (
	"fmt"
	"io"

	"vidbatch/internal/pipeline"
	"vidbatch/internal/progress"
	"vidbatch/internal/util/format"
)

// printPlan lists what a dry run would download for each item.
func printPlan(w io.Writer, sum pipeline.Summary) {
	fmt.Fprintln(w, "Plan:")
	for _, r := range sum.Results {
		fmt.Fprintf(w, "[%d/%d] %s\n", r.Index, sum.Total, r.URL)
		if r.Title != "" {
			fmt.Fprintf(w, "  Title:   %s\n", r.Title)
		}
		switch {
		case r.State == progress.StageSkipped:
			fmt.Fprintf(w, "  Skip:    already downloaded (%s)\n", r.OutputPath)
		case r.Err != nil:
			fmt.Fprintf(w, "  Error:   %v\n", r.Err)
		case r.Job != nil && r.Job.Split():
			fmt.Fprintf(w, "  Video:   %s\n", r.Job.Video)
			fmt.Fprintf(w, "  Audio:   %s\n", r.Job.Audio)
			fmt.Fprintf(w, "  Merge:   %s + %s\n", r.Job.VideoPath, r.Job.AudioPath)
			fmt.Fprintf(w, "  Output:  %s\n", r.Job.OutputPath)
		case r.Job != nil:
			fmt.Fprintf(w, "  Stream:  %s\n", r.Job.Single)
			fmt.Fprintf(w, "  Output:  %s\n", r.Job.OutputPath)
		}
	}
}

// printSummary prints the end-of-run report. It is printed whether or not
// items failed.
func printSummary(w io.Writer, sum pipeline.Summary) {
	var total int64
	for _, r := range sum.Results {
		if r.State == progress.StageDone {
			total += r.Bytes
		}
	}
	fmt.Fprintf(w, "\nDone: %d completed, %d skipped, %d failed of %d", sum.Completed, sum.Skipped, sum.Failed, sum.Total)
	if total > 0 {
		fmt.Fprintf(w, " (%s downloaded)", format.HumanizeBytes(total))
	}
	fmt.Fprintln(w)

	for _, r := range sum.Results {
		if r.Err != nil {
			fmt.Fprintf(w, "  failed: %v\n", r.Err)
		}
	}
	if n := sum.Total - len(sum.Results); n > 0 {
		fmt.Fprintf(w, "  not started: %d\n", n)
	}
}
