package ui

import (
	"fmt"
	"strings"

	"vidbatch/internal/progress"
	"vidbatch/internal/util/format"
)

const logTail = 3

func (m Model) viewHeader() string {
	done, total := 0, len(m.jobOrder)
	for _, id := range m.jobOrder {
		if m.jobs[id].done {
			done++
		}
	}
	title := m.styles.Title.Render("vidbatch")
	hint := "q: quit • l: logs"
	if m.cancelling && !m.finished {
		hint = m.styles.Warning.Render("cancelling, q again to force quit")
	}
	sub := m.styles.Subtitle.Render(fmt.Sprintf("Items: %d/%d done • ", done, total)) + hint
	return title + "\n" + sub
}

func (m Model) viewJobs() string {
	var b strings.Builder
	for _, id := range m.jobOrder {
		b.WriteString(m.viewJob(m.jobs[id]))
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) viewJob(js *jobState) string {
	stageStyle := m.styles.JobInfo
	switch js.stage {
	case progress.StageResolving, progress.StageSelecting:
		stageStyle = m.styles.StageMeta
	case progress.StageDownloading:
		stageStyle = m.styles.StageDL
	case progress.StageMerging:
		stageStyle = m.styles.StageMerge
	case progress.StageDone:
		stageStyle = m.styles.Success
	case progress.StageSkipped:
		stageStyle = m.styles.Faint
	case progress.StageFailed:
		stageStyle = m.styles.Error
	}

	name := js.url
	if js.title != "" {
		name = js.title
	}
	stage := string(js.stage)
	if js.track != "" && js.stage == progress.StageDownloading {
		stage += " " + js.track
	}
	line1 := fmt.Sprintf("%s %s  %s", m.styles.Faint.Render("#"+js.id), m.styles.JobTitle.Render(truncate(name, 56)), stageStyle.Render(stage))

	var line2 string
	switch {
	case js.percent >= 0 && js.percent <= 100:
		line2 = fmt.Sprintf("%s %5.1f%%", js.bar.ViewAs(js.percent/100.0), js.percent)
	case js.done && js.err != nil:
		line2 = m.styles.Error.Render("✗ failed")
	case js.done && js.stage == progress.StageSkipped:
		line2 = m.styles.Faint.Render("↷ already downloaded")
	case js.done:
		line2 = m.styles.Success.Render("✓ done")
	case js.stage == progress.StagePending:
		line2 = m.styles.Faint.Render("waiting")
	default:
		line2 = m.styles.Spinner.Render(js.spinner.View()) + " " + m.styles.Faint.Render("working")
	}

	info := js.status
	if js.done && js.err == nil && js.outputPath != "" {
		info = js.outputPath
		if js.bytes > 0 {
			info += " (" + format.HumanizeBytes(js.bytes) + ")"
		}
	}
	out := line1 + "\n" + line2 + "\n" + m.styles.JobInfo.Render(info)

	if m.showLogs && len(js.logsRing) > 0 {
		tail := js.logsRing
		if len(tail) > logTail {
			tail = tail[len(tail)-logTail:]
		}
		for _, l := range tail {
			out += "\n" + m.styles.Faint.Render("  "+truncate(l, 100))
		}
	}
	return m.styles.Box.Render(out)
}

func (m Model) viewSummary() string {
	if !m.finished {
		return ""
	}
	s := m.summary
	var b strings.Builder
	b.WriteString(m.styles.Subtitle.Render(fmt.Sprintf("Completed %d • Skipped %d • Failed %d", s.Completed, s.Skipped, s.Failed)))
	b.WriteString("\n")
	for _, r := range s.Results {
		if r.Err != nil {
			b.WriteString(m.styles.Error.Render("  ✗ " + r.URL + ": " + r.Err.Error()))
			b.WriteString("\n")
		}
	}
	return b.String()
}

func truncate(s string, n int) string {
	rs := []rune(s)
	if n <= 0 || len(rs) <= n {
		return s
	}
	return string(rs[:n-1]) + "…"
}
