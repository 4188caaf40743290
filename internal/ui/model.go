package ui

import (
	"context"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"vidbatch/internal/pipeline"
	"vidbatch/internal/progress"
)

type Model struct {
	cancel context.CancelFunc

	// Jobs, keyed by the 1-based batch index the orchestrator uses as job ID.
	jobOrder []string
	jobs     map[string]*jobState

	finished   bool
	cancelling bool
	summary    pipeline.Summary
	runErr     error

	// UI
	width, height int
	styles        Styles
	showLogs      bool
}

func NewModel(urls []string, cancel context.CancelFunc) Model {
	sty := defaultStyles()
	jobs := make(map[string]*jobState, len(urls))
	order := make([]string, 0, len(urls))
	for i, u := range urls {
		id := strconv.Itoa(i + 1)
		jobs[id] = newJobState(id, u, sty)
		order = append(order, id)
	}
	if cancel == nil {
		cancel = func() {}
	}
	return Model{
		cancel:   cancel,
		jobs:     jobs,
		jobOrder: order,
		styles:   sty,
	}
}

func (m Model) Init() tea.Cmd {
	cmds := make([]tea.Cmd, 0, len(m.jobOrder))
	for _, id := range m.jobOrder {
		cmds = append(cmds, m.jobs[id].spinner.Tick)
	}
	return tea.Batch(cmds...)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			if m.cancelling || m.finished {
				return m, tea.Quit
			}
			// The batch returns promptly once its context is cancelled;
			// batchDoneMsg then ends the program.
			m.cancelling = true
			m.cancel()
			return m, nil
		case "l":
			m.showLogs = !m.showLogs
			return m, nil
		}
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height

	case jobUpdateMsg:
		if js, ok := m.jobs[msg.U.JobID]; ok {
			js.apply(msg.U)
		}
		return m, nil

	case jobLogMsg:
		if js, ok := m.jobs[msg.L.JobID]; ok {
			js.appendLog(strings.TrimRight(msg.L.Line, "\r\n"))
		}
		return m, nil

	case jobResultMsg:
		if js, ok := m.jobs[msg.R.JobID]; ok {
			js.finish(msg.R)
		}
		return m, nil

	case batchDoneMsg:
		m.finished = true
		m.summary = msg.Summary
		m.runErr = msg.Err
		for _, r := range msg.Summary.Results {
			js, ok := m.jobs[strconv.Itoa(r.Index)]
			if !ok || js.done {
				continue
			}
			js.finish(progress.Result{
				JobID: js.id, Index: r.Index, URL: r.URL, Title: r.Title,
				OutputPath: r.OutputPath, Bytes: r.Bytes,
				Skipped: r.State == progress.StageSkipped, Err: r.Err,
			})
		}
		for _, id := range m.jobOrder {
			if js := m.jobs[id]; !js.done {
				js.status = "Cancelled"
			}
		}
		return m, tea.Quit
	}

	// Spinners
	var cmds []tea.Cmd
	for _, id := range m.jobOrder {
		js := m.jobs[id]
		var c tea.Cmd
		js.spinner, c = js.spinner.Update(msg)
		if c != nil {
			cmds = append(cmds, c)
		}
	}
	return m, tea.Batch(cmds...)
}

func (m Model) View() string {
	s := m.viewHeader() + "\n\n" + m.viewJobs()
	if summary := m.viewSummary(); summary != "" {
		s += "\n" + summary
	}
	return s
}

// Summary returns the batch summary once the run finished.
func (m Model) Summary() (pipeline.Summary, error) {
	return m.summary, m.runErr
}

// teaReporter forwards orchestrator events into the bubbletea program.
type teaReporter struct {
	send func(tea.Msg)
}

func (r teaReporter) Update(u progress.Update) { r.send(jobUpdateMsg{U: u}) }
func (r teaReporter) Log(l progress.Log)       { r.send(jobLogMsg{L: l}) }
func (r teaReporter) Result(res progress.Result) {
	r.send(jobResultMsg{R: res})
}
