package tui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

// PushResult holds the result of a push
type PushResult struct {
	File     string
	PageID   string
	PageURL  string
	Created  bool
	Blocks   int
	Batches  int
	Skipped  bool
	Duration time.Duration
}

// PushMsg is sent when the push completes
type PushMsg struct {
	Result *PushResult
	Err    error
}

// PushStatusMsg updates the status line while pushing
type PushStatusMsg string

// pushModel is the Bubble Tea model for the push progress display
type pushModel struct {
	spinner  spinner.Model
	status   string
	complete bool
	result   *PushResult
	err      error
}

// InitPushModel creates a new push progress model
func InitPushModel(file string) pushModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = spinnerStyle

	return pushModel{
		spinner: s,
		status:  fmt.Sprintf("Pushing %s...", file),
	}
}

// Err returns the push error once the program has finished
func (m pushModel) Err() error {
	return m.err
}

func (m pushModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m pushModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		}

	case PushStatusMsg:
		m.status = string(msg)
		return m, nil

	case PushMsg:
		m.complete = true
		m.result = msg.Result
		m.err = msg.Err
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m pushModel) View() string {
	if !m.complete {
		return fmt.Sprintf("\n%s %s\n\n", m.spinner.View(), m.status)
	}
	if m.err != nil {
		return errorStyle.Render("✗ Push failed: "+m.err.Error()) + "\n"
	}
	return RenderPushResult(m.result)
}

// RenderPushResult formats a finished push for the terminal
func RenderPushResult(r *PushResult) string {
	if r.Skipped {
		return successStyle.Render(fmt.Sprintf("✓ %s unchanged, nothing to push", r.File)) + "\n"
	}

	verb := "Appended"
	if r.Created {
		verb = "Created page with"
	}
	msg := successStyle.Render(fmt.Sprintf("✓ %s %d block(s) from %s", verb, r.Blocks, r.File))
	if r.Batches > 1 {
		msg += helpStyle.Render(fmt.Sprintf(" in %d requests", r.Batches))
	}
	msg += "\n"
	if r.PageURL != "" {
		msg += "  " + highlightStyle.Render(r.PageURL) + "\n"
	} else if r.PageID != "" {
		msg += "  " + valueStyle.Render(r.PageID) + "\n"
	}
	msg += helpStyle.Render(fmt.Sprintf("Completed in %v", r.Duration.Round(time.Millisecond))) + "\n"
	return msg
}
