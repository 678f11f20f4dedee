package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
)

// TrackedFile is one pushed file from the state file
type TrackedFile struct {
	Path     string
	PageID   string
	Blocks   int
	PushedAt time.Time
	Changed  bool
	Missing  bool
}

// StatusData holds everything the status table shows
type StatusData struct {
	StatePath string
	Files     []TrackedFile
}

type statusModel struct {
	table table.Model
	data  *StatusData
}

// InitStatusModel creates the tracked-files table
func InitStatusModel(data *StatusData) statusModel {
	columns := []table.Column{
		{Title: "File", Width: 40},
		{Title: "Page", Width: 36},
		{Title: "Blocks", Width: 7},
		{Title: "Pushed", Width: 17},
		{Title: "Status", Width: 12},
	}

	t := newTable(columns, 15)
	rows := make([]table.Row, 0, len(data.Files))
	for _, f := range data.Files {
		rows = append(rows, table.Row{
			f.Path,
			f.PageID,
			fmt.Sprintf("%d", f.Blocks),
			f.PushedAt.Format("2006-01-02 15:04"),
			fileStatus(f),
		})
	}
	t.SetRows(rows)

	return statusModel{table: t, data: data}
}

func fileStatus(f TrackedFile) string {
	switch {
	case f.Missing:
		return "✗ missing"
	case f.Changed:
		return "→ changed"
	default:
		return "✓ pushed"
	}
}

func (m statusModel) Init() tea.Cmd {
	return nil
}

func (m statusModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.table.SetHeight(msg.Height - 8)
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			return m, tea.Quit
		}
		m.table, cmd = m.table.Update(msg)
	}

	return m, cmd
}

func (m statusModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Blockbridge Status"))
	b.WriteString("\n\n")

	changed := 0
	for _, f := range m.data.Files {
		if f.Changed || f.Missing {
			changed++
		}
	}
	b.WriteString(labelStyle.Render(fmt.Sprintf("Tracked Files: %d", len(m.data.Files))))
	if changed > 0 {
		b.WriteString("  " + warningStyle.Render(fmt.Sprintf("%d need attention", changed)))
	}
	b.WriteString("\n")
	b.WriteString(helpStyle.Render(m.data.StatePath))
	b.WriteString("\n\n")

	b.WriteString(tableStyle.Render(m.table.View()))
	b.WriteString("\n\n")
	b.WriteString(helpStyle.Render("↑/k up • ↓/j down • q quit"))
	b.WriteString("\n")

	return b.String()
}
