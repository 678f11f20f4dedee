package tui

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

const maxWatchEvents = 15

// WatchEventMsg reports one handled file
type WatchEventMsg struct {
	Path   string
	Blocks int
	Err    error
	At     time.Time
}

// TickMsg triggers a periodic refresh
type TickMsg time.Time

type watchModel struct {
	dir       string
	startTime time.Time
	pushed    int
	failed    int
	events    []WatchEventMsg
}

// InitWatchModel creates the watch dashboard for dir
func InitWatchModel(dir string) watchModel {
	return watchModel{dir: dir, startTime: time.Now()}
}

func (m watchModel) Init() tea.Cmd {
	return tick()
}

func (m watchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "q" || msg.String() == "ctrl+c" {
			return m, tea.Quit
		}

	case TickMsg:
		return m, tick()

	case WatchEventMsg:
		if msg.Err != nil {
			m.failed++
		} else {
			m.pushed++
		}
		m.events = append(m.events, msg)
		if len(m.events) > maxWatchEvents {
			m.events = m.events[len(m.events)-maxWatchEvents:]
		}
		return m, nil
	}

	return m, nil
}

func (m watchModel) View() string {
	var b strings.Builder

	// Title
	b.WriteString(titleStyle.Render("Blockbridge Watch"))
	b.WriteString("\n\n")

	uptime := time.Since(m.startTime).Round(time.Second)
	b.WriteString(labelStyle.Render("Watching"))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("  Directory: %s\n", valueStyle.Render(m.dir)))
	b.WriteString(fmt.Sprintf("  Uptime:    %s\n", valueStyle.Render(uptime.String())))
	b.WriteString(fmt.Sprintf("  Pushed:    %s\n", successStyle.Render(fmt.Sprintf("%d", m.pushed))))
	if m.failed > 0 {
		b.WriteString(fmt.Sprintf("  Failed:    %s\n", errorStyle.Render(fmt.Sprintf("%d", m.failed))))
	}
	b.WriteString("\n")

	b.WriteString(labelStyle.Render("Recent Pushes"))
	b.WriteString("\n")
	if len(m.events) == 0 {
		b.WriteString(helpStyle.Render("  Waiting for changes"))
		b.WriteString("\n")
	}
	for i := len(m.events) - 1; i >= 0; i-- {
		e := m.events[i]
		stamp := e.At.Format(time.TimeOnly)
		name := filepath.Base(e.Path)
		if e.Err != nil {
			b.WriteString(fmt.Sprintf("  %s %s %s\n", helpStyle.Render(stamp), errorStyle.Render("✗ "+name), errorStyle.Render(e.Err.Error())))
			continue
		}
		b.WriteString(fmt.Sprintf("  %s %s %s\n", helpStyle.Render(stamp), successStyle.Render("✓ "+name), helpStyle.Render(fmt.Sprintf("%d blocks", e.Blocks))))
	}
	b.WriteString("\n")

	// Help
	b.WriteString(helpStyle.Render("q quit"))
	b.WriteString("\n")

	return b.String()
}

// tick returns a command that sends a TickMsg every second for the uptime
func tick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}
