package tui

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/gerunddev/blockbridge/internal/block"
	"github.com/gerunddev/blockbridge/internal/styles"
)

// BrowseData is a parsed document to browse
type BrowseData struct {
	Source string
	Blocks []block.Block
}

// blockRow is one flattened block in the table
type blockRow struct {
	depth int
	block block.Block
}

type browseModel struct {
	table        table.Model
	viewport     viewport.Model
	data         *BrowseData
	rows         []blockRow
	showingBlock bool
	selected     *blockRow
	width        int
	height       int
}

// InitBrowseModel creates a block browser for data
func InitBrowseModel(data *BrowseData) browseModel {
	columns := []table.Column{
		{Title: "#", Width: 5},
		{Title: "Type", Width: 20},
		{Title: "Content", Width: 60},
		{Title: "Children", Width: 8},
	}

	vp := viewport.New(100, 20)
	vp.Style = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(styles.Border)).
		Padding(1)

	m := browseModel{
		table:    newTable(columns, 20),
		viewport: vp,
		data:     data,
	}
	m.setRows()
	return m
}

func (m *browseModel) setRows() {
	m.rows = nil
	block.Walk(m.data.Blocks, func(b block.Block, depth int) bool {
		m.rows = append(m.rows, blockRow{depth: depth, block: b})
		return true
	})

	rows := make([]table.Row, 0, len(m.rows))
	for i, r := range m.rows {
		text := strings.ReplaceAll(r.block.PlainText(), "\n", " ")
		children := ""
		if n := len(r.block.Children); n > 0 {
			children = fmt.Sprintf("%d", n)
		}
		rows = append(rows, table.Row{
			fmt.Sprintf("%d", i+1),
			strings.Repeat("  ", r.depth) + string(r.block.Type),
			text,
			children,
		})
	}
	m.table.SetRows(rows)
}

func (m browseModel) Init() tea.Cmd {
	return nil
}

func (m browseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.table.SetHeight(msg.Height - 10)
		m.viewport.Width = msg.Width - 4
		m.viewport.Height = msg.Height - 6

	case tea.KeyMsg:
		if m.showingBlock {
			// In block detail view
			switch msg.String() {
			case "q", "esc":
				m.showingBlock = false
				return m, nil
			case "ctrl+c":
				return m, tea.Quit
			default:
				m.viewport, cmd = m.viewport.Update(msg)
				return m, cmd
			}
		}

		// In table view
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "enter", "d":
			idx := m.table.Cursor()
			if idx >= 0 && idx < len(m.rows) {
				m.selected = &m.rows[idx]
				m.showingBlock = true
				m.viewport.SetContent(blockDetail(m.selected.block))
				m.viewport.GotoTop()
			}
			return m, nil
		default:
			m.table, cmd = m.table.Update(msg)
			return m, cmd
		}
	}

	return m, nil
}

func (m browseModel) View() string {
	var b strings.Builder

	// Title
	b.WriteString(titleStyle.Render("Blockbridge Block Browser"))
	b.WriteString("\n\n")

	if m.showingBlock && m.selected != nil {
		b.WriteString(labelStyle.Render(fmt.Sprintf("Block: %s", block.Label(m.selected.block))))
		b.WriteString("\n\n")
		b.WriteString(m.viewport.View())
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("↑/k up • ↓/j down • esc/q back"))
		b.WriteString("\n")
		return b.String()
	}

	top := len(m.data.Blocks)
	b.WriteString(labelStyle.Render(fmt.Sprintf("%s: %d blocks, %d top-level", m.data.Source, len(m.rows), top)))
	b.WriteString("\n\n")
	if len(m.rows) == 0 {
		b.WriteString(warningStyle.Render("No blocks produced"))
		b.WriteString("\n\n")
	} else {
		b.WriteString(tableStyle.Render(m.table.View()))
		b.WriteString("\n\n")
	}
	b.WriteString(helpStyle.Render("↑/k up • ↓/j down • enter/d inspect • q quit"))
	b.WriteString("\n")

	return b.String()
}

// blockDetail renders the API payload of a block
func blockDetail(b block.Block) string {
	data, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return errorStyle.Render("✗ Error: " + err.Error())
	}
	return string(data)
}
