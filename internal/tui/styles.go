package tui

import (
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"

	"github.com/gerunddev/blockbridge/internal/styles"
)

var (
	spinnerStyle   = styles.SpinnerStyle
	helpStyle      = styles.HelpStyle
	successStyle   = styles.SuccessStyle
	errorStyle     = styles.ErrorStyle
	warningStyle   = styles.WarningStyle
	highlightStyle = styles.HighlightStyle
	titleStyle     = styles.TitleStyle
	labelStyle     = styles.LabelStyle
	valueStyle     = styles.ValueStyle

	tableStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(styles.Border))
)

// newTable builds a focused table with the shared header and selection styles
func newTable(columns []table.Column, height int) table.Model {
	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(height),
	)

	ts := table.DefaultStyles()
	ts.Header = ts.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color(styles.Border)).
		BorderBottom(true).
		Bold(false)
	ts.Selected = ts.Selected.
		Foreground(lipgloss.Color(styles.Background)).
		Background(lipgloss.Color(styles.Yellow)).
		Bold(false)
	t.SetStyles(ts)

	return t
}
