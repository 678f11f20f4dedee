package styles

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/gerunddev/blockbridge/internal/block"
)

// Monokai Pro color palette
const (
	// Base colors
	Background = "#2D2A2E"
	Foreground = "#FCFCFA"

	// Accent colors
	Red     = "#FF6188" // Errors, danger
	Orange  = "#FC9867" // Warnings
	Yellow  = "#FFD866" // Highlights
	Green   = "#A9DC76" // Success
	Cyan    = "#78DCE8" // Info
	Blue    = "#AB9DF2" // Links
	Magenta = "#FF6188" // Titles, emphasis

	// UI colors
	Comment = "#727072" // Dim text, help
	Border  = "#5B595C" // Borders, separators
)

// Common styles
var (
	SuccessStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color(Green))
	ErrorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color(Red))
	WarningStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color(Orange))
	DimStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color(Comment))
	TitleStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(Magenta))
	HighlightStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(Yellow)).Bold(true)
	SpinnerStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color(Magenta))
	HelpStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color(Comment))
	LabelStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color(Comment))
	ValueStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color(Foreground))

	// Table/list styles
	HeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(Magenta))

	TableStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color(Border))

	SelectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(Background)).
			Background(lipgloss.Color(Yellow))

	NormalTextStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(Foreground))

	// Block outline styles
	TreeEnumeratorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(Border)).MarginRight(1)
	TreeRootStyle       = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(Magenta))
)

// BlockStyle returns the style used to label a block of the given type
func BlockStyle(t block.Type) lipgloss.Style {
	switch t {
	case block.TypeHeading1, block.TypeHeading2, block.TypeHeading3:
		return HighlightStyle
	case block.TypeBulletedListItem, block.TypeNumberedListItem, block.TypeToDo:
		return lipgloss.NewStyle().Foreground(lipgloss.Color(Green))
	case block.TypeCallout, block.TypeQuote, block.TypeToggle:
		return lipgloss.NewStyle().Foreground(lipgloss.Color(Cyan))
	case block.TypeCode, block.TypeEquation:
		return lipgloss.NewStyle().Foreground(lipgloss.Color(Orange))
	case block.TypeImage, block.TypeEmbed, block.TypeBookmark:
		return lipgloss.NewStyle().Foreground(lipgloss.Color(Blue))
	case block.TypeDivider:
		return DimStyle
	}
	return NormalTextStyle
}
