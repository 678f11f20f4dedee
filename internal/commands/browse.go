package commands

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/gerunddev/blockbridge/internal/document"
	"github.com/gerunddev/blockbridge/internal/tui"
)

func browseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "browse [file|-]",
		Short: "Inspect the blocks of a file interactively",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			name, content, err := readInput(cmd, args)
			if err != nil {
				return err
			}
			doc, err := document.Parse(content)
			if err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}

			m := tui.InitBrowseModel(&tui.BrowseData{
				Source: name,
				Blocks: a.parser.Parse(doc.Body),
			})
			_, err = tea.NewProgram(m, tea.WithAltScreen()).Run()
			return err
		},
	}
}
