package commands

import (
	"fmt"
	"os"
	"sort"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/gerunddev/blockbridge/internal/styles"
	"github.com/gerunddev/blockbridge/internal/tui"
)

var timeNow = time.Now

func statusCmd() *cobra.Command {
	var plain bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show pushed files and whether they changed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			data := a.statusData()

			if useTUI(cmd, plain) && len(data.Files) > 0 {
				_, err := tea.NewProgram(tui.InitStatusModel(data)).Run()
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, styles.TitleStyle.Render("Blockbridge Status"))
			fmt.Fprintln(out, styles.DimStyle.Render(data.StatePath))
			fmt.Fprintln(out)

			if len(data.Files) == 0 {
				fmt.Fprintln(out, styles.DimStyle.Render("No files pushed yet"))
			}
			for _, f := range data.Files {
				line := fmt.Sprintf("%s  %s  %d blocks", f.Path, f.PageID, f.Blocks)
				switch {
				case f.Missing:
					fmt.Fprintln(out, styles.ErrorStyle.Render("✗ "+line+" (missing)"))
				case f.Changed:
					fmt.Fprintln(out, styles.WarningStyle.Render("→ "+line+" (changed)"))
				default:
					fmt.Fprintln(out, styles.SuccessStyle.Render("✓ "+line))
				}
			}

			if _, lastPush, blocks := ParseLogFile(a.cfg.LogFile, 200); !lastPush.IsZero() {
				fmt.Fprintln(out)
				ago := timeNow().Sub(lastPush).Round(time.Second)
				fmt.Fprintln(out, styles.DimStyle.Render(fmt.Sprintf("Last push %s ago (%d blocks)", ago, blocks)))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&plain, "plain", false, "print a plain list instead of the table")

	return cmd
}

// statusData lists tracked files, checking each against the disk
func (a *app) statusData() *tui.StatusData {
	data := &tui.StatusData{StatePath: a.statePath}

	paths := make([]string, 0, len(a.state.Files))
	for path := range a.state.Files {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	for _, path := range paths {
		fs := a.state.Files[path]
		f := tui.TrackedFile{
			Path:     path,
			PageID:   fs.PageID,
			Blocks:   fs.Blocks,
			PushedAt: a.state.GetPushedAt(path),
		}
		if _, err := os.Stat(path); err != nil {
			f.Missing = true
		} else if changed, err := a.state.HasChanged(path); err == nil {
			f.Changed = changed
		}
		data.Files = append(data.Files, f)
	}

	return data
}
