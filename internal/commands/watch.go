package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/gerunddev/blockbridge/internal/notion"
	"github.com/gerunddev/blockbridge/internal/styles"
	"github.com/gerunddev/blockbridge/internal/tui"
	"github.com/gerunddev/blockbridge/internal/watch"
)

func watchCmd() *cobra.Command {
	var (
		opts  pushOptions
		plain bool
	)

	cmd := &cobra.Command{
		Use:   "watch <dir>",
		Short: "Push files in a directory whenever they change",
		Long: `Watch a directory tree and push .md, .markdown and .txt files
after they change. Changes are debounced (watch_debounce in the config)
so a burst of saves results in one push.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := args[0]
			if info, err := os.Stat(dir); err != nil || !info.IsDir() {
				return fmt.Errorf("not a directory: %s", dir)
			}

			a, err := loadApp(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			client, err := a.client()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if !client.IsCredentialValid(ctx) {
				return fmt.Errorf("the Notion token was rejected; run 'blockbridge check'")
			}

			if useTUI(cmd, plain) {
				return a.watchWithDashboard(ctx, client, dir, opts)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, styles.TitleStyle.Render("Watching "+dir))
			handle := a.watchHandler(client, opts, func(e tui.WatchEventMsg) {
				switch {
				case e.Err != nil:
					fmt.Fprintln(out, styles.ErrorStyle.Render(fmt.Sprintf("✗ %s: %v", e.Path, e.Err)))
				default:
					fmt.Fprintln(out, styles.SuccessStyle.Render(fmt.Sprintf("✓ %s (%d blocks)", e.Path, e.Blocks)))
				}
			})
			return watch.New(dir, a.cfg.WatchDebounce, handle, watch.WithLogger(a.log)).Run(ctx)
		},
	}

	cmd.Flags().StringVar(&opts.Parent, "parent", "", "parent page for new pages (id, URL or title)")
	cmd.Flags().BoolVar(&plain, "plain", false, "print one line per push instead of the dashboard")

	return cmd
}

// watchHandler pushes one changed file and reports the outcome. Files that
// are unchanged or produce no blocks are not reported.
func (a *app) watchHandler(client *notion.Client, opts pushOptions, report func(tui.WatchEventMsg)) watch.Handler {
	return func(ctx context.Context, path string) error {
		result, err := a.push(ctx, client, path, opts)
		if errors.Is(err, ErrNothingToAdd) {
			a.log.FileSkipped(path, "no blocks")
			return nil
		}
		if err == nil && result.Skipped {
			return nil
		}

		e := tui.WatchEventMsg{Path: path, Err: err, At: timeNow()}
		if result != nil {
			e.Blocks = result.Blocks
		}
		report(e)
		return err
	}
}

// watchWithDashboard runs the watcher behind the live dashboard
func (a *app) watchWithDashboard(ctx context.Context, client *notion.Client, dir string, opts pushOptions) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(tui.InitWatchModel(dir), tea.WithAltScreen())

	handle := a.watchHandler(client, opts, func(e tui.WatchEventMsg) {
		p.Send(e)
	})

	errCh := make(chan error, 1)
	go func() {
		err := watch.New(dir, a.cfg.WatchDebounce, handle, watch.WithLogger(a.log)).Run(ctx)
		if err != nil {
			p.Quit()
		}
		errCh <- err
	}()

	go func() {
		<-ctx.Done()
		p.Quit()
	}()

	if _, err := p.Run(); err != nil {
		return err
	}

	cancel()
	return <-errCh
}
