package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/gerunddev/blockbridge/internal/block"
	"github.com/gerunddev/blockbridge/internal/document"
	"github.com/gerunddev/blockbridge/internal/notion"
	"github.com/gerunddev/blockbridge/internal/styles"
	"github.com/gerunddev/blockbridge/internal/tui"
)

// ErrNothingToAdd is returned when a non-empty file produces no blocks
var ErrNothingToAdd = errors.New("no blocks to add")

// pushOptions selects where a file goes
type pushOptions struct {
	Parent   string // create a new page under this page
	Page     string // append to this page instead
	Database string // create an entry in this database instead
	Force    bool   // push even when unchanged since the last push
}

func pushCmd() *cobra.Command {
	var (
		opts   pushOptions
		dryRun bool
		plain  bool
	)

	cmd := &cobra.Command{
		Use:   "push <file|dir>...",
		Short: "Send files to Notion",
		Long: `Parse each file and send its blocks to Notion.

By default a new page is created under the parent page, taken from
--parent, the "parent" front matter field or default_parent in the
config. With --page or a "page_id" front matter field the blocks are
appended to that page instead. With --database or a "database" front
matter field the file becomes a new entry of that database. Parents,
pages and databases may be ids, URLs or titles.

Directories are searched recursively for notes. Files that have not
changed since their last push are skipped.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			args, err = collectFiles(args)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if dryRun {
				for _, path := range args {
					if err := a.previewPush(cmd, path, opts); err != nil {
						return err
					}
				}
				return nil
			}

			client, err := a.client()
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			var failed int
			for _, path := range args {
				var result *tui.PushResult
				if len(args) == 1 && useTUI(cmd, plain) {
					result, err = a.pushWithProgress(ctx, client, path, opts)
				} else {
					result, err = a.push(ctx, client, path, opts)
					if err == nil {
						fmt.Fprint(out, tui.RenderPushResult(result))
					}
				}
				if err != nil {
					failed++
					a.log.FileError(path, err)
					var shown errShown
					if !errors.As(err, &shown) {
						fmt.Fprintln(cmd.ErrOrStderr(), styles.ErrorStyle.Render(fmt.Sprintf("✗ %s: %v", path, err)))
					}
				}
			}

			if failed > 0 {
				return fmt.Errorf("%d of %d file(s) failed", failed, len(args))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.Parent, "parent", "", "parent page for new pages (id, URL or title)")
	cmd.Flags().StringVar(&opts.Page, "page", "", "append to this page instead of creating one")
	cmd.Flags().StringVar(&opts.Database, "database", "", "create an entry in this database instead of a page")
	cmd.Flags().BoolVarP(&opts.Force, "force", "f", false, "push even if the file has not changed")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "show what would be pushed without calling the API")
	cmd.Flags().BoolVar(&plain, "plain", false, "disable the progress display")

	return cmd
}

// push parses one file and sends it to Notion, recording the result in the
// state file
func (a *app) push(ctx context.Context, client *notion.Client, path string, opts pushOptions) (*tui.PushResult, error) {
	start := time.Now()

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	result := &tui.PushResult{File: filepath.Base(path)}

	if !opts.Force {
		changed, err := a.state.HasChanged(absPath)
		if err != nil {
			return nil, fmt.Errorf("failed to check %s: %w", path, err)
		}
		if !changed {
			a.log.FileSkipped(absPath, "unchanged")
			result.Skipped = true
			result.PageID, _ = a.state.PageID(absPath)
			return result, nil
		}
	}

	doc, blocks, err := a.parseFile(absPath)
	if err != nil {
		return nil, err
	}
	if len(blocks) == 0 {
		return nil, fmt.Errorf("%s: %w", path, ErrNothingToAdd)
	}

	if pageRef := firstNonEmpty(opts.Page, doc.PageID); pageRef != "" {
		pageID, err := a.resolve(ctx, client, pageRef)
		if err != nil {
			return nil, err
		}
		submitted, err := client.SubmitBlocks(ctx, pageID, blocks)
		if err != nil {
			return nil, err
		}
		result.PageID = pageID
		result.Blocks = submitted.Blocks
		result.Batches = submitted.Batches
	} else if dbRef := firstNonEmpty(opts.Database, doc.Database); dbRef != "" {
		databaseID, err := a.resolveDatabase(ctx, client, dbRef)
		if err != nil {
			return nil, err
		}
		entry, err := client.CreateDatabaseEntry(ctx, databaseID, notion.PageInput{
			Title:    doc.TitleOr(strings.TrimSuffix(result.File, filepath.Ext(result.File))),
			Icon:     doc.Icon,
			Cover:    doc.Cover,
			Children: blocks,
		})
		if err != nil {
			return nil, err
		}
		result.Created = true
		result.PageID = entry.ID
		result.PageURL = entry.URL
		result.Blocks = len(blocks)
		result.Batches = batches(len(blocks))
	} else {
		parentRef := firstNonEmpty(opts.Parent, doc.Parent, a.cfg.DefaultParent)
		if parentRef == "" {
			return nil, fmt.Errorf("%s: no parent page: use --parent, a \"parent\" front matter field or default_parent in the config", path)
		}
		parentID, err := a.resolve(ctx, client, parentRef)
		if err != nil {
			return nil, err
		}
		page, err := client.CreatePage(ctx, notion.PageInput{
			ParentID: parentID,
			Title:    doc.TitleOr(strings.TrimSuffix(result.File, filepath.Ext(result.File))),
			Icon:     doc.Icon,
			Cover:    doc.Cover,
			Children: blocks,
		})
		if err != nil {
			return nil, err
		}
		result.Created = true
		result.PageID = page.ID
		result.PageURL = page.URL
		result.Blocks = len(blocks)
		result.Batches = batches(len(blocks))
	}

	if err := a.state.Update(absPath, result.PageID, block.Count(blocks)); err != nil {
		a.log.StateError("update", err)
	} else if err := a.saveState(); err != nil {
		return nil, fmt.Errorf("pushed but failed to save state: %w", err)
	}

	a.log.FilePushed(absPath, result.PageID, result.Blocks)
	result.Duration = time.Since(start)
	return result, nil
}

// pushWithProgress runs push behind a spinner
func (a *app) pushWithProgress(ctx context.Context, client *notion.Client, path string, opts pushOptions) (*tui.PushResult, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	type outcome struct {
		result *tui.PushResult
		err    error
	}
	done := make(chan outcome, 1)

	p := tea.NewProgram(tui.InitPushModel(filepath.Base(path)))
	go func() {
		result, err := a.push(ctx, client, path, opts)
		done <- outcome{result, err}
		p.Send(tui.PushMsg{Result: result, Err: err})
	}()

	final, runErr := p.Run()
	// Quitting early abandons the push
	cancel()
	res := <-done

	if runErr != nil {
		return nil, runErr
	}
	if res.err != nil {
		if m, ok := final.(interface{ Err() error }); ok && m.Err() != nil {
			return nil, errShown{res.err}
		}
		return nil, res.err
	}
	return res.result, nil
}

// errShown wraps an error that has already been printed
type errShown struct{ error }

func (e errShown) Unwrap() error { return e.error }

// previewPush prints what push would send, without calling the API
func (a *app) previewPush(cmd *cobra.Command, path string, opts pushOptions) error {
	doc, blocks, err := a.parseFile(path)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	name := filepath.Base(path)
	target := "new page under " + firstNonEmpty(opts.Parent, doc.Parent, a.cfg.DefaultParent, "(no parent)")
	if pageRef := firstNonEmpty(opts.Page, doc.PageID); pageRef != "" {
		target = "append to " + pageRef
	} else if dbRef := firstNonEmpty(opts.Database, doc.Database); dbRef != "" {
		target = "new entry in " + dbRef
	}

	fmt.Fprintln(out, styles.TitleStyle.Render(fmt.Sprintf("%s (dry run)", name)))
	fmt.Fprintln(out, styles.DimStyle.Render(fmt.Sprintf("%d block(s), %s", block.Count(blocks), target)))
	fmt.Fprintln(out, renderTree(doc.TitleOr(name), blocks))
	return nil
}

// parseFile reads a source file and parses its body
func (a *app) parseFile(path string) (*document.Document, []block.Block, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	doc, err := document.Parse(string(content))
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, a.parser.Parse(doc.Body), nil
}

// resolve turns a page reference into an id, caching title lookups in the
// state file
func (a *app) resolve(ctx context.Context, client *notion.Client, ref string) (string, error) {
	if id, ok := notion.CanonicalID(ref); ok {
		return id, nil
	}
	if id, ok := a.state.CachedID(ref); ok {
		return id, nil
	}

	id, err := client.ResolveID(ctx, ref)
	if err != nil {
		return "", fmt.Errorf("failed to resolve page %q: %w", ref, err)
	}
	a.state.RememberID(ref, id)
	return id, nil
}

// resolveDatabase is resolve for database references. Cached ids are kept
// apart from page lookups of the same title.
func (a *app) resolveDatabase(ctx context.Context, client *notion.Client, ref string) (string, error) {
	if id, ok := notion.CanonicalID(ref); ok {
		return id, nil
	}
	key := "database:" + ref
	if id, ok := a.state.CachedID(key); ok {
		return id, nil
	}

	id, err := client.ResolveDatabaseID(ctx, ref)
	if err != nil {
		return "", fmt.Errorf("failed to resolve database %q: %w", ref, err)
	}
	a.state.RememberID(key, id)
	return id, nil
}

// batches is the number of requests needed to send n top-level blocks
func batches(n int) int {
	return (n + notion.MaxBlocksPerRequest - 1) / notion.MaxBlocksPerRequest
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
