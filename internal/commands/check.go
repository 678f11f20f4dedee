package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gerunddev/blockbridge/internal/notion"
	"github.com/gerunddev/blockbridge/internal/styles"
)

func checkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Verify the Notion token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			client, err := a.client()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			user, err := client.Me(cmd.Context())
			if err != nil {
				var apiErr *notion.APIError
				if errors.As(err, &apiErr) && apiErr.Unauthorized() {
					return fmt.Errorf("the Notion token was rejected: %s", apiErr.Message)
				}
				return fmt.Errorf("failed to reach Notion: %w", err)
			}

			name := user.Name
			if name == "" {
				name = user.ID
			}
			fmt.Fprintln(out, styles.SuccessStyle.Render("✓ Connected as "+name))
			fmt.Fprintln(out, styles.DimStyle.Render(fmt.Sprintf("  %s (Notion-Version %s)", a.cfg.APIBaseURL, a.cfg.NotionVersion)))
			return nil
		},
	}
}

func searchCmd() *cobra.Command {
	var (
		limit     int
		databases bool
	)

	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Find pages by title",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			client, err := a.client()
			if err != nil {
				return err
			}

			query := ""
			if len(args) > 0 {
				query = args[0]
			}
			object := "page"
			if databases {
				object = "database"
			}

			results, err := client.Search(cmd.Context(), query, object, limit)
			if err != nil {
				return err
			}

			printResults(cmd, results)
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum results (0 for all)")
	cmd.Flags().BoolVar(&databases, "databases", false, "search databases instead of pages")

	return cmd
}

func queryCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "query <database> [text]",
		Short: "List the entries of a database",
		Long: `List the entries of a database, optionally only those whose title
contains text. The database may be an id, a URL or a database title.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			client, err := a.client()
			if err != nil {
				return err
			}

			databaseID, err := a.resolveDatabase(cmd.Context(), client, args[0])
			if err != nil {
				return err
			}
			contains := ""
			if len(args) > 1 {
				contains = args[1]
			}

			results, err := client.QueryDatabase(cmd.Context(), databaseID, contains, limit)
			if err != nil {
				return err
			}
			// A failed save is logged and only loses the cached lookup
			_ = a.saveState()

			printResults(cmd, results)
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum entries (0 for all)")

	return cmd
}

func printResults(cmd *cobra.Command, results []notion.SearchResult) {
	out := cmd.OutOrStdout()
	if len(results) == 0 {
		fmt.Fprintln(out, styles.DimStyle.Render("No results"))
		return
	}
	for _, r := range results {
		title := r.Title
		if title == "" {
			title = "(untitled)"
		}
		fmt.Fprintf(out, "%s  %s\n", styles.HighlightStyle.Render(r.ID), title)
		if r.URL != "" {
			fmt.Fprintln(out, styles.DimStyle.Render("  "+r.URL))
		}
	}
}
