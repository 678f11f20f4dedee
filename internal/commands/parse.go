package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss/tree"
	"github.com/spf13/cobra"

	"github.com/gerunddev/blockbridge/internal/block"
	"github.com/gerunddev/blockbridge/internal/document"
	"github.com/gerunddev/blockbridge/internal/styles"
)

const maxLabelWidth = 96

func parseCmd() *cobra.Command {
	var (
		asJSON bool
		plain  bool
		stats  bool
	)

	cmd := &cobra.Command{
		Use:   "parse [file|-]",
		Short: "Print the block tree of a file",
		Long: `Parse a hybrid Markdown/XML file and print the resulting blocks.
Reads standard input when the file is "-" or omitted.`,
		Args: cobra.MaximumNArgs(1),
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
			blocks := a.parser.Parse(doc.Body)

			out := cmd.OutOrStdout()
			switch {
			case asJSON:
				data, err := json.MarshalIndent(blocks, "", "  ")
				if err != nil {
					return fmt.Errorf("failed to encode blocks: %w", err)
				}
				fmt.Fprintln(out, string(data))
			case plain:
				fmt.Fprint(out, block.Outline(blocks))
			default:
				fmt.Fprintln(out, renderTree(doc.TitleOr(name), blocks))
			}

			if stats {
				fmt.Fprintln(out)
				fmt.Fprint(out, renderStats(blocks))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the Notion API payload")
	cmd.Flags().BoolVar(&plain, "plain", false, "print an unstyled indented outline")
	cmd.Flags().BoolVar(&stats, "stats", false, "print block counts per type")

	return cmd
}

// readInput returns a display name and the content of the file argument,
// or of standard input
func readInput(cmd *cobra.Command, args []string) (string, string, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return "stdin", string(data), nil
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return "", "", fmt.Errorf("failed to read %s: %w", args[0], err)
	}
	return filepath.Base(args[0]), string(data), nil
}

// renderTree draws the blocks as a lipgloss tree under a title root
func renderTree(title string, blocks []block.Block) string {
	t := tree.Root(title).
		RootStyle(styles.TreeRootStyle).
		Enumerator(tree.RoundedEnumerator).
		EnumeratorStyle(styles.TreeEnumeratorStyle)

	if len(blocks) == 0 {
		t.Child(styles.DimStyle.Render("(no blocks)"))
	}
	for _, b := range blocks {
		t.Child(blockNode(b))
	}
	return t.String()
}

// blockNode returns a styled label, or a subtree for blocks with children
func blockNode(b block.Block) any {
	label := styles.BlockStyle(b.Type).Render(truncate(block.Label(b), maxLabelWidth))
	if len(b.Children) == 0 {
		return label
	}

	sub := tree.Root(label).
		Enumerator(tree.RoundedEnumerator).
		EnumeratorStyle(styles.TreeEnumeratorStyle)
	for _, c := range b.Children {
		sub.Child(blockNode(c))
	}
	return sub
}

func renderStats(blocks []block.Block) string {
	counts := block.CountByType(blocks)

	types := make([]string, 0, len(counts))
	for t := range counts {
		types = append(types, string(t))
	}
	sort.Strings(types)

	var b strings.Builder
	b.WriteString(styles.HeaderStyle.Render(fmt.Sprintf("%d blocks", block.Count(blocks))))
	b.WriteString("\n")
	for _, t := range types {
		b.WriteString(fmt.Sprintf("  %-20s %s\n", t, styles.ValueStyle.Render(fmt.Sprintf("%d", counts[block.Type(t)]))))
	}
	return b.String()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
