package diff

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/glamour"
	"github.com/hexops/gotextdiff"
	"github.com/hexops/gotextdiff/myers"
	"github.com/hexops/gotextdiff/span"

	"github.com/gerunddev/blockbridge/internal/block"
	"github.com/gerunddev/blockbridge/internal/document"
	"github.com/gerunddev/blockbridge/internal/parser"
)

// Format represents what is compared
type Format int

const (
	// FormatOutline compares the indented block outlines (default)
	FormatOutline Format = iota
	// FormatJSON compares the API payloads block by block
	FormatJSON
)

// ParseFormat maps a flag value to a Format
func ParseFormat(name string) (Format, error) {
	switch name {
	case "", "outline":
		return FormatOutline, nil
	case "json":
		return FormatJSON, nil
	default:
		return FormatOutline, fmt.Errorf("unsupported diff format: %s", name)
	}
}

// Files parses both files and returns the unified diff of their blocks.
// The result is empty when both produce the same blocks.
func Files(oldPath, newPath string, p *parser.Parser, format Format) (string, error) {
	oldBlocks, err := parseFile(oldPath, p)
	if err != nil {
		return "", err
	}
	newBlocks, err := parseFile(newPath, p)
	if err != nil {
		return "", err
	}
	return Blocks(filepath.Base(oldPath), filepath.Base(newPath), oldBlocks, newBlocks, format)
}

// Blocks returns the unified diff between two block forests
func Blocks(oldName, newName string, oldBlocks, newBlocks []block.Block, format Format) (string, error) {
	oldText, err := render(oldBlocks, format)
	if err != nil {
		return "", err
	}
	newText, err := render(newBlocks, format)
	if err != nil {
		return "", err
	}
	return Unified(oldName, newName, oldText, newText), nil
}

// Unified diffs two texts. Identical texts give an empty string.
func Unified(oldName, newName, oldText, newText string) string {
	if oldText == newText {
		return ""
	}
	edits := myers.ComputeEdits(span.URIFromPath(oldName), oldText, newText)
	return fmt.Sprint(gotextdiff.ToUnified(oldName, newName, oldText, edits))
}

// Render wraps a unified diff in a diff code fence and renders it with
// Glamour. The fenced plain text is returned when rendering fails.
func Render(unified string) string {
	// Wrap in diff code fence for syntax highlighting (+ in green, - in red)
	diffMarkdown := fmt.Sprintf("```diff\n%s```\n", unified)

	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(120),
	)
	if err != nil {
		return diffMarkdown
	}

	rendered, err := renderer.Render(diffMarkdown)
	if err != nil {
		return diffMarkdown
	}

	return rendered
}

func parseFile(path string, p *parser.Parser) ([]block.Block, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	doc, err := document.Parse(string(content))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	return p.Parse(doc.Body), nil
}

func render(blocks []block.Block, format Format) (string, error) {
	switch format {
	case FormatOutline:
		return block.Outline(blocks), nil
	case FormatJSON:
		// One top-level block per chunk keeps hunks aligned with blocks
		var out []byte
		for _, b := range blocks {
			data, err := json.MarshalIndent(b, "", "  ")
			if err != nil {
				return "", fmt.Errorf("failed to encode %s block: %w", b.Type, err)
			}
			out = append(out, data...)
			out = append(out, '\n')
		}
		return string(out), nil
	default:
		return "", fmt.Errorf("unsupported diff format: %d", format)
	}
}
