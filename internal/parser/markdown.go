package parser

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/gerunddev/blockbridge/internal/block"
)

var (
	headingLine  = regexp.MustCompile(`^(#{1,6})\s+(.*)$`)
	dividerLine  = regexp.MustCompile(`^(?:-{3,}|\*{3,}|_{3,})$`)
	calloutLine  = regexp.MustCompile(`^>\s*\[!(\w+)\]\s*(.*)$`)
	imageLine    = regexp.MustCompile(`^!\[([^\]]*)\]\(([^)\s]+)(?:\s+"[^"]*")?\)$`)
	equationLine = regexp.MustCompile(`^\$\$(.+?)\$\$$`)
	bareURLLine  = regexp.MustCompile(`^https?://\S+$`)
	todoLine     = regexp.MustCompile(`^[-*+]\s*\[([ xX])\]\s*(.*)$`)
	bulletLine   = regexp.MustCompile(`^[-*+]\s+(.*)$`)
	numberedLine = regexp.MustCompile(`^\d+[.)]\s+(.*)$`)
	quoteLine    = regexp.MustCompile(`^>\s?(.*)$`)
	tableDivider = regexp.MustCompile(`^\|?\s*:?-+:?\s*(?:\|\s*:?-+:?\s*)*\|?$`)
)

// lineBlock is a block produced from a line with the line's indentation
type lineBlock struct {
	indent int
	block  block.Block
}

// indentWidth counts leading whitespace, a tab counting as four spaces
func indentWidth(line string) int {
	width := 0
	for _, r := range line {
		switch r {
		case ' ':
			width++
		case '\t':
			width += 4
		default:
			return width
		}
	}
	return width
}

// parseLines converts free text, one construct per line, into blocks.
// Fenced code is kept verbatim. Lines that still hold markup after inline
// tags are rewritten are dropped.
func (p *Parser) parseLines(text string) []block.Block {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	lines := strings.Split(text, "\n")
	var entries []lineBlock

	for i := 0; i < len(lines); i++ {
		raw := lines[i]
		trimmed := strings.TrimSpace(raw)
		if trimmed == "" {
			continue
		}
		indent := indentWidth(raw)
		emit := func(b block.Block) {
			entries = append(entries, lineBlock{indent: indent, block: b})
		}

		if isFence(trimmed) {
			code, lang, next := readFence(lines, i)
			emit(block.NewCode(code, lang))
			i = next
			continue
		}

		if trimmed == "$$" {
			if expr, next, ok := readEquationFence(lines, i); ok {
				if expr != "" {
					emit(block.NewEquation(expr))
				}
				i = next
				continue
			}
		}

		line := inlineHTMLToMarkdown(trimmed)
		if hasResidualTag(line) {
			continue
		}

		if m := headingLine.FindStringSubmatch(line); m != nil {
			if text := cleanLine(m[2]); text != "" {
				emit(block.NewHeading(len(m[1]), FormatText(text)))
			}
			continue
		}

		if dividerLine.MatchString(line) {
			emit(block.NewDivider())
			continue
		}

		if m := calloutLine.FindStringSubmatch(line); m != nil {
			parts := []string{m[2]}
			for i+1 < len(lines) {
				next := strings.TrimSpace(lines[i+1])
				if !strings.HasPrefix(next, ">") || calloutLine.MatchString(next) {
					break
				}
				parts = append(parts, strings.TrimSpace(strings.TrimPrefix(next, ">")))
				i++
			}
			emoji, color := calloutStyle(m[1])
			emit(block.NewCallout(FormatText(cleanLine(inlineHTMLToMarkdown(strings.Join(parts, "\n")))), emoji, color, nil))
			continue
		}

		if m := imageLine.FindStringSubmatch(line); m != nil && validURL(m[2]) {
			var caption []block.RichText
			if alt := cleanLine(m[1]); alt != "" {
				caption = []block.RichText{block.Text(alt)}
			}
			emit(block.NewImage(m[2], caption))
			continue
		}

		if m := equationLine.FindStringSubmatch(line); m != nil {
			if expr := strings.TrimSpace(decodeEntities(m[1])); expr != "" {
				emit(block.NewEquation(expr))
			}
			continue
		}

		if bareURLLine.MatchString(line) {
			if p.isEmbeddable(line) {
				emit(block.NewEmbed(line))
			} else {
				emit(block.NewBookmark(line))
			}
			continue
		}

		if m := todoLine.FindStringSubmatch(line); m != nil {
			emit(block.NewToDo(FormatText(cleanLine(m[2])), m[1] != " ", nil))
			continue
		}

		if m := bulletLine.FindStringSubmatch(line); m != nil {
			emit(block.NewListItem(block.TypeBulletedListItem, FormatText(cleanLine(m[1])), nil))
			continue
		}

		if m := numberedLine.FindStringSubmatch(line); m != nil {
			emit(block.NewListItem(block.TypeNumberedListItem, FormatText(cleanLine(m[1])), nil))
			continue
		}

		if m := quoteLine.FindStringSubmatch(line); m != nil {
			parts := []string{m[1]}
			for i+1 < len(lines) {
				next := inlineHTMLToMarkdown(strings.TrimSpace(lines[i+1]))
				qm := quoteLine.FindStringSubmatch(next)
				if qm == nil || calloutLine.MatchString(next) || hasResidualTag(next) {
					break
				}
				parts = append(parts, qm[1])
				i++
			}
			emit(block.NewQuote(FormatText(cleanLine(strings.Join(parts, "\n"))), nil))
			continue
		}

		if strings.HasPrefix(line, "|") {
			if table, next, ok := readTable(lines, i); ok {
				emit(table)
				i = next
				continue
			}
		}

		if text := cleanLine(line); text != "" {
			emit(block.NewParagraph(FormatText(text)))
		}
	}

	return nestByIndent(entries)
}

// isFence reports whether a trimmed line opens or closes a ``` fence
func isFence(trimmed string) bool {
	return strings.HasPrefix(trimmed, "```")
}

// oneLineFence returns the code of a ```code``` line. A line of nothing but
// backticks is an opening fence, not an empty one-liner.
func oneLineFence(trimmed string) (string, bool) {
	if !isFence(trimmed) || strings.Trim(trimmed, "`") == "" || !strings.HasSuffix(trimmed, "```") {
		return "", false
	}
	return strings.TrimSpace(strings.Trim(trimmed, "`")), true
}

// readFence reads a ``` fenced block starting at lines[start]. It returns the
// verbatim code, the info-string language and the index of the closing
// fence (or the last line when the fence is never closed).
func readFence(lines []string, start int) (code, lang string, end int) {
	opener := strings.TrimSpace(lines[start])
	if code, ok := oneLineFence(opener); ok {
		return code, "", start
	}

	info := strings.TrimSpace(strings.TrimLeft(opener, "`"))
	if strings.EqualFold(info, "plain text") {
		lang = "plain text"
	} else if fields := strings.Fields(info); len(fields) > 0 {
		lang = strings.ToLower(fields[0])
	}

	var body []string
	for end = start + 1; end < len(lines); end++ {
		if isFence(strings.TrimSpace(lines[end])) {
			return strings.Join(body, "\n"), lang, end
		}
		body = append(body, lines[end])
	}
	return strings.Join(body, "\n"), lang, len(lines) - 1
}

// readEquationFence reads a multi-line $$ block. ok is false when the fence
// never closes.
func readEquationFence(lines []string, start int) (expr string, end int, ok bool) {
	var body []string
	for end = start + 1; end < len(lines); end++ {
		if strings.TrimSpace(lines[end]) == "$$" {
			return strings.TrimSpace(strings.Join(body, "\n")), end, true
		}
		body = append(body, lines[end])
	}
	return "", start, false
}

func splitTableRow(line string) []string {
	line = strings.TrimSpace(line)
	line = strings.TrimPrefix(line, "|")
	line = strings.TrimSuffix(line, "|")
	cells := strings.Split(line, "|")
	for i := range cells {
		cells[i] = strings.TrimSpace(cells[i])
	}
	return cells
}

// readTable reads consecutive pipe-table lines. A table needs at least two
// rows; a divider row after the first marks it as a header.
func readTable(lines []string, start int) (block.Block, int, bool) {
	end := start
	for end+1 < len(lines) && strings.HasPrefix(strings.TrimSpace(lines[end+1]), "|") {
		end++
	}
	if end == start {
		return block.Block{}, start, false
	}

	hasHeader := false
	var rows [][][]block.RichText
	for i := start; i <= end; i++ {
		line := strings.TrimSpace(lines[i])
		if i == start+1 && tableDivider.MatchString(line) {
			hasHeader = true
			continue
		}
		var row [][]block.RichText
		for _, cell := range splitTableRow(line) {
			text := cleanLine(inlineHTMLToMarkdown(cell))
			if text == "" {
				row = append(row, []block.RichText{})
				continue
			}
			row = append(row, FormatText(text))
		}
		rows = append(rows, row)
	}

	return block.NewTable(rows, hasHeader), end, true
}

func validURL(raw string) bool {
	_, err := checkURL(raw)
	return err == nil
}

// isEmbeddable reports whether a URL's host is on the embed allow-list,
// directly or as a subdomain.
func (p *Parser) isEmbeddable(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	for _, d := range p.embedDomains {
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}

type indentNode struct {
	entry    lineBlock
	children []*indentNode
}

// nestByIndent makes each entry indented at least two columns deeper than
// the preceding list item a child of that item.
func nestByIndent(entries []lineBlock) []block.Block {
	var roots []*indentNode
	var stack []*indentNode

	for _, e := range entries {
		n := &indentNode{entry: e}
		for len(stack) > 0 && e.indent < stack[len(stack)-1].entry.indent+2 {
			stack = stack[:len(stack)-1]
		}
		if len(stack) > 0 {
			top := stack[len(stack)-1]
			top.children = append(top.children, n)
		} else {
			roots = append(roots, n)
		}
		if e.block.Type.IsListItem() {
			stack = append(stack, n)
		}
	}

	return flattenIndent(roots)
}

func flattenIndent(nodes []*indentNode) []block.Block {
	if len(nodes) == 0 {
		return nil
	}
	blocks := make([]block.Block, 0, len(nodes))
	for _, n := range nodes {
		b := n.entry.block
		if kids := flattenIndent(n.children); len(kids) > 0 {
			b.Children = append(b.Children, kids...)
		}
		blocks = append(blocks, b)
	}
	return blocks
}
