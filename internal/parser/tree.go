package parser

import (
	"regexp"
	"sort"
	"strings"

	"github.com/gerunddev/blockbridge/internal/logger"
)

// tagPattern matches a single opening, closing or self-closing tag.
// Attribute text may not contain angle brackets, so a fragment such as
// "<broken tag<p>" never reads as one tag.
var tagPattern = regexp.MustCompile(`</?([a-zA-Z][a-zA-Z0-9-]*)((?:\s[^<>]*?)?)(/?)>`)

var attrPattern = regexp.MustCompile(`([a-zA-Z_:][-a-zA-Z0-9_:.]*)(?:\s*=\s*(?:"([^"]*)"|'([^']*)'|([^\s"'=<>` + "`" + `]+)))?`)

// tagToken is one tag occurrence found by the tokenizer
type tagToken struct {
	name        string
	start, end  int
	attrs       string
	closing     bool
	selfClosing bool
}

// tagNode is a tag occurrence with its span, paired or void. Spans of nodes
// in one tree are either disjoint or strictly nested.
type tagNode struct {
	name         string
	start, end   int
	contentStart int
	contentEnd   int
	attrs        map[string]string
	selfClosing  bool
	children     []*tagNode
	depth        int
}

func (n *tagNode) inner(text string) string {
	return text[n.contentStart:n.contentEnd]
}

// contentWithoutChildren returns the node's inner text with every child span
// removed.
func (n *tagNode) contentWithoutChildren(text string) string {
	if len(n.children) == 0 {
		return n.inner(text)
	}

	var sb strings.Builder
	cursor := n.contentStart
	for _, c := range n.children {
		sb.WriteString(text[cursor:c.start])
		cursor = c.end
	}
	sb.WriteString(text[cursor:n.contentEnd])
	return sb.String()
}

// scanTags tokenizes every tag in s, in document order
func scanTags(s string) []tagToken {
	locs := tagPattern.FindAllStringSubmatchIndex(s, -1)
	tokens := make([]tagToken, 0, len(locs))
	for _, loc := range locs {
		tokens = append(tokens, tagToken{
			name:        strings.ToLower(s[loc[2]:loc[3]]),
			start:       loc[0],
			end:         loc[1],
			attrs:       s[loc[4]:loc[5]],
			closing:     s[loc[0]+1] == '/',
			selfClosing: loc[7] > loc[6],
		})
	}
	return tokens
}

// parseAttrs reads name=value pairs. Keys are lowercased; a bare attribute
// maps to the empty string.
func parseAttrs(raw string) map[string]string {
	attrs := make(map[string]string)
	for _, m := range attrPattern.FindAllStringSubmatch(raw, -1) {
		value := m[2]
		if value == "" {
			value = m[3]
		}
		if value == "" {
			value = m[4]
		}
		attrs[strings.ToLower(m[1])] = decodeEntities(value)
	}
	return attrs
}

// fencedRanges returns the byte ranges of ``` fenced code blocks. An
// unclosed fence runs to the end of the text.
func fencedRanges(text string) [][2]int {
	var ranges [][2]int
	open := -1
	offset := 0
	for _, line := range strings.SplitAfter(text, "\n") {
		if trimmed := strings.TrimSpace(line); isFence(trimmed) {
			_, oneLine := oneLineFence(trimmed)
			switch {
			case open < 0 && oneLine:
				ranges = append(ranges, [2]int{offset, offset + len(line)})
			case open < 0:
				open = offset
			default:
				ranges = append(ranges, [2]int{open, offset + len(line)})
				open = -1
			}
		}
		offset += len(line)
	}
	if open >= 0 {
		ranges = append(ranges, [2]int{open, len(text)})
	}
	return ranges
}

func inRanges(pos int, ranges [][2]int) bool {
	for _, r := range ranges {
		if pos >= r[0] && pos < r[1] {
			return true
		}
	}
	return false
}

// matchClose finds the index of the token closing tokens[i], counting nested
// opens of the same name. Masked tokens are ignored. Returns -1 if the tag is
// never closed.
func matchClose(tokens []tagToken, masked []bool, i int) int {
	name := tokens[i].name
	depth := 0
	for j := i + 1; j < len(tokens); j++ {
		t := tokens[j]
		if (masked != nil && masked[j]) || t.name != name || t.selfClosing {
			continue
		}
		if !t.closing {
			depth++
			continue
		}
		if depth == 0 {
			return j
		}
		depth--
	}
	return -1
}

func pairedNode(open, close tagToken) *tagNode {
	return &tagNode{
		name:         open.name,
		start:        open.start,
		end:          close.end,
		contentStart: open.end,
		contentEnd:   close.start,
		attrs:        parseAttrs(open.attrs),
	}
}

func voidNode(t tagToken) *tagNode {
	return &tagNode{
		name:         t.name,
		start:        t.start,
		end:          t.end,
		contentStart: t.end,
		contentEnd:   t.end,
		attrs:        parseAttrs(t.attrs),
		selfClosing:  true,
	}
}

// buildTagTree locates every block-level tag in text and arranges the
// occurrences into a forest mirroring their textual nesting. Inline tags are
// left in the text for the cleanup pass.
func buildTagTree(text string, log *logger.Logger) []*tagNode {
	tokens := scanTags(text)
	if len(tokens) == 0 {
		return nil
	}

	fences := fencedRanges(text)
	masked := make([]bool, len(tokens))
	for i, t := range tokens {
		masked[i] = inRanges(t.start, fences)
	}

	var nodes []*tagNode

	// Opaque tags first: their interiors are raw text, so nothing inside them
	// may pair with anything outside.
	for i, t := range tokens {
		if masked[i] || t.closing || !isOpaque(t.name) {
			continue
		}
		if t.selfClosing {
			masked[i] = true
			nodes = append(nodes, voidNode(t))
			continue
		}

		j := matchClose(tokens, masked, i)
		if j < 0 {
			masked[i] = true
			if isVoidable(t.name) {
				nodes = append(nodes, voidNode(t))
			} else {
				log.TagDropped(t.name, t.start, "unclosed")
			}
			continue
		}
		for k := i; k <= j; k++ {
			masked[k] = true
		}

		n := pairedNode(t, tokens[j])
		if n.name == "code" && languageOf(n.attrs) == "" && !strings.Contains(n.inner(text), "\n") {
			// inline code stays in the surrounding text
			continue
		}
		nodes = append(nodes, n)
	}

	stacks := make(map[string][]tagToken)
	for i, t := range tokens {
		if masked[i] || isOpaque(t.name) || isInline(t.name) {
			continue
		}
		switch {
		case t.selfClosing:
			nodes = append(nodes, voidNode(t))
		case t.closing:
			open := stacks[t.name]
			if len(open) == 0 {
				log.TagDropped(t.name, t.start, "stray closing tag")
				continue
			}
			nodes = append(nodes, pairedNode(open[len(open)-1], t))
			stacks[t.name] = open[:len(open)-1]
		default:
			stacks[t.name] = append(stacks[t.name], t)
		}
	}

	var unclosed []tagToken
	for _, open := range stacks {
		unclosed = append(unclosed, open...)
	}
	sort.Slice(unclosed, func(i, j int) bool { return unclosed[i].start < unclosed[j].start })
	for _, t := range unclosed {
		if isVoidable(t.name) {
			nodes = append(nodes, voidNode(t))
			continue
		}
		log.TagDropped(t.name, t.start, "unclosed")
	}

	return nestNodes(nodes, log)
}

// nestNodes sorts nodes by position and attaches each to the innermost
// earlier node that encloses it.
func nestNodes(nodes []*tagNode, log *logger.Logger) []*tagNode {
	sort.SliceStable(nodes, func(i, j int) bool {
		if nodes[i].start != nodes[j].start {
			return nodes[i].start < nodes[j].start
		}
		return nodes[i].end > nodes[j].end
	})

	var roots []*tagNode
	var stack []*tagNode
	var prev *tagNode

	for _, n := range nodes {
		if prev != nil && prev.start == n.start && prev.end == n.end {
			continue
		}
		prev = n

		for len(stack) > 0 && stack[len(stack)-1].end <= n.start {
			stack = stack[:len(stack)-1]
		}

		if len(stack) > 0 {
			top := stack[len(stack)-1]
			if n.end > top.end {
				log.TagDropped(n.name, n.start, "overlaps "+top.name)
				continue
			}
			if isOpaque(top.name) {
				log.TagDropped(n.name, n.start, "inside "+top.name)
				continue
			}
			n.depth = len(stack)
			top.children = append(top.children, n)
		} else {
			roots = append(roots, n)
		}

		if !n.selfClosing {
			stack = append(stack, n)
		}
	}

	return roots
}
