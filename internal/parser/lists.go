package parser

import (
	"strings"

	"github.com/gerunddev/blockbridge/internal/block"
)

type listKind int

const (
	noList listKind = iota
	bulletedList
	numberedList
)

func listKindOf(name string) listKind {
	if spec := lookupTag(name); spec != nil && spec.kind == containerTag {
		return spec.list
	}
	return noList
}

func (k listKind) itemType() block.Type {
	if k == numberedList {
		return block.TypeNumberedListItem
	}
	return block.TypeBulletedListItem
}

// itemChild is one block-level element inside a list item. For nested lists
// markup is the list's inner content; otherwise it is the whole element.
type itemChild struct {
	list   listKind
	markup string
}

// listItem is one <li> split into its own prose and its nested elements
type listItem struct {
	text     string
	children []itemChild
}

// listPart is either prose between items or one item
type listPart struct {
	gap  string
	item *listItem
}

// splitList splits the inner content of a list into items and the prose
// around them, in document order. An item ends at the first </li> that is
// not claimed by a nested <li>. Items that are never closed are skipped up
// to the next closed item, as are items with neither text nor children.
func splitList(inner string) []listPart {
	var tokens []tagToken
	for _, t := range scanTags(inner) {
		if t.name == "li" && !t.selfClosing {
			tokens = append(tokens, t)
		}
	}

	var parts []listPart
	// cursor is -1 while inside an unclosed item
	cursor := 0
	flush := func(end int) {
		if cursor >= 0 && strings.TrimSpace(inner[cursor:end]) != "" {
			parts = append(parts, listPart{gap: inner[cursor:end]})
		}
	}

	for i := 0; i < len(tokens); {
		open := tokens[i]
		if open.closing {
			flush(open.start)
			if cursor >= 0 {
				cursor = open.end
			}
			i++
			continue
		}

		j := matchClose(tokens, nil, i)
		if j < 0 {
			flush(open.start)
			cursor = -1
			i++
			continue
		}

		flush(open.start)
		item := splitItem(inner[open.end:tokens[j].start])
		if item.text != "" || len(item.children) > 0 {
			parts = append(parts, listPart{item: &item})
		}
		cursor = tokens[j].end
		i = j + 1
	}
	flush(len(inner))

	return parts
}

// splitItem separates an item's prose from the block elements it contains,
// keeping the elements in document order.
func splitItem(content string) listItem {
	tokens := scanTags(content)

	var item listItem
	var prose []string
	cursor := 0

	for i := 0; i < len(tokens); i++ {
		t := tokens[i]
		if t.closing || t.start < cursor || !isBlockTag(t.name) || t.name == "li" {
			continue
		}

		end := -1
		if t.selfClosing {
			end = i
		} else if j := matchClose(tokens, nil, i); j >= 0 {
			end = j
		} else if isVoidable(t.name) {
			end = i
		}
		if end < 0 {
			continue
		}

		span := content[t.start:tokens[end].end]
		if t.name == "code" && !strings.Contains(span, "\n") && languageOf(parseAttrs(t.attrs)) == "" {
			// inline code belongs to the prose
			i = end
			continue
		}

		prose = append(prose, content[cursor:t.start])
		if kind := listKindOf(t.name); kind != noList && end != i {
			item.children = append(item.children, itemChild{list: kind, markup: content[t.end:tokens[end].start]})
		} else {
			item.children = append(item.children, itemChild{list: noList, markup: span})
		}
		cursor = tokens[end].end
		i = end
	}
	prose = append(prose, content[cursor:])

	item.text = cleanText(strings.Join(prose, " "))
	return item
}

// resolveList converts the inner content of a ul/ol into item blocks. Prose
// outside the items goes through the markdown fallback in place, so a list
// written in markdown inside the tags still comes out as list items.
func (r *resolver) resolveList(kind listKind, inner string) []block.Block {
	var blocks []block.Block
	for _, part := range splitList(inner) {
		if part.item == nil {
			blocks = append(blocks, r.p.parseLines(part.gap)...)
			continue
		}
		if b, ok := r.resolveItem(kind, *part.item); ok {
			blocks = append(blocks, b)
		}
	}
	return blocks
}

func (r *resolver) resolveItem(kind listKind, item listItem) (block.Block, bool) {
	var children []block.Block
	for _, c := range item.children {
		if c.list != noList {
			children = append(children, r.resolveList(c.list, c.markup)...)
			continue
		}
		children = append(children, r.p.parse(c.markup)...)
	}

	text := item.text
	var runs []block.RichText
	if text == "" && len(children) > 0 && children[0].Type == block.TypeParagraph {
		runs = children[0].RichText
		children = children[1:]
	}
	if text == "" && runs == nil && len(children) == 0 {
		return block.Block{}, false
	}

	rest, checked, isToDo := splitCheckbox(text)
	if runs == nil {
		runs = FormatText(rest)
	}

	if isToDo {
		return block.NewToDo(runs, checked, children), true
	}
	return block.NewListItem(kind.itemType(), runs, children), true
}
