package block

import (
	"fmt"
	"strings"
)

// Walk visits every block depth-first in document order. Returning false from
// fn stops the descent into that block's children.
func Walk(blocks []Block, fn func(b Block, depth int) bool) {
	walk(blocks, 0, fn)
}

func walk(blocks []Block, depth int, fn func(b Block, depth int) bool) {
	for _, b := range blocks {
		if !fn(b, depth) {
			continue
		}
		walk(b.Children, depth+1, fn)
	}
}

// Count returns the total number of blocks in the forest, children included
func Count(blocks []Block) int {
	n := 0
	Walk(blocks, func(Block, int) bool {
		n++
		return true
	})
	return n
}

// CountByType tallies blocks per kind across the whole forest
func CountByType(blocks []Block) map[Type]int {
	counts := make(map[Type]int)
	Walk(blocks, func(b Block, _ int) bool {
		counts[b.Type]++
		return true
	})
	return counts
}

// Outline renders the forest as indented "type: text" lines, one per block.
// The format is stable and is what the diff command compares.
func Outline(blocks []Block) string {
	var sb strings.Builder
	Walk(blocks, func(b Block, depth int) bool {
		sb.WriteString(strings.Repeat("  ", depth))
		sb.WriteString(Label(b))
		sb.WriteString("\n")
		return true
	})
	return sb.String()
}

// Label returns the single-line outline label of a block
func Label(b Block) string {
	text := strings.ReplaceAll(b.PlainText(), "\n", "\\n")

	switch b.Type {
	case TypeToDo:
		mark := " "
		if b.Checked {
			mark = "x"
		}
		return fmt.Sprintf("%s: [%s] %s", b.Type, mark, text)
	case TypeCode:
		return fmt.Sprintf("%s (%s): %s", b.Type, b.Language, text)
	case TypeCallout:
		return fmt.Sprintf("%s %s: %s", b.Type, b.Icon, text)
	case TypeDivider:
		return string(b.Type)
	case TypeTable:
		return fmt.Sprintf("%s: %d columns", b.Type, b.TableWidth)
	}
	return fmt.Sprintf("%s: %s", b.Type, text)
}
