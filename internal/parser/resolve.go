package parser

import (
	"fmt"

	"github.com/gerunddev/blockbridge/internal/block"
)

// conversionErrorText replaces the output of a tag whose conversion failed
const conversionErrorText = "⚠️ Error processing content"

func conversionErrorBlock() block.Block {
	return block.NewParagraph([]block.RichText{block.Text(conversionErrorText)})
}

// resolver turns a tag forest over text into blocks, children first
type resolver struct {
	p    *Parser
	text string
}

// resolveAll converts the whole text: root tag spans become blocks and the
// text between them goes through the markdown fallback, in document order.
func (r *resolver) resolveAll(roots []*tagNode) []block.Block {
	resolved := make([][]block.Block, len(roots))
	for i, n := range roots {
		resolved[i] = r.resolveNode(n)
	}
	return r.interleave(0, len(r.text), roots, resolved)
}

// interleave parses the gaps of [start, end) between the given child spans
// with the markdown fallback and splices each child's blocks in between.
func (r *resolver) interleave(start, end int, children []*tagNode, resolved [][]block.Block) []block.Block {
	var out []block.Block
	cursor := start
	for i, c := range children {
		out = append(out, r.p.parseLines(r.text[cursor:c.start])...)
		out = append(out, resolved[i]...)
		cursor = c.end
	}
	return append(out, r.p.parseLines(r.text[cursor:end])...)
}

func (r *resolver) resolveNode(n *tagNode) []block.Block {
	spec := lookupTag(n.name)
	if spec != nil && spec.kind == containerTag {
		return r.resolveList(spec.list, n.inner(r.text))
	}

	resolved := make([][]block.Block, len(n.children))
	var children []block.Block
	for i, c := range n.children {
		resolved[i] = r.resolveNode(c)
		children = append(children, resolved[i]...)
	}

	if spec == nil || spec.convert == nil {
		return r.interleave(n.contentStart, n.contentEnd, n.children, resolved)
	}

	b, err := r.convert(spec, tagMatch{
		name:        n.name,
		attrs:       n.attrs,
		content:     n.contentWithoutChildren(r.text),
		hasChildren: len(children) > 0,
		lines:       r.p.parseLines,
	})
	if err != nil {
		r.p.log.ConversionError(n.name, n.start, err)
		return []block.Block{conversionErrorBlock()}
	}
	if b == nil {
		return r.interleave(n.contentStart, n.contentEnd, n.children, resolved)
	}

	if spec.kind == voidTag {
		// whatever a void tag wraps follows it as siblings
		return append([]block.Block{*b}, r.interleave(n.contentStart, n.contentEnd, n.children, resolved)...)
	}
	if b.SupportsChildren() {
		b.Children = append(b.Children, children...)
		return []block.Block{*b}
	}
	return append([]block.Block{*b}, children...)
}

// convert runs a converter, turning a panic into an error
func (r *resolver) convert(spec *tagSpec, m tagMatch) (b *block.Block, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			b, err = nil, fmt.Errorf("converter panic: %v", rec)
		}
	}()
	return spec.convert(m)
}
