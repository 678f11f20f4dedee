package block

import (
	"fmt"
	"strings"
)

// Type identifies the kind of a block
type Type string

const (
	TypeParagraph        Type = "paragraph"
	TypeHeading1         Type = "heading_1"
	TypeHeading2         Type = "heading_2"
	TypeHeading3         Type = "heading_3"
	TypeBulletedListItem Type = "bulleted_list_item"
	TypeNumberedListItem Type = "numbered_list_item"
	TypeToDo             Type = "to_do"
	TypeToggle           Type = "toggle"
	TypeQuote            Type = "quote"
	TypeCallout          Type = "callout"
	TypeCode             Type = "code"
	TypeDivider          Type = "divider"
	TypeImage            Type = "image"
	TypeEmbed            Type = "embed"
	TypeBookmark         Type = "bookmark"
	TypeEquation         Type = "equation"
	TypeTable            Type = "table"
	TypeTableRow         Type = "table_row"
)

// RichText is a contiguous run of text sharing one formatting state
type RichText struct {
	Text          string
	Bold          bool
	Italic        bool
	Strikethrough bool
	Code          bool
	Link          string
}

// Plain reports whether the run carries no styling at all
func (r RichText) Plain() bool {
	return !r.Bold && !r.Italic && !r.Strikethrough && !r.Code && r.Link == ""
}

// Block is a typed unit of document content.
//
// Only the fields relevant to Type are populated. Children are owned by the
// block and are only set on kinds for which SupportsChildren is true (and on
// tables, whose children are table rows).
type Block struct {
	Type     Type
	RichText []RichText
	Children []Block

	Checked    bool   // to_do
	Language   string // code
	Icon       string // callout emoji
	Color      string // callout, paragraph, headings
	URL        string // image, embed, bookmark
	Caption    []RichText
	Expression string // equation

	TableWidth      int          // table
	HasColumnHeader bool         // table
	Cells           [][]RichText // table_row
}

// SupportsChildren reports whether blocks of this kind may own child blocks
func (t Type) SupportsChildren() bool {
	switch t {
	case TypeBulletedListItem, TypeNumberedListItem, TypeToDo, TypeToggle, TypeQuote, TypeCallout:
		return true
	}
	return false
}

// IsListItem reports whether the kind is one of the list item kinds
func (t Type) IsListItem() bool {
	return t == TypeBulletedListItem || t == TypeNumberedListItem || t == TypeToDo
}

// HasRichText reports whether the kind carries a rich_text payload
func (t Type) HasRichText() bool {
	switch t {
	case TypeParagraph, TypeHeading1, TypeHeading2, TypeHeading3,
		TypeBulletedListItem, TypeNumberedListItem, TypeToDo,
		TypeToggle, TypeQuote, TypeCallout, TypeCode:
		return true
	}
	return false
}

// SupportsChildren reports whether the block may own child blocks
func (b Block) SupportsChildren() bool {
	return b.Type.SupportsChildren()
}

// PlainText returns the concatenated text of the block's rich text runs
func (b Block) PlainText() string {
	switch b.Type {
	case TypeEquation:
		return b.Expression
	case TypeImage, TypeEmbed, TypeBookmark:
		if caption := PlainText(b.Caption); caption != "" {
			return b.URL + " (" + caption + ")"
		}
		return b.URL
	case TypeTableRow:
		cells := make([]string, len(b.Cells))
		for i, cell := range b.Cells {
			cells[i] = PlainText(cell)
		}
		return strings.Join(cells, " | ")
	}
	return PlainText(b.RichText)
}

// PlainText concatenates the text of the given runs, ignoring styling
func PlainText(runs []RichText) string {
	var sb strings.Builder
	for _, r := range runs {
		sb.WriteString(r.Text)
	}
	return sb.String()
}

// Validate checks the structural invariants of a block and its children
func Validate(b Block) error {
	if b.Type == "" {
		return fmt.Errorf("block must have a type")
	}
	if b.Type.HasRichText() && len(b.RichText) == 0 {
		return fmt.Errorf("%s block must have at least one rich text run", b.Type)
	}
	switch b.Type {
	case TypeImage, TypeEmbed, TypeBookmark:
		if b.URL == "" {
			return fmt.Errorf("%s block must have a url", b.Type)
		}
	case TypeEquation:
		if b.Expression == "" {
			return fmt.Errorf("equation block must have an expression")
		}
	case TypeCode:
		if len(b.RichText) != 1 || !b.RichText[0].Plain() {
			return fmt.Errorf("code block must have exactly one unstyled run")
		}
	}
	if len(b.Children) > 0 && !b.SupportsChildren() && b.Type != TypeTable {
		return fmt.Errorf("%s block cannot have children", b.Type)
	}
	for i, child := range b.Children {
		if err := Validate(child); err != nil {
			return fmt.Errorf("child %d of %s: %w", i, b.Type, err)
		}
	}
	return nil
}
