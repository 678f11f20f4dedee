package block

// Text creates a single unstyled run
func Text(s string) RichText {
	return RichText{Text: s}
}

// ensureRuns guarantees at least one (possibly empty) run
func ensureRuns(rt []RichText) []RichText {
	if len(rt) == 0 {
		return []RichText{{}}
	}
	return rt
}

// NewParagraph creates a paragraph block
func NewParagraph(rt []RichText) Block {
	return Block{Type: TypeParagraph, RichText: ensureRuns(rt)}
}

// NewHeading creates a heading block; levels outside 1..3 are clamped
func NewHeading(level int, rt []RichText) Block {
	t := TypeHeading1
	switch {
	case level == 2:
		t = TypeHeading2
	case level >= 3:
		t = TypeHeading3
	}
	return Block{Type: t, RichText: ensureRuns(rt)}
}

// NewListItem creates a bulleted or numbered list item
func NewListItem(t Type, rt []RichText, children []Block) Block {
	if t != TypeNumberedListItem {
		t = TypeBulletedListItem
	}
	return Block{Type: t, RichText: ensureRuns(rt), Children: children}
}

// NewToDo creates a to-do block
func NewToDo(rt []RichText, checked bool, children []Block) Block {
	return Block{Type: TypeToDo, RichText: ensureRuns(rt), Checked: checked, Children: children}
}

// NewToggle creates a toggle block
func NewToggle(rt []RichText, children []Block) Block {
	return Block{Type: TypeToggle, RichText: ensureRuns(rt), Children: children}
}

// NewQuote creates a quote block
func NewQuote(rt []RichText, children []Block) Block {
	return Block{Type: TypeQuote, RichText: ensureRuns(rt), Children: children}
}

// NewCallout creates a callout block with an emoji icon and color
func NewCallout(rt []RichText, icon, color string, children []Block) Block {
	return Block{Type: TypeCallout, RichText: ensureRuns(rt), Icon: icon, Color: color, Children: children}
}

// NewCode creates a code block; the code is stored as one unstyled run
func NewCode(code, language string) Block {
	if language == "" || language == "plain text" {
		language = "plain_text"
	}
	return Block{Type: TypeCode, RichText: []RichText{Text(code)}, Language: language}
}

// NewDivider creates a divider block
func NewDivider() Block {
	return Block{Type: TypeDivider}
}

// NewImage creates an external image block
func NewImage(url string, caption []RichText) Block {
	return Block{Type: TypeImage, URL: url, Caption: caption}
}

// NewEmbed creates an embed block
func NewEmbed(url string) Block {
	return Block{Type: TypeEmbed, URL: url}
}

// NewBookmark creates a bookmark block
func NewBookmark(url string) Block {
	return Block{Type: TypeBookmark, URL: url}
}

// NewEquation creates a display equation block
func NewEquation(expression string) Block {
	return Block{Type: TypeEquation, Expression: expression}
}

// NewTable creates a table from rows of cells. The width is the widest row;
// shorter rows are padded with empty cells.
func NewTable(rows [][][]RichText, hasColumnHeader bool) Block {
	width := 0
	for _, row := range rows {
		if len(row) > width {
			width = len(row)
		}
	}

	children := make([]Block, 0, len(rows))
	for _, row := range rows {
		cells := make([][]RichText, width)
		copy(cells, row)
		for i := range cells {
			if cells[i] == nil {
				cells[i] = []RichText{}
			}
		}
		children = append(children, Block{Type: TypeTableRow, Cells: cells})
	}

	return Block{Type: TypeTable, TableWidth: width, HasColumnHeader: hasColumnHeader, Children: children}
}
