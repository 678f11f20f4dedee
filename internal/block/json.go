package block

import (
	"encoding/json"

	"github.com/jomei/notionapi"
)

// Notion converts a run to a Notion rich text object
func (r RichText) Notion() notionapi.RichText {
	rt := &notionapi.RichText{
		Type: notionapi.ObjectTypeText,
		Text: &notionapi.Text{Content: r.Text},
	}
	if r.Link != "" {
		rt.Text.Link = &notionapi.Link{Url: r.Link}
	}
	rt.PlainText = r.Text

	if !r.Bold && !r.Italic && !r.Strikethrough && !r.Code {
		return *rt
	}
	rt.Annotations = &notionapi.Annotations{
		Bold:          r.Bold,
		Italic:        r.Italic,
		Strikethrough: r.Strikethrough,
		Code:          r.Code,
		Color:         notionapi.ColorDefault,
	}
	return *rt
}

// notionRichText never returns nil: the API rejects a null rich_text
func notionRichText(runs []RichText) []notionapi.RichText {
	out := make([]notionapi.RichText, 0, len(runs))
	for _, r := range runs {
		out = append(out, r.Notion())
	}
	return out
}

func basic(t Type) notionapi.BasicBlock {
	return notionapi.BasicBlock{
		Object: notionapi.ObjectTypeBlock,
		Type:   notionapi.BlockType(t),
	}
}

// NotionBlocks converts a block list, children included
func NotionBlocks(blocks []Block) notionapi.Blocks {
	if len(blocks) == 0 {
		return nil
	}
	out := make(notionapi.Blocks, 0, len(blocks))
	for _, b := range blocks {
		out = append(out, b.Notion())
	}
	return out
}

// Notion converts the block to its notionapi request form
func (b Block) Notion() notionapi.Block {
	rt := notionRichText(b.RichText)
	children := NotionBlocks(b.Children)

	switch b.Type {
	case TypeHeading1:
		return &notionapi.Heading1Block{BasicBlock: basic(b.Type), Heading1: notionapi.Heading{RichText: rt, Color: b.Color}}
	case TypeHeading2:
		return &notionapi.Heading2Block{BasicBlock: basic(b.Type), Heading2: notionapi.Heading{RichText: rt, Color: b.Color}}
	case TypeHeading3:
		return &notionapi.Heading3Block{BasicBlock: basic(b.Type), Heading3: notionapi.Heading{RichText: rt, Color: b.Color}}
	case TypeBulletedListItem:
		return &notionapi.BulletedListItemBlock{BasicBlock: basic(b.Type), BulletedListItem: notionapi.ListItem{RichText: rt, Children: children}}
	case TypeNumberedListItem:
		return &notionapi.NumberedListItemBlock{BasicBlock: basic(b.Type), NumberedListItem: notionapi.ListItem{RichText: rt, Children: children}}
	case TypeToDo:
		return &notionapi.ToDoBlock{BasicBlock: basic(b.Type), ToDo: notionapi.ToDo{RichText: rt, Checked: b.Checked, Children: children}}
	case TypeToggle:
		return &notionapi.ToggleBlock{
			BasicBlock: basic(b.Type),
			Toggle:     notionapi.Toggle{RichText: rt, Children: children},
		}
	case TypeQuote:
		return &notionapi.QuoteBlock{
			BasicBlock: basic(b.Type),
			Quote:      notionapi.Quote{RichText: rt, Children: children},
		}
	case TypeCallout:
		callout := notionapi.Callout{RichText: rt, Color: b.Color, Children: children}
		if b.Icon != "" {
			emoji := notionapi.Emoji(b.Icon)
			callout.Icon = &notionapi.Icon{Type: "emoji", Emoji: &emoji}
		}
		return &notionapi.CalloutBlock{BasicBlock: basic(b.Type), Callout: callout}
	case TypeCode:
		return &notionapi.CodeBlock{
			BasicBlock: basic(b.Type),
			Code: notionapi.Code{
				RichText: rt,
				Caption:  notionRichText(b.Caption),
				Language: b.Language,
			},
		}
	case TypeDivider:
		return &notionapi.DividerBlock{BasicBlock: basic(b.Type)}
	case TypeImage:
		return &notionapi.ImageBlock{
			BasicBlock: basic(b.Type),
			Image: notionapi.Image{
				Type:     notionapi.FileTypeExternal,
				External: &notionapi.FileObject{URL: b.URL},
				Caption:  notionRichText(b.Caption),
			},
		}
	case TypeEmbed:
		return &notionapi.EmbedBlock{
			BasicBlock: basic(b.Type),
			Embed:      notionapi.Embed{URL: b.URL, Caption: notionRichText(b.Caption)},
		}
	case TypeBookmark:
		return &notionapi.BookmarkBlock{
			BasicBlock: basic(b.Type),
			Bookmark:   notionapi.Bookmark{URL: b.URL, Caption: notionRichText(b.Caption)},
		}
	case TypeEquation:
		return &notionapi.EquationBlock{
			BasicBlock: basic(b.Type),
			Equation:   notionapi.Equation{Expression: b.Expression},
		}
	case TypeTable:
		return &notionapi.TableBlock{
			BasicBlock: basic(b.Type),
			Table: notionapi.Table{
				TableWidth:      b.TableWidth,
				HasColumnHeader: b.HasColumnHeader,
				Children:        children,
			},
		}
	case TypeTableRow:
		cells := make([][]notionapi.RichText, len(b.Cells))
		for i, c := range b.Cells {
			cells[i] = notionRichText(c)
		}
		return &notionapi.TableRowBlock{
			BasicBlock: basic(b.Type),
			TableRow:   notionapi.TableRow{Cells: cells},
		}
	}

	return &notionapi.ParagraphBlock{BasicBlock: basic(TypeParagraph), Paragraph: notionapi.Paragraph{RichText: rt, Color: b.Color}}
}

// MarshalJSON encodes the block as a Notion API block object:
// {"object":"block","type":T,T:{...}}
func (b Block) MarshalJSON() ([]byte, error) {
	return json.Marshal(b.Notion())
}
