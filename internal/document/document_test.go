package document

import (
	"reflect"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected Document
	}{
		{
			name: "full front matter",
			input: `---
title: Weekly notes
parent: https://www.notion.so/Team-0123456789abcdef0123456789abcdef
icon: 📝
cover: https://example.com/cover.png
tags: [planning, team]
---

# Heading

Body text`,
			expected: Document{
				Title:  "Weekly notes",
				Parent: "https://www.notion.so/Team-0123456789abcdef0123456789abcdef",
				Icon:   "📝",
				Cover:  "https://example.com/cover.png",
				Tags:   []string{"planning", "team"},
				Body:   "# Heading\n\nBody text",
			},
		},
		{
			name:     "no front matter",
			input:    "# Heading\n\n---\n\ntext",
			expected: Document{Body: "# Heading\n\n---\n\ntext"},
		},
		{
			name:     "unterminated front matter is body",
			input:    "---\ntitle: x\nbody",
			expected: Document{Body: "---\ntitle: x\nbody"},
		},
		{
			name:     "page id and crlf",
			input:    "---\r\npage_id: 0123456789abcdef0123456789abcdef\r\n---\r\nappend me",
			expected: Document{PageID: "0123456789abcdef0123456789abcdef", Body: "append me"},
		},
		{
			name:     "empty front matter",
			input:    "---\n---\ncontent",
			expected: Document{Body: "content"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := Parse(tt.input)
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			if !reflect.DeepEqual(*doc, tt.expected) {
				t.Errorf("Parse() mismatch.\nExpected: %+v\nGot:      %+v", tt.expected, *doc)
			}
		})
	}
}

func TestParseMalformedFrontMatter(t *testing.T) {
	if _, err := Parse("---\ntitle: [unclosed\n---\nbody"); err == nil {
		t.Error("Expected error for malformed front matter")
	}
}

func TestHasFrontMatter(t *testing.T) {
	if !HasFrontMatter("---\ntitle: x\n---\n") {
		t.Error("Expected front matter to be detected")
	}
	if HasFrontMatter("plain text") {
		t.Error("Plain text has no front matter")
	}
}

func TestTitleOr(t *testing.T) {
	doc := &Document{}
	if got := doc.TitleOr("notes"); got != "notes" {
		t.Errorf("TitleOr() = %q, want fallback", got)
	}
	doc.Title = "Set"
	if got := doc.TitleOr("notes"); got != "Set" {
		t.Errorf("TitleOr() = %q, want Set", got)
	}
}
