package parser

import (
	"reflect"
	"testing"
)

// listItems keeps only the items of a split list
func listItems(inner string) []listItem {
	var items []listItem
	for _, part := range splitList(inner) {
		if part.item != nil {
			items = append(items, *part.item)
		}
	}
	return items
}

func TestSplitListItems(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []listItem
	}{
		{
			name:  "flat",
			input: "<li>A</li><li>B</li>",
			expected: []listItem{
				{text: "A"},
				{text: "B"},
			},
		},
		{
			name:  "nested list belongs to its item",
			input: "<li>A<ul><li>C</li></ul></li><li>B</li>",
			expected: []listItem{
				{text: "A", children: []itemChild{{list: bulletedList, markup: "<li>C</li>"}}},
				{text: "B"},
			},
		},
		{
			name:     "empty items are skipped",
			input:    "<li></li><li>   </li><li>kept</li>",
			expected: []listItem{{text: "kept"}},
		},
		{
			name:     "unclosed item is skipped",
			input:    "<li>lost<li>found</li>",
			expected: []listItem{{text: "found"}},
		},
		{
			name:  "prose around nested list",
			input: "<li>before<ol><li>x</li></ol>after</li>",
			expected: []listItem{
				{text: "before after", children: []itemChild{{list: numberedList, markup: "<li>x</li>"}}},
			},
		},
		{
			name:  "sibling nested lists keep order",
			input: "<li>top<ul><li>a</li></ul><ol><li>b</li></ol></li>",
			expected: []listItem{
				{text: "top", children: []itemChild{
					{list: bulletedList, markup: "<li>a</li>"},
					{list: numberedList, markup: "<li>b</li>"},
				}},
			},
		},
		{
			name:  "other block tags become children",
			input: `<li>note<callout type="tip">hi</callout></li>`,
			expected: []listItem{
				{text: "note", children: []itemChild{{list: noList, markup: `<callout type="tip">hi</callout>`}}},
			},
		},
		{
			name:     "inline tags stay in the text",
			input:    "<li><strong>bold</strong> and <code>code</code></li>",
			expected: []listItem{{text: "**bold** and `code`"}},
		},
		{
			name:     "attributes on li",
			input:    `<li class="x">styled</li>`,
			expected: []listItem{{text: "styled"}},
		},
		{
			name:     "no items",
			input:    "just text",
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := listItems(tt.input)
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("splitList(%q) items mismatch.\nExpected:\n%+v\n\nGot:\n%+v", tt.input, tt.expected, got)
			}
		})
	}
}

func TestSplitListKeepsProse(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []listPart
	}{
		{
			name:  "text between items",
			input: "<li>a</li>Note between items<li>c</li>",
			expected: []listPart{
				{item: &listItem{text: "a"}},
				{gap: "Note between items"},
				{item: &listItem{text: "c"}},
			},
		},
		{
			name:  "text before the first item",
			input: "Intro text<li>a</li>",
			expected: []listPart{
				{gap: "Intro text"},
				{item: &listItem{text: "a"}},
			},
		},
		{
			name:  "whitespace between items is dropped",
			input: "<li>a</li>\n  \n<li>b</li>\n",
			expected: []listPart{
				{item: &listItem{text: "a"}},
				{item: &listItem{text: "b"}},
			},
		},
		{
			name:  "unclosed item swallows its text",
			input: "before<li>lost<li>found</li>after",
			expected: []listPart{
				{gap: "before"},
				{item: &listItem{text: "found"}},
				{gap: "after"},
			},
		},
		{
			name:     "no items at all",
			input:    "- one\n- two",
			expected: []listPart{{gap: "- one\n- two"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := splitList(tt.input)
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("splitList(%q) mismatch.\nExpected:\n%+v\n\nGot:\n%+v", tt.input, tt.expected, got)
			}
		})
	}
}

func TestListKindOf(t *testing.T) {
	tests := map[string]listKind{
		"ul":      bulletedList,
		"ol":      numberedList,
		"li":      noList,
		"callout": noList,
		"section": noList,
	}
	for name, want := range tests {
		if got := listKindOf(name); got != want {
			t.Errorf("listKindOf(%q) = %v, want %v", name, got, want)
		}
	}
}
