// Package document splits a source file into its YAML front matter and the
// hybrid markup body that becomes the page content.
package document

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Document is a source file ready to be pushed
type Document struct {
	Title    string   `yaml:"title"`
	Parent   string   `yaml:"parent"`
	PageID   string   `yaml:"page_id"`
	Database string   `yaml:"database"`
	Icon     string   `yaml:"icon"`
	Cover    string   `yaml:"cover"`
	Tags     []string `yaml:"tags"`

	// Body is everything after the front matter
	Body string `yaml:"-"`
}

// HasFrontMatter reports whether content opens with a --- delimited block
func HasFrontMatter(content string) bool {
	lines := strings.Split(normalize(content), "\n")
	_, ok := frontMatterEnd(lines)
	return ok
}

// Parse extracts front matter from content. Content without front matter is
// returned whole as the body. A malformed front matter block is an error so
// that a typo never silently turns metadata into page text.
func Parse(content string) (*Document, error) {
	lines := strings.Split(normalize(content), "\n")

	end, ok := frontMatterEnd(lines)
	if !ok {
		return &Document{Body: strings.TrimSpace(strings.Join(lines, "\n"))}, nil
	}

	yamlContent := strings.Join(lines[1:end], "\n")

	var doc Document
	if err := yaml.Unmarshal([]byte(yamlContent), &doc); err != nil {
		return nil, fmt.Errorf("failed to parse front matter: %w", err)
	}

	bodyLines := lines[end+1:]

	// Skip leading blank lines in body
	for len(bodyLines) > 0 && strings.TrimSpace(bodyLines[0]) == "" {
		bodyLines = bodyLines[1:]
	}

	doc.Title = strings.TrimSpace(doc.Title)
	doc.Parent = strings.TrimSpace(doc.Parent)
	doc.PageID = strings.TrimSpace(doc.PageID)
	doc.Database = strings.TrimSpace(doc.Database)
	doc.Body = strings.TrimSpace(strings.Join(bodyLines, "\n"))

	return &doc, nil
}

// TitleOr returns the front matter title, or fallback when none was set
func (d *Document) TitleOr(fallback string) string {
	if d.Title != "" {
		return d.Title
	}
	return fallback
}

// frontMatterEnd returns the index of the closing delimiter
func frontMatterEnd(lines []string) (int, bool) {
	if len(lines) == 0 || strings.TrimSpace(lines[0]) != "---" {
		return 0, false
	}
	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "---" {
			return i, true
		}
	}
	return 0, false
}

func normalize(content string) string {
	content = strings.TrimPrefix(content, "\ufeff")
	return strings.ReplaceAll(content, "\r\n", "\n")
}
