package parser

import (
	"html"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	inlineCodeTag = regexp.MustCompile(`(?is)<code(?:\s[^>]*)?>(.*?)</code>`)
	anchorTag     = regexp.MustCompile(`(?is)<a\s[^>]*?href\s*=\s*["']([^"']*)["'][^>]*>(.*?)</a>`)
	boldTag       = regexp.MustCompile(`(?is)<(?:strong|b)(?:\s[^>]*)?>(.*?)</(?:strong|b)>`)
	italicTag     = regexp.MustCompile(`(?is)<(?:em|i)(?:\s[^>]*)?>(.*?)</(?:em|i)>`)
	strikeTag     = regexp.MustCompile(`(?is)<(?:s|del|strike)(?:\s[^>]*)?>(.*?)</(?:s|del|strike)>`)
	plainTag      = regexp.MustCompile(`(?is)<(?:u|span|mark|a)(?:\s[^>]*)?>(.*?)</(?:u|span|mark|a)>`)
	lineBreakTag  = regexp.MustCompile(`(?i)<br\s*/?>`)

	orphanCloseTag   = regexp.MustCompile(`</[a-zA-Z][a-zA-Z0-9-]*\s*>`)
	placeholderToken = regexp.MustCompile(`__[A-Z_]+_\d+__`)
	whitespaceRun    = regexp.MustCompile(`\s+`)
	horizontalSpace  = regexp.MustCompile(`[ \t\f\v\r]+`)
	residualTag      = regexp.MustCompile(`<\/?[a-zA-Z]`)
)

// strictPolicy strips every element and keeps only text
var strictPolicy = bluemonday.StrictPolicy()

// wrapTrimmed returns the replacement func for a formatting tag: the inner
// text is trimmed so the markers sit flush against it, and empty elements
// vanish.
func wrapTrimmed(re *regexp.Regexp, marker string) func(string) string {
	return func(s string) string {
		sub := re.FindStringSubmatch(s)
		inner := strings.TrimSpace(sub[1])
		if inner == "" {
			return ""
		}
		return marker + inner + marker
	}
}

// inlineHTMLToMarkdown rewrites inline HTML formatting tags into the
// equivalent markdown markers understood by FormatText.
func inlineHTMLToMarkdown(s string) string {
	if !strings.Contains(s, "<") {
		return s
	}

	s = inlineCodeTag.ReplaceAllStringFunc(s, wrapTrimmed(inlineCodeTag, "`"))
	s = anchorTag.ReplaceAllStringFunc(s, func(m string) string {
		sub := anchorTag.FindStringSubmatch(m)
		href := strings.TrimSpace(sub[1])
		label := strings.TrimSpace(sub[2])
		if href == "" {
			return label
		}
		if label == "" {
			label = href
		}
		return "[" + label + "](" + href + ")"
	})
	s = boldTag.ReplaceAllStringFunc(s, wrapTrimmed(boldTag, "**"))
	s = italicTag.ReplaceAllStringFunc(s, wrapTrimmed(italicTag, "*"))
	s = strikeTag.ReplaceAllStringFunc(s, wrapTrimmed(strikeTag, "~~"))
	s = plainTag.ReplaceAllString(s, "$1")
	s = lineBreakTag.ReplaceAllString(s, "\n")

	return s
}

// stripTags removes any markup left in s and decodes entities. Entities are
// decoded before sanitizing too, so escaped tags cannot survive as text.
func stripTags(s string) string {
	s = html.UnescapeString(s)
	if strings.Contains(s, "<") {
		s = strictPolicy.Sanitize(s)
	}
	return html.UnescapeString(s)
}

// cleanText turns a fragment of tag content into a single line of display
// text with markdown formatting markers.
func cleanText(s string) string {
	s = inlineHTMLToMarkdown(s)
	s = stripTags(s)
	s = orphanCloseTag.ReplaceAllString(s, "")
	s = placeholderToken.ReplaceAllString(s, "")
	s = whitespaceRun.ReplaceAllString(s, " ")
	return strings.TrimSpace(dropResidual(s))
}

// cleanLine is cleanText for text that has already been split into lines:
// explicit line breaks survive.
func cleanLine(s string) string {
	s = stripTags(s)
	s = placeholderToken.ReplaceAllString(s, "")
	s = horizontalSpace.ReplaceAllString(s, " ")
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSpace(l)
	}
	return strings.TrimSpace(dropResidual(strings.Join(lines, "\n")))
}

// dropResidual removes the angle bracket of anything that still opens like a
// tag after sanitizing.
func dropResidual(s string) string {
	return residualTag.ReplaceAllStringFunc(s, func(m string) string {
		return m[1:]
	})
}

// hasResidualTag reports whether s still looks like it contains markup
func hasResidualTag(s string) bool {
	return residualTag.MatchString(s)
}
