package parser

import (
	"regexp"
	"sort"
	"unicode"
	"unicode/utf8"

	"github.com/gerunddev/blockbridge/internal/block"
)

type style int

const (
	styleLink style = iota
	styleBoldItalic
	styleBold
	styleItalic
	styleStrike
	styleCode
)

// inlineMatcher recognizes one inline marker. inner is the capture group
// holding the text between the markers and url the group holding a link
// target (0 when unused).
type inlineMatcher struct {
	style style
	re    *regexp.Regexp
	inner int
	url   int
	valid func(text string, start, end int) bool
}

var inlineMatchers = []inlineMatcher{
	{style: styleLink, re: regexp.MustCompile(`\[([^\]]+)\]\(([^)\s]+)\)`), inner: 1, url: 2},
	{style: styleBoldItalic, re: regexp.MustCompile(`\*\*\*([^*\s](?:[^*]*[^*\s])?)\*\*\*`), inner: 1},
	{style: styleBold, re: regexp.MustCompile(`\*\*([^*\s](?:.*?[^*\s])?)\*\*`), inner: 1},
	{style: styleBold, re: regexp.MustCompile(`__([^_\s](?:[^_]*[^_\s])?)__`), inner: 1, valid: wordBounded},
	{style: styleItalic, re: regexp.MustCompile(`\*([^*\s](?:[^*]*[^*\s])?)\*`), inner: 1},
	{style: styleItalic, re: regexp.MustCompile(`_([^_\s](?:[^_]*[^_\s])?)_`), inner: 1, valid: wordBounded},
	{style: styleStrike, re: regexp.MustCompile(`~~([^~\s](?:[^~]*[^~\s])?)~~`), inner: 1},
	{style: styleCode, re: regexp.MustCompile("`([^`]+)`"), inner: 1},
}

// wordBounded rejects underscore markers glued to word characters, so
// snake_case_names stay plain.
func wordBounded(text string, start, end int) bool {
	if start > 0 {
		r, _ := utf8.DecodeLastRuneInString(text[:start])
		if isWordRune(r) {
			return false
		}
	}
	if end < len(text) {
		r, _ := utf8.DecodeRuneInString(text[end:])
		if isWordRune(r) {
			return false
		}
	}
	return true
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

type inlineMatch struct {
	start, end int
	order      int
	matcher    *inlineMatcher
	inner      string
	url        string
}

// collectMatches finds every candidate for every matcher. Each matcher is
// rescanned from one byte past the previous candidate's start so that
// overlapping candidates (a `**` inside `***`) are all seen.
func collectMatches(text string) []inlineMatch {
	var matches []inlineMatch

	for mi := range inlineMatchers {
		m := &inlineMatchers[mi]
		pos := 0
		for pos < len(text) {
			base := pos
			loc := m.re.FindStringSubmatchIndex(text[base:])
			if loc == nil {
				break
			}
			start, end := base+loc[0], base+loc[1]
			pos = start + 1

			if m.valid != nil && !m.valid(text, start, end) {
				continue
			}

			im := inlineMatch{
				start:   start,
				end:     end,
				order:   mi,
				matcher: m,
				inner:   text[base+loc[2*m.inner] : base+loc[2*m.inner+1]],
			}
			if m.url > 0 {
				im.url = text[base+loc[2*m.url] : base+loc[2*m.url+1]]
			}
			matches = append(matches, im)
		}
	}

	return matches
}

// FormatText splits text into styled runs. Candidates are ordered by start
// offset with the longer span first, then accepted greedily when they do
// not overlap an already accepted match. Text between accepted matches
// becomes plain runs. Text without any markers yields a single plain run.
func FormatText(text string) []block.RichText {
	matches := collectMatches(text)
	if len(matches) == 0 {
		return []block.RichText{block.Text(text)}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].start != matches[j].start {
			return matches[i].start < matches[j].start
		}
		if li, lj := matches[i].end-matches[i].start, matches[j].end-matches[j].start; li != lj {
			return li > lj
		}
		return matches[i].order < matches[j].order
	})

	var accepted []inlineMatch
	lastEnd := 0
	for _, m := range matches {
		if m.start < lastEnd {
			continue
		}
		accepted = append(accepted, m)
		lastEnd = m.end
	}

	var runs []block.RichText
	cursor := 0
	for _, m := range accepted {
		if m.start > cursor {
			runs = append(runs, block.Text(text[cursor:m.start]))
		}
		runs = append(runs, styledRuns(m)...)
		cursor = m.end
	}
	if cursor < len(text) {
		runs = append(runs, block.Text(text[cursor:]))
	}

	return runs
}

func styledRuns(m inlineMatch) []block.RichText {
	if m.matcher.style == styleCode {
		return []block.RichText{{Text: m.inner, Code: true}}
	}

	runs := FormatText(m.inner)
	for i := range runs {
		switch m.matcher.style {
		case styleLink:
			if runs[i].Link == "" {
				runs[i].Link = m.url
			}
		case styleBoldItalic:
			runs[i].Bold = true
			runs[i].Italic = true
		case styleBold:
			runs[i].Bold = true
		case styleItalic:
			runs[i].Italic = true
		case styleStrike:
			runs[i].Strikethrough = true
		}
	}
	return runs
}
