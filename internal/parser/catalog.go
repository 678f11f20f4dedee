package parser

import (
	"fmt"
	"html"
	"net/url"
	"regexp"
	"strings"

	"github.com/gerunddev/blockbridge/internal/block"
)

type tagKind int

const (
	blockTag     tagKind = iota
	containerTag         // ul, ol: expands into many sibling items
	opaqueTag            // content is raw text, never parsed for tags
	voidTag              // content is not part of the block
)

// tagMatch is what a converter sees of one tag occurrence
type tagMatch struct {
	name  string
	attrs map[string]string
	// content is the inner text with child tag spans removed
	content     string
	hasChildren bool
	// lines parses free text with the markdown fallback
	lines func(string) []block.Block
}

// converter turns a tag occurrence into one block. A nil block with a nil
// error means the tag yields no block of its own.
type converter func(m tagMatch) (*block.Block, error)

type tagSpec struct {
	names   []string
	kind    tagKind
	list    listKind
	convert converter
}

var catalog = []tagSpec{
	{names: []string{"p"}, kind: blockTag, convert: convertParagraph},
	{names: []string{"h1", "h2", "h3", "h4", "h5", "h6"}, kind: blockTag, convert: convertHeading},
	{names: []string{"ul"}, kind: containerTag, list: bulletedList},
	{names: []string{"ol"}, kind: containerTag, list: numberedList},
	{names: []string{"li"}, kind: blockTag, convert: convertListItem},
	{names: []string{"todo"}, kind: blockTag, convert: convertToDo},
	{names: []string{"callout"}, kind: blockTag, convert: convertCallout},
	{names: []string{"toggle", "details"}, kind: blockTag, convert: convertToggle},
	{names: []string{"quote", "blockquote"}, kind: blockTag, convert: convertQuote},
	{names: []string{"code"}, kind: opaqueTag, convert: convertCode},
	{names: []string{"pre"}, kind: opaqueTag, convert: convertPre},
	{names: []string{"equation"}, kind: opaqueTag, convert: convertEquation},
	{names: []string{"embed"}, kind: opaqueTag, convert: convertEmbed},
	{names: []string{"bookmark"}, kind: opaqueTag, convert: convertBookmark},
	{names: []string{"image", "img"}, kind: blockTag, convert: convertImage},
	{names: []string{"divider", "hr"}, kind: voidTag, convert: convertDivider},
}

var catalogByName = indexCatalog(catalog)

func indexCatalog(specs []tagSpec) map[string]*tagSpec {
	index := make(map[string]*tagSpec)
	for i := range specs {
		for _, name := range specs[i].names {
			index[name] = &specs[i]
		}
	}
	return index
}

var inlineTags = map[string]bool{
	"strong": true, "b": true, "em": true, "i": true,
	"s": true, "del": true, "strike": true, "u": true,
	"a": true, "span": true, "mark": true, "br": true,
	"summary": true,
}

// voidable tags become void nodes when they are never closed
var voidableTags = map[string]bool{
	"img": true, "image": true, "hr": true, "divider": true,
	"embed": true, "bookmark": true,
}

func lookupTag(name string) *tagSpec {
	return catalogByName[name]
}

func isOpaque(name string) bool {
	spec := lookupTag(name)
	return spec != nil && spec.kind == opaqueTag
}

func isInline(name string) bool {
	return inlineTags[name]
}

func isVoidable(name string) bool {
	return voidableTags[name]
}

// isBlockTag reports whether name is a catalog tag that produces blocks
func isBlockTag(name string) bool {
	return lookupTag(name) != nil
}

var calloutEmoji = map[string]string{
	"info":     "ℹ️",
	"warning":  "⚠️",
	"danger":   "🚨",
	"error":    "❌",
	"note":     "📝",
	"tip":      "💡",
	"success":  "✅",
	"question": "❓",
}

var calloutColor = map[string]string{
	"info":     "blue",
	"warning":  "yellow",
	"danger":   "red",
	"error":    "red",
	"note":     "gray",
	"tip":      "green",
	"success":  "green",
	"question": "purple",
}

// calloutStyle returns the emoji and color for a callout type
func calloutStyle(kind string) (string, string) {
	kind = strings.ToLower(kind)
	emoji, ok := calloutEmoji[kind]
	if !ok {
		emoji = calloutEmoji["info"]
	}
	color, ok := calloutColor[kind]
	if !ok {
		color = "gray"
	}
	return emoji, color
}

var checkboxPrefix = regexp.MustCompile(`^\[([ xX])\]\s*`)

// splitCheckbox strips a leading [ ] or [x] marker
func splitCheckbox(text string) (rest string, checked, ok bool) {
	m := checkboxPrefix.FindStringSubmatch(text)
	if m == nil {
		return text, false, false
	}
	return text[len(m[0]):], m[1] != " ", true
}

func isTruthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "", "true", "checked", "yes", "1":
		return true
	}
	return false
}

func decodeEntities(s string) string {
	return html.UnescapeString(s)
}

func firstAttr(attrs map[string]string, keys ...string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(attrs[k]); v != "" {
			return v
		}
	}
	return ""
}

var languageClass = regexp.MustCompile(`(?:^|\s)(?:language|lang)-([\w+#-]+)`)

// languageOf reads a code language from language/lang attributes or a
// class="language-x" attribute.
func languageOf(attrs map[string]string) string {
	if lang := firstAttr(attrs, "language", "lang"); lang != "" {
		return strings.ToLower(lang)
	}
	if m := languageClass.FindStringSubmatch(attrs["class"]); m != nil {
		return strings.ToLower(m[1])
	}
	return ""
}

// checkURL accepts absolute http(s) URLs only
func checkURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid url %q: %w", raw, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", fmt.Errorf("invalid url %q: must be an absolute http(s) url", raw)
	}
	return raw, nil
}

func convertParagraph(m tagMatch) (*block.Block, error) {
	text := cleanText(m.content)
	if text == "" {
		return nil, nil
	}
	b := block.NewParagraph(FormatText(text))
	return &b, nil
}

func convertHeading(m tagMatch) (*block.Block, error) {
	text := cleanText(m.content)
	if text == "" {
		return nil, nil
	}
	level := int(m.name[1] - '0')
	b := block.NewHeading(level, FormatText(text))
	return &b, nil
}

// convertListItem handles an <li> found outside of any list
func convertListItem(m tagMatch) (*block.Block, error) {
	text := cleanText(m.content)
	if text == "" && !m.hasChildren {
		return nil, nil
	}
	if rest, checked, ok := splitCheckbox(text); ok {
		b := block.NewToDo(FormatText(rest), checked, nil)
		return &b, nil
	}
	b := block.NewListItem(block.TypeBulletedListItem, FormatText(text), nil)
	return &b, nil
}

func convertToDo(m tagMatch) (*block.Block, error) {
	text := cleanText(m.content)
	rest, boxChecked, hasBox := splitCheckbox(text)
	if rest == "" && !m.hasChildren {
		return nil, nil
	}

	checked := false
	if v, ok := m.attrs["checked"]; ok {
		checked = isTruthy(v)
	} else if hasBox {
		checked = boxChecked
	}

	b := block.NewToDo(FormatText(rest), checked, nil)
	return &b, nil
}

func convertCallout(m tagMatch) (*block.Block, error) {
	text := cleanText(m.content)
	if text == "" && !m.hasChildren {
		return nil, nil
	}

	kind := firstAttr(m.attrs, "type")
	if kind == "" {
		kind = "info"
	}
	emoji, color := calloutStyle(kind)
	if icon := firstAttr(m.attrs, "icon", "emoji"); icon != "" {
		emoji = icon
	}
	if c := firstAttr(m.attrs, "color"); c != "" {
		color = c
	}

	b := block.NewCallout(FormatText(text), emoji, color, nil)
	return &b, nil
}

var summaryTag = regexp.MustCompile(`(?is)<summary(?:\s[^>]*)?>(.*?)</summary>`)

// convertToggle takes its title from a summary/title attribute or a
// <summary> element. With a title, the remaining prose becomes the toggle's
// body; without one, the prose is the title.
func convertToggle(m tagMatch) (*block.Block, error) {
	content := m.content
	title := firstAttr(m.attrs, "summary", "title")
	if title == "" {
		if loc := summaryTag.FindStringSubmatchIndex(content); loc != nil {
			title = content[loc[2]:loc[3]]
			content = content[:loc[0]] + content[loc[1]:]
		}
	}

	if title == "" {
		text := cleanText(content)
		if text == "" && !m.hasChildren {
			return nil, nil
		}
		b := block.NewToggle(FormatText(text), nil)
		return &b, nil
	}

	var body []block.Block
	if m.lines != nil {
		body = m.lines(strings.TrimSpace(content))
	}
	b := block.NewToggle(FormatText(cleanText(title)), body)
	return &b, nil
}

func convertQuote(m tagMatch) (*block.Block, error) {
	text := cleanText(m.content)
	if text == "" && !m.hasChildren {
		return nil, nil
	}
	b := block.NewQuote(FormatText(text), nil)
	return &b, nil
}

// rawCode decodes entities and trims the blank lines around code content
func rawCode(s string) string {
	s = decodeEntities(s)
	s = strings.TrimLeft(s, "\r\n")
	return strings.TrimRight(s, " \t\r\n")
}

func convertCode(m tagMatch) (*block.Block, error) {
	code := rawCode(m.content)
	if code == "" {
		return nil, nil
	}
	b := block.NewCode(code, languageOf(m.attrs))
	return &b, nil
}

var wrappedCode = regexp.MustCompile(`(?is)^\s*<code((?:\s[^>]*)?)>(.*?)</code>\s*$`)

func convertPre(m tagMatch) (*block.Block, error) {
	content := m.content
	lang := languageOf(m.attrs)
	if sub := wrappedCode.FindStringSubmatch(content); sub != nil {
		content = sub[2]
		if lang == "" {
			lang = languageOf(parseAttrs(sub[1]))
		}
	}

	code := rawCode(content)
	if code == "" {
		return nil, nil
	}
	b := block.NewCode(code, lang)
	return &b, nil
}

func convertEquation(m tagMatch) (*block.Block, error) {
	expr := strings.TrimSpace(decodeEntities(m.content))
	expr = strings.TrimSpace(strings.TrimSuffix(strings.TrimPrefix(expr, "$$"), "$$"))
	if expr == "" {
		return nil, nil
	}
	b := block.NewEquation(expr)
	return &b, nil
}

func mediaURL(m tagMatch, keys ...string) string {
	if u := strings.TrimSpace(decodeEntities(m.content)); u != "" {
		return u
	}
	return firstAttr(m.attrs, keys...)
}

func convertEmbed(m tagMatch) (*block.Block, error) {
	raw := mediaURL(m, "src", "url", "href")
	if raw == "" {
		return nil, nil
	}
	u, err := checkURL(raw)
	if err != nil {
		return nil, err
	}
	b := block.NewEmbed(u)
	return &b, nil
}

func convertBookmark(m tagMatch) (*block.Block, error) {
	raw := mediaURL(m, "href", "url", "src")
	if raw == "" {
		return nil, nil
	}
	u, err := checkURL(raw)
	if err != nil {
		return nil, err
	}
	b := block.NewBookmark(u)
	return &b, nil
}

func convertImage(m tagMatch) (*block.Block, error) {
	src := firstAttr(m.attrs, "src", "url", "href")
	caption := cleanText(m.content)
	if src == "" && strings.HasPrefix(caption, "http") && !strings.Contains(caption, " ") {
		src, caption = caption, ""
	}
	if src == "" {
		return nil, nil
	}
	u, err := checkURL(src)
	if err != nil {
		return nil, err
	}
	if caption == "" {
		caption = firstAttr(m.attrs, "alt", "caption")
	}

	var rt []block.RichText
	if caption != "" {
		rt = FormatText(caption)
	}
	b := block.NewImage(u, rt)
	return &b, nil
}

func convertDivider(tagMatch) (*block.Block, error) {
	b := block.NewDivider()
	return &b, nil
}
