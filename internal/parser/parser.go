// Package parser converts hybrid markdown and pseudo-XML text into a tree of
// Notion-style blocks.
//
// Block-level tags (<callout>, <ul><li>, <toggle>, ...) are located with an
// explicit balancing scan and arranged into a tree by textual nesting. Each
// tag is converted children first. Text outside of tags is parsed line by
// line as markdown. Inline HTML and markdown markers become styled rich
// text runs.
package parser

import (
	"strings"
	"time"

	"github.com/gerunddev/blockbridge/internal/block"
	"github.com/gerunddev/blockbridge/internal/logger"
)

// DefaultEmbedDomains lists the hosts whose bare URLs become embeds rather
// than bookmarks. Subdomains match too.
var DefaultEmbedDomains = []string{
	"youtube.com",
	"youtu.be",
	"vimeo.com",
	"dailymotion.com",
	"twitch.tv",
	"loom.com",
	"figma.com",
	"miro.com",
	"codepen.io",
}

// Parser converts text to blocks. A Parser is immutable once built and safe
// for concurrent use.
type Parser struct {
	log          *logger.Logger
	embedDomains []string
}

// Option configures a Parser
type Option func(*Parser)

// WithLogger sets the logger for dropped tags and conversion failures
func WithLogger(l *logger.Logger) Option {
	return func(p *Parser) {
		if l != nil {
			p.log = l
		}
	}
}

// WithEmbedDomains replaces the embed allow-list
func WithEmbedDomains(domains []string) Option {
	return func(p *Parser) {
		p.embedDomains = normalizeDomains(domains)
	}
}

// New creates a Parser
func New(opts ...Option) *Parser {
	p := &Parser{
		log:          logger.Discard(),
		embedDomains: normalizeDomains(DefaultEmbedDomains),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func normalizeDomains(domains []string) []string {
	out := make([]string, 0, len(domains))
	for _, d := range domains {
		d = strings.ToLower(strings.TrimSpace(d))
		d = strings.TrimPrefix(d, "www.")
		if d != "" {
			out = append(out, d)
		}
	}
	return out
}

var defaultParser = New()

// ParseToBlocks converts content with the default configuration
func ParseToBlocks(content string) []block.Block {
	return defaultParser.Parse(content)
}

// Parse converts content into an ordered block sequence. It never fails:
// malformed markup is skipped and a tag that cannot be converted is replaced
// with a diagnostic paragraph.
func (p *Parser) Parse(content string) []block.Block {
	start := time.Now()
	blocks := p.parse(normalize(content))
	p.log.ParseCompleted(len(content), len(blocks), time.Since(start))
	return blocks
}

func (p *Parser) parse(text string) []block.Block {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	r := &resolver{p: p, text: text}
	return r.resolveAll(buildTagTree(text, p.log))
}

// normalize converts line endings to \n. Content that arrives with literal
// "\n" escape sequences and no real newlines is unescaped.
func normalize(content string) string {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.ReplaceAll(content, "\r", "\n")
	if !strings.Contains(content, "\n") && strings.Contains(content, `\n`) {
		content = strings.ReplaceAll(content, `\n`, "\n")
	}
	return content
}
