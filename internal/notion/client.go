// Package notion is a small client for the parts of the Notion API that
// blockbridge needs: appending blocks, creating pages and database entries,
// searching, querying databases and resolving page references.
package notion

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jomei/notionapi"

	"github.com/gerunddev/blockbridge/internal/block"
	"github.com/gerunddev/blockbridge/internal/logger"
)

const (
	// DefaultBaseURL is the public Notion API endpoint
	DefaultBaseURL = "https://api.notion.com/v1"

	// DefaultVersion is the Notion-Version header sent with every request
	DefaultVersion = "2022-06-28"

	// DefaultRequestInterval keeps the client under Notion's average of
	// three requests per second
	DefaultRequestInterval = 350 * time.Millisecond

	// MaxBlocksPerRequest is the API limit on children per append or create
	MaxBlocksPerRequest = 100

	maxPageSize = 100
)

// Client talks to the Notion API through notionapi
type Client struct {
	api      *notionapi.Client
	baseURL  string
	version  string
	interval time.Duration
	http     *http.Client
	log      *logger.Logger
}

// Option configures a Client
type Option func(*Client)

// WithBaseURL points the client at another API root
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithVersion sets the Notion-Version header
func WithVersion(version string) Option {
	return func(c *Client) {
		c.version = version
	}
}

// WithHTTPClient replaces the underlying HTTP client. Its transport is
// wrapped by the rate limiter.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		c.http = h
	}
}

// WithRequestInterval sets the minimum gap between requests
func WithRequestInterval(d time.Duration) Option {
	return func(c *Client) {
		c.interval = d
	}
}

// WithLogger sets the logger used for push events
func WithLogger(l *logger.Logger) Option {
	return func(c *Client) {
		c.log = l
	}
}

// NewClient creates a client authenticated with an integration token
func NewClient(token string, opts ...Option) *Client {
	c := &Client{
		baseURL:  DefaultBaseURL,
		version:  DefaultVersion,
		interval: DefaultRequestInterval,
		http:     &http.Client{Timeout: 30 * time.Second},
		log:      logger.Discard(),
	}
	for _, opt := range opts {
		opt(c)
	}

	transport := &apiTransport{
		version: c.version,
		next:    NewRateLimitedTransport(c.http.Transport, c.interval),
	}
	if c.baseURL != DefaultBaseURL {
		if base, err := url.Parse(c.baseURL); err == nil && base.Host != "" {
			transport.base = base
		}
	}

	c.api = notionapi.NewClient(notionapi.Token(token), notionapi.WithHTTPClient(&http.Client{
		Transport: transport,
		Timeout:   c.http.Timeout,
	}))
	return c
}

// User is the bot user behind the token
type User struct {
	ID   string
	Name string
	Type string
}

// Page is a created or resolved page
type Page struct {
	ID  string
	URL string
}

// PageInput describes a page to create
type PageInput struct {
	ParentID string // parent page; unused for database entries
	Title    string
	Icon     string // emoji
	Cover    string // external image URL
	Children []block.Block
}

// SubmitResult summarises an append
type SubmitResult struct {
	Blocks   int
	Batches  int
	BlockIDs []string
}

// SearchResult is one page or database returned by Search or QueryDatabase
type SearchResult struct {
	ID     string
	Object string
	URL    string
	Title  string
}

// apiError turns notionapi's error responses into *APIError
func apiError(err error) error {
	var nerr *notionapi.Error
	if errors.As(err, &nerr) {
		return &APIError{Status: nerr.Status, Code: string(nerr.Code), Message: nerr.Message}
	}
	return err
}

// Me returns the user the token belongs to
func (c *Client) Me(ctx context.Context) (*User, error) {
	u, err := c.api.User.Me(ctx)
	if err != nil {
		return nil, apiError(err)
	}
	return &User{ID: string(u.ID), Name: u.Name, Type: string(u.Type)}, nil
}

// IsCredentialValid reports whether the token is accepted by the API
func (c *Client) IsCredentialValid(ctx context.Context) bool {
	_, err := c.Me(ctx)
	return err == nil
}

// SubmitBlocks appends blocks to the children of parentID, in batches of
// MaxBlocksPerRequest. Batches already sent stay sent when a later one fails.
func (c *Client) SubmitBlocks(ctx context.Context, parentID string, blocks []block.Block) (*SubmitResult, error) {
	result := &SubmitResult{}
	if len(blocks) == 0 {
		return result, nil
	}

	for start := 0; start < len(blocks); start += MaxBlocksPerRequest {
		end := min(start+MaxBlocksPerRequest, len(blocks))

		resp, err := c.api.Block.AppendChildren(ctx, notionapi.BlockID(parentID), &notionapi.AppendBlockChildrenRequest{
			Children: block.NotionBlocks(blocks[start:end]),
		})
		if err != nil {
			return result, fmt.Errorf("failed to append blocks %d-%d: %w", start+1, end, apiError(err))
		}

		result.Batches++
		result.Blocks += end - start
		for _, r := range resp.Results {
			result.BlockIDs = append(result.BlockIDs, string(r.GetID()))
		}
	}

	c.log.BlocksSubmitted(parentID, result.Blocks, result.Batches)
	return result, nil
}

// CreatePage creates a page under another page. Children beyond the first
// batch are appended after creation.
func (c *Client) CreatePage(ctx context.Context, in PageInput) (*Page, error) {
	if in.ParentID == "" {
		return nil, fmt.Errorf("parent page id is required")
	}
	parent := notionapi.Parent{Type: notionapi.ParentTypePageID, PageID: notionapi.PageID(in.ParentID)}
	return c.create(ctx, parent, in.ParentID, "title", in)
}

// CreateDatabaseEntry adds a page to a database. The title goes into the
// database's title property, whatever it is called, and the children
// become the entry's body.
func (c *Client) CreateDatabaseEntry(ctx context.Context, databaseID string, in PageInput) (*Page, error) {
	if databaseID == "" {
		return nil, fmt.Errorf("database id is required")
	}

	db, err := c.api.Database.Get(ctx, notionapi.DatabaseID(databaseID))
	if err != nil {
		return nil, fmt.Errorf("failed to read database %s: %w", databaseID, apiError(err))
	}
	titleProperty := ""
	for name, cfg := range db.Properties {
		if string(cfg.GetType()) == "title" {
			titleProperty = name
			break
		}
	}
	if titleProperty == "" {
		return nil, fmt.Errorf("database %s has no title property", databaseID)
	}

	parent := notionapi.Parent{Type: notionapi.ParentTypeDatabaseID, DatabaseID: notionapi.DatabaseID(databaseID)}
	return c.create(ctx, parent, databaseID, titleProperty, in)
}

func (c *Client) create(ctx context.Context, parent notionapi.Parent, parentID, titleProperty string, in PageInput) (*Page, error) {
	first := in.Children
	var rest []block.Block
	if len(first) > MaxBlocksPerRequest {
		first, rest = in.Children[:MaxBlocksPerRequest], in.Children[MaxBlocksPerRequest:]
	}

	req := &notionapi.PageCreateRequest{
		Parent: parent,
		Properties: notionapi.Properties{
			titleProperty: &notionapi.TitleProperty{
				Title: []notionapi.RichText{block.Text(in.Title).Notion()},
			},
		},
		Children: block.NotionBlocks(first),
	}
	if in.Icon != "" {
		emoji := notionapi.Emoji(in.Icon)
		req.Icon = &notionapi.Icon{Type: "emoji", Emoji: &emoji}
	}
	if in.Cover != "" {
		req.Cover = &notionapi.Image{
			Type:     notionapi.FileTypeExternal,
			External: &notionapi.FileObject{URL: in.Cover},
		}
	}

	created, err := c.api.Page.Create(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to create page: %w", apiError(err))
	}
	page := &Page{ID: string(created.ID), URL: created.URL}
	c.log.PageCreated(page.ID, in.Title, parentID)

	if len(rest) > 0 {
		if _, err := c.SubmitBlocks(ctx, page.ID, rest); err != nil {
			return page, err
		}
	}

	return page, nil
}

// Search returns pages (object "page") or databases (object "database")
// whose title matches query. A limit of zero or less follows every cursor.
func (c *Client) Search(ctx context.Context, query, object string, limit int) ([]SearchResult, error) {
	if object == "" {
		object = "page"
	}

	var results []SearchResult
	var cursor notionapi.Cursor

	for {
		pageSize := maxPageSize
		if limit > 0 {
			pageSize = min(limit-len(results), maxPageSize)
		}

		resp, err := c.api.Search.Do(ctx, &notionapi.SearchRequest{
			Query:       query,
			PageSize:    pageSize,
			StartCursor: cursor,
			Filter:      notionapi.SearchFilter{Property: "object", Value: object},
		})
		if err != nil {
			return nil, fmt.Errorf("failed to search for %q: %w", query, apiError(err))
		}

		for _, obj := range resp.Results {
			if r, ok := searchResult(obj); ok {
				results = append(results, r)
			}
		}

		if limit > 0 && len(results) >= limit {
			return results[:limit], nil
		}
		if !resp.HasMore || resp.NextCursor == "" {
			return results, nil
		}
		cursor = resp.NextCursor
	}
}

// QueryDatabase lists the entries of a database. A non-empty contains keeps
// only entries whose title includes it, ignoring case. A limit of zero or
// less follows every cursor.
func (c *Client) QueryDatabase(ctx context.Context, databaseID, contains string, limit int) ([]SearchResult, error) {
	var results []SearchResult
	var cursor notionapi.Cursor
	needle := strings.ToLower(strings.TrimSpace(contains))

	for {
		pageSize := maxPageSize
		if limit > 0 && needle == "" {
			pageSize = min(limit-len(results), maxPageSize)
		}

		resp, err := c.api.Database.Query(ctx, notionapi.DatabaseID(databaseID), &notionapi.DatabaseQueryRequest{
			StartCursor: cursor,
			PageSize:    pageSize,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to query database %s: %w", databaseID, apiError(err))
		}

		for i := range resp.Results {
			entry := &resp.Results[i]
			title := pageTitle(entry)
			if needle != "" && !strings.Contains(strings.ToLower(title), needle) {
				continue
			}
			results = append(results, SearchResult{
				ID:     string(entry.ID),
				Object: "page",
				URL:    entry.URL,
				Title:  title,
			})
		}

		if limit > 0 && len(results) >= limit {
			return results[:limit], nil
		}
		if !resp.HasMore || resp.NextCursor == "" {
			return results, nil
		}
		cursor = resp.NextCursor
	}
}

// ResolveID turns a raw id, a page URL or a page title into a canonical
// page id. Titles are looked up with Search and the first match wins.
func (c *Client) ResolveID(ctx context.Context, ref string) (string, error) {
	return c.resolve(ctx, ref, "page")
}

// ResolveDatabaseID is ResolveID for databases
func (c *Client) ResolveDatabaseID(ctx context.Context, ref string) (string, error) {
	return c.resolve(ctx, ref, "database")
}

func (c *Client) resolve(ctx context.Context, ref, object string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", fmt.Errorf("empty %s reference: %w", object, ErrNotFound)
	}

	if id, ok := CanonicalID(ref); ok {
		return id, nil
	}

	results, err := c.Search(ctx, ref, object, 1)
	if err != nil {
		return "", err
	}
	if len(results) == 0 {
		return "", fmt.Errorf("could not find %s %q: %w", object, ref, ErrNotFound)
	}
	return results[0].ID, nil
}

func searchResult(obj notionapi.Object) (SearchResult, bool) {
	switch o := obj.(type) {
	case *notionapi.Page:
		return SearchResult{ID: string(o.ID), Object: "page", URL: o.URL, Title: pageTitle(o)}, true
	case *notionapi.Database:
		return SearchResult{ID: string(o.ID), Object: "database", URL: o.URL, Title: plainText(o.Title)}, true
	}
	return SearchResult{}, false
}

func pageTitle(p *notionapi.Page) string {
	for _, prop := range p.Properties {
		if t, ok := prop.(*notionapi.TitleProperty); ok {
			return plainText(t.Title)
		}
	}
	return ""
}

func plainText(runs []notionapi.RichText) string {
	var b strings.Builder
	for _, r := range runs {
		b.WriteString(r.PlainText)
	}
	return b.String()
}
