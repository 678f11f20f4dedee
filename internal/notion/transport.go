package notion

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

// notionapi always addresses the public endpoint; apiTransport moves
// requests from this prefix to the configured base URL
const publicAPIPrefix = "/v1"

// RateLimitedTransport enforces a minimum interval between requests
type RateLimitedTransport struct {
	underlying      http.RoundTripper
	requestInterval time.Duration
	lastRequest     time.Time
	mu              sync.Mutex
}

// NewRateLimitedTransport creates a transport that enforces the given
// minimum interval between requests. A zero interval disables limiting.
func NewRateLimitedTransport(underlying http.RoundTripper, requestInterval time.Duration) *RateLimitedTransport {
	if underlying == nil {
		underlying = http.DefaultTransport
	}
	return &RateLimitedTransport{
		underlying:      underlying,
		requestInterval: requestInterval,
	}
}

// RoundTrip waits for the rate limiter, then sends the request. The wait is
// abandoned when the request context is cancelled.
func (t *RateLimitedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	t.mu.Lock()

	// Reserve the next slot while holding the lock so concurrent callers
	// queue behind each other instead of waking up together
	var wait time.Duration
	now := time.Now()
	next := now
	if !t.lastRequest.IsZero() {
		if earliest := t.lastRequest.Add(t.requestInterval); earliest.After(now) {
			wait = earliest.Sub(now)
			next = earliest
		}
	}
	t.lastRequest = next
	t.mu.Unlock()

	if wait > 0 {
		timer := time.NewTimer(wait)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-req.Context().Done():
			return nil, req.Context().Err()
		}
	}

	return t.underlying.RoundTrip(req)
}

// apiTransport points requests at the configured API root, pins the
// Notion-Version header and gives every error response a JSON error body
type apiTransport struct {
	base    *url.URL
	version string
	next    http.RoundTripper
}

func (t *apiTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	if t.base != nil {
		req.URL.Scheme = t.base.Scheme
		req.URL.Host = t.base.Host
		req.URL.Path = t.base.Path + strings.TrimPrefix(req.URL.Path, publicAPIPrefix)
		req.URL.RawPath = ""
		req.Host = t.base.Host
	}
	if t.version != "" {
		req.Header.Set("Notion-Version", t.version)
	}

	resp, err := t.next.RoundTrip(req)
	if err != nil || resp.StatusCode < http.StatusBadRequest {
		return resp, err
	}
	return normalizeError(resp)
}

// normalizeError rewrites an error body that is empty, not JSON or missing
// its status into the API's error object shape
func normalizeError(resp *http.Response) (*http.Response, error) {
	data, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return nil, err
	}

	var body struct {
		Object  string `json:"object"`
		Status  int    `json:"status"`
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	if json.Unmarshal(data, &body) != nil || body.Status == 0 || body.Message == "" {
		if body.Message == "" {
			body.Message = strings.TrimSpace(string(data))
			if body.Message == "" || !json.Valid(data) && strings.HasPrefix(body.Message, "<") {
				body.Message = http.StatusText(resp.StatusCode)
			}
		}
		body.Object = "error"
		body.Status = resp.StatusCode
		data, _ = json.Marshal(body)
		if resp.Header == nil {
			resp.Header = http.Header{}
		}
		resp.Header.Set("Content-Type", "application/json")
	}

	resp.Body = io.NopCloser(bytes.NewReader(data))
	resp.ContentLength = int64(len(data))
	return resp, nil
}
