// Package feed polls syndication sources and emits events for entries
// that have not been seen before.
package feed

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/doyensec/safeurl"
	"github.com/microcosm-cc/bluemonday"
	"github.com/mmcdole/gofeed"
)

const (
	fetchTimeout    = 30 * time.Second
	maxBodySize     = 5 * 1024 * 1024
	maxSummaryRunes = 300
)

// HTTPClient is the interface for performing HTTP requests
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Item is one syndicated entry. Link and Title (plus GUID when present)
// form the identity key used for deduplication.
type Item struct {
	Link        string
	Title       string
	GUID        string
	Description string
	Author      string
	Published   *time.Time
}

// key returns the identity tuple for history comparisons
func (i Item) key() string {
	if i.GUID != "" {
		return i.Link + "\x00" + i.Title + "\x00" + i.GUID
	}
	return i.Link + "\x00" + i.Title
}

// StatusError reports a non-success HTTP response from a feed source
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("server responded with %d (feed=%s)", e.StatusCode, e.URL)
}

// ParseError reports a feed document that could not be parsed
type ParseError struct {
	URL string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("unable to parse the feed (feed=%s): %v", e.URL, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Fetcher downloads and parses feeds
type Fetcher struct {
	client    HTTPClient
	sanitizer *bluemonday.Policy
}

// NewFetcher creates a Fetcher with an SSRF-guarded HTTP client. Requests
// to private, loopback and link-local addresses are refused at the dialer,
// so a hostile feed URL cannot be used to probe the bot's network.
func NewFetcher() *Fetcher {
	config := safeurl.GetConfigBuilder().
		SetTimeout(fetchTimeout).
		SetAllowedSchemes("http", "https").
		SetAllowedPorts(80, 443).
		Build()

	return NewFetcherWithClient(safeurl.Client(config).Client)
}

// NewFetcherWithClient creates a Fetcher using the given HTTP client
// (useful for testing)
func NewFetcherWithClient(client HTTPClient) *Fetcher {
	return &Fetcher{
		client:    client,
		sanitizer: bluemonday.StrictPolicy(),
	}
}

// Fetch downloads and parses the feed at url. Non-2xx responses yield a
// *StatusError, undecodable documents a *ParseError.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]Item, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "aoba/1.0")
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml,text/xml")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http get: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{URL: url, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	parsed, err := gofeed.NewParser().ParseString(string(body))
	if err != nil {
		return nil, &ParseError{URL: url, Err: err}
	}

	items := make([]Item, 0, len(parsed.Items))
	for _, entry := range parsed.Items {
		items = append(items, f.convert(entry))
	}
	return items, nil
}

func (f *Fetcher) convert(entry *gofeed.Item) Item {
	item := Item{
		Link:        entry.Link,
		Title:       entry.Title,
		GUID:        entry.GUID,
		Description: f.summarize(entry.Description),
		Published:   entry.PublishedParsed,
	}
	if len(entry.Authors) > 0 {
		item.Author = entry.Authors[0].Name
	}
	return item
}

// summarize strips all markup from a feed entry description and bounds
// its length so it can be dropped straight into an embed
func (f *Fetcher) summarize(raw string) string {
	text := strings.TrimSpace(f.sanitizer.Sanitize(raw))
	runes := []rune(text)
	if len(runes) > maxSummaryRunes {
		return string(runes[:maxSummaryRunes]) + "..."
	}
	return text
}
