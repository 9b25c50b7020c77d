// Package fetch provides website fetching and HTML-to-text processing for enrichment.
package fetch

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
)

// DefaultTimeout bounds a single page fetch.
const DefaultTimeout = 5 * time.Second

// DefaultContentLimit caps the stripped page text handed to the oracle, in runes.
const DefaultContentLimit = 10000

// DefaultUserAgent is the user agent string for HTTP requests.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"

// Result holds the raw content from a URL fetch.
type Result struct {
	URL         string
	HTML        string
	ContentType string
	StatusCode  int
}

// Error represents an error during URL fetching.
type Error struct {
	URL        string
	Message    string
	StatusCode int
	Cause      error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("fetch error for %s: %s: %v", e.URL, e.Message, e.Cause)
	}
	return fmt.Sprintf("fetch error for %s: %s", e.URL, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Options configures the fetch behavior.
type Options struct {
	Timeout   time.Duration
	UserAgent string
	Headers   map[string]string
}

// DefaultOptions returns the options used for enrichment fetches.
func DefaultOptions() *Options {
	return &Options{
		Timeout:   DefaultTimeout,
		UserAgent: DefaultUserAgent,
	}
}

// Fetcher retrieves pages over HTTP.
type Fetcher struct {
	client *resty.Client
}

// NewFetcher creates a fetcher. A nil opts selects DefaultOptions.
func NewFetcher(opts *Options) *Fetcher {
	if opts == nil {
		opts = DefaultOptions()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}

	client := resty.New()
	client.SetHeader("User-Agent", opts.UserAgent)
	client.SetHeaders(opts.Headers)
	client.SetTimeout(opts.Timeout)
	client.SetRedirectPolicy(resty.FlexibleRedirectPolicy(10))

	return &Fetcher{client: client}
}

// Fetch retrieves the HTML at urlStr. A non-200 response returns both the result
// and an *Error carrying the status code.
func (f *Fetcher) Fetch(ctx context.Context, urlStr string) (*Result, error) {
	if err := validateURL(urlStr); err != nil {
		return nil, err
	}

	resp, err := f.client.R().SetContext(ctx).Get(urlStr)
	if err != nil {
		return nil, &Error{
			URL:     urlStr,
			Message: "HTTP request failed",
			Cause:   err,
		}
	}

	result := &Result{
		URL:         urlStr,
		HTML:        string(resp.Body()),
		ContentType: resp.Header().Get("Content-Type"),
		StatusCode:  resp.StatusCode(),
	}

	if resp.StatusCode() != http.StatusOK {
		return result, &Error{
			URL:        urlStr,
			Message:    fmt.Sprintf("HTTP status %d", resp.StatusCode()),
			StatusCode: resp.StatusCode(),
		}
	}

	return result, nil
}

// URL retrieves HTML content from a URL with a one-off fetcher.
func URL(ctx context.Context, urlStr string, opts *Options) (*Result, error) {
	return NewFetcher(opts).Fetch(ctx, urlStr)
}

// IsFetchable reports whether s is an absolute http(s) URL.
func IsFetchable(s string) bool {
	return validateURL(s) == nil
}

func validateURL(urlStr string) error {
	parsedURL, err := url.Parse(strings.TrimSpace(urlStr))
	if err != nil || parsedURL.Host == "" || (parsedURL.Scheme != "http" && parsedURL.Scheme != "https") {
		return &Error{
			URL:     urlStr,
			Message: "invalid URL",
			Cause:   err,
		}
	}
	return nil
}

// StripContent removes script and style content from html, separates the text
// of adjacent nodes with a space, collapses whitespace runs to single spaces and
// truncates to limit runes. A limit <= 0 keeps everything.
func StripContent(html string, limit int) string {
	var text string
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		text = html
	} else {
		var sb strings.Builder
		writeText(doc.Selection, &sb)
		text = sb.String()
	}

	text = collapseWhitespace(text)
	if limit > 0 && utf8.RuneCountInString(text) > limit {
		text = string([]rune(text)[:limit])
	}
	return text
}

// writeText appends every text node under sel, each followed by a space.
func writeText(sel *goquery.Selection, sb *strings.Builder) {
	sel.Contents().Each(func(_ int, c *goquery.Selection) {
		switch goquery.NodeName(c) {
		case "#text":
			sb.WriteString(c.Text())
			sb.WriteByte(' ')
		case "script", "style", "noscript", "#comment":
		default:
			writeText(c, sb)
		}
	})
}

func collapseWhitespace(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
