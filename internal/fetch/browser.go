// Package fetch - browser.go provides headless browser rendering for script-heavy sites.
package fetch

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
)

// MinContentLength is the minimum stripped text length to consider an HTTP fetch useful.
// Shorter content triggers browser rendering when the fallback is enabled.
const MinContentLength = 500

// ShouldUseBrowser returns true if the extracted text is too short,
// indicating the page is likely rendered client-side.
func ShouldUseBrowser(extractedText string) bool {
	return len(strings.TrimSpace(extractedText)) < MinContentLength
}

// AllocatorOptions returns the Chrome flags shared by page rendering and feed scanning.
func AllocatorOptions(headless bool) []chromedp.ExecAllocatorOption {
	return append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
}

// WithBrowser renders a page in a headless browser and returns the rendered HTML.
// Requires Chrome/Chromium to be installed on the system.
func WithBrowser(ctx context.Context, url string, timeout time.Duration) (string, error) {
	logger := slog.Default().With("component", "fetch")
	logger.Debug("starting headless browser", "url", url)

	allocCtx, cancel := chromedp.NewExecAllocator(ctx, AllocatorOptions(true)...)
	defer cancel()

	browserCtx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	browserCtx, cancel = context.WithTimeout(browserCtx, timeout)
	defer cancel()

	var html string

	err := chromedp.Run(browserCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body"),
		// Give client-side rendering a moment to populate the page
		chromedp.Sleep(2*time.Second),
		chromedp.OuterHTML("html", &html),
	)

	if err != nil {
		return "", &Error{URL: url, Message: "browser rendering failed", Cause: err}
	}

	logger.Debug("rendered page", "url", url, "bytes", len(html))
	return html, nil
}

// FetchRendered fetches url over HTTP and, when renderFallback is set and the stripped
// text is too short, renders it in a browser instead. It returns stripped text capped at limit.
// A failed render keeps the HTTP text.
func (f *Fetcher) FetchRendered(ctx context.Context, url string, limit int, renderFallback bool) (string, error) {
	result, err := f.Fetch(ctx, url)
	if err != nil {
		return "", err
	}

	text := StripContent(result.HTML, limit)
	if !renderFallback || !ShouldUseBrowser(text) {
		return text, nil
	}

	deadline := DefaultTimeout * 3
	if d, ok := ctx.Deadline(); ok {
		deadline = time.Until(d)
	}
	html, err := WithBrowser(ctx, url, deadline)
	if err != nil {
		slog.Warn("render fallback failed", "component", "fetch", "url", url, "error", err)
		return text, nil
	}
	return StripContent(html, limit), nil
}
