package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/jonathan/mapleads/internal/fetch"
	"github.com/jonathan/mapleads/internal/types"
)

// MapsSearchURL is the prefix for query-based searches.
const MapsSearchURL = "https://www.google.com/maps/search/"

const (
	jsFeed     = `document.querySelector('div[role="feed"]')`
	jsExists   = jsFeed + ` !== null`
	jsScroll   = `(() => { const f = ` + jsFeed + `; if (f) { f.scrollTop = f.scrollHeight; } return true; })()`
	jsHeight   = `(() => { const f = ` + jsFeed + `; return f ? f.scrollHeight : 0; })()`
	jsCount    = `document.querySelectorAll('div[role="feed"] div[role="article"]').length`
	jsSnapshot = `Array.from(document.querySelectorAll('div[role="feed"] div[role="article"]')).map(el => ({html: el.outerHTML, text: el.innerText}))`
)

// ChromeOptions configures the browser behind a ChromeSource.
type ChromeOptions struct {
	// Headless runs Chrome without a window.
	Headless bool
	// LoadTimeout bounds the initial navigation.
	LoadTimeout time.Duration
}

// ChromeSource is a Source backed by a live Chrome tab.
type ChromeSource struct {
	browserCtx context.Context
	cancel     func()
	target     string
}

// SearchTarget turns a query or URL into the page to open.
func SearchTarget(queryOrURL string) string {
	q := strings.TrimSpace(queryOrURL)
	if strings.HasPrefix(q, "http://") || strings.HasPrefix(q, "https://") {
		return q
	}
	return MapsSearchURL + url.PathEscape(q)
}

// OpenChrome launches Chrome, navigates to the search results for queryOrURL and
// waits for the page body. Close must be called to release the browser.
func OpenChrome(ctx context.Context, queryOrURL string, opts ChromeOptions) (*ChromeSource, error) {
	if opts.LoadTimeout <= 0 {
		opts.LoadTimeout = 30 * time.Second
	}
	target := SearchTarget(queryOrURL)

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.WithoutCancel(ctx), fetch.AllocatorOptions(opts.Headless)...)
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	src := &ChromeSource{
		browserCtx: browserCtx,
		cancel: func() {
			cancelBrowser()
			cancelAlloc()
		},
		target: target,
	}

	slog.Default().Info("opening results page", "component", "feed", "url", target)

	loadCtx, cancel := context.WithTimeout(ctx, opts.LoadTimeout)
	defer cancel()
	err := src.run(loadCtx,
		chromedp.Navigate(target),
		chromedp.WaitReady("body"),
	)
	if err != nil {
		src.Close()
		return nil, &ScanError{Op: "open " + target, Cause: err}
	}
	return src, nil
}

// Close shuts the browser down.
func (c *ChromeSource) Close() {
	c.cancel()
}

// BaseURL returns the opened page, for resolving relative links.
func (c *ChromeSource) BaseURL() *url.URL {
	u, err := url.Parse(c.target)
	if err != nil {
		return nil
	}
	return u
}

// Exists reports whether the results feed is on the page.
func (c *ChromeSource) Exists(ctx context.Context) (bool, error) {
	var ok bool
	err := c.run(ctx, chromedp.Evaluate(jsExists, &ok))
	return ok, err
}

// ScrollToEnd scrolls the feed to its current bottom.
func (c *ChromeSource) ScrollToEnd(ctx context.Context) error {
	var ignored bool
	return c.run(ctx, chromedp.Evaluate(jsScroll, &ignored))
}

// ItemCount counts the loaded feed items.
func (c *ChromeSource) ItemCount(ctx context.Context) (int, error) {
	var n int
	err := c.run(ctx, chromedp.Evaluate(jsCount, &n))
	return n, err
}

// ScrollHeight returns the feed's scroll height.
func (c *ChromeSource) ScrollHeight(ctx context.Context) (int64, error) {
	var h int64
	err := c.run(ctx, chromedp.Evaluate(jsHeight, &h))
	return h, err
}

// ContainsText reports whether the page's visible text contains text.
func (c *ChromeSource) ContainsText(ctx context.Context, text string) (bool, error) {
	quoted, err := json.Marshal(text)
	if err != nil {
		return false, err
	}
	var ok bool
	err = c.run(ctx, chromedp.Evaluate(fmt.Sprintf(`document.body.innerText.includes(%s)`, quoted), &ok))
	return ok, err
}

// Snapshot copies every loaded feed item.
func (c *ChromeSource) Snapshot(ctx context.Context) ([]types.ItemSnapshot, error) {
	var snaps []types.ItemSnapshot
	if err := c.run(ctx, chromedp.Evaluate(jsSnapshot, &snaps)); err != nil {
		return nil, err
	}
	return snaps, nil
}

// run executes actions in the browser tab, cancelled when ctx is done.
// Cancelling the derived context does not close the tab.
func (c *ChromeSource) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithCancel(c.browserCtx)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()
	if err := ctx.Err(); err != nil {
		return err
	}
	return chromedp.Run(runCtx, actions...)
}
