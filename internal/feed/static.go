package feed

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/jonathan/mapleads/internal/extract"
	"github.com/jonathan/mapleads/internal/types"
)

// StaticSource is a Source over a saved results page. Scrolling is a no-op and the
// height is fixed, so a scan over it stalls out without loading anything new.
type StaticSource struct {
	doc  *goquery.Document
	base *url.URL
}

// NewStaticSource parses a saved page. base, if non-nil, resolves relative links.
func NewStaticSource(r io.Reader, base *url.URL) (*StaticSource, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	return &StaticSource{doc: doc, base: base}, nil
}

// OpenStaticFile parses a saved page from disk.
func OpenStaticFile(path string, base *url.URL) (*StaticSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()
	return NewStaticSource(f, base)
}

// BaseURL returns the base used for relative links.
func (s *StaticSource) BaseURL() *url.URL {
	return s.base
}

// Items returns the feed items of the page.
func (s *StaticSource) Items() []extract.Item {
	return extract.ItemsFromDocument(s.doc, s.base)
}

func (s *StaticSource) Exists(context.Context) (bool, error) {
	return s.doc.Find(extract.FeedSelector).Length() > 0, nil
}

func (s *StaticSource) ScrollToEnd(context.Context) error {
	return nil
}

func (s *StaticSource) ItemCount(context.Context) (int, error) {
	return s.articles().Length(), nil
}

func (s *StaticSource) ScrollHeight(context.Context) (int64, error) {
	return int64(s.articles().Length()), nil
}

func (s *StaticSource) ContainsText(_ context.Context, text string) (bool, error) {
	return strings.Contains(s.doc.Find("body").Text(), text), nil
}

func (s *StaticSource) Snapshot(context.Context) ([]types.ItemSnapshot, error) {
	snaps := make([]types.ItemSnapshot, 0)
	var err error
	s.articles().EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		var html string
		html, err = goquery.OuterHtml(sel)
		if err != nil {
			return false
		}
		snaps = append(snaps, types.ItemSnapshot{HTML: html, Text: extract.InnerText(sel)})
		return true
	})
	if err != nil {
		return nil, fmt.Errorf("failed to render feed item: %w", err)
	}
	return snaps, nil
}

func (s *StaticSource) articles() *goquery.Selection {
	return s.doc.Find(extract.FeedSelector).First().Find(extract.ArticleSelector)
}
