// Package extract converts feed items into lead records using layout-independent heuristics.
package extract

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/jonathan/mapleads/internal/types"
)

// Selectors used to locate sub-elements of a feed item.
const (
	FeedSelector        = `div[role="feed"]`
	ArticleSelector     = `div[role="article"]`
	HeadingSelector     = `.fontHeadlineSmall`
	RatingSelector      = `.fontBodyMedium span[role="img"]`
	WebsiteLinkSelector = `a[data-value="Website"]`
)

// Item is an opaque handle to one feed entry.
// Optional values report false when the element is missing or empty.
type Item interface {
	// Text returns the visible text of the item, one visual line per newline.
	Text() string
	Heading() (string, bool)
	RatingLabel() (string, bool)
	WebsiteLink() (string, bool)
	// Links returns every outbound link in document order.
	Links() []string
	// PrimaryLink is the canonical link to the listing.
	PrimaryLink() (string, bool)
}

// HTMLItem implements Item over a parsed HTML fragment.
type HTMLItem struct {
	sel  *goquery.Selection
	text string
	base *url.URL
}

// NewHTMLItem wraps a selection. When text is empty it is derived from the markup.
// base, if non-nil, resolves relative links.
func NewHTMLItem(sel *goquery.Selection, text string, base *url.URL) *HTMLItem {
	if strings.TrimSpace(text) == "" {
		text = InnerText(sel)
	}
	return &HTMLItem{sel: sel, text: text, base: base}
}

// Text returns the item's visible text.
func (h *HTMLItem) Text() string {
	return h.text
}

// Heading returns the text of the heading-style sub-element.
func (h *HTMLItem) Heading() (string, bool) {
	return nonEmpty(h.sel.Find(HeadingSelector).First().Text())
}

// RatingLabel returns the accessible label of the rating element.
func (h *HTMLItem) RatingLabel() (string, bool) {
	label, ok := h.sel.Find(RatingSelector).First().Attr("aria-label")
	if !ok {
		return "", false
	}
	return nonEmpty(label)
}

// WebsiteLink returns the href of the explicit "Website" action.
func (h *HTMLItem) WebsiteLink() (string, bool) {
	href, ok := h.sel.Find(WebsiteLinkSelector).First().Attr("href")
	if !ok {
		return "", false
	}
	return nonEmpty(h.resolve(href))
}

// Links returns all hrefs in the item.
func (h *HTMLItem) Links() []string {
	links := make([]string, 0)
	h.sel.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		if href = h.resolve(href); href != "" {
			links = append(links, href)
		}
	})
	return links
}

// PrimaryLink returns the href of the first anchor in the item.
func (h *HTMLItem) PrimaryLink() (string, bool) {
	anchor := h.sel.Find("a").First()
	if anchor.Length() == 0 {
		return "", false
	}
	href, _ := anchor.Attr("href")
	return nonEmpty(h.resolve(href))
}

func (h *HTMLItem) resolve(href string) string {
	href = strings.TrimSpace(href)
	if href == "" || h.base == nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return h.base.ResolveReference(ref).String()
}

// ItemsFromDocument returns the article items of the feed container in document order.
// A document without a feed container yields no items.
func ItemsFromDocument(doc *goquery.Document, base *url.URL) []Item {
	feed := doc.Find(FeedSelector).First()
	if feed.Length() == 0 {
		return nil
	}
	items := make([]Item, 0)
	feed.Find(ArticleSelector).Each(func(_ int, s *goquery.Selection) {
		items = append(items, NewHTMLItem(s, "", base))
	})
	return items
}

// ItemsFromSnapshots parses snapshots taken from a live feed.
// A snapshot whose markup cannot be parsed becomes an empty item and is dropped by Extract.
func ItemsFromSnapshots(snaps []types.ItemSnapshot, base *url.URL) []Item {
	items := make([]Item, 0, len(snaps))
	for _, snap := range snaps {
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(snap.HTML))
		if err != nil {
			items = append(items, NewHTMLItem(&goquery.Selection{}, snap.Text, base))
			continue
		}
		items = append(items, NewHTMLItem(doc.Find("body"), snap.Text, base))
	}
	return items
}

var blockElements = map[string]bool{
	"address": true, "article": true, "aside": true, "blockquote": true, "div": true,
	"dl": true, "dt": true, "dd": true, "footer": true, "form": true, "h1": true,
	"h2": true, "h3": true, "h4": true, "h5": true, "h6": true, "header": true,
	"li": true, "main": true, "nav": true, "ol": true, "p": true, "section": true,
	"table": true, "tr": true, "ul": true,
}

// InnerText approximates the rendered text of a selection: block elements and <br>
// start new lines, script and style content is skipped.
func InnerText(sel *goquery.Selection) string {
	var sb strings.Builder
	renderText(sel, &sb)
	return strings.Join(Lines(sb.String()), "\n")
}

func renderText(sel *goquery.Selection, sb *strings.Builder) {
	sel.Contents().Each(func(_ int, c *goquery.Selection) {
		name := goquery.NodeName(c)
		switch {
		case name == "#text":
			sb.WriteString(c.Text())
		case name == "br":
			sb.WriteString("\n")
		case name == "script" || name == "style" || name == "noscript" || name == "#comment":
		case blockElements[name]:
			sb.WriteString("\n")
			renderText(c, sb)
			sb.WriteString("\n")
		default:
			renderText(c, sb)
		}
	})
}

// Lines splits text into trimmed, non-empty lines with internal whitespace collapsed.
func Lines(text string) []string {
	raw := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	lines := make([]string, 0, len(raw))
	for _, line := range raw {
		if line = strings.Join(strings.Fields(line), " "); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// RawLines splits text on newlines like Lines but keeps blank lines, so
// positions match the rendered text.
func RawLines(text string) []string {
	raw := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	for i, line := range raw {
		raw[i] = strings.Join(strings.Fields(line), " ")
	}
	return raw
}

func nonEmpty(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, s != ""
}
