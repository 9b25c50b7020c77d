package extract

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/jonathan/mapleads/internal/types"
)

// Context is the per-item state visible to strategies.
// Record holds the fields resolved so far, in field order.
type Context struct {
	Item  Item
	Lines []string
	// RawLines keeps blank lines; nil means Lines is positional as is.
	RawLines []string
	Record   *types.LeadRecord
}

// Strategy attempts to recover one field. It reports false on a miss.
type Strategy func(c *Context) (string, bool)

// Field is an ordered list of strategies for one attribute of a LeadRecord.
// The first strategy that succeeds wins; Default applies when all miss.
type Field struct {
	Name       string
	Strategies []Strategy
	Default    string
	Set        func(r *types.LeadRecord, v string)
}

var (
	phonePattern   = regexp.MustCompile(`((\+?\d{1,2}\s?)?(\(?\d{3}\)?[\s.-]?)?\d{3}[\s.-]?\d{4})`)
	parenCount     = regexp.MustCompile(`\((.*?)\)`)
	reviewsCount   = regexp.MustCompile(`(?i)([\d][\d,.]*\s*[KkMm]?)\s+Reviews`)
	currencyMarker = []string{"$", "€", "£", "¥", "₹"}
)

// MaxPhoneLineLength bounds the lines considered for phone numbers.
const MaxPhoneLineLength = 30

// HostingLinkPatterns identify links that point back into the map/search host.
var HostingLinkPatterns = []string{"google.com/maps", "google.com/search"}

// DefaultFields returns the field order and strategies used by the extractor.
func DefaultFields() []Field {
	return []Field{
		{
			Name:       "title",
			Strategies: []Strategy{TitleFromHeading, TitleFromFirstLine},
			Default:    "Unknown",
			Set:        func(r *types.LeadRecord, v string) { r.Title = v },
		},
		{
			Name:       "rating",
			Strategies: []Strategy{RatingFromLabel},
			Default:    "N/A",
			Set:        func(r *types.LeadRecord, v string) { r.Rating = v },
		},
		{
			Name:       "reviewCount",
			Strategies: []Strategy{ReviewCountFromParens, ReviewCountFromReviewsWord},
			Default:    "0",
			Set:        func(r *types.LeadRecord, v string) { r.ReviewCount = v },
		},
		{
			Name:       "phone",
			Strategies: []Strategy{PhoneFromLines},
			Set:        func(r *types.LeadRecord, v string) { r.Phone = v },
		},
		{
			Name:       "companyUrl",
			Strategies: []Strategy{WebsiteFromAction, WebsiteFromOutboundLink},
			Set:        func(r *types.LeadRecord, v string) { r.CompanyURL = v },
		},
		{
			Name:       "industry",
			Strategies: []Strategy{IndustryFromSecondLine},
			Set:        func(r *types.LeadRecord, v string) { r.Industry = v },
		},
		{
			Name:       "address",
			Strategies: []Strategy{AddressFromJoinedText},
			Set:        func(r *types.LeadRecord, v string) { r.Address = v },
		},
	}
}

// TitleFromHeading uses the heading-style sub-element.
func TitleFromHeading(c *Context) (string, bool) {
	return c.Item.Heading()
}

// TitleFromFirstLine uses the first line of the item text.
func TitleFromFirstLine(c *Context) (string, bool) {
	if len(c.Lines) == 0 {
		return "", false
	}
	return c.Lines[0], true
}

// RatingFromLabel takes the leading token of the rating label.
func RatingFromLabel(c *Context) (string, bool) {
	label, ok := c.Item.RatingLabel()
	if !ok {
		return "", false
	}
	parts := strings.Fields(label)
	if len(parts) == 0 {
		return "", false
	}
	return parts[0], true
}

// ReviewCountFromParens matches "<rating> (<count>)".
func ReviewCountFromParens(c *Context) (string, bool) {
	return countFromLabel(c, parenCount)
}

// ReviewCountFromReviewsWord matches "<count> Reviews".
func ReviewCountFromReviewsWord(c *Context) (string, bool) {
	return countFromLabel(c, reviewsCount)
}

func countFromLabel(c *Context, re *regexp.Regexp) (string, bool) {
	label, ok := c.Item.RatingLabel()
	if !ok {
		return "", false
	}
	m := re.FindStringSubmatch(label)
	if m == nil {
		return "", false
	}
	return NormalizeCount(m[1])
}

// NormalizeCount turns display counts such as "1,234" or "1.2K" into digit strings.
func NormalizeCount(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	multiplier := 1.0
	switch {
	case strings.HasSuffix(raw, "K"), strings.HasSuffix(raw, "k"):
		multiplier = 1_000
		raw = strings.TrimSpace(raw[:len(raw)-1])
	case strings.HasSuffix(raw, "M"), strings.HasSuffix(raw, "m"):
		multiplier = 1_000_000
		raw = strings.TrimSpace(raw[:len(raw)-1])
	}

	if multiplier > 1 {
		f, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", ""), 64)
		if err != nil || f < 0 {
			return "", false
		}
		return strconv.FormatInt(int64(f*multiplier), 10), true
	}

	var digits strings.Builder
	for _, r := range raw {
		switch {
		case r >= '0' && r <= '9':
			digits.WriteRune(r)
		case r == ',' || r == '.' || r == ' ' || r == '\u00a0':
		default:
			return "", false
		}
	}
	if digits.Len() == 0 {
		return "", false
	}
	n, err := strconv.ParseInt(digits.String(), 10, 64)
	if err != nil {
		return "", false
	}
	return strconv.FormatInt(n, 10), true
}

// PhoneFromLines returns the first phone-shaped match on a short line without a
// currency marker.
func PhoneFromLines(c *Context) (string, bool) {
	for _, line := range c.Lines {
		if utf8.RuneCountInString(line) >= MaxPhoneLineLength || hasCurrency(line) {
			continue
		}
		if m := phonePattern.FindString(line); m != "" {
			return m, true
		}
	}
	return "", false
}

func hasCurrency(line string) bool {
	for _, marker := range currencyMarker {
		if strings.Contains(line, marker) {
			return true
		}
	}
	return false
}

// WebsiteFromAction uses the explicit "Website" action link.
func WebsiteFromAction(c *Context) (string, bool) {
	return c.Item.WebsiteLink()
}

// WebsiteFromOutboundLink uses the first link that leaves the hosting map/search domain.
func WebsiteFromOutboundLink(c *Context) (string, bool) {
	for _, link := range c.Item.Links() {
		if !isHostingLink(link) {
			return link, true
		}
	}
	return "", false
}

func isHostingLink(link string) bool {
	for _, p := range HostingLinkPatterns {
		if strings.Contains(link, p) {
			return true
		}
	}
	return false
}

// IndustryFromSecondLine takes line two of the item text, blank lines
// included, unless it is empty or repeats the rating line.
func IndustryFromSecondLine(c *Context) (string, bool) {
	lines := c.RawLines
	if lines == nil {
		lines = c.Lines
	}
	if len(lines) < 2 || lines[1] == "" {
		return "", false
	}
	line := lines[1]
	if strings.Contains(line, c.Record.Rating) || strings.Contains(line, "(") {
		return "", false
	}
	return line, true
}

// AddressFromJoinedText keeps the whole item text as raw context.
func AddressFromJoinedText(c *Context) (string, bool) {
	if len(c.Lines) == 0 {
		return "", false
	}
	return strings.Join(c.Lines, " "), true
}
