package extract

import (
	"net/url"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/mapleads/internal/types"
)

const feedFixture = `
<html>
	<body>
		<div role="feed">
			<div role="article">
				<a href="https://www.google.com/maps/place/Joes+Pizza/data=1"></a>
				<div class="fontHeadlineSmall">Joe's Pizza</div>
				<div class="fontBodyMedium"><span role="img" aria-label="4.5 stars 1,234 Reviews"></span></div>
				<div>Pizza restaurant</div>
				<div>123 Main St</div>
				<div>(212) 555-0147</div>
				<a data-value="Website" href="https://joespizza.example/"></a>
			</div>
			<div role="article">
				<div class="fontHeadlineSmall">No Link Diner</div>
				<div>Diner</div>
			</div>
			<div role="article">
				<a href="/maps/place/Cafe+Luna"></a>
				<div>Cafe Luna</div>
				<div>4.0(87)</div>
				<div>Coffee shop · $$</div>
				<div>Open until 9 PM</div>
				<a href="https://www.google.com/maps/dir/cafe">Directions</a>
				<a href="https://cafeluna.example/menu">Menu</a>
			</div>
		</div>
	</body>
</html>`

func fixtureItems(t *testing.T) []Item {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(feedFixture))
	require.NoError(t, err)
	base, err := url.Parse("https://www.google.com")
	require.NoError(t, err)
	return ItemsFromDocument(doc, base)
}

func TestExtract_DropsItemsWithoutLink(t *testing.T) {
	items := fixtureItems(t)
	require.Len(t, items, 3)

	records := Extract(items)
	require.Len(t, records, 2)
	assert.Equal(t, "Joe's Pizza", records[0].Title)
	assert.Equal(t, "Cafe Luna", records[1].Title)
	for _, r := range records {
		assert.NotEmpty(t, r.Href)
		assert.NoError(t, types.ValidateRecord(&r))
	}
}

func TestExtract_FullListing(t *testing.T) {
	rec := Extract(fixtureItems(t))[0]

	assert.Equal(t, "Joe's Pizza", rec.Title)
	assert.Equal(t, "4.5", rec.Rating)
	assert.Equal(t, "1234", rec.ReviewCount)
	assert.Equal(t, "(212) 555-0147", rec.Phone)
	assert.Equal(t, "Pizza restaurant", rec.Industry)
	assert.Equal(t, "https://joespizza.example/", rec.CompanyURL)
	assert.Equal(t, "https://www.google.com/maps/place/Joes+Pizza/data=1", rec.Href)
	assert.Equal(t, "Joe's Pizza Pizza restaurant 123 Main St (212) 555-0147", rec.Address)
	assert.Equal(t, types.NewRecordID(rec.Href, 0), rec.ID)
}

func TestExtract_SparseListingDegrades(t *testing.T) {
	rec := Extract(fixtureItems(t))[1]

	assert.Equal(t, "Cafe Luna", rec.Title)
	assert.Equal(t, "N/A", rec.Rating)
	assert.Equal(t, "0", rec.ReviewCount)
	assert.Empty(t, rec.Phone)
	assert.Empty(t, rec.Industry, "rating line with parenthesis must not be captured")
	assert.Equal(t, "https://cafeluna.example/menu", rec.CompanyURL)
	assert.Equal(t, "https://www.google.com/maps/place/Cafe+Luna", rec.Href)
}

func TestExtract_Idempotent(t *testing.T) {
	first := Extract(fixtureItems(t))
	second := Extract(fixtureItems(t))

	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("re-extraction differs (-first +second):\n%s", diff)
	}
}

func TestExtract_NoFeedContainer(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(`<html><body><div>nothing</div></body></html>`))
	require.NoError(t, err)

	items := ItemsFromDocument(doc, nil)
	assert.Empty(t, items)
	assert.Empty(t, Extract(items))
}

func TestExtract_DuplicateLinksGetDistinctIDs(t *testing.T) {
	items := []Item{
		&fakeItem{link: "https://maps.example/a", text: "A"},
		&fakeItem{link: "https://maps.example/a", text: "A again"},
	}

	records := Extract(items)
	require.Len(t, records, 2)
	assert.NotEqual(t, records[0].ID, records[1].ID)
}

func TestExtract_ReviewCountAlwaysNumeric(t *testing.T) {
	labels := []string{"", "4.8 (2,001)", "3.9 stars 17 Reviews", "5.0 (1.2K)", "4.1 (No reviews)", "garbage"}

	for _, label := range labels {
		t.Run(label, func(t *testing.T) {
			records := Extract([]Item{&fakeItem{link: "https://maps.example/x", text: "X", rating: label}})
			require.Len(t, records, 1)
			assert.Regexp(t, `^\d+$`, records[0].ReviewCount)
		})
	}
}

func TestExtract_PanickingItemDegrades(t *testing.T) {
	records := Extract([]Item{&panicItem{}})
	require.Len(t, records, 1)

	rec := records[0]
	assert.Equal(t, "https://maps.example/panic", rec.Href)
	assert.Equal(t, "Unknown", rec.Title)
	assert.Equal(t, "N/A", rec.Rating)
	assert.Equal(t, "0", rec.ReviewCount)
	assert.Empty(t, rec.Address)
}

func TestExtract_FromSnapshots(t *testing.T) {
	snaps := []types.ItemSnapshot{
		{
			HTML: `<div role="article"><a href="https://www.google.com/maps/place/x"></a><span role="img" aria-label="x"></span></div>`,
			Text: "Bakery Bros\nBakery\n+1 415-555-0100",
		},
		{HTML: `<div role="article"><span>no anchor</span></div>`, Text: "Orphan"},
	}

	records := Extract(ItemsFromSnapshots(snaps, nil))
	require.Len(t, records, 1)
	assert.Equal(t, "Bakery Bros", records[0].Title)
	assert.Equal(t, "Bakery", records[0].Industry)
	assert.Equal(t, "+1 415-555-0100", records[0].Phone)
}

func TestPhoneFromLines_SkipsPricesAndLongLines(t *testing.T) {
	tests := []struct {
		name  string
		lines []string
		want  string
		found bool
	}{
		{"plain", []string{"Shop", "555-123-4567"}, "555-123-4567", true},
		{"dotted", []string{"555.123.4567"}, "555.123.4567", true},
		{"price line", []string{"$ 555 1234"}, "", false},
		{"euro price", []string{"€5551234"}, "", false},
		{"long line", []string{"Call us any time of day at 555-123-4567 please"}, "", false},
		{"first match wins", []string{"212-555-0000", "415-555-1111"}, "212-555-0000", true},
		{"none", []string{"Open 24 hours"}, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := PhoneFromLines(&Context{Lines: tt.lines})
			assert.Equal(t, tt.found, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeCount(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"120", "120", true},
		{"1,234", "1234", true},
		{"1.2K", "1200", true},
		{"3M", "3000000", true},
		{"No reviews", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := NormalizeCount(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIndustryFromSecondLine(t *testing.T) {
	rec := &types.LeadRecord{Rating: "4.5"}

	got, ok := IndustryFromSecondLine(&Context{Lines: []string{"Name", "Plumber"}, Record: rec})
	assert.True(t, ok)
	assert.Equal(t, "Plumber", got)

	_, ok = IndustryFromSecondLine(&Context{Lines: []string{"Name", "4.5 stars"}, Record: rec})
	assert.False(t, ok)

	_, ok = IndustryFromSecondLine(&Context{Lines: []string{"Name"}, Record: rec})
	assert.False(t, ok)

	text := "Name\n\nPlumber"
	_, ok = IndustryFromSecondLine(&Context{Lines: Lines(text), RawLines: RawLines(text), Record: rec})
	assert.False(t, ok, "a blank second line is positional")
}

func TestRawLines_KeepsBlankLines(t *testing.T) {
	assert.Equal(t, []string{"Bakery Bros", "", "Bakery"}, RawLines("Bakery   Bros\r\n  \nBakery"))
	assert.Equal(t, []string{"Bakery Bros", "Bakery"}, Lines("Bakery   Bros\r\n  \nBakery"))
}

func TestExtract_SnapshotBlankSecondLine(t *testing.T) {
	snaps := []types.ItemSnapshot{{
		HTML: `<div role="article"><a href="https://www.google.com/maps/place/x"></a></div>`,
		Text: "Bakery Bros\n\nBakery",
	}}

	records := Extract(ItemsFromSnapshots(snaps, nil))
	require.Len(t, records, 1)
	assert.Empty(t, records[0].Industry)
	assert.Equal(t, "Bakery Bros Bakery", records[0].Address)
}

func TestInnerText_BlockStructure(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(
		`<div><span>One</span> <b>line</b><br>Two<p>Three</p><script>var x = 1;</script></div>`))
	require.NoError(t, err)

	assert.Equal(t, "One line\nTwo\nThree", InnerText(doc.Find("body")))
}

type fakeItem struct {
	link    string
	text    string
	heading string
	rating  string
	website string
	links   []string
}

func (f *fakeItem) Text() string { return f.text }
func (f *fakeItem) Heading() (string, bool) { return nonEmpty(f.heading) }
func (f *fakeItem) RatingLabel() (string, bool) { return nonEmpty(f.rating) }
func (f *fakeItem) WebsiteLink() (string, bool) { return nonEmpty(f.website) }
func (f *fakeItem) Links() []string { return f.links }
func (f *fakeItem) PrimaryLink() (string, bool) { return nonEmpty(f.link) }

type panicItem struct{}

func (panicItem) Text() string { panic("text unavailable") }
func (panicItem) Heading() (string, bool) { panic("heading unavailable") }
func (panicItem) RatingLabel() (string, bool) { panic("rating unavailable") }
func (panicItem) WebsiteLink() (string, bool) { panic("website unavailable") }
func (panicItem) Links() []string { panic("links unavailable") }
func (panicItem) PrimaryLink() (string, bool) { return "https://maps.example/panic", true }
