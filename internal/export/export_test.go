package export

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/mapleads/internal/types"
)

func strPtr(s string) *string { return &s }

func sampleRecords() []types.LeadRecord {
	a := types.LeadRecord{
		Title:       "A",
		Rating:      "4.5",
		ReviewCount: "12",
		Phone:       "(212) 555-0147",
		Industry:    "Pizza",
		Address:     "A\n4.5(12)",
		CompanyURL:  "https://a.example",
		Href:        "https://maps.example/a",
	}
	b := types.LeadRecord{
		Title:       `B "the best"`,
		Rating:      "N/A",
		ReviewCount: "0",
		Href:        "https://maps.example/b",
	}
	a = a.WithEnrichment(types.EnrichmentResult{
		SEOHealth:       7,
		MissingFeatures: "online booking",
		OutreachMessage: "Hi, saw your menu.",
		Email:           strPtr("hello@a.example"),
		ContactPerson:   strPtr("Ana"),
	})
	return []types.LeadRecord{a, b}
}

func TestToDelimitedText(t *testing.T) {
	got := ToDelimitedText(sampleRecords(), CSVColumns())

	want := `"Title","Rating","Reviews","Phone","Email","Website","Industry","Address","Maps Link","SEO Score","Missing Features"` + "\n" +
		`"A","4.5","12","(212) 555-0147","hello@a.example","https://a.example","Pizza","A` + "\n" + `4.5(12)","https://maps.example/a","7","online booking"` + "\n" +
		`"B ""the best""","N/A","0","","","","","","https://maps.example/b","",""` + "\n"
	assert.Equal(t, want, got)
}

func TestToDelimitedText_Empty(t *testing.T) {
	got := ToDelimitedText(nil, CSVColumns())
	assert.Equal(t, 1, strings.Count(got, "\n"))
	assert.True(t, strings.HasPrefix(got, `"Title",`))
}

func TestSheetColumns(t *testing.T) {
	assert.Equal(t, []string{
		"Title", "Rating", "Reviews", "Phone", "Industry", "Address", "Website",
		"Maps Link", "SEO", "Missing", "Outreach", "Email", "Contact",
	}, Headers(SheetColumns()))

	rows := Rows(sampleRecords(), SheetColumns())
	require.Len(t, rows, 3)
	assert.Equal(t, []string{
		"A", "4.5", "12", "(212) 555-0147", "Pizza", "A\n4.5(12)", "https://a.example",
		"https://maps.example/a", "7", "online booking", "Hi, saw your menu.", "hello@a.example", "Ana",
	}, rows[1])
	assert.Equal(t, "", rows[2][8])
	assert.Equal(t, "", rows[2][12])
}

func TestSEOScore_FallbackIsBlank(t *testing.T) {
	r := types.LeadRecord{Href: "x"}.WithEnrichment(types.FallbackResult(errors.New("boom")))
	assert.Equal(t, "", seoScore(r))
	assert.Equal(t, types.FallbackMissingFeatures, missingFeatures(r))
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", DefaultFileName(time.UnixMilli(1700000000123)))
	require.NoError(t, WriteFile(path, sampleRecords(), nil))

	assert.Equal(t, "mapleads_1700000000123.csv", filepath.Base(path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, ToDelimitedText(sampleRecords(), CSVColumns()), string(data))
}

type fakeDestination struct {
	createErr error
	appendErr error
	title     string
	rows      [][]string
}

func (f *fakeDestination) Create(_ context.Context, title string) (Sheet, error) {
	f.title = title
	if f.createErr != nil {
		return Sheet{}, f.createErr
	}
	return Sheet{ID: "sheet-1", URL: "https://docs.example/sheet-1"}, nil
}

func (f *fakeDestination) Append(_ context.Context, _ string, rows [][]string) error {
	f.rows = rows
	return f.appendErr
}

func TestExportRemote(t *testing.T) {
	now := time.Date(2026, 3, 5, 14, 7, 9, 0, time.Local)

	t.Run("success", func(t *testing.T) {
		dest := &fakeDestination{}
		url, err := ExportRemote(context.Background(), dest, sampleRecords(), now)
		require.NoError(t, err)
		assert.Equal(t, "https://docs.example/sheet-1", url)
		assert.Equal(t, "Google Maps Leads - 3/5/2026, 2:07:09 PM", dest.title)
		require.Len(t, dest.rows, 3)
		assert.Equal(t, "Title", dest.rows[0][0])
	})

	t.Run("create failure", func(t *testing.T) {
		dest := &fakeDestination{createErr: errors.New("no auth")}
		_, err := ExportRemote(context.Background(), dest, sampleRecords(), now)

		var re *RemoteError
		require.ErrorAs(t, err, &re)
		assert.Equal(t, StageCreate, re.Stage)
		assert.Empty(t, re.SheetID)
		assert.Equal(t, "Failed to create sheet: no auth", err.Error())
		assert.Nil(t, dest.rows)
	})

	t.Run("append failure leaves sheet named", func(t *testing.T) {
		dest := &fakeDestination{appendErr: errors.New("quota exceeded")}
		_, err := ExportRemote(context.Background(), dest, sampleRecords(), now)

		var re *RemoteError
		require.ErrorAs(t, err, &re)
		assert.Equal(t, StageAppend, re.Stage)
		assert.Equal(t, "sheet-1", re.SheetID)
		assert.Equal(t, "https://docs.example/sheet-1", re.SheetURL)
		assert.Contains(t, err.Error(), "Failed to append data")
	})
}

func TestSheetsDestination(t *testing.T) {
	var appended struct {
		Values [][]string `json:"values"`
	}
	var appendQuery string

	mux := http.NewServeMux()
	mux.HandleFunc("/v4/spreadsheets", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		var body struct {
			Properties struct {
				Title string `json:"title"`
			} `json:"properties"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.True(t, strings.HasPrefix(body.Properties.Title, TitlePrefix))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"spreadsheetId":"abc","spreadsheetUrl":"https://docs.example/abc"}`))
	})
	mux.HandleFunc("/v4/spreadsheets/abc/values/", func(w http.ResponseWriter, r *http.Request) {
		appendQuery = r.URL.Query().Get("valueInputOption")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&appended))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"spreadsheetId":"abc"}`))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	dest, err := NewSheetsDestinationForEndpoint(context.Background(), server.URL+"/", server.Client())
	require.NoError(t, err)

	url, err := ExportRemote(context.Background(), dest, sampleRecords(), time.Now())
	require.NoError(t, err)
	assert.Equal(t, "https://docs.example/abc", url)
	assert.Equal(t, "RAW", appendQuery)
	require.Len(t, appended.Values, 3)
	assert.Equal(t, "Contact", appended.Values[0][12])
	assert.Equal(t, "Ana", appended.Values[1][12])
}

func TestSheetsDestination_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":{"code":403,"message":"The caller does not have permission"}}`))
	}))
	defer server.Close()

	dest, err := NewSheetsDestinationForEndpoint(context.Background(), server.URL+"/", server.Client())
	require.NoError(t, err)

	_, err = ExportRemote(context.Background(), dest, sampleRecords(), time.Now())
	var re *RemoteError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, StageCreate, re.Stage)
	assert.Equal(t, http.StatusForbidden, re.Status)
	assert.Contains(t, re.Body, "does not have permission")
	assert.True(t, strings.HasPrefix(err.Error(), "Failed to create sheet: 403 - "))
}
