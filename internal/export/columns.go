// Package export writes lead tables to delimited files and remote spreadsheets.
package export

import (
	"strconv"

	"github.com/jonathan/mapleads/internal/types"
)

// Column is one exported field.
type Column struct {
	Header string
	Value  func(r types.LeadRecord) string
}

func title(r types.LeadRecord) string       { return r.Title }
func rating(r types.LeadRecord) string      { return r.Rating }
func reviewCount(r types.LeadRecord) string { return r.ReviewCount }
func phone(r types.LeadRecord) string       { return r.Phone }
func industry(r types.LeadRecord) string    { return r.Industry }
func address(r types.LeadRecord) string     { return r.Address }
func website(r types.LeadRecord) string     { return r.CompanyURL }
func mapsLink(r types.LeadRecord) string    { return r.Href }

// seoScore leaves unscored and zero-scored records blank.
func seoScore(r types.LeadRecord) string {
	if r.Enrichment == nil || r.Enrichment.SEOHealth == 0 {
		return ""
	}
	return strconv.Itoa(r.Enrichment.SEOHealth)
}

func missingFeatures(r types.LeadRecord) string {
	if r.Enrichment == nil {
		return ""
	}
	return r.Enrichment.MissingFeatures
}

func outreach(r types.LeadRecord) string {
	if r.Enrichment == nil {
		return ""
	}
	return r.Enrichment.OutreachMessage
}

func email(r types.LeadRecord) string {
	if r.Enrichment == nil {
		return ""
	}
	return types.StringOrEmpty(r.Enrichment.Email)
}

func contact(r types.LeadRecord) string {
	if r.Enrichment == nil {
		return ""
	}
	return types.StringOrEmpty(r.Enrichment.ContactPerson)
}

// CSVColumns returns the columns of the downloadable file.
func CSVColumns() []Column {
	return []Column{
		{"Title", title},
		{"Rating", rating},
		{"Reviews", reviewCount},
		{"Phone", phone},
		{"Email", email},
		{"Website", website},
		{"Industry", industry},
		{"Address", address},
		{"Maps Link", mapsLink},
		{"SEO Score", seoScore},
		{"Missing Features", missingFeatures},
	}
}

// SheetColumns returns the columns of the remote spreadsheet.
func SheetColumns() []Column {
	return []Column{
		{"Title", title},
		{"Rating", rating},
		{"Reviews", reviewCount},
		{"Phone", phone},
		{"Industry", industry},
		{"Address", address},
		{"Website", website},
		{"Maps Link", mapsLink},
		{"SEO", seoScore},
		{"Missing", missingFeatures},
		{"Outreach", outreach},
		{"Email", email},
		{"Contact", contact},
	}
}

// Headers returns the header row of columns.
func Headers(columns []Column) []string {
	out := make([]string, len(columns))
	for i, c := range columns {
		out[i] = c.Header
	}
	return out
}

// Rows returns the header row followed by one row per record.
func Rows(records []types.LeadRecord, columns []Column) [][]string {
	rows := make([][]string, 0, len(records)+1)
	rows = append(rows, Headers(columns))
	for _, r := range records {
		row := make([]string, len(columns))
		for i, c := range columns {
			row[i] = c.Value(r)
		}
		rows = append(rows, row)
	}
	return rows
}
