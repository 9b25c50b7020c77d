// Package observability provides formatted output utilities for the CLI.
package observability

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/jonathan/mapleads/internal/quota"
	"github.com/jonathan/mapleads/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// cellWidth bounds free-text table cells
	cellWidth = 40
)

// Printer handles formatted output
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

func (p *Printer) newTable() table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(p.out)
	return t
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, truncate(line, boxWidth-4))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

func truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	return string([]rune(s)[:limit-3]) + "..."
}

// PrintRecords renders one row per lead. Enrichment columns are shown only when
// at least one record has been enriched.
func (p *Printer) PrintRecords(records []types.LeadRecord) {
	enriched := false
	for _, r := range records {
		if r.Enrichment != nil {
			enriched = true
			break
		}
	}

	t := p.newTable()
	header := table.Row{"#", "Title", "Rating", "Reviews", "Phone", "Industry", "Website"}
	if enriched {
		header = append(header, "SEO", "Missing", "Email")
	}
	t.AppendHeader(header)

	for i, r := range records {
		row := table.Row{
			i + 1,
			truncate(r.Title, cellWidth),
			r.Rating,
			r.ReviewCount,
			r.Phone,
			truncate(r.Industry, cellWidth),
			truncate(r.CompanyURL, cellWidth),
		}
		if enriched {
			if r.Enrichment == nil {
				row = append(row, "", "", "")
			} else {
				row = append(row,
					r.Enrichment.SEOHealth,
					truncate(r.Enrichment.MissingFeatures, cellWidth),
					types.StringOrEmpty(r.Enrichment.Email),
				)
			}
		}
		t.AppendRow(row)
	}
	t.AppendFooter(table.Row{"", fmt.Sprintf("%d leads", len(records))})
	t.Render()
}

// PrintQuotaStatus renders the usage of an account.
func (p *Printer) PrintQuotaStatus(status quota.Status) {
	t := p.newTable()
	t.AppendHeader(table.Row{"Account", "Tier", "Date", "Used", "Limit", "Remaining"})

	limit, remaining := fmt.Sprint(status.Limit), fmt.Sprint(status.Remaining)
	if status.Admin {
		limit, remaining = "unlimited", "unlimited"
	}
	t.AppendRow(table.Row{status.Account, status.State.Tier, status.State.Date, status.State.Count, limit, remaining})
	t.Render()
}

// PrintSummary outputs the totals of an enrichment run.
func (p *Printer) PrintSummary(total, enriched, failed int, destination string) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Leads:     %d\n", total))
	sb.WriteString(fmt.Sprintf("Enriched:  %d\n", enriched-failed))
	sb.WriteString(fmt.Sprintf("Fallbacks: %d", failed))
	if destination != "" {
		sb.WriteString(fmt.Sprintf("\nExported:  %s", destination))
	}
	p.printBox("ENRICHMENT SUMMARY", sb.String())
}
