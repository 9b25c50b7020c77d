// Package pipeline wires the feed scanner, extractor, enricher, quota gate and
// exporters into the three operations exposed to callers.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/jonathan/mapleads/internal/enrich"
	"github.com/jonathan/mapleads/internal/export"
	"github.com/jonathan/mapleads/internal/extract"
	"github.com/jonathan/mapleads/internal/feed"
	"github.com/jonathan/mapleads/internal/quota"
	"github.com/jonathan/mapleads/internal/types"
)

// Source is a feed that can resolve relative links.
type Source interface {
	feed.Source
	BaseURL() *url.URL
}

// Target selects where EnrichAndExport writes its results.
type Target string

// Export targets
const (
	TargetNone   Target = "none"
	TargetCSV    Target = "csv"
	TargetSheets Target = "sheets"
)

// ParseTarget converts a flag value into a Target. An empty string means none.
func ParseTarget(s string) (Target, error) {
	switch Target(s) {
	case "", TargetNone:
		return TargetNone, nil
	case TargetCSV, TargetSheets:
		return Target(s), nil
	}
	return "", fmt.Errorf("unknown export target %q (want csv, sheets or none)", s)
}

// ErrNoDestination is returned when a sheets export is requested without a destination.
var ErrNoDestination = errors.New("no spreadsheet destination configured")

// Request describes one enrich-and-export run.
type Request struct {
	Account string
	Tier    types.Tier
	Target  Target
	// Columns overrides the delimited file columns. Nil selects export.CSVColumns.
	Columns []export.Column
	// Path is the delimited file to write. Empty selects export.DefaultFileName.
	Path string
	// OnResult observes each enrichment outcome as it completes.
	OnResult enrich.OutcomeCallback
}

// Report summarizes a run.
type Report struct {
	Records  []types.LeadRecord `json:"records"`
	URL      string             `json:"url,omitempty"`
	Path     string             `json:"path,omitempty"`
	Enriched int                `json:"enriched"`
	Failed   int                `json:"failed"`
}

// Pipeline holds the components of a run. Any of them may be nil when the
// operations that need it are not used.
type Pipeline struct {
	Source      Source
	Scanner     *feed.Scanner
	Enricher    *enrich.Enricher
	Gate        *quota.Gate
	Destination export.Destination
	Now         func() time.Time

	logger    *slog.Logger
	exportLog *slog.Logger
}

// New creates a pipeline scanning source with the default scroll timing.
func New(source Source, enricher *enrich.Enricher, gate *quota.Gate, dest export.Destination, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Pipeline{
		Source:      source,
		Enricher:    enricher,
		Gate:        gate,
		Destination: dest,
		Now:         time.Now,
		logger:      logger.With("component", "pipeline"),
		exportLog:   logger.With("component", "export"),
	}
	if source != nil {
		p.Scanner = feed.NewScanner(source, feed.DefaultOptions(), logger)
	}
	return p
}

// Scan scrolls the feed until it stops growing.
func (p *Pipeline) Scan(ctx context.Context, onProgress feed.ProgressCallback) error {
	if p.Scanner == nil {
		return errors.New("pipeline has no feed source")
	}
	return p.Scanner.ScanToStable(ctx, onProgress)
}

// Extract snapshots the loaded feed items and converts them into records.
// A missing feed yields an empty slice.
func (p *Pipeline) Extract(ctx context.Context) ([]types.LeadRecord, error) {
	if p.Source == nil {
		return nil, errors.New("pipeline has no feed source")
	}

	exists, err := p.Source.Exists(ctx)
	if err != nil {
		return nil, &feed.ScanError{Op: "detect", Cause: err}
	}
	if !exists {
		return []types.LeadRecord{}, nil
	}

	snaps, err := p.Source.Snapshot(ctx)
	if err != nil {
		return nil, &feed.ScanError{Op: "snapshot", Cause: err}
	}
	return extract.New(nil, p.logger).Extract(extract.ItemsFromSnapshots(snaps, p.Source.BaseURL())), nil
}

// EnrichAndExport admits the batch against the account quota, enriches every
// record, charges the quota and writes the results to the requested target.
// A quota denial, store failure or export failure is returned as an error; an
// export failure still returns the enriched records in the report.
func (p *Pipeline) EnrichAndExport(ctx context.Context, records []types.LeadRecord, req Request) (*Report, error) {
	if p.Enricher == nil {
		return nil, errors.New("pipeline has no enricher")
	}
	if len(records) == 0 {
		return &Report{Records: []types.LeadRecord{}}, nil
	}
	records = types.AssignIDs(records)

	if p.Gate != nil {
		if _, err := p.Gate.CheckAndAdmit(ctx, req.Account, len(records), req.Tier); err != nil {
			return nil, err
		}
	}

	arena := enrich.NewArena(records)
	p.Enricher.EnrichMany(ctx, records, func(o enrich.Outcome) {
		arena.Merge(o)
		if req.OnResult != nil {
			req.OnResult(o)
		}
	})

	if p.Gate != nil {
		if _, err := p.Gate.Record(context.WithoutCancel(ctx), req.Account, len(records)); err != nil {
			p.logger.Warn("failed to record quota usage", "account", req.Account, "error", err)
		}
	}

	enriched, failed := arena.Stats()
	report := &Report{Records: arena.Records(), Enriched: enriched, Failed: failed}

	if err := p.export(ctx, report, req); err != nil {
		return report, err
	}
	return report, nil
}

// Export writes records to the requested target without enriching them.
func (p *Pipeline) Export(ctx context.Context, records []types.LeadRecord, req Request) (*Report, error) {
	if records == nil {
		records = []types.LeadRecord{}
	}
	report := &Report{Records: records}
	report.Enriched, report.Failed = enrich.NewArena(records).Stats()
	if err := p.export(ctx, report, req); err != nil {
		return report, err
	}
	return report, nil
}

func (p *Pipeline) export(ctx context.Context, report *Report, req Request) error {
	now := p.Now()
	switch req.Target {
	case "", TargetNone:
		return nil
	case TargetCSV:
		path := req.Path
		if path == "" {
			path = export.DefaultFileName(now)
		}
		if err := export.WriteFile(path, report.Records, req.Columns); err != nil {
			return err
		}
		report.Path = path
		p.exportLog.Info("wrote export file", "path", path, "records", len(report.Records))
		return nil
	case TargetSheets:
		if p.Destination == nil {
			return ErrNoDestination
		}
		sheetURL, err := export.ExportRemote(ctx, p.Destination, report.Records, now)
		if err != nil {
			return err
		}
		report.URL = sheetURL
		p.exportLog.Info("exported to spreadsheet", "url", sheetURL, "records", len(report.Records))
		return nil
	}
	return fmt.Errorf("unknown export target %q", req.Target)
}
