package main

import (
	"fmt"
	"net/url"
	"time"

	"github.com/spf13/cobra"

	"github.com/jonathan/mapleads/internal/config"
	"github.com/jonathan/mapleads/internal/feed"
	"github.com/jonathan/mapleads/internal/pipeline"
	"github.com/jonathan/mapleads/internal/types"
)

// defaultBaseURL resolves relative listing links in saved pages.
const defaultBaseURL = "https://www.google.com"

type scrapeFlags struct {
	enrich      bool
	target      string
	out         string
	jsonPath    string
	showBrowser bool
	loadTimeout time.Duration
}

func (a *app) newScrapeCmd() *cobra.Command {
	var f scrapeFlags
	cmd := &cobra.Command{
		Use:   "scrape <query-or-url>",
		Short: "Scroll a Google Maps results feed and extract its listings",
		Long: `Opens Chrome on a Google Maps search (a query such as "dentists in austin" or a full results URL), scrolls the results panel until it stops growing and extracts every listing.

With --enrich each lead is analyzed by Gemini and charged against the daily quota of the account.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("show-browser") {
				a.cfg.ShowBrowser = f.showBrowser
			}
			if cmd.Flags().Changed("load-timeout") {
				a.cfg.LoadTimeout = config.Duration(f.loadTimeout)
			}
			return a.runScrape(cmd, args[0], f)
		},
	}

	cmd.Flags().BoolVar(&f.enrich, "enrich", false, "Enrich each lead with Gemini before exporting")
	cmd.Flags().StringVarP(&f.target, "target", "t", "none", "Export target: none, csv or sheets")
	cmd.Flags().StringVarP(&f.out, "out", "o", "", "CSV output path (defaults to mapleads_<timestamp>.csv)")
	cmd.Flags().StringVar(&f.jsonPath, "json", "", "Also save the records as JSON to this path")
	cmd.Flags().BoolVar(&f.showBrowser, "show-browser", false, "Show the Chrome window while scrolling")
	cmd.Flags().DurationVar(&f.loadTimeout, "load-timeout", 30*time.Second, "Timeout for the initial page load")
	return cmd
}

func (a *app) runScrape(cmd *cobra.Command, query string, f scrapeFlags) error {
	ctx := cmd.Context()
	target, err := pipeline.ParseTarget(f.target)
	if err != nil {
		return err
	}

	src, err := feed.OpenChrome(ctx, query, a.chromeOptions())
	if err != nil {
		return err
	}
	defer src.Close()

	p := pipeline.New(src, nil, nil, nil, a.logger)
	if err := p.Scan(ctx, a.logProgress); err != nil {
		return err
	}
	records, err := p.Extract(ctx)
	if err != nil {
		return err
	}
	a.logger.Info("extracted listings", "records", len(records))

	return a.deliver(cmd, p, records, target, f.out, f.jsonPath, f.enrich)
}

// deliver enriches records when asked to, then exports and prints them.
func (a *app) deliver(cmd *cobra.Command, p *pipeline.Pipeline, records []types.LeadRecord, target pipeline.Target, out, jsonPath string, withEnrichment bool) error {
	ctx := cmd.Context()

	dest, err := a.newDestination(ctx, target)
	if err != nil {
		return err
	}
	p.Destination = dest
	req := a.request(target, out)

	if !withEnrichment {
		report, err := p.Export(ctx, records, req)
		if err != nil {
			return err
		}
		return a.finish(cmd, report, jsonPath)
	}

	enricher, closeEnricher, err := a.requireEnricher(ctx)
	if err != nil {
		return err
	}
	defer closeEnricher()
	gate, closeGate, err := a.openGate(ctx)
	if err != nil {
		return err
	}
	defer closeGate()

	p.Enricher = enricher
	p.Gate = gate
	report, err := p.EnrichAndExport(ctx, records, req)
	if report != nil {
		if ferr := a.finish(cmd, report, jsonPath); ferr != nil && err == nil {
			err = ferr
		}
	}
	return err
}

func (a *app) logProgress(ev feed.ProgressEvent) {
	a.logger.Info(ev.Status(), "component", "feed", "phase", ev.Phase, "items", ev.ItemsSoFar)
}

type extractFlags struct {
	html     string
	base     string
	enrich   bool
	target   string
	out      string
	jsonPath string
}

func (a *app) newExtractCmd() *cobra.Command {
	var f extractFlags
	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Extract listings from a saved results page",
		Long:  `Parses listings out of an HTML file saved from a Google Maps results page, without opening a browser.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runExtract(cmd, f)
		},
	}

	cmd.Flags().StringVar(&f.html, "html", "", "Path to the saved results page")
	cmd.Flags().StringVar(&f.base, "base", defaultBaseURL, "Base URL for relative listing links")
	cmd.Flags().BoolVar(&f.enrich, "enrich", false, "Enrich each lead with Gemini before exporting")
	cmd.Flags().StringVarP(&f.target, "target", "t", "none", "Export target: none, csv or sheets")
	cmd.Flags().StringVarP(&f.out, "out", "o", "", "CSV output path (defaults to mapleads_<timestamp>.csv)")
	cmd.Flags().StringVar(&f.jsonPath, "json", "", "Also save the records as JSON to this path")
	_ = cmd.MarkFlagRequired("html")
	return cmd
}

func (a *app) runExtract(cmd *cobra.Command, f extractFlags) error {
	target, err := pipeline.ParseTarget(f.target)
	if err != nil {
		return err
	}
	base, err := url.Parse(f.base)
	if err != nil {
		return fmt.Errorf("invalid --base: %w", err)
	}

	src, err := feed.OpenStaticFile(f.html, base)
	if err != nil {
		return err
	}

	p := pipeline.New(src, nil, nil, nil, a.logger)
	records, err := p.Extract(cmd.Context())
	if err != nil {
		return err
	}
	if len(records) == 0 {
		a.logger.Warn("no results feed found in page", "path", f.html)
	}
	return a.deliver(cmd, p, records, target, f.out, f.jsonPath, f.enrich)
}
