package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"google.golang.org/api/option"

	"github.com/jonathan/mapleads/internal/config"
	"github.com/jonathan/mapleads/internal/db"
	"github.com/jonathan/mapleads/internal/enrich"
	"github.com/jonathan/mapleads/internal/export"
	"github.com/jonathan/mapleads/internal/feed"
	"github.com/jonathan/mapleads/internal/fetch"
	"github.com/jonathan/mapleads/internal/llm"
	"github.com/jonathan/mapleads/internal/observability"
	"github.com/jonathan/mapleads/internal/pipeline"
	"github.com/jonathan/mapleads/internal/quota"
	"github.com/jonathan/mapleads/internal/types"
)

// app carries the state shared by every subcommand.
type app struct {
	configPath string
	verbose    bool
	account    string
	tier       string
	apiKey     string

	cfg    config.Config
	logger *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "mapleads",
		Short: "Google Maps lead scanner and enrichment tool",
		Long: `MapLeads scrolls a Google Maps results feed, extracts the listings, enriches each lead with a Gemini analysis and exports the table to CSV or Google Sheets.

Configuration is read from a JSON5 file (--config), then environment variables, then flags.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "Path to a JSON5 config file")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "Print debug logs")
	flags.StringVar(&a.account, "account", "", "Quota account (defaults to MAPLEADS_ACCOUNT or \"default\")")
	flags.StringVar(&a.tier, "tier", "", "Account tier: free, starter, pro or enterprise")
	flags.StringVar(&a.apiKey, "api-key", "", "Gemini API Key (optional, defaults to GEMINI_API_KEY env var)")

	root.AddCommand(
		a.newScrapeCmd(),
		a.newExtractCmd(),
		a.newEnrichCmd(),
		a.newExportCmd(),
		a.newQuotaCmd(),
		a.newServeCmd(),
	)
	return root
}

// setup loads the configuration, applies the persistent flags and installs the logger.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	flags := cmd.Flags()
	if flags.Changed("verbose") {
		cfg.Verbose = a.verbose
	}
	if flags.Changed("account") {
		cfg.Account = a.account
	}
	if flags.Changed("tier") {
		cfg.Tier = a.tier
	}
	if flags.Changed("api-key") {
		cfg.APIKey = a.apiKey
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg

	level := slog.LevelInfo
	if cfg.Verbose {
		level = slog.LevelDebug
	}
	a.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
	slog.SetDefault(a.logger)
	return nil
}

func (a *app) printer(cmd *cobra.Command) *observability.Printer {
	return observability.NewPrinter(cmd.OutOrStdout())
}

// openGate opens the quota store: Postgres when DATABASE_URL is set, the local
// SQLite file otherwise.
func (a *app) openGate(ctx context.Context) (*quota.Gate, func(), error) {
	if a.cfg.DatabaseURL != "" {
		database, err := db.Connect(ctx, a.cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		if err := database.Migrate(ctx); err != nil {
			database.Close()
			return nil, nil, err
		}
		a.logger.Debug("using postgres quota store")
		return quota.NewGate(database, nil, a.cfg.Admin, a.logger), database.Close, nil
	}

	store, err := quota.OpenSQLite(ctx, a.cfg.QuotaDB)
	if err != nil {
		return nil, nil, err
	}
	a.logger.Debug("using sqlite quota store", "path", a.cfg.QuotaDB)
	return quota.NewGate(store, nil, a.cfg.Admin, a.logger), func() { _ = store.Close() }, nil
}

// newEnricher builds the Gemini-backed enricher. It returns nil when no API key is configured.
func (a *app) newEnricher(ctx context.Context) (*enrich.Enricher, func(), error) {
	if a.cfg.APIKey == "" {
		return nil, func() {}, nil
	}
	client, err := llm.NewClient(ctx, a.cfg.LLMConfig(), a.cfg.APIKey)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create LLM client: %w", err)
	}
	fetcher := fetch.NewFetcher(&fetch.Options{Timeout: a.cfg.FetchTimeout.Std()})
	return enrich.New(client, fetcher, a.cfg.EnrichOptions(), a.logger), func() { _ = client.Close() }, nil
}

func (a *app) requireEnricher(ctx context.Context) (*enrich.Enricher, func(), error) {
	e, closeFn, err := a.newEnricher(ctx)
	if err != nil {
		return nil, nil, err
	}
	if e == nil {
		return nil, nil, fmt.Errorf("%s environment variable or --api-key flag is required", config.EnvAPIKey)
	}
	return e, closeFn, nil
}

// newDestination connects to Google Sheets only when target needs it.
func (a *app) newDestination(ctx context.Context, target pipeline.Target) (export.Destination, error) {
	if target != pipeline.TargetSheets {
		return nil, nil
	}
	var opts []option.ClientOption
	if a.cfg.Credentials != "" {
		opts = append(opts, option.WithCredentialsFile(a.cfg.Credentials))
	}
	dest, err := export.NewSheetsDestination(ctx, opts...)
	if err != nil {
		return nil, err
	}
	return dest, nil
}

func (a *app) chromeOptions() feed.ChromeOptions {
	return feed.ChromeOptions{
		Headless:    !a.cfg.ShowBrowser,
		LoadTimeout: a.cfg.LoadTimeout.Std(),
	}
}

func (a *app) request(target pipeline.Target, path string) pipeline.Request {
	return pipeline.Request{
		Account: a.cfg.Account,
		Tier:    a.cfg.TierValue(),
		Target:  target,
		Path:    path,
	}
}

// readRecords decodes a JSON array of records from path, or stdin when path is "-".
func readRecords(path string, stdin io.Reader) ([]types.LeadRecord, error) {
	r := stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open records file: %w", err)
		}
		defer func() { _ = f.Close() }()
		r = f
	}

	var records []types.LeadRecord
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, fmt.Errorf("failed to parse records: %w", err)
	}
	return records, nil
}

// writeRecords writes records as indented JSON to path.
func writeRecords(path string, records []types.LeadRecord) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal records: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write records file: %w", err)
	}
	return nil
}

// finish prints the outcome of a pipeline run and saves the records when asked to.
func (a *app) finish(cmd *cobra.Command, report *pipeline.Report, jsonPath string) error {
	p := a.printer(cmd)
	p.PrintRecords(report.Records)

	destination := report.URL
	if destination == "" {
		destination = report.Path
	}
	p.PrintSummary(len(report.Records), report.Enriched, report.Failed, destination)

	if jsonPath != "" {
		if err := writeRecords(jsonPath, report.Records); err != nil {
			return err
		}
		a.logger.Info("saved records", "path", jsonPath, "records", len(report.Records))
	}
	return nil
}
