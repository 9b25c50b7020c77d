package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/jonathan/mapleads/internal/feed"
	"github.com/jonathan/mapleads/internal/pipeline"
	"github.com/jonathan/mapleads/internal/server"
	"github.com/jonathan/mapleads/internal/server/ratelimit"
)

func (a *app) newServeCmd() *cobra.Command {
	var listen string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		Long: `Start an HTTP server exposing lead enrichment, streamed feed scans and quota status.

Without GEMINI_API_KEY the server still starts; /api/enrich then answers with a configuration notice.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("listen") {
				a.cfg.Listen = listen
			}
			return a.runServe(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&listen, "listen", ":8080", "Address to listen on")
	return cmd
}

func (a *app) runServe(ctx context.Context) error {
	enricher, closeEnricher, err := a.newEnricher(ctx)
	if err != nil {
		return err
	}
	defer closeEnricher()
	if enricher == nil {
		a.logger.Warn("GEMINI_API_KEY is not set, enrichment is disabled")
	}

	gate, closeGate, err := a.openGate(ctx)
	if err != nil {
		return err
	}
	defer closeGate()

	srv := server.New(server.Config{
		Addr:       a.cfg.Listen,
		Enricher:   enricher,
		Gate:       gate,
		OpenSource: a.openChrome,
		Account:    a.cfg.Account,
		Tier:       a.cfg.TierValue(),
		RateLimit:  ratelimit.LoadConfig(),
		Logger:     a.logger,
	})
	return srv.Start(ctx)
}

func (a *app) openChrome(ctx context.Context, queryOrURL string) (pipeline.Source, func(), error) {
	src, err := feed.OpenChrome(ctx, queryOrURL, a.chromeOptions())
	if err != nil {
		return nil, nil, err
	}
	return src, src.Close, nil
}
