package main

import (
	"github.com/spf13/cobra"

	"github.com/jonathan/mapleads/internal/pipeline"
)

type recordsFlags struct {
	in       string
	target   string
	out      string
	jsonPath string
}

func (f *recordsFlags) register(cmd *cobra.Command, defaultTarget string) {
	cmd.Flags().StringVarP(&f.in, "in", "i", "-", "Records JSON file (\"-\" reads stdin)")
	cmd.Flags().StringVarP(&f.target, "target", "t", defaultTarget, "Export target: none, csv or sheets")
	cmd.Flags().StringVarP(&f.out, "out", "o", "", "CSV output path (defaults to mapleads_<timestamp>.csv)")
	cmd.Flags().StringVar(&f.jsonPath, "json", "", "Also save the records as JSON to this path")
}

func (a *app) newEnrichCmd() *cobra.Command {
	var f recordsFlags
	cmd := &cobra.Command{
		Use:   "enrich",
		Short: "Enrich saved records with Gemini",
		Long: `Reads records saved with --json, analyzes every lead with Gemini and exports the enriched table.

The whole batch is admitted against the daily quota of the account before any lead is analyzed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runRecords(cmd, f, true)
		},
	}
	f.register(cmd, "none")
	return cmd
}

func (a *app) newExportCmd() *cobra.Command {
	var f recordsFlags
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export saved records to CSV or Google Sheets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runRecords(cmd, f, false)
		},
	}
	f.register(cmd, "csv")
	return cmd
}

func (a *app) runRecords(cmd *cobra.Command, f recordsFlags, withEnrichment bool) error {
	target, err := pipeline.ParseTarget(f.target)
	if err != nil {
		return err
	}
	records, err := readRecords(f.in, cmd.InOrStdin())
	if err != nil {
		return err
	}

	p := pipeline.New(nil, nil, nil, nil, a.logger)
	return a.deliver(cmd, p, records, target, f.out, f.jsonPath, withEnrichment)
}
