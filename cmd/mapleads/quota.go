package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func (a *app) newQuotaCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "quota",
		Short: "Inspect or reset the daily lead quota",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show today's usage for the account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			gate, closeGate, err := a.openGate(cmd.Context())
			if err != nil {
				return err
			}
			defer closeGate()

			status, err := gate.Status(cmd.Context(), a.cfg.Account)
			if err != nil {
				return err
			}
			a.printer(cmd).PrintQuotaStatus(status)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "reset",
		Short: "Clear today's usage for the account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			gate, closeGate, err := a.openGate(cmd.Context())
			if err != nil {
				return err
			}
			defer closeGate()

			if err := gate.Reset(cmd.Context(), a.cfg.Account); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Quota reset for %s\n", a.cfg.Account)
			return nil
		},
	})
	return cmd
}
