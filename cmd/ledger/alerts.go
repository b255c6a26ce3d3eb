package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Veraticus/ledgerflow/internal/cli"
)

func alertsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "alerts",
		Short: "Budget alerts",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "check",
		Short: "Evaluate every budget and print the alerts that are due",
		Long: `Evaluate every budget against this month's spending. Alerts are printed and,
when alerts.amqp.url is set, published to the broker.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			if raised := a.engine.CheckAlerts(cmd.Context()); len(raised) == 0 {
				fmt.Println(cli.FormatSuccess("All budgets are within their limits")) //nolint:forbidigo // User-facing output
			}
			return nil
		},
	})

	return cmd
}
