package main

import (
	"fmt"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/Veraticus/ledgerflow/internal/cli"
)

func checkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Verify the stored ledger is consistent",
		Long: `Verify the stored ledger: every transaction belongs to an existing account,
every transfer has two mirrored legs, and no two categories of the same type
share a name. Exits with an error when problems are found.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			var bar *progressbar.ProgressBar
			rep, err := a.engine.Check(cmd.Context(), func(done, total int) {
				if bar == nil {
					bar = newProgressBar(total, "Checking transactions...")
				}
				_ = bar.Set(done)
			})
			if err != nil {
				return err
			}

			fmt.Printf("Checked %d accounts, %d transactions, %d transfers, %d categories\n", //nolint:forbidigo // User-facing output
				rep.Accounts, rep.Transactions, rep.Transfers, rep.Categories)
			if rep.OK() {
				fmt.Println(cli.FormatSuccess("Ledger is consistent")) //nolint:forbidigo // User-facing output
				return nil
			}

			rows := make([][]string, 0, len(rep.Findings))
			for _, f := range rep.Findings {
				rows = append(rows, []string{cli.ErrorStyle.Render(string(f.Kind)), f.Subject, f.Detail})
			}
			fmt.Println(cli.RenderTable([]string{"PROBLEM", "SUBJECT", "DETAIL"}, rows)) //nolint:forbidigo // User-facing output
			return fmt.Errorf("%d consistency problems found", len(rep.Findings))
		},
	}
}
