package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Veraticus/ledgerflow/internal/cli"
	"github.com/Veraticus/ledgerflow/internal/engine"
	"github.com/Veraticus/ledgerflow/internal/model"
)

func transferCmd() *cobra.Command {
	var memo, date string

	cmd := &cobra.Command{
		Use:   "transfer <from> <to> <amount>",
		Short: "Move money between two accounts",
		Long: `Move money between two accounts. Both balances and both transaction legs are
written together. The source needs enough funds unless it is a credit account.`,
		Example: `  ledger transfer Checking Savings 250 --memo "rainy day fund"`,
		Args:    cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := parseAmount(args[2])
			if err != nil {
				return err
			}
			when, err := parseDate(date)
			if err != nil {
				return err
			}

			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			s := a.engine.Snapshot()
			src, err := findAccount(s, args[0])
			if err != nil {
				return err
			}
			dst, err := findAccount(s, args[1])
			if err != nil {
				return err
			}

			t, err := a.engine.Transfer(cmd.Context(), engine.TransferRequest{
				SourceAccountID:      src.ID,
				DestinationAccountID: dst.ID,
				Amount:               amount,
				Memo:                 memo,
				Date:                 when,
			})
			if err != nil {
				return err
			}

			after := a.engine.Snapshot()
			src, _ = after.Account(src.ID)
			dst, _ = after.Account(dst.ID)
			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Transferred %s from %s to %s", //nolint:forbidigo // User-facing output
				model.FormatMoney(t.Amount, src.Currency), src.Name, dst.Name)))
			fmt.Println(cli.RenderTable([]string{"ACCOUNT", "BALANCE"}, [][]string{ //nolint:forbidigo // User-facing output
				{src.Name, cli.FormatAmount(src.Balance, src.Currency)},
				{dst.Name, cli.FormatAmount(dst.Balance, dst.Currency)},
			}))
			return nil
		},
	}

	cmd.Flags().StringVarP(&memo, "memo", "m", "", "memo stored on both legs")
	cmd.Flags().StringVar(&date, "date", "", "date (YYYY-MM-DD, default: now)")

	return cmd
}
