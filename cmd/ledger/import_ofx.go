package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/Veraticus/ledgerflow/internal/cli"
	"github.com/Veraticus/ledgerflow/internal/model"
	"github.com/Veraticus/ledgerflow/internal/ofx"
)

func importOFXCmd() *cobra.Command {
	var account string
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "import-ofx <files...>",
		Short: "Import transactions from OFX/QFX files",
		Long: `Import transactions from OFX or QFX files exported from your bank into one
ledger account. Each transaction keeps the bank's ID, so importing the same
file twice adds nothing. Balances and budgets move as if the transactions had
been entered by hand.`,
		Example: `  ledger import-ofx --account Checking ~/Downloads/chase_jan_2024.qfx
  ledger import-ofx --account Visa ~/Downloads/visa_*.qfx --dry-run`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			files, err := expandFiles(args)
			if err != nil {
				return err
			}

			handler := cli.NewInterruptHandler(cmd.OutOrStdout(), "Import")
			ctx := handler.HandleInterrupts(cmd.Context())

			var txns []model.Transaction
			parser := ofx.NewParser()
			for _, path := range files {
				f, err := os.Open(path) //nolint:gosec // User-selected import file
				if err != nil {
					return fmt.Errorf("failed to open %s: %w", path, err)
				}
				statements, err := parser.ParseFile(ctx, f)
				_ = f.Close()
				if err != nil {
					return fmt.Errorf("%s: %w", filepath.Base(path), err)
				}
				for _, s := range statements {
					slog.Debug("Parsed statement", "file", filepath.Base(path), "institution_account", s.AccountID, "transactions", len(s.Transactions))
					txns = append(txns, s.Transactions...)
				}
			}
			if len(txns) == 0 {
				fmt.Println(cli.FormatWarning("No transactions found")) //nolint:forbidigo // User-facing output
				return nil
			}

			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			s := a.engine.Snapshot()
			acct, err := findAccount(s, account)
			if err != nil {
				return err
			}

			var fresh []model.Transaction
			for _, t := range txns {
				if _, exists := s.Transaction(t.ID); !exists {
					fresh = append(fresh, t)
				}
			}
			if dryRun {
				for i := range fresh {
					fresh[i].AccountID = acct.ID
				}
				fmt.Println(renderTransactions(s, fresh))                                                                          //nolint:forbidigo // User-facing output
				fmt.Println(cli.FormatInfo(fmt.Sprintf("Dry run: %d new, %d already imported", len(fresh), len(txns)-len(fresh)))) //nolint:forbidigo // User-facing output
				return nil
			}

			bar := newProgressBar(len(fresh), "Importing transactions...")
			imported := 0
			for start := 0; start < len(fresh); start += importBatchSize {
				batch := fresh[start:min(start+importBatchSize, len(fresh))]
				n, err := a.engine.ImportTransactions(ctx, acct.ID, batch)
				imported += n
				if err != nil {
					if handler.WasInterrupted() || errors.Is(err, ctx.Err()) {
						return nil
					}
					return fmt.Errorf("import stopped after %d transactions: %w", imported, err)
				}
				_ = bar.Add(len(batch))
			}
			_ = bar.Finish()

			after, _ := a.engine.Snapshot().Account(acct.ID)
			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Imported %d transactions into %s, %d already present; balance %s", //nolint:forbidigo // User-facing output
				imported, acct.Name, len(txns)-len(fresh), model.FormatMoney(after.Balance, after.Currency))))
			return nil
		},
	}

	cmd.Flags().StringVarP(&account, "account", "a", "", "ledger account to import into (required)")
	cmd.Flags().BoolVarP(&dryRun, "dry-run", "d", false, "preview without saving")
	_ = cmd.MarkFlagRequired("account")

	return cmd
}

// importBatchSize is how many transactions share one storage transaction.
const importBatchSize = 100

// expandFiles resolves glob patterns; a pattern without matches must name an
// existing file.
func expandFiles(patterns []string) ([]string, error) {
	var files []string
	for _, pattern := range patterns {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %s: %w", pattern, err)
		}
		if len(matches) == 0 {
			if _, err := os.Stat(pattern); err != nil {
				return nil, fmt.Errorf("no files match %s", pattern)
			}
			matches = []string{pattern}
		}
		for _, m := range matches {
			ext := strings.ToLower(filepath.Ext(m))
			if ext != ".ofx" && ext != ".qfx" {
				slog.Warn("Skipping file without .ofx/.qfx extension", "file", m)
				continue
			}
			files = append(files, m)
		}
	}
	if len(files) == 0 {
		return nil, errors.New("no OFX or QFX files to import")
	}
	return files, nil
}

func newProgressBar(total int, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("[cyan][bold]"+description+"[reset]"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(os.Stderr)
		}),
	)
}
