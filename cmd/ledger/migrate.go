package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/Veraticus/ledgerflow/internal/cli"
	"github.com/Veraticus/ledgerflow/internal/storage"
)

func migrateCmd() *cobra.Command {
	var status bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		Long: `Initialize or update the database schema to the latest version.

Every command migrates on start; run this to prepare a database ahead of time
or to inspect its schema version.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := storage.NewSQLiteStorage(cfg.Database.Path)
			if err != nil {
				return fmt.Errorf("failed to open database: %w", err)
			}
			defer func() { _ = store.Close() }()

			if !status {
				slog.Info("Running database migrations", "database", cfg.Database.Path)
				if err := store.Migrate(cmd.Context()); err != nil {
					return fmt.Errorf("migration failed: %w", err)
				}
			}

			version, err := store.SchemaVersion(cmd.Context())
			if err != nil && !status {
				return err
			}
			msg := fmt.Sprintf("Schema version %d of %d (%s)", version, storage.ExpectedSchemaVersion, cfg.Database.Path)
			if version < storage.ExpectedSchemaVersion {
				fmt.Println(cli.FormatWarning(msg)) //nolint:forbidigo // User-facing output
				return nil
			}
			fmt.Println(cli.FormatSuccess(msg)) //nolint:forbidigo // User-facing output
			return nil
		},
	}

	cmd.Flags().BoolVar(&status, "status", false, "show the schema version without migrating")

	return cmd
}
