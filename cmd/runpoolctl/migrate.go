package main

import (
	"fmt"

	"github.com/sethvargo/go-envconfig"
	"github.com/spf13/cobra"

	"github.com/mmynk/runpool/internal/config"
	"github.com/mmynk/runpool/internal/storage/sqldb"
)

func migrateCmd() *cobra.Command {
	var driver, dsn string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create or upgrade the database schema",
		Long: `Create or upgrade the database schema. Connection settings come from
DB_DRIVER and DB_DSN unless overridden by flags.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadDatabase(cmd.Context(), envconfig.OsLookuper())
			if err != nil {
				return err
			}
			if driver != "" {
				cfg.Driver = driver
			}
			if dsn != "" {
				cfg.DSN = dsn
			}

			store, err := sqldb.Open(cmd.Context(), cfg.Driver, cfg.DSN, sqldb.Options{})
			if err != nil {
				return err
			}
			defer store.Close()

			fmt.Fprintf(cmd.OutOrStdout(), "Schema up to date (%s)\n", store.Driver())
			return nil
		},
	}

	cmd.Flags().StringVar(&driver, "driver", "", "database driver (sqlite, postgres)")
	cmd.Flags().StringVar(&dsn, "dsn", "", "database path or connection URL")
	return cmd
}
