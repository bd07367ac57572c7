package main

import (
	"database/sql"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hyperengineering/hydro/internal/config"
	"github.com/hyperengineering/hydro/internal/store"
)

var dbPathOverride string

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending schema migrations",
	Args:  cobra.NoArgs,
	RunE:  runMigrate,
}

var migrateStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print the applied schema version",
	Args:  cobra.NoArgs,
	RunE:  runMigrateStatus,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPathOverride, "db", "",
		"Database path (overrides config and HYDRO_DB_PATH)")

	migrateCmd.AddCommand(migrateStatusCmd)
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	before, err := store.SchemaVersion(db)
	if err != nil {
		return err
	}
	if err := store.RunMigrations(db); err != nil {
		return err
	}
	after, err := store.SchemaVersion(db)
	if err != nil {
		return err
	}

	if before == after {
		fmt.Fprintf(cmd.OutOrStdout(), "Schema is up to date at version %d.\n", after)
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Migrated schema from version %d to %d.\n", before, after)
	return nil
}

func runMigrateStatus(cmd *cobra.Command, args []string) error {
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	v, err := store.SchemaVersion(db)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Schema version: %d\n", v)
	return nil
}

// resolveDBPath returns --db when given, else the configured database path.
func resolveDBPath() (string, error) {
	if dbPathOverride != "" {
		return dbPathOverride, nil
	}
	dbCfg, err := config.LoadDatabaseConfig()
	if err != nil {
		return "", fmt.Errorf("load config: %w", err)
	}
	return dbCfg.Path, nil
}

// openDB opens the database without migrating it.
func openDB() (*sql.DB, error) {
	path, err := resolveDBPath()
	if err != nil {
		return nil, err
	}
	return store.Open(path)
}
