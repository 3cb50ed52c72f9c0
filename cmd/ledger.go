package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/coursekit/coursekit/internal/contract"
	"github.com/coursekit/coursekit/internal/iocache"
	"github.com/coursekit/coursekit/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// storeBackend resolves the backend and connection string of one store from the
// "<name>-backend" and "<name>-db-connect" settings. An empty backend disables the store.
func storeBackend(name string) (schema.DatabaseBackend, string, error) {
	backend := schema.NoneBackend
	if s := viper.GetString(name + "-backend"); s != "" {
		backend = schema.DatabaseBackend(s)
	}
	connStr := viper.GetString(name + "-db-connect")
	if err := contract.ValidateDatabaseConnectionString(backend, connStr); err != nil {
		return "", "", fmt.Errorf("%s: %w", name, err)
	}
	return backend, connStr, nil
}

// ledgerSetup loads minimal configuration needed for ledger operations.
// This is used by commands that need ledger access without full shared setup.
func ledgerSetup() error {
	if err := loadConfigFile(); err != nil {
		return err
	}
	backend, connStr, err := storeBackend("ledger")
	if err != nil {
		return err
	}

	// Initialize stores with the loaded config (no cache for ledger commands)
	if err := iocache.InitStores("", "", backend, connStr); err != nil {
		return fmt.Errorf("failed to initialize ledger: %w", err)
	}

	cfg.LedgerBackend = backend
	cfg.LedgerDBConnect = connStr
	cfg.OutputFile = viper.GetString("output-file")
	return nil
}

// ledgerSetupWrapper wraps ledgerSetup to provide PreRunE for ledger commands.
func ledgerSetupWrapper(_ *cobra.Command, _ []string) error {
	return ledgerSetup()
}

// ledgerMigrateSetup loads minimal configuration needed for migrate operations.
// This is a specialized setup that does NOT initialize stores or create tables,
// allowing migrations to run on a fresh database.
func ledgerMigrateSetup(_ *cobra.Command, _ []string) error {
	if err := loadConfigFile(); err != nil {
		return err
	}
	backend, connStr, err := storeBackend("ledger")
	if err != nil {
		return err
	}

	// For SQLite backend with empty connection string, use default path
	if backend == schema.SQLiteBackend && connStr == "" {
		connStr = contract.GetLedgerDBFilePath()
	}

	cfg.LedgerBackend = backend
	cfg.LedgerDBConnect = connStr
	return nil
}

// ledgerCmd focused on grade ledger management.
//
// Note: Ledger subcommands use minimal initialization (ledgerSetup) instead of
// the full sharedSetup used by the grading commands.
var ledgerCmd = &cobra.Command{
	Use:   "ledger",
	Short: "Manage the ledger of past grading runs",
	Long: `Manage the grade ledger that keeps every recorded run.

The ledger stores:
- Run metadata (command, timestamps, parameters)
- Oral presentation grades
- Letter-grade cutoffs recorded with --record

Supported backends: SQLite (default), MySQL, PostgreSQL, or None (disabled)

Subcommands:
  status  - Show ledger statistics
  export  - Export the ledger to Parquet
  clear   - Remove all ledger data
  migrate - Run database schema migrations

Examples:
  coursekit ledger status
  coursekit ledger export --output-file ledger.parquet`,
}

// ledgerClearCmd clears the ledger.
var ledgerClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all recorded runs and grades",
	Long: `Delete every recorded run with its oral grades and cutoffs.

WARNING: This action cannot be undone. Consider exporting data first.

Examples:
  # Export before clearing
  coursekit ledger export --output-file backup.parquet
  coursekit ledger clear`,
	PreRunE: ledgerSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		iocache.CloseStores()
		if err := iocache.ClearLedger(cfg.LedgerBackend, contract.GetLedgerDBFilePath(), cfg.LedgerDBConnect); err != nil {
			contract.LogFatal("Failed to clear ledger", err)
		}
		fmt.Println("Ledger cleared successfully.")
	},
}

// ledgerStatusCmd shows ledger status.
var ledgerStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Display ledger statistics and connection details",
	Long: `Show detailed information about the grade ledger.

Displays:
- Backend type and connection status
- Total number of runs stored
- Last and oldest run timestamps
- Row count of every ledger table

Examples:
  coursekit ledger status`,
	PreRunE: ledgerSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		store := iocache.Manager.GetLedgerStore()
		if store == nil {
			contract.LogFatal("Failed to get ledger status", errors.New("ledger is disabled"))
		}
		status, err := store.GetStatus()
		if err != nil {
			contract.LogFatal("Failed to get ledger status", err)
		}
		iocache.PrintLedgerStatus(os.Stdout, status)
	},
}

// ledgerExportCmd exports the ledger to Parquet files.
var ledgerExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the ledger to Parquet for spreadsheets and analytics",
	Long: `Export all recorded runs, oral grades and cutoffs to Parquet files.

Requires: --output-file parameter

Examples:
  coursekit ledger export --output-file ledger.parquet

  # Query with DuckDB
  duckdb -c "SELECT * FROM read_parquet('ledger.parquet.oral_grades.parquet')"`,
	PreRunE: ledgerSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := iocache.ExportGlobalLedger(cfg.OutputFile, os.Stdout); err != nil {
			contract.LogFatal("Failed to export ledger", err)
		}
	},
}

// ledgerMigrateCmd runs database migrations for the ledger.
var ledgerMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database schema migrations (upgrades/downgrades)",
	Long: `Manage database schema versions of the grade ledger.

By default, migrates to the latest version. Use --target-version for specific versions.

Examples:
  # Migrate to latest version (default)
  coursekit ledger migrate

  # Rollback to initial state
  coursekit ledger migrate --target-version 0`,
	PreRunE: ledgerMigrateSetup,
	Run: func(_ *cobra.Command, _ []string) {
		targetVersion := viper.GetInt("target-version")
		if err := iocache.MigrateLedger(cfg.LedgerBackend, cfg.LedgerDBConnect, targetVersion, os.Stdout); err != nil {
			contract.LogFatal("Failed to run migrations", err)
		}
	},
}
