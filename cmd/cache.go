package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/coursekit/coursekit/internal/contract"
	"github.com/coursekit/coursekit/internal/iocache"
	"github.com/spf13/cobra"
)

// cacheSetup opens only the cache store. Cache and auth status commands run
// without the grading and Google validation of sharedSetup.
func cacheSetup() error {
	if err := loadConfigFile(); err != nil {
		return err
	}
	backend, connStr, err := storeBackend("cache")
	if err != nil {
		return err
	}
	if err := iocache.InitStores(backend, connStr, "", ""); err != nil {
		return fmt.Errorf("failed to initialize cache: %w", err)
	}
	cfg.CacheBackend, cfg.CacheDBConnect = backend, connStr
	return nil
}

// cacheSetupWrapper wraps cacheSetup to provide PreRunE for cache commands.
func cacheSetupWrapper(_ *cobra.Command, _ []string) error {
	return cacheSetup()
}

// cacheCmd groups the cache subcommands.
var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the credential and URL cache",
	Long: `Manage the cache holding the OAuth credential and expanded form URLs.

Supported backends: SQLite (default), MySQL, PostgreSQL, or None (disabled)

Subcommands:
  status - Show cache statistics and connection info
  clear  - Remove all cached data

Examples:
  # Check cache status
  coursekit cache status

  # Forget the credential and every expanded URL
  coursekit cache clear`,
}

// cacheClearCmd clears the cache.
var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove the cached credential and URL expansions",
	Long: `Delete all cached data from the configured backend. The next Google-backed
command asks for consent again.

For SQLite: Deletes the database file
For MySQL/PostgreSQL: Drops the cache table

Examples:
  # Clear SQLite cache (default)
  coursekit cache clear

  # Clear MySQL cache (set connection string via env variable)
  COURSEKIT_CACHE_BACKEND=mysql COURSEKIT_CACHE_DB_CONNECT="..." coursekit cache clear`,
	PreRunE: cacheSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		// The SQLite file cannot be removed while the store holds it open
		iocache.CloseStores()
		if err := iocache.ClearCache(cfg.CacheBackend, contract.GetCacheDBFilePath(), cfg.CacheDBConnect); err != nil {
			contract.LogFatal("Failed to clear cache", err)
		}
		fmt.Println("Cache cleared successfully.")
	},
}

// cacheStatusCmd shows cache status.
var cacheStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Display cache statistics and connection details",
	Long: `Show detailed information about the credential and URL cache.

Displays:
- Backend type and connection status
- Total number of cached entries
- Last and oldest cache entry timestamps
- Cache database size

Examples:
  coursekit cache status`,
	PreRunE: cacheSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		store := iocache.Manager.GetCacheStore()
		if store == nil {
			contract.LogFatal("Failed to get cache status", errors.New("cache store is not initialized"))
		}
		status, err := store.GetStatus()
		if err != nil {
			contract.LogFatal("Failed to get cache status", err)
		}
		iocache.PrintCacheStatus(os.Stdout, status)
	},
}
