package contract

import (
	"os"
	"path/filepath"
)

// Cache keys shared by the credential and URL layers.
const (
	TokenCacheKey     = "oauth-token"
	URLCacheKeyPrefix = "url:"
	CacheVersion      = 1
)

// GetCacheDBFilePath returns the path to the SQLite DB file for cache storage.
func GetCacheDBFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".coursekit_cache.db"
	}
	return filepath.Join(homeDir, ".coursekit_cache.db")
}

// GetLedgerDBFilePath returns the path to the SQLite DB file for the grade ledger.
func GetLedgerDBFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".coursekit_ledger.db"
	}
	return filepath.Join(homeDir, ".coursekit_ledger.db")
}
