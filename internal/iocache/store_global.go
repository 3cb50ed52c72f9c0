package iocache

import (
	"database/sql"
	"fmt"
	"os"
	"sync"

	"github.com/coursekit/coursekit/schema"
)

// cacheTable is the name of the table for the credential and URL cache.
const cacheTable = "coursekit_cache"

// Global Manager instance for main logic.
var (
	Manager   = &StoreManager{}
	initOnce  sync.Once
	closeOnce sync.Once
)

// InitStores initializes the global manager with separate cache and ledger stores.
// An empty backend leaves the corresponding store disabled.
func InitStores(cacheBackend schema.DatabaseBackend, cacheConnStr string, ledgerBackend schema.DatabaseBackend, ledgerConnStr string) error {
	var initErr error

	initOnce.Do(func() {
		var cache *CacheStoreImpl
		var err error
		if cacheBackend != "" {
			cache, err = NewCacheStore(cacheTable, cacheBackend, cacheConnStr)
			if err != nil {
				initErr = fmt.Errorf("failed to initialize cache store: %w", err)
				return
			}
		}

		var ledger *LedgerStoreImpl
		if ledgerBackend != "" {
			ledger, err = NewLedgerStore(ledgerBackend, ledgerConnStr)
			if err != nil {
				if cache != nil {
					_ = cache.Close()
				}
				initErr = fmt.Errorf("failed to initialize ledger store: %w", err)
				return
			}
		}

		Manager.Lock()
		defer Manager.Unlock()
		if cache != nil {
			Manager.cache = cache
		}
		if ledger != nil {
			Manager.ledger = ledger
		}
	})

	return initErr
}

// CloseStores should be called on application shutdown.
func CloseStores() { // called in main defer
	closeOnce.Do(func() {
		Manager.Lock()
		defer Manager.Unlock()
		if Manager.cache != nil {
			_ = Manager.cache.Close()
		}
		if Manager.ledger != nil {
			_ = Manager.ledger.Close()
		}
	})
}

// ClearCache clears the cache for the specified backend.
// For SQLite, it deletes the database file.
// For SQL backends (MySQL/PostgreSQL), it drops the table.
func ClearCache(backend schema.DatabaseBackend, dbFilePath, connStr string) error {
	return clearStore(backend, dbFilePath, connStr, []string{cacheTable})
}

// ClearLedger clears the ledger for the specified backend, the same way ClearCache does.
func ClearLedger(backend schema.DatabaseBackend, dbFilePath, connStr string) error {
	// Dependents first
	return clearStore(backend, dbFilePath, connStr, []string{cutoffsTable, oralGradesTable, runsTable, "schema_migrations"})
}

func clearStore(backend schema.DatabaseBackend, dbFilePath, connStr string, tables []string) error {
	switch backend {
	case schema.SQLiteBackend:
		if connStr != "" {
			dbFilePath = connStr
		}
		if dbFilePath == "" {
			return fmt.Errorf("dbFilePath cannot be empty for SQLite backend")
		}
		if err := os.Remove(dbFilePath); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove SQLite database file %s: %w", dbFilePath, err)
		}
		return nil

	case schema.MySQLBackend, schema.PostgreSQLBackend:
		for _, table := range tables {
			if err := clearSQLTable(backend, connStr, table); err != nil {
				return err
			}
		}
		return nil

	case schema.NoneBackend:
		return nil

	default:
		return fmt.Errorf("unsupported backend for clearing: %s", backend)
	}
}

// clearSQLTable connects to the SQL database and drops the table if it exists.
func clearSQLTable(backend schema.DatabaseBackend, connStr, tableName string) error {
	driverName := driverFor(backend)
	db, err := sql.Open(driverName, connStr)
	if err != nil {
		return fmt.Errorf("failed to connect to %s database: %w", driverName, err)
	}
	defer func() { _ = db.Close() }()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to ping %s database: %w", driverName, err)
	}

	query := fmt.Sprintf("DROP TABLE IF EXISTS %s", quoteTableName(tableName, backend))
	if _, err := db.Exec(query); err != nil {
		return fmt.Errorf("failed to drop table %s: %w", tableName, err)
	}
	return nil
}
