package iocache

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/coursekit/coursekit/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCacheStore(t *testing.T) *CacheStoreImpl {
	t.Helper()
	store, err := NewCacheStore(cacheTable, schema.SQLiteBackend, filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestValidateTableName(t *testing.T) {
	tests := []struct {
		name    string
		table   string
		wantErr bool
	}{
		{"simple", "coursekit_cache", false},
		{"leading underscore", "_cache", false},
		{"digits after first", "cache2", false},
		{"empty", "", true},
		{"leading digit", "2cache", true},
		{"injection", "cache; DROP TABLE x", true},
		{"dash", "my-cache", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateTableName(tt.table)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestQuoteTableNameAndPlaceholder(t *testing.T) {
	assert.Equal(t, "`runs`", quoteTableName("runs", schema.MySQLBackend))
	assert.Equal(t, `"runs"`, quoteTableName("runs", schema.PostgreSQLBackend))
	assert.Equal(t, `"runs"`, quoteTableName("runs", schema.SQLiteBackend))

	assert.Equal(t, "$3", placeholder(schema.PostgreSQLBackend, 3))
	assert.Equal(t, "?", placeholder(schema.MySQLBackend, 3))
	assert.Equal(t, "?", placeholder(schema.SQLiteBackend, 1))

	assert.Equal(t, "pgx", driverFor(schema.PostgreSQLBackend))
	assert.Equal(t, "sqlite", driverFor(schema.SQLiteBackend))
	assert.Equal(t, "", driverFor(schema.NoneBackend))
}

func TestGetUpsertQuery(t *testing.T) {
	tests := []struct {
		backend  schema.DatabaseBackend
		contains string
	}{
		{schema.SQLiteBackend, "INSERT OR REPLACE"},
		{schema.MySQLBackend, "ON DUPLICATE KEY UPDATE"},
		{schema.PostgreSQLBackend, "ON CONFLICT (cache_key)"},
	}
	for _, tt := range tests {
		t.Run(string(tt.backend), func(t *testing.T) {
			cs := &CacheStoreImpl{tableName: cacheTable, backend: tt.backend}
			assert.Contains(t, cs.getUpsertQuery(), tt.contains)
		})
	}
}

func TestNewCacheStoreErrors(t *testing.T) {
	_, err := NewCacheStore("bad name", schema.SQLiteBackend, "")
	assert.Error(t, err)

	_, err = NewCacheStore(cacheTable, schema.DatabaseBackend("oracle"), "")
	assert.ErrorContains(t, err, "unsupported backend")
}

func TestCacheStoreSQLite(t *testing.T) {
	store := newTestCacheStore(t)

	_, _, _, err := store.Get("missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)

	now := time.Now().Unix()
	require.NoError(t, store.Set("url:https://forms.gle/x", []byte("https://docs.google.com/forms/d/abc"), 1, now))
	value, version, ts, err := store.Get("url:https://forms.gle/x")
	require.NoError(t, err)
	assert.Equal(t, "https://docs.google.com/forms/d/abc", string(value))
	assert.Equal(t, 1, version)
	assert.Equal(t, now, ts)

	// Upsert replaces
	require.NoError(t, store.Set("url:https://forms.gle/x", []byte("https://docs.google.com/forms/d/def"), 2, now+5))
	value, version, _, err = store.Get("url:https://forms.gle/x")
	require.NoError(t, err)
	assert.Equal(t, "https://docs.google.com/forms/d/def", string(value))
	assert.Equal(t, 2, version)

	require.NoError(t, store.Delete("url:https://forms.gle/x"))
	require.NoError(t, store.Delete("url:https://forms.gle/x"))
	_, _, _, err = store.Get("url:https://forms.gle/x")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestCacheStoreGetStatus(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		status, err := newTestCacheStore(t).GetStatus()
		require.NoError(t, err)
		assert.Equal(t, "sqlite", status.Backend)
		assert.True(t, status.Connected)
		assert.Zero(t, status.TotalEntries)
	})

	t.Run("with entries", func(t *testing.T) {
		store := newTestCacheStore(t)
		require.NoError(t, store.Set("a", []byte("1"), 1, 1000))
		require.NoError(t, store.Set("b", []byte("2"), 1, 2000))

		status, err := store.GetStatus()
		require.NoError(t, err)
		assert.Equal(t, 2, status.TotalEntries)
		assert.Equal(t, time.Unix(2000, 0), status.LastEntryTime)
		assert.Equal(t, time.Unix(1000, 0), status.OldestEntryTime)
		assert.Positive(t, status.TableSizeBytes)
	})
}

func TestCacheStoreNoneBackend(t *testing.T) {
	store, err := NewCacheStore(cacheTable, schema.NoneBackend, "")
	require.NoError(t, err)

	assert.NoError(t, store.Set("k", []byte("v"), 1, 1))
	_, _, _, err = store.Get("k")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, store.Delete("k"))

	status, err := store.GetStatus()
	require.NoError(t, err)
	assert.False(t, status.Connected)
	assert.NoError(t, store.Close())
}
