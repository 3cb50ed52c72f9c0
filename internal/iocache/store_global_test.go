package iocache

import (
	"bytes"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/coursekit/coursekit/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// resetGlobals lets each test initialize the global Manager again.
func resetGlobals(t *testing.T) {
	t.Helper()
	initOnce = sync.Once{}
	closeOnce = sync.Once{}
	Manager = &StoreManager{}
	t.Cleanup(func() {
		CloseStores()
		initOnce = sync.Once{}
		closeOnce = sync.Once{}
		Manager = &StoreManager{}
	})
}

func TestInitStores(t *testing.T) {
	t.Run("sqlite stores", func(t *testing.T) {
		resetGlobals(t)
		dir := t.TempDir()
		cachePath := filepath.Join(dir, "cache.db")
		ledgerPath := filepath.Join(dir, "ledger.db")

		require.NoError(t, InitStores(schema.SQLiteBackend, cachePath, schema.SQLiteBackend, ledgerPath))
		assert.NotNil(t, Manager.GetCacheStore())
		assert.NotNil(t, Manager.GetLedgerStore())

		_, err := os.Stat(cachePath)
		assert.NoError(t, err)
		_, err = os.Stat(ledgerPath)
		assert.NoError(t, err)
	})

	t.Run("idempotent", func(t *testing.T) {
		resetGlobals(t)
		cachePath := filepath.Join(t.TempDir(), "cache.db")
		assert.NoError(t, InitStores(schema.SQLiteBackend, cachePath, "", ""))
		assert.NoError(t, InitStores(schema.SQLiteBackend, cachePath, "", ""))
		assert.Nil(t, Manager.GetLedgerStore())
		CloseStores()
		CloseStores()
	})

	t.Run("invalid backend", func(t *testing.T) {
		resetGlobals(t)
		err := InitStores(schema.DatabaseBackend("oracle"), "", "", "")
		assert.ErrorContains(t, err, "failed to initialize cache store")
	})

	t.Run("none backend", func(t *testing.T) {
		resetGlobals(t)
		require.NoError(t, InitStores(schema.NoneBackend, "", schema.NoneBackend, ""))
		status, err := Manager.GetCacheStore().GetStatus()
		require.NoError(t, err)
		assert.False(t, status.Connected)
	})
}

func TestClearStores(t *testing.T) {
	t.Run("sqlite removes file", func(t *testing.T) {
		dbPath := filepath.Join(t.TempDir(), "cache.db")
		store, err := NewCacheStore(cacheTable, schema.SQLiteBackend, dbPath)
		require.NoError(t, err)
		require.NoError(t, store.Close())

		require.NoError(t, ClearCache(schema.SQLiteBackend, dbPath, ""))
		_, err = os.Stat(dbPath)
		assert.True(t, os.IsNotExist(err))
	})

	t.Run("sqlite connection string wins", func(t *testing.T) {
		dbPath := filepath.Join(t.TempDir(), "ledger.db")
		store, err := NewLedgerStore(schema.SQLiteBackend, dbPath)
		require.NoError(t, err)
		require.NoError(t, store.Close())

		require.NoError(t, ClearLedger(schema.SQLiteBackend, "/does/not/matter.db", dbPath))
		_, err = os.Stat(dbPath)
		assert.True(t, os.IsNotExist(err))
	})

	t.Run("missing file is fine", func(t *testing.T) {
		assert.NoError(t, ClearCache(schema.SQLiteBackend, filepath.Join(t.TempDir(), "absent.db"), ""))
	})

	t.Run("none and unsupported", func(t *testing.T) {
		assert.NoError(t, ClearLedger(schema.NoneBackend, "", ""))
		assert.Error(t, ClearCache(schema.DatabaseBackend("oracle"), "", ""))
		assert.Error(t, ClearCache(schema.SQLiteBackend, "", ""))
	})
}

func TestExportLedger(t *testing.T) {
	t.Run("requires output file", func(t *testing.T) {
		assert.ErrorContains(t, ExportLedger(newTestLedgerStore(t), "", &bytes.Buffer{}), "--output-file")
	})

	t.Run("empty ledger", func(t *testing.T) {
		err := ExportLedger(newTestLedgerStore(t), filepath.Join(t.TempDir(), "out"), &bytes.Buffer{})
		assert.ErrorContains(t, err, "no ledger data")
	})

	t.Run("writes parquet files", func(t *testing.T) {
		store := newTestLedgerStore(t)
		runID, err := store.BeginRun("thresholds", time.Now(), nil)
		require.NoError(t, err)
		require.NoError(t, store.RecordCutoff(runID, schema.ThresholdResult{Label: "A", Fraction: 0.9, Cutoff: 17}))
		require.NoError(t, store.EndRun(runID, time.Now(), 1))

		out := filepath.Join(t.TempDir(), "export")
		var buf bytes.Buffer
		require.NoError(t, ExportLedger(store, out, &buf))

		for _, suffix := range []string{".runs.parquet", ".oral_grades.parquet", ".threshold_cutoffs.parquet"} {
			_, err := os.Stat(out + suffix)
			assert.NoError(t, err, suffix)
		}
		assert.Contains(t, buf.String(), "Exported 1 runs")
		assert.Contains(t, buf.String(), "Exported 1 cutoffs")
	})
}

func TestPrintStatus(t *testing.T) {
	t.Run("cache disconnected", func(t *testing.T) {
		var buf bytes.Buffer
		PrintCacheStatus(&buf, schema.CacheStatus{Backend: "none"})
		assert.Equal(t, "Cache Backend: none\nConnected: false\n", buf.String())
	})

	t.Run("ledger table sizes are sorted", func(t *testing.T) {
		var buf bytes.Buffer
		PrintLedgerStatus(&buf, schema.LedgerStatus{
			Backend:    "sqlite",
			Connected:  true,
			TableSizes: map[string]int64{runsTable: 2, cutoffsTable: 10, oralGradesTable: 0},
		})
		out := buf.String()
		assert.Contains(t, out, "Total Runs: 0")
		assert.Less(t, bytes.Index(buf.Bytes(), []byte(oralGradesTable)), bytes.Index(buf.Bytes(), []byte(runsTable)))
		assert.Contains(t, out, "  coursekit_threshold_cutoffs: 10 rows")
	})

	t.Run("token", func(t *testing.T) {
		var buf bytes.Buffer
		PrintTokenStatus(&buf, schema.TokenStatus{Present: true, Valid: true, Expiry: time.Now().Add(time.Hour), HasRefreshToken: true})
		assert.Contains(t, buf.String(), "Valid: true")
		assert.Contains(t, buf.String(), "in 1h0m0s")
		assert.Contains(t, buf.String(), "Refresh Token: true")
	})
}
