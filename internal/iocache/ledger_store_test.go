package iocache

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/coursekit/coursekit/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLedgerStore(t *testing.T) *LedgerStoreImpl {
	t.Helper()
	store, err := NewLedgerStore(schema.SQLiteBackend, filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestLedgerStoreNoneBackend(t *testing.T) {
	store, err := NewLedgerStore(schema.NoneBackend, "")
	require.NoError(t, err)

	runID, err := store.BeginRun("oral", time.Now(), nil)
	require.NoError(t, err)
	assert.Zero(t, runID)
	assert.NoError(t, store.EndRun(runID, time.Now(), 3))
	assert.NoError(t, store.RecordOralGrade(runID, schema.OralGrade{FormID: "f"}))
	assert.NoError(t, store.RecordCutoff(runID, schema.ThresholdResult{Label: "A"}))

	runs, err := store.GetAllRuns()
	require.NoError(t, err)
	assert.Empty(t, runs)

	status, err := store.GetStatus()
	require.NoError(t, err)
	assert.False(t, status.Connected)
	assert.NoError(t, store.Close())
}

func TestLedgerStoreRunLifecycle(t *testing.T) {
	store := newTestLedgerStore(t)

	start := time.Now().Add(-1500 * time.Millisecond)
	runID, err := store.BeginRun("oral", start, map[string]any{"forms_folder_id": "folder-1"})
	require.NoError(t, err)
	assert.Positive(t, runID)

	require.NoError(t, store.RecordOralGrade(runID, schema.OralGrade{
		FormID: "form-1", Students: "Ada, Bob", InstructorGrade: 16, PeerMean: 14, PeerCount: 4, Grade: 15.5,
	}))
	require.NoError(t, store.EndRun(runID, time.Now(), 1))

	runs, err := store.GetAllRuns()
	require.NoError(t, err)
	require.Len(t, runs, 1)
	run := runs[0]
	assert.Equal(t, runID, run.RunID)
	assert.Equal(t, "oral", run.Command)
	assert.WithinDuration(t, start, run.StartTime, time.Millisecond)
	require.NotNil(t, run.EndTime)
	require.NotNil(t, run.RunDurationMs)
	assert.GreaterOrEqual(t, *run.RunDurationMs, int32(1500))
	assert.Equal(t, int32(1), run.TotalRecords)
	require.NotNil(t, run.ConfigParams)
	assert.JSONEq(t, `{"forms_folder_id":"folder-1"}`, *run.ConfigParams)

	grades, err := store.GetAllOralGrades()
	require.NoError(t, err)
	require.Len(t, grades, 1)
	assert.Equal(t, "Ada, Bob", grades[0].Students)
	assert.Equal(t, int32(4), grades[0].PeerCount)
	assert.InDelta(t, 15.5, grades[0].Grade, 1e-9)
	assert.False(t, grades[0].RecordedAt.IsZero())
}

func TestLedgerStoreCutoffs(t *testing.T) {
	store := newTestLedgerStore(t)

	runID, err := store.BeginRun("thresholds", time.Now(), nil)
	require.NoError(t, err)
	require.NoError(t, store.RecordCutoff(runID, schema.ThresholdResult{Label: "A", Fraction: 0.9, Cutoff: 18, PercentOfMax: 90, BandCount: 2}))
	require.NoError(t, store.RecordCutoff(runID, schema.ThresholdResult{Label: "F", Fraction: 0.0, NoData: true}))

	cutoffs, err := store.GetAllCutoffs()
	require.NoError(t, err)
	require.Len(t, cutoffs, 2)

	assert.Equal(t, "A", cutoffs[0].Label)
	require.NotNil(t, cutoffs[0].Cutoff)
	assert.InDelta(t, 18.0, *cutoffs[0].Cutoff, 1e-9)
	assert.Equal(t, int32(2), cutoffs[0].BandCount)

	assert.Equal(t, "F", cutoffs[1].Label)
	assert.Nil(t, cutoffs[1].Cutoff)
	assert.Nil(t, cutoffs[1].PercentOfMax)

	// Duplicate label in the same run violates the primary key
	assert.Error(t, store.RecordCutoff(runID, schema.ThresholdResult{Label: "A"}))
}

func TestLedgerStoreGetStatus(t *testing.T) {
	store := newTestLedgerStore(t)

	status, err := store.GetStatus()
	require.NoError(t, err)
	assert.True(t, status.Connected)
	assert.Zero(t, status.TotalRuns)
	assert.Len(t, status.TableSizes, 3)

	first, err := store.BeginRun("thresholds", time.Now().Add(-time.Hour), nil)
	require.NoError(t, err)
	require.NoError(t, store.EndRun(first, time.Now(), 5))
	second, err := store.BeginRun("oral", time.Now(), nil)
	require.NoError(t, err)
	require.NoError(t, store.EndRun(second, time.Now(), 2))

	status, err = store.GetStatus()
	require.NoError(t, err)
	assert.Equal(t, 2, status.TotalRuns)
	assert.Equal(t, second, status.LastRunID)
	assert.Equal(t, 7, status.TotalRecords)
	assert.True(t, status.OldestRunTime.Before(status.LastRunTime))
	assert.Equal(t, int64(2), status.TableSizes[runsTable])
	assert.Equal(t, int64(0), status.TableSizes[cutoffsTable])
}

func TestEndRunUnknownRun(t *testing.T) {
	store := newTestLedgerStore(t)
	assert.Error(t, store.EndRun(42, time.Now(), 0))
}

func TestGetCreateLedgerTableQuery(t *testing.T) {
	tests := []struct {
		backend  schema.DatabaseBackend
		table    string
		contains []string
	}{
		{schema.SQLiteBackend, runsTable, []string{`"coursekit_runs"`, "AUTOINCREMENT"}},
		{schema.MySQLBackend, runsTable, []string{"`coursekit_runs`", "AUTO_INCREMENT", "DATETIME(6)"}},
		{schema.PostgreSQLBackend, runsTable, []string{"BIGSERIAL", "TIMESTAMPTZ"}},
		{schema.PostgreSQLBackend, oralGradesTable, []string{"PRIMARY KEY (run_id, form_id)", "DOUBLE PRECISION"}},
		{schema.MySQLBackend, cutoffsTable, []string{"PRIMARY KEY (run_id, label)", "label VARCHAR(255)"}},
	}
	for _, tt := range tests {
		t.Run(string(tt.backend)+"/"+tt.table, func(t *testing.T) {
			query := getCreateLedgerTableQuery(tt.table, tt.backend)
			for _, want := range tt.contains {
				assert.Contains(t, query, want)
			}
		})
	}
}

func TestLedgerTimeScan(t *testing.T) {
	ref := time.Date(2024, 5, 6, 7, 8, 9, 123000000, time.UTC)
	tests := []struct {
		name      string
		src       any
		wantValid bool
		wantErr   bool
	}{
		{"nil", nil, false, false},
		{"time", ref, true, false},
		{"rfc3339 string", ref.Format(time.RFC3339Nano), true, false},
		{"mysql bytes", []byte(ref.Format(mysqlTimeLayout)), true, false},
		{"garbage", "yesterday", false, true},
		{"unsupported type", 42, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var lt ledgerTime
			err := lt.Scan(tt.src)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantValid, lt.Valid)
			if tt.wantValid {
				assert.True(t, ref.Equal(lt.Time), "got %s", lt.Time)
			}
		})
	}
}
