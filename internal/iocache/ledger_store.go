package iocache

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/coursekit/coursekit/internal/contract"
	"github.com/coursekit/coursekit/schema"
)

// Table names for the grade ledger.
const (
	runsTable       = "coursekit_runs"
	oralGradesTable = "coursekit_oral_grades"
	cutoffsTable    = "coursekit_threshold_cutoffs"
)

// ledgerTables lists the ledger tables, dependents last.
var ledgerTables = []string{runsTable, oralGradesTable, cutoffsTable}

// LedgerStoreImpl implements the LedgerStore interface.
type LedgerStoreImpl struct {
	db      *sql.DB
	backend schema.DatabaseBackend
}

var _ contract.LedgerStore = &LedgerStoreImpl{} // Compile-time check

// NewLedgerStore creates a new LedgerStore with the specified backend.
func NewLedgerStore(backend schema.DatabaseBackend, connStr string) (*LedgerStoreImpl, error) {
	if backend == schema.NoneBackend {
		// No-op store for disabled tracking
		return &LedgerStoreImpl{backend: backend}, nil
	}

	db, err := openDB(backend, connStr, contract.GetLedgerDBFilePath())
	if err != nil {
		return nil, err
	}
	if err := createLedgerTables(db, backend); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create ledger tables: %w", err)
	}
	return &LedgerStoreImpl{db: db, backend: backend}, nil
}

// createLedgerTables creates the ledger tables when missing.
func createLedgerTables(db *sql.DB, backend schema.DatabaseBackend) error {
	for _, table := range ledgerTables {
		if _, err := db.Exec(getCreateLedgerTableQuery(table, backend)); err != nil {
			return fmt.Errorf("failed to create table %s: %w", table, err)
		}
	}
	return nil
}

// columnTypes maps the portable column types used below to each backend.
type columnTypes struct {
	id, serial, text, key, timestamp, real, integer string
}

func typesFor(backend schema.DatabaseBackend) columnTypes {
	switch backend {
	case schema.MySQLBackend:
		return columnTypes{"BIGINT", "BIGINT AUTO_INCREMENT PRIMARY KEY", "TEXT", "VARCHAR(255)", "DATETIME(6)", "DOUBLE", "INT"}
	case schema.PostgreSQLBackend:
		return columnTypes{"BIGINT", "BIGSERIAL PRIMARY KEY", "TEXT", "TEXT", "TIMESTAMPTZ", "DOUBLE PRECISION", "INT"}
	default: // SQLite
		return columnTypes{"INTEGER", "INTEGER PRIMARY KEY AUTOINCREMENT", "TEXT", "TEXT", "TEXT", "REAL", "INTEGER"}
	}
}

// getCreateLedgerTableQuery returns the CREATE TABLE query of a ledger table.
func getCreateLedgerTableQuery(table string, backend schema.DatabaseBackend) string {
	t := typesFor(backend)
	quoted := quoteTableName(table, backend)

	switch table {
	case runsTable:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id %s,
				command %s NOT NULL,
				start_time %s NOT NULL,
				end_time %s,
				run_duration_ms %s,
				total_records %s NOT NULL DEFAULT 0,
				config_params %s
			);
		`, quoted, t.serial, t.key, t.timestamp, t.timestamp, t.integer, t.integer, t.text)

	case oralGradesTable:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id %s NOT NULL,
				form_id %s NOT NULL,
				students %s NOT NULL,
				instructor_grade %s NOT NULL,
				peer_mean %s NOT NULL,
				peer_count %s NOT NULL,
				grade %s NOT NULL,
				recorded_at %s NOT NULL,
				PRIMARY KEY (run_id, form_id)
			);
		`, quoted, t.id, t.key, t.text, t.real, t.real, t.integer, t.real, t.timestamp)

	default: // cutoffsTable
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id %s NOT NULL,
				label %s NOT NULL,
				fraction %s NOT NULL,
				cutoff %s,
				percent_of_max %s,
				band_count %s NOT NULL,
				recorded_at %s NOT NULL,
				PRIMARY KEY (run_id, label)
			);
		`, quoted, t.id, t.key, t.real, t.real, t.real, t.integer, t.timestamp)
	}
}

// disabled reports whether the store drops every write.
func (ls *LedgerStoreImpl) disabled() bool {
	return ls.backend == schema.NoneBackend || ls.db == nil
}

// placeholders returns n comma-separated parameter placeholders.
func (ls *LedgerStoreImpl) placeholders(n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = placeholder(ls.backend, i+1)
	}
	return strings.Join(parts, ", ")
}

// BeginRun creates a new run and returns its unique ID.
func (ls *LedgerStoreImpl) BeginRun(command string, startTime time.Time, configParams map[string]any) (int64, error) {
	if ls.disabled() {
		return 0, nil
	}

	configJSON, err := json.Marshal(configParams)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal config params: %w", err)
	}

	quoted := quoteTableName(runsTable, ls.backend)
	var runID int64
	switch ls.backend {
	case schema.PostgreSQLBackend:
		query := fmt.Sprintf(`INSERT INTO %s (command, start_time, config_params) VALUES ($1, $2, $3) RETURNING run_id`, quoted)
		err = ls.db.QueryRow(query, command, startTime, string(configJSON)).Scan(&runID)
	default: // SQLite and MySQL
		query := fmt.Sprintf(`INSERT INTO %s (command, start_time, config_params) VALUES (?, ?, ?)`, quoted)
		var result sql.Result
		result, err = ls.db.Exec(query, command, formatTime(startTime, ls.backend), string(configJSON))
		if err == nil {
			runID, err = result.LastInsertId()
		}
	}
	if err != nil {
		return 0, fmt.Errorf("failed to insert run: %w", err)
	}
	return runID, nil
}

// EndRun updates the run with completion data.
func (ls *LedgerStoreImpl) EndRun(runID int64, endTime time.Time, totalRecords int) error {
	if ls.disabled() {
		return nil
	}

	quoted := quoteTableName(runsTable, ls.backend)
	var start ledgerTime
	query := fmt.Sprintf(`SELECT start_time FROM %s WHERE run_id = %s`, quoted, placeholder(ls.backend, 1))
	if err := ls.db.QueryRow(query, runID).Scan(&start); err != nil {
		return fmt.Errorf("failed to get start_time for run %d: %w", runID, err)
	}

	durationMs := endTime.Sub(start.Time).Milliseconds()
	update := fmt.Sprintf(`UPDATE %s SET end_time = %s, run_duration_ms = %s, total_records = %s WHERE run_id = %s`,
		quoted, placeholder(ls.backend, 1), placeholder(ls.backend, 2), placeholder(ls.backend, 3), placeholder(ls.backend, 4))
	if _, err := ls.db.Exec(update, formatTime(endTime, ls.backend), durationMs, totalRecords, runID); err != nil {
		return fmt.Errorf("failed to update run: %w", err)
	}
	return nil
}

// RecordOralGrade stores the weighted grade of one presentation.
func (ls *LedgerStoreImpl) RecordOralGrade(runID int64, grade schema.OralGrade) error {
	if ls.disabled() {
		return nil
	}
	query := fmt.Sprintf(`INSERT INTO %s (run_id, form_id, students, instructor_grade, peer_mean, peer_count, grade, recorded_at) VALUES (%s)`,
		quoteTableName(oralGradesTable, ls.backend), ls.placeholders(8))
	_, err := ls.db.Exec(query, runID, grade.FormID, grade.Students, grade.InstructorGrade, grade.PeerMean,
		grade.PeerCount, grade.Grade, formatTime(time.Now(), ls.backend))
	if err != nil {
		return fmt.Errorf("failed to record grade of form %s: %w", grade.FormID, err)
	}
	return nil
}

// RecordCutoff stores one computed letter-grade cutoff. Cutoffs without data are stored as NULL.
func (ls *LedgerStoreImpl) RecordCutoff(runID int64, result schema.ThresholdResult) error {
	if ls.disabled() {
		return nil
	}
	var cutoff, percent any
	if !result.NoData {
		cutoff, percent = result.Cutoff, result.PercentOfMax
	}
	query := fmt.Sprintf(`INSERT INTO %s (run_id, label, fraction, cutoff, percent_of_max, band_count, recorded_at) VALUES (%s)`,
		quoteTableName(cutoffsTable, ls.backend), ls.placeholders(7))
	_, err := ls.db.Exec(query, runID, result.Label, result.Fraction, cutoff, percent, result.BandCount, formatTime(time.Now(), ls.backend))
	if err != nil {
		return fmt.Errorf("failed to record cutoff %s: %w", result.Label, err)
	}
	return nil
}

// Close closes the underlying connection.
func (ls *LedgerStoreImpl) Close() error {
	if ls.db != nil {
		return ls.db.Close()
	}
	return nil
}

// GetStatus returns status information about the ledger.
func (ls *LedgerStoreImpl) GetStatus() (schema.LedgerStatus, error) {
	status := schema.LedgerStatus{
		Backend:    string(ls.backend),
		Connected:  ls.db != nil,
		TableSizes: make(map[string]int64),
	}
	if ls.disabled() {
		return status, nil
	}

	quoted := quoteTableName(runsTable, ls.backend)
	if err := ls.db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", quoted)).Scan(&status.TotalRuns); err != nil {
		return status, fmt.Errorf("failed to get total runs: %w", err)
	}

	if status.TotalRuns > 0 {
		var last, oldest ledgerTime
		row := ls.db.QueryRow(fmt.Sprintf("SELECT run_id, start_time FROM %s ORDER BY run_id DESC LIMIT 1", quoted))
		if err := row.Scan(&status.LastRunID, &last); err != nil {
			return status, fmt.Errorf("failed to get last run info: %w", err)
		}
		row = ls.db.QueryRow(fmt.Sprintf("SELECT start_time FROM %s ORDER BY run_id ASC LIMIT 1", quoted))
		if err := row.Scan(&oldest); err != nil {
			return status, fmt.Errorf("failed to get oldest run time: %w", err)
		}
		status.LastRunTime, status.OldestRunTime = last.Time, oldest.Time

		row = ls.db.QueryRow(fmt.Sprintf("SELECT COALESCE(SUM(total_records), 0) FROM %s", quoted))
		if err := row.Scan(&status.TotalRecords); err != nil {
			return status, fmt.Errorf("failed to get total records: %w", err)
		}
	}

	for _, table := range ledgerTables {
		var count int64
		if err := ls.db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", quoteTableName(table, ls.backend))).Scan(&count); err != nil {
			return status, fmt.Errorf("failed to get count for table %s: %w", table, err)
		}
		status.TableSizes[table] = count
	}
	return status, nil
}

// GetAllRuns retrieves every run from the ledger.
func (ls *LedgerStoreImpl) GetAllRuns() ([]schema.RunRecord, error) {
	if ls.disabled() {
		return nil, nil
	}

	query := fmt.Sprintf("SELECT run_id, command, start_time, end_time, run_duration_ms, total_records, config_params FROM %s ORDER BY run_id",
		quoteTableName(runsTable, ls.backend))
	rows, err := ls.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.RunRecord
	for rows.Next() {
		var record schema.RunRecord
		var start, end ledgerTime
		if err := rows.Scan(&record.RunID, &record.Command, &start, &end, &record.RunDurationMs, &record.TotalRecords, &record.ConfigParams); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		record.StartTime = start.Time
		if end.Valid {
			endTime := end.Time
			record.EndTime = &endTime
		}
		results = append(results, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}
	return results, nil
}

// GetAllOralGrades retrieves every recorded oral grade.
func (ls *LedgerStoreImpl) GetAllOralGrades() ([]schema.OralGradeRecord, error) {
	if ls.disabled() {
		return nil, nil
	}

	query := fmt.Sprintf(`SELECT run_id, form_id, students, instructor_grade, peer_mean, peer_count, grade, recorded_at
		FROM %s ORDER BY run_id, form_id`, quoteTableName(oralGradesTable, ls.backend))
	rows, err := ls.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query oral grades: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.OralGradeRecord
	for rows.Next() {
		var record schema.OralGradeRecord
		var recorded ledgerTime
		if err := rows.Scan(&record.RunID, &record.FormID, &record.Students, &record.InstructorGrade,
			&record.PeerMean, &record.PeerCount, &record.Grade, &recorded); err != nil {
			return nil, fmt.Errorf("failed to scan oral grade: %w", err)
		}
		record.RecordedAt = recorded.Time
		results = append(results, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating oral grades: %w", err)
	}
	return results, nil
}

// GetAllCutoffs retrieves every recorded letter-grade cutoff.
func (ls *LedgerStoreImpl) GetAllCutoffs() ([]schema.CutoffRecord, error) {
	if ls.disabled() {
		return nil, nil
	}

	query := fmt.Sprintf(`SELECT run_id, label, fraction, cutoff, percent_of_max, band_count, recorded_at
		FROM %s ORDER BY run_id, fraction DESC`, quoteTableName(cutoffsTable, ls.backend))
	rows, err := ls.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query cutoffs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.CutoffRecord
	for rows.Next() {
		var record schema.CutoffRecord
		var recorded ledgerTime
		if err := rows.Scan(&record.RunID, &record.Label, &record.Fraction, &record.Cutoff,
			&record.PercentOfMax, &record.BandCount, &recorded); err != nil {
			return nil, fmt.Errorf("failed to scan cutoff: %w", err)
		}
		record.RecordedAt = recorded.Time
		results = append(results, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating cutoffs: %w", err)
	}
	return results, nil
}

// formatTime converts a time.Time to the appropriate format for the backend.
func formatTime(t time.Time, backend schema.DatabaseBackend) any {
	if backend == schema.SQLiteBackend {
		return t.UTC().Format(time.RFC3339Nano)
	}
	return t
}

// mysqlTimeLayout is the text form of DATETIME(6) when parseTime is off.
const mysqlTimeLayout = "2006-01-02 15:04:05.999999"

// ledgerTime scans timestamps stored as native datetimes or as text.
type ledgerTime struct {
	Time  time.Time
	Valid bool
}

// Scan implements sql.Scanner.
func (lt *ledgerTime) Scan(src any) error {
	var text string
	switch v := src.(type) {
	case nil:
		lt.Time, lt.Valid = time.Time{}, false
		return nil
	case time.Time:
		lt.Time, lt.Valid = v, true
		return nil
	case string:
		text = v
	case []byte:
		text = string(v)
	default:
		return fmt.Errorf("unsupported time value %T", src)
	}

	for _, layout := range []string{time.RFC3339Nano, mysqlTimeLayout} {
		if t, err := time.Parse(layout, text); err == nil {
			lt.Time, lt.Valid = t, true
			return nil
		}
	}
	return fmt.Errorf("failed to parse time %q", text)
}
