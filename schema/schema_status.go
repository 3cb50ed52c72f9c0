package schema

import "time"

// CacheStatus represents the status of the cache store.
type CacheStatus struct {
	Backend         string    `json:"backend"`
	Connected       bool      `json:"connected"`
	TotalEntries    int       `json:"total_entries"`
	LastEntryTime   time.Time `json:"last_entry_time"`
	OldestEntryTime time.Time `json:"oldest_entry_time"`
	TableSizeBytes  int64     `json:"table_size_bytes"`
}

// LedgerStatus represents the status of the grade ledger.
type LedgerStatus struct {
	Backend       string           `json:"backend"`
	Connected     bool             `json:"connected"`
	TotalRuns     int              `json:"total_runs"`
	LastRunID     int64            `json:"last_run_id"`
	LastRunTime   time.Time        `json:"last_run_time"`
	OldestRunTime time.Time        `json:"oldest_run_time"`
	TotalRecords  int              `json:"total_records"`
	TableSizes    map[string]int64 `json:"table_sizes"`
}

// RunRecord represents a row from the coursekit_runs table.
type RunRecord struct {
	RunID         int64
	Command       string
	StartTime     time.Time
	EndTime       *time.Time
	RunDurationMs *int32
	TotalRecords  int32
	ConfigParams  *string
}

// OralGradeRecord represents a row from the coursekit_oral_grades table.
type OralGradeRecord struct {
	RunID           int64
	FormID          string
	Students        string
	InstructorGrade float64
	PeerMean        float64
	PeerCount       int32
	Grade           float64
	RecordedAt      time.Time
}

// CutoffRecord represents a row from the coursekit_threshold_cutoffs table.
type CutoffRecord struct {
	RunID        int64
	Label        string
	Fraction     float64
	Cutoff       *float64
	PercentOfMax *float64
	BandCount    int32
	RecordedAt   time.Time
}

// TokenStatus describes the cached OAuth credential.
type TokenStatus struct {
	Present         bool      `json:"present"`
	Valid           bool      `json:"valid"`
	Expiry          time.Time `json:"expiry"`
	HasRefreshToken bool      `json:"has_refresh_token"`
}
