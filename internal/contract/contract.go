// Package contract provides interfaces and shared utilities for internal architecture.
package contract

import (
	"context"
	"time"

	"github.com/coursekit/coursekit/schema"
)

// StoreManager defines the interface for managing persistence stores.
// This allows the persistence layer to be mocked for testing.
type StoreManager interface {
	GetCacheStore() CacheStore
	GetLedgerStore() LedgerStore
}

// CacheStore defines the interface for cache data storage.
// This allows mocking the store for testing.
type CacheStore interface {
	Get(key string) ([]byte, int, int64, error)
	Set(key string, value []byte, version int, timestamp int64) error
	Delete(key string) error
	GetStatus() (schema.CacheStatus, error)
	Close() error
}

// LedgerStore defines the interface for tracking command runs and the grades they produced.
type LedgerStore interface {
	// BeginRun creates a new run and returns its unique ID
	BeginRun(command string, startTime time.Time, configParams map[string]any) (int64, error)

	// EndRun updates the run with completion data
	EndRun(runID int64, endTime time.Time, totalRecords int) error

	// RecordOralGrade stores the weighted grade of one presentation
	RecordOralGrade(runID int64, grade schema.OralGrade) error

	// RecordCutoff stores one computed letter-grade cutoff
	RecordCutoff(runID int64, result schema.ThresholdResult) error

	// GetStatus returns status information about the ledger
	GetStatus() (schema.LedgerStatus, error)

	// Close closes the underlying connection
	Close() error
}

// Grid is a rectangular table of cells addressed with 1-based rows and columns.
// Both spreadsheet workbooks and delimited text files implement it.
type Grid interface {
	// NumRows returns the index of the last row holding data.
	NumRows() int

	// Row returns the cells of a row, or nil past the end.
	Row(row int) []string

	// Cell returns the string form of a cell, or "" when absent.
	Cell(row, col int) string

	// SetCell writes a value, storing numeric strings as numbers where the format allows it.
	SetCell(row, col int, value string) error

	// Save persists the grid to the given path.
	Save(path string) error
}

// FormsService lists forms and their responses.
type FormsService interface {
	// ListFolderForms returns every form stored in a Drive folder, with metadata.
	ListFolderForms(ctx context.Context, folderID string) ([]schema.Form, error)

	// GetForm returns the metadata of a single form.
	GetForm(ctx context.Context, formID string) (schema.Form, error)

	// ListResponses returns every response submitted to a form.
	ListResponses(ctx context.Context, formID string) ([]schema.FormResponse, error)
}

// SheetsService reads values from a hosted spreadsheet.
type SheetsService interface {
	GetValues(ctx context.Context, spreadsheetID, readRange string) ([][]string, error)
}

// Mailer sends an email.
type Mailer interface {
	Send(ctx context.Context, msg schema.Email) error
}

// URLExpander resolves a shortened URL to its final destination.
type URLExpander interface {
	Expand(ctx context.Context, shortURL string) (string, error)
}

// Confirmer asks the operator to approve an action.
type Confirmer interface {
	Confirm(prompt string) (bool, error)
}
