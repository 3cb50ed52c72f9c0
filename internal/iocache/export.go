package iocache

import (
	"errors"
	"fmt"
	"io"

	"github.com/coursekit/coursekit/internal/parquet"
)

// ExportLedger writes every ledger table to Parquet files named after outputFile,
// reporting progress to w.
func ExportLedger(ledger *LedgerStoreImpl, outputFile string, w io.Writer) error {
	if outputFile == "" {
		return errors.New("--output-file is required for export command")
	}
	if ledger == nil {
		return errors.New("ledger is not configured")
	}

	status, err := ledger.GetStatus()
	if err != nil {
		return fmt.Errorf("failed to get ledger status: %w", err)
	}
	if status.TotalRuns == 0 {
		return errors.New("no ledger data found to export")
	}

	_, _ = fmt.Fprintf(w, "Exporting data from %s backend...\n", status.Backend)
	_, _ = fmt.Fprintf(w, "Total runs: %d\n", status.TotalRuns)

	runs, err := ledger.GetAllRuns()
	if err != nil {
		return fmt.Errorf("failed to retrieve runs: %w", err)
	}
	grades, err := ledger.GetAllOralGrades()
	if err != nil {
		return fmt.Errorf("failed to retrieve oral grades: %w", err)
	}
	cutoffs, err := ledger.GetAllCutoffs()
	if err != nil {
		return fmt.Errorf("failed to retrieve cutoffs: %w", err)
	}

	runsFile := outputFile + ".runs.parquet"
	if err := parquet.WriteRunsParquet(parquet.ConvertRunRecords(runs), runsFile); err != nil {
		return fmt.Errorf("failed to write runs: %w", err)
	}
	_, _ = fmt.Fprintf(w, "Exported %d runs to: %s\n", len(runs), runsFile)

	gradesFile := outputFile + ".oral_grades.parquet"
	if err := parquet.WriteOralGradesParquet(parquet.ConvertOralGradeRecords(grades), gradesFile); err != nil {
		return fmt.Errorf("failed to write oral grades: %w", err)
	}
	_, _ = fmt.Fprintf(w, "Exported %d oral grades to: %s\n", len(grades), gradesFile)

	cutoffsFile := outputFile + ".threshold_cutoffs.parquet"
	if err := parquet.WriteCutoffsParquet(parquet.ConvertCutoffRecords(cutoffs), cutoffsFile); err != nil {
		return fmt.Errorf("failed to write cutoffs: %w", err)
	}
	_, _ = fmt.Fprintf(w, "Exported %d cutoffs to: %s\n", len(cutoffs), cutoffsFile)

	return nil
}

// ExportGlobalLedger exports the ledger held by the global Manager.
func ExportGlobalLedger(outputFile string, w io.Writer) error {
	ledger, _ := Manager.GetLedgerStore().(*LedgerStoreImpl)
	return ExportLedger(ledger, outputFile, w)
}
