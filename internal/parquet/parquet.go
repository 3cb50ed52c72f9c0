// Package parquet exports ledger data and command results to Parquet files
// using github.com/parquet-go/parquet-go.
package parquet

import (
	"fmt"
	"os"
	"time"

	"github.com/coursekit/coursekit/schema"
	"github.com/parquet-go/parquet-go"
)

// Run represents a single command run with metadata.
// This struct maps to the coursekit_runs database table.
type Run struct {
	// RunID is the unique identifier for this run
	RunID int64 `parquet:"run_id,snappy"`

	// Command is the name of the command that was run
	Command string `parquet:"command,snappy,dict"`

	StartTime     time.Time  `parquet:"start_time,snappy"`
	EndTime       *time.Time `parquet:"end_time,optional,snappy"`
	RunDurationMs *int32     `parquet:"run_duration_ms,optional,snappy"`

	// TotalRecords is the number of grades or cutoffs produced by the run
	TotalRecords int32 `parquet:"total_records,snappy"`

	// ConfigParams contains the JSON-encoded parameters of the run (nullable)
	ConfigParams *string `parquet:"config_params,optional,snappy"`
}

// OralGrade is the weighted grade of one presentation form.
// This struct maps to the coursekit_oral_grades database table.
type OralGrade struct {
	RunID           int64     `parquet:"run_id,snappy"`
	FormID          string    `parquet:"form_id,snappy"`
	Students        string    `parquet:"students,snappy"`
	InstructorGrade float64   `parquet:"instructor_grade,snappy"`
	PeerMean        float64   `parquet:"peer_mean,snappy"`
	PeerCount       int32     `parquet:"peer_count,snappy"`
	Grade           float64   `parquet:"grade,snappy"`
	RecordedAt      time.Time `parquet:"recorded_at,snappy"`
}

// Cutoff is one letter-grade cutoff.
// This struct maps to the coursekit_threshold_cutoffs database table.
type Cutoff struct {
	RunID    int64   `parquet:"run_id,snappy"`
	Label    string  `parquet:"label,snappy,dict"`
	Fraction float64 `parquet:"fraction,snappy"`

	// Cutoff and PercentOfMax are null when the grade list was empty
	Cutoff       *float64 `parquet:"cutoff,optional,snappy"`
	PercentOfMax *float64 `parquet:"percent_of_max,optional,snappy"`

	BandCount  int32     `parquet:"band_count,snappy"`
	RecordedAt time.Time `parquet:"recorded_at,snappy"`
}

// WriteRunsParquet writes runs to a Parquet file.
func WriteRunsParquet(data []Run, outputPath string) error {
	return writeParquet(data, outputPath)
}

// WriteOralGradesParquet writes oral grades to a Parquet file.
func WriteOralGradesParquet(data []OralGrade, outputPath string) error {
	return writeParquet(data, outputPath)
}

// WriteCutoffsParquet writes cutoffs to a Parquet file.
func WriteCutoffsParquet(data []Cutoff, outputPath string) error {
	return writeParquet(data, outputPath)
}

// writeParquet writes rows to a new Parquet file. The schema is derived from the struct tags of T.
func writeParquet[T any](data []T, outputPath string) (err error) {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() {
		if cerr := file.Close(); err == nil && cerr != nil {
			err = cerr
		}
	}()

	writer := parquet.NewGenericWriter[T](file)
	if _, err := writer.Write(data); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize parquet file: %w", err)
	}
	return nil
}

// ReadCutoffsParquet reads cutoffs back from a Parquet file.
func ReadCutoffsParquet(path string) ([]Cutoff, error) {
	return parquet.ReadFile[Cutoff](path)
}

// ReadOralGradesParquet reads oral grades back from a Parquet file.
func ReadOralGradesParquet(path string) ([]OralGrade, error) {
	return parquet.ReadFile[OralGrade](path)
}

// ConvertRunRecords converts ledger run records to Parquet rows.
func ConvertRunRecords(records []schema.RunRecord) []Run {
	out := make([]Run, len(records))
	for i, r := range records {
		out[i] = Run{
			RunID:         r.RunID,
			Command:       r.Command,
			StartTime:     r.StartTime,
			EndTime:       r.EndTime,
			RunDurationMs: r.RunDurationMs,
			TotalRecords:  r.TotalRecords,
			ConfigParams:  r.ConfigParams,
		}
	}
	return out
}

// ConvertOralGradeRecords converts ledger oral grade records to Parquet rows.
func ConvertOralGradeRecords(records []schema.OralGradeRecord) []OralGrade {
	out := make([]OralGrade, len(records))
	for i, r := range records {
		out[i] = OralGrade{
			RunID:           r.RunID,
			FormID:          r.FormID,
			Students:        r.Students,
			InstructorGrade: r.InstructorGrade,
			PeerMean:        r.PeerMean,
			PeerCount:       r.PeerCount,
			Grade:           r.Grade,
			RecordedAt:      r.RecordedAt,
		}
	}
	return out
}

// ConvertCutoffRecords converts ledger cutoff records to Parquet rows.
func ConvertCutoffRecords(records []schema.CutoffRecord) []Cutoff {
	out := make([]Cutoff, len(records))
	for i, r := range records {
		out[i] = Cutoff{
			RunID:        r.RunID,
			Label:        r.Label,
			Fraction:     r.Fraction,
			Cutoff:       r.Cutoff,
			PercentOfMax: r.PercentOfMax,
			BandCount:    r.BandCount,
			RecordedAt:   r.RecordedAt,
		}
	}
	return out
}

// ConvertThresholdResults converts freshly computed cutoffs, not yet in any run, to Parquet rows.
func ConvertThresholdResults(results []schema.ThresholdResult, at time.Time) []Cutoff {
	out := make([]Cutoff, len(results))
	for i, r := range results {
		row := Cutoff{
			Label:      r.Label,
			Fraction:   r.Fraction,
			BandCount:  int32(r.BandCount),
			RecordedAt: at,
		}
		if !r.NoData {
			cutoff, percent := r.Cutoff, r.PercentOfMax
			row.Cutoff, row.PercentOfMax = &cutoff, &percent
		}
		out[i] = row
	}
	return out
}

// ConvertOralGrades converts freshly computed grades, not yet in any run, to Parquet rows.
func ConvertOralGrades(grades []schema.OralGrade, at time.Time) []OralGrade {
	out := make([]OralGrade, len(grades))
	for i, g := range grades {
		out[i] = OralGrade{
			FormID:          g.FormID,
			Students:        g.Students,
			InstructorGrade: g.InstructorGrade,
			PeerMean:        g.PeerMean,
			PeerCount:       int32(g.PeerCount),
			Grade:           g.Grade,
			RecordedAt:      at,
		}
	}
	return out
}
