// Package outwriter renders command results as text tables, CSV, JSON or Parquet.
package outwriter

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/coursekit/coursekit/internal/contract"
	"github.com/coursekit/coursekit/internal/parquet"
	"github.com/coursekit/coursekit/schema"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// renderTable writes a bordered table with right-aligned cells.
func renderTable(w io.Writer, headers []string, data [][]string) error {
	table := tablewriter.NewWriter(w)
	table.Header(headers)
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})
	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}

// writeParquetOutput writes rows through one of the parquet writers and reports the file.
func writeParquetOutput[T any](rows []T, cfg *contract.Config, write func([]T, string) error) error {
	if cfg.OutputFile == "" {
		return fmt.Errorf("parquet output requires --output-file")
	}
	if err := write(rows, cfg.OutputFile); err != nil {
		return fmt.Errorf("error writing Parquet output: %w", err)
	}
	_, _ = fmt.Fprintf(os.Stderr, "💾 Wrote Parquet to %s\n", cfg.OutputFile)
	return nil
}

// unsupportedOutput is returned for formats a command cannot produce.
func unsupportedOutput(what string, mode schema.OutputMode) error {
	return fmt.Errorf("%s cannot be written as %s", what, mode)
}

// WriteThresholds outputs letter-grade cutoffs in the configured format.
func WriteThresholds(report schema.ThresholdReport, cfg *contract.Config, duration time.Duration) error {
	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, report)
		}, "Wrote JSON")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeThresholdsCSV(w, report, cfg)
		}, "Wrote CSV")
	case schema.ParquetOut:
		return writeParquetOutput(parquet.ConvertThresholdResults(report.Results, time.Now()), cfg, parquet.WriteCutoffsParquet)
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeThresholdsText(w, report, cfg, duration)
		}, "Wrote text")
	}
}

// WriteFillReport outputs the result of a spreadsheet fill in the configured format.
func WriteFillReport(report schema.MatchReport, cfg *contract.Config, duration time.Duration) error {
	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, report)
		}, "Wrote JSON")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeFillCSV(w, report)
		}, "Wrote CSV")
	case schema.ParquetOut:
		return unsupportedOutput("fill reports", cfg.Output)
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeFillText(w, report, cfg, duration)
		}, "Wrote text")
	}
}

// WriteCorrespondence outputs the unmatched record numbers of both files.
func WriteCorrespondence(c schema.Correspondence, cfg *contract.Config, duration time.Duration) error {
	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeCorrespondenceJSON(w, c, cfg)
		}, "Wrote JSON")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeCorrespondenceCSV(w, c, cfg)
		}, "Wrote CSV")
	case schema.ParquetOut:
		return unsupportedOutput("correspondence results", cfg.Output)
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeCorrespondenceText(w, c, cfg, duration)
		}, "Wrote text")
	}
}

// WriteOralGrades outputs the weighted grade of every presentation.
func WriteOralGrades(grades []schema.OralGrade, cfg *contract.Config, duration time.Duration) error {
	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, grades)
		}, "Wrote JSON")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeOralCSV(w, grades, cfg)
		}, "Wrote CSV")
	case schema.ParquetOut:
		return writeParquetOutput(parquet.ConvertOralGrades(grades, time.Now()), cfg, parquet.WriteOralGradesParquet)
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeOralText(w, grades, cfg, duration)
		}, "Wrote text")
	}
}

// WriteFeedbackMessage previews a feedback email before it is confirmed.
// Several messages may be written in one run, so files are appended to.
func WriteFeedbackMessage(msg schema.FeedbackMessage, cfg *contract.Config) error {
	switch cfg.Output {
	case schema.JSONOut:
		return appendWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, msg)
		})
	case schema.CSVOut:
		return appendWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeFeedbackCSV(w, msg)
		})
	case schema.ParquetOut:
		return unsupportedOutput("feedback messages", cfg.Output)
	default:
		return appendWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeFeedbackText(w, msg, cfg)
		})
	}
}

// WriteAbstractOutcomes outputs what happened to each student of an abstract batch.
func WriteAbstractOutcomes(outcomes []schema.AbstractOutcome, cfg *contract.Config, duration time.Duration) error {
	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, outcomes)
		}, "Wrote JSON")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeAbstractsCSV(w, outcomes)
		}, "Wrote CSV")
	case schema.ParquetOut:
		return unsupportedOutput("abstract outcomes", cfg.Output)
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeAbstractsText(w, outcomes, cfg, duration)
		}, "Wrote text")
	}
}
