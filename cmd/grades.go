package cmd

import (
	"github.com/coursekit/coursekit/core"
	"github.com/coursekit/coursekit/internal/contract"
	"github.com/coursekit/coursekit/internal/iocache"
	"github.com/spf13/cobra"
)

// thresholdsCmd computes letter-grade cutoffs.
var thresholdsCmd = &cobra.Command{
	Use:   "thresholds <file_grades>",
	Short: "Compute letter-grade cutoffs from a list of grades",
	Long: `Read one grade per line and print the grade found at each percentile threshold.

Thresholds are LABEL:FRACTION pairs processed from the highest fraction down.
The cutoff of a threshold is the grade at index round(fraction x (n-1)) of the
sorted grades, halves rounding to even.

Examples:
  # Default thresholds on a /20 scale
  coursekit thresholds grades.txt

  # Custom thresholds on a /100 scale, with the band distribution
  coursekit thresholds grades.txt --max-grade 100 --thresholds "A:0.8,B:0.5,C:0.2" --detail

  # Repeating the flag works too
  coursekit thresholds grades.txt --thresholds "A*:0.9" --thresholds "A:0.7" --thresholds "F:0"

  # Keep the cutoffs in the grade ledger
  coursekit thresholds grades.txt --record`,
	Args:    cobra.ExactArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(cmd *cobra.Command, _ []string) {
		if err := core.ExecuteThresholds(cmd.Context(), cfg, iocache.Manager, logger); err != nil {
			contract.LogFatal("Cannot compute thresholds", err)
		}
	},
}

// fillCmd copies values from one sheet into another by matricule.
var fillCmd = &cobra.Command{
	Use:   "fill",
	Short: "Copy values from one sheet into another, matching rows by matricule",
	Long: `For every 7-digit matricule of the source sheet, find the first destination row
holding the same matricule and write the source value into it. The result is
saved to a new file; the destination is never modified in place.

Columns and rows are 1-based. Sheets may be .xlsx workbooks or delimited files.

Examples:
  # Report grades into the registrar export
  coursekit fill --source grades.xlsx --dest dge.xlsx --col-id-src 3 --col-val-src 7

  # Semicolon separated latin-1 exports
  coursekit fill --source grades.csv --dest dge.csv --out dge_final.csv`,
	Args:    cobra.NoArgs,
	PreRunE: sharedSetupWrapper,
	Run: func(cmd *cobra.Command, _ []string) {
		if err := core.ExecuteFill(cmd.Context(), cfg, logger); err != nil {
			contract.LogFatal("Cannot fill destination sheet", err)
		}
	},
}

// correspondCmd compares one column of two CSV files.
var correspondCmd = &cobra.Command{
	Use:   "correspond <file1> <file2>",
	Short: "List records of two CSV files missing from each other",
	Long: `Compare a column of two CSV files and print the 1-based record numbers of each
file whose value never appears in the other file. Columns are 0-based and rows
too short to hold the column are ignored.

Examples:
  coursekit correspond roster.csv moodle.csv --column1 0 --column2 2 --delimiter2 ,`,
	Args:    cobra.ExactArgs(2),
	PreRunE: sharedSetupWrapper,
	Run: func(cmd *cobra.Command, _ []string) {
		if err := core.ExecuteCorrespond(cmd.Context(), cfg, logger); err != nil {
			contract.LogFatal("Cannot compare files", err)
		}
	},
}
