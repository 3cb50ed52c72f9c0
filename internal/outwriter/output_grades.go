package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/coursekit/coursekit/internal/contract"
	"github.com/coursekit/coursekit/schema"
)

// writeThresholdsText prints one line per threshold, plus a band table with --detail.
func writeThresholdsText(w io.Writer, report schema.ThresholdReport, cfg *contract.Config, duration time.Duration) error {
	fmtFloat, intFmt := createFormatters(cfg.Precision)

	if _, err := fmt.Fprintln(w, "Letter Grade Thresholds:"); err != nil {
		return err
	}
	for _, r := range report.Results {
		var err error
		if r.NoData {
			_, err = fmt.Fprintf(w, "%s: No data available\n", r.Label)
		} else {
			_, err = fmt.Fprintf(w, "%s: %s (raw), %s%% of max\n", r.Label, fmtFloat(r.Cutoff), fmtFloat(r.PercentOfMax))
		}
		if err != nil {
			return err
		}
	}
	if !cfg.Detail {
		return nil
	}

	data := make([][]string, 0, len(report.Results))
	for _, r := range report.Results {
		cutoff, percent := "-", "-"
		if !r.NoData {
			cutoff, percent = fmtFloat(r.Cutoff), fmtFloat(r.PercentOfMax)
		}
		data = append(data, []string{
			r.Label,
			fmtFloat(r.Fraction * 100),
			cutoff,
			percent,
			fmt.Sprintf(intFmt, r.BandCount),
		})
	}
	if report.BelowLowest > 0 {
		data = append(data, []string{schema.BelowLowestLabel, "-", "-", "-", fmt.Sprintf(intFmt, report.BelowLowest)})
	}
	if _, err := fmt.Fprintln(w); err != nil {
		return err
	}
	if err := renderTable(w, []string{"Label", "Percentile", "Cutoff", "% of Max", "Count"}, data); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "Computed from %d grades (max grade %s) in %v\n", report.GradeCount, fmtFloat(report.MaxGrade), duration)
	return err
}

// writeThresholdsCSV writes one record per threshold, then a "below" record for the
// grades under the lowest cutoff. Cutoffs without data are left empty.
func writeThresholdsCSV(w io.Writer, report schema.ThresholdReport, cfg *contract.Config) error {
	fmtFloat, intFmt := createFormatters(cfg.Precision)
	header := []string{"label", "fraction", "cutoff", "percent_of_max", "band_count"}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, r := range report.Results {
			cutoff, percent := "", ""
			if !r.NoData {
				cutoff, percent = fmtFloat(r.Cutoff), fmtFloat(r.PercentOfMax)
			}
			rec := []string{
				r.Label,
				strconv.FormatFloat(r.Fraction, 'f', -1, 64),
				cutoff,
				percent,
				fmt.Sprintf(intFmt, r.BandCount),
			}
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
		if report.BelowLowest == 0 {
			return nil
		}
		return cw.Write([]string{schema.BelowLowestLabel, "", "", "", fmt.Sprintf(intFmt, report.BelowLowest)})
	})
}

// writeOralText prints a table of presentation grades.
func writeOralText(w io.Writer, grades []schema.OralGrade, cfg *contract.Config, duration time.Duration) error {
	fmtFloat, intFmt := createFormatters(cfg.Precision)

	headers := []string{"Students", "Grade"}
	reserved := 10
	if cfg.Detail {
		headers = append(headers, "Instructor", "Peer Mean", "Peers")
		reserved += 35
	}
	width := getMaxCellWidth(cfg, reserved)

	data := make([][]string, 0, len(grades))
	for _, g := range grades {
		row := []string{contract.TruncateText(g.Students, width), fmtFloat(g.Grade)}
		if cfg.Detail {
			row = append(row, fmtFloat(g.InstructorGrade), fmtFloat(g.PeerMean), fmt.Sprintf(intFmt, g.PeerCount))
		}
		data = append(data, row)
	}
	if err := renderTable(w, headers, data); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "%sGraded %d presentations in %v\n", emojiPrefix(cfg, "🎓"), len(grades), duration)
	return err
}

// writeOralCSV writes the Students,Grade sheet; --detail appends the grade components.
func writeOralCSV(w io.Writer, grades []schema.OralGrade, cfg *contract.Config) error {
	fmtFloat, intFmt := createFormatters(cfg.Precision)
	header := []string{"Students", "Grade"}
	if cfg.Detail {
		header = append(header, "Instructor", "PeerMean", "Peers")
	}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, g := range grades {
			rec := []string{g.Students, fmtFloat(g.Grade)}
			if cfg.Detail {
				rec = append(rec, fmtFloat(g.InstructorGrade), fmtFloat(g.PeerMean), fmt.Sprintf(intFmt, g.PeerCount))
			}
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
		return nil
	})
}
