package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/coursekit/coursekit/internal/contract"
	"github.com/coursekit/coursekit/schema"
)

// writeFillText prints the fill summary; --detail lists every write.
func writeFillText(w io.Writer, report schema.MatchReport, cfg *contract.Config, duration time.Duration) error {
	if cfg.Detail && len(report.Matched) > 0 {
		data := make([][]string, 0, len(report.Matched))
		for _, m := range report.Matched {
			data = append(data, []string{m.ID, m.Value, strconv.Itoa(m.SourceRow), strconv.Itoa(m.DestRow)})
		}
		if err := renderTable(w, []string{"ID", "Value", "Source Row", "Dest Row"}, data); err != nil {
			return err
		}
	}

	total := len(report.Matched) + len(report.Unmatched)
	if _, err := fmt.Fprintf(w, "%sMatched %d of %d ids (%d invalid ids skipped)\n",
		emojiPrefix(cfg, "📋"), len(report.Matched), total, report.Skipped); err != nil {
		return err
	}
	if len(report.Unmatched) > 0 {
		if _, err := contract.MissColor.Fprintf(w, "Not found: %s\n", strings.Join(report.Unmatched, ", ")); err != nil {
			return err
		}
	}
	if cfg.OutFile != "" {
		if _, err := fmt.Fprintf(w, "Saved to %s\n", cfg.OutFile); err != nil {
			return err
		}
	}
	if cfg.Detail {
		_, err := fmt.Fprintf(w, "Completed in %v\n", duration)
		return err
	}
	return nil
}

// writeFillCSV writes matched ids first, then unmatched ones with empty positions.
func writeFillCSV(w io.Writer, report schema.MatchReport) error {
	header := []string{"id", "value", "source_row", "dest_row", "status"}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, m := range report.Matched {
			if err := cw.Write([]string{m.ID, m.Value, strconv.Itoa(m.SourceRow), strconv.Itoa(m.DestRow), "matched"}); err != nil {
				return err
			}
		}
		for _, id := range report.Unmatched {
			if err := cw.Write([]string{id, "", "", "", "unmatched"}); err != nil {
				return err
			}
		}
		return nil
	})
}

// writeCorrespondenceText prints the two summary lines.
func writeCorrespondenceText(w io.Writer, c schema.Correspondence, cfg *contract.Config, duration time.Duration) error {
	if _, err := fmt.Fprintf(w, "Lines in %s that do not have a corresponding match in %s: %s\n",
		cfg.File1, cfg.File2, formatRecordList(c.OnlyInFirst)); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Lines in %s that do not have a corresponding match in %s: %s\n",
		cfg.File2, cfg.File1, formatRecordList(c.OnlyInSecond)); err != nil {
		return err
	}
	if cfg.Detail {
		_, err := fmt.Fprintf(w, "Completed in %v\n", duration)
		return err
	}
	return nil
}

// writeCorrespondenceCSV writes one file,record pair per unmatched record.
func writeCorrespondenceCSV(w io.Writer, c schema.Correspondence, cfg *contract.Config) error {
	return writeCSVWithHeader(w, []string{"file", "record"}, func(cw *csv.Writer) error {
		for _, side := range []struct {
			file    string
			records []int
		}{{cfg.File1, c.OnlyInFirst}, {cfg.File2, c.OnlyInSecond}} {
			for _, r := range side.records {
				if err := cw.Write([]string{side.file, strconv.Itoa(r)}); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// writeCorrespondenceJSON adds the file names to the record lists.
func writeCorrespondenceJSON(w io.Writer, c schema.Correspondence, cfg *contract.Config) error {
	type jsonCorrespondence struct {
		File1 string `json:"file1"`
		File2 string `json:"file2"`
		schema.Correspondence
	}
	if c.OnlyInFirst == nil {
		c.OnlyInFirst = []int{}
	}
	if c.OnlyInSecond == nil {
		c.OnlyInSecond = []int{}
	}
	return writeJSON(w, jsonCorrespondence{File1: cfg.File1, File2: cfg.File2, Correspondence: c})
}
