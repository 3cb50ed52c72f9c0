package core

import (
	"fmt"

	"github.com/coursekit/coursekit/internal/contract"
	"github.com/coursekit/coursekit/internal/sheetio"
	"github.com/coursekit/coursekit/schema"
)

// FillOptions locates ids and values in the source and destination grids (1-based).
type FillOptions struct {
	ColIDSrc    int
	ColValSrc   int
	RowStartSrc int // header rows to skip in the source
	ColIDDest   int
	ColValDest  int
}

// FillValues copies the value of each valid source id into the destination row holding the
// same id. Source rows are read from RowStartSrc+1 up to the first empty row. Ids that are
// not 7-digit matricules are skipped; ids seen twice keep their first value. Destination rows
// without a matching source id are left untouched.
func FillValues(src, dst contract.Grid, opts FillOptions, log *contract.Logger) (schema.MatchReport, error) {
	var report schema.MatchReport
	seen := make(map[string]struct{})

	for row := opts.RowStartSrc + 1; row <= src.NumRows(); row++ {
		if sheetio.RowEmpty(src.Row(row)) {
			break
		}
		id := schema.NormalizeID(src.Cell(row, opts.ColIDSrc))
		if !schema.IsValidMatricule(id) {
			report.Skipped++
			continue
		}
		if _, dup := seen[id]; dup {
			log.Warnf("Duplicate id %s on source row %d ignored", id, row)
			continue
		}
		seen[id] = struct{}{}

		value := src.Cell(row, opts.ColValSrc)
		destRow := findRow(dst, opts.ColIDDest, id)
		if destRow == 0 {
			log.Warnf("Not found: %s", id)
			report.Unmatched = append(report.Unmatched, id)
			continue
		}
		if err := dst.SetCell(destRow, opts.ColValDest, value); err != nil {
			return report, fmt.Errorf("failed to write value for %s: %w", id, err)
		}
		log.Debugf("Found matching cell! %s -> row %d", id, destRow)
		report.Matched = append(report.Matched, schema.MatchedID{
			ID:        id,
			Value:     value,
			SourceRow: row,
			DestRow:   destRow,
		})
	}
	return report, nil
}

// findRow returns the first row whose id column equals id, or 0.
func findRow(g contract.Grid, col int, id string) int {
	for row := 1; row <= g.NumRows(); row++ {
		if schema.NormalizeID(g.Cell(row, col)) == id {
			return row
		}
	}
	return 0
}
