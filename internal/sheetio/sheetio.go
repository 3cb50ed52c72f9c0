// Package sheetio reads and writes the workbooks and delimited files exchanged with the registrar.
package sheetio

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/coursekit/coursekit/internal/contract"
	"github.com/coursekit/coursekit/schema"
)

// CSVOptions describes the dialect of a delimited text file.
type CSVOptions struct {
	Delimiter rune
	Encoding  schema.FileEncoding
}

// DefaultCSVOptions matches the semicolon separated, latin-1 exports of the registrar.
var DefaultCSVOptions = CSVOptions{Delimiter: ';', Encoding: schema.Latin1Encoding}

// Open returns a Grid for the file, choosing the format from its extension.
// sheet selects a worksheet for workbooks and is ignored for delimited files.
func Open(path, sheet string, opts CSVOptions) (contract.Grid, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".xlsx", ".xlsm":
		return OpenWorkbook(path, sheet)
	case ".csv", ".txt", ".tsv":
		return ReadDelimited(path, opts)
	default:
		return nil, fmt.Errorf("unsupported file type %q for %s: expected .xlsx or .csv", ext, path)
	}
}

// RowEmpty reports whether every cell of a row is blank.
func RowEmpty(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// numericValue returns the float form of a cell value when it should be stored as a number.
// Identifiers with leading zeros stay text so they survive a round trip.
func numericValue(value string) (float64, bool) {
	v := strings.TrimSpace(value)
	if v == "" {
		return 0, false
	}
	if len(v) > 1 && v[0] == '0' && v[1] != '.' {
		return 0, false
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// cellAt returns rows[row-1][col-1], or "" when out of range.
func cellAt(rows [][]string, row, col int) string {
	if row < 1 || row > len(rows) {
		return ""
	}
	cells := rows[row-1]
	if col < 1 || col > len(cells) {
		return ""
	}
	return cells[col-1]
}

// setAt writes rows[row-1][col-1], growing the table as needed.
func setAt(rows [][]string, row, col int, value string) [][]string {
	for len(rows) < row {
		rows = append(rows, nil)
	}
	cells := rows[row-1]
	for len(cells) < col {
		cells = append(cells, "")
	}
	cells[col-1] = value
	rows[row-1] = cells
	return rows
}
