package sheetio

import (
	"fmt"

	"github.com/coursekit/coursekit/internal/contract"
	"github.com/xuri/excelize/v2"
)

// WorkbookGrid is a single worksheet of an .xlsx workbook.
type WorkbookGrid struct {
	file  *excelize.File
	sheet string
	rows  [][]string
}

var _ contract.Grid = &WorkbookGrid{} // Compile-time check

// OpenWorkbook opens a worksheet of an existing workbook. An empty sheet selects the active one.
func OpenWorkbook(path, sheet string) (*WorkbookGrid, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook %s: %w", path, err)
	}
	grid, err := newWorkbookGrid(f, sheet)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("failed to read workbook %s: %w", path, err)
	}
	return grid, nil
}

func newWorkbookGrid(f *excelize.File, sheet string) (*WorkbookGrid, error) {
	if sheet == "" {
		sheet = f.GetSheetName(f.GetActiveSheetIndex())
	}
	idx, err := f.GetSheetIndex(sheet)
	if err != nil {
		return nil, err
	}
	if idx < 0 {
		return nil, fmt.Errorf("sheet %q not found (available: %v)", sheet, f.GetSheetList())
	}
	// Raw values keep numbers unformatted so ids compare as plain digits.
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, err
	}
	return &WorkbookGrid{file: f, sheet: sheet, rows: rows}, nil
}

// Sheet returns the worksheet name backing the grid.
func (g *WorkbookGrid) Sheet() string {
	return g.sheet
}

// NumRows implements contract.Grid.
func (g *WorkbookGrid) NumRows() int {
	return len(g.rows)
}

// Row implements contract.Grid.
func (g *WorkbookGrid) Row(row int) []string {
	if row < 1 || row > len(g.rows) {
		return nil
	}
	return g.rows[row-1]
}

// Cell implements contract.Grid.
func (g *WorkbookGrid) Cell(row, col int) string {
	return cellAt(g.rows, row, col)
}

// SetCell implements contract.Grid.
func (g *WorkbookGrid) SetCell(row, col int, value string) error {
	axis, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}
	var v any = value
	if f, ok := numericValue(value); ok {
		v = f
	}
	if err := g.file.SetCellValue(g.sheet, axis, v); err != nil {
		return fmt.Errorf("failed to write %s!%s: %w", g.sheet, axis, err)
	}
	g.rows = setAt(g.rows, row, col, value)
	return nil
}

// Save implements contract.Grid.
func (g *WorkbookGrid) Save(path string) error {
	if err := g.file.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook %s: %w", path, err)
	}
	return nil
}

// Close releases the workbook.
func (g *WorkbookGrid) Close() error {
	return g.file.Close()
}
