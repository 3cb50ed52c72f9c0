package core

import (
	"testing"

	"github.com/coursekit/coursekit/internal/contract"
	"github.com/coursekit/coursekit/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memGrid is an in-memory contract.Grid with 1-based coordinates.
type memGrid struct {
	rows  [][]string
	saved string
}

var _ contract.Grid = &memGrid{} // Compile-time check

func (g *memGrid) NumRows() int { return len(g.rows) }

func (g *memGrid) Row(row int) []string {
	if row < 1 || row > len(g.rows) {
		return nil
	}
	return g.rows[row-1]
}

func (g *memGrid) Cell(row, col int) string {
	cells := g.Row(row)
	if col < 1 || col > len(cells) {
		return ""
	}
	return cells[col-1]
}

func (g *memGrid) SetCell(row, col int, value string) error {
	for len(g.rows) < row {
		g.rows = append(g.rows, nil)
	}
	for len(g.rows[row-1]) < col {
		g.rows[row-1] = append(g.rows[row-1], "")
	}
	g.rows[row-1][col-1] = value
	return nil
}

func (g *memGrid) Save(path string) error {
	g.saved = path
	return nil
}

func TestFillValues(t *testing.T) {
	src := &memGrid{rows: [][]string{
		{"Matricule", "Note"},
		{"1234567", "15.5"},
		{"abc", "10"},
		{"7654321.0", "12"},
		{"1234567", "99"},
		{"1111111", "8"},
		{"", ""},
		{"2222222", "1"},
	}}
	dst := &memGrid{rows: [][]string{
		{"id", "name", "note"},
		{"7654321", "Bob", ""},
		{"1234567", "Ada", ""},
		{"1234567", "Ada again", ""},
		{"2222222", "Chen", ""},
	}}

	report, err := FillValues(src, dst, FillOptions{
		ColIDSrc: 1, ColValSrc: 2, RowStartSrc: 1,
		ColIDDest: 1, ColValDest: 3,
	}, contract.NopLogger())
	require.NoError(t, err)

	assert.Equal(t, []schema.MatchedID{
		{ID: "1234567", Value: "15.5", SourceRow: 2, DestRow: 3},
		{ID: "7654321", Value: "12", SourceRow: 4, DestRow: 2},
	}, report.Matched)
	assert.Equal(t, []string{"1111111"}, report.Unmatched)
	assert.Equal(t, 1, report.Skipped)

	assert.Equal(t, "15.5", dst.Cell(3, 3))
	assert.Equal(t, "12", dst.Cell(2, 3))
	assert.Empty(t, dst.Cell(4, 3), "only the first destination match is written")
	assert.Empty(t, dst.Cell(5, 3), "rows after the first empty source row are ignored")
}

func TestFillValuesEmptySource(t *testing.T) {
	src := &memGrid{rows: [][]string{{"Matricule", "Note"}}}
	dst := &memGrid{rows: [][]string{{"1234567", ""}}}

	report, err := FillValues(src, dst, FillOptions{ColIDSrc: 1, ColValSrc: 2, RowStartSrc: 1, ColIDDest: 1, ColValDest: 2}, nil)
	require.NoError(t, err)
	assert.Empty(t, report.Matched)
	assert.Empty(t, report.Unmatched)
	assert.Zero(t, report.Skipped)
}

func TestFindRow(t *testing.T) {
	g := &memGrid{rows: [][]string{
		{"x", "1234567.0"},
		{"y", " 7654321 "},
	}}
	tests := []struct {
		name     string
		id       string
		expected int
	}{
		{"float stored id", "1234567", 1},
		{"padded id", "7654321", 2},
		{"missing", "1111111", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, findRow(g, 2, tt.id))
		})
	}
}
