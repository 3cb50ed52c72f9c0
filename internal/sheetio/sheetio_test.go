package sheetio

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/coursekit/coursekit/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

// writeLatin1 writes s encoded as ISO-8859-1.
func writeLatin1(t *testing.T, path, s string) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	w := NewEncodingWriter(f, schema.Latin1Encoding)
	_, err = w.Write([]byte(s))
	require.NoError(t, err)
	if c, ok := w.(interface{ Close() error }); ok {
		require.NoError(t, c.Close())
	}
	require.NoError(t, f.Close())
}

func TestReadColumnLatin1(t *testing.T) {
	path := filepath.Join(t.TempDir(), "class.csv")
	writeLatin1(t, path, "Matricule;Nom\n1234567;Hélène\n7654321;Zoé\nshort\n")

	names, err := ReadColumn(path, 1, DefaultCSVOptions)
	require.NoError(t, err)
	assert.Equal(t, []string{"Nom", "Hélène", "Zoé"}, names)

	ids, err := ReadColumn(path, 0, DefaultCSVOptions)
	require.NoError(t, err)
	assert.Equal(t, []string{"Matricule", "1234567", "7654321", "short"}, ids)
}

func TestReadRosterSkipsHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roster.csv")
	writeLatin1(t, path, "ID;Nom;Prénom;Courriel\n1234567;Roy;Élise;elise.roy@example.org \n123;Bad;Row;bad@example.org\n7654321;Lee;Max\n")

	roster, err := ReadRoster(path, 0, 3, DefaultCSVOptions)
	require.NoError(t, err)
	assert.Equal(t, []schema.RosterEntry{{Matricule: "1234567", Email: "elise.roy@example.org"}}, roster)
}

func TestDelimitedGridRoundTrip(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "dest.csv")
	writeLatin1(t, src, "Matricule;Nom;Note\n1234567;Hélène;\n")

	grid, err := ReadDelimited(src, DefaultCSVOptions)
	require.NoError(t, err)
	assert.Equal(t, 2, grid.NumRows())
	assert.Equal(t, "Hélène", grid.Cell(2, 2))
	assert.Equal(t, "", grid.Cell(9, 9))
	assert.Nil(t, grid.Row(3))

	require.NoError(t, grid.SetCell(2, 3, "17.5"))
	require.NoError(t, grid.SetCell(3, 5, "new"))
	assert.Error(t, grid.SetCell(0, 1, "x"))

	out := filepath.Join(dir, "dest_modif.csv")
	require.NoError(t, grid.Save(out))

	reread, err := ReadDelimited(out, DefaultCSVOptions)
	require.NoError(t, err)
	assert.Equal(t, "17.5", reread.Cell(2, 3))
	assert.Equal(t, "Hélène", reread.Cell(2, 2))
	assert.Equal(t, "new", reread.Cell(3, 5))
}

func TestDelimitedGridSaveUTF8(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "dest.csv")
	require.NoError(t, os.WriteFile(src, []byte("Matricule;Nom;Note\n1234567;Hélène;\n"), 0o600))
	opts := CSVOptions{Delimiter: ';', Encoding: schema.UTF8Encoding}

	grid, err := ReadDelimited(src, opts)
	require.NoError(t, err)
	require.NoError(t, grid.SetCell(2, 3, "17.5"))

	out := filepath.Join(dir, "dest_modif.csv")
	require.NoError(t, grid.Save(out))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "Matricule;Nom;Note\n1234567;Hélène;17.5\n", string(data))
}

func TestWorkbookGrid(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "grades.xlsx")

	f := excelize.NewFile()
	require.NoError(t, f.SetCellValue("Sheet1", "A1", "Matricule"))
	require.NoError(t, f.SetCellValue("Sheet1", "A2", 1234567))
	require.NoError(t, f.SetCellValue("Sheet1", "B2", "Alice"))
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	grid, err := OpenWorkbook(path, "")
	require.NoError(t, err)
	defer func() { _ = grid.Close() }()

	assert.Equal(t, "Sheet1", grid.Sheet())
	assert.Equal(t, 2, grid.NumRows())
	assert.Equal(t, "1234567", schema.NormalizeID(grid.Cell(2, 1)))
	assert.Equal(t, "Alice", grid.Cell(2, 2))

	require.NoError(t, grid.SetCell(2, 4, "15.5"))
	require.NoError(t, grid.SetCell(2, 5, "0012345"))
	assert.Equal(t, "15.5", grid.Cell(2, 4))

	out := filepath.Join(dir, "grades_modif.xlsx")
	require.NoError(t, grid.Save(out))

	saved, err := excelize.OpenFile(out)
	require.NoError(t, err)
	defer func() { _ = saved.Close() }()

	num, err := saved.GetCellValue("Sheet1", "D2")
	require.NoError(t, err)
	assert.Equal(t, "15.5", num)
	v, err := saved.GetCellValue("Sheet1", "E2")
	require.NoError(t, err)
	assert.Equal(t, "0012345", v)
}

func TestOpenWorkbookUnknownSheet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "book.xlsx")
	f := excelize.NewFile()
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	_, err := OpenWorkbook(path, "Missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Missing")
}

func TestOpenByExtension(t *testing.T) {
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "a.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte("1;2\n"), 0o644))

	grid, err := Open(csvPath, "", CSVOptions{Delimiter: ';', Encoding: schema.UTF8Encoding})
	require.NoError(t, err)
	assert.Equal(t, "2", grid.Cell(1, 2))

	_, err = Open(filepath.Join(dir, "a.ods"), "", DefaultCSVOptions)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported")
}

func TestRowEmpty(t *testing.T) {
	assert.True(t, RowEmpty(nil))
	assert.True(t, RowEmpty([]string{"", "  "}))
	assert.False(t, RowEmpty([]string{"", "x"}))
}

func TestNumericValue(t *testing.T) {
	tests := []struct {
		in     string
		want   float64
		wantOK bool
	}{
		{"15.5", 15.5, true},
		{"0", 0, true},
		{"0.75", 0.75, true},
		{"0012345", 0, false},
		{"abc", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := numericValue(tt.in)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
