package sheetio

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/coursekit/coursekit/internal/contract"
	"github.com/coursekit/coursekit/schema"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

// DelimitedGrid is a delimited text file held in memory.
type DelimitedGrid struct {
	rows [][]string
	opts CSVOptions
}

var _ contract.Grid = &DelimitedGrid{} // Compile-time check

// NewDecodingReader wraps r so that its bytes are decoded from enc into UTF-8.
func NewDecodingReader(r io.Reader, enc schema.FileEncoding) io.Reader {
	if enc == schema.Latin1Encoding {
		return charmap.ISO8859_1.NewDecoder().Reader(r)
	}
	return r
}

// NewEncodingWriter wraps w so that UTF-8 text is written in enc.
// Characters outside latin-1 are replaced rather than failing the whole write.
func NewEncodingWriter(w io.Writer, enc schema.FileEncoding) io.Writer {
	if enc == schema.Latin1Encoding {
		return encoding.ReplaceUnsupported(charmap.ISO8859_1.NewEncoder()).Writer(w)
	}
	return w
}

// NewCSVReader returns a csv.Reader tolerant of ragged rows and stray quotes.
func NewCSVReader(r io.Reader, opts CSVOptions) *csv.Reader {
	reader := csv.NewReader(NewDecodingReader(bufio.NewReader(r), opts.Encoding))
	reader.Comma = opts.Delimiter
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	return reader
}

// ReadRecords reads every record of a delimited file.
func ReadRecords(path string, opts CSVOptions) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	records, err := NewCSVReader(f, opts).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return records, nil
}

// ReadDelimited loads a delimited file as a grid.
func ReadDelimited(path string, opts CSVOptions) (*DelimitedGrid, error) {
	records, err := ReadRecords(path, opts)
	if err != nil {
		return nil, err
	}
	return &DelimitedGrid{rows: records, opts: opts}, nil
}

// ReadColumn returns the values of a 0-based column, skipping rows too short to hold it.
func ReadColumn(path string, column int, opts CSVOptions) ([]string, error) {
	records, err := ReadRecords(path, opts)
	if err != nil {
		return nil, err
	}
	values := make([]string, 0, len(records))
	for _, record := range records {
		if column < len(record) {
			values = append(values, record[column])
		}
	}
	return values, nil
}

// ReadRoster returns the students of a class roster. Rows whose matricule column does
// not hold a valid matricule (headers, totals) are skipped.
func ReadRoster(path string, colMatricule, colEmail int, opts CSVOptions) ([]schema.RosterEntry, error) {
	records, err := ReadRecords(path, opts)
	if err != nil {
		return nil, err
	}
	var roster []schema.RosterEntry
	for _, record := range records {
		if colMatricule >= len(record) || colEmail >= len(record) {
			continue
		}
		matricule := schema.NormalizeID(record[colMatricule])
		if !schema.IsValidMatricule(matricule) {
			continue
		}
		roster = append(roster, schema.RosterEntry{
			Matricule: matricule,
			Email:     strings.TrimSpace(record[colEmail]),
		})
	}
	return roster, nil
}

// NumRows implements contract.Grid.
func (g *DelimitedGrid) NumRows() int {
	return len(g.rows)
}

// Row implements contract.Grid.
func (g *DelimitedGrid) Row(row int) []string {
	if row < 1 || row > len(g.rows) {
		return nil
	}
	return g.rows[row-1]
}

// Cell implements contract.Grid.
func (g *DelimitedGrid) Cell(row, col int) string {
	return cellAt(g.rows, row, col)
}

// SetCell implements contract.Grid.
func (g *DelimitedGrid) SetCell(row, col int, value string) error {
	if row < 1 || col < 1 {
		return fmt.Errorf("invalid cell (%d, %d): rows and columns start at 1", row, col)
	}
	g.rows = setAt(g.rows, row, col, value)
	return nil
}

// Save implements contract.Grid.
func (g *DelimitedGrid) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := g.write(f); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}

func (g *DelimitedGrid) write(w io.Writer) error {
	encoded := NewEncodingWriter(w, g.opts.Encoding)
	writer := csv.NewWriter(encoded)
	writer.Comma = g.opts.Delimiter
	if err := writer.WriteAll(g.rows); err != nil {
		return err
	}
	// The transcoder may hold back a trailing partial sequence until closed.
	// Without one, encoded is w itself and belongs to the caller.
	if c, ok := encoded.(io.Closer); ok && encoded != w {
		return c.Close()
	}
	return nil
}
