package outwriter

import (
	"bytes"
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/coursekit/coursekit/internal/contract"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateFormatters(t *testing.T) {
	tests := []struct {
		name      string
		precision int
		value     float64
		expected  string
	}{
		{"precision 2", 2, 13.456, "13.46"},
		{"precision 0", 0, 13.456, "13"},
		{"precision 4", 4, 13.456, "13.4560"},
		{"negative value", 2, -42.567, "-42.57"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fmtFloat, intFmt := createFormatters(tt.precision)
			assert.Equal(t, tt.expected, fmtFloat(tt.value))
			assert.Equal(t, "%d", intFmt)
		})
	}
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeJSON(&buf, []string{"a", "b"}))
	assert.Equal(t, "[\n  \"a\",\n  \"b\"\n]\n", buf.String())

	err := writeJSON(&buf, make(chan int))
	assert.ErrorContains(t, err, "failed to encode JSON")
}

func TestWriteCSVWithHeader(t *testing.T) {
	t.Run("rows", func(t *testing.T) {
		var buf bytes.Buffer
		err := writeCSVWithHeader(&buf, []string{"Students", "Grade"}, func(w *csv.Writer) error {
			return w.Write([]string{"Ada, Bob", "15.50"})
		})
		require.NoError(t, err)
		assert.Equal(t, "Students,Grade\n\"Ada, Bob\",15.50\n", buf.String())
	})

	t.Run("row error", func(t *testing.T) {
		var buf bytes.Buffer
		err := writeCSVWithHeader(&buf, []string{"col"}, func(*csv.Writer) error {
			return assert.AnError
		})
		assert.Equal(t, assert.AnError, err)
	})
}

func TestWriteWithFile(t *testing.T) {
	t.Run("file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "out.txt")
		err := writeWithFile(path, func(w io.Writer) error {
			_, err := w.Write([]byte("first"))
			return err
		}, "Wrote text")
		require.NoError(t, err)
		content, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "first", string(content))
	})

	t.Run("writer error", func(t *testing.T) {
		err := writeWithFile(filepath.Join(t.TempDir(), "out.txt"), func(io.Writer) error {
			return assert.AnError
		}, "Wrote text")
		assert.Equal(t, assert.AnError, err)
	})

	t.Run("invalid path", func(t *testing.T) {
		err := writeWithFile("/nonexistent/path/file.txt", func(io.Writer) error { return nil }, "Wrote text")
		assert.Error(t, err)
	})
}

func TestAppendWithFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "messages.txt")
	for _, part := range []string{"one\n", "two\n"} {
		require.NoError(t, appendWithFile(path, func(w io.Writer) error {
			_, err := w.Write([]byte(part))
			return err
		}))
	}
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "one\ntwo\n", string(content))
}

func TestFormatRecordList(t *testing.T) {
	assert.Equal(t, "[]", formatRecordList(nil))
	assert.Equal(t, "[3]", formatRecordList([]int{3}))
	assert.Equal(t, "[1, 4, 9]", formatRecordList([]int{1, 4, 9}))
}

func TestGetMaxCellWidth(t *testing.T) {
	tests := []struct {
		name     string
		width    int
		reserved int
		expected int
	}{
		{"narrow terminal clamps to minimum", 40, 30, minCellWidth},
		{"wide terminal clamps to maximum", 300, 10, maxCellWidth},
		{"in between", 100, 30, 50},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &contract.Config{Width: tt.width}
			assert.Equal(t, tt.expected, getMaxCellWidth(cfg, tt.reserved))
		})
	}
}

func TestEmojiPrefix(t *testing.T) {
	assert.Equal(t, "🎓 ", emojiPrefix(&contract.Config{UseEmojis: true}, "🎓"))
	assert.Empty(t, emojiPrefix(&contract.Config{}, "🎓"))
}
