package outwriter

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/coursekit/coursekit/internal/contract"
	"github.com/coursekit/coursekit/internal/parquet"
	"github.com/coursekit/coursekit/schema"
	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	color.NoColor = true
}

var sampleReport = schema.ThresholdReport{
	MaxGrade:   20,
	GradeCount: 5,
	Results: []schema.ThresholdResult{
		{Label: "A", Fraction: 0.9, Cutoff: 18, PercentOfMax: 90, BandCount: 1},
		{Label: "B", Fraction: 0.5, Cutoff: 12.5, PercentOfMax: 62.5, BandCount: 4},
	},
}

var sampleGrades = []schema.OralGrade{
	{FormID: "f1", Students: "Ada Lovelace, Bob Smith", InstructorGrade: 16, PeerMean: 14, PeerCount: 3, Grade: 15},
	{FormID: "f2", Students: "Chen Li", InstructorGrade: 12, PeerMean: 13, PeerCount: 0, Grade: 12},
}

func TestWriteThresholdsText(t *testing.T) {
	t.Run("lines", func(t *testing.T) {
		var buf bytes.Buffer
		cfg := &contract.Config{Precision: 2}
		require.NoError(t, writeThresholdsText(&buf, sampleReport, cfg, time.Second))
		assert.Equal(t, "Letter Grade Thresholds:\nA: 18.00 (raw), 90.00% of max\nB: 12.50 (raw), 62.50% of max\n", buf.String())
	})

	t.Run("no data", func(t *testing.T) {
		var buf bytes.Buffer
		report := schema.ThresholdReport{MaxGrade: 20, Results: []schema.ThresholdResult{{Label: "F", Fraction: 0.01, NoData: true}}}
		require.NoError(t, writeThresholdsText(&buf, report, &contract.Config{Precision: 2}, 0))
		assert.Equal(t, "Letter Grade Thresholds:\nF: No data available\n", buf.String())
	})

	t.Run("detail adds band table", func(t *testing.T) {
		var buf bytes.Buffer
		cfg := &contract.Config{Precision: 2, Detail: true}
		require.NoError(t, writeThresholdsText(&buf, sampleReport, cfg, time.Second))
		out := buf.String()
		assert.Contains(t, strings.ToUpper(out), "PERCENTILE")
		assert.Contains(t, out, "Computed from 5 grades (max grade 20.00)")
		assert.NotContains(t, out, "below")
	})

	t.Run("detail lists grades below the lowest cutoff", func(t *testing.T) {
		var buf bytes.Buffer
		report := sampleReport
		report.GradeCount = 7
		report.BelowLowest = 2
		require.NoError(t, writeThresholdsText(&buf, report, &contract.Config{Precision: 2, Detail: true}, time.Second))
		assert.Contains(t, buf.String(), "below")
	})
}

func TestWriteThresholdsCSV(t *testing.T) {
	var buf bytes.Buffer
	report := sampleReport
	report.Results = append(report.Results, schema.ThresholdResult{Label: "F", Fraction: 0.01, NoData: true})
	require.NoError(t, writeThresholdsCSV(&buf, report, &contract.Config{Precision: 2}))
	assert.Equal(t, "label,fraction,cutoff,percent_of_max,band_count\nA,0.9,18.00,90.00,1\nB,0.5,12.50,62.50,4\nF,0.01,,,0\n", buf.String())

	t.Run("grades below the lowest cutoff", func(t *testing.T) {
		var buf bytes.Buffer
		report := sampleReport
		report.GradeCount = 7
		report.BelowLowest = 2
		require.NoError(t, writeThresholdsCSV(&buf, report, &contract.Config{Precision: 2}))
		assert.True(t, strings.HasSuffix(buf.String(), "B,0.5,12.50,62.50,4\nbelow,,,,2\n"), buf.String())
	})
}

func TestWriteThresholdsParquet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cutoffs.parquet")
	cfg := &contract.Config{Output: schema.ParquetOut, OutputFile: path}
	require.NoError(t, WriteThresholds(sampleReport, cfg, 0))

	rows, err := parquet.ReadCutoffsParquet(path)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "B", rows[1].Label)

	cfg.OutputFile = ""
	assert.ErrorContains(t, WriteThresholds(sampleReport, cfg, 0), "--output-file")
}

func TestWriteOralGrades(t *testing.T) {
	t.Run("csv", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, writeOralCSV(&buf, sampleGrades, &contract.Config{Precision: 2}))
		assert.Equal(t, "Students,Grade\n\"Ada Lovelace, Bob Smith\",15.00\nChen Li,12.00\n", buf.String())
	})

	t.Run("csv detail", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, writeOralCSV(&buf, sampleGrades[1:], &contract.Config{Precision: 1, Detail: true}))
		assert.Equal(t, "Students,Grade,Instructor,PeerMean,Peers\nChen Li,12.0,12.0,13.0,0\n", buf.String())
	})

	t.Run("text", func(t *testing.T) {
		var buf bytes.Buffer
		cfg := &contract.Config{Precision: 2, Width: 120, UseEmojis: true}
		require.NoError(t, writeOralText(&buf, sampleGrades, cfg, time.Second))
		out := buf.String()
		assert.Contains(t, out, "Ada Lovelace, Bob Smith")
		assert.Contains(t, out, "15.00")
		assert.Contains(t, out, "🎓 Graded 2 presentations")
	})

	t.Run("json file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "grades.json")
		require.NoError(t, WriteOralGrades(sampleGrades, &contract.Config{Output: schema.JSONOut, OutputFile: path}, 0))
		content, err := os.ReadFile(path)
		require.NoError(t, err)
		var got []schema.OralGrade
		require.NoError(t, json.Unmarshal(content, &got))
		assert.Equal(t, sampleGrades, got)
	})

	t.Run("parquet file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "grades.parquet")
		require.NoError(t, WriteOralGrades(sampleGrades, &contract.Config{Output: schema.ParquetOut, OutputFile: path}, 0))
		rows, err := parquet.ReadOralGradesParquet(path)
		require.NoError(t, err)
		assert.Len(t, rows, 2)
	})
}

func TestWriteFillReport(t *testing.T) {
	report := schema.MatchReport{
		Matched:   []schema.MatchedID{{ID: "1234567", Value: "15", SourceRow: 2, DestRow: 8}},
		Unmatched: []string{"7654321", "1111111"},
		Skipped:   1,
	}

	t.Run("text", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, writeFillText(&buf, report, &contract.Config{OutFile: "notes_modif.xlsx"}, 0))
		assert.Equal(t, "Matched 1 of 3 ids (1 invalid ids skipped)\nNot found: 7654321, 1111111\nSaved to notes_modif.xlsx\n", buf.String())
	})

	t.Run("text detail", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, writeFillText(&buf, report, &contract.Config{Detail: true}, time.Second))
		assert.Contains(t, strings.ToUpper(buf.String()), "DEST ROW")
		assert.Contains(t, buf.String(), "Completed in 1s")
	})

	t.Run("csv", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, writeFillCSV(&buf, report))
		assert.Equal(t, "id,value,source_row,dest_row,status\n1234567,15,2,8,matched\n7654321,,,,unmatched\n1111111,,,,unmatched\n", buf.String())
	})

	t.Run("parquet unsupported", func(t *testing.T) {
		assert.Error(t, WriteFillReport(report, &contract.Config{Output: schema.ParquetOut, OutputFile: "x"}, 0))
	})
}

func TestWriteCorrespondence(t *testing.T) {
	c := schema.Correspondence{OnlyInFirst: []int{2, 5}}
	cfg := &contract.Config{File1: "a.csv", File2: "b.csv"}

	t.Run("text", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, writeCorrespondenceText(&buf, c, cfg, 0))
		assert.Equal(t,
			"Lines in a.csv that do not have a corresponding match in b.csv: [2, 5]\n"+
				"Lines in b.csv that do not have a corresponding match in a.csv: []\n",
			buf.String())
	})

	t.Run("csv", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, writeCorrespondenceCSV(&buf, c, cfg))
		assert.Equal(t, "file,record\na.csv,2\na.csv,5\n", buf.String())
	})

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, writeCorrespondenceJSON(&buf, c, cfg))
		assert.JSONEq(t, `{"file1":"a.csv","file2":"b.csv","only_in_first":[2,5],"only_in_second":[]}`, buf.String())
	})
}

func TestWriteFeedbackMessage(t *testing.T) {
	msg := schema.FeedbackMessage{
		To:       []string{"ada@example.com"},
		Subject:  "[GBM6904] Feedback sur ta présentation orale",
		Body:     "Bonjour,\n\n- Très clair",
		Feedback: []string{"Très clair"},
	}

	t.Run("text", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, writeFeedbackText(&buf, msg, &contract.Config{}))
		assert.Equal(t, "To: ada@example.com\nSubject: [GBM6904] Feedback sur ta présentation orale\n\nBonjour,\n\n- Très clair\n", buf.String())
	})

	t.Run("json appends", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "feedback.json")
		cfg := &contract.Config{Output: schema.JSONOut, OutputFile: path}
		require.NoError(t, WriteFeedbackMessage(msg, cfg))
		require.NoError(t, WriteFeedbackMessage(msg, cfg))
		content, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, 2, strings.Count(string(content), `"subject"`))
	})
}

func TestWriteAbstractOutcomes(t *testing.T) {
	outcomes := []schema.AbstractOutcome{
		{Matricule: "1234567", Email: "ada@example.com", Attachment: "/tmp/ABSTRACT_1234567_JCA.docx", Sent: true},
		{Matricule: "7654321", Email: "bob@example.com"},
		{Matricule: "1111111", Email: "chen@example.com", Attachment: "/tmp/ABSTRACT_1111111_JCA.docx"},
	}

	t.Run("text", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, writeAbstractsText(&buf, outcomes, &contract.Config{Width: 200}, 0))
		out := buf.String()
		assert.Contains(t, out, "no abstract")
		assert.Contains(t, out, "dry run")
		assert.Contains(t, out, "Sent 1 of 3 abstracts")
	})

	t.Run("csv", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, writeAbstractsCSV(&buf, outcomes[:2]))
		assert.Equal(t, "matricule,email,attachment,sent\n1234567,ada@example.com,/tmp/ABSTRACT_1234567_JCA.docx,true\n7654321,bob@example.com,,false\n", buf.String())
	})
}
