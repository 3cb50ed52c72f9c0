package core

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"slices"
	"sort"
	"strconv"
	"strings"

	"github.com/coursekit/coursekit/schema"
)

// ParseGrades reads one grade per line. Blank lines are ignored; anything else that is
// not a number within [0, maxGrade] fails the whole read.
func ParseGrades(r io.Reader, maxGrade float64) ([]float64, error) {
	var grades []float64
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		grade, err := strconv.ParseFloat(text, 64)
		if err != nil || math.IsNaN(grade) || math.IsInf(grade, 0) {
			return nil, fmt.Errorf("line %d: %q is not a grade", line, text)
		}
		if grade < 0 || grade > maxGrade {
			return nil, fmt.Errorf("line %d: grade %v is outside [0, %v]", line, grade, maxGrade)
		}
		grades = append(grades, grade)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read grades: %w", err)
	}
	return grades, nil
}

// percentileIndex maps a fraction to an index of a sorted list of n grades.
// Halves round to even, so 0.5 of 10 grades picks index 4.
func percentileIndex(p float64, n int) int {
	idx := int(math.RoundToEven(p * float64(n-1)))
	return max(0, min(idx, n-1))
}

// PercentileGrade returns the grade at fraction p of an ascending list.
func PercentileGrade(sorted []float64, p float64) (float64, error) {
	if len(sorted) == 0 {
		return 0, schema.ErrNoData
	}
	return sorted[percentileIndex(p, len(sorted))], nil
}

// sortThresholds returns the thresholds ordered by descending fraction, keeping the
// input order between equal fractions.
func sortThresholds(thresholds []schema.Threshold) []schema.Threshold {
	ordered := slices.Clone(thresholds)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Fraction > ordered[j].Fraction
	})
	return ordered
}

// ComputeThresholds computes the cutoff of every threshold over the grades.
// The grades are not modified. Each band holds the grades at or above its cutoff not
// already claimed by a higher band. Grades under the lowest cutoff are counted in
// BelowLowest, so band counts plus BelowLowest always sum to the number of grades.
func ComputeThresholds(grades []float64, thresholds []schema.Threshold, maxGrade float64) schema.ThresholdReport {
	sorted := slices.Clone(grades)
	slices.Sort(sorted)
	ordered := sortThresholds(thresholds)

	report := schema.ThresholdReport{
		MaxGrade:   maxGrade,
		GradeCount: len(sorted),
		Results:    make([]schema.ThresholdResult, 0, len(ordered)),
	}

	claimed := 0
	for _, t := range ordered {
		result := schema.ThresholdResult{Label: t.Label, Fraction: t.Fraction}
		cutoff, err := PercentileGrade(sorted, t.Fraction)
		if err != nil {
			result.NoData = true
			report.Results = append(report.Results, result)
			continue
		}
		result.Cutoff = cutoff
		result.PercentOfMax = cutoff / maxGrade * 100

		atOrAbove := len(sorted) - sort.SearchFloat64s(sorted, cutoff)
		result.BandCount = max(0, atOrAbove-claimed)
		claimed += result.BandCount

		report.Results = append(report.Results, result)
	}
	if len(sorted) > 0 && len(ordered) > 0 {
		report.BelowLowest = len(sorted) - claimed
	}
	return report
}
