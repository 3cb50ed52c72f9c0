package contract

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"

	"github.com/coursekit/coursekit/schema"
)

// ErrInvalidThreshold is returned for a threshold that is not LABEL:FRACTION with a fraction in [0, 1].
var ErrInvalidThreshold = errors.New("invalid threshold")

// ParseThreshold parses a single "LABEL:FRACTION" definition such as "A*:0.9".
func ParseThreshold(s string) (schema.Threshold, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 {
		return schema.Threshold{}, fmt.Errorf("%w %q: expected LABEL:FRACTION", ErrInvalidThreshold, s)
	}
	label := strings.TrimSpace(parts[0])
	if label == "" {
		return schema.Threshold{}, fmt.Errorf("%w %q: empty label", ErrInvalidThreshold, s)
	}
	fraction, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return schema.Threshold{}, fmt.Errorf("%w %q: fraction is not a number", ErrInvalidThreshold, s)
	}
	if math.IsNaN(fraction) || fraction < 0 || fraction > 1 {
		return schema.Threshold{}, fmt.Errorf("%w %q: fraction must be within [0, 1]", ErrInvalidThreshold, s)
	}
	return schema.Threshold{Label: label, Fraction: fraction}, nil
}

// ParseThresholds parses a comma or whitespace separated list of thresholds.
// Every entry is validated before any is returned. A repeated label is kept as its own band.
func ParseThresholds(s string) ([]schema.Threshold, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || unicode.IsSpace(r)
	})
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: no thresholds given", ErrInvalidThreshold)
	}
	thresholds := make([]schema.Threshold, 0, len(fields))
	for _, field := range fields {
		t, err := ParseThreshold(field)
		if err != nil {
			return nil, err
		}
		thresholds = append(thresholds, t)
	}
	return thresholds, nil
}
