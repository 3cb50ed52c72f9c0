package schema

// Threshold is a letter-grade label paired with a percentile fraction in [0, 1].
type Threshold struct {
	Label    string  `json:"label"`
	Fraction float64 `json:"fraction"`
}

// ThresholdResult is the computed cutoff for a single threshold.
type ThresholdResult struct {
	Label        string  `json:"label"`
	Fraction     float64 `json:"fraction"`
	Cutoff       float64 `json:"cutoff"`
	PercentOfMax float64 `json:"percent_of_max"`
	BandCount    int     `json:"band_count"`
	NoData       bool    `json:"no_data"`
}

// ThresholdReport holds every threshold result plus the distribution it was computed from.
type ThresholdReport struct {
	MaxGrade   float64           `json:"max_grade"`
	GradeCount int               `json:"grade_count"`
	Results    []ThresholdResult `json:"results"`

	// BelowLowest counts the grades under the lowest cutoff, which belong to no band.
	BelowLowest int `json:"below_lowest"`
}

// MatchedID records a source id that was written into the destination sheet.
type MatchedID struct {
	ID        string `json:"id"`
	Value     string `json:"value"`
	SourceRow int    `json:"source_row"`
	DestRow   int    `json:"dest_row"`
}

// MatchReport summarizes a fill run.
type MatchReport struct {
	Matched   []MatchedID `json:"matched"`
	Unmatched []string    `json:"unmatched"`
	Skipped   int         `json:"skipped"`
}

// Correspondence lists 1-based record numbers whose value is absent from the other file.
type Correspondence struct {
	OnlyInFirst  []int `json:"only_in_first"`
	OnlyInSecond []int `json:"only_in_second"`
}
