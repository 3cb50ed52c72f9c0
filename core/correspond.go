package core

import "github.com/coursekit/coursekit/schema"

// FindNonCorrespondence returns, for each list, the 1-based positions of values that
// never appear in the other list. Comparison is exact.
func FindNonCorrespondence(first, second []string) schema.Correspondence {
	return schema.Correspondence{
		OnlyInFirst:  missingFrom(first, second),
		OnlyInSecond: missingFrom(second, first),
	}
}

func missingFrom(values, other []string) []int {
	present := make(map[string]struct{}, len(other))
	for _, v := range other {
		present[v] = struct{}{}
	}
	missing := []int{}
	for i, v := range values {
		if _, ok := present[v]; !ok {
			missing = append(missing, i+1)
		}
	}
	return missing
}
