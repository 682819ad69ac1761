package cohort

import "sort"

// Percentiles converts raw scalars into rank-based percentile positions in
// [0,1] within one cohort population. Rank-based rather than z-scored on
// purpose: a 50-team cohort and a 5,000-team cohort must produce
// comparably-scaled outputs. Ties are broken by team ID so repeated runs on
// identical input produce identical results.
func Percentiles(values map[string]float64) map[string]float64 {
	n := len(values)
	result := make(map[string]float64, n)

	if n == 0 {
		return result
	}
	if n == 1 {
		for id := range values {
			result[id] = 0.5
		}
		return result
	}

	type entry struct {
		teamID string
		value  float64
	}
	entries := make([]entry, 0, n)
	for id, v := range values {
		entries = append(entries, entry{teamID: id, value: v})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].value != entries[j].value {
			return entries[i].value < entries[j].value
		}
		return entries[i].teamID < entries[j].teamID
	})

	for i, e := range entries {
		result[e.teamID] = float64(i) / float64(n-1)
	}

	return result
}
