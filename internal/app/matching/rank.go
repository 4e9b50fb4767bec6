package matching

import "sort"

// Rank returns a copy of scored ordered by score descending.
// Equal scores keep their input order.
func Rank(scored []ScoredCandidate) []ScoredCandidate {
	out := make([]ScoredCandidate, len(scored))
	copy(out, scored)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	return out
}
