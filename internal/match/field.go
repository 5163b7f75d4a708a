package match

// MatchField resolves a logical field against the table's actual columns.
// It returns the candidate column whose similarity to any alternative is
// highest and at least threshold. Ties are broken by first occurrence in
// candidates. The second return is false when no candidate clears the bar.
func MatchField(candidates []string, alternatives []string, threshold float64) (string, bool) {
	if threshold <= 0 {
		threshold = DefaultFieldThreshold
	}

	best := ""
	bestScore := 0.0
	found := false

	for _, candidate := range candidates {
		for _, alt := range alternatives {
			score := Similarity(candidate, alt)
			if score < threshold {
				continue
			}
			// Strictly greater keeps the earliest candidate on ties.
			if !found || score > bestScore {
				best = candidate
				bestScore = score
				found = true
			}
		}
	}

	return best, found
}
