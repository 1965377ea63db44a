package ragroute

// FilterCitations returns the citations whose score passes the confidence
// threshold. A citation with a nil score is always kept: a source that
// reports no confidence must not have its evidence hidden by a score rule.
//
// The threshold is clamped into [0, 1] before use. The function is pure and
// preserves input order.
func FilterCitations(citations []Citation, threshold float64) []Citation {
	threshold = clamp01(threshold)

	filtered := make([]Citation, 0, len(citations))
	for _, c := range citations {
		if c.Score == nil || *c.Score >= threshold {
			filtered = append(filtered, c)
		}
	}
	return filtered
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
