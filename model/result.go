package model

// ScoredResult represents a candidate retrieved and ranked by a query.
// Produced fresh per query and immutable once constructed.
type ScoredResult struct {
	Candidate *Candidate `json:"candidate"`
	// Score is the weighted aggregate over the enabled signals,
	// community boost included, always within [0,1].
	Score float64 `json:"score"`
	// Signals holds the per-signal score breakdown before weighting.
	Signals map[Signal]float64 `json:"signals"`
	// Boosted reports whether the community boost was applied.
	Boosted bool `json:"boosted,omitempty"`
	// Explanation lists the human-readable contributing reasons.
	Explanation []string `json:"explanation,omitempty"`
}

// Summary aggregates a result set for reporting.
type Summary struct {
	TotalResults int     `json:"total_results"`
	AverageScore float64 `json:"average_score"`
	MinScore     float64 `json:"min_score"`
	MaxScore     float64 `json:"max_score"`
}

// Summarize computes the summary statistics of an ordered result set.
func Summarize(results []*ScoredResult) Summary {
	summary := Summary{TotalResults: len(results)}
	if len(results) == 0 {
		return summary
	}

	summary.MinScore = results[0].Score
	summary.MaxScore = results[0].Score
	sum := 0.0
	for _, result := range results {
		sum += result.Score
		if result.Score < summary.MinScore {
			summary.MinScore = result.Score
		}
		if result.Score > summary.MaxScore {
			summary.MaxScore = result.Score
		}
	}
	summary.AverageScore = sum / float64(len(results))

	return summary
}
