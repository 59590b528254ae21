// Package scoring contains the per-signal scorers of the hybrid
// retrieval engine. Every scorer maps a (query, candidate) pair to a
// score in [0,1] and is a pure function of its inputs.
package scoring

import "github.com/hybridrank/hybridrank/model"

// Scorer computes one similarity signal for a candidate.
type Scorer interface {
	// Kind identifies the signal this scorer produces.
	Kind() model.Signal
	// Score returns a value in [0,1]. An error marks the signal as
	// degraded for this candidate; the caller records a 0 and continues.
	Score(query *model.Query, candidate *model.Candidate) (float64, error)
}

func clamp01(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}
