package ranking

import (
	"fmt"

	"github.com/hybridrank/hybridrank/model"
)

// improvementThreshold is the confidence below which improvement hints
// are added to the explanation.
const improvementThreshold = 0.7

var signalLabels = map[model.Signal]string{
	model.SignalVector:     "vector similarity",
	model.SignalGraph:      "graph relevance",
	model.SignalEntity:     "entity match",
	model.SignalStructural: "section match",
}

// explain builds the human-readable contributing reasons for one
// result: the weighted contribution of every enabled signal, the boost
// when applied, and improvement hints for weak matches.
func explain(result *model.ScoredResult, weights map[model.Signal]float64, boostFactor float64) []string {
	reasons := make([]string, 0, len(result.Signals)+2)

	weightedSum := 0.0
	for signal, weight := range weights {
		weightedSum += result.Signals[signal] * weight
	}

	for _, signal := range model.AllSignals {
		weight, enabled := weights[signal]
		if !enabled {
			continue
		}
		score := result.Signals[signal]
		if weightedSum > 0 {
			contribution := score * weight / weightedSum * 100
			reasons = append(reasons, fmt.Sprintf("%v %.2f (%.1f%% of weighted score)", signalLabels[signal], score, contribution))
		} else {
			reasons = append(reasons, fmt.Sprintf("%v %.2f", signalLabels[signal], score))
		}
	}

	if result.Boosted {
		reasons = append(reasons, fmt.Sprintf("community boost x%.2f applied", boostFactor))
	}

	if result.Score < improvementThreshold {
		if score, enabled := signalValue(result, weights, model.SignalVector); enabled && score < 0.6 {
			reasons = append(reasons, "consider using terminology closer to the query")
		}
		if score, enabled := signalValue(result, weights, model.SignalStructural); enabled && score < 0.6 {
			reasons = append(reasons, "consider aligning the section numbering with the requirement")
		}
	}

	return reasons
}

func signalValue(result *model.ScoredResult, weights map[model.Signal]float64, signal model.Signal) (float64, bool) {
	if _, enabled := weights[signal]; !enabled {
		return 0, false
	}
	return result.Signals[signal], true
}
