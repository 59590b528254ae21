package model

import "fmt"

// Signal identifies one independent similarity measure contributing to
// the aggregate score of a candidate.
type Signal string

const (
	SignalVector     Signal = "vector"
	SignalGraph      Signal = "graph"
	SignalEntity     Signal = "entity"
	SignalStructural Signal = "structural"
)

// AllSignals lists every known signal in a fixed order.
var AllSignals = []Signal{SignalVector, SignalGraph, SignalEntity, SignalStructural}

// Weights holds the relative contribution of each signal before
// normalization. Weights are non-negative and need not sum to 1.
type Weights struct {
	Vector     float64 `json:"vector_weight" validate:"gte=0"`
	Graph      float64 `json:"graph_weight" validate:"gte=0"`
	Entity     float64 `json:"entity_weight" validate:"gte=0"`
	Structural float64 `json:"structural_weight" validate:"gte=0"`
}

// Of returns the raw weight configured for a signal.
func (w Weights) Of(signal Signal) float64 {
	switch signal {
	case SignalVector:
		return w.Vector
	case SignalGraph:
		return w.Graph
	case SignalEntity:
		return w.Entity
	case SignalStructural:
		return w.Structural
	}
	return 0
}

// Normalize returns the weights of the enabled signals rescaled so they
// sum to 1. It returns an error when the enabled weights sum to zero,
// because aggregation is undefined in that case.
func (w Weights) Normalize(enabled []Signal) (map[Signal]float64, error) {
	sum := 0.0
	for _, signal := range enabled {
		sum += w.Of(signal)
	}
	if sum <= 0 {
		return nil, fmt.Errorf("enabled signal weights sum to zero")
	}

	normalized := make(map[Signal]float64, len(enabled))
	for _, signal := range enabled {
		normalized[signal] = w.Of(signal) / sum
	}
	return normalized, nil
}
