package scoring

import (
	"github.com/hybridrank/hybridrank/core/graph"
	"github.com/hybridrank/hybridrank/model"
)

// GraphScorer scores a candidate by the proportion of its relationship
// edges that connect, within the configured walk depth, to candidates
// already judged relevant to the query. It is built fresh per query
// because the relevance set is query-specific.
type GraphScorer struct {
	adjacency *graph.Adjacency
	relevant  map[string]bool
	maxHops   int
}

// NewGraphScorer creates a graph proximity scorer over a candidate
// snapshot. relevant holds the identifiers judged relevant to the
// query; maxHops is the walk depth, 1 or 2.
func NewGraphScorer(adjacency *graph.Adjacency, relevant map[string]bool, maxHops int) *GraphScorer {
	if maxHops < 1 {
		maxHops = 1
	}
	if maxHops > 2 {
		maxHops = 2
	}
	return &GraphScorer{
		adjacency: adjacency,
		relevant:  relevant,
		maxHops:   maxHops,
	}
}

func (s *GraphScorer) Kind() model.Signal {
	return model.SignalGraph
}

// Score returns relevantNeighbors/totalNeighbors, 0 when the candidate
// has no edges.
func (s *GraphScorer) Score(query *model.Query, candidate *model.Candidate) (float64, error) {
	neighbors := s.adjacency.Neighbors(candidate.ID)
	if len(neighbors) == 0 {
		return 0, nil
	}

	connected := 0
	for _, targetID := range neighbors {
		if s.connectsToRelevant(candidate.ID, targetID) {
			connected++
		}
	}

	return clamp01(float64(connected) / float64(len(neighbors))), nil
}

// connectsToRelevant reports whether an edge target is relevant itself
// or, with a two-hop walk, reaches a relevant candidate.
func (s *GraphScorer) connectsToRelevant(sourceID, targetID string) bool {
	if targetID != sourceID && s.relevant[targetID] {
		return true
	}
	if s.maxHops < 2 {
		return false
	}

	for _, nextID := range s.adjacency.Neighbors(targetID) {
		if nextID != sourceID && s.relevant[nextID] {
			return true
		}
	}
	return false
}
