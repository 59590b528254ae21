package graph

import (
	"sort"

	"github.com/hybridrank/hybridrank/model"
)

// Adjacency is the relationship graph of one candidate set, keyed by
// stable candidate identifiers. It is built once per query from the
// candidates' precomputed edges and read-only afterwards.
type Adjacency struct {
	candidates map[string]*model.Candidate
	neighbors  map[string][]string
}

// NewAdjacency builds the adjacency structure for a candidate snapshot.
// Edges pointing outside the snapshot are kept, their targets simply
// have no further neighbors.
func NewAdjacency(candidates []*model.Candidate) *Adjacency {
	adjacency := &Adjacency{
		candidates: make(map[string]*model.Candidate, len(candidates)),
		neighbors:  make(map[string][]string, len(candidates)),
	}

	for _, candidate := range candidates {
		adjacency.candidates[candidate.ID] = candidate
	}

	for _, candidate := range candidates {
		seen := make(map[string]bool, len(candidate.Edges))
		targets := make([]string, 0, len(candidate.Edges))
		for _, edge := range candidate.Edges {
			if edge.TargetID == candidate.ID || seen[edge.TargetID] {
				continue
			}
			seen[edge.TargetID] = true
			targets = append(targets, edge.TargetID)
		}
		// Deterministic neighbor order regardless of edge order
		sort.Strings(targets)
		adjacency.neighbors[candidate.ID] = targets
	}

	return adjacency
}

// Candidate returns the candidate for an identifier, nil when the
// identifier is not part of the snapshot.
func (a *Adjacency) Candidate(id string) *model.Candidate {
	return a.candidates[id]
}

// Neighbors returns the direct neighbor identifiers of a candidate.
func (a *Adjacency) Neighbors(id string) []string {
	return a.neighbors[id]
}

// ReachableWithin performs a breadth-first walk from a source candidate
// and returns every identifier reachable within maxHops, excluding the
// source itself.
func (a *Adjacency) ReachableWithin(sourceID string, maxHops int) []string {
	type step struct {
		id       string
		distance int
	}

	visited := map[string]bool{sourceID: true}
	queue := []step{{id: sourceID, distance: 0}}
	var reachable []string

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		if current.distance >= maxHops {
			continue
		}

		for _, targetID := range a.neighbors[current.id] {
			if visited[targetID] {
				continue
			}
			visited[targetID] = true
			reachable = append(reachable, targetID)

			// Only walk onward through candidates in the snapshot
			if _, ok := a.candidates[targetID]; ok {
				queue = append(queue, step{id: targetID, distance: current.distance + 1})
			}
		}
	}

	return reachable
}
