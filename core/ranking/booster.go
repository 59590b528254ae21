package ranking

import (
	"sort"

	"github.com/hybridrank/hybridrank/model"
)

// topCommunityCount limits how many query-relevant communities are
// considered for boosting.
const topCommunityCount = 3

// CommunityBooster raises the aggregate score of candidates belonging
// to a community that is relevant to the query. It runs strictly after
// aggregation so it cannot distort the per-signal weighting.
type CommunityBooster struct {
	factor float64
}

// NewCommunityBooster creates a booster with the configured factor,
// which must be greater than 1.
func NewCommunityBooster(factor float64) *CommunityBooster {
	return &CommunityBooster{factor: factor}
}

// RelevantCommunities derives the query-relevant communities from the
// communities of the query's nearest neighbors: the topK candidates by
// raw vector similarity. The most frequent communities win, ties broken
// by smaller community id.
func (b *CommunityBooster) RelevantCommunities(candidates []*model.Candidate, vectorScores map[string]float64, topK int) map[int]bool {
	neighbors := make([]*model.Candidate, len(candidates))
	copy(neighbors, candidates)
	sort.Slice(neighbors, func(i, j int) bool {
		si, sj := vectorScores[neighbors[i].ID], vectorScores[neighbors[j].ID]
		if si != sj {
			return si > sj
		}
		return neighbors[i].ID < neighbors[j].ID
	})
	if topK > 0 && len(neighbors) > topK {
		neighbors = neighbors[:topK]
	}

	frequency := make(map[int]int)
	for _, neighbor := range neighbors {
		if neighbor.Community != nil {
			frequency[*neighbor.Community]++
		}
	}
	if len(frequency) == 0 {
		return nil
	}

	communities := make([]int, 0, len(frequency))
	for community := range frequency {
		communities = append(communities, community)
	}
	sort.Slice(communities, func(i, j int) bool {
		if frequency[communities[i]] != frequency[communities[j]] {
			return frequency[communities[i]] > frequency[communities[j]]
		}
		return communities[i] < communities[j]
	})
	if len(communities) > topCommunityCount {
		communities = communities[:topCommunityCount]
	}

	relevant := make(map[int]bool, len(communities))
	for _, community := range communities {
		relevant[community] = true
	}
	return relevant
}

// Boost multiplies the aggregate score by the boost factor when the
// candidate's community is query-relevant, clamped to 1.0. The second
// return reports whether the boost was applied.
func (b *CommunityBooster) Boost(score float64, candidate *model.Candidate, relevant map[int]bool) (float64, bool) {
	if candidate.Community == nil || !relevant[*candidate.Community] {
		return score, false
	}

	boosted := score * b.factor
	if boosted > 1.0 {
		boosted = 1.0
	}
	return boosted, true
}
