package scoring

import (
	"testing"

	"github.com/hybridrank/hybridrank/core/graph"
	"github.com/hybridrank/hybridrank/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func graphCandidates() []*model.Candidate {
	return []*model.Candidate{
		{
			ID: "a",
			Edges: []model.Edge{
				{TargetID: "b", Kind: model.EdgeKindSimilarTo, Weight: 0.9},
				{TargetID: "c", Kind: model.EdgeKindSharesEntities, Weight: 0.5},
			},
		},
		{
			ID:    "b",
			Edges: []model.Edge{{TargetID: "c", Kind: model.EdgeKindNext, Weight: 1.0}},
		},
		{ID: "c"},
		{ID: "d"},
	}
}

func TestGraphScorer(t *testing.T) {
	query := &model.Query{Text: "q"}

	t.Run("Kind reports the graph signal", func(t *testing.T) {
		scorer := NewGraphScorer(graph.NewAdjacency(nil), nil, 1)
		assert.Equal(t, model.SignalGraph, scorer.Kind())
	})

	t.Run("Scores fraction of edges reaching relevant candidates", func(t *testing.T) {
		candidates := graphCandidates()
		adjacency := graph.NewAdjacency(candidates)
		relevant := map[string]bool{"b": true}
		scorer := NewGraphScorer(adjacency, relevant, 1)

		score, err := scorer.Score(query, candidates[0])
		require.NoError(t, err)
		assert.InDelta(t, 0.5, score, 1e-9, "Expected one of two edges to reach a relevant candidate")
	})

	t.Run("All edges relevant scores 1", func(t *testing.T) {
		candidates := graphCandidates()
		adjacency := graph.NewAdjacency(candidates)
		relevant := map[string]bool{"b": true, "c": true}
		scorer := NewGraphScorer(adjacency, relevant, 1)

		score, err := scorer.Score(query, candidates[0])
		require.NoError(t, err)
		assert.InDelta(t, 1.0, score, 1e-9)
	})

	t.Run("No edges scores 0", func(t *testing.T) {
		candidates := graphCandidates()
		adjacency := graph.NewAdjacency(candidates)
		scorer := NewGraphScorer(adjacency, map[string]bool{"a": true}, 1)

		score, err := scorer.Score(query, candidates[3])
		require.NoError(t, err)
		assert.Equal(t, 0.0, score, "Expected isolated candidate to score 0")
	})

	t.Run("Two hop walk reaches relevant candidates transitively", func(t *testing.T) {
		candidates := []*model.Candidate{
			{ID: "a", Edges: []model.Edge{{TargetID: "b", Kind: model.EdgeKindSimilarTo, Weight: 1}}},
			{ID: "b", Edges: []model.Edge{{TargetID: "c", Kind: model.EdgeKindSimilarTo, Weight: 1}}},
			{ID: "c"},
		}
		adjacency := graph.NewAdjacency(candidates)
		relevant := map[string]bool{"c": true}

		oneHop := NewGraphScorer(adjacency, relevant, 1)
		score, err := oneHop.Score(query, candidates[0])
		require.NoError(t, err)
		assert.Equal(t, 0.0, score, "Expected one hop to miss the relevant candidate")

		twoHop := NewGraphScorer(adjacency, relevant, 2)
		score, err = twoHop.Score(query, candidates[0])
		require.NoError(t, err)
		assert.InDelta(t, 1.0, score, 1e-9, "Expected two hops to reach the relevant candidate")
	})

	t.Run("Walk depth is clamped to valid range", func(t *testing.T) {
		adjacency := graph.NewAdjacency(graphCandidates())

		scorer := NewGraphScorer(adjacency, nil, 0)
		assert.Equal(t, 1, scorer.maxHops, "Expected walk depth below 1 to clamp to 1")

		scorer = NewGraphScorer(adjacency, nil, 5)
		assert.Equal(t, 2, scorer.maxHops, "Expected walk depth above 2 to clamp to 2")
	})
}
