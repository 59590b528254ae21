package database

import (
	"context"
	"testing"
	"time"

	"github.com/hybridrank/hybridrank/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testEmbeddingDim = 4

func TestCandidatesNewCandidatesDBHandler(t *testing.T) {
	database := initDB(t)

	t.Run("Valid call NewCandidatesDBHandler", func(t *testing.T) {
		candidatesDbHandler, err := NewCandidatesDBHandler(database, testEmbeddingDim, true)
		assert.NoError(t, err, "Expected NewCandidatesDBHandler to not return an error")
		require.NotNil(t, candidatesDbHandler, "Expected NewCandidatesDBHandler to return a non-nil instance")
		require.NotNil(t, candidatesDbHandler.db, "Expected NewCandidatesDBHandler to have a non-nil database instance")
		require.NotNil(t, candidatesDbHandler.db.Instance, "Expected NewCandidatesDBHandler to have a non-nil database connection instance")
	})

	t.Run("Invalid call NewCandidatesDBHandler with nil database", func(t *testing.T) {
		_, err := NewCandidatesDBHandler(nil, testEmbeddingDim, false)
		assert.Error(t, err, "Expected error when creating CandidatesDBHandler with nil database")
		assert.Contains(t, err.Error(), "database connection is nil", "Expected specific error message for nil database connection")
	})
}

func TestCandidatesInsert(t *testing.T) {
	database := initDB(t)

	candidatesDbHandler, err := NewCandidatesDBHandler(database, testEmbeddingDim, true)
	require.NoError(t, err, "Expected NewCandidatesDBHandler to not return an error")

	t.Run("Insert candidate without embedding", func(t *testing.T) {
		candidate := &model.Candidate{
			ID:        "insert_plain",
			Text:      "The gateway authenticates incoming requests",
			Source:    "architecture.md",
			SectionID: "3.2.1",
			Entities:  []string{"gateway", "authentication"},
			Metadata:  map[string]interface{}{"type": "paragraph"},
		}

		err := candidatesDbHandler.InsertCandidate(candidate)
		assert.NoError(t, err, "Expected Insert to not return an error")
		assert.NotEqual(t, candidate.RID.String(), "00000000-0000-0000-0000-000000000000", "Expected inserted candidate to have a RID")
		assert.WithinDuration(t, candidate.CreatedAt, time.Now(), 2*time.Second, "Expected CreatedAt to be set")
	})

	t.Run("Insert candidate with embedding and community", func(t *testing.T) {
		community := 2
		candidate := &model.Candidate{
			ID:        "insert_embedded",
			Text:      "The gateway forwards requests to the session service",
			Source:    "architecture.md",
			SectionID: "3.2.2",
			Community: &community,
			Embedding: []float32{0.1, 0.2, 0.3, 0.4},
			Entities:  []string{"gateway", "session service"},
			Metadata:  map[string]interface{}{"type": "paragraph"},
		}

		err := candidatesDbHandler.InsertCandidate(candidate)
		assert.NoError(t, err, "Expected Insert to not return an error")
		require.NotNil(t, candidate.Community, "Expected community label to be preserved")
		assert.Equal(t, 2, *candidate.Community, "Expected community label to be preserved")
	})

	t.Run("Insert candidate with edges", func(t *testing.T) {
		candidate := &model.Candidate{
			ID:   "insert_with_edges",
			Text: "The session service stores tokens in the cache",
			Edges: []model.Edge{
				{TargetID: "insert_plain", Kind: model.EdgeKindSimilarTo, Weight: 0.8},
				{TargetID: "insert_embedded", Kind: model.EdgeKindNext, Weight: 1.0},
			},
			Metadata: map[string]interface{}{},
		}

		err := candidatesDbHandler.InsertCandidate(candidate)
		assert.NoError(t, err, "Expected Insert to not return an error")

		retrieved, err := candidatesDbHandler.SelectCandidate("insert_with_edges")
		require.NoError(t, err, "Expected Select to not return an error")
		assert.Len(t, retrieved.Edges, 2, "Expected both edges to be stored")
	})

	t.Run("Insert candidate with duplicate ID fails", func(t *testing.T) {
		candidate := &model.Candidate{
			ID:       "insert_plain",
			Text:     "Duplicate",
			Metadata: map[string]interface{}{},
		}

		err := candidatesDbHandler.InsertCandidate(candidate)
		assert.Error(t, err, "Expected duplicate candidate ID to be rejected")
	})

	// Cleanup
	candidatesDbHandler.DeleteCandidate("insert_with_edges")
	candidatesDbHandler.DeleteCandidate("insert_embedded")
	candidatesDbHandler.DeleteCandidate("insert_plain")
}

func TestCandidatesGet(t *testing.T) {
	database := initDB(t)

	candidatesDbHandler, err := NewCandidatesDBHandler(database, testEmbeddingDim, true)
	require.NoError(t, err, "Expected NewCandidatesDBHandler to not return an error")

	candidate := &model.Candidate{
		ID:        "get_candidate",
		Text:      "Results are cached per query fingerprint",
		SectionID: "4.1",
		Embedding: []float32{0.5, 0.5, 0.0, 0.0},
		Entities:  []string{"cache"},
		Metadata:  map[string]interface{}{"source_line": 12},
	}
	err = candidatesDbHandler.InsertCandidate(candidate)
	require.NoError(t, err)

	t.Run("Select existing candidate", func(t *testing.T) {
		retrieved, err := candidatesDbHandler.SelectCandidate("get_candidate")
		assert.NoError(t, err, "Expected Select to not return an error")
		require.NotNil(t, retrieved, "Expected Select to return a candidate")
		assert.Equal(t, candidate.Text, retrieved.Text, "Expected text to match")
		assert.Equal(t, candidate.SectionID, retrieved.SectionID, "Expected section ID to match")
		assert.Equal(t, 4, len(retrieved.Embedding), "Expected embedding to be preserved")
		assert.Equal(t, []string{"cache"}, retrieved.Entities, "Expected entities to match")
	})

	t.Run("Select nonexistent candidate", func(t *testing.T) {
		_, err := candidatesDbHandler.SelectCandidate("does_not_exist")
		assert.Error(t, err, "Expected error for nonexistent candidate")
	})

	// Cleanup
	candidatesDbHandler.DeleteCandidate("get_candidate")
}

func TestCandidatesSimilarity(t *testing.T) {
	database := initDB(t)

	candidatesDbHandler, err := NewCandidatesDBHandler(database, testEmbeddingDim, true)
	require.NoError(t, err, "Expected NewCandidatesDBHandler to not return an error")

	candidates := []*model.Candidate{
		{ID: "sim_close", Text: "close", Embedding: []float32{1, 0, 0, 0}, Metadata: map[string]interface{}{}},
		{ID: "sim_mid", Text: "mid", Embedding: []float32{0.7, 0.7, 0, 0}, Metadata: map[string]interface{}{}},
		{ID: "sim_far", Text: "far", Embedding: []float32{0, 0, 1, 0}, Metadata: map[string]interface{}{}},
		{ID: "sim_none", Text: "no embedding", Metadata: map[string]interface{}{}},
	}
	for _, candidate := range candidates {
		err := candidatesDbHandler.InsertCandidate(candidate)
		require.NoError(t, err, "Expected Insert to not return an error")
	}

	t.Run("Select candidates by similarity orders by distance", func(t *testing.T) {
		results, err := candidatesDbHandler.SelectCandidatesBySimilarity([]float32{1, 0, 0, 0}, 10)
		assert.NoError(t, err, "Expected similarity search to not return an error")
		require.Len(t, results, 3, "Expected candidates without embedding to be excluded")
		assert.Equal(t, "sim_close", results[0].ID, "Expected nearest candidate first")
		assert.Equal(t, "sim_mid", results[1].ID, "Expected second nearest candidate second")
		assert.Equal(t, "sim_far", results[2].ID, "Expected farthest candidate last")
	})

	t.Run("Select candidates by similarity respects limit", func(t *testing.T) {
		results, err := candidatesDbHandler.SelectCandidatesBySimilarity([]float32{1, 0, 0, 0}, 2)
		assert.NoError(t, err, "Expected similarity search to not return an error")
		assert.Len(t, results, 2, "Expected result count to match limit")
	})

	// Cleanup
	for _, candidate := range candidates {
		candidatesDbHandler.DeleteCandidate(candidate.ID)
	}
}

func TestCandidatesFetch(t *testing.T) {
	database := initDB(t)

	candidatesDbHandler, err := NewCandidatesDBHandler(database, testEmbeddingDim, true)
	require.NoError(t, err, "Expected NewCandidatesDBHandler to not return an error")

	candidates := []*model.Candidate{
		{
			ID:        "fetch_a",
			Text:      "a",
			Embedding: []float32{1, 0, 0, 0},
			Edges:     []model.Edge{{TargetID: "fetch_b", Kind: model.EdgeKindSimilarTo, Weight: 0.9}},
			Metadata:  map[string]interface{}{},
		},
		{ID: "fetch_b", Text: "b", Embedding: []float32{0, 1, 0, 0}, Metadata: map[string]interface{}{}},
	}
	for _, candidate := range candidates {
		err := candidatesDbHandler.InsertCandidate(candidate)
		require.NoError(t, err, "Expected Insert to not return an error")
	}

	t.Run("Fetch with embedding preselects by similarity and attaches edges", func(t *testing.T) {
		query := &model.Query{Text: "a", Embedding: []float32{1, 0, 0, 0}}
		results, err := candidatesDbHandler.FetchCandidates(context.Background(), query, 10)
		assert.NoError(t, err, "Expected Fetch to not return an error")
		require.Len(t, results, 2, "Expected all embedded candidates")
		assert.Equal(t, "fetch_a", results[0].ID, "Expected nearest candidate first")
		assert.Len(t, results[0].Edges, 1, "Expected edges to be attached")
		assert.Equal(t, "fetch_b", results[0].Edges[0].TargetID, "Expected edge target to match")
	})

	t.Run("Fetch without embedding falls back to all candidates", func(t *testing.T) {
		query := &model.Query{Text: "a"}
		results, err := candidatesDbHandler.FetchCandidates(context.Background(), query, 10)
		assert.NoError(t, err, "Expected Fetch to not return an error")
		assert.Len(t, results, 2, "Expected all candidates without preselection")
	})

	t.Run("Fetch with cancelled context fails", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		query := &model.Query{Text: "a", Embedding: []float32{1, 0, 0, 0}}
		_, err := candidatesDbHandler.FetchCandidates(ctx, query, 10)
		assert.Error(t, err, "Expected Fetch with cancelled context to return an error")
	})

	// Cleanup
	for _, candidate := range candidates {
		candidatesDbHandler.DeleteCandidate(candidate.ID)
	}
}

func TestCandidatesDelete(t *testing.T) {
	database := initDB(t)

	candidatesDbHandler, err := NewCandidatesDBHandler(database, testEmbeddingDim, true)
	require.NoError(t, err, "Expected NewCandidatesDBHandler to not return an error")

	candidate := &model.Candidate{
		ID:       "delete_me",
		Text:     "to be removed",
		Edges:    []model.Edge{{TargetID: "delete_me", Kind: model.EdgeKindNext, Weight: 1.0}},
		Metadata: map[string]interface{}{},
	}
	err = candidatesDbHandler.InsertCandidate(candidate)
	require.NoError(t, err)

	t.Run("Delete existing candidate cascades edges", func(t *testing.T) {
		err := candidatesDbHandler.DeleteCandidate("delete_me")
		assert.NoError(t, err, "Expected Delete to not return an error")

		_, err = candidatesDbHandler.SelectCandidate("delete_me")
		assert.Error(t, err, "Expected candidate to be gone after delete")

		var edgeCount int
		err = database.Instance.QueryRow(`SELECT COUNT(*) FROM candidate_edges WHERE source_key = 'delete_me';`).Scan(&edgeCount)
		require.NoError(t, err)
		assert.Equal(t, 0, edgeCount, "Expected edges to be removed with the candidate")
	})

	t.Run("Delete nonexistent candidate does not error", func(t *testing.T) {
		err := candidatesDbHandler.DeleteCandidate("never_existed")
		assert.NoError(t, err, "Expected Delete of nonexistent candidate to not return an error")
	})
}
