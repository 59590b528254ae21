package scoring

import (
	"fmt"
	"math"

	"github.com/hybridrank/hybridrank/model"
)

// VectorScorer scores candidates by cosine similarity between the query
// embedding and the candidate embedding, rescaled from [-1,1] to [0,1].
type VectorScorer struct{}

// NewVectorScorer creates a new vector similarity scorer
func NewVectorScorer() *VectorScorer {
	return &VectorScorer{}
}

func (s *VectorScorer) Kind() model.Signal {
	return model.SignalVector
}

// Score returns (cos+1)/2 for the two embeddings. A zero-magnitude
// vector on either side scores 0 without an error.
func (s *VectorScorer) Score(query *model.Query, candidate *model.Candidate) (float64, error) {
	if len(query.Embedding) == 0 || len(candidate.Embedding) == 0 {
		return 0, nil
	}
	if len(query.Embedding) != len(candidate.Embedding) {
		return 0, fmt.Errorf("embedding dimension mismatch: query %v, candidate %v", len(query.Embedding), len(candidate.Embedding))
	}

	cos, ok := cosine(query.Embedding, candidate.Embedding)
	if !ok {
		return 0, nil
	}

	return clamp01((cos + 1) / 2), nil
}

// cosine returns the cosine similarity of two equal-length vectors.
// ok is false when either vector has zero magnitude.
func cosine(a, b []float32) (float64, bool) {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0, false
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB)), true
}
