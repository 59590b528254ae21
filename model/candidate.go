package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// EdgeKind represents the type of relationship between candidates
type EdgeKind string

const (
	EdgeKindSimilarTo      EdgeKind = "similar_to"
	EdgeKindSharesEntities EdgeKind = "shares_entities"
	EdgeKindNext           EdgeKind = "next"
)

// Edge represents a directed relationship from one candidate to another.
// Edges are owned by the external store; the engine only reads them.
type Edge struct {
	TargetID string   `json:"target_id"`
	Kind     EdgeKind `json:"kind"`
	Weight   float64  `json:"weight"`
}

// Candidate is an item eligible for ranking, a text chunk or a
// requirement record. All attributes are precomputed by the store; the
// engine treats a candidate as a read-only snapshot for the duration of
// one query.
type Candidate struct {
	ID        string    `json:"id"`
	RID       uuid.UUID `json:"rid,omitempty"`
	Text      string    `json:"text"`
	Source    string    `json:"source,omitempty"`
	Embedding []float32 `json:"embedding,omitempty"`
	Entities  []string  `json:"entities,omitempty"`
	Edges     []Edge    `json:"edges,omitempty"`
	// SectionID is the structural identifier, empty when absent.
	SectionID string `json:"section_id,omitempty"`
	// Community is the cluster label assigned by offline community
	// detection, nil when the candidate belongs to no community.
	Community *int      `json:"community,omitempty"`
	Metadata  Metadata  `json:"metadata,omitempty"`
	CreatedAt time.Time `json:"created_at,omitempty"`
}

// EntitySet returns the candidate entities as a lookup set with
// normalized (lower-cased) keys.
func (c *Candidate) EntitySet() map[string]bool {
	set := make(map[string]bool, len(c.Entities))
	for _, entity := range c.Entities {
		set[normalizeEntity(entity)] = true
	}
	return set
}

func normalizeEntity(entity string) string {
	return strings.ToLower(strings.TrimSpace(entity))
}
