package model

// Query represents one retrieval request. It is built once per call and
// immutable afterwards: the embedding and entity set are derived by the
// engine's collaborators before scoring starts.
type Query struct {
	Text      string    `json:"text"`
	Embedding []float32 `json:"embedding,omitempty"`
	Entities  []string  `json:"entities,omitempty"`
	// SectionID is the structural identifier of the query, e.g. "3.2.1".
	// Empty when the query text carries no identifier.
	SectionID string `json:"section_id,omitempty"`
}

// EntitySet returns the query entities as a lookup set with normalized
// (lower-cased) keys.
func (q *Query) EntitySet() map[string]bool {
	set := make(map[string]bool, len(q.Entities))
	for _, entity := range q.Entities {
		set[normalizeEntity(entity)] = true
	}
	return set
}
