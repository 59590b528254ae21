package scoring

import "github.com/hybridrank/hybridrank/model"

// EntityScorer scores candidates by the Jaccard similarity between the
// query entity set and the candidate entity set.
type EntityScorer struct{}

// NewEntityScorer creates a new entity overlap scorer
func NewEntityScorer() *EntityScorer {
	return &EntityScorer{}
}

func (s *EntityScorer) Kind() model.Signal {
	return model.SignalEntity
}

// Score returns |intersection| / |union|. Two empty sets score 0,
// absence of entities is not a match.
func (s *EntityScorer) Score(query *model.Query, candidate *model.Candidate) (float64, error) {
	querySet := query.EntitySet()
	candidateSet := candidate.EntitySet()

	if len(querySet) == 0 && len(candidateSet) == 0 {
		return 0, nil
	}

	intersection := 0
	for entity := range querySet {
		if candidateSet[entity] {
			intersection++
		}
	}

	union := len(querySet) + len(candidateSet) - intersection
	if union == 0 {
		return 0, nil
	}

	return clamp01(float64(intersection) / float64(union)), nil
}
