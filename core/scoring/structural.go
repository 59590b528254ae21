package scoring

import (
	"strconv"
	"strings"

	"github.com/hybridrank/hybridrank/model"
)

// StructuralScorer scores candidates by section identifier
// correspondence, independent of semantic content. Identifiers are
// dot-separated integer components, e.g. "3.2.1".
type StructuralScorer struct{}

// NewStructuralScorer creates a new section identifier scorer
func NewStructuralScorer() *StructuralScorer {
	return &StructuralScorer{}
}

func (s *StructuralScorer) Kind() model.Signal {
	return model.SignalStructural
}

// Score returns the length of the longest common component prefix
// divided by the length of the longer identifier. An absent or
// malformed identifier on either side scores 0.
func (s *StructuralScorer) Score(query *model.Query, candidate *model.Candidate) (float64, error) {
	queryParts := ParseSectionID(query.SectionID)
	candidateParts := ParseSectionID(candidate.SectionID)
	if queryParts == nil || candidateParts == nil {
		return 0, nil
	}

	longer := len(queryParts)
	if len(candidateParts) > longer {
		longer = len(candidateParts)
	}

	matching := 0
	for i := 0; i < len(queryParts) && i < len(candidateParts); i++ {
		if queryParts[i] != candidateParts[i] {
			break
		}
		matching++
	}

	return clamp01(float64(matching) / float64(longer)), nil
}

// ParseSectionID parses a dot-separated section identifier into its
// integer components. Malformed identifiers are treated as absent and
// return nil.
func ParseSectionID(sectionID string) []int {
	if sectionID == "" {
		return nil
	}

	rawParts := strings.Split(sectionID, ".")
	parts := make([]int, 0, len(rawParts))
	for _, raw := range rawParts {
		part, err := strconv.Atoi(raw)
		if err != nil {
			return nil
		}
		parts = append(parts, part)
	}

	return parts
}
