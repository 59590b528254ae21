package model

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// SearchConfig represents the process-wide configuration of the hybrid
// retrieval engine. It is validated once at startup and read-only during
// operation.
type SearchConfig struct {
	// Ranking parameters
	Weights    Weights `json:"weights"`
	MaxResults int     `json:"max_results" validate:"gt=0"`
	MinScore   float64 `json:"min_score" validate:"gte=0,lte=1"`

	// Optional pre-filter on raw vector similarity before aggregation.
	// 0 disables the filter.
	SimilarityThreshold float64 `json:"similarity_threshold" validate:"gte=0,lte=1"`

	// Signal toggles
	UseEntityRelationships bool `json:"use_entity_relationships"`
	UseCommunityDetection  bool `json:"use_community_detection"`

	// Community boosting
	UseCommunityBoost    bool    `json:"use_community_boost"`
	CommunityBoostFactor float64 `json:"community_boost_factor" validate:"gte=0"`

	// Graph walk depth for the graph signal, at most 2.
	GraphMaxHops int `json:"graph_max_hops" validate:"gte=0,lte=2"`

	// Result caching
	CacheResults    bool `json:"cache_results"`
	CacheTTLSeconds int  `json:"cache_ttl_seconds" validate:"gte=0"`
	CacheMaxEntries int  `json:"cache_max_entries" validate:"gte=0"`

	// Candidate preselection window as a multiple of MaxResults.
	FetchFactor int `json:"fetch_factor" validate:"gte=1"`
}

// DefaultSearchConfig returns a sensible default configuration
func DefaultSearchConfig() SearchConfig {
	return SearchConfig{
		Weights: Weights{
			Vector:     0.4,
			Graph:      0.3,
			Entity:     0.3,
			Structural: 0.0,
		},
		MaxResults:             5,
		MinScore:               0.1,
		SimilarityThreshold:    0.0,
		UseEntityRelationships: true,
		UseCommunityDetection:  true,
		UseCommunityBoost:      true,
		CommunityBoostFactor:   1.2,
		GraphMaxHops:           1,
		CacheResults:           true,
		CacheTTLSeconds:        3600,
		CacheMaxEntries:        512,
		FetchFactor:            2,
	}
}

// CacheTTL returns the cache expiry window as a duration.
func (c SearchConfig) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSeconds) * time.Second
}

// EnabledSignals returns the explicit set of signals participating in
// scoring and weight normalization. A disabled signal is excluded from
// both, not scored as zero and included.
func (c SearchConfig) EnabledSignals() []Signal {
	enabled := make([]Signal, 0, len(AllSignals))
	if c.Weights.Vector > 0 {
		enabled = append(enabled, SignalVector)
	}
	if c.Weights.Graph > 0 && c.UseEntityRelationships {
		enabled = append(enabled, SignalGraph)
	}
	if c.Weights.Entity > 0 {
		enabled = append(enabled, SignalEntity)
	}
	if c.Weights.Structural > 0 {
		enabled = append(enabled, SignalStructural)
	}
	return enabled
}

// BoostEnabled reports whether community boosting applies after
// aggregation.
func (c SearchConfig) BoostEnabled() bool {
	return c.UseCommunityDetection && c.UseCommunityBoost
}

// Validate checks the configuration once at startup. Malformed weights,
// thresholds or TTLs are reported here, never mid-query.
func (c SearchConfig) Validate() error {
	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid search config: %w", err)
	}

	enabled := c.EnabledSignals()
	if len(enabled) == 0 {
		return fmt.Errorf("invalid search config: no signal has a positive weight")
	}
	if _, err := c.Weights.Normalize(enabled); err != nil {
		return fmt.Errorf("invalid search config: %w", err)
	}

	if c.BoostEnabled() && c.CommunityBoostFactor <= 1 {
		return fmt.Errorf("invalid search config: community boost factor must be greater than 1, got %v", c.CommunityBoostFactor)
	}
	if c.CacheResults && (c.CacheTTLSeconds <= 0 || c.CacheMaxEntries <= 0) {
		return fmt.Errorf("invalid search config: caching requires a positive ttl and entry limit")
	}
	for _, signal := range enabled {
		if signal == SignalGraph && c.GraphMaxHops < 1 {
			return fmt.Errorf("invalid search config: graph signal requires graph_max_hops between 1 and 2")
		}
	}

	return nil
}
