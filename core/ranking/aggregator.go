// Package ranking combines the per-signal scores of a candidate set
// into one ordered, filtered result list.
package ranking

import (
	"context"
	"log/slog"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/hybridrank/hybridrank/core/graph"
	"github.com/hybridrank/hybridrank/core/scoring"
	"github.com/hybridrank/hybridrank/helper"
	"github.com/hybridrank/hybridrank/model"
)

// Aggregator combines the enabled signal scores into one ranked score
// per candidate with the normalized configured weights.
type Aggregator struct {
	config     model.SearchConfig
	enabled    []model.Signal
	normalized map[model.Signal]float64
	booster    *CommunityBooster
	log        *slog.Logger
	metrics    model.Metrics
}

// NewAggregator creates an aggregator for a validated configuration.
// Weight normalization happens once here; an all-zero enabled weight
// set fails fast before any candidate is scored.
func NewAggregator(config model.SearchConfig, logger *slog.Logger, metrics model.Metrics) (*Aggregator, error) {
	enabled := config.EnabledSignals()
	normalized, err := config.Weights.Normalize(enabled)
	if err != nil {
		return nil, helper.NewError("normalize weights", err)
	}

	aggregator := &Aggregator{
		config:     config,
		enabled:    enabled,
		normalized: normalized,
		log:        logger,
		metrics:    metrics,
	}
	if config.BoostEnabled() {
		aggregator.booster = NewCommunityBooster(config.CommunityBoostFactor)
	}

	return aggregator, nil
}

// EnabledSignals returns the signals participating in aggregation.
func (a *Aggregator) EnabledSignals() []model.Signal {
	return a.enabled
}

// NormalizedWeights returns the per-signal weights after normalization.
func (a *Aggregator) NormalizedWeights() map[model.Signal]float64 {
	return a.normalized
}

// Aggregate scores, boosts, filters and orders a candidate snapshot for
// one query. An empty candidate set returns an empty, ordered sequence.
// Signal scoring runs concurrently across candidates; a scorer failure
// for one candidate degrades that signal to 0 instead of failing the
// query.
func (a *Aggregator) Aggregate(ctx context.Context, query *model.Query, candidates []*model.Candidate) ([]*model.ScoredResult, error) {
	if len(candidates) == 0 {
		return []*model.ScoredResult{}, nil
	}

	adjacency := graph.NewAdjacency(candidates)
	vectorScores, err := a.rawVectorScores(ctx, query, candidates)
	if err != nil {
		return nil, err
	}

	// Pre-filter on raw vector similarity, also the relevance set for
	// the graph signal.
	relevant := make(map[string]bool, len(candidates))
	pool := make([]*model.Candidate, 0, len(candidates))
	for _, candidate := range candidates {
		if vectorScores[candidate.ID] >= a.config.SimilarityThreshold {
			relevant[candidate.ID] = true
			pool = append(pool, candidate)
		}
	}

	scorers := a.buildScorers(adjacency, relevant)

	results := make([]*model.ScoredResult, len(pool))
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(runtime.GOMAXPROCS(0))
	for i, candidate := range pool {
		group.Go(func() error {
			if err := groupCtx.Err(); err != nil {
				return err
			}
			results[i] = a.scoreCandidate(query, candidate, scorers, vectorScores)
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	// Community boost runs strictly after aggregation
	if a.booster != nil {
		communities := a.booster.RelevantCommunities(candidates, vectorScores, a.config.MaxResults)
		for _, result := range results {
			result.Score, result.Boosted = a.booster.Boost(result.Score, result.Candidate, communities)
		}
	}

	for _, result := range results {
		result.Explanation = explain(result, a.normalized, a.config.CommunityBoostFactor)
	}

	filtered := make([]*model.ScoredResult, 0, len(results))
	for _, result := range results {
		if result.Score >= a.config.MinScore {
			filtered = append(filtered, result)
		}
	}

	// Deterministic ordering: score descending, ties by identifier
	sort.Slice(filtered, func(i, j int) bool {
		if filtered[i].Score != filtered[j].Score {
			return filtered[i].Score > filtered[j].Score
		}
		return filtered[i].Candidate.ID < filtered[j].Candidate.ID
	})

	if len(filtered) > a.config.MaxResults {
		filtered = filtered[:a.config.MaxResults]
	}

	return filtered, nil
}

// rawVectorScores computes the raw vector similarity of every candidate
// concurrently. The raw scores feed the pre-filter, the graph relevance
// set and the community booster even when the vector signal itself is
// disabled.
func (a *Aggregator) rawVectorScores(ctx context.Context, query *model.Query, candidates []*model.Candidate) (map[string]float64, error) {
	scorer := scoring.NewVectorScorer()
	scores := make([]float64, len(candidates))

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(runtime.GOMAXPROCS(0))
	for i, candidate := range candidates {
		group.Go(func() error {
			if err := groupCtx.Err(); err != nil {
				return err
			}
			score, err := scorer.Score(query, candidate)
			if err != nil {
				a.degrade(model.SignalVector, candidate.ID, err)
				score = 0
			}
			scores[i] = score
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	byID := make(map[string]float64, len(candidates))
	for i, candidate := range candidates {
		byID[candidate.ID] = scores[i]
	}
	return byID, nil
}

func (a *Aggregator) buildScorers(adjacency *graph.Adjacency, relevant map[string]bool) []scoring.Scorer {
	scorers := make([]scoring.Scorer, 0, len(a.enabled))
	for _, signal := range a.enabled {
		switch signal {
		case model.SignalVector:
			scorers = append(scorers, scoring.NewVectorScorer())
		case model.SignalGraph:
			scorers = append(scorers, scoring.NewGraphScorer(adjacency, relevant, a.config.GraphMaxHops))
		case model.SignalEntity:
			scorers = append(scorers, scoring.NewEntityScorer())
		case model.SignalStructural:
			scorers = append(scorers, scoring.NewStructuralScorer())
		}
	}
	return scorers
}

func (a *Aggregator) scoreCandidate(query *model.Query, candidate *model.Candidate, scorers []scoring.Scorer, vectorScores map[string]float64) *model.ScoredResult {
	signals := make(map[model.Signal]float64, len(scorers))
	aggregate := 0.0

	for _, scorer := range scorers {
		var score float64
		var err error
		if scorer.Kind() == model.SignalVector {
			// Already computed for the pre-filter
			score = vectorScores[candidate.ID]
		} else {
			score, err = scorer.Score(query, candidate)
		}
		if err != nil {
			a.degrade(scorer.Kind(), candidate.ID, err)
			score = 0
		}

		signals[scorer.Kind()] = score
		aggregate += a.normalized[scorer.Kind()] * score
	}

	if aggregate > 1.0 {
		aggregate = 1.0
	}

	return &model.ScoredResult{
		Candidate: candidate,
		Score:     aggregate,
		Signals:   signals,
	}
}

// degrade records a failed signal computation for one candidate. The
// query continues with a 0 score for that signal.
func (a *Aggregator) degrade(signal model.Signal, candidateID string, err error) {
	a.metrics.SignalDegraded(signal)
	a.log.Warn("signal computation degraded",
		slog.String("signal", string(signal)),
		slog.String("candidate", candidateID),
		slog.String("error", err.Error()),
	)
}
