// Package retrieval orchestrates hybrid retrieval: query construction,
// candidate fetching, weighted signal aggregation and result caching.
package retrieval

import (
	"context"
	"log/slog"
	"time"

	"github.com/hybridrank/hybridrank/cache"
	"github.com/hybridrank/hybridrank/core/ranking"
	"github.com/hybridrank/hybridrank/helper"
	"github.com/hybridrank/hybridrank/model"
)

// CandidateSource fetches the candidate snapshot for a query. The
// returned candidates are read-only for the duration of the query.
type CandidateSource interface {
	FetchCandidates(ctx context.Context, query *model.Query, limit int) ([]*model.Candidate, error)
}

// EmbedFunc derives the dense vector representation of a text.
type EmbedFunc func(text string) ([]float32, error)

// EntityExtractFunc derives the named entities of a text.
type EntityExtractFunc func(text string) ([]string, error)

// Engine is the retrieval query engine. It owns no candidate data; the
// cache and the once-validated configuration are its only state.
type Engine struct {
	source     CandidateSource
	embed      EmbedFunc
	entities   EntityExtractFunc
	aggregator *ranking.Aggregator
	cache      *cache.ResultCache
	config     model.SearchConfig
	log        *slog.Logger
	metrics    model.Metrics
}

// NewEngine creates a new retrieval engine. The configuration is
// validated here once; a malformed configuration fails construction
// with ErrInvalidConfiguration and is never reported mid-query.
func NewEngine(source CandidateSource, embed EmbedFunc, entities EntityExtractFunc, config model.SearchConfig, logger *slog.Logger, metrics model.Metrics) (*Engine, error) {
	if metrics == nil {
		metrics = model.NopMetrics{}
	}

	if err := config.Validate(); err != nil {
		return nil, helper.NewError("validate config", joinErr(ErrInvalidConfiguration, err))
	}

	aggregator, err := ranking.NewAggregator(config, logger, metrics)
	if err != nil {
		return nil, helper.NewError("create aggregator", joinErr(ErrInvalidConfiguration, err))
	}

	engine := &Engine{
		source:     source,
		embed:      embed,
		entities:   entities,
		aggregator: aggregator,
		config:     config,
		log:        logger,
		metrics:    metrics,
	}
	if config.CacheResults {
		engine.cache = cache.NewResultCache(config.CacheMaxEntries, config.CacheTTL(), logger, metrics)
	}

	return engine, nil
}

// Retrieve ranks the knowledge items relevant to a query text and
// returns them ordered by aggregate score. A query that matches no
// candidates returns an empty, successful result set; only an
// unreachable candidate source surfaces as a failure.
func (e *Engine) Retrieve(ctx context.Context, queryText string) ([]*model.ScoredResult, error) {
	start := time.Now()
	defer func() {
		e.metrics.ObserveQueryLatency(time.Since(start))
	}()

	query, err := e.buildQuery(queryText)
	if err != nil {
		return nil, err
	}

	fingerprint := Fingerprint(queryText, e.config, e.aggregator.NormalizedWeights())

	compute := func(ctx context.Context) ([]*model.ScoredResult, error) {
		return e.fetchAndAggregate(ctx, query)
	}

	if e.cache == nil {
		results, err := compute(ctx)
		if err != nil {
			return nil, markTimeout(err)
		}
		return results, nil
	}

	results, err := e.cache.GetOrCompute(ctx, fingerprint, compute)
	if err != nil {
		return nil, markTimeout(err)
	}
	return results, nil
}

// Summary returns the summary statistics of a result set.
func (e *Engine) Summary(results []*model.ScoredResult) model.Summary {
	return model.Summarize(results)
}

// buildQuery derives the query representations from the collaborators.
// A failing embedder makes the query unservable; a failing entity
// extractor only degrades the entity signal.
func (e *Engine) buildQuery(queryText string) (*model.Query, error) {
	query := &model.Query{
		Text:      queryText,
		SectionID: ExtractSectionID(queryText),
	}

	if e.embed != nil {
		embedding, err := e.embed(queryText)
		if err != nil {
			return nil, helper.NewError("embed query", joinErr(ErrRetrievalUnavailable, err))
		}
		query.Embedding = embedding
	}

	if e.entities != nil {
		entities, err := e.entities(queryText)
		if err != nil {
			e.metrics.SignalDegraded(model.SignalEntity)
			e.log.Warn("query entity extraction failed", slog.String("error", err.Error()))
		} else {
			query.Entities = entities
		}
	}

	return query, nil
}

func (e *Engine) fetchAndAggregate(ctx context.Context, query *model.Query) ([]*model.ScoredResult, error) {
	limit := e.config.MaxResults * e.config.FetchFactor

	candidates, err := e.source.FetchCandidates(ctx, query, limit)
	if err != nil {
		return nil, helper.NewError("fetch candidates", joinErr(ErrRetrievalUnavailable, err))
	}

	results, err := e.aggregator.Aggregate(ctx, query, candidates)
	if err != nil {
		return nil, helper.NewError("aggregate", err)
	}

	e.log.Debug("query aggregated",
		slog.Int("candidates", len(candidates)),
		slog.Int("results", len(results)),
	)

	return results, nil
}
