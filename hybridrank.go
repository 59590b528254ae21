package hybridrank

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/hybridrank/hybridrank/core/pipeline"
	"github.com/hybridrank/hybridrank/core/retrieval"
	"github.com/hybridrank/hybridrank/database"
	"github.com/hybridrank/hybridrank/helper"
	"github.com/hybridrank/hybridrank/model"
	loadSql "github.com/hybridrank/hybridrank/sql"
)

// HybridRank provides a unified interface to the candidate store and
// the retrieval engine
type HybridRank struct {
	DB         *helper.Database
	Candidates *database.CandidatesDBHandler
	Engine     *retrieval.Engine
	// Query-side collaborators, optional until a pipeline is set
	embed    retrieval.EmbedFunc
	entities retrieval.EntityExtractFunc
	// Owned pipeline resources, released on Close
	closers []func() error
	// Ranking configuration, validated on engine construction
	config  model.SearchConfig
	metrics model.Metrics
	// Logging
	log *slog.Logger
}

// New creates a new HybridRank instance backed by a PostgreSQL
// candidate store. The engine starts without embedder and entity
// extractor; use SetPipeline or UseDefaultPipeline to add them.
func New(dbConfig *helper.DatabaseConfiguration, searchConfig model.SearchConfig, embeddingDim int) (*HybridRank, error) {
	// Logger
	opts := helper.PrettyHandlerOptions{
		SlogOpts: slog.HandlerOptions{
			Level: slog.LevelInfo,
		},
	}
	logger := slog.New(helper.NewPrettyHandler(os.Stdout, opts))

	// Initialize database
	db := helper.NewDatabase("hybridrank", dbConfig, logger)
	err := loadSql.Init(db.Instance)
	if err != nil {
		return nil, helper.NewError("initialize database extensions", err)
	}

	// force=false to not reload if functions already exist
	candidates, err := database.NewCandidatesDBHandler(db, embeddingDim, false)
	if err != nil {
		return nil, helper.NewError("create candidates handler", err)
	}

	h := &HybridRank{
		DB:         db,
		Candidates: candidates,
		config:     searchConfig,
		metrics:    model.NopMetrics{},
		log:        logger,
	}

	err = h.rebuildEngine()
	if err != nil {
		return nil, err
	}

	return h, nil
}

// Close releases the owned pipeline models and closes the database
// connection
func (h *HybridRank) Close() error {
	var firstErr error
	for _, close := range h.closers {
		if err := close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	h.closers = nil

	if h.DB != nil && h.DB.Instance != nil {
		if err := h.DB.Instance.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// SetMetrics sets the metrics collaborator for the engine
func (h *HybridRank) SetMetrics(metrics model.Metrics) error {
	if metrics == nil {
		metrics = model.NopMetrics{}
	}
	h.metrics = metrics
	return h.rebuildEngine()
}

// SetPipeline sets the embedder and entity extractor used for incoming
// query texts. Either may be nil, which disables the corresponding
// query representation.
func (h *HybridRank) SetPipeline(embed retrieval.EmbedFunc, entities retrieval.EntityExtractFunc) error {
	h.embed = embed
	h.entities = entities
	return h.rebuildEngine()
}

// UseDefaultPipeline sets up the default embedding and entity
// extraction pipeline. This uses DefaultEmbedder with the
// all-MiniLM-L6-v2 model (384 dimensions) and DefaultEntityExtractor
// with the distilbert-NER model.
func (h *HybridRank) UseDefaultPipeline() error {
	embedder, err := pipeline.DefaultEmbedder()
	if err != nil {
		return helper.NewError("create default embedder", err)
	}

	extractor, err := pipeline.DefaultEntityExtractor()
	if err != nil {
		if closeErr := embedder.Close(); closeErr != nil {
			h.log.Warn("failed to close embedder", slog.String("error", closeErr.Error()))
		}
		return helper.NewError("create default entity extractor", err)
	}

	h.closers = append(h.closers, embedder.Close, extractor.Close)
	return h.SetPipeline(embedder.Embed, extractor.Entities)
}

// Search ranks the stored candidates against a query text and returns
// them ordered by aggregate score
func (h *HybridRank) Search(ctx context.Context, query string) ([]*model.ScoredResult, error) {
	if h.Engine == nil {
		return nil, helper.NewError("search", fmt.Errorf("retrieval engine not initialized"))
	}
	return h.Engine.Retrieve(ctx, query)
}

// Summary returns the summary statistics of a result set
func (h *HybridRank) Summary(results []*model.ScoredResult) model.Summary {
	return model.Summarize(results)
}

// InsertCandidate inserts a candidate with its outgoing edges into the
// store
func (h *HybridRank) InsertCandidate(candidate *model.Candidate) error {
	return h.Candidates.InsertCandidate(candidate)
}

// DeleteCandidate removes a candidate and its outgoing edges
func (h *HybridRank) DeleteCandidate(id string) error {
	return h.Candidates.DeleteCandidate(id)
}

// ChangeIndexType changes the vector index type between HNSW and IVFFlat
func (h *HybridRank) ChangeIndexType(ctx context.Context, indexType string, params map[string]interface{}) error {
	return h.Candidates.ChangeIndexType(ctx, indexType, params)
}

func (h *HybridRank) rebuildEngine() error {
	engine, err := retrieval.NewEngine(h.Candidates, h.embed, h.entities, h.config, h.log, h.metrics)
	if err != nil {
		return err
	}
	h.Engine = engine
	return nil
}
