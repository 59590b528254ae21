package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/hybridrank/hybridrank/helper"
	"github.com/hybridrank/hybridrank/model"
	loadSql "github.com/hybridrank/hybridrank/sql"
	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"
)

// CandidatesDBHandlerFunctions defines the interface for candidate database operations.
type CandidatesDBHandlerFunctions interface {
	InsertCandidate(candidate *model.Candidate) error
	InsertEdge(sourceID string, edge model.Edge) error
	DeleteCandidate(id string) error
	SelectCandidate(id string) (*model.Candidate, error)
	SelectAllCandidates(limit int) ([]*model.Candidate, error)
	SelectCandidatesBySimilarity(embedding []float32, limit int) ([]*model.Candidate, error)
	FetchCandidates(ctx context.Context, query *model.Query, limit int) ([]*model.Candidate, error)
}

// CandidatesDBHandler handles candidate-related database operations
type CandidatesDBHandler struct {
	db *helper.Database
}

// NewCandidatesDBHandler creates a new candidates database handler.
// It initializes the database connection and loads candidate-related SQL functions.
// If force is true, it will reload the SQL functions even if they already exist.
func NewCandidatesDBHandler(db *helper.Database, embeddingDim int, force bool) (*CandidatesDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	candidatesDbHandler := &CandidatesDBHandler{
		db: db,
	}

	err := loadSql.LoadCandidatesSql(candidatesDbHandler.db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load candidates sql", err)
	}

	err = candidatesDbHandler.CreateTable(embeddingDim)
	if err != nil {
		return nil, helper.NewError("create table", err)
	}

	db.Logger.Info("Initialized CandidatesDBHandler")

	return candidatesDbHandler, nil
}

// CreateTable creates the 'candidates' and 'candidate_edges' tables in the database.
// If the tables already exist, it does not create them again.
// It also creates all necessary extensions and indexes.
func (h *CandidatesDBHandler) CreateTable(embeddingDim int) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Use the SQL init_candidates() function to create all tables and indexes
	_, err := h.db.Instance.ExecContext(ctx, `SELECT init_candidates($1);`, embeddingDim)
	if err != nil {
		log.Panicf("error initializing candidates table: %#v", err)
	}

	h.db.Logger.Info("Checked/created table candidates")

	return nil
}

// InsertCandidate inserts a new candidate and its outgoing edges
func (h *CandidatesDBHandler) InsertCandidate(candidate *model.Candidate) error {
	var embeddingParam interface{}
	if len(candidate.Embedding) > 0 {
		embeddingParam = pq.Array(candidate.Embedding)
	}

	row := h.db.Instance.QueryRow(
		`SELECT * FROM insert_candidate($1, $2, $3, $4, $5, $6, $7, $8)`,
		candidate.ID,
		candidate.Text,
		candidate.Source,
		candidate.SectionID,
		candidate.Community,
		embeddingParam,
		pq.Array(candidate.Entities),
		candidate.Metadata,
	)

	var dbID int
	err := row.Scan(
		&dbID,
		&candidate.RID,
		&candidate.ID,
		&candidate.Text,
		&candidate.Source,
		&candidate.SectionID,
		&candidate.Community,
		pq.Array(&candidate.Entities),
		&candidate.Metadata,
		&candidate.CreatedAt,
	)
	if err != nil {
		return helper.NewError("scan", err)
	}

	for _, edge := range candidate.Edges {
		err := h.InsertEdge(candidate.ID, edge)
		if err != nil {
			return helper.NewError("insert edge", err)
		}
	}

	return nil
}

// InsertEdge inserts or updates a directed edge between two candidates
func (h *CandidatesDBHandler) InsertEdge(sourceID string, edge model.Edge) error {
	var edgeID int
	err := h.db.Instance.QueryRow(
		`SELECT * FROM insert_candidate_edge($1, $2, $3, $4)`,
		sourceID,
		edge.TargetID,
		string(edge.Kind),
		edge.Weight,
	).Scan(&edgeID)
	if err != nil {
		return helper.NewError("scan", err)
	}
	return nil
}

// DeleteCandidate deletes a candidate and its outgoing edges by ID
func (h *CandidatesDBHandler) DeleteCandidate(id string) error {
	_, err := h.db.Instance.Exec(
		`SELECT delete_candidate($1)`,
		id,
	)
	if err != nil {
		return helper.NewError("exec", err)
	}
	return nil
}

// SelectCandidate retrieves a candidate by ID including its outgoing edges
func (h *CandidatesDBHandler) SelectCandidate(id string) (*model.Candidate, error) {
	row := h.db.Instance.QueryRow(
		`SELECT * FROM select_candidate($1)`,
		id,
	)

	candidate := &model.Candidate{}
	var dbID int
	err := row.Scan(
		&dbID,
		&candidate.RID,
		&candidate.ID,
		&candidate.Text,
		&candidate.Source,
		&candidate.SectionID,
		&candidate.Community,
		pq.Array(&candidate.Embedding),
		pq.Array(&candidate.Entities),
		&candidate.Metadata,
		&candidate.CreatedAt,
	)
	if err != nil {
		return nil, helper.NewError("scan", err)
	}

	err = h.attachEdges(context.Background(), []*model.Candidate{candidate})
	if err != nil {
		return nil, err
	}

	return candidate, nil
}

// SelectAllCandidates retrieves candidates ordered by ID
func (h *CandidatesDBHandler) SelectAllCandidates(limit int) ([]*model.Candidate, error) {
	return h.selectAllCandidates(context.Background(), limit)
}

func (h *CandidatesDBHandler) selectAllCandidates(ctx context.Context, limit int) ([]*model.Candidate, error) {
	rows, err := h.db.Instance.QueryContext(
		ctx,
		`SELECT * FROM select_all_candidates($1)`,
		limit,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var candidates []*model.Candidate
	for rows.Next() {
		candidate := &model.Candidate{}
		var dbID int
		err := rows.Scan(
			&dbID,
			&candidate.RID,
			&candidate.ID,
			&candidate.Text,
			&candidate.Source,
			&candidate.SectionID,
			&candidate.Community,
			pq.Array(&candidate.Embedding),
			pq.Array(&candidate.Entities),
			&candidate.Metadata,
			&candidate.CreatedAt,
		)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}

		candidates = append(candidates, candidate)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return candidates, nil
}

// SelectCandidatesBySimilarity performs vector similarity search
func (h *CandidatesDBHandler) SelectCandidatesBySimilarity(embedding []float32, limit int) ([]*model.Candidate, error) {
	return h.selectCandidatesBySimilarity(context.Background(), embedding, limit)
}

func (h *CandidatesDBHandler) selectCandidatesBySimilarity(ctx context.Context, embedding []float32, limit int) ([]*model.Candidate, error) {
	rows, err := h.db.Instance.QueryContext(
		ctx,
		`SELECT * FROM select_candidates_by_similarity($1, $2)`,
		pgvector.NewVector(embedding),
		limit,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var candidates []*model.Candidate
	for rows.Next() {
		candidate := &model.Candidate{}
		var dbID int
		var similarity float64
		err := rows.Scan(
			&dbID,
			&candidate.RID,
			&candidate.ID,
			&candidate.Text,
			&candidate.Source,
			&candidate.SectionID,
			&candidate.Community,
			pq.Array(&candidate.Embedding),
			pq.Array(&candidate.Entities),
			&candidate.Metadata,
			&candidate.CreatedAt,
			&similarity,
		)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}

		candidates = append(candidates, candidate)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return candidates, nil
}

// FetchCandidates retrieves the candidate pool for one query. With a query
// embedding present it preselects the nearest candidates by cosine distance,
// otherwise it falls back to all stored candidates up to the limit. Outgoing
// edges are attached so graph scoring can run in memory.
func (h *CandidatesDBHandler) FetchCandidates(ctx context.Context, query *model.Query, limit int) ([]*model.Candidate, error) {
	var candidates []*model.Candidate
	var err error
	if len(query.Embedding) > 0 {
		candidates, err = h.selectCandidatesBySimilarity(ctx, query.Embedding, limit)
	} else {
		candidates, err = h.selectAllCandidates(ctx, limit)
	}
	if err != nil {
		return nil, err
	}

	err = h.attachEdges(ctx, candidates)
	if err != nil {
		return nil, err
	}

	return candidates, nil
}

// attachEdges loads the outgoing edges for all given candidates in one query
func (h *CandidatesDBHandler) attachEdges(ctx context.Context, candidates []*model.Candidate) error {
	if len(candidates) == 0 {
		return nil
	}

	byID := make(map[string]*model.Candidate, len(candidates))
	keys := make([]string, 0, len(candidates))
	for _, candidate := range candidates {
		candidate.Edges = nil
		byID[candidate.ID] = candidate
		keys = append(keys, candidate.ID)
	}

	rows, err := h.db.Instance.QueryContext(
		ctx,
		`SELECT * FROM select_candidate_edges($1)`,
		pq.Array(keys),
	)
	if err != nil {
		return helper.NewError("query", err)
	}
	defer rows.Close()

	for rows.Next() {
		var sourceKey string
		edge := model.Edge{}
		err := rows.Scan(
			&sourceKey,
			&edge.TargetID,
			(*string)(&edge.Kind),
			&edge.Weight,
		)
		if err != nil {
			return helper.NewError("scan", err)
		}

		if candidate, ok := byID[sourceKey]; ok {
			candidate.Edges = append(candidate.Edges, edge)
		}
	}

	err = rows.Err()
	if err != nil {
		return helper.NewError("rows error", err)
	}

	return nil
}
