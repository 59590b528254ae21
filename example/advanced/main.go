package main

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/hybridrank/hybridrank"
	"github.com/hybridrank/hybridrank/helper"
	"github.com/hybridrank/hybridrank/model"
)

// Toy embeddings over a fixed vocabulary, see example/basic.
var vocabulary = []string{"billing", "invoice", "payment", "shipping", "warehouse"}

func embed(text string) ([]float32, error) {
	lowered := strings.ToLower(text)
	embedding := make([]float32, len(vocabulary))
	for i, term := range vocabulary {
		embedding[i] = float32(strings.Count(lowered, term))
	}
	return embedding, nil
}

func main() {
	teardown, dbPort, err := helper.MustStartPostgresContainer()
	if err != nil {
		log.Fatalf("Failed to start PostgreSQL container: %v", err)
	}
	defer teardown(context.Background())

	dbConfig := &helper.DatabaseConfiguration{
		Host:     "localhost",
		Port:     dbPort,
		User:     "postgres",
		Password: "postgres",
		Name:     "hybridrank_test",
	}

	// Tune the ranking: emphasize the vector signal, boost candidates
	// from the communities that dominate the vector neighborhood and
	// cache results for repeated queries.
	config := model.DefaultSearchConfig()
	config.Weights = model.Weights{Vector: 0.5, Graph: 0.2, Entity: 0.2, Structural: 0.1}
	config.UseCommunityDetection = true
	config.UseCommunityBoost = true
	config.CommunityBoostFactor = 1.25
	config.CacheResults = true
	config.CacheTTLSeconds = 600

	h, err := hybridrank.New(dbConfig, config, len(vocabulary))
	if err != nil {
		log.Fatalf("Failed to create hybridrank: %v", err)
	}
	defer h.Close()

	if err := h.SetPipeline(embed, nil); err != nil {
		log.Fatalf("Failed to set pipeline: %v", err)
	}

	billing := 0
	logistics := 1
	candidates := []*model.Candidate{
		{
			ID:        "billing_overview",
			Text:      "The billing service issues an invoice after each successful payment.",
			Community: &billing,
			Entities:  []string{"billing", "invoice", "payment"},
			Edges:     []model.Edge{{TargetID: "billing_retry", Kind: model.EdgeKindSimilarTo, Weight: 0.9}},
		},
		{
			ID:        "billing_retry",
			Text:      "Failed payment attempts are retried before the invoice is cancelled.",
			Community: &billing,
			Entities:  []string{"payment", "invoice"},
		},
		{
			ID:        "shipping_overview",
			Text:      "The shipping service picks orders from the warehouse.",
			Community: &logistics,
			Entities:  []string{"shipping", "warehouse"},
		},
	}

	for _, candidate := range candidates {
		embedding, _ := embed(candidate.Text)
		candidate.Embedding = embedding
		if err := h.InsertCandidate(candidate); err != nil {
			log.Fatalf("Failed to insert candidate %s: %v", candidate.ID, err)
		}
	}

	// Switch the vector index to IVFFlat, useful for larger stores
	if err := h.ChangeIndexType(context.Background(), "ivfflat", map[string]interface{}{"lists": 10}); err != nil {
		log.Fatalf("Failed to change index type: %v", err)
	}

	query := "How does the billing service handle a failed payment invoice?"

	start := time.Now()
	results, err := h.Search(context.Background(), query)
	if err != nil {
		log.Fatalf("Search failed: %v", err)
	}
	coldDuration := time.Since(start)

	for i, result := range results {
		boosted := ""
		if result.Boosted {
			boosted = " (community boosted)"
		}
		fmt.Printf("%d. %s score %.3f%s\n", i+1, result.Candidate.ID, result.Score, boosted)
	}

	// The second identical query is served from the result cache
	start = time.Now()
	_, err = h.Search(context.Background(), query)
	if err != nil {
		log.Fatalf("Cached search failed: %v", err)
	}
	fmt.Printf("\ncold query: %v, cached query: %v\n", coldDuration, time.Since(start))
}
