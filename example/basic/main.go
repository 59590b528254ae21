package main

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/hybridrank/hybridrank"
	"github.com/hybridrank/hybridrank/helper"
	"github.com/hybridrank/hybridrank/model"
)

// Toy embeddings over a fixed vocabulary, good enough to demonstrate
// the ranking behaviour without downloading a model.
var vocabulary = []string{"gateway", "session", "cache", "database"}

func embed(text string) ([]float32, error) {
	lowered := strings.ToLower(text)
	embedding := make([]float32, len(vocabulary))
	for i, term := range vocabulary {
		if strings.Contains(lowered, term) {
			embedding[i] = 1
		}
	}
	return embedding, nil
}

func extractEntities(text string) ([]string, error) {
	lowered := strings.ToLower(text)
	var entities []string
	for _, term := range vocabulary {
		if strings.Contains(lowered, term) {
			entities = append(entities, term)
		}
	}
	return entities, nil
}

func main() {
	// Start a test PostgreSQL container
	teardown, dbPort, err := helper.MustStartPostgresContainer()
	if err != nil {
		log.Fatalf("Failed to start PostgreSQL container: %v", err)
	}
	defer teardown(context.Background())

	// Create database configuration using the container port
	dbConfig := &helper.DatabaseConfiguration{
		Host:     "localhost",
		Port:     dbPort,
		User:     "postgres",
		Password: "postgres",
		Name:     "hybridrank_test",
	}

	h, err := hybridrank.New(dbConfig, model.DefaultSearchConfig(), len(vocabulary))
	if err != nil {
		log.Fatalf("Failed to create hybridrank: %v", err)
	}
	defer h.Close()

	if err := h.SetPipeline(embed, extractEntities); err != nil {
		log.Fatalf("Failed to set pipeline: %v", err)
	}

	candidates := []*model.Candidate{
		{
			ID:        "arch_3.2.1",
			Text:      "3.2.1 The gateway authenticates incoming requests before routing.",
			Source:    "architecture.md",
			SectionID: "3.2.1",
			Entities:  []string{"gateway"},
			Edges:     []model.Edge{{TargetID: "arch_3.2.2", Kind: model.EdgeKindNext, Weight: 1.0}},
			Metadata:  model.Metadata{"kind": "requirement"},
		},
		{
			ID:        "arch_3.2.2",
			Text:      "3.2.2 The gateway forwards authenticated requests to the session service.",
			Source:    "architecture.md",
			SectionID: "3.2.2",
			Entities:  []string{"gateway", "session"},
			Edges:     []model.Edge{{TargetID: "arch_4.1", Kind: model.EdgeKindSharesEntities, Weight: 0.7}},
			Metadata:  model.Metadata{"kind": "requirement"},
		},
		{
			ID:        "arch_4.1",
			Text:      "4.1 The session service keeps tokens in a cache backed by the database.",
			Source:    "architecture.md",
			SectionID: "4.1",
			Entities:  []string{"session", "cache", "database"},
			Metadata:  model.Metadata{"kind": "requirement"},
		},
	}

	for _, candidate := range candidates {
		embedding, _ := embed(candidate.Text)
		candidate.Embedding = embedding
		if err := h.InsertCandidate(candidate); err != nil {
			log.Fatalf("Failed to insert candidate %s: %v", candidate.ID, err)
		}
	}

	query := "Which component of section 3.2.2 handles gateway sessions?"
	results, err := h.Search(context.Background(), query)
	if err != nil {
		log.Fatalf("Search failed: %v", err)
	}

	fmt.Printf("Query: %s\n\n", query)
	for i, result := range results {
		fmt.Printf("%d. %s (score %.3f)\n", i+1, result.Candidate.ID, result.Score)
		for _, line := range result.Explanation {
			fmt.Printf("   %s\n", line)
		}
	}

	summary := h.Summary(results)
	fmt.Printf("\n%d results, average score %.3f, max score %.3f\n", summary.TotalResults, summary.AverageScore, summary.MaxScore)
}
