package pipeline

import (
	"fmt"
	"strings"

	"github.com/knights-analytics/hugot"
	"github.com/knights-analytics/hugot/pipelines"

	"github.com/hybridrank/hybridrank/helper"
)

// EntityExtractor recognizes named entities with a local NER model. It
// owns its hugot session; Close releases the model resources.
type EntityExtractor struct {
	session  *hugot.Session
	pipeline *pipelines.TokenClassificationPipeline
}

// DefaultEntityExtractor creates an entity extractor backed by the
// distilbert-NER model. The model is downloaded on first use.
func DefaultEntityExtractor() (*EntityExtractor, error) {
	modelName := "KnightsAnalytics/distilbert-NER"
	modelPath, err := helper.PrepareModel(modelName, "model.onnx")
	if err != nil {
		return nil, err
	}

	session, err := hugot.NewGoSession()
	if err != nil {
		return nil, fmt.Errorf("failed to create hugot session: %w", err)
	}

	config := hugot.TokenClassificationConfig{
		ModelPath: modelPath,
		Name:      "ner-pipeline",
		Options: []hugot.TokenClassificationOption{
			pipelines.WithSimpleAggregation(),
			pipelines.WithIgnoreLabels([]string{"O"}),
		},
	}
	nerPipeline, err := hugot.NewPipeline(session, config)
	if err != nil {
		if destroyErr := session.Destroy(); destroyErr != nil {
			return nil, fmt.Errorf("failed to create NER pipeline: %w (cleanup error: %v)", err, destroyErr)
		}
		return nil, fmt.Errorf("failed to create NER pipeline: %w", err)
	}

	return &EntityExtractor{session: session, pipeline: nerPipeline}, nil
}

// Entities returns the entity surfaces of a text, deduplicated
// case-insensitively and in input order. It satisfies EntityExtractFunc
// as a method value.
func (x *EntityExtractor) Entities(text string) ([]string, error) {
	result, err := x.pipeline.RunPipeline([]string{text})
	if err != nil {
		return nil, fmt.Errorf("failed to run NER: %w", err)
	}

	if len(result.Entities) == 0 {
		return nil, nil
	}

	seen := make(map[string]bool)
	var entities []string
	for _, entity := range result.Entities[0] {
		surface := strings.TrimSpace(entity.Word)
		if surface == "" || seen[strings.ToLower(surface)] {
			continue
		}
		seen[strings.ToLower(surface)] = true
		entities = append(entities, surface)
	}

	return entities, nil
}

// Close destroys the underlying session and frees the model.
func (x *EntityExtractor) Close() error {
	return x.session.Destroy()
}
