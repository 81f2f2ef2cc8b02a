package pipeline

import (
	"fmt"

	"github.com/knights-analytics/hugot"

	"github.com/docuquery/docuquery/helper"
)

// DefaultEmbedder creates an embedder using a sentence transformer
// model. The returned function is safe for concurrent use.
func DefaultEmbedder(modelName string, embeddingDim int) (EmbedFunc, error) {
	modelPath, err := helper.PrepareModel(modelName, "")
	if err != nil {
		return nil, err
	}

	// Initialize hugot session with Go backend
	session, err := hugot.NewGoSession()
	if err != nil {
		return nil, fmt.Errorf("failed to create hugot session: %w", err)
	}

	config := hugot.FeatureExtractionConfig{
		ModelPath: modelPath,
		Name:      "embedder-pipeline",
	}
	sentencePipeline, err := hugot.NewPipeline(session, config)
	if err != nil {
		if destroyErr := session.Destroy(); destroyErr != nil {
			return nil, fmt.Errorf("failed to create sentence pipeline: %w (cleanup error: %v)", err, destroyErr)
		}
		return nil, fmt.Errorf("failed to create sentence pipeline: %w", err)
	}

	return func(text string) ([]float32, error) {
		result, err := sentencePipeline.RunPipeline([]string{text})
		if err != nil {
			return nil, fmt.Errorf("failed to generate embedding: %w", err)
		}

		if len(result.Embeddings) == 0 {
			return nil, fmt.Errorf("no embedding generated")
		}

		embedding := result.Embeddings[0]
		err = ValidateEmbedding(embedding, embeddingDim)
		if err != nil {
			return nil, err
		}

		return embedding, nil
	}, nil
}

// ValidateEmbedding checks that an embedding is a flat vector of the
// expected dimensionality. A length mismatch is an error, never a
// silent truncation.
func ValidateEmbedding(embedding []float32, embeddingDim int) error {
	if len(embedding) != embeddingDim {
		return fmt.Errorf("embedding has %d dimensions, expected %d", len(embedding), embeddingDim)
	}
	return nil
}
