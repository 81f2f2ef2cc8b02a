package model

// PipelineConfig configures the ingestion pipeline
type PipelineConfig struct {
	// ChunkTokenBudget is the maximum token count per chunk. The
	// single word that triggers a flush may push the following chunk
	// over the budget by itself.
	ChunkTokenBudget int
	// EmbeddingDim is the fixed dimensionality of the embedding
	// model. Embeddings of any other length are rejected.
	EmbeddingDim int
	// EmbeddingModel is the huggingface model used for embeddings
	EmbeddingModel string
	// NERModel is the huggingface model used for entity recognition
	NERModel string
	// Workers is the embedding worker pool size, 0 for a default
	// derived from the CPU count.
	Workers int
}

// DefaultPipelineConfig returns the default pipeline configuration
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		ChunkTokenBudget: 500,
		EmbeddingDim:     384,
		EmbeddingModel:   "sentence-transformers/all-MiniLM-L6-v2",
		NERModel:         "KnightsAnalytics/distilbert-NER",
		Workers:          0,
	}
}
