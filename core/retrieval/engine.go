package retrieval

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/docuquery/docuquery/core/pipeline"
	"github.com/docuquery/docuquery/database"
	"github.com/docuquery/docuquery/model"
)

// Engine dispatches search requests to the four retrieval modes.
// The embedder is injected once at construction and shared by all
// concurrent searches.
type Engine struct {
	documents     database.DocumentsDBHandlerFunctions
	chunks        database.ChunksDBHandlerFunctions
	entities      database.EntitiesDBHandlerFunctions
	relationships database.RelationshipsDBHandlerFunctions
	embed         pipeline.EmbedFunc
	embeddingDim  int
	logger        *slog.Logger
}

// NewEngine creates a new retrieval engine
func NewEngine(
	documents database.DocumentsDBHandlerFunctions,
	chunks database.ChunksDBHandlerFunctions,
	entities database.EntitiesDBHandlerFunctions,
	relationships database.RelationshipsDBHandlerFunctions,
	embed pipeline.EmbedFunc,
	embeddingDim int,
	logger *slog.Logger,
) (*Engine, error) {
	if documents == nil || chunks == nil || entities == nil || relationships == nil {
		return nil, fmt.Errorf("all database handlers must be non-nil")
	}
	if embed == nil {
		return nil, fmt.Errorf("embed function is nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Engine{
		documents:     documents,
		chunks:        chunks,
		entities:      entities,
		relationships: relationships,
		embed:         embed,
		embeddingDim:  embeddingDim,
		logger:        logger,
	}, nil
}

// Search runs one search request in the mode it selects.
//
// Validation failures are returned as a *model.ValidationError.
// Backend failures are folded into the response envelope's Error
// field with a nil returned error, so callers of successful
// validation must check the envelope.
func (e *Engine) Search(ctx context.Context, req *model.SearchRequest) (*model.SearchResponse, error) {
	req.Normalize()
	err := req.Validate()
	if err != nil {
		return nil, err
	}

	start := time.Now()

	var results []model.ChunkResult
	var total int

	switch req.Mode {
	case model.SearchModeFulltext:
		results, total, err = e.chunks.SearchFulltext(ctx, BuildTsQuery(req.Query), req.DocumentIDs, req.Filters, req.Limit, req.Offset)
	case model.SearchModeVector:
		var embedding []float32
		embedding, err = e.queryEmbedding(req.Query)
		if err == nil {
			results, total, err = e.chunks.SearchVector(ctx, embedding, req.DocumentIDs, req.Filters, req.Limit, req.Offset)
		}
	case model.SearchModeHybrid:
		var embedding []float32
		embedding, err = e.queryEmbedding(req.Query)
		if err == nil {
			results, total, err = e.chunks.SearchHybrid(ctx, embedding, BuildTsQuery(req.Query), *req.VectorWeight, *req.TextWeight, req.DocumentIDs, req.Filters, req.Limit, req.Offset)
		}
	case model.SearchModeDocumentChat:
		results, total, err = e.documentChat(ctx, req)
	}

	executionTime := time.Since(start).Seconds()

	if err != nil {
		var validationErr *model.ValidationError
		if errors.As(err, &validationErr) {
			return nil, err
		}

		e.logger.Error("Search failed", "mode", req.Mode, "error", err)
		response := model.NewErrorResponse(req.Mode, req.Query, err)
		response.Limit = req.Limit
		response.Offset = req.Offset
		response.ExecutionTime = executionTime
		return response, nil
	}

	if results == nil {
		results = []model.ChunkResult{}
	}

	return &model.SearchResponse{
		Results:       results,
		Total:         total,
		Query:         req.Query,
		Limit:         req.Limit,
		Offset:        req.Offset,
		SearchType:    req.Mode,
		ExecutionTime: executionTime,
	}, nil
}

// queryEmbedding embeds the query text and validates the vector
// shape. A mis-sized vector is a backend failure and surfaces
// through the response envelope like any other embedding failure.
func (e *Engine) queryEmbedding(query string) ([]float32, error) {
	embedding, err := e.embed(query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	err = pipeline.ValidateEmbedding(embedding, e.embeddingDim)
	if err != nil {
		return nil, fmt.Errorf("query embedding invalid: %w", err)
	}

	return embedding, nil
}
