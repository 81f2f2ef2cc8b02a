package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"

	"github.com/docuquery/docuquery/model"
)

// Pipeline turns a parsed document into a persistable document
// graph. The embedder and recognizer are loaded once and shared
// read-only across concurrent ingestions.
type Pipeline struct {
	chunker   *Chunker
	embed     EmbedFunc
	extractor *Extractor
	config    model.PipelineConfig
	pool      *ants.Pool
	logger    *slog.Logger
}

// NewPipeline creates a processing pipeline. Workers bounds the
// number of concurrent embedding calls, 0 means one worker per CPU.
func NewPipeline(config model.PipelineConfig, counter TokenCountFunc, embed EmbedFunc, recognize RecognizeFunc, logger *slog.Logger) (*Pipeline, error) {
	if embed == nil {
		return nil, fmt.Errorf("embed function is nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	chunker, err := NewChunker(config.ChunkTokenBudget, counter)
	if err != nil {
		return nil, err
	}

	extractor, err := NewExtractor(recognize)
	if err != nil {
		return nil, err
	}

	workers := config.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	pool, err := ants.NewPool(workers)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding pool: %w", err)
	}

	return &Pipeline{
		chunker:   chunker,
		embed:     embed,
		extractor: extractor,
		config:    config,
		pool:      pool,
		logger:    logger,
	}, nil
}

// ProcessDocument chunks, embeds and extracts one parsed document.
// Any chunk failing to embed fails the whole document, no partial
// graph is returned.
func (p *Pipeline) ProcessDocument(ctx context.Context, doc *model.Document, pages []PageText) (*model.DocumentGraph, error) {
	if doc == nil {
		return nil, fmt.Errorf("document is nil")
	}
	if len(pages) == 0 {
		return nil, fmt.Errorf("document has no pages")
	}

	var modelPages []*model.Page
	var chunks []*model.Chunk
	for _, page := range pages {
		modelPages = append(modelPages, &model.Page{
			ID:         uuid.New(),
			DocumentID: doc.ID,
			PageNumber: page.Number,
			HasTable:   page.HasTable,
		})
		chunks = append(chunks, p.chunker.ChunkPage(doc.ID, page, len(chunks))...)
	}

	err := p.embedChunks(ctx, chunks)
	if err != nil {
		return nil, err
	}

	entities, relationships, err := p.extractor.Extract(doc.ID, chunks)
	if err != nil {
		return nil, err
	}

	doc.Topics = topicsFromEntities(entities)

	p.logger.Info("Processed document",
		"document_id", doc.ID,
		"pages", len(pages),
		"chunks", len(chunks),
		"entities", len(entities),
		"relationships", len(relationships),
	)

	return &model.DocumentGraph{
		Document:      doc,
		Pages:         modelPages,
		Chunks:        chunks,
		Entities:      entities,
		Relationships: relationships,
	}, nil
}

// topicsFromEntities derives the document topics as the most common
// entity types, at most five, ties broken alphabetically.
func topicsFromEntities(entities []*model.Entity) []string {
	counts := map[string]int{}
	for _, entity := range entities {
		counts[entity.Type]++
	}

	topics := make([]string, 0, len(counts))
	for entityType := range counts {
		topics = append(topics, entityType)
	}
	sort.Slice(topics, func(i, j int) bool {
		if counts[topics[i]] != counts[topics[j]] {
			return counts[topics[i]] > counts[topics[j]]
		}
		return topics[i] < topics[j]
	})

	if len(topics) > 5 {
		topics = topics[:5]
	}
	return topics
}

// embedChunks embeds all chunks on the worker pool and keeps the
// first error.
func (p *Pipeline) embedChunks(ctx context.Context, chunks []*model.Chunk) error {
	var wg sync.WaitGroup
	var mu sync.Mutex
	var firstErr error

	for _, chunk := range chunks {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		wg.Add(1)
		chunk := chunk
		err := p.pool.Submit(func() {
			defer wg.Done()

			embedding, err := p.embed(chunk.Content)
			if err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = fmt.Errorf("failed to embed chunk %d: %w", chunk.ChunkIndex, err)
				}
				mu.Unlock()
				return
			}

			chunk.Embedding = embedding
		})
		if err != nil {
			wg.Done()
			return fmt.Errorf("failed to submit embedding task: %w", err)
		}
	}

	wg.Wait()
	return firstErr
}

// Release releases the worker pool. The pipeline must not be used
// after calling Release.
func (p *Pipeline) Release() {
	if p.pool != nil {
		p.pool.Release()
	}
}
