package docuquery

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/docuquery/docuquery/core/graph"
	"github.com/docuquery/docuquery/core/pipeline"
	"github.com/docuquery/docuquery/core/retrieval"
	"github.com/docuquery/docuquery/database"
	"github.com/docuquery/docuquery/helper"
	"github.com/docuquery/docuquery/llm"
	"github.com/docuquery/docuquery/model"
	"github.com/docuquery/docuquery/parser"
	loadSql "github.com/docuquery/docuquery/sql"
	"github.com/google/uuid"
)

// DocuQuery provides a unified interface to ingestion, retrieval and
// answer generation
type DocuQuery struct {
	DB            *helper.Database
	Documents     *database.DocumentsDBHandler
	Chunks        *database.ChunksDBHandler
	Entities      *database.EntitiesDBHandler
	Relationships *database.RelationshipsDBHandler
	Pipeline      *pipeline.Pipeline
	Engine        *retrieval.Engine
	Answerer      *llm.Answerer // Optional, set via UseLLM
	// Logging
	log *slog.Logger
}

// NewDocuQuery creates a new DocuQuery instance with all handlers
// initialized. The pipeline and retrieval engine share the same
// embedding function so query and chunk embeddings always come from
// the same model.
func NewDocuQuery(dbConfig *helper.DatabaseConfiguration, pipelineConfig model.PipelineConfig) (*DocuQuery, error) {
	// Logger
	opts := helper.PrettyHandlerOptions{
		SlogOpts: slog.HandlerOptions{
			Level: slog.LevelInfo,
		},
	}
	logger := slog.New(helper.NewPrettyHandler(os.Stdout, opts))

	// Initialize database
	db := helper.NewDatabase("docuquery", dbConfig, logger)
	err := loadSql.Init(db.Instance)
	if err != nil {
		return nil, helper.NewError("initialize database extensions", err)
	}

	// Create all handlers in the correct order (documents first, the
	// other tables reference them)
	documents, err := database.NewDocumentsDBHandler(db)
	if err != nil {
		return nil, helper.NewError("create documents handler", err)
	}

	chunks, err := database.NewChunksDBHandler(db, pipelineConfig.EmbeddingDim)
	if err != nil {
		return nil, helper.NewError("create chunks handler", err)
	}

	entities, err := database.NewEntitiesDBHandler(db)
	if err != nil {
		return nil, helper.NewError("create entities handler", err)
	}

	relationships, err := database.NewRelationshipsDBHandler(db)
	if err != nil {
		return nil, helper.NewError("create relationships handler", err)
	}

	counter, err := pipeline.TiktokenCounter()
	if err != nil {
		logger.Warn("tiktoken unavailable, falling back to length estimate", slog.Any("error", err))
		counter = pipeline.EstimateCounter()
	}

	embed, err := pipeline.DefaultEmbedder(pipelineConfig.EmbeddingModel, pipelineConfig.EmbeddingDim)
	if err != nil {
		return nil, helper.NewError("create embedder", err)
	}

	recognize, err := pipeline.DefaultRecognizer(pipelineConfig.NERModel)
	if err != nil {
		return nil, helper.NewError("create entity recognizer", err)
	}

	pipe, err := pipeline.NewPipeline(pipelineConfig, counter, embed, recognize, logger)
	if err != nil {
		return nil, helper.NewError("create pipeline", err)
	}

	engine, err := retrieval.NewEngine(documents, chunks, entities, relationships, embed, pipelineConfig.EmbeddingDim, logger)
	if err != nil {
		return nil, helper.NewError("create retrieval engine", err)
	}

	return &DocuQuery{
		DB:            db,
		Documents:     documents,
		Chunks:        chunks,
		Entities:      entities,
		Relationships: relationships,
		Pipeline:      pipe,
		Engine:        engine,
		log:           logger,
	}, nil
}

// UseLLM enables answer generation with the given provider
// configuration.
func (d *DocuQuery) UseLLM(config llm.Config) error {
	provider, err := llm.NewProvider(config)
	if err != nil {
		return helper.NewError("create llm provider", err)
	}

	answerer, err := llm.NewAnswerer(provider)
	if err != nil {
		return helper.NewError("create answerer", err)
	}

	d.Answerer = answerer
	return nil
}

// IngestPDF parses, processes and stores a PDF file. The whole graph
// is written in one transaction so a failed ingestion leaves no trace.
func (d *DocuQuery) IngestPDF(ctx context.Context, path string) (*model.DocumentGraph, error) {
	parsed, err := parser.ParsePDF(path)
	if err != nil {
		return nil, helper.NewError("parse pdf", err)
	}

	d.log.Info("Parsed PDF",
		slog.String("title", parsed.Document.Title),
		slog.Int("pages", len(parsed.Pages)),
	)

	graph, err := d.Pipeline.ProcessDocument(ctx, parsed.Document, parsed.Pages)
	if err != nil {
		return nil, helper.NewError("process document", err)
	}

	err = d.Documents.InsertDocumentGraph(ctx, graph)
	if err != nil {
		return nil, helper.NewError("store document graph", err)
	}

	d.log.Info("Ingested document",
		slog.String("document_id", graph.Document.ID.String()),
		slog.Int("chunks", len(graph.Chunks)),
		slog.Int("entities", len(graph.Entities)),
		slog.Int("relationships", len(graph.Relationships)),
	)

	return graph, nil
}

// Search runs a search request through the retrieval engine
func (d *DocuQuery) Search(ctx context.Context, req *model.SearchRequest) (*model.SearchResponse, error) {
	return d.Engine.Search(ctx, req)
}

// Ask searches the given documents in document chat mode and
// generates an answer from the top-ranked chunks. UseLLM must have
// been called first.
func (d *DocuQuery) Ask(ctx context.Context, query string, documentIDs []uuid.UUID) (string, *model.SearchResponse, error) {
	if d.Answerer == nil {
		return "", nil, helper.NewError("ask", fmt.Errorf("no llm provider configured, call UseLLM first"))
	}

	response, err := d.Search(ctx, &model.SearchRequest{
		Query:       query,
		Mode:        model.SearchModeDocumentChat,
		DocumentIDs: documentIDs,
	})
	if err != nil {
		return "", nil, err
	}
	if response.Error != "" {
		return "", response, helper.NewError("ask", fmt.Errorf("search failed: %s", response.Error))
	}
	if len(response.Results) == 0 {
		return "", response, helper.NewError("ask", fmt.Errorf("no relevant chunks found"))
	}

	answer, err := d.Answerer.Answer(ctx, query, response.Results)
	if err != nil {
		return "", response, helper.NewError("generate answer", err)
	}

	return answer, response, nil
}

// RelatedEntities traverses the co-occurrence graph of a document
// from the given entity and returns every entity reachable within
// maxHops, nearest first.
func (d *DocuQuery) RelatedEntities(ctx context.Context, documentID uuid.UUID, entityID uuid.UUID, maxHops int) ([]*graph.TraversalResult, error) {
	entities, err := d.Entities.SelectEntitiesByDocuments(ctx, []uuid.UUID{documentID})
	if err != nil {
		return nil, helper.NewError("load entities", err)
	}

	relationships, err := d.Relationships.SelectRelationshipsByDocuments(ctx, []uuid.UUID{documentID})
	if err != nil {
		return nil, helper.NewError("load relationships", err)
	}

	entityGraph := graph.NewEntityGraph(entities, relationships)
	if entityGraph.Entity(entityID) == nil {
		return nil, helper.NewError("related entities", fmt.Errorf("entity %s not found in document %s", entityID, documentID))
	}

	return entityGraph.BFS(entityID, maxHops), nil
}

// Document retrieves a single document by ID
func (d *DocuQuery) Document(id uuid.UUID) (*model.Document, error) {
	return d.Documents.SelectDocument(id)
}

// DocumentDetail loads a document together with its pages, chunks,
// entities and relationships.
func (d *DocuQuery) DocumentDetail(ctx context.Context, id uuid.UUID) (*model.DocumentGraph, error) {
	doc, err := d.Documents.SelectDocument(id)
	if err != nil {
		return nil, err
	}

	pages, err := d.Documents.SelectPages(id)
	if err != nil {
		return nil, err
	}
	chunks, err := d.Chunks.SelectChunksByDocuments(ctx, []uuid.UUID{id})
	if err != nil {
		return nil, err
	}
	entities, err := d.Entities.SelectEntitiesByDocuments(ctx, []uuid.UUID{id})
	if err != nil {
		return nil, err
	}
	relationships, err := d.Relationships.SelectRelationshipsByDocuments(ctx, []uuid.UUID{id})
	if err != nil {
		return nil, err
	}

	return &model.DocumentGraph{
		Document:      doc,
		Pages:         pages,
		Chunks:        chunks,
		Entities:      entities,
		Relationships: relationships,
	}, nil
}

// ListDocuments retrieves documents newest first with keyset
// pagination. Pass nil to start from the newest document.
func (d *DocuQuery) ListDocuments(lastCreatedAt *time.Time, limit int) ([]*model.Document, error) {
	return d.Documents.SelectAllDocuments(lastCreatedAt, limit)
}

// DeleteDocument removes a document and everything derived from it
func (d *DocuQuery) DeleteDocument(id uuid.UUID) error {
	return d.Documents.DeleteDocument(id)
}

// Close releases the pipeline models and closes the database
// connection
func (d *DocuQuery) Close() error {
	if d.Pipeline != nil {
		d.Pipeline.Release()
	}
	if d.DB != nil && d.DB.Instance != nil {
		return d.DB.Instance.Close()
	}
	return nil
}
