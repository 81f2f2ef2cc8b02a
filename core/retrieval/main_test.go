package retrieval

import (
	"context"
	"log"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"

	"github.com/docuquery/docuquery/core/pipeline"
	"github.com/docuquery/docuquery/database"
	"github.com/docuquery/docuquery/helper"
	"github.com/docuquery/docuquery/model"
	"github.com/docuquery/docuquery/sql"
)

const testEmbeddingDim = 3

var dbPort string

func TestMain(m *testing.M) {
	var teardown func(ctx context.Context, opts ...testcontainers.TerminateOption) error
	var err error
	teardown, dbPort, err = helper.MustStartPostgresContainer()
	if err != nil {
		log.Fatalf("error starting postgres container: %v", err)
	}

	m.Run()

	if teardown != nil && teardown(context.Background()) != nil {
		log.Fatalf("error tearing down postgres container: %v", err)
	}
}

func initDB(t *testing.T) *helper.Database {
	helper.SetTestDatabaseConfigEnvs(t, dbPort)
	dbConfig, err := helper.NewDatabaseConfiguration()
	require.NoError(t, err, "failed to create database configuration")
	db := helper.NewTestDatabase(dbConfig)

	err = sql.Init(db.Instance)
	require.NoError(t, err)

	return db
}

// queryEmbedder maps query keywords to the axis vectors used by the
// test graph so similarities are deterministic.
func queryEmbedder() pipeline.EmbedFunc {
	return func(text string) ([]float32, error) {
		switch {
		case strings.Contains(strings.ToLower(text), "revenue"):
			return []float32{1, 0, 0}, nil
		case strings.Contains(strings.ToLower(text), "expenses"),
			strings.Contains(strings.ToLower(text), "table"):
			return []float32{0, 1, 0}, nil
		default:
			return []float32{0, 0, 1}, nil
		}
	}
}

// initEngine creates all handlers, ingests a deterministic document
// graph and returns an engine over it.
func initEngine(t *testing.T) (*Engine, *model.DocumentGraph, func()) {
	t.Helper()

	db := initDB(t)

	documentsDbHandler, err := database.NewDocumentsDBHandler(db)
	require.NoError(t, err)
	chunksDbHandler, err := database.NewChunksDBHandler(db, testEmbeddingDim)
	require.NoError(t, err)
	entitiesDbHandler, err := database.NewEntitiesDBHandler(db)
	require.NoError(t, err)
	relationshipsDbHandler, err := database.NewRelationshipsDBHandler(db)
	require.NoError(t, err)

	graph := newTestGraph(t)
	err = documentsDbHandler.InsertDocumentGraph(context.Background(), graph)
	require.NoError(t, err)

	engine, err := NewEngine(documentsDbHandler, chunksDbHandler, entitiesDbHandler, relationshipsDbHandler, queryEmbedder(), testEmbeddingDim, db.Logger)
	require.NoError(t, err)

	cleanup := func() {
		err := documentsDbHandler.DeleteDocument(graph.Document.ID)
		require.NoError(t, err)
	}

	return engine, graph, cleanup
}

// newTestGraph builds a two page document with three chunks on axis
// embeddings, two entities and one relationship.
func newTestGraph(t *testing.T) *model.DocumentGraph {
	t.Helper()

	docID := uuid.New()
	creationDate := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	doc := &model.Document{
		ID:           docID,
		Filename:     "quarterly_report.pdf",
		Title:        "Quarterly Report",
		Author:       "Jane Smith",
		CreationDate: &creationDate,
		PageCount:    2,
		FileSize:     2048,
		Language:     "en",
		DocumentType: "pdf",
		Topics:       []string{"finance"},
		TableCount:   1,
	}

	pages := []*model.Page{
		{ID: uuid.New(), DocumentID: docID, PageNumber: 1, HasTable: false},
		{ID: uuid.New(), DocumentID: docID, PageNumber: 2, HasTable: true},
	}

	chunks := []*model.Chunk{
		{
			ID:          uuid.New(),
			DocumentID:  docID,
			PageNumber:  1,
			ChunkIndex:  0,
			Content:     "Acme Corp revenue increased significantly during the first quarter",
			ContentType: model.ContentTypeText,
			SectionPath: []string{"Overview"},
			Embedding:   []float32{1, 0, 0},
			TokenCount:  9,
			Importance:  model.ImportanceFirstPage,
		},
		{
			ID:          uuid.New(),
			DocumentID:  docID,
			PageNumber:  2,
			ChunkIndex:  1,
			Content:     "The following table shows expenses by department",
			ContentType: model.ContentTypeTable,
			SectionPath: []string{"Expenses"},
			Embedding:   []float32{0, 1, 0},
			TokenCount:  7,
			Importance:  model.ImportanceDefault,
		},
		{
			ID:          uuid.New(),
			DocumentID:  docID,
			PageNumber:  2,
			ChunkIndex:  2,
			Content:     "Helios operating costs remained stable compared to last year",
			ContentType: model.ContentTypeText,
			SectionPath: []string{},
			Embedding:   []float32{0, 0, 1},
			TokenCount:  9,
			Importance:  model.ImportanceDefault,
		},
	}

	entities := []*model.Entity{
		{
			ID:             uuid.New(),
			DocumentID:     docID,
			Type:           "ORG",
			Name:           "Acme Corp",
			NormalizedName: "acme corp",
			Occurrences: model.Occurrences{
				{ChunkID: chunks[0].ID, Start: 0, End: 9},
			},
			Importance: 1.0,
		},
		{
			ID:             uuid.New(),
			DocumentID:     docID,
			Type:           "ORG",
			Name:           "Helios",
			NormalizedName: "helios",
			Occurrences: model.Occurrences{
				{ChunkID: chunks[2].ID, Start: 0, End: 6},
			},
			Importance: 1.0,
		},
	}

	relationships := []*model.Relationship{
		{
			ID:             uuid.New(),
			DocumentID:     docID,
			SourceEntityID: entities[0].ID,
			TargetEntityID: entities[1].ID,
			Type:           model.RelationshipTypeCoOccurrence,
			Confidence:     model.CoOccurrenceConfidence,
			ChunkIDs:       []string{chunks[0].ID.String()},
		},
	}

	return &model.DocumentGraph{
		Document:      doc,
		Pages:         pages,
		Chunks:        chunks,
		Entities:      entities,
		Relationships: relationships,
	}
}
