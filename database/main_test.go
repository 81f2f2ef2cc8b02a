package database

import (
	"context"
	"log"
	"testing"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"

	"github.com/docuquery/docuquery/helper"
	"github.com/docuquery/docuquery/model"
	"github.com/docuquery/docuquery/sql"
)

// All database tests share one schema, so the embedding dimension
// must be the same everywhere.
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
	database := helper.NewTestDatabase(dbConfig)

	err = sql.Init(database.Instance)
	require.NoError(t, err)

	return database
}

// newTestGraph builds a two page document with three chunks, two
// entities and one relationship. Embeddings are unit vectors so
// cosine similarities are exact.
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
		Topics:       []string{"finance", "reporting"},
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
			Content:     "Revenue increased significantly during the first quarter",
			ContentType: model.ContentTypeText,
			SectionPath: []string{"Overview"},
			Embedding:   []float32{1, 0, 0},
			TokenCount:  8,
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
			Content:     "Operating costs remained stable compared to last year",
			ContentType: model.ContentTypeText,
			SectionPath: []string{"Expenses", "Operating"},
			Embedding:   []float32{0, 0, 1},
			TokenCount:  8,
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
			Type:           "PER",
			Name:           "Jane Smith",
			NormalizedName: "jane smith",
			Occurrences: model.Occurrences{
				{ChunkID: chunks[0].ID, Start: 20, End: 30},
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

// initHandlers creates all handlers against a fresh connection and
// returns them for combined ingest and search tests.
func initHandlers(t *testing.T) (*helper.Database, *DocumentsDBHandler, *ChunksDBHandler, *EntitiesDBHandler, *RelationshipsDBHandler) {
	t.Helper()

	database := initDB(t)

	documentsDbHandler, err := NewDocumentsDBHandler(database)
	require.NoError(t, err)
	chunksDbHandler, err := NewChunksDBHandler(database, testEmbeddingDim)
	require.NoError(t, err)
	entitiesDbHandler, err := NewEntitiesDBHandler(database)
	require.NoError(t, err)
	relationshipsDbHandler, err := NewRelationshipsDBHandler(database)
	require.NoError(t, err)

	return database, documentsDbHandler, chunksDbHandler, entitiesDbHandler, relationshipsDbHandler
}
