package database

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docuquery/docuquery/model"
)

func TestRelationshipsNewRelationshipsDBHandler(t *testing.T) {
	database := initDB(t)

	t.Run("Valid call NewRelationshipsDBHandler", func(t *testing.T) {
		relationshipsDbHandler, err := NewRelationshipsDBHandler(database)
		assert.NoError(t, err)
		require.NotNil(t, relationshipsDbHandler)
	})

	t.Run("Invalid call NewRelationshipsDBHandler with nil database", func(t *testing.T) {
		_, err := NewRelationshipsDBHandler(nil)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "database connection is nil")
	})
}

func TestRelationshipsSelectByDocuments(t *testing.T) {
	_, documentsDbHandler, _, _, relationshipsDbHandler := initHandlers(t)

	graph := newTestGraph(t)
	err := documentsDbHandler.InsertDocumentGraph(context.Background(), graph)
	require.NoError(t, err)
	defer func() {
		err := documentsDbHandler.DeleteDocument(graph.Document.ID)
		assert.NoError(t, err)
	}()

	t.Run("Select relationships with chunk provenance", func(t *testing.T) {
		relationships, err := relationshipsDbHandler.SelectRelationshipsByDocuments(context.Background(), []uuid.UUID{graph.Document.ID})
		assert.NoError(t, err)
		require.Len(t, relationships, 1)

		rel := relationships[0]
		assert.Equal(t, model.RelationshipTypeCoOccurrence, rel.Type)
		assert.InDelta(t, model.CoOccurrenceConfidence, rel.Confidence, 0.001)
		assert.Equal(t, graph.Entities[0].ID, rel.SourceEntityID)
		assert.Equal(t, graph.Entities[1].ID, rel.TargetEntityID)
		require.Len(t, rel.ChunkIDs, 1)
		assert.Equal(t, graph.Chunks[0].ID.String(), rel.ChunkIDs[0])
	})

	t.Run("Select relationships of unknown document", func(t *testing.T) {
		relationships, err := relationshipsDbHandler.SelectRelationshipsByDocuments(context.Background(), []uuid.UUID{uuid.New()})
		assert.NoError(t, err)
		assert.Empty(t, relationships)
	})
}
