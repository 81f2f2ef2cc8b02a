package database

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/docuquery/docuquery/helper"
	"github.com/docuquery/docuquery/model"
	"github.com/docuquery/docuquery/sql"
)

// RelationshipsDBHandlerFunctions defines the interface for relationship database operations.
type RelationshipsDBHandlerFunctions interface {
	SelectRelationshipsByDocuments(ctx context.Context, documentIDs []uuid.UUID) ([]*model.Relationship, error)
}

// RelationshipsDBHandler handles relationship-related database operations
type RelationshipsDBHandler struct {
	db *helper.Database
}

// NewRelationshipsDBHandler creates a new relationships database handler.
// It ensures the document_relationships table exists.
func NewRelationshipsDBHandler(db *helper.Database) (*RelationshipsDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	relationshipsDbHandler := &RelationshipsDBHandler{
		db: db,
	}

	err := sql.LoadRelationshipsSql(relationshipsDbHandler.db.Instance)
	if err != nil {
		return nil, helper.NewError("load relationships sql", err)
	}

	db.Logger.Info("Initialized RelationshipsDBHandler")

	return relationshipsDbHandler, nil
}

// SelectRelationshipsByDocuments retrieves all relationships of the
// given documents.
func (h *RelationshipsDBHandler) SelectRelationshipsByDocuments(ctx context.Context, documentIDs []uuid.UUID) ([]*model.Relationship, error) {
	ids := make([]string, 0, len(documentIDs))
	for _, id := range documentIDs {
		ids = append(ids, id.String())
	}

	rows, err := h.db.Instance.QueryContext(ctx,
		`SELECT id, document_id, source_entity_id, target_entity_id,
			type, confidence, description, chunk_ids, created_at
		FROM document_relationships
		WHERE document_id = ANY($1::uuid[])`,
		pq.Array(ids),
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var relationships []*model.Relationship
	for rows.Next() {
		rel := &model.Relationship{}
		err := rows.Scan(
			&rel.ID,
			&rel.DocumentID,
			&rel.SourceEntityID,
			&rel.TargetEntityID,
			&rel.Type,
			&rel.Confidence,
			&rel.Description,
			pq.Array(&rel.ChunkIDs),
			&rel.CreatedAt,
		)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}

		relationships = append(relationships, rel)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return relationships, nil
}
