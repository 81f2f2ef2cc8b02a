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

// EntitiesDBHandlerFunctions defines the interface for entity database operations.
type EntitiesDBHandlerFunctions interface {
	SelectEntitiesByDocuments(ctx context.Context, documentIDs []uuid.UUID) ([]*model.Entity, error)
	SelectEntity(id uuid.UUID) (*model.Entity, error)
}

// EntitiesDBHandler handles entity-related database operations
type EntitiesDBHandler struct {
	db *helper.Database
}

// NewEntitiesDBHandler creates a new entities database handler.
// It ensures the document_entities table exists.
func NewEntitiesDBHandler(db *helper.Database) (*EntitiesDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	entitiesDbHandler := &EntitiesDBHandler{
		db: db,
	}

	err := sql.LoadEntitiesSql(entitiesDbHandler.db.Instance)
	if err != nil {
		return nil, helper.NewError("load entities sql", err)
	}

	db.Logger.Info("Initialized EntitiesDBHandler")

	return entitiesDbHandler, nil
}

// SelectEntitiesByDocuments retrieves all entities of the given
// documents ordered by importance descending.
func (h *EntitiesDBHandler) SelectEntitiesByDocuments(ctx context.Context, documentIDs []uuid.UUID) ([]*model.Entity, error) {
	ids := make([]string, 0, len(documentIDs))
	for _, id := range documentIDs {
		ids = append(ids, id.String())
	}

	rows, err := h.db.Instance.QueryContext(ctx,
		`SELECT id, document_id, type, name, normalized_name,
			occurrences, importance, description, created_at
		FROM document_entities
		WHERE document_id = ANY($1::uuid[])
		ORDER BY importance DESC`,
		pq.Array(ids),
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var entities []*model.Entity
	for rows.Next() {
		entity := &model.Entity{}
		err := rows.Scan(
			&entity.ID,
			&entity.DocumentID,
			&entity.Type,
			&entity.Name,
			&entity.NormalizedName,
			&entity.Occurrences,
			&entity.Importance,
			&entity.Description,
			&entity.CreatedAt,
		)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}

		entities = append(entities, entity)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return entities, nil
}

// SelectEntity retrieves an entity by ID
func (h *EntitiesDBHandler) SelectEntity(id uuid.UUID) (*model.Entity, error) {
	entity := &model.Entity{}
	row := h.db.Instance.QueryRow(
		`SELECT id, document_id, type, name, normalized_name,
			occurrences, importance, description, created_at
		FROM document_entities
		WHERE id = $1`,
		id,
	)

	err := row.Scan(
		&entity.ID,
		&entity.DocumentID,
		&entity.Type,
		&entity.Name,
		&entity.NormalizedName,
		&entity.Occurrences,
		&entity.Importance,
		&entity.Description,
		&entity.CreatedAt,
	)
	if err != nil {
		return nil, helper.NewError("scan", err)
	}

	return entity, nil
}
