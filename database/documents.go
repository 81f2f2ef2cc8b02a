package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"

	"github.com/docuquery/docuquery/helper"
	"github.com/docuquery/docuquery/model"
	"github.com/docuquery/docuquery/sql"
)

// DocumentsDBHandlerFunctions defines the interface for document database operations.
type DocumentsDBHandlerFunctions interface {
	InsertDocumentGraph(ctx context.Context, graph *model.DocumentGraph) error
	SelectDocument(id uuid.UUID) (*model.Document, error)
	SelectAllDocuments(lastCreatedAt *time.Time, limit int) ([]*model.Document, error)
	SelectPages(documentID uuid.UUID) ([]*model.Page, error)
	DeleteDocument(id uuid.UUID) error
}

// DocumentsDBHandler handles document-related database operations
type DocumentsDBHandler struct {
	db *helper.Database
}

// NewDocumentsDBHandler creates a new documents database handler.
// It ensures the documents and document_pages tables exist.
func NewDocumentsDBHandler(db *helper.Database) (*DocumentsDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	documentsDbHandler := &DocumentsDBHandler{
		db: db,
	}

	err := sql.LoadDocumentsSql(documentsDbHandler.db.Instance)
	if err != nil {
		return nil, helper.NewError("load documents sql", err)
	}

	db.Logger.Info("Initialized DocumentsDBHandler")

	return documentsDbHandler, nil
}

// InsertDocumentGraph stores a document together with all of its
// pages, chunks, entities and relationships in a single transaction.
// If any insert fails the whole document is rolled back and nothing
// is persisted.
func (h *DocumentsDBHandler) InsertDocumentGraph(ctx context.Context, graph *model.DocumentGraph) error {
	tx, err := h.db.Instance.BeginTx(ctx, nil)
	if err != nil {
		return helper.NewError("begin transaction", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	doc := graph.Document
	err = tx.QueryRowContext(ctx,
		`INSERT INTO documents (
			id, filename, title, author,
			creation_date, modification_date, file_creation_date, file_modification_date,
			page_count, file_size, language, document_type, topics, summary, table_count
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING created_at`,
		doc.ID,
		doc.Filename,
		doc.Title,
		doc.Author,
		doc.CreationDate,
		doc.ModificationDate,
		doc.FileCreationDate,
		doc.FileModificationDate,
		doc.PageCount,
		doc.FileSize,
		doc.Language,
		doc.DocumentType,
		pq.Array(doc.Topics),
		doc.Summary,
		doc.TableCount,
	).Scan(&doc.CreatedAt)
	if err != nil {
		return helper.NewError("insert document", err)
	}

	for _, page := range graph.Pages {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO document_pages (id, document_id, page_number, has_table)
			VALUES ($1, $2, $3, $4)`,
			page.ID,
			page.DocumentID,
			page.PageNumber,
			page.HasTable,
		)
		if err != nil {
			return helper.NewError("insert page", err)
		}
	}

	chunkStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO document_chunks (
			id, document_id, page_number, chunk_index, content,
			content_type, section_path, embedding, token_count, importance
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at`)
	if err != nil {
		return helper.NewError("prepare chunk insert", err)
	}
	defer chunkStmt.Close()

	for _, chunk := range graph.Chunks {
		err = chunkStmt.QueryRowContext(ctx,
			chunk.ID,
			chunk.DocumentID,
			chunk.PageNumber,
			chunk.ChunkIndex,
			chunk.Content,
			chunk.ContentType,
			pq.Array(chunk.SectionPath),
			pgvector.NewVector(chunk.Embedding),
			chunk.TokenCount,
			chunk.Importance,
		).Scan(&chunk.CreatedAt)
		if err != nil {
			return helper.NewError("insert chunk", err)
		}
	}

	for _, entity := range graph.Entities {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO document_entities (
				id, document_id, type, name, normalized_name,
				occurrences, importance, description
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			entity.ID,
			entity.DocumentID,
			entity.Type,
			entity.Name,
			entity.NormalizedName,
			entity.Occurrences,
			entity.Importance,
			entity.Description,
		)
		if err != nil {
			return helper.NewError("insert entity", err)
		}
	}

	for _, rel := range graph.Relationships {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO document_relationships (
				id, document_id, source_entity_id, target_entity_id,
				type, confidence, description, chunk_ids
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			rel.ID,
			rel.DocumentID,
			rel.SourceEntityID,
			rel.TargetEntityID,
			rel.Type,
			rel.Confidence,
			rel.Description,
			pq.Array(rel.ChunkIDs),
		)
		if err != nil {
			return helper.NewError("insert relationship", err)
		}
	}

	err = tx.Commit()
	if err != nil {
		return helper.NewError("commit transaction", err)
	}

	return nil
}

// SelectDocument retrieves a document by ID
func (h *DocumentsDBHandler) SelectDocument(id uuid.UUID) (*model.Document, error) {
	doc := &model.Document{}
	row := h.db.Instance.QueryRow(
		`SELECT id, filename, title, author,
			creation_date, modification_date, file_creation_date, file_modification_date,
			page_count, file_size, language, document_type, topics, summary, table_count, created_at
		FROM documents
		WHERE id = $1`,
		id,
	)

	err := row.Scan(
		&doc.ID,
		&doc.Filename,
		&doc.Title,
		&doc.Author,
		&doc.CreationDate,
		&doc.ModificationDate,
		&doc.FileCreationDate,
		&doc.FileModificationDate,
		&doc.PageCount,
		&doc.FileSize,
		&doc.Language,
		&doc.DocumentType,
		pq.Array(&doc.Topics),
		&doc.Summary,
		&doc.TableCount,
		&doc.CreatedAt,
	)
	if err != nil {
		return nil, helper.NewError("scan", err)
	}

	return doc, nil
}

// SelectAllDocuments retrieves all documents newest first with
// keyset pagination on created_at.
func (h *DocumentsDBHandler) SelectAllDocuments(lastCreatedAt *time.Time, limit int) ([]*model.Document, error) {
	rows, err := h.db.Instance.Query(
		`SELECT id, filename, title, author,
			creation_date, modification_date, file_creation_date, file_modification_date,
			page_count, file_size, language, document_type, topics, summary, table_count, created_at
		FROM documents
		WHERE ($1::timestamptz IS NULL OR created_at < $1)
		ORDER BY created_at DESC
		LIMIT $2`,
		lastCreatedAt,
		limit,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var documents []*model.Document
	for rows.Next() {
		doc := &model.Document{}
		err := rows.Scan(
			&doc.ID,
			&doc.Filename,
			&doc.Title,
			&doc.Author,
			&doc.CreationDate,
			&doc.ModificationDate,
			&doc.FileCreationDate,
			&doc.FileModificationDate,
			&doc.PageCount,
			&doc.FileSize,
			&doc.Language,
			&doc.DocumentType,
			pq.Array(&doc.Topics),
			&doc.Summary,
			&doc.TableCount,
			&doc.CreatedAt,
		)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}

		documents = append(documents, doc)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return documents, nil
}

// SelectPages retrieves all pages of a document ordered by page number
func (h *DocumentsDBHandler) SelectPages(documentID uuid.UUID) ([]*model.Page, error) {
	rows, err := h.db.Instance.Query(
		`SELECT id, document_id, page_number, has_table
		FROM document_pages
		WHERE document_id = $1
		ORDER BY page_number ASC`,
		documentID,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var pages []*model.Page
	for rows.Next() {
		page := &model.Page{}
		err := rows.Scan(
			&page.ID,
			&page.DocumentID,
			&page.PageNumber,
			&page.HasTable,
		)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}

		pages = append(pages, page)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return pages, nil
}

// DeleteDocument deletes a document by ID. Pages, chunks, entities
// and relationships are removed by the cascading foreign keys.
func (h *DocumentsDBHandler) DeleteDocument(id uuid.UUID) error {
	result, err := h.db.Instance.Exec(
		`DELETE FROM documents WHERE id = $1`,
		id,
	)
	if err != nil {
		return helper.NewError("exec", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return helper.NewError("rows affected", err)
	}
	if affected == 0 {
		return helper.NewError("delete document", fmt.Errorf("document %s not found", id))
	}

	return nil
}
