package database

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"

	"github.com/docuquery/docuquery/helper"
	"github.com/docuquery/docuquery/model"
	"github.com/docuquery/docuquery/sql"
)

// ChunksDBHandlerFunctions defines the interface for chunk database operations.
type ChunksDBHandlerFunctions interface {
	SearchFulltext(ctx context.Context, tsQuery string, scope []uuid.UUID, filters *model.SearchFilters, limit, offset int) ([]model.ChunkResult, int, error)
	SearchVector(ctx context.Context, embedding []float32, scope []uuid.UUID, filters *model.SearchFilters, limit, offset int) ([]model.ChunkResult, int, error)
	SearchHybrid(ctx context.Context, embedding []float32, tsQuery string, vectorWeight, textWeight float64, scope []uuid.UUID, filters *model.SearchFilters, limit, offset int) ([]model.ChunkResult, int, error)
	SelectChunksByDocuments(ctx context.Context, documentIDs []uuid.UUID) ([]*model.Chunk, error)
}

// ChunksDBHandler handles chunk-related database operations
type ChunksDBHandler struct {
	db *helper.Database
}

// NewChunksDBHandler creates a new chunks database handler.
// It ensures the document_chunks table exists with the given
// embedding dimensionality.
func NewChunksDBHandler(db *helper.Database, embeddingDim int) (*ChunksDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	chunksDbHandler := &ChunksDBHandler{
		db: db,
	}

	err := sql.LoadChunksSql(chunksDbHandler.db.Instance, embeddingDim)
	if err != nil {
		return nil, helper.NewError("load chunks sql", err)
	}

	db.Logger.Info("Initialized ChunksDBHandler")

	return chunksDbHandler, nil
}

// chunkConditions builds the WHERE conditions shared by all search
// modes from the document scope and metadata filters. Placeholders
// are numbered starting after startIndex already bound arguments.
func chunkConditions(scope []uuid.UUID, filters *model.SearchFilters, startIndex int) (string, []any) {
	conditions := []string{}
	args := []any{}
	next := func() int { return startIndex + len(args) }

	if len(scope) > 0 {
		ids := make([]string, 0, len(scope))
		for _, id := range scope {
			ids = append(ids, id.String())
		}
		args = append(args, pq.Array(ids))
		conditions = append(conditions, fmt.Sprintf("c.document_id = ANY($%d::uuid[])", next()))
	}

	if filters != nil {
		if filters.Author != "" {
			args = append(args, "%"+filters.Author+"%")
			conditions = append(conditions, fmt.Sprintf("d.author ILIKE $%d", next()))
		}
		if filters.CreationDateStart != nil {
			args = append(args, filters.CreationDateStart)
			conditions = append(conditions, fmt.Sprintf("d.creation_date >= $%d", next()))
		}
		if filters.CreationDateEnd != nil {
			args = append(args, filters.CreationDateEnd)
			conditions = append(conditions, fmt.Sprintf("d.creation_date <= $%d", next()))
		}
		if filters.DocumentType != "" {
			args = append(args, filters.DocumentType)
			conditions = append(conditions, fmt.Sprintf("d.document_type = $%d", next()))
		}
		if filters.Language != "" {
			args = append(args, filters.Language)
			conditions = append(conditions, fmt.Sprintf("d.language = $%d", next()))
		}
		if len(filters.Topics) > 0 {
			args = append(args, pq.Array(filters.Topics))
			conditions = append(conditions, fmt.Sprintf("d.topics && $%d", next()))
		}
		if filters.MinPage != nil {
			args = append(args, *filters.MinPage)
			conditions = append(conditions, fmt.Sprintf("c.page_number >= $%d", next()))
		}
		if filters.MaxPage != nil {
			args = append(args, *filters.MaxPage)
			conditions = append(conditions, fmt.Sprintf("c.page_number <= $%d", next()))
		}
	}

	if len(conditions) == 0 {
		return "", args
	}
	return " AND " + strings.Join(conditions, " AND "), args
}

// countChunks returns the number of chunks matching the scope and
// filters regardless of query relevance.
func (h *ChunksDBHandler) countChunks(ctx context.Context, scope []uuid.UUID, filters *model.SearchFilters) (int, error) {
	where, args := chunkConditions(scope, filters, 0)

	var total int
	err := h.db.Instance.QueryRowContext(ctx,
		`SELECT COUNT(*)
		FROM document_chunks c
		JOIN documents d ON d.id = c.document_id
		WHERE TRUE`+where,
		args...,
	).Scan(&total)
	if err != nil {
		return 0, helper.NewError("count query", err)
	}

	return total, nil
}

// SearchFulltext runs a PostgreSQL full text search over chunk
// content ranked by ts_rank. The query must already be in tsquery
// syntax.
func (h *ChunksDBHandler) SearchFulltext(ctx context.Context, tsQuery string, scope []uuid.UUID, filters *model.SearchFilters, limit, offset int) ([]model.ChunkResult, int, error) {
	where, condArgs := chunkConditions(scope, filters, 1)

	countArgs := append([]any{tsQuery}, condArgs...)
	var total int
	err := h.db.Instance.QueryRowContext(ctx,
		`SELECT COUNT(*)
		FROM document_chunks c
		JOIN documents d ON d.id = c.document_id
		WHERE to_tsvector('english', c.content) @@ to_tsquery('english', $1)`+where,
		countArgs...,
	).Scan(&total)
	if err != nil {
		return nil, 0, helper.NewError("count query", err)
	}

	args := append([]any{tsQuery}, condArgs...)
	args = append(args, limit, offset)

	rows, err := h.db.Instance.QueryContext(ctx,
		fmt.Sprintf(
			`SELECT c.id, c.document_id, c.page_number, c.content, c.section_path,
				ts_rank(to_tsvector('english', c.content), to_tsquery('english', $1)) AS rank,
				d.title, d.author, d.document_type
			FROM document_chunks c
			JOIN documents d ON d.id = c.document_id
			WHERE to_tsvector('english', c.content) @@ to_tsquery('english', $1)%s
			ORDER BY rank DESC
			LIMIT $%d OFFSET $%d`,
			where, len(args)-1, len(args)),
		args...,
	)
	if err != nil {
		return nil, 0, helper.NewError("query", err)
	}
	defer rows.Close()

	var results []model.ChunkResult
	for rows.Next() {
		result := model.ChunkResult{}
		err := rows.Scan(
			&result.ChunkID,
			&result.DocumentID,
			&result.PageNumber,
			&result.Content,
			pq.Array(&result.SectionPath),
			&result.Score,
			&result.DocumentInfo.Title,
			&result.DocumentInfo.Author,
			&result.DocumentInfo.DocumentType,
		)
		if err != nil {
			return nil, 0, helper.NewError("scan", err)
		}

		results = append(results, result)
	}

	err = rows.Err()
	if err != nil {
		return nil, 0, helper.NewError("rows error", err)
	}

	return results, total, nil
}

// SearchVector ranks chunks by cosine similarity to the query
// embedding weighted by chunk importance.
func (h *ChunksDBHandler) SearchVector(ctx context.Context, embedding []float32, scope []uuid.UUID, filters *model.SearchFilters, limit, offset int) ([]model.ChunkResult, int, error) {
	total, err := h.countChunks(ctx, scope, filters)
	if err != nil {
		return nil, 0, err
	}

	where, condArgs := chunkConditions(scope, filters, 1)
	args := append([]any{pgvector.NewVector(embedding)}, condArgs...)
	args = append(args, limit, offset)

	rows, err := h.db.Instance.QueryContext(ctx,
		fmt.Sprintf(
			`SELECT c.id, c.document_id, c.page_number, c.content, c.section_path,
				1 - (c.embedding <=> $1) AS similarity,
				c.importance,
				d.title, d.author, d.document_type
			FROM document_chunks c
			JOIN documents d ON d.id = c.document_id
			WHERE TRUE%s
			ORDER BY (1 - (c.embedding <=> $1)) * c.importance DESC
			LIMIT $%d OFFSET $%d`,
			where, len(args)-1, len(args)),
		args...,
	)
	if err != nil {
		return nil, 0, helper.NewError("query", err)
	}
	defer rows.Close()

	var results []model.ChunkResult
	for rows.Next() {
		result := model.ChunkResult{}
		err := rows.Scan(
			&result.ChunkID,
			&result.DocumentID,
			&result.PageNumber,
			&result.Content,
			pq.Array(&result.SectionPath),
			&result.Similarity,
			&result.Importance,
			&result.DocumentInfo.Title,
			&result.DocumentInfo.Author,
			&result.DocumentInfo.DocumentType,
		)
		if err != nil {
			return nil, 0, helper.NewError("scan", err)
		}

		result.Score = result.Similarity * result.Importance
		results = append(results, result)
	}

	err = rows.Err()
	if err != nil {
		return nil, 0, helper.NewError("rows error", err)
	}

	return results, total, nil
}

// SearchHybrid ranks chunks by the weighted sum of cosine similarity
// and full text rank. Chunks without a full text match still score
// through the vector term.
func (h *ChunksDBHandler) SearchHybrid(ctx context.Context, embedding []float32, tsQuery string, vectorWeight, textWeight float64, scope []uuid.UUID, filters *model.SearchFilters, limit, offset int) ([]model.ChunkResult, int, error) {
	total, err := h.countChunks(ctx, scope, filters)
	if err != nil {
		return nil, 0, err
	}

	where, condArgs := chunkConditions(scope, filters, 4)
	args := append([]any{pgvector.NewVector(embedding), tsQuery, vectorWeight, textWeight}, condArgs...)
	args = append(args, limit, offset)

	rows, err := h.db.Instance.QueryContext(ctx,
		fmt.Sprintf(
			`SELECT c.id, c.document_id, c.page_number, c.content, c.section_path,
				1 - (c.embedding <=> $1) AS vector_similarity,
				COALESCE(ts_rank(to_tsvector('english', c.content), to_tsquery('english', $2)), 0) AS text_rank,
				$3 * (1 - (c.embedding <=> $1)) +
					$4 * COALESCE(ts_rank(to_tsvector('english', c.content), to_tsquery('english', $2)), 0) AS score,
				d.title, d.author, d.document_type
			FROM document_chunks c
			JOIN documents d ON d.id = c.document_id
			WHERE TRUE%s
			ORDER BY score DESC
			LIMIT $%d OFFSET $%d`,
			where, len(args)-1, len(args)),
		args...,
	)
	if err != nil {
		return nil, 0, helper.NewError("query", err)
	}
	defer rows.Close()

	var results []model.ChunkResult
	for rows.Next() {
		result := model.ChunkResult{}
		err := rows.Scan(
			&result.ChunkID,
			&result.DocumentID,
			&result.PageNumber,
			&result.Content,
			pq.Array(&result.SectionPath),
			&result.VectorSimilarity,
			&result.TextRank,
			&result.Score,
			&result.DocumentInfo.Title,
			&result.DocumentInfo.Author,
			&result.DocumentInfo.DocumentType,
		)
		if err != nil {
			return nil, 0, helper.NewError("scan", err)
		}

		results = append(results, result)
	}

	err = rows.Err()
	if err != nil {
		return nil, 0, helper.NewError("rows error", err)
	}

	return results, total, nil
}

// SelectChunksByDocuments retrieves all chunks of the given documents
// including their embeddings, ordered by document and chunk index.
func (h *ChunksDBHandler) SelectChunksByDocuments(ctx context.Context, documentIDs []uuid.UUID) ([]*model.Chunk, error) {
	ids := make([]string, 0, len(documentIDs))
	for _, id := range documentIDs {
		ids = append(ids, id.String())
	}

	rows, err := h.db.Instance.QueryContext(ctx,
		`SELECT id, document_id, page_number, chunk_index, content,
			content_type, section_path, embedding, token_count, importance, created_at
		FROM document_chunks
		WHERE document_id = ANY($1::uuid[])
		ORDER BY document_id, chunk_index ASC`,
		pq.Array(ids),
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var chunks []*model.Chunk
	for rows.Next() {
		chunk := &model.Chunk{}
		var embedding pgvector.Vector
		err := rows.Scan(
			&chunk.ID,
			&chunk.DocumentID,
			&chunk.PageNumber,
			&chunk.ChunkIndex,
			&chunk.Content,
			&chunk.ContentType,
			pq.Array(&chunk.SectionPath),
			&embedding,
			&chunk.TokenCount,
			&chunk.Importance,
			&chunk.CreatedAt,
		)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}

		chunk.Embedding = embedding.Slice()
		chunks = append(chunks, chunk)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return chunks, nil
}
