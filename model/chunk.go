package model

import (
	"time"

	"github.com/google/uuid"
)

// ContentType classifies the content of a chunk
type ContentType string

const (
	ContentTypeText   ContentType = "text"
	ContentTypeTable  ContentType = "table"
	ContentTypeFigure ContentType = "figure"
	ContentTypeList   ContentType = "list"
)

// Default importance weights applied by the chunker. First-page
// chunks carry a fixed editorial bias, fallback chunks are demoted.
const (
	ImportanceFirstPage = 1.2
	ImportanceDefault   = 1.0
	ImportanceFallback  = 0.5
)

// Chunk is a token-bounded slice of one page's text, the atomic unit
// of retrieval. ChunkIndex values are contiguous per document in
// creation order; every page has at least one chunk.
type Chunk struct {
	ID          uuid.UUID   `json:"id"`
	DocumentID  uuid.UUID   `json:"document_id"`
	PageNumber  int         `json:"page_number"`
	ChunkIndex  int         `json:"chunk_index"`
	Content     string      `json:"content"`
	ContentType ContentType `json:"content_type"`
	SectionPath []string    `json:"section_path"`
	Embedding   []float32   `json:"embedding,omitempty"`
	TokenCount  int         `json:"token_count"`
	Importance  float64     `json:"importance"`
	CreatedAt   time.Time   `json:"created_at"`
}
