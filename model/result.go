package model

import "github.com/google/uuid"

// DocumentInfo is the document summary attached to every returned
// chunk for presentation.
type DocumentInfo struct {
	Title        string `json:"title"`
	Author       string `json:"author"`
	DocumentType string `json:"document_type"`
}

// ChunkResult is one ranked chunk in a search response. Score fields
// beyond the shared base are populated per mode: fulltext sets Score
// only, vector sets Similarity and Importance, hybrid sets
// VectorSimilarity and TextRank, document_chat sets the four signal
// fields.
type ChunkResult struct {
	ChunkID     uuid.UUID    `json:"chunk_id"`
	DocumentID  uuid.UUID    `json:"document_id"`
	PageNumber  int          `json:"page_number"`
	Content     string       `json:"content"`
	SectionPath []string     `json:"section_path"`
	Score       float64      `json:"score"`
	DocumentInfo DocumentInfo `json:"document_info"`

	// vector
	Similarity float64 `json:"similarity,omitempty"`
	Importance float64 `json:"importance,omitempty"`

	// hybrid
	VectorSimilarity float64 `json:"vector_similarity,omitempty"`
	TextRank         float64 `json:"text_rank,omitempty"`

	// document_chat
	SemanticSimilarity    float64 `json:"semantic_similarity,omitempty"`
	EntityRelevance       float64 `json:"entity_relevance,omitempty"`
	RelationshipRelevance float64 `json:"relationship_relevance,omitempty"`
	StructuralRelevance   float64 `json:"structural_relevance,omitempty"`
}

// SearchResponse is the envelope returned by every search mode. On
// internal failure Results is empty, Total is 0 and Error carries the
// message; callers must check Error rather than rely on a returned
// error value.
type SearchResponse struct {
	Results       []ChunkResult `json:"results"`
	Total         int           `json:"total"`
	Query         string        `json:"query"`
	Limit         int           `json:"limit"`
	Offset        int           `json:"offset"`
	SearchType    SearchMode    `json:"search_type"`
	ExecutionTime float64       `json:"execution_time"`
	Error         string        `json:"error,omitempty"`
}

// NewErrorResponse builds the error envelope for a failed search
func NewErrorResponse(mode SearchMode, query string, err error) *SearchResponse {
	return &SearchResponse{
		Results:    []ChunkResult{},
		Total:      0,
		Query:      query,
		SearchType: mode,
		Error:      err.Error(),
	}
}
