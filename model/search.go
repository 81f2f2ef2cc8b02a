package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// SearchMode selects one of the four retrieval modes
type SearchMode string

const (
	SearchModeFulltext     SearchMode = "fulltext"
	SearchModeVector       SearchMode = "vector"
	SearchModeHybrid       SearchMode = "hybrid"
	SearchModeDocumentChat SearchMode = "document_chat"
)

// Default weights for hybrid search. Weights are not required to sum
// to 1; callers may supply arbitrary weights.
const (
	DefaultVectorWeight = 0.65
	DefaultTextWeight   = 0.35
)

// ValidationError reports an invalid search request. It is raised
// distinctly from transient backend failures, which are returned
// inside the response envelope instead.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// NewValidationError creates a formatted ValidationError
func NewValidationError(format string, args ...any) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// SearchFilters restricts search results by document metadata and
// page range. Zero values mean the filter is not applied.
type SearchFilters struct {
	Author            string     `json:"author,omitempty"`
	CreationDateStart *time.Time `json:"creation_date_start,omitempty"`
	CreationDateEnd   *time.Time `json:"creation_date_end,omitempty"`
	DocumentType      string     `json:"document_type,omitempty"`
	Language          string     `json:"language,omitempty"`
	Topics            []string   `json:"topics,omitempty"`
	MinPage           *int       `json:"min_page,omitempty"`
	MaxPage           *int       `json:"max_page,omitempty"`
}

// MatchesDocument reports whether a document passes the metadata
// filters. A nil filter set matches every document. Author matching
// is a case-insensitive substring, topics match on any overlap and
// date bounds are inclusive.
func (f *SearchFilters) MatchesDocument(doc *Document) bool {
	if f == nil {
		return true
	}
	if f.Author != "" && !strings.Contains(strings.ToLower(doc.Author), strings.ToLower(f.Author)) {
		return false
	}
	if f.CreationDateStart != nil && (doc.CreationDate == nil || doc.CreationDate.Before(*f.CreationDateStart)) {
		return false
	}
	if f.CreationDateEnd != nil && (doc.CreationDate == nil || doc.CreationDate.After(*f.CreationDateEnd)) {
		return false
	}
	if f.DocumentType != "" && doc.DocumentType != f.DocumentType {
		return false
	}
	if f.Language != "" && doc.Language != f.Language {
		return false
	}
	if len(f.Topics) > 0 {
		overlap := false
		for _, topic := range f.Topics {
			for _, docTopic := range doc.Topics {
				if topic == docTopic {
					overlap = true
				}
			}
		}
		if !overlap {
			return false
		}
	}

	return true
}

// MatchesPage reports whether a page number lies inside the filtered
// page range. Both bounds are inclusive.
func (f *SearchFilters) MatchesPage(pageNumber int) bool {
	if f == nil {
		return true
	}
	if f.MinPage != nil && pageNumber < *f.MinPage {
		return false
	}
	if f.MaxPage != nil && pageNumber > *f.MaxPage {
		return false
	}
	return true
}

// ChatWeights configures document_chat scoring. The semantic signal
// receives the remainder of the weight budget:
// 1 - Importance - Entity - Structural - Recency.
// Recency is reserved in the budget but not multiplied against any
// signal.
type ChatWeights struct {
	Importance float64 `json:"importance_weight"`
	Entity     float64 `json:"entity_weight"`
	Structural float64 `json:"structural_weight"`
	Recency    float64 `json:"recency_weight"`
}

// DefaultChatWeights returns the default document_chat weight budget
func DefaultChatWeights() ChatWeights {
	return ChatWeights{
		Importance: 0.3,
		Entity:     0.3,
		Structural: 0.2,
		Recency:    0.2,
	}
}

// SemanticShare returns the share of the weight budget left for the
// semantic similarity signal.
func (w ChatWeights) SemanticShare() float64 {
	return 1 - w.Importance - w.Entity - w.Structural - w.Recency
}

// SearchRequest describes one search operation in any mode
type SearchRequest struct {
	Query        string         `json:"query"`
	Mode         SearchMode     `json:"search_type"`
	DocumentIDs  []uuid.UUID    `json:"document_scope,omitempty"`
	Limit        int            `json:"limit"`
	Offset       int            `json:"offset"`
	Filters      *SearchFilters `json:"filters,omitempty"`
	VectorWeight *float64       `json:"vector_weight,omitempty"`
	TextWeight   *float64       `json:"text_weight,omitempty"`
	ChatWeights  *ChatWeights   `json:"chat_weights,omitempty"`
}

// Normalize fills in defaults for pagination and weights
func (r *SearchRequest) Normalize() {
	if r.Limit <= 0 {
		r.Limit = 10
	}
	if r.Offset < 0 {
		r.Offset = 0
	}
	if r.VectorWeight == nil {
		vw := DefaultVectorWeight
		r.VectorWeight = &vw
	}
	if r.TextWeight == nil {
		tw := DefaultTextWeight
		r.TextWeight = &tw
	}
	if r.ChatWeights == nil {
		cw := DefaultChatWeights()
		r.ChatWeights = &cw
	}
}

// Validate checks the request and returns a ValidationError if it
// cannot be executed.
func (r *SearchRequest) Validate() error {
	if strings.TrimSpace(r.Query) == "" {
		return NewValidationError("query must be a non-empty string")
	}

	switch r.Mode {
	case SearchModeFulltext, SearchModeVector, SearchModeHybrid:
	case SearchModeDocumentChat:
		if len(r.DocumentIDs) == 0 {
			return NewValidationError("document_chat search requires at least one document id")
		}
	default:
		return NewValidationError("invalid search type %q, valid options: fulltext, vector, hybrid, document_chat", r.Mode)
	}

	return nil
}
