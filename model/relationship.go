package model

import (
	"time"

	"github.com/google/uuid"
)

// RelationshipTypeCoOccurrence is the only relationship type produced
// by the extraction pipeline.
const RelationshipTypeCoOccurrence = "co-occurrence"

// CoOccurrenceConfidence is the fixed confidence assigned to
// co-occurrence relationships.
const CoOccurrenceConfidence = 0.5

// Relationship is an undirected edge between two entities sharing a
// chunk. One record exists per unordered entity pair per chunk in
// which both entities occur; records are not merged across chunks, so
// the same pair may have many rows, each carrying its own chunk
// provenance.
type Relationship struct {
	ID             uuid.UUID `json:"id"`
	DocumentID     uuid.UUID `json:"document_id"`
	SourceEntityID uuid.UUID `json:"source_entity_id"`
	TargetEntityID uuid.UUID `json:"target_entity_id"`
	Type           string    `json:"type"`
	Confidence     float64   `json:"confidence"`
	Description    string    `json:"description,omitempty"`
	ChunkIDs       []string  `json:"chunk_ids"`
	CreatedAt      time.Time `json:"created_at"`
}
