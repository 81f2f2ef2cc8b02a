package model

import (
	"time"

	"github.com/google/uuid"
)

// Document represents an ingested source document.
// Documents are immutable after ingestion; deleting one cascades to
// all of its pages, chunks, entities and relationships.
type Document struct {
	ID                   uuid.UUID  `json:"id"`
	Filename             string     `json:"filename"`
	Title                string     `json:"title"`
	Author               string     `json:"author"`
	CreationDate         *time.Time `json:"creation_date,omitempty"`
	ModificationDate     *time.Time `json:"modification_date,omitempty"`
	FileCreationDate     *time.Time `json:"file_creation_date,omitempty"`
	FileModificationDate *time.Time `json:"file_modification_date,omitempty"`
	PageCount            int        `json:"page_count"`
	FileSize             int64      `json:"file_size"`
	Language             string     `json:"language"`
	DocumentType         string     `json:"document_type"`
	Topics               []string   `json:"topics"`
	Summary              string     `json:"summary,omitempty"`
	TableCount           int        `json:"table_count"`
	CreatedAt            time.Time  `json:"created_at"`
}

// Page represents one physical page of a document
type Page struct {
	ID         uuid.UUID `json:"id"`
	DocumentID uuid.UUID `json:"document_id"`
	PageNumber int       `json:"page_number"` // 1-based
	HasTable   bool      `json:"has_table"`
}

// DocumentGraph is the full output of the ingestion pipeline for one
// document. It is persisted atomically.
type DocumentGraph struct {
	Document      *Document
	Pages         []*Page
	Chunks        []*Chunk
	Entities      []*Entity
	Relationships []*Relationship
}
