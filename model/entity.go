package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Occurrence locates one mention of an entity inside a chunk
type Occurrence struct {
	ChunkID uuid.UUID `json:"chunk_id"`
	Start   int       `json:"start"`
	End     int       `json:"end"`
}

// Occurrences represents a JSONB occurrence list stored in PostgreSQL
type Occurrences []Occurrence

// Value implements the driver.Valuer interface for database storage
func (o Occurrences) Value() (driver.Value, error) {
	return json.Marshal(o)
}

// Scan implements the sql.Scanner interface for database retrieval
func (o *Occurrences) Scan(value interface{}) error {
	if value == nil {
		*o = Occurrences{}
		return nil
	}

	b, ok := value.([]byte)
	if !ok {
		return errors.New("type assertion to []byte failed")
	}

	return json.Unmarshal(b, o)
}

// Entity represents a canonicalized named mention. Within one
// document entities are deduplicated by (normalized_name, type).
// Importance is the raw mention count divided by the maximum mention
// count among all entities of the document, so the most-mentioned
// entity always has importance 1.0.
type Entity struct {
	ID             uuid.UUID   `json:"id"`
	DocumentID     uuid.UUID   `json:"document_id"`
	Type           string      `json:"type"`
	Name           string      `json:"name"`
	NormalizedName string      `json:"normalized_name"`
	Occurrences    Occurrences `json:"occurrences"`
	Importance     float64     `json:"importance"`
	Description    string      `json:"description,omitempty"`
	CreatedAt      time.Time   `json:"created_at"`
}
