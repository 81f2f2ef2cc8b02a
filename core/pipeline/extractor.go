package pipeline

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/docuquery/docuquery/model"
)

// Extractor derives the canonical entity set and co-occurrence
// relationships of a document from its chunks.
type Extractor struct {
	Recognize RecognizeFunc
}

// NewExtractor creates an entity extractor around a recognizer
func NewExtractor(recognize RecognizeFunc) (*Extractor, error) {
	if recognize == nil {
		return nil, fmt.Errorf("recognize function is nil")
	}

	return &Extractor{
		Recognize: recognize,
	}, nil
}

type entityKey struct {
	normalized string
	label      string
}

// Extract runs NER over every text chunk and accumulates entities
// and relationships.
//
// Entities are canonicalized per document by (lowercased text, NER
// label). Every mention appends an occurrence with its chunk and
// span. After all chunks are processed entity importance is the
// mention count divided by the document-wide maximum, so the most
// mentioned entity always has importance 1.0.
//
// Within one chunk every unordered pair of distinct entities yields
// one co-occurrence relationship carrying that chunk as provenance.
// Pairs are not merged across chunks.
func (e *Extractor) Extract(documentID uuid.UUID, chunks []*model.Chunk) ([]*model.Entity, []*model.Relationship, error) {
	entitiesByKey := map[entityKey]*model.Entity{}
	mentionCounts := map[entityKey]int{}
	var entities []*model.Entity
	var relationships []*model.Relationship

	for _, chunk := range chunks {
		if chunk.ContentType != model.ContentTypeText {
			continue
		}

		mentions, err := e.Recognize(chunk.Content)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to extract entities from chunk %d: %w", chunk.ChunkIndex, err)
		}

		seenInChunk := map[entityKey]bool{}
		var chunkEntities []*model.Entity

		for _, mention := range mentions {
			key := entityKey{
				normalized: strings.ToLower(mention.Text),
				label:      mention.Label,
			}

			entity, ok := entitiesByKey[key]
			if !ok {
				entity = &model.Entity{
					ID:             uuid.New(),
					DocumentID:     documentID,
					Type:           mention.Label,
					Name:           mention.Text,
					NormalizedName: key.normalized,
				}
				entitiesByKey[key] = entity
				entities = append(entities, entity)
			}

			entity.Occurrences = append(entity.Occurrences, model.Occurrence{
				ChunkID: chunk.ID,
				Start:   mention.Start,
				End:     mention.End,
			})
			mentionCounts[key]++

			if !seenInChunk[key] {
				seenInChunk[key] = true
				chunkEntities = append(chunkEntities, entity)
			}
		}

		// One relationship per unordered pair of distinct entities
		// in this chunk.
		for i := 0; i < len(chunkEntities); i++ {
			for j := i + 1; j < len(chunkEntities); j++ {
				relationships = append(relationships, &model.Relationship{
					ID:             uuid.New(),
					DocumentID:     documentID,
					SourceEntityID: chunkEntities[i].ID,
					TargetEntityID: chunkEntities[j].ID,
					Type:           model.RelationshipTypeCoOccurrence,
					Confidence:     model.CoOccurrenceConfidence,
					ChunkIDs:       []string{chunk.ID.String()},
				})
			}
		}
	}

	maxMentions := 0
	for _, count := range mentionCounts {
		if count > maxMentions {
			maxMentions = count
		}
	}
	if maxMentions > 0 {
		for key, entity := range entitiesByKey {
			entity.Importance = float64(mentionCounts[key]) / float64(maxMentions)
		}
	}

	return entities, relationships, nil
}
