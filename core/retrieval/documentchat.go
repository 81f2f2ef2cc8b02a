package retrieval

import (
	"context"
	"math"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/docuquery/docuquery/model"
)

// tableVocabulary are the query words signalling interest in tabular
// content.
var tableVocabulary = []string{"table", "chart", "figure", "data", "statistics", "numbers"}

// documentChat scores every chunk of the scoped documents passing
// the request filters with four signals and ranks by their weighted
// combination. Metadata filters exclude whole documents, the page
// range excludes individual chunks. The recency
// weight reserves part of the budget without being multiplied
// against any signal.
func (e *Engine) documentChat(ctx context.Context, req *model.SearchRequest) ([]model.ChunkResult, int, error) {
	embedding, err := e.queryEmbedding(req.Query)
	if err != nil {
		return nil, 0, err
	}

	chunks, err := e.chunks.SelectChunksByDocuments(ctx, req.DocumentIDs)
	if err != nil {
		return nil, 0, err
	}
	entities, err := e.entities.SelectEntitiesByDocuments(ctx, req.DocumentIDs)
	if err != nil {
		return nil, 0, err
	}
	relationships, err := e.relationships.SelectRelationshipsByDocuments(ctx, req.DocumentIDs)
	if err != nil {
		return nil, 0, err
	}

	documentInfos := map[uuid.UUID]model.DocumentInfo{}
	tablePages := map[uuid.UUID]map[int]bool{}
	for _, documentID := range req.DocumentIDs {
		doc, err := e.documents.SelectDocument(documentID)
		if err != nil {
			return nil, 0, err
		}
		if !req.Filters.MatchesDocument(doc) {
			continue
		}
		documentInfos[documentID] = model.DocumentInfo{
			Title:        doc.Title,
			Author:       doc.Author,
			DocumentType: doc.DocumentType,
		}

		pages, err := e.documents.SelectPages(documentID)
		if err != nil {
			return nil, 0, err
		}
		tablePages[documentID] = map[int]bool{}
		for _, page := range pages {
			tablePages[documentID][page.PageNumber] = page.HasTable
		}
	}

	matched := MatchEntities(req.Query, entities)
	provenance := matchedProvenance(matched, relationships)
	weights := *req.ChatWeights
	semanticShare := weights.SemanticShare()

	results := make([]model.ChunkResult, 0, len(chunks))
	for _, chunk := range chunks {
		info, ok := documentInfos[chunk.DocumentID]
		if !ok || !req.Filters.MatchesPage(chunk.PageNumber) {
			continue
		}

		semantic := CosineSimilarity(embedding, chunk.Embedding)
		entityRel := EntityRelevance(chunk.Content, matched)
		relationshipRel := RelationshipRelevance(chunk.ID, provenance)
		structural := StructuralRelevance(chunk, tablePages[chunk.DocumentID][chunk.PageNumber], req.Query)

		score := semantic*semanticShare +
			chunk.Importance*weights.Importance +
			(entityRel+relationshipRel)*weights.Entity/2 +
			structural*weights.Structural

		results = append(results, model.ChunkResult{
			ChunkID:               chunk.ID,
			DocumentID:            chunk.DocumentID,
			PageNumber:            chunk.PageNumber,
			Content:               chunk.Content,
			SectionPath:           chunk.SectionPath,
			Score:                 score,
			DocumentInfo:          info,
			SemanticSimilarity:    semantic,
			EntityRelevance:       entityRel,
			RelationshipRelevance: relationshipRel,
			StructuralRelevance:   structural,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	total := len(results)
	if req.Offset >= total {
		return []model.ChunkResult{}, total, nil
	}
	end := req.Offset + req.Limit
	if end > total {
		end = total
	}

	return results[req.Offset:end], total, nil
}

// CosineSimilarity computes the cosine similarity of two vectors.
// Mismatched or zero vectors score 0.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// MatchEntities returns the entities whose name matches the query,
// either as a case-insensitive substring of the raw query or word
// by word against the query tokens.
func MatchEntities(query string, entities []*model.Entity) []*model.Entity {
	queryLower := strings.ToLower(query)
	tokens := map[string]bool{}
	for _, token := range strings.Fields(queryLower) {
		tokens[token] = true
	}

	var matched []*model.Entity
	for _, entity := range entities {
		nameLower := strings.ToLower(entity.Name)
		if strings.Contains(queryLower, nameLower) || strings.Contains(queryLower, entity.NormalizedName) {
			matched = append(matched, entity)
			continue
		}

		for _, word := range strings.Fields(entity.NormalizedName) {
			if tokens[word] {
				matched = append(matched, entity)
				break
			}
		}
	}

	return matched
}

// EntityRelevance is the fraction of query-matched entities whose
// name literally appears in the chunk's content.
func EntityRelevance(content string, matched []*model.Entity) float64 {
	if len(matched) == 0 {
		return 0
	}

	contentLower := strings.ToLower(content)
	present := 0
	for _, entity := range matched {
		if strings.Contains(contentLower, entity.NormalizedName) {
			present++
		}
	}

	return float64(present) / float64(len(matched))
}

// matchedProvenance collects the chunk IDs named as provenance by
// any relationship touching a matched entity.
func matchedProvenance(matched []*model.Entity, relationships []*model.Relationship) map[uuid.UUID]bool {
	matchedIDs := map[uuid.UUID]bool{}
	for _, entity := range matched {
		matchedIDs[entity.ID] = true
	}

	provenance := map[uuid.UUID]bool{}
	for _, rel := range relationships {
		if !matchedIDs[rel.SourceEntityID] && !matchedIDs[rel.TargetEntityID] {
			continue
		}
		for _, chunkID := range rel.ChunkIDs {
			id, err := uuid.Parse(chunkID)
			if err != nil {
				continue
			}
			provenance[id] = true
		}
	}

	return provenance
}

// RelationshipRelevance is 1 if the chunk is provenance of any
// relationship touching a query-matched entity, else 0.
func RelationshipRelevance(chunkID uuid.UUID, provenance map[uuid.UUID]bool) float64 {
	if provenance[chunkID] {
		return 1
	}
	return 0
}

// StructuralRelevance scores a chunk's structure against the query.
// Table content meets table-seeking queries with a full score,
// otherwise section nesting depth is used as a weak signal.
func StructuralRelevance(chunk *model.Chunk, pageHasTable bool, query string) float64 {
	if pageHasTable || chunk.ContentType == model.ContentTypeTable {
		queryLower := strings.ToLower(query)
		for _, word := range tableVocabulary {
			if strings.Contains(queryLower, word) {
				return 1
			}
		}
	}

	if len(chunk.SectionPath) > 0 {
		return math.Min(1, float64(len(chunk.SectionPath))/5)
	}

	return 0
}
