package graph

import (
	"github.com/docuquery/docuquery/model"
	"github.com/google/uuid"
)

// TraversalResult is an entity reached during traversal together with
// its hop distance from the source and the path taken.
type TraversalResult struct {
	Entity   *model.Entity
	Distance int
	Path     []uuid.UUID // Entity IDs from source to this entity
}

// EntityGraph is an in-memory adjacency view over the co-occurrence
// relationships of one document. Relationships are undirected, so
// every relationship contributes an edge in both directions.
type EntityGraph struct {
	entities  map[uuid.UUID]*model.Entity
	adjacency map[uuid.UUID][]uuid.UUID
}

// NewEntityGraph builds the graph from a document's entities and
// relationships. Relationships referencing unknown entities are
// skipped.
func NewEntityGraph(entities []*model.Entity, relationships []*model.Relationship) *EntityGraph {
	g := &EntityGraph{
		entities:  make(map[uuid.UUID]*model.Entity, len(entities)),
		adjacency: make(map[uuid.UUID][]uuid.UUID),
	}

	for _, entity := range entities {
		g.entities[entity.ID] = entity
	}

	for _, relationship := range relationships {
		_, sourceKnown := g.entities[relationship.SourceEntityID]
		_, targetKnown := g.entities[relationship.TargetEntityID]
		if !sourceKnown || !targetKnown {
			continue
		}
		g.adjacency[relationship.SourceEntityID] = append(g.adjacency[relationship.SourceEntityID], relationship.TargetEntityID)
		g.adjacency[relationship.TargetEntityID] = append(g.adjacency[relationship.TargetEntityID], relationship.SourceEntityID)
	}

	return g
}

// Entity returns the entity with the given ID, or nil
func (g *EntityGraph) Entity(id uuid.UUID) *model.Entity {
	return g.entities[id]
}

// BFS performs breadth-first traversal from a source entity and
// returns every entity reachable within maxHops, the source first.
// The same pair of entities may co-occur in many chunks; duplicate
// edges do not produce duplicate results.
func (g *EntityGraph) BFS(sourceID uuid.UUID, maxHops int) []*TraversalResult {
	source, ok := g.entities[sourceID]
	if !ok {
		return nil
	}

	visited := map[uuid.UUID]bool{sourceID: true}
	queue := []TraversalResult{{
		Entity:   source,
		Distance: 0,
		Path:     []uuid.UUID{sourceID},
	}}

	var results []*TraversalResult
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		results = append(results, &current)

		if current.Distance >= maxHops {
			continue
		}

		for _, neighborID := range g.adjacency[current.Entity.ID] {
			if visited[neighborID] {
				continue
			}
			visited[neighborID] = true

			path := make([]uuid.UUID, len(current.Path), len(current.Path)+1)
			copy(path, current.Path)
			path = append(path, neighborID)

			queue = append(queue, TraversalResult{
				Entity:   g.entities[neighborID],
				Distance: current.Distance + 1,
				Path:     path,
			})
		}
	}

	return results
}

// Neighbors returns the entities directly co-occurring with the given
// entity.
func (g *EntityGraph) Neighbors(entityID uuid.UUID) []*model.Entity {
	results := g.BFS(entityID, 1)
	if len(results) == 0 {
		return nil
	}

	neighbors := make([]*model.Entity, 0, len(results)-1)
	for _, result := range results[1:] {
		neighbors = append(neighbors, result.Entity)
	}
	return neighbors
}
