// Package storage provides the persistence interfaces for the Castgraph
// knowledge graph. Two backends implement GraphStore: sqlite (the default,
// zero-setup) and postgres (with pgvector entity embeddings).
package storage

import (
	"context"
	"errors"

	"github.com/scrypster/castgraph/pkg/types"
)

// Common storage errors.
var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrInvalidInput is returned when required fields are missing or malformed.
	ErrInvalidInput = errors.New("invalid input")
)

// GraphStore persists episodes, transcript units, and the extracted
// knowledge graph (entities, relationships, insights, quotes).
type GraphStore interface {
	// StoreEpisode creates or updates an episode (upsert semantics).
	StoreEpisode(ctx context.Context, episode *types.Episode) error

	// GetEpisode retrieves an episode by ID.
	// Returns ErrNotFound if the episode doesn't exist.
	GetEpisode(ctx context.Context, id string) (*types.Episode, error)

	// ListEpisodes retrieves all episodes ordered by creation time.
	ListEpisodes(ctx context.Context) ([]*types.Episode, error)

	// UpdateEpisodeStatus updates the processing status of an episode.
	// Returns ErrNotFound if the episode doesn't exist.
	UpdateEpisodeStatus(ctx context.Context, id string, status types.EpisodeStatus) error

	// StoreUnits persists the segmented transcript units for an episode.
	StoreUnits(ctx context.Context, units []types.Unit) error

	// GetUnits retrieves all units for an episode ordered by index.
	GetUnits(ctx context.Context, episodeID string) ([]types.Unit, error)

	// StoreEntities persists resolved entities (upsert by ID).
	StoreEntities(ctx context.Context, entities []types.Entity) error

	// GetEntity retrieves an entity by ID.
	// Returns ErrNotFound if the entity doesn't exist.
	GetEntity(ctx context.Context, id string) (*types.Entity, error)

	// ListEntitiesByEpisode retrieves all entities extracted from an episode.
	ListEntitiesByEpisode(ctx context.Context, episodeID string) ([]types.Entity, error)

	// SearchEntities finds entities whose name or aliases contain the query,
	// case-insensitive, up to limit results.
	SearchEntities(ctx context.Context, query string, limit int) ([]types.Entity, error)

	// UpdateEntityEmbedding stores the embedding vector for an entity.
	// Returns ErrNotFound if the entity doesn't exist.
	UpdateEntityEmbedding(ctx context.Context, id string, embedding []float32, model string) error

	// StoreRelationships persists extracted relationships (upsert by ID).
	StoreRelationships(ctx context.Context, rels []types.Relationship) error

	// ListRelationships retrieves relationships touching the given entity,
	// in either direction.
	ListRelationships(ctx context.Context, entityID string) ([]types.Relationship, error)

	// StoreInsights persists extracted insights.
	StoreInsights(ctx context.Context, insights []types.Insight) error

	// ListInsightsByEpisode retrieves all insights for an episode.
	ListInsightsByEpisode(ctx context.Context, episodeID string) ([]types.Insight, error)

	// StoreQuotes persists extracted quotes.
	StoreQuotes(ctx context.Context, quotes []types.Quote) error

	// ListQuotesByEpisode retrieves all quotes for an episode ordered by start offset.
	ListQuotesByEpisode(ctx context.Context, episodeID string) ([]types.Quote, error)

	// DeleteEpisodeGraph removes all derived data for an episode (units,
	// entities, relationships, insights, quotes) so it can be reprocessed.
	// The episode row itself is kept.
	DeleteEpisodeGraph(ctx context.Context, episodeID string) error

	// Close releases any resources held by the store.
	Close() error
}
