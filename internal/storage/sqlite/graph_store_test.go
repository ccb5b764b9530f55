package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scrypster/castgraph/internal/storage"
	"github.com/scrypster/castgraph/pkg/types"
)

func newTestStore(t *testing.T) *GraphStore {
	t.Helper()
	store, err := NewGraphStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func testEpisode(id string) *types.Episode {
	return &types.Episode{
		ID:       id,
		Title:    "Episode " + id,
		Podcast:  "Test Podcast",
		Duration: 45 * time.Minute,
		VTTPath:  "/episodes/" + id + ".vtt",
	}
}

func TestEpisodeRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	episode := testEpisode("ep:001")
	episode.PublishedAt = time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, store.StoreEpisode(ctx, episode))

	got, err := store.GetEpisode(ctx, "ep:001")
	require.NoError(t, err)
	assert.Equal(t, "Episode ep:001", got.Title)
	assert.Equal(t, "Test Podcast", got.Podcast)
	assert.Equal(t, 45*time.Minute, got.Duration)
	assert.Equal(t, types.EpisodePending, got.Status)
	assert.True(t, got.PublishedAt.Equal(episode.PublishedAt))
	assert.False(t, got.CreatedAt.IsZero())
}

func TestEpisodeUpsert(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	episode := testEpisode("ep:001")
	require.NoError(t, store.StoreEpisode(ctx, episode))

	episode.Title = "Renamed"
	episode.YouTubeID = "abc123"
	require.NoError(t, store.StoreEpisode(ctx, episode))

	got, err := store.GetEpisode(ctx, "ep:001")
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Title)
	assert.Equal(t, "abc123", got.YouTubeID)

	episodes, err := store.ListEpisodes(ctx)
	require.NoError(t, err)
	assert.Len(t, episodes, 1)
}

func TestEpisodeNotFound(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.GetEpisode(ctx, "ep:missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	err = store.UpdateEpisodeStatus(ctx, "ep:missing", types.EpisodeCompleted)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestEpisodeValidation(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	assert.ErrorIs(t, store.StoreEpisode(ctx, nil), storage.ErrInvalidInput)
	assert.ErrorIs(t, store.StoreEpisode(ctx, &types.Episode{Title: "no id"}), storage.ErrInvalidInput)
	assert.ErrorIs(t, store.StoreEpisode(ctx, &types.Episode{ID: "ep:1"}), storage.ErrInvalidInput)
}

func TestUpdateEpisodeStatus(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.StoreEpisode(ctx, testEpisode("ep:001")))
	require.NoError(t, store.UpdateEpisodeStatus(ctx, "ep:001", types.EpisodeDegraded))

	got, err := store.GetEpisode(ctx, "ep:001")
	require.NoError(t, err)
	assert.Equal(t, types.EpisodeDegraded, got.Status)
}

func TestUnitsRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.StoreEpisode(ctx, testEpisode("ep:001")))

	units := []types.Unit{
		{ID: "unit:ep:001:0", EpisodeID: "ep:001", Index: 0, Start: 0, End: 90 * time.Second,
			Speakers: []string{"Alice", "Bob"}, Text: "opening chatter", Tokens: 40},
		{ID: "unit:ep:001:1", EpisodeID: "ep:001", Index: 1, Start: 90 * time.Second, End: 4 * time.Minute,
			Speakers: []string{"Bob"}, Text: "main segment", Tokens: 120},
	}
	require.NoError(t, store.StoreUnits(ctx, units))

	got, err := store.GetUnits(ctx, "ep:001")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, []string{"Alice", "Bob"}, got[0].Speakers)
	assert.Equal(t, 90*time.Second, got[0].End)
	assert.Equal(t, 1, got[1].Index)
	assert.Equal(t, "main segment", got[1].Text)
}

func TestEntitiesRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	entities := []types.Entity{
		{ID: "ent:1", Name: "Apple Inc.", Type: "organization", Confidence: 0.95,
			Description: "Tech company", Aliases: []string{"Apple"},
			EpisodeID: "ep:001", UnitIDs: []string{"unit:ep:001:0", "unit:ep:001:1"}},
		{ID: "ent:2", Name: "Tim Cook", Type: "person", Confidence: 0.9, EpisodeID: "ep:001"},
	}
	require.NoError(t, store.StoreEntities(ctx, entities))

	got, err := store.GetEntity(ctx, "ent:1")
	require.NoError(t, err)
	assert.Equal(t, "Apple Inc.", got.Name)
	assert.Equal(t, []string{"Apple"}, got.Aliases)
	assert.Equal(t, []string{"unit:ep:001:0", "unit:ep:001:1"}, got.UnitIDs)

	list, err := store.ListEntitiesByEpisode(ctx, "ep:001")
	require.NoError(t, err)
	assert.Len(t, list, 2)

	_, err = store.GetEntity(ctx, "ent:missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestSearchEntities(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.StoreEntities(ctx, []types.Entity{
		{ID: "ent:1", Name: "Apple Inc.", Type: "organization", Confidence: 0.95, Aliases: []string{"Apple"}},
		{ID: "ent:2", Name: "Pineapple Farms", Type: "organization", Confidence: 0.7},
		{ID: "ent:3", Name: "Microsoft", Type: "organization", Confidence: 0.9},
	}))

	results, err := store.SearchEntities(ctx, "apple", 10)
	require.NoError(t, err)
	require.Len(t, results, 2, "substring match includes Pineapple")
	assert.Equal(t, "Apple Inc.", results[0].Name, "ordered by confidence")

	results, err = store.SearchEntities(ctx, "micro", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Microsoft", results[0].Name)
}

func TestUpdateEntityEmbedding(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.StoreEntities(ctx, []types.Entity{
		{ID: "ent:1", Name: "Apple Inc.", Type: "organization", Confidence: 0.95},
	}))

	vec := []float32{0.1, 0.2, 0.3}
	require.NoError(t, store.UpdateEntityEmbedding(ctx, "ent:1", vec, "text-embedding-3-small"))

	got, err := store.GetEntity(ctx, "ent:1")
	require.NoError(t, err)
	assert.Equal(t, vec, got.Embedding)
	assert.Equal(t, "text-embedding-3-small", got.EmbeddingModel)
	assert.Equal(t, 3, got.EmbeddingDimension)

	assert.ErrorIs(t, store.UpdateEntityEmbedding(ctx, "ent:missing", vec, "m"), storage.ErrNotFound)
}

func TestRelationshipsRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	rels := []types.Relationship{
		{ID: "rel:1", FromID: "ent:2", ToID: "ent:1", Type: "works_at", Confidence: 0.9,
			EpisodeID: "ep:001", Evidence: []string{"unit:ep:001:0"}},
		{ID: "rel:2", FromID: "ent:1", ToID: "ent:3", Type: "competes_with", Confidence: 0.8, EpisodeID: "ep:001"},
	}
	require.NoError(t, store.StoreRelationships(ctx, rels))

	got, err := store.ListRelationships(ctx, "ent:1")
	require.NoError(t, err)
	require.Len(t, got, 2, "both directions are returned")
	assert.Equal(t, "works_at", got[0].Type, "ordered by confidence")
	assert.Equal(t, []string{"unit:ep:001:0"}, got[0].Evidence)

	got, err = store.ListRelationships(ctx, "ent:3")
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestInsightsAndQuotesRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	insights := []types.Insight{
		{ID: "ins:1", Type: "prediction", Content: "Robots everywhere by 2030",
			Speaker: "Alice", Confidence: 0.8, EpisodeID: "ep:001",
			UnitID: "unit:ep:001:0", EntityIDs: []string{"ent:1"}},
	}
	require.NoError(t, store.StoreInsights(ctx, insights))

	gotInsights, err := store.ListInsightsByEpisode(ctx, "ep:001")
	require.NoError(t, err)
	require.Len(t, gotInsights, 1)
	assert.Equal(t, "prediction", gotInsights[0].Type)
	assert.Equal(t, []string{"ent:1"}, gotInsights[0].EntityIDs)

	quotes := []types.Quote{
		{ID: "quo:2", Text: "second quote", Speaker: "Bob", EpisodeID: "ep:001", Start: 20 * time.Minute},
		{ID: "quo:1", Text: "first quote", Speaker: "Alice", EpisodeID: "ep:001", Start: 5 * time.Minute},
	}
	require.NoError(t, store.StoreQuotes(ctx, quotes))

	gotQuotes, err := store.ListQuotesByEpisode(ctx, "ep:001")
	require.NoError(t, err)
	require.Len(t, gotQuotes, 2)
	assert.Equal(t, "first quote", gotQuotes[0].Text, "ordered by start offset")
	assert.Equal(t, 5*time.Minute, gotQuotes[0].Start)
}

func TestDeleteEpisodeGraph(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.StoreEpisode(ctx, testEpisode("ep:001")))
	require.NoError(t, store.StoreUnits(ctx, []types.Unit{
		{ID: "unit:ep:001:0", EpisodeID: "ep:001", Text: "t"},
	}))
	require.NoError(t, store.StoreEntities(ctx, []types.Entity{
		{ID: "ent:1", Name: "Apple", Type: "organization", EpisodeID: "ep:001"},
	}))
	require.NoError(t, store.StoreRelationships(ctx, []types.Relationship{
		{ID: "rel:1", FromID: "ent:1", ToID: "ent:2", Type: "relates_to", EpisodeID: "ep:001"},
	}))
	require.NoError(t, store.StoreInsights(ctx, []types.Insight{
		{ID: "ins:1", Type: "fact", Content: "c", EpisodeID: "ep:001"},
	}))
	require.NoError(t, store.StoreQuotes(ctx, []types.Quote{
		{ID: "quo:1", Text: "q", EpisodeID: "ep:001"},
	}))

	require.NoError(t, store.DeleteEpisodeGraph(ctx, "ep:001"))

	units, err := store.GetUnits(ctx, "ep:001")
	require.NoError(t, err)
	assert.Empty(t, units)

	entities, err := store.ListEntitiesByEpisode(ctx, "ep:001")
	require.NoError(t, err)
	assert.Empty(t, entities)

	insights, err := store.ListInsightsByEpisode(ctx, "ep:001")
	require.NoError(t, err)
	assert.Empty(t, insights)

	quotes, err := store.ListQuotesByEpisode(ctx, "ep:001")
	require.NoError(t, err)
	assert.Empty(t, quotes)

	// Episode row survives for reprocessing.
	_, err = store.GetEpisode(ctx, "ep:001")
	require.NoError(t, err)
}

func TestEmptyBatchesAreNoOps(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	assert.NoError(t, store.StoreUnits(ctx, nil))
	assert.NoError(t, store.StoreEntities(ctx, nil))
	assert.NoError(t, store.StoreRelationships(ctx, nil))
	assert.NoError(t, store.StoreInsights(ctx, nil))
	assert.NoError(t, store.StoreQuotes(ctx, nil))
}
