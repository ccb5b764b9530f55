// Package sqlite implements storage.GraphStore on SQLite via modernc.org/sqlite.
// It is the default backend: a single file, no server, good enough for a few
// thousand episodes.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/scrypster/castgraph/internal/storage"
	"github.com/scrypster/castgraph/pkg/types"
)

// GraphStore implements storage.GraphStore using SQLite.
type GraphStore struct {
	db *sql.DB
}

// NewGraphStore opens a SQLite database, configures WAL mode, and creates
// the schema.
func NewGraphStore(dsn string) (*GraphStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one concurrent writer. A single open connection
	// serialises writes and avoids SQLITE_BUSY errors under concurrent load.
	// WAL mode lets readers proceed without blocking the writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &GraphStore{db: db}, nil
}

// Close releases the database connection.
func (s *GraphStore) Close() error {
	return s.db.Close()
}

// StoreEpisode creates or updates an episode (upsert semantics).
func (s *GraphStore) StoreEpisode(ctx context.Context, episode *types.Episode) error {
	if episode == nil {
		return storage.ErrInvalidInput
	}
	if episode.ID == "" {
		return fmt.Errorf("%w: episode ID is required", storage.ErrInvalidInput)
	}
	if episode.Title == "" {
		return fmt.Errorf("%w: episode title is required", storage.ErrInvalidInput)
	}

	if episode.CreatedAt.IsZero() {
		episode.CreatedAt = time.Now()
	}
	if episode.UpdatedAt.IsZero() {
		episode.UpdatedAt = time.Now()
	}
	if episode.Status == "" {
		episode.Status = types.EpisodePending
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO episodes (
			id, title, podcast, published_at, duration_ns,
			audio_url, youtube_id, vtt_path, status, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			podcast = excluded.podcast,
			published_at = excluded.published_at,
			duration_ns = excluded.duration_ns,
			audio_url = excluded.audio_url,
			youtube_id = excluded.youtube_id,
			vtt_path = excluded.vtt_path,
			status = excluded.status,
			updated_at = excluded.updated_at
	`,
		episode.ID, episode.Title, episode.Podcast, nullableTime(episode.PublishedAt),
		int64(episode.Duration), episode.AudioURL, episode.YouTubeID, episode.VTTPath,
		string(episode.Status), episode.CreatedAt, episode.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to store episode: %w", err)
	}
	return nil
}

// GetEpisode retrieves an episode by ID.
func (s *GraphStore) GetEpisode(ctx context.Context, id string) (*types.Episode, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, title, podcast, published_at, duration_ns,
			audio_url, youtube_id, vtt_path, status, created_at, updated_at
		FROM episodes WHERE id = ?
	`, id)

	episode, err := scanEpisode(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get episode: %w", err)
	}
	return episode, nil
}

// ListEpisodes retrieves all episodes ordered by creation time.
func (s *GraphStore) ListEpisodes(ctx context.Context) ([]*types.Episode, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, podcast, published_at, duration_ns,
			audio_url, youtube_id, vtt_path, status, created_at, updated_at
		FROM episodes ORDER BY created_at, id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list episodes: %w", err)
	}
	defer rows.Close()

	var episodes []*types.Episode
	for rows.Next() {
		episode, err := scanEpisode(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan episode: %w", err)
		}
		episodes = append(episodes, episode)
	}
	return episodes, rows.Err()
}

// UpdateEpisodeStatus updates the processing status of an episode.
func (s *GraphStore) UpdateEpisodeStatus(ctx context.Context, id string, status types.EpisodeStatus) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE episodes SET status = ?, updated_at = ? WHERE id = ?`,
		string(status), time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update episode status: %w", err)
	}
	return checkAffected(result)
}

// StoreUnits persists the segmented transcript units for an episode.
func (s *GraphStore) StoreUnits(ctx context.Context, units []types.Unit) error {
	if len(units) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO units (id, episode_id, idx, start_ns, end_ns, speakers, text, tokens)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			idx = excluded.idx,
			start_ns = excluded.start_ns,
			end_ns = excluded.end_ns,
			speakers = excluded.speakers,
			text = excluded.text,
			tokens = excluded.tokens
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare unit insert: %w", err)
	}
	defer stmt.Close()

	for _, unit := range units {
		if unit.ID == "" || unit.EpisodeID == "" {
			return fmt.Errorf("%w: unit ID and episode ID are required", storage.ErrInvalidInput)
		}
		speakersJSON, err := marshalStrings(unit.Speakers)
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx, unit.ID, unit.EpisodeID, unit.Index,
			int64(unit.Start), int64(unit.End), speakersJSON, unit.Text, unit.Tokens); err != nil {
			return fmt.Errorf("failed to store unit %s: %w", unit.ID, err)
		}
	}

	return tx.Commit()
}

// GetUnits retrieves all units for an episode ordered by index.
func (s *GraphStore) GetUnits(ctx context.Context, episodeID string) ([]types.Unit, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, episode_id, idx, start_ns, end_ns, speakers, text, tokens
		FROM units WHERE episode_id = ? ORDER BY idx
	`, episodeID)
	if err != nil {
		return nil, fmt.Errorf("failed to get units: %w", err)
	}
	defer rows.Close()

	var units []types.Unit
	for rows.Next() {
		var (
			unit         types.Unit
			startNS      int64
			endNS        int64
			speakersJSON sql.NullString
		)
		if err := rows.Scan(&unit.ID, &unit.EpisodeID, &unit.Index,
			&startNS, &endNS, &speakersJSON, &unit.Text, &unit.Tokens); err != nil {
			return nil, fmt.Errorf("failed to scan unit: %w", err)
		}
		unit.Start = time.Duration(startNS)
		unit.End = time.Duration(endNS)
		if unit.Speakers, err = unmarshalStrings(speakersJSON); err != nil {
			return nil, err
		}
		units = append(units, unit)
	}
	return units, rows.Err()
}

// StoreEntities persists resolved entities (upsert by ID).
func (s *GraphStore) StoreEntities(ctx context.Context, entities []types.Entity) error {
	if len(entities) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO entities (
			id, name, type, confidence, description, aliases,
			episode_id, unit_ids, embedding, embedding_model, embedding_dimension,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			type = excluded.type,
			confidence = excluded.confidence,
			description = excluded.description,
			aliases = excluded.aliases,
			episode_id = excluded.episode_id,
			unit_ids = excluded.unit_ids,
			updated_at = excluded.updated_at
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare entity insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now()
	for _, entity := range entities {
		if entity.ID == "" || entity.Name == "" {
			return fmt.Errorf("%w: entity ID and name are required", storage.ErrInvalidInput)
		}
		if entity.CreatedAt.IsZero() {
			entity.CreatedAt = now
		}
		if entity.UpdatedAt.IsZero() {
			entity.UpdatedAt = now
		}
		aliasesJSON, err := marshalStrings(entity.Aliases)
		if err != nil {
			return err
		}
		unitIDsJSON, err := marshalStrings(entity.UnitIDs)
		if err != nil {
			return err
		}
		embeddingJSON, err := marshalEmbedding(entity.Embedding)
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx,
			entity.ID, entity.Name, entity.Type, entity.Confidence, entity.Description,
			aliasesJSON, entity.EpisodeID, unitIDsJSON,
			embeddingJSON, entity.EmbeddingModel, entity.EmbeddingDimension,
			entity.CreatedAt, entity.UpdatedAt); err != nil {
			return fmt.Errorf("failed to store entity %s: %w", entity.ID, err)
		}
	}

	return tx.Commit()
}

// GetEntity retrieves an entity by ID.
func (s *GraphStore) GetEntity(ctx context.Context, id string) (*types.Entity, error) {
	row := s.db.QueryRowContext(ctx, entitySelect+` WHERE id = ?`, id)

	entity, err := scanEntity(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get entity: %w", err)
	}
	return entity, nil
}

// ListEntitiesByEpisode retrieves all entities extracted from an episode.
func (s *GraphStore) ListEntitiesByEpisode(ctx context.Context, episodeID string) ([]types.Entity, error) {
	rows, err := s.db.QueryContext(ctx, entitySelect+` WHERE episode_id = ? ORDER BY name`, episodeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list entities: %w", err)
	}
	defer rows.Close()
	return collectEntities(rows)
}

// SearchEntities finds entities whose name or aliases contain the query,
// case-insensitive.
func (s *GraphStore) SearchEntities(ctx context.Context, query string, limit int) ([]types.Entity, error) {
	if limit <= 0 {
		limit = 50
	}
	pattern := "%" + query + "%"
	rows, err := s.db.QueryContext(ctx,
		entitySelect+` WHERE name LIKE ? COLLATE NOCASE OR aliases LIKE ? COLLATE NOCASE ORDER BY confidence DESC LIMIT ?`,
		pattern, pattern, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search entities: %w", err)
	}
	defer rows.Close()
	return collectEntities(rows)
}

// UpdateEntityEmbedding stores the embedding vector for an entity.
func (s *GraphStore) UpdateEntityEmbedding(ctx context.Context, id string, embedding []float32, model string) error {
	embeddingJSON, err := marshalEmbedding(embedding)
	if err != nil {
		return err
	}
	result, err := s.db.ExecContext(ctx, `
		UPDATE entities SET embedding = ?, embedding_model = ?, embedding_dimension = ?, updated_at = ?
		WHERE id = ?
	`, embeddingJSON, model, len(embedding), time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update entity embedding: %w", err)
	}
	return checkAffected(result)
}

// StoreRelationships persists extracted relationships (upsert by ID).
func (s *GraphStore) StoreRelationships(ctx context.Context, rels []types.Relationship) error {
	if len(rels) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO relationships (id, from_id, to_id, type, confidence, episode_id, evidence, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			type = excluded.type,
			confidence = excluded.confidence,
			evidence = excluded.evidence,
			updated_at = excluded.updated_at
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare relationship insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now()
	for _, rel := range rels {
		if rel.ID == "" || rel.FromID == "" || rel.ToID == "" {
			return fmt.Errorf("%w: relationship ID and endpoints are required", storage.ErrInvalidInput)
		}
		if rel.CreatedAt.IsZero() {
			rel.CreatedAt = now
		}
		if rel.UpdatedAt.IsZero() {
			rel.UpdatedAt = now
		}
		evidenceJSON, err := marshalStrings(rel.Evidence)
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx, rel.ID, rel.FromID, rel.ToID, rel.Type,
			rel.Confidence, rel.EpisodeID, evidenceJSON, rel.CreatedAt, rel.UpdatedAt); err != nil {
			return fmt.Errorf("failed to store relationship %s: %w", rel.ID, err)
		}
	}

	return tx.Commit()
}

// ListRelationships retrieves relationships touching the given entity.
func (s *GraphStore) ListRelationships(ctx context.Context, entityID string) ([]types.Relationship, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, from_id, to_id, type, confidence, episode_id, evidence, created_at, updated_at
		FROM relationships WHERE from_id = ? OR to_id = ? ORDER BY confidence DESC
	`, entityID, entityID)
	if err != nil {
		return nil, fmt.Errorf("failed to list relationships: %w", err)
	}
	defer rows.Close()

	var rels []types.Relationship
	for rows.Next() {
		var (
			rel          types.Relationship
			evidenceJSON sql.NullString
		)
		if err := rows.Scan(&rel.ID, &rel.FromID, &rel.ToID, &rel.Type,
			&rel.Confidence, &rel.EpisodeID, &evidenceJSON, &rel.CreatedAt, &rel.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan relationship: %w", err)
		}
		if rel.Evidence, err = unmarshalStrings(evidenceJSON); err != nil {
			return nil, err
		}
		rels = append(rels, rel)
	}
	return rels, rows.Err()
}

// StoreInsights persists extracted insights.
func (s *GraphStore) StoreInsights(ctx context.Context, insights []types.Insight) error {
	if len(insights) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO insights (id, type, content, speaker, confidence, episode_id, unit_id, entity_ids, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			content = excluded.content,
			speaker = excluded.speaker,
			confidence = excluded.confidence,
			entity_ids = excluded.entity_ids
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare insight insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now()
	for _, insight := range insights {
		if insight.ID == "" || insight.Content == "" {
			return fmt.Errorf("%w: insight ID and content are required", storage.ErrInvalidInput)
		}
		if insight.CreatedAt.IsZero() {
			insight.CreatedAt = now
		}
		entityIDsJSON, err := marshalStrings(insight.EntityIDs)
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx, insight.ID, insight.Type, insight.Content,
			insight.Speaker, insight.Confidence, insight.EpisodeID, insight.UnitID,
			entityIDsJSON, insight.CreatedAt); err != nil {
			return fmt.Errorf("failed to store insight %s: %w", insight.ID, err)
		}
	}

	return tx.Commit()
}

// ListInsightsByEpisode retrieves all insights for an episode.
func (s *GraphStore) ListInsightsByEpisode(ctx context.Context, episodeID string) ([]types.Insight, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, type, content, speaker, confidence, episode_id, unit_id, entity_ids, created_at
		FROM insights WHERE episode_id = ? ORDER BY created_at, id
	`, episodeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list insights: %w", err)
	}
	defer rows.Close()

	var insights []types.Insight
	for rows.Next() {
		var (
			insight       types.Insight
			entityIDsJSON sql.NullString
		)
		if err := rows.Scan(&insight.ID, &insight.Type, &insight.Content, &insight.Speaker,
			&insight.Confidence, &insight.EpisodeID, &insight.UnitID, &entityIDsJSON,
			&insight.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan insight: %w", err)
		}
		if insight.EntityIDs, err = unmarshalStrings(entityIDsJSON); err != nil {
			return nil, err
		}
		insights = append(insights, insight)
	}
	return insights, rows.Err()
}

// StoreQuotes persists extracted quotes.
func (s *GraphStore) StoreQuotes(ctx context.Context, quotes []types.Quote) error {
	if len(quotes) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO quotes (id, text, speaker, episode_id, unit_id, start_ns, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			text = excluded.text,
			speaker = excluded.speaker
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare quote insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now()
	for _, quote := range quotes {
		if quote.ID == "" || quote.Text == "" {
			return fmt.Errorf("%w: quote ID and text are required", storage.ErrInvalidInput)
		}
		if quote.CreatedAt.IsZero() {
			quote.CreatedAt = now
		}
		if _, err := stmt.ExecContext(ctx, quote.ID, quote.Text, quote.Speaker,
			quote.EpisodeID, quote.UnitID, int64(quote.Start), quote.CreatedAt); err != nil {
			return fmt.Errorf("failed to store quote %s: %w", quote.ID, err)
		}
	}

	return tx.Commit()
}

// ListQuotesByEpisode retrieves all quotes for an episode ordered by start offset.
func (s *GraphStore) ListQuotesByEpisode(ctx context.Context, episodeID string) ([]types.Quote, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, text, speaker, episode_id, unit_id, start_ns, created_at
		FROM quotes WHERE episode_id = ? ORDER BY start_ns, id
	`, episodeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list quotes: %w", err)
	}
	defer rows.Close()

	var quotes []types.Quote
	for rows.Next() {
		var (
			quote   types.Quote
			startNS int64
		)
		if err := rows.Scan(&quote.ID, &quote.Text, &quote.Speaker, &quote.EpisodeID,
			&quote.UnitID, &startNS, &quote.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan quote: %w", err)
		}
		quote.Start = time.Duration(startNS)
		quotes = append(quotes, quote)
	}
	return quotes, rows.Err()
}

// DeleteEpisodeGraph removes all derived data for an episode so it can be
// reprocessed. The episode row itself is kept.
func (s *GraphStore) DeleteEpisodeGraph(ctx context.Context, episodeID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"quotes", "insights", "relationships", "entities", "units"} {
		if _, err := tx.ExecContext(ctx,
			fmt.Sprintf("DELETE FROM %s WHERE episode_id = ?", table), episodeID); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	return tx.Commit()
}

const entitySelect = `
	SELECT id, name, type, confidence, description, aliases,
		episode_id, unit_ids, embedding, embedding_model, embedding_dimension,
		created_at, updated_at
	FROM entities`

// scanner abstracts sql.Row and sql.Rows for the shared scan helpers.
type scanner interface {
	Scan(dest ...any) error
}

func scanEpisode(row scanner) (*types.Episode, error) {
	var (
		episode     types.Episode
		publishedAt sql.NullTime
		durationNS  int64
		status      string
	)
	if err := row.Scan(&episode.ID, &episode.Title, &episode.Podcast, &publishedAt,
		&durationNS, &episode.AudioURL, &episode.YouTubeID, &episode.VTTPath,
		&status, &episode.CreatedAt, &episode.UpdatedAt); err != nil {
		return nil, err
	}
	if publishedAt.Valid {
		episode.PublishedAt = publishedAt.Time
	}
	episode.Duration = time.Duration(durationNS)
	episode.Status = types.EpisodeStatus(status)
	return &episode, nil
}

func scanEntity(row scanner) (*types.Entity, error) {
	var (
		entity        types.Entity
		aliasesJSON   sql.NullString
		unitIDsJSON   sql.NullString
		embeddingJSON sql.NullString
	)
	if err := row.Scan(&entity.ID, &entity.Name, &entity.Type, &entity.Confidence,
		&entity.Description, &aliasesJSON, &entity.EpisodeID, &unitIDsJSON,
		&embeddingJSON, &entity.EmbeddingModel, &entity.EmbeddingDimension,
		&entity.CreatedAt, &entity.UpdatedAt); err != nil {
		return nil, err
	}

	var err error
	if entity.Aliases, err = unmarshalStrings(aliasesJSON); err != nil {
		return nil, err
	}
	if entity.UnitIDs, err = unmarshalStrings(unitIDsJSON); err != nil {
		return nil, err
	}
	if embeddingJSON.Valid && embeddingJSON.String != "" {
		if err := json.Unmarshal([]byte(embeddingJSON.String), &entity.Embedding); err != nil {
			return nil, fmt.Errorf("failed to unmarshal embedding: %w", err)
		}
	}
	return &entity, nil
}

func collectEntities(rows *sql.Rows) ([]types.Entity, error) {
	var entities []types.Entity
	for rows.Next() {
		entity, err := scanEntity(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan entity: %w", err)
		}
		entities = append(entities, *entity)
	}
	return entities, rows.Err()
}

func marshalStrings(values []string) (sql.NullString, error) {
	if len(values) == 0 {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(values)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("failed to marshal string list: %w", err)
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

func unmarshalStrings(value sql.NullString) ([]string, error) {
	if !value.Valid || value.String == "" {
		return nil, nil
	}
	var values []string
	if err := json.Unmarshal([]byte(value.String), &values); err != nil {
		return nil, fmt.Errorf("failed to unmarshal string list: %w", err)
	}
	return values, nil
}

func marshalEmbedding(embedding []float32) (sql.NullString, error) {
	if len(embedding) == 0 {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(embedding)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("failed to marshal embedding: %w", err)
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

func nullableTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}

func checkAffected(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// Compile-time assertion.
var _ storage.GraphStore = (*GraphStore)(nil)
