package types

import "time"

// Entity represents a named entity extracted from transcript units.
// Entities can be people, organizations, concepts, products, and so on.
// One Entity is created per mention cluster as guessed by the LLM; the
// resolver later merges duplicates within an extraction batch.
type Entity struct {
	// Core identification fields
	ID          string  `json:"id"`                    // Unique identifier (format: ent:uuid)
	Name        string  `json:"name"`                  // Display name
	Type        string  `json:"type"`                  // Entity type (see EntityType constants)
	Confidence  float64 `json:"confidence"`            // Extraction confidence (0.0-1.0)
	Description string  `json:"description,omitempty"` // Human-readable description
	Aliases     []string `json:"aliases,omitempty"`    // Alternative names

	// Provenance
	EpisodeID string    `json:"episode_id,omitempty"` // Episode this entity was extracted from
	UnitIDs   []string  `json:"unit_ids,omitempty"`   // Transcript units mentioning this entity
	CreatedAt time.Time `json:"created_at"`           // Creation timestamp
	UpdatedAt time.Time `json:"updated_at"`           // Last update timestamp

	// Embedding for entity similarity (optional, postgres store only)
	Embedding          []float32 `json:"embedding,omitempty"`
	EmbeddingModel     string    `json:"embedding_model,omitempty"`
	EmbeddingDimension int       `json:"embedding_dimension,omitempty"`
}

// Relationship represents a typed connection between two entities,
// extracted from the same transcript unit or inferred across units.
type Relationship struct {
	ID         string    `json:"id"`                 // Unique identifier (format: rel:uuid)
	FromID     string    `json:"from_id"`            // Source entity ID
	ToID       string    `json:"to_id"`              // Target entity ID
	Type       string    `json:"type"`               // Relationship type (see Rel constants)
	Confidence float64   `json:"confidence"`         // Extraction confidence (0.0-1.0)
	EpisodeID  string    `json:"episode_id,omitempty"`
	Evidence   []string  `json:"evidence,omitempty"` // Unit IDs supporting this relationship
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Insight represents a notable claim, prediction, or lesson voiced in an
// episode, attributed to a speaker and linked to the entities it involves.
type Insight struct {
	ID         string    `json:"id"`   // Unique identifier (format: ins:uuid)
	Type       string    `json:"type"` // Insight type (see InsightType constants)
	Content    string    `json:"content"`
	Speaker    string    `json:"speaker,omitempty"`
	Confidence float64   `json:"confidence"`
	EpisodeID  string    `json:"episode_id,omitempty"`
	UnitID     string    `json:"unit_id,omitempty"`
	EntityIDs  []string  `json:"entity_ids,omitempty"` // Entities this insight references
	CreatedAt  time.Time `json:"created_at"`
}

// Quote represents a verbatim, quotable passage with speaker attribution
// and its position in the episode.
type Quote struct {
	ID        string        `json:"id"` // Unique identifier (format: quo:uuid)
	Text      string        `json:"text"`
	Speaker   string        `json:"speaker,omitempty"`
	EpisodeID string        `json:"episode_id,omitempty"`
	UnitID    string        `json:"unit_id,omitempty"`
	Start     time.Duration `json:"start"` // Offset from episode start
	CreatedAt time.Time     `json:"created_at"`
}
