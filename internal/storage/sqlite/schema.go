package sqlite

// Schema is the embedded SQLite schema, applied at open time. All statements
// are idempotent so the store can reopen an existing database safely.
const Schema = `
CREATE TABLE IF NOT EXISTS episodes (
	id TEXT PRIMARY KEY,
	title TEXT NOT NULL,
	podcast TEXT NOT NULL DEFAULT '',
	published_at TIMESTAMP,
	duration_ns INTEGER NOT NULL DEFAULT 0,
	audio_url TEXT NOT NULL DEFAULT '',
	youtube_id TEXT NOT NULL DEFAULT '',
	vtt_path TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL DEFAULT 'pending',
	created_at TIMESTAMP NOT NULL,
	updated_at TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS units (
	id TEXT PRIMARY KEY,
	episode_id TEXT NOT NULL REFERENCES episodes(id) ON DELETE CASCADE,
	idx INTEGER NOT NULL,
	start_ns INTEGER NOT NULL,
	end_ns INTEGER NOT NULL,
	speakers TEXT,
	text TEXT NOT NULL,
	tokens INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_units_episode ON units(episode_id, idx);

CREATE TABLE IF NOT EXISTS entities (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	type TEXT NOT NULL,
	confidence REAL NOT NULL DEFAULT 0,
	description TEXT NOT NULL DEFAULT '',
	aliases TEXT,
	episode_id TEXT NOT NULL DEFAULT '',
	unit_ids TEXT,
	embedding TEXT,
	embedding_model TEXT NOT NULL DEFAULT '',
	embedding_dimension INTEGER NOT NULL DEFAULT 0,
	created_at TIMESTAMP NOT NULL,
	updated_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_entities_episode ON entities(episode_id);
CREATE INDEX IF NOT EXISTS idx_entities_name ON entities(name);

CREATE TABLE IF NOT EXISTS relationships (
	id TEXT PRIMARY KEY,
	from_id TEXT NOT NULL,
	to_id TEXT NOT NULL,
	type TEXT NOT NULL,
	confidence REAL NOT NULL DEFAULT 0,
	episode_id TEXT NOT NULL DEFAULT '',
	evidence TEXT,
	created_at TIMESTAMP NOT NULL,
	updated_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_relationships_from ON relationships(from_id);
CREATE INDEX IF NOT EXISTS idx_relationships_to ON relationships(to_id);
CREATE INDEX IF NOT EXISTS idx_relationships_episode ON relationships(episode_id);

CREATE TABLE IF NOT EXISTS insights (
	id TEXT PRIMARY KEY,
	type TEXT NOT NULL,
	content TEXT NOT NULL,
	speaker TEXT NOT NULL DEFAULT '',
	confidence REAL NOT NULL DEFAULT 0,
	episode_id TEXT NOT NULL DEFAULT '',
	unit_id TEXT NOT NULL DEFAULT '',
	entity_ids TEXT,
	created_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_insights_episode ON insights(episode_id);

CREATE TABLE IF NOT EXISTS quotes (
	id TEXT PRIMARY KEY,
	text TEXT NOT NULL,
	speaker TEXT NOT NULL DEFAULT '',
	episode_id TEXT NOT NULL DEFAULT '',
	unit_id TEXT NOT NULL DEFAULT '',
	start_ns INTEGER NOT NULL DEFAULT 0,
	created_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_quotes_episode ON quotes(episode_id, start_ns);
`
