package store

// migration holds a single schema migration with its target version and SQL.
type migration struct {
	version int
	sql     string
}

// migrations is the ordered list of schema migrations.
// Each migration's version must be sequential starting from 1.
var migrations = []migration{
	{
		version: 1,
		sql: `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS cache_entries (
	key        TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	updated_at DATETIME NOT NULL
);

INSERT INTO schema_version (version) VALUES (1);
`,
	},
	{
		version: 2,
		sql: `
CREATE TABLE IF NOT EXISTS card_metadata (
	card_id    TEXT PRIMARY KEY,
	priority   TEXT NOT NULL DEFAULT 'medium' CHECK(priority IN ('low', 'medium', 'high')),
	due_date   DATETIME,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS card_metadata_tags (
	card_id TEXT NOT NULL REFERENCES card_metadata(card_id) ON DELETE CASCADE,
	tag     TEXT NOT NULL,
	PRIMARY KEY (card_id, tag)
);

CREATE INDEX IF NOT EXISTS idx_card_metadata_priority ON card_metadata(priority);
CREATE INDEX IF NOT EXISTS idx_card_metadata_tags_card ON card_metadata_tags(card_id);

INSERT INTO schema_version (version) VALUES (2);
`,
	},
	{
		version: 3,
		sql: `
CREATE INDEX IF NOT EXISTS idx_cache_entries_updated_at ON cache_entries(updated_at);

INSERT INTO schema_version (version) VALUES (3);
`,
	},
}
