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

CREATE TABLE IF NOT EXISTS calendar_events (
	seq           INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id       TEXT NOT NULL,
	id            TEXT NOT NULL,
	calendar_date TEXT NOT NULL DEFAULT '',
	event_time    TEXT NOT NULL DEFAULT '',
	description   TEXT NOT NULL DEFAULT '',
	created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	UNIQUE(user_id, id)
);

CREATE INDEX IF NOT EXISTS idx_calendar_events_user ON calendar_events(user_id);

INSERT INTO schema_version (version) VALUES (1);
`,
	},
	{
		version: 2,
		sql: `
CREATE INDEX IF NOT EXISTS idx_calendar_events_user_date
	ON calendar_events(user_id, calendar_date);

INSERT INTO schema_version (version) VALUES (2);
`,
	},
}
