package store

// migration represents a single schema migration.
type migration struct {
	Version int
	Name    string
	SQL     string
}

// migrations is the ordered list of all schema migrations.
var migrations = []migration{
	{
		Version: 1,
		Name:    "create reports",
		SQL: `
			CREATE TABLE reports (
				id          TEXT PRIMARY KEY,
				alarm_name  TEXT NOT NULL,
				account_id  TEXT NOT NULL,
				region      TEXT NOT NULL,
				state       TEXT NOT NULL,
				outcome     TEXT NOT NULL,
				iterations  INTEGER NOT NULL DEFAULT 0,
				tool_calls  INTEGER NOT NULL DEFAULT 0,
				body        TEXT NOT NULL,
				created_at  TEXT NOT NULL
			);

			CREATE INDEX idx_reports_alarm ON reports (alarm_name);
			CREATE INDEX idx_reports_created ON reports (created_at);
		`,
	},
	{
		Version: 2,
		Name:    "add report delivery tracking",
		SQL: `
			ALTER TABLE reports ADD COLUMN notified_at TEXT;
		`,
	},
}
