package database

import "database/sql"

// migration is a single schema change applied inside a transaction.
type migration struct {
	Version     int
	Description string
	Up          func(tx *sql.Tx) error
}

// migrations lists all schema versions in order. DDL is idempotent so a
// partially applied migration can safely re-run.
var migrations = []migration{
	{
		Version:     1,
		Description: "initial schema: cache, strategies, sessions",
		Up: func(tx *sql.Tx) error {
			stmts := []string{
				`CREATE TABLE IF NOT EXISTS cache_entries (
					tier TEXT NOT NULL,
					key TEXT NOT NULL,
					content_hash TEXT NOT NULL DEFAULT '',
					value TEXT NOT NULL,
					inserted_at INTEGER NOT NULL,
					ttl_seconds INTEGER NOT NULL,
					PRIMARY KEY (tier, key)
				)`,
				`CREATE INDEX IF NOT EXISTS idx_cache_content_hash
					ON cache_entries(content_hash)`,
				`CREATE TABLE IF NOT EXISTS strategy_outcomes (
					signature TEXT NOT NULL,
					error_type TEXT NOT NULL,
					strategy TEXT NOT NULL,
					successes INTEGER NOT NULL DEFAULT 0,
					failures INTEGER NOT NULL DEFAULT 0,
					updated_at TEXT DEFAULT (datetime('now')),
					PRIMARY KEY (signature, error_type, strategy)
				)`,
				`CREATE TABLE IF NOT EXISTS sessions (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					content_hash TEXT NOT NULL,
					focus_keyword TEXT NOT NULL DEFAULT '',
					baseline_score REAL NOT NULL,
					final_score REAL,
					passes INTEGER NOT NULL DEFAULT 0,
					compliance_achieved INTEGER NOT NULL DEFAULT 0,
					termination_reason TEXT,
					started_at TEXT DEFAULT (datetime('now')),
					ended_at TEXT
				)`,
				`CREATE TABLE IF NOT EXISTS session_reports (
					session_id INTEGER PRIMARY KEY,
					report_json TEXT NOT NULL,
					FOREIGN KEY (session_id) REFERENCES sessions(id) ON DELETE CASCADE
				)`,
			}
			for _, stmt := range stmts {
				if _, err := tx.Exec(stmt); err != nil {
					return err
				}
			}
			return nil
		},
	},
}

func latestVersion() int {
	return migrations[len(migrations)-1].Version
}
