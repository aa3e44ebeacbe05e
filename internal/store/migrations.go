package store

import (
	"fmt"
)

type migration struct {
	Version     int
	Description string
	SQL         string
}

var migrations = []migration{
	{
		Version:     1,
		Description: "track_points: one row per observed tool call",
		SQL: `
CREATE TABLE track_points (
    id             INTEGER PRIMARY KEY,
    run_id         TEXT NOT NULL,
    task_id        TEXT NOT NULL DEFAULT '',
    project_id     TEXT NOT NULL DEFAULT '',
    system_type    TEXT NOT NULL,
    action_type    TEXT NOT NULL,
    tool_name      TEXT NOT NULL,
    entities       TEXT NOT NULL DEFAULT '[]',
    input_summary  TEXT NOT NULL DEFAULT '',
    output_summary TEXT NOT NULL DEFAULT '',
    signal_score   REAL,
    seq            INTEGER NOT NULL,
    duration_ms    INTEGER NOT NULL DEFAULT 0,
    created_at     INTEGER NOT NULL
);

CREATE INDEX idx_points_run     ON track_points(run_id, seq);
CREATE INDEX idx_points_created ON track_points(created_at DESC);
`,
	},
	{
		Version:     2,
		Description: "entity_nodes: deduplicated entities across all runs",
		SQL: `
CREATE TABLE entity_nodes (
    id               INTEGER PRIMARY KEY,
    schema_type      TEXT NOT NULL,
    canonical_name   TEXT NOT NULL,
    display_name     TEXT NOT NULL,
    properties       TEXT NOT NULL DEFAULT '{}',
    occurrence_count INTEGER NOT NULL DEFAULT 1,
    first_seen       INTEGER NOT NULL,
    last_seen        INTEGER NOT NULL,

    UNIQUE (schema_type, canonical_name)
);

CREATE INDEX idx_entities_occurrence ON entity_nodes(occurrence_count DESC);
`,
	},
	{
		Version:     3,
		Description: "entity_relationships: weighted co-occurrence edges",
		SQL: `
CREATE TABLE entity_relationships (
    id                INTEGER PRIMARY KEY,
    source_id         INTEGER NOT NULL,
    target_id         INTEGER NOT NULL,
    rel_type          TEXT NOT NULL DEFAULT 'related_to',
    raw_weight        REAL NOT NULL DEFAULT 1.0,
    decayed_weight    REAL NOT NULL DEFAULT 1.0,
    observation_count INTEGER NOT NULL DEFAULT 1,
    context           TEXT NOT NULL DEFAULT '[]',
    last_observed     INTEGER NOT NULL,

    UNIQUE (source_id, target_id),
    FOREIGN KEY (source_id) REFERENCES entity_nodes(id),
    FOREIGN KEY (target_id) REFERENCES entity_nodes(id)
);

CREATE INDEX idx_rels_decayed ON entity_relationships(decayed_weight DESC);
`,
	},
	{
		Version:     4,
		Description: "workflow_patterns: mined step sequences",
		SQL: `
CREATE TABLE workflow_patterns (
    id            INTEGER PRIMARY KEY,
    sequence_key  TEXT NOT NULL UNIQUE,
    label         TEXT NOT NULL,
    frequency     INTEGER NOT NULL DEFAULT 1,
    avg_signal    REAL NOT NULL DEFAULT 0,
    confidence    REAL NOT NULL DEFAULT 0,
    example_runs  TEXT NOT NULL DEFAULT '[]',
    category      TEXT NOT NULL DEFAULT 'workflow',
    last_observed INTEGER NOT NULL
);

CREATE INDEX idx_patterns_confidence ON workflow_patterns(confidence DESC);
`,
	},
}

func (db *DB) migrate() error {
	// Create schema_versions table if it doesn't exist
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_versions (
			version     INTEGER PRIMARY KEY,
			description TEXT NOT NULL,
			applied_at  INTEGER NOT NULL DEFAULT (strftime('%s', 'now') * 1000)
		)
	`)
	if err != nil {
		return fmt.Errorf("create schema_versions: %w", err)
	}

	for _, m := range migrations {
		var count int
		err := db.QueryRow("SELECT COUNT(*) FROM schema_versions WHERE version = ?", m.Version).Scan(&count)
		if err != nil {
			return fmt.Errorf("check migration %d: %w", m.Version, err)
		}
		if count > 0 {
			continue
		}

		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", m.Version, err)
		}

		if _, err := tx.Exec(m.SQL); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d (%s): %w", m.Version, m.Description, err)
		}

		if _, err := tx.Exec(
			"INSERT INTO schema_versions (version, description) VALUES (?, ?)",
			m.Version, m.Description,
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("record migration %d: %w", m.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %d: %w", m.Version, err)
		}
	}

	return nil
}

// SchemaVersion returns the current schema version.
func (db *DB) SchemaVersion() (int, error) {
	var version int
	err := db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_versions").Scan(&version)
	return version, err
}
