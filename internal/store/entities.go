package store

import (
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// EntityNode is a deduplicated real-world thing discovered across runs.
// Keyed by (schema_type, canonical_name); the occurrence count only
// ever increases.
type EntityNode struct {
	ID              int64
	SchemaType      string
	CanonicalName   string
	DisplayName     string
	Properties      string // JSON object
	OccurrenceCount int
	FirstSeen       int64
	LastSeen        int64
}

// CanonicalName returns the dedup form of an entity display name.
func CanonicalName(displayName string) string {
	return strings.ToLower(strings.TrimSpace(displayName))
}

const entityColumns = `id, schema_type, canonical_name, display_name, properties, occurrence_count, first_seen, last_seen`

func scanEntity(row interface{ Scan(...any) error }) (*EntityNode, error) {
	var n EntityNode
	err := row.Scan(&n.ID, &n.SchemaType, &n.CanonicalName, &n.DisplayName,
		&n.Properties, &n.OccurrenceCount, &n.FirstSeen, &n.LastSeen)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// GetEntityNode looks up a node by its dedup key. Returns nil when absent.
func (db *DB) GetEntityNode(schemaType, displayName string) (*EntityNode, error) {
	row := db.QueryRow(`
		SELECT `+entityColumns+` FROM entity_nodes
		WHERE schema_type = ? AND canonical_name = ?
	`, schemaType, CanonicalName(displayName))

	n, err := scanEntity(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get entity node: %w", err)
	}
	return n, nil
}

// UpsertEntityNode records a sighting of an entity. Existing nodes get
// occurrence_count+1 and a refreshed last_seen; new nodes start at 1.
// The upsert is a single statement so concurrent analyzers never observe
// a half-constructed row.
func (db *DB) UpsertEntityNode(schemaType, displayName, properties string) (*EntityNode, error) {
	if properties == "" {
		properties = "{}"
	}
	now := time.Now().UnixMilli()

	_, err := db.Exec(`
		INSERT INTO entity_nodes (schema_type, canonical_name, display_name, properties, occurrence_count, first_seen, last_seen)
		VALUES (?, ?, ?, ?, 1, ?, ?)
		ON CONFLICT (schema_type, canonical_name) DO UPDATE SET
			occurrence_count = occurrence_count + 1,
			last_seen = excluded.last_seen
	`, schemaType, CanonicalName(displayName), displayName, properties, now, now)
	if err != nil {
		return nil, fmt.Errorf("upsert entity node: %w", err)
	}

	return db.GetEntityNode(schemaType, displayName)
}

// CountEntityNodes returns the total number of entity nodes.
func (db *DB) CountEntityNodes() (int, error) {
	var count int
	err := db.QueryRow(`SELECT COUNT(*) FROM entity_nodes`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count entity nodes: %w", err)
	}
	return count, nil
}

// TopEntityNodes returns up to limit nodes ordered by occurrence count,
// optionally filtered by schema type.
func (db *DB) TopEntityNodes(limit int, schemaType string) ([]EntityNode, error) {
	query := `SELECT ` + entityColumns + ` FROM entity_nodes`
	args := []any{}
	if schemaType != "" {
		query += ` WHERE schema_type = ?`
		args = append(args, schemaType)
	}
	query += ` ORDER BY occurrence_count DESC, last_seen DESC LIMIT ?`
	args = append(args, limit)

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("top entity nodes: %w", err)
	}
	defer rows.Close()

	var nodes []EntityNode
	for rows.Next() {
		n, err := scanEntity(rows)
		if err != nil {
			return nil, fmt.Errorf("scan entity node: %w", err)
		}
		nodes = append(nodes, *n)
	}
	return nodes, rows.Err()
}
