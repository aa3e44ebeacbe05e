package store

import (
	"database/sql"
	"fmt"
	"math"
	"time"
)

// RelTypeRelated is the generic edge type used until a relationship is
// classified more specifically.
const RelTypeRelated = "related_to"

// relationshipHalfLifeDays is the decay half-life: an unobserved edge's
// decayed weight halves every 60 days.
const relationshipHalfLifeDays = 60.0

// EntityRelationship is a weighted co-occurrence edge between two entity
// nodes, unique on the ordered (source, target) pair. Raw weight only
// grows; decayed weight is recomputed from it on every analysis pass.
type EntityRelationship struct {
	ID               int64
	SourceID         int64
	TargetID         int64
	RelType          string
	RawWeight        float64
	DecayedWeight    float64
	ObservationCount int
	Context          string // JSON array of context tags
	LastObserved     int64
}

// RelationshipEdge is a relationship annotated with its endpoint
// names and types, for insight and graph queries.
type RelationshipEdge struct {
	EntityRelationship
	SourceName string
	SourceType string
	TargetName string
	TargetType string
}

const relColumns = `id, source_id, target_id, rel_type, raw_weight, decayed_weight, observation_count, context, last_observed`

// RecordCoOccurrence registers that two entities appeared in the same
// track point. Existing edges gain weight; new edges start at 1.
// Callers pass (sourceID, targetID) in canonical order.
func (db *DB) RecordCoOccurrence(sourceID, targetID int64) error {
	now := time.Now().UnixMilli()

	_, err := db.Exec(`
		INSERT INTO entity_relationships (source_id, target_id, rel_type, raw_weight, decayed_weight, observation_count, last_observed)
		VALUES (?, ?, ?, 1.0, 1.0, 1, ?)
		ON CONFLICT (source_id, target_id) DO UPDATE SET
			raw_weight = raw_weight + 1,
			decayed_weight = raw_weight + 1,
			observation_count = observation_count + 1,
			last_observed = excluded.last_observed
	`, sourceID, targetID, RelTypeRelated, now)
	if err != nil {
		return fmt.Errorf("record co-occurrence: %w", err)
	}
	return nil
}

// GetRelationship looks up the edge between two nodes. Returns nil when
// absent.
func (db *DB) GetRelationship(sourceID, targetID int64) (*EntityRelationship, error) {
	var r EntityRelationship
	err := db.QueryRow(`
		SELECT `+relColumns+` FROM entity_relationships
		WHERE source_id = ? AND target_id = ?
	`, sourceID, targetID).Scan(&r.ID, &r.SourceID, &r.TargetID, &r.RelType,
		&r.RawWeight, &r.DecayedWeight, &r.ObservationCount, &r.Context, &r.LastObserved)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get relationship: %w", err)
	}
	return &r, nil
}

// DecayAllRelationships recomputes decayed_weight for every edge in the
// system: raw_weight * exp(-ln(2)/60 * days since last observation).
// Computed in Go (not SQL) because modernc.org/sqlite lacks exp().
// Runs on every analysis pass, touched edges or not.
func (db *DB) DecayAllRelationships(now time.Time) (int, error) {
	rows, err := db.Query(`SELECT id, raw_weight, last_observed FROM entity_relationships`)
	if err != nil {
		return 0, fmt.Errorf("query relationships for decay: %w", err)
	}
	defer rows.Close()

	type decayTarget struct {
		id           int64
		rawWeight    float64
		lastObserved int64
	}

	var targets []decayTarget
	for rows.Next() {
		var t decayTarget
		if err := rows.Scan(&t.id, &t.rawWeight, &t.lastObserved); err != nil {
			return 0, fmt.Errorf("scan decay target: %w", err)
		}
		targets = append(targets, t)
	}
	if err := rows.Err(); err != nil {
		return 0, err
	}

	lambda := math.Ln2 / relationshipHalfLifeDays
	nowMs := now.UnixMilli()
	updated := 0

	for _, t := range targets {
		days := float64(nowMs-t.lastObserved) / float64(24*time.Hour/time.Millisecond)
		if days < 0 {
			days = 0
		}
		decayed := t.rawWeight * math.Exp(-lambda*days)

		if _, err := db.Exec(`UPDATE entity_relationships SET decayed_weight = ? WHERE id = ?`, decayed, t.id); err != nil {
			return updated, fmt.Errorf("update decayed weight: %w", err)
		}
		updated++
	}

	return updated, nil
}

// CountRelationships returns the total number of edges.
func (db *DB) CountRelationships() (int, error) {
	var count int
	err := db.QueryRow(`SELECT COUNT(*) FROM entity_relationships`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count relationships: %w", err)
	}
	return count, nil
}

// TopRelationships returns up to limit edges ordered by decayed weight,
// annotated with their endpoint names and types.
func (db *DB) TopRelationships(limit int) ([]RelationshipEdge, error) {
	rows, err := db.Query(`
		SELECT r.id, r.source_id, r.target_id, r.rel_type, r.raw_weight, r.decayed_weight,
			r.observation_count, r.context, r.last_observed,
			s.display_name, s.schema_type, t.display_name, t.schema_type
		FROM entity_relationships r
		JOIN entity_nodes s ON s.id = r.source_id
		JOIN entity_nodes t ON t.id = r.target_id
		ORDER BY r.decayed_weight DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("top relationships: %w", err)
	}
	defer rows.Close()

	return scanEdges(rows)
}

// RelationshipsAmong returns up to limit edges whose both endpoints are in
// the given node set, ordered by decayed weight.
func (db *DB) RelationshipsAmong(nodeIDs []int64, limit int) ([]RelationshipEdge, error) {
	if len(nodeIDs) == 0 {
		return nil, nil
	}

	ph := ""
	args := make([]any, 0, 2*len(nodeIDs)+1)
	for i, id := range nodeIDs {
		if i > 0 {
			ph += ","
		}
		ph += "?"
		args = append(args, id)
	}
	for _, id := range nodeIDs {
		args = append(args, id)
	}
	args = append(args, limit)

	query := fmt.Sprintf(`
		SELECT r.id, r.source_id, r.target_id, r.rel_type, r.raw_weight, r.decayed_weight,
			r.observation_count, r.context, r.last_observed,
			s.display_name, s.schema_type, t.display_name, t.schema_type
		FROM entity_relationships r
		JOIN entity_nodes s ON s.id = r.source_id
		JOIN entity_nodes t ON t.id = r.target_id
		WHERE r.source_id IN (%s) AND r.target_id IN (%s)
		ORDER BY r.decayed_weight DESC
		LIMIT ?
	`, ph, ph)

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("relationships among: %w", err)
	}
	defer rows.Close()

	return scanEdges(rows)
}

func scanEdges(rows *sql.Rows) ([]RelationshipEdge, error) {
	var edges []RelationshipEdge
	for rows.Next() {
		var e RelationshipEdge
		if err := rows.Scan(&e.ID, &e.SourceID, &e.TargetID, &e.RelType, &e.RawWeight, &e.DecayedWeight,
			&e.ObservationCount, &e.Context, &e.LastObserved,
			&e.SourceName, &e.SourceType, &e.TargetName, &e.TargetType); err != nil {
			return nil, fmt.Errorf("scan relationship edge: %w", err)
		}
		edges = append(edges, e)
	}
	return edges, rows.Err()
}
