package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// maxExampleRuns bounds the example-run ring on a pattern: the 10 most
// recent run ids are kept, oldest evicted first.
const maxExampleRuns = 10

// WorkflowPattern is a frequent contiguous subsequence of
// (system, action) steps, keyed by the exact ordered sequence.
type WorkflowPattern struct {
	ID           int64
	SequenceKey  string
	Label        string
	Frequency    int
	AvgSignal    float64
	Confidence   float64
	ExampleRuns  string // JSON array of run ids
	Category     string
	LastObserved int64
}

const patternColumns = `id, sequence_key, label, frequency, avg_signal, confidence, example_runs, category, last_observed`

func scanPattern(row interface{ Scan(...any) error }) (*WorkflowPattern, error) {
	var p WorkflowPattern
	err := row.Scan(&p.ID, &p.SequenceKey, &p.Label, &p.Frequency, &p.AvgSignal,
		&p.Confidence, &p.ExampleRuns, &p.Category, &p.LastObserved)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetWorkflowPattern looks up a pattern by its exact sequence key.
// Returns nil when absent.
func (db *DB) GetWorkflowPattern(sequenceKey string) (*WorkflowPattern, error) {
	row := db.QueryRow(`SELECT `+patternColumns+` FROM workflow_patterns WHERE sequence_key = ?`, sequenceKey)

	p, err := scanPattern(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get workflow pattern: %w", err)
	}
	return p, nil
}

// UpsertWorkflowPattern records one sighting of an exact step sequence
// within a run. First sightings create the pattern with the window's
// average signal; later sightings bump frequency, append the run id to
// the bounded example ring, and recompute confidence from the average
// recorded at creation time. That average is deliberately not refreshed
// with later windows' scores — the first occurrence stays representative.
func (db *DB) UpsertWorkflowPattern(sequenceKey, label, category, runID string, windowAvgSignal float64) (*WorkflowPattern, error) {
	now := time.Now().UnixMilli()

	existing, err := db.GetWorkflowPattern(sequenceKey)
	if err != nil {
		return nil, err
	}

	if existing == nil {
		examples, _ := json.Marshal([]string{runID})
		result, err := db.Exec(`
			INSERT INTO workflow_patterns (sequence_key, label, frequency, avg_signal, confidence, example_runs, category, last_observed)
			VALUES (?, ?, 1, ?, ?, ?, ?, ?)
		`, sequenceKey, label, windowAvgSignal, windowAvgSignal, string(examples), category, now)
		if err != nil {
			return nil, fmt.Errorf("insert workflow pattern: %w", err)
		}
		id, _ := result.LastInsertId()
		return &WorkflowPattern{
			ID:           id,
			SequenceKey:  sequenceKey,
			Label:        label,
			Frequency:    1,
			AvgSignal:    windowAvgSignal,
			Confidence:   windowAvgSignal,
			ExampleRuns:  string(examples),
			Category:     category,
			LastObserved: now,
		}, nil
	}

	var runs []string
	if err := json.Unmarshal([]byte(existing.ExampleRuns), &runs); err != nil {
		runs = nil
	}
	runs = append(runs, runID)
	if len(runs) > maxExampleRuns {
		runs = runs[len(runs)-maxExampleRuns:]
	}
	examples, _ := json.Marshal(runs)

	existing.Frequency++
	existing.Confidence = float64(existing.Frequency) * existing.AvgSignal
	existing.ExampleRuns = string(examples)
	existing.LastObserved = now

	_, err = db.Exec(`
		UPDATE workflow_patterns
		SET frequency = ?, confidence = ?, example_runs = ?, last_observed = ?
		WHERE id = ?
	`, existing.Frequency, existing.Confidence, existing.ExampleRuns, existing.LastObserved, existing.ID)
	if err != nil {
		return nil, fmt.Errorf("update workflow pattern: %w", err)
	}
	return existing, nil
}

// SuggestedPatterns returns patterns seen in at least two runs, ordered
// by confidence descending.
func (db *DB) SuggestedPatterns(limit int) ([]WorkflowPattern, error) {
	rows, err := db.Query(`
		SELECT `+patternColumns+` FROM workflow_patterns
		WHERE frequency >= 2
		ORDER BY confidence DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("suggested patterns: %w", err)
	}
	defer rows.Close()

	var patterns []WorkflowPattern
	for rows.Next() {
		p, err := scanPattern(rows)
		if err != nil {
			return nil, fmt.Errorf("scan workflow pattern: %w", err)
		}
		patterns = append(patterns, *p)
	}
	return patterns, rows.Err()
}
