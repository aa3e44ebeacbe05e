package store

import (
	"fmt"
	"time"
)

// Summary truncation limits for stored track points.
const (
	MaxInputSummary  = 200
	MaxOutputSummary = 500
)

// TrackPoint is one observed tool call within an agent run.
// Immutable once written except for SignalScore, which the analyzer
// sets exactly once.
type TrackPoint struct {
	ID            int64
	RunID         string
	TaskID        string
	ProjectID     string
	SystemType    string
	ActionType    string
	ToolName      string
	Entities      string // JSON array of extracted entities
	InputSummary  string
	OutputSummary string
	SignalScore   *float64
	Seq           int
	DurationMS    int64
	CreatedAt     int64
}

// InsertTrackPoint stores a new track point and sets its ID.
// Summaries are truncated to their storage limits.
func (db *DB) InsertTrackPoint(tp *TrackPoint) error {
	if len(tp.InputSummary) > MaxInputSummary {
		tp.InputSummary = tp.InputSummary[:MaxInputSummary]
	}
	if len(tp.OutputSummary) > MaxOutputSummary {
		tp.OutputSummary = tp.OutputSummary[:MaxOutputSummary]
	}
	if tp.Entities == "" {
		tp.Entities = "[]"
	}
	if tp.CreatedAt == 0 {
		tp.CreatedAt = time.Now().UnixMilli()
	}

	result, err := db.Exec(`
		INSERT INTO track_points (run_id, task_id, project_id, system_type, action_type,
			tool_name, entities, input_summary, output_summary, seq, duration_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, tp.RunID, tp.TaskID, tp.ProjectID, tp.SystemType, tp.ActionType,
		tp.ToolName, tp.Entities, tp.InputSummary, tp.OutputSummary, tp.Seq, tp.DurationMS, tp.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert track point: %w", err)
	}

	tp.ID, _ = result.LastInsertId()
	return nil
}

// GetRunTrackPoints returns all track points for a run, ordered by
// sequence index. Unknown runs yield an empty slice, not an error.
func (db *DB) GetRunTrackPoints(runID string) ([]TrackPoint, error) {
	rows, err := db.Query(`
		SELECT id, run_id, task_id, project_id, system_type, action_type,
			tool_name, entities, input_summary, output_summary, signal_score, seq, duration_ms, created_at
		FROM track_points WHERE run_id = ? ORDER BY seq
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("get run track points: %w", err)
	}
	defer rows.Close()

	var points []TrackPoint
	for rows.Next() {
		var tp TrackPoint
		if err := rows.Scan(&tp.ID, &tp.RunID, &tp.TaskID, &tp.ProjectID, &tp.SystemType, &tp.ActionType,
			&tp.ToolName, &tp.Entities, &tp.InputSummary, &tp.OutputSummary, &tp.SignalScore, &tp.Seq, &tp.DurationMS, &tp.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan track point: %w", err)
		}
		points = append(points, tp)
	}
	return points, rows.Err()
}

// SetSignalScore persists the analyzer's signal score onto a point.
func (db *DB) SetSignalScore(id int64, score float64) error {
	_, err := db.Exec(`UPDATE track_points SET signal_score = ? WHERE id = ?`, score, id)
	if err != nil {
		return fmt.Errorf("set signal score: %w", err)
	}
	return nil
}

// CountTrackPoints returns the total number of recorded track points.
func (db *DB) CountTrackPoints() (int, error) {
	var count int
	err := db.QueryRow(`SELECT COUNT(*) FROM track_points`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count track points: %w", err)
	}
	return count, nil
}

// NextSequence returns the next sequence index for a run.
// Used when the transport does not carry an explicit index.
func (db *DB) NextSequence(runID string) (int, error) {
	var next int
	err := db.QueryRow(`
		SELECT COALESCE(MAX(seq) + 1, 0) FROM track_points WHERE run_id = ?
	`, runID).Scan(&next)
	if err != nil {
		return 0, fmt.Errorf("next sequence: %w", err)
	}
	return next, nil
}

// RunAnalyzed reports whether a run's points already carry signal scores.
// The analyzer uses this as its idempotency guard.
func (db *DB) RunAnalyzed(runID string) (bool, error) {
	var count int
	err := db.QueryRow(`
		SELECT COUNT(*) FROM track_points WHERE run_id = ? AND signal_score IS NOT NULL
	`, runID).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("check run analyzed: %w", err)
	}
	return count > 0, nil
}
