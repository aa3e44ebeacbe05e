package engine

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/lazypower/tracks/internal/classify"
	"github.com/lazypower/tracks/internal/extract"
	"github.com/lazypower/tracks/internal/store"
)

// recordBudget is the hot-path latency target. Exceeding it logs a
// warning but never fails the call — the recorder sits inline with the
// agent's tool execution.
const recordBudget = 5 * time.Millisecond

// RecordInput carries one observed tool invocation.
type RecordInput struct {
	RunID     string
	TaskID    string
	ProjectID string
	ToolName  string
	Params    map[string]any
	Result    string
	Duration  time.Duration
	Seq       int
}

// RecordTrackPoint synchronously classifies, extracts, and persists one
// track point, returning its id. Callers treat any error as non-fatal:
// observation loss is acceptable, interrupting the agent is not.
func (e *Engine) RecordTrackPoint(in RecordInput) (int64, error) {
	start := time.Now()

	system := classify.System(in.ToolName, in.Params)
	action := classify.Action(in.ToolName, in.Params)
	entities := extract.Entities(in.ToolName, in.Params, in.Result)

	entitiesJSON := "[]"
	if len(entities) > 0 {
		if data, err := json.Marshal(entities); err == nil {
			entitiesJSON = string(data)
		}
	}

	input := ""
	if len(in.Params) > 0 {
		if data, err := json.Marshal(in.Params); err == nil {
			input = string(data)
		}
	}

	tp := &store.TrackPoint{
		RunID:         in.RunID,
		TaskID:        in.TaskID,
		ProjectID:     in.ProjectID,
		SystemType:    string(system),
		ActionType:    string(action),
		ToolName:      in.ToolName,
		Entities:      entitiesJSON,
		InputSummary:  input,
		OutputSummary: in.Result,
		Seq:           in.Seq,
		DurationMS:    in.Duration.Milliseconds(),
	}
	if err := e.DB.InsertTrackPoint(tp); err != nil {
		return 0, fmt.Errorf("record track point: %w", err)
	}

	if elapsed := time.Since(start); elapsed > recordBudget {
		log.Printf("recorder: run %s seq %d took %s (budget %s)", in.RunID, in.Seq, elapsed, recordBudget)
	}
	return tp.ID, nil
}
