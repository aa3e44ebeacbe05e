package engine

import (
	"strings"
	"testing"
	"time"

	"github.com/lazypower/tracks/internal/store"
)

func testEngine(t *testing.T) *Engine {
	t.Helper()
	db, err := store.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return New(db)
}

func TestRecordTrackPoint(t *testing.T) {
	e := testEngine(t)

	id, err := e.RecordTrackPoint(RecordInput{
		RunID:    "run-001",
		TaskID:   "task-001",
		ToolName: "web_search",
		Params:   map[string]any{"query": "acme launch plan"},
		Result:   "found https://github.com/acme/widgets and report.pdf",
		Duration: 120 * time.Millisecond,
		Seq:      0,
	})
	if err != nil {
		t.Fatalf("RecordTrackPoint: %v", err)
	}
	if id == 0 {
		t.Error("expected non-zero id")
	}

	points, err := e.DB.GetRunTrackPoints("run-001")
	if err != nil {
		t.Fatalf("GetRunTrackPoints: %v", err)
	}
	if len(points) != 1 {
		t.Fatalf("expected 1 point, got %d", len(points))
	}

	p := points[0]
	if p.SystemType != "web" {
		t.Errorf("system = %q, want web", p.SystemType)
	}
	if p.ActionType != "SearchAction" {
		t.Errorf("action = %q, want SearchAction", p.ActionType)
	}
	if !strings.Contains(p.Entities, "acme/widgets") {
		t.Errorf("entities missing repo: %s", p.Entities)
	}
	if !strings.Contains(p.Entities, "report.pdf") {
		t.Errorf("entities missing document: %s", p.Entities)
	}
	if p.DurationMS != 120 {
		t.Errorf("duration_ms = %d, want 120", p.DurationMS)
	}
	if p.SignalScore != nil {
		t.Error("signal score should not be set by the recorder")
	}
}

func TestRecordTrackPointTruncates(t *testing.T) {
	e := testEngine(t)

	_, err := e.RecordTrackPoint(RecordInput{
		RunID:    "run-001",
		ToolName: "web_fetch",
		Params:   map[string]any{"url": "https://example.com", "pad": strings.Repeat("x", 500)},
		Result:   strings.Repeat("y", 5000),
	})
	if err != nil {
		t.Fatalf("RecordTrackPoint: %v", err)
	}

	points, _ := e.DB.GetRunTrackPoints("run-001")
	if len(points[0].InputSummary) > store.MaxInputSummary {
		t.Errorf("input summary len = %d, want <= %d", len(points[0].InputSummary), store.MaxInputSummary)
	}
	if len(points[0].OutputSummary) > store.MaxOutputSummary {
		t.Errorf("output summary len = %d, want <= %d", len(points[0].OutputSummary), store.MaxOutputSummary)
	}
}

func TestRecordTrackPointEmptyParams(t *testing.T) {
	e := testEngine(t)

	if _, err := e.RecordTrackPoint(RecordInput{RunID: "run-001", ToolName: "mystery_tool"}); err != nil {
		t.Fatalf("RecordTrackPoint with empty params: %v", err)
	}

	points, _ := e.DB.GetRunTrackPoints("run-001")
	if points[0].SystemType != "unknown" {
		t.Errorf("system = %q, want unknown", points[0].SystemType)
	}
	if points[0].Entities != "[]" {
		t.Errorf("entities = %q, want []", points[0].Entities)
	}
}
