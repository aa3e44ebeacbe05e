package engine

import (
	"testing"
)

func TestQueriesOnFreshStore(t *testing.T) {
	e := testEngine(t)

	suggestions, err := e.WorkflowSuggestions(10)
	if err != nil {
		t.Fatalf("WorkflowSuggestions: %v", err)
	}
	if len(suggestions) != 0 {
		t.Errorf("expected no suggestions, got %d", len(suggestions))
	}

	insights, err := e.GetOrgInsights(10)
	if err != nil {
		t.Fatalf("GetOrgInsights: %v", err)
	}
	if insights.EntityCount != 0 || insights.RelationshipCount != 0 || insights.TrackPointCount != 0 {
		t.Errorf("expected zero counts, got %+v", insights)
	}
	if len(insights.TopEntities) != 0 || len(insights.TopRelationships) != 0 {
		t.Errorf("expected empty lists, got %+v", insights)
	}

	graph, err := e.GetEntityGraph(10, "")
	if err != nil {
		t.Fatalf("GetEntityGraph: %v", err)
	}
	if len(graph.Nodes) != 0 || len(graph.Edges) != 0 {
		t.Errorf("expected empty graph, got %+v", graph)
	}

	tracks, err := e.GetInstanceTracks("no-such-run")
	if err != nil {
		t.Fatalf("GetInstanceTracks: %v", err)
	}
	if len(tracks) != 0 {
		t.Errorf("expected no tracks, got %d", len(tracks))
	}
}

func TestWorkflowSuggestionsThreshold(t *testing.T) {
	e := testEngine(t)

	e.DB.UpsertWorkflowPattern("a>b", "a -> b", "workflow", "run-001", 0.777)
	e.DB.UpsertWorkflowPattern("a>b", "a -> b", "workflow", "run-002", 0.5)
	e.DB.UpsertWorkflowPattern("c>d", "c -> d", "workflow", "run-001", 0.9)

	suggestions, err := e.WorkflowSuggestions(10)
	if err != nil {
		t.Fatalf("WorkflowSuggestions: %v", err)
	}
	if len(suggestions) != 1 {
		t.Fatalf("len = %d, want 1", len(suggestions))
	}

	s := suggestions[0]
	if s.Frequency < 2 {
		t.Errorf("returned pattern with frequency %d", s.Frequency)
	}
	if len(s.Steps) != 2 || s.Steps[0] != "a" || s.Steps[1] != "b" {
		t.Errorf("steps = %v, want [a b]", s.Steps)
	}
	// 0.777 avg rounds to 0.78, confidence 2*0.777=1.554 rounds to 1.55
	if s.AvgSignal != 0.78 {
		t.Errorf("avg_signal = %v, want 0.78", s.AvgSignal)
	}
	if s.Confidence != 1.55 {
		t.Errorf("confidence = %v, want 1.55", s.Confidence)
	}
}

func TestOrgInsightsRanking(t *testing.T) {
	e := testEngine(t)

	record(t, e, "run-001", "slack_send_message",
		map[string]any{"channel": "#launch", "text": "ping john.doe@example.com about acme/widgets"}, "ok", 0)
	record(t, e, "run-001", "send_email", map[string]any{"to": "john.doe@example.com"}, "sent", 1)
	if err := e.AnalyzePatterns("run-001"); err != nil {
		t.Fatalf("AnalyzePatterns: %v", err)
	}

	insights, err := e.GetOrgInsights(5)
	if err != nil {
		t.Fatalf("GetOrgInsights: %v", err)
	}
	if insights.TrackPointCount != 2 {
		t.Errorf("track_point_count = %d, want 2", insights.TrackPointCount)
	}
	if insights.EntityCount == 0 || insights.RelationshipCount == 0 {
		t.Errorf("expected entities and relationships, got %+v", insights)
	}
	if len(insights.TopEntities) == 0 {
		t.Fatal("expected top entities")
	}
	// John Doe was sighted twice, everything else once
	if insights.TopEntities[0].Name != "John Doe" {
		t.Errorf("top entity = %q, want John Doe", insights.TopEntities[0].Name)
	}
	for _, r := range insights.TopRelationships {
		if r.Source == "" || r.Target == "" {
			t.Errorf("relationship missing endpoint annotation: %+v", r)
		}
	}
}

func TestEntityGraphBoundedAndFiltered(t *testing.T) {
	e := testEngine(t)

	record(t, e, "run-001", "slack_send_message",
		map[string]any{"channel": "#launch", "text": "john.doe@example.com and jane.roe@example.com"}, "ok", 0)
	if err := e.AnalyzePatterns("run-001"); err != nil {
		t.Fatalf("AnalyzePatterns: %v", err)
	}

	graph, err := e.GetEntityGraph(2, "")
	if err != nil {
		t.Fatalf("GetEntityGraph: %v", err)
	}
	if len(graph.Nodes) != 2 {
		t.Errorf("len(nodes) = %d, want 2 (limit)", len(graph.Nodes))
	}
	inSet := make(map[int64]bool)
	for _, n := range graph.Nodes {
		inSet[n.ID] = true
	}
	for _, edge := range graph.Edges {
		if !inSet[edge.SourceID] || !inSet[edge.TargetID] {
			t.Errorf("edge endpoint outside node set: %+v", edge)
		}
	}

	persons, err := e.GetEntityGraph(10, "Person")
	if err != nil {
		t.Fatalf("GetEntityGraph filtered: %v", err)
	}
	for _, n := range persons.Nodes {
		if n.Type != "Person" {
			t.Errorf("filter leaked type %q", n.Type)
		}
	}
	if len(persons.Nodes) != 2 {
		t.Errorf("filtered len = %d, want 2", len(persons.Nodes))
	}
}

func TestInstanceTracksDecodesEntities(t *testing.T) {
	e := testEngine(t)

	record(t, e, "run-001", "web_search", map[string]any{"query": "x"}, "see report.pdf", 0)
	record(t, e, "run-001", "read_project_context", nil, "ctx", 1)
	record(t, e, "run-001", "web_search", map[string]any{"query": "y"}, "more", 2)
	if err := e.AnalyzePatterns("run-001"); err != nil {
		t.Fatalf("AnalyzePatterns: %v", err)
	}

	tracks, err := e.GetInstanceTracks("run-001")
	if err != nil {
		t.Fatalf("GetInstanceTracks: %v", err)
	}
	if len(tracks) != 3 {
		t.Fatalf("len = %d, want 3", len(tracks))
	}
	for i, tr := range tracks {
		if tr.Seq != i {
			t.Errorf("tracks[%d].Seq = %d", i, tr.Seq)
		}
		if tr.SignalScore == nil {
			t.Errorf("tracks[%d] missing signal score", i)
		}
		if tr.Entities == nil {
			t.Errorf("tracks[%d] entities should decode to a slice", i)
		}
	}
	if len(tracks[0].Entities) == 0 || tracks[0].Entities[0].Name != "report.pdf" {
		t.Errorf("tracks[0] entities = %v, want report.pdf", tracks[0].Entities)
	}
}
