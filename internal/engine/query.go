package engine

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/lazypower/tracks/internal/extract"
)

// defaultLimit applies when a query caller passes no positive limit.
const defaultLimit = 10

// PatternSuggestion is a learned workflow offered to future runs.
type PatternSuggestion struct {
	Steps       []string `json:"steps"`
	Label       string   `json:"label"`
	Frequency   int      `json:"frequency"`
	Confidence  float64  `json:"confidence"`
	AvgSignal   float64  `json:"avg_signal"`
	Category    string   `json:"category"`
	ExampleRuns []string `json:"example_runs"`
}

// WorkflowSuggestions returns patterns seen in at least two runs,
// ordered by confidence, with scores rounded to two decimals.
func (e *Engine) WorkflowSuggestions(limit int) ([]PatternSuggestion, error) {
	if limit <= 0 {
		limit = defaultLimit
	}

	patterns, err := e.DB.SuggestedPatterns(limit)
	if err != nil {
		return nil, fmt.Errorf("workflow suggestions: %w", err)
	}

	suggestions := make([]PatternSuggestion, 0, len(patterns))
	for _, p := range patterns {
		var runs []string
		json.Unmarshal([]byte(p.ExampleRuns), &runs)

		suggestions = append(suggestions, PatternSuggestion{
			Steps:       strings.Split(p.SequenceKey, ">"),
			Label:       p.Label,
			Frequency:   p.Frequency,
			Confidence:  round2(p.Confidence),
			AvgSignal:   round2(p.AvgSignal),
			Category:    p.Category,
			ExampleRuns: runs,
		})
	}
	return suggestions, nil
}

// EntitySummary is one ranked entity in the insights view.
type EntitySummary struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Occurrences int    `json:"occurrences"`
}

// RelationshipSummary is one ranked edge in the insights view,
// annotated with its endpoints.
type RelationshipSummary struct {
	Source        string  `json:"source"`
	SourceType    string  `json:"source_type"`
	Target        string  `json:"target"`
	TargetType    string  `json:"target_type"`
	RelType       string  `json:"rel_type"`
	DecayedWeight float64 `json:"decayed_weight"`
	Observations  int     `json:"observations"`
}

// OrgInsights is the "what do we know" summary.
type OrgInsights struct {
	EntityCount       int                   `json:"entity_count"`
	RelationshipCount int                   `json:"relationship_count"`
	TrackPointCount   int                   `json:"track_point_count"`
	TopEntities       []EntitySummary       `json:"top_entities"`
	TopRelationships  []RelationshipSummary `json:"top_relationships"`
}

// GetOrgInsights returns global counts plus the strongest entities and
// relationships. A fresh store yields zero counts and empty lists.
func (e *Engine) GetOrgInsights(limit int) (*OrgInsights, error) {
	if limit <= 0 {
		limit = defaultLimit
	}

	insights := &OrgInsights{
		TopEntities:      []EntitySummary{},
		TopRelationships: []RelationshipSummary{},
	}

	var err error
	if insights.EntityCount, err = e.DB.CountEntityNodes(); err != nil {
		return nil, fmt.Errorf("org insights: %w", err)
	}
	if insights.RelationshipCount, err = e.DB.CountRelationships(); err != nil {
		return nil, fmt.Errorf("org insights: %w", err)
	}
	if insights.TrackPointCount, err = e.DB.CountTrackPoints(); err != nil {
		return nil, fmt.Errorf("org insights: %w", err)
	}

	nodes, err := e.DB.TopEntityNodes(limit, "")
	if err != nil {
		return nil, fmt.Errorf("org insights: %w", err)
	}
	for _, n := range nodes {
		insights.TopEntities = append(insights.TopEntities, EntitySummary{
			Name:        n.DisplayName,
			Type:        n.SchemaType,
			Occurrences: n.OccurrenceCount,
		})
	}

	edges, err := e.DB.TopRelationships(limit)
	if err != nil {
		return nil, fmt.Errorf("org insights: %w", err)
	}
	for _, r := range edges {
		insights.TopRelationships = append(insights.TopRelationships, RelationshipSummary{
			Source:        r.SourceName,
			SourceType:    r.SourceType,
			Target:        r.TargetName,
			TargetType:    r.TargetType,
			RelType:       r.RelType,
			DecayedWeight: round2(r.DecayedWeight),
			Observations:  r.ObservationCount,
		})
	}
	return insights, nil
}

// GraphNode is one node in the visualization subgraph.
type GraphNode struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Type        string `json:"type"`
	Occurrences int    `json:"occurrences"`
}

// GraphEdge is one edge in the visualization subgraph.
type GraphEdge struct {
	SourceID int64   `json:"source_id"`
	TargetID int64   `json:"target_id"`
	RelType  string  `json:"rel_type"`
	Weight   float64 `json:"weight"`
}

// EntityGraph is a bounded subgraph for visualization.
type EntityGraph struct {
	Nodes []GraphNode `json:"nodes"`
	Edges []GraphEdge `json:"edges"`
}

// GetEntityGraph returns up to limit nodes by occurrence (optionally
// filtered by schema type) and up to 2*limit edges connecting them.
func (e *Engine) GetEntityGraph(limit int, schemaType string) (*EntityGraph, error) {
	if limit <= 0 {
		limit = defaultLimit
	}

	graph := &EntityGraph{Nodes: []GraphNode{}, Edges: []GraphEdge{}}

	nodes, err := e.DB.TopEntityNodes(limit, schemaType)
	if err != nil {
		return nil, fmt.Errorf("entity graph: %w", err)
	}

	ids := make([]int64, 0, len(nodes))
	for _, n := range nodes {
		ids = append(ids, n.ID)
		graph.Nodes = append(graph.Nodes, GraphNode{
			ID:          n.ID,
			Name:        n.DisplayName,
			Type:        n.SchemaType,
			Occurrences: n.OccurrenceCount,
		})
	}

	edges, err := e.DB.RelationshipsAmong(ids, 2*limit)
	if err != nil {
		return nil, fmt.Errorf("entity graph: %w", err)
	}
	for _, r := range edges {
		graph.Edges = append(graph.Edges, GraphEdge{
			SourceID: r.SourceID,
			TargetID: r.TargetID,
			RelType:  r.RelType,
			Weight:   round2(r.DecayedWeight),
		})
	}
	return graph, nil
}

// TrackView is one track point with its entities decoded.
type TrackView struct {
	ID            int64            `json:"id"`
	RunID         string           `json:"run_id"`
	TaskID        string           `json:"task_id,omitempty"`
	ProjectID     string           `json:"project_id,omitempty"`
	SystemType    string           `json:"system_type"`
	ActionType    string           `json:"action_type"`
	ToolName      string           `json:"tool_name"`
	Entities      []extract.Entity `json:"entities"`
	InputSummary  string           `json:"input_summary"`
	OutputSummary string           `json:"output_summary"`
	SignalScore   *float64         `json:"signal_score"`
	Seq           int              `json:"seq"`
	DurationMS    int64            `json:"duration_ms"`
	CreatedAt     int64            `json:"created_at"`
}

// GetInstanceTracks returns every track point for a run in sequence
// order. Unknown runs yield an empty slice, never an error.
func (e *Engine) GetInstanceTracks(runID string) ([]TrackView, error) {
	points, err := e.DB.GetRunTrackPoints(runID)
	if err != nil {
		return nil, fmt.Errorf("instance tracks: %w", err)
	}

	views := make([]TrackView, 0, len(points))
	for _, p := range points {
		entities := decodeEntities(p.Entities)
		if entities == nil {
			entities = []extract.Entity{}
		}
		views = append(views, TrackView{
			ID:            p.ID,
			RunID:         p.RunID,
			TaskID:        p.TaskID,
			ProjectID:     p.ProjectID,
			SystemType:    p.SystemType,
			ActionType:    p.ActionType,
			ToolName:      p.ToolName,
			Entities:      entities,
			InputSummary:  p.InputSummary,
			OutputSummary: p.OutputSummary,
			SignalScore:   p.SignalScore,
			Seq:           p.Seq,
			DurationMS:    p.DurationMS,
			CreatedAt:     p.CreatedAt,
		})
	}
	return views, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
