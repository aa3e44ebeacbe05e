package engine

import (
	"encoding/json"
	"fmt"
	"log"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/lazypower/tracks/internal/extract"
	"github.com/lazypower/tracks/internal/store"
)

// Sequence mining window bounds: patterns are 2 to 5 steps long.
const (
	minWindow = 2
	maxWindow = 5
)

// AnalyzeAsync dispatches pattern analysis for a completed run as a
// detached goroutine. Nothing awaits it; failures are logged and the
// pass is abandoned without retry.
func (e *Engine) AnalyzeAsync(runID string) {
	go func() {
		if err := e.AnalyzePatterns(runID); err != nil {
			log.Printf("analyzer: run %s: %v", runID, err)
		}
	}()
}

// AnalyzePatterns runs the five-step analysis pass over one completed
// run: signal scoring, entity resolution, relationship update, sequence
// mining, and the global decay pass. Idempotent: a run whose points
// already carry scores is skipped.
func (e *Engine) AnalyzePatterns(runID string) error {
	analyzed, err := e.DB.RunAnalyzed(runID)
	if err != nil {
		return fmt.Errorf("check analyzed: %w", err)
	}
	if analyzed {
		log.Printf("analyzer: skipping %s — already analyzed", runID)
		return nil
	}

	points, err := e.DB.GetRunTrackPoints(runID)
	if err != nil {
		return fmt.Errorf("load track points: %w", err)
	}
	if len(points) == 0 {
		log.Printf("analyzer: run %s has no track points", runID)
		return nil
	}

	entities := make([][]extract.Entity, len(points))
	for i := range points {
		entities[i] = decodeEntities(points[i].Entities)
	}

	// Step 1: signal scoring, persisted exactly once per point.
	scores := signalScores(points, entities)
	for i := range points {
		if err := e.DB.SetSignalScore(points[i].ID, scores[i]); err != nil {
			return fmt.Errorf("persist signal score: %w", err)
		}
	}

	// Step 2: entity resolution — upsert a node per sighting, remember ids.
	pointNodes := make([][]int64, len(points))
	for i := range points {
		for _, ent := range entities[i] {
			props := fmt.Sprintf(`{"provenance":%q}`, ent.Provenance)
			node, err := e.DB.UpsertEntityNode(string(ent.Type), ent.Name, props)
			if err != nil {
				return fmt.Errorf("resolve entity %s/%s: %w", ent.Type, ent.Name, err)
			}
			pointNodes[i] = append(pointNodes[i], node.ID)
		}
	}

	// Step 3: relationship update — co-occurrence is scoped to a single
	// track point, not the whole run.
	for i := range points {
		ids := distinctSorted(pointNodes[i])
		for a := 0; a < len(ids); a++ {
			for b := a + 1; b < len(ids); b++ {
				if err := e.DB.RecordCoOccurrence(ids[a], ids[b]); err != nil {
					return fmt.Errorf("record co-occurrence: %w", err)
				}
			}
		}
	}

	// Step 4: sequence mining over (system, action) windows.
	if err := e.minePatterns(runID, points, scores); err != nil {
		return err
	}

	// Step 5: global decay over every edge in the system.
	if _, err := e.DB.DecayAllRelationships(time.Now()); err != nil {
		return fmt.Errorf("decay pass: %w", err)
	}

	return nil
}

// minePatterns slides windows of length 2..5 over the run's ordered
// (system, action) steps. Frequency counts distinct runs, so a sequence
// repeating within one run is credited once; its first window supplies
// the creation-time average signal.
func (e *Engine) minePatterns(runID string, points []store.TrackPoint, scores []float64) error {
	steps := make([]string, len(points))
	for i, p := range points {
		steps[i] = p.SystemType + ":" + p.ActionType
	}

	maxN := maxWindow
	if len(steps) < maxN {
		maxN = len(steps)
	}

	seen := make(map[string]bool)
	for n := minWindow; n <= maxN; n++ {
		for i := 0; i+n <= len(steps); i++ {
			window := steps[i : i+n]
			key := strings.Join(window, ">")
			if seen[key] {
				continue
			}
			seen[key] = true

			sum := 0.0
			for _, s := range scores[i : i+n] {
				sum += s
			}
			avg := sum / float64(n)

			label := strings.Join(window, " -> ")
			if _, err := e.DB.UpsertWorkflowPattern(key, label, "workflow", runID, avg); err != nil {
				return fmt.Errorf("mine pattern %q: %w", key, err)
			}
		}
	}
	return nil
}

// signalScores computes the heuristic usefulness score for each point:
// base 0.5, +0.1 for a substantive output, a bell-shaped bonus peaking
// mid-run, and a bonus for entities that reappear later in the run.
// Scores are clamped to [0,1].
func signalScores(points []store.TrackPoint, entities [][]extract.Entity) []float64 {
	n := len(points)
	scores := make([]float64, n)

	// Names seen strictly after each index, built back to front.
	laterNames := make(map[string]bool)
	reuse := make([]int, n)
	for i := n - 1; i >= 0; i-- {
		for _, ent := range entities[i] {
			if laterNames[strings.ToLower(ent.Name)] {
				reuse[i]++
			}
		}
		for _, ent := range entities[i] {
			laterNames[strings.ToLower(ent.Name)] = true
		}
	}

	for i := range points {
		score := 0.5

		if len(points[i].OutputSummary) > 50 {
			score += 0.1
		}

		if n > 2 {
			pos := float64(i) / float64(n-1)
			score += 0.15 * math.Exp(-8*(pos-0.5)*(pos-0.5))
		}

		score += math.Min(0.2, 0.05*float64(reuse[i]))

		scores[i] = math.Max(0, math.Min(1, score))
	}
	return scores
}

func decodeEntities(raw string) []extract.Entity {
	if raw == "" || raw == "[]" {
		return nil
	}
	var entities []extract.Entity
	if err := json.Unmarshal([]byte(raw), &entities); err != nil {
		return nil
	}
	return entities
}

func distinctSorted(ids []int64) []int64 {
	seen := make(map[int64]bool, len(ids))
	var out []int64
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
