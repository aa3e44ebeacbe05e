package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/lazypower/tracks/internal/engine"
)

func (s *Server) handleRecordTrack(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runID")

	var req struct {
		TaskID     string         `json:"task_id"`
		ProjectID  string         `json:"project_id"`
		ToolName   string         `json:"tool_name"`
		Params     map[string]any `json:"params"`
		Result     string         `json:"result"`
		DurationMS int64          `json:"duration_ms"`
		Seq        *int           `json:"seq"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid json"}`, http.StatusBadRequest)
		return
	}
	if req.ToolName == "" {
		http.Error(w, `{"error":"tool_name required"}`, http.StatusBadRequest)
		return
	}

	seq := 0
	if req.Seq != nil {
		seq = *req.Seq
	} else {
		next, err := s.db.NextSequence(runID)
		if err != nil {
			http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
			return
		}
		seq = next
	}

	id, err := s.engine.RecordTrackPoint(engine.RecordInput{
		RunID:     runID,
		TaskID:    req.TaskID,
		ProjectID: req.ProjectID,
		ToolName:  req.ToolName,
		Params:    req.Params,
		Result:    req.Result,
		Duration:  time.Duration(req.DurationMS) * time.Millisecond,
		Seq:       seq,
	})
	if err != nil {
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]any{"id": id, "seq": seq})
}

func (s *Server) handleCompleteRun(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runID")

	// Fire-and-forget: analysis failures are logged by the engine's
	// supervising goroutine, never surfaced to the agent.
	s.engine.AnalyzeAsync(runID)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]string{"status": "analyzing"})
}

func (s *Server) handleGetTracks(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runID")

	tracks, err := s.engine.GetInstanceTracks(runID)
	if err != nil {
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"run_id": runID, "tracks": tracks})
}

func (s *Server) handleGetPatterns(w http.ResponseWriter, r *http.Request) {
	suggestions, err := s.engine.WorkflowSuggestions(queryLimit(r))
	if err != nil {
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"patterns": suggestions})
}

func (s *Server) handleGetInsights(w http.ResponseWriter, r *http.Request) {
	insights, err := s.engine.GetOrgInsights(queryLimit(r))
	if err != nil {
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(insights)
}

func (s *Server) handleGetGraph(w http.ResponseWriter, r *http.Request) {
	graph, err := s.engine.GetEntityGraph(queryLimit(r), r.URL.Query().Get("type"))
	if err != nil {
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(graph)
}

// queryLimit parses the optional limit parameter; 0 means "use default".
func queryLimit(r *http.Request) int {
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 {
			return n
		}
	}
	return 0
}
