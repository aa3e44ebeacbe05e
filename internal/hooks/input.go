package hooks

import "encoding/json"

// HookInput represents the JSON an agent harness sends on stdin to hook
// handlers. All fields are optional — different events populate
// different subsets.
type HookInput struct {
	SessionID     string `json:"session_id"`
	TaskID        string `json:"task_id"`
	ProjectID     string `json:"project_id"`
	CWD           string `json:"cwd"`
	HookEventName string `json:"hook_event_name"`

	// PostToolUse
	ToolName     string          `json:"tool_name,omitempty"`
	ToolUseID    string          `json:"tool_use_id,omitempty"`
	ToolInput    json.RawMessage `json:"tool_input,omitempty"`
	ToolResponse json.RawMessage `json:"tool_response,omitempty"`
	DurationMS   int64           `json:"duration_ms,omitempty"`

	// Stop / SessionEnd
	StopHookActive bool   `json:"stop_hook_active,omitempty"`
	Reason         string `json:"reason,omitempty"`
}

// skipTools are meta-tools that generate noise, not useful observations.
var skipTools = map[string]bool{
	"TodoRead":   true,
	"TodoWrite":  true,
	"Thinking":   true,
	"TaskList":   true,
	"TaskCreate": true,
	"TaskGet":    true,
	"TaskUpdate": true,
}

// ShouldSkipTool returns true if this tool should not be recorded as a
// track point.
func (h *HookInput) ShouldSkipTool() bool {
	return skipTools[h.ToolName]
}

// Params decodes the raw tool input into a parameter map. Malformed or
// non-object input yields nil — extraction degrades, it never fails.
func (h *HookInput) Params() map[string]any {
	if len(h.ToolInput) == 0 {
		return nil
	}
	var params map[string]any
	if err := json.Unmarshal(h.ToolInput, &params); err != nil {
		return nil
	}
	return params
}
