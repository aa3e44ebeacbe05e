package hooks

import "encoding/json"

// recordRequest is the body posted to the track-recording endpoint.
type recordRequest struct {
	TaskID     string         `json:"task_id,omitempty"`
	ProjectID  string         `json:"project_id,omitempty"`
	ToolName   string         `json:"tool_name"`
	Params     map[string]any `json:"params,omitempty"`
	Result     string         `json:"result,omitempty"`
	DurationMS int64          `json:"duration_ms,omitempty"`
}

func handleTool(client *Client, input *HookInput) {
	if input.ShouldSkipTool() {
		return
	}

	body, err := json.Marshal(recordRequest{
		TaskID:     input.TaskID,
		ProjectID:  input.ProjectID,
		ToolName:   input.ToolName,
		Params:     input.Params(),
		Result:     string(input.ToolResponse),
		DurationMS: input.DurationMS,
	})
	if err != nil {
		ExitError(err)
		return
	}

	if _, err := client.Post("/api/runs/"+input.SessionID+"/tracks", body); err != nil {
		ExitError(err)
		return
	}
}
