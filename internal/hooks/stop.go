package hooks

// handleStop marks the run terminal and lets the server dispatch
// background analysis. Both the Stop and SessionEnd events route here;
// re-analysis of an already-analyzed run is a server-side no-op.
func handleStop(client *Client, input *HookInput) {
	if _, err := client.Post("/api/runs/"+input.SessionID+"/complete", nil); err != nil {
		ExitError(err)
		return
	}
}
