package hooks

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
)

// Handle reads HookInput from the given reader, dispatches to the
// appropriate handler based on the event argument, and exits quietly on
// every failure path — observation loss must never interrupt the agent.
func Handle(event string, stdin io.Reader) {
	var input HookInput
	if err := json.NewDecoder(stdin).Decode(&input); err != nil {
		ExitError(fmt.Errorf("decode stdin: %w", err))
		return
	}

	// A run id is required for coherent tracks; synthesize one when the
	// agent harness sends none.
	if input.SessionID == "" {
		input.SessionID = uuid.NewString()
	}

	client := NewClient()

	// Check server health — degrade gracefully if down
	if !client.Healthy() {
		return
	}

	switch event {
	case "tool":
		handleTool(client, &input)
	case "stop":
		handleStop(client, &input)
	case "end":
		handleStop(client, &input)
	default:
		ExitError(fmt.Errorf("unknown hook event: %s", event))
	}
}

// ExitError logs to stderr and exits 0 (hooks must never crash the agent).
func ExitError(err error) {
	fmt.Fprintf(os.Stderr, "tracks hook: %v\n", err)
	os.Exit(0)
}
