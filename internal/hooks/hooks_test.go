package hooks

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func testClient(ts *httptest.Server) *Client {
	return &Client{http: ts.Client(), serverURL: ts.URL}
}

func TestShouldSkipTool(t *testing.T) {
	for _, tool := range []string{"TodoWrite", "TaskCreate", "Thinking"} {
		input := &HookInput{ToolName: tool}
		if !input.ShouldSkipTool() {
			t.Errorf("expected %s to be skipped", tool)
		}
	}

	input := &HookInput{ToolName: "web_search"}
	if input.ShouldSkipTool() {
		t.Error("web_search should not be skipped")
	}
}

func TestParamsDecode(t *testing.T) {
	input := &HookInput{ToolInput: json.RawMessage(`{"query":"launch","limit":5}`)}
	params := input.Params()
	if params["query"] != "launch" {
		t.Errorf("params = %v", params)
	}

	// Malformed input degrades to nil
	input = &HookInput{ToolInput: json.RawMessage(`not json`)}
	if input.Params() != nil {
		t.Error("malformed tool_input should yield nil params")
	}
	input = &HookInput{}
	if input.Params() != nil {
		t.Error("empty tool_input should yield nil params")
	}
}

func TestHandleToolPostsTrack(t *testing.T) {
	var gotPath string
	var gotBody recordRequest

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		body, _ := io.ReadAll(r.Body)
		json.Unmarshal(body, &gotBody)
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]any{"id": 1, "seq": 0})
	}))
	defer ts.Close()

	input := &HookInput{
		SessionID:    "run-001",
		ToolName:     "web_search",
		ToolInput:    json.RawMessage(`{"query":"launch"}`),
		ToolResponse: json.RawMessage(`"ten results"`),
		DurationMS:   42,
	}
	handleTool(testClient(ts), input)

	if gotPath != "/api/runs/run-001/tracks" {
		t.Errorf("path = %q", gotPath)
	}
	if gotBody.ToolName != "web_search" {
		t.Errorf("tool_name = %q", gotBody.ToolName)
	}
	if gotBody.Params["query"] != "launch" {
		t.Errorf("params = %v", gotBody.Params)
	}
	if !strings.Contains(gotBody.Result, "ten results") {
		t.Errorf("result = %q", gotBody.Result)
	}
	if gotBody.DurationMS != 42 {
		t.Errorf("duration_ms = %d", gotBody.DurationMS)
	}
}

func TestHandleToolSkipsMetaTools(t *testing.T) {
	called := false
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer ts.Close()

	handleTool(testClient(ts), &HookInput{SessionID: "run-001", ToolName: "TodoWrite"})
	if called {
		t.Error("meta-tool should not reach the server")
	}
}

func TestHandleStopCompletesRun(t *testing.T) {
	var gotPath string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusAccepted)
		json.NewEncoder(w).Encode(map[string]string{"status": "analyzing"})
	}))
	defer ts.Close()

	handleStop(testClient(ts), &HookInput{SessionID: "run-001"})
	if gotPath != "/api/runs/run-001/complete" {
		t.Errorf("path = %q", gotPath)
	}
}
