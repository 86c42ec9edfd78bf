package web

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aadhiVenkat/Automation-web-agent-ui/internal/agent"
)

func TestSSEWriterFormat(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/x", nil)

	sse := newSSEWriter(rec, req)
	if sse == nil {
		t.Fatal("recorder should support flushing")
	}
	if !sse.Send("log", map[string]string{"message": "hello"}) {
		t.Fatal("send failed")
	}

	body := rec.Body.String()
	if !strings.HasPrefix(body, "event: log\ndata: ") {
		t.Errorf("frame = %q", body)
	}
	if !strings.HasSuffix(body, "\n\n") {
		t.Errorf("frame must end with blank line: %q", body)
	}
	if rec.Header().Get("Content-Type") != "text/event-stream" {
		t.Errorf("content type = %s", rec.Header().Get("Content-Type"))
	}
}

func TestConvertEvent(t *testing.T) {
	tool := convertEvent(agent.Event{Type: agent.EventTool, Tool: "click", Args: map[string]any{"selector": "#a"}})
	if tool.Type != "log" || !strings.Contains(tool.Message, `Tool: click - Args: {"selector":"#a"}`) {
		t.Errorf("tool event = %+v", tool)
	}

	boost := convertEvent(agent.Event{Type: agent.EventBoostedPrompt, Content: strings.Repeat("p", 600)})
	if boost.Type != "log" || !strings.HasSuffix(boost.Message, "...") {
		t.Errorf("boost event not truncated: %d chars", len(boost.Message))
	}
	if len(boost.Message) > len("Enhanced Task Plan:\n")+boostedPromptPreview+3 {
		t.Errorf("boost preview too long: %d", len(boost.Message))
	}

	shot := convertEvent(agent.Event{Type: agent.EventScreenshot, Screenshot: "abc"})
	if shot.Type != "screenshot" || shot.Screenshot != "abc" {
		t.Errorf("screenshot event = %+v", shot)
	}

	code := convertEvent(agent.Event{Type: agent.EventCode, Code: "test()"})
	if code.Type != "code" || code.Code != "test()" {
		t.Errorf("code event = %+v", code)
	}

	done := convertEvent(agent.Event{Type: agent.EventComplete, Message: "ok", Steps: 4})
	if done.Type != "complete" || done.Message != "ok" {
		t.Errorf("complete event = %+v", done)
	}
}

func TestEventGateDropsEverythingAfterTerminal(t *testing.T) {
	gate := &eventGate{stopRequested: func() bool { return false }}

	if !gate.pass(agent.Event{Type: agent.EventLog, Message: "step"}) {
		t.Fatal("log before terminal should pass")
	}
	if !gate.pass(agent.Event{Type: agent.EventError, Message: "LLM error"}) {
		t.Fatal("terminal error should pass")
	}
	// Nothing follows the terminal, not even code or cleanup logs.
	if gate.pass(agent.Event{Type: agent.EventCode, Code: "test()"}) {
		t.Error("code after terminal error should be dropped")
	}
	if gate.pass(agent.Event{Type: agent.EventLog, Message: "Browser closed"}) {
		t.Error("log after terminal should be dropped")
	}
	if gate.pass(agent.Event{Type: agent.EventComplete, Message: "done"}) {
		t.Error("second terminal should be dropped")
	}
}

func TestEventGateDrainsStoppedSession(t *testing.T) {
	stopped := false
	gate := &eventGate{stopRequested: func() bool { return stopped }}

	if !gate.pass(agent.Event{Type: agent.EventLog, Message: "step"}) {
		t.Fatal("log before stop should pass")
	}
	stopped = true
	if gate.pass(agent.Event{Type: agent.EventScreenshot, Screenshot: "abc"}) {
		t.Error("non-terminal after stop should be drained")
	}
	if !gate.pass(agent.Event{Type: agent.EventComplete, Message: "stopped"}) {
		t.Error("terminal should still pass after stop")
	}
}

func TestAgentRequestDefaults(t *testing.T) {
	req := AgentRequest{Provider: "gemini", URL: "https://example.com", Task: "do it"}
	if err := req.Validate(); err != nil {
		t.Fatal(err)
	}
	if req.Framework != "playwright" || req.Language != "typescript" {
		t.Errorf("defaults = %+v", req)
	}
	if !req.HeadlessOrDefault() || !req.BoostOrDefault() {
		t.Error("headless and boost should default to true")
	}

	f := false
	req.Headless = &f
	req.UseBoostPrompt = &f
	if req.HeadlessOrDefault() || req.BoostOrDefault() {
		t.Error("explicit false not honored")
	}
}

func TestAgentRequestAcceptsFullClientSchema(t *testing.T) {
	payload := `{
		"provider": "gemini",
		"url": "https://example.com",
		"task": "log in",
		"verifyEachStep": true,
		"httpCredentials": {"username": "admin", "password": "secret"}
	}`
	var req AgentRequest
	if err := json.Unmarshal([]byte(payload), &req); err != nil {
		t.Fatal(err)
	}
	if err := req.Validate(); err != nil {
		t.Fatal(err)
	}
	if !req.VerifyEachStep {
		t.Error("verifyEachStep not decoded")
	}
	if req.HTTPCredentials == nil || req.HTTPCredentials.Username != "admin" {
		t.Errorf("httpCredentials = %+v", req.HTTPCredentials)
	}
}
