package web

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/aadhiVenkat/Automation-web-agent-ui/internal/agent"
	"github.com/aadhiVenkat/Automation-web-agent-ui/internal/config"
	"github.com/aadhiVenkat/Automation-web-agent-ui/internal/llm"
	"github.com/aadhiVenkat/Automation-web-agent-ui/internal/session"
)

const maxRequestBody = 1 << 20 // 1MB

// boostedPromptPreview caps how much of the enhanced plan goes into the
// log stream.
const boostedPromptPreview = 500

// AgentHandler serves POST /api/agent: it runs a browser automation
// agent and streams its progress as SSE.
type AgentHandler struct {
	settings config.Settings
	sessions *session.Registry
}

// NewAgentHandler creates the handler.
func NewAgentHandler(settings config.Settings, sessions *session.Registry) *AgentHandler {
	return &AgentHandler{settings: settings, sessions: sessions}
}

// ServeHTTP handles the agent request. The first SSE event carries the
// session ID so clients can stop the run; the stream always ends with
// exactly one complete or error event.
func (h *AgentHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)

	var req AgentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "Request body must be valid JSON")
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "validation_error", err.Error())
		return
	}

	apiKey, err := ResolveAPIKey(r.Header.Get(apiKeyHeader), req.APIKey, req.Provider, h.settings)
	if err != nil {
		w.Header().Set("WWW-Authenticate", apiKeyHeader)
		writeError(w, http.StatusUnauthorized, "api_key_required", err.Error())
		return
	}
	log.Printf("[Agent] provider=%s key=%s task=%q", req.Provider, MaskAPIKey(apiKey), req.Task)
	if req.HTTPCredentials != nil {
		log.Printf("[Agent] httpCredentials provided for user %q but basic auth is not supported; ignoring", req.HTTPCredentials.Username)
	}

	client, err := llm.NewClient(req.Provider, apiKey, "")
	if err != nil {
		writeError(w, http.StatusBadRequest, "llm_init_failed", "Failed to initialize LLM client: "+err.Error())
		return
	}
	defer func() {
		if err := client.Close(); err != nil {
			log.Printf("[Agent] LLM client close error: %v", err)
		}
	}()

	sse := newSSEWriter(w, r)
	if sse == nil {
		return
	}

	sess, ctx := h.sessions.Create(r.Context())
	defer sess.MarkCompleted()

	// Bound the whole run; a stuck page must not pin the session forever.
	ctx, cancel := context.WithTimeout(ctx, time.Duration(h.settings.AgentTimeoutSecs)*time.Second)
	defer cancel()

	first := newAgentEvent("session", "Session started")
	first.SessionID = sess.ID
	sse.Send("session", first)

	cfg := agent.DefaultConfig()
	cfg.MaxSteps = h.settings.MaxSteps
	cfg.Headless = req.HeadlessOrDefault()
	cfg.Framework = req.Framework
	cfg.Language = req.Language
	cfg.UseBoostPrompt = req.BoostOrDefault()
	cfg.UseStructuredExecution = req.UseStructuredExecution

	gate := &eventGate{stopRequested: sess.StopRequested}
	emit := func(e agent.Event) {
		if !gate.pass(e) {
			return
		}
		sse.SendEvent(convertEvent(e))
	}

	agent.New(client, cfg).Run(ctx, req.Task, req.URL, emit)

	if !gate.terminalSent {
		msg := "Agent stopped"
		if sess.StopRequested() {
			msg = "Agent stopped by user"
		}
		sse.SendEvent(newAgentEvent("complete", msg))
	}
}

// eventGate enforces the stream contract: the terminal complete or
// error event ends the stream, so anything emitted after it (deferred
// cleanup logs included) is dropped. A stopped session additionally
// drains everything but the terminal.
type eventGate struct {
	stopRequested func() bool
	terminalSent  bool
}

func (g *eventGate) pass(e agent.Event) bool {
	if g.terminalSent {
		return false
	}
	terminal := e.Type == agent.EventComplete || e.Type == agent.EventError
	if !terminal && g.stopRequested() {
		return false
	}
	if terminal {
		g.terminalSent = true
	}
	return true
}

// convertEvent maps internal agent events onto the public SSE schema.
// Tool calls and boosted prompts are surfaced as log lines.
func convertEvent(e agent.Event) AgentEvent {
	switch e.Type {
	case agent.EventLog, agent.EventError, agent.EventComplete:
		return newAgentEvent(e.Type, e.Message)
	case agent.EventScreenshot:
		out := newAgentEvent("screenshot", "")
		out.Screenshot = e.Screenshot
		return out
	case agent.EventCode:
		out := newAgentEvent("code", "")
		out.Code = e.Code
		return out
	case agent.EventTool:
		return newAgentEvent("log", formatToolLog(e))
	case agent.EventBoostedPrompt:
		preview := e.Content
		if len(preview) > boostedPromptPreview {
			preview = preview[:boostedPromptPreview] + "..."
		}
		return newAgentEvent("log", "Enhanced Task Plan:\n"+preview)
	default:
		return newAgentEvent("log", e.Message)
	}
}

func formatToolLog(e agent.Event) string {
	args, err := json.Marshal(e.Args)
	if err != nil {
		return "Tool: " + e.Tool
	}
	return "Tool: " + e.Tool + " - Args: " + string(args)
}
