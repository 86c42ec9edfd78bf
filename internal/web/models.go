package web

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/aadhiVenkat/Automation-web-agent-ui/internal/codegen"
	"github.com/aadhiVenkat/Automation-web-agent-ui/internal/llm"
)

// AgentRequest is the body of POST /api/agent.
//
// The API key may arrive three ways, in priority order: the X-API-Key
// header, the apiKey body field, or a server-side default from the
// environment.
type AgentRequest struct {
	APIKey   string `json:"apiKey,omitempty"`
	Provider string `json:"provider"`
	URL      string `json:"url"`
	Task     string `json:"task"`

	Framework codegen.Framework `json:"framework,omitempty"`
	Language  codegen.Language  `json:"language,omitempty"`
	Headless  *bool             `json:"headless,omitempty"`

	UseBoostPrompt         *bool `json:"useBoostPrompt,omitempty"`
	UseStructuredExecution bool  `json:"useStructuredExecution,omitempty"`

	// VerifyEachStep is accepted for client compatibility; step results
	// are validated as part of the main loop either way.
	VerifyEachStep bool `json:"verifyEachStep,omitempty"`

	// HTTPCredentials carries basic-auth credentials for the target
	// site. Accepted but not applied; chromedp has no per-request auth.
	HTTPCredentials *HTTPCredentials `json:"httpCredentials,omitempty"`
}

// HTTPCredentials is the basic-auth pair some clients send alongside
// the target URL.
type HTTPCredentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Validate checks the request and fills in defaults.
func (r *AgentRequest) Validate() error {
	if r.Task == "" {
		return fmt.Errorf("task is required")
	}
	if err := validateTargetURL(r.URL); err != nil {
		return err
	}

	switch r.Provider {
	case llm.ProviderGemini, llm.ProviderPerplexity, llm.ProviderHF:
	default:
		return fmt.Errorf("unsupported provider: %q", r.Provider)
	}

	if r.Framework == "" {
		r.Framework = codegen.FrameworkPlaywright
	}
	if r.Language == "" {
		r.Language = codegen.LanguageTypeScript
	}
	switch r.Language {
	case codegen.LanguageTypeScript, codegen.LanguagePython, codegen.LanguageJavaScript:
	default:
		return fmt.Errorf("unsupported language: %s", r.Language)
	}
	return nil
}

// HeadlessOrDefault returns the headless flag, defaulting to true.
func (r *AgentRequest) HeadlessOrDefault() bool {
	if r.Headless == nil {
		return true
	}
	return *r.Headless
}

// BoostOrDefault returns the boost flag, defaulting to true.
func (r *AgentRequest) BoostOrDefault() bool {
	if r.UseBoostPrompt == nil {
		return true
	}
	return *r.UseBoostPrompt
}

func validateTargetURL(raw string) error {
	if raw == "" {
		return fmt.Errorf("url is required")
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("url must start with http:// or https://")
	}
	if parsed.Host == "" {
		return fmt.Errorf("url must have a valid domain")
	}
	return nil
}

// AgentEvent is the SSE payload streamed from /api/agent.
type AgentEvent struct {
	Type       string    `json:"type"`
	Message    string    `json:"message,omitempty"`
	Screenshot string    `json:"screenshot,omitempty"`
	Code       string    `json:"code,omitempty"`
	SessionID  string    `json:"session_id,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

func newAgentEvent(eventType, message string) AgentEvent {
	return AgentEvent{Type: eventType, Message: message, Timestamp: time.Now().UTC()}
}

// errorResponse is the JSON body for non-SSE error replies.
type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Error: code, Message: message})
}
