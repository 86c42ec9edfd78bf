package hf

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aadhiVenkat/Automation-web-agent-ui/internal/llm"
)

func TestFormatPromptMistralTemplate(t *testing.T) {
	messages := []llm.Message{
		{Role: llm.RoleSystem, Content: "You are an agent."},
		{Role: llm.RoleUser, Content: "Open example.com"},
		{Role: llm.RoleAssistant, Content: "Navigating.", ToolCalls: []llm.ToolCall{
			{ID: "1", Name: "navigate", Arguments: map[string]any{"url": "https://example.com"}},
		}},
		{Role: llm.RoleTool, Name: "navigate", Content: `{"success": true}`},
	}
	prompt := FormatPrompt(messages, nil)

	if !strings.HasPrefix(prompt, "<s>[INST] You are an agent.\n\nOpen example.com [/INST]") {
		t.Errorf("first turn wrong: %q", prompt[:80])
	}
	if !strings.Contains(prompt, "TOOL_CALL: navigate") {
		t.Error("assistant tool call not serialized")
	}
	if !strings.Contains(prompt, "</s>") {
		t.Error("assistant turn not closed")
	}
	if !strings.Contains(prompt, "[INST] Tool 'navigate' returned:") {
		t.Error("tool result turn missing")
	}
}

func TestFormatPromptInjectsTools(t *testing.T) {
	params, _ := json.Marshal(map[string]any{
		"type": "object",
		"properties": map[string]any{
			"url": map[string]any{"type": "string", "description": "Target URL"},
		},
		"required": []string{"url"},
	})
	messages := []llm.Message{{Role: llm.RoleUser, Content: "go"}}
	prompt := FormatPrompt(messages, []llm.ToolDefinition{{
		Name: "navigate", Description: "Navigate to a URL", Parameters: params,
	}})

	for _, want := range []string{"TOOL_CALL: tool_name", "- navigate: Navigate to a URL", "url (required): Target URL"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestFormatPromptToolParametersAreOrdered(t *testing.T) {
	params, _ := json.Marshal(map[string]any{
		"type": "object",
		"properties": map[string]any{
			"selector": map[string]any{"type": "string", "description": "CSS selector"},
			"force":    map[string]any{"type": "boolean", "description": "Skip pointer click"},
			"amount":   map[string]any{"type": "integer", "description": "Pixels"},
		},
		"required": []string{"selector"},
	})
	tools := []llm.ToolDefinition{{Name: "click", Description: "Click", Parameters: params}}
	messages := []llm.Message{{Role: llm.RoleUser, Content: "go"}}

	first := FormatPrompt(messages, tools)
	for i := 0; i < 10; i++ {
		if got := FormatPrompt(messages, tools); got != first {
			t.Fatal("prompt differs between runs")
		}
	}
	amount := strings.Index(first, "- amount")
	force := strings.Index(first, "- force")
	selector := strings.Index(first, "- selector (required)")
	if amount == -1 || force == -1 || selector == -1 || !(amount < force && force < selector) {
		t.Errorf("parameters not sorted: amount=%d force=%d selector=%d", amount, force, selector)
	}
}

func TestChatParsesToolCalls(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer hf-test" {
			t.Errorf("auth header = %q", got)
		}
		var req inferenceRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Parameters.ReturnFullText {
			t.Error("return_full_text should be false")
		}
		json.NewEncoder(w).Encode([]inferenceResponse{{
			GeneratedText: "TOOL_CALL: click\nARGUMENTS: {\"selector\": \"#go\"}",
		}})
	}))
	defer server.Close()

	c, err := New("hf-test", "")
	if err != nil {
		t.Fatal(err)
	}
	c.baseURL = server.URL

	params, _ := json.Marshal(map[string]any{"type": "object", "properties": map[string]any{}})
	resp, err := c.Chat(context.Background(), []llm.Message{{Role: llm.RoleUser, Content: "go"}},
		[]llm.ToolDefinition{{Name: "click", Description: "Click", Parameters: params}}, llm.ChatOptions{})
	if err != nil {
		t.Fatalf("chat: %v", err)
	}
	if len(resp.ToolCalls) != 1 || resp.ToolCalls[0].Name != "click" {
		t.Fatalf("tool calls = %+v", resp.ToolCalls)
	}
	if resp.FinishReason != "tool_calls" {
		t.Errorf("finish reason = %s", resp.FinishReason)
	}
}

func TestChatModelLoading503IsRetried(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			json.NewEncoder(w).Encode(map[string]any{"error": "Model is loading", "estimated_time": 20.0})
			return
		}
		json.NewEncoder(w).Encode(inferenceResponse{GeneratedText: "done"})
	}))
	defer server.Close()

	c, err := New("hf-test", "")
	if err != nil {
		t.Fatal(err)
	}
	c.baseURL = server.URL
	c.backoff = llm.BackoffPolicy{InitialMs: 1, MaxMs: 2, Factor: 2, Jitter: 0, MaxAttempts: 3}

	resp, err := c.Chat(context.Background(), []llm.Message{{Role: llm.RoleUser, Content: "go"}}, nil, llm.ChatOptions{})
	if err != nil {
		t.Fatalf("chat: %v", err)
	}
	if resp.Content != "done" || calls != 2 {
		t.Errorf("content = %q after %d calls", resp.Content, calls)
	}
}

func TestChatInvalidTokenIsPermanent(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	c, err := New("bad-token", "")
	if err != nil {
		t.Fatal(err)
	}
	c.baseURL = server.URL
	c.backoff = llm.BackoffPolicy{InitialMs: 1, MaxMs: 2, Factor: 2, Jitter: 0, MaxAttempts: 3}

	_, err = c.Chat(context.Background(), []llm.Message{{Role: llm.RoleUser, Content: "go"}}, nil, llm.ChatOptions{})
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "huggingface.co/settings/tokens") {
		t.Errorf("err = %v", err)
	}
	if calls != 1 {
		t.Errorf("401 was retried %d times", calls)
	}
}
