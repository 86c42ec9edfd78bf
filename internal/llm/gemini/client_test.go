package gemini

import (
	"encoding/json"
	"errors"
	"testing"

	"google.golang.org/genai"

	"github.com/aadhiVenkat/Automation-web-agent-ui/internal/llm"
)

func TestConvertMessagesRolesAndSystem(t *testing.T) {
	messages := []llm.Message{
		{Role: llm.RoleSystem, Content: "You are an agent."},
		{Role: llm.RoleUser, Content: "Open example.com"},
		{Role: llm.RoleAssistant, ToolCalls: []llm.ToolCall{
			{ID: "1", Name: "navigate", Arguments: map[string]any{"url": "https://example.com"}},
		}},
		{Role: llm.RoleTool, Name: "navigate", Content: `{"success": true}`},
	}
	contents, system := convertMessages(messages)

	if system != "You are an agent." {
		t.Errorf("system = %q", system)
	}
	if len(contents) != 3 {
		t.Fatalf("len(contents) = %d, want 3", len(contents))
	}
	if contents[0].Role != genai.RoleUser {
		t.Errorf("contents[0].Role = %s", contents[0].Role)
	}
	if contents[1].Role != genai.RoleModel {
		t.Errorf("contents[1].Role = %s", contents[1].Role)
	}
	fc := contents[1].Parts[0].FunctionCall
	if fc == nil || fc.Name != "navigate" {
		t.Fatalf("function call part = %+v", contents[1].Parts[0])
	}
	fr := contents[2].Parts[0].FunctionResponse
	if fr == nil || fr.Name != "navigate" {
		t.Fatalf("function response part = %+v", contents[2].Parts[0])
	}
	if contents[2].Role != genai.RoleUser {
		t.Errorf("tool result role = %s, want user", contents[2].Role)
	}
}

func TestBuildConfigSeedsAtLowTemperature(t *testing.T) {
	c := &Client{model: DefaultModel}

	config := c.buildConfig("sys", nil, llm.ChatOptions{Temperature: 0.0, MaxTokens: 2048})
	if config.Seed == nil || *config.Seed != 42 {
		t.Errorf("seed = %v, want 42 at temperature 0", config.Seed)
	}
	if config.MaxOutputTokens != 2048 {
		t.Errorf("max tokens = %d", config.MaxOutputTokens)
	}
	if config.SystemInstruction == nil || config.SystemInstruction.Parts[0].Text != "sys" {
		t.Error("system instruction not set")
	}

	config = c.buildConfig("", nil, llm.ChatOptions{Temperature: 0.7})
	if config.Seed != nil {
		t.Errorf("seed = %v, want nil at temperature 0.7", *config.Seed)
	}
}

func TestToGeminiSchema(t *testing.T) {
	raw, _ := json.Marshal(map[string]any{
		"type": "object",
		"properties": map[string]any{
			"direction": map[string]any{
				"type":        "string",
				"description": "Scroll direction",
				"enum":        []string{"up", "down"},
			},
			"amount": map[string]any{"type": "integer"},
			"tags": map[string]any{
				"type":  "array",
				"items": map[string]any{"type": "string"},
			},
		},
		"required": []string{"direction"},
	})
	schema, err := toGeminiSchema(raw)
	if err != nil {
		t.Fatal(err)
	}
	if schema.Type != genai.TypeObject {
		t.Errorf("type = %s", schema.Type)
	}
	dir := schema.Properties["direction"]
	if dir == nil || dir.Type != genai.TypeString || len(dir.Enum) != 2 {
		t.Fatalf("direction schema = %+v", dir)
	}
	if schema.Properties["amount"].Type != genai.TypeInteger {
		t.Errorf("amount type = %s", schema.Properties["amount"].Type)
	}
	tags := schema.Properties["tags"]
	if tags.Type != genai.TypeArray || tags.Items == nil || tags.Items.Type != genai.TypeString {
		t.Fatalf("tags schema = %+v", tags)
	}
	if len(schema.Required) != 1 || schema.Required[0] != "direction" {
		t.Errorf("required = %v", schema.Required)
	}
}

func TestParseResponseFunctionCalls(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{
				Role: genai.RoleModel,
				Parts: []*genai.Part{
					{Text: "Clicking the button."},
					{FunctionCall: &genai.FunctionCall{Name: "click", Args: map[string]any{"selector": "#go"}}},
				},
			},
			FinishReason: genai.FinishReasonStop,
		}},
	}
	out := parseResponse(resp)
	if out.Content != "Clicking the button." {
		t.Errorf("content = %q", out.Content)
	}
	if len(out.ToolCalls) != 1 || out.ToolCalls[0].Name != "click" {
		t.Fatalf("tool calls = %+v", out.ToolCalls)
	}
	if out.FinishReason != "tool_calls" {
		t.Errorf("finish reason = %s", out.FinishReason)
	}
}

func TestClassifyErrorAuthIsPermanent(t *testing.T) {
	err := classifyError(errors.New("401: API key not valid"))
	if llm.IsRetryable(err) {
		t.Error("invalid key error should not be retryable")
	}
	err = classifyError(errors.New("503 service unavailable"))
	if !llm.IsRetryable(err) {
		t.Error("503 error should be retryable")
	}
}
