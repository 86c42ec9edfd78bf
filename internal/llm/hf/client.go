// Package hf implements the llm.Client interface on the Hugging Face
// Inference API. The API takes a single prompt string, so conversations
// are flattened into the Mistral/Llama instruction format and tool calls
// go through the text protocol.
package hf

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/aadhiVenkat/Automation-web-agent-ui/internal/llm"
)

const (
	// BaseURL is the hosted inference endpoint prefix; the model name is
	// appended as a path segment.
	BaseURL = "https://api-inference.huggingface.co/models"

	// DefaultModel is a small instruction-tuned model available on the
	// free inference tier.
	DefaultModel = "mistralai/Mistral-7B-Instruct-v0.3"

	requestTimeout = 120 * time.Second
)

func init() {
	llm.RegisterProvider(llm.ProviderHF, func(apiKey, model string) (llm.Client, error) {
		return New(apiKey, model)
	})
}

// Client talks to the Hugging Face Inference API.
type Client struct {
	apiKey  string
	model   string
	http    *http.Client
	baseURL string
	backoff llm.BackoffPolicy
}

// New creates a Hugging Face client.
func New(apiKey, model string) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("hf: API token is required")
	}
	if model == "" {
		model = DefaultModel
	}
	return &Client{
		apiKey:  apiKey,
		model:   model,
		http:    &http.Client{Timeout: requestTimeout},
		baseURL: BaseURL,
		backoff: llm.DefaultBackoff(),
	}, nil
}

type inferenceRequest struct {
	Inputs     string              `json:"inputs"`
	Parameters inferenceParameters `json:"parameters"`
}

type inferenceParameters struct {
	Temperature    float32 `json:"temperature"`
	MaxNewTokens   int     `json:"max_new_tokens"`
	ReturnFullText bool    `json:"return_full_text"`
	DoSample       bool    `json:"do_sample"`
}

type inferenceResponse struct {
	GeneratedText string `json:"generated_text"`
}

type inferenceError struct {
	Error         string  `json:"error"`
	EstimatedTime float64 `json:"estimated_time"`
}

// Chat implements llm.Client.
func (c *Client) Chat(ctx context.Context, messages []llm.Message, tools []llm.ToolDefinition, opts llm.ChatOptions) (llm.Response, error) {
	maxTokens := opts.MaxTokens
	if maxTokens == 0 {
		maxTokens = 4096
	}
	payload := inferenceRequest{
		Inputs: FormatPrompt(messages, tools),
		Parameters: inferenceParameters{
			Temperature:    opts.Temperature,
			MaxNewTokens:   maxTokens,
			ReturnFullText: false,
			DoSample:       opts.Temperature > 0,
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return llm.Response{}, fmt.Errorf("hf: encode request: %w", err)
	}

	return llm.WithRetry(ctx, c.backoff, "huggingface", func(attempt int) (llm.Response, error) {
		return c.doRequest(ctx, body, len(tools) > 0)
	})
}

func (c *Client) doRequest(ctx context.Context, body []byte, hasTools bool) (llm.Response, error) {
	url := fmt.Sprintf("%s/%s", c.baseURL, c.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return llm.Response{}, fmt.Errorf("hf: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return llm.Response{}, fmt.Errorf("hf: request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return llm.Response{}, fmt.Errorf("hf: read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return llm.Response{}, c.statusError(resp.StatusCode, data)
	}
	return parseResponse(data, hasTools)
}

func (c *Client) statusError(status int, body []byte) error {
	var apiErr inferenceError
	_ = json.Unmarshal(body, &apiErr)

	switch status {
	case http.StatusBadRequest:
		msg := apiErr.Error
		if msg == "" {
			msg = "Bad request"
		}
		return llm.Permanent(fmt.Errorf("huggingFace API error: %s", msg))
	case http.StatusUnauthorized:
		return llm.Permanent(fmt.Errorf("invalid HuggingFace API token. Get one at https://huggingface.co/settings/tokens"))
	case http.StatusForbidden:
		return llm.Permanent(fmt.Errorf("access denied. This model may require accepting terms at huggingface.co or a Pro subscription"))
	case http.StatusNotFound:
		return llm.Permanent(fmt.Errorf("model '%s' not found. Check the model name or try '%s'", c.model, DefaultModel))
	case http.StatusTooManyRequests:
		return fmt.Errorf("huggingFace rate limit exceeded (429). Please wait and try again")
	case http.StatusServiceUnavailable:
		// Cold models return 503 while they spin up; the retry loop
		// covers the wait.
		return fmt.Errorf("model is loading (503). Estimated time: %.0fs. Please retry shortly", apiErr.EstimatedTime)
	}
	return fmt.Errorf("huggingFace request failed with status %d: %s", status, strings.TrimSpace(string(body)))
}

// FormatPrompt flattens a conversation into the Mistral instruction format:
//
//	<s>[INST] system + first user [/INST] assistant</s>[INST] next user [/INST]
//
// Tool results are rendered as instruction turns, assistant tool calls as
// protocol text.
func FormatPrompt(messages []llm.Message, tools []llm.ToolDefinition) string {
	var system string
	for _, msg := range messages {
		if msg.Role == llm.RoleSystem {
			system = msg.Content
			break
		}
	}
	if len(tools) > 0 {
		toolsPrompt := formatToolsPrompt(tools)
		if system != "" {
			system = system + "\n\n" + toolsPrompt
		} else {
			system = toolsPrompt
		}
	}

	var parts []string
	firstUser := true
	for _, msg := range messages {
		switch msg.Role {
		case llm.RoleSystem:
			continue

		case llm.RoleUser:
			if firstUser {
				firstUser = false
				if system != "" {
					parts = append(parts, fmt.Sprintf("<s>[INST] %s\n\n%s [/INST]", system, msg.Content))
				} else {
					parts = append(parts, fmt.Sprintf("<s>[INST] %s [/INST]", msg.Content))
				}
			} else {
				parts = append(parts, fmt.Sprintf("[INST] %s [/INST]", msg.Content))
			}

		case llm.RoleAssistant:
			text := msg.Content
			for _, tc := range msg.ToolCalls {
				text += fmt.Sprintf("\nTOOL_CALL: %s\nARGUMENTS: %s", tc.Name, llm.CanonicalArgs(tc.Arguments))
			}
			parts = append(parts, text+"</s>")

		case llm.RoleTool:
			parts = append(parts, fmt.Sprintf("[INST] Tool '%s' returned: %s [/INST]", msg.Name, msg.Content))
		}
	}
	return strings.Join(parts, "")
}

// formatToolsPrompt is a compact variant of the protocol instructions sized
// for small instruction-tuned models.
func formatToolsPrompt(tools []llm.ToolDefinition) string {
	var sb strings.Builder
	sb.WriteString("You have access to browser automation tools. To use a tool, respond with:\n")
	sb.WriteString("TOOL_CALL: tool_name\n")
	sb.WriteString("ARGUMENTS: {\"param\": \"value\"}\n\n")
	sb.WriteString("Available tools:\n")

	for _, t := range tools {
		sb.WriteString(fmt.Sprintf("\n- %s: %s\n", t.Name, t.Description))
		var schema struct {
			Properties map[string]struct {
				Type        string `json:"type"`
				Description string `json:"description"`
			} `json:"properties"`
			Required []string `json:"required"`
		}
		if err := json.Unmarshal(t.Parameters, &schema); err != nil {
			continue
		}
		required := make(map[string]bool, len(schema.Required))
		for _, r := range schema.Required {
			required[r] = true
		}
		names := make([]string, 0, len(schema.Properties))
		for name := range schema.Properties {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			info := schema.Properties[name]
			req := ""
			if required[name] {
				req = " (required)"
			}
			desc := info.Description
			if desc == "" {
				desc = info.Type
			}
			sb.WriteString(fmt.Sprintf("  - %s%s: %s\n", name, req, desc))
		}
	}
	sb.WriteString("\nAnalyze the task, then use TOOL_CALL to perform actions.")
	return sb.String()
}

func parseResponse(data []byte, hasTools bool) (llm.Response, error) {
	// The API returns either a bare object or a one-element array.
	var single inferenceResponse
	if err := json.Unmarshal(data, &single); err != nil {
		var list []inferenceResponse
		if err := json.Unmarshal(data, &list); err != nil || len(list) == 0 {
			return llm.Response{}, fmt.Errorf("hf: unexpected response: %s", strings.TrimSpace(string(data)))
		}
		single = list[0]
	}

	out := llm.Response{Content: single.GeneratedText, FinishReason: "stop"}
	if hasTools && strings.Contains(single.GeneratedText, "TOOL_CALL:") {
		if calls := llm.ExtractToolCalls(single.GeneratedText); len(calls) > 0 {
			out.ToolCalls = calls
			out.FinishReason = "tool_calls"
		}
	}
	return out, nil
}

// Close implements llm.Client.
func (c *Client) Close() error { return nil }
