// Package gemini implements the llm.Client interface on the Google
// Gemini API using native function calling.
package gemini

import (
	"context"
	"fmt"
	"log"
	"strings"

	"google.golang.org/genai"

	"github.com/aadhiVenkat/Automation-web-agent-ui/internal/llm"
	"github.com/google/uuid"
)

// DefaultModel is used when no model override is given.
const DefaultModel = "gemini-2.0-flash"

func init() {
	llm.RegisterProvider(llm.ProviderGemini, func(apiKey, model string) (llm.Client, error) {
		return New(context.Background(), apiKey, model)
	})
}

// Client talks to the Gemini API.
type Client struct {
	genai   *genai.Client
	model   string
	backoff llm.BackoffPolicy
}

// New creates a Gemini client. The key is validated lazily on first call.
func New(ctx context.Context, apiKey, model string) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini: API key is required")
	}
	if model == "" {
		model = DefaultModel
	}
	gc, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}
	return &Client{genai: gc, model: model, backoff: llm.DefaultBackoff()}, nil
}

// Chat implements llm.Client.
func (c *Client) Chat(ctx context.Context, messages []llm.Message, tools []llm.ToolDefinition, opts llm.ChatOptions) (llm.Response, error) {
	contents, system := convertMessages(messages)
	config := c.buildConfig(system, tools, opts)

	return llm.WithRetry(ctx, c.backoff, "gemini", func(attempt int) (llm.Response, error) {
		resp, err := c.genai.Models.GenerateContent(ctx, c.model, contents, config)
		if err != nil {
			return llm.Response{}, classifyError(err)
		}
		return parseResponse(resp), nil
	})
}

// Close implements llm.Client. The genai client holds no connections that
// need explicit teardown.
func (c *Client) Close() error { return nil }

func (c *Client) buildConfig(system string, tools []llm.ToolDefinition, opts llm.ChatOptions) *genai.GenerateContentConfig {
	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(opts.Temperature),
	}
	if opts.MaxTokens > 0 {
		config.MaxOutputTokens = int32(opts.MaxTokens)
	}
	// Pin the seed at near-zero temperature so identical conversations
	// produce identical action sequences.
	if opts.Temperature < 0.1 {
		config.Seed = genai.Ptr(int32(42))
	}
	if system != "" {
		config.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: system}},
		}
	}
	if len(tools) > 0 {
		decls := make([]*genai.FunctionDeclaration, 0, len(tools))
		for _, t := range tools {
			schema, err := toGeminiSchema(t.Parameters)
			if err != nil {
				log.Printf("[Gemini] skipping tool %s: bad schema: %v", t.Name, err)
				continue
			}
			decls = append(decls, &genai.FunctionDeclaration{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  schema,
			})
		}
		config.Tools = []*genai.Tool{{FunctionDeclarations: decls}}
	}
	return config
}

// convertMessages maps the neutral message list to genai contents. System
// messages are pulled out for the systemInstruction field; tool results
// become functionResponse parts on user turns.
func convertMessages(messages []llm.Message) ([]*genai.Content, string) {
	var system strings.Builder
	var contents []*genai.Content

	for _, msg := range messages {
		switch msg.Role {
		case llm.RoleSystem:
			if system.Len() > 0 {
				system.WriteString("\n\n")
			}
			system.WriteString(msg.Content)

		case llm.RoleUser:
			contents = append(contents, &genai.Content{
				Role:  genai.RoleUser,
				Parts: []*genai.Part{{Text: msg.Content}},
			})

		case llm.RoleAssistant:
			var parts []*genai.Part
			if msg.Content != "" {
				parts = append(parts, &genai.Part{Text: msg.Content})
			}
			for _, tc := range msg.ToolCalls {
				parts = append(parts, &genai.Part{
					FunctionCall: &genai.FunctionCall{
						Name: tc.Name,
						Args: tc.Arguments,
					},
				})
			}
			if len(parts) == 0 {
				parts = []*genai.Part{{Text: ""}}
			}
			contents = append(contents, &genai.Content{
				Role:  genai.RoleModel,
				Parts: parts,
			})

		case llm.RoleTool:
			contents = append(contents, &genai.Content{
				Role: genai.RoleUser,
				Parts: []*genai.Part{{
					FunctionResponse: &genai.FunctionResponse{
						Name:     msg.Name,
						Response: map[string]any{"result": msg.Content},
					},
				}},
			})
		}
	}
	return contents, system.String()
}

func parseResponse(resp *genai.GenerateContentResponse) llm.Response {
	out := llm.Response{FinishReason: "stop"}
	if resp == nil || len(resp.Candidates) == 0 {
		return out
	}

	candidate := resp.Candidates[0]
	if candidate.Content != nil {
		var text strings.Builder
		for _, part := range candidate.Content.Parts {
			if part.Text != "" {
				text.WriteString(part.Text)
			}
			if part.FunctionCall != nil {
				out.ToolCalls = append(out.ToolCalls, llm.ToolCall{
					ID:        uuid.NewString(),
					Name:      part.FunctionCall.Name,
					Arguments: part.FunctionCall.Args,
				})
			}
		}
		out.Content = text.String()
	}
	if len(out.ToolCalls) > 0 {
		out.FinishReason = "tool_calls"
	} else if candidate.FinishReason == genai.FinishReasonMaxTokens {
		out.FinishReason = "length"
	}

	if resp.UsageMetadata != nil {
		out.Usage = llm.Usage{
			PromptTokens:     int(resp.UsageMetadata.PromptTokenCount),
			CompletionTokens: int(resp.UsageMetadata.CandidatesTokenCount),
			TotalTokens:      int(resp.UsageMetadata.TotalTokenCount),
		}
	}
	return out
}

// classifyError maps API failures to user-facing messages. Auth and bad
// request errors are permanent; everything else stays retryable.
func classifyError(err error) error {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "400"):
		return llm.Permanent(fmt.Errorf("gemini API error: %s", msg))
	case strings.Contains(msg, "401"), strings.Contains(strings.ToLower(msg), "api key not valid"):
		return llm.Permanent(fmt.Errorf("invalid Gemini API key. Get one at https://aistudio.google.com/apikey"))
	case strings.Contains(msg, "403"):
		return llm.Permanent(fmt.Errorf("gemini API access denied. Check that your key has access to the model"))
	case strings.Contains(msg, "404"):
		return llm.Permanent(fmt.Errorf("gemini model not found: %s", msg))
	}
	return fmt.Errorf("gemini request failed: %w", err)
}
