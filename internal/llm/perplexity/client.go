// Package perplexity implements the llm.Client interface on the
// Perplexity chat completions API. Perplexity speaks the OpenAI wire
// format but has no native function calling, so tool use goes through
// the text protocol: tool definitions are injected into the system
// message and calls are parsed back out of the completion text.
package perplexity

import (
	"context"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/aadhiVenkat/Automation-web-agent-ui/internal/llm"
)

const (
	// BaseURL is the Perplexity OpenAI-compatible endpoint.
	BaseURL = "https://api.perplexity.ai"

	// DefaultModel is Perplexity's standard online model.
	DefaultModel = "sonar"
)

func init() {
	llm.RegisterProvider(llm.ProviderPerplexity, func(apiKey, model string) (llm.Client, error) {
		return New(apiKey, model)
	})
}

// Client talks to the Perplexity API.
type Client struct {
	api     *openai.Client
	model   string
	backoff llm.BackoffPolicy
}

// New creates a Perplexity client.
func New(apiKey, model string) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("perplexity: API key is required")
	}
	if model == "" {
		model = DefaultModel
	}
	config := openai.DefaultConfig(apiKey)
	config.BaseURL = BaseURL
	return &Client{
		api:     openai.NewClientWithConfig(config),
		model:   model,
		backoff: llm.DefaultBackoff(),
	}, nil
}

// Chat implements llm.Client.
func (c *Client) Chat(ctx context.Context, messages []llm.Message, tools []llm.ToolDefinition, opts llm.ChatOptions) (llm.Response, error) {
	converted := ConvertMessages(messages)
	if len(tools) > 0 {
		converted = injectToolsPrompt(converted, llm.FormatToolsPrompt(tools))
	}

	maxTokens := opts.MaxTokens
	if maxTokens == 0 {
		maxTokens = 4096
	}
	req := openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    converted,
		Temperature: opts.Temperature,
		MaxTokens:   maxTokens,
	}

	return llm.WithRetry(ctx, c.backoff, "perplexity", func(attempt int) (llm.Response, error) {
		resp, err := c.api.CreateChatCompletion(ctx, req)
		if err != nil {
			return llm.Response{}, classifyError(err)
		}
		return parseResponse(resp, len(tools) > 0), nil
	})
}

// Close implements llm.Client.
func (c *Client) Close() error { return nil }

// ConvertMessages maps the neutral message list to Perplexity's format.
// Tool results are merged into user turns, assistant tool calls are
// re-serialized as protocol text, and the result is forced into strict
// user/assistant alternation ending on a user message.
func ConvertMessages(messages []llm.Message) []openai.ChatCompletionMessage {
	var converted []openai.ChatCompletionMessage
	var pendingToolResults []string

	flushPending := func() {
		if len(pendingToolResults) > 0 {
			converted = append(converted, openai.ChatCompletionMessage{
				Role:    openai.ChatMessageRoleUser,
				Content: strings.Join(pendingToolResults, "\n\n"),
			})
			pendingToolResults = nil
		}
	}

	for _, msg := range messages {
		content := msg.Content
		if len(content) > llm.MaxContentChars {
			content = llm.TruncateToTokens(content, llm.MaxContentChars/llm.CharsPerToken)
		}

		switch msg.Role {
		case llm.RoleSystem:
			converted = append(converted, openai.ChatCompletionMessage{
				Role:    openai.ChatMessageRoleSystem,
				Content: content,
			})

		case llm.RoleTool:
			toolContent := msg.Content
			if len(toolContent) > llm.MaxToolResultChars {
				toolContent = llm.TruncateToTokens(toolContent, llm.MaxToolResultChars/llm.CharsPerToken)
			}
			pendingToolResults = append(pendingToolResults, fmt.Sprintf("Tool '%s': %s", msg.Name, toolContent))

		case llm.RoleAssistant:
			flushPending()
			if len(msg.ToolCalls) > 0 {
				var sb strings.Builder
				sb.WriteString(content)
				if content != "" {
					sb.WriteString("\n\n")
				}
				sb.WriteString("Using tools:\n")
				for _, tc := range msg.ToolCalls {
					sb.WriteString(fmt.Sprintf("TOOL_CALL: %s\nARGUMENTS: %s\n", tc.Name, llm.CanonicalArgs(tc.Arguments)))
				}
				content = sb.String()
			}
			converted = append(converted, openai.ChatCompletionMessage{
				Role:    openai.ChatMessageRoleAssistant,
				Content: content,
			})

		case llm.RoleUser:
			if len(pendingToolResults) > 0 {
				content = strings.Join(pendingToolResults, "\n\n") + "\n\n" + content
				pendingToolResults = nil
			}
			converted = append(converted, openai.ChatCompletionMessage{
				Role:    openai.ChatMessageRoleUser,
				Content: content,
			})
		}
	}
	flushPending()

	// Merge consecutive same-role messages before enforcing alternation.
	var merged []openai.ChatCompletionMessage
	for _, msg := range converted {
		if len(merged) > 0 && merged[len(merged)-1].Role == msg.Role && msg.Role != openai.ChatMessageRoleSystem {
			merged[len(merged)-1].Content += "\n\n" + msg.Content
		} else {
			merged = append(merged, msg)
		}
	}

	final := enforceAlternation(merged)

	totalChars := 0
	for _, m := range final {
		totalChars += len(m.Content)
	}
	if totalChars > llm.MaxInputTokens*llm.CharsPerToken {
		final = truncateConversation(final, llm.MaxInputTokens)
	}
	return final
}

// enforceAlternation rebuilds the conversation so that, after any system
// messages, roles strictly alternate starting and ending with user.
// Misplaced messages get merged with a same-role predecessor or padded
// with a short placeholder turn.
func enforceAlternation(messages []openai.ChatCompletionMessage) []openai.ChatCompletionMessage {
	if len(messages) == 0 {
		return messages
	}

	var systemMsgs, convMsgs []openai.ChatCompletionMessage
	for _, m := range messages {
		if m.Role == openai.ChatMessageRoleSystem {
			systemMsgs = append(systemMsgs, m)
		} else {
			convMsgs = append(convMsgs, m)
		}
	}
	if len(convMsgs) == 0 {
		return systemMsgs
	}

	var result []openai.ChatCompletionMessage
	expected := openai.ChatMessageRoleUser

	for _, msg := range convMsgs {
		switch {
		case msg.Role == expected:
			result = append(result, msg)
			expected = flip(expected)

		case len(result) > 0 && result[len(result)-1].Role == msg.Role:
			result[len(result)-1].Content += "\n\n" + msg.Content

		case len(result) == 0:
			if msg.Role == openai.ChatMessageRoleAssistant {
				result = append(result,
					openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: "Continue with the task."},
					msg)
				expected = openai.ChatMessageRoleUser
			}

		default:
			if expected == openai.ChatMessageRoleUser && msg.Role == openai.ChatMessageRoleAssistant {
				result = append(result, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: "Acknowledged. Continue."})
			} else if expected == openai.ChatMessageRoleAssistant && msg.Role == openai.ChatMessageRoleUser {
				result = append(result, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: "Understood."})
			}
			result = append(result, msg)
			expected = flip(msg.Role)
		}
	}

	// The model needs a user turn to respond to.
	if len(result) > 0 && result[len(result)-1].Role == openai.ChatMessageRoleAssistant {
		result = append(result, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: "Please continue with the next action."})
	}

	return append(systemMsgs, result...)
}

func flip(role string) string {
	if role == openai.ChatMessageRoleUser {
		return openai.ChatMessageRoleAssistant
	}
	return openai.ChatMessageRoleUser
}

func truncateConversation(messages []openai.ChatCompletionMessage, maxTokens int) []openai.ChatCompletionMessage {
	neutral := make([]llm.Message, len(messages))
	for i, m := range messages {
		neutral[i] = llm.Message{Role: m.Role, Content: m.Content}
	}
	kept := llm.TruncateConversation(neutral, maxTokens)
	out := make([]openai.ChatCompletionMessage, len(kept))
	for i, m := range kept {
		out[i] = openai.ChatCompletionMessage{Role: m.Role, Content: m.Content}
	}
	return out
}

func injectToolsPrompt(messages []openai.ChatCompletionMessage, toolsPrompt string) []openai.ChatCompletionMessage {
	found := false
	for i := range messages {
		if messages[i].Role == openai.ChatMessageRoleSystem {
			messages[i].Content += "\n\n" + toolsPrompt
			found = true
		}
	}
	if !found {
		messages = append([]openai.ChatCompletionMessage{{
			Role:    openai.ChatMessageRoleSystem,
			Content: toolsPrompt,
		}}, messages...)
	}
	return messages
}

func parseResponse(resp openai.ChatCompletionResponse, hasTools bool) llm.Response {
	if len(resp.Choices) == 0 {
		return llm.Response{FinishReason: "error"}
	}
	choice := resp.Choices[0]
	content := choice.Message.Content

	out := llm.Response{
		Content:      content,
		FinishReason: string(choice.FinishReason),
		Usage: llm.Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	}
	if out.FinishReason == "" {
		out.FinishReason = "stop"
	}
	if hasTools && content != "" && llm.HasToolCallMarkers(content) {
		if calls := llm.ExtractToolCalls(content); len(calls) > 0 {
			out.ToolCalls = calls
			out.FinishReason = "tool_calls"
		}
	}
	return out
}

// classifyError maps API failures to user-facing messages.
func classifyError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
		case 400:
			return llm.Permanent(fmt.Errorf("perplexity API error: %s", apiErr.Message))
		case 401:
			return llm.Permanent(fmt.Errorf("invalid Perplexity API key. Please provide a valid key from https://www.perplexity.ai/settings/api"))
		case 403:
			return llm.Permanent(fmt.Errorf("perplexity API key does not have access. Check your subscription"))
		case 429:
			return fmt.Errorf("perplexity rate limit exceeded (429): %s", apiErr.Message)
		}
	}
	return fmt.Errorf("perplexity request failed: %w", err)
}
