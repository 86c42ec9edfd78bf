package llm

// Token budgeting uses a rough 4-chars-per-token estimate. The Perplexity
// context limit is 200k tokens; the input cap stays far below that so tool
// results and page dumps cannot push a conversation over the edge.
const (
	CharsPerToken      = 4
	MaxInputTokens     = 80000
	MaxToolResultChars = 15000 // ~3.75k tokens per tool result
	MaxContentChars    = 20000 // ~5k tokens per message
)

// EstimateTokens approximates the token count of text.
func EstimateTokens(text string) int {
	return len(text) / CharsPerToken
}

// TruncateToTokens cuts text to approximately maxTokens, appending a marker
// when anything was dropped.
func TruncateToTokens(text string, maxTokens int) string {
	maxChars := maxTokens * CharsPerToken
	if len(text) <= maxChars {
		return text
	}
	return text[:maxChars] + "\n... [truncated due to length]"
}

// TruncateConversation drops oldest non-system messages until the estimated
// token total fits maxTokens. System messages always survive; the newest
// message survives even if it must itself be truncated.
func TruncateConversation(messages []Message, maxTokens int) []Message {
	if len(messages) == 0 {
		return messages
	}

	var systemMsgs, convMsgs []Message
	for _, m := range messages {
		if m.Role == RoleSystem {
			systemMsgs = append(systemMsgs, m)
		} else {
			convMsgs = append(convMsgs, m)
		}
	}

	systemTokens := 0
	for _, m := range systemMsgs {
		systemTokens += EstimateTokens(m.Content)
	}
	available := maxTokens - systemTokens - 5000 // leave headroom for the reply

	var kept []Message
	current := 0
	for i := len(convMsgs) - 1; i >= 0; i-- {
		msg := convMsgs[i]
		msgTokens := EstimateTokens(msg.Content)
		if current+msgTokens <= available {
			kept = append([]Message{msg}, kept...)
			current += msgTokens
			continue
		}
		if len(kept) == 0 && msgTokens > 10000 {
			msg.Content = TruncateToTokens(msg.Content, available-1000)
			kept = []Message{msg}
		}
		break
	}

	return append(systemMsgs, kept...)
}
