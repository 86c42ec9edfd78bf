package llm

import (
	"strings"
	"testing"
)

func TestTruncateToTokens(t *testing.T) {
	text := strings.Repeat("a", 100)
	if got := TruncateToTokens(text, 100); got != text {
		t.Error("text under the limit should pass through unchanged")
	}

	got := TruncateToTokens(text, 10)
	if !strings.HasPrefix(got, strings.Repeat("a", 40)) {
		t.Errorf("truncated prefix wrong: %q", got[:50])
	}
	if !strings.HasSuffix(got, "[truncated due to length]") {
		t.Errorf("missing truncation marker: %q", got)
	}
}

func TestTruncateConversationKeepsSystemAndNewest(t *testing.T) {
	messages := []Message{
		{Role: RoleSystem, Content: "system prompt"},
		{Role: RoleUser, Content: strings.Repeat("old ", 50000)},
		{Role: RoleAssistant, Content: "middle"},
		{Role: RoleUser, Content: "newest question"},
	}
	kept := TruncateConversation(messages, 10000)

	if kept[0].Role != RoleSystem {
		t.Fatal("system message must survive")
	}
	last := kept[len(kept)-1]
	if last.Content != "newest question" {
		t.Errorf("newest message dropped, last = %q", last.Content)
	}
	for _, m := range kept {
		if strings.HasPrefix(m.Content, "old old") && len(m.Content) > 100000 {
			t.Error("oversized old message survived untruncated")
		}
	}
}

func TestTruncateConversationTruncatesLoneHugeMessage(t *testing.T) {
	messages := []Message{
		{Role: RoleSystem, Content: "sys"},
		{Role: RoleUser, Content: strings.Repeat("x", 400000)},
	}
	kept := TruncateConversation(messages, 20000)
	if len(kept) != 2 {
		t.Fatalf("len = %d, want system plus truncated user", len(kept))
	}
	if len(kept[1].Content) >= 400000 {
		t.Error("huge lone message was not truncated")
	}
	if !strings.Contains(kept[1].Content, "[truncated due to length]") {
		t.Error("missing truncation marker")
	}
}

func TestFormatToolResultSerializes(t *testing.T) {
	msg := FormatToolResult("call-1", "click", map[string]any{"success": true})
	if msg.Role != RoleTool || msg.Name != "click" || msg.ToolCallID != "call-1" {
		t.Errorf("metadata wrong: %+v", msg)
	}
	if !strings.Contains(msg.Content, `"success":true`) {
		t.Errorf("content = %q", msg.Content)
	}
}
