package agent

import (
	"strings"
	"testing"

	"github.com/aadhiVenkat/Automation-web-agent-ui/internal/browser"
	"github.com/aadhiVenkat/Automation-web-agent-ui/internal/llm"
)

func TestDedupToolCalls(t *testing.T) {
	calls := []llm.ToolCall{
		{ID: "1", Name: "click", Arguments: map[string]any{"selector": "#a"}},
		{ID: "2", Name: "click", Arguments: map[string]any{"selector": "#a"}},
		{ID: "3", Name: "click", Arguments: map[string]any{"selector": "#b"}},
	}
	unique := dedupToolCalls(calls)
	if len(unique) != 2 {
		t.Fatalf("unique = %d, want 2", len(unique))
	}
	if unique[0].ID != "1" || unique[1].ID != "3" {
		t.Errorf("order not preserved: %+v", unique)
	}
}

func TestNoteRepeatFiresOnThirdIdenticalTurn(t *testing.T) {
	a := New(nil, DefaultConfig())
	click := []llm.ToolCall{{Name: "click", Arguments: map[string]any{"selector": "#go"}}}

	if a.noteRepeat(click) {
		t.Fatal("first turn should not trigger recovery")
	}
	if a.noteRepeat(click) {
		t.Fatal("second identical turn should not trigger recovery")
	}
	if !a.noteRepeat(click) {
		t.Fatal("third identical turn should trigger recovery")
	}
	// The window resets after the interjection so the next identical
	// turn counts as a fresh first occurrence.
	if a.noteRepeat(click) {
		t.Error("turn right after recovery should not trigger again")
	}
}

func TestNoteRepeatResetsOnDifferentCall(t *testing.T) {
	a := New(nil, DefaultConfig())
	click := []llm.ToolCall{{Name: "click", Arguments: map[string]any{"selector": "#go"}}}
	fill := []llm.ToolCall{{Name: "fill", Arguments: map[string]any{"selector": "#q", "value": "x"}}}

	a.noteRepeat(click)
	a.noteRepeat(click)
	if a.noteRepeat(fill) {
		t.Fatal("switching tools should reset the repeat window")
	}
	a.noteRepeat(click)
	if a.noteRepeat(click) {
		t.Error("two repeats after a reset should not trigger")
	}
}

func TestNoteRepeatIgnoresMultiCallTurns(t *testing.T) {
	a := New(nil, DefaultConfig())
	click := []llm.ToolCall{{Name: "click", Arguments: map[string]any{"selector": "#go"}}}
	pair := []llm.ToolCall{
		{Name: "click", Arguments: map[string]any{"selector": "#go"}},
		{Name: "fill", Arguments: map[string]any{"selector": "#q", "value": "x"}},
	}

	a.noteRepeat(click)
	a.noteRepeat(click)
	if a.noteRepeat(pair) {
		t.Fatal("a multi-call turn should never trigger recovery")
	}
	if a.noteRepeat(click) {
		t.Error("multi-call turn should have reset the window")
	}
}

func TestNoteIdleTurnAbortsAfterFive(t *testing.T) {
	a := New(nil, DefaultConfig())
	for i := 0; i < 4; i++ {
		if a.noteIdleTurn() {
			t.Fatalf("idle turn %d should not abort yet", i+1)
		}
	}
	if !a.noteIdleTurn() {
		t.Fatal("fifth consecutive idle turn should abort")
	}
}

func TestIdleTurnResetClearsRepeatWindow(t *testing.T) {
	a := New(nil, DefaultConfig())
	click := []llm.ToolCall{{Name: "click", Arguments: map[string]any{"selector": "#go"}}}

	a.noteRepeat(click)
	a.noteRepeat(click)
	a.noteIdleTurn()
	a.noteRepeat(click)
	if a.noteRepeat(click) {
		t.Error("idle turn should break a repeat streak")
	}
}

func TestSummarizeResult(t *testing.T) {
	cases := []struct {
		result browser.Result
		want   string
	}{
		{browser.Result{"url": "https://example.com"}, "URL: https://example.com"},
		{browser.Result{"text": "hello"}, "Text: hello"},
		{browser.Result{"text": strings.Repeat("x", 150)}, "Text: " + strings.Repeat("x", 100) + "..."},
		{browser.Result{"count": float64(7)}, "Count: 7"},
		{browser.Result{"visible": true}, "Visible: true"},
		{browser.Result{"screenshot": "base64..."}, "Screenshot captured"},
		{browser.Result{"action": "click"}, "click"},
		{browser.Result{"success": true}, "Done"},
	}
	for _, tc := range cases {
		if got := summarizeResult(tc.result); got != tc.want {
			t.Errorf("summarizeResult(%v) = %q, want %q", tc.result, got, tc.want)
		}
	}
}

func TestPruneMessagesKeepsSystemAndRecent(t *testing.T) {
	a := New(nil, DefaultConfig())
	a.messages = append(a.messages, llm.Message{Role: llm.RoleSystem, Content: "sys"})
	for i := 0; i < 20; i++ {
		a.messages = append(a.messages, llm.Message{Role: llm.RoleUser, Content: string(rune('a' + i))})
	}

	a.pruneMessages(12)
	if len(a.messages) != 13 {
		t.Fatalf("messages = %d, want 13", len(a.messages))
	}
	if a.messages[0].Role != llm.RoleSystem {
		t.Error("system prompt not kept first")
	}
	if a.messages[1].Content != string(rune('a'+8)) {
		t.Errorf("oldest kept message = %q", a.messages[1].Content)
	}
}

func TestPruneMessagesNoopWhenShort(t *testing.T) {
	a := New(nil, DefaultConfig())
	a.messages = []llm.Message{
		{Role: llm.RoleSystem, Content: "sys"},
		{Role: llm.RoleUser, Content: "task"},
	}
	a.pruneMessages(12)
	if len(a.messages) != 2 {
		t.Errorf("messages = %d, want 2", len(a.messages))
	}
}

func collectEvents() (EmitFunc, *[]Event) {
	var events []Event
	return func(e Event) { events = append(events, e) }, &events
}

func TestHandleCompletionRequiresActionableSteps(t *testing.T) {
	a := New(nil, DefaultConfig())
	a.history = []StepRecord{{ToolName: "get_page_info"}}
	emit, events := collectEvents()

	if a.handleCompletion("TASK_COMPLETE", emit) {
		t.Error("completion accepted without actionable steps")
	}
	last := a.messages[len(a.messages)-1]
	if !strings.Contains(last.Content, "You have NOT completed the task yet") {
		t.Errorf("missing corrective message: %q", last.Content)
	}
	_ = events
}

func TestHandleCompletionAccepted(t *testing.T) {
	a := New(nil, DefaultConfig())
	a.history = []StepRecord{{ToolName: "click"}}
	emit, _ := collectEvents()

	if !a.handleCompletion("TASK_COMPLETE", emit) {
		t.Error("clean completion with actionable history should be accepted")
	}
	if !a.handleCompletion("task_complete.", emit) {
		t.Error("short suffix after TASK_COMPLETE should still count")
	}
}

func TestHandleCompletionRejectsMixedContent(t *testing.T) {
	a := New(nil, DefaultConfig())
	a.history = []StepRecord{{ToolName: "fill"}}
	emit, _ := collectEvents()

	content := "I analyzed the page and believe TASK_COMPLETE because the cart shows one item and the total is correct."
	if a.handleCompletion(content, emit) {
		t.Error("mixed completion should be rejected")
	}
	last := a.messages[len(a.messages)-1]
	if !strings.Contains(last.Content, "Do not mix TASK_COMPLETE with analysis") {
		t.Errorf("missing rejection message: %q", last.Content)
	}
}

func TestHandleCompletionContinues(t *testing.T) {
	a := New(nil, DefaultConfig())
	emit, _ := collectEvents()

	if a.handleCompletion("The page shows search results.", emit) {
		t.Error("plain analysis should not complete")
	}
	last := a.messages[len(a.messages)-1]
	if !strings.Contains(last.Content, "Continue executing the task") {
		t.Errorf("missing continuation nudge: %q", last.Content)
	}
}

func TestHasActionableSteps(t *testing.T) {
	a := New(nil, DefaultConfig())
	a.history = []StepRecord{
		{ToolName: "get_page_structure"},
		{ToolName: "click", Error: "element not found"},
	}
	if a.hasActionableSteps() {
		t.Error("failed click should not count")
	}
	a.history = append(a.history, StepRecord{ToolName: "press_key"})
	if !a.hasActionableSteps() {
		t.Error("successful press_key should count")
	}
}

func TestTrackStepProgress(t *testing.T) {
	a := New(nil, DefaultConfig())
	a.taskSteps = []TaskStep{
		{Number: 1, Action: "fill", Target: "#q", Value: "laptop"},
		{Number: 2, Action: "press", Target: "Enter"},
	}
	emit, events := collectEvents()

	a.trackStepProgress(llm.ToolCall{Name: "fill", Arguments: map[string]any{"selector": "#q", "value": "laptop"}}, emit)
	if a.currentStep != 1 || !a.taskSteps[0].Completed {
		t.Fatalf("step 1 not advanced: current=%d", a.currentStep)
	}
	last := a.messages[len(a.messages)-1]
	if !strings.Contains(last.Content, "Now execute STEP 2: press - Enter") {
		t.Errorf("missing advance message: %q", last.Content)
	}

	// Non-matching tool leaves the plan where it is.
	a.trackStepProgress(llm.ToolCall{Name: "scroll", Arguments: map[string]any{}}, emit)
	if a.currentStep != 1 {
		t.Errorf("scroll should not advance plan")
	}
	_ = events
}
