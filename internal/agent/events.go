package agent

// Event types emitted during an agent run.
const (
	EventLog           = "log"
	EventScreenshot    = "screenshot"
	EventTool          = "tool"
	EventCode          = "code"
	EventBoostedPrompt = "boosted_prompt"
	EventComplete      = "complete"
	EventError         = "error"
)

// Event is a single progress notification from a running agent. Exactly
// one of the payload fields is set depending on Type.
type Event struct {
	Type       string         `json:"type"`
	Message    string         `json:"message,omitempty"`
	Screenshot string         `json:"screenshot,omitempty"`
	Code       string         `json:"code,omitempty"`
	Content    string         `json:"content,omitempty"`
	Tool       string         `json:"tool,omitempty"`
	Args       map[string]any `json:"args,omitempty"`
	Steps      int            `json:"steps,omitempty"`
}

// EmitFunc receives events as the agent produces them. Implementations
// must not block for long; the agent loop is serialized on it.
type EmitFunc func(Event)

func logEvent(msg string) Event {
	return Event{Type: EventLog, Message: msg}
}

func errorEvent(msg string) Event {
	return Event{Type: EventError, Message: msg}
}
