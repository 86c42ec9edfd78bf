package llm

// Text tool-call protocol for providers without native function calling.
//
// The model is instructed to emit:
//
//	TOOL_CALL: <tool_name>
//	ARGUMENTS: {"param": "value"}
//
// Extraction is deliberately forgiving: models drift into XML invocations,
// single quotes, unquoted values and trailing commas, and a strict parser
// would stall the agent loop on every slip.

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/google/uuid"
)

// FormatToolsPrompt renders tool definitions as protocol instructions for
// injection into the system message.
func FormatToolsPrompt(tools []ToolDefinition) string {
	var sb strings.Builder
	sb.WriteString("## TOOL CALLING FORMAT (CRITICAL - FOLLOW EXACTLY)\n\n")
	sb.WriteString("When you need to use a tool, you MUST respond with EXACTLY this format:\n")
	sb.WriteString("```\nTOOL_CALL: <tool_name>\nARGUMENTS: {\"param\": \"value\"}\n```\n\n")
	sb.WriteString("IMPORTANT RULES:\n")
	sb.WriteString("- Use TOOL_CALL: (not <function_calls> or any XML)\n")
	sb.WriteString("- Put tool name directly after TOOL_CALL: (e.g., TOOL_CALL: click)\n")
	sb.WriteString("- Put JSON arguments on the ARGUMENTS: line\n")
	sb.WriteString("- JSON must use double quotes for strings: {\"selector\": \"button\"} NOT {'selector': 'button'}\n")
	sb.WriteString("- Only ONE tool call per response - wait for result before next action\n")
	sb.WriteString("- NEVER say TASK_COMPLETE until the ENTIRE task goal is achieved\n")
	sb.WriteString("- Only say TASK_COMPLETE when you have VERIFIED the final result\n\n")
	sb.WriteString("## AVAILABLE TOOLS:\n")

	for _, t := range tools {
		sb.WriteString(fmt.Sprintf("\n### %s\nDescription: %s\n", t.Name, t.Description))
		var schema struct {
			Properties map[string]struct {
				Type        string `json:"type"`
				Description string `json:"description"`
			} `json:"properties"`
			Required []string `json:"required"`
		}
		if err := json.Unmarshal(t.Parameters, &schema); err != nil || len(schema.Properties) == 0 {
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
		sb.WriteString("Parameters:\n")
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

	sb.WriteString("\n## EXAMPLE TOOL CALLS:\n")
	sb.WriteString("To fill a search box: TOOL_CALL: fill\n")
	sb.WriteString("ARGUMENTS: {\"selector\": \"input[type=search]\", \"value\": \"search query\"}\n\n")
	sb.WriteString("To click a button: TOOL_CALL: click\n")
	sb.WriteString("ARGUMENTS: {\"selector\": \"button[type=submit]\"}\n\n")
	sb.WriteString("Execute ONE action at a time. Wait for results before proceeding.")
	return sb.String()
}

// InjectToolsPrompt appends the protocol instructions to the system message,
// creating one when the conversation has none.
func InjectToolsPrompt(messages []Message, toolsPrompt string) []Message {
	result := make([]Message, 0, len(messages)+1)
	found := false
	for _, msg := range messages {
		if msg.Role == RoleSystem {
			msg.Content = msg.Content + "\n\n" + toolsPrompt
			found = true
		}
		result = append(result, msg)
	}
	if !found {
		result = append([]Message{{Role: RoleSystem, Content: toolsPrompt}}, result...)
	}
	return result
}

var (
	toolCallRe = regexp.MustCompile(`(?i)TOOL_CALL\s*:\s*(\w+)`)
	argsRe     = regexp.MustCompile(`(?i)ARGUMENTS\s*:\s*`)

	xmlInvokeRe = regexp.MustCompile(`(?i)<(?:invoke|function_call|tool)\s+name=["']([^"']+)["']>`)
	xmlCloseRe  = regexp.MustCompile(`(?i)</(?:invoke|function_call|tool)>`)
	xmlParamRe  = regexp.MustCompile(`(?i)<(?:parameter|param|arg)\s+name=["']([^"']+)["']>([^<]*)</(?:parameter|param|arg)>`)

	funcStyleRe = regexp.MustCompile(`(?m)(?:^|\s)(\w+)\s*\(\s*(\{[^)]+\})\s*\)`)

	jsonUnquotedValueRe = regexp.MustCompile(`:\s*([a-zA-Z_][a-zA-Z0-9_]*)\s*([,}])`)
	jsonSingleQuoteRe   = regexp.MustCompile(`'([^']*)'`)
	jsonTrailingObjRe   = regexp.MustCompile(`,\s*}`)
	jsonTrailingArrRe   = regexp.MustCompile(`,\s*]`)
)

// HasToolCallMarkers reports whether content looks like it contains a tool
// invocation in any of the supported formats. Deliberately permissive.
func HasToolCallMarkers(content string) bool {
	upper := strings.ToUpper(content)
	if strings.Contains(upper, "TOOL_CALL:") || strings.Contains(upper, "TOOL_CALL :") ||
		strings.Contains(upper, "<INVOKE") || strings.Contains(upper, "FUNCTION_CALL") ||
		strings.Contains(upper, "ARGUMENTS:") {
		return true
	}
	lower := strings.ToLower(content)
	for _, name := range []string{"click", "fill", "navigate", "scroll", "get_page"} {
		if strings.Contains(lower, name) {
			return true
		}
	}
	return false
}

// ExtractToolCalls parses tool calls from model output. Strategies in order:
//  1. TOOL_CALL: name / ARGUMENTS: {...} with brace-matched JSON
//  2. XML-style <invoke name="..."> blocks
//  3. function_name({...}) call syntax
//
// Returns nil when nothing parseable is found.
func ExtractToolCalls(content string) []ToolCall {
	calls := extractProtocolCalls(content)
	calls = dedupeCalls(calls)

	if len(calls) == 0 {
		calls = extractXMLCalls(content)
	}
	if len(calls) == 0 {
		calls = extractFuncStyleCalls(content)
	}
	if len(calls) == 0 {
		return nil
	}
	return calls
}

func extractProtocolCalls(content string) []ToolCall {
	var calls []ToolCall
	for _, match := range toolCallRe.FindAllStringSubmatchIndex(content, -1) {
		name := content[match[2]:match[3]]
		searchStart := match[1]

		// Limit the argument search window so one call's JSON cannot bleed
		// into the next TOOL_CALL.
		windowEnd := len(content)
		if searchStart+500 < windowEnd {
			windowEnd = searchStart + 500
		}
		args := map[string]any{}
		if loc := argsRe.FindStringIndex(content[searchStart:windowEnd]); loc != nil {
			if parsed, ok := ExtractJSONObject(content, searchStart+loc[1]); ok {
				args = parsed
			}
		}
		calls = append(calls, ToolCall{
			ID:        uuid.NewString(),
			Name:      name,
			Arguments: args,
		})
	}
	return calls
}

func extractXMLCalls(content string) []ToolCall {
	var calls []ToolCall
	for _, match := range xmlInvokeRe.FindAllStringSubmatchIndex(content, -1) {
		name := content[match[2]:match[3]]
		start := match[1]

		end := len(content)
		if loc := xmlCloseRe.FindStringIndex(content[start:]); loc != nil {
			end = start + loc[0]
		}
		body := content[start:end]

		args, ok := ExtractJSONObject(body, 0)
		if !ok {
			args = map[string]any{}
			for _, pm := range xmlParamRe.FindAllStringSubmatch(body, -1) {
				key, raw := pm[1], strings.TrimSpace(pm[2])
				var v any
				if err := json.Unmarshal([]byte(raw), &v); err == nil {
					args[key] = v
				} else {
					args[key] = raw
				}
			}
		}
		calls = append(calls, ToolCall{
			ID:        uuid.NewString(),
			Name:      name,
			Arguments: args,
		})
	}
	return calls
}

func extractFuncStyleCalls(content string) []ToolCall {
	var calls []ToolCall
	for _, match := range funcStyleRe.FindAllStringSubmatch(content, -1) {
		name := match[1]
		switch strings.ToLower(name) {
		case "if", "for", "while", "function", "def", "class":
			continue
		}
		var args map[string]any
		if err := json.Unmarshal([]byte(match[2]), &args); err != nil {
			continue
		}
		calls = append(calls, ToolCall{
			ID:        uuid.NewString(),
			Name:      name,
			Arguments: args,
		})
	}
	return calls
}

func dedupeCalls(calls []ToolCall) []ToolCall {
	seen := make(map[string]bool, len(calls))
	unique := calls[:0]
	for _, tc := range calls {
		key := tc.Name + ":" + CanonicalArgs(tc.Arguments)
		if seen[key] {
			continue
		}
		seen[key] = true
		unique = append(unique, tc)
	}
	return unique
}

// CanonicalArgs serializes arguments with sorted keys, giving a stable key
// for deduplication and repeat detection.
func CanonicalArgs(args map[string]any) string {
	data, err := json.Marshal(args) // encoding/json sorts map keys
	if err != nil {
		return fmt.Sprintf("%v", args)
	}
	return string(data)
}

// ExtractJSONObject finds the first complete JSON object at or after startPos,
// tracking nested braces and string escapes. Malformed candidates go through
// repairJSON before being rejected.
func ExtractJSONObject(text string, startPos int) (map[string]any, bool) {
	braceStart := strings.Index(text[startPos:], "{")
	if braceStart < 0 {
		return nil, false
	}
	braceStart += startPos

	depth := 0
	inString := false
	escaped := false
	for i := braceStart; i < len(text); i++ {
		ch := text[i]
		if escaped {
			escaped = false
			continue
		}
		if ch == '\\' && inString {
			escaped = true
			continue
		}
		if ch == '"' {
			inString = !inString
			continue
		}
		if inString {
			continue
		}
		switch ch {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				candidate := text[braceStart : i+1]
				var result map[string]any
				if err := json.Unmarshal([]byte(candidate), &result); err == nil {
					return result, true
				}
				if repaired, ok := repairJSON(candidate); ok {
					return repaired, true
				}
				return nil, false
			}
		}
	}
	return nil, false
}

// repairJSON applies common fixes: unquoted string values, single quotes,
// trailing commas.
func repairJSON(raw string) (map[string]any, bool) {
	fixed := jsonUnquotedValueRe.ReplaceAllString(raw, `: "$1"$2`)
	fixed = jsonSingleQuoteRe.ReplaceAllString(fixed, `"$1"`)
	fixed = jsonTrailingObjRe.ReplaceAllString(fixed, `}`)
	fixed = jsonTrailingArrRe.ReplaceAllString(fixed, `]`)

	var result map[string]any
	if err := json.Unmarshal([]byte(fixed), &result); err != nil {
		return nil, false
	}
	return result, true
}
