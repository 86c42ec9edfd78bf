package gemini

import (
	"encoding/json"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// toGeminiSchema converts an OpenAI-style JSON Schema into the genai
// schema type. Only the subset the tool definitions use is handled:
// object/string/number/integer/boolean/array, descriptions, enums,
// required lists and nested items.
func toGeminiSchema(raw json.RawMessage) (*genai.Schema, error) {
	var node map[string]any
	if err := json.Unmarshal(raw, &node); err != nil {
		return nil, fmt.Errorf("parse schema: %w", err)
	}
	return convertSchemaNode(node), nil
}

func convertSchemaNode(node map[string]any) *genai.Schema {
	schema := &genai.Schema{}

	if t, ok := node["type"].(string); ok {
		schema.Type = genai.Type(strings.ToUpper(t))
	}
	if desc, ok := node["description"].(string); ok {
		schema.Description = desc
	}
	if enum, ok := node["enum"].([]any); ok {
		for _, v := range enum {
			if s, ok := v.(string); ok {
				schema.Enum = append(schema.Enum, s)
			}
		}
	}
	if props, ok := node["properties"].(map[string]any); ok {
		schema.Properties = make(map[string]*genai.Schema, len(props))
		for name, sub := range props {
			if subMap, ok := sub.(map[string]any); ok {
				schema.Properties[name] = convertSchemaNode(subMap)
			}
		}
	}
	if required, ok := node["required"].([]any); ok {
		for _, v := range required {
			if s, ok := v.(string); ok {
				schema.Required = append(schema.Required, s)
			}
		}
	}
	if items, ok := node["items"].(map[string]any); ok {
		schema.Items = convertSchemaNode(items)
	}
	return schema
}
