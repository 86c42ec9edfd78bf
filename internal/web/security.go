package web

import (
	"fmt"
	"log"
	"strings"

	"github.com/aadhiVenkat/Automation-web-agent-ui/internal/config"
)

// apiKeyHeader carries the LLM provider key. Preferred over the body
// field so keys stay out of request logs.
const apiKeyHeader = "X-API-Key"

// ResolveAPIKey picks the provider API key from, in order: the
// X-API-Key header, the request body, the server's configured default.
func ResolveAPIKey(headerKey, bodyKey, provider string, settings config.Settings) (string, error) {
	if headerKey != "" {
		return headerKey, nil
	}
	if bodyKey != "" {
		log.Printf("[Security] API key from request body (prefer the %s header)", apiKeyHeader)
		return bodyKey, nil
	}
	if key := settings.ProviderKey(provider); key != "" {
		return key, nil
	}
	return "", fmt.Errorf(
		"API key required for %s. Provide via %s header, apiKey in body, or set %s_API_KEY environment variable",
		provider, apiKeyHeader, strings.ToUpper(provider))
}

// MaskAPIKey renders a key safe for logging, keeping only the first and
// last four characters.
func MaskAPIKey(key string) string {
	if len(key) <= 8 {
		return strings.Repeat("*", len(key))
	}
	return key[:4] + "..." + key[len(key)-4:]
}
