package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Settings holds all server configuration. Values come from defaults,
// then an optional config.yaml, then environment variables (highest
// precedence).
type Settings struct {
	Host  string `yaml:"host"`
	Port  int    `yaml:"port"`
	Debug bool   `yaml:"debug"`

	CORSOrigins []string `yaml:"cors_origins"`

	// Default provider API keys; requests may override per-call.
	GeminiAPIKey      string `yaml:"gemini_api_key"`
	PerplexityAPIKey  string `yaml:"perplexity_api_key"`
	HuggingFaceAPIKey string `yaml:"huggingface_api_key"`

	// Timeouts in seconds unless noted.
	LLMTimeoutSecs    int `yaml:"llm_timeout"`
	BrowserTimeoutMs  int `yaml:"browser_timeout"`
	AgentTimeoutSecs  int `yaml:"agent_timeout"`
	SessionTTLMinutes int `yaml:"session_ttl_minutes"`

	RateLimitEnabled bool `yaml:"rate_limit_enabled"`
	RateLimitAgent   int  `yaml:"rate_limit_agent"`   // requests per minute
	RateLimitCodegen int  `yaml:"rate_limit_codegen"` // requests per minute
	RateLimitDefault int  `yaml:"rate_limit_default"` // requests per minute

	MaxSteps int `yaml:"max_steps"`
}

// Defaults returns the baseline settings.
func Defaults() Settings {
	return Settings{
		Host:              "0.0.0.0",
		Port:              8000,
		CORSOrigins:       []string{"http://localhost:5173", "http://localhost:3000"},
		LLMTimeoutSecs:    120,
		BrowserTimeoutMs:  30000,
		AgentTimeoutSecs:  300,
		SessionTTLMinutes: 30,
		RateLimitEnabled:  true,
		RateLimitAgent:    5,
		RateLimitCodegen:  20,
		RateLimitDefault:  60,
		MaxSteps:          30,
	}
}

// Load builds Settings from defaults, an optional YAML file, and the
// environment. A missing YAML file is not an error.
func Load(yamlPath string) (Settings, error) {
	s := Defaults()

	if yamlPath != "" {
		data, err := os.ReadFile(yamlPath)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, &s); err != nil {
				return s, fmt.Errorf("parse %s: %w", yamlPath, err)
			}
			log.Printf("[Config] Loaded %s", yamlPath)
		case os.IsNotExist(err):
			// Defaults plus env only.
		default:
			return s, fmt.Errorf("read %s: %w", yamlPath, err)
		}
	}

	s.applyEnv()
	return s, nil
}

func (s *Settings) applyEnv() {
	setString(&s.Host, "HOST")
	setInt(&s.Port, "PORT")
	setBool(&s.Debug, "DEBUG")

	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		parts := strings.Split(v, ",")
		origins := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				origins = append(origins, p)
			}
		}
		s.CORSOrigins = origins
	}

	setString(&s.GeminiAPIKey, "GEMINI_API_KEY")
	setString(&s.PerplexityAPIKey, "PERPLEXITY_API_KEY")
	setString(&s.HuggingFaceAPIKey, "HUGGINGFACE_API_KEY")

	setInt(&s.LLMTimeoutSecs, "LLM_TIMEOUT")
	setInt(&s.BrowserTimeoutMs, "BROWSER_TIMEOUT")
	setInt(&s.AgentTimeoutSecs, "AGENT_TIMEOUT")
	setInt(&s.SessionTTLMinutes, "SESSION_TTL_MINUTES")

	setBool(&s.RateLimitEnabled, "RATE_LIMIT_ENABLED")
	setInt(&s.RateLimitAgent, "RATE_LIMIT_AGENT")
	setInt(&s.RateLimitCodegen, "RATE_LIMIT_CODEGEN")
	setInt(&s.RateLimitDefault, "RATE_LIMIT_DEFAULT")

	setInt(&s.MaxSteps, "MAX_STEPS")
}

// ProviderKey returns the default API key configured for a provider.
func (s Settings) ProviderKey(provider string) string {
	switch provider {
	case "gemini":
		return s.GeminiAPIKey
	case "perplexity":
		return s.PerplexityAPIKey
	case "hf":
		return s.HuggingFaceAPIKey
	}
	return ""
}

// Addr returns the host:port listen address.
func (s Settings) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("[Config] WARNING: invalid %s=%q, keeping %d", key, v, *dst)
		return
	}
	*dst = n
}

func setBool(dst *bool, key string) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Printf("[Config] WARNING: invalid %s=%q, keeping %v", key, v, *dst)
		return
	}
	*dst = b
}
