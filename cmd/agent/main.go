package main

import (
	"log"
	"os"
	"time"

	"github.com/aadhiVenkat/Automation-web-agent-ui/internal/config"
	"github.com/aadhiVenkat/Automation-web-agent-ui/internal/session"
	"github.com/aadhiVenkat/Automation-web-agent-ui/internal/web"

	// Provider registration.
	_ "github.com/aadhiVenkat/Automation-web-agent-ui/internal/llm/gemini"
	_ "github.com/aadhiVenkat/Automation-web-agent-ui/internal/llm/hf"
	_ "github.com/aadhiVenkat/Automation-web-agent-ui/internal/llm/perplexity"
)

func main() {
	config.LoadEnv()

	configPath := os.Getenv("CONFIG_FILE")
	if configPath == "" {
		configPath = "config.yaml"
	}
	settings, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("[Main] Failed to load configuration: %v", err)
	}

	sessions := session.NewRegistry(time.Duration(settings.SessionTTLMinutes) * time.Minute)
	defer sessions.Close()

	srv := web.NewServer(settings, sessions)
	if err := srv.Start(); err != nil {
		log.Fatalf("[Main] Server error: %v", err)
	}
}
