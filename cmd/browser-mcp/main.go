// Command browser-mcp exposes the browser tool catalogue as an MCP
// server over stdio, so MCP-capable clients can drive a local Chrome
// without going through the HTTP agent API.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/aadhiVenkat/Automation-web-agent-ui/internal/browser"
	"github.com/aadhiVenkat/Automation-web-agent-ui/internal/config"
	"github.com/aadhiVenkat/Automation-web-agent-ui/internal/tool"
)

func main() {
	config.LoadEnv()
	// Protocol traffic owns stdout; keep logs on stderr.
	log.SetOutput(os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	opts := browser.DefaultOptions()
	opts.Headless = os.Getenv("BROWSER_HEADLESS") != "false"

	b, err := browser.Launch(ctx, opts)
	if err != nil {
		log.Fatalf("[MCP] Failed to launch browser: %v", err)
	}
	defer b.Close()

	executor := tool.NewExecutor(tool.NewBrowserRegistry(b))

	srv := mcpserver.NewMCPServer(
		"browser-agent",
		"0.1.0",
		mcpserver.WithToolCapabilities(true),
		mcpserver.WithRecovery(),
	)

	for _, t := range executor.Registry().List() {
		mcpTool := mcp.NewToolWithRawSchema(t.Name, t.Description, t.InputSchema())
		srv.AddTool(mcpTool, wrapTool(executor, t.Name))
	}

	log.Printf("[MCP] Serving %d browser tools over stdio", len(executor.Registry().List()))
	stdio := mcpserver.NewStdioServer(srv)
	if err := stdio.Listen(ctx, os.Stdin, os.Stdout); err != nil && ctx.Err() == nil {
		log.Fatalf("[MCP] Server error: %v", err)
	}
}

// wrapTool adapts a registry tool into an MCP handler. Execution
// failures come back as tool results, not protocol errors, so clients
// can read what went wrong.
func wrapTool(executor *tool.Executor, name string) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := request.GetArguments()
		if args == nil {
			args = map[string]any{}
		}

		result := executor.Execute(ctx, name, args)
		payload, err := json.Marshal(result)
		if err != nil {
			payload = []byte(fmt.Sprintf(`{"success":false,"error":"tool %s returned non-serializable payload"}`, name))
		}

		isError := false
		if success, ok := result["success"].(bool); ok && !success {
			isError = true
		}
		return &mcp.CallToolResult{
			Content: []mcp.Content{mcp.NewTextContent(string(payload))},
			IsError: isError,
		}, nil
	}
}
