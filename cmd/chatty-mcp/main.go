package main

import (
	"context"
	"flag"
	"log"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	mcpadapter "github.com/jooleearr/chatty-boxy/internal/adapters/mcp"
	"github.com/jooleearr/chatty-boxy/internal/bootstrap"
)

func main() {
	configFlag := flag.String("config", "", "config file (default: $XDG_CONFIG_HOME/chatty-boxy/config.yaml)")
	flag.Parse()

	rt, err := bootstrap.Open(*configFlag)
	if err != nil {
		log.Fatalf("chatty-mcp: %v", err)
	}
	defer rt.Close()

	mcpServer := server.NewMCPServer(
		"chatty-mcp",
		"0.1.0",
		server.WithToolCapabilities(true),
	)

	mcpServer.AddTool(
		mcp.NewTool("ping",
			mcp.WithDescription("Health check, returns pong"),
		),
		func(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return mcp.NewToolResultText("pong"), nil
		},
	)

	mcpadapter.RegisterReadTools(mcpServer, mcpadapter.ReadDeps{
		Ledger:  rt.Store,
		Records: rt.Store,
		Drift:   rt.Detector(),
	})

	// sync is only offered when Confluence is configured
	if orch, err := rt.Orchestrator(); err == nil {
		mcpadapter.RegisterWriteTools(mcpServer, orch)
	} else {
		rt.Logger.Warn("sync tool disabled", slog.String("error", err.Error()))
	}

	if err := server.ServeStdio(mcpServer); err != nil {
		rt.Close()
		log.Fatalf("chatty-mcp: %v", err)
	}
}
