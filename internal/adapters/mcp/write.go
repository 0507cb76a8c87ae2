package mcp

import (
	"context"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/jooleearr/chatty-boxy/internal/application/commands"
	"github.com/jooleearr/chatty-boxy/internal/application/report"
)

// RegisterWriteTools adds the tools that change the mirror to the MCP server.
func RegisterWriteTools(s *server.MCPServer, runner commands.Runner) {
	s.AddTool(syncTool(), syncHandler(runner))
}

// --- sync ---

func syncTool() mcp.Tool {
	return mcp.NewTool("sync",
		mcp.WithDescription("Run one sync between the wiki and the local mirror. Item failures are reported but do not fail the run."),
		mcp.WithString("collections",
			mcp.Description("Comma separated space keys to sync (e.g. DEV,OPS). Omit to sync every configured space."),
		),
		mcp.WithBoolean("force_full",
			mcp.Description("Rewrite every page even when its version did not change"),
		),
		mcp.WithBoolean("dry_run",
			mcp.Description("Only report what would change"),
		),
	)
}

func syncHandler(runner commands.Runner) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		keys := splitKeys(req.GetString("collections", ""))
		force := req.GetBool("force_full", false)
		dryRun := req.GetBool("dry_run", false)

		result, err := commands.NewSyncCommand(runner, keys, force, dryRun).Execute(ctx)
		if err != nil {
			return toolError(err)
		}

		var sb strings.Builder
		sb.WriteString(result.Message)
		if summary := report.ErrorSummary(result.Run.Errors); summary != "" {
			sb.WriteString("\n\n")
			sb.WriteString(summary)
		}
		return mcp.NewToolResultText(sb.String()), nil
	}
}

func splitKeys(raw string) []string {
	var keys []string
	for _, part := range strings.Split(raw, ",") {
		if key := strings.TrimSpace(part); key != "" {
			keys = append(keys, key)
		}
	}
	return keys
}
