package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/jooleearr/chatty-boxy/internal/application/commands"
	"github.com/jooleearr/chatty-boxy/internal/application/report"
	"github.com/jooleearr/chatty-boxy/internal/domain"
	"github.com/jooleearr/chatty-boxy/internal/ports"
)

const defaultRunsLimit = 10

// ReadDeps are the collaborators of the read-only tools
type ReadDeps struct {
	Ledger  ports.RunLedger
	Records ports.RecordStore
	Drift   commands.DriftFinder
}

// RegisterReadTools adds all read-only mirror tools to the MCP server.
func RegisterReadTools(s *server.MCPServer, deps ReadDeps) {
	s.AddTool(statusTool(), statusHandler(deps))
	s.AddTool(runsTool(), runsHandler(deps))
	s.AddTool(driftTool(), driftHandler(deps))
}

// --- status ---

func statusTool() mcp.Tool {
	return mcp.NewTool("status",
		mcp.WithDescription("Show the last sync run, the number of mirrored pages per space, and runs that never finished."),
	)
}

func statusHandler(deps ReadDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		result, err := commands.NewStatusCommand(deps.Ledger, deps.Records).Execute(ctx)
		if err != nil {
			return toolError(err)
		}

		var sb strings.Builder
		sb.WriteString(result.Message)
		sb.WriteByte('\n')
		if result.LastRun != nil {
			fmt.Fprintf(&sb, "\nLast run: %s\n", report.RunLine(*result.LastRun))
			if result.LastRun.ErrorSummary != nil {
				fmt.Fprintf(&sb, "%s\n", *result.LastRun.ErrorSummary)
			}
		}
		if len(result.Collections) > 0 {
			sb.WriteString("\nRecords:\n")
			for _, c := range result.Collections {
				fmt.Fprintf(&sb, "  %s  %d\n", c.CollectionKey, c.Records)
			}
		}
		if len(result.Stalled) > 0 {
			sb.WriteString("\nStalled:\n")
			for _, r := range result.Stalled {
				fmt.Fprintf(&sb, "  %s\n", report.RunLine(r))
			}
		}
		return mcp.NewToolResultText(sb.String()), nil
	}
}

// --- runs ---

func runsTool() mcp.Tool {
	return mcp.NewTool("runs",
		mcp.WithDescription("List recent sync runs, newest first."),
		mcp.WithNumber("limit",
			mcp.Description(fmt.Sprintf("Maximum number of runs to return (default %d)", defaultRunsLimit)),
		),
	)
}

func runsHandler(deps ReadDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		limit := req.GetInt("limit", defaultRunsLimit)

		result, err := commands.NewListRunsCommand(deps.Ledger, limit).Execute(ctx)
		if err != nil {
			return toolError(err)
		}
		return formatEntities(result.Runs, report.RunLine)
	}
}

// --- drift ---

func driftTool() mcp.Tool {
	return mcp.NewTool("drift",
		mcp.WithDescription("Compare page records with markdown files on disk. Lists records whose file is missing and files no record points to."),
	)
}

func driftHandler(deps ReadDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		result, err := commands.NewDriftCommand(deps.Drift).Execute(ctx)
		if err != nil {
			return toolError(err)
		}

		var sb strings.Builder
		sb.WriteString(result.Message)
		sb.WriteByte('\n')
		for _, r := range result.Drift.MissingArtifacts {
			fmt.Fprintf(&sb, "missing  %s\n", formatRecord(r))
		}
		for _, loc := range result.Drift.OrphanedArtifacts {
			fmt.Fprintf(&sb, "orphaned %s\n", loc)
		}
		return mcp.NewToolResultText(sb.String()), nil
	}
}

// --- helpers ---

func toolError(err error) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultError(err.Error()), nil
}

func formatEntities[T any](entities []T, format func(T) string) (*mcp.CallToolResult, error) {
	if len(entities) == 0 {
		return mcp.NewToolResultText("No results."), nil
	}
	var sb strings.Builder
	for _, e := range entities {
		sb.WriteString(format(e))
		sb.WriteByte('\n')
	}
	return mcp.NewToolResultText(sb.String()), nil
}

func formatRecord(r domain.SyncedRecord) string {
	return fmt.Sprintf("%s/%s  v%d  %s  (%s)", r.CollectionKey, r.ID, r.Version, r.Title, r.ArtifactLocation)
}
