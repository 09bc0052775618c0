package memtools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/remora-mcp/remora/internal/memory"
)

// RecallTool handles the memory_recall MCP tool.
type RecallTool struct {
	engine *memory.Engine
}

// NewRecallTool creates a RecallTool over the given engine.
func NewRecallTool(engine *memory.Engine) *RecallTool {
	return &RecallTool{engine: engine}
}

// Definition returns the MCP tool definition for memory_recall.
func (t *RecallTool) Definition() mcp.Tool {
	return mcp.NewTool("memory_recall",
		mcp.WithDescription(
			"Search long-term memory for entries relevant to a query. "+
				"Returns scored matches above the configured relevance floor, "+
				"best first. Use this when the user refers to something from "+
				"a past conversation.",
		),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("What to search for, in natural language"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of results (default: 5)"),
		),
	)
}

// Handle processes the memory_recall tool call.
func (t *RecallTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query := strings.TrimSpace(req.GetString("query", ""))
	if query == "" {
		return mcp.NewToolResultError("'query' is required"), nil
	}

	limit := intArg(req, "limit", 0)

	hits, err := t.engine.SearchMemories(ctx, query, limit)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("recall failed: %v", err)), nil
	}
	if len(hits) == 0 {
		return mcp.NewToolResultText("No memories matched the query."), nil
	}

	return mcp.NewToolResultText(formatRecallHits(hits)), nil
}

// formatRecallHits renders search results as a readable list.
func formatRecallHits(hits []memory.RecallHit) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Found %d matching memories:\n\n", len(hits))
	for i, hit := range hits {
		fmt.Fprintf(&b, "%d. [%.2f] %s\n", i+1, hit.Score, hit.Text)
		fmt.Fprintf(&b, "   id: %s\n", hit.ID)
		if len(hit.Topics) > 0 {
			fmt.Fprintf(&b, "   topics: %s\n", strings.Join(hit.Topics, ", "))
		}
		if len(hit.Entities) > 0 {
			fmt.Fprintf(&b, "   entities: %s\n", strings.Join(hit.Entities, ", "))
		}
	}

	return strings.TrimRight(b.String(), "\n")
}
