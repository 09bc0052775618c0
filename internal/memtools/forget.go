package memtools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/remora-mcp/remora/internal/memory"
)

// ForgetTool handles the memory_forget MCP tool.
type ForgetTool struct {
	engine *memory.Engine
}

// NewForgetTool creates a ForgetTool over the given engine.
func NewForgetTool(engine *memory.Engine) *ForgetTool {
	return &ForgetTool{engine: engine}
}

// Definition returns the MCP tool definition for memory_forget.
func (t *ForgetTool) Definition() mcp.Tool {
	return mcp.NewTool("memory_forget",
		mcp.WithDescription(
			"Delete a memory, addressed by exact id or by a descriptive "+
				"query. A query deletes only when it matches exactly one "+
				"memory with high confidence; otherwise the candidates are "+
				"listed so the user can pick one, and nothing is deleted.",
		),
		mcp.WithString("query",
			mcp.Description("Description of the memory to delete"),
		),
		mcp.WithString("memory_id",
			mcp.Description("Exact id of the memory to delete"),
		),
	)
}

// Handle processes the memory_forget tool call.
func (t *ForgetTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query := req.GetString("query", "")
	memoryID := req.GetString("memory_id", "")

	outcome := t.engine.Forget(ctx, query, memoryID)
	switch outcome.Status {
	case memory.StatusDeleted:
		return mcp.NewToolResultText(fmt.Sprintf("Deleted memory %s.", outcome.ID)), nil
	case memory.StatusAmbiguous:
		return mcp.NewToolResultText(formatForgetCandidates(outcome.Candidates)), nil
	case memory.StatusNotFound:
		return mcp.NewToolResultText("No memories matched the query."), nil
	case memory.StatusMissingParameter:
		return mcp.NewToolResultError(outcome.Reason), nil
	default:
		return mcp.NewToolResultError(fmt.Sprintf("forget failed: %s", outcome.Reason)), nil
	}
}

// formatForgetCandidates renders the disambiguation list for an
// ambiguous forget query.
func formatForgetCandidates(candidates []memory.ForgetCandidate) string {
	var b strings.Builder

	b.WriteString("Multiple memories matched; nothing was deleted. ")
	b.WriteString("Re-run with the memory_id of the one to remove:\n\n")
	for i, c := range candidates {
		fmt.Fprintf(&b, "%d. [%.2f] %s (id: %s)\n", i+1, c.Score, c.Text, c.ID)
	}

	return strings.TrimRight(b.String(), "\n")
}
