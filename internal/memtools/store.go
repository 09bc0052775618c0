package memtools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/remora-mcp/remora/internal/memory"
)

// StoreTool handles the memory_store MCP tool.
type StoreTool struct {
	engine *memory.Engine
}

// NewStoreTool creates a StoreTool over the given engine.
func NewStoreTool(engine *memory.Engine) *StoreTool {
	return &StoreTool{engine: engine}
}

// Definition returns the MCP tool definition for memory_store.
func (t *StoreTool) Definition() mcp.Tool {
	return mcp.NewTool("memory_store",
		mcp.WithDescription(
			"Save a fact, preference or decision to long-term memory. "+
				"Near-duplicates of an existing memory are detected and not "+
				"stored twice. Use this when the user explicitly asks to "+
				"remember something.",
		),
		mcp.WithString("text",
			mcp.Required(),
			mcp.Description("The memory to save, as a standalone statement"),
		),
		mcp.WithString("category",
			mcp.Description("Memory category; detected from the text when omitted"),
			mcp.Enum("preference", "fact", "decision", "entity", "other"),
		),
	)
}

// Handle processes the memory_store tool call.
func (t *StoreTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text := req.GetString("text", "")
	category := req.GetString("category", "")

	outcome := t.engine.Store(ctx, text, category)
	switch outcome.Status {
	case memory.StatusStored:
		return mcp.NewToolResultText(fmt.Sprintf(
			"Stored memory %s (category: %s).", outcome.ID, outcome.Category,
		)), nil
	case memory.StatusDuplicate:
		return mcp.NewToolResultText(fmt.Sprintf(
			"Not stored: an equivalent memory already exists (%s): %q",
			outcome.ID, outcome.Existing,
		)), nil
	case memory.StatusRejected:
		return mcp.NewToolResultError(outcome.Reason), nil
	default:
		return mcp.NewToolResultError(fmt.Sprintf("store failed: %s", outcome.Reason)), nil
	}
}
