package memtools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/remora-mcp/remora/internal/hooks"
	"github.com/remora-mcp/remora/internal/memory"
)

// TurnContextTool handles the turn_context MCP tool, the pre-turn hook
// surface. Hosts call it with the user's prompt before handling a turn
// and prepend whatever comes back.
type TurnContextTool struct {
	dispatcher *hooks.Dispatcher
}

// NewTurnContextTool creates a TurnContextTool over the given dispatcher.
func NewTurnContextTool(dispatcher *hooks.Dispatcher) *TurnContextTool {
	return &TurnContextTool{dispatcher: dispatcher}
}

// Definition returns the MCP tool definition for turn_context.
func (t *TurnContextTool) Definition() mcp.Tool {
	return mcp.NewTool("turn_context",
		mcp.WithDescription(
			"Build the memory context to inject before handling a prompt. "+
				"Returns a tagged block with the rolling summary and relevant "+
				"memories, or nothing when nothing relevant is known. "+
				"Intended to be called automatically before each turn.",
		),
		mcp.WithString("prompt",
			mcp.Required(),
			mcp.Description("The user prompt about to be handled"),
		),
		mcp.WithString("session_key",
			mcp.Description("Opaque session key from the host, if it has one"),
		),
	)
}

// Handle processes the turn_context tool call. It never reports an
// error: a store outage degrades to an empty context so the turn
// proceeds without memory.
func (t *TurnContextTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result := t.dispatcher.PreTurn(ctx, hooks.PreTurnEvent{
		Prompt:     req.GetString("prompt", ""),
		SessionKey: req.GetString("session_key", ""),
	})
	return mcp.NewToolResultText(result.PrependContext), nil
}

// TurnCaptureTool handles the turn_capture MCP tool, the post-turn hook
// surface. Hosts call it with the full turn transcript after a turn
// completes; only messages newer than the session's last capture are
// written to the store.
type TurnCaptureTool struct {
	dispatcher *hooks.Dispatcher
}

// NewTurnCaptureTool creates a TurnCaptureTool over the given dispatcher.
func NewTurnCaptureTool(dispatcher *hooks.Dispatcher) *TurnCaptureTool {
	return &TurnCaptureTool{dispatcher: dispatcher}
}

// Definition returns the MCP tool definition for turn_capture.
func (t *TurnCaptureTool) Definition() mcp.Tool {
	return mcp.NewTool("turn_capture",
		mcp.WithDescription(
			"Record the messages of a completed turn into long-term memory. "+
				"Messages already captured for the session are skipped, so "+
				"re-sending the full transcript is safe. Failed turns are "+
				"not recorded. Intended to be called automatically after "+
				"each turn.",
		),
		mcp.WithString("messages",
			mcp.Required(),
			mcp.Description("JSON array of turn messages ({role, content, id?, timestamp?})"),
		),
		mcp.WithString("session_key",
			mcp.Description("Opaque session key from the host, if it has one"),
		),
		mcp.WithBoolean("success",
			mcp.Description("Whether the turn completed successfully (default: true)"),
		),
	)
}

// Handle processes the turn_capture tool call.
func (t *TurnCaptureTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw := req.GetString("messages", "")
	if raw == "" {
		return mcp.NewToolResultError("'messages' is required"), nil
	}
	var turns []memory.Turn
	if err := json.Unmarshal([]byte(raw), &turns); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("'messages' is not a JSON array of messages: %v", err)), nil
	}

	result := t.dispatcher.PostTurn(ctx, hooks.PostTurnEvent{
		Success:    boolArg(req, "success", true),
		Messages:   turns,
		SessionKey: req.GetString("session_key", ""),
	})
	if result.Captured == 0 {
		return mcp.NewToolResultText("No new messages to capture."), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf(
		"Captured %d messages for session %s.", result.Captured, result.SessionID,
	)), nil
}
