// Package hooks is the host-facing lifecycle boundary. The host's
// loosely-shaped hook events are validated here and dispatched as
// typed payloads into the engine; nothing past this boundary sees raw
// event JSON, and no engine failure escapes back to the host.
package hooks

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/remora-mcp/remora/internal/memory"
)

// Event names accepted by Dispatch.
const (
	EventPreTurn  = "pre_turn"
	EventPostTurn = "post_turn"
)

// PreTurnEvent fires before the agent handles a prompt.
type PreTurnEvent struct {
	Prompt     string `json:"prompt"`
	SessionKey string `json:"session_key,omitempty"`
}

// PreTurnResult carries the memory context to prepend to the turn,
// empty when nothing relevant is known.
type PreTurnResult struct {
	PrependContext string `json:"prepend_context,omitempty"`
}

// PostTurnEvent fires after the agent finishes a turn.
type PostTurnEvent struct {
	Success    bool          `json:"success"`
	Messages   []memory.Turn `json:"messages,omitempty"`
	SessionKey string        `json:"session_key,omitempty"`
}

// PostTurnResult reports what the capture did.
type PostTurnResult struct {
	SessionID string `json:"session_id"`
	Captured  int    `json:"captured"`
}

// Dispatcher routes hook events into the engine.
type Dispatcher struct {
	engine *memory.Engine
}

// NewDispatcher creates a Dispatcher over the given engine.
func NewDispatcher(engine *memory.Engine) *Dispatcher {
	return &Dispatcher{engine: engine}
}

// PreTurn builds the context to inject before a turn. Never fails:
// store problems degrade to an empty result.
func (d *Dispatcher) PreTurn(ctx context.Context, ev PreTurnEvent) PreTurnResult {
	return PreTurnResult{PrependContext: d.engine.Recall(ctx, ev.Prompt)}
}

// PostTurn captures new conversation messages after a turn. Failed
// turns are not captured.
func (d *Dispatcher) PostTurn(ctx context.Context, ev PostTurnEvent) PostTurnResult {
	if !ev.Success || len(ev.Messages) == 0 {
		return PostTurnResult{}
	}
	result := d.engine.Capture(ctx, ev.SessionKey, ev.Messages)
	return PostTurnResult{SessionID: result.SessionID, Captured: result.Captured}
}

// Dispatch decodes and routes a named event. Unknown names and
// malformed payloads are validation errors for the caller; they never
// reach the engine.
func (d *Dispatcher) Dispatch(ctx context.Context, event string, payload json.RawMessage) (any, error) {
	switch event {
	case EventPreTurn:
		var ev PreTurnEvent
		if err := json.Unmarshal(payload, &ev); err != nil {
			return nil, fmt.Errorf("hooks: bad %s payload: %w", event, err)
		}
		return d.PreTurn(ctx, ev), nil
	case EventPostTurn:
		var ev PostTurnEvent
		if err := json.Unmarshal(payload, &ev); err != nil {
			return nil, fmt.Errorf("hooks: bad %s payload: %w", event, err)
		}
		return d.PostTurn(ctx, ev), nil
	default:
		return nil, fmt.Errorf("hooks: unknown event %q", event)
	}
}
