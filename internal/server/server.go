// Package server wires all MCP components and creates the server instance.
//
// This is the composition root: it loads configuration, creates the
// backend client, session store and engine, and injects them into the
// tool handlers. No business logic lives here — only wiring.
package server

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/remora-mcp/remora/internal/backend"
	"github.com/remora-mcp/remora/internal/config"
	"github.com/remora-mcp/remora/internal/hooks"
	"github.com/remora-mcp/remora/internal/memory"
	"github.com/remora-mcp/remora/internal/memtools"
)

// Version is set at build time via ldflags.
var Version = "dev"

// New creates and configures the MCP server with all tools registered.
// This is the single place where all dependencies are resolved.
//
// The returned cleanup function closes the session database and must be
// called on shutdown (typically via defer). It is always non-nil and
// safe to call even if session-store init failed.
func New() (*server.MCPServer, func(), error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, noop, err
	}

	client := backend.NewHTTPClient(cfg.BaseURL, cfg.APIKey)

	// The session store is an independent local subsystem: without it
	// every capture treats the session as fresh, which redoes work
	// server-side but loses nothing. Warn and continue.
	cleanup := noop
	sessions, err := memory.OpenSessionStore(cfg.DataDir)
	if err != nil {
		log.Printf("WARNING: session store disabled: %v", err)
		sessions = nil
	} else {
		cleanup = func() {
			if err := sessions.Close(); err != nil {
				log.Printf("WARNING: session store close: %v", err)
			}
		}
	}

	engine := memory.NewEngine(client, sessions, memory.Options{
		Namespace:             cfg.Namespace,
		UserID:                cfg.UserID,
		MinScore:              cfg.MinScore,
		RecallLimit:           cfg.RecallLimit,
		SessionID:             cfg.SessionID,
		SummaryViewName:       cfg.SummaryView.Name,
		SummaryTimeWindowDays: cfg.SummaryView.TimeWindowDays,
		SummaryGroupBy:        cfg.SummaryView.GroupBy,
		ExtractionStrategy:    cfg.Extraction.Strategy,
		ExtractionPrompt:      cfg.Extraction.Prompt,
	})
	dispatcher := hooks.NewDispatcher(engine)

	s := server.NewMCPServer(
		"remora",
		Version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(serverInstructions()),
	)

	// --- Register hook tools (called automatically around each turn) ---

	turnContext := memtools.NewTurnContextTool(dispatcher)
	s.AddTool(turnContext.Definition(), turnContext.Handle)

	turnCapture := memtools.NewTurnCaptureTool(dispatcher)
	s.AddTool(turnCapture.Definition(), turnCapture.Handle)

	// --- Register manual memory tools ---

	recallTool := memtools.NewRecallTool(engine)
	s.AddTool(recallTool.Definition(), recallTool.Handle)

	storeTool := memtools.NewStoreTool(engine)
	s.AddTool(storeTool.Definition(), storeTool.Handle)

	forgetTool := memtools.NewForgetTool(engine)
	s.AddTool(forgetTool.Definition(), forgetTool.Handle)

	// Best-effort startup work: health check and summary view warm-up.
	// Neither blocks serving; a down store degrades per-call instead.
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := engine.Health(ctx); err != nil {
			log.Printf("WARNING: memory store unreachable at startup: %v", err)
		}
		engine.Views().Ensure(ctx)
	}()

	return s, cleanup, nil
}

// loadConfig resolves the config file path: $REMORA_CONFIG if set,
// otherwise the conventional ~/.remora/config.json.
func loadConfig() (config.Config, error) {
	path := os.Getenv("REMORA_CONFIG")
	if path == "" {
		path = config.DefaultPath()
	}
	return config.Load(path)
}

// noop is a no-op cleanup function used as the default when the
// session store is disabled or hasn't been initialized.
func noop() {}

// serverInstructions returns the system instructions that tell the AI
// how to use the memory tools effectively.
func serverInstructions() string {
	return `You have access to Remora, a long-term memory MCP server.

## Automatic memory (preferred)

- Before handling a user prompt, call turn_context with the prompt and
  prepend whatever it returns to your working context. An empty result
  means nothing relevant is known — proceed normally.
- After completing a turn, call turn_capture with the full turn
  transcript as a JSON array of {role, content, id?, timestamp?}
  messages. Already-captured messages are skipped, so always send the
  full transcript. Set success=false for failed turns.

## Manual memory

- memory_recall: search memory when the user refers to something from a
  past conversation that turn_context did not surface.
- memory_store: save a fact when the user explicitly asks you to
  remember something.
- memory_forget: delete a memory when the user asks you to forget
  something. If it lists candidates, ask the user which one and re-run
  with that memory_id.

Never store secrets, credentials, or content the user asked to keep out
of memory.`
}
