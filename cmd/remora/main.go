// Remora: Long-Term Memory MCP Server
//
// An MCP server that gives any AI coding tool (Claude Code, OpenCode,
// Gemini CLI, Codex, Cursor, VS Code Copilot) persistent cross-session
// memory: automatic capture of conversation turns, rolling summaries,
// and relevance-ranked recall, backed by a remote vector store.
//
// Usage:
//
//	remora serve    # Start MCP server (stdio transport)
//	remora update   # Update to the latest version
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mark3labs/mcp-go/server"
	memserver "github.com/remora-mcp/remora/internal/server"
	"github.com/remora-mcp/remora/internal/updater"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "serve":
		if err := run(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "update":
		runUpdate()
	case "--help", "-h", "help":
		printUsage()
		os.Exit(0)
	case "--version", "-v", "version":
		fmt.Printf("remora v%s\n", memserver.Version)
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func run() error {
	s, cleanup, err := memserver.New()
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}
	defer cleanup()

	// Background version check — prints to stderr so it doesn't
	// interfere with MCP's stdio transport on stdout.
	go checkForUpdates()

	// Graceful shutdown on interrupt.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigCh
		cancel()
	}()

	_ = ctx // stdio server manages its own lifecycle

	return server.ServeStdio(s)
}

// checkForUpdates runs a non-blocking version check and prints a notice
// to stderr if an update is available. This runs in a goroutine during
// "serve" and is best-effort — network failures are silently ignored.
func checkForUpdates() {
	result := updater.CheckVersion(memserver.Version)
	if result.UpdateAvailable {
		fmt.Fprintf(os.Stderr,
			"\n  📦 Update available: v%s → v%s\n"+
				"     Run: remora update\n"+
				"     Release: %s\n\n",
			result.CurrentVersion, result.LatestVersion, result.ReleaseURL,
		)
	}
}

// runUpdate performs a self-update to the latest version.
func runUpdate() {
	fmt.Fprintf(os.Stderr, "🔍 Checking for updates...\n")

	result := updater.CheckVersion(memserver.Version)
	if !result.UpdateAvailable {
		fmt.Fprintf(os.Stderr, "✅ Already at the latest version (v%s)\n", result.CurrentVersion)
		return
	}

	fmt.Fprintf(os.Stderr, "📦 New version available: v%s → v%s\n", result.CurrentVersion, result.LatestVersion)
	fmt.Fprintf(os.Stderr, "⬇️  Downloading...\n")

	if err := updater.SelfUpdate(memserver.Version); err != nil {
		fmt.Fprintf(os.Stderr, "❌ Update failed: %v\n", err)
		fmt.Fprintf(os.Stderr, "\n   You can download manually from:\n   %s\n", result.ReleaseURL)
		os.Exit(1)
	}

	fmt.Fprintf(os.Stderr, "✅ Updated to v%s!\n", result.LatestVersion)
	fmt.Fprintf(os.Stderr, "   Restart remora to use the new version.\n")
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `Remora v%s — Long-Term Memory MCP Server

Usage:
  remora serve    Start the MCP server (stdio transport)
  remora update   Update to the latest version

Configuration (config file at ~/.remora/config.json, or env):
  REMORA_BASE_URL    Memory store endpoint (required)
  REMORA_API_KEY     Bearer token for the store
  REMORA_NAMESPACE   Memory namespace        (default: default)
  REMORA_USER_ID     User partition          (default: default)
  REMORA_CONFIG      Alternate config file path

  Add to your AI tool's MCP config:

  {
    "mcpServers": {
      "remora": {
        "command": "remora",
        "args": ["serve"],
        "env": {"REMORA_BASE_URL": "https://memory.example.com"}
      }
    }
  }

Learn more: https://github.com/remora-mcp/remora
`, memserver.Version)
}
