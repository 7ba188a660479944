package app

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	mcpserver "boards/internal/mcp"
)

// noopEmitter is a no-op EventEmitter used in MCP-only mode (no frontend).
type noopEmitter struct{}

func (noopEmitter) Emit(_ context.Context, _ string, _ any) {}

// ServeMCP runs the app as a standalone MCP server on stdin/stdout with no GUI.
// It initializes storage, services, and runs the MCP server until interrupted.
func ServeMCP() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	a := New(noopEmitter{})
	if err := a.Startup(ctx); err != nil {
		log.Fatalf("Failed to start: %v", err)
	}
	defer a.Shutdown()

	mcpSrv := mcpserver.New(mcpserver.Deps{
		Emitter:   noopEmitter{},
		Canvas:    a.Canvas(),
		Notebooks: a.Notebooks(),
		Blocks:    a.Blocks(),
	})

	log.Println("[MCP] Starting standalone stdio server...")
	if err := mcpSrv.ServeStdio(); err != nil {
		log.Fatalf("MCP server error: %v", err)
	}
}
