package mcpserver

import (
	"encoding/json"
	"fmt"
	"log"

	"boards/internal/domain"
	"boards/internal/service"
	"boards/internal/storage"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Server is the MCP server for the Boards app.
// It exposes tools so AI agents can navigate notebooks and manipulate the
// canvas. Every layout mutation goes through the canvas service, so agents
// are held to the same no-overlap rules as interactive users.
type Server struct {
	mcp     *server.MCPServer
	emitter service.EventEmitter

	// Services (injected from app layer)
	canvas    *service.CanvasService
	notebooks *storage.NotebookStore
	blocks    *storage.BlockStore

	// Active page context (set by set_active_page tool)
	activePageID string
}

// Deps holds all dependencies passed from the App layer to the MCP server.
type Deps struct {
	Emitter   service.EventEmitter
	Canvas    *service.CanvasService
	Notebooks *storage.NotebookStore
	Blocks    *storage.BlockStore
}

// New creates and configures a new MCP server with all tools.
func New(deps Deps) *Server {
	s := &Server{
		emitter:   deps.Emitter,
		canvas:    deps.Canvas,
		notebooks: deps.Notebooks,
		blocks:    deps.Blocks,
	}

	s.mcp = server.NewMCPServer(
		"boards-mcp",
		"1.0.0",
		server.WithToolCapabilities(true),
	)

	s.registerNavigationTools()
	s.registerCanvasTools()
	s.registerLayoutFileTools()

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	log.Println("[MCP] Starting stdio server...")
	return server.ServeStdio(s.mcp)
}

// ── Helpers ────────────────────────────────────────────────

// textResult creates a simple text tool result.
func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

// jsonResult serializes v to JSON and wraps it in a text tool result.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}
	return textResult(string(data)), nil
}

// resolvePageID returns the pageID from tool args or falls back to activePageID.
func (s *Server) resolvePageID(args map[string]any) (string, error) {
	if pid, ok := args["pageId"].(string); ok && pid != "" {
		return pid, nil
	}
	if s.activePageID != "" {
		return s.activePageID, nil
	}
	return "", fmt.Errorf("no pageId provided and no active page set (use set_active_page first)")
}

// getBlockForTool retrieves a block and validates it exists.
func (s *Server) getBlockForTool(args map[string]any) (*domain.Block, error) {
	blockID, ok := args["blockId"].(string)
	if !ok || blockID == "" {
		return nil, fmt.Errorf("blockId is required")
	}
	return s.blocks.GetBlock(blockID)
}

func getInt(args map[string]any, key string, fallback int) int {
	if v, ok := args[key].(float64); ok {
		return int(v)
	}
	return fallback
}
