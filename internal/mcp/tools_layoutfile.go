package mcpserver

import (
	"context"
	"fmt"

	"boards/internal/layoutfile"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerLayoutFileTools() {
	// ── export_layout ──────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("export_layout",
		mcp.WithDescription("Export a page's block geometry to a JSON layout file"),
		mcp.WithString("path",
			mcp.Description("Destination file path"),
			mcp.Required(),
		),
		mcp.WithString("pageId", mcp.Description("Page ID (optional, defaults to active page)")),
	), s.handleExportLayout)

	// ── import_layout ──────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("import_layout",
		mcp.WithDescription("Apply a JSON layout file to a page. Entries for blocks the page does not have are skipped; an overlapping layout is rejected."),
		mcp.WithString("path",
			mcp.Description("Layout file path"),
			mcp.Required(),
		),
	), s.handleImportLayout)
}

func (s *Server) handleExportLayout(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path := req.GetString("path", "")
	if path == "" {
		return nil, fmt.Errorf("path is required")
	}
	pageID, err := s.resolvePageID(req.GetArguments())
	if err != nil {
		return nil, err
	}

	state, err := s.canvas.OpenPage(ctx, pageID)
	if err != nil {
		return nil, fmt.Errorf("export layout: %w", err)
	}
	f := layoutfile.FromBlocks(pageID, state.Page.GridColumns, state.Blocks)
	if err := layoutfile.Save(path, f); err != nil {
		return nil, err
	}
	return textResult(fmt.Sprintf("Exported %d blocks to %s", len(f.Entries), path)), nil
}

func (s *Server) handleImportLayout(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path := req.GetString("path", "")
	if path == "" {
		return nil, fmt.Errorf("path is required")
	}

	f, err := layoutfile.Load(path)
	if err != nil {
		return nil, err
	}
	if err := s.ensureOpen(ctx, f.PageID); err != nil {
		return nil, err
	}
	if err := s.canvas.ReplaceLayout(ctx, f.PageID, f.Positions()); err != nil {
		return nil, fmt.Errorf("import layout: %w", err)
	}
	return textResult(fmt.Sprintf("Applied layout from %s to page %s", path, f.PageID)), nil
}
