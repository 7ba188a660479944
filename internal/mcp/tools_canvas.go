package mcpserver

import (
	"context"
	"fmt"
	"strings"

	"boards/internal/domain"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerCanvasTools() {
	// ── get_canvas ─────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("get_canvas",
		mcp.WithDescription("Get the full state of a page: grid config, block geometry, and selection"),
		mcp.WithString("pageId", mcp.Description("Page ID (optional, defaults to active page)")),
	), s.handleGetCanvas)

	// ── create_block ───────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("create_block",
		mcp.WithDescription("Create a new block in the first free slot of the canvas grid"),
		mcp.WithString("type",
			mcp.Description("Block type: markdown, image, database, code, chart"),
			mcp.Required(),
		),
		mcp.WithString("pageId", mcp.Description("Page ID (optional, defaults to active page)")),
		mcp.WithNumber("width", mcp.Description("Width in grid columns (optional, per-type default)")),
		mcp.WithNumber("height", mcp.Description("Height in grid rows (optional, per-type default)")),
		mcp.WithString("content", mcp.Description("Initial content for the block (optional)")),
	), s.handleCreateBlock)

	// ── update_block_content ───────────────────────────
	s.mcp.AddTool(mcp.NewTool("update_block_content",
		mcp.WithDescription("Update the content of an existing block"),
		mcp.WithString("blockId", mcp.Description("Block ID"), mcp.Required()),
		mcp.WithString("content", mcp.Description("New content"), mcp.Required()),
	), s.handleUpdateBlockContent)

	// ── list_blocks ────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("list_blocks",
		mcp.WithDescription("List all blocks on a page, optionally filtered by type"),
		mcp.WithString("pageId", mcp.Description("Page ID (optional, defaults to active page)")),
		mcp.WithString("type", mcp.Description("Filter by block type (optional)")),
	), s.handleListBlocks)

	// ── move_block ─────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("move_block",
		mcp.WithDescription("Move a block to a new grid position. Fails if the target overlaps another block."),
		mcp.WithString("blockId", mcp.Description("Block ID"), mcp.Required()),
		mcp.WithNumber("x", mcp.Description("New column"), mcp.Required()),
		mcp.WithNumber("y", mcp.Description("New row"), mcp.Required()),
	), s.handleMoveBlock)

	// ── resize_block ───────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("resize_block",
		mcp.WithDescription("Resize a block. Fails if the new footprint overlaps another block."),
		mcp.WithString("blockId", mcp.Description("Block ID"), mcp.Required()),
		mcp.WithNumber("width", mcp.Description("New width in columns"), mcp.Required()),
		mcp.WithNumber("height", mcp.Description("New height in rows"), mcp.Required()),
	), s.handleResizeBlock)

	// ── delete_block (destructive) ─────────────────────
	s.mcp.AddTool(mcp.NewTool("delete_block",
		mcp.WithDescription("Delete a block. Recoverable with the undo tool while the page stays open."),
		mcp.WithString("blockId", mcp.Description("Block ID to delete"), mcp.Required()),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{DestructiveHint: boolPtr(true)}),
	), s.handleDeleteBlock)

	// ── batch_delete_blocks ────────────────────────────
	s.mcp.AddTool(mcp.NewTool("batch_delete_blocks",
		mcp.WithDescription("Delete multiple blocks as one batch. A single undo restores all of them."),
		mcp.WithString("blockIds",
			mcp.Description("Comma-separated block IDs to delete"),
			mcp.Required(),
		),
		mcp.WithString("pageId", mcp.Description("Page ID (optional, defaults to active page)")),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{DestructiveHint: boolPtr(true)}),
	), s.handleBatchDeleteBlocks)

	// ── arrange_blocks ─────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("arrange_blocks",
		mcp.WithDescription("Close vertical gaps on a page, sliding blocks up in reading order"),
		mcp.WithString("pageId", mcp.Description("Page ID (optional, defaults to active page)")),
	), s.handleArrangeBlocks)

	// ── select_blocks ──────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("select_blocks",
		mcp.WithDescription("Replace the selection on a page with the given blocks. An empty list clears the selection."),
		mcp.WithString("blockIds",
			mcp.Description("Comma-separated block IDs (empty to clear)"),
		),
		mcp.WithString("pageId", mcp.Description("Page ID (optional, defaults to active page)")),
	), s.handleSelectBlocks)

	// ── undo / redo ────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("undo",
		mcp.WithDescription("Undo the last layout change on a page"),
		mcp.WithString("pageId", mcp.Description("Page ID (optional, defaults to active page)")),
	), s.handleUndo)

	s.mcp.AddTool(mcp.NewTool("redo",
		mcp.WithDescription("Redo the last undone layout change on a page"),
		mcp.WithString("pageId", mcp.Description("Page ID (optional, defaults to active page)")),
	), s.handleRedo)
}

func boolPtr(v bool) *bool { return &v }

// ── Handlers ───────────────────────────────────────────────

// ensureOpen makes sure the page has a live canvas session. Opening an
// already-open page is a no-op.
func (s *Server) ensureOpen(ctx context.Context, pageID string) error {
	_, err := s.canvas.OpenPage(ctx, pageID)
	return err
}

func (s *Server) handleGetCanvas(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	pageID, err := s.resolvePageID(req.GetArguments())
	if err != nil {
		return nil, err
	}
	state, err := s.canvas.OpenPage(ctx, pageID)
	if err != nil {
		return nil, fmt.Errorf("get canvas: %w", err)
	}
	return jsonResult(state)
}

func (s *Server) handleCreateBlock(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	blockType, _ := args["type"].(string)
	if blockType == "" {
		return nil, fmt.Errorf("type is required")
	}

	pageID, err := s.resolvePageID(args)
	if err != nil {
		return nil, err
	}
	if err := s.ensureOpen(ctx, pageID); err != nil {
		return nil, err
	}

	block, err := s.canvas.CreateBlock(ctx, pageID, domain.BlockType(blockType),
		getInt(args, "width", 0), getInt(args, "height", 0))
	if err != nil {
		return nil, fmt.Errorf("create block: %w", err)
	}

	// Set initial content if provided
	if content, ok := args["content"].(string); ok && content != "" {
		block.Content = content
		if err := s.blocks.UpdateBlock(block); err != nil {
			return nil, fmt.Errorf("set content: %w", err)
		}
	}

	return jsonResult(block)
}

func (s *Server) handleUpdateBlockContent(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	block, err := s.getBlockForTool(args)
	if err != nil {
		return nil, err
	}

	block.Content, _ = args["content"].(string)
	if err := s.blocks.UpdateBlock(block); err != nil {
		return nil, fmt.Errorf("update content: %w", err)
	}
	return textResult(fmt.Sprintf("Block %s content updated", block.ID)), nil
}

func (s *Server) handleListBlocks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	pageID, err := s.resolvePageID(args)
	if err != nil {
		return nil, err
	}

	blocks, err := s.blocks.ListBlocks(pageID)
	if err != nil {
		return nil, fmt.Errorf("list blocks: %w", err)
	}

	filterType, _ := args["type"].(string)
	summaries := make([]blockSummary, 0, len(blocks))
	for _, b := range blocks {
		if filterType != "" && string(b.Type) != filterType {
			continue
		}
		summaries = append(summaries, summarizeBlock(b))
	}
	return jsonResult(summaries)
}

func (s *Server) handleMoveBlock(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	block, err := s.getBlockForTool(args)
	if err != nil {
		return nil, err
	}
	x, okX := args["x"].(float64)
	y, okY := args["y"].(float64)
	if !okX || !okY {
		return nil, fmt.Errorf("x and y are required")
	}

	if err := s.ensureOpen(ctx, block.PageID); err != nil {
		return nil, err
	}
	if err := s.canvas.MoveBlock(block.PageID, block.ID, int(x), int(y)); err != nil {
		return nil, fmt.Errorf("move block: %w", err)
	}
	return textResult(fmt.Sprintf("Block %s moved to (%d, %d)", block.ID, int(x), int(y))), nil
}

func (s *Server) handleResizeBlock(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	block, err := s.getBlockForTool(args)
	if err != nil {
		return nil, err
	}
	w, okW := args["width"].(float64)
	h, okH := args["height"].(float64)
	if !okW || !okH {
		return nil, fmt.Errorf("width and height are required")
	}

	if err := s.ensureOpen(ctx, block.PageID); err != nil {
		return nil, err
	}
	if err := s.canvas.ResizeBlock(block.PageID, block.ID, int(w), int(h)); err != nil {
		return nil, fmt.Errorf("resize block: %w", err)
	}
	return textResult(fmt.Sprintf("Block %s resized to %dx%d", block.ID, int(w), int(h))), nil
}

func (s *Server) handleDeleteBlock(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	block, err := s.getBlockForTool(args)
	if err != nil {
		return nil, err
	}

	if err := s.ensureOpen(ctx, block.PageID); err != nil {
		return nil, err
	}
	deleted, err := s.canvas.DeleteBlocks(block.PageID, block.ID)
	if err != nil {
		return nil, fmt.Errorf("delete block: %w", err)
	}
	if len(deleted) == 0 {
		return nil, fmt.Errorf("block %s not found on page %s", block.ID, block.PageID)
	}
	return textResult(fmt.Sprintf("Deleted block %s", block.ID)), nil
}

func (s *Server) handleBatchDeleteBlocks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	ids := splitIDs(req.GetString("blockIds", ""))
	if len(ids) == 0 {
		return nil, fmt.Errorf("blockIds is required")
	}
	pageID, err := s.resolvePageID(args)
	if err != nil {
		return nil, err
	}

	if err := s.ensureOpen(ctx, pageID); err != nil {
		return nil, err
	}
	deleted, err := s.canvas.DeleteBlocks(pageID, ids...)
	if err != nil {
		return nil, fmt.Errorf("delete blocks: %w", err)
	}
	return textResult(fmt.Sprintf("Deleted %d of %d blocks", len(deleted), len(ids))), nil
}

func (s *Server) handleArrangeBlocks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	pageID, err := s.resolvePageID(req.GetArguments())
	if err != nil {
		return nil, err
	}
	if err := s.ensureOpen(ctx, pageID); err != nil {
		return nil, err
	}
	moved, err := s.canvas.Arrange(pageID)
	if err != nil {
		return nil, fmt.Errorf("arrange blocks: %w", err)
	}
	if !moved {
		return textResult("Layout already compact, nothing moved"), nil
	}
	return textResult("Gaps closed"), nil
}

func (s *Server) handleSelectBlocks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	pageID, err := s.resolvePageID(args)
	if err != nil {
		return nil, err
	}
	if err := s.ensureOpen(ctx, pageID); err != nil {
		return nil, err
	}

	ids := splitIDs(req.GetString("blockIds", ""))
	if len(ids) == 0 {
		if err := s.canvas.ClearSelection(pageID); err != nil {
			return nil, err
		}
		return textResult("Selection cleared"), nil
	}
	for i, id := range ids {
		// First id replaces the selection, the rest extend it.
		if err := s.canvas.ToggleSelect(pageID, id, i > 0); err != nil {
			return nil, fmt.Errorf("select block: %w", err)
		}
	}
	selected, err := s.canvas.Selected(pageID)
	if err != nil {
		return nil, err
	}
	return jsonResult(map[string]any{"pageId": pageID, "selected": selected})
}

func (s *Server) handleUndo(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	pageID, err := s.resolvePageID(req.GetArguments())
	if err != nil {
		return nil, err
	}
	if err := s.ensureOpen(ctx, pageID); err != nil {
		return nil, err
	}
	undone, err := s.canvas.Undo(ctx, pageID)
	if err != nil {
		return nil, fmt.Errorf("undo: %w", err)
	}
	if !undone {
		return textResult("Nothing to undo"), nil
	}
	return textResult("Layout restored to previous state"), nil
}

func (s *Server) handleRedo(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	pageID, err := s.resolvePageID(req.GetArguments())
	if err != nil {
		return nil, err
	}
	if err := s.ensureOpen(ctx, pageID); err != nil {
		return nil, err
	}
	redone, err := s.canvas.Redo(ctx, pageID)
	if err != nil {
		return nil, fmt.Errorf("redo: %w", err)
	}
	if !redone {
		return textResult("Nothing to redo"), nil
	}
	return textResult("Layout restored to next state"), nil
}

// ── Summaries ──────────────────────────────────────────────

type blockSummary struct {
	ID      string `json:"id"`
	Type    string `json:"type"`
	X       int    `json:"x"`
	Y       int    `json:"y"`
	Width   int    `json:"width"`
	Height  int    `json:"height"`
	Preview string `json:"preview"` // first 200 chars of content
}

func summarizeBlock(b domain.Block) blockSummary {
	preview := b.Content
	if len(preview) > 200 {
		preview = preview[:200] + "..."
	}
	return blockSummary{
		ID:      b.ID,
		Type:    string(b.Type),
		X:       b.X,
		Y:       b.Y,
		Width:   b.Width,
		Height:  b.Height,
		Preview: preview,
	}
}

func splitIDs(s string) []string {
	if s == "" {
		return nil
	}
	var ids []string
	for _, part := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			ids = append(ids, trimmed)
		}
	}
	return ids
}
