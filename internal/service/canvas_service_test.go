package service_test

import (
	"context"
	"path/filepath"
	"testing"

	"boards/internal/domain"
	"boards/internal/layout"
	"boards/internal/service"
	"boards/internal/storage"
)

// ─────────────────────────────────────────────────────────────
// CanvasService tests
// Backed by a real SQLite store in t.TempDir(); the driver is pure Go.
// ─────────────────────────────────────────────────────────────

type fixture struct {
	svc     *service.CanvasService
	blocks  *storage.BlockStore
	pages   *storage.NotebookStore
	emitter *service.MockEmitter
	pageID  string
}

// newFixture opens a service over a fresh database with one notebook and
// one page. The page uses a gapless 12-column grid with 100px cells so
// pixel math in tests stays round.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()

	db, err := storage.New(filepath.Join(dir, "boards.db"), dir)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	pages := storage.NewNotebookStore(db)
	blocks := storage.NewBlockStore(db)

	nb := &domain.Notebook{ID: "nb-1", Name: "Test"}
	if err := pages.CreateNotebook(nb); err != nil {
		t.Fatalf("create notebook: %v", err)
	}
	page := &domain.Page{
		ID:          "page-1",
		NotebookID:  nb.ID,
		Name:        "Canvas",
		GridColumns: 12,
		RowHeightPx: 30,
		GapPx:       0,
		MaxWidthPx:  1200,
	}
	if err := pages.CreatePage(page); err != nil {
		t.Fatalf("create page: %v", err)
	}

	emitter := &service.MockEmitter{}
	return &fixture{
		svc:     service.NewCanvasService(blocks, pages, emitter),
		blocks:  blocks,
		pages:   pages,
		emitter: emitter,
		pageID:  page.ID,
	}
}

func TestCanvasService_OpenPage_Empty(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	state, err := f.svc.OpenPage(ctx, f.pageID)
	if err != nil {
		t.Fatalf("open page: %v", err)
	}
	if len(state.Blocks) != 0 {
		t.Fatalf("expected empty page, got %d blocks", len(state.Blocks))
	}
	if state.Page.GridColumns != 12 {
		t.Errorf("expected 12 columns, got %d", state.Page.GridColumns)
	}
}

func TestCanvasService_OpenPage_Idempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.svc.OpenPage(ctx, f.pageID); err != nil {
		t.Fatalf("open page: %v", err)
	}
	b, err := f.svc.CreateBlock(ctx, f.pageID, domain.BlockTypeMarkdown, 0, 0)
	if err != nil {
		t.Fatalf("create block: %v", err)
	}

	// Opening again must keep the live session, not reload from the store.
	state, err := f.svc.OpenPage(ctx, f.pageID)
	if err != nil {
		t.Fatalf("reopen page: %v", err)
	}
	if len(state.Blocks) != 1 || state.Blocks[0].ID != b.ID {
		t.Fatalf("expected the live session's block, got %+v", state.Blocks)
	}
}

func TestCanvasService_OpenPage_Unknown(t *testing.T) {
	f := newFixture(t)
	if _, err := f.svc.OpenPage(context.Background(), "nope"); err == nil {
		t.Fatal("expected error opening unknown page")
	}
}

func TestCanvasService_CreateBlock_DefaultsAndPlacement(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	if _, err := f.svc.OpenPage(ctx, f.pageID); err != nil {
		t.Fatalf("open page: %v", err)
	}

	a, err := f.svc.CreateBlock(ctx, f.pageID, domain.BlockTypeMarkdown, 0, 0)
	if err != nil {
		t.Fatalf("create a: %v", err)
	}
	if a.X != 0 || a.Y != 0 || a.Width != 4 || a.Height != 3 {
		t.Errorf("expected markdown default at origin, got {%d,%d,%d,%d}", a.X, a.Y, a.Width, a.Height)
	}

	b, err := f.svc.CreateBlock(ctx, f.pageID, domain.BlockTypeChart, 0, 0)
	if err != nil {
		t.Fatalf("create b: %v", err)
	}
	if b.X != 4 || b.Y != 0 || b.Width != 6 || b.Height != 4 {
		t.Errorf("expected chart default next to a, got {%d,%d,%d,%d}", b.X, b.Y, b.Width, b.Height)
	}

	stored, err := f.blocks.ListBlocks(f.pageID)
	if err != nil {
		t.Fatalf("list blocks: %v", err)
	}
	if len(stored) != 2 {
		t.Fatalf("expected 2 persisted blocks, got %d", len(stored))
	}
	if got := len(f.emitter.Named("block:created")); got != 2 {
		t.Errorf("expected 2 block:created events, got %d", got)
	}
}

func TestCanvasService_DragCommit_PersistsAndEmits(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	if _, err := f.svc.OpenPage(ctx, f.pageID); err != nil {
		t.Fatalf("open page: %v", err)
	}
	a, err := f.svc.CreateBlock(ctx, f.pageID, domain.BlockTypeMarkdown, 2, 1)
	if err != nil {
		t.Fatalf("create block: %v", err)
	}

	ok, err := f.svc.StartDrag(f.pageID, a.ID)
	if err != nil || !ok {
		t.Fatalf("start drag: ok=%v err=%v", ok, err)
	}
	// 100px cells, so 400px to the right is 4 columns.
	if err := f.svc.MoveDrag(f.pageID, 400, 0); err != nil {
		t.Fatalf("move drag: %v", err)
	}
	ghost, open, err := f.svc.Ghost(f.pageID)
	if err != nil || !open {
		t.Fatalf("ghost: open=%v err=%v", open, err)
	}
	if ghost.X != 4 || ghost.Y != 0 {
		t.Fatalf("expected ghost at col 4, got {%d,%d}", ghost.X, ghost.Y)
	}

	committed, err := f.svc.CommitDrag(f.pageID)
	if err != nil || !committed {
		t.Fatalf("commit drag: committed=%v err=%v", committed, err)
	}

	stored, err := f.blocks.GetBlock(a.ID)
	if err != nil {
		t.Fatalf("get block: %v", err)
	}
	if stored.X != 4 || stored.Y != 0 {
		t.Errorf("expected persisted position {4,0}, got {%d,%d}", stored.X, stored.Y)
	}
	if got := len(f.emitter.Named("block:moved")); got != 1 {
		t.Errorf("expected 1 block:moved event, got %d", got)
	}
}

func TestCanvasService_MoveBlock_OccupiedTarget(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	if _, err := f.svc.OpenPage(ctx, f.pageID); err != nil {
		t.Fatalf("open page: %v", err)
	}
	a, _ := f.svc.CreateBlock(ctx, f.pageID, domain.BlockTypeMarkdown, 2, 1)
	b, _ := f.svc.CreateBlock(ctx, f.pageID, domain.BlockTypeMarkdown, 2, 1)

	if err := f.svc.MoveBlock(f.pageID, a.ID, b.X, b.Y); err == nil {
		t.Fatal("expected error moving onto an occupied slot")
	}

	stored, err := f.blocks.GetBlock(a.ID)
	if err != nil {
		t.Fatalf("get block: %v", err)
	}
	if stored.X != a.X || stored.Y != a.Y {
		t.Errorf("rejected move must not persist, got {%d,%d}", stored.X, stored.Y)
	}
}

func TestCanvasService_DeleteSelection_UndoRestoresPayload(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	if _, err := f.svc.OpenPage(ctx, f.pageID); err != nil {
		t.Fatalf("open page: %v", err)
	}
	a, err := f.svc.CreateBlock(ctx, f.pageID, domain.BlockTypeCode, 2, 1)
	if err != nil {
		t.Fatalf("create block: %v", err)
	}
	a.Content = "package main"
	if err := f.blocks.UpdateBlock(a); err != nil {
		t.Fatalf("update block: %v", err)
	}
	// Session cache follows the store through a reopen cycle.
	f.svc.ClosePage(f.pageID)
	if _, err := f.svc.OpenPage(ctx, f.pageID); err != nil {
		t.Fatalf("reopen page: %v", err)
	}

	if err := f.svc.ToggleSelect(f.pageID, a.ID, false); err != nil {
		t.Fatalf("select: %v", err)
	}
	deleted, err := f.svc.DeleteSelection(f.pageID)
	if err != nil {
		t.Fatalf("delete selection: %v", err)
	}
	if len(deleted) != 1 || deleted[0] != a.ID {
		t.Fatalf("expected [%s] deleted, got %v", a.ID, deleted)
	}
	if stored, _ := f.blocks.ListBlocks(f.pageID); len(stored) != 0 {
		t.Fatalf("expected block removed from store, got %d", len(stored))
	}

	undone, err := f.svc.Undo(ctx, f.pageID)
	if err != nil || !undone {
		t.Fatalf("undo: undone=%v err=%v", undone, err)
	}
	stored, err := f.blocks.ListBlocks(f.pageID)
	if err != nil {
		t.Fatalf("list blocks: %v", err)
	}
	if len(stored) != 1 {
		t.Fatalf("expected block restored, got %d blocks", len(stored))
	}
	if stored[0].Content != "package main" {
		t.Errorf("expected payload restored, got %q", stored[0].Content)
	}
	if got := len(f.emitter.Named("blocks:restored")); got != 1 {
		t.Errorf("expected 1 blocks:restored event, got %d", got)
	}
}

func TestCanvasService_UndoAtFloor(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	if _, err := f.svc.OpenPage(ctx, f.pageID); err != nil {
		t.Fatalf("open page: %v", err)
	}
	undone, err := f.svc.Undo(ctx, f.pageID)
	if err != nil {
		t.Fatalf("undo: %v", err)
	}
	if undone {
		t.Error("expected undo to report false with no history")
	}
}

func TestCanvasService_ReplaceLayout(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	if _, err := f.svc.OpenPage(ctx, f.pageID); err != nil {
		t.Fatalf("open page: %v", err)
	}
	a, _ := f.svc.CreateBlock(ctx, f.pageID, domain.BlockTypeMarkdown, 2, 1)
	b, _ := f.svc.CreateBlock(ctx, f.pageID, domain.BlockTypeMarkdown, 2, 1)

	err := f.svc.ReplaceLayout(ctx, f.pageID, map[string]layout.Position{
		a.ID:       {X: 0, Y: 2, Width: 2, Height: 1},
		b.ID:       {X: 4, Y: 2, Width: 2, Height: 1},
		"stranger": {X: 0, Y: 0, Width: 2, Height: 1},
	})
	if err != nil {
		t.Fatalf("replace layout: %v", err)
	}

	state, err := f.svc.PageState(f.pageID)
	if err != nil {
		t.Fatalf("state: %v", err)
	}
	for _, blk := range state.Blocks {
		if blk.ID == "stranger" {
			t.Fatal("unknown id must be skipped, not created")
		}
		if blk.Y != 2 {
			t.Errorf("block %s expected y=2, got %d", blk.ID, blk.Y)
		}
	}

	stored, err := f.blocks.GetBlock(a.ID)
	if err != nil {
		t.Fatalf("get block: %v", err)
	}
	if stored.Y != 2 {
		t.Errorf("expected persisted y=2, got %d", stored.Y)
	}
}

func TestCanvasService_ReplaceLayout_RejectsOverlap(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	if _, err := f.svc.OpenPage(ctx, f.pageID); err != nil {
		t.Fatalf("open page: %v", err)
	}
	a, _ := f.svc.CreateBlock(ctx, f.pageID, domain.BlockTypeMarkdown, 2, 1)
	b, _ := f.svc.CreateBlock(ctx, f.pageID, domain.BlockTypeMarkdown, 2, 1)

	err := f.svc.ReplaceLayout(ctx, f.pageID, map[string]layout.Position{
		a.ID: {X: 0, Y: 0, Width: 2, Height: 1},
		b.ID: {X: 1, Y: 0, Width: 2, Height: 1},
	})
	if err == nil {
		t.Fatal("expected overlapping layout to be rejected")
	}

	// The original layout survives.
	stored, getErr := f.blocks.GetBlock(b.ID)
	if getErr != nil {
		t.Fatalf("get block: %v", getErr)
	}
	if stored.X != b.X || stored.Y != b.Y {
		t.Errorf("expected block untouched at {%d,%d}, got {%d,%d}", b.X, b.Y, stored.X, stored.Y)
	}
}

func TestCanvasService_ClosePage_DropsSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	if _, err := f.svc.OpenPage(ctx, f.pageID); err != nil {
		t.Fatalf("open page: %v", err)
	}
	f.svc.ClosePage(f.pageID)

	if _, err := f.svc.PageState(f.pageID); err == nil {
		t.Fatal("expected error after close")
	}
	if got := f.svc.OpenPages(); len(got) != 0 {
		t.Fatalf("expected no open pages, got %v", got)
	}
}

func TestMaintenance_RunOnce_CompactsOpenPages(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	if _, err := f.svc.OpenPage(ctx, f.pageID); err != nil {
		t.Fatalf("open page: %v", err)
	}
	a, _ := f.svc.CreateBlock(ctx, f.pageID, domain.BlockTypeMarkdown, 2, 1)
	b, _ := f.svc.CreateBlock(ctx, f.pageID, domain.BlockTypeMarkdown, 2, 1)
	// Push b down to open a vertical gap.
	if err := f.svc.MoveBlock(f.pageID, b.ID, b.X, 5); err != nil {
		t.Fatalf("move: %v", err)
	}

	m := service.NewMaintenance(f.svc)
	m.RunOnce()
	m.Stop()

	state, err := f.svc.PageState(f.pageID)
	if err != nil {
		t.Fatalf("state: %v", err)
	}
	for _, blk := range state.Blocks {
		if blk.ID == b.ID && blk.Y != 0 {
			t.Errorf("expected gap closed for %s, got y=%d", b.ID, blk.Y)
		}
		if blk.ID == a.ID && blk.Y != 0 {
			t.Errorf("expected %s to stay at y=0, got y=%d", a.ID, blk.Y)
		}
	}
}
