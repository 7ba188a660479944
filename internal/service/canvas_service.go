package service

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/bep/debounce"
	"github.com/google/uuid"

	"boards/internal/domain"
	"boards/internal/layout"
	"boards/internal/storage"
)

// ─────────────────────────────────────────────────────────────
// Canvas Service — hosts one layout engine session per open page
// ─────────────────────────────────────────────────────────────

// compactionDelay is how long after the last commit the gap-closing
// compaction pass runs. Rapid drag-then-release sequences coalesce into a
// single pass.
const compactionDelay = 250 * time.Millisecond

// defaultSizes are the per-type block footprints in grid units.
var defaultSizes = map[domain.BlockType][2]int{
	domain.BlockTypeMarkdown: {4, 3},
	domain.BlockTypeCode:     {4, 3},
	domain.BlockTypeImage:    {3, 3},
	domain.BlockTypeDatabase: {6, 4},
	domain.BlockTypeChart:    {6, 4},
}

// CanvasService owns the open canvas sessions. The engine itself is
// single-threaded; the service serializes all engine access behind one
// mutex and installs the debounced compaction scheduler.
type CanvasService struct {
	blocks  *storage.BlockStore
	pages   *storage.NotebookStore
	emitter EventEmitter

	mu       sync.Mutex
	sessions map[string]*canvasSession
}

// canvasSession is one open page: the engine canvas plus the full block
// records it positions. known keeps deleted blocks around so undo can
// restore their payloads.
type canvasSession struct {
	pageID string
	canvas *layout.Canvas
	known  map[string]domain.Block
}

// NewCanvasService creates a CanvasService.
func NewCanvasService(blocks *storage.BlockStore, pages *storage.NotebookStore, emitter EventEmitter) *CanvasService {
	return &CanvasService{
		blocks:   blocks,
		pages:    pages,
		emitter:  emitter,
		sessions: make(map[string]*canvasSession),
	}
}

// OpenPage loads a page and its blocks into a canvas session. Idempotent:
// opening an already-open page returns its current state.
func (s *CanvasService) OpenPage(ctx context.Context, pageID string) (*domain.PageState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok := s.sessions[pageID]; ok {
		return s.stateLocked(sess)
	}

	page, err := s.pages.GetPage(pageID)
	if err != nil {
		return nil, err
	}
	blocks, err := s.blocks.ListBlocks(pageID)
	if err != nil {
		return nil, fmt.Errorf("list blocks: %w", err)
	}

	sess := &canvasSession{
		pageID: pageID,
		known:  make(map[string]domain.Block, len(blocks)),
	}
	cfg := layout.Config{
		Columns:     page.GridColumns,
		RowHeightPx: page.RowHeightPx,
		GapPx:       page.GapPx,
		MaxWidthPx:  page.MaxWidthPx,
	}
	canvas, err := layout.NewCanvas(cfg, s.eventsFor(ctx, sess))
	if err != nil {
		return nil, fmt.Errorf("open page %s: %w", pageID, err)
	}

	positions := make(map[string]layout.Position, len(blocks))
	for _, b := range blocks {
		sess.known[b.ID] = b
		positions[b.ID] = layout.Position{X: b.X, Y: b.Y, Width: b.Width, Height: b.Height}
	}
	// The persisted shape is validated here, at the load boundary.
	if err := canvas.Load(positions); err != nil {
		return nil, fmt.Errorf("open page %s: %w", pageID, err)
	}

	debounced := debounce.New(compactionDelay)
	canvas.SetArrangeScheduler(func(run func()) {
		debounced(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			run()
		})
	})

	sess.canvas = canvas
	s.sessions[pageID] = sess
	return s.stateLocked(sess)
}

// ClosePage drops the session. Committed state is already persisted.
func (s *CanvasService) ClosePage(pageID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, pageID)
}

// OpenPages returns the ids of every page with a live session.
func (s *CanvasService) OpenPages() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.sessions))
	for id := range s.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// PageState returns the current state of an open page.
func (s *CanvasService) PageState(pageID string) (*domain.PageState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, err := s.session(pageID)
	if err != nil {
		return nil, err
	}
	return s.stateLocked(sess)
}

// ── Interactive drag ───────────────────────────────────────

// StartDrag opens a drag session for a block. False when a session is
// already open or the block is unknown (rejected, not an error).
func (s *CanvasService) StartDrag(pageID, blockID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, err := s.session(pageID)
	if err != nil {
		return false, err
	}
	return sess.canvas.StartDrag(blockID), nil
}

// MoveDrag updates the ghost preview by a pixel delta.
func (s *CanvasService) MoveDrag(pageID string, deltaXPx, deltaYPx float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, err := s.session(pageID)
	if err != nil {
		return err
	}
	sess.canvas.MoveDrag(deltaXPx, deltaYPx)
	return nil
}

// Ghost returns the current ghost position of an active drag.
func (s *CanvasService) Ghost(pageID string) (layout.Position, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, err := s.session(pageID)
	if err != nil {
		return layout.Position{}, false, err
	}
	d, open := sess.canvas.Drag()
	return d.Ghost, open, nil
}

// CommitDrag closes the drag session; a conflicting ghost silently reverts.
func (s *CanvasService) CommitDrag(pageID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, err := s.session(pageID)
	if err != nil {
		return false, err
	}
	return sess.canvas.CommitDrag(), nil
}

// CancelDrag discards the drag session.
func (s *CanvasService) CancelDrag(pageID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, err := s.session(pageID)
	if err != nil {
		return err
	}
	sess.canvas.CancelDrag()
	return nil
}

// ── Marquee selection ──────────────────────────────────────

func (s *CanvasService) BeginMarquee(pageID string, pxX, pxY float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, err := s.session(pageID)
	if err != nil {
		return err
	}
	sess.canvas.BeginMarquee(pxX, pxY)
	return nil
}

func (s *CanvasService) UpdateMarquee(pageID string, pxX, pxY float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, err := s.session(pageID)
	if err != nil {
		return err
	}
	sess.canvas.UpdateMarquee(pxX, pxY)
	return nil
}

func (s *CanvasService) EndMarquee(pageID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, err := s.session(pageID)
	if err != nil {
		return err
	}
	sess.canvas.EndMarquee()
	return nil
}

// ToggleSelect selects one block, additively or exclusively.
func (s *CanvasService) ToggleSelect(pageID, blockID string, additive bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, err := s.session(pageID)
	if err != nil {
		return err
	}
	sess.canvas.Toggle(blockID, additive)
	return nil
}

// ClearSelection empties the selection on an open page.
func (s *CanvasService) ClearSelection(pageID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, err := s.session(pageID)
	if err != nil {
		return err
	}
	sess.canvas.ClearSelection()
	return nil
}

// Selected returns the selected block ids of an open page.
func (s *CanvasService) Selected(pageID string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, err := s.session(pageID)
	if err != nil {
		return nil, err
	}
	return sess.canvas.Selected(), nil
}

// DispatchKey forwards a keyboard event to the engine.
func (s *CanvasService) DispatchKey(pageID, key string, mods layout.Modifiers) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, err := s.session(pageID)
	if err != nil {
		return err
	}
	sess.canvas.DispatchKey(key, mods)
	return nil
}

// ── Block lifecycle ────────────────────────────────────────

// CreateBlock creates a block in the first free slot. Width/height of 0
// take the per-type defaults.
func (s *CanvasService) CreateBlock(ctx context.Context, pageID string, blockType domain.BlockType, width, height int) (*domain.Block, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, err := s.session(pageID)
	if err != nil {
		return nil, err
	}

	if width <= 0 || height <= 0 {
		if d, ok := defaultSizes[blockType]; ok {
			width, height = d[0], d[1]
		} else {
			width, height = defaultSizes[domain.BlockTypeMarkdown][0], defaultSizes[domain.BlockTypeMarkdown][1]
		}
	}

	id := uuid.New().String()
	pos, err := sess.canvas.Insert(id, width, height)
	if err != nil {
		return nil, fmt.Errorf("place block: %w", err)
	}

	b := &domain.Block{
		ID:        id,
		PageID:    pageID,
		Type:      blockType,
		X:         pos.X,
		Y:         pos.Y,
		Width:     pos.Width,
		Height:    pos.Height,
		Content:   "",
		StyleJSON: "{}",
	}
	if err := s.blocks.CreateBlock(b); err != nil {
		return nil, fmt.Errorf("create block: %w", err)
	}
	sess.known[id] = *b
	s.emitter.Emit(ctx, "block:created", b)
	return b, nil
}

// DuplicateBlock copies a block (payload included) into the first free slot.
func (s *CanvasService) DuplicateBlock(ctx context.Context, pageID, blockID string) (*domain.Block, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, err := s.session(pageID)
	if err != nil {
		return nil, err
	}
	src, ok := sess.known[blockID]
	if !ok {
		return nil, fmt.Errorf("duplicate: unknown block %s", blockID)
	}

	id := uuid.New().String()
	pos, err := sess.canvas.Duplicate(blockID, id)
	if err != nil {
		return nil, fmt.Errorf("place copy: %w", err)
	}

	b := src
	b.ID = id
	b.X, b.Y, b.Width, b.Height = pos.X, pos.Y, pos.Width, pos.Height
	if err := s.blocks.CreateBlock(&b); err != nil {
		return nil, fmt.Errorf("create copy: %w", err)
	}
	sess.known[id] = b
	s.emitter.Emit(ctx, "block:created", &b)
	return &b, nil
}

// MoveBlock relocates a block directly; an occupied target is an error.
func (s *CanvasService) MoveBlock(pageID, blockID string, x, y int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, err := s.session(pageID)
	if err != nil {
		return err
	}
	p, ok := sess.canvas.BlockPosition(blockID)
	if !ok {
		return fmt.Errorf("move: unknown block %s", blockID)
	}
	p.X, p.Y = x, y
	return sess.canvas.MoveBlock(blockID, p)
}

// ResizeBlock changes a block's footprint; growing into a neighbor is an
// error.
func (s *CanvasService) ResizeBlock(pageID, blockID string, width, height int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, err := s.session(pageID)
	if err != nil {
		return err
	}
	return sess.canvas.ResizeBlock(blockID, width, height)
}

// DeleteBlocks removes blocks as one batch with one history entry.
func (s *CanvasService) DeleteBlocks(pageID string, blockIDs ...string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, err := s.session(pageID)
	if err != nil {
		return nil, err
	}
	return sess.canvas.Delete(blockIDs...), nil
}

// DeleteSelection removes every selected block as one batch.
func (s *CanvasService) DeleteSelection(pageID string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, err := s.session(pageID)
	if err != nil {
		return nil, err
	}
	return sess.canvas.DeleteSelection(), nil
}

// Arrange runs a compaction pass now, skipping the debounce.
func (s *CanvasService) Arrange(pageID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, err := s.session(pageID)
	if err != nil {
		return false, err
	}
	return sess.canvas.Arrange(), nil
}

// ── Undo / redo ────────────────────────────────────────────

// Undo steps the page back one committed layout. False when already at the
// oldest entry.
func (s *CanvasService) Undo(ctx context.Context, pageID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, err := s.session(pageID)
	if err != nil {
		return false, err
	}
	return s.restoreLocked(ctx, sess, sess.canvas.Undo())
}

// Redo steps the page forward one committed layout.
func (s *CanvasService) Redo(ctx context.Context, pageID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, err := s.session(pageID)
	if err != nil {
		return false, err
	}
	return s.restoreLocked(ctx, sess, sess.canvas.Redo())
}

// restoreLocked applies a history snapshot to the engine and syncs the
// store with the restored layout.
func (s *CanvasService) restoreLocked(ctx context.Context, sess *canvasSession, snap layout.Snapshot) (bool, error) {
	if snap == nil {
		return false, nil
	}
	if err := sess.canvas.ApplySnapshot(snap); err != nil {
		return false, err
	}

	restored := make([]domain.Block, 0, len(snap))
	for id, pos := range snap {
		b, ok := sess.known[id]
		if !ok {
			// A block the session never saw; restore position only.
			b = domain.Block{ID: id, PageID: sess.pageID, Type: domain.BlockTypeMarkdown, StyleJSON: "{}"}
		}
		b.X, b.Y, b.Width, b.Height = pos.X, pos.Y, pos.Width, pos.Height
		sess.known[id] = b
		restored = append(restored, b)
	}
	sort.Slice(restored, func(i, j int) bool { return restored[i].ID < restored[j].ID })

	// The engine is the source of truth for the open session; a failed
	// write is logged, not rolled back.
	if err := s.blocks.ReplacePageBlocks(sess.pageID, restored); err != nil {
		log.Printf("canvas: persist restored layout for page %s: %v", sess.pageID, err)
	}
	s.emitter.Emit(ctx, "blocks:restored", map[string]any{"pageId": sess.pageID, "blocks": restored})
	return true, nil
}

// ── Layout files ───────────────────────────────────────────

// ReplaceLayout applies externally supplied positions (an imported layout
// file) to the blocks that exist on the page. Ids the page does not have
// are skipped; the combined layout is re-validated before it is applied.
func (s *CanvasService) ReplaceLayout(ctx context.Context, pageID string, positions map[string]layout.Position) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, err := s.session(pageID)
	if err != nil {
		return err
	}

	next := sess.canvas.Blocks()
	applied := 0
	for id, pos := range positions {
		if _, ok := next[id]; ok {
			next[id] = pos
			applied++
		}
	}
	if applied == 0 {
		return nil
	}
	if err := sess.canvas.Load(next); err != nil {
		return fmt.Errorf("replace layout: %w", err)
	}

	for id, pos := range next {
		if err := s.blocks.UpdateBlockPosition(id, pos.X, pos.Y, pos.Width, pos.Height); err != nil {
			log.Printf("canvas: persist layout for block %s: %v", id, err)
		}
		if b, ok := sess.known[id]; ok {
			b.X, b.Y, b.Width, b.Height = pos.X, pos.Y, pos.Width, pos.Height
			sess.known[id] = b
		}
	}
	s.emitter.Emit(ctx, "layout:reloaded", map[string]any{"pageId": pageID})
	return nil
}

// ── Internals ──────────────────────────────────────────────

func (s *CanvasService) session(pageID string) (*canvasSession, error) {
	sess, ok := s.sessions[pageID]
	if !ok {
		return nil, fmt.Errorf("page %s is not open", pageID)
	}
	return sess, nil
}

func (s *CanvasService) stateLocked(sess *canvasSession) (*domain.PageState, error) {
	page, err := s.pages.GetPage(sess.pageID)
	if err != nil {
		return nil, err
	}

	positions := sess.canvas.Blocks()
	blocks := make([]domain.Block, 0, len(positions))
	for id, pos := range positions {
		b := sess.known[id]
		b.X, b.Y, b.Width, b.Height = pos.X, pos.Y, pos.Width, pos.Height
		blocks = append(blocks, b)
	}
	sort.Slice(blocks, func(i, j int) bool {
		if !blocks[i].CreatedAt.Equal(blocks[j].CreatedAt) {
			return blocks[i].CreatedAt.Before(blocks[j].CreatedAt)
		}
		return blocks[i].ID < blocks[j].ID
	})

	return &domain.PageState{
		Page:     *page,
		Blocks:   blocks,
		Selected: sess.canvas.Selected(),
	}, nil
}

// eventsFor wires the engine's outbound callbacks to persistence and the
// event emitter. Persistence is fire-and-forget relative to the engine.
func (s *CanvasService) eventsFor(ctx context.Context, sess *canvasSession) layout.Events {
	return layout.Events{
		OnBlockMove: func(id string, pos layout.Position) {
			if err := s.blocks.UpdateBlockPosition(id, pos.X, pos.Y, pos.Width, pos.Height); err != nil {
				log.Printf("canvas: persist move for block %s: %v", id, err)
			}
			if b, ok := sess.known[id]; ok {
				b.X, b.Y, b.Width, b.Height = pos.X, pos.Y, pos.Width, pos.Height
				sess.known[id] = b
			}
			s.emitter.Emit(ctx, "block:moved", map[string]any{
				"pageId": sess.pageID, "blockId": id, "position": pos,
			})
		},
		OnBlocksReorder: func(ids []string, positions []layout.Position) {
			for i, id := range ids {
				pos := positions[i]
				if err := s.blocks.UpdateBlockPosition(id, pos.X, pos.Y, pos.Width, pos.Height); err != nil {
					log.Printf("canvas: persist reorder for block %s: %v", id, err)
				}
				if b, ok := sess.known[id]; ok {
					b.X, b.Y, b.Width, b.Height = pos.X, pos.Y, pos.Width, pos.Height
					sess.known[id] = b
				}
			}
			s.emitter.Emit(ctx, "blocks:reordered", map[string]any{
				"pageId": sess.pageID, "blockIds": ids, "positions": positions,
			})
		},
		OnBlockDelete: func(ids []string) {
			for _, id := range ids {
				if err := s.blocks.DeleteBlock(id); err != nil {
					log.Printf("canvas: delete block %s: %v", id, err)
				}
				// Kept in known so undo can restore the payload.
			}
			s.emitter.Emit(ctx, "blocks:deleted", map[string]any{
				"pageId": sess.pageID, "blockIds": ids,
			})
		},
		OnSelectionChange: func(ids []string) {
			s.emitter.Emit(ctx, "selection:changed", map[string]any{
				"pageId": sess.pageID, "blockIds": ids,
			})
		},
	}
}
