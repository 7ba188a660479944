package layout

import (
	"errors"
	"fmt"
)

// ErrOccupied rejects a placement that would overlap an existing block.
var ErrOccupied = errors.New("layout: position occupied")

// Events are the outbound callbacks fired synchronously when a mutation is
// committed. Nil callbacks are skipped.
type Events struct {
	OnBlockMove       func(id string, pos Position)
	OnBlocksReorder   func(ids []string, positions []Position)
	OnBlockDelete     func(ids []string)
	OnSelectionChange func(ids []string)
}

// Scheduler defers a post-commit compaction run. The host installs a
// debounced scheduler so rapid successive commits coalesce into one pass;
// a newer scheduled run supersedes an older unexecuted one. The default
// scheduler runs synchronously.
type Scheduler func(run func())

// Canvas is the stateful layout controller for one open page. It owns the
// block position set, the selection, the drag session, and the history
// stack. All methods are synchronous and must be called from a single
// goroutine; the canvas does no locking of its own.
type Canvas struct {
	grid     *Grid
	blocks   map[string]Position
	selected map[string]struct{}
	drag     *DragSession
	marquee  *marqueeState
	history  *History
	events   Events
	schedule Scheduler
}

// NewCanvas creates an empty canvas for the given grid config.
func NewCanvas(cfg Config, events Events) (*Canvas, error) {
	grid, err := NewGrid(cfg)
	if err != nil {
		return nil, err
	}
	c := &Canvas{
		grid:     grid,
		blocks:   make(map[string]Position),
		selected: make(map[string]struct{}),
		events:   events,
		schedule: func(run func()) { run() },
	}
	c.history = NewHistory(c.snapshot())
	return c, nil
}

// SetArrangeScheduler replaces the post-commit compaction scheduler.
func (c *Canvas) SetArrangeScheduler(s Scheduler) {
	if s != nil {
		c.schedule = s
	}
}

func (c *Canvas) Grid() *Grid { return c.grid }

// Blocks returns a copy of the committed position set.
func (c *Canvas) Blocks() map[string]Position {
	out := make(map[string]Position, len(c.blocks))
	for id, p := range c.blocks {
		out[id] = p
	}
	return out
}

// BlockPosition returns the committed position of one block.
func (c *Canvas) BlockPosition(id string) (Position, bool) {
	p, ok := c.blocks[id]
	return p, ok
}

func (c *Canvas) snapshot() Snapshot {
	return Snapshot(c.blocks).clone()
}

// validateLayout checks every position and the pairwise no-overlap
// invariant before a whole layout is accepted.
func (c *Canvas) validateLayout(blocks map[string]Position) error {
	ids := make([]string, 0, len(blocks))
	for id, p := range blocks {
		if err := p.Validate(c.grid.cfg.Columns); err != nil {
			return fmt.Errorf("block %s: %w", id, err)
		}
		ids = append(ids, id)
	}
	for i := 0; i < len(ids); i++ {
		for j := i + 1; j < len(ids); j++ {
			if Overlaps(blocks[ids[i]], blocks[ids[j]]) {
				return fmt.Errorf("blocks %s and %s overlap", ids[i], ids[j])
			}
		}
	}
	return nil
}

// Load replaces the canvas contents with a persisted layout. The layout is
// validated at this boundary; a malformed position is a construction
// failure, never allowed to corrupt the invariant. Load resets selection,
// drag state, and history (the loaded layout becomes history entry 0).
func (c *Canvas) Load(blocks map[string]Position) error {
	if err := c.validateLayout(blocks); err != nil {
		return fmt.Errorf("load layout: %w", err)
	}
	c.blocks = Snapshot(blocks).clone()
	c.selected = make(map[string]struct{})
	c.drag = nil
	c.marquee = nil
	c.history = NewHistory(c.snapshot())
	return nil
}

// InsertAt places a new block at an explicit position. Fails if the id is
// taken, the position is malformed, or the slot is occupied.
func (c *Canvas) InsertAt(id string, pos Position) error {
	if _, exists := c.blocks[id]; exists {
		return fmt.Errorf("insert block %s: id already on canvas", id)
	}
	if err := pos.Validate(c.grid.cfg.Columns); err != nil {
		return fmt.Errorf("insert block %s: %w", id, err)
	}
	if AnyCollision(pos, c.blocks, "") {
		return fmt.Errorf("insert block %s: %w", id, ErrOccupied)
	}
	c.blocks[id] = pos
	c.history.Push(c.snapshot())
	return nil
}

// Insert places a new block of the given size in the first free slot.
func (c *Canvas) Insert(id string, width, height int) (Position, error) {
	pos, err := FindFreePosition(c.grid.cfg.Columns, width, height, c.blocks)
	if err != nil {
		return Position{}, err
	}
	if err := c.InsertAt(id, pos); err != nil {
		return Position{}, err
	}
	return pos, nil
}

// Duplicate copies an existing block's footprint into the first free slot.
func (c *Canvas) Duplicate(id, newID string) (Position, error) {
	src, ok := c.blocks[id]
	if !ok {
		return Position{}, fmt.Errorf("duplicate: unknown block %s", id)
	}
	return c.Insert(newID, src.Width, src.Height)
}

// MoveBlock relocates a block directly (no drag session). Unlike an
// interactive commit there is no start position to revert to, so a
// conflicting target is an error rather than a silent revert.
func (c *Canvas) MoveBlock(id string, pos Position) error {
	if _, ok := c.blocks[id]; !ok {
		return fmt.Errorf("move: unknown block %s", id)
	}
	if err := pos.Validate(c.grid.cfg.Columns); err != nil {
		return fmt.Errorf("move block %s: %w", id, err)
	}
	if AnyCollision(pos, c.blocks, id) {
		return fmt.Errorf("move block %s: %w", id, ErrOccupied)
	}
	if c.blocks[id] == pos {
		return nil
	}
	c.blocks[id] = pos
	c.history.Push(c.snapshot())
	if c.events.OnBlockMove != nil {
		c.events.OnBlockMove(id, pos)
	}
	return nil
}

// ResizeBlock changes a block's footprint in place, keeping its origin.
func (c *Canvas) ResizeBlock(id string, width, height int) error {
	p, ok := c.blocks[id]
	if !ok {
		return fmt.Errorf("resize: unknown block %s", id)
	}
	p.Width, p.Height = width, height
	return c.MoveBlock(id, p)
}

// Delete removes the given blocks as one batch: one history entry, one
// OnBlockDelete callback. Unknown ids are skipped; returns the ids that
// were actually removed.
func (c *Canvas) Delete(ids ...string) []string {
	var removed []string
	selectionChanged := false
	for _, id := range ids {
		if _, ok := c.blocks[id]; !ok {
			continue
		}
		delete(c.blocks, id)
		if _, sel := c.selected[id]; sel {
			delete(c.selected, id)
			selectionChanged = true
		}
		removed = append(removed, id)
	}
	if len(removed) == 0 {
		return nil
	}
	c.history.Push(c.snapshot())
	if c.events.OnBlockDelete != nil {
		c.events.OnBlockDelete(removed)
	}
	if selectionChanged {
		c.emitSelection()
	}
	return removed
}

// Arrange runs compaction now. Returns false when the layout was already
// compact. The new positions are applied as one batch so observers never
// see a partially compacted state.
func (c *Canvas) Arrange() bool {
	ids, positions := AutoArrange(c.blocks)
	if ids == nil {
		return false
	}
	for i, id := range ids {
		c.blocks[id] = positions[i]
	}
	c.history.Push(c.snapshot())
	if c.events.OnBlocksReorder != nil {
		c.events.OnBlocksReorder(ids, positions)
	}
	return true
}

func (c *Canvas) scheduleArrange() {
	c.schedule(func() { c.Arrange() })
}

// Undo steps history back and returns the snapshot to apply, or nil at the
// oldest entry. Apply with ApplySnapshot after any caller-side validation.
func (c *Canvas) Undo() Snapshot { return c.history.Undo() }

// Redo steps history forward; nil at the newest entry.
func (c *Canvas) Redo() Snapshot { return c.history.Redo() }

func (c *Canvas) CanUndo() bool { return c.history.CanUndo() }
func (c *Canvas) CanRedo() bool { return c.history.CanRedo() }

// ApplySnapshot swaps the committed layout for a history snapshot. The
// snapshot is re-validated before the swap; history itself is not touched.
func (c *Canvas) ApplySnapshot(s Snapshot) error {
	if err := c.validateLayout(s); err != nil {
		return fmt.Errorf("apply snapshot: %w", err)
	}
	c.blocks = s.clone()
	selectionChanged := false
	for id := range c.selected {
		if _, ok := c.blocks[id]; !ok {
			delete(c.selected, id)
			selectionChanged = true
		}
	}
	if selectionChanged {
		c.emitSelection()
	}
	return nil
}

// Modifiers are the keyboard modifier flags for DispatchKey.
type Modifiers struct {
	Ctrl  bool
	Meta  bool
	Shift bool
}

// DispatchKey is the explicit keyboard entry point: Delete/Backspace remove
// the selection, Ctrl/Cmd+A selects all, Escape cancels an active drag or
// clears the selection.
func (c *Canvas) DispatchKey(key string, mods Modifiers) {
	switch key {
	case "Delete", "Backspace":
		c.DeleteSelection()
	case "a", "A":
		if mods.Ctrl || mods.Meta {
			c.SelectAll()
		}
	case "Escape":
		if c.drag != nil {
			c.CancelDrag()
			return
		}
		c.marquee = nil
		c.ClearSelection()
	}
}
