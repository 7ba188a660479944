package layout

// DragSession is the transient state of one start-to-commit/cancel
// interaction. Exactly one may exist per canvas at a time. The ghost is a
// preview only; the committed block set stays collision-free throughout.
type DragSession struct {
	BlockID string
	Start   Position
	Ghost   Position
}

// StartDrag opens a drag session for a block. Rejected (returns false) when
// a session is already open or the id is unknown.
func (c *Canvas) StartDrag(id string) bool {
	if c.drag != nil {
		return false
	}
	start, ok := c.blocks[id]
	if !ok {
		return false
	}
	c.drag = &DragSession{BlockID: id, Start: start, Ghost: start}
	return true
}

// MoveDrag updates the ghost by translating the start position by a pixel
// delta, snapped through the grid. The committed blocks are untouched.
// Idempotent for a given delta; a no-op without an open session.
func (c *Canvas) MoveDrag(deltaXPx, deltaYPx float64) {
	if c.drag == nil {
		return
	}
	start := c.grid.ToPixels(c.drag.Start)
	c.drag.Ghost = c.grid.ToGrid(start.X+deltaXPx, start.Y+deltaYPx, c.drag.Start.Width, c.drag.Start.Height)
}

// Drag returns a copy of the open session, if any.
func (c *Canvas) Drag() (DragSession, bool) {
	if c.drag == nil {
		return DragSession{}, false
	}
	return *c.drag, true
}

// CommitDrag closes the session. If the ghost overlaps any other block the
// move is silently reverted: last writer loses to existing occupants, which
// are never displaced. On success the block takes the ghost position, a
// history entry is pushed, OnBlockMove fires, and a compaction pass is
// scheduled. Returns true only when the block actually moved.
func (c *Canvas) CommitDrag() bool {
	if c.drag == nil {
		return false
	}
	s := c.drag
	c.drag = nil
	if s.Ghost == s.Start {
		return false
	}
	if AnyCollision(s.Ghost, c.blocks, s.BlockID) {
		return false
	}
	c.blocks[s.BlockID] = s.Ghost
	c.history.Push(c.snapshot())
	if c.events.OnBlockMove != nil {
		c.events.OnBlockMove(s.BlockID, s.Ghost)
	}
	c.scheduleArrange()
	return true
}

// CancelDrag discards the session; blocks unchanged, no history entry.
func (c *Canvas) CancelDrag() {
	c.drag = nil
}
