package layout

import "sort"

// marqueeState tracks an in-progress rectangular drag-select in pixel space.
type marqueeState struct {
	originX, originY   float64
	currentX, currentY float64
}

func (m *marqueeState) rect() Rect {
	x0, x1 := m.originX, m.currentX
	if x1 < x0 {
		x0, x1 = x1, x0
	}
	y0, y1 := m.originY, m.currentY
	if y1 < y0 {
		y0, y1 = y1, y0
	}
	return Rect{X: x0, Y: y0, W: x1 - x0, H: y1 - y0}
}

// BeginMarquee starts a marquee at a pixel origin and clears the selection
// (marquee select is exclusive, not additive).
func (c *Canvas) BeginMarquee(pxX, pxY float64) {
	c.marquee = &marqueeState{originX: pxX, originY: pxY, currentX: pxX, currentY: pxY}
	c.setSelection(nil)
}

// UpdateMarquee extends the marquee to the current pointer position and
// recomputes the selection: every block whose pixel AABB strictly
// intersects the marquee rectangle.
func (c *Canvas) UpdateMarquee(pxX, pxY float64) {
	if c.marquee == nil {
		return
	}
	c.marquee.currentX, c.marquee.currentY = pxX, pxY
	r := c.marquee.rect()

	var hit []string
	for id, p := range c.blocks {
		if r.Intersects(c.grid.ToPixels(p)) {
			hit = append(hit, id)
		}
	}
	c.setSelection(hit)
}

// EndMarquee closes the marquee, keeping the selection it produced.
func (c *Canvas) EndMarquee() {
	c.marquee = nil
}

// Marquee returns the active marquee rectangle, if any.
func (c *Canvas) Marquee() (Rect, bool) {
	if c.marquee == nil {
		return Rect{}, false
	}
	return c.marquee.rect(), true
}

// Toggle selects a single block. With additive false the selection becomes
// exactly {id}; with additive true the id is XORed into the set. Unknown
// ids are rejected as a no-op.
func (c *Canvas) Toggle(id string, additive bool) {
	if _, ok := c.blocks[id]; !ok {
		return
	}
	if !additive {
		c.setSelection([]string{id})
		return
	}
	if _, sel := c.selected[id]; sel {
		delete(c.selected, id)
	} else {
		c.selected[id] = struct{}{}
	}
	c.emitSelection()
}

// SelectAll selects every block on the canvas.
func (c *Canvas) SelectAll() {
	all := make([]string, 0, len(c.blocks))
	for id := range c.blocks {
		all = append(all, id)
	}
	c.setSelection(all)
}

// ClearSelection empties the selection.
func (c *Canvas) ClearSelection() {
	c.setSelection(nil)
}

// Selected returns the selected ids in sorted order.
func (c *Canvas) Selected() []string {
	out := make([]string, 0, len(c.selected))
	for id := range c.selected {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// DeleteSelection removes every selected block as one batch: a single
// history entry and a single OnBlockDelete, regardless of how many blocks
// go. Returns the removed ids.
func (c *Canvas) DeleteSelection() []string {
	if len(c.selected) == 0 {
		return nil
	}
	return c.Delete(c.Selected()...)
}

// setSelection replaces the selection, emitting only on a real change.
func (c *Canvas) setSelection(ids []string) {
	next := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		next[id] = struct{}{}
	}
	if selectionEqual(c.selected, next) {
		return
	}
	c.selected = next
	c.emitSelection()
}

func (c *Canvas) emitSelection() {
	if c.events.OnSelectionChange != nil {
		c.events.OnSelectionChange(c.Selected())
	}
}

func selectionEqual(a, b map[string]struct{}) bool {
	if len(a) != len(b) {
		return false
	}
	for id := range a {
		if _, ok := b[id]; !ok {
			return false
		}
	}
	return true
}
