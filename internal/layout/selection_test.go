package layout

import (
	"reflect"
	"testing"
)

func threeBlockRow() map[string]Position {
	return map[string]Position{
		"a": {0, 0, 2, 1},
		"b": {4, 0, 2, 1},
		"c": {8, 0, 2, 1},
	}
}

func TestMarquee_SelectsIntersectingBlocks(t *testing.T) {
	var lastSelection []string
	c, _ := newTestCanvas(t, Events{
		OnSelectionChange: func(ids []string) { lastSelection = ids },
	}, threeBlockRow())

	// Cell width 100: a spans [0,200), b [400,600), c [800,1000).
	c.BeginMarquee(0, 0)
	c.UpdateMarquee(450, 25)
	c.EndMarquee()

	want := []string{"a", "b"}
	if !reflect.DeepEqual(c.Selected(), want) {
		t.Errorf("selected = %v, want %v", c.Selected(), want)
	}
	if !reflect.DeepEqual(lastSelection, want) {
		t.Errorf("OnSelectionChange = %v, want %v", lastSelection, want)
	}
}

func TestMarquee_TouchingEdgeDoesNotSelect(t *testing.T) {
	c, _ := newTestCanvas(t, Events{}, threeBlockRow())

	// Marquee ends exactly at b's left edge (x=400): strict overlap, no hit.
	c.BeginMarquee(0, 0)
	c.UpdateMarquee(400, 25)

	if got := c.Selected(); !reflect.DeepEqual(got, []string{"a"}) {
		t.Errorf("selected = %v, want [a]", got)
	}
}

func TestMarquee_ReplacesPriorSelection(t *testing.T) {
	c, _ := newTestCanvas(t, Events{}, threeBlockRow())
	c.Toggle("c", false)

	c.BeginMarquee(0, 0)
	c.UpdateMarquee(150, 25)
	c.EndMarquee()

	if got := c.Selected(); !reflect.DeepEqual(got, []string{"a"}) {
		t.Errorf("marquee select is exclusive; got %v", got)
	}
}

func TestToggle(t *testing.T) {
	c, _ := newTestCanvas(t, Events{}, threeBlockRow())

	c.Toggle("a", false)
	if got := c.Selected(); !reflect.DeepEqual(got, []string{"a"}) {
		t.Fatalf("selected = %v, want [a]", got)
	}

	// Non-additive replaces.
	c.Toggle("b", false)
	if got := c.Selected(); !reflect.DeepEqual(got, []string{"b"}) {
		t.Fatalf("selected = %v, want [b]", got)
	}

	// Additive XORs in and out.
	c.Toggle("a", true)
	if got := c.Selected(); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Fatalf("selected = %v, want [a b]", got)
	}
	c.Toggle("b", true)
	if got := c.Selected(); !reflect.DeepEqual(got, []string{"a"}) {
		t.Fatalf("selected = %v, want [a]", got)
	}

	// Unknown ids are a no-op, not an error.
	c.Toggle("zzz", true)
	if got := c.Selected(); !reflect.DeepEqual(got, []string{"a"}) {
		t.Fatalf("selected = %v after unknown toggle, want [a]", got)
	}
}

func TestSelectAllAndClear(t *testing.T) {
	events := 0
	c, _ := newTestCanvas(t, Events{
		OnSelectionChange: func([]string) { events++ },
	}, threeBlockRow())

	c.SelectAll()
	if got := c.Selected(); len(got) != 3 {
		t.Fatalf("selected %d blocks, want 3", len(got))
	}
	c.SelectAll() // no change, no event
	c.ClearSelection()
	if got := c.Selected(); len(got) != 0 {
		t.Fatalf("selected = %v after clear", got)
	}
	if events != 2 {
		t.Errorf("OnSelectionChange fired %d times, want 2 (select, clear)", events)
	}
}

func TestDeleteSelection_OneBatchOneHistoryEntry(t *testing.T) {
	var deleted [][]string
	c, _ := newTestCanvas(t, Events{
		OnBlockDelete: func(ids []string) { deleted = append(deleted, ids) },
	}, threeBlockRow())

	c.Toggle("a", false)
	c.Toggle("b", true)
	removed := c.DeleteSelection()

	if !reflect.DeepEqual(removed, []string{"a", "b"}) {
		t.Fatalf("removed = %v, want [a b]", removed)
	}
	if len(deleted) != 1 || !reflect.DeepEqual(deleted[0], []string{"a", "b"}) {
		t.Fatalf("OnBlockDelete batches = %v, want one batch [a b]", deleted)
	}
	if len(c.Selected()) != 0 {
		t.Error("selection should be cleared after batch delete")
	}
	if len(c.Blocks()) != 1 {
		t.Errorf("%d blocks remain, want 1", len(c.Blocks()))
	}

	// Exactly one history entry: a single undo restores both blocks.
	s := c.Undo()
	if s == nil {
		t.Fatal("expected an undo entry")
	}
	if len(s) != 3 {
		t.Errorf("undo snapshot has %d blocks, want 3", len(s))
	}
	if c.Undo() != nil {
		t.Error("batch delete must produce exactly one history entry")
	}
}

func TestDeleteSelection_EmptySelectionIsNoOp(t *testing.T) {
	c, _ := newTestCanvas(t, Events{}, threeBlockRow())
	if removed := c.DeleteSelection(); removed != nil {
		t.Errorf("removed = %v, want nil", removed)
	}
	if c.CanUndo() {
		t.Error("no history entry for an empty delete")
	}
}
