package layout

// HistoryLimit caps the number of retained layout snapshots. Once full, the
// oldest entry is evicted first.
const HistoryLimit = 50

// Snapshot is an immutable copy of every block's position at one point in
// time. Payloads are not captured; restoring one is the caller's job.
type Snapshot map[string]Position

func (s Snapshot) clone() Snapshot {
	out := make(Snapshot, len(s))
	for id, p := range s {
		out[id] = p
	}
	return out
}

// History is a bounded undo/redo stack over committed layouts, backed by a
// fixed-capacity ring so the entry bound is structural rather than a
// convention enforced by truncation.
type History struct {
	entries [HistoryLimit]Snapshot
	start   int // ring index of the logical first entry
	length  int
	cursor  int // logical index of the current entry, in [0, length)
}

// NewHistory creates a stack whose entry 0 is the initial layout.
func NewHistory(initial Snapshot) *History {
	h := &History{length: 1}
	h.entries[0] = initial.clone()
	return h
}

func (h *History) at(i int) Snapshot {
	return h.entries[(h.start+i)%HistoryLimit]
}

// Push records a committed layout. Any redo tail past the cursor is
// discarded, and the oldest entry is evicted once the ring is full.
func (h *History) Push(s Snapshot) {
	h.length = h.cursor + 1 // redo tail invalidated by the new action
	if h.length == HistoryLimit {
		h.start = (h.start + 1) % HistoryLimit
		h.length--
	}
	h.entries[(h.start+h.length)%HistoryLimit] = s.clone()
	h.length++
	h.cursor = h.length - 1
}

// Undo steps the cursor back and returns that snapshot, or nil when already
// at the oldest entry. The snapshot is not applied; callers re-validate and
// swap state themselves.
func (h *History) Undo() Snapshot {
	if h.cursor == 0 {
		return nil
	}
	h.cursor--
	return h.at(h.cursor).clone()
}

// Redo steps the cursor forward and returns that snapshot, or nil when
// already at the newest entry.
func (h *History) Redo() Snapshot {
	if h.cursor == h.length-1 {
		return nil
	}
	h.cursor++
	return h.at(h.cursor).clone()
}

func (h *History) Len() int      { return h.length }
func (h *History) CanUndo() bool { return h.cursor > 0 }
func (h *History) CanRedo() bool { return h.cursor < h.length-1 }
