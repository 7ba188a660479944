package layoutfile

import (
	"encoding/json"
	"fmt"
	"os"

	"boards/internal/domain"
	"boards/internal/layout"
)

// ─────────────────────────────────────────────────────────────
// Layout files — JSON snapshots of a page's block geometry
// ─────────────────────────────────────────────────────────────

// Entry is one block's geometry in a layout file, in grid units.
type Entry struct {
	ID     string `json:"id"`
	X      int    `json:"x"`
	Y      int    `json:"y"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// File is the on-disk layout document for one page.
type File struct {
	PageID  string  `json:"pageId"`
	Columns int     `json:"columns"`
	Entries []Entry `json:"entries"`
}

// FromBlocks builds a layout document from a page's blocks.
func FromBlocks(pageID string, columns int, blocks []domain.Block) *File {
	f := &File{PageID: pageID, Columns: columns, Entries: make([]Entry, 0, len(blocks))}
	for _, b := range blocks {
		f.Entries = append(f.Entries, Entry{
			ID: b.ID, X: b.X, Y: b.Y, Width: b.Width, Height: b.Height,
		})
	}
	return f
}

// Positions converts the document's entries into engine positions.
func (f *File) Positions() map[string]layout.Position {
	out := make(map[string]layout.Position, len(f.Entries))
	for _, e := range f.Entries {
		out[e.ID] = layout.Position{X: e.X, Y: e.Y, Width: e.Width, Height: e.Height}
	}
	return out
}

// Validate checks every entry stands alone and no two entries overlap.
// It does not check against the page's live blocks; unknown ids are the
// importer's concern.
func (f *File) Validate() error {
	if f.PageID == "" {
		return fmt.Errorf("layout file: missing pageId")
	}
	if f.Columns < layout.MinWidth {
		return fmt.Errorf("layout file: columns %d below minimum %d", f.Columns, layout.MinWidth)
	}
	seen := make(map[string]layout.Position, len(f.Entries))
	for _, e := range f.Entries {
		if e.ID == "" {
			return fmt.Errorf("layout file: entry with empty id")
		}
		if _, dup := seen[e.ID]; dup {
			return fmt.Errorf("layout file: duplicate entry %s", e.ID)
		}
		p := layout.Position{X: e.X, Y: e.Y, Width: e.Width, Height: e.Height}
		if err := p.Validate(f.Columns); err != nil {
			return fmt.Errorf("layout file: entry %s: %w", e.ID, err)
		}
		for id, other := range seen {
			if layout.Overlaps(p, other) {
				return fmt.Errorf("layout file: entries %s and %s overlap", e.ID, id)
			}
		}
		seen[e.ID] = p
	}
	return nil
}

// Save writes the document to path as indented JSON.
func Save(path string, f *File) error {
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("encode layout file: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write layout file: %w", err)
	}
	return nil
}

// Load reads and validates a layout document.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read layout file: %w", err)
	}
	f := &File{}
	if err := json.Unmarshal(data, f); err != nil {
		return nil, fmt.Errorf("parse layout file: %w", err)
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return f, nil
}
