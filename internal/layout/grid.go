package layout

import (
	"fmt"
	"math"
)

// Engine constants. A block can never be narrower than MinWidth columns or
// shorter than MinHeight rows.
const (
	MinWidth  = 2
	MinHeight = 1
)

// Config defines the pixel geometry of one canvas grid. Immutable for the
// lifetime of a canvas session.
type Config struct {
	Columns     int `json:"columns"`
	RowHeightPx int `json:"rowHeightPx"`
	GapPx       int `json:"gapPx"`
	MaxWidthPx  int `json:"maxWidthPx"`
}

func (c Config) Validate() error {
	if c.Columns <= 0 {
		return fmt.Errorf("grid config: columns must be > 0, got %d", c.Columns)
	}
	if c.Columns < MinWidth {
		return fmt.Errorf("grid config: columns must be >= %d, got %d", MinWidth, c.Columns)
	}
	if c.RowHeightPx <= 0 {
		return fmt.Errorf("grid config: rowHeightPx must be > 0, got %d", c.RowHeightPx)
	}
	if c.GapPx < 0 {
		return fmt.Errorf("grid config: gapPx must be >= 0, got %d", c.GapPx)
	}
	if c.MaxWidthPx <= 0 {
		return fmt.Errorf("grid config: maxWidthPx must be > 0, got %d", c.MaxWidthPx)
	}
	return nil
}

// CellWidthPx is the pixel width of one column after the inter-column gaps
// are taken out of the total canvas width.
func (c Config) CellWidthPx() float64 {
	return (float64(c.MaxWidthPx) - float64(c.GapPx)*float64(c.Columns-1)) / float64(c.Columns)
}

// Position is a block's placement in grid units.
type Position struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Validate rejects a position that could not have come from the engine:
// negative coordinates, sub-minimum sizes, or overflow past the last column.
func (p Position) Validate(columns int) error {
	if p.X < 0 || p.Y < 0 {
		return fmt.Errorf("position: negative coordinates (%d, %d)", p.X, p.Y)
	}
	if p.Width < MinWidth {
		return fmt.Errorf("position: width %d below minimum %d", p.Width, MinWidth)
	}
	if p.Height < MinHeight {
		return fmt.Errorf("position: height %d below minimum %d", p.Height, MinHeight)
	}
	if p.X+p.Width > columns {
		return fmt.Errorf("position: x+width %d exceeds %d columns", p.X+p.Width, columns)
	}
	return nil
}

// Rect is an axis-aligned rectangle in pixel space.
type Rect struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// Intersects reports strict overlap: rectangles that only touch along an
// edge do not intersect.
func (a Rect) Intersects(b Rect) bool {
	return a.X < b.X+b.W && a.X+a.W > b.X &&
		a.Y < b.Y+b.H && a.Y+a.H > b.Y
}

// Grid converts between pixel space and grid units for one Config.
// Pure and deterministic; safe to share.
type Grid struct {
	cfg     Config
	cellW   float64
	rowStep float64
}

func NewGrid(cfg Config) (*Grid, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Grid{
		cfg:     cfg,
		cellW:   cfg.CellWidthPx(),
		rowStep: float64(cfg.RowHeightPx + cfg.GapPx),
	}, nil
}

func (g *Grid) Config() Config { return g.cfg }

// ToGrid snaps a pixel point to the nearest cell and returns a Position of
// the given size, clamped so the block stays on the board. Width and height
// default to the engine minimums when not provided (<= 0).
func (g *Grid) ToGrid(px, py float64, width, height int) Position {
	if width <= 0 {
		width = MinWidth
	}
	if height <= 0 {
		height = MinHeight
	}
	x := int(math.Round(px / g.cellW))
	y := int(math.Round(py / g.rowStep))
	if x < 0 {
		x = 0
	}
	if max := g.cfg.Columns - width; x > max {
		x = max
	}
	if y < 0 {
		y = 0
	}
	return Position{X: x, Y: y, Width: width, Height: height}
}

// CellEstimate is the unrounded cell coordinate of a pixel point. Used only
// for ghost previews when snapping is off; commits always go through ToGrid.
func (g *Grid) CellEstimate(px, py float64) (float64, float64) {
	return px / g.cellW, py / g.rowStep
}

// ToPixels maps a Position back to its pixel rectangle. The gap is
// subtracted from width and height so adjacent cells show a visible seam.
func (g *Grid) ToPixels(p Position) Rect {
	gap := float64(g.cfg.GapPx)
	return Rect{
		X: float64(p.X) * g.cellW,
		Y: float64(p.Y) * g.rowStep,
		W: float64(p.Width)*g.cellW - gap,
		H: float64(p.Height)*g.rowStep - gap,
	}
}
