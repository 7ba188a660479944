package layout

import (
	"errors"
	"sort"
)

// maxScanRows bounds the free-slot scan so placement always terminates.
const maxScanRows = 100

// ErrBoardFull is returned when no free slot exists within the scan bound.
// The original editor silently fell back to (0,0) here, which could commit
// an overlapping layout; placement reports the condition instead.
var ErrBoardFull = errors.New("layout: no free position within scan bound")

// FindFreePosition scans rows top to bottom, columns left to right, and
// returns the first slot of the given size that collides with no block.
// Width and height default to the engine minimums when not provided (<= 0).
func FindFreePosition(columns, width, height int, blocks map[string]Position) (Position, error) {
	if width <= 0 {
		width = MinWidth
	}
	if height <= 0 {
		height = MinHeight
	}
	for y := 0; y < maxScanRows; y++ {
		for x := 0; x <= columns-width; x++ {
			candidate := Position{X: x, Y: y, Width: width, Height: height}
			if !AnyCollision(candidate, blocks, "") {
				return candidate, nil
			}
		}
	}
	return Position{}, ErrBoardFull
}

type cell struct{ x, y int }

// AutoArrange compacts the layout by removing vertical gaps. Blocks are
// processed in reading order (y, then x) and each keeps its column while
// sliding up to the first row where every cell it would cover is free.
// Returns nil, nil when no block moves; otherwise the ids in reading order
// with their new positions, to be applied as one atomic batch.
func AutoArrange(blocks map[string]Position) ([]string, []Position) {
	if len(blocks) == 0 {
		return nil, nil
	}

	ids := make([]string, 0, len(blocks))
	for id := range blocks {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		a, b := blocks[ids[i]], blocks[ids[j]]
		if a.Y != b.Y {
			return a.Y < b.Y
		}
		if a.X != b.X {
			return a.X < b.X
		}
		return ids[i] < ids[j]
	})

	occupied := make(map[cell]struct{})
	fits := func(p Position, testY int) bool {
		for cx := p.X; cx < p.X+p.Width; cx++ {
			for cy := testY; cy < testY+p.Height; cy++ {
				if _, taken := occupied[cell{cx, cy}]; taken {
					return false
				}
			}
		}
		return true
	}

	positions := make([]Position, len(ids))
	changed := false
	for i, id := range ids {
		p := blocks[id]
		testY := 0
		for !fits(p, testY) {
			testY++
		}
		for cx := p.X; cx < p.X+p.Width; cx++ {
			for cy := testY; cy < testY+p.Height; cy++ {
				occupied[cell{cx, cy}] = struct{}{}
			}
		}
		if testY != p.Y {
			changed = true
		}
		p.Y = testY
		positions[i] = p
	}

	if !changed {
		return nil, nil
	}
	return ids, positions
}
