package layout

// Overlaps reports whether two positions' AABBs overlap in grid units.
// Touching edges do not count as overlap.
func Overlaps(a, b Position) bool {
	return !(a.X+a.Width <= b.X || b.X+b.Width <= a.X ||
		a.Y+a.Height <= b.Y || b.Y+b.Height <= a.Y)
}

// AnyCollision reports whether candidate overlaps any block other than
// excludeID. Pass an empty excludeID to test against every block.
func AnyCollision(candidate Position, blocks map[string]Position, excludeID string) bool {
	for id, p := range blocks {
		if id == excludeID {
			continue
		}
		if Overlaps(candidate, p) {
			return true
		}
	}
	return false
}
