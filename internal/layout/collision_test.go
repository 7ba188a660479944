package layout

import "testing"

func TestOverlaps(t *testing.T) {
	tests := []struct {
		name string
		a, b Position
		want bool
	}{
		{"identical", Position{0, 0, 2, 1}, Position{0, 0, 2, 1}, true},
		{"partial overlap", Position{0, 0, 4, 2}, Position{2, 1, 4, 2}, true},
		{"contained", Position{0, 0, 6, 4}, Position{2, 1, 2, 1}, true},
		{"touching right edge", Position{0, 0, 2, 1}, Position{2, 0, 2, 1}, false},
		{"touching bottom edge", Position{0, 0, 2, 1}, Position{0, 1, 2, 1}, false},
		{"touching corner", Position{0, 0, 2, 1}, Position{2, 1, 2, 1}, false},
		{"disjoint", Position{0, 0, 2, 1}, Position{6, 4, 2, 1}, false},
	}
	for _, tt := range tests {
		if got := Overlaps(tt.a, tt.b); got != tt.want {
			t.Errorf("%s: Overlaps = %v, want %v", tt.name, got, tt.want)
		}
		// The predicate is symmetric.
		if got := Overlaps(tt.b, tt.a); got != tt.want {
			t.Errorf("%s (reversed): Overlaps = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestAnyCollision(t *testing.T) {
	blocks := map[string]Position{
		"a": {0, 0, 2, 1},
		"b": {4, 0, 2, 1},
	}

	if !AnyCollision(Position{1, 0, 2, 1}, blocks, "") {
		t.Error("expected collision with block a")
	}
	if AnyCollision(Position{2, 0, 2, 1}, blocks, "") {
		t.Error("slot between a and b should be free")
	}
	// A block never collides with itself when excluded.
	if AnyCollision(Position{0, 0, 2, 1}, blocks, "a") {
		t.Error("expected no collision when the block excludes itself")
	}
	if !AnyCollision(Position{4, 0, 2, 1}, blocks, "a") {
		t.Error("exclusion of a should not hide block b")
	}
}
