package world

import (
	"testing"

	"codeberg.org/anaseto/gruid"
	"codeberg.org/anaseto/gruid/rl"
)

func TestDirection(t *testing.T) {
	for _, d := range AllDirections() {
		if !d.IsValid() {
			t.Errorf("%v.IsValid() = false", d)
		}
		if sum := d.Delta().Add(d.Opposite().Delta()); sum != (gruid.Point{}) {
			t.Errorf("%v delta plus opposite = %v, want 0,0", d, sum)
		}
		if d.Horizontal() != (d.Delta().Y == 0) {
			t.Errorf("%v.Horizontal() = %v", d, d.Horizontal())
		}
	}
	if Direction(7).IsValid() || Direction(7).String() != "Unknown" {
		t.Error("Direction(7) treated as valid")
	}
}

func TestRectHelpers(t *testing.T) {
	a := Rect(0, 0, 5, 4)
	if Width(a) != 5 || Height(a) != 4 {
		t.Errorf("size = %dx%d, want 5x4", Width(a), Height(a))
	}
	if got := Center(a); got != (gruid.Point{X: 2, Y: 1}) {
		t.Errorf("Center = %v, want 2,1", got)
	}
	tests := []struct {
		name    string
		b       gruid.Range
		overlap bool
		gap     int
	}{
		{"inside", Rect(1, 1, 2, 2), true, 0},
		{"touching", Rect(5, 0, 3, 3), false, 0},
		{"apart", Rect(8, 0, 3, 3), false, 3},
		{"diagonal", Rect(7, 10, 2, 2), false, 6},
		{"empty", Rect(1, 1, 0, 3), false, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Overlap(a, tt.b); got != tt.overlap {
				t.Errorf("Overlap = %v, want %v", got, tt.overlap)
			}
			if got := Gap(a, tt.b); got != tt.gap {
				t.Errorf("Gap = %d, want %d", got, tt.gap)
			}
		})
	}
	if !Overlap(Expand(a, 2), Rect(6, 0, 3, 3)) {
		t.Error("padded rect does not reach a room one cell away")
	}
	if !Contains(a, Rect(1, 1, 4, 3)) || Contains(a, Rect(1, 1, 5, 3)) {
		t.Error("Contains wrong at the exclusive edge")
	}
	if !ContainsPoint(a, gruid.Point{X: 4, Y: 3}) || ContainsPoint(a, gruid.Point{X: 5, Y: 3}) {
		t.Error("ContainsPoint wrong at the exclusive edge")
	}
}

func TestGrid(t *testing.T) {
	g := NewGrid(gruid.NewRange(10, 10, 30, 20))
	left, right := Rect(11, 11, 4, 4), Rect(20, 11, 4, 4)
	if clashes := g.FillRoom(left, 0); clashes != 0 {
		t.Errorf("FillRoom clashes = %d, want 0", clashes)
	}
	g.FillRoom(right, 1)
	if clashes := g.FillRoom(Rect(22, 12, 2, 2), 2); clashes != 4 {
		t.Errorf("overlapping FillRoom clashes = %d, want 4", clashes)
	}
	g.FillRoom(right, 1)

	a, b := Center(left), Center(right)
	if g.Connected(a, b) {
		t.Error("rooms connected before any corridor")
	}
	var path []gruid.Point
	for x := 15; x < 20; x++ {
		path = append(path, gruid.Point{X: x, Y: 12})
	}
	g.CarvePath(path)
	if !g.Connected(a, b) {
		t.Error("rooms not connected through the corridor")
	}
	if g.At(gruid.Point{X: 16, Y: 12}) != Corridor || g.At(gruid.Point{X: 12, Y: 12}) != Floor {
		t.Error("corridor carving changed room floor or missed a cell")
	}
	if got := len(g.Reachable(a)); got != 16+16+5 {
		t.Errorf("len(Reachable) = %d, want 37", got)
	}
	if g.RoomAt(gruid.Point{X: 16, Y: 12}) != NoRoom || g.RoomAt(b) != 1 {
		t.Error("RoomAt wrong for corridor or room cell")
	}
	if g.Passable(gruid.Point{X: 0, Y: 0}) || g.IsValidPosition(gruid.Point{X: 30, Y: 10}) {
		t.Error("cells outside the grid reported as usable")
	}
	walls := 0
	g.ForEachCell(func(_ gruid.Point, c rl.Cell) {
		if c == Wall {
			walls++
		}
	})
	if walls != 200-37 {
		t.Errorf("walls = %d, want %d", walls, 200-37)
	}
}
