package world

import (
	"codeberg.org/anaseto/gruid"
	"codeberg.org/anaseto/gruid/paths"
	"codeberg.org/anaseto/gruid/rl"
)

// Terrain kinds stored in a Grid.
const (
	Wall rl.Cell = iota
	Floor
	Corridor
)

// NoRoom marks a cell that belongs to no room.
const NoRoom = -1

// Grid is a raster view of a dungeon: terrain per cell plus the owning room
// index of every floor cell. Positions are world coordinates; the grid maps
// them onto its own 0-based storage.
type Grid struct {
	terrain rl.Grid
	rooms   []int
	bounds  gruid.Range
	pr      *paths.PathRange
}

// NewGrid creates a wall-filled grid covering bounds.
func NewGrid(bounds gruid.Range) *Grid {
	w, h := Width(bounds), Height(bounds)
	if w <= 0 || h <= 0 {
		panic("world: grid bounds must be non-empty")
	}
	g := &Grid{
		terrain: rl.NewGrid(w, h),
		rooms:   make([]int, w*h),
		bounds:  bounds,
		pr:      paths.NewPathRange(gruid.NewRange(0, 0, w, h)),
	}
	g.terrain.Fill(Wall)
	for i := range g.rooms {
		g.rooms[i] = NoRoom
	}
	return g
}

// Bounds returns the world range covered by the grid.
func (g *Grid) Bounds() gruid.Range {
	return g.bounds
}

// IsValidPosition checks if p is within grid bounds
func (g *Grid) IsValidPosition(p gruid.Point) bool {
	return ContainsPoint(g.bounds, p)
}

func (g *Grid) local(p gruid.Point) gruid.Point {
	return p.Sub(g.bounds.Min)
}

func (g *Grid) index(p gruid.Point) int {
	lp := g.local(p)
	return lp.Y*Width(g.bounds) + lp.X
}

// At returns the terrain at p, or Wall outside the grid.
func (g *Grid) At(p gruid.Point) rl.Cell {
	if !g.IsValidPosition(p) {
		return Wall
	}
	return g.terrain.At(g.local(p))
}

// Set changes the terrain at p. Positions outside the grid are ignored.
func (g *Grid) Set(p gruid.Point, c rl.Cell) {
	if !g.IsValidPosition(p) {
		return
	}
	g.terrain.Set(g.local(p), c)
}

// RoomAt returns the room index owning p, or NoRoom.
func (g *Grid) RoomAt(p gruid.Point) int {
	if !g.IsValidPosition(p) {
		return NoRoom
	}
	return g.rooms[g.index(p)]
}

// FillRoom carves r as floor owned by room id. It returns the number of
// cells that already belonged to another room.
func (g *Grid) FillRoom(r gruid.Range, id int) int {
	clashes := 0
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			p := gruid.Point{X: x, Y: y}
			if !g.IsValidPosition(p) {
				continue
			}
			if owner := g.rooms[g.index(p)]; owner != NoRoom && owner != id {
				clashes++
			}
			g.rooms[g.index(p)] = id
			g.Set(p, Floor)
		}
	}
	return clashes
}

// CarvePath marks every cell of ps as corridor, leaving room floor intact.
func (g *Grid) CarvePath(ps []gruid.Point) {
	for _, p := range ps {
		if g.At(p) == Wall {
			g.Set(p, Corridor)
		}
	}
}

// Passable reports whether p is floor or corridor.
func (g *Grid) Passable(p gruid.Point) bool {
	return g.At(p) != Wall
}

// ForEachCell calls fn for every cell in row-major order.
func (g *Grid) ForEachCell(fn func(p gruid.Point, c rl.Cell)) {
	for y := g.bounds.Min.Y; y < g.bounds.Max.Y; y++ {
		for x := g.bounds.Min.X; x < g.bounds.Max.X; x++ {
			p := gruid.Point{X: x, Y: y}
			fn(p, g.At(p))
		}
	}
}

// passPath is a cardinal pather restricted to passable cells, in grid-local
// coordinates.
type passPath struct {
	g   *Grid
	nbs paths.Neighbors
}

func (pp *passPath) passable(lp gruid.Point) bool {
	return pp.g.Passable(lp.Add(pp.g.bounds.Min))
}

func (pp *passPath) Neighbors(lp gruid.Point) []gruid.Point {
	if !pp.passable(lp) {
		return nil
	}
	return pp.nbs.Cardinal(lp, pp.passable)
}

// Reachable returns every passable cell connected to from, in world
// coordinates. It returns nil when from is not passable.
func (g *Grid) Reachable(from gruid.Point) []gruid.Point {
	if !g.Passable(from) {
		return nil
	}
	cc := g.pr.CCMap(&passPath{g: g}, g.local(from))
	out := make([]gruid.Point, 0, len(cc))
	for _, lp := range cc {
		out = append(out, lp.Add(g.bounds.Min))
	}
	return out
}

// Connected reports whether a passable path joins a and b.
func (g *Grid) Connected(a, b gruid.Point) bool {
	if !g.Passable(a) || !g.Passable(b) {
		return false
	}
	for _, p := range g.Reachable(a) {
		if p == b {
			return true
		}
	}
	return false
}
