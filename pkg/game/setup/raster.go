package setup

import (
	"dungeonator/pkg/engine/world"
	"dungeonator/pkg/game/generator"
)

// Rasterise draws l onto a fresh grid: room rectangles as floor owned by
// their room id, corridor paths as corridor cells.
func Rasterise(l *generator.DungeonLayout) *world.Grid {
	g := world.NewGrid(l.Bounds)
	for _, r := range l.Rooms {
		g.FillRoom(r.Bounds, int(r.ID))
	}
	for _, c := range l.Corridors {
		g.CarvePath(c.Path)
	}
	return g
}

// RasterConnected reports whether rooms a and b are joined by walkable
// cells once the layout is rasterised. It cross-checks the corridor graph
// that ReachableRooms walks.
func RasterConnected(l *generator.DungeonLayout, a, b generator.RoomID) bool {
	ra, rb := l.Room(a), l.Room(b)
	if ra == nil || rb == nil {
		return false
	}
	return Rasterise(l).Connected(world.Center(ra.Bounds), world.Center(rb.Bounds))
}
