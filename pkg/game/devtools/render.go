package devtools

import (
	"strings"

	"codeberg.org/anaseto/gruid"

	"dungeonator/pkg/engine/world"
	"dungeonator/pkg/game/generator"
	"dungeonator/pkg/game/setup"
)

// Map symbols.
const (
	symVoid     = ' '
	symWall     = '#'
	symFloor    = '.'
	symCorridor = ','
	symPlayer   = '@'
	symBoss     = 'B'
	symEnemy    = 'E'
	symDeferred = 'e'
	symWeapon   = 'W'
	symTeleport = 'T'
	symExit     = 'x'
)

const legend = ". = room floor  , = corridor  # = wall  @ = player start  B = boss trigger  " +
	"E = enemy spawner  e = deferred enemy spawner  W = weapon spawner  T = teleporter  x = room exit"

func contentSymbol(c generator.ContentPlacement) rune {
	switch c.Kind {
	case generator.PlayerStart:
		return symPlayer
	case generator.BossTrigger:
		return symBoss
	case generator.EnemySpawner:
		if c.Params.Deferred {
			return symDeferred
		}
		return symEnemy
	case generator.WeaponSpawner:
		return symWeapon
	case generator.Teleporter:
		return symTeleport
	case generator.RoomExit:
		return symExit
	}
	return '?'
}

// extent returns the smallest range holding every room and corridor cell,
// with a one-cell wall margin, clipped to the layout bounds.
func extent(l *generator.DungeonLayout) gruid.Range {
	if len(l.Rooms) == 0 {
		return gruid.Range{}
	}
	r := l.Rooms[0].Bounds
	grow := func(b gruid.Range) {
		r.Min.X, r.Min.Y = min(r.Min.X, b.Min.X), min(r.Min.Y, b.Min.Y)
		r.Max.X, r.Max.Y = max(r.Max.X, b.Max.X), max(r.Max.Y, b.Max.Y)
	}
	for _, room := range l.Rooms {
		grow(room.Bounds)
	}
	for _, c := range l.Corridors {
		for _, p := range c.Path {
			grow(world.Rect(p.X, p.Y, 1, 1))
		}
	}
	r = world.Expand(r, 1)
	r.Min.X, r.Min.Y = max(r.Min.X, l.Bounds.Min.X), max(r.Min.Y, l.Bounds.Min.Y)
	r.Max.X, r.Max.Y = min(r.Max.X, l.Bounds.Max.X), min(r.Max.Y, l.Bounds.Max.Y)
	return r
}

// nearPassable reports whether any of the eight cells around p is walkable.
func nearPassable(g *world.Grid, p gruid.Point) bool {
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			if (dx != 0 || dy != 0) && g.Passable(p.Add(gruid.Point{X: dx, Y: dy})) {
				return true
			}
		}
	}
	return false
}

// Render draws the layout as rows of map symbols, cropped to the area in
// use. Content symbols are drawn over the floor.
func Render(l *generator.DungeonLayout) []string {
	area := extent(l)
	if world.IsEmpty(area) {
		return nil
	}
	g := setup.Rasterise(l)
	overlay := make(map[gruid.Point]rune, len(l.Content))
	for _, c := range l.Content {
		if p, ok := l.WorldPosition(c); ok {
			overlay[p] = contentSymbol(c)
		}
	}

	rows := make([]string, 0, world.Height(area))
	var b strings.Builder
	for y := area.Min.Y; y < area.Max.Y; y++ {
		b.Reset()
		for x := area.Min.X; x < area.Max.X; x++ {
			p := gruid.Point{X: x, Y: y}
			if s, ok := overlay[p]; ok {
				b.WriteRune(s)
				continue
			}
			switch g.At(p) {
			case world.Floor:
				b.WriteRune(symFloor)
			case world.Corridor:
				b.WriteRune(symCorridor)
			default:
				if nearPassable(g, p) {
					b.WriteRune(symWall)
				} else {
					b.WriteRune(symVoid)
				}
			}
		}
		rows = append(rows, b.String())
	}
	return rows
}
