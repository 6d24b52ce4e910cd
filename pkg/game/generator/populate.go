package generator

import (
	"math/rand/v2"

	"codeberg.org/anaseto/gruid"

	"dungeonator/pkg/engine/world"
	"dungeonator/pkg/game/catalog"
	"dungeonator/pkg/game/difficulty"
)

const (
	enemiesPerSpawner = 5
	cellsPerSpawner   = 16 // interior cells each enemy spawner needs
	bossSpawnTable    = "boss"
	weaponSpawnTable  = "weapons"
)

type populator struct {
	scales  difficulty.DifficultyScales
	floor   difficulty.Floor
	rng     *rand.Rand
	content []ContentPlacement

	room *PlacedRoom
	used []gruid.Point // local positions taken in room
}

// PopulateRooms decides the gameplay content of every room. rooms must be
// in ascending id order. The result depends only on its arguments and the
// state of rng, so the same rooms and stream always give the same
// placements.
//
// Positions are found by rejection sampling inside each room's interior;
// objects that find no free cell within the retry budget are left out.
func PopulateRooms(rooms []*PlacedRoom, scales difficulty.DifficultyScales, floor difficulty.Floor, rng *rand.Rand) []ContentPlacement {
	p := &populator{scales: scales, floor: floor, rng: rng}
	for _, r := range rooms {
		p.room = r
		p.used = p.used[:0]
		switch {
		case r.IsStart() || r.IsBoss():
			if r.IsStart() {
				p.populateStart()
			}
			if r.IsBoss() {
				p.populateBoss()
			}
		case r.Archetype.Tag == catalog.TagTreasure:
			p.populateTreasure()
		default:
			p.populateCombat()
		}
	}
	return p.content
}

func (p *populator) populateStart() {
	p.put(PlayerStart, p.center(), ContentParams{})
	if at, ok := p.sample(); ok {
		p.put(Teleporter, at, ContentParams{Destination: DestinationHideout, TargetRoom: NoRoom})
	}
}

func (p *populator) populateBoss() {
	at := p.center()
	if p.taken(at) {
		var ok bool
		if at, ok = p.sample(); !ok {
			at = p.fallback()
		}
	}
	trigger := p.put(BossTrigger, at, ContentParams{})

	table := p.room.Archetype.SpawnTable
	if table == "" {
		table = bossSpawnTable
	}
	if at, ok := p.sample(); ok {
		p.put(EnemySpawner, at, ContentParams{
			SpawnTable: table,
			Wave:       Wave{Waves: 1, PerWave: 1, IntervalSeconds: 0},
			Deferred:   true,
			Trigger:    trigger,
		})
	}
	if at, ok := p.sample(); ok {
		p.put(Teleporter, at, ContentParams{
			Destination: DestinationNextFloor,
			TargetRoom:  NoRoom,
			Deferred:    true,
			Trigger:     trigger,
		})
	}
	p.putExits()
}

func (p *populator) populateTreasure() {
	n := 1 + p.rng.IntN(p.scales.MaxWeaponsPerRoom+1)
	for range n {
		if at, ok := p.sample(); ok {
			p.put(WeaponSpawner, at, ContentParams{SpawnTable: weaponSpawnTable})
		}
	}
}

func (p *populator) populateCombat() {
	budget := p.scales.MaxEnemiesPerRoom
	in := p.interior()
	roomCap := max(1, world.Width(in)*world.Height(in)/cellsPerSpawner)
	maxSpawners := min((budget+enemiesPerSpawner-1)/enemiesPerSpawner, roomCap)
	spawners := p.rng.IntN(maxSpawners + 1)
	placed := 0
	for i := range spawners {
		share := budget / spawners
		if i < budget%spawners {
			share++
		}
		// waves * per-wave never exceeds the spawner's share
		waves := min(1+p.rng.IntN(p.floor.Level()+1), max(share, 1))
		at, ok := p.sample()
		if !ok || share == 0 {
			continue
		}
		p.put(EnemySpawner, at, ContentParams{
			SpawnTable: p.room.Archetype.SpawnTable,
			Wave: Wave{
				Waves:           waves,
				PerWave:         share / waves,
				IntervalSeconds: 4 + float64(p.rng.IntN(5)),
			},
		})
		placed++
	}

	weapons := p.rng.IntN(p.scales.MaxWeaponsPerRoom + 1)
	for range weapons {
		if at, ok := p.sample(); ok {
			p.put(WeaponSpawner, at, ContentParams{SpawnTable: weaponSpawnTable})
		}
	}
	if placed > 0 {
		p.putExits()
	}
}

// putExits adds a RoomExit sensor on the room edge behind every door.
func (p *populator) putExits() {
	for _, nb := range p.room.Neighbors {
		inside, ok := p.edgeCell(nb.Door)
		if !ok {
			continue
		}
		p.put(RoomExit, inside, ContentParams{Corridor: nb.Corridor, Neighbor: nb.Room, TargetRoom: NoRoom})
	}
}

// edgeCell returns the local room cell touching the door.
func (p *populator) edgeCell(door gruid.Point) (gruid.Point, bool) {
	for _, d := range world.AllDirections() {
		q := door.Add(d.Delta())
		if world.ContainsPoint(p.room.Bounds, q) {
			return q.Sub(p.room.Bounds.Min), true
		}
	}
	return gruid.Point{}, false
}

func (p *populator) put(kind ContentKind, local gruid.Point, params ContentParams) ContentID {
	id := ContentID(len(p.content))
	if !params.Deferred {
		params.Trigger = NoContent
	}
	if kind != RoomExit {
		params.Corridor = NoCorridor
		params.Neighbor = NoRoom
		p.used = append(p.used, local)
	}
	if params.Destination == DestinationNone {
		params.TargetRoom = NoRoom
	}
	p.content = append(p.content, ContentPlacement{ID: id, Kind: kind, Room: p.room.ID, Local: local, Params: params})
	return id
}

func (p *populator) center() gruid.Point {
	return world.Center(p.room.Bounds).Sub(p.room.Bounds.Min)
}

// interior returns the local range content may be sampled from: the room
// without its outer ring, or the whole room when it is too thin for one.
func (p *populator) interior() gruid.Range {
	w, h := world.Width(p.room.Bounds), world.Height(p.room.Bounds)
	r := gruid.NewRange(0, 0, w, h)
	if w >= 3 && h >= 3 {
		r = gruid.NewRange(1, 1, w-1, h-1)
	}
	return r
}

func (p *populator) taken(at gruid.Point) bool {
	spacing := p.scales.Tuning.ContentSpacing
	for _, u := range p.used {
		if max(abs(u.X-at.X), abs(u.Y-at.Y)) < spacing {
			return true
		}
	}
	return false
}

// sample draws interior positions until one respects the spacing or the
// retry budget runs out.
func (p *populator) sample() (gruid.Point, bool) {
	in := p.interior()
	for range p.scales.Tuning.ContentRetries {
		at := gruid.Point{
			X: in.Min.X + p.rng.IntN(world.Width(in)),
			Y: in.Min.Y + p.rng.IntN(world.Height(in)),
		}
		if !p.taken(at) {
			return at, true
		}
	}
	return gruid.Point{}, false
}

// fallback scans the interior for the first free cell.
func (p *populator) fallback() gruid.Point {
	in := p.interior()
	for y := in.Min.Y; y < in.Max.Y; y++ {
		for x := in.Min.X; x < in.Max.X; x++ {
			if at := (gruid.Point{X: x, Y: y}); !p.taken(at) {
				return at
			}
		}
	}
	return p.center()
}
