package generator

import (
	"codeberg.org/anaseto/gruid"
	"github.com/leonelquinteros/gotext"

	"dungeonator/pkg/engine/world"
	"dungeonator/pkg/game/catalog"
	"dungeonator/pkg/game/difficulty"
)

// RoomID indexes a room in the graph arena. IDs are dense and never reused
// within one generation.
type RoomID int

// NoRoom is the absent room.
const NoRoom RoomID = -1

// RoomNode is a vertex of the abstract room graph.
type RoomNode struct {
	ID          RoomID
	Archetype   *catalog.RoomArchetype
	Tags        catalog.Tag
	Connections []RoomID // sorted
	Depth       int      // hops from Start along spanning edges
	Parent      RoomID   // spanning parent, NoRoom for Start
	Terminal    bool     // exactly one connection and not Start
}

// IsStart reports whether the node is the Start room.
func (n *RoomNode) IsStart() bool { return n.Tags.Has(catalog.TagStart) }

// IsBoss reports whether the node is the Boss room.
func (n *RoomNode) IsBoss() bool { return n.Tags.Has(catalog.TagBoss) }

// Edge is an undirected graph edge. Spanning edges come from growth and keep
// the graph connected; the rest are extra loops.
type Edge struct {
	A, B     RoomID
	Spanning bool
}

// RoomGraph is the abstract dungeon topology.
type RoomGraph struct {
	Nodes []*RoomNode
	Edges []Edge
	Start RoomID
	Boss  RoomID
}

// Node returns the node with the given id, or nil.
func (g *RoomGraph) Node(id RoomID) *RoomNode {
	if id < 0 || int(id) >= len(g.Nodes) {
		return nil
	}
	return g.Nodes[id]
}

// HasEdge reports whether a and b are connected.
func (g *RoomGraph) HasEdge(a, b RoomID) bool {
	n := g.Node(a)
	if n == nil {
		return false
	}
	for _, c := range n.Connections {
		if c == b {
			return true
		}
	}
	return false
}

func (g *RoomGraph) connect(a, b RoomID, spanning bool) {
	g.Edges = append(g.Edges, Edge{A: a, B: b, Spanning: spanning})
	g.Nodes[a].Connections = insertSorted(g.Nodes[a].Connections, b)
	g.Nodes[b].Connections = insertSorted(g.Nodes[b].Connections, a)
}

// link joins a and b with a spanning edge, promoting an existing loop edge
// when there is one.
func (g *RoomGraph) link(a, b RoomID) {
	for i, e := range g.Edges {
		if (e.A == a && e.B == b) || (e.A == b && e.B == a) {
			g.Edges[i].Spanning = true
			return
		}
	}
	g.connect(a, b, true)
}

// unlink removes the edge between a and b, if any.
func (g *RoomGraph) unlink(a, b RoomID) {
	kept := g.Edges[:0]
	for _, e := range g.Edges {
		if (e.A == a && e.B == b) || (e.A == b && e.B == a) {
			continue
		}
		kept = append(kept, e)
	}
	g.Edges = kept
	g.Nodes[a].Connections = removeSorted(g.Nodes[a].Connections, b)
	g.Nodes[b].Connections = removeSorted(g.Nodes[b].Connections, a)
}

// disconnect removes every edge touching id and returns them.
func (g *RoomGraph) disconnect(id RoomID) []Edge {
	var removed []Edge
	kept := g.Edges[:0]
	for _, e := range g.Edges {
		if e.A == id || e.B == id {
			removed = append(removed, e)
			continue
		}
		kept = append(kept, e)
	}
	g.Edges = kept
	for _, e := range removed {
		other := e.A
		if other == id {
			other = e.B
		}
		g.Nodes[other].Connections = removeSorted(g.Nodes[other].Connections, id)
	}
	g.Nodes[id].Connections = nil
	return removed
}

func insertSorted(ids []RoomID, id RoomID) []RoomID {
	i := 0
	for i < len(ids) && ids[i] < id {
		i++
	}
	if i < len(ids) && ids[i] == id {
		return ids
	}
	ids = append(ids, 0)
	copy(ids[i+1:], ids[i:])
	ids[i] = id
	return ids
}

func removeSorted(ids []RoomID, id RoomID) []RoomID {
	for i, c := range ids {
		if c == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}

// CorridorID indexes a corridor in a layout.
type CorridorID int

// NoCorridor is the absent corridor.
const NoCorridor CorridorID = -1

// Neighbor records one corridor leaving a placed room.
type Neighbor struct {
	Room     RoomID
	Corridor CorridorID
	Door     gruid.Point // corridor cell touching this room
}

// PlacedRoom is a graph node with a concrete rectangle. Rooms are always
// axis aligned; archetype sizes already cover both orientations.
type PlacedRoom struct {
	ID        RoomID
	Archetype *catalog.RoomArchetype
	Tags      catalog.Tag
	Depth     int
	Bounds    gruid.Range
	Neighbors []Neighbor
}

// IsStart reports whether the room is the Start room.
func (r *PlacedRoom) IsStart() bool { return r.Tags.Has(catalog.TagStart) }

// IsBoss reports whether the room is the Boss room.
func (r *PlacedRoom) IsBoss() bool { return r.Tags.Has(catalog.TagBoss) }

// CorridorSegment is a walkable path joining two placed rooms.
type CorridorSegment struct {
	ID       CorridorID
	From     RoomID
	To       RoomID
	Path     []gruid.Point // centreline cells, door at From first
	Width    int
	Spanning bool
}

// Len returns the number of cells on the centreline.
func (c *CorridorSegment) Len() int {
	return len(c.Path)
}

// ContentKind is the kind of a content placement.
type ContentKind int

const (
	EnemySpawner ContentKind = iota
	WeaponSpawner
	Teleporter
	PlayerStart
	BossTrigger
	RoomExit
)

var contentNames = []string{"EnemySpawner", "WeaponSpawner", "Teleporter", "PlayerStart", "BossTrigger", "RoomExit"}

func (k ContentKind) String() string {
	if k < 0 || int(k) >= len(contentNames) {
		return "Unknown"
	}
	return contentNames[k]
}

// Label returns the localised kind name. Uses gotext.Get with constant keys to satisfy vet.
func (k ContentKind) Label() string {
	switch k {
	case EnemySpawner:
		return gotext.Get("CONTENT_ENEMY_SPAWNER")
	case WeaponSpawner:
		return gotext.Get("CONTENT_WEAPON_SPAWNER")
	case Teleporter:
		return gotext.Get("CONTENT_TELEPORTER")
	case PlayerStart:
		return gotext.Get("CONTENT_PLAYER_START")
	case BossTrigger:
		return gotext.Get("CONTENT_BOSS_TRIGGER")
	case RoomExit:
		return gotext.Get("CONTENT_ROOM_EXIT")
	default:
		return k.String()
	}
}

// ContentID indexes a placement in a layout.
type ContentID int

// NoContent is the absent placement.
const NoContent ContentID = -1

// Destination is where a teleporter leads.
type Destination int

const (
	DestinationNone Destination = iota
	DestinationHideout
	DestinationNextFloor
	DestinationRoom
)

// Wave configures an enemy spawner.
type Wave struct {
	Waves           int
	PerWave         int
	IntervalSeconds float64
}

// ContentParams holds the kind-specific fields of a placement. Fields that
// do not apply to the kind keep their zero or "No" values.
type ContentParams struct {
	SpawnTable  string
	Wave        Wave
	Destination Destination
	TargetRoom  RoomID
	Deferred    bool      // inactive until Trigger fires
	Trigger     ContentID // BossTrigger that activates a deferred placement
	Corridor    CorridorID
	Neighbor    RoomID
}

// ContentPlacement is one gameplay object positioned inside a room.
type ContentPlacement struct {
	ID     ContentID
	Kind   ContentKind
	Room   RoomID
	Local  gruid.Point // relative to the room's top-left cell
	Params ContentParams
}

// DungeonLayout is the finished, immutable output of a generation.
type DungeonLayout struct {
	Seed      uint64
	Floor     difficulty.Floor
	Scales    difficulty.DifficultyScales
	Bounds    gruid.Range
	Rooms     []PlacedRoom // ascending id; dropped rooms are absent
	Corridors []CorridorSegment
	Content   []ContentPlacement
	Start     RoomID
	Boss      RoomID
}

// Room returns the placed room with the given id, or nil.
func (l *DungeonLayout) Room(id RoomID) *PlacedRoom {
	for i := range l.Rooms {
		if l.Rooms[i].ID == id {
			return &l.Rooms[i]
		}
	}
	return nil
}

// RoomAt returns the room whose rectangle contains p.
func (l *DungeonLayout) RoomAt(p gruid.Point) (*PlacedRoom, bool) {
	for i := range l.Rooms {
		if world.ContainsPoint(l.Rooms[i].Bounds, p) {
			return &l.Rooms[i], true
		}
	}
	return nil, false
}

// ContentIn returns the placements of room id, in placement order.
func (l *DungeonLayout) ContentIn(id RoomID) []ContentPlacement {
	var out []ContentPlacement
	for _, c := range l.Content {
		if c.Room == id {
			out = append(out, c)
		}
	}
	return out
}

// CountContent returns the number of placements of the given kind.
func (l *DungeonLayout) CountContent(kind ContentKind) int {
	n := 0
	for _, c := range l.Content {
		if c.Kind == kind {
			n++
		}
	}
	return n
}

// WorldPosition returns the absolute grid position of c.
func (l *DungeonLayout) WorldPosition(c ContentPlacement) (gruid.Point, bool) {
	r := l.Room(c.Room)
	if r == nil {
		return gruid.Point{}, false
	}
	return r.Bounds.Min.Add(c.Local), true
}
