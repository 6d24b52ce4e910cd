package generator

import (
	"codeberg.org/anaseto/gruid"
	"github.com/zyedidia/generic/mapset"
	"github.com/zyedidia/generic/queue"
	"go.uber.org/zap"

	"dungeonator/pkg/engine/world"
	"dungeonator/pkg/game/difficulty"
)

type link struct {
	edge Edge
	path []gruid.Point
}

type router struct {
	rooms  []*PlacedRoom
	tuning difficulty.PlacementTuning
	bounds gruid.Range
}

// ConnectRooms routes a corridor for every edge of graph between two placed
// rooms. Rooms are modified in place: their Neighbors are filled, and rooms
// cut off from Start are set to nil.
//
// Loop edges that cannot be routed are dropped. Losing a spanning edge drops
// every room it disconnects from Start; the phase only fails when the Boss
// room is among them.
func ConnectRooms(graph *RoomGraph, rooms []*PlacedRoom, tuning difficulty.PlacementTuning, bounds gruid.Range, log *zap.Logger) ([]CorridorSegment, Outcome, error) {
	var out Outcome
	rt := &router{rooms: rooms, tuning: tuning, bounds: bounds}
	maxLoop := 2 * tuning.MaxCorridorLength

	var links []link
	for _, e := range graph.Edges {
		a, b := rooms[e.A], rooms[e.B]
		if a == nil || b == nil {
			continue
		}
		path, ok := rt.route(a, b)
		if ok && !e.Spanning && len(path) > maxLoop {
			ok = false
		}
		if !ok {
			out.DroppedEdges = append(out.DroppedEdges, e)
			log.Warn("corridor dropped: no clear route",
				zap.Int("from", int(e.A)), zap.Int("to", int(e.B)), zap.Bool("spanning", e.Spanning))
			continue
		}
		links = append(links, link{edge: e, path: path})
	}

	reach := reachable(graph.Start, links)
	if !reach.Has(graph.Boss) {
		return nil, out, ErrBossUnreachable
	}
	for id, r := range rooms {
		if r == nil || reach.Has(RoomID(id)) {
			continue
		}
		rooms[id] = nil
		out.DroppedRooms = append(out.DroppedRooms, RoomID(id))
		log.Warn("room dropped: cut off from start", zap.Int("room", id))
	}

	var corridors []CorridorSegment
	for _, l := range links {
		a, b := rooms[l.edge.A], rooms[l.edge.B]
		if a == nil || b == nil {
			continue
		}
		c := CorridorSegment{
			ID:       CorridorID(len(corridors)),
			From:     a.ID,
			To:       b.ID,
			Path:     l.path,
			Width:    tuning.CorridorWidth,
			Spanning: l.edge.Spanning,
		}
		corridors = append(corridors, c)
		a.Neighbors = append(a.Neighbors, Neighbor{Room: b.ID, Corridor: c.ID, Door: l.path[0]})
		b.Neighbors = append(b.Neighbors, Neighbor{Room: a.ID, Corridor: c.ID, Door: l.path[len(l.path)-1]})
	}
	return corridors, out, nil
}

// reachable returns the rooms joined to start by links.
func reachable(start RoomID, links []link) mapset.Set[RoomID] {
	adj := make(map[RoomID][]RoomID)
	for _, l := range links {
		adj[l.edge.A] = append(adj[l.edge.A], l.edge.B)
		adj[l.edge.B] = append(adj[l.edge.B], l.edge.A)
	}
	seen := mapset.New[RoomID]()
	seen.Put(start)
	q := queue.New[RoomID]()
	q.Enqueue(start)
	for !q.Empty() {
		id := q.Dequeue()
		for _, n := range adj[id] {
			if !seen.Has(n) {
				seen.Put(n)
				q.Enqueue(n)
			}
		}
	}
	return seen
}

// route returns a corridor from a to b. It tries the straight or L-shaped
// paths first, then a detour around the first room blocking them.
func (rt *router) route(a, b *PlacedRoom) ([]gruid.Point, bool) {
	var candidates [][]gruid.Point
	if path, ok := straightPath(a.Bounds, b.Bounds); ok {
		candidates = append(candidates, path)
	} else {
		candidates = elbowPaths(a.Bounds, b.Bounds)
	}
	blocker := -1
	for _, path := range candidates {
		hit, ok := rt.obstacle(path)
		if ok {
			return path, true
		}
		if blocker < 0 {
			blocker = hit
		}
	}
	if blocker < 0 {
		return nil, false
	}
	first := candidates[0]
	return rt.detour(first[0], first[len(first)-1], rt.rooms[blocker].Bounds)
}

// obstacle checks path against every placed room. It returns ok when the
// path is clear, otherwise the id of the first room it crosses, or -1 when
// the path leaves the bounds.
func (rt *router) obstacle(path []gruid.Point) (int, bool) {
	for _, p := range footprint(path, rt.tuning.CorridorWidth) {
		if !world.ContainsPoint(rt.bounds, p) {
			return -1, false
		}
		for id, r := range rt.rooms {
			if r != nil && world.ContainsPoint(r.Bounds, p) {
				return id, false
			}
		}
	}
	return 0, true
}

// detour routes from p to q around blocker, along a line just outside the
// blocker on each side of the travel axis, and keeps the shorter clear
// route.
func (rt *router) detour(p, q gruid.Point, blocker gruid.Range) ([]gruid.Point, bool) {
	ring := world.Expand(blocker, 1+(rt.tuning.CorridorWidth-1)/2)
	var sides [2][]gruid.Point
	dx, dy := q.X-p.X, q.Y-p.Y
	if abs(dx) >= abs(dy) {
		for i, y := range []int{ring.Min.Y, ring.Max.Y - 1} {
			sides[i] = join(
				segment(p, gruid.Point{X: p.X, Y: y}),
				segment(gruid.Point{X: p.X, Y: y}, gruid.Point{X: q.X, Y: y}),
				segment(gruid.Point{X: q.X, Y: y}, q))
		}
	} else {
		for i, x := range []int{ring.Min.X, ring.Max.X - 1} {
			sides[i] = join(
				segment(p, gruid.Point{X: x, Y: p.Y}),
				segment(gruid.Point{X: x, Y: p.Y}, gruid.Point{X: x, Y: q.Y}),
				segment(gruid.Point{X: x, Y: q.Y}, q))
		}
	}
	var best []gruid.Point
	for _, path := range sides {
		if _, ok := rt.obstacle(path); !ok {
			continue
		}
		if best == nil || len(path) < len(best) {
			best = path
		}
	}
	return best, best != nil
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
