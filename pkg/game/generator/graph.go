package generator

import (
	"math/rand/v2"

	"go.uber.org/zap"

	"dungeonator/pkg/game/catalog"
	"dungeonator/pkg/game/difficulty"
)

type graphBuilder struct {
	cat    *catalog.Catalog
	scales difficulty.DifficultyScales
	rng    *rand.Rand
	log    *zap.Logger
	counts map[*catalog.RoomArchetype]int
}

// BuildRoomGraph grows a connected room graph of up to req.TargetRooms nodes.
//
// A malformed catalog or request is a programming error and panics with the
// validation error. Running out of frontier nodes or archetypes under their
// caps stops growth early; that is logged, not reported.
func BuildRoomGraph(cat *catalog.Catalog, req Request, rng *rand.Rand, log *zap.Logger) *RoomGraph {
	if err := req.Validate(cat); err != nil {
		panic(err)
	}
	b := &graphBuilder{
		cat:    cat,
		scales: req.Scales,
		rng:    rng,
		log:    log,
		counts: make(map[*catalog.RoomArchetype]int),
	}
	g := &RoomGraph{Start: NoRoom, Boss: NoRoom}

	start := b.pick(func(a *catalog.RoomArchetype) bool { return a.Tag == catalog.TagStart }, 1)
	g.Start = b.add(g, start, NoRoom)

	for len(g.Nodes) < req.TargetRooms {
		frontier := g.frontier()
		if len(frontier) == 0 {
			log.Info("room graph stopped early: no frontier node",
				zap.Int("rooms", len(g.Nodes)), zap.Int("target", req.TargetRooms))
			break
		}
		parent := frontier[rng.IntN(len(frontier))]
		arch := b.pick(growable, 0)
		if spare(frontier) == 1 && len(g.Nodes)+1 < req.TargetRooms {
			// Filling the last free slot with a leaf would end growth.
			if branch := b.pick(branching, 0); branch != nil {
				arch = branch
			}
		}
		if arch == nil {
			log.Info("room graph stopped early: every archetype at its cap",
				zap.Int("rooms", len(g.Nodes)), zap.Int("target", req.TargetRooms))
			break
		}
		b.add(g, arch, parent.ID)
	}

	b.designateBoss(g)
	b.addLoops(g, req.Scales.ExtraConnections, req.Scales.Tuning.ExtraEdgeAttempts)
	for _, n := range g.Nodes {
		n.Terminal = !n.IsStart() && len(n.Connections) == 1
	}
	return g
}

// growable archetypes may be attached to the frontier.
func growable(a *catalog.RoomArchetype) bool {
	return a.Tag != catalog.TagStart && a.Tag != catalog.TagBoss
}

func branching(a *catalog.RoomArchetype) bool {
	return growable(a) && a.MaxConnections > 1
}

// spare returns the number of free connection slots on the frontier.
func spare(frontier []*RoomNode) int {
	n := 0
	for _, f := range frontier {
		n += f.Archetype.MaxConnections - len(f.Connections)
	}
	return n
}

func (b *graphBuilder) add(g *RoomGraph, arch *catalog.RoomArchetype, parent RoomID) RoomID {
	id := RoomID(len(g.Nodes))
	n := &RoomNode{ID: id, Archetype: arch, Tags: arch.Tag, Parent: parent}
	g.Nodes = append(g.Nodes, n)
	b.counts[arch]++
	if parent != NoRoom {
		n.Depth = g.Nodes[parent].Depth + 1
		g.connect(parent, id, true)
	}
	return id
}

// pick draws an archetype by weight among those kept by keep and still under
// their cap. Weights below minWeight count as minWeight.
func (b *graphBuilder) pick(keep func(*catalog.RoomArchetype) bool, minWeight int) *catalog.RoomArchetype {
	eligible := func(a *catalog.RoomArchetype) int {
		if !keep(a) || b.counts[a] >= b.scales.Cap(a) {
			return 0
		}
		return max(a.Weight, minWeight)
	}
	total := 0
	for _, a := range b.cat.Archetypes() {
		total += eligible(a)
	}
	if total == 0 {
		return nil
	}
	r := b.rng.IntN(total)
	for _, a := range b.cat.Archetypes() {
		r -= eligible(a)
		if r < 0 {
			return a
		}
	}
	return nil
}

// frontier returns the nodes that can take another connection, in id order.
func (g *RoomGraph) frontier() []*RoomNode {
	var out []*RoomNode
	for _, n := range g.Nodes {
		if len(n.Connections) < n.Archetype.MaxConnections {
			out = append(out, n)
		}
	}
	return out
}

// deepest returns the deepest node accepted by keep, lowest id on ties.
func (g *RoomGraph) deepest(keep func(*RoomNode) bool) RoomID {
	best := NoRoom
	for _, n := range g.Nodes {
		if !keep(n) {
			continue
		}
		if best == NoRoom || n.Depth > g.Nodes[best].Depth {
			best = n.ID
		}
	}
	return best
}

// designateBoss tags the deepest dead end as the Boss room. Without dead
// ends it falls back to the deepest leaf, then the deepest room, and finally
// the Start room itself.
func (b *graphBuilder) designateBoss(g *RoomGraph) {
	notStart := func(n *RoomNode) bool { return n.ID != g.Start }
	candidates := []func(*RoomNode) bool{
		func(n *RoomNode) bool { return notStart(n) && n.Archetype.Tag == catalog.TagDeadEnd },
		func(n *RoomNode) bool {
			return notStart(n) && len(n.Connections) == 1 && n.Archetype.Tag != catalog.TagTreasure
		},
		func(n *RoomNode) bool { return notStart(n) && len(n.Connections) == 1 },
		notStart,
	}
	boss := NoRoom
	for _, keep := range candidates {
		if boss = g.deepest(keep); boss != NoRoom {
			break
		}
	}
	if boss == NoRoom {
		boss = g.Start
	}
	g.Boss = boss

	n := g.Nodes[boss]
	if boss == g.Start {
		n.Tags |= catalog.TagBoss
		return
	}
	n.Tags = catalog.TagBoss
	if arch := b.cat.Boss(); arch != nil {
		n.Archetype = arch
	}
}

// addLoops adds up to count extra edges between nearby non-leaf rooms.
func (b *graphBuilder) addLoops(g *RoomGraph, count, attempts int) {
	if len(g.Nodes) < 3 {
		return
	}
	loopable := func(n *RoomNode) bool {
		tag := n.Archetype.Tag
		return !n.IsBoss() && tag != catalog.TagDeadEnd && tag != catalog.TagTreasure &&
			len(n.Connections) < n.Archetype.MaxConnections
	}
	for range count {
		for range attempts {
			a := g.Nodes[b.rng.IntN(len(g.Nodes))]
			c := g.Nodes[b.rng.IntN(len(g.Nodes))]
			if a.ID == c.ID || !loopable(a) || !loopable(c) || g.HasEdge(a.ID, c.ID) {
				continue
			}
			if d := a.Depth - c.Depth; d > 2 || d < -2 {
				continue
			}
			g.connect(min(a.ID, c.ID), max(a.ID, c.ID), false)
			break
		}
	}
}
