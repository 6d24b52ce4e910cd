package generator

import (
	"cmp"
	"fmt"
	"math/rand/v2"
	"slices"

	"codeberg.org/anaseto/gruid"
	"github.com/zyedidia/generic/queue"
	"go.uber.org/zap"

	"dungeonator/pkg/engine/world"
	"dungeonator/pkg/game/difficulty"
)

// Outcome reports what a phase had to give up on without failing.
type Outcome struct {
	DroppedRooms []RoomID
	DroppedEdges []Edge
	Rewired      []Edge // spanning edges re-anchored to a placed ancestor
}

// Clean reports whether the phase completed without drops.
func (o Outcome) Clean() bool {
	return len(o.DroppedRooms) == 0 && len(o.DroppedEdges) == 0
}

type placer struct {
	graph    *RoomGraph
	tuning   difficulty.PlacementTuning
	bounds   gruid.Range
	rng      *rand.Rand
	log      *zap.Logger
	rooms    []*PlacedRoom
	channels []gruid.Range
	outcome  Outcome
}

// PlaceRooms assigns a rectangle to every node of graph, breadth-first from
// Start, so that no two rooms come closer than the configured padding.
//
// The returned slice is indexed by RoomID; dropped rooms are nil. A room
// that cannot be placed after every radius tier is dropped along with its
// edges, unless it is the Start or Boss room, which fails the phase.
// Children of a dropped room are re-anchored to their nearest placed
// ancestor.
func PlaceRooms(graph *RoomGraph, tuning difficulty.PlacementTuning, bounds gruid.Range, rng *rand.Rand, log *zap.Logger) ([]*PlacedRoom, Outcome, error) {
	if len(graph.Nodes) == 0 {
		return nil, Outcome{}, ErrNoRooms
	}
	p := &placer{
		graph:  graph,
		tuning: tuning,
		bounds: bounds,
		rng:    rng,
		log:    log,
		rooms:  make([]*PlacedRoom, len(graph.Nodes)),
	}

	children := make([][]RoomID, len(graph.Nodes))
	for _, n := range graph.Nodes {
		if n.Parent != NoRoom {
			children[n.Parent] = append(children[n.Parent], n.ID)
		}
	}

	q := queue.New[RoomID]()
	q.Enqueue(graph.Start)
	for !q.Empty() {
		id := q.Dequeue()
		if err := p.placeNode(graph.Nodes[id]); err != nil {
			return nil, p.outcome, err
		}
		for _, c := range children[id] {
			q.Enqueue(c)
		}
	}
	return p.rooms, p.outcome, nil
}

func (p *placer) placeNode(n *RoomNode) error {
	w := n.Archetype.MinSize.X + p.rng.IntN(n.Archetype.MaxSize.X-n.Archetype.MinSize.X+1)
	h := n.Archetype.MinSize.Y + p.rng.IntN(n.Archetype.MaxSize.Y-n.Archetype.MinSize.Y+1)

	if n.ID == p.graph.Start {
		c := world.Center(p.bounds)
		r := world.Rect(c.X-w/2, c.Y-h/2, w, h)
		if !world.Contains(p.bounds, r) {
			return fmt.Errorf("%w: start room %dx%d does not fit in %v", ErrCriticalPlacement, w, h, p.bounds)
		}
		p.accept(n, r, nil)
		return nil
	}

	anchor := p.anchorFor(n)
	r, ch, ok := p.fit(p.rooms[anchor].Bounds, w, h)
	if !ok && (n.IsBoss() || n.IsStart()) {
		var alt RoomID
		if alt, r, ch, ok = p.fitAnywhere(anchor, w, h); ok {
			p.reanchor(n, alt)
		}
	}
	if !ok {
		if n.IsBoss() || n.IsStart() {
			return fmt.Errorf("%w: room %d (%s) after %d tiers around every placed room",
				ErrCriticalPlacement, n.ID, n.Tags, p.tuning.RadiusTiers)
		}
		p.drop(n)
		return nil
	}
	p.accept(n, r, &ch)
	return nil
}

// fitAnywhere tries every placed room other than skip as the anchor, the
// deepest first so the room keeps its place at the far end of the dungeon.
func (p *placer) fitAnywhere(skip RoomID, w, h int) (RoomID, gruid.Range, gruid.Range, bool) {
	var anchors []*PlacedRoom
	for _, q := range p.rooms {
		if q != nil && q.ID != skip {
			anchors = append(anchors, q)
		}
	}
	slices.SortStableFunc(anchors, func(a, b *PlacedRoom) int {
		return cmp.Compare(b.Depth, a.Depth)
	})
	for _, q := range anchors {
		if r, ch, ok := p.fit(q.Bounds, w, h); ok {
			return q.ID, r, ch, true
		}
	}
	return NoRoom, gruid.Range{}, gruid.Range{}, false
}

// reanchor moves n's spanning edge from its parent to anchor.
func (p *placer) reanchor(n *RoomNode, anchor RoomID) {
	p.graph.unlink(n.Parent, n.ID)
	p.graph.link(anchor, n.ID)
	p.outcome.Rewired = append(p.outcome.Rewired, Edge{A: anchor, B: n.ID, Spanning: true})
	p.log.Info("critical room moved to another anchor",
		zap.Int("room", int(n.ID)), zap.Int("parent", int(n.Parent)), zap.Int("anchor", int(anchor)))
	n.Parent = anchor
	n.Depth = p.graph.Nodes[anchor].Depth + 1
}

// anchorFor returns the placed room n grows from: its spanning parent, or
// the nearest placed ancestor when the parent was dropped.
func (p *placer) anchorFor(n *RoomNode) RoomID {
	anc := n.Parent
	for p.rooms[anc] == nil {
		anc = p.graph.Nodes[anc].Parent
	}
	if anc != n.Parent {
		p.graph.link(anc, n.ID)
		e := Edge{A: anc, B: n.ID, Spanning: true}
		p.outcome.Rewired = append(p.outcome.Rewired, e)
		p.log.Info("room re-anchored to placed ancestor",
			zap.Int("room", int(n.ID)), zap.Int("parent", int(n.Parent)), zap.Int("anchor", int(anc)))
		n.Parent = anc
		n.Depth = p.graph.Nodes[anc].Depth + 1
	}
	return anc
}

// fit searches a free rectangle of size w x h next to anchor. Each tier
// moves the candidate further out; within a tier the side and the offset
// along it are random.
func (p *placer) fit(anchor gruid.Range, w, h int) (gruid.Range, gruid.Range, bool) {
	minGap := max(p.tuning.Padding, 1)
	for tier := range p.tuning.RadiusTiers {
		gap := min(minGap+tier*p.tuning.TierStep, p.tuning.MaxCorridorLength)
		for range p.tuning.AttemptsPerTier {
			dir := world.Direction(p.rng.IntN(4))
			r := p.candidate(anchor, w, h, dir, gap)
			path, ok := straightPath(anchor, r)
			if !ok {
				continue
			}
			ch := extent(footprint(path, p.tuning.CorridorWidth))
			if p.free(r, ch) {
				return r, ch, true
			}
		}
	}
	return gruid.Range{}, gruid.Range{}, false
}

// candidate puts a w x h rectangle gap cells away from anchor on side dir,
// sliding it along that side while keeping enough overlap for a straight
// corridor.
func (p *placer) candidate(anchor gruid.Range, w, h int, dir world.Direction, gap int) gruid.Range {
	slide := func(lo, hi, size int) int {
		k := min(3, size, hi-lo)
		first, last := lo-size+k, hi-k
		return first + p.rng.IntN(last-first+1)
	}
	switch dir {
	case world.East:
		return world.Rect(anchor.Max.X+gap, slide(anchor.Min.Y, anchor.Max.Y, h), w, h)
	case world.West:
		return world.Rect(anchor.Min.X-gap-w, slide(anchor.Min.Y, anchor.Max.Y, h), w, h)
	case world.South:
		return world.Rect(slide(anchor.Min.X, anchor.Max.X, w), anchor.Max.Y+gap, w, h)
	default:
		return world.Rect(slide(anchor.Min.X, anchor.Max.X, w), anchor.Min.Y-gap-h, w, h)
	}
}

// free reports whether r and its corridor channel ch fit among the rooms
// and channels already accepted.
func (p *placer) free(r, ch gruid.Range) bool {
	if !world.Contains(p.bounds, r) || !world.Contains(p.bounds, ch) {
		return false
	}
	padded := world.Expand(r, p.tuning.Padding)
	for _, q := range p.rooms {
		if q == nil {
			continue
		}
		if world.Overlap(padded, q.Bounds) || world.Overlap(ch, q.Bounds) {
			return false
		}
	}
	near := world.Expand(r, 1)
	for _, c := range p.channels {
		if world.Overlap(near, c) {
			return false
		}
	}
	return true
}

func (p *placer) accept(n *RoomNode, r gruid.Range, ch *gruid.Range) {
	p.rooms[n.ID] = &PlacedRoom{
		ID:        n.ID,
		Archetype: n.Archetype,
		Tags:      n.Tags,
		Depth:     n.Depth,
		Bounds:    r,
	}
	if ch != nil {
		p.channels = append(p.channels, *ch)
	}
}

func (p *placer) drop(n *RoomNode) {
	edges := p.graph.disconnect(n.ID)
	p.outcome.DroppedRooms = append(p.outcome.DroppedRooms, n.ID)
	p.outcome.DroppedEdges = append(p.outcome.DroppedEdges, edges...)
	p.log.Warn("room dropped: no free position",
		zap.Int("room", int(n.ID)),
		zap.String("archetype", n.Archetype.ID),
		zap.Int("edges", len(edges)))
}
