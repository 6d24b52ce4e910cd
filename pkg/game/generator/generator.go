// Package generator builds dungeon layouts in four phases: room graph
// synthesis, spatial placement, corridor routing and content population.
// Every phase draws from one seeded random stream, so a request always
// produces the same layout.
package generator

import (
	"fmt"
	"math/rand/v2"

	"go.uber.org/zap"

	"dungeonator/pkg/game/catalog"
)

// Generator runs generation phases against a fixed room catalog.
type Generator struct {
	catalog *catalog.Catalog
	log     *zap.Logger
}

// Option configures a Generator.
type Option func(*Generator)

// WithLogger sets the logger phases report drops to.
func WithLogger(l *zap.Logger) Option {
	return func(g *Generator) {
		if l != nil {
			g.log = l
		}
	}
}

// New creates a generator drawing rooms from cat.
func New(cat *catalog.Catalog, opts ...Option) *Generator {
	g := &Generator{catalog: cat, log: zap.NewNop()}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Catalog returns the generator's room catalog.
func (g *Generator) Catalog() *catalog.Catalog {
	return g.catalog
}

// Run is one in-flight generation. Its phases must be executed in order;
// nothing it holds is visible to consumers until Layout succeeds.
type Run struct {
	Request Request

	rng       *rand.Rand
	graph     *RoomGraph
	rooms     []*PlacedRoom
	corridors []CorridorSegment
	content   []ContentPlacement
	connected bool
	populated bool
}

// NewRun validates req and prepares a run seeded from req.Seed.
func (g *Generator) NewRun(req Request) (*Run, error) {
	if err := req.Validate(g.catalog); err != nil {
		return nil, fmt.Errorf("generation request: %w", err)
	}
	return &Run{Request: req, rng: NewRand(req.Seed)}, nil
}

// Graph returns the run's room graph, or nil before BuildGraph.
func (r *Run) Graph() *RoomGraph {
	return r.graph
}

// BuildGraph runs the room graph phase.
func (g *Generator) BuildGraph(run *Run) (Outcome, error) {
	run.graph = BuildRoomGraph(g.catalog, run.Request, run.rng, g.log)
	if len(run.graph.Nodes) == 0 {
		return Outcome{}, ErrNoRooms
	}
	g.log.Debug("room graph built",
		zap.Int("rooms", len(run.graph.Nodes)),
		zap.Int("edges", len(run.graph.Edges)),
		zap.Int("boss", int(run.graph.Boss)))
	return Outcome{}, nil
}

// PlaceRooms runs the placement phase.
func (g *Generator) PlaceRooms(run *Run) (Outcome, error) {
	if run.graph == nil {
		return Outcome{}, fmt.Errorf("%w: placement before graph", ErrPhaseOrder)
	}
	rooms, out, err := PlaceRooms(run.graph, run.Request.Scales.Tuning, run.Request.Bounds(), run.rng, g.log)
	if err != nil {
		return out, fmt.Errorf("place rooms: %w", err)
	}
	run.rooms = rooms
	return out, nil
}

// ConnectCorridors runs the corridor phase.
func (g *Generator) ConnectCorridors(run *Run) (Outcome, error) {
	if run.rooms == nil {
		return Outcome{}, fmt.Errorf("%w: corridors before placement", ErrPhaseOrder)
	}
	corridors, out, err := ConnectRooms(run.graph, run.rooms, run.Request.Scales.Tuning, run.Request.Bounds(), g.log)
	if err != nil {
		return out, fmt.Errorf("connect corridors: %w", err)
	}
	run.corridors = corridors
	run.connected = true
	return out, nil
}

// Populate runs the content phase.
func (g *Generator) Populate(run *Run) (Outcome, error) {
	if !run.connected {
		return Outcome{}, fmt.Errorf("%w: content before corridors", ErrPhaseOrder)
	}
	run.content = PopulateRooms(run.placed(), run.Request.Scales, run.Request.Floor, run.rng)
	run.populated = true
	return Outcome{}, nil
}

func (r *Run) placed() []*PlacedRoom {
	var out []*PlacedRoom
	for _, room := range r.rooms {
		if room != nil {
			out = append(out, room)
		}
	}
	return out
}

// Layout assembles the finished layout. It fails until every phase ran.
func (r *Run) Layout() (*DungeonLayout, error) {
	if !r.populated {
		return nil, fmt.Errorf("%w: layout before content", ErrPhaseOrder)
	}
	l := &DungeonLayout{
		Seed:      r.Request.Seed,
		Floor:     r.Request.Floor,
		Scales:    r.Request.Scales,
		Bounds:    r.Request.Bounds(),
		Corridors: r.corridors,
		Content:   r.content,
		Start:     r.graph.Start,
		Boss:      r.graph.Boss,
	}
	for _, room := range r.placed() {
		l.Rooms = append(l.Rooms, *room)
	}
	return l, nil
}

// Generate runs every phase for req and returns the finished layout.
func (g *Generator) Generate(req Request) (*DungeonLayout, error) {
	run, err := g.NewRun(req)
	if err != nil {
		return nil, err
	}
	for _, phase := range []func(*Run) (Outcome, error){g.BuildGraph, g.PlaceRooms, g.ConnectCorridors, g.Populate} {
		if _, err := phase(run); err != nil {
			return nil, err
		}
	}
	return run.Layout()
}
