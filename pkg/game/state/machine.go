package state

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"dungeonator/pkg/game/generator"
	"dungeonator/pkg/game/setup"
)

var (
	// ErrRegenerationRejected is returned for an unknown reason or when
	// there is nothing to regenerate.
	ErrRegenerationRejected = errors.New("regeneration rejected")
	// ErrNotFinished is returned when a layout is asked for before Finished.
	ErrNotFinished = errors.New("generation not finished")
	// ErrBusy is returned by Step while another Step is running.
	ErrBusy = errors.New("generation step already running")
)

// Planner derives the request for the next generation from the reason it
// was triggered and the previous request. The machine overwrites the seed.
type Planner func(reason RegenReason, prev generator.Request) generator.Request

// Option configures a Machine.
type Option func(*Machine)

// WithPlanner sets the planner consulted on every regeneration.
func WithPlanner(p Planner) Option {
	return func(m *Machine) {
		if p != nil {
			m.planner = p
		}
	}
}

// WithLogger sets the logger phase transitions are reported to.
func WithLogger(l *zap.Logger) Option {
	return func(m *Machine) {
		if l != nil {
			m.log = l
		}
	}
}

const subscriberBuffer = 16

// Machine runs the generation pipeline one phase per Step. Its state is
// safe for concurrent readers; at most one Step runs at a time.
type Machine struct {
	gen     *generator.Generator
	planner Planner
	log     *zap.Logger

	mu          sync.Mutex
	req         generator.Request
	seeds       *rand.Rand
	phase       Phase
	run         *generator.Run
	layout      *generator.DungeonLayout
	err         error
	stepping    bool
	pending     bool
	reason      RegenReason
	generations int
	subs        []*subscriber
	nextSub     int
}

type subscriber struct {
	id int
	ch chan Phase
}

// NewMachine validates req against the generator's catalog and returns an
// Idle machine that will generate it.
func NewMachine(gen *generator.Generator, req generator.Request, opts ...Option) (*Machine, error) {
	if err := req.Validate(gen.Catalog()); err != nil {
		return nil, fmt.Errorf("new machine: %w", err)
	}
	m := &Machine{
		gen:     gen,
		planner: func(_ RegenReason, prev generator.Request) generator.Request { return prev },
		log:     zap.NewNop(),
		req:     req,
		seeds:   generator.NewRand(^req.Seed),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Phase returns the current phase.
func (m *Machine) Phase() Phase {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.phase
}

// Layout returns the finished layout. It is only available in Finished.
func (m *Machine) Layout() (*generator.DungeonLayout, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.phase != Finished {
		return nil, false
	}
	return m.layout, true
}

// Err returns the error that moved the machine to Failed.
func (m *Machine) Err() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.err
}

// Seed returns the seed of the current generation.
func (m *Machine) Seed() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.req.Seed
}

// Request returns the request of the current generation.
func (m *Machine) Request() generator.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.req
}

// Generations returns how many regenerations have been processed.
func (m *Machine) Generations() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.generations
}

// Subscribe returns a channel receiving every phase the machine enters and
// a function that closes it. A subscriber that falls behind misses phases.
func (m *Machine) Subscribe() (<-chan Phase, func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := &subscriber{id: m.nextSub, ch: make(chan Phase, subscriberBuffer)}
	m.nextSub++
	m.subs = append(m.subs, s)
	var once sync.Once
	return s.ch, func() {
		once.Do(func() {
			m.mu.Lock()
			defer m.mu.Unlock()
			for i, o := range m.subs {
				if o.id == s.id {
					m.subs = append(m.subs[:i], m.subs[i+1:]...)
					break
				}
			}
			close(s.ch)
		})
	}
}

// enter moves the machine to p and notifies subscribers. Callers hold mu.
func (m *Machine) enter(p Phase) {
	if m.phase != p {
		m.log.Info("generation phase",
			zap.Stringer("from", m.phase),
			zap.Stringer("to", p),
			zap.Uint64("seed", m.req.Seed))
	}
	m.phase = p
	for _, s := range m.subs {
		select {
		case s.ch <- p:
		default:
		}
	}
}

// Step runs the next phase of the pipeline and returns the phase the
// machine rests in afterwards. From PopulatingContent it validates the
// layout and enters Finished. In Finished or Failed it does nothing.
//
// A regeneration requested while the phase runs is honoured once it
// returns: the in-flight work is discarded and the machine rests in Idle.
func (m *Machine) Step() (Phase, error) {
	m.mu.Lock()
	if m.stepping {
		m.mu.Unlock()
		return m.Phase(), ErrBusy
	}
	from := m.phase
	if from.Terminal() {
		m.mu.Unlock()
		return from, nil
	}
	if from == Idle {
		run, err := m.gen.NewRun(m.req)
		if err != nil {
			m.fail(err)
			m.mu.Unlock()
			return Failed, err
		}
		m.run = run
	}
	run := m.run
	next := from + 1
	if from != PopulatingContent {
		m.enter(next)
	}
	m.stepping = true
	m.mu.Unlock()

	layout, out, err := m.execute(next, run)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.stepping = false
	if m.pending {
		m.pending = false
		m.reset(m.reason)
		return m.phase, nil
	}
	if !out.Clean() {
		m.log.Warn("phase dropped optional elements",
			zap.Stringer("phase", next),
			zap.Int("rooms", len(out.DroppedRooms)),
			zap.Int("edges", len(out.DroppedEdges)),
			zap.Int("rewired", len(out.Rewired)))
	}
	if err != nil {
		m.fail(err)
		return Failed, err
	}
	if layout != nil {
		m.layout = layout
		m.run = nil
		m.enter(Finished)
	}
	return m.phase, nil
}

// execute runs one phase outside the lock. Entering Finished assembles and
// validates the layout.
func (m *Machine) execute(p Phase, run *generator.Run) (*generator.DungeonLayout, generator.Outcome, error) {
	var (
		out generator.Outcome
		err error
	)
	switch p {
	case BuildingGraph:
		out, err = m.gen.BuildGraph(run)
	case PlacingRooms:
		out, err = m.gen.PlaceRooms(run)
	case ConnectingCorridors:
		out, err = m.gen.ConnectCorridors(run)
	case PopulatingContent:
		out, err = m.gen.Populate(run)
	case Finished:
		layout, err := run.Layout()
		if err != nil {
			return nil, out, err
		}
		if err := setup.ValidateLayout(layout, run.Request.Scales.Tuning.Padding); err != nil {
			return nil, out, fmt.Errorf("validate layout: %w", err)
		}
		return layout, out, nil
	}
	return nil, out, err
}

// fail moves the machine to Failed. Callers hold mu.
func (m *Machine) fail(err error) {
	m.err = err
	m.run = nil
	m.layout = nil
	m.log.Error("generation failed", zap.Uint64("seed", m.req.Seed), zap.Error(err))
	m.enter(Failed)
}

// reset discards the current generation and prepares the next one with a
// fresh seed. Callers hold mu.
func (m *Machine) reset(reason RegenReason) {
	prev := m.req
	next := m.planner(reason, prev)
	next.Seed = m.seeds.Uint64()
	for next.Seed == prev.Seed {
		next.Seed = m.seeds.Uint64()
	}
	m.req = next
	m.run = nil
	m.layout = nil
	m.err = nil
	m.generations++
	m.log.Info("regenerating dungeon",
		zap.Stringer("reason", reason),
		zap.Uint64("old_seed", prev.Seed),
		zap.Uint64("seed", next.Seed),
		zap.Stringer("floor", next.Floor))
	m.enter(Idle)
}

// RequestRegeneration discards the current dungeon and starts over with a
// fresh seed. From Finished or Failed, or between phases, the machine
// returns to Idle at once. While a phase is running the request is held
// until that phase completes. Requests in Idle are rejected.
func (m *Machine) RequestRegeneration(reason RegenReason) error {
	if !reason.Valid() {
		return fmt.Errorf("%w: unknown reason %d", ErrRegenerationRejected, int(reason))
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stepping {
		m.pending = true
		m.reason = reason
		return nil
	}
	if m.phase == Idle {
		return fmt.Errorf("%w: nothing generated yet", ErrRegenerationRejected)
	}
	m.reset(reason)
	return nil
}

// Run steps the machine until it finishes or fails and returns the layout.
// Each phase is traced as its own span. Cancelling ctx stops the machine at
// the next phase boundary, leaving it resting where it was.
func (m *Machine) Run(ctx context.Context) (*generator.DungeonLayout, error) {
	tracer := otel.Tracer("dungeonator/state")
	ctx, span := tracer.Start(ctx, "dungeon.generate")
	defer span.End()
	span.SetAttributes(attribute.Int64("dungeon.seed", int64(m.Seed())))

	for {
		if err := ctx.Err(); err != nil {
			span.SetStatus(codes.Error, "cancelled")
			return nil, err
		}
		phase := m.Phase()
		switch phase {
		case Finished:
			l, _ := m.Layout()
			span.SetAttributes(
				attribute.Int("dungeon.room_count", len(l.Rooms)),
				attribute.Int("dungeon.corridor_count", len(l.Corridors)),
				attribute.Int("dungeon.content_count", len(l.Content)),
			)
			return l, nil
		case Failed:
			err := m.Err()
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}

		_, ps := tracer.Start(ctx, "dungeon.phase")
		ps.SetAttributes(attribute.String("dungeon.phase", (phase + 1).String()))
		got, err := m.Step()
		if err != nil {
			ps.RecordError(err)
			ps.SetStatus(codes.Error, err.Error())
		}
		ps.SetAttributes(attribute.String("dungeon.phase.result", got.String()))
		ps.End()
		if errors.Is(err, ErrBusy) {
			return nil, err
		}
	}
}

// Await blocks until the machine reaches Finished and returns its layout,
// or until ctx is done. Another goroutine must be stepping the machine.
func (m *Machine) Await(ctx context.Context) (*generator.DungeonLayout, error) {
	ch, cancel := m.Subscribe()
	defer cancel()
	for {
		switch m.Phase() {
		case Finished:
			l, _ := m.Layout()
			return l, nil
		case Failed:
			return nil, m.Err()
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ch:
		}
	}
}

// Latest returns the finished layout or ErrNotFinished.
func (m *Machine) Latest() (*generator.DungeonLayout, error) {
	if l, ok := m.Layout(); ok {
		return l, nil
	}
	return nil, fmt.Errorf("%w: phase %v", ErrNotFinished, m.Phase())
}
