package gameplay

import (
	"context"
	"sync"

	"codeberg.org/anaseto/gruid"
	"go.uber.org/zap"

	"dungeonator/pkg/game/difficulty"
	"dungeonator/pkg/game/generator"
	"dungeonator/pkg/game/state"
)

// RunStats is collected over one run, from floor One until the final boss
// falls or the player dies or gives up.
type RunStats struct {
	FloorsCleared  int
	BossesDefeated int
	PlayerDeaths   int
}

// SaveStats is collected over every run of the session.
type SaveStats struct {
	RunsStarted   int
	RunsCompleted int
	TotalDeaths   int
}

// Progress is the player's standing in the current dungeon and run.
type Progress struct {
	Floor       difficulty.Floor
	Boss        BossState
	CurrentRoom generator.RoomID
	Run         RunStats
	Save        SaveStats
}

// Session owns the generation machine of a game and turns game events
// into regenerations.
type Session struct {
	machine *state.Machine
	log     *zap.Logger
	rooms   int
	start   difficulty.Floor

	mu       sync.Mutex
	progress Progress
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithLogger sets the session and machine logger.
func WithLogger(l *zap.Logger) SessionOption {
	return func(s *Session) {
		if l != nil {
			s.log = l
		}
	}
}

// WithRoomCount fixes the target room count on every floor instead of
// deriving it from the difficulty.
func WithRoomCount(n int) SessionOption {
	return func(s *Session) {
		s.rooms = n
	}
}

// WithStartFloor starts the first run on floor f instead of floor One.
// Later runs still start on floor One.
func WithStartFloor(f difficulty.Floor) SessionOption {
	return func(s *Session) {
		s.start = f
	}
}

// RequestFor returns the request for floor f under preset p.
func RequestFor(seed uint64, p difficulty.Preset, f difficulty.Floor) generator.Request {
	scales := difficulty.For(p, f)
	return generator.Request{Seed: seed, TargetRooms: scales.RoomsForFloor(f), Floor: f, Scales: scales}
}

// NewSession starts a run on floor One of preset p.
func NewSession(gen *generator.Generator, seed uint64, p difficulty.Preset, opts ...SessionOption) (*Session, error) {
	s := &Session{log: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	req := s.request(RequestFor(seed, p, s.start), s.start)
	m, err := state.NewMachine(gen, req, state.WithPlanner(s.plan), state.WithLogger(s.log))
	if err != nil {
		return nil, err
	}
	s.machine = m
	s.progress = Progress{Floor: s.start, CurrentRoom: generator.NoRoom, Save: SaveStats{RunsStarted: 1}}
	return s, nil
}

// request retargets prev to floor f, keeping its tuning and caps.
func (s *Session) request(prev generator.Request, f difficulty.Floor) generator.Request {
	scales := difficulty.For(prev.Scales.Preset, f)
	scales.Tuning = prev.Scales.Tuning
	scales.ArchetypeCaps = prev.Scales.ArchetypeCaps
	rooms := scales.RoomsForFloor(f)
	if s.rooms > 0 {
		rooms = s.rooms
	}
	return generator.Request{Seed: prev.Seed, TargetRooms: rooms, Floor: f, Scales: scales}
}

// plan picks the floor of the next dungeon: one deeper after a boss, back
// to the first after the final boss, a death or an abandon.
func (s *Session) plan(reason state.RegenReason, prev generator.Request) generator.Request {
	f := difficulty.One
	if reason == state.BossDefeat {
		if next, ok := prev.Floor.Next(); ok {
			f = next
		}
	}
	return s.request(prev, f)
}

// Machine returns the session's generation machine.
func (s *Session) Machine() *state.Machine {
	return s.machine
}

// Progress returns a snapshot of the player's progress.
func (s *Session) Progress() Progress {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.progress
}

// Tick advances generation by one phase. It is a no-op once the dungeon is
// finished or failed.
func (s *Session) Tick(ctx context.Context) (state.Phase, error) {
	if err := ctx.Err(); err != nil {
		return s.machine.Phase(), err
	}
	return s.machine.Step()
}

// regenerate asks the machine for a new dungeon and, once accepted,
// resets the per-dungeon progress. The floor comes from the same plan the
// machine applies, which may happen later if a phase is running. Callers
// hold mu.
func (s *Session) regenerate(reason state.RegenReason) error {
	next := s.plan(reason, s.machine.Request())
	if err := s.machine.RequestRegeneration(reason); err != nil {
		return err
	}
	s.progress.Floor = next.Floor
	s.progress.Boss = BossUnSpawned
	s.progress.CurrentRoom = generator.NoRoom
	s.log.Info("dungeon regeneration requested",
		zap.Stringer("reason", reason),
		zap.Stringer("floor", s.progress.Floor))
	return nil
}

// newRun closes the current run and opens the next one. Callers hold mu.
func (s *Session) newRun(completed bool) {
	if completed {
		s.progress.Save.RunsCompleted++
	}
	s.progress.Save.RunsStarted++
	s.progress.Run = RunStats{}
}

// PlayerDied ends the run and restarts on floor One.
func (s *Session) PlayerDied() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.regenerate(state.PlayerDeath); err != nil {
		return err
	}
	s.progress.Run.PlayerDeaths++
	s.progress.Save.TotalDeaths++
	s.newRun(false)
	return nil
}

// Abandon gives up the run and restarts on floor One.
func (s *Session) Abandon() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.regenerate(state.PlayerAbandon); err != nil {
		return err
	}
	s.newRun(false)
	return nil
}

// UpdateBoss records one observation of the boss: whether it exists and
// whether it is fighting the player. The update after the boss is
// defeated in a finished dungeon moves the player to the next floor, or
// completes the run after the final floor.
func (s *Session) UpdateBoss(present, engaged bool) (BossState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.progress.Boss == BossDefeated && s.machine.Phase() == state.Finished {
		cleared := s.progress.Floor
		if err := s.regenerate(state.BossDefeat); err != nil {
			return s.progress.Boss, err
		}
		s.progress.Run.BossesDefeated++
		s.progress.Run.FloorsCleared++
		if cleared.IsFinal() {
			s.log.Info("run completed", zap.Int("deaths", s.progress.Run.PlayerDeaths))
			s.newRun(true)
		}
		return s.progress.Boss, nil
	}
	prev := s.progress.Boss
	s.progress.Boss = nextBossState(prev, present, engaged)
	if s.progress.Boss != prev {
		s.log.Debug("boss state", zap.Stringer("from", prev), zap.Stringer("to", s.progress.Boss))
	}
	return s.progress.Boss, nil
}

// UpdatePlayerRoom records the room containing world position p.
func (s *Session) UpdatePlayerRoom(p gruid.Point) (generator.RoomID, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.progress.CurrentRoom = generator.NoRoom
	l, ok := s.machine.Layout()
	if !ok {
		return generator.NoRoom, false
	}
	r, ok := l.RoomAt(p)
	if !ok {
		return generator.NoRoom, false
	}
	s.progress.CurrentRoom = r.ID
	return r.ID, true
}
