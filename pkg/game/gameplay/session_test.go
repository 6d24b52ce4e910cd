package gameplay

import (
	"context"
	"errors"
	"testing"

	"codeberg.org/anaseto/gruid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"

	"dungeonator/pkg/engine/world"
	"dungeonator/pkg/game/catalog"
	"dungeonator/pkg/game/difficulty"
	"dungeonator/pkg/game/generator"
	"dungeonator/pkg/game/state"
)

func newSession(t *testing.T, seed uint64, opts ...SessionOption) *Session {
	t.Helper()
	s, err := NewSession(generator.New(catalog.Default()), seed, difficulty.Medium, opts...)
	if err != nil {
		t.Fatalf("NewSession error = %v", err)
	}
	return s
}

func finish(t *testing.T, s *Session) *generator.DungeonLayout {
	t.Helper()
	l, err := s.Machine().Run(context.Background())
	if err != nil {
		t.Fatalf("Run error = %v", err)
	}
	return l
}

// defeatBoss walks the boss through a whole fight and the follow-up update.
func defeatBoss(t *testing.T, s *Session) {
	t.Helper()
	steps := []struct {
		present, engaged bool
		want             BossState
	}{
		{true, false, BossIdle},
		{true, true, BossEngaged},
		{false, false, BossDefeated},
		{false, false, BossUnSpawned},
	}
	for i, st := range steps {
		got, err := s.UpdateBoss(st.present, st.engaged)
		if err != nil {
			t.Fatalf("UpdateBoss step %d error = %v", i, err)
		}
		if got != st.want {
			t.Fatalf("UpdateBoss step %d = %v, want %v", i, got, st.want)
		}
	}
}

func TestNextBossState(t *testing.T) {
	tests := []struct {
		cur              BossState
		present, engaged bool
		want             BossState
	}{
		{BossUnSpawned, true, false, BossIdle},
		{BossUnSpawned, true, true, BossIdle},
		{BossIdle, true, false, BossIdle},
		{BossIdle, true, true, BossEngaged},
		{BossEngaged, true, false, BossEngaged},
		{BossEngaged, false, false, BossDefeated},
		{BossIdle, false, false, BossUnSpawned},
	}
	for _, tt := range tests {
		if got := nextBossState(tt.cur, tt.present, tt.engaged); got != tt.want {
			t.Errorf("nextBossState(%v, %v, %v) = %v, want %v", tt.cur, tt.present, tt.engaged, got, tt.want)
		}
	}
}

func TestSession_BossDefeatAdvancesFloor(t *testing.T) {
	s := newSession(t, 1, WithLogger(zaptest.NewLogger(t)))
	finish(t, s)
	defeatBoss(t, s)

	if s.Machine().Phase() != state.Idle {
		t.Errorf("Phase() = %v, want Idle", s.Machine().Phase())
	}
	p := s.Progress()
	if p.Floor != difficulty.Two || p.Run.FloorsCleared != 1 || p.Run.BossesDefeated != 1 {
		t.Errorf("progress = %+v, want floor Two with one floor cleared", p)
	}
	l := finish(t, s)
	if l.Floor != difficulty.Two {
		t.Errorf("layout floor = %v, want Two", l.Floor)
	}
	if want := l.Scales.RoomsForFloor(difficulty.Two); s.Machine().Request().TargetRooms != want {
		t.Errorf("TargetRooms = %d, want %d", s.Machine().Request().TargetRooms, want)
	}
}

func TestSession_FinalFloorCompletesRun(t *testing.T) {
	s := newSession(t, 2, WithRoomCount(4))
	for i := 0; i < difficulty.TotalFloors; i++ {
		finish(t, s)
		defeatBoss(t, s)
	}
	p := s.Progress()
	if p.Floor != difficulty.One {
		t.Errorf("Floor = %v, want One", p.Floor)
	}
	if p.Save.RunsCompleted != 1 || p.Save.RunsStarted != 2 {
		t.Errorf("save = %+v, want one completed of two started", p.Save)
	}
	if p.Run != (RunStats{}) {
		t.Errorf("run stats = %+v, want reset", p.Run)
	}
	if got := s.Machine().Request().TargetRooms; got != 4 {
		t.Errorf("TargetRooms = %d, want fixed 4", got)
	}
}

func TestSession_DeathRestartsAtFloorOne(t *testing.T) {
	s := newSession(t, 3, WithRoomCount(5))
	finish(t, s)
	defeatBoss(t, s)
	finish(t, s)
	if err := s.PlayerDied(); err != nil {
		t.Fatalf("PlayerDied error = %v", err)
	}
	p := s.Progress()
	if p.Floor != difficulty.One || p.Save.TotalDeaths != 1 || p.Save.RunsStarted != 2 {
		t.Errorf("progress = %+v", p)
	}
	if s.Machine().Request().Floor != difficulty.One {
		t.Errorf("next request floor = %v, want One", s.Machine().Request().Floor)
	}
}

func TestSession_AbandonBeforeGeneration(t *testing.T) {
	s := newSession(t, 4)
	if err := s.Abandon(); !errors.Is(err, state.ErrRegenerationRejected) {
		t.Errorf("Abandon in Idle error = %v, want ErrRegenerationRejected", err)
	}
	if p := s.Progress(); p.Save.RunsStarted != 1 {
		t.Errorf("RunsStarted = %d, want 1", p.Save.RunsStarted)
	}
	finish(t, s)
	if err := s.Abandon(); err != nil {
		t.Errorf("Abandon in Finished error = %v", err)
	}
}

func TestSession_Tick(t *testing.T) {
	s := newSession(t, 5, WithRoomCount(6))
	var phase state.Phase
	for i := 0; i < 5; i++ {
		var err error
		if phase, err = s.Tick(context.Background()); err != nil {
			t.Fatalf("Tick %d error = %v", i, err)
		}
	}
	if phase != state.Finished {
		t.Errorf("phase after five ticks = %v, want Finished", phase)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := s.Tick(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Tick error = %v, want context.Canceled", err)
	}
}

func TestSession_UpdatePlayerRoom(t *testing.T) {
	s := newSession(t, 6)
	if _, ok := s.UpdatePlayerRoom(gruid.Point{}); ok {
		t.Error("UpdatePlayerRoom before Finished ok = true")
	}
	l := finish(t, s)
	start := l.Room(l.Start)
	id, ok := s.UpdatePlayerRoom(world.Center(start.Bounds))
	if !ok || id != l.Start {
		t.Errorf("UpdatePlayerRoom(start centre) = %d, %v, want %d, true", id, ok, l.Start)
	}
	if s.Progress().CurrentRoom != l.Start {
		t.Errorf("CurrentRoom = %d, want %d", s.Progress().CurrentRoom, l.Start)
	}
	if _, ok := s.UpdatePlayerRoom(gruid.Point{X: -5, Y: -5}); ok {
		t.Error("UpdatePlayerRoom outside every room ok = true")
	}
}

func TestSession_StartFloor(t *testing.T) {
	s := newSession(t, 8, WithStartFloor(difficulty.Four), WithRoomCount(4))
	if l := finish(t, s); l.Floor != difficulty.Four {
		t.Fatalf("layout floor = %v, want Four", l.Floor)
	}
	defeatBoss(t, s)
	if p := s.Progress(); p.Floor != difficulty.One || p.Save.RunsCompleted != 1 {
		t.Errorf("progress = %+v, want a completed run back on floor One", p)
	}
}

// TestSession_AbandonDuringPhase gives up while the graph phase is running,
// so the machine only plans the next dungeon once the phase returns.
func TestSession_AbandonDuringPhase(t *testing.T) {
	var s *Session
	var abandonErr error
	fired := false
	hook := zap.Hooks(func(e zapcore.Entry) error {
		if s != nil && !fired && e.Message == "room graph built" {
			fired = true
			abandonErr = s.Abandon()
		}
		return nil
	})
	gen := generator.New(catalog.Default(), generator.WithLogger(zaptest.NewLogger(t).WithOptions(hook)))
	s, err := NewSession(gen, 12, difficulty.Medium, WithStartFloor(difficulty.Three))
	if err != nil {
		t.Fatal(err)
	}

	phase, err := s.Tick(context.Background())
	if err != nil || abandonErr != nil {
		t.Fatalf("Tick error = %v, Abandon error = %v", err, abandonErr)
	}
	if !fired {
		t.Fatal("hook never fired")
	}
	if phase != state.Idle {
		t.Errorf("phase = %v, want Idle", phase)
	}
	if p := s.Progress(); p.Floor != difficulty.One {
		t.Errorf("progress floor = %v, want Floor1", p.Floor)
	}
	if got := s.Machine().Request().Floor; got != difficulty.One {
		t.Errorf("machine floor = %v, want Floor1", got)
	}
}
