package generator

import (
	"errors"
	"reflect"
	"testing"

	"go.uber.org/zap/zaptest"

	"dungeonator/pkg/engine/world"
	"dungeonator/pkg/game/catalog"
)

// reachableRooms returns the rooms joined to Start through corridors.
func reachableRooms(l *DungeonLayout) map[RoomID]bool {
	seen := map[RoomID]bool{l.Start: true}
	queue := []RoomID{l.Start}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for _, nb := range l.Room(id).Neighbors {
			if !seen[nb.Room] {
				seen[nb.Room] = true
				queue = append(queue, nb.Room)
			}
		}
	}
	return seen
}

func TestGenerate_ReferenceSeed(t *testing.T) {
	g := New(catalog.Default(), WithLogger(zaptest.NewLogger(t)))
	l, err := g.Generate(NewRequest(42, 10))
	if err != nil {
		t.Fatalf("Generate(42, 10) error = %v", err)
	}
	starts, bosses := 0, 0
	for _, r := range l.Rooms {
		if r.IsStart() {
			starts++
		}
		if r.IsBoss() {
			bosses++
		}
	}
	if starts != 1 || bosses != 1 {
		t.Errorf("starts = %d, bosses = %d, want 1 and 1", starts, bosses)
	}
	if got := len(reachableRooms(l)); got < 9 {
		t.Errorf("reachable rooms = %d, want >= 9", got)
	}
	if got := l.CountContent(PlayerStart); got != 1 {
		t.Errorf("PlayerStart count = %d, want 1", got)
	}
	if got := l.CountContent(BossTrigger); got != 1 {
		t.Errorf("BossTrigger count = %d, want 1", got)
	}
	if !reachableRooms(l)[l.Boss] {
		t.Error("boss room not reachable from start")
	}
}

func TestGenerate_Deterministic(t *testing.T) {
	g := New(catalog.Default())
	for _, seed := range []uint64{0, 1, 42, 1 << 40} {
		a, err := g.Generate(NewRequest(seed, 12))
		if err != nil {
			t.Fatalf("seed %d: %v", seed, err)
		}
		b, err := g.Generate(NewRequest(seed, 12))
		if err != nil {
			t.Fatalf("seed %d: %v", seed, err)
		}
		if !reflect.DeepEqual(a, b) {
			t.Errorf("seed %d: two runs produced different layouts", seed)
		}
	}
}

func TestGenerate_SeedsDiffer(t *testing.T) {
	g := New(catalog.Default())
	first, err := g.Generate(NewRequest(1, 10))
	if err != nil {
		t.Fatal(err)
	}
	for seed := uint64(2); seed < 6; seed++ {
		l, err := g.Generate(NewRequest(seed, 10))
		if err != nil {
			t.Fatal(err)
		}
		if !reflect.DeepEqual(first.Rooms, l.Rooms) {
			return
		}
	}
	t.Error("seeds 1..5 all produced the same rooms")
}

func TestGenerate_SingleRoom(t *testing.T) {
	l, err := New(catalog.Default()).Generate(NewRequest(8, 1))
	if err != nil {
		t.Fatalf("Generate error = %v", err)
	}
	if len(l.Rooms) != 1 || len(l.Corridors) != 0 {
		t.Fatalf("rooms = %d, corridors = %d, want 1 and 0", len(l.Rooms), len(l.Corridors))
	}
	r := l.Rooms[0]
	if !r.IsStart() || !r.IsBoss() {
		t.Errorf("room tags = %v, want Start|Boss", r.Tags)
	}
	if got := l.CountContent(PlayerStart); got != 1 {
		t.Errorf("PlayerStart count = %d, want 1", got)
	}
}

// TestGenerate_CorridorsAvoidRooms checks no corridor cell lies inside any room, over many seeds.
func TestGenerate_CorridorsAvoidRooms(t *testing.T) {
	g := New(catalog.Default())
	for seed := uint64(0); seed < 40; seed++ {
		l, err := g.Generate(NewRequest(seed, 14))
		if err != nil {
			t.Fatalf("seed %d: %v", seed, err)
		}
		for _, c := range l.Corridors {
			if len(c.Path) == 0 {
				t.Errorf("seed %d: corridor %d is empty", seed, c.ID)
			}
			for _, p := range c.Path {
				if r, ok := l.RoomAt(p); ok {
					t.Errorf("seed %d: corridor %d crosses room %d at %v", seed, c.ID, r.ID, p)
				}
			}
			from, to := l.Room(c.From), l.Room(c.To)
			if from == nil || to == nil {
				t.Errorf("seed %d: corridor %d joins a missing room", seed, c.ID)
				continue
			}
			if world.Gap(from.Bounds, to.Bounds) > l.Scales.Tuning.MaxCorridorLength && c.Spanning {
				t.Errorf("seed %d: spanning corridor %d longer than max", seed, c.ID)
			}
		}
		if !reachableRooms(l)[l.Boss] {
			t.Errorf("seed %d: boss unreachable", seed)
		}
	}
}

func TestGenerate_InvalidRequest(t *testing.T) {
	_, err := New(catalog.Default()).Generate(NewRequest(1, 0))
	var ce *catalog.ConfigError
	if !errors.As(err, &ce) {
		t.Errorf("Generate(rooms=0) error = %v, want *ConfigError", err)
	}
}

func TestRun_PhaseOrder(t *testing.T) {
	g := New(catalog.Default())
	run, err := g.NewRun(NewRequest(1, 5))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := g.PlaceRooms(run); !errors.Is(err, ErrPhaseOrder) {
		t.Errorf("PlaceRooms before graph error = %v, want ErrPhaseOrder", err)
	}
	if _, err := run.Layout(); !errors.Is(err, ErrPhaseOrder) {
		t.Errorf("Layout before content error = %v, want ErrPhaseOrder", err)
	}
}
