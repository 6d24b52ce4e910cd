package generator

import (
	"reflect"
	"testing"

	"dungeonator/pkg/game/catalog"
	"dungeonator/pkg/game/difficulty"
)

// placedRooms runs the first three phases and returns the rooms content is placed in.
func placedRooms(t *testing.T, seed uint64, n int) (*Generator, *Run) {
	t.Helper()
	g := New(catalog.Default())
	run, err := g.NewRun(NewRequest(seed, n))
	if err != nil {
		t.Fatal(err)
	}
	for _, phase := range []func(*Run) (Outcome, error){g.BuildGraph, g.PlaceRooms, g.ConnectCorridors} {
		if _, err := phase(run); err != nil {
			t.Fatalf("seed %d: %v", seed, err)
		}
	}
	return g, run
}

// TestPopulateRooms_Idempotent runs the populator twice on the same rooms and stream state.
func TestPopulateRooms_Idempotent(t *testing.T) {
	_, run := placedRooms(t, 11, 10)
	rooms := run.placed()
	s := difficulty.Default()
	first := PopulateRooms(rooms, s, difficulty.One, NewRand(99))
	second := PopulateRooms(rooms, s, difficulty.One, NewRand(99))
	if !reflect.DeepEqual(first, second) {
		t.Error("PopulateRooms gave different placements for the same input")
	}
	if len(first) == 0 {
		t.Error("PopulateRooms returned no placements")
	}
}

func TestPopulateRooms_Rules(t *testing.T) {
	for seed := uint64(0); seed < 30; seed++ {
		_, run := placedRooms(t, seed, 10)
		rooms := run.placed()
		s := difficulty.Default()
		content := PopulateRooms(rooms, s, difficulty.One, NewRand(seed))

		byRoom := make(map[RoomID][]ContentPlacement)
		kinds := make(map[ContentKind]int)
		for i, c := range content {
			if c.ID != ContentID(i) {
				t.Fatalf("seed %d: content[%d].ID = %d", seed, i, c.ID)
			}
			byRoom[c.Room] = append(byRoom[c.Room], c)
			kinds[c.Kind]++
		}
		if kinds[PlayerStart] != 1 || kinds[BossTrigger] != 1 {
			t.Errorf("seed %d: PlayerStart = %d, BossTrigger = %d, want 1 and 1",
				seed, kinds[PlayerStart], kinds[BossTrigger])
		}

		for _, r := range rooms {
			w, h := r.Bounds.Max.X-r.Bounds.Min.X, r.Bounds.Max.Y-r.Bounds.Min.Y
			var points []ContentPlacement
			spawners := 0
			for _, c := range byRoom[r.ID] {
				if c.Local.X < 0 || c.Local.Y < 0 || c.Local.X >= w || c.Local.Y >= h {
					t.Errorf("seed %d: %v at %v outside %dx%d room %d", seed, c.Kind, c.Local, w, h, r.ID)
				}
				switch c.Kind {
				case EnemySpawner:
					spawners++
					if r.IsBoss() && (!c.Params.Deferred || content[c.Params.Trigger].Kind != BossTrigger) {
						t.Errorf("seed %d: boss spawner %d not deferred on the trigger", seed, c.ID)
					}
				case PlayerStart:
					if !r.IsStart() {
						t.Errorf("seed %d: PlayerStart in room %d (%v)", seed, r.ID, r.Tags)
					}
				case BossTrigger:
					if !r.IsBoss() {
						t.Errorf("seed %d: BossTrigger in room %d (%v)", seed, r.ID, r.Tags)
					}
				}
				if c.Kind != RoomExit {
					points = append(points, c)
				}
			}
			for i, a := range points {
				for _, b := range points[i+1:] {
					if max(abs(a.Local.X-b.Local.X), abs(a.Local.Y-b.Local.Y)) < s.Tuning.ContentSpacing {
						t.Errorf("seed %d: room %d placements %d and %d too close", seed, r.ID, a.ID, b.ID)
					}
				}
			}
			if r.Archetype.Tag == catalog.TagTreasure && spawners > 0 {
				t.Errorf("seed %d: treasure room %d has %d enemy spawners", seed, r.ID, spawners)
			}
			exits := 0
			for _, c := range byRoom[r.ID] {
				if c.Kind == RoomExit {
					exits++
				}
			}
			if spawners > 0 && exits != len(r.Neighbors) {
				t.Errorf("seed %d: room %d has %d exits for %d doors", seed, r.ID, exits, len(r.Neighbors))
			}
		}
	}
}

func TestPopulateRooms_NoEnemiesWithZeroBudget(t *testing.T) {
	_, run := placedRooms(t, 4, 8)
	s := difficulty.Default()
	s.MaxEnemiesPerRoom = 0
	for _, c := range PopulateRooms(run.placed(), s, difficulty.One, NewRand(4)) {
		if c.Kind == EnemySpawner && !c.Params.Deferred {
			t.Errorf("EnemySpawner %d placed with zero budget", c.ID)
		}
	}
}

func TestPopulateRooms_EnemyBudget(t *testing.T) {
	_, run := placedRooms(t, 21, 10)
	for _, budget := range []int{1, 3, 7, 40} {
		s := difficulty.Default()
		s.MaxEnemiesPerRoom = budget
		content := PopulateRooms(run.placed(), s, difficulty.Four, NewRand(21))
		enemies := make(map[RoomID]int)
		spawners := make(map[RoomID]int)
		for _, c := range content {
			if c.Kind != EnemySpawner || c.Params.Deferred {
				continue
			}
			if c.Params.Wave.PerWave < 1 {
				t.Errorf("budget %d: spawner %d has PerWave %d", budget, c.ID, c.Params.Wave.PerWave)
			}
			enemies[c.Room] += c.Params.Wave.Waves * c.Params.Wave.PerWave
			spawners[c.Room]++
		}
		for _, r := range run.placed() {
			if enemies[r.ID] > budget {
				t.Errorf("budget %d: room %d spawns %d enemies", budget, r.ID, enemies[r.ID])
			}
			w, h := r.Bounds.Max.X-r.Bounds.Min.X-2, r.Bounds.Max.Y-r.Bounds.Min.Y-2
			if limit := max(1, w*h/cellsPerSpawner); spawners[r.ID] > limit {
				t.Errorf("budget %d: room %d has %d spawners, area allows %d", budget, r.ID, spawners[r.ID], limit)
			}
		}
	}
}
