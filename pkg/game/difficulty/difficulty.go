// Package difficulty defines the difficulty presets, the dungeon floors and the
// scale table the generator reads its tuning from.
package difficulty

import (
	"errors"
	"fmt"
	"strings"

	"github.com/leonelquinteros/gotext"

	"dungeonator/pkg/game/catalog"
)

// Preset is a named difficulty level.
type Preset int

const (
	Easy Preset = iota
	Medium
	Hard
	Insane
	MegaDeath
	Debug
	Custom
)

var presetNames = []string{"easy", "medium", "hard", "insane", "megadeath", "debug", "custom"}

// String returns the stable identifier of the preset.
func (p Preset) String() string {
	if p < Easy || int(p) >= len(presetNames) {
		return "unknown"
	}
	return presetNames[p]
}

// Label returns the localised preset name.
func (p Preset) Label() string {
	switch p {
	case Easy:
		return gotext.Get("DIFFICULTY_EASY")
	case Medium:
		return gotext.Get("DIFFICULTY_MEDIUM")
	case Hard:
		return gotext.Get("DIFFICULTY_HARD")
	case Insane:
		return gotext.Get("DIFFICULTY_INSANE")
	case MegaDeath:
		return gotext.Get("DIFFICULTY_MEGADEATH")
	case Debug:
		return gotext.Get("DIFFICULTY_DEBUG")
	case Custom:
		return gotext.Get("DIFFICULTY_CUSTOM")
	default:
		return p.String()
	}
}

// ParsePreset returns the preset named s (case-insensitive).
func ParsePreset(s string) (Preset, error) {
	for i, name := range presetNames {
		if strings.EqualFold(name, s) {
			return Preset(i), nil
		}
	}
	return Medium, fmt.Errorf("unknown difficulty %q", s)
}

// PlacementTuning holds the spatial constants used by placement, corridor
// routing and content sampling.
type PlacementTuning struct {
	Padding           int // minimum free cells between two rooms
	MaxCorridorLength int
	RadiusTiers       int
	TierStep          int
	AttemptsPerTier   int
	CorridorWidth     int
	ContentRetries    int
	ContentSpacing    int // minimum Chebyshev distance between two placements
	ExtraEdgeAttempts int
}

// DefaultTuning returns the tuning used by every built-in preset.
func DefaultTuning() PlacementTuning {
	return PlacementTuning{
		Padding:           2,
		MaxCorridorLength: 14,
		RadiusTiers:       4,
		TierStep:          3,
		AttemptsPerTier:   12,
		CorridorWidth:     1,
		ContentRetries:    24,
		ContentSpacing:    2,
		ExtraEdgeAttempts: 16,
	}
}

// DifficultyScales is the read-only table the generator consults for
// per-room budgets, archetype caps and spatial tuning.
type DifficultyScales struct {
	Preset            Preset
	MaxEnemiesPerRoom int
	MaxDungeonAmount  int
	MaxWeaponsPerRoom int
	ExtraConnections  int

	PlayerHealthScale float64
	PlayerDamageScale float64
	PlayerSpeedScale  float64
	EnemyHealthScale  float64
	EnemyDamageScale  float64
	EnemySpeedScale   float64

	// ArchetypeCaps lowers MaxInstances for the named archetypes.
	ArchetypeCaps map[string]int

	Tuning PlacementTuning
}

// Default returns the Medium preset on the first floor.
func Default() DifficultyScales {
	return For(Medium, One)
}

// For returns the scales of preset p on floor f. Enemy budgets grow with the
// floor level. Custom starts from the default table.
func For(p Preset, f Floor) DifficultyScales {
	level := f.Level()
	s := DifficultyScales{
		Preset:            p,
		MaxEnemiesPerRoom: 20,
		MaxDungeonAmount:  5,
		MaxWeaponsPerRoom: 1,
		ExtraConnections:  1,
		PlayerHealthScale: 1,
		PlayerDamageScale: 1,
		PlayerSpeedScale:  1,
		EnemyHealthScale:  1,
		EnemyDamageScale:  1,
		EnemySpeedScale:   1,
		Tuning:            DefaultTuning(),
	}
	switch p {
	case Debug:
		s.MaxEnemiesPerRoom = 1
		s.MaxDungeonAmount = 1
		s.ExtraConnections = 0
	case Easy:
		s.MaxEnemiesPerRoom = 10 * level
		s.MaxDungeonAmount = 5
		s.MaxWeaponsPerRoom = 2
		s.PlayerHealthScale, s.PlayerDamageScale, s.PlayerSpeedScale = 1.25, 1.25, 1.2
		s.EnemyHealthScale, s.EnemyDamageScale, s.EnemySpeedScale = 0.75, 0.75, 0.9
	case Medium:
		s.MaxEnemiesPerRoom = 20 * level
		s.MaxDungeonAmount = 7
	case Hard:
		s.MaxEnemiesPerRoom = 30 * level
		s.MaxDungeonAmount = 9
		s.ExtraConnections = 2
		s.EnemySpeedScale = 1.2
	case Insane:
		s.MaxEnemiesPerRoom = 35 * level
		s.MaxDungeonAmount = 15
		s.ExtraConnections = 3
		s.PlayerHealthScale, s.PlayerDamageScale = 1.25, 1.25
		s.EnemySpeedScale = 1.5
	case MegaDeath:
		s.MaxEnemiesPerRoom = 50 * level
		s.MaxDungeonAmount = 25
		s.ExtraConnections = 4
		s.PlayerHealthScale, s.PlayerDamageScale, s.PlayerSpeedScale = 1.25, 1.25, 0.8
		s.EnemySpeedScale = 1.7
	}
	return s
}

// RoomsForFloor returns the target room count for floor f: deeper floors
// are two rooms larger per level.
func (s DifficultyScales) RoomsForFloor(f Floor) int {
	return max(1, s.MaxDungeonAmount+2*(f.Level()-1))
}

// Cap returns the instance cap of archetype a under these scales.
func (s DifficultyScales) Cap(a *catalog.RoomArchetype) int {
	if c, ok := s.ArchetypeCaps[a.ID]; ok && c < a.MaxInstances {
		return max(c, 0)
	}
	return a.MaxInstances
}

// Validate checks the scale table for values the generator cannot work with.
func (s DifficultyScales) Validate() error {
	var errs []error
	bad := func(field, format string, args ...any) {
		errs = append(errs, &catalog.ConfigError{Field: field, Reason: fmt.Sprintf(format, args...)})
	}
	if s.MaxEnemiesPerRoom < 0 {
		bad("max_enemies_per_room", "must not be negative, got %d", s.MaxEnemiesPerRoom)
	}
	if s.MaxWeaponsPerRoom < 0 {
		bad("max_weapons_per_room", "must not be negative, got %d", s.MaxWeaponsPerRoom)
	}
	if s.ExtraConnections < 0 {
		bad("extra_connections", "must not be negative, got %d", s.ExtraConnections)
	}
	t := s.Tuning
	if t.Padding < 1 {
		bad("tuning.padding", "must be at least 1, got %d", t.Padding)
	}
	if t.MaxCorridorLength < t.Padding {
		bad("tuning.max_corridor_length", "%d is shorter than padding %d", t.MaxCorridorLength, t.Padding)
	}
	if t.RadiusTiers < 1 || t.AttemptsPerTier < 1 {
		bad("tuning.radius_tiers", "tiers and attempts must be positive, got %d x %d", t.RadiusTiers, t.AttemptsPerTier)
	}
	if t.TierStep < 0 {
		bad("tuning.tier_step", "must not be negative, got %d", t.TierStep)
	}
	if t.CorridorWidth < 1 {
		bad("tuning.corridor_width", "must be at least 1, got %d", t.CorridorWidth)
	}
	if t.ContentRetries < 1 {
		bad("tuning.content_retries", "must be at least 1, got %d", t.ContentRetries)
	}
	for id, c := range s.ArchetypeCaps {
		if c < 0 {
			bad("archetype_caps."+id, "must not be negative, got %d", c)
		}
	}
	return errors.Join(errs...)
}
