// Package gameplay connects the generation machine to the events of a
// running game: player deaths, boss fights and floor progression.
package gameplay

import "github.com/leonelquinteros/gotext"

// BossState tracks the boss of the current floor.
type BossState int

const (
	BossUnSpawned BossState = iota
	BossIdle
	BossEngaged
	BossDefeated
)

var bossNames = []string{"UnSpawned", "Idle", "Engaged", "Defeated"}

func (b BossState) String() string {
	if b < 0 || int(b) >= len(bossNames) {
		return "Unknown"
	}
	return bossNames[b]
}

// Label returns the localised boss state.
func (b BossState) Label() string {
	switch b {
	case BossUnSpawned:
		return gotext.Get("BOSS_UNSPAWNED")
	case BossIdle:
		return gotext.Get("BOSS_IDLE")
	case BossEngaged:
		return gotext.Get("BOSS_ENGAGED")
	case BossDefeated:
		return gotext.Get("BOSS_DEFEATED")
	default:
		return b.String()
	}
}

// nextBossState applies one observation of the boss. A boss that
// disappears while engaged is defeated; one that disappears otherwise was
// never fought.
func nextBossState(cur BossState, present, engaged bool) BossState {
	if !present {
		if cur == BossEngaged {
			return BossDefeated
		}
		return BossUnSpawned
	}
	switch {
	case engaged && cur == BossIdle:
		return BossEngaged
	case cur == BossUnSpawned:
		return BossIdle
	}
	return cur
}
