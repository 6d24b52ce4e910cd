// Package state drives dungeon generation as an explicit state machine and
// exposes its current phase to the rest of the game.
package state

import "github.com/leonelquinteros/gotext"

// Phase is a state of the generation machine.
type Phase int

// Generation phases, in pipeline order. Failed is terminal until a
// regeneration is requested.
const (
	Idle Phase = iota
	BuildingGraph
	PlacingRooms
	ConnectingCorridors
	PopulatingContent
	Finished
	Failed
)

var phaseNames = []string{
	"Idle", "BuildingGraph", "PlacingRooms", "ConnectingCorridors", "PopulatingContent", "Finished", "Failed",
}

func (p Phase) String() string {
	if p < 0 || int(p) >= len(phaseNames) {
		return "Unknown"
	}
	return phaseNames[p]
}

// Label returns the localised phase name. Uses gotext.Get with constant
// keys to satisfy vet.
func (p Phase) Label() string {
	switch p {
	case Idle:
		return gotext.Get("PHASE_IDLE")
	case BuildingGraph:
		return gotext.Get("PHASE_BUILDING_GRAPH")
	case PlacingRooms:
		return gotext.Get("PHASE_PLACING_ROOMS")
	case ConnectingCorridors:
		return gotext.Get("PHASE_CONNECTING_CORRIDORS")
	case PopulatingContent:
		return gotext.Get("PHASE_POPULATING_CONTENT")
	case Finished:
		return gotext.Get("PHASE_FINISHED")
	case Failed:
		return gotext.Get("PHASE_FAILED")
	default:
		return p.String()
	}
}

// Generating reports whether a generation is under way: the host should
// hold back anything that needs a layout.
func (p Phase) Generating() bool {
	return p >= BuildingGraph && p <= PopulatingContent
}

// Terminal reports whether the machine has stopped stepping.
func (p Phase) Terminal() bool {
	return p == Finished || p == Failed
}

// RegenReason is the external event that asks for a new dungeon.
type RegenReason int

const (
	PlayerDeath RegenReason = iota
	BossDefeat
	PlayerAbandon
)

var reasonNames = []string{"PlayerDeath", "BossDefeat", "PlayerAbandon"}

// Valid reports whether r is one of the accepted reasons.
func (r RegenReason) Valid() bool {
	return r >= PlayerDeath && r <= PlayerAbandon
}

func (r RegenReason) String() string {
	if !r.Valid() {
		return "Unknown"
	}
	return reasonNames[r]
}

// Label returns the localised reason.
func (r RegenReason) Label() string {
	switch r {
	case PlayerDeath:
		return gotext.Get("REGEN_PLAYER_DEATH")
	case BossDefeat:
		return gotext.Get("REGEN_BOSS_DEFEAT")
	case PlayerAbandon:
		return gotext.Get("REGEN_PLAYER_ABANDON")
	default:
		return r.String()
	}
}
