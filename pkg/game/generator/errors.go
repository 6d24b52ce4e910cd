package generator

import "errors"

var (
	// ErrNoRooms is returned when graph synthesis produced no node.
	ErrNoRooms = errors.New("room graph is empty")
	// ErrCriticalPlacement is returned when the Start or Boss room cannot be placed.
	ErrCriticalPlacement = errors.New("critical room could not be placed")
	// ErrBossUnreachable is returned when corridor routing cut the Boss off from Start.
	ErrBossUnreachable = errors.New("boss room unreachable from start")
	// ErrPhaseOrder is returned when a phase runs before the one it depends on.
	ErrPhaseOrder = errors.New("generation phase out of order")
)
