package difficulty

import (
	"fmt"

	"github.com/leonelquinteros/gotext"
)

// Floor is a dungeon floor. The run starts on floor One and ends after the
// boss of floor Four is defeated.
type Floor int

const (
	One Floor = iota
	Two
	Three
	Four
)

// TotalFloors is the fixed number of floors in a run.
const TotalFloors = 4

// FinalFloor is the deepest floor.
const FinalFloor = Four

// Level returns the 1-based floor number.
func (f Floor) Level() int {
	if f < One {
		return 1
	}
	if f > FinalFloor {
		return TotalFloors
	}
	return int(f) + 1
}

// IsFinal returns true if f is the deepest floor.
func (f Floor) IsFinal() bool {
	return f >= FinalFloor
}

// Next returns the floor below f, or false if f is the final floor.
func (f Floor) Next() (Floor, bool) {
	if f.IsFinal() {
		return f, false
	}
	if f < One {
		return One, true
	}
	return f + 1, true
}

func (f Floor) String() string {
	return fmt.Sprintf("Floor%d", f.Level())
}

// Label returns the localised floor name. Floors outside the run are
// clamped like Level.
func (f Floor) Label() string {
	switch f.Level() {
	case 1:
		return gotext.Get("FLOOR_ONE")
	case 2:
		return gotext.Get("FLOOR_TWO")
	case 3:
		return gotext.Get("FLOOR_THREE")
	default:
		return gotext.Get("FLOOR_FOUR")
	}
}
