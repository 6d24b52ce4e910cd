package generator

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"codeberg.org/anaseto/gruid"

	"dungeonator/pkg/game/catalog"
	"dungeonator/pkg/game/difficulty"
)

// Request is the input of one generation.
type Request struct {
	Seed        uint64
	TargetRooms int
	Floor       difficulty.Floor
	Scales      difficulty.DifficultyScales
}

// NewRequest returns a request using the default difficulty on floor One.
func NewRequest(seed uint64, rooms int) Request {
	return Request{Seed: seed, TargetRooms: rooms, Floor: difficulty.One, Scales: difficulty.Default()}
}

// Validate checks the request against cat and returns every violation.
func (r Request) Validate(cat *catalog.Catalog) error {
	if cat == nil {
		return &catalog.ConfigError{Field: "catalog", Reason: "missing"}
	}
	var errs []error
	if r.TargetRooms < 1 {
		errs = append(errs, &catalog.ConfigError{Field: "target_rooms", Reason: fmt.Sprintf("must be at least 1, got %d", r.TargetRooms)})
	}
	if err := cat.Validate(); err != nil {
		errs = append(errs, err)
	}
	if err := r.Scales.Validate(); err != nil {
		errs = append(errs, err)
	}
	startable := false
	for _, a := range cat.ByTag(catalog.TagStart) {
		if r.Scales.Cap(a) >= 1 {
			startable = true
		}
	}
	if !startable {
		errs = append(errs, &catalog.ConfigError{Field: "archetype_caps", Reason: "every Start archetype is capped at zero"})
	}
	return errors.Join(errs...)
}

// Bounds returns the area rooms may be placed in. It grows with the room
// count so that placement never runs out of space before it runs out of
// attempts.
func (r Request) Bounds() gruid.Range {
	t := r.Scales.Tuning
	side := 48 + r.TargetRooms*(16+t.Padding+t.MaxCorridorLength/2)
	side = min(side, 4096)
	return gruid.NewRange(0, 0, side, side)
}

// NewRand returns the generation stream for seed. Every phase of a run draws
// from the same stream, in phase order.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}
