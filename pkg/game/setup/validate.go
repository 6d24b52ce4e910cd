// Package setup checks finished dungeon layouts before they are handed to
// the rest of the game.
package setup

import (
	"errors"
	"fmt"

	"github.com/zyedidia/generic/mapset"
	"github.com/zyedidia/generic/queue"

	"dungeonator/pkg/engine/world"
	"dungeonator/pkg/game/generator"
)

// ErrInvalidLayout is wrapped by every violation ValidateLayout reports.
var ErrInvalidLayout = errors.New("invalid layout")

func violation(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidLayout, fmt.Sprintf(format, args...))
}

// ValidateLayout checks the geometric and topological guarantees of a
// layout: rooms inside the bounds and at least padding cells apart, no
// corridor crossing a room, one Start and one Boss room, and a Boss room
// reachable from Start. All violations are joined into the returned error.
func ValidateLayout(l *generator.DungeonLayout, padding int) error {
	if l == nil {
		return violation("nil layout")
	}
	var errs []error
	if len(l.Rooms) == 0 {
		return violation("no rooms")
	}

	starts, bosses := 0, 0
	for i := range l.Rooms {
		a := &l.Rooms[i]
		if !world.Contains(l.Bounds, a.Bounds) {
			errs = append(errs, violation("room %d at %v outside bounds %v", a.ID, a.Bounds, l.Bounds))
		}
		if a.IsStart() {
			starts++
		}
		if a.IsBoss() {
			bosses++
		}
		for j := i + 1; j < len(l.Rooms); j++ {
			b := &l.Rooms[j]
			if world.Overlap(world.Expand(a.Bounds, padding), b.Bounds) {
				errs = append(errs, violation("rooms %d and %d closer than %d cells", a.ID, b.ID, padding))
			}
		}
	}
	if starts != 1 {
		errs = append(errs, violation("%d start rooms", starts))
	}
	if bosses != 1 {
		errs = append(errs, violation("%d boss rooms", bosses))
	}

	for _, c := range l.Corridors {
		if l.Room(c.From) == nil || l.Room(c.To) == nil {
			errs = append(errs, violation("corridor %d joins a missing room", c.ID))
		}
		for _, p := range c.Path {
			if r, ok := l.RoomAt(p); ok {
				errs = append(errs, violation("corridor %d crosses room %d at %v", c.ID, r.ID, p))
				break
			}
		}
	}

	if l.Room(l.Start) == nil || l.Room(l.Boss) == nil {
		errs = append(errs, violation("start %d or boss %d not placed", l.Start, l.Boss))
	} else if !ReachableRooms(l, l.Start).Has(l.Boss) {
		errs = append(errs, violation("boss room %d unreachable from start %d", l.Boss, l.Start))
	}

	for _, c := range l.Content {
		r := l.Room(c.Room)
		if r == nil {
			errs = append(errs, violation("%v %d in missing room %d", c.Kind, c.ID, c.Room))
			continue
		}
		if p, _ := l.WorldPosition(c); !world.ContainsPoint(r.Bounds, p) {
			errs = append(errs, violation("%v %d outside room %d", c.Kind, c.ID, c.Room))
		}
	}
	if n := l.CountContent(generator.PlayerStart); n != 1 {
		errs = append(errs, violation("%d player starts", n))
	}
	return errors.Join(errs...)
}

// ReachableRooms returns the rooms joined to from through corridors,
// including from itself.
func ReachableRooms(l *generator.DungeonLayout, from generator.RoomID) mapset.Set[generator.RoomID] {
	seen := mapset.New[generator.RoomID]()
	if l.Room(from) == nil {
		return seen
	}
	q := queue.New[generator.RoomID]()
	q.Enqueue(from)
	seen.Put(from)
	for !q.Empty() {
		r := l.Room(q.Dequeue())
		for _, nb := range r.Neighbors {
			if seen.Has(nb.Room) || l.Room(nb.Room) == nil {
				continue
			}
			seen.Put(nb.Room)
			q.Enqueue(nb.Room)
		}
	}
	return seen
}
