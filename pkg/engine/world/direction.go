package world

import "codeberg.org/anaseto/gruid"

// Direction represents a cardinal direction
type Direction int

// Direction constants
const (
	North Direction = iota
	East
	South
	West
)

// AllDirections returns all valid directions for iteration
func AllDirections() []Direction {
	return []Direction{North, East, South, West}
}

// String returns the string representation of a direction
func (d Direction) String() string {
	switch d {
	case North:
		return "North"
	case East:
		return "East"
	case South:
		return "South"
	case West:
		return "West"
	default:
		return "Unknown"
	}
}

// IsValid returns true if the direction is a valid cardinal direction
func (d Direction) IsValid() bool {
	return d >= North && d <= West
}

// Opposite returns the opposite direction
func (d Direction) Opposite() Direction {
	switch d {
	case North:
		return South
	case South:
		return North
	case East:
		return West
	case West:
		return East
	default:
		return d
	}
}

// Horizontal reports whether the direction moves along the x axis.
func (d Direction) Horizontal() bool {
	return d == East || d == West
}

// Delta returns the unit step for this direction. Y grows southwards.
func (d Direction) Delta() gruid.Point {
	switch d {
	case North:
		return gruid.Point{X: 0, Y: -1}
	case East:
		return gruid.Point{X: 1, Y: 0}
	case South:
		return gruid.Point{X: 0, Y: 1}
	case West:
		return gruid.Point{X: -1, Y: 0}
	default:
		return gruid.Point{}
	}
}
