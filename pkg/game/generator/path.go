package generator

import (
	"codeberg.org/anaseto/gruid"

	"dungeonator/pkg/engine/world"
)

// segment returns the cells of the axis-aligned line from a to b, both
// included. Callers only pass points sharing a row or a column.
func segment(a, b gruid.Point) []gruid.Point {
	step := gruid.Point{X: sign(b.X - a.X), Y: sign(b.Y - a.Y)}
	out := []gruid.Point{a}
	for p := a; p != b; {
		p = p.Add(step)
		out = append(out, p)
	}
	return out
}

func sign(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}

// join concatenates legs, dropping the shared cell between two legs.
func join(legs ...[]gruid.Point) []gruid.Point {
	var out []gruid.Point
	for _, leg := range legs {
		for _, p := range leg {
			if len(out) > 0 && out[len(out)-1] == p {
				continue
			}
			out = append(out, p)
		}
	}
	return out
}

// elbow returns an L-shaped path from a to b that first moves horizontally
// when hFirst is set, vertically otherwise.
func elbow(a, b gruid.Point, hFirst bool) []gruid.Point {
	corner := gruid.Point{X: b.X, Y: a.Y}
	if !hFirst {
		corner = gruid.Point{X: a.X, Y: b.Y}
	}
	return join(segment(a, corner), segment(corner, b))
}

// straightPath returns the straight corridor between two rooms whose
// projections overlap on one axis. The corridor runs through the middle of
// the overlap, from the cell outside a's facing edge to the cell outside b's.
func straightPath(a, b gruid.Range) ([]gruid.Point, bool) {
	if lo, hi := max(a.Min.X, b.Min.X), min(a.Max.X, b.Max.X)-1; lo <= hi {
		x := (lo + hi) / 2
		switch {
		case a.Max.Y < b.Min.Y:
			return segment(gruid.Point{X: x, Y: a.Max.Y}, gruid.Point{X: x, Y: b.Min.Y - 1}), true
		case b.Max.Y < a.Min.Y:
			return segment(gruid.Point{X: x, Y: a.Min.Y - 1}, gruid.Point{X: x, Y: b.Max.Y}), true
		}
		return nil, false
	}
	if lo, hi := max(a.Min.Y, b.Min.Y), min(a.Max.Y, b.Max.Y)-1; lo <= hi {
		y := (lo + hi) / 2
		switch {
		case a.Max.X < b.Min.X:
			return segment(gruid.Point{X: a.Max.X, Y: y}, gruid.Point{X: b.Min.X - 1, Y: y}), true
		case b.Max.X < a.Min.X:
			return segment(gruid.Point{X: a.Min.X - 1, Y: y}, gruid.Point{X: b.Max.X, Y: y}), true
		}
	}
	return nil, false
}

// elbowPaths returns the two L-shaped corridors between diagonally offset
// rooms: leaving a sideways and entering b from above or below, and the
// reverse.
func elbowPaths(a, b gruid.Range) [][]gruid.Point {
	ca, cb := world.Center(a), world.Center(b)
	sideExit := func(r gruid.Range, towardsX int) int {
		if towardsX >= r.Max.X {
			return r.Max.X
		}
		return r.Min.X - 1
	}
	vertExit := func(r gruid.Range, towardsY int) int {
		if towardsY >= r.Max.Y {
			return r.Max.Y
		}
		return r.Min.Y - 1
	}
	h := elbow(
		gruid.Point{X: sideExit(a, cb.X), Y: ca.Y},
		gruid.Point{X: cb.X, Y: vertExit(b, ca.Y)},
		true)
	v := elbow(
		gruid.Point{X: ca.X, Y: vertExit(a, cb.Y)},
		gruid.Point{X: sideExit(b, ca.X), Y: cb.Y},
		false)
	return [][]gruid.Point{h, v}
}

// footprint returns every cell covered by a corridor of the given width
// along path.
func footprint(path []gruid.Point, width int) []gruid.Point {
	r := (width - 1) / 2
	if r <= 0 {
		return path
	}
	seen := make(map[gruid.Point]bool, len(path)*(2*r+1))
	var out []gruid.Point
	for _, p := range path {
		for dy := -r; dy <= r; dy++ {
			for dx := -r; dx <= r; dx++ {
				q := p.Add(gruid.Point{X: dx, Y: dy})
				if !seen[q] {
					seen[q] = true
					out = append(out, q)
				}
			}
		}
	}
	return out
}

// extent returns the smallest range covering ps.
func extent(ps []gruid.Point) gruid.Range {
	if len(ps) == 0 {
		return gruid.Range{}
	}
	r := gruid.NewRange(ps[0].X, ps[0].Y, ps[0].X+1, ps[0].Y+1)
	for _, p := range ps[1:] {
		r.Min.X, r.Min.Y = min(r.Min.X, p.X), min(r.Min.Y, p.Y)
		r.Max.X, r.Max.Y = max(r.Max.X, p.X+1), max(r.Max.Y, p.Y+1)
	}
	return r
}
