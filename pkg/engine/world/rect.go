package world

import "codeberg.org/anaseto/gruid"

// Rect returns the range of size w x h whose top-left cell is (x, y).
func Rect(x, y, w, h int) gruid.Range {
	return gruid.NewRange(x, y, x+w, y+h)
}

// Width returns the number of columns covered by r.
func Width(r gruid.Range) int {
	return r.Max.X - r.Min.X
}

// Height returns the number of rows covered by r.
func Height(r gruid.Range) int {
	return r.Max.Y - r.Min.Y
}

// IsEmpty reports whether r covers no cell.
func IsEmpty(r gruid.Range) bool {
	return r.Max.X <= r.Min.X || r.Max.Y <= r.Min.Y
}

// Expand grows r by n cells on every side.
func Expand(r gruid.Range, n int) gruid.Range {
	return gruid.NewRange(r.Min.X-n, r.Min.Y-n, r.Max.X+n, r.Max.Y+n)
}

// Overlap reports whether a and b share at least one cell.
func Overlap(a, b gruid.Range) bool {
	if IsEmpty(a) || IsEmpty(b) {
		return false
	}
	return a.Min.X < b.Max.X && b.Min.X < a.Max.X &&
		a.Min.Y < b.Max.Y && b.Min.Y < a.Max.Y
}

// Contains reports whether every cell of inner lies inside outer.
func Contains(outer, inner gruid.Range) bool {
	return inner.Min.X >= outer.Min.X && inner.Min.Y >= outer.Min.Y &&
		inner.Max.X <= outer.Max.X && inner.Max.Y <= outer.Max.Y
}

// ContainsPoint reports whether p is a cell of r.
func ContainsPoint(r gruid.Range, p gruid.Point) bool {
	return p.X >= r.Min.X && p.X < r.Max.X && p.Y >= r.Min.Y && p.Y < r.Max.Y
}

// Center returns the central cell of r, rounding towards Min.
func Center(r gruid.Range) gruid.Point {
	return gruid.Point{X: r.Min.X + (Width(r)-1)/2, Y: r.Min.Y + (Height(r)-1)/2}
}

// Gap returns the number of free cells separating a and b along the axis
// where they are furthest apart. Overlapping ranges have a gap of 0.
func Gap(a, b gruid.Range) int {
	dx := max(b.Min.X-a.Max.X, a.Min.X-b.Max.X, 0)
	dy := max(b.Min.Y-a.Max.Y, a.Min.Y-b.Max.Y, 0)
	return max(dx, dy)
}
