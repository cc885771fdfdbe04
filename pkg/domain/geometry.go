// Package domain defines the geometric entities, value types, wire payloads,
// and error taxonomy used by the euclidcore construction-space engine.
package domain

import "math"

// Epsilon is the tolerance used for floating point comparisons in
// intersection and degeneracy checks.
const Epsilon = 1e-10

// Position is a location in canvas/grid units.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Distance returns the Euclidean distance between two positions.
func Distance(a, b Position) float64 {
	dx := b.X - a.X
	dy := b.Y - a.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// SnapToGrid rounds each coordinate independently to the nearest multiple of
// gridSize. A non-positive gridSize disables snapping.
func SnapToGrid(p Position, gridSize float64) Position {
	if gridSize <= 0 {
		return p
	}
	return Position{
		X: math.Round(p.X/gridSize) * gridSize,
		Y: math.Round(p.Y/gridSize) * gridSize,
	}
}

// LineLineIntersections computes the intersection of the infinite lines
// through (a1, a2) and (b1, b2). Parallel lines yield no result.
func LineLineIntersections(a1, a2, b1, b2 Position) []Position {
	d1x, d1y := a2.X-a1.X, a2.Y-a1.Y
	d2x, d2y := b2.X-b1.X, b2.Y-b1.Y

	det := d1x*d2y - d1y*d2x
	if math.Abs(det) < Epsilon {
		return nil
	}

	dx, dy := b1.X-a1.X, b1.Y-a1.Y
	t := (dx*d2y - dy*d2x) / det
	return []Position{{X: a1.X + t*d1x, Y: a1.Y + t*d1y}}
}

// LineCircleIntersections computes intersections between the infinite line
// through (p1, p2) and the circle at center with the given radius. Tangency
// yields a single point, a secant two, a disjoint pair none.
func LineCircleIntersections(p1, p2, center Position, radius float64) []Position {
	length := Distance(p1, p2)
	if length < Epsilon {
		return nil
	}
	dirX := (p2.X - p1.X) / length
	dirY := (p2.Y - p1.Y) / length

	// Project the center onto the line to find the closest approach.
	toCX, toCY := center.X-p1.X, center.Y-p1.Y
	proj := toCX*dirX + toCY*dirY
	closest := Position{X: p1.X + proj*dirX, Y: p1.Y + proj*dirY}
	dist := Distance(center, closest)

	switch {
	case dist > radius+Epsilon:
		return nil
	case math.Abs(dist-radius) < Epsilon:
		return []Position{closest}
	default:
		half := math.Sqrt(radius*radius - dist*dist)
		return []Position{
			{X: closest.X + half*dirX, Y: closest.Y + half*dirY},
			{X: closest.X - half*dirX, Y: closest.Y - half*dirY},
		}
	}
}

// CircleCircleIntersections computes the intersections of two circles.
// Separated, nested, and coincident circles yield no result.
func CircleCircleIntersections(c1 Position, r1 float64, c2 Position, r2 float64) []Position {
	d := Distance(c1, c2)
	if d > r1+r2+Epsilon {
		return nil
	}
	if d < math.Abs(r1-r2)-Epsilon {
		return nil
	}
	if d < Epsilon && math.Abs(r1-r2) < Epsilon {
		// Coincident circles intersect everywhere; report nothing.
		return nil
	}

	a := (r1*r1 - r2*r2 + d*d) / (2 * d)
	h2 := r1*r1 - a*a
	if h2 < 0 {
		h2 = 0
	}
	h := math.Sqrt(h2)

	dirX, dirY := (c2.X-c1.X)/d, (c2.Y-c1.Y)/d
	base := Position{X: c1.X + a*dirX, Y: c1.Y + a*dirY}

	if h < Epsilon {
		return []Position{base}
	}
	// Perpendicular to the center line.
	return []Position{
		{X: base.X - h*dirY, Y: base.Y + h*dirX},
		{X: base.X + h*dirY, Y: base.Y - h*dirX},
	}
}

// Collinear reports whether three positions lie on a common line within the
// given tolerance, measured by triangle area.
func Collinear(p1, p2, p3 Position, tolerance float64) bool {
	area := 0.5 * ((p2.X-p1.X)*(p3.Y-p1.Y) - (p3.X-p1.X)*(p2.Y-p1.Y))
	return math.Abs(area) < tolerance
}
