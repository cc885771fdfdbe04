// Package classify maps a construction-space snapshot to a heuristic
// archetype used to drive the unlock mechanic.
package classify

import "euclidcore/pkg/domain"

// Classify assigns a construction tag from element counts alone. It is a
// heuristic, not geometric verification: branches are evaluated in fixed
// priority order and the first match wins, which matters because the ranges
// overlap (three lines and two circles satisfy the perpendicular-bisector
// branch too, but must report the equilateral triangle).
func Classify(space domain.ConstructionSpace) domain.ConstructionTag {
	lines := space.LineCount()
	circles := space.CircleCount()

	switch {
	case lines >= 3 && circles >= 2:
		return domain.TagEquilateralTriangle
	case lines >= 2 && circles >= 2:
		return domain.TagPerpendicularBisector
	case circles >= 1:
		return domain.TagCircle
	case lines >= 1:
		return domain.TagLineSegment
	default:
		return domain.TagBasicConstruction
	}
}
