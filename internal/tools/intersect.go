package tools

import (
	"context"
	"fmt"
	"time"

	"euclidcore/pkg/domain"
)

// archiveContext bounds best-effort archive writes so a slow backend cannot
// stall the interaction loop.
func archiveContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 2*time.Second)
}

// IntersectionsNear computes every pairwise line-line, line-circle, and
// circle-circle intersection in the snapshot and returns those within
// tolerance of pos. Pure query.
func IntersectionsNear(space domain.ConstructionSpace, pos domain.Position, tolerance float64) []domain.Position {
	var all []domain.Position

	lines := make([]domain.Line, 0, len(space.Lines))
	for _, l := range space.Lines {
		lines = append(lines, l)
	}
	circles := make([]domain.Circle, 0, len(space.Circles))
	for _, c := range space.Circles {
		circles = append(circles, c)
	}

	linePos := func(l domain.Line) (domain.Position, domain.Position) {
		return space.Points[l.EndpointA].Position, space.Points[l.EndpointB].Position
	}

	for i := 0; i < len(lines); i++ {
		a1, a2 := linePos(lines[i])
		for j := i + 1; j < len(lines); j++ {
			b1, b2 := linePos(lines[j])
			all = append(all, domain.LineLineIntersections(a1, a2, b1, b2)...)
		}
		for _, c := range circles {
			all = append(all, domain.LineCircleIntersections(a1, a2, space.Points[c.Center].Position, c.Radius)...)
		}
	}
	for i := 0; i < len(circles); i++ {
		for j := i + 1; j < len(circles); j++ {
			all = append(all, domain.CircleCircleIntersections(
				space.Points[circles[i].Center].Position, circles[i].Radius,
				space.Points[circles[j].Center].Position, circles[j].Radius,
			)...)
		}
	}

	var near []domain.Position
	for _, p := range all {
		if domain.Distance(pos, p) <= tolerance {
			near = append(near, p)
		}
	}
	return near
}

// reportIntersections surfaces intersections near the click as guidance.
// Query-and-report only: the model is not mutated.
func (c *Controller) reportIntersections(snapped domain.Position) {
	near := IntersectionsNear(c.space.Snapshot(), snapped, c.cfg.SnapTolerance)
	if len(near) == 0 {
		c.guide("No intersections near here.")
		return
	}
	c.guide(fmt.Sprintf("Found %d intersection(s) near (%.0f, %.0f).", len(near), snapped.X, snapped.Y))
}
