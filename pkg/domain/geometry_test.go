package domain

import (
	"math"
	"testing"
)

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestDistance(t *testing.T) {
	if d := Distance(Position{X: 0, Y: 0}, Position{X: 3, Y: 4}); !approx(d, 5) {
		t.Fatalf("expected distance 5, got %v", d)
	}
	if d := Distance(Position{X: 2, Y: 2}, Position{X: 2, Y: 2}); !approx(d, 0) {
		t.Fatalf("expected zero distance, got %v", d)
	}
}

func TestSnapToGrid(t *testing.T) {
	p := SnapToGrid(Position{X: 27, Y: 12}, 20)
	if !approx(p.X, 20) || !approx(p.Y, 20) {
		t.Fatalf("expected snap to (20,20), got (%v,%v)", p.X, p.Y)
	}
	// math.Round rounds half away from zero on both sides.
	p = SnapToGrid(Position{X: 30, Y: -30}, 20)
	if !approx(p.X, 40) || !approx(p.Y, -40) {
		t.Fatalf("half-grid rounding mismatch: got (%v,%v)", p.X, p.Y)
	}
	raw := Position{X: 13.7, Y: -4.2}
	if got := SnapToGrid(raw, 0); got != raw {
		t.Fatalf("non-positive grid must disable snapping, got %+v", got)
	}
}

func TestLineLineIntersections(t *testing.T) {
	got := LineLineIntersections(
		Position{X: -10, Y: 0}, Position{X: 10, Y: 0},
		Position{X: 0, Y: -10}, Position{X: 0, Y: 10},
	)
	if len(got) != 1 || !approx(got[0].X, 0) || !approx(got[0].Y, 0) {
		t.Fatalf("expected single intersection at origin, got %+v", got)
	}

	if got := LineLineIntersections(
		Position{X: 0, Y: 0}, Position{X: 10, Y: 0},
		Position{X: 0, Y: 5}, Position{X: 10, Y: 5},
	); len(got) != 0 {
		t.Fatalf("parallel lines must not intersect, got %+v", got)
	}

	// Intersection may lie outside both segments; lines are infinite.
	got = LineLineIntersections(
		Position{X: 0, Y: 0}, Position{X: 1, Y: 0},
		Position{X: 5, Y: -1}, Position{X: 5, Y: 1},
	)
	if len(got) != 1 || !approx(got[0].X, 5) || !approx(got[0].Y, 0) {
		t.Fatalf("expected extension intersection at (5,0), got %+v", got)
	}
}

func TestLineCircleIntersections(t *testing.T) {
	center := Position{X: 0, Y: 0}

	secant := LineCircleIntersections(Position{X: -10, Y: 0}, Position{X: 10, Y: 0}, center, 5)
	if len(secant) != 2 {
		t.Fatalf("expected two secant intersections, got %d", len(secant))
	}
	for _, p := range secant {
		if !approx(math.Abs(p.X), 5) || !approx(p.Y, 0) {
			t.Fatalf("secant point off circle: %+v", p)
		}
	}

	tangent := LineCircleIntersections(Position{X: -10, Y: 5}, Position{X: 10, Y: 5}, center, 5)
	if len(tangent) != 1 || !approx(tangent[0].X, 0) || !approx(tangent[0].Y, 5) {
		t.Fatalf("expected tangent point (0,5), got %+v", tangent)
	}

	if miss := LineCircleIntersections(Position{X: -10, Y: 9}, Position{X: 10, Y: 9}, center, 5); len(miss) != 0 {
		t.Fatalf("expected no intersections, got %+v", miss)
	}

	if got := LineCircleIntersections(center, center, center, 5); len(got) != 0 {
		t.Fatalf("coincident line endpoints must yield nothing, got %+v", got)
	}
}

func TestCircleCircleIntersections(t *testing.T) {
	got := CircleCircleIntersections(Position{X: 0, Y: 0}, 5, Position{X: 6, Y: 0}, 5)
	if len(got) != 2 {
		t.Fatalf("expected two intersections, got %d", len(got))
	}
	for _, p := range got {
		if !approx(p.X, 3) || !approx(math.Abs(p.Y), 4) {
			t.Fatalf("intersection off both circles: %+v", p)
		}
	}

	tangent := CircleCircleIntersections(Position{X: 0, Y: 0}, 3, Position{X: 5, Y: 0}, 2)
	if len(tangent) != 1 || !approx(tangent[0].X, 3) || !approx(tangent[0].Y, 0) {
		t.Fatalf("expected external tangency at (3,0), got %+v", tangent)
	}

	if got := CircleCircleIntersections(Position{X: 0, Y: 0}, 2, Position{X: 10, Y: 0}, 2); len(got) != 0 {
		t.Fatalf("separated circles must not intersect, got %+v", got)
	}
	if got := CircleCircleIntersections(Position{X: 0, Y: 0}, 10, Position{X: 1, Y: 0}, 2); len(got) != 0 {
		t.Fatalf("nested circles must not intersect, got %+v", got)
	}
	if got := CircleCircleIntersections(Position{X: 0, Y: 0}, 4, Position{X: 0, Y: 0}, 4); len(got) != 0 {
		t.Fatalf("coincident circles must report nothing, got %+v", got)
	}
}

func TestCollinear(t *testing.T) {
	if !Collinear(Position{X: 0, Y: 0}, Position{X: 5, Y: 5}, Position{X: 10, Y: 10}, 1e-9) {
		t.Fatalf("expected collinear points")
	}
	if Collinear(Position{X: 0, Y: 0}, Position{X: 5, Y: 5}, Position{X: 10, Y: 11}, 1e-9) {
		t.Fatalf("expected non-collinear points")
	}
}
