package engine

import (
	"testing"

	"euclidcore/pkg/domain"
)

func TestNearestPointWithinTolerance(t *testing.T) {
	s := NewSpace()
	far := s.AddPoint(domain.Position{X: 100, Y: 100}, "")
	near := s.AddPoint(domain.Position{X: 8, Y: 0}, "")

	got, ok := s.NearestPoint(domain.Position{X: 0, Y: 0}, 10)
	if !ok || got.ID != near.ID {
		t.Fatalf("expected nearest point %s, got %+v ok=%v", near.ID, got, ok)
	}

	if _, ok := s.NearestPoint(domain.Position{X: 0, Y: 0}, 5); ok {
		t.Fatalf("no point within tolerance 5, expected miss")
	}
	_ = far

	// Distance exactly at tolerance still matches.
	if got, ok := s.NearestPoint(domain.Position{X: 0, Y: 0}, 8); !ok || got.ID != near.ID {
		t.Fatalf("boundary distance must match, got ok=%v", ok)
	}
}

func TestNearestPointTieBreaksByInsertionOrder(t *testing.T) {
	s := NewSpace()
	first := s.AddPoint(domain.Position{X: 5, Y: 0}, "")
	second := s.AddPoint(domain.Position{X: -5, Y: 0}, "")

	for i := 0; i < 20; i++ {
		got, ok := s.NearestPoint(domain.Position{X: 0, Y: 0}, 10)
		if !ok || got.ID != first.ID {
			t.Fatalf("tie must resolve to earliest insertion %s, got %s", first.ID, got.ID)
		}
	}
	_ = second
}

func TestNearestPointOnEmptySpace(t *testing.T) {
	s := NewSpace()
	if _, ok := s.NearestPoint(domain.Position{}, 1000); ok {
		t.Fatalf("empty space must report no nearest point")
	}
}
