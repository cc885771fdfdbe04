package classify

import (
	"fmt"
	"testing"
	"time"

	"euclidcore/pkg/domain"
)

func spaceWith(lines, circles int) domain.ConstructionSpace {
	now := time.Now().UTC()
	s := domain.NewConstructionSpace()
	s.Points["p1"] = domain.Point{ID: "p1", CreatedAt: now}
	s.Points["p2"] = domain.Point{ID: "p2", Position: domain.Position{X: 1}, CreatedAt: now}
	s.PointOrder = []string{"p1", "p2"}
	for i := 0; i < lines; i++ {
		id := fmt.Sprintf("l%d", i)
		s.Lines[id] = domain.Line{ID: id, EndpointA: "p1", EndpointB: "p2", CreatedAt: now}
	}
	for i := 0; i < circles; i++ {
		id := fmt.Sprintf("c%d", i)
		s.Circles[id] = domain.Circle{ID: id, Center: "p1", RadiusPoint: "p2", Radius: 1, CreatedAt: now}
	}
	return s
}

func TestClassifyBranchOrder(t *testing.T) {
	cases := []struct {
		lines, circles int
		want           domain.ConstructionTag
	}{
		{3, 2, domain.TagEquilateralTriangle},
		{5, 7, domain.TagEquilateralTriangle},
		{2, 2, domain.TagPerpendicularBisector},
		{2, 5, domain.TagPerpendicularBisector},
		{3, 1, domain.TagCircle},
		{0, 1, domain.TagCircle},
		{1, 0, domain.TagLineSegment},
		{4, 0, domain.TagLineSegment},
		{0, 0, domain.TagBasicConstruction},
	}
	for _, tc := range cases {
		got := Classify(spaceWith(tc.lines, tc.circles))
		if got != tc.want {
			t.Fatalf("lines=%d circles=%d: expected %s, got %s", tc.lines, tc.circles, tc.want, got)
		}
	}
}

func TestClassifyIgnoresPointCount(t *testing.T) {
	s := spaceWith(0, 0)
	for i := 0; i < 50; i++ {
		id := fmt.Sprintf("extra%d", i)
		s.Points[id] = domain.Point{ID: id}
		s.PointOrder = append(s.PointOrder, id)
	}
	if got := Classify(s); got != domain.TagBasicConstruction {
		t.Fatalf("points alone stay basic_construction, got %s", got)
	}
}
