package engine

import "euclidcore/pkg/domain"

// NearestPoint returns the point whose Euclidean distance to pos is smallest
// and no greater than tolerance. Exact ties are broken by insertion order
// (earlier point wins), so dense placements resolve deterministically. Pure
// query: no side effects.
func (s *Space) NearestPoint(pos domain.Position, tolerance float64) (domain.Point, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		best     domain.Point
		bestDist float64
		found    bool
	)
	for _, id := range s.state.pointOrder {
		p := s.state.points[id]
		d := domain.Distance(pos, p.Position)
		if d > tolerance {
			continue
		}
		if !found || d < bestDist {
			best = p
			bestDist = d
			found = true
		}
	}
	return best, found
}
