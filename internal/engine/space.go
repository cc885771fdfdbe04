// Package engine owns the live geometric model for one session: the point,
// line, and circle sets plus the append-only construction history.
package engine

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"euclidcore/pkg/domain"
)

type spaceState struct {
	points     map[string]domain.Point
	lines      map[string]domain.Line
	circles    map[string]domain.Circle
	pointOrder []string
	history    []domain.HistoryEntry
}

func newSpaceState() spaceState {
	return spaceState{
		points:  make(map[string]domain.Point),
		lines:   make(map[string]domain.Line),
		circles: make(map[string]domain.Circle),
	}
}

// Space is the exclusively owned aggregate model. All mutation goes through
// the commit methods; collaborators only ever see snapshots. Every commit
// inserts the element and appends its history entry under one lock, so an
// element never exists without a history record.
type Space struct {
	mu    sync.RWMutex
	state spaceState
	nowFn func() time.Time
}

// NewSpace constructs an empty construction space.
func NewSpace() *Space {
	return &Space{
		state: newSpaceState(),
		nowFn: func() time.Time { return time.Now().UTC() },
	}
}

// newID generates a session-unique id of the form {kind}_{unix-milli}_{hex}.
// Uniqueness only needs to hold for the lifetime of one space.
func (s *Space) newID(kind domain.ElementKind) string {
	for {
		var b [3]byte
		if _, err := rand.Read(b[:]); err != nil {
			panic(err)
		}
		id := fmt.Sprintf("%s_%d_%s", kind, s.nowFn().UnixMilli(), hex.EncodeToString(b[:]))
		if !s.idExists(id) {
			return id
		}
	}
}

func (s *Space) idExists(id string) bool {
	if _, ok := s.state.points[id]; ok {
		return true
	}
	if _, ok := s.state.lines[id]; ok {
		return true
	}
	_, ok := s.state.circles[id]
	return ok
}

func (s *Space) appendHistory(action domain.ActionTag, ids ...string) {
	s.state.history = append(s.state.history, domain.HistoryEntry{
		Action:     action,
		ElementIDs: ids,
		CreatedAt:  s.nowFn(),
	})
}

// AddPoint commits a point at the given position. It never fails; ids are
// always freshly generated.
func (s *Space) AddPoint(pos domain.Position, label string) domain.Point {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insertPoint(pos, label, false, nil, domain.ActionAddPoint)
}

func (s *Space) insertPoint(pos domain.Position, label string, constructed bool, deps []string, action domain.ActionTag) domain.Point {
	p := domain.Point{
		ID:           s.newID(domain.KindPoint),
		Position:     pos,
		Label:        label,
		Constructed:  constructed,
		Dependencies: append([]string(nil), deps...),
		CreatedAt:    s.nowFn(),
	}
	s.state.points[p.ID] = p
	s.state.pointOrder = append(s.state.pointOrder, p.ID)
	s.appendHistory(action, p.ID)
	return p
}

// AddLine commits a line through two distinct existing points. It fails with
// UnknownReferenceError when either point is absent and DegenerateLineError
// when the endpoints coincide; the model is unchanged on failure.
func (s *Space) AddLine(idA, idB, label string) (domain.Line, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if idA == idB {
		return domain.Line{}, domain.DegenerateLineError{PointID: idA}
	}
	if _, ok := s.state.points[idA]; !ok {
		return domain.Line{}, domain.UnknownReferenceError{PointID: idA}
	}
	if _, ok := s.state.points[idB]; !ok {
		return domain.Line{}, domain.UnknownReferenceError{PointID: idB}
	}

	l := domain.Line{
		ID:        s.newID(domain.KindLine),
		EndpointA: idA,
		EndpointB: idB,
		Label:     label,
		CreatedAt: s.nowFn(),
	}
	s.state.lines[l.ID] = l
	s.appendHistory(domain.ActionCreateLine, l.ID)
	return l, nil
}

// AddCircle commits a circle defined by a center point and a radius point.
// The radius is computed once, here, as the Euclidean distance between the
// two referenced points.
func (s *Space) AddCircle(centerID, radiusID, label string) (domain.Circle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if centerID == radiusID {
		return domain.Circle{}, domain.DegenerateCircleError{PointID: centerID}
	}
	center, ok := s.state.points[centerID]
	if !ok {
		return domain.Circle{}, domain.UnknownReferenceError{PointID: centerID}
	}
	radiusPoint, ok := s.state.points[radiusID]
	if !ok {
		return domain.Circle{}, domain.UnknownReferenceError{PointID: radiusID}
	}

	c := domain.Circle{
		ID:          s.newID(domain.KindCircle),
		Center:      centerID,
		RadiusPoint: radiusID,
		Radius:      domain.Distance(center.Position, radiusPoint.Position),
		Label:       label,
		CreatedAt:   s.nowFn(),
	}
	s.state.circles[c.ID] = c
	s.appendHistory(domain.ActionCreateCircle, c.ID)
	return c, nil
}

// AddIntersections computes the intersections of two existing lines/circles
// and commits them as constructed points in a single history entry. Elements
// may be named in either order.
func (s *Space) AddIntersections(idA, idB string) ([]domain.Point, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	positions, deps, err := s.intersectionsLocked(idA, idB)
	if err != nil {
		return nil, err
	}
	if len(positions) == 0 {
		return nil, nil
	}

	points := make([]domain.Point, 0, len(positions))
	ids := make([]string, 0, len(positions))
	for _, pos := range positions {
		p := domain.Point{
			ID:           s.newID(domain.KindPoint),
			Position:     pos,
			Constructed:  true,
			Dependencies: append([]string(nil), deps...),
			CreatedAt:    s.nowFn(),
		}
		s.state.points[p.ID] = p
		s.state.pointOrder = append(s.state.pointOrder, p.ID)
		points = append(points, p)
		ids = append(ids, p.ID)
	}
	s.appendHistory(domain.ActionAddIntersections, ids...)
	return points, nil
}

func (s *Space) intersectionsLocked(idA, idB string) ([]domain.Position, []string, error) {
	deps := []string{idA, idB}
	if la, ok := s.state.lines[idA]; ok {
		if lb, ok := s.state.lines[idB]; ok {
			return domain.LineLineIntersections(
				s.state.points[la.EndpointA].Position, s.state.points[la.EndpointB].Position,
				s.state.points[lb.EndpointA].Position, s.state.points[lb.EndpointB].Position,
			), deps, nil
		}
		if cb, ok := s.state.circles[idB]; ok {
			return domain.LineCircleIntersections(
				s.state.points[la.EndpointA].Position, s.state.points[la.EndpointB].Position,
				s.state.points[cb.Center].Position, cb.Radius,
			), deps, nil
		}
	}
	if ca, ok := s.state.circles[idA]; ok {
		if lb, ok := s.state.lines[idB]; ok {
			return domain.LineCircleIntersections(
				s.state.points[lb.EndpointA].Position, s.state.points[lb.EndpointB].Position,
				s.state.points[ca.Center].Position, ca.Radius,
			), deps, nil
		}
		if cb, ok := s.state.circles[idB]; ok {
			return domain.CircleCircleIntersections(
				s.state.points[ca.Center].Position, ca.Radius,
				s.state.points[cb.Center].Position, cb.Radius,
			), deps, nil
		}
	}
	return nil, nil, fmt.Errorf("elements %q and %q are not intersectable", idA, idB)
}

// Clear resets the space to empty and discards all history. Clearing an empty
// space is a no-op, so the operation is idempotent.
func (s *Space) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = newSpaceState()
}

// FindPoint returns a point by id.
func (s *Space) FindPoint(id string) (domain.Point, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.state.points[id]
	return p, ok
}

// Snapshot returns a deep read-only copy of the current space.
func (s *Space) Snapshot() domain.ConstructionSpace {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := domain.NewConstructionSpace()
	for id, p := range s.state.points {
		cp := p
		cp.Dependencies = append([]string(nil), p.Dependencies...)
		out.Points[id] = cp
	}
	for id, l := range s.state.lines {
		out.Lines[id] = l
	}
	for id, c := range s.state.circles {
		out.Circles[id] = c
	}
	out.PointOrder = append([]string(nil), s.state.pointOrder...)
	for _, h := range s.state.history {
		ch := h
		ch.ElementIDs = append([]string(nil), h.ElementIDs...)
		out.History = append(out.History, ch)
	}
	return out
}

// Restore replaces the space contents with a validated snapshot. Used by the
// archive loader; invalid snapshots are rejected untouched.
func (s *Space) Restore(snapshot domain.ConstructionSpace) error {
	if err := domain.ValidateSnapshot(snapshot); err != nil {
		return err
	}
	cloned := snapshot.Clone()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = spaceState{
		points:     cloned.Points,
		lines:      cloned.Lines,
		circles:    cloned.Circles,
		pointOrder: cloned.PointOrder,
		history:    cloned.History,
	}
	return nil
}

// HistoryLen returns the number of history entries.
func (s *Space) HistoryLen() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.state.history)
}

// ElementCount returns the total number of committed elements.
func (s *Space) ElementCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.state.points) + len(s.state.lines) + len(s.state.circles)
}
