// Package memory provides an in-memory snapshot archive used for tests and
// ephemeral sessions.
package memory

import (
	"context"
	"sort"
	"sync"

	"euclidcore/pkg/domain"
)

// Compile-time contract assertion.
var _ domain.SpaceArchive = (*Store)(nil)

// Store keeps the latest snapshot per session in process memory.
type Store struct {
	mu        sync.RWMutex
	snapshots map[string]domain.ConstructionSpace
}

// NewStore constructs an empty archive.
func NewStore() *Store {
	return &Store{snapshots: make(map[string]domain.ConstructionSpace)}
}

// SaveSnapshot stores a deep copy of the snapshot, replacing any previous one.
func (s *Store) SaveSnapshot(_ context.Context, sessionID string, space domain.ConstructionSpace) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots[sessionID] = space.Clone()
	return nil
}

// LoadLatest returns a deep copy of the stored snapshot, validated against
// the model invariants.
func (s *Store) LoadLatest(_ context.Context, sessionID string) (domain.ConstructionSpace, bool, error) {
	s.mu.RLock()
	snapshot, ok := s.snapshots[sessionID]
	s.mu.RUnlock()
	if !ok {
		return domain.ConstructionSpace{}, false, nil
	}
	if err := domain.ValidateSnapshot(snapshot); err != nil {
		return domain.ConstructionSpace{}, false, err
	}
	return snapshot.Clone(), true, nil
}

// Sessions lists stored session ids, sorted.
func (s *Store) Sessions(context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.snapshots))
	for id := range s.snapshots {
		out = append(out, id)
	}
	sort.Strings(out)
	return out, nil
}
