package memory

import (
	"context"

	"github.com/Dragonsofash/FitnessTrackerBackend/internal/domain"
)

// RoutineStore implements domain.RoutineStore over the shared state.
type RoutineStore struct {
	store *Store
}

// Create inserts a routine header, enforcing name uniqueness.
func (s *RoutineStore) Create(ctx context.Context, routine domain.Routine) (domain.Routine, error) {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	for _, existing := range s.store.routines {
		if existing.Name == routine.Name {
			return domain.Routine{}, domain.ErrDuplicateRoutineName
		}
	}

	s.store.nextRoutine++
	routine.ID = s.store.nextRoutine
	s.store.routines[routine.ID] = routine
	return routine, nil
}

// GetHeader returns the routine joined with its creator username.
func (s *RoutineStore) GetHeader(ctx context.Context, id int64) (*domain.RoutineHeader, error) {
	s.store.mu.RLock()
	defer s.store.mu.RUnlock()

	routine, ok := s.store.routines[id]
	if !ok {
		return nil, nil
	}
	header := domain.RoutineHeader{Routine: routine, CreatorName: s.store.users[routine.CreatorID]}
	return &header, nil
}

// ListHeaders returns headers matching the filter, ordered by id.
func (s *RoutineStore) ListHeaders(ctx context.Context, filter domain.RoutineFilter) ([]domain.RoutineHeader, error) {
	s.store.mu.RLock()
	defer s.store.mu.RUnlock()

	out := make([]domain.RoutineHeader, 0)
	for id := int64(1); id <= s.store.nextRoutine; id++ {
		routine, ok := s.store.routines[id]
		if !ok {
			continue
		}
		if filter.PublicOnly && !routine.IsPublic {
			continue
		}
		if filter.Username != "" && s.store.users[routine.CreatorID] != filter.Username {
			continue
		}
		if filter.ActivityID != 0 {
			if _, linked := s.store.linkPairs[[2]int64{routine.ID, filter.ActivityID}]; !linked {
				continue
			}
		}
		if filter.WithoutActivities && s.store.routineHasLinks(routine.ID) {
			continue
		}
		out = append(out, domain.RoutineHeader{Routine: routine, CreatorName: s.store.users[routine.CreatorID]})
	}
	return out, nil
}

// Update applies set fields to a routine header. An empty update returns
// the current record untouched.
func (s *RoutineStore) Update(ctx context.Context, id int64, update domain.RoutineUpdate) (*domain.Routine, error) {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	routine, ok := s.store.routines[id]
	if !ok {
		return nil, nil
	}
	if update.IsZero() {
		return &routine, nil
	}

	if update.Name != nil {
		for otherID, other := range s.store.routines {
			if otherID != id && other.Name == *update.Name {
				return nil, domain.ErrDuplicateRoutineName
			}
		}
		routine.Name = *update.Name
	}
	if update.IsPublic != nil {
		routine.IsPublic = *update.IsPublic
	}
	if update.Goal != nil {
		routine.Goal = *update.Goal
	}

	s.store.routines[id] = routine
	return &routine, nil
}

// Delete removes the routine and all of its join rows under one lock, so
// observers never see a half-deleted state.
func (s *RoutineStore) Delete(ctx context.Context, id int64) error {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	if _, ok := s.store.routines[id]; !ok {
		return domain.ErrRoutineNotFound
	}

	for linkID, link := range s.store.links {
		if link.RoutineID == id {
			delete(s.store.links, linkID)
			delete(s.store.linkPairs, [2]int64{link.RoutineID, link.ActivityID})
		}
	}
	delete(s.store.routines, id)
	return nil
}
