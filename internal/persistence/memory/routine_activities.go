package memory

import (
	"context"

	"github.com/Dragonsofash/FitnessTrackerBackend/internal/domain"
)

// RoutineActivityStore implements domain.RoutineActivityStore over the
// shared state.
type RoutineActivityStore struct {
	store *Store
}

// Add inserts a join row, enforcing the (routine, activity) pair
// uniqueness and referential integrity.
func (s *RoutineActivityStore) Add(ctx context.Context, link domain.RoutineActivity) (domain.RoutineActivity, error) {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	if _, ok := s.store.routines[link.RoutineID]; !ok {
		return domain.RoutineActivity{}, domain.ErrRoutineNotFound
	}
	if _, ok := s.store.activities[link.ActivityID]; !ok {
		return domain.RoutineActivity{}, domain.ErrActivityNotFound
	}

	pair := [2]int64{link.RoutineID, link.ActivityID}
	if _, dup := s.store.linkPairs[pair]; dup {
		return domain.RoutineActivity{}, domain.ErrDuplicateRoutineActivity
	}

	s.store.nextLink++
	link.ID = s.store.nextLink
	link.Count = copyIntPtr(link.Count)
	link.Duration = copyIntPtr(link.Duration)
	s.store.links[link.ID] = link
	s.store.linkPairs[pair] = link.ID
	return link, nil
}

// GetByID returns the join row or (nil, nil) when absent.
func (s *RoutineActivityStore) GetByID(ctx context.Context, id int64) (*domain.RoutineActivity, error) {
	s.store.mu.RLock()
	defer s.store.mu.RUnlock()

	link, ok := s.store.links[id]
	if !ok {
		return nil, nil
	}
	return &link, nil
}

// ListByRoutine returns the join rows of one routine, ordered by id.
func (s *RoutineActivityStore) ListByRoutine(ctx context.Context, routineID int64) ([]domain.RoutineActivity, error) {
	return s.ListByRoutines(ctx, []int64{routineID})
}

// ListByRoutines returns the join rows of every routine in the set,
// ordered by id.
func (s *RoutineActivityStore) ListByRoutines(ctx context.Context, routineIDs []int64) ([]domain.RoutineActivity, error) {
	s.store.mu.RLock()
	defer s.store.mu.RUnlock()

	wanted := make(map[int64]struct{}, len(routineIDs))
	for _, id := range routineIDs {
		wanted[id] = struct{}{}
	}

	out := make([]domain.RoutineActivity, 0)
	for id := int64(1); id <= s.store.nextLink; id++ {
		link, ok := s.store.links[id]
		if !ok {
			continue
		}
		if _, ok := wanted[link.RoutineID]; ok {
			out = append(out, link)
		}
	}
	return out, nil
}

// Update applies set fields to a join row. An empty update returns the
// current record untouched.
func (s *RoutineActivityStore) Update(ctx context.Context, id int64, update domain.RoutineActivityUpdate) (*domain.RoutineActivity, error) {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	link, ok := s.store.links[id]
	if !ok {
		return nil, nil
	}
	if update.IsZero() {
		return &link, nil
	}

	if update.Count != nil {
		link.Count = copyIntPtr(update.Count)
	}
	if update.Duration != nil {
		link.Duration = copyIntPtr(update.Duration)
	}

	s.store.links[id] = link
	return &link, nil
}

// Delete removes and returns the join row, or (nil, nil) when absent.
func (s *RoutineActivityStore) Delete(ctx context.Context, id int64) (*domain.RoutineActivity, error) {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	link, ok := s.store.links[id]
	if !ok {
		return nil, nil
	}
	delete(s.store.links, id)
	delete(s.store.linkPairs, [2]int64{link.RoutineID, link.ActivityID})
	return &link, nil
}

// CanEdit traces link -> routine -> creator.
func (s *RoutineActivityStore) CanEdit(ctx context.Context, linkID, userID int64) (bool, error) {
	s.store.mu.RLock()
	defer s.store.mu.RUnlock()

	link, ok := s.store.links[linkID]
	if !ok {
		return false, nil
	}
	routine, ok := s.store.routines[link.RoutineID]
	if !ok {
		return false, nil
	}
	return routine.CreatorID == userID, nil
}
