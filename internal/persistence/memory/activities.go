package memory

import (
	"context"

	"github.com/Dragonsofash/FitnessTrackerBackend/internal/domain"
)

// ActivityStore implements domain.ActivityStore over the shared state.
type ActivityStore struct {
	store *Store
}

// Create inserts an activity, enforcing name uniqueness.
func (s *ActivityStore) Create(ctx context.Context, activity domain.Activity) (domain.Activity, error) {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	for _, existing := range s.store.activities {
		if existing.Name == activity.Name {
			return domain.Activity{}, domain.ErrDuplicateActivityName
		}
	}

	s.store.nextAct++
	activity.ID = s.store.nextAct
	s.store.activities[activity.ID] = activity
	return activity, nil
}

// GetByID returns the activity or (nil, nil) when absent.
func (s *ActivityStore) GetByID(ctx context.Context, id int64) (*domain.Activity, error) {
	s.store.mu.RLock()
	defer s.store.mu.RUnlock()

	activity, ok := s.store.activities[id]
	if !ok {
		return nil, nil
	}
	return &activity, nil
}

// GetByName returns the activity or (nil, nil) when absent.
func (s *ActivityStore) GetByName(ctx context.Context, name string) (*domain.Activity, error) {
	s.store.mu.RLock()
	defer s.store.mu.RUnlock()

	for _, activity := range s.store.activities {
		if activity.Name == name {
			a := activity
			return &a, nil
		}
	}
	return nil, nil
}

// List returns all activities ordered by id.
func (s *ActivityStore) List(ctx context.Context) ([]domain.Activity, error) {
	s.store.mu.RLock()
	defer s.store.mu.RUnlock()

	out := make([]domain.Activity, 0, len(s.store.activities))
	for id := int64(1); id <= s.store.nextAct; id++ {
		if activity, ok := s.store.activities[id]; ok {
			out = append(out, activity)
		}
	}
	return out, nil
}

// ListForRoutines returns the deduplicated activities referenced by join
// rows of the given routines.
func (s *ActivityStore) ListForRoutines(ctx context.Context, routineIDs []int64) ([]domain.Activity, error) {
	s.store.mu.RLock()
	defer s.store.mu.RUnlock()

	wanted := make(map[int64]struct{}, len(routineIDs))
	for _, id := range routineIDs {
		wanted[id] = struct{}{}
	}

	seen := make(map[int64]struct{})
	out := make([]domain.Activity, 0)
	for linkID := int64(1); linkID <= s.store.nextLink; linkID++ {
		link, ok := s.store.links[linkID]
		if !ok {
			continue
		}
		if _, ok := wanted[link.RoutineID]; !ok {
			continue
		}
		if _, dup := seen[link.ActivityID]; dup {
			continue
		}
		seen[link.ActivityID] = struct{}{}
		if activity, ok := s.store.activities[link.ActivityID]; ok {
			out = append(out, activity)
		}
	}
	return out, nil
}

// Update applies set fields to an activity. An empty update returns the
// current record untouched.
func (s *ActivityStore) Update(ctx context.Context, id int64, update domain.ActivityUpdate) (*domain.Activity, error) {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	activity, ok := s.store.activities[id]
	if !ok {
		return nil, nil
	}
	if update.IsZero() {
		return &activity, nil
	}

	if update.Name != nil {
		for otherID, other := range s.store.activities {
			if otherID != id && other.Name == *update.Name {
				return nil, domain.ErrDuplicateActivityName
			}
		}
		activity.Name = *update.Name
	}
	if update.Description != nil {
		activity.Description = *update.Description
	}

	s.store.activities[id] = activity
	return &activity, nil
}
