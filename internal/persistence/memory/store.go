// Package memory provides in-memory stores for unit tests and local
// development. They mirror the constraint behavior of the Postgres stores:
// unique names, a unique (routine, activity) pair, and atomic cascade
// delete under one lock.
package memory

import (
	"sync"

	"github.com/Dragonsofash/FitnessTrackerBackend/internal/domain"
)

// Store holds the state shared by the three facade stores, the way the
// Postgres stores share one connection pool.
type Store struct {
	mu sync.RWMutex

	users       map[int64]string
	activities  map[int64]domain.Activity
	routines    map[int64]domain.Routine
	links       map[int64]domain.RoutineActivity
	linkPairs   map[[2]int64]int64
	nextUser    int64
	nextAct     int64
	nextRoutine int64
	nextLink    int64
}

// NewStore constructs an empty Store.
func NewStore() *Store {
	return &Store{
		users:      make(map[int64]string),
		activities: make(map[int64]domain.Activity),
		routines:   make(map[int64]domain.Routine),
		links:      make(map[int64]domain.RoutineActivity),
		linkPairs:  make(map[[2]int64]int64),
	}
}

// AddUser registers a user and returns its id. Users are owned by the
// external auth collaborator; this exists so routines have creators to
// join against.
func (s *Store) AddUser(username string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextUser++
	s.users[s.nextUser] = username
	return s.nextUser
}

// Activities returns the activity facade.
func (s *Store) Activities() *ActivityStore { return &ActivityStore{store: s} }

// Routines returns the routine facade.
func (s *Store) Routines() *RoutineStore { return &RoutineStore{store: s} }

// RoutineActivities returns the join-row facade.
func (s *Store) RoutineActivities() *RoutineActivityStore {
	return &RoutineActivityStore{store: s}
}

func (s *Store) routineHasLinks(routineID int64) bool {
	for _, link := range s.links {
		if link.RoutineID == routineID {
			return true
		}
	}
	return false
}

func copyIntPtr(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
