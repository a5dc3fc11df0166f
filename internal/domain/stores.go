package domain

import "context"

// ActivityStore captures persistence operations for activities.
//
// Optional lookups (GetByID, GetByName) return (nil, nil) when the record is
// absent; only write paths surface typed errors. There is deliberately no
// delete operation: activities are shared reference data.
type ActivityStore interface {
	Create(ctx context.Context, activity Activity) (Activity, error)
	GetByID(ctx context.Context, id int64) (*Activity, error)
	GetByName(ctx context.Context, name string) (*Activity, error)
	List(ctx context.Context) ([]Activity, error)
	// ListForRoutines returns every activity referenced by a join row of any
	// of the given routines, deduplicated, in one pass.
	ListForRoutines(ctx context.Context, routineIDs []int64) ([]Activity, error)
	// Update applies only the set fields and never the id. An empty update
	// issues no statement and returns the current record. Returns (nil, nil)
	// when the activity does not exist.
	Update(ctx context.Context, id int64, update ActivityUpdate) (*Activity, error)
}

// RoutineFilter narrows ListHeaders. Zero value means all routines.
type RoutineFilter struct {
	PublicOnly bool
	// Username filters by creator when non-empty.
	Username string
	// ActivityID filters to routines linked to that activity when non-zero.
	ActivityID int64
	// WithoutActivities selects routines that have no join rows.
	WithoutActivities bool
}

// RoutineStore captures persistence operations for routine header rows.
type RoutineStore interface {
	// Create inserts the header and returns it with the generated id.
	// Fails with ErrDuplicateRoutineName on a name collision.
	Create(ctx context.Context, routine Routine) (Routine, error)
	// GetHeader returns the header joined with the creator username, or
	// (nil, nil) when absent.
	GetHeader(ctx context.Context, id int64) (*RoutineHeader, error)
	// ListHeaders returns all headers matching the filter in one query,
	// creator username included, ordered by id.
	ListHeaders(ctx context.Context, filter RoutineFilter) ([]RoutineHeader, error)
	// Update applies only the set fields. An empty update issues no
	// statement and returns the current record. Returns (nil, nil) when the
	// routine does not exist.
	Update(ctx context.Context, id int64, update RoutineUpdate) (*Routine, error)
	// Delete removes the routine's join rows and its header inside one
	// transaction. Returns ErrRoutineNotFound when the header is absent.
	Delete(ctx context.Context, id int64) error
}

// RoutineActivityStore captures persistence operations for the join table.
type RoutineActivityStore interface {
	// Add inserts a join row. The storage layer's unique constraint on
	// (routine_id, activity_id) is the authoritative duplicate guard;
	// collisions surface as ErrDuplicateRoutineActivity.
	Add(ctx context.Context, link RoutineActivity) (RoutineActivity, error)
	GetByID(ctx context.Context, id int64) (*RoutineActivity, error)
	ListByRoutine(ctx context.Context, routineID int64) ([]RoutineActivity, error)
	// ListByRoutines returns every join row for the given routine set in one
	// pass, to be grouped by the caller.
	ListByRoutines(ctx context.Context, routineIDs []int64) ([]RoutineActivity, error)
	Update(ctx context.Context, id int64, update RoutineActivityUpdate) (*RoutineActivity, error)
	// Delete removes and returns the join row, or (nil, nil) when absent.
	Delete(ctx context.Context, id int64) (*RoutineActivity, error)
	// CanEdit reports whether the parent routine of the join row was created
	// by the given user. Ownership is derived by joining to the routine,
	// never from a denormalized column.
	CanEdit(ctx context.Context, linkID, userID int64) (bool, error)
}
