// Package domain defines the business logic for the fitness tracker core.
package domain

// Principal is the authenticated identity supplied by the auth layer.
// The core never inspects credentials; it trusts this value.
type Principal struct {
	ID       int64
	Username string
}

// Activity is a reusable exercise definition with an independent lifecycle.
type Activity struct {
	ID          int64
	Name        string
	Description string
}

// Routine is the header row of a named, goal-tagged collection of activities.
// It is owned exclusively by its creator for write purposes.
type Routine struct {
	ID        int64
	CreatorID int64
	IsPublic  bool
	Name      string
	Goal      string
}

// RoutineHeader is a Routine joined with its creator's username.
type RoutineHeader struct {
	Routine
	CreatorName string
}

// RoutineActivity is the join row binding one Activity to one Routine with
// routine-specific parameters. At most one row exists per
// (RoutineID, ActivityID) pair. Count and Duration are nullable columns.
type RoutineActivity struct {
	ID         int64
	RoutineID  int64
	ActivityID int64
	Count      *int
	Duration   *int
}

// RoutineView is the read-model DTO combining a routine, its creator's
// username, and its merged activity list. Activities is never nil.
type RoutineView struct {
	ID          int64
	CreatorID   int64
	CreatorName string
	IsPublic    bool
	Name        string
	Goal        string
	Activities  []AttachedActivity
}

// AttachedActivity is a per-view copy of an Activity merged with the fields
// of one RoutineActivity row. Mutating it never touches the canonical
// Activity record.
type AttachedActivity struct {
	ID                int64
	Name              string
	Description       string
	Count             *int
	Duration          *int
	RoutineID         int64
	RoutineActivityID int64
}

// ActivityUpdate carries a partial update for an activity. Nil fields are
// left untouched.
type ActivityUpdate struct {
	Name        *string
	Description *string
}

// IsZero reports whether no field is set.
func (u ActivityUpdate) IsZero() bool {
	return u.Name == nil && u.Description == nil
}

// RoutineUpdate carries a partial update for routine header fields.
type RoutineUpdate struct {
	IsPublic *bool
	Name     *string
	Goal     *string
}

// IsZero reports whether no field is set.
func (u RoutineUpdate) IsZero() bool {
	return u.IsPublic == nil && u.Name == nil && u.Goal == nil
}

// RoutineActivityUpdate carries a partial update for a join row.
type RoutineActivityUpdate struct {
	Count    *int
	Duration *int
}

// IsZero reports whether no field is set.
func (u RoutineActivityUpdate) IsZero() bool {
	return u.Count == nil && u.Duration == nil
}
