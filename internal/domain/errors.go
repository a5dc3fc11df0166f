package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrRoutineNotFound is returned when a routine id is assumed to exist
	// but does not.
	ErrRoutineNotFound = errors.New("could not find a routine with that id")
	// ErrActivityNotFound is returned when an activity cannot be located on
	// a path that assumes its existence.
	ErrActivityNotFound = errors.New("activity not found")
	// ErrRoutineActivityNotFound is returned when a join row is absent.
	ErrRoutineActivityNotFound = errors.New("routine activity not found")
	// ErrDuplicateRoutineName indicates a unique-name collision on routines.
	ErrDuplicateRoutineName = errors.New("a routine with that name already exists")
	// ErrDuplicateActivityName indicates a unique-name collision on activities.
	ErrDuplicateActivityName = errors.New("an activity with that name already exists")
	// ErrDuplicateRoutineActivity indicates the (routine, activity) pair is
	// already linked.
	ErrDuplicateRoutineActivity = errors.New("activity already attached to routine")
	// ErrForbidden indicates an ownership check failed.
	ErrForbidden = errors.New("forbidden")
)

// ValidationError reports a missing or malformed field on a create input.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
