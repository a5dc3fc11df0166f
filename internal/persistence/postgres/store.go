// Package postgres provides pgx-backed persistence for routines,
// activities and their join rows.
package postgres

import (
	"errors"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/Dragonsofash/FitnessTrackerBackend/internal/domain"
)

// psql builds fully parameterized queries with Postgres placeholders. No
// value, not even an internally sourced id, is ever interpolated into
// query text.
var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
)

// mapConstraintError translates Postgres constraint violations into the
// domain error taxonomy. Unmatched errors pass through unchanged.
func mapConstraintError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	switch pgErr.Code {
	case codeUniqueViolation:
		switch pgErr.ConstraintName {
		case "activities_name_key":
			return domain.ErrDuplicateActivityName
		case "routines_name_key":
			return domain.ErrDuplicateRoutineName
		case "routine_activities_routine_id_activity_id_key":
			return domain.ErrDuplicateRoutineActivity
		}
	case codeForeignKeyViolation:
		switch pgErr.ConstraintName {
		case "routine_activities_routine_id_fkey":
			return domain.ErrRoutineNotFound
		case "routine_activities_activity_id_fkey":
			return domain.ErrActivityNotFound
		}
	}
	return err
}
