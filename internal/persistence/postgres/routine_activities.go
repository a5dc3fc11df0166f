package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Dragonsofash/FitnessTrackerBackend/internal/domain"
	"github.com/Dragonsofash/FitnessTrackerBackend/internal/observability"
)

// RoutineActivityStore provides Postgres-backed persistence for the join
// table binding routines to activities.
type RoutineActivityStore struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewRoutineActivityStore constructs a RoutineActivityStore.
func NewRoutineActivityStore(pool *pgxpool.Pool, logger *slog.Logger) *RoutineActivityStore {
	return &RoutineActivityStore{pool: pool, logger: logger}
}

// Add inserts a join row. The unique constraint on
// (routine_id, activity_id) is the authoritative duplicate guard, so a
// concurrent duplicate insert loses cleanly instead of racing a
// check-then-insert.
func (s *RoutineActivityStore) Add(ctx context.Context, link domain.RoutineActivity) (domain.RoutineActivity, error) {
	start := time.Now()

	const query = `INSERT INTO routine_activities (routine_id, activity_id, count, duration)
        VALUES ($1, $2, $3, $4) RETURNING id`

	err := s.pool.QueryRow(ctx, query, link.RoutineID, link.ActivityID, link.Count, link.Duration).Scan(&link.ID)
	if err != nil {
		observability.RecordStoreError("routine_activity")
		return domain.RoutineActivity{}, fmt.Errorf("insert routine activity: %w", mapConstraintError(err))
	}

	s.logger.Info("routine activity added",
		"routine_activity_id", link.ID,
		"routine_id", link.RoutineID,
		"activity_id", link.ActivityID,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return link, nil
}

// GetByID returns the join row or (nil, nil) when absent.
func (s *RoutineActivityStore) GetByID(ctx context.Context, id int64) (*domain.RoutineActivity, error) {
	const query = `SELECT id, routine_id, activity_id, count, duration
        FROM routine_activities WHERE id = $1`

	var link domain.RoutineActivity
	err := s.pool.QueryRow(ctx, query, id).Scan(&link.ID, &link.RoutineID, &link.ActivityID, &link.Count, &link.Duration)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		observability.RecordStoreError("routine_activity")
		return nil, fmt.Errorf("select routine activity: %w", err)
	}
	return &link, nil
}

// ListByRoutine returns the join rows of one routine.
func (s *RoutineActivityStore) ListByRoutine(ctx context.Context, routineID int64) ([]domain.RoutineActivity, error) {
	return s.ListByRoutines(ctx, []int64{routineID})
}

// ListByRoutines returns every join row for the routine set in one query,
// ordered by routine then id, to be grouped by the caller.
func (s *RoutineActivityStore) ListByRoutines(ctx context.Context, routineIDs []int64) ([]domain.RoutineActivity, error) {
	if len(routineIDs) == 0 {
		return []domain.RoutineActivity{}, nil
	}

	query, args, err := psql.
		Select("id", "routine_id", "activity_id", "count", "duration").
		From("routine_activities").
		Where(squirrel.Eq{"routine_id": routineIDs}).
		OrderBy("routine_id", "id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build routine activities query: %w", err)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		observability.RecordStoreError("routine_activity")
		return nil, fmt.Errorf("select routine activities: %w", err)
	}
	defer rows.Close()

	out := make([]domain.RoutineActivity, 0)
	for rows.Next() {
		var link domain.RoutineActivity
		if err := rows.Scan(&link.ID, &link.RoutineID, &link.ActivityID, &link.Count, &link.Duration); err != nil {
			return nil, fmt.Errorf("scan routine activity: %w", err)
		}
		out = append(out, link)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate routine activities: %w", err)
	}
	return out, nil
}

// Update applies only the set fields. An empty update issues no statement
// and returns the current record. Returns (nil, nil) when the row does not
// exist.
func (s *RoutineActivityStore) Update(ctx context.Context, id int64, update domain.RoutineActivityUpdate) (*domain.RoutineActivity, error) {
	if update.IsZero() {
		return s.GetByID(ctx, id)
	}

	builder := psql.Update("routine_activities")
	if update.Count != nil {
		builder = builder.Set("count", *update.Count)
	}
	if update.Duration != nil {
		builder = builder.Set("duration", *update.Duration)
	}
	query, args, err := builder.
		Where(squirrel.Eq{"id": id}).
		Suffix("RETURNING id, routine_id, activity_id, count, duration").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build routine activity update: %w", err)
	}

	var link domain.RoutineActivity
	err = s.pool.QueryRow(ctx, query, args...).Scan(&link.ID, &link.RoutineID, &link.ActivityID, &link.Count, &link.Duration)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		observability.RecordStoreError("routine_activity")
		return nil, fmt.Errorf("update routine activity: %w", err)
	}
	return &link, nil
}

// Delete removes and returns the join row, or (nil, nil) when absent.
func (s *RoutineActivityStore) Delete(ctx context.Context, id int64) (*domain.RoutineActivity, error) {
	const query = `DELETE FROM routine_activities WHERE id = $1
        RETURNING id, routine_id, activity_id, count, duration`

	var link domain.RoutineActivity
	err := s.pool.QueryRow(ctx, query, id).Scan(&link.ID, &link.RoutineID, &link.ActivityID, &link.Count, &link.Duration)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		observability.RecordStoreError("routine_activity")
		return nil, fmt.Errorf("delete routine activity: %w", err)
	}

	s.logger.Info("routine activity deleted", "routine_activity_id", id)
	return &link, nil
}

// CanEdit reports whether the parent routine of the join row was created
// by the given user. Ownership is derived by joining to the routine row,
// never from a denormalized column.
func (s *RoutineActivityStore) CanEdit(ctx context.Context, linkID, userID int64) (bool, error) {
	const query = `SELECT r.creator_id
        FROM routine_activities ra
        JOIN routines r ON r.id = ra.routine_id
        WHERE ra.id = $1`

	var creatorID int64
	err := s.pool.QueryRow(ctx, query, linkID).Scan(&creatorID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		observability.RecordStoreError("routine_activity")
		return false, fmt.Errorf("select routine activity owner: %w", err)
	}
	return creatorID == userID, nil
}
