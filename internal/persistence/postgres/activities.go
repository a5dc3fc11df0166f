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

// ActivityStore provides Postgres-backed persistence for activity
// definitions.
type ActivityStore struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewActivityStore constructs an ActivityStore.
func NewActivityStore(pool *pgxpool.Pool, logger *slog.Logger) *ActivityStore {
	return &ActivityStore{pool: pool, logger: logger}
}

// Create inserts an activity and returns it with the generated id.
func (s *ActivityStore) Create(ctx context.Context, activity domain.Activity) (domain.Activity, error) {
	start := time.Now()

	const query = `INSERT INTO activities (name, description) VALUES ($1, $2) RETURNING id`

	err := s.pool.QueryRow(ctx, query, activity.Name, activity.Description).Scan(&activity.ID)
	if err != nil {
		observability.RecordStoreError("activity")
		return domain.Activity{}, fmt.Errorf("insert activity: %w", mapConstraintError(err))
	}

	s.logger.Info("activity created",
		"activity_id", activity.ID,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return activity, nil
}

// GetByID returns the activity or (nil, nil) when absent.
func (s *ActivityStore) GetByID(ctx context.Context, id int64) (*domain.Activity, error) {
	const query = `SELECT id, name, description FROM activities WHERE id = $1`

	var activity domain.Activity
	err := s.pool.QueryRow(ctx, query, id).Scan(&activity.ID, &activity.Name, &activity.Description)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		observability.RecordStoreError("activity")
		return nil, fmt.Errorf("select activity by id: %w", err)
	}
	return &activity, nil
}

// GetByName returns the activity or (nil, nil) when absent.
func (s *ActivityStore) GetByName(ctx context.Context, name string) (*domain.Activity, error) {
	const query = `SELECT id, name, description FROM activities WHERE name = $1`

	var activity domain.Activity
	err := s.pool.QueryRow(ctx, query, name).Scan(&activity.ID, &activity.Name, &activity.Description)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		observability.RecordStoreError("activity")
		return nil, fmt.Errorf("select activity by name: %w", err)
	}
	return &activity, nil
}

// List returns all activities ordered by id.
func (s *ActivityStore) List(ctx context.Context) ([]domain.Activity, error) {
	const query = `SELECT id, name, description FROM activities ORDER BY id`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		observability.RecordStoreError("activity")
		return nil, fmt.Errorf("select activities: %w", err)
	}
	defer rows.Close()

	return scanActivities(rows)
}

// ListForRoutines returns the deduplicated activities referenced by join
// rows of any routine in the set, in one query.
func (s *ActivityStore) ListForRoutines(ctx context.Context, routineIDs []int64) ([]domain.Activity, error) {
	if len(routineIDs) == 0 {
		return []domain.Activity{}, nil
	}

	query, args, err := psql.
		Select("DISTINCT a.id", "a.name", "a.description").
		From("activities a").
		Join("routine_activities ra ON ra.activity_id = a.id").
		Where(squirrel.Eq{"ra.routine_id": routineIDs}).
		OrderBy("a.id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build activities-for-routines query: %w", err)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		observability.RecordStoreError("activity")
		return nil, fmt.Errorf("select activities for routines: %w", err)
	}
	defer rows.Close()

	return scanActivities(rows)
}

// Update applies only the set fields and never the id. An empty update
// issues no statement and returns the current record. Returns (nil, nil)
// when the activity does not exist.
func (s *ActivityStore) Update(ctx context.Context, id int64, update domain.ActivityUpdate) (*domain.Activity, error) {
	if update.IsZero() {
		return s.GetByID(ctx, id)
	}

	builder := psql.Update("activities")
	if update.Name != nil {
		builder = builder.Set("name", *update.Name)
	}
	if update.Description != nil {
		builder = builder.Set("description", *update.Description)
	}
	query, args, err := builder.
		Where(squirrel.Eq{"id": id}).
		Suffix("RETURNING id, name, description").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build activity update: %w", err)
	}

	var activity domain.Activity
	err = s.pool.QueryRow(ctx, query, args...).Scan(&activity.ID, &activity.Name, &activity.Description)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		observability.RecordStoreError("activity")
		return nil, fmt.Errorf("update activity: %w", mapConstraintError(err))
	}
	return &activity, nil
}

func scanActivities(rows pgx.Rows) ([]domain.Activity, error) {
	out := make([]domain.Activity, 0)
	for rows.Next() {
		var activity domain.Activity
		if err := rows.Scan(&activity.ID, &activity.Name, &activity.Description); err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		out = append(out, activity)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate activities: %w", err)
	}
	return out, nil
}
