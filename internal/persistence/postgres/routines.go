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

// RoutineStore provides Postgres-backed persistence for routine header
// rows.
type RoutineStore struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewRoutineStore constructs a RoutineStore.
func NewRoutineStore(pool *pgxpool.Pool, logger *slog.Logger) *RoutineStore {
	return &RoutineStore{pool: pool, logger: logger}
}

// Create inserts the header and returns it with the generated id.
func (s *RoutineStore) Create(ctx context.Context, routine domain.Routine) (domain.Routine, error) {
	start := time.Now()

	const query = `INSERT INTO routines (creator_id, is_public, name, goal)
        VALUES ($1, $2, $3, $4) RETURNING id`

	err := s.pool.QueryRow(ctx, query, routine.CreatorID, routine.IsPublic, routine.Name, routine.Goal).Scan(&routine.ID)
	if err != nil {
		observability.RecordStoreError("routine")
		return domain.Routine{}, fmt.Errorf("insert routine: %w", mapConstraintError(err))
	}

	s.logger.Info("routine created",
		"routine_id", routine.ID,
		"creator_id", routine.CreatorID,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return routine, nil
}

// GetHeader returns the header joined with the creator username, or
// (nil, nil) when absent.
func (s *RoutineStore) GetHeader(ctx context.Context, id int64) (*domain.RoutineHeader, error) {
	const query = `SELECT r.id, r.creator_id, r.is_public, r.name, r.goal, u.username
        FROM routines r
        JOIN users u ON u.id = r.creator_id
        WHERE r.id = $1`

	var header domain.RoutineHeader
	err := s.pool.QueryRow(ctx, query, id).Scan(
		&header.ID, &header.CreatorID, &header.IsPublic, &header.Name, &header.Goal, &header.CreatorName,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		observability.RecordStoreError("routine")
		return nil, fmt.Errorf("select routine header: %w", err)
	}
	return &header, nil
}

// ListHeaders returns all headers matching the filter in one query,
// creator username included, ordered by id.
func (s *RoutineStore) ListHeaders(ctx context.Context, filter domain.RoutineFilter) ([]domain.RoutineHeader, error) {
	builder := psql.
		Select("r.id", "r.creator_id", "r.is_public", "r.name", "r.goal", "u.username").
		From("routines r").
		Join("users u ON u.id = r.creator_id")

	if filter.ActivityID != 0 {
		builder = builder.
			Join("routine_activities ra ON ra.routine_id = r.id").
			Where(squirrel.Eq{"ra.activity_id": filter.ActivityID})
	}
	if filter.WithoutActivities {
		builder = builder.
			LeftJoin("routine_activities ra ON ra.routine_id = r.id").
			Where("ra.id IS NULL")
	}
	if filter.PublicOnly {
		builder = builder.Where(squirrel.Eq{"r.is_public": true})
	}
	if filter.Username != "" {
		builder = builder.Where(squirrel.Eq{"u.username": filter.Username})
	}

	query, args, err := builder.OrderBy("r.id").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build routine list query: %w", err)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		observability.RecordStoreError("routine")
		return nil, fmt.Errorf("select routine headers: %w", err)
	}
	defer rows.Close()

	out := make([]domain.RoutineHeader, 0)
	for rows.Next() {
		var header domain.RoutineHeader
		if err := rows.Scan(&header.ID, &header.CreatorID, &header.IsPublic, &header.Name, &header.Goal, &header.CreatorName); err != nil {
			return nil, fmt.Errorf("scan routine header: %w", err)
		}
		out = append(out, header)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate routine headers: %w", err)
	}
	return out, nil
}

// Update applies only the set fields. An empty update issues no statement
// and returns the current record. Returns (nil, nil) when the routine does
// not exist.
func (s *RoutineStore) Update(ctx context.Context, id int64, update domain.RoutineUpdate) (*domain.Routine, error) {
	if update.IsZero() {
		return s.getByID(ctx, id)
	}

	builder := psql.Update("routines")
	if update.IsPublic != nil {
		builder = builder.Set("is_public", *update.IsPublic)
	}
	if update.Name != nil {
		builder = builder.Set("name", *update.Name)
	}
	if update.Goal != nil {
		builder = builder.Set("goal", *update.Goal)
	}
	query, args, err := builder.
		Where(squirrel.Eq{"id": id}).
		Suffix("RETURNING id, creator_id, is_public, name, goal").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build routine update: %w", err)
	}

	var routine domain.Routine
	err = s.pool.QueryRow(ctx, query, args...).Scan(
		&routine.ID, &routine.CreatorID, &routine.IsPublic, &routine.Name, &routine.Goal,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		observability.RecordStoreError("routine")
		return nil, fmt.Errorf("update routine: %w", mapConstraintError(err))
	}
	return &routine, nil
}

// Delete removes the routine's join rows and its header inside one
// transaction. Partial completion is never visible: either both deletes
// commit or neither does.
func (s *RoutineStore) Delete(ctx context.Context, id int64) error {
	start := time.Now()

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin routine delete: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM routine_activities WHERE routine_id = $1`, id); err != nil {
		observability.RecordStoreError("routine")
		return fmt.Errorf("delete routine links: %w", err)
	}

	tag, err := tx.Exec(ctx, `DELETE FROM routines WHERE id = $1`, id)
	if err != nil {
		observability.RecordStoreError("routine")
		return fmt.Errorf("delete routine: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrRoutineNotFound
	}

	if err := tx.Commit(ctx); err != nil {
		observability.RecordStoreError("routine")
		return fmt.Errorf("commit routine delete: %w", err)
	}

	s.logger.Info("routine deleted",
		"routine_id", id,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

func (s *RoutineStore) getByID(ctx context.Context, id int64) (*domain.Routine, error) {
	const query = `SELECT id, creator_id, is_public, name, goal FROM routines WHERE id = $1`

	var routine domain.Routine
	err := s.pool.QueryRow(ctx, query, id).Scan(
		&routine.ID, &routine.CreatorID, &routine.IsPublic, &routine.Name, &routine.Goal,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		observability.RecordStoreError("routine")
		return nil, fmt.Errorf("select routine: %w", err)
	}
	return &routine, nil
}
