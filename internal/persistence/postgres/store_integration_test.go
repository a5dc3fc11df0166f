//go:build integration

package postgres

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	postgrescontainer "github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/Dragonsofash/FitnessTrackerBackend/internal/domain"
)

type integrationEnv struct {
	connStr    string
	pool       *pgxpool.Pool
	activities *ActivityStore
	routines   *RoutineStore
	links      *RoutineActivityStore
}

func setupDatabase(t *testing.T, ctx context.Context) *integrationEnv {
	t.Helper()

	pg, err := postgrescontainer.RunContainer(ctx,
		postgrescontainer.WithDatabase("fitness"),
		postgrescontainer.WithUsername("tracker"),
		postgrescontainer.WithPassword("tracker"),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pg.Terminate(ctx) })

	connStr, err := pg.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	require.NoError(t, waitForDatabase(ctx, connStr))

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	require.NoError(t, Migrate(connStr, logger))

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)
	t.Cleanup(func() { pool.Close() })

	return &integrationEnv{
		connStr:    connStr,
		pool:       pool,
		activities: NewActivityStore(pool, logger),
		routines:   NewRoutineStore(pool, logger),
		links:      NewRoutineActivityStore(pool, logger),
	}
}

func seedUser(t *testing.T, ctx context.Context, pool *pgxpool.Pool, username string) int64 {
	t.Helper()
	var id int64
	err := pool.QueryRow(ctx,
		`INSERT INTO users (username, password) VALUES ($1, 'hashed') RETURNING id`,
		username,
	).Scan(&id)
	require.NoError(t, err)
	return id
}

func waitForDatabase(ctx context.Context, connStr string) error {
	deadline := time.Now().Add(30 * time.Second)
	for {
		pool, err := pgxpool.New(ctx, connStr)
		if err == nil {
			err = pool.Ping(ctx)
			pool.Close()
			if err == nil {
				return nil
			}
		}
		if time.Now().After(deadline) {
			return err
		}
		time.Sleep(time.Second)
	}
}

func TestStoresRoundTrip(t *testing.T) {
	ctx := context.Background()
	env := setupDatabase(t, ctx)

	aliceID := seedUser(t, ctx, env.pool, "alice")
	bobID := seedUser(t, ctx, env.pool, "bob")

	activity, err := env.activities.Create(ctx, domain.Activity{Name: "Running", Description: "One foot in front of the other"})
	require.NoError(t, err)
	require.NotZero(t, activity.ID)

	_, err = env.activities.Create(ctx, domain.Activity{Name: "Running", Description: "Again"})
	require.ErrorIs(t, err, domain.ErrDuplicateActivityName)

	byName, err := env.activities.GetByName(ctx, "Running")
	require.NoError(t, err)
	require.NotNil(t, byName)
	require.Equal(t, activity.ID, byName.ID)

	missing, err := env.activities.GetByID(ctx, 9999)
	require.NoError(t, err)
	require.Nil(t, missing)

	routine, err := env.routines.Create(ctx, domain.Routine{CreatorID: aliceID, IsPublic: true, Name: "5k Plan", Goal: "Run a 5k"})
	require.NoError(t, err)

	_, err = env.routines.Create(ctx, domain.Routine{CreatorID: bobID, Name: "5k Plan", Goal: "Other"})
	require.ErrorIs(t, err, domain.ErrDuplicateRoutineName)

	header, err := env.routines.GetHeader(ctx, routine.ID)
	require.NoError(t, err)
	require.NotNil(t, header)
	require.Equal(t, "alice", header.CreatorName)

	count, duration := 3, 20
	link, err := env.links.Add(ctx, domain.RoutineActivity{
		RoutineID:  routine.ID,
		ActivityID: activity.ID,
		Count:      &count,
		Duration:   &duration,
	})
	require.NoError(t, err)
	require.NotZero(t, link.ID)

	_, err = env.links.Add(ctx, domain.RoutineActivity{RoutineID: routine.ID, ActivityID: activity.ID})
	require.ErrorIs(t, err, domain.ErrDuplicateRoutineActivity)

	_, err = env.links.Add(ctx, domain.RoutineActivity{RoutineID: 9999, ActivityID: activity.ID})
	require.ErrorIs(t, err, domain.ErrRoutineNotFound)

	_, err = env.links.Add(ctx, domain.RoutineActivity{RoutineID: routine.ID, ActivityID: 9999})
	require.ErrorIs(t, err, domain.ErrActivityNotFound)

	stored, err := env.links.GetByID(ctx, link.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	require.Equal(t, 3, *stored.Count)
	require.Equal(t, 20, *stored.Duration)
}

func TestListHeadersFilters(t *testing.T) {
	ctx := context.Background()
	env := setupDatabase(t, ctx)

	aliceID := seedUser(t, ctx, env.pool, "alice")
	bobID := seedUser(t, ctx, env.pool, "bob")

	activity, err := env.activities.Create(ctx, domain.Activity{Name: "Cycling", Description: "Ride"})
	require.NoError(t, err)

	public, err := env.routines.Create(ctx, domain.Routine{CreatorID: aliceID, IsPublic: true, Name: "Public", Goal: "g"})
	require.NoError(t, err)
	_, err = env.routines.Create(ctx, domain.Routine{CreatorID: aliceID, Name: "Private", Goal: "g"})
	require.NoError(t, err)
	_, err = env.routines.Create(ctx, domain.Routine{CreatorID: bobID, IsPublic: true, Name: "Bobs", Goal: "g"})
	require.NoError(t, err)

	_, err = env.links.Add(ctx, domain.RoutineActivity{RoutineID: public.ID, ActivityID: activity.ID})
	require.NoError(t, err)

	headers, err := env.routines.ListHeaders(ctx, domain.RoutineFilter{})
	require.NoError(t, err)
	require.Len(t, headers, 3)

	headers, err = env.routines.ListHeaders(ctx, domain.RoutineFilter{PublicOnly: true})
	require.NoError(t, err)
	require.Len(t, headers, 2)

	headers, err = env.routines.ListHeaders(ctx, domain.RoutineFilter{Username: "alice"})
	require.NoError(t, err)
	require.Len(t, headers, 2)

	headers, err = env.routines.ListHeaders(ctx, domain.RoutineFilter{PublicOnly: true, Username: "alice"})
	require.NoError(t, err)
	require.Len(t, headers, 1)
	require.Equal(t, public.ID, headers[0].ID)

	headers, err = env.routines.ListHeaders(ctx, domain.RoutineFilter{ActivityID: activity.ID})
	require.NoError(t, err)
	require.Len(t, headers, 1)

	headers, err = env.routines.ListHeaders(ctx, domain.RoutineFilter{WithoutActivities: true})
	require.NoError(t, err)
	require.Len(t, headers, 2)
}

func TestPartialUpdatesTouchOnlySetFields(t *testing.T) {
	ctx := context.Background()
	env := setupDatabase(t, ctx)

	aliceID := seedUser(t, ctx, env.pool, "alice")

	activity, err := env.activities.Create(ctx, domain.Activity{Name: "Burpees", Description: "All of it"})
	require.NoError(t, err)

	description := "Everything at once"
	updatedActivity, err := env.activities.Update(ctx, activity.ID, domain.ActivityUpdate{Description: &description})
	require.NoError(t, err)
	require.Equal(t, "Burpees", updatedActivity.Name)
	require.Equal(t, description, updatedActivity.Description)

	sameActivity, err := env.activities.Update(ctx, activity.ID, domain.ActivityUpdate{})
	require.NoError(t, err)
	require.Equal(t, *updatedActivity, *sameActivity)

	routine, err := env.routines.Create(ctx, domain.Routine{CreatorID: aliceID, Name: "Plan", Goal: "Old goal"})
	require.NoError(t, err)

	goal := "New goal"
	updatedRoutine, err := env.routines.Update(ctx, routine.ID, domain.RoutineUpdate{Goal: &goal})
	require.NoError(t, err)
	require.Equal(t, "Plan", updatedRoutine.Name)
	require.Equal(t, goal, updatedRoutine.Goal)
	require.False(t, updatedRoutine.IsPublic)

	count := 5
	link, err := env.links.Add(ctx, domain.RoutineActivity{RoutineID: routine.ID, ActivityID: activity.ID, Count: &count})
	require.NoError(t, err)

	duration := 10
	updatedLink, err := env.links.Update(ctx, link.ID, domain.RoutineActivityUpdate{Duration: &duration})
	require.NoError(t, err)
	require.Equal(t, 5, *updatedLink.Count)
	require.Equal(t, 10, *updatedLink.Duration)

	goneLink, err := env.links.Update(ctx, 9999, domain.RoutineActivityUpdate{Duration: &duration})
	require.NoError(t, err)
	require.Nil(t, goneLink)
}

func TestDeleteRoutineCascadesInOneTransaction(t *testing.T) {
	ctx := context.Background()
	env := setupDatabase(t, ctx)

	aliceID := seedUser(t, ctx, env.pool, "alice")

	activity, err := env.activities.Create(ctx, domain.Activity{Name: "Rowing", Description: "Pull"})
	require.NoError(t, err)
	routine, err := env.routines.Create(ctx, domain.Routine{CreatorID: aliceID, Name: "Doomed", Goal: "g"})
	require.NoError(t, err)
	link, err := env.links.Add(ctx, domain.RoutineActivity{RoutineID: routine.ID, ActivityID: activity.ID})
	require.NoError(t, err)

	require.NoError(t, env.routines.Delete(ctx, routine.ID))

	header, err := env.routines.GetHeader(ctx, routine.ID)
	require.NoError(t, err)
	require.Nil(t, header)

	gone, err := env.links.GetByID(ctx, link.ID)
	require.NoError(t, err)
	require.Nil(t, gone)

	require.ErrorIs(t, env.routines.Delete(ctx, routine.ID), domain.ErrRoutineNotFound)
}

// statementCancelTracer cancels a context once a statement containing
// match has finished. It lets a test kill a multi-statement operation
// between its statements.
type statementCancelTracer struct {
	match  string
	cancel context.CancelFunc
	armed  bool
}

func (t *statementCancelTracer) TraceQueryStart(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryStartData) context.Context {
	if strings.Contains(data.SQL, t.match) {
		t.armed = true
	}
	return ctx
}

func (t *statementCancelTracer) TraceQueryEnd(_ context.Context, _ *pgx.Conn, _ pgx.TraceQueryEndData) {
	if t.armed {
		t.armed = false
		t.cancel()
	}
}

func TestDeleteRoutineRollsBackWhenInterrupted(t *testing.T) {
	ctx := context.Background()
	env := setupDatabase(t, ctx)

	aliceID := seedUser(t, ctx, env.pool, "alice")

	activity, err := env.activities.Create(ctx, domain.Activity{Name: "Sprints", Description: "Fast"})
	require.NoError(t, err)
	routine, err := env.routines.Create(ctx, domain.Routine{CreatorID: aliceID, Name: "Interrupted", Goal: "g"})
	require.NoError(t, err)
	link, err := env.links.Add(ctx, domain.RoutineActivity{RoutineID: routine.ID, ActivityID: activity.ID})
	require.NoError(t, err)

	// The tracer cancels the delete's context right after the link delete
	// completes, so the header delete inside the same transaction fails.
	deleteCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	cfg, err := pgxpool.ParseConfig(env.connStr)
	require.NoError(t, err)
	cfg.ConnConfig.Tracer = &statementCancelTracer{match: "DELETE FROM routine_activities", cancel: cancel}

	tracedPool, err := pgxpool.NewWithConfig(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(func() { tracedPool.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := NewRoutineStore(tracedPool, logger)

	err = store.Delete(deleteCtx, routine.ID)
	require.Error(t, err)

	// Neither row may be gone: the link delete must roll back with the
	// failed header delete.
	header, err := env.routines.GetHeader(ctx, routine.ID)
	require.NoError(t, err)
	require.NotNil(t, header)

	stored, err := env.links.GetByID(ctx, link.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)

	// A clean delete afterwards still removes both.
	require.NoError(t, env.routines.Delete(ctx, routine.ID))
	gone, err := env.links.GetByID(ctx, link.ID)
	require.NoError(t, err)
	require.Nil(t, gone)
}

func TestCanEditTracesOwnershipThroughRoutine(t *testing.T) {
	ctx := context.Background()
	env := setupDatabase(t, ctx)

	aliceID := seedUser(t, ctx, env.pool, "alice")
	bobID := seedUser(t, ctx, env.pool, "bob")

	activity, err := env.activities.Create(ctx, domain.Activity{Name: "Pull-Ups", Description: "Up"})
	require.NoError(t, err)
	routine, err := env.routines.Create(ctx, domain.Routine{CreatorID: aliceID, Name: "Owned", Goal: "g"})
	require.NoError(t, err)
	link, err := env.links.Add(ctx, domain.RoutineActivity{RoutineID: routine.ID, ActivityID: activity.ID})
	require.NoError(t, err)

	allowed, err := env.links.CanEdit(ctx, link.ID, aliceID)
	require.NoError(t, err)
	require.True(t, allowed)

	allowed, err = env.links.CanEdit(ctx, link.ID, bobID)
	require.NoError(t, err)
	require.False(t, allowed)

	allowed, err = env.links.CanEdit(ctx, 9999, aliceID)
	require.NoError(t, err)
	require.False(t, allowed)
}

func TestListForRoutinesAndListByRoutines(t *testing.T) {
	ctx := context.Background()
	env := setupDatabase(t, ctx)

	aliceID := seedUser(t, ctx, env.pool, "alice")

	shared, err := env.activities.Create(ctx, domain.Activity{Name: "Jump Rope", Description: "Skip"})
	require.NoError(t, err)
	only, err := env.activities.Create(ctx, domain.Activity{Name: "Plank", Description: "Hold"})
	require.NoError(t, err)
	_, err = env.activities.Create(ctx, domain.Activity{Name: "Unlinked", Description: "Nothing"})
	require.NoError(t, err)

	first, err := env.routines.Create(ctx, domain.Routine{CreatorID: aliceID, Name: "First", Goal: "g"})
	require.NoError(t, err)
	second, err := env.routines.Create(ctx, domain.Routine{CreatorID: aliceID, Name: "Second", Goal: "g"})
	require.NoError(t, err)

	_, err = env.links.Add(ctx, domain.RoutineActivity{RoutineID: first.ID, ActivityID: shared.ID})
	require.NoError(t, err)
	_, err = env.links.Add(ctx, domain.RoutineActivity{RoutineID: second.ID, ActivityID: shared.ID})
	require.NoError(t, err)
	_, err = env.links.Add(ctx, domain.RoutineActivity{RoutineID: second.ID, ActivityID: only.ID})
	require.NoError(t, err)

	activities, err := env.activities.ListForRoutines(ctx, []int64{first.ID, second.ID})
	require.NoError(t, err)
	require.Len(t, activities, 2)

	links, err := env.links.ListByRoutines(ctx, []int64{first.ID, second.ID})
	require.NoError(t, err)
	require.Len(t, links, 3)

	links, err = env.links.ListByRoutine(ctx, first.ID)
	require.NoError(t, err)
	require.Len(t, links, 1)
}
