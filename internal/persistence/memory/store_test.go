package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Dragonsofash/FitnessTrackerBackend/internal/domain"
)

func intPtr(v int) *int { return &v }

func seedRoutine(t *testing.T, store *Store, creatorID int64, name string) domain.Routine {
	t.Helper()
	routine, err := store.Routines().Create(context.Background(), domain.Routine{
		CreatorID: creatorID,
		Name:      name,
		Goal:      "goal for " + name,
	})
	require.NoError(t, err)
	return routine
}

func seedActivity(t *testing.T, store *Store, name string) domain.Activity {
	t.Helper()
	activity, err := store.Activities().Create(context.Background(), domain.Activity{
		Name:        name,
		Description: "description for " + name,
	})
	require.NoError(t, err)
	return activity
}

func TestActivityNameUniqueness(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	seedActivity(t, store, "Running")
	_, err := store.Activities().Create(ctx, domain.Activity{Name: "Running", Description: "Again"})
	require.ErrorIs(t, err, domain.ErrDuplicateActivityName)
}

func TestActivityGetByNameAndMissingLookups(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	created := seedActivity(t, store, "Running")

	byName, err := store.Activities().GetByName(ctx, "Running")
	require.NoError(t, err)
	require.NotNil(t, byName)
	require.Equal(t, created.ID, byName.ID)

	missing, err := store.Activities().GetByName(ctx, "Swimming")
	require.NoError(t, err)
	require.Nil(t, missing)

	byID, err := store.Activities().GetByID(ctx, 99)
	require.NoError(t, err)
	require.Nil(t, byID)
}

func TestActivityPartialUpdate(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	created := seedActivity(t, store, "Running")

	name := "Sprinting"
	updated, err := store.Activities().Update(ctx, created.ID, domain.ActivityUpdate{Name: &name})
	require.NoError(t, err)
	require.Equal(t, "Sprinting", updated.Name)
	require.Equal(t, created.Description, updated.Description)

	// Empty update is a no-op that still returns the record.
	same, err := store.Activities().Update(ctx, created.ID, domain.ActivityUpdate{})
	require.NoError(t, err)
	require.Equal(t, *updated, *same)

	gone, err := store.Activities().Update(ctx, 404, domain.ActivityUpdate{Name: &name})
	require.NoError(t, err)
	require.Nil(t, gone)
}

func TestActivityListForRoutinesDeduplicates(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	creator := store.AddUser("alice")

	shared := seedActivity(t, store, "Jump Rope")
	only := seedActivity(t, store, "Plank")
	seedActivity(t, store, "Unlinked")

	first := seedRoutine(t, store, creator, "First")
	second := seedRoutine(t, store, creator, "Second")

	links := store.RoutineActivities()
	_, err := links.Add(ctx, domain.RoutineActivity{RoutineID: first.ID, ActivityID: shared.ID})
	require.NoError(t, err)
	_, err = links.Add(ctx, domain.RoutineActivity{RoutineID: second.ID, ActivityID: shared.ID})
	require.NoError(t, err)
	_, err = links.Add(ctx, domain.RoutineActivity{RoutineID: second.ID, ActivityID: only.ID})
	require.NoError(t, err)

	activities, err := store.Activities().ListForRoutines(ctx, []int64{first.ID, second.ID})
	require.NoError(t, err)
	require.Len(t, activities, 2)
}

func TestRoutineHeadersJoinCreatorName(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	creator := store.AddUser("alice")
	routine := seedRoutine(t, store, creator, "Morning Run")

	header, err := store.Routines().GetHeader(ctx, routine.ID)
	require.NoError(t, err)
	require.NotNil(t, header)
	require.Equal(t, "alice", header.CreatorName)

	missing, err := store.Routines().GetHeader(ctx, 404)
	require.NoError(t, err)
	require.Nil(t, missing)
}

func TestRoutineListHeadersFilters(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	alice := store.AddUser("alice")
	bob := store.AddUser("bob")

	activity := seedActivity(t, store, "Cycling")

	public, err := store.Routines().Create(ctx, domain.Routine{CreatorID: alice, IsPublic: true, Name: "Public", Goal: "g"})
	require.NoError(t, err)
	seedRoutine(t, store, alice, "Private")
	seedRoutine(t, store, bob, "Bobs")

	_, err = store.RoutineActivities().Add(ctx, domain.RoutineActivity{RoutineID: public.ID, ActivityID: activity.ID})
	require.NoError(t, err)

	headers, err := store.Routines().ListHeaders(ctx, domain.RoutineFilter{})
	require.NoError(t, err)
	require.Len(t, headers, 3)

	headers, err = store.Routines().ListHeaders(ctx, domain.RoutineFilter{PublicOnly: true})
	require.NoError(t, err)
	require.Len(t, headers, 1)
	require.Equal(t, "Public", headers[0].Name)

	headers, err = store.Routines().ListHeaders(ctx, domain.RoutineFilter{Username: "alice"})
	require.NoError(t, err)
	require.Len(t, headers, 2)

	headers, err = store.Routines().ListHeaders(ctx, domain.RoutineFilter{ActivityID: activity.ID})
	require.NoError(t, err)
	require.Len(t, headers, 1)
	require.Equal(t, public.ID, headers[0].ID)

	headers, err = store.Routines().ListHeaders(ctx, domain.RoutineFilter{WithoutActivities: true})
	require.NoError(t, err)
	require.Len(t, headers, 2)
}

func TestRoutineDeleteCascadesAtomically(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	creator := store.AddUser("alice")

	routine := seedRoutine(t, store, creator, "Doomed")
	keeper := seedRoutine(t, store, creator, "Keeper")
	activity := seedActivity(t, store, "Rowing")

	links := store.RoutineActivities()
	doomedLink, err := links.Add(ctx, domain.RoutineActivity{RoutineID: routine.ID, ActivityID: activity.ID})
	require.NoError(t, err)
	keptLink, err := links.Add(ctx, domain.RoutineActivity{RoutineID: keeper.ID, ActivityID: activity.ID})
	require.NoError(t, err)

	require.NoError(t, store.Routines().Delete(ctx, routine.ID))

	gone, err := links.GetByID(ctx, doomedLink.ID)
	require.NoError(t, err)
	require.Nil(t, gone)

	kept, err := links.GetByID(ctx, keptLink.ID)
	require.NoError(t, err)
	require.NotNil(t, kept)

	// The pair frees up for a future routine with the same id space.
	require.ErrorIs(t, store.Routines().Delete(ctx, routine.ID), domain.ErrRoutineNotFound)
}

func TestRoutineActivityPairUniqueness(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	creator := store.AddUser("alice")
	routine := seedRoutine(t, store, creator, "Pairs")
	activity := seedActivity(t, store, "Squats")

	links := store.RoutineActivities()
	first, err := links.Add(ctx, domain.RoutineActivity{RoutineID: routine.ID, ActivityID: activity.ID})
	require.NoError(t, err)

	_, err = links.Add(ctx, domain.RoutineActivity{RoutineID: routine.ID, ActivityID: activity.ID})
	require.ErrorIs(t, err, domain.ErrDuplicateRoutineActivity)

	// Removing the row releases the pair for re-attachment.
	removed, err := links.Delete(ctx, first.ID)
	require.NoError(t, err)
	require.Equal(t, first.ID, removed.ID)

	_, err = links.Add(ctx, domain.RoutineActivity{RoutineID: routine.ID, ActivityID: activity.ID})
	require.NoError(t, err)
}

func TestRoutineActivityReferentialIntegrity(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	creator := store.AddUser("alice")
	routine := seedRoutine(t, store, creator, "Refs")
	activity := seedActivity(t, store, "Dips")

	links := store.RoutineActivities()
	_, err := links.Add(ctx, domain.RoutineActivity{RoutineID: 404, ActivityID: activity.ID})
	require.ErrorIs(t, err, domain.ErrRoutineNotFound)

	_, err = links.Add(ctx, domain.RoutineActivity{RoutineID: routine.ID, ActivityID: 404})
	require.ErrorIs(t, err, domain.ErrActivityNotFound)
}

func TestRoutineActivityValuesAreCopied(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	creator := store.AddUser("alice")
	routine := seedRoutine(t, store, creator, "Copies")
	activity := seedActivity(t, store, "Curls")

	count := 10
	link, err := store.RoutineActivities().Add(ctx, domain.RoutineActivity{
		RoutineID:  routine.ID,
		ActivityID: activity.ID,
		Count:      &count,
	})
	require.NoError(t, err)

	// Mutating the caller's value must not reach the stored row.
	count = 999
	stored, err := store.RoutineActivities().GetByID(ctx, link.ID)
	require.NoError(t, err)
	require.Equal(t, 10, *stored.Count)
}

func TestRoutineActivityCanEdit(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	alice := store.AddUser("alice")
	bob := store.AddUser("bob")

	routine := seedRoutine(t, store, alice, "Owned")
	activity := seedActivity(t, store, "Pull-Ups")

	link, err := store.RoutineActivities().Add(ctx, domain.RoutineActivity{RoutineID: routine.ID, ActivityID: activity.ID})
	require.NoError(t, err)

	allowed, err := store.RoutineActivities().CanEdit(ctx, link.ID, alice)
	require.NoError(t, err)
	require.True(t, allowed)

	allowed, err = store.RoutineActivities().CanEdit(ctx, link.ID, bob)
	require.NoError(t, err)
	require.False(t, allowed)

	allowed, err = store.RoutineActivities().CanEdit(ctx, 404, alice)
	require.NoError(t, err)
	require.False(t, allowed)
}

func TestRoutineActivityPartialUpdate(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	creator := store.AddUser("alice")
	routine := seedRoutine(t, store, creator, "Partials")
	activity := seedActivity(t, store, "Step-Ups")

	link, err := store.RoutineActivities().Add(ctx, domain.RoutineActivity{
		RoutineID:  routine.ID,
		ActivityID: activity.ID,
		Count:      intPtr(10),
		Duration:   intPtr(5),
	})
	require.NoError(t, err)

	updated, err := store.RoutineActivities().Update(ctx, link.ID, domain.RoutineActivityUpdate{Count: intPtr(20)})
	require.NoError(t, err)
	require.Equal(t, 20, *updated.Count)
	require.Equal(t, 5, *updated.Duration)

	same, err := store.RoutineActivities().Update(ctx, link.ID, domain.RoutineActivityUpdate{})
	require.NoError(t, err)
	require.Equal(t, *updated, *same)

	gone, err := store.RoutineActivities().Update(ctx, 404, domain.RoutineActivityUpdate{Count: intPtr(1)})
	require.NoError(t, err)
	require.Nil(t, gone)
}
