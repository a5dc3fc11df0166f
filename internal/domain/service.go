package domain

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// Service orchestrates routine, activity and join-row workflows on top of
// the store interfaces. Ownership checks live here so every caller gets the
// same authorization semantics.
type Service struct {
	routines   RoutineStore
	activities ActivityStore
	links      RoutineActivityStore
	logger     *slog.Logger
}

// NewService constructs a Service.
func NewService(routines RoutineStore, activities ActivityStore, links RoutineActivityStore, logger *slog.Logger) *Service {
	return &Service{routines: routines, activities: activities, links: links, logger: logger}
}

// CreateRoutineInput captures the payload for routine creation. CreatorID is
// always taken from the principal, never from this input.
type CreateRoutineInput struct {
	IsPublic bool
	Name     string
	Goal     string
}

// ActivityAttachment describes one entry of an activities list supplied
// alongside a routine update.
type ActivityAttachment struct {
	ActivityID int64
	Count      *int
	Duration   *int
}

// UpdateRoutineInput carries partial header fields plus an optional
// activities list. The list is never written into the header row; each entry
// is upserted as a join row instead.
type UpdateRoutineInput struct {
	RoutineUpdate
	Activities []ActivityAttachment
}

// AddRoutineActivityInput captures the payload for attaching an activity.
type AddRoutineActivityInput struct {
	RoutineID  int64
	ActivityID int64
	Count      *int
	Duration   *int
}

// CreateActivityInput captures the payload for activity creation.
type CreateActivityInput struct {
	Name        string
	Description string
}

// GetRoutine returns the composite view for one routine. A missing routine
// is an explicit error here, not a sentinel: callers on this path assume
// existence.
func (s *Service) GetRoutine(ctx context.Context, id int64) (RoutineView, error) {
	header, err := s.routines.GetHeader(ctx, id)
	if err != nil {
		return RoutineView{}, err
	}
	if header == nil {
		return RoutineView{}, ErrRoutineNotFound
	}

	views, err := s.assembleViews(ctx, []RoutineHeader{*header})
	if err != nil {
		return RoutineView{}, err
	}
	return views[0], nil
}

// ListAllRoutines returns composite views for every routine.
func (s *Service) ListAllRoutines(ctx context.Context) ([]RoutineView, error) {
	return s.listRoutines(ctx, RoutineFilter{})
}

// ListPublicRoutines returns composite views for every public routine.
func (s *Service) ListPublicRoutines(ctx context.Context) ([]RoutineView, error) {
	return s.listRoutines(ctx, RoutineFilter{PublicOnly: true})
}

// ListRoutinesByUser returns composite views for every routine created by
// the named user, private ones included.
func (s *Service) ListRoutinesByUser(ctx context.Context, username string) ([]RoutineView, error) {
	return s.listRoutines(ctx, RoutineFilter{Username: username})
}

// ListPublicRoutinesByUser returns composite views for the named user's
// public routines.
func (s *Service) ListPublicRoutinesByUser(ctx context.Context, username string) ([]RoutineView, error) {
	return s.listRoutines(ctx, RoutineFilter{PublicOnly: true, Username: username})
}

// ListPublicRoutinesByActivity returns composite views for every public
// routine that has the given activity attached.
func (s *Service) ListPublicRoutinesByActivity(ctx context.Context, activityID int64) ([]RoutineView, error) {
	activity, err := s.activities.GetByID(ctx, activityID)
	if err != nil {
		return nil, err
	}
	if activity == nil {
		return nil, ErrActivityNotFound
	}
	return s.listRoutines(ctx, RoutineFilter{PublicOnly: true, ActivityID: activityID})
}

// ListRoutinesWithoutActivities returns header rows for routines that have
// no activities attached.
func (s *Service) ListRoutinesWithoutActivities(ctx context.Context) ([]RoutineHeader, error) {
	return s.routines.ListHeaders(ctx, RoutineFilter{WithoutActivities: true})
}

func (s *Service) listRoutines(ctx context.Context, filter RoutineFilter) ([]RoutineView, error) {
	headers, err := s.routines.ListHeaders(ctx, filter)
	if err != nil {
		return nil, err
	}
	return s.assembleViews(ctx, headers)
}

// CreateRoutine creates a routine owned by the principal and returns its
// composite view.
func (s *Service) CreateRoutine(ctx context.Context, principal Principal, input CreateRoutineInput) (RoutineView, error) {
	if strings.TrimSpace(input.Name) == "" {
		return RoutineView{}, &ValidationError{Field: "name", Reason: "must not be empty"}
	}
	if strings.TrimSpace(input.Goal) == "" {
		return RoutineView{}, &ValidationError{Field: "goal", Reason: "must not be empty"}
	}

	created, err := s.routines.Create(ctx, Routine{
		CreatorID: principal.ID,
		IsPublic:  input.IsPublic,
		Name:      input.Name,
		Goal:      input.Goal,
	})
	if err != nil {
		return RoutineView{}, err
	}

	s.logger.Info("routine created", "routine_id", created.ID, "creator_id", principal.ID)
	return s.GetRoutine(ctx, created.ID)
}

// UpdateRoutine applies a partial update to a routine owned by the
// principal. Header fields go through the header store; an activities list
// is split out and upserted as join rows. Returns the refreshed view.
func (s *Service) UpdateRoutine(ctx context.Context, principal Principal, routineID int64, input UpdateRoutineInput) (RoutineView, error) {
	header, err := s.routines.GetHeader(ctx, routineID)
	if err != nil {
		return RoutineView{}, err
	}
	if header == nil {
		return RoutineView{}, ErrRoutineNotFound
	}
	if header.CreatorID != principal.ID {
		return RoutineView{}, fmt.Errorf("user %s is not allowed to update %s: %w", principal.Username, header.Name, ErrForbidden)
	}

	if !input.RoutineUpdate.IsZero() {
		if _, err := s.routines.Update(ctx, routineID, input.RoutineUpdate); err != nil {
			return RoutineView{}, err
		}
	}

	if len(input.Activities) > 0 {
		if err := s.upsertAttachments(ctx, routineID, input.Activities); err != nil {
			return RoutineView{}, err
		}
	}

	return s.GetRoutine(ctx, routineID)
}

// upsertAttachments adds a join row for each entry that has none and
// updates the parameters of those that do, keyed by the
// (routine, activity) pair. Existing rows are fetched once for the whole
// list.
func (s *Service) upsertAttachments(ctx context.Context, routineID int64, attachments []ActivityAttachment) error {
	existing, err := s.links.ListByRoutine(ctx, routineID)
	if err != nil {
		return err
	}
	linkByActivity := make(map[int64]RoutineActivity, len(existing))
	for _, link := range existing {
		linkByActivity[link.ActivityID] = link
	}

	for _, attachment := range attachments {
		if link, ok := linkByActivity[attachment.ActivityID]; ok {
			if _, err := s.links.Update(ctx, link.ID, RoutineActivityUpdate{
				Count:    attachment.Count,
				Duration: attachment.Duration,
			}); err != nil {
				return err
			}
			continue
		}
		if _, err := s.links.Add(ctx, RoutineActivity{
			RoutineID:  routineID,
			ActivityID: attachment.ActivityID,
			Count:      attachment.Count,
			Duration:   attachment.Duration,
		}); err != nil {
			return err
		}
	}
	return nil
}

// DeleteRoutine removes a routine owned by the principal along with all of
// its join rows and returns the pre-delete composite view.
func (s *Service) DeleteRoutine(ctx context.Context, principal Principal, routineID int64) (RoutineView, error) {
	snapshot, err := s.GetRoutine(ctx, routineID)
	if err != nil {
		return RoutineView{}, err
	}
	if snapshot.CreatorID != principal.ID {
		return RoutineView{}, fmt.Errorf("user %s is not allowed to delete %s: %w", principal.Username, snapshot.Name, ErrForbidden)
	}

	if err := s.routines.Delete(ctx, routineID); err != nil {
		return RoutineView{}, err
	}

	s.logger.Info("routine deleted", "routine_id", routineID, "creator_id", principal.ID)
	return snapshot, nil
}

// AddRoutineActivity attaches an activity to a routine. The storage unique
// constraint is the authoritative duplicate guard; a collision surfaces as
// ErrDuplicateRoutineActivity.
func (s *Service) AddRoutineActivity(ctx context.Context, input AddRoutineActivityInput) (RoutineActivity, error) {
	link, err := s.links.Add(ctx, RoutineActivity{
		RoutineID:  input.RoutineID,
		ActivityID: input.ActivityID,
		Count:      input.Count,
		Duration:   input.Duration,
	})
	if err != nil {
		return RoutineActivity{}, err
	}

	s.logger.Info("activity attached", "routine_id", input.RoutineID, "activity_id", input.ActivityID)
	return link, nil
}

// UpdateRoutineActivity applies a partial update to a join row. Only the
// creator of the parent routine may edit it.
func (s *Service) UpdateRoutineActivity(ctx context.Context, principal Principal, linkID int64, update RoutineActivityUpdate) (RoutineActivity, error) {
	if err := s.authorizeLinkEdit(ctx, principal, linkID, "update"); err != nil {
		return RoutineActivity{}, err
	}

	updated, err := s.links.Update(ctx, linkID, update)
	if err != nil {
		return RoutineActivity{}, err
	}
	if updated == nil {
		return RoutineActivity{}, ErrRoutineActivityNotFound
	}
	return *updated, nil
}

// DeleteRoutineActivity removes a join row and returns it. Only the creator
// of the parent routine may remove it.
func (s *Service) DeleteRoutineActivity(ctx context.Context, principal Principal, linkID int64) (RoutineActivity, error) {
	if err := s.authorizeLinkEdit(ctx, principal, linkID, "delete"); err != nil {
		return RoutineActivity{}, err
	}

	removed, err := s.links.Delete(ctx, linkID)
	if err != nil {
		return RoutineActivity{}, err
	}
	if removed == nil {
		return RoutineActivity{}, ErrRoutineActivityNotFound
	}

	s.logger.Info("activity detached", "routine_activity_id", linkID)
	return *removed, nil
}

// authorizeLinkEdit traces link -> routine -> creator and compares against
// the principal.
func (s *Service) authorizeLinkEdit(ctx context.Context, principal Principal, linkID int64, verb string) error {
	link, err := s.links.GetByID(ctx, linkID)
	if err != nil {
		return err
	}
	if link == nil {
		return ErrRoutineActivityNotFound
	}

	allowed, err := s.links.CanEdit(ctx, linkID, principal.ID)
	if err != nil {
		return err
	}
	if !allowed {
		name := fmt.Sprintf("routine %d", link.RoutineID)
		if header, err := s.routines.GetHeader(ctx, link.RoutineID); err == nil && header != nil {
			name = header.Name
		}
		return fmt.Errorf("user %s is not allowed to %s %s: %w", principal.Username, verb, name, ErrForbidden)
	}
	return nil
}

// CreateActivity creates a standalone activity definition.
func (s *Service) CreateActivity(ctx context.Context, input CreateActivityInput) (Activity, error) {
	if strings.TrimSpace(input.Name) == "" {
		return Activity{}, &ValidationError{Field: "name", Reason: "must not be empty"}
	}
	if strings.TrimSpace(input.Description) == "" {
		return Activity{}, &ValidationError{Field: "description", Reason: "must not be empty"}
	}

	created, err := s.activities.Create(ctx, Activity{Name: input.Name, Description: input.Description})
	if err != nil {
		return Activity{}, err
	}

	s.logger.Info("activity created", "activity_id", created.ID, "name", created.Name)
	return created, nil
}

// GetActivity fetches an activity by id, failing when absent.
func (s *Service) GetActivity(ctx context.Context, id int64) (Activity, error) {
	activity, err := s.activities.GetByID(ctx, id)
	if err != nil {
		return Activity{}, err
	}
	if activity == nil {
		return Activity{}, ErrActivityNotFound
	}
	return *activity, nil
}

// ListActivities returns every activity definition.
func (s *Service) ListActivities(ctx context.Context) ([]Activity, error) {
	return s.activities.List(ctx)
}

// UpdateActivity applies a partial update to an activity definition.
func (s *Service) UpdateActivity(ctx context.Context, id int64, update ActivityUpdate) (Activity, error) {
	updated, err := s.activities.Update(ctx, id, update)
	if err != nil {
		return Activity{}, err
	}
	if updated == nil {
		return Activity{}, ErrActivityNotFound
	}
	return *updated, nil
}
