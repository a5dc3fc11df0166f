package api

import "github.com/Dragonsofash/FitnessTrackerBackend/internal/domain"

// CreateRoutineRequest is the payload for POST /api/routines.
type CreateRoutineRequest struct {
	Name     string `json:"name" validate:"required"`
	Goal     string `json:"goal" validate:"required"`
	IsPublic bool   `json:"isPublic"`
}

// UpdateRoutineRequest is the payload for PATCH /api/routines/{routineId}.
// Absent fields are left untouched. An activities list is upserted as join
// rows, never written into the routine header.
type UpdateRoutineRequest struct {
	Name       *string             `json:"name"`
	Goal       *string             `json:"goal"`
	IsPublic   *bool               `json:"isPublic"`
	Activities []AttachmentRequest `json:"activities"`
}

// AttachmentRequest is one entry of an activities list.
type AttachmentRequest struct {
	ActivityID int64 `json:"activityId" validate:"required"`
	Count      *int  `json:"count"`
	Duration   *int  `json:"duration"`
}

// AddRoutineActivityRequest is the payload for
// POST /api/routines/{routineId}/activities.
type AddRoutineActivityRequest struct {
	ActivityID int64 `json:"activityId" validate:"required"`
	Count      *int  `json:"count"`
	Duration   *int  `json:"duration"`
}

// UpdateRoutineActivityRequest is the payload for
// PATCH /api/routine_activities/{routineActivityId}.
type UpdateRoutineActivityRequest struct {
	Count    *int `json:"count"`
	Duration *int `json:"duration"`
}

// CreateActivityRequest is the payload for POST /api/activities.
type CreateActivityRequest struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description" validate:"required"`
}

// UpdateActivityRequest is the payload for PATCH /api/activities/{activityId}.
type UpdateActivityRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

// RoutineResponse is the composite routine view exposed over HTTP.
type RoutineResponse struct {
	ID          int64                   `json:"id"`
	CreatorID   int64                   `json:"creatorId"`
	CreatorName string                  `json:"creatorName"`
	IsPublic    bool                    `json:"isPublic"`
	Name        string                  `json:"name"`
	Goal        string                  `json:"goal"`
	Activities  []AttachedActivityEntry `json:"activities"`
}

// AttachedActivityEntry is an activity merged with its join-row fields.
type AttachedActivityEntry struct {
	ID                int64  `json:"id"`
	Name              string `json:"name"`
	Description       string `json:"description"`
	Count             *int   `json:"count"`
	Duration          *int   `json:"duration"`
	RoutineID         int64  `json:"routineId"`
	RoutineActivityID int64  `json:"routineActivityId"`
}

// RoutineActivityResponse exposes one join row.
type RoutineActivityResponse struct {
	ID         int64 `json:"id"`
	RoutineID  int64 `json:"routineId"`
	ActivityID int64 `json:"activityId"`
	Count      *int  `json:"count"`
	Duration   *int  `json:"duration"`
}

// ActivityResponse exposes one activity definition.
type ActivityResponse struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

func toRoutineResponse(view domain.RoutineView) RoutineResponse {
	activities := make([]AttachedActivityEntry, 0, len(view.Activities))
	for _, a := range view.Activities {
		activities = append(activities, AttachedActivityEntry{
			ID:                a.ID,
			Name:              a.Name,
			Description:       a.Description,
			Count:             a.Count,
			Duration:          a.Duration,
			RoutineID:         a.RoutineID,
			RoutineActivityID: a.RoutineActivityID,
		})
	}
	return RoutineResponse{
		ID:          view.ID,
		CreatorID:   view.CreatorID,
		CreatorName: view.CreatorName,
		IsPublic:    view.IsPublic,
		Name:        view.Name,
		Goal:        view.Goal,
		Activities:  activities,
	}
}

func toRoutineResponses(views []domain.RoutineView) []RoutineResponse {
	out := make([]RoutineResponse, 0, len(views))
	for _, view := range views {
		out = append(out, toRoutineResponse(view))
	}
	return out
}

func toRoutineActivityResponse(link domain.RoutineActivity) RoutineActivityResponse {
	return RoutineActivityResponse{
		ID:         link.ID,
		RoutineID:  link.RoutineID,
		ActivityID: link.ActivityID,
		Count:      link.Count,
		Duration:   link.Duration,
	}
}

func toActivityResponse(activity domain.Activity) ActivityResponse {
	return ActivityResponse{ID: activity.ID, Name: activity.Name, Description: activity.Description}
}

func toActivityResponses(activities []domain.Activity) []ActivityResponse {
	out := make([]ActivityResponse, 0, len(activities))
	for _, activity := range activities {
		out = append(out, toActivityResponse(activity))
	}
	return out
}
