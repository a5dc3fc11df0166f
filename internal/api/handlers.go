// Package api exposes HTTP handlers over the tracker core. The handlers
// are a thin wrapper: decode, validate, delegate to the domain service,
// map typed errors to statuses.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/Dragonsofash/FitnessTrackerBackend/internal/auth"
	"github.com/Dragonsofash/FitnessTrackerBackend/internal/domain"
)

// Handler coordinates HTTP requests with the domain service.
type Handler struct {
	service  *domain.Service
	validate *validator.Validate
	logger   *slog.Logger
}

// NewHandler builds a Handler.
func NewHandler(service *domain.Service, logger *slog.Logger) *Handler {
	return &Handler{
		service:  service,
		validate: validator.New(),
		logger:   logger,
	}
}

// RegisterRoutes wires endpoints onto the router. Public reads accept an
// optional principal; writes require one.
func (h *Handler) RegisterRoutes(r chi.Router, mw auth.Middleware) {
	r.Get("/healthz", healthz)

	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(mw.Optional)
			r.Get("/routines", h.listPublicRoutines)
			r.Get("/activities", h.listActivities)
			r.Get("/activities/{activityID}/routines", h.listRoutinesByActivity)
			r.Get("/users/{username}/routines", h.listRoutinesByUser)
		})

		r.Group(func(r chi.Router) {
			r.Use(mw.Require)
			r.Post("/routines", h.createRoutine)
			r.Patch("/routines/{routineID}", h.updateRoutine)
			r.Delete("/routines/{routineID}", h.deleteRoutine)
			r.Post("/routines/{routineID}/activities", h.addRoutineActivity)
			r.Post("/activities", h.createActivity)
			r.Patch("/activities/{activityID}", h.updateActivity)
			r.Patch("/routine_activities/{routineActivityID}", h.updateRoutineActivity)
			r.Delete("/routine_activities/{routineActivityID}", h.deleteRoutineActivity)
		})
	})
}

// healthz reports a simple OK status for container health checks.
func healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (h *Handler) listPublicRoutines(w http.ResponseWriter, r *http.Request) {
	views, err := h.service.ListPublicRoutines(r.Context())
	if err != nil {
		h.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toRoutineResponses(views))
}

func (h *Handler) createRoutine(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
		return
	}

	var req CreateRoutineRequest
	if !h.decode(w, r, &req) {
		return
	}

	view, err := h.service.CreateRoutine(r.Context(), principal, domain.CreateRoutineInput{
		IsPublic: req.IsPublic,
		Name:     req.Name,
		Goal:     req.Goal,
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toRoutineResponse(view))
}

func (h *Handler) updateRoutine(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
		return
	}
	routineID, ok := h.pathID(w, r, "routineID")
	if !ok {
		return
	}

	var req UpdateRoutineRequest
	if !h.decode(w, r, &req) {
		return
	}

	input := domain.UpdateRoutineInput{
		RoutineUpdate: domain.RoutineUpdate{
			IsPublic: req.IsPublic,
			Name:     req.Name,
			Goal:     req.Goal,
		},
	}
	for _, attachment := range req.Activities {
		input.Activities = append(input.Activities, domain.ActivityAttachment{
			ActivityID: attachment.ActivityID,
			Count:      attachment.Count,
			Duration:   attachment.Duration,
		})
	}

	view, err := h.service.UpdateRoutine(r.Context(), principal, routineID, input)
	if err != nil {
		h.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toRoutineResponse(view))
}

func (h *Handler) deleteRoutine(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
		return
	}
	routineID, ok := h.pathID(w, r, "routineID")
	if !ok {
		return
	}

	snapshot, err := h.service.DeleteRoutine(r.Context(), principal, routineID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toRoutineResponse(snapshot))
}

func (h *Handler) addRoutineActivity(w http.ResponseWriter, r *http.Request) {
	routineID, ok := h.pathID(w, r, "routineID")
	if !ok {
		return
	}

	var req AddRoutineActivityRequest
	if !h.decode(w, r, &req) {
		return
	}

	link, err := h.service.AddRoutineActivity(r.Context(), domain.AddRoutineActivityInput{
		RoutineID:  routineID,
		ActivityID: req.ActivityID,
		Count:      req.Count,
		Duration:   req.Duration,
	})
	if err != nil {
		if errors.Is(err, domain.ErrDuplicateRoutineActivity) {
			writeError(w, http.StatusConflict, "already_exists",
				fmt.Sprintf("Activity ID %d already exists in Routine ID %d", req.ActivityID, routineID))
			return
		}
		h.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toRoutineActivityResponse(link))
}

func (h *Handler) updateRoutineActivity(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
		return
	}
	linkID, ok := h.pathID(w, r, "routineActivityID")
	if !ok {
		return
	}

	var req UpdateRoutineActivityRequest
	if !h.decode(w, r, &req) {
		return
	}

	link, err := h.service.UpdateRoutineActivity(r.Context(), principal, linkID, domain.RoutineActivityUpdate{
		Count:    req.Count,
		Duration: req.Duration,
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toRoutineActivityResponse(link))
}

func (h *Handler) deleteRoutineActivity(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
		return
	}
	linkID, ok := h.pathID(w, r, "routineActivityID")
	if !ok {
		return
	}

	removed, err := h.service.DeleteRoutineActivity(r.Context(), principal, linkID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toRoutineActivityResponse(removed))
}

func (h *Handler) listActivities(w http.ResponseWriter, r *http.Request) {
	activities, err := h.service.ListActivities(r.Context())
	if err != nil {
		h.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toActivityResponses(activities))
}

func (h *Handler) createActivity(w http.ResponseWriter, r *http.Request) {
	var req CreateActivityRequest
	if !h.decode(w, r, &req) {
		return
	}

	activity, err := h.service.CreateActivity(r.Context(), domain.CreateActivityInput{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toActivityResponse(activity))
}

func (h *Handler) updateActivity(w http.ResponseWriter, r *http.Request) {
	activityID, ok := h.pathID(w, r, "activityID")
	if !ok {
		return
	}

	var req UpdateActivityRequest
	if !h.decode(w, r, &req) {
		return
	}

	activity, err := h.service.UpdateActivity(r.Context(), activityID, domain.ActivityUpdate{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toActivityResponse(activity))
}

func (h *Handler) listRoutinesByActivity(w http.ResponseWriter, r *http.Request) {
	activityID, ok := h.pathID(w, r, "activityID")
	if !ok {
		return
	}

	views, err := h.service.ListPublicRoutinesByActivity(r.Context(), activityID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toRoutineResponses(views))
}

// listRoutinesByUser returns all of the named user's routines when the
// caller is that user, and only the public ones otherwise.
func (h *Handler) listRoutinesByUser(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")
	if username == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "missing username")
		return
	}

	var (
		views []domain.RoutineView
		err   error
	)
	if principal, ok := auth.FromContext(r.Context()); ok && principal.Username == username {
		views, err = h.service.ListRoutinesByUser(r.Context(), username)
	} else {
		views, err = h.service.ListPublicRoutinesByUser(r.Context(), username)
	}
	if err != nil {
		h.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toRoutineResponses(views))
}

// decode parses and validates a JSON body, writing the error response
// itself when it fails.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return false
	}
	return true
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request, param string) (int64, bool) {
	raw := chi.URLParam(r, param)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid_request", fmt.Sprintf("invalid %s", param))
		return 0, false
	}
	return id, true
}

// respondError maps domain errors onto HTTP statuses. Unknown errors are
// logged here, at the boundary, and surfaced as 500s; nothing inside the
// core logs-and-swallows.
func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrRoutineNotFound),
		errors.Is(err, domain.ErrActivityNotFound),
		errors.Is(err, domain.ErrRoutineActivityNotFound):
		writeError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, domain.ErrDuplicateRoutineName),
		errors.Is(err, domain.ErrDuplicateActivityName),
		errors.Is(err, domain.ErrDuplicateRoutineActivity):
		writeError(w, http.StatusConflict, "already_exists", err.Error())
	case errors.Is(err, domain.ErrForbidden):
		writeError(w, http.StatusForbidden, "forbidden", err.Error())
	case domain.IsValidation(err):
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
	default:
		h.logger.Error("request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "server_error", "internal error")
	}
}

func writeError(w http.ResponseWriter, status int, code, detail string) {
	writeJSON(w, status, map[string]string{
		"type":   code,
		"detail": detail,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
