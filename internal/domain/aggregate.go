package domain

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Dragonsofash/FitnessTrackerBackend/internal/observability"
)

// assembleViews builds composite views for the given headers using a bounded
// number of store calls: one bulk join-row fetch and one bulk activity fetch,
// regardless of how many routines are in the set. Both fetches are read-only
// and run concurrently.
//
// The returned slice preserves the order of headers. A routine with no join
// rows gets an empty, non-nil Activities slice.
func (s *Service) assembleViews(ctx context.Context, headers []RoutineHeader) ([]RoutineView, error) {
	start := time.Now()

	views := make([]RoutineView, 0, len(headers))
	if len(headers) == 0 {
		return views, nil
	}

	ids := make([]int64, 0, len(headers))
	for _, h := range headers {
		ids = append(ids, h.ID)
	}

	var (
		links      []RoutineActivity
		activities []Activity
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		links, err = s.links.ListByRoutines(gctx, ids)
		return err
	})
	g.Go(func() error {
		var err error
		activities, err = s.activities.ListForRoutines(gctx, ids)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("fetch routine attachments: %w", err)
	}

	activityByID := make(map[int64]Activity, len(activities))
	for _, a := range activities {
		activityByID[a.ID] = a
	}

	// Grouping key is always the routine id. Two join rows pointing at the
	// same activity on different routines stay on their own routines.
	linksByRoutine := make(map[int64][]RoutineActivity, len(headers))
	for _, link := range links {
		linksByRoutine[link.RoutineID] = append(linksByRoutine[link.RoutineID], link)
	}

	for _, h := range headers {
		view := RoutineView{
			ID:          h.ID,
			CreatorID:   h.CreatorID,
			CreatorName: h.CreatorName,
			IsPublic:    h.IsPublic,
			Name:        h.Name,
			Goal:        h.Goal,
			Activities:  []AttachedActivity{},
		}
		for _, link := range linksByRoutine[h.ID] {
			activity, ok := activityByID[link.ActivityID]
			if !ok {
				return nil, fmt.Errorf("routine %d references missing activity %d", h.ID, link.ActivityID)
			}
			view.Activities = append(view.Activities, mergeAttachment(activity, link))
		}
		views = append(views, view)
	}

	observability.RecordRoutineAssembly(len(views), time.Since(start))
	return views, nil
}

// mergeAttachment copies activity fields and join-row parameters into a
// per-view record. The canonical Activity is never mutated, and nullable
// parameters are deep-copied so views cannot alias store state.
func mergeAttachment(activity Activity, link RoutineActivity) AttachedActivity {
	return AttachedActivity{
		ID:                activity.ID,
		Name:              activity.Name,
		Description:       activity.Description,
		Count:             copyIntPtr(link.Count),
		Duration:          copyIntPtr(link.Duration),
		RoutineID:         link.RoutineID,
		RoutineActivityID: link.ID,
	}
}

func copyIntPtr(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
