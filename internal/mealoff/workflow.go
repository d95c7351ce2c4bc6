package mealoff

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"hostel-ops-backend/internal/identity"
	"hostel-ops-backend/internal/model"
	"hostel-ops-backend/internal/parse"
	"hostel-ops-backend/internal/store"
)

// Notifier is told about every request that leaves the pending state.
type Notifier interface {
	MealOffReviewed(req model.MealOffRequest)
}

// Workflow runs the meal-off request state machine:
// pending -> approved | rejected, with no way back.
type Workflow struct {
	store    store.Store
	notifier Notifier
	loc      *time.Location
	now      func() time.Time
}

// NewWorkflow creates a workflow. Days are judged in loc, the hostel's
// timezone. notifier may be nil.
func NewWorkflow(s store.Store, loc *time.Location, notifier Notifier) *Workflow {
	if loc == nil {
		loc = time.UTC
	}
	return &Workflow{store: s, notifier: notifier, loc: loc, now: time.Now}
}

// Today returns the current day in the hostel's timezone.
func (w *Workflow) Today() model.Day {
	return model.DayOf(w.now().In(w.loc))
}

// Submit files a pending request for userID to skip meals on day. The day must
// be strictly after today and the user may hold at most one pending or
// approved request per day.
func (w *Workflow) Submit(ctx context.Context, actor identity.Actor, userID string, day model.Day, meals model.MealSelection) (model.MealOffRequest, error) {
	if err := actor.RequireAccess(identity.ReviewMealOff, userID); err != nil {
		return model.MealOffRequest{}, err
	}
	if meals.IsEmpty() {
		return model.MealOffRequest{}, fmt.Errorf("%w: select at least one meal", model.ErrInvalidInput)
	}
	if _, err := parse.Day(string(day)); err != nil {
		return model.MealOffRequest{}, err
	}
	if today := w.Today(); day <= today {
		return model.MealOffRequest{}, fmt.Errorf("%w: %s is not after %s", model.ErrInvalidInput, day, today)
	}

	req := model.MealOffRequest{
		ID:          uuid.NewString(),
		UserID:      userID,
		Date:        day,
		RequestedAt: w.now().UTC(),
		Status:      model.RequestPending,
		Meals:       meals,
	}
	err := w.store.Transaction(ctx, func(tx store.Store) error {
		if _, err := tx.GetUser(ctx, userID); err != nil {
			return err
		}
		if existing, found, err := tx.FindActiveMealOffRequest(ctx, userID, day); err != nil {
			return err
		} else if found {
			return fmt.Errorf("%w: request %s is %s", model.ErrDuplicateRequest, existing.ID, existing.Status)
		}
		if err := tx.CreateMealOffRequest(ctx, &req); err != nil {
			if errors.Is(err, store.ErrConflict) {
				return fmt.Errorf("%w: %s", model.ErrDuplicateRequest, day)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return model.MealOffRequest{}, err
	}

	slog.Info("Meal-off request submitted", "request_id", req.ID, "user_id", userID, "date", day, "by", actor.UserID)
	return req, nil
}

// Review approves or rejects a pending request. The reviewer must be an admin
// or meal manager; that is checked before the request is looked at.
func (w *Workflow) Review(ctx context.Context, requestID, reviewerID string, decision model.RequestStatus) (model.MealOffRequest, error) {
	reviewer, err := w.store.GetUser(ctx, reviewerID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.MealOffRequest{}, fmt.Errorf("%w: unknown reviewer %s", model.ErrUnauthorized, reviewerID)
		}
		return model.MealOffRequest{}, err
	}
	if err := identity.ActorOf(reviewer).Require(identity.ReviewMealOff); err != nil {
		return model.MealOffRequest{}, err
	}
	if !decision.IsDecision() {
		return model.MealOffRequest{}, fmt.Errorf("%w: decision must be approved or rejected, got %q", model.ErrInvalidInput, decision)
	}

	var out model.MealOffRequest
	err = w.store.Transaction(ctx, func(tx store.Store) error {
		req, err := tx.GetMealOffRequest(ctx, requestID)
		if err != nil {
			return err
		}
		if req.Status != model.RequestPending {
			return fmt.Errorf("%w: request %s is already %s", model.ErrInvalidState, requestID, req.Status)
		}
		ok, err := tx.TransitionMealOffRequest(ctx, requestID, model.RequestPending, decision, reviewerID, w.now().UTC())
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: request %s was reviewed concurrently", model.ErrInvalidState, requestID)
		}
		out, err = tx.GetMealOffRequest(ctx, requestID)
		return err
	})
	if err != nil {
		return model.MealOffRequest{}, err
	}

	slog.Info("Meal-off request reviewed", "request_id", requestID, "status", decision, "reviewer", reviewerID)
	if w.notifier != nil {
		w.notifier.MealOffReviewed(out)
	}
	return out, nil
}

// ListForUser returns the requests of userID, newest first.
func (w *Workflow) ListForUser(ctx context.Context, actor identity.Actor, userID string) ([]model.MealOffRequest, error) {
	if err := actor.RequireAccess(identity.ViewAllMealOff, userID); err != nil {
		return nil, err
	}
	return w.store.ListMealOffRequests(ctx, store.MealOffFilter{UserID: userID})
}

// ListPending returns every pending request, newest first.
func (w *Workflow) ListPending(ctx context.Context, actor identity.Actor) ([]model.MealOffRequest, error) {
	if err := actor.Require(identity.ViewAllMealOff); err != nil {
		return nil, err
	}
	return w.store.ListMealOffRequests(ctx, store.MealOffFilter{Status: model.RequestPending})
}

// ListAll returns every request, newest first.
func (w *Workflow) ListAll(ctx context.Context, actor identity.Actor) ([]model.MealOffRequest, error) {
	if err := actor.Require(identity.ViewAllMealOff); err != nil {
		return nil, err
	}
	return w.store.ListMealOffRequests(ctx, store.MealOffFilter{})
}
