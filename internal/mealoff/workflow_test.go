package mealoff

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"hostel-ops-backend/internal/identity"
	"hostel-ops-backend/internal/model"
	"hostel-ops-backend/internal/store"
	"hostel-ops-backend/internal/store/storetest"
)

var dinner = model.MealSelection{Dinner: true}

type recorder struct {
	mu       sync.Mutex
	reviewed []model.MealOffRequest
}

func (r *recorder) MealOffReviewed(req model.MealOffRequest) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reviewed = append(r.reviewed, req)
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.reviewed)
}

type fixture struct {
	gdb         *gorm.DB
	wf          *Workflow
	notes       *recorder
	resident    model.User
	admin       model.User
	mealManager model.User
	manager     model.User
}

// newFixture builds a workflow whose clock starts at 2024-02-10 10:00 in
// Dhaka and advances a second on every read.
func newFixture(t *testing.T) fixture {
	t.Helper()
	gdb := storetest.Open(t)
	loc, err := time.LoadLocation("Asia/Dhaka")
	require.NoError(t, err)

	notes := &recorder{}
	wf := NewWorkflow(store.NewGormStore(gdb), loc, notes)

	var mu sync.Mutex
	clock := time.Date(2024, 2, 10, 10, 0, 0, 0, loc)
	wf.now = func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		clock = clock.Add(time.Second)
		return clock
	}

	return fixture{
		gdb:         gdb,
		wf:          wf,
		notes:       notes,
		resident:    storetest.User(t, gdb, "rahim", model.RoleResident, 3500),
		admin:       storetest.User(t, gdb, "admin", model.RoleAdmin, 0),
		mealManager: storetest.User(t, gdb, "kamal", model.RoleMealManager, 0),
		manager:     storetest.User(t, gdb, "mina", model.RoleManager, 0),
	}
}

func TestSubmit(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	self := identity.ActorOf(f.resident)

	req, err := f.wf.Submit(ctx, self, f.resident.ID, "2024-02-11", dinner)
	require.NoError(t, err)
	assert.Equal(t, model.RequestPending, req.Status)
	assert.Nil(t, req.ReviewedBy)
	assert.Nil(t, req.ReviewedAt)
	assert.NotEmpty(t, req.ID)

	testCases := []struct {
		name  string
		actor identity.Actor
		user  string
		day   model.Day
		meals model.MealSelection
		err   error
	}{
		{name: "no meals", actor: self, user: f.resident.ID, day: "2024-02-12", err: model.ErrInvalidInput},
		{name: "today", actor: self, user: f.resident.ID, day: "2024-02-10", meals: dinner, err: model.ErrInvalidInput},
		{name: "past", actor: self, user: f.resident.ID, day: "2024-01-31", meals: dinner, err: model.ErrInvalidInput},
		{name: "malformed day", actor: self, user: f.resident.ID, day: "tomorrow", meals: dinner, err: model.ErrInvalidInput},
		{name: "duplicate of pending", actor: self, user: f.resident.ID, day: "2024-02-11", meals: model.MealSelection{Lunch: true}, err: model.ErrDuplicateRequest},
		{name: "for another resident", actor: identity.ActorOf(f.manager), user: f.resident.ID, day: "2024-02-12", meals: dinner, err: model.ErrUnauthorized},
		{name: "unknown user", actor: identity.ActorOf(f.admin), user: "ghost", day: "2024-02-12", meals: dinner, err: model.ErrNotFound},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.wf.Submit(ctx, tc.actor, tc.user, tc.day, tc.meals)
			assert.ErrorIs(t, err, tc.err)
		})
	}

	onBehalf, err := f.wf.Submit(ctx, identity.ActorOf(f.mealManager), f.resident.ID, "2024-02-12", dinner)
	require.NoError(t, err)
	assert.Equal(t, f.resident.ID, onBehalf.UserID)
}

func TestSubmitUsesHostelTimezone(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	// 20:00 UTC on the 10th is already the 11th in Dhaka.
	f.wf.now = func() time.Time { return time.Date(2024, 2, 10, 20, 0, 0, 0, time.UTC) }
	self := identity.ActorOf(f.resident)

	_, err := f.wf.Submit(ctx, self, f.resident.ID, "2024-02-11", dinner)
	assert.ErrorIs(t, err, model.ErrInvalidInput)

	_, err = f.wf.Submit(ctx, self, f.resident.ID, "2024-02-12", dinner)
	assert.NoError(t, err)
}

func TestResubmitAfterRejection(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	self := identity.ActorOf(f.resident)

	first, err := f.wf.Submit(ctx, self, f.resident.ID, "2024-02-15", dinner)
	require.NoError(t, err)
	_, err = f.wf.Review(ctx, first.ID, f.mealManager.ID, model.RequestRejected)
	require.NoError(t, err)

	second, err := f.wf.Submit(ctx, self, f.resident.ID, "2024-02-15", dinner)
	require.NoError(t, err)
	_, err = f.wf.Review(ctx, second.ID, f.admin.ID, model.RequestApproved)
	require.NoError(t, err)

	_, err = f.wf.Submit(ctx, self, f.resident.ID, "2024-02-15", dinner)
	assert.ErrorIs(t, err, model.ErrDuplicateRequest)
}

func TestReview(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	self := identity.ActorOf(f.resident)

	req, err := f.wf.Submit(ctx, self, f.resident.ID, "2024-02-11", dinner)
	require.NoError(t, err)

	_, err = f.wf.Review(ctx, req.ID, f.resident.ID, model.RequestApproved)
	assert.ErrorIs(t, err, model.ErrUnauthorized)
	_, err = f.wf.Review(ctx, req.ID, f.manager.ID, model.RequestApproved)
	assert.ErrorIs(t, err, model.ErrUnauthorized)
	_, err = f.wf.Review(ctx, req.ID, "ghost", model.RequestApproved)
	assert.ErrorIs(t, err, model.ErrUnauthorized)
	// Unauthorized wins over an unknown request.
	_, err = f.wf.Review(ctx, "missing", f.resident.ID, model.RequestApproved)
	assert.ErrorIs(t, err, model.ErrUnauthorized)

	_, err = f.wf.Review(ctx, req.ID, f.mealManager.ID, model.RequestPending)
	assert.ErrorIs(t, err, model.ErrInvalidInput)
	_, err = f.wf.Review(ctx, "missing", f.mealManager.ID, model.RequestApproved)
	assert.ErrorIs(t, err, model.ErrNotFound)

	pending, err := f.wf.ListPending(ctx, identity.ActorOf(f.manager))
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, model.RequestPending, pending[0].Status)

	approved, err := f.wf.Review(ctx, req.ID, f.mealManager.ID, model.RequestApproved)
	require.NoError(t, err)
	assert.Equal(t, model.RequestApproved, approved.Status)
	require.NotNil(t, approved.ReviewedBy)
	assert.Equal(t, f.mealManager.ID, *approved.ReviewedBy)
	require.NotNil(t, approved.ReviewedAt)
	assert.Equal(t, 1, f.notes.count())

	_, err = f.wf.Review(ctx, req.ID, f.admin.ID, model.RequestRejected)
	assert.ErrorIs(t, err, model.ErrInvalidState)

	mine, err := f.wf.ListForUser(ctx, self, f.resident.ID)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, model.RequestApproved, mine[0].Status)
	require.NotNil(t, mine[0].ReviewedBy)
	assert.Equal(t, f.mealManager.ID, *mine[0].ReviewedBy)
	assert.Equal(t, 1, f.notes.count())
}

func TestLists(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	self := identity.ActorOf(f.resident)
	other := storetest.User(t, f.gdb, "sara", model.RoleResident, 3000)

	a, err := f.wf.Submit(ctx, self, f.resident.ID, "2024-02-20", dinner)
	require.NoError(t, err)
	b, err := f.wf.Submit(ctx, self, f.resident.ID, "2024-02-12", dinner)
	require.NoError(t, err)
	c, err := f.wf.Submit(ctx, identity.ActorOf(other), other.ID, "2024-02-13", dinner)
	require.NoError(t, err)
	_, err = f.wf.Review(ctx, a.ID, f.admin.ID, model.RequestRejected)
	require.NoError(t, err)

	mine, err := f.wf.ListForUser(ctx, self, f.resident.ID)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, b.ID, mine[0].ID)
	assert.Equal(t, a.ID, mine[1].ID)

	all, err := f.wf.ListAll(ctx, identity.ActorOf(f.manager))
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, c.ID, all[0].ID)

	pending, err := f.wf.ListPending(ctx, identity.ActorOf(f.mealManager))
	require.NoError(t, err)
	assert.Len(t, pending, 2)

	_, err = f.wf.ListPending(ctx, self)
	assert.ErrorIs(t, err, model.ErrUnauthorized)
	_, err = f.wf.ListAll(ctx, self)
	assert.ErrorIs(t, err, model.ErrUnauthorized)
	_, err = f.wf.ListForUser(ctx, self, other.ID)
	assert.ErrorIs(t, err, model.ErrUnauthorized)
}

func TestConcurrentSubmitsHaveOneWinner(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	self := identity.ActorOf(f.resident)

	const n = 8
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.wf.Submit(ctx, self, f.resident.ID, "2024-02-14", dinner)
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		if err == nil {
			wins++
			continue
		}
		assert.ErrorIs(t, err, model.ErrDuplicateRequest)
	}
	assert.Equal(t, 1, wins)
}

func TestConcurrentReviewsHaveOneWinner(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	req, err := f.wf.Submit(ctx, identity.ActorOf(f.resident), f.resident.ID, "2024-02-14", dinner)
	require.NoError(t, err)

	const n = 8
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			decision, reviewer := model.RequestApproved, f.admin.ID
			if i%2 == 1 {
				decision, reviewer = model.RequestRejected, f.mealManager.ID
			}
			_, errs[i] = f.wf.Review(ctx, req.ID, reviewer, decision)
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, model.ErrInvalidState):
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, wins)
	assert.Equal(t, 1, f.notes.count())
}
