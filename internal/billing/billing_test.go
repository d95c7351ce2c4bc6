package billing

import (
	"context"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"hostel-ops-backend/internal/identity"
	"hostel-ops-backend/internal/ledger"
	"hostel-ops-backend/internal/model"
	"hostel-ops-backend/internal/store"
	"hostel-ops-backend/internal/store/storetest"
)

var (
	admin       = identity.Actor{UserID: "admin-1", Role: model.RoleAdmin}
	mealManager = identity.Actor{UserID: "meal-1", Role: model.RoleMealManager}
	all3        = model.MealSelection{Breakfast: true, Lunch: true, Dinner: true}
)

func assertAmount(t *testing.T, want int64, got decimal.Decimal) {
	t.Helper()
	assert.True(t, decimal.NewFromInt(want).Equal(got), "want %d, got %s", want, got)
}

type fixture struct {
	gdb   *gorm.DB
	meals *ledger.MealLedger
	rent  *ledger.RentLedger
	agg   *Aggregator
	guard *Guard
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	gdb := storetest.Open(t)
	s := store.NewGormStore(gdb)
	meals := ledger.NewMealLedger(s)
	rent := ledger.NewRentLedger(s)
	agg := NewAggregator(s, meals, rent)
	return fixture{gdb: gdb, meals: meals, rent: rent, agg: agg, guard: NewGuard(agg, s)}
}

func (f fixture) fullDays(t *testing.T, userID string, month model.Month, days int) {
	t.Helper()
	for d := 1; d <= days; d++ {
		day := model.Day(fmt.Sprintf("%s-%02d", month, d))
		_, err := f.meals.RecordMeal(context.Background(), mealManager, userID, day, all3)
		require.NoError(t, err)
	}
}

func TestMonthlySummaryFebruaryScenario(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	u := storetest.User(t, f.gdb, "rahim", model.RoleResident, 3500)

	// One record per day of the month: 20 full days, 7 days with two meals
	// and one day with only lunch.
	records, meals := 0, 0
	for d := 1; d <= 28; d++ {
		sel := all3
		switch {
		case d == 14:
			sel = model.MealSelection{Lunch: true}
		case d%4 == 0:
			sel = model.MealSelection{Breakfast: true, Dinner: true}
		}
		day := model.Day(fmt.Sprintf("2026-02-%02d", d))
		_, err := f.meals.RecordMeal(ctx, mealManager, u.ID, day, sel)
		require.NoError(t, err)
		records++
		meals += sel.Count()
	}
	require.Equal(t, 28, records)
	require.Equal(t, 75, meals)

	_, err := f.meals.SetRate(ctx, mealManager, "2026-02", decimal.NewFromInt(60))
	require.NoError(t, err)
	_, err = f.rent.RecordPayment(ctx, admin, u.ID, "2026-02", decimal.NewFromInt(2000), nil)
	require.NoError(t, err)

	sum, err := f.agg.MonthlySummary(ctx, u.ID, "2026-02")
	require.NoError(t, err)
	assert.Equal(t, 75, sum.TotalMeals)
	assertAmount(t, 60, sum.MealRate)
	assertAmount(t, 4500, sum.MealCost)
	assertAmount(t, 3500, sum.Rent)
	assertAmount(t, 8000, sum.TotalDue)
	assertAmount(t, 2000, sum.PaidAmount)
	assertAmount(t, 6000, sum.Balance)
	assert.Equal(t, model.PaymentPartial, sum.PaymentStatus)
	assert.True(t, sum.TotalDue.Equal(sum.MealCost.Add(sum.Rent)))
	assert.True(t, sum.Balance.Equal(sum.TotalDue.Sub(sum.PaidAmount)))

	again, err := f.agg.MonthlySummary(ctx, u.ID, "2026-02")
	require.NoError(t, err)
	assert.True(t, sum.Balance.Equal(again.Balance))
	assert.Equal(t, sum.TotalMeals, again.TotalMeals)
}

func TestMonthlySummaryWithoutPayment(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	u := storetest.User(t, f.gdb, "nadia", model.RoleResident, 3000)

	f.fullDays(t, u.ID, "2024-03", 2)
	_, err := f.meals.SetRate(ctx, admin, "2024-03", decimal.NewFromInt(50))
	require.NoError(t, err)

	sum, err := f.agg.MonthlySummary(ctx, u.ID, "2024-03")
	require.NoError(t, err)
	assertAmount(t, 300, sum.MealCost)
	assertAmount(t, 0, sum.PaidAmount)
	assertAmount(t, 3300, sum.Balance)
	assert.Equal(t, model.PaymentUnpaid, sum.PaymentStatus)

	_, err = f.agg.MonthlySummary(ctx, u.ID, "2024-04")
	assert.ErrorIs(t, err, model.ErrRateNotConfigured)

	_, err = f.agg.MonthlySummary(ctx, "ghost", "2024-03")
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestFleetSummary(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a := storetest.User(t, f.gdb, "zed", model.RoleResident, 3500)
	b := storetest.User(t, f.gdb, "amy", model.RoleResident, 3000)
	storetest.User(t, f.gdb, "boss", model.RoleManager, 0)

	_, err := f.meals.SetRate(ctx, admin, "2024-02", decimal.NewFromInt(60))
	require.NoError(t, err)
	f.fullDays(t, a.ID, "2024-02", 1)
	_, err = f.rent.RecordPayment(ctx, admin, b.ID, "2024-02", decimal.NewFromInt(3000), nil)
	require.NoError(t, err)

	fleet, err := f.agg.FleetSummary(ctx, "2024-02", []string{a.ID, b.ID})
	require.NoError(t, err)
	require.Len(t, fleet.Summaries, 2)
	assert.Equal(t, a.ID, fleet.Summaries[0].UserID)
	assert.Equal(t, b.ID, fleet.Summaries[1].UserID)
	assertAmount(t, 3680+3000, fleet.TotalDue)
	assertAmount(t, 3000, fleet.TotalPaid)
	assertAmount(t, 3680, fleet.TotalBalance)

	empty, err := f.agg.FleetSummary(ctx, "2024-02", nil)
	require.NoError(t, err)
	assert.Empty(t, empty.Summaries)
	assertAmount(t, 0, empty.TotalDue)

	staff, err := f.guard.Residents(ctx, mealManager, "2024-02")
	require.NoError(t, err)
	assert.Len(t, staff.Summaries, 2)

	self, err := f.guard.Residents(ctx, identity.ActorOf(a), "2024-02")
	require.NoError(t, err)
	require.Len(t, self.Summaries, 1)
	assert.Equal(t, a.ID, self.Summaries[0].UserID)
}

func TestGuard(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a := storetest.User(t, f.gdb, "a", model.RoleResident, 3500)
	b := storetest.User(t, f.gdb, "b", model.RoleResident, 3500)
	_, err := f.meals.SetRate(ctx, admin, "2024-02", decimal.NewFromInt(60))
	require.NoError(t, err)

	testCases := []struct {
		name   string
		actor  identity.Actor
		target string
		err    error
	}{
		{name: "resident reads self", actor: identity.ActorOf(a), target: a.ID},
		{name: "resident reads other", actor: identity.ActorOf(a), target: b.ID, err: model.ErrUnauthorized},
		{name: "manager reads resident", actor: identity.Actor{UserID: "m", Role: model.RoleManager}, target: b.ID},
		{name: "meal manager reads resident", actor: mealManager, target: a.ID},
		{name: "admin reads resident", actor: admin, target: a.ID},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.guard.MonthlySummary(ctx, tc.actor, tc.target, "2024-02")
			if tc.err != nil {
				assert.ErrorIs(t, err, tc.err)
			} else {
				assert.NoError(t, err)
			}
		})
	}

	_, err = f.guard.FleetSummary(ctx, identity.ActorOf(a), "2024-02", []string{a.ID, b.ID})
	assert.ErrorIs(t, err, model.ErrUnauthorized)
}
