package billing

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"hostel-ops-backend/internal/ledger"
	"hostel-ops-backend/internal/model"
	"hostel-ops-backend/internal/store"
)

// MonthlySummary is the derived financial position of one user for a month.
// It is never stored.
type MonthlySummary struct {
	UserID        string              `json:"userId"`
	Name          string              `json:"name"`
	Room          string              `json:"room"`
	Month         model.Month         `json:"month"`
	TotalMeals    int                 `json:"totalMeals"`
	ExemptedMeals int                 `json:"exemptedMeals"`
	MealRate      decimal.Decimal     `json:"mealRate"`
	MealCost      decimal.Decimal     `json:"mealCost"`
	Rent          decimal.Decimal     `json:"rent"`
	TotalDue      decimal.Decimal     `json:"totalDue"`
	PaidAmount    decimal.Decimal     `json:"paidAmount"`
	Balance       decimal.Decimal     `json:"balance"`
	PaymentStatus model.PaymentStatus `json:"paymentStatus"`
}

// FleetSummary holds the summaries of several users and their totals.
type FleetSummary struct {
	Month        model.Month      `json:"month"`
	Summaries    []MonthlySummary `json:"summaries"`
	TotalDue     decimal.Decimal  `json:"totalDue"`
	TotalPaid    decimal.Decimal  `json:"totalPaid"`
	TotalBalance decimal.Decimal  `json:"totalBalance"`
}

// Aggregator derives monthly summaries from the meal and rent ledgers. It does
// no authorization; untrusted callers go through Guard.
type Aggregator struct {
	store store.Store
	meals *ledger.MealLedger
	rent  *ledger.RentLedger
}

// NewAggregator creates an aggregator reading through s.
func NewAggregator(s store.Store, meals *ledger.MealLedger, rent *ledger.RentLedger) *Aggregator {
	return &Aggregator{store: s, meals: meals, rent: rent}
}

// MonthlySummary computes the summary of userID for month from one consistent
// snapshot of the ledgers.
func (a *Aggregator) MonthlySummary(ctx context.Context, userID string, month model.Month) (MonthlySummary, error) {
	var out MonthlySummary
	err := a.store.Snapshot(ctx, func(s store.Store) error {
		var err error
		out, err = a.summarize(ctx, s, userID, month)
		return err
	})
	return out, err
}

// FleetSummary computes the summaries of userIDs, in the given order, from
// one snapshot and sums their totals.
func (a *Aggregator) FleetSummary(ctx context.Context, month model.Month, userIDs []string) (FleetSummary, error) {
	fleet := FleetSummary{
		Month:        month,
		Summaries:    make([]MonthlySummary, 0, len(userIDs)),
		TotalDue:     decimal.Zero,
		TotalPaid:    decimal.Zero,
		TotalBalance: decimal.Zero,
	}
	err := a.store.Snapshot(ctx, func(s store.Store) error {
		for _, id := range userIDs {
			sum, err := a.summarize(ctx, s, id, month)
			if err != nil {
				return err
			}
			fleet.Summaries = append(fleet.Summaries, sum)
			fleet.TotalDue = fleet.TotalDue.Add(sum.TotalDue)
			fleet.TotalPaid = fleet.TotalPaid.Add(sum.PaidAmount)
			fleet.TotalBalance = fleet.TotalBalance.Add(sum.Balance)
		}
		return nil
	})
	if err != nil {
		return FleetSummary{}, err
	}
	return fleet, nil
}

func (a *Aggregator) summarize(ctx context.Context, s store.Store, userID string, month model.Month) (MonthlySummary, error) {
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return MonthlySummary{}, err
	}
	totals, err := a.meals.WithStore(s).TotalMealsAndCost(ctx, userID, month)
	if err != nil {
		return MonthlySummary{}, fmt.Errorf("summary of %s for %s: %w", userID, month, err)
	}
	payment, ok, err := a.rent.WithStore(s).Payment(ctx, userID, month)
	if err != nil {
		return MonthlySummary{}, err
	}

	paid := decimal.Zero
	status := model.DerivePaymentStatus(paid, user.MonthlyRent)
	if ok {
		paid, status = payment.Amount, payment.Status
	}

	due := totals.Cost.Add(user.MonthlyRent)
	return MonthlySummary{
		UserID:        user.ID,
		Name:          user.Name,
		Room:          user.Room,
		Month:         month,
		TotalMeals:    totals.BillableMeals,
		ExemptedMeals: totals.ExemptedMeals,
		MealRate:      totals.RatePerMeal,
		MealCost:      totals.Cost,
		Rent:          user.MonthlyRent,
		TotalDue:      due,
		PaidAmount:    paid,
		Balance:       due.Sub(paid),
		PaymentStatus: status,
	}, nil
}
