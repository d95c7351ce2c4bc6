package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"hostel-ops-backend/internal/identity"
	"hostel-ops-backend/internal/model"
	"hostel-ops-backend/internal/parse"
	"hostel-ops-backend/internal/store"
)

// MealTotals is the billable meal count and cost of a user for a month.
type MealTotals struct {
	Month         model.Month     `json:"month"`
	RecordedMeals int             `json:"recordedMeals"`
	ExemptedMeals int             `json:"exemptedMeals"`
	BillableMeals int             `json:"billableMeals"`
	RatePerMeal   decimal.Decimal `json:"ratePerMeal"`
	Cost          decimal.Decimal `json:"cost"`
}

// DailyBoard lists every meal record of one day.
type DailyBoard struct {
	Date       model.Day          `json:"date"`
	Records    []model.MealRecord `json:"records"`
	Breakfasts int                `json:"breakfasts"`
	Lunches    int                `json:"lunches"`
	Dinners    int                `json:"dinners"`
	TotalMeals int                `json:"totalMeals"`
}

// MealStats summarises a user's meals over a date range.
type MealStats struct {
	From         model.Day `json:"from"`
	To           model.Day `json:"to"`
	RecordedDays int       `json:"recordedDays"`
	TotalMeals   int       `json:"totalMeals"`
	FullDays     int       `json:"fullDays"`
	ZeroDays     int       `json:"zeroDays"`
}

// MealLedger records daily meal consumption and prices it per month.
type MealLedger struct {
	store store.Store
}

// NewMealLedger creates a meal ledger backed by s.
func NewMealLedger(s store.Store) *MealLedger {
	return &MealLedger{store: s}
}

// WithStore returns a ledger that reads and writes through s, typically a
// transaction or snapshot of the original store.
func (l *MealLedger) WithStore(s store.Store) *MealLedger {
	return &MealLedger{store: s}
}

// RecordMeal creates or replaces the meal record of userID for day.
func (l *MealLedger) RecordMeal(ctx context.Context, actor identity.Actor, userID string, day model.Day, sel model.MealSelection) (model.MealRecord, error) {
	if err := actor.Require(identity.RecordMeals); err != nil {
		return model.MealRecord{}, err
	}
	if err := validDay(day); err != nil {
		return model.MealRecord{}, err
	}
	if _, err := l.store.GetUser(ctx, userID); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.MealRecord{}, fmt.Errorf("%w: unknown user %s", model.ErrInvalidInput, userID)
		}
		return model.MealRecord{}, err
	}

	rec := model.MealRecord{
		UserID:        userID,
		Date:          day,
		MealSelection: sel,
		RecordedBy:    actor.UserID,
	}
	if err := l.store.UpsertMealRecord(ctx, &rec); err != nil {
		return model.MealRecord{}, err
	}
	slog.Debug("Meal recorded", "user_id", userID, "date", day, "meals", rec.MealCount, "by", actor.UserID)
	return rec, nil
}

// MealsForUser returns the records of userID between from and to inclusive,
// oldest first.
func (l *MealLedger) MealsForUser(ctx context.Context, actor identity.Actor, userID string, from, to model.Day) ([]model.MealRecord, error) {
	if err := actor.RequireAccess(identity.ViewAllMeals, userID); err != nil {
		return nil, err
	}
	if err := validRange(from, to); err != nil {
		return nil, err
	}
	return l.store.ListMealRecords(ctx, userID, from, to)
}

// TotalMealsAndCost sums the billable meals of userID in month and prices them
// at the month's rate. Meals covered by an approved meal-off request are not
// billable even if the kitchen recorded them.
func (l *MealLedger) TotalMealsAndCost(ctx context.Context, userID string, month model.Month) (MealTotals, error) {
	if err := validMonth(month); err != nil {
		return MealTotals{}, err
	}
	rate, err := l.Rate(ctx, month)
	if err != nil {
		return MealTotals{}, err
	}

	from, to := month.FirstDay(), month.LastDay()
	records, err := l.store.ListMealRecords(ctx, userID, from, to)
	if err != nil {
		return MealTotals{}, err
	}
	approved, err := l.store.ListMealOffRequests(ctx, store.MealOffFilter{
		UserID: userID,
		Status: model.RequestApproved,
		From:   from,
		To:     to,
	})
	if err != nil {
		return MealTotals{}, err
	}

	exempt := make(map[model.Day]model.MealSelection, len(approved))
	for _, r := range approved {
		exempt[r.Date] = exempt[r.Date].Union(r.Meals)
	}

	totals := MealTotals{Month: month, RatePerMeal: rate.RatePerMeal}
	for _, rec := range records {
		billable := rec.MealSelection.Without(exempt[rec.Date]).Count()
		totals.RecordedMeals += rec.MealCount
		totals.BillableMeals += billable
		totals.ExemptedMeals += rec.MealCount - billable
	}
	totals.Cost = rate.RatePerMeal.Mul(decimal.NewFromInt(int64(totals.BillableMeals)))
	return totals, nil
}

// SetRate sets the price of one meal for month, replacing any earlier rate.
func (l *MealLedger) SetRate(ctx context.Context, actor identity.Actor, month model.Month, ratePerMeal decimal.Decimal) (model.MealRate, error) {
	if err := actor.Require(identity.SetMealRate); err != nil {
		return model.MealRate{}, err
	}
	if err := validMonth(month); err != nil {
		return model.MealRate{}, err
	}
	if !ratePerMeal.IsPositive() {
		return model.MealRate{}, fmt.Errorf("%w: meal rate must be positive", model.ErrInvalidInput)
	}
	if err := parse.ValidAmount(ratePerMeal); err != nil {
		return model.MealRate{}, err
	}

	rate := model.MealRate{Month: month, RatePerMeal: ratePerMeal, SetBy: actor.UserID}
	if err := l.store.UpsertMealRate(ctx, &rate); err != nil {
		return model.MealRate{}, err
	}
	slog.Info("Meal rate set", "month", month, "rate", ratePerMeal.String(), "by", actor.UserID)
	return rate, nil
}

// Rate returns the meal rate of month.
func (l *MealLedger) Rate(ctx context.Context, month model.Month) (model.MealRate, error) {
	rate, err := l.store.GetMealRate(ctx, month)
	if errors.Is(err, model.ErrNotFound) {
		return model.MealRate{}, fmt.Errorf("%w: %s", model.ErrRateNotConfigured, month)
	}
	return rate, err
}

// DailyBoard returns all meal records of day with per-meal totals.
func (l *MealLedger) DailyBoard(ctx context.Context, actor identity.Actor, day model.Day) (DailyBoard, error) {
	if err := actor.Require(identity.ViewAllMeals); err != nil {
		return DailyBoard{}, err
	}
	if err := validDay(day); err != nil {
		return DailyBoard{}, err
	}
	records, err := l.store.ListMealRecordsByDate(ctx, day)
	if err != nil {
		return DailyBoard{}, err
	}

	board := DailyBoard{Date: day, Records: records}
	for _, rec := range records {
		if rec.Breakfast {
			board.Breakfasts++
		}
		if rec.Lunch {
			board.Lunches++
		}
		if rec.Dinner {
			board.Dinners++
		}
		board.TotalMeals += rec.MealCount
	}
	return board, nil
}

// Stats summarises the meals userID took between from and to.
func (l *MealLedger) Stats(ctx context.Context, actor identity.Actor, userID string, from, to model.Day) (MealStats, error) {
	records, err := l.MealsForUser(ctx, actor, userID, from, to)
	if err != nil {
		return MealStats{}, err
	}
	stats := MealStats{From: from, To: to, RecordedDays: len(records)}
	for _, rec := range records {
		stats.TotalMeals += rec.MealCount
		switch rec.MealCount {
		case 3:
			stats.FullDays++
		case 0:
			stats.ZeroDays++
		}
	}
	return stats, nil
}

func validDay(d model.Day) error {
	_, err := parse.Day(string(d))
	return err
}

func validMonth(m model.Month) error {
	_, err := parse.Month(string(m))
	return err
}

func validRange(from, to model.Day) error {
	if err := validDay(from); err != nil {
		return err
	}
	if err := validDay(to); err != nil {
		return err
	}
	if from > to {
		return fmt.Errorf("%w: range starts %s after it ends %s", model.ErrInvalidInput, from, to)
	}
	return nil
}
