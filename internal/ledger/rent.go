package ledger

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shopspring/decimal"

	"hostel-ops-backend/internal/identity"
	"hostel-ops-backend/internal/model"
	"hostel-ops-backend/internal/parse"
	"hostel-ops-backend/internal/store"
)

// RentRow is one resident's line in a rent overview.
type RentRow struct {
	UserID string              `json:"userId"`
	Name   string              `json:"name"`
	Room   string              `json:"room"`
	Rent   decimal.Decimal     `json:"rent"`
	Paid   decimal.Decimal     `json:"paid"`
	Status model.PaymentStatus `json:"status"`
}

// RentOverview is the rent position of all residents for a month.
type RentOverview struct {
	Month       model.Month                 `json:"month"`
	Expected    decimal.Decimal             `json:"expected"`
	Collected   decimal.Decimal             `json:"collected"`
	Outstanding decimal.Decimal             `json:"outstanding"`
	Counts      map[model.PaymentStatus]int `json:"counts"`
	Rows        []RentRow                   `json:"rows"`
}

// RentLedger records monthly rent payments.
type RentLedger struct {
	store store.Store
}

// NewRentLedger creates a rent ledger backed by s.
func NewRentLedger(s store.Store) *RentLedger {
	return &RentLedger{store: s}
}

// WithStore returns a ledger that reads and writes through s.
func (l *RentLedger) WithStore(s store.Store) *RentLedger {
	return &RentLedger{store: s}
}

// RecordPayment creates or replaces the payment of userID for month. The
// status is always derived from amount against the user's monthly rent.
func (l *RentLedger) RecordPayment(ctx context.Context, actor identity.Actor, userID string, month model.Month, amount decimal.Decimal, paidDate *model.Day) (model.RentPayment, error) {
	if err := actor.Require(identity.RecordRent); err != nil {
		return model.RentPayment{}, err
	}
	if err := validMonth(month); err != nil {
		return model.RentPayment{}, err
	}
	// The status is derived from the amount as stored, so it must not need rounding.
	if err := parse.ValidAmount(amount); err != nil {
		return model.RentPayment{}, err
	}
	if paidDate != nil {
		if err := validDay(*paidDate); err != nil {
			return model.RentPayment{}, err
		}
	}

	user, err := l.store.GetUser(ctx, userID)
	if err != nil {
		return model.RentPayment{}, err
	}

	p := model.RentPayment{
		UserID:     userID,
		Month:      month,
		Amount:     amount,
		Status:     model.DerivePaymentStatus(amount, user.MonthlyRent),
		PaidDate:   paidDate,
		RecordedBy: actor.UserID,
	}
	if err := l.store.UpsertRentPayment(ctx, &p); err != nil {
		return model.RentPayment{}, err
	}
	slog.Info("Rent payment recorded", "user_id", userID, "month", month, "amount", amount.String(), "status", p.Status)
	return p, nil
}

// Payment returns the payment of userID for month. ok is false when nothing
// has been recorded.
func (l *RentLedger) Payment(ctx context.Context, userID string, month model.Month) (model.RentPayment, bool, error) {
	p, err := l.store.GetRentPayment(ctx, userID, month)
	if errors.Is(err, model.ErrNotFound) {
		return model.RentPayment{}, false, nil
	}
	if err != nil {
		return model.RentPayment{}, false, err
	}
	return p, true, nil
}

// Overview returns the rent position of every resident for month.
func (l *RentLedger) Overview(ctx context.Context, actor identity.Actor, month model.Month) (RentOverview, error) {
	if err := actor.Require(identity.RecordRent); err != nil {
		return RentOverview{}, err
	}
	if err := validMonth(month); err != nil {
		return RentOverview{}, err
	}

	var (
		residents []model.User
		payments  []model.RentPayment
	)
	err := l.store.Snapshot(ctx, func(s store.Store) error {
		var err error
		if residents, err = s.ListUsers(ctx, store.UserFilter{Roles: []model.Role{model.RoleResident}}); err != nil {
			return err
		}
		payments, err = s.ListRentPayments(ctx, month)
		return err
	})
	if err != nil {
		return RentOverview{}, err
	}

	paid := make(map[string]model.RentPayment, len(payments))
	for _, p := range payments {
		paid[p.UserID] = p
	}

	ov := RentOverview{
		Month:       month,
		Expected:    decimal.Zero,
		Collected:   decimal.Zero,
		Outstanding: decimal.Zero,
		Counts:      map[model.PaymentStatus]int{},
		Rows:        make([]RentRow, 0, len(residents)),
	}
	for _, u := range residents {
		row := RentRow{UserID: u.ID, Name: u.Name, Room: u.Room, Rent: u.MonthlyRent, Paid: decimal.Zero}
		if p, ok := paid[u.ID]; ok {
			row.Paid = p.Amount
		}
		row.Status = model.DerivePaymentStatus(row.Paid, u.MonthlyRent)

		ov.Expected = ov.Expected.Add(u.MonthlyRent)
		ov.Collected = ov.Collected.Add(row.Paid)
		if due := u.MonthlyRent.Sub(row.Paid); due.IsPositive() {
			ov.Outstanding = ov.Outstanding.Add(due)
		}
		ov.Counts[row.Status]++
		ov.Rows = append(ov.Rows, row)
	}
	return ov, nil
}
