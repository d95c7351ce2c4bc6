package store

import (
	"context"
	"database/sql/driver"
	"fmt"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"hostel-ops-backend/internal/model"
	"hostel-ops-backend/internal/store/storetest"
)

// A helper function to create a mock database connection.
func newTestDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{})
	require.NoError(t, err)

	return gormDB, mock
}

func TestGormStore_TransitionMealOffRequest(t *testing.T) {
	at := time.Date(2024, 2, 10, 9, 0, 0, 0, time.UTC)
	query := regexp.QuoteMeta(`UPDATE "meal_off_requests" SET "reviewed_at"=$1,"reviewed_by"=$2,"status"=$3 WHERE id = $4 AND status = $5`)

	testCases := []struct {
		name         string
		rowsAffected int64
		expected     bool
	}{
		{name: "Pending request is transitioned", rowsAffected: 1, expected: true},
		{name: "Request already reviewed", rowsAffected: 0, expected: false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			gormDB, mock := newTestDB(t)
			s := NewGormStore(gormDB)

			mock.ExpectBegin()
			mock.ExpectExec(query).
				WithArgs(Any{}, "u-admin", "approved", "req-1", "pending").
				WillReturnResult(sqlmock.NewResult(0, tc.rowsAffected))
			mock.ExpectCommit()

			ok, err := s.TransitionMealOffRequest(context.Background(), "req-1",
				model.RequestPending, model.RequestApproved, "u-admin", at)
			assert.NoError(t, err)
			assert.Equal(t, tc.expected, ok)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestGormStore_GetUserNotFound(t *testing.T) {
	gormDB, mock := newTestDB(t)
	s := NewGormStore(gormDB)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "users" WHERE id = $1`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}))

	_, err := s.GetUser(context.Background(), "missing")
	assert.ErrorIs(t, err, model.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIsUniqueViolation(t *testing.T) {
	testCases := []struct {
		name     string
		err      error
		expected bool
	}{
		{name: "postgres unique", err: fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"}), expected: true},
		{name: "postgres fk", err: &pgconn.PgError{Code: "23503"}, expected: false},
		{name: "sqlite unique", err: sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintUnique}, expected: true},
		{name: "sqlite primary key", err: sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintPrimaryKey}, expected: true},
		{name: "gorm duplicated key", err: gorm.ErrDuplicatedKey, expected: true},
		{name: "other", err: fmt.Errorf("boom"), expected: false},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, isUniqueViolation(tc.err))
		})
	}
}

func TestGormStore_MealRecordUpsertKeepsCount(t *testing.T) {
	gdb := storetest.Open(t)
	s := NewGormStore(gdb)
	ctx := context.Background()
	u := storetest.User(t, gdb, "karim", model.RoleResident, 3500)

	rec := &model.MealRecord{UserID: u.ID, Date: "2024-02-01", MealSelection: model.MealSelection{Breakfast: true, Lunch: true, Dinner: true}}
	require.NoError(t, s.UpsertMealRecord(ctx, rec))

	rec = &model.MealRecord{UserID: u.ID, Date: "2024-02-01", MealSelection: model.MealSelection{Lunch: true}}
	require.NoError(t, s.UpsertMealRecord(ctx, rec))

	records, err := s.ListMealRecords(ctx, u.ID, "2024-02-01", "2024-02-29")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, 1, records[0].MealCount)
	assert.True(t, records[0].Lunch)
	assert.False(t, records[0].Breakfast)
}

func TestGormStore_ActiveMealOffIndex(t *testing.T) {
	gdb := storetest.Open(t)
	s := NewGormStore(gdb)
	ctx := context.Background()
	u := storetest.User(t, gdb, "nadia", model.RoleResident, 3000)

	newRequest := func() *model.MealOffRequest {
		return &model.MealOffRequest{
			ID:          uuid.NewString(),
			UserID:      u.ID,
			Date:        "2024-03-01",
			RequestedAt: time.Now(),
			Status:      model.RequestPending,
			Meals:       model.MealSelection{Dinner: true},
		}
	}

	first := newRequest()
	require.NoError(t, s.CreateMealOffRequest(ctx, first))
	assert.ErrorIs(t, s.CreateMealOffRequest(ctx, newRequest()), ErrConflict)

	ok, err := s.TransitionMealOffRequest(ctx, first.ID, model.RequestPending, model.RequestRejected, u.ID, time.Now())
	require.NoError(t, err)
	require.True(t, ok)

	// A rejected request no longer occupies the slot.
	assert.NoError(t, s.CreateMealOffRequest(ctx, newRequest()))

	ok, err = s.TransitionMealOffRequest(ctx, first.ID, model.RequestPending, model.RequestApproved, u.ID, time.Now())
	require.NoError(t, err)
	assert.False(t, ok)

	got, err := s.GetMealOffRequest(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RequestRejected, got.Status)
	assert.True(t, got.Meals.Dinner)
}

func TestGormStore_RentPaymentRoundTrip(t *testing.T) {
	gdb := storetest.Open(t)
	s := NewGormStore(gdb)
	ctx := context.Background()
	u := storetest.User(t, gdb, "omar", model.RoleResident, 3500)

	_, err := s.GetRentPayment(ctx, u.ID, "2024-02")
	assert.ErrorIs(t, err, model.ErrNotFound)

	paid := model.Day("2024-02-05")
	require.NoError(t, s.UpsertRentPayment(ctx, &model.RentPayment{
		UserID: u.ID, Month: "2024-02", Amount: decimal.NewFromInt(2000), Status: model.PaymentPartial, PaidDate: &paid,
	}))
	require.NoError(t, s.UpsertRentPayment(ctx, &model.RentPayment{
		UserID: u.ID, Month: "2024-02", Amount: decimal.NewFromInt(3500), Status: model.PaymentPaid, PaidDate: &paid,
	}))

	p, err := s.GetRentPayment(ctx, u.ID, "2024-02")
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(3500).Equal(p.Amount))
	assert.Equal(t, model.PaymentPaid, p.Status)
	require.NotNil(t, p.PaidDate)
	assert.Equal(t, paid, *p.PaidDate)
}

// Any is a helper for sqlmock to match any argument.
type Any struct{}

// Match satisfies the sqlmock.Argument interface
func (a Any) Match(v driver.Value) bool {
	return true
}
