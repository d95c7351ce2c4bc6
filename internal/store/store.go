package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"hostel-ops-backend/internal/model"
)

// Store defines the interface for all database operations.
type Store interface {
	CreateUser(ctx context.Context, u *model.User) error
	GetUser(ctx context.Context, id string) (model.User, error)
	GetUserByEmail(ctx context.Context, email string) (model.User, error)
	ListUsers(ctx context.Context, f UserFilter) ([]model.User, error)

	UpsertMealRecord(ctx context.Context, r *model.MealRecord) error
	ListMealRecords(ctx context.Context, userID string, from, to model.Day) ([]model.MealRecord, error)
	ListMealRecordsByDate(ctx context.Context, day model.Day) ([]model.MealRecord, error)
	UpsertMealRate(ctx context.Context, r *model.MealRate) error
	GetMealRate(ctx context.Context, month model.Month) (model.MealRate, error)

	UpsertRentPayment(ctx context.Context, p *model.RentPayment) error
	GetRentPayment(ctx context.Context, userID string, month model.Month) (model.RentPayment, error)
	ListRentPayments(ctx context.Context, month model.Month) ([]model.RentPayment, error)

	CreateMealOffRequest(ctx context.Context, r *model.MealOffRequest) error
	GetMealOffRequest(ctx context.Context, id string) (model.MealOffRequest, error)
	FindActiveMealOffRequest(ctx context.Context, userID string, day model.Day) (model.MealOffRequest, bool, error)
	TransitionMealOffRequest(ctx context.Context, id string, from, to model.RequestStatus, reviewerID string, at time.Time) (bool, error)
	ListMealOffRequests(ctx context.Context, f MealOffFilter) ([]model.MealOffRequest, error)

	SavePushSubscription(ctx context.Context, sub *model.PushSubscription) error
	DeletePushSubscription(ctx context.Context, userID, endpoint string) error
	ListPushSubscriptions(ctx context.Context, userID string) ([]model.PushSubscription, error)

	// Transaction runs fn against a Store bound to a single read-write transaction.
	Transaction(ctx context.Context, fn func(Store) error) error
	// Snapshot runs fn against a Store whose reads all observe the same
	// committed state.
	Snapshot(ctx context.Context, fn func(Store) error) error
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) Transaction(ctx context.Context, fn func(Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormStore{db: tx})
	})
}

func (s *gormStore) Snapshot(ctx context.Context, fn func(Store) error) error {
	var opts []*sql.TxOptions
	if s.db.Dialector.Name() == "postgres" {
		// sqlite transactions are already serializable.
		opts = append(opts, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormStore{db: tx})
	}, opts...)
}

// --- users ---

func (s *gormStore) CreateUser(ctx context.Context, u *model.User) error {
	if err := s.db.WithContext(ctx).Create(u).Error; err != nil {
		return wrapWriteErr(err, "create user "+u.Email)
	}
	return nil
}

func (s *gormStore) GetUser(ctx context.Context, id string) (model.User, error) {
	var u model.User
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&u).Error
	return u, wrapReadErr(err, "user "+id)
}

func (s *gormStore) GetUserByEmail(ctx context.Context, email string) (model.User, error) {
	var u model.User
	err := s.db.WithContext(ctx).Where("email = ?", email).First(&u).Error
	return u, wrapReadErr(err, "user "+email)
}

func (s *gormStore) ListUsers(ctx context.Context, f UserFilter) ([]model.User, error) {
	q := s.db.WithContext(ctx).Order("name ASC").Order("id ASC")
	if len(f.Roles) > 0 {
		q = q.Where("role IN ?", f.Roles)
	}
	users := []model.User{}
	if err := q.Find(&users).Error; err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// --- meals ---

func (s *gormStore) UpsertMealRecord(ctx context.Context, r *model.MealRecord) error {
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "date"}},
		DoUpdates: clause.AssignmentColumns([]string{"breakfast", "lunch", "dinner", "meal_count", "recorded_by", "updated_at"}),
	}).Create(r).Error
	if err != nil {
		return fmt.Errorf("upsert meal record %s/%s: %w", r.UserID, r.Date, err)
	}
	return nil
}

func (s *gormStore) ListMealRecords(ctx context.Context, userID string, from, to model.Day) ([]model.MealRecord, error) {
	records := []model.MealRecord{}
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND date >= ? AND date <= ?", userID, from, to).
		Order("date ASC").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("list meal records for %s: %w", userID, err)
	}
	return records, nil
}

func (s *gormStore) ListMealRecordsByDate(ctx context.Context, day model.Day) ([]model.MealRecord, error) {
	records := []model.MealRecord{}
	err := s.db.WithContext(ctx).Where("date = ?", day).Order("user_id ASC").Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("list meal records on %s: %w", day, err)
	}
	return records, nil
}

func (s *gormStore) UpsertMealRate(ctx context.Context, r *model.MealRate) error {
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "month"}},
		DoUpdates: clause.AssignmentColumns([]string{"rate_per_meal", "set_by", "updated_at"}),
	}).Create(r).Error
	if err != nil {
		return fmt.Errorf("upsert meal rate %s: %w", r.Month, err)
	}
	return nil
}

func (s *gormStore) GetMealRate(ctx context.Context, month model.Month) (model.MealRate, error) {
	var r model.MealRate
	err := s.db.WithContext(ctx).Where("month = ?", month).First(&r).Error
	return r, wrapReadErr(err, "meal rate "+string(month))
}

// --- rent ---

func (s *gormStore) UpsertRentPayment(ctx context.Context, p *model.RentPayment) error {
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "month"}},
		DoUpdates: clause.AssignmentColumns([]string{"amount", "status", "paid_date", "recorded_by", "updated_at"}),
	}).Create(p).Error
	if err != nil {
		return fmt.Errorf("upsert rent payment %s/%s: %w", p.UserID, p.Month, err)
	}
	return nil
}

func (s *gormStore) GetRentPayment(ctx context.Context, userID string, month model.Month) (model.RentPayment, error) {
	var p model.RentPayment
	err := s.db.WithContext(ctx).Where("user_id = ? AND month = ?", userID, month).First(&p).Error
	return p, wrapReadErr(err, "rent payment "+userID+"/"+string(month))
}

func (s *gormStore) ListRentPayments(ctx context.Context, month model.Month) ([]model.RentPayment, error) {
	payments := []model.RentPayment{}
	if err := s.db.WithContext(ctx).Where("month = ?", month).Order("user_id ASC").Find(&payments).Error; err != nil {
		return nil, fmt.Errorf("list rent payments %s: %w", month, err)
	}
	return payments, nil
}

// --- meal-off ---

func (s *gormStore) CreateMealOffRequest(ctx context.Context, r *model.MealOffRequest) error {
	if err := s.db.WithContext(ctx).Create(r).Error; err != nil {
		return wrapWriteErr(err, "create meal-off request")
	}
	return nil
}

func (s *gormStore) GetMealOffRequest(ctx context.Context, id string) (model.MealOffRequest, error) {
	var r model.MealOffRequest
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&r).Error
	return r, wrapReadErr(err, "meal-off request "+id)
}

func (s *gormStore) FindActiveMealOffRequest(ctx context.Context, userID string, day model.Day) (model.MealOffRequest, bool, error) {
	var found []model.MealOffRequest
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND date = ? AND status <> ?", userID, day, string(model.RequestRejected)).
		Limit(1).
		Find(&found).Error
	if err != nil {
		return model.MealOffRequest{}, false, fmt.Errorf("find active meal-off request: %w", err)
	}
	if len(found) == 0 {
		return model.MealOffRequest{}, false, nil
	}
	return found[0], true, nil
}

// TransitionMealOffRequest moves a request from one status to another only if it
// is still in the from status. It reports whether the row was changed.
func (s *gormStore) TransitionMealOffRequest(ctx context.Context, id string, from, to model.RequestStatus, reviewerID string, at time.Time) (bool, error) {
	res := s.db.WithContext(ctx).
		Model(&model.MealOffRequest{}).
		Where("id = ? AND status = ?", id, string(from)).
		Updates(map[string]any{
			"status":      string(to),
			"reviewed_by": reviewerID,
			"reviewed_at": at,
		})
	if res.Error != nil {
		return false, fmt.Errorf("transition meal-off request %s: %w", id, res.Error)
	}
	return res.RowsAffected == 1, nil
}

func (s *gormStore) ListMealOffRequests(ctx context.Context, f MealOffFilter) ([]model.MealOffRequest, error) {
	q := s.db.WithContext(ctx).Order("requested_at DESC").Order("id DESC")
	if f.UserID != "" {
		q = q.Where("user_id = ?", f.UserID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", string(f.Status))
	}
	if f.From != "" {
		q = q.Where("date >= ?", f.From)
	}
	if f.To != "" {
		q = q.Where("date <= ?", f.To)
	}
	requests := []model.MealOffRequest{}
	if err := q.Find(&requests).Error; err != nil {
		return nil, fmt.Errorf("list meal-off requests: %w", err)
	}
	return requests, nil
}

// --- push subscriptions ---

func (s *gormStore) SavePushSubscription(ctx context.Context, sub *model.PushSubscription) error {
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "endpoint"}},
		DoUpdates: clause.AssignmentColumns([]string{"user_id", "p256dh", "auth"}),
	}).Create(sub).Error
	if err != nil {
		return fmt.Errorf("save push subscription: %w", err)
	}
	return nil
}

func (s *gormStore) DeletePushSubscription(ctx context.Context, userID, endpoint string) error {
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND endpoint = ?", userID, endpoint).
		Delete(&model.PushSubscription{}).Error
	if err != nil {
		return fmt.Errorf("delete push subscription: %w", err)
	}
	return nil
}

func (s *gormStore) ListPushSubscriptions(ctx context.Context, userID string) ([]model.PushSubscription, error) {
	subs := []model.PushSubscription{}
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Find(&subs).Error; err != nil {
		return nil, fmt.Errorf("list push subscriptions for %s: %w", userID, err)
	}
	return subs, nil
}

// --- error translation ---

func wrapReadErr(err error, what string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s: %w", what, model.ErrNotFound)
	}
	return fmt.Errorf("get %s: %w", what, err)
}

func wrapWriteErr(err error, what string) error {
	if isUniqueViolation(err) {
		return fmt.Errorf("%s: %w", what, ErrConflict)
	}
	return fmt.Errorf("%s: %w", what, err)
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return liteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			liteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}
