// Package storetest opens throwaway databases for package tests.
package storetest

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"hostel-ops-backend/internal/db"
	"hostel-ops-backend/internal/model"
)

// Open returns a migrated in-memory sqlite database private to the test.
func Open(t testing.TB) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	// One connection keeps the in-memory database alive and serialises writers.
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.Migrate(gdb))
	return gdb
}

// User inserts a user with the given role and monthly rent.
func User(t testing.TB, gdb *gorm.DB, name string, role model.Role, rent int64) model.User {
	t.Helper()
	u := model.User{
		ID:          uuid.NewString(),
		Name:        name,
		Email:       fmt.Sprintf("%s-%s@hostel.test", name, uuid.NewString()[:8]),
		Role:        role,
		Room:        "A-101",
		Block:       "A",
		Floor:       1,
		MonthlyRent: decimal.NewFromInt(rent),
	}
	require.NoError(t, gdb.Create(&u).Error)
	return u
}
