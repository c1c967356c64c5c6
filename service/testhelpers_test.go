package service

import (
	"testing"
	"time"

	"expensetracker/database"
	"expensetracker/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTestDB 内存 SQLite，已迁移并写入默认类别
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, database.Setup(db))
	return db
}

func uintPtr(v uint) *uint { return &v }

func strPtr(s string) *string { return &s }

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func expenseAt(date time.Time, categoryID uint, amount string) models.Expense {
	e := models.Expense{Date: date, Amount: dec(amount)}
	if categoryID != 0 {
		e.CategoryID = uintPtr(categoryID)
	}
	return e
}
