package database

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"expensetracker/config"
	"expensetracker/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, Setup(db))
	return db
}

func uintPtr(v uint) *uint { return &v }

func TestSetup_SeedsDefaultCategoriesOnce(t *testing.T) {
	db := openTestDB(t)

	var cats []models.Category
	require.NoError(t, db.Order("id").Find(&cats).Error)
	require.Len(t, cats, 12)
	assert.Equal(t, "Food & Dining", cats[0].Name)
	assert.Equal(t, "Other", cats[11].Name)
	for _, c := range cats {
		assert.True(t, c.IsDefault, c.Name)
		assert.Equal(t, models.StatusActive, c.Status)
	}

	// 再次执行不会重复写入
	require.NoError(t, SeedCategories(db))
	var count int64
	db.Model(&models.Category{}).Count(&count)
	assert.Equal(t, int64(12), count)
}

func TestExpenseFilter_Apply(t *testing.T) {
	db := openTestDB(t)

	day := func(d, h int) time.Time { return time.Date(2025, 3, d, h, 0, 0, 0, time.UTC) }
	expenses := []models.Expense{
		{Date: day(1, 9), CategoryID: uintPtr(1), Description: "Lunch at Cafe", Amount: decimal.NewFromInt(12)},
		{Date: day(5, 23), CategoryID: uintPtr(2), Description: "Taxi", Amount: decimal.NewFromInt(30)},
		{Date: day(10, 8), CategoryID: uintPtr(1), Description: "Dinner", Amount: decimal.NewFromInt(45)},
		{Date: day(12, 8), Description: "coffee beans", Amount: decimal.NewFromInt(9)},
	}
	require.NoError(t, db.Create(&expenses).Error)

	find := func(f ExpenseFilter) []string {
		var list []models.Expense
		require.NoError(t, f.Apply(db.Model(&models.Expense{})).Order("date").Find(&list).Error)
		var out []string
		for _, e := range list {
			out = append(out, e.Description)
		}
		return out
	}

	assert.Len(t, find(ExpenseFilter{}), 4)
	assert.Equal(t, []string{"Lunch at Cafe", "Dinner"}, find(ExpenseFilter{CategoryID: uintPtr(1)}))

	// 结束日期包含当天 23:00 的记录
	start, end := day(2, 0), day(5, 0)
	assert.Equal(t, []string{"Taxi"}, find(ExpenseFilter{StartDate: &start, EndDate: &end}))

	// 描述模糊匹配，不区分大小写
	assert.Equal(t, []string{"Lunch at Cafe"}, find(ExpenseFilter{Query: "CAF"}))
	assert.Equal(t, []string{"coffee beans"}, find(ExpenseFilter{Query: "Coffee"}))
	assert.Empty(t, find(ExpenseFilter{Query: "rent"}))
}

func TestUpdateVersioned(t *testing.T) {
	db := openTestDB(t)

	budget := models.Budget{CategoryID: 1, Month: 3, Year: 2025, Amount: decimal.NewFromInt(500), AlertThreshold: 80}
	require.NoError(t, db.Create(&budget).Error)
	require.Equal(t, uint(1), budget.Version)

	// 版本匹配时写入并递增
	err := UpdateVersioned(db, &models.Budget{}, budget.ID, 1, map[string]interface{}{"amount": decimal.NewFromInt(600)})
	require.NoError(t, err)

	var reloaded models.Budget
	require.NoError(t, db.First(&reloaded, budget.ID).Error)
	assert.Equal(t, uint(2), reloaded.Version)
	assert.True(t, decimal.NewFromInt(600).Equal(reloaded.Amount))

	// 过期版本号
	err = UpdateVersioned(db, &models.Budget{}, budget.ID, 1, map[string]interface{}{"amount": decimal.NewFromInt(700)})
	assert.ErrorIs(t, err, ErrVersionConflict)

	// 记录已删除
	require.NoError(t, db.Delete(&models.Budget{}, budget.ID).Error)
	err = UpdateVersioned(db, &models.Budget{}, budget.ID, 2, map[string]interface{}{"amount": decimal.NewFromInt(700)})
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))
}

func TestEndOfDay(t *testing.T) {
	d := time.Date(2025, 3, 31, 10, 30, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2025, 3, 31, 23, 59, 59, 999999999, time.UTC), EndOfDay(d))
	assert.Equal(t, time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC), StartOfDay(d))
}

func TestUpdateVersioned_ActiveOnly(t *testing.T) {
	db := openTestDB(t)

	tpl := models.RecurringExpense{
		CategoryID:  1,
		Description: "Gym",
		Amount:      decimal.NewFromInt(30),
		Frequency:   models.FrequencyMonthly,
		StartDate:   time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		Status:      models.StatusActive,
	}
	require.NoError(t, db.Create(&tpl).Error)

	// 停用但不改版本号，按旧版本写入仍应失败
	require.NoError(t, db.Model(&models.RecurringExpense{}).Where("id = ?", tpl.ID).
		Update("status", models.StatusInactive).Error)

	err := UpdateVersioned(db, &models.RecurringExpense{}, tpl.ID, tpl.Version,
		map[string]interface{}{"description": "Pool"}, ActiveOnly)
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))

	var reloaded models.RecurringExpense
	require.NoError(t, db.First(&reloaded, tpl.ID).Error)
	assert.Equal(t, "Gym", reloaded.Description)
	assert.Equal(t, tpl.Version, reloaded.Version)

	// 不带条件时照常写入
	require.NoError(t, UpdateVersioned(db, &models.RecurringExpense{}, tpl.ID, tpl.Version,
		map[string]interface{}{"description": "Pool"}))
}

// 不可达的 MySQL 配置，端口 1 会立即拒绝连接
func unreachableMySQL(mode, fallback string) *config.Config {
	return &config.Config{
		Server: config.ServerConfig{Mode: mode},
		Database: config.DatabaseConfig{
			Driver:         "mysql",
			Host:           "127.0.0.1",
			Port:           "1",
			Username:       "root",
			DBName:         "expense_tracker",
			Charset:        "utf8mb4",
			FallbackSQLite: fallback,
		},
	}
}

func TestInit_FallbackToSQLite(t *testing.T) {
	old := DB
	defer func() { DB = old }()

	path := filepath.Join(t.TempDir(), "data", "fallback.db")
	require.NoError(t, Init(unreachableMySQL("debug", path)))
	require.NotNil(t, DB)
	assert.Equal(t, "sqlite", DB.Dialector.Name())

	var count int64
	require.NoError(t, DB.Model(&models.Category{}).Count(&count).Error)
	assert.Equal(t, int64(len(models.DefaultCategories())), count)

	sqlDB, err := DB.DB()
	require.NoError(t, err)
	sqlDB.Close()
}

func TestInit_NoFallbackInRelease(t *testing.T) {
	old := DB
	defer func() { DB = old }()

	err := Init(unreachableMySQL("release", filepath.Join(t.TempDir(), "fallback.db")))
	assert.Error(t, err)
	assert.Equal(t, old, DB)
}

func TestInit_UnsupportedDriver(t *testing.T) {
	cfg := &config.Config{Database: config.DatabaseConfig{Driver: "postgres"}}
	assert.Error(t, Init(cfg))
}
