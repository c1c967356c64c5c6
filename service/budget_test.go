package service

import (
	"errors"
	"testing"
	"time"

	"expensetracker/database"
	"expensetracker/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestNewBudgetStatus(t *testing.T) {
	food := &models.Category{ID: 1, Name: "Food & Dining", Color: "#ef4444"}

	tests := []struct {
		name      string
		amount    string
		threshold int
		spent     string
		pct       string
		remaining string
		over      bool
		near      bool
	}{
		{"接近上限", "500", 80, "460", "92", "40", false, true},
		{"已超支", "500", 80, "520", "104", "-20", true, false},
		{"未达阈值", "500", 80, "100", "20", "400", false, false},
		{"刚好用完", "500", 80, "500", "100", "0", false, false},
		{"刚好到达阈值", "500", 80, "400", "80", "100", false, true},
		{"预算为 0 且有支出", "0", 80, "10", "0", "-10", true, false},
		{"预算为 0 且无支出", "0", 80, "0", "0", "0", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := models.Budget{ID: 7, CategoryID: 1, Month: 3, Year: 2025, Amount: dec(tt.amount), AlertThreshold: tt.threshold, Category: food}
			s := NewBudgetStatus(b, dec(tt.spent))

			assert.True(t, dec(tt.pct).Equal(s.PercentageUsed), "percentage %s", s.PercentageUsed)
			assert.True(t, dec(tt.remaining).Equal(s.RemainingAmount), "remaining %s", s.RemainingAmount)
			assert.Equal(t, tt.over, s.IsOverBudget)
			assert.Equal(t, tt.near, s.IsNearLimit)
			assert.False(t, s.IsOverBudget && s.IsNearLimit)
			assert.Equal(t, "Food & Dining", s.CategoryName)
			assert.Equal(t, "#ef4444", s.CategoryColor)
		})
	}
}

func TestNewBudgetStatus_MissingCategory(t *testing.T) {
	s := NewBudgetStatus(models.Budget{CategoryID: 99, Amount: dec("100"), AlertThreshold: 80}, dec("0"))
	assert.Equal(t, UnknownCategoryName, s.CategoryName)
	assert.Equal(t, models.DefaultCategoryColor, s.CategoryColor)
}

func TestCalculateBudgetStatuses(t *testing.T) {
	day := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	budgets := []models.Budget{
		{ID: 1, CategoryID: 1, Month: 3, Year: 2025, Amount: dec("500"), AlertThreshold: 80},
		{ID: 2, CategoryID: 2, Month: 3, Year: 2025, Amount: dec("200"), AlertThreshold: 50},
		{ID: 3, CategoryID: 3, Month: 3, Year: 2025, Amount: dec("100"), AlertThreshold: 80},
	}
	expenses := []models.Expense{
		expenseAt(day, 1, "300"),
		expenseAt(day, 1, "160"),
		expenseAt(day, 2, "250"),
		expenseAt(day, 0, "999"),
	}

	statuses := CalculateBudgetStatuses(budgets, expenses)
	require.Len(t, statuses, 3)

	assert.True(t, dec("460").Equal(statuses[0].SpentAmount))
	assert.True(t, statuses[0].IsNearLimit)
	assert.True(t, dec("250").Equal(statuses[1].SpentAmount))
	assert.True(t, statuses[1].IsOverBudget)
	assert.True(t, statuses[2].SpentAmount.IsZero())

	for _, s := range statuses {
		assert.True(t, s.RemainingAmount.Equal(s.BudgetAmount.Sub(s.SpentAmount)))
	}

	alerts := AlertingStatuses(statuses)
	require.Len(t, alerts, 2)
	assert.Equal(t, uint(1), alerts[0].BudgetID)
	assert.Equal(t, uint(2), alerts[1].BudgetID)
}

func TestCreateBudget(t *testing.T) {
	db := setupTestDB(t)

	b := &models.Budget{CategoryID: 1, Month: 3, Year: 2025, Amount: dec("500"), AlertThreshold: 80}
	require.NoError(t, CreateBudget(db, b))
	assert.NotZero(t, b.ID)
	assert.Equal(t, uint(1), b.Version)

	// 同类别同月份重复
	dup := &models.Budget{CategoryID: 1, Month: 3, Year: 2025, Amount: dec("100"), AlertThreshold: 80}
	assert.ErrorIs(t, CreateBudget(db, dup), ErrDuplicateBudget)

	// 不同月份允许
	require.NoError(t, CreateBudget(db, &models.Budget{CategoryID: 1, Month: 4, Year: 2025, Amount: dec("100"), AlertThreshold: 80}))

	// 类别不存在
	assert.ErrorIs(t, CreateBudget(db, &models.Budget{CategoryID: 999, Month: 3, Year: 2025, Amount: dec("1")}), ErrCategoryNotFound)

	var count int64
	db.Model(&models.Budget{}).Count(&count)
	assert.Equal(t, int64(2), count)
}

func TestUpdateBudget(t *testing.T) {
	db := setupTestDB(t)

	march := &models.Budget{CategoryID: 1, Month: 3, Year: 2025, Amount: dec("500"), AlertThreshold: 80}
	april := &models.Budget{CategoryID: 1, Month: 4, Year: 2025, Amount: dec("500"), AlertThreshold: 80}
	require.NoError(t, CreateBudget(db, march))
	require.NoError(t, CreateBudget(db, april))

	// 修改自身金额不算重复
	update := models.Budget{CategoryID: 1, Month: 3, Year: 2025, Amount: dec("600"), AlertThreshold: 90}
	require.NoError(t, UpdateBudget(db, march.ID, 1, update))

	var got models.Budget
	require.NoError(t, db.First(&got, march.ID).Error)
	assert.True(t, dec("600").Equal(got.Amount))
	assert.Equal(t, 90, got.AlertThreshold)
	assert.Equal(t, uint(2), got.Version)

	// 旧版本号
	err := UpdateBudget(db, march.ID, 1, update)
	assert.ErrorIs(t, err, database.ErrVersionConflict)

	// 改到已有预算的月份
	update.Month = 4
	assert.ErrorIs(t, UpdateBudget(db, march.ID, 2, update), ErrDuplicateBudget)

	// 记录不存在
	update.Month = 5
	err = UpdateBudget(db, 12345, 1, update)
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))
}
