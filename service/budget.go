package service

import (
	"errors"
	"fmt"

	"expensetracker/database"
	"expensetracker/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// UnknownCategoryName 预算关联类别缺失时的展示名
const UnknownCategoryName = "Unknown"

var hundred = decimal.NewFromInt(100)

// BudgetStatus 单个预算的执行情况
type BudgetStatus struct {
	BudgetID        uint            `json:"budget_id"`
	CategoryID      uint            `json:"category_id"`
	CategoryName    string          `json:"category_name"`
	CategoryColor   string          `json:"category_color"`
	Month           int             `json:"month"`
	Year            int             `json:"year"`
	AlertThreshold  int             `json:"alert_threshold"`
	BudgetAmount    decimal.Decimal `json:"budget_amount"`
	SpentAmount     decimal.Decimal `json:"spent_amount"`
	RemainingAmount decimal.Decimal `json:"remaining_amount"`
	PercentageUsed  decimal.Decimal `json:"percentage_used"`
	IsOverBudget    bool            `json:"is_over_budget"`
	IsNearLimit     bool            `json:"is_near_limit"`
}

// NewBudgetStatus 根据已花费金额计算预算状态
// 预算为 0 时使用率恒为 0；已超支的预算不再算作“接近上限”
func NewBudgetStatus(b models.Budget, spent decimal.Decimal) BudgetStatus {
	percentage := decimal.Zero
	if b.Amount.IsPositive() {
		percentage = spent.Div(b.Amount).Mul(hundred)
	}
	over := spent.GreaterThan(b.Amount)

	status := BudgetStatus{
		BudgetID:        b.ID,
		CategoryID:      b.CategoryID,
		CategoryName:    UnknownCategoryName,
		CategoryColor:   models.DefaultCategoryColor,
		Month:           b.Month,
		Year:            b.Year,
		AlertThreshold:  b.AlertThreshold,
		BudgetAmount:    b.Amount,
		SpentAmount:     spent,
		RemainingAmount: b.Amount.Sub(spent),
		PercentageUsed:  percentage,
		IsOverBudget:    over,
		IsNearLimit: !over &&
			percentage.GreaterThanOrEqual(decimal.NewFromInt(int64(b.AlertThreshold))) &&
			percentage.LessThan(hundred),
	}
	if b.Category != nil {
		status.CategoryName = b.Category.Name
		status.CategoryColor = b.Category.Color
	}
	return status
}

// CalculateBudgetStatuses 计算每个预算的执行情况
// expenses 应已限定为预算月份第一天及之后的记录，这里只按 category_id 归集
func CalculateBudgetStatuses(budgets []models.Budget, expenses []models.Expense) []BudgetStatus {
	spentByCategory := make(map[uint]decimal.Decimal)
	for _, e := range expenses {
		if e.CategoryID == nil {
			continue
		}
		spentByCategory[*e.CategoryID] = spentByCategory[*e.CategoryID].Add(e.Amount)
	}

	statuses := make([]BudgetStatus, 0, len(budgets))
	for _, b := range budgets {
		statuses = append(statuses, NewBudgetStatus(b, spentByCategory[b.CategoryID]))
	}
	return statuses
}

// AlertingStatuses 筛出接近上限或已超支的预算
func AlertingStatuses(statuses []BudgetStatus) []BudgetStatus {
	var out []BudgetStatus
	for _, s := range statuses {
		if s.IsOverBudget || s.IsNearLimit {
			out = append(out, s)
		}
	}
	return out
}

// CreateBudget 在同一事务内校验类别与重复预算后写入
func CreateBudget(db *gorm.DB, budget *models.Budget) error {
	return db.Transaction(func(tx *gorm.DB) error {
		if err := ensureActiveCategory(tx, budget.CategoryID); err != nil {
			return err
		}
		if err := ensureNoDuplicateBudget(tx, budget.CategoryID, budget.Month, budget.Year, 0); err != nil {
			return err
		}
		return tx.Create(budget).Error
	})
}

// UpdateBudget 乐观锁更新预算，重复检查排除自身
func UpdateBudget(db *gorm.DB, id, version uint, budget models.Budget) error {
	return db.Transaction(func(tx *gorm.DB) error {
		if err := ensureActiveCategory(tx, budget.CategoryID); err != nil {
			return err
		}
		if err := ensureNoDuplicateBudget(tx, budget.CategoryID, budget.Month, budget.Year, id); err != nil {
			return err
		}
		return database.UpdateVersioned(tx, &models.Budget{}, id, version, map[string]interface{}{
			"category_id":     budget.CategoryID,
			"month":           budget.Month,
			"year":            budget.Year,
			"amount":          budget.Amount,
			"alert_threshold": budget.AlertThreshold,
		})
	})
}

func ensureActiveCategory(tx *gorm.DB, categoryID uint) error {
	var cat models.Category
	if err := tx.Where("id = ? AND status = ?", categoryID, models.StatusActive).First(&cat).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCategoryNotFound
		}
		return fmt.Errorf("查询类别失败: %w", err)
	}
	return nil
}

func ensureNoDuplicateBudget(tx *gorm.DB, categoryID uint, month, year int, excludeID uint) error {
	query := tx.Model(&models.Budget{}).
		Where("category_id = ? AND month = ? AND year = ?", categoryID, month, year)
	if excludeID != 0 {
		query = query.Where("id <> ?", excludeID)
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return fmt.Errorf("检查重复预算失败: %w", err)
	}
	if count > 0 {
		return ErrDuplicateBudget
	}
	return nil
}
