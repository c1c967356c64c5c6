package models

import (
	"time"

	"gorm.io/gorm"

	"github.com/shopspring/decimal"
)

// Frequency 周期
type Frequency string

const (
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
	FrequencyYearly  Frequency = "yearly"
)

// Valid 是否为支持的周期
func (f Frequency) Valid() bool {
	switch f {
	case FrequencyDaily, FrequencyWeekly, FrequencyMonthly, FrequencyYearly:
		return true
	}
	return false
}

// RecurringExpense 周期消费模板，手动触发生成消费记录
// Frequency/DayOfMonth/DayOfWeek/EndDate 仅保存，生成时不读取
type RecurringExpense struct {
	ID            uint            `json:"id" gorm:"primaryKey"`
	CategoryID    uint            `json:"category_id" gorm:"not null;index"`
	Description   string          `json:"description" gorm:"size:500;not null"`
	Amount        decimal.Decimal `json:"amount" gorm:"type:decimal(18,2);not null"`
	Frequency     Frequency       `json:"frequency" gorm:"size:20;not null"`
	StartDate     time.Time       `json:"start_date" gorm:"not null"`
	EndDate       *time.Time      `json:"end_date"`
	Status        Status          `json:"status" gorm:"size:20;default:active;index"`
	LastGenerated *time.Time      `json:"last_generated"`
	DayOfMonth    int             `json:"day_of_month" gorm:"default:1"` // 1-31，按月时使用
	DayOfWeek     time.Weekday    `json:"day_of_week"`                   // 0=周日，按周时使用
	Version       uint            `json:"version" gorm:"not null;default:1"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
	Category      *Category       `json:"category,omitempty" gorm:"foreignKey:CategoryID;constraint:OnDelete:CASCADE"`
}

func (RecurringExpense) TableName() string {
	return "recurring_expenses"
}

// IsActive 是否处于启用状态
func (r RecurringExpense) IsActive() bool {
	return r.Status == StatusActive
}

func (r *RecurringExpense) BeforeCreate(tx *gorm.DB) error {
	if r.Status == "" {
		r.Status = StatusActive
	}
	if r.Version == 0 {
		r.Version = 1
	}
	return nil
}
