package models

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DefaultAlertThreshold 默认提醒阈值（百分比）
const DefaultAlertThreshold = 80

// Budget 某类别某月的预算
// 同一 (category_id, month, year) 只允许一条，由写入时的存在性检查保证
type Budget struct {
	ID             uint            `json:"id" gorm:"primaryKey"`
	CategoryID     uint            `json:"category_id" gorm:"not null;index:idx_budget_period"`
	Month          int             `json:"month" gorm:"not null;index:idx_budget_period"`
	Year           int             `json:"year" gorm:"not null;index:idx_budget_period"`
	Amount         decimal.Decimal `json:"amount" gorm:"type:decimal(18,2);not null"`
	AlertThreshold int             `json:"alert_threshold" gorm:"not null"`
	Version        uint            `json:"version" gorm:"not null;default:1"`
	Category       *Category       `json:"category,omitempty" gorm:"foreignKey:CategoryID;constraint:OnDelete:CASCADE"`
}

func (Budget) TableName() string {
	return "budgets"
}

func (b *Budget) BeforeCreate(tx *gorm.DB) error {
	if b.Version == 0 {
		b.Version = 1
	}
	return nil
}
