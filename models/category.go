package models

import (
	"time"

	"gorm.io/gorm"
)

// Status 启用状态，分类和周期模板的软删除都通过它表达
type Status string

const (
	// StatusActive 正常使用
	StatusActive Status = "active"
	// StatusInactive 已停用（软删除）
	StatusInactive Status = "inactive"
)

// 缺省展示值
const (
	DefaultCategoryIcon  = "fa-circle"
	DefaultCategoryColor = "#64748b"
)

// Category 消费类别
type Category struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name" gorm:"size:100;not null;uniqueIndex"`
	Icon      string    `json:"icon" gorm:"size:50;default:fa-circle"`
	Color     string    `json:"color" gorm:"size:7;default:#6366f1"` // 颜色代码，如 #ef4444
	IsDefault bool      `json:"is_default" gorm:"default:false"`     // 系统内置类别，不可编辑、不可删除
	Status    Status    `json:"status" gorm:"size:20;default:active;index"`
	Version   uint      `json:"version" gorm:"not null;default:1"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Category) TableName() string {
	return "categories"
}

// IsActive 是否处于启用状态
func (c Category) IsActive() bool {
	return c.Status == StatusActive
}

// BeforeCreate 补齐缺省值，保证返回给调用方的结构体与落库一致
func (c *Category) BeforeCreate(tx *gorm.DB) error {
	if c.Icon == "" {
		c.Icon = DefaultCategoryIcon
	}
	if c.Color == "" {
		c.Color = "#6366f1"
	}
	if c.Status == "" {
		c.Status = StatusActive
	}
	if c.Version == 0 {
		c.Version = 1
	}
	return nil
}

// DefaultCategories 首次初始化时写入的内置类别
func DefaultCategories() []Category {
	return []Category{
		{ID: 1, Name: "Food & Dining", Icon: "fa-utensils", Color: "#ef4444", IsDefault: true, Status: StatusActive},
		{ID: 2, Name: "Transportation", Icon: "fa-car", Color: "#f59e0b", IsDefault: true, Status: StatusActive},
		{ID: 3, Name: "Shopping", Icon: "fa-shopping-bag", Color: "#ec4899", IsDefault: true, Status: StatusActive},
		{ID: 4, Name: "Entertainment", Icon: "fa-film", Color: "#8b5cf6", IsDefault: true, Status: StatusActive},
		{ID: 5, Name: "Bills & Utilities", Icon: "fa-file-invoice-dollar", Color: "#3b82f6", IsDefault: true, Status: StatusActive},
		{ID: 6, Name: "Healthcare", Icon: "fa-heartbeat", Color: "#10b981", IsDefault: true, Status: StatusActive},
		{ID: 7, Name: "Education", Icon: "fa-graduation-cap", Color: "#06b6d4", IsDefault: true, Status: StatusActive},
		{ID: 8, Name: "Travel", Icon: "fa-plane", Color: "#6366f1", IsDefault: true, Status: StatusActive},
		{ID: 9, Name: "Housing", Icon: "fa-home", Color: "#14b8a6", IsDefault: true, Status: StatusActive},
		{ID: 10, Name: "Personal Care", Icon: "fa-spa", Color: "#a855f7", IsDefault: true, Status: StatusActive},
		{ID: 11, Name: "Gifts & Donations", Icon: "fa-gift", Color: "#f43f5e", IsDefault: true, Status: StatusActive},
		{ID: 12, Name: "Other", Icon: "fa-ellipsis-h", Color: "#64748b", IsDefault: true, Status: StatusActive},
	}
}
