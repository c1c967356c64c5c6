package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// UncategorizedLabel 没有任何类别信息时的展示名
const UncategorizedLabel = "Uncategorized"

// Expense 消费记录模型
type Expense struct {
	ID   uint      `json:"id" gorm:"primaryKey"`
	Date time.Time `json:"date" gorm:"not null;index"`
	// LegacyCategory 旧版本的自由文本类别，只读兼容，新记录不再写入
	LegacyCategory     *string             `json:"legacy_category,omitempty" gorm:"column:category;size:100"`
	CategoryID         *uint               `json:"category_id" gorm:"index"`
	Description        string              `json:"description" gorm:"size:500"`
	Amount             decimal.Decimal     `json:"amount" gorm:"type:decimal(18,2);not null"`
	Tags               string              `json:"tags" gorm:"size:500"` // 逗号分隔
	Notes              string              `json:"notes" gorm:"size:2000"`
	IsRecurring        bool                `json:"is_recurring" gorm:"default:false"`
	RecurringExpenseID *uint               `json:"recurring_expense_id" gorm:"index"`
	Version            uint                `json:"version" gorm:"not null;default:1"`
	CreatedAt          time.Time           `json:"created_at"`
	ModifiedAt         *time.Time          `json:"modified_at"`
	Category           *Category           `json:"category,omitempty" gorm:"foreignKey:CategoryID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL"`
	Attachments        []ExpenseAttachment `json:"attachments,omitempty" gorm:"foreignKey:ExpenseID;constraint:OnDelete:CASCADE"`
}

// TableName 设置表名
func (Expense) TableName() string {
	return "expenses"
}

// CategoryDisplay 展示用的类别信息
type CategoryDisplay struct {
	Name  string `json:"name"`
	Icon  string `json:"icon"`
	Color string `json:"color"`
}

// CategoryLabel 类别名：关联类别优先，其次旧版文本，都没有返回空串
func (e Expense) CategoryLabel() string {
	if e.Category != nil {
		return e.Category.Name
	}
	if e.LegacyCategory != nil {
		return strings.TrimSpace(*e.LegacyCategory)
	}
	return ""
}

// ResolveCategory 解析展示用类别，缺失时回退到 Uncategorized 和默认图标颜色
func (e Expense) ResolveCategory() CategoryDisplay {
	d := CategoryDisplay{Name: e.CategoryLabel(), Icon: DefaultCategoryIcon, Color: DefaultCategoryColor}
	if d.Name == "" {
		d.Name = UncategorizedLabel
	}
	if e.Category != nil {
		if e.Category.Icon != "" {
			d.Icon = e.Category.Icon
		}
		if e.Category.Color != "" {
			d.Color = e.Category.Color
		}
	}
	return d
}

// TagList 拆分标签
func (e Expense) TagList() []string {
	var tags []string
	for _, t := range strings.Split(e.Tags, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

func (e *Expense) BeforeCreate(tx *gorm.DB) error {
	if e.Version == 0 {
		e.Version = 1
	}
	return nil
}
