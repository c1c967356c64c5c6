package database

import (
	"errors"
	"strings"
	"time"

	"expensetracker/models"

	"gorm.io/gorm"
)

// ErrVersionConflict 记录在读取后被其他请求修改
var ErrVersionConflict = errors.New("record was modified by another request")

// ExpenseFilter 消费列表筛选条件，零值字段表示不筛选
type ExpenseFilter struct {
	CategoryID *uint
	StartDate  *time.Time
	EndDate    *time.Time
	Query      string
}

// EndOfDay 当天最后一刻
func EndOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location()).AddDate(0, 0, 1).Add(-time.Nanosecond)
}

// StartOfDay 当天零点
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// Apply 将筛选条件附加到 expenses 查询上
func (f ExpenseFilter) Apply(query *gorm.DB) *gorm.DB {
	if f.CategoryID != nil {
		query = query.Where("category_id = ?", *f.CategoryID)
	}
	if f.StartDate != nil {
		query = query.Where("date >= ?", StartOfDay(*f.StartDate))
	}
	if f.EndDate != nil {
		// 包含结束日期当天
		query = query.Where("date <= ?", EndOfDay(*f.EndDate))
	}
	if q := strings.TrimSpace(f.Query); q != "" {
		query = query.Where("LOWER(description) LIKE ?", "%"+strings.ToLower(q)+"%")
	}
	return query
}

// ActiveOnly 只匹配 status 为 active 的记录
func ActiveOnly(db *gorm.DB) *gorm.DB {
	return db.Where("status = ?", models.StatusActive)
}

// Exists 按主键检查记录是否存在，scopes 为附加条件
func Exists(db *gorm.DB, model interface{}, id uint, scopes ...func(*gorm.DB) *gorm.DB) (bool, error) {
	var count int64
	if err := db.Model(model).Scopes(scopes...).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// UpdateVersioned 乐观锁更新：仅当版本号匹配时写入并递增版本号
// 未命中时重新检查记录：已不存在（或不再满足 scopes）返回 gorm.ErrRecordNotFound，否则返回 ErrVersionConflict
func UpdateVersioned(db *gorm.DB, model interface{}, id, version uint, updates map[string]interface{}, scopes ...func(*gorm.DB) *gorm.DB) error {
	values := make(map[string]interface{}, len(updates)+1)
	for k, v := range updates {
		values[k] = v
	}
	values["version"] = gorm.Expr("version + 1")

	res := db.Model(model).Scopes(scopes...).Where("id = ? AND version = ?", id, version).Updates(values)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		return nil
	}

	exists, err := Exists(db, model, id, scopes...)
	if err != nil {
		return err
	}
	if !exists {
		return gorm.ErrRecordNotFound
	}
	return ErrVersionConflict
}
