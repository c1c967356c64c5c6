package service

import (
	"errors"
	"fmt"
	"time"

	"expensetracker/database"
	"expensetracker/models"

	"gorm.io/gorm"
)

// Materialize 由周期模板生成一条消费记录，并把模板的 LastGenerated 推进到 now
// 只复制类别、描述和金额，不根据 Frequency 等字段计算下一次日期
func Materialize(tpl *models.RecurringExpense, now time.Time) (models.Expense, error) {
	if !tpl.IsActive() {
		return models.Expense{}, ErrTemplateInactive
	}
	categoryID := tpl.CategoryID
	templateID := tpl.ID
	expense := models.Expense{
		Date:               now,
		CategoryID:         &categoryID,
		Description:        tpl.Description,
		Amount:             tpl.Amount,
		IsRecurring:        true,
		RecurringExpenseID: &templateID,
	}
	generated := now
	tpl.LastGenerated = &generated
	return expense, nil
}

// GenerateRecurringExpense 手动触发生成
// 新消费的写入与模板时间戳的更新在同一事务内完成
func GenerateRecurringExpense(db *gorm.DB, id uint, now time.Time) (*models.Expense, error) {
	var expense models.Expense
	err := db.Transaction(func(tx *gorm.DB) error {
		var tpl models.RecurringExpense
		if err := tx.First(&tpl, id).Error; err != nil {
			return err
		}

		e, err := Materialize(&tpl, now)
		if err != nil {
			return err
		}
		if err := tx.Create(&e).Error; err != nil {
			return fmt.Errorf("创建消费记录失败: %w", err)
		}

		// 读取后被停用的模板视为不存在，整个事务回滚
		if err := database.UpdateVersioned(tx, &models.RecurringExpense{}, tpl.ID, tpl.Version, map[string]interface{}{
			"last_generated": *tpl.LastGenerated,
		}, database.ActiveOnly); err != nil {
			return err
		}
		expense = e
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &expense, nil
}

// IsNotFound 记录不存在，或处于不允许该操作的状态
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound) || errors.Is(err, ErrTemplateInactive)
}
