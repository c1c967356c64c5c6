package models

import "time"

// ExpenseAttachment 消费记录附件
type ExpenseAttachment struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	ExpenseID  uint      `json:"expense_id" gorm:"not null;index"`
	FileName   string    `json:"file_name" gorm:"size:255;not null"`
	FilePath   string    `json:"file_path" gorm:"size:500;not null"`
	FileSize   int64     `json:"file_size"`
	UploadedAt time.Time `json:"uploaded_at"`
}

func (ExpenseAttachment) TableName() string {
	return "expense_attachments"
}
