package service

import "errors"

var (
	// ErrTemplateInactive 周期模板已停用，视同不存在
	ErrTemplateInactive = errors.New("recurring expense template is inactive")
	// ErrDuplicateBudget 同一类别同一月份已有预算
	ErrDuplicateBudget = errors.New("a budget already exists for this category and month")
	// ErrCategoryNotFound 引用的类别不存在或已停用
	ErrCategoryNotFound = errors.New("category not found")
	// ErrFileTooLarge 附件超过大小限制
	ErrFileTooLarge = errors.New("file too large")
)
