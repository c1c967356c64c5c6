package api

import (
	"errors"
	"strings"

	"expensetracker/database"
	"expensetracker/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// CategoryHandler 消费类别管理
type CategoryHandler struct{}

func NewCategoryHandler() *CategoryHandler {
	return &CategoryHandler{}
}

type CategoryCreateRequest struct {
	Name  string `json:"name" binding:"required,max=100" example:"Pets"`
	Icon  string `json:"icon" binding:"omitempty,max=50" example:"fa-paw"`
	Color string `json:"color" binding:"omitempty,hexcolor,len=7" example:"#ef4444"`
}

type CategoryUpdateRequest struct {
	CategoryCreateRequest
	Version uint `json:"version" binding:"required" example:"1"`
}

// CategoryWithCount 类别及其消费笔数
type CategoryWithCount struct {
	models.Category
	ExpenseCount int64 `json:"expense_count"`
}

type categoryCount struct {
	CategoryID uint
	Count      int64
}

// List 列出启用中的类别
// @Summary 获取消费类别列表
// @Description 获取所有启用中的类别及各自的消费笔数
// @Tags 消费类别
// @Produce json
// @Security BearerAuth
// @Success 200 {object} Response{data=[]CategoryWithCount} "获取成功"
// @Router /api/v1/categories [get]
func (h *CategoryHandler) List(c *gin.Context) {
	var cats []models.Category
	if err := database.DB.Where("status = ?", models.StatusActive).Order("name ASC").Find(&cats).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "查询失败"))
		return
	}

	var counts []categoryCount
	if err := database.DB.Model(&models.Expense{}).
		Select("category_id, COUNT(*) AS count").
		Where("category_id IS NOT NULL").
		Group("category_id").
		Scan(&counts).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "查询失败"))
		return
	}
	countByID := make(map[uint]int64, len(counts))
	for _, cc := range counts {
		countByID[cc.CategoryID] = cc.Count
	}

	list := make([]CategoryWithCount, 0, len(cats))
	for _, cat := range cats {
		list = append(list, CategoryWithCount{Category: cat, ExpenseCount: countByID[cat.ID]})
	}
	Success(c, list)
}

// Get 获取单个类别
// @Summary 获取消费类别
// @Tags 消费类别
// @Produce json
// @Security BearerAuth
// @Param id path int true "类别ID"
// @Success 200 {object} Response{data=models.Category} "获取成功"
// @Failure 404 {object} Response "类别不存在"
// @Router /api/v1/categories/{id} [get]
func (h *CategoryHandler) Get(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	cat, err := findActiveCategory(id)
	if err != nil {
		writeStoreError(c, err, "类别不存在", "查询失败")
		return
	}
	Success(c, cat)
}

// Create 创建类别
// @Summary 创建消费类别
// @Tags 消费类别
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CategoryCreateRequest true "类别信息"
// @Success 201 {object} Response{data=models.Category} "创建成功"
// @Failure 400 {object} Response{data=ValidationErrorData} "参数错误或类别名称已存在"
// @Router /api/v1/categories [post]
func (h *CategoryHandler) Create(c *gin.Context) {
	var req CategoryCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ValidationFailed(c, BindingErrors(err), req)
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		ValidationFailed(c, map[string]string{"name": "不能为空"}, req)
		return
	}

	taken, err := categoryNameTaken(req.Name, 0)
	if err != nil {
		InternalError(c, SafeErrorMessage(err, "创建失败"))
		return
	}
	if taken {
		ValidationFailed(c, map[string]string{"name": "类别名称已存在"}, req)
		return
	}

	cat := models.Category{Name: req.Name, Icon: req.Icon, Color: req.Color}
	if err := database.DB.Create(&cat).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "创建失败"))
		return
	}
	Created(c, "创建成功", cat)
}

// Update 更新类别，系统内置类别不可修改
// @Summary 更新消费类别
// @Tags 消费类别
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "类别ID"
// @Param request body CategoryUpdateRequest true "类别信息"
// @Success 200 {object} Response{data=models.Category} "更新成功"
// @Failure 400 {object} Response{data=ValidationErrorData} "参数错误"
// @Failure 404 {object} Response "类别不存在或为内置类别"
// @Failure 409 {object} Response "记录已被修改"
// @Router /api/v1/categories/{id} [put]
func (h *CategoryHandler) Update(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	cat, err := findActiveCategory(id)
	if err != nil {
		writeStoreError(c, err, "类别不存在", "查询失败")
		return
	}
	if cat.IsDefault {
		NotFound(c, "内置类别不可修改")
		return
	}

	var req CategoryUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ValidationFailed(c, BindingErrors(err), req)
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		ValidationFailed(c, map[string]string{"name": "不能为空"}, req)
		return
	}
	taken, err := categoryNameTaken(req.Name, id)
	if err != nil {
		InternalError(c, SafeErrorMessage(err, "更新失败"))
		return
	}
	if taken {
		ValidationFailed(c, map[string]string{"name": "类别名称已存在"}, req)
		return
	}

	icon, color := req.Icon, req.Color
	if icon == "" {
		icon = models.DefaultCategoryIcon
	}
	if color == "" {
		color = models.DefaultCategoryColor
	}
	if err := database.UpdateVersioned(database.DB, &models.Category{}, id, req.Version, map[string]interface{}{
		"name":  req.Name,
		"icon":  icon,
		"color": color,
	}); err != nil {
		writeStoreError(c, err, "类别不存在", "更新失败")
		return
	}

	if err := database.DB.First(&cat, id).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "读取更新结果失败"))
		return
	}
	SuccessWithMessage(c, "更新成功", cat)
}

// Delete 停用类别（软删除），系统内置类别不可删除
// @Summary 删除消费类别
// @Tags 消费类别
// @Produce json
// @Security BearerAuth
// @Param id path int true "类别ID"
// @Success 200 {object} Response "删除成功"
// @Failure 404 {object} Response "类别不存在或为内置类别"
// @Router /api/v1/categories/{id} [delete]
func (h *CategoryHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	cat, err := findActiveCategory(id)
	if err != nil {
		writeStoreError(c, err, "类别不存在", "查询失败")
		return
	}
	if cat.IsDefault {
		NotFound(c, "内置类别不可删除")
		return
	}

	if err := database.DB.Model(&models.Category{}).Where("id = ?", id).Updates(map[string]interface{}{
		"status":  models.StatusInactive,
		"version": gorm.Expr("version + 1"),
	}).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "删除失败"))
		return
	}
	SuccessWithMessage(c, "删除成功", nil)
}

func findActiveCategory(id uint) (models.Category, error) {
	var cat models.Category
	err := database.DB.Where("id = ? AND status = ?", id, models.StatusActive).First(&cat).Error
	return cat, err
}

// categoryNameTaken 名称唯一性包含已停用的类别
func categoryNameTaken(name string, excludeID uint) (bool, error) {
	query := database.DB.Model(&models.Category{}).Where("name = ?", name)
	if excludeID != 0 {
		query = query.Where("id <> ?", excludeID)
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// activeCategoryExists 写入消费或周期模板前校验类别
func activeCategoryExists(id uint) (bool, error) {
	_, err := findActiveCategory(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	return err == nil, err
}
