package api

import (
	"time"

	"expensetracker/database"
	"expensetracker/models"
	"expensetracker/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// RecurringHandler 周期消费模板
type RecurringHandler struct{}

func NewRecurringHandler() *RecurringHandler {
	return &RecurringHandler{}
}

// RecurringRequest 创建周期模板请求
// frequency/day_of_month/day_of_week/end_date 只保存，不参与生成
type RecurringRequest struct {
	CategoryID  uint             `json:"category_id" binding:"required" example:"3"`
	Description string           `json:"description" binding:"required,max=500" example:"Netflix"`
	Amount      decimal.Decimal  `json:"amount" binding:"required,gt=0" swaggertype:"string" example:"15.99"`
	Frequency   models.Frequency `json:"frequency" binding:"required,oneof=daily weekly monthly yearly" example:"monthly"`
	StartDate   string           `json:"start_date" binding:"required,datetime=2006-01-02" example:"2025-01-01"`
	EndDate     string           `json:"end_date" binding:"omitempty,datetime=2006-01-02" example:"2025-12-31"`
	DayOfMonth  *int             `json:"day_of_month" binding:"omitempty,min=1,max=31" example:"1"`
	DayOfWeek   *int             `json:"day_of_week" binding:"omitempty,min=0,max=6" example:"0"`
}

// UpdateRecurringRequest 更新周期模板请求
type UpdateRecurringRequest struct {
	RecurringRequest
	Version uint `json:"version" binding:"required" example:"1"`
}

// toModel 解析并校验日期，字段错误以 map 返回
func (r RecurringRequest) toModel() (models.RecurringExpense, map[string]string) {
	fieldErrors := make(map[string]string)
	tpl := models.RecurringExpense{
		CategoryID:  r.CategoryID,
		Description: r.Description,
		Amount:      r.Amount,
		Frequency:   r.Frequency,
		DayOfMonth:  1,
	}
	start, err := parseDate(r.StartDate)
	if err != nil || start == nil {
		fieldErrors["start_date"] = "日期格式应为 " + dateLayout
	} else {
		tpl.StartDate = *start
	}
	end, err := parseDate(r.EndDate)
	if err != nil {
		fieldErrors["end_date"] = "日期格式应为 " + dateLayout
	}
	if end != nil && start != nil && end.Before(*start) {
		fieldErrors["end_date"] = "结束日期不能早于开始日期"
	}
	tpl.EndDate = end
	if r.DayOfMonth != nil {
		tpl.DayOfMonth = *r.DayOfMonth
	}
	if r.DayOfWeek != nil {
		tpl.DayOfWeek = time.Weekday(*r.DayOfWeek)
	}
	return tpl, fieldErrors
}

// List 启用中的周期模板
// @Summary 获取周期消费列表
// @Tags 周期消费
// @Produce json
// @Security BearerAuth
// @Success 200 {object} Response{data=[]models.RecurringExpense} "获取成功"
// @Router /api/v1/recurring-expenses [get]
func (h *RecurringHandler) List(c *gin.Context) {
	var list []models.RecurringExpense
	if err := database.DB.Preload("Category").
		Where("status = ?", models.StatusActive).
		Order("description ASC, id ASC").
		Find(&list).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "查询失败"))
		return
	}
	Success(c, list)
}

// Get 获取周期模板
// @Summary 获取周期消费
// @Tags 周期消费
// @Produce json
// @Security BearerAuth
// @Param id path int true "模板ID"
// @Success 200 {object} Response{data=models.RecurringExpense} "获取成功"
// @Failure 404 {object} Response "模板不存在"
// @Router /api/v1/recurring-expenses/{id} [get]
func (h *RecurringHandler) Get(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var tpl models.RecurringExpense
	if err := database.DB.Preload("Category").
		Where("id = ? AND status = ?", id, models.StatusActive).
		First(&tpl).Error; err != nil {
		writeStoreError(c, err, "模板不存在", "查询失败")
		return
	}
	Success(c, tpl)
}

// Create 创建周期模板
// @Summary 创建周期消费
// @Tags 周期消费
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body RecurringRequest true "模板信息"
// @Success 201 {object} Response{data=models.RecurringExpense} "创建成功"
// @Failure 400 {object} Response{data=ValidationErrorData} "参数错误"
// @Router /api/v1/recurring-expenses [post]
func (h *RecurringHandler) Create(c *gin.Context) {
	var req RecurringRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ValidationFailed(c, BindingErrors(err), req)
		return
	}
	tpl, ok := validateRecurringRequest(c, req, req)
	if !ok {
		return
	}
	if err := database.DB.Create(&tpl).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "创建失败"))
		return
	}
	Created(c, "创建成功", tpl)
}

// Update 更新周期模板
// @Summary 更新周期消费
// @Tags 周期消费
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "模板ID"
// @Param request body UpdateRecurringRequest true "模板信息"
// @Success 200 {object} Response{data=models.RecurringExpense} "更新成功"
// @Failure 400 {object} Response{data=ValidationErrorData} "参数错误"
// @Failure 404 {object} Response "模板不存在"
// @Failure 409 {object} Response "记录已被修改"
// @Router /api/v1/recurring-expenses/{id} [put]
func (h *RecurringHandler) Update(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req UpdateRecurringRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ValidationFailed(c, BindingErrors(err), req)
		return
	}
	tpl, ok := validateRecurringRequest(c, req.RecurringRequest, req)
	if !ok {
		return
	}

	var current models.RecurringExpense
	if err := database.DB.Where("id = ? AND status = ?", id, models.StatusActive).First(&current).Error; err != nil {
		writeStoreError(c, err, "模板不存在", "查询失败")
		return
	}

	if err := database.UpdateVersioned(database.DB, &models.RecurringExpense{}, id, req.Version, map[string]interface{}{
		"category_id":  tpl.CategoryID,
		"description":  tpl.Description,
		"amount":       tpl.Amount,
		"frequency":    tpl.Frequency,
		"start_date":   tpl.StartDate,
		"end_date":     tpl.EndDate,
		"day_of_month": tpl.DayOfMonth,
		"day_of_week":  tpl.DayOfWeek,
	}, database.ActiveOnly); err != nil {
		writeStoreError(c, err, "模板不存在", "更新失败")
		return
	}

	if err := database.DB.Preload("Category").First(&current, id).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "读取更新结果失败"))
		return
	}
	SuccessWithMessage(c, "更新成功", current)
}

// Delete 停用周期模板（软删除）
// @Summary 删除周期消费
// @Tags 周期消费
// @Produce json
// @Security BearerAuth
// @Param id path int true "模板ID"
// @Success 200 {object} Response "删除成功"
// @Failure 404 {object} Response "模板不存在"
// @Router /api/v1/recurring-expenses/{id} [delete]
func (h *RecurringHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	res := database.DB.Model(&models.RecurringExpense{}).
		Where("id = ? AND status = ?", id, models.StatusActive).
		Updates(map[string]interface{}{
			"status":  models.StatusInactive,
			"version": gorm.Expr("version + 1"),
		})
	if res.Error != nil {
		InternalError(c, SafeErrorMessage(res.Error, "删除失败"))
		return
	}
	if res.RowsAffected == 0 {
		NotFound(c, "模板不存在")
		return
	}
	SuccessWithMessage(c, "删除成功", nil)
}

// Generate 按模板立即生成一条消费记录
// @Summary 生成周期消费
// @Description 以当前时间生成一条消费记录，并更新模板的最近生成时间
// @Tags 周期消费
// @Produce json
// @Security BearerAuth
// @Param id path int true "模板ID"
// @Success 201 {object} Response{data=models.Expense} "生成成功"
// @Failure 404 {object} Response "模板不存在或已停用"
// @Failure 409 {object} Response "模板已被修改"
// @Router /api/v1/recurring-expenses/{id}/generate [post]
func (h *RecurringHandler) Generate(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	expense, err := service.GenerateRecurringExpense(database.DB, id, nowFunc())
	if err != nil {
		if service.IsNotFound(err) {
			NotFound(c, "模板不存在或已停用")
			return
		}
		writeStoreError(c, err, "模板不存在", "生成失败")
		return
	}
	Created(c, "生成成功", expense)
}

func validateRecurringRequest(c *gin.Context, req RecurringRequest, input interface{}) (models.RecurringExpense, bool) {
	tpl, fieldErrors := req.toModel()
	if len(fieldErrors) > 0 {
		ValidationFailed(c, fieldErrors, input)
		return tpl, false
	}
	exists, err := activeCategoryExists(req.CategoryID)
	if err != nil {
		InternalError(c, SafeErrorMessage(err, "查询类别失败"))
		return tpl, false
	}
	if !exists {
		ValidationFailed(c, map[string]string{"category_id": "类别不存在"}, input)
		return tpl, false
	}
	return tpl, true
}
