package api

import (
	"errors"
	"net/http"
	"time"

	"expensetracker/config"
	"expensetracker/database"
	"expensetracker/models"
	"expensetracker/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// BudgetHandler 预算管理
type BudgetHandler struct {
	cfg   *config.Config
	email *service.EmailService
}

func NewBudgetHandler(cfg *config.Config) *BudgetHandler {
	return &BudgetHandler{cfg: cfg, email: service.NewEmailService(&cfg.Email)}
}

// BudgetRequest 创建预算请求，alert_threshold 缺省为 80
type BudgetRequest struct {
	CategoryID     uint             `json:"category_id" binding:"required" example:"1"`
	Month          int              `json:"month" binding:"required,min=1,max=12" example:"3"`
	Year           int              `json:"year" binding:"required,min=1900,max=9999" example:"2025"`
	Amount         *decimal.Decimal `json:"amount" binding:"required,gte=0" swaggertype:"string" example:"500.00"`
	AlertThreshold *int             `json:"alert_threshold" binding:"omitempty,min=0,max=100" example:"80"`
}

// UpdateBudgetRequest 更新预算请求
type UpdateBudgetRequest struct {
	BudgetRequest
	Version uint `json:"version" binding:"required" example:"1"`
}

// BudgetAlertRequest 预算提醒请求，to 为空时使用配置的收件人
type BudgetAlertRequest struct {
	To string `json:"to" binding:"omitempty,email" example:"me@example.com"`
}

func (r BudgetRequest) toModel() models.Budget {
	threshold := models.DefaultAlertThreshold
	if r.AlertThreshold != nil {
		threshold = *r.AlertThreshold
	}
	return models.Budget{
		CategoryID:     r.CategoryID,
		Month:          r.Month,
		Year:           r.Year,
		Amount:         *r.Amount,
		AlertThreshold: threshold,
	}
}

// List 指定月份（默认本月）的预算执行情况
// @Summary 获取预算执行情况
// @Tags 预算
// @Produce json
// @Security BearerAuth
// @Param month query int false "月份，默认本月"
// @Param year query int false "年份，默认今年"
// @Success 200 {object} Response{data=[]service.BudgetStatus} "获取成功"
// @Router /api/v1/budgets [get]
func (h *BudgetHandler) List(c *gin.Context) {
	now := nowFunc()
	month, year, ok := monthYearQuery(c, now)
	if !ok {
		return
	}
	statuses, err := budgetStatuses(month, year, now)
	if err != nil {
		InternalError(c, SafeErrorMessage(err, "查询失败"))
		return
	}
	Success(c, statuses)
}

// budgetStatuses 当月预算统计本月第一天及之后的全部消费，其他月份只统计该月内的消费
func budgetStatuses(month, year int, now time.Time) ([]service.BudgetStatus, error) {
	var budgets []models.Budget
	if err := database.DB.Preload("Category").
		Where("month = ? AND year = ?", month, year).
		Order("id ASC").
		Find(&budgets).Error; err != nil {
		return nil, err
	}
	if len(budgets) == 0 {
		return []service.BudgetStatus{}, nil
	}

	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, now.Location())
	query := database.DB.Where("date >= ?", start)
	if !start.Equal(service.StartOfMonth(now)) {
		query = query.Where("date < ?", start.AddDate(0, 1, 0))
	}
	var expenses []models.Expense
	if err := query.Find(&expenses).Error; err != nil {
		return nil, err
	}
	return service.CalculateBudgetStatuses(budgets, expenses), nil
}

// Get 获取预算
// @Summary 获取预算
// @Tags 预算
// @Produce json
// @Security BearerAuth
// @Param id path int true "预算ID"
// @Success 200 {object} Response{data=models.Budget} "获取成功"
// @Failure 404 {object} Response "预算不存在"
// @Router /api/v1/budgets/{id} [get]
func (h *BudgetHandler) Get(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var budget models.Budget
	if err := database.DB.Preload("Category").First(&budget, id).Error; err != nil {
		writeStoreError(c, err, "预算不存在", "查询失败")
		return
	}
	Success(c, budget)
}

// Create 创建预算
// @Summary 创建预算
// @Description 同一类别同一月份只能有一个预算，重复时返回 409 表单错误
// @Tags 预算
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body BudgetRequest true "预算信息"
// @Success 201 {object} Response{data=models.Budget} "创建成功"
// @Failure 400 {object} Response{data=ValidationErrorData} "参数错误"
// @Failure 409 {object} Response{data=ValidationErrorData} "预算已存在"
// @Router /api/v1/budgets [post]
func (h *BudgetHandler) Create(c *gin.Context) {
	var req BudgetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ValidationFailed(c, BindingErrors(err), req)
		return
	}

	budget := req.toModel()
	if err := service.CreateBudget(database.DB, &budget); err != nil {
		writeBudgetError(c, err, req)
		return
	}
	Created(c, "创建成功", budget)
}

// Update 更新预算
// @Summary 更新预算
// @Tags 预算
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "预算ID"
// @Param request body UpdateBudgetRequest true "预算信息"
// @Success 200 {object} Response{data=models.Budget} "更新成功"
// @Failure 400 {object} Response{data=ValidationErrorData} "参数错误"
// @Failure 404 {object} Response "预算不存在"
// @Failure 409 {object} Response "预算已存在或记录已被修改"
// @Router /api/v1/budgets/{id} [put]
func (h *BudgetHandler) Update(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req UpdateBudgetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ValidationFailed(c, BindingErrors(err), req)
		return
	}

	if err := service.UpdateBudget(database.DB, id, req.Version, req.toModel()); err != nil {
		writeBudgetError(c, err, req)
		return
	}

	var budget models.Budget
	if err := database.DB.Preload("Category").First(&budget, id).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "读取更新结果失败"))
		return
	}
	SuccessWithMessage(c, "更新成功", budget)
}

// Delete 删除预算
// @Summary 删除预算
// @Tags 预算
// @Produce json
// @Security BearerAuth
// @Param id path int true "预算ID"
// @Success 200 {object} Response "删除成功"
// @Failure 404 {object} Response "预算不存在"
// @Router /api/v1/budgets/{id} [delete]
func (h *BudgetHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	res := database.DB.Delete(&models.Budget{}, id)
	if res.Error != nil {
		InternalError(c, SafeErrorMessage(res.Error, "删除失败"))
		return
	}
	if res.RowsAffected == 0 {
		NotFound(c, "预算不存在")
		return
	}
	SuccessWithMessage(c, "删除成功", nil)
}

// SendAlerts 发送本月预算提醒邮件
// @Summary 发送预算提醒
// @Description 把本月接近上限或已超支的预算汇总发送到邮箱
// @Tags 预算
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body BudgetAlertRequest false "收件人"
// @Success 200 {object} Response "发送成功"
// @Failure 503 {object} Response "邮件服务未启用"
// @Router /api/v1/budgets/alerts [post]
func (h *BudgetHandler) SendAlerts(c *gin.Context) {
	var req BudgetAlertRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			ValidationFailed(c, BindingErrors(err), req)
			return
		}
	}

	now := nowFunc()
	statuses, err := budgetStatuses(int(now.Month()), now.Year(), now)
	if err != nil {
		InternalError(c, SafeErrorMessage(err, "查询失败"))
		return
	}

	sent, err := h.email.SendBudgetAlertEmail(req.To, statuses, h.cfg.Report.CurrencySymbol)
	if err != nil {
		if errors.Is(err, service.ErrEmailDisabled) {
			Error(c, http.StatusServiceUnavailable, err.Error())
			return
		}
		InternalError(c, SafeErrorMessage(err, "发送失败"))
		return
	}
	if sent == 0 {
		SuccessWithMessage(c, "没有需要提醒的预算", gin.H{"sent": 0})
		return
	}
	SuccessWithMessage(c, "发送成功", gin.H{"sent": sent})
}

func writeBudgetError(c *gin.Context, err error, input interface{}) {
	switch {
	case errors.Is(err, service.ErrDuplicateBudget):
		FormConflict(c, "该类别本月已有预算", input)
	case errors.Is(err, service.ErrCategoryNotFound):
		ValidationFailed(c, map[string]string{"category_id": "类别不存在"}, input)
	default:
		writeStoreError(c, err, "预算不存在", "保存失败")
	}
}
