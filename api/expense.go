package api

import (
	"log"
	"strconv"
	"strings"
	"time"

	"expensetracker/database"
	"expensetracker/models"
	"expensetracker/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ExpenseHandler 消费记录处理器
type ExpenseHandler struct {
	storage service.FileStorage
}

// NewExpenseHandler 创建消费记录处理器，删除记录时一并清理附件文件
func NewExpenseHandler(storage service.FileStorage) *ExpenseHandler {
	return &ExpenseHandler{storage: storage}
}

// ExpenseRequest 创建消费记录请求
type ExpenseRequest struct {
	Date        string          `json:"date" binding:"required,datetime=2006-01-02" example:"2025-03-12"`
	CategoryID  *uint           `json:"category_id" example:"1"`
	Description string          `json:"description" binding:"max=500" example:"Lunch"`
	Amount      decimal.Decimal `json:"amount" binding:"required,gt=0" swaggertype:"string" example:"12.50"`
	Tags        string          `json:"tags" binding:"max=500" example:"work,lunch"`
	Notes       string          `json:"notes" binding:"max=2000"`
}

// UpdateExpenseRequest 更新消费记录请求，version 为读取时的版本号
type UpdateExpenseRequest struct {
	ExpenseRequest
	Version uint `json:"version" binding:"required" example:"1"`
}

// ExpenseListResponse 列表及合计
type ExpenseListResponse struct {
	Expenses    []models.Expense `json:"expenses"`
	Count       int              `json:"count"`
	TotalAmount decimal.Decimal  `json:"total_amount"`
	MonthAmount decimal.Decimal  `json:"month_amount"` // 筛选结果中本月的合计
}

// List 获取消费记录列表
// @Summary 获取消费记录列表
// @Description 支持按类别、日期区间（含结束日当天）和描述关键字筛选
// @Tags 消费记录
// @Produce json
// @Security BearerAuth
// @Param category_id query int false "类别ID"
// @Param start_date query string false "开始日期 (2025-01-01)"
// @Param end_date query string false "结束日期 (2025-01-31)"
// @Param q query string false "描述关键字"
// @Success 200 {object} Response{data=ExpenseListResponse} "获取成功"
// @Failure 400 {object} Response{data=ValidationErrorData} "参数错误"
// @Router /api/v1/expenses [get]
func (h *ExpenseHandler) List(c *gin.Context) {
	filter, fieldErrors := expenseFilterFromQuery(c)
	if len(fieldErrors) > 0 {
		ValidationFailed(c, fieldErrors, c.Request.URL.Query())
		return
	}

	var expenses []models.Expense
	if err := filter.Apply(database.DB.Model(&models.Expense{})).
		Preload("Category").
		Order("date DESC, id DESC").
		Find(&expenses).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "查询失败"))
		return
	}

	monthStart := service.StartOfMonth(nowFunc())
	Success(c, ExpenseListResponse{
		Expenses:    expenses,
		Count:       len(expenses),
		TotalAmount: service.Sum(expenses),
		MonthAmount: service.SumBetween(expenses, monthStart, monthStart.AddDate(0, 1, 0)),
	})
}

// expenseFilterFromQuery 缺省的参数不参与筛选
func expenseFilterFromQuery(c *gin.Context) (database.ExpenseFilter, map[string]string) {
	var filter database.ExpenseFilter
	fieldErrors := make(map[string]string)

	if v := strings.TrimSpace(c.Query("category_id")); v != "" {
		id, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			fieldErrors["category_id"] = "无效的类别ID"
		} else {
			cid := uint(id)
			filter.CategoryID = &cid
		}
	}
	start, err := parseDate(c.Query("start_date"))
	if err != nil {
		fieldErrors["start_date"] = "日期格式应为 " + dateLayout
	}
	end, err := parseDate(c.Query("end_date"))
	if err != nil {
		fieldErrors["end_date"] = "日期格式应为 " + dateLayout
	}
	filter.StartDate, filter.EndDate = start, end
	filter.Query = c.Query("q")
	return filter, fieldErrors
}

// Get 获取单条消费记录
// @Summary 获取单条消费记录
// @Tags 消费记录
// @Produce json
// @Security BearerAuth
// @Param id path int true "消费记录ID"
// @Success 200 {object} Response{data=models.Expense} "获取成功"
// @Failure 404 {object} Response "记录不存在"
// @Router /api/v1/expenses/{id} [get]
func (h *ExpenseHandler) Get(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var expense models.Expense
	if err := database.DB.Preload("Category").Preload("Attachments").First(&expense, id).Error; err != nil {
		writeStoreError(c, err, "记录不存在", "查询失败")
		return
	}
	Success(c, expense)
}

// Create 创建消费记录
// @Summary 创建消费记录
// @Tags 消费记录
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body ExpenseRequest true "消费记录信息"
// @Success 201 {object} Response{data=models.Expense} "创建成功"
// @Failure 400 {object} Response{data=ValidationErrorData} "参数错误"
// @Router /api/v1/expenses [post]
func (h *ExpenseHandler) Create(c *gin.Context) {
	var req ExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ValidationFailed(c, BindingErrors(err), req)
		return
	}
	date, ok := validateExpenseRequest(c, &req, req)
	if !ok {
		return
	}

	expense := models.Expense{
		Date:        date,
		CategoryID:  req.CategoryID,
		Description: strings.TrimSpace(req.Description),
		Amount:      req.Amount,
		Tags:        req.Tags,
		Notes:       req.Notes,
	}
	if err := database.DB.Create(&expense).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "创建消费记录失败"))
		return
	}
	Created(c, "创建成功", expense)
}

// Update 更新消费记录
// @Summary 更新消费记录
// @Description 使用乐观锁，version 不匹配时返回 409
// @Tags 消费记录
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "消费记录ID"
// @Param request body UpdateExpenseRequest true "消费记录信息"
// @Success 200 {object} Response{data=models.Expense} "更新成功"
// @Failure 400 {object} Response{data=ValidationErrorData} "参数错误"
// @Failure 404 {object} Response "记录不存在"
// @Failure 409 {object} Response "记录已被修改"
// @Router /api/v1/expenses/{id} [put]
func (h *ExpenseHandler) Update(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req UpdateExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ValidationFailed(c, BindingErrors(err), req)
		return
	}
	date, ok := validateExpenseRequest(c, &req.ExpenseRequest, req)
	if !ok {
		return
	}

	modifiedAt := nowFunc()
	if err := database.UpdateVersioned(database.DB, &models.Expense{}, id, req.Version, map[string]interface{}{
		"date":        date,
		"category_id": req.CategoryID,
		"description": strings.TrimSpace(req.Description),
		"amount":      req.Amount,
		"tags":        req.Tags,
		"notes":       req.Notes,
		"modified_at": modifiedAt,
	}); err != nil {
		writeStoreError(c, err, "记录不存在", "更新失败")
		return
	}

	var expense models.Expense
	if err := database.DB.Preload("Category").First(&expense, id).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "读取更新结果失败"))
		return
	}
	SuccessWithMessage(c, "更新成功", expense)
}

// Delete 删除消费记录及其附件
// @Summary 删除消费记录
// @Tags 消费记录
// @Produce json
// @Security BearerAuth
// @Param id path int true "消费记录ID"
// @Success 200 {object} Response "删除成功"
// @Failure 404 {object} Response "记录不存在"
// @Router /api/v1/expenses/{id} [delete]
func (h *ExpenseHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var expense models.Expense
	if err := database.DB.Preload("Attachments").First(&expense, id).Error; err != nil {
		writeStoreError(c, err, "记录不存在", "查询失败")
		return
	}

	if err := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("expense_id = ?", id).Delete(&models.ExpenseAttachment{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Expense{}, id).Error
	}); err != nil {
		InternalError(c, SafeErrorMessage(err, "删除失败"))
		return
	}
	h.removeFiles(c, expense.Attachments)
	SuccessWithMessage(c, "删除成功", nil)
}

// removeFiles 数据库记录删除后清理文件，失败只记录日志
func (h *ExpenseHandler) removeFiles(c *gin.Context, attachments []models.ExpenseAttachment) {
	if h.storage == nil {
		return
	}
	for _, a := range attachments {
		if err := h.storage.Delete(c.Request.Context(), a.FilePath); err != nil {
			log.Printf("清理附件文件失败 %s: %v", a.FilePath, err)
		}
	}
}

// validateExpenseRequest 解析日期并校验类别，失败时写入 400
func validateExpenseRequest(c *gin.Context, req *ExpenseRequest, input interface{}) (time.Time, bool) {
	date, err := time.ParseInLocation(dateLayout, req.Date, time.Local)
	if err != nil {
		ValidationFailed(c, map[string]string{"date": "日期格式应为 " + dateLayout}, input)
		return time.Time{}, false
	}
	if req.CategoryID != nil {
		exists, err := activeCategoryExists(*req.CategoryID)
		if err != nil {
			InternalError(c, SafeErrorMessage(err, "查询类别失败"))
			return time.Time{}, false
		}
		if !exists {
			ValidationFailed(c, map[string]string{"category_id": "类别不存在"}, input)
			return time.Time{}, false
		}
	}
	return date, true
}
