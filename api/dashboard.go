package api

import (
	"expensetracker/database"
	"expensetracker/models"
	"expensetracker/service"

	"github.com/gin-gonic/gin"
)

// DashboardHandler 首页统计
type DashboardHandler struct{}

func NewDashboardHandler() *DashboardHandler {
	return &DashboardHandler{}
}

// Get 首页统计
// @Summary 获取首页统计
// @Description 总额、本月、本周、今日合计，环比，类别排行，最近消费，本月预算和近 6 个月趋势
// @Tags 首页
// @Produce json
// @Security BearerAuth
// @Success 200 {object} Response{data=service.Dashboard} "获取成功"
// @Router /api/v1/dashboard [get]
func (h *DashboardHandler) Get(c *gin.Context) {
	now := nowFunc()

	var expenses []models.Expense
	if err := database.DB.Preload("Category").Order("id ASC").Find(&expenses).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "查询失败"))
		return
	}

	var budgets []models.Budget
	if err := database.DB.Preload("Category").
		Where("month = ? AND year = ?", int(now.Month()), now.Year()).
		Order("id ASC").
		Find(&budgets).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "查询失败"))
		return
	}

	Success(c, service.BuildDashboard(expenses, budgets, now))
}

// CategoryBreakdown 本月全部类别分布
// @Summary 获取本月类别分布
// @Tags 首页
// @Produce json
// @Security BearerAuth
// @Success 200 {object} Response{data=[]service.CategorySummary} "获取成功"
// @Router /api/v1/dashboard/category-breakdown [get]
func (h *DashboardHandler) CategoryBreakdown(c *gin.Context) {
	now := nowFunc()

	var expenses []models.Expense
	if err := database.DB.Preload("Category").
		Where("date >= ?", service.StartOfMonth(now)).
		Order("id ASC").
		Find(&expenses).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "查询失败"))
		return
	}

	groups := service.CategoryBreakdown(expenses, now)
	if groups == nil {
		groups = []service.CategorySummary{}
	}
	Success(c, groups)
}
