package api

import (
	"fmt"
	"net/http"
	"time"

	"expensetracker/config"
	"expensetracker/database"
	"expensetracker/models"
	"expensetracker/service"

	"github.com/gin-gonic/gin"
)

// ReportHandler 月度报表
type ReportHandler struct {
	cfg *config.Config
}

func NewReportHandler(cfg *config.Config) *ReportHandler {
	return &ReportHandler{cfg: cfg}
}

// MonthlyPDF 月度报表 PDF
// @Summary 下载月度报表 PDF
// @Tags 报表
// @Produce application/pdf
// @Security BearerAuth
// @Param month query int false "月份，默认本月"
// @Param year query int false "年份，默认今年"
// @Success 200 {file} file "PDF 文件"
// @Failure 400 {object} Response{data=ValidationErrorData} "参数错误"
// @Router /api/v1/reports/monthly [get]
func (h *ReportHandler) MonthlyPDF(c *gin.Context) {
	month, year, expenses, ok := h.monthlyExpenses(c)
	if !ok {
		return
	}
	data, err := service.RenderMonthlyReportPDF(expenses, service.MonthlyReportTitle(month, year), h.cfg.Report.CurrencySymbol)
	if err != nil {
		InternalError(c, SafeErrorMessage(err, "生成报表失败"))
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", service.MonthlyReportFilename(month, year)))
	c.Data(http.StatusOK, "application/pdf", data)
}

// MonthlyExcel 月度报表 Excel
// @Summary 下载月度报表 Excel
// @Tags 报表
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security BearerAuth
// @Param month query int false "月份，默认本月"
// @Param year query int false "年份，默认今年"
// @Success 200 {file} file "Excel 文件"
// @Failure 400 {object} Response{data=ValidationErrorData} "参数错误"
// @Router /api/v1/reports/monthly/excel [get]
func (h *ReportHandler) MonthlyExcel(c *gin.Context) {
	month, year, expenses, ok := h.monthlyExpenses(c)
	if !ok {
		return
	}
	data, err := service.RenderMonthlyReportExcel(expenses, service.MonthlyReportTitle(month, year), h.cfg.Report.CurrencySymbol)
	if err != nil {
		InternalError(c, SafeErrorMessage(err, "生成报表失败"))
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", service.MonthlyReportExcelFilename(month, year)))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}

// monthlyExpenses 指定月份的消费，按日期升序
func (h *ReportHandler) monthlyExpenses(c *gin.Context) (int, int, []models.Expense, bool) {
	now := nowFunc()
	month, year, ok := monthYearQuery(c, now)
	if !ok {
		return 0, 0, nil, false
	}
	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, now.Location())

	var expenses []models.Expense
	if err := database.DB.Preload("Category").
		Where("date >= ? AND date < ?", start, start.AddDate(0, 1, 0)).
		Order("date ASC, id ASC").
		Find(&expenses).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "查询失败"))
		return 0, 0, nil, false
	}
	return month, year, expenses, true
}
