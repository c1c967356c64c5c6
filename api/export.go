package api

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"net/http"

	"expensetracker/database"
	"expensetracker/models"

	"github.com/gin-gonic/gin"
)

// ExportHandler 导出处理器
type ExportHandler struct{}

// NewExportHandler 创建导出处理器
func NewExportHandler() *ExportHandler {
	return &ExportHandler{}
}

// ExportCSV 导出消费记录为 CSV
// @Summary 导出消费记录
// @Description 与消费列表使用相同的筛选参数
// @Tags 导出
// @Produce text/csv
// @Security BearerAuth
// @Param category_id query int false "类别ID"
// @Param start_date query string false "开始日期 (2025-01-01)"
// @Param end_date query string false "结束日期 (2025-01-31)"
// @Param q query string false "描述关键字"
// @Success 200 {file} file "CSV 文件"
// @Failure 400 {object} Response{data=ValidationErrorData} "参数错误"
// @Router /api/v1/export/csv [get]
func (h *ExportHandler) ExportCSV(c *gin.Context) {
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
		InternalError(c, SafeErrorMessage(err, "查询数据失败"))
		return
	}

	buf := new(bytes.Buffer)
	// 添加 BOM 以便 Excel 正确识别 UTF-8
	buf.WriteString("\xEF\xBB\xBF")

	writer := csv.NewWriter(buf)
	headers := []string{"ID", "Date", "Category", "Description", "Amount", "Tags", "Notes", "Recurring"}
	if err := writer.Write(headers); err != nil {
		InternalError(c, "生成 CSV 失败")
		return
	}

	for _, e := range expenses {
		row := []string{
			fmt.Sprintf("%d", e.ID),
			e.Date.Format(dateLayout),
			e.ResolveCategory().Name,
			e.Description,
			e.Amount.StringFixed(2),
			e.Tags,
			e.Notes,
			fmt.Sprintf("%t", e.IsRecurring),
		}
		if err := writer.Write(row); err != nil {
			InternalError(c, "生成 CSV 失败")
			return
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		InternalError(c, "生成 CSV 失败")
		return
	}

	filename := fmt.Sprintf("expenses_%s.csv", nowFunc().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}
