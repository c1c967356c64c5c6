package api

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"expensetracker/database"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const dateLayout = "2006-01-02"

// nowFunc 每个请求读取一次当前时间，测试中可替换
var nowFunc = time.Now

// parseID 解析路径中的 id，非法时直接写入 400
func parseID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		BadRequest(c, "无效的ID")
		return 0, false
	}
	return uint(id), true
}

// parseDate 解析 yyyy-mm-dd，空串返回 nil
func parseDate(value string) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation(dateLayout, value, time.Local)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// monthYearQuery 读取 month/year 查询参数，缺省为 now 所在月份
func monthYearQuery(c *gin.Context, now time.Time) (int, int, bool) {
	month, year := int(now.Month()), now.Year()
	if v := c.Query("month"); v != "" {
		m, err := strconv.Atoi(v)
		if err != nil || m < 1 || m > 12 {
			ValidationFailed(c, map[string]string{"month": "必须在 1-12 之间"}, nil)
			return 0, 0, false
		}
		month = m
	}
	if v := c.Query("year"); v != "" {
		y, err := strconv.Atoi(v)
		if err != nil || y < 1900 || y > 9999 {
			ValidationFailed(c, map[string]string{"year": "不是有效的年份"}, nil)
			return 0, 0, false
		}
		year = y
	}
	return month, year, true
}

// writeStoreError 统一处理持久化错误：不存在 404，版本冲突 409，其余 500
func writeStoreError(c *gin.Context, err error, notFoundMsg, fallback string) {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		NotFound(c, notFoundMsg)
	case errors.Is(err, database.ErrVersionConflict):
		Conflict(c, "记录已被修改，请刷新后重试")
	default:
		InternalError(c, SafeErrorMessage(err, fallback))
	}
}
