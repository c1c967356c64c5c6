package api

import (
	"net/http"

	"expensetracker/database"

	"github.com/gin-gonic/gin"
)

// Health 健康检查，数据库不可用时返回 503
// @Summary 健康检查
// @Tags 系统
// @Produce json
// @Success 200 {object} Response "服务正常"
// @Failure 503 {object} Response "数据库不可用"
// @Router /health [get]
func Health(c *gin.Context) {
	if database.DB == nil {
		Error(c, http.StatusServiceUnavailable, "数据库未初始化")
		return
	}
	sqlDB, err := database.DB.DB()
	if err == nil {
		err = sqlDB.PingContext(c.Request.Context())
	}
	if err != nil {
		Error(c, http.StatusServiceUnavailable, SafeErrorMessage(err, "数据库不可用"))
		return
	}
	Success(c, gin.H{"status": "ok", "dialect": database.DB.Dialector.Name()})
}
