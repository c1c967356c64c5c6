package router

import (
	"fmt"
	"time"

	"expensetracker/api"
	"expensetracker/config"
	_ "expensetracker/docs"
	"expensetracker/middleware"
	"expensetracker/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

const (
	loginMaxAttempts = 5
	loginWindow      = time.Minute
)

// SetupRouter 设置路由
func SetupRouter(cfg *config.Config) (*gin.Engine, error) {
	// 设置运行模式
	gin.SetMode(cfg.Server.Mode)

	storage, err := service.NewFileStorage(&cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("初始化附件存储失败: %w", err)
	}

	r := gin.Default()

	// CORS 中间件
	r.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:    []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:   []string{"Content-Length", "Content-Disposition"},
		MaxAge:          12 * time.Hour,
	}))

	// 健康检查
	r.GET("/health", api.Health)

	// Swagger 文档
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	v1 := r.Group("/api/v1")

	authHandler := api.NewAuthHandler(cfg)
	if cfg.Auth.Enabled {
		v1.POST("/auth/login", middleware.LoginRateLimit(loginMaxAttempts, loginWindow), authHandler.Login)
	}

	// 未启用认证时所有接口公开
	authorized := v1.Group("")
	if cfg.Auth.Enabled {
		authorized.Use(middleware.JWTAuth())
		authorized.GET("/auth/profile", authHandler.Profile)
	}

	categoryHandler := api.NewCategoryHandler()
	categories := authorized.Group("/categories")
	{
		categories.GET("", categoryHandler.List)
		categories.POST("", categoryHandler.Create)
		categories.GET("/:id", categoryHandler.Get)
		categories.PUT("/:id", categoryHandler.Update)
		categories.DELETE("/:id", categoryHandler.Delete)
	}

	expenseHandler := api.NewExpenseHandler(storage)
	attachmentHandler := api.NewAttachmentHandler(storage)
	expenses := authorized.Group("/expenses")
	{
		expenses.GET("", expenseHandler.List)
		expenses.POST("", expenseHandler.Create)
		expenses.GET("/:id", expenseHandler.Get)
		expenses.PUT("/:id", expenseHandler.Update)
		expenses.DELETE("/:id", expenseHandler.Delete)

		// 附件
		expenses.GET("/:id/attachments", attachmentHandler.List)
		expenses.POST("/:id/attachments", attachmentHandler.Upload)
	}
	authorized.GET("/attachments/:id/download", attachmentHandler.Download)
	authorized.DELETE("/attachments/:id", attachmentHandler.Delete)

	budgetHandler := api.NewBudgetHandler(cfg)
	budgets := authorized.Group("/budgets")
	{
		budgets.GET("", budgetHandler.List)
		budgets.POST("", budgetHandler.Create)
		budgets.POST("/alerts", budgetHandler.SendAlerts)
		budgets.GET("/:id", budgetHandler.Get)
		budgets.PUT("/:id", budgetHandler.Update)
		budgets.DELETE("/:id", budgetHandler.Delete)
	}

	recurringHandler := api.NewRecurringHandler()
	recurring := authorized.Group("/recurring-expenses")
	{
		recurring.GET("", recurringHandler.List)
		recurring.POST("", recurringHandler.Create)
		recurring.GET("/:id", recurringHandler.Get)
		recurring.PUT("/:id", recurringHandler.Update)
		recurring.DELETE("/:id", recurringHandler.Delete)
		recurring.POST("/:id/generate", recurringHandler.Generate)
	}

	dashboardHandler := api.NewDashboardHandler()
	authorized.GET("/dashboard", dashboardHandler.Get)
	authorized.GET("/dashboard/category-breakdown", dashboardHandler.CategoryBreakdown)

	reportHandler := api.NewReportHandler(cfg)
	authorized.GET("/reports/monthly", reportHandler.MonthlyPDF)
	authorized.GET("/reports/monthly/excel", reportHandler.MonthlyExcel)

	exportHandler := api.NewExportHandler()
	authorized.GET("/export/csv", exportHandler.ExportCSV)

	return r, nil
}
