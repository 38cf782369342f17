package router

import (
	"log/slog"
	"net/http"

	"spendwise/api"
	"spendwise/config"
	_ "spendwise/docs"
	"spendwise/middleware"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Handlers 路由依赖的处理器
type Handlers struct {
	Categories     *api.CategoryHandler
	PaymentMethods *api.PaymentMethodHandler
	Expenses       *api.ExpenseHandler
	Summary        *api.SummaryHandler
	Ingest         *api.IngestHandler
	Export         *api.ExportHandler
}

// SetupRouter 设置路由
func SetupRouter(cfg *config.Config, h Handlers, logger *slog.Logger) *gin.Engine {
	// 设置运行模式
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(logger))

	// CORS 中间件
	r.Use(CORSMiddleware())

	// 本地存储的附件
	if cfg.Storage.Driver == "local" {
		r.Static("/uploads", cfg.Storage.LocalDir)
	}

	// Swagger 文档
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// API v1 路由组，全部需要 JWT
	v1 := r.Group("/api/v1")
	v1.Use(middleware.JWTAuth())
	{
		categories := v1.Group("/categories")
		{
			categories.GET("", h.Categories.List)
			categories.POST("", h.Categories.Create)
			categories.GET("/suggest", h.Categories.Suggest)
			categories.PUT("/reorder", h.Categories.Reorder)
			categories.GET("/:id", h.Categories.Get)
			categories.PUT("/:id", h.Categories.Update)
			categories.DELETE("/:id", h.Categories.Delete)
		}

		methods := v1.Group("/payment-methods")
		{
			methods.GET("", h.PaymentMethods.List)
			methods.POST("", h.PaymentMethods.Create)
			methods.GET("/stats", h.PaymentMethods.Stats)
			methods.GET("/:id", h.PaymentMethods.Get)
			methods.PUT("/:id", h.PaymentMethods.Update)
			methods.DELETE("/:id", h.PaymentMethods.Delete)
			methods.PUT("/:id/default", h.PaymentMethods.SetDefault)
		}

		// 识别接口调用外部模型，按用户限流
		ingestLimit := middleware.RateLimit(cfg.RateLimit.IngestMax, cfg.RateLimit.IngestWindow)

		expenses := v1.Group("/expenses")
		{
			expenses.POST("", h.Expenses.Create)
			expenses.GET("", h.Expenses.List)
			expenses.GET("/summary", h.Summary.Get)
			expenses.POST("/ocr", ingestLimit, h.Ingest.OCR)
			expenses.POST("/voice", ingestLimit, h.Ingest.Voice)
			expenses.GET("/:id", h.Expenses.Get)
			expenses.PUT("/:id", h.Expenses.Update)
			expenses.DELETE("/:id", h.Expenses.Delete)
		}

		// 导出相关
		export := v1.Group("/export")
		{
			export.GET("/csv", h.Export.ExportCSV)
			export.GET("/excel", h.Export.ExportExcel)
		}
	}

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
		})
	})

	return r
}

// CORSMiddleware CORS 跨域中间件
func CORSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
