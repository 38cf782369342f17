package middleware

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
)

// RequestLogger 用 slog 记录每个请求
func RequestLogger(logger *slog.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = slog.Default()
	}
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		c.Next()

		status := c.Writer.Status()
		attrs := []any{
			"method", c.Request.Method,
			"path", path,
			"status", status,
			"latency", time.Since(start),
			"ip", c.ClientIP(),
		}
		if ownerID := GetCurrentOwnerID(c); ownerID != "" {
			attrs = append(attrs, "owner_id", ownerID)
		}
		if len(c.Errors) > 0 {
			attrs = append(attrs, "errors", c.Errors.String())
		}

		switch {
		case status >= 500:
			logger.ErrorContext(c.Request.Context(), "请求失败", attrs...)
		case status >= 400:
			logger.WarnContext(c.Request.Context(), "请求异常", attrs...)
		default:
			logger.InfoContext(c.Request.Context(), "请求完成", attrs...)
		}
	}
}
