package api

import (
	"errors"
	"log/slog"
	"net/http"

	"spendwise/service"

	"github.com/gin-gonic/gin"
)

// Response 通用响应结构
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// PageResponse 分页响应结构
type PageResponse struct {
	Total      int64       `json:"total"`
	Page       int         `json:"page"`
	PageSize   int         `json:"page_size"`
	TotalPages int         `json:"total_pages"`
	List       interface{} `json:"list"`
}

// Success 成功响应
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    200,
		Message: "success",
		Data:    data,
	})
}

// SuccessWithMessage 带消息的成功响应
func SuccessWithMessage(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    200,
		Message: message,
		Data:    data,
	})
}

// Created 201 响应
func Created(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusCreated, Response{
		Code:    http.StatusCreated,
		Message: message,
		Data:    data,
	})
}

// Error 错误响应
func Error(c *gin.Context, code int, message string) {
	c.JSON(code, Response{
		Code:    code,
		Message: message,
	})
}

// BadRequest 400 错误响应
func BadRequest(c *gin.Context, message string) {
	Error(c, http.StatusBadRequest, message)
}

// Unauthorized 401 错误响应
func Unauthorized(c *gin.Context, message string) {
	Error(c, http.StatusUnauthorized, message)
}

// InternalError 500 错误响应
func InternalError(c *gin.Context, message string) {
	Error(c, http.StatusInternalServerError, message)
}

// NotFound 404 错误响应
func NotFound(c *gin.Context, message string) {
	Error(c, http.StatusNotFound, message)
}

// Conflict 409 错误响应
func Conflict(c *gin.Context, message string) {
	Error(c, http.StatusConflict, message)
}

// handleServiceError 把业务错误映射为 HTTP 状态码，未知错误按 500 处理
func handleServiceError(c *gin.Context, err error, fallback string) {
	message, kind := fallback, err
	var svcErr *service.Error
	if errors.As(err, &svcErr) {
		// 以最外层的业务错误为准
		message, kind = svcErr.Message, svcErr.Kind
	}

	switch {
	case errors.Is(kind, service.ErrNotFound):
		NotFound(c, message)
	case errors.Is(kind, service.ErrConflict):
		Conflict(c, message)
	case errors.Is(kind, service.ErrInvalidOperation):
		BadRequest(c, message)
	case errors.Is(kind, service.ErrUpstream):
		slog.WarnContext(c.Request.Context(), "外部服务失败", "path", c.FullPath(), "error", err)
		Error(c, http.StatusBadGateway, message)
	default:
		_ = c.Error(err)
		InternalError(c, SafeErrorMessage(err, fallback))
	}
}
