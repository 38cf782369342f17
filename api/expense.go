package api

import (
	"spendwise/middleware"
	"spendwise/models"
	"spendwise/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// ExpenseHandler 消费记录处理器
type ExpenseHandler struct {
	expenses *service.ExpenseService
}

// NewExpenseHandler 创建消费记录处理器
func NewExpenseHandler(expenses *service.ExpenseService) *ExpenseHandler {
	return &ExpenseHandler{expenses: expenses}
}

// CreateExpenseRequest 创建消费记录请求
type CreateExpenseRequest struct {
	Amount          decimal.Decimal `json:"amount" swaggertype:"number" example:"99.99"`
	Description     string          `json:"description" binding:"max=255" example:"午餐"`
	Notes           string          `json:"notes" example:"和同事一起"`
	Date            string          `json:"date" example:"2024-01-15"`
	CategoryID      string          `json:"category_id" binding:"required"`
	PaymentMethodID string          `json:"payment_method_id" binding:"required"`
}

// UpdateExpenseRequest 更新消费记录请求，未传字段不修改
type UpdateExpenseRequest struct {
	Amount          *decimal.Decimal `json:"amount" swaggertype:"number" example:"99.99"`
	Description     *string          `json:"description" binding:"omitempty,max=255" example:"午餐"`
	Notes           *string          `json:"notes"`
	Date            *string          `json:"date" example:"2024-01-15"`
	CategoryID      *string          `json:"category_id"`
	PaymentMethodID *string          `json:"payment_method_id"`
}

// ExpenseListRequest 消费记录列表请求
type ExpenseListRequest struct {
	Page            int    `form:"page" example:"1"`
	PageSize        int    `form:"page_size" example:"10"`
	StartDate       string `form:"start_date" example:"2024-01-01"`
	EndDate         string `form:"end_date" example:"2024-12-31"`
	CategoryID      string `form:"category_id"`
	PaymentMethodID string `form:"payment_method_id"`
	SortBy          string `form:"sort_by" example:"date"`
	SortOrder       string `form:"sort_order" example:"desc"`
}

// Create 创建消费记录
// @Summary 创建消费记录
// @Description 创建一条手动录入的消费记录，并从支付方式余额中扣除金额
// @Tags 消费记录
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateExpenseRequest true "消费记录信息"
// @Success 201 {object} Response{data=models.Expense} "创建成功"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 401 {object} Response "未授权"
// @Failure 404 {object} Response "类别或支付方式不存在"
// @Router /api/v1/expenses [post]
func (h *ExpenseHandler) Create(c *gin.Context) {
	var req CreateExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "参数错误"))
		return
	}

	date, err := parseDate(req.Date)
	if err != nil {
		BadRequest(c, "日期格式错误，应为: 2006-01-02")
		return
	}

	expense, err := h.expenses.Create(c.Request.Context(), middleware.GetCurrentOwnerID(c), service.ExpenseInput{
		Amount:          req.Amount,
		Description:     req.Description,
		Notes:           req.Notes,
		Date:            date,
		CategoryID:      req.CategoryID,
		PaymentMethodID: req.PaymentMethodID,
		Source:          models.SourceManual,
	})
	if err != nil {
		handleServiceError(c, err, "创建消费记录失败")
		return
	}
	Created(c, "创建成功", expense)
}

// List 获取消费记录列表
// @Summary 获取消费记录列表
// @Description 获取当前用户的消费记录列表，支持分页、日期区间、类别、支付方式筛选和排序
// @Tags 消费记录
// @Produce json
// @Security BearerAuth
// @Param page query int false "页码" default(1)
// @Param page_size query int false "每页数量，最大 100" default(10)
// @Param start_date query string false "开始日期 (2024-01-01)"
// @Param end_date query string false "结束日期 (2024-12-31)，包含当天"
// @Param category_id query string false "类别ID"
// @Param payment_method_id query string false "支付方式ID"
// @Param sort_by query string false "排序字段 date / amount / created_at" default(date)
// @Param sort_order query string false "排序方向 asc / desc" default(desc)
// @Success 200 {object} Response{data=PageResponse{list=[]models.Expense}} "获取成功"
// @Failure 401 {object} Response "未授权"
// @Router /api/v1/expenses [get]
func (h *ExpenseHandler) List(c *gin.Context) {
	var req ExpenseListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "参数错误"))
		return
	}

	start, err := parseDate(req.StartDate)
	if err != nil {
		BadRequest(c, "开始日期格式错误，应为: 2006-01-02")
		return
	}
	end, err := parseDate(req.EndDate)
	if err != nil {
		BadRequest(c, "结束日期格式错误，应为: 2006-01-02")
		return
	}

	page, err := h.expenses.List(c.Request.Context(), middleware.GetCurrentOwnerID(c), service.ExpenseFilter{
		StartDate:       start,
		EndDate:         end,
		CategoryID:      req.CategoryID,
		PaymentMethodID: req.PaymentMethodID,
		Page:            req.Page,
		PageSize:        req.PageSize,
		SortBy:          req.SortBy,
		SortOrder:       req.SortOrder,
	})
	if err != nil {
		handleServiceError(c, err, "查询失败")
		return
	}

	Success(c, PageResponse{
		Total:      page.Total,
		Page:       page.Page,
		PageSize:   page.PageSize,
		TotalPages: page.TotalPages,
		List:       page.List,
	})
}

// Get 获取单条消费记录
// @Summary 获取单条消费记录
// @Tags 消费记录
// @Produce json
// @Security BearerAuth
// @Param id path string true "消费记录ID"
// @Success 200 {object} Response{data=models.Expense} "获取成功"
// @Failure 401 {object} Response "未授权"
// @Failure 404 {object} Response "记录不存在"
// @Router /api/v1/expenses/{id} [get]
func (h *ExpenseHandler) Get(c *gin.Context) {
	expense, err := h.expenses.Get(c.Request.Context(), middleware.GetCurrentOwnerID(c), c.Param("id"))
	if err != nil {
		handleServiceError(c, err, "查询失败")
		return
	}
	Success(c, expense)
}

// Update 更新消费记录
// @Summary 更新消费记录
// @Description 修改金额或支付方式时，原支付方式退回旧金额，新支付方式扣除新金额
// @Tags 消费记录
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "消费记录ID"
// @Param request body UpdateExpenseRequest true "消费记录信息"
// @Success 200 {object} Response{data=models.Expense} "更新成功"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 401 {object} Response "未授权"
// @Failure 404 {object} Response "记录不存在"
// @Router /api/v1/expenses/{id} [put]
func (h *ExpenseHandler) Update(c *gin.Context) {
	var req UpdateExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "参数错误"))
		return
	}

	in := service.ExpenseUpdate{
		Amount:          req.Amount,
		Description:     req.Description,
		Notes:           req.Notes,
		CategoryID:      req.CategoryID,
		PaymentMethodID: req.PaymentMethodID,
	}
	if req.Date != nil {
		date, err := parseDate(*req.Date)
		if err != nil || date == nil {
			BadRequest(c, "日期格式错误，应为: 2006-01-02")
			return
		}
		in.Date = date
	}

	expense, err := h.expenses.Update(c.Request.Context(), middleware.GetCurrentOwnerID(c), c.Param("id"), in)
	if err != nil {
		handleServiceError(c, err, "更新失败")
		return
	}
	SuccessWithMessage(c, "更新成功", expense)
}

// Delete 删除消费记录
// @Summary 删除消费记录
// @Description 删除记录并把金额退回支付方式，关联的小票和录音随后清理
// @Tags 消费记录
// @Produce json
// @Security BearerAuth
// @Param id path string true "消费记录ID"
// @Success 200 {object} Response "删除成功"
// @Failure 401 {object} Response "未授权"
// @Failure 404 {object} Response "记录不存在"
// @Router /api/v1/expenses/{id} [delete]
func (h *ExpenseHandler) Delete(c *gin.Context) {
	if err := h.expenses.Delete(c.Request.Context(), middleware.GetCurrentOwnerID(c), c.Param("id")); err != nil {
		handleServiceError(c, err, "删除失败")
		return
	}
	SuccessWithMessage(c, "删除成功", nil)
}
