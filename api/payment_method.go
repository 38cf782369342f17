package api

import (
	"strconv"

	"spendwise/middleware"
	"spendwise/models"
	"spendwise/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// PaymentMethodHandler 支付方式
type PaymentMethodHandler struct {
	methods *service.PaymentMethodService
}

func NewPaymentMethodHandler(methods *service.PaymentMethodService) *PaymentMethodHandler {
	return &PaymentMethodHandler{methods: methods}
}

// CreatePaymentMethodRequest 创建支付方式请求
type CreatePaymentMethodRequest struct {
	Name           string           `json:"name" binding:"required,max=50" example:"招商银行信用卡"`
	Type           string           `json:"type" binding:"required" example:"credit_card"`
	LastFourDigits string           `json:"last_four_digits" binding:"omitempty,len=4,numeric" example:"4242"`
	BankName       string           `json:"bank_name" binding:"max=100"`
	Icon           string           `json:"icon" binding:"max=50"`
	Color          string           `json:"color" binding:"max=20"`
	Balance        decimal.Decimal  `json:"balance" swaggertype:"number" example:"1000"`
	CreditLimit    *decimal.Decimal `json:"credit_limit" swaggertype:"number" example:"5000"`
	ExpirationDate string           `json:"expiration_date" example:"2027-12-31"`
	IsDefault      bool             `json:"is_default"`
}

// UpdatePaymentMethodRequest 更新支付方式请求，余额不可修改
type UpdatePaymentMethodRequest struct {
	Name           *string          `json:"name" binding:"omitempty,max=50"`
	Type           *string          `json:"type"`
	LastFourDigits *string          `json:"last_four_digits" binding:"omitempty,len=4,numeric"`
	BankName       *string          `json:"bank_name" binding:"omitempty,max=100"`
	Icon           *string          `json:"icon" binding:"omitempty,max=50"`
	Color          *string          `json:"color" binding:"omitempty,max=20"`
	CreditLimit    *decimal.Decimal `json:"credit_limit" swaggertype:"number"`
	ExpirationDate *string          `json:"expiration_date" example:"2027-12-31"`
	IsActive       *bool            `json:"is_active"`
	IsDefault      *bool            `json:"is_default"`
}

// List 支付方式列表
// @Summary 获取支付方式列表
// @Tags 支付方式
// @Produce json
// @Security BearerAuth
// @Param include_inactive query bool false "是否包含停用的支付方式"
// @Success 200 {object} Response{data=[]models.PaymentMethod} "获取成功"
// @Router /api/v1/payment-methods [get]
func (h *PaymentMethodHandler) List(c *gin.Context) {
	includeInactive, _ := strconv.ParseBool(c.DefaultQuery("include_inactive", "false"))
	list, err := h.methods.List(c.Request.Context(), middleware.GetCurrentOwnerID(c), includeInactive)
	if err != nil {
		handleServiceError(c, err, "查询支付方式失败")
		return
	}
	Success(c, list)
}

// Stats 支付方式及消费统计
// @Summary 获取支付方式统计
// @Description 每个支付方式的消费笔数、消费总额，信用卡附带可用额度
// @Tags 支付方式
// @Produce json
// @Security BearerAuth
// @Success 200 {object} Response{data=[]models.PaymentMethodWithStats} "获取成功"
// @Router /api/v1/payment-methods/stats [get]
func (h *PaymentMethodHandler) Stats(c *gin.Context) {
	stats, err := h.methods.FindAllWithStats(c.Request.Context(), middleware.GetCurrentOwnerID(c))
	if err != nil {
		handleServiceError(c, err, "查询统计失败")
		return
	}
	Success(c, stats)
}

// Get 获取支付方式
// @Summary 获取支付方式
// @Tags 支付方式
// @Produce json
// @Security BearerAuth
// @Param id path string true "支付方式ID"
// @Success 200 {object} Response{data=models.PaymentMethod} "获取成功"
// @Failure 404 {object} Response "支付方式不存在"
// @Router /api/v1/payment-methods/{id} [get]
func (h *PaymentMethodHandler) Get(c *gin.Context) {
	method, err := h.methods.Get(c.Request.Context(), middleware.GetCurrentOwnerID(c), c.Param("id"))
	if err != nil {
		handleServiceError(c, err, "查询支付方式失败")
		return
	}
	Success(c, method)
}

// Create 创建支付方式
// @Summary 创建支付方式
// @Tags 支付方式
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreatePaymentMethodRequest true "支付方式信息"
// @Success 201 {object} Response{data=models.PaymentMethod} "创建成功"
// @Failure 400 {object} Response "参数错误"
// @Failure 409 {object} Response "名称已存在"
// @Router /api/v1/payment-methods [post]
func (h *PaymentMethodHandler) Create(c *gin.Context) {
	var req CreatePaymentMethodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "参数错误"))
		return
	}
	expiration, err := parseDate(req.ExpirationDate)
	if err != nil {
		BadRequest(c, "有效期格式错误，应为: 2006-01-02")
		return
	}

	method, err := h.methods.Create(c.Request.Context(), middleware.GetCurrentOwnerID(c), service.PaymentMethodInput{
		Name:           req.Name,
		Type:           models.PaymentMethodType(req.Type),
		LastFourDigits: req.LastFourDigits,
		BankName:       req.BankName,
		Icon:           req.Icon,
		Color:          req.Color,
		Balance:        req.Balance,
		CreditLimit:    req.CreditLimit,
		ExpirationDate: expiration,
		IsDefault:      req.IsDefault,
	})
	if err != nil {
		handleServiceError(c, err, "创建支付方式失败")
		return
	}
	Created(c, "创建成功", method)
}

// Update 更新支付方式
// @Summary 更新支付方式
// @Description 余额只随消费记录变化，不能直接修改
// @Tags 支付方式
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "支付方式ID"
// @Param request body UpdatePaymentMethodRequest true "支付方式信息"
// @Success 200 {object} Response{data=models.PaymentMethod} "更新成功"
// @Failure 400 {object} Response "参数错误"
// @Failure 404 {object} Response "支付方式不存在"
// @Router /api/v1/payment-methods/{id} [put]
func (h *PaymentMethodHandler) Update(c *gin.Context) {
	var req UpdatePaymentMethodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "参数错误"))
		return
	}

	in := service.PaymentMethodUpdate{
		Name:           req.Name,
		LastFourDigits: req.LastFourDigits,
		BankName:       req.BankName,
		Icon:           req.Icon,
		Color:          req.Color,
		CreditLimit:    req.CreditLimit,
		IsActive:       req.IsActive,
		IsDefault:      req.IsDefault,
	}
	if req.Type != nil {
		t := models.PaymentMethodType(*req.Type)
		in.Type = &t
	}
	if req.ExpirationDate != nil {
		expiration, err := parseDate(*req.ExpirationDate)
		if err != nil || expiration == nil {
			BadRequest(c, "有效期格式错误，应为: 2006-01-02")
			return
		}
		in.ExpirationDate = expiration
	}

	method, err := h.methods.Update(c.Request.Context(), middleware.GetCurrentOwnerID(c), c.Param("id"), in)
	if err != nil {
		handleServiceError(c, err, "更新支付方式失败")
		return
	}
	SuccessWithMessage(c, "更新成功", method)
}

// Delete 删除支付方式
// @Summary 删除支付方式
// @Description 仍有消费记录的支付方式不可删除
// @Tags 支付方式
// @Produce json
// @Security BearerAuth
// @Param id path string true "支付方式ID"
// @Success 200 {object} Response "删除成功"
// @Failure 400 {object} Response "不可删除"
// @Failure 404 {object} Response "支付方式不存在"
// @Router /api/v1/payment-methods/{id} [delete]
func (h *PaymentMethodHandler) Delete(c *gin.Context) {
	if err := h.methods.Delete(c.Request.Context(), middleware.GetCurrentOwnerID(c), c.Param("id")); err != nil {
		handleServiceError(c, err, "删除支付方式失败")
		return
	}
	SuccessWithMessage(c, "删除成功", nil)
}

// SetDefault 设为默认支付方式
// @Summary 设为默认支付方式
// @Tags 支付方式
// @Produce json
// @Security BearerAuth
// @Param id path string true "支付方式ID"
// @Success 200 {object} Response{data=models.PaymentMethod} "设置成功"
// @Failure 404 {object} Response "支付方式不存在"
// @Router /api/v1/payment-methods/{id}/default [put]
func (h *PaymentMethodHandler) SetDefault(c *gin.Context) {
	method, err := h.methods.SetDefault(c.Request.Context(), middleware.GetCurrentOwnerID(c), c.Param("id"))
	if err != nil {
		handleServiceError(c, err, "设置默认支付方式失败")
		return
	}
	SuccessWithMessage(c, "设置成功", method)
}
