package api

import (
	"spendwise/middleware"
	"spendwise/service"

	"github.com/gin-gonic/gin"
)

// CategoryHandler 消费类别
type CategoryHandler struct {
	categories *service.CategoryService
	expenses   *service.ExpenseService
}

func NewCategoryHandler(categories *service.CategoryService, expenses *service.ExpenseService) *CategoryHandler {
	return &CategoryHandler{categories: categories, expenses: expenses}
}

// ReorderRequest 类别排序请求
type ReorderRequest struct {
	IDs []string `json:"ids" binding:"required"`
}

// ReorderResponse 排序结果
type ReorderResponse struct {
	Reordered int `json:"reordered"`
}

// List 列出可见类别
// @Summary 获取消费类别列表
// @Description 返回当前用户自己的类别和系统类别，按排序值、名称排序
// @Tags 消费类别
// @Produce json
// @Security BearerAuth
// @Success 200 {object} Response{data=[]models.Category} "获取成功"
// @Router /api/v1/categories [get]
func (h *CategoryHandler) List(c *gin.Context) {
	list, err := h.categories.List(c.Request.Context(), middleware.GetCurrentOwnerID(c))
	if err != nil {
		handleServiceError(c, err, "查询类别失败")
		return
	}
	Success(c, list)
}

// Get 获取单个类别
// @Summary 获取消费类别
// @Tags 消费类别
// @Produce json
// @Security BearerAuth
// @Param id path string true "类别ID"
// @Success 200 {object} Response{data=models.Category} "获取成功"
// @Failure 404 {object} Response "类别不存在"
// @Router /api/v1/categories/{id} [get]
func (h *CategoryHandler) Get(c *gin.Context) {
	category, err := h.categories.Get(c.Request.Context(), middleware.GetCurrentOwnerID(c), c.Param("id"))
	if err != nil {
		handleServiceError(c, err, "查询类别失败")
		return
	}
	Success(c, category)
}

// Create 创建类别
// @Summary 创建消费类别
// @Tags 消费类别
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body service.CategoryInput true "类别信息"
// @Success 201 {object} Response{data=models.Category} "创建成功"
// @Failure 400 {object} Response "参数错误"
// @Failure 409 {object} Response "类别名称已存在"
// @Router /api/v1/categories [post]
func (h *CategoryHandler) Create(c *gin.Context) {
	var req service.CategoryInput
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "参数错误"))
		return
	}

	category, err := h.categories.Create(c.Request.Context(), middleware.GetCurrentOwnerID(c), req)
	if err != nil {
		handleServiceError(c, err, "创建类别失败")
		return
	}
	Created(c, "创建成功", category)
}

// Update 更新类别
// @Summary 更新消费类别
// @Description 系统类别不可修改
// @Tags 消费类别
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "类别ID"
// @Param request body service.CategoryUpdate true "类别信息"
// @Success 200 {object} Response{data=models.Category} "更新成功"
// @Failure 400 {object} Response "参数错误或系统类别"
// @Failure 404 {object} Response "类别不存在"
// @Failure 409 {object} Response "类别名称已存在"
// @Router /api/v1/categories/{id} [put]
func (h *CategoryHandler) Update(c *gin.Context) {
	var req service.CategoryUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "参数错误"))
		return
	}

	category, err := h.categories.Update(c.Request.Context(), middleware.GetCurrentOwnerID(c), c.Param("id"), req)
	if err != nil {
		handleServiceError(c, err, "更新类别失败")
		return
	}
	SuccessWithMessage(c, "更新成功", category)
}

// Delete 删除类别
// @Summary 删除消费类别
// @Description 系统类别或仍有消费记录的类别不可删除
// @Tags 消费类别
// @Produce json
// @Security BearerAuth
// @Param id path string true "类别ID"
// @Success 200 {object} Response "删除成功"
// @Failure 400 {object} Response "不可删除"
// @Failure 404 {object} Response "类别不存在"
// @Router /api/v1/categories/{id} [delete]
func (h *CategoryHandler) Delete(c *gin.Context) {
	if err := h.categories.Delete(c.Request.Context(), middleware.GetCurrentOwnerID(c), c.Param("id")); err != nil {
		handleServiceError(c, err, "删除类别失败")
		return
	}
	SuccessWithMessage(c, "删除成功", nil)
}

// Reorder 调整类别顺序
// @Summary 调整消费类别顺序
// @Description 按 ids 顺序设置排序值，不属于当前用户的 id 会被忽略
// @Tags 消费类别
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body ReorderRequest true "类别ID列表"
// @Success 200 {object} Response{data=ReorderResponse} "排序成功"
// @Router /api/v1/categories/reorder [put]
func (h *CategoryHandler) Reorder(c *gin.Context) {
	var req ReorderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "参数错误"))
		return
	}

	n, err := h.categories.Reorder(c.Request.Context(), middleware.GetCurrentOwnerID(c), req.IDs)
	if err != nil {
		handleServiceError(c, err, "排序失败")
		return
	}
	SuccessWithMessage(c, "排序成功", ReorderResponse{Reordered: n})
}

// Suggest 根据提示推荐类别
// @Summary 推荐消费类别
// @Tags 消费类别
// @Produce json
// @Security BearerAuth
// @Param hint query string false "类别提示，如 restaurant / taxi"
// @Success 200 {object} Response{data=models.Category} "推荐成功"
// @Router /api/v1/categories/suggest [get]
func (h *CategoryHandler) Suggest(c *gin.Context) {
	category, err := h.expenses.SuggestCategory(c.Request.Context(), middleware.GetCurrentOwnerID(c), c.Query("hint"))
	if err != nil {
		handleServiceError(c, err, "推荐类别失败")
		return
	}
	Success(c, category)
}
