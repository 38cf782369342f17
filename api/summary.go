package api

import (
	"spendwise/middleware"
	"spendwise/service"

	"github.com/gin-gonic/gin"
)

// SummaryHandler 消费汇总
type SummaryHandler struct {
	summary *service.SummaryService
}

func NewSummaryHandler(summary *service.SummaryService) *SummaryHandler {
	return &SummaryHandler{summary: summary}
}

// Get 获取消费汇总
// @Summary 获取消费汇总
// @Description 总笔数、总额、平均值，本月与上月合计及环比，按类别和支付方式的占比。结果会缓存，新增、修改、删除消费记录后失效。
// @Tags 统计
// @Produce json
// @Security BearerAuth
// @Success 200 {object} Response{data=service.Summary} "获取成功"
// @Failure 401 {object} Response "未授权"
// @Router /api/v1/expenses/summary [get]
func (h *SummaryHandler) Get(c *gin.Context) {
	summary, err := h.summary.GetSummary(c.Request.Context(), middleware.GetCurrentOwnerID(c))
	if err != nil {
		handleServiceError(c, err, "获取汇总失败")
		return
	}
	Success(c, summary)
}
