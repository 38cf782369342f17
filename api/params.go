package api

import (
	"time"

	"github.com/gin-gonic/gin"
)

const dateLayout = "2006-01-02"

// parseDate 解析 YYYY-MM-DD，空串返回 nil
func parseDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// requiredDateRange 读取必填的 start_date / end_date
func requiredDateRange(c *gin.Context) (time.Time, time.Time, bool) {
	startStr, endStr := c.Query("start_date"), c.Query("end_date")
	if startStr == "" || endStr == "" {
		BadRequest(c, "请提供开始日期和结束日期")
		return time.Time{}, time.Time{}, false
	}
	start, err := time.Parse(dateLayout, startStr)
	if err != nil {
		BadRequest(c, "开始日期格式错误，应为: 2006-01-02")
		return time.Time{}, time.Time{}, false
	}
	end, err := time.Parse(dateLayout, endStr)
	if err != nil {
		BadRequest(c, "结束日期格式错误，应为: 2006-01-02")
		return time.Time{}, time.Time{}, false
	}
	if end.Before(start) {
		BadRequest(c, "结束日期不能早于开始日期")
		return time.Time{}, time.Time{}, false
	}
	return start, end, true
}
