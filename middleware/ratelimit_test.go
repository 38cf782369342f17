package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestRateLimit(t *testing.T) {
	gin.SetMode(gin.TestMode)

	// 短窗口 200ms，最多 2 次
	router := gin.New()
	router.Use(RateLimit(2, 200*time.Millisecond))
	router.POST("/expenses/ocr", func(c *gin.Context) {
		c.String(200, "ok")
	})

	// 同一 IP 连续 3 次，第 3 次应返回 429
	doReq := func(ip string) *httptest.ResponseRecorder {
		req := httptest.NewRequest("POST", "/expenses/ocr", nil)
		req.Header.Set("X-Real-IP", ip)
		req.RemoteAddr = ip + ":12345"
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	w1 := doReq("192.168.1.1")
	w2 := doReq("192.168.1.1")
	w3 := doReq("192.168.1.1")

	assert.Equal(t, 200, w1.Code)
	assert.Equal(t, 200, w2.Code)
	assert.Equal(t, http.StatusTooManyRequests, w3.Code)
	assert.Contains(t, w3.Body.String(), "频繁")
	assert.NotEmpty(t, w3.Header().Get("Retry-After"))

	// 不同 IP 互不影响
	w4 := doReq("192.168.1.2")
	w5 := doReq("192.168.1.2")
	assert.Equal(t, 200, w4.Code)
	assert.Equal(t, 200, w5.Code)

	// 窗口过后恢复
	time.Sleep(250 * time.Millisecond)
	w6 := doReq("192.168.1.1")
	assert.Equal(t, 200, w6.Code)
}

func TestRateLimit_PerOwner(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(func(c *gin.Context) {
		if owner := c.GetHeader("X-Owner"); owner != "" {
			SetOwnerID(c, owner)
		}
		c.Next()
	})
	router.Use(RateLimit(1, time.Minute))
	router.POST("/expenses/voice", func(c *gin.Context) {
		c.String(200, "ok")
	})

	doReq := func(owner, ip string) int {
		req := httptest.NewRequest("POST", "/expenses/voice", nil)
		req.Header.Set("X-Owner", owner)
		req.RemoteAddr = ip + ":12345"
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w.Code
	}

	// 同一 IP 下不同用户各自计数
	assert.Equal(t, 200, doReq("owner-1", "10.0.0.1"))
	assert.Equal(t, 200, doReq("owner-2", "10.0.0.1"))

	// 同一用户换 IP 仍然共享额度
	assert.Equal(t, http.StatusTooManyRequests, doReq("owner-1", "10.0.0.2"))

	// 未认证请求按 IP 计数
	assert.Equal(t, 200, doReq("", "10.0.0.3"))
	assert.Equal(t, http.StatusTooManyRequests, doReq("", "10.0.0.3"))
}
