package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"spendwise/cache"
	"spendwise/ingest"
	"spendwise/middleware"
	"spendwise/models"
	"spendwise/service"
	"spendwise/storage"
	"spendwise/testutil"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const (
	ownerA = "owner-a"
	ownerB = "owner-b"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func setOwnerIDMiddleware(ownerID string) gin.HandlerFunc {
	return func(c *gin.Context) {
		middleware.SetOwnerID(c, ownerID)
		c.Next()
	}
}

// fakeExtractor 返回固定草稿或错误
type fakeExtractor struct {
	draft *models.Draft
	err   error
	calls int
	mime  string
}

func (f *fakeExtractor) ExtractReceipt(_ context.Context, _ []byte, mimeType string) (*models.Draft, error) {
	f.calls++
	f.mime = mimeType
	return f.draft, f.err
}

func (f *fakeExtractor) ExtractVoice(_ context.Context, _ []byte, mimeType string) (*models.Draft, error) {
	f.calls++
	f.mime = mimeType
	return f.draft, f.err
}

var (
	_ ingest.ReceiptExtractor = (*fakeExtractor)(nil)
	_ ingest.VoiceExtractor   = (*fakeExtractor)(nil)
)

type handlerFixture struct {
	db         *gorm.DB
	storage    *storage.LocalStorage
	extractor  *fakeExtractor
	categories *service.CategoryService
	methods    *service.PaymentMethodService
	summary    *service.SummaryService
	expenses   *service.ExpenseService
}

func newHandlerFixture(t *testing.T) *handlerFixture {
	t.Helper()
	db := testutil.NewDB(t)
	c := cache.NewMemoryCache(100)
	st, err := storage.NewLocalStorage(t.TempDir(), "http://files.test")
	require.NoError(t, err)

	fx := &handlerFixture{
		db:         db,
		storage:    st,
		extractor:  &fakeExtractor{},
		categories: service.NewCategoryService(db),
		methods:    service.NewPaymentMethodService(db, c),
		summary:    service.NewSummaryService(db, c, time.Minute),
	}
	fx.expenses = service.NewExpenseService(db, fx.categories, fx.methods, fx.summary, service.NewStorageCleaner(st))

	_, err = fx.categories.SeedSystemDefaults(context.Background())
	require.NoError(t, err)
	return fx
}

// router 与正式路由一致的 /api/v1 路由，用指定用户身份访问
func (fx *handlerFixture) router(ownerID string) *gin.Engine {
	r := gin.New()
	r.Use(setOwnerIDMiddleware(ownerID))
	v1 := r.Group("/api/v1")

	categories := NewCategoryHandler(fx.categories, fx.expenses)
	v1.GET("/categories", categories.List)
	v1.POST("/categories", categories.Create)
	v1.GET("/categories/suggest", categories.Suggest)
	v1.PUT("/categories/reorder", categories.Reorder)
	v1.GET("/categories/:id", categories.Get)
	v1.PUT("/categories/:id", categories.Update)
	v1.DELETE("/categories/:id", categories.Delete)

	methods := NewPaymentMethodHandler(fx.methods)
	v1.GET("/payment-methods", methods.List)
	v1.POST("/payment-methods", methods.Create)
	v1.GET("/payment-methods/stats", methods.Stats)
	v1.GET("/payment-methods/:id", methods.Get)
	v1.PUT("/payment-methods/:id", methods.Update)
	v1.DELETE("/payment-methods/:id", methods.Delete)
	v1.PUT("/payment-methods/:id/default", methods.SetDefault)

	expenses := NewExpenseHandler(fx.expenses)
	ingestion := NewIngestHandler(fx.expenses, fx.storage, fx.extractor, fx.extractor)
	v1.GET("/expenses", expenses.List)
	v1.POST("/expenses", expenses.Create)
	v1.GET("/expenses/summary", NewSummaryHandler(fx.summary).Get)
	v1.POST("/expenses/ocr", ingestion.OCR)
	v1.POST("/expenses/voice", ingestion.Voice)
	v1.GET("/expenses/:id", expenses.Get)
	v1.PUT("/expenses/:id", expenses.Update)
	v1.DELETE("/expenses/:id", expenses.Delete)

	export := NewExportHandler(fx.expenses)
	v1.GET("/export/csv", export.ExportCSV)
	v1.GET("/export/excel", export.ExportExcel)
	return r
}

func (fx *handlerFixture) systemCategory(t *testing.T, name string) models.Category {
	t.Helper()
	var c models.Category
	require.NoError(t, fx.db.Where("is_system = ? AND name = ?", true, name).First(&c).Error)
	return c
}

func (fx *handlerFixture) method(t *testing.T, owner, name string, balance int64, isDefault bool) *models.PaymentMethod {
	t.Helper()
	m, err := fx.methods.Create(context.Background(), owner, service.PaymentMethodInput{
		Name:      name,
		Type:      models.PaymentMethodDebitCard,
		Balance:   decimal.NewFromInt(balance),
		IsDefault: isDefault,
	})
	require.NoError(t, err)
	return m
}

func (fx *handlerFixture) expense(t *testing.T, owner, categoryID, methodID, amount string, date time.Time) *models.Expense {
	t.Helper()
	e, err := fx.expenses.Create(context.Background(), owner, service.ExpenseInput{
		Amount:          decimal.RequireFromString(amount),
		Description:     "test",
		Date:            &date,
		CategoryID:      categoryID,
		PaymentMethodID: methodID,
		Source:          models.SourceManual,
	})
	require.NoError(t, err)
	return e
}

func doJSON(r http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		switch b := body.(type) {
		case string:
			reader = bytes.NewBufferString(b)
		default:
			data, _ := json.Marshal(b)
			reader = bytes.NewReader(data)
		}
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// testResponse 解析通用响应，data 延迟解析
type testResponse struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder, data interface{}) testResponse {
	t.Helper()
	var resp testResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	if data != nil {
		require.NoError(t, json.Unmarshal(resp.Data, data), string(resp.Data))
	}
	return resp
}

func fixedDate() time.Time {
	return time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC)
}
