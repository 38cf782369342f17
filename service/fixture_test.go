package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"spendwise/cache"
	"spendwise/models"
	"spendwise/testutil"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const (
	ownerA = "owner-a"
	ownerB = "owner-b"
)

// recordingCleaner 记录清理请求，可注入失败
type recordingCleaner struct {
	mu    sync.Mutex
	calls [][]string
	err   error
}

func (c *recordingCleaner) CleanupBlobs(_ context.Context, _ string, keys []string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, keys)
	return c.err
}

type fixture struct {
	db         *gorm.DB
	cache      *cache.MemoryCache
	categories *CategoryService
	methods    *PaymentMethodService
	summary    *SummaryService
	expenses   *ExpenseService
	cleaner    *recordingCleaner
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.NewDB(t)
	c := cache.NewMemoryCache(100)
	fx := &fixture{
		db:         db,
		cache:      c,
		categories: NewCategoryService(db),
		methods:    NewPaymentMethodService(db, c),
		summary:    NewSummaryService(db, c, time.Minute),
		cleaner:    &recordingCleaner{},
	}
	fx.expenses = NewExpenseService(db, fx.categories, fx.methods, fx.summary, fx.cleaner)

	_, err := fx.categories.SeedSystemDefaults(context.Background())
	require.NoError(t, err)
	return fx
}

func (fx *fixture) systemCategory(t *testing.T, name string) models.Category {
	t.Helper()
	var c models.Category
	require.NoError(t, fx.db.Where("is_system = ? AND name = ?", true, name).First(&c).Error)
	return c
}

func (fx *fixture) method(t *testing.T, owner, name string, balance int64) *models.PaymentMethod {
	t.Helper()
	m, err := fx.methods.Create(context.Background(), owner, PaymentMethodInput{
		Name:    name,
		Type:    models.PaymentMethodDebitCard,
		Balance: decimal.NewFromInt(balance),
	})
	require.NoError(t, err)
	return m
}

func (fx *fixture) balance(t *testing.T, owner, id string) decimal.Decimal {
	t.Helper()
	m, err := fx.methods.Get(context.Background(), owner, id)
	require.NoError(t, err)
	return m.Balance
}

func assertDecimal(t *testing.T, expected string, actual decimal.Decimal) {
	t.Helper()
	assert.True(t, decimal.RequireFromString(expected).Equal(actual), "expected %s, got %s", expected, actual)
}

func date(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func TestErrorKinds(t *testing.T) {
	err := wrapError(ErrInvalidOperation, "未指定支付方式", newError(ErrNotFound, "未设置默认支付方式"))
	assert.True(t, errors.Is(err, ErrInvalidOperation))
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.False(t, errors.Is(err, ErrConflict))

	var svcErr *Error
	require.True(t, errors.As(err, &svcErr))
	assert.Equal(t, "未指定支付方式", svcErr.Message)

	assert.True(t, errors.Is(notFoundOr(gorm.ErrRecordNotFound, "x"), ErrNotFound))
	other := errors.New("boom")
	assert.Equal(t, other, notFoundOr(other, "x"))
}

func TestOwnerLocks_Serializes(t *testing.T) {
	locks := newOwnerLocks()
	var (
		wg      sync.WaitGroup
		counter int
		maxSeen int
		active  int
		mu      sync.Mutex
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := locks.Lock(ownerA)
			defer unlock()
			mu.Lock()
			active++
			if active > maxSeen {
				maxSeen = active
			}
			mu.Unlock()
			counter++
			mu.Lock()
			active--
			mu.Unlock()
		}()
	}
	wg.Wait()
	assert.Equal(t, 20, counter)
	assert.Equal(t, 1, maxSeen)
	assert.Empty(t, locks.locks)
}
