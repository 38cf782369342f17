package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"spendwise/cache"
	"spendwise/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummaryService_EmptyOwnerHasZeroPercentages(t *testing.T) {
	fx := newFixture(t)

	summary, err := fx.summary.GetSummary(context.Background(), ownerA)
	require.NoError(t, err)
	assert.Equal(t, int64(0), summary.TotalCount)
	assertDecimal(t, "0", summary.TotalAmount)
	assertDecimal(t, "0", summary.AverageAmount)
	assert.Equal(t, 0.0, summary.MonthOverMonthChange)
	assert.Empty(t, summary.ByCategory)
	assert.Empty(t, summary.ByPaymentMethod)
}

func TestSummaryService_Aggregates(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	fx.summary.now = func() time.Time { return time.Date(2024, time.March, 15, 12, 0, 0, 0, time.UTC) }

	card := fx.method(t, ownerA, "Card", 1000)
	cash := fx.method(t, ownerA, "Cash", 1000)
	food := fx.systemCategory(t, models.CategoryFood)
	transport := fx.systemCategory(t, models.CategoryTransport)

	for _, e := range []ExpenseInput{
		{Amount: decimal.NewFromInt(60), Date: date(2024, time.March, 1), CategoryID: food.ID, PaymentMethodID: card.ID},
		{Amount: decimal.NewFromInt(40), Date: date(2024, time.March, 31), CategoryID: transport.ID, PaymentMethodID: cash.ID},
		{Amount: decimal.NewFromInt(50), Date: date(2024, time.February, 29), CategoryID: food.ID, PaymentMethodID: card.ID},
		{Amount: decimal.NewFromInt(30), Date: date(2024, time.January, 10), CategoryID: food.ID, PaymentMethodID: cash.ID},
	} {
		_, err := fx.expenses.Create(ctx, ownerA, e)
		require.NoError(t, err)
	}

	summary, err := fx.summary.GetSummary(ctx, ownerA)
	require.NoError(t, err)
	assert.Equal(t, int64(4), summary.TotalCount)
	assertDecimal(t, "180", summary.TotalAmount)
	assertDecimal(t, "45", summary.AverageAmount)
	assertDecimal(t, "100", summary.CurrentMonthTotal)
	assertDecimal(t, "50", summary.PreviousMonthTotal)
	assert.Equal(t, 100.0, summary.MonthOverMonthChange)

	require.Len(t, summary.ByCategory, 2)
	assert.Equal(t, models.CategoryFood, summary.ByCategory[0].Name)
	assert.Equal(t, int64(3), summary.ByCategory[0].Count)
	assertDecimal(t, "140", summary.ByCategory[0].Total)
	assert.Equal(t, 77.78, summary.ByCategory[0].Percentage)
	assert.Equal(t, 22.22, summary.ByCategory[1].Percentage)

	require.Len(t, summary.ByPaymentMethod, 2)
	assert.Equal(t, "Card", summary.ByPaymentMethod[0].Name)
	assertDecimal(t, "110", summary.ByPaymentMethod[0].Total)
	assert.Equal(t, 61.11, summary.ByPaymentMethod[0].Percentage)
}

func TestSummaryService_PreviousMonthZero(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	fx.summary.now = func() time.Time { return time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC) }

	card := fx.method(t, ownerA, "Card", 100)
	_, err := fx.expenses.Create(ctx, ownerA, ExpenseInput{
		Amount:          decimal.NewFromInt(10),
		Date:            date(2024, time.March, 2),
		CategoryID:      fx.systemCategory(t, models.CategoryFood).ID,
		PaymentMethodID: card.ID,
	})
	require.NoError(t, err)

	summary, err := fx.summary.GetSummary(ctx, ownerA)
	require.NoError(t, err)
	assertDecimal(t, "0", summary.PreviousMonthTotal)
	assert.Equal(t, 0.0, summary.MonthOverMonthChange)
}

func TestSummaryService_CachedAndInvalidatedByMutations(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	card := fx.method(t, ownerA, "Card", 100)
	food := fx.systemCategory(t, models.CategoryFood)

	first, err := fx.summary.GetSummary(ctx, ownerA)
	require.NoError(t, err)
	assert.Equal(t, int64(0), first.TotalCount)
	_, err = fx.cache.Get(ctx, cache.SummaryKey(ownerA))
	require.NoError(t, err)

	// 绕过服务直接写库，缓存命中时仍返回旧值
	require.NoError(t, fx.db.Create(&models.Expense{
		OwnerID:         ownerA,
		Amount:          decimal.NewFromInt(5),
		Date:            models.DateOnly(time.Now()),
		Source:          models.SourceManual,
		CategoryID:      food.ID,
		PaymentMethodID: card.ID,
	}).Error)
	cached, err := fx.summary.GetSummary(ctx, ownerA)
	require.NoError(t, err)
	assert.Equal(t, int64(0), cached.TotalCount)

	expense, err := fx.expenses.Create(ctx, ownerA, ExpenseInput{
		Amount:          decimal.NewFromInt(20),
		CategoryID:      food.ID,
		PaymentMethodID: card.ID,
	})
	require.NoError(t, err)

	after, err := fx.summary.GetSummary(ctx, ownerA)
	require.NoError(t, err)
	assert.Equal(t, int64(2), after.TotalCount)
	assertDecimal(t, "25", after.TotalAmount)

	amount := decimal.NewFromInt(30)
	_, err = fx.expenses.Update(ctx, ownerA, expense.ID, ExpenseUpdate{Amount: &amount})
	require.NoError(t, err)
	after, err = fx.summary.GetSummary(ctx, ownerA)
	require.NoError(t, err)
	assertDecimal(t, "35", after.TotalAmount)

	require.NoError(t, fx.expenses.Delete(ctx, ownerA, expense.ID))
	after, err = fx.summary.GetSummary(ctx, ownerA)
	require.NoError(t, err)
	assert.Equal(t, int64(1), after.TotalCount)
}

func TestSummaryService_ConcurrentReads(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	card := fx.method(t, ownerA, "Card", 100)
	_, err := fx.expenses.Create(ctx, ownerA, ExpenseInput{
		Amount:          decimal.NewFromInt(10),
		CategoryID:      fx.systemCategory(t, models.CategoryFood).ID,
		PaymentMethodID: card.ID,
	})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s, err := fx.summary.GetSummary(ctx, ownerA)
			if assert.NoError(t, err) {
				assert.Equal(t, int64(1), s.TotalCount)
			}
		}()
	}
	wg.Wait()
}

func TestSummaryService_StaleComputationNotCached(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	version := fx.summary.version(ownerA)
	fx.summary.Invalidate(ctx, ownerA)
	assert.Equal(t, version+1, fx.summary.version(ownerA))

	// 没有缓存时失效也不报错
	s := NewSummaryService(fx.db, nil, 0)
	assert.Equal(t, DefaultSummaryTTL, s.ttl)
	s.Invalidate(ctx, ownerA)
	_, err := s.GetSummary(ctx, ownerA)
	require.NoError(t, err)
}

// hookCache 在写入汇总前执行一次回调，用来制造另一副本恰好在此时写入并失效的时序
type hookCache struct {
	cache.Cache
	once      sync.Once
	beforeSet func()
}

func (c *hookCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if key == cache.SummaryKey(ownerA) {
		c.once.Do(c.beforeSet)
	}
	return c.Cache.Set(ctx, key, value, ttl)
}

func TestSummaryService_InvalidationFromOtherReplica(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	card := fx.method(t, ownerA, "Card", 100)
	food := fx.systemCategory(t, models.CategoryFood)

	// replica 与 fx.summary 共享同一个缓存，但进程内版本号互不可见
	hc := &hookCache{Cache: fx.cache}
	replica := NewSummaryService(fx.db, hc, time.Minute)
	hc.beforeSet = func() {
		_, err := fx.expenses.Create(ctx, ownerA, ExpenseInput{
			Amount:          decimal.NewFromInt(25),
			CategoryID:      food.ID,
			PaymentMethodID: card.ID,
		})
		require.NoError(t, err)
	}

	stale, err := replica.GetSummary(ctx, ownerA)
	require.NoError(t, err)
	assert.Equal(t, int64(0), stale.TotalCount)

	// 过期结果不能留在共享缓存里
	_, err = fx.cache.Get(ctx, cache.SummaryKey(ownerA))
	assert.ErrorIs(t, err, cache.ErrMiss)

	fresh, err := replica.GetSummary(ctx, ownerA)
	require.NoError(t, err)
	assert.Equal(t, int64(1), fresh.TotalCount)
	_, err = fx.cache.Get(ctx, cache.SummaryKey(ownerA))
	assert.NoError(t, err)

	// 另一副本读到的也是新结果
	other, err := fx.summary.GetSummary(ctx, ownerA)
	require.NoError(t, err)
	assert.Equal(t, int64(1), other.TotalCount)
}

func TestPercentHelpers(t *testing.T) {
	assert.Equal(t, 0.0, percentChange(decimal.NewFromInt(10), decimal.Zero))
	assert.Equal(t, -50.0, percentChange(decimal.NewFromInt(5), decimal.NewFromInt(10)))
	assert.Equal(t, 0.0, percentOf(decimal.NewFromInt(5), decimal.Zero))
	assert.Equal(t, 33.33, percentOf(decimal.NewFromInt(1), decimal.NewFromInt(3)))
}
