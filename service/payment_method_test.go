package service

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"spendwise/cache"
	"spendwise/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func defaultCount(t *testing.T, fx *fixture, owner string) int64 {
	t.Helper()
	var n int64
	require.NoError(t, fx.db.Model(&models.PaymentMethod{}).
		Where("owner_id = ? AND is_default = ?", owner, true).Count(&n).Error)
	return n
}

func TestPaymentMethodService_CreateValidation(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	limit := decimal.NewFromInt(1000)
	_, err := fx.methods.Create(ctx, ownerA, PaymentMethodInput{Name: "Cash", Type: models.PaymentMethodCash, CreditLimit: &limit})
	assert.ErrorIs(t, err, ErrInvalidOperation)

	_, err = fx.methods.Create(ctx, ownerA, PaymentMethodInput{Name: "Bad", Type: "cheque"})
	assert.ErrorIs(t, err, ErrInvalidOperation)

	_, err = fx.methods.Create(ctx, ownerA, PaymentMethodInput{Name: "Card", Type: models.PaymentMethodDebitCard, LastFourDigits: "12a4"})
	assert.ErrorIs(t, err, ErrInvalidOperation)

	visa, err := fx.methods.Create(ctx, ownerA, PaymentMethodInput{
		Name:           "Visa",
		Type:           models.PaymentMethodCreditCard,
		LastFourDigits: "4242",
		CreditLimit:    &limit,
	})
	require.NoError(t, err)
	assert.True(t, visa.IsActive)
	assert.True(t, visa.CreditLimit.Valid)
	assertDecimal(t, "0", visa.Balance)

	_, err = fx.methods.Create(ctx, ownerA, PaymentMethodInput{Name: "Visa", Type: models.PaymentMethodCash})
	assert.ErrorIs(t, err, ErrConflict)
}

func TestPaymentMethodService_DefaultSwitching(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	a, err := fx.methods.Create(ctx, ownerA, PaymentMethodInput{Name: "A", Type: models.PaymentMethodCash, IsDefault: true})
	require.NoError(t, err)
	assert.True(t, a.IsDefault)

	b, err := fx.methods.Create(ctx, ownerA, PaymentMethodInput{Name: "B", Type: models.PaymentMethodCash})
	require.NoError(t, err)
	assert.False(t, b.IsDefault)

	got, err := fx.methods.SetDefault(ctx, ownerA, b.ID)
	require.NoError(t, err)
	assert.True(t, got.IsDefault)

	reloadedA, err := fx.methods.Get(ctx, ownerA, a.ID)
	require.NoError(t, err)
	assert.False(t, reloadedA.IsDefault)
	assert.Equal(t, int64(1), defaultCount(t, fx, ownerA))

	// 新建时指定默认也会清除旧默认
	c, err := fx.methods.Create(ctx, ownerA, PaymentMethodInput{Name: "C", Type: models.PaymentMethodCash, IsDefault: true})
	require.NoError(t, err)
	assert.Equal(t, int64(1), defaultCount(t, fx, ownerA))

	def, err := fx.methods.Default(ctx, ownerA)
	require.NoError(t, err)
	assert.Equal(t, c.ID, def.ID)

	// 通过 Update 设为默认
	yes := true
	_, err = fx.methods.Update(ctx, ownerA, a.ID, PaymentMethodUpdate{IsDefault: &yes})
	require.NoError(t, err)
	assert.Equal(t, int64(1), defaultCount(t, fx, ownerA))
	def, err = fx.methods.Default(ctx, ownerA)
	require.NoError(t, err)
	assert.Equal(t, a.ID, def.ID)

	_, err = fx.methods.SetDefault(ctx, ownerB, a.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPaymentMethodService_ConcurrentSetDefault(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	var ids []string
	for _, name := range []string{"A", "B", "C", "D", "E"} {
		ids = append(ids, fx.method(t, ownerA, name, 0).ID)
	}

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			_, err := fx.methods.SetDefault(ctx, ownerA, id)
			assert.NoError(t, err)
		}(ids[i%len(ids)])
	}
	wg.Wait()

	assert.Equal(t, int64(1), defaultCount(t, fx, ownerA))
}

func TestPaymentMethodService_ConcurrentMixedDefault(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	// 两个服务实例共享数据库、互不共享进程内锁，相当于两个副本
	replicas := []*PaymentMethodService{fx.methods, NewPaymentMethodService(fx.db, fx.cache)}

	var ids []string
	for _, name := range []string{"A", "B", "C"} {
		ids = append(ids, fx.method(t, ownerA, name, 0).ID)
	}

	yes := true
	var wg sync.WaitGroup
	for i := 0; i < 30; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			svc := replicas[i%len(replicas)]
			id := ids[i%len(ids)]
			var err error
			switch i % 3 {
			case 0:
				_, err = svc.Create(ctx, ownerA, PaymentMethodInput{
					Name:      fmt.Sprintf("New-%d", i),
					Type:      models.PaymentMethodCash,
					IsDefault: true,
				})
			case 1:
				_, err = svc.SetDefault(ctx, ownerA, id)
			default:
				_, err = svc.Update(ctx, ownerA, id, PaymentMethodUpdate{IsDefault: &yes})
			}
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int64(1), defaultCount(t, fx, ownerA))

	var marked []models.PaymentMethod
	require.NoError(t, fx.db.Where("owner_id = ? AND default_owner IS NOT NULL", ownerA).Find(&marked).Error)
	require.Len(t, marked, 1)
	assert.True(t, marked[0].IsDefault)
	assert.Equal(t, ownerA, *marked[0].DefaultOwner)
}

func TestPaymentMethodService_SecondDefaultRejectedByIndex(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	_, err := fx.methods.Create(ctx, ownerA, PaymentMethodInput{Name: "A", Type: models.PaymentMethodCash, IsDefault: true})
	require.NoError(t, err)
	b := fx.method(t, ownerA, "B", 0)

	// 绕过服务层直接标记第二个默认，模拟另一进程未看到已提交默认时的写入
	err = fx.db.Model(&models.PaymentMethod{}).Where("id = ?", b.ID).
		Updates(map[string]interface{}{"is_default": true, "default_owner": ownerA}).Error
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)
	assert.Equal(t, int64(1), defaultCount(t, fx, ownerA))

	// 其他用户的默认互不影响
	_, err = fx.methods.Create(ctx, ownerB, PaymentMethodInput{Name: "A", Type: models.PaymentMethodCash, IsDefault: true})
	require.NoError(t, err)
	assert.Equal(t, int64(1), defaultCount(t, fx, ownerB))

	// 取消默认后唯一索引位置被释放
	no := false
	_, err = fx.methods.Update(ctx, ownerB, mustDefault(t, fx, ownerB).ID, PaymentMethodUpdate{IsDefault: &no})
	require.NoError(t, err)
	assert.Equal(t, int64(0), defaultCount(t, fx, ownerB))
	var n int64
	require.NoError(t, fx.db.Model(&models.PaymentMethod{}).Where("default_owner = ?", ownerB).Count(&n).Error)
	assert.Equal(t, int64(0), n)
}

func mustDefault(t *testing.T, fx *fixture, owner string) *models.PaymentMethod {
	t.Helper()
	m, err := fx.methods.Default(context.Background(), owner)
	require.NoError(t, err)
	return m
}

func TestRetryOnDuplicate(t *testing.T) {
	calls := 0
	err := retryOnDuplicate(func() error {
		calls++
		if calls < 2 {
			return gorm.ErrDuplicatedKey
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)

	calls = 0
	err = retryOnDuplicate(func() error {
		calls++
		return gorm.ErrDuplicatedKey
	})
	assert.ErrorIs(t, err, ErrConflict)
	assert.Equal(t, defaultAttempts, calls)

	err = retryOnDuplicate(func() error { return newError(ErrNotFound, "x") })
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPaymentMethodService_UpdateCannotTouchBalance(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	m := fx.method(t, ownerA, "Card", 100)
	name := "Main card"
	inactive := false
	updated, err := fx.methods.Update(ctx, ownerA, m.ID, PaymentMethodUpdate{Name: &name, IsActive: &inactive})
	require.NoError(t, err)
	assert.Equal(t, "Main card", updated.Name)
	assert.False(t, updated.IsActive)
	assertDecimal(t, "100", updated.Balance)

	limit := decimal.NewFromInt(10)
	_, err = fx.methods.Update(ctx, ownerA, m.ID, PaymentMethodUpdate{CreditLimit: &limit})
	assert.ErrorIs(t, err, ErrInvalidOperation)

	_, err = fx.methods.Update(ctx, ownerB, m.ID, PaymentMethodUpdate{Name: &name})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPaymentMethodService_ListCachedAndInvalidated(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	active := fx.method(t, ownerA, "Active", 0)
	inactive := fx.method(t, ownerA, "Inactive", 0)
	no := false
	_, err := fx.methods.Update(ctx, ownerA, inactive.ID, PaymentMethodUpdate{IsActive: &no})
	require.NoError(t, err)

	list, err := fx.methods.List(ctx, ownerA, false)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, active.ID, list[0].ID)

	_, err = fx.cache.Get(ctx, cache.PaymentMethodsKey(ownerA, false))
	require.NoError(t, err)

	all, err := fx.methods.List(ctx, ownerA, true)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	fx.method(t, ownerA, "Another", 0)
	_, err = fx.cache.Get(ctx, cache.PaymentMethodsKey(ownerA, false))
	assert.ErrorIs(t, err, cache.ErrMiss)

	list, err = fx.methods.List(ctx, ownerA, false)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestPaymentMethodService_DeleteGuard(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	used := fx.method(t, ownerA, "Used", 100)
	unused := fx.method(t, ownerA, "Unused", 0)
	_, err := fx.expenses.Create(ctx, ownerA, ExpenseInput{
		Amount:          decimal.NewFromInt(10),
		CategoryID:      fx.systemCategory(t, models.CategoryFood).ID,
		PaymentMethodID: used.ID,
	})
	require.NoError(t, err)

	assert.ErrorIs(t, fx.methods.Delete(ctx, ownerA, used.ID), ErrInvalidOperation)
	_, err = fx.methods.Get(ctx, ownerA, used.ID)
	require.NoError(t, err)

	assert.ErrorIs(t, fx.methods.Delete(ctx, ownerB, unused.ID), ErrNotFound)
	require.NoError(t, fx.methods.Delete(ctx, ownerA, unused.ID))
}

func TestPaymentMethodService_AdjustBalance(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	m := fx.method(t, ownerA, "Card", 100)
	require.NoError(t, fx.methods.AdjustBalance(ctx, ownerA, m.ID, decimal.RequireFromString("25.50"), Debit))
	assertDecimal(t, "74.5", fx.balance(t, ownerA, m.ID))
	require.NoError(t, fx.methods.AdjustBalance(ctx, ownerA, m.ID, decimal.RequireFromString("5.50"), Credit))
	assertDecimal(t, "80", fx.balance(t, ownerA, m.ID))

	err := fx.methods.AdjustBalance(ctx, ownerB, m.ID, decimal.NewFromInt(1), Debit)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPaymentMethodService_FindAllWithStats(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	limit := decimal.NewFromInt(500)
	visa, err := fx.methods.Create(ctx, ownerA, PaymentMethodInput{
		Name:        "Visa",
		Type:        models.PaymentMethodCreditCard,
		CreditLimit: &limit,
	})
	require.NoError(t, err)
	cash := fx.method(t, ownerA, "Cash", 50)
	food := fx.systemCategory(t, models.CategoryFood)

	for _, amount := range []int64{100, 20} {
		_, err := fx.expenses.Create(ctx, ownerA, ExpenseInput{
			Amount:          decimal.NewFromInt(amount),
			CategoryID:      food.ID,
			PaymentMethodID: visa.ID,
		})
		require.NoError(t, err)
	}

	stats, err := fx.methods.FindAllWithStats(ctx, ownerA)
	require.NoError(t, err)
	require.Len(t, stats, 2)

	byID := map[string]models.PaymentMethodWithStats{}
	for _, s := range stats {
		byID[s.ID] = s
	}
	assert.Equal(t, int64(2), byID[visa.ID].TotalExpenses)
	assertDecimal(t, "120", byID[visa.ID].TotalAmount)
	require.True(t, byID[visa.ID].AvailableCredit.Valid)
	assertDecimal(t, "380", byID[visa.ID].AvailableCredit.Decimal)

	assert.Equal(t, int64(0), byID[cash.ID].TotalExpenses)
	assertDecimal(t, "0", byID[cash.ID].TotalAmount)
	assert.False(t, byID[cash.ID].AvailableCredit.Valid)
}
