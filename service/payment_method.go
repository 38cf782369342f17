package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"spendwise/cache"
	"spendwise/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// paymentMethodsTTL 支付方式列表缓存时间
const paymentMethodsTTL = 5 * time.Minute

// BalanceDirection 余额调整方向
type BalanceDirection int

const (
	// Debit 消费扣款
	Debit BalanceDirection = iota
	// Credit 退款/冲回
	Credit
)

// PaymentMethodService 支付方式管理
type PaymentMethodService struct {
	db    *gorm.DB
	cache cache.Cache
	locks *ownerLocks
	log   *slog.Logger
}

// PaymentMethodInput 创建支付方式参数，Balance 为初始余额
type PaymentMethodInput struct {
	Name           string                   `json:"name" binding:"required,max=50"`
	Type           models.PaymentMethodType `json:"type" binding:"required"`
	LastFourDigits string                   `json:"last_four_digits" binding:"omitempty,len=4,numeric"`
	BankName       string                   `json:"bank_name" binding:"max=100"`
	Icon           string                   `json:"icon" binding:"max=50"`
	Color          string                   `json:"color" binding:"max=20"`
	Balance        decimal.Decimal          `json:"balance"`
	CreditLimit    *decimal.Decimal         `json:"credit_limit"`
	ExpirationDate *time.Time               `json:"expiration_date"`
	IsDefault      bool                     `json:"is_default"`
}

// PaymentMethodUpdate 更新参数，余额不允许直接修改
type PaymentMethodUpdate struct {
	Name           *string                   `json:"name" binding:"omitempty,max=50"`
	Type           *models.PaymentMethodType `json:"type"`
	LastFourDigits *string                   `json:"last_four_digits" binding:"omitempty,len=4,numeric"`
	BankName       *string                   `json:"bank_name" binding:"omitempty,max=100"`
	Icon           *string                   `json:"icon" binding:"omitempty,max=50"`
	Color          *string                   `json:"color" binding:"omitempty,max=20"`
	CreditLimit    *decimal.Decimal          `json:"credit_limit"`
	ExpirationDate *time.Time                `json:"expiration_date"`
	IsActive       *bool                     `json:"is_active"`
	IsDefault      *bool                     `json:"is_default"`
}

func NewPaymentMethodService(db *gorm.DB, c cache.Cache) *PaymentMethodService {
	return &PaymentMethodService{
		db:    db,
		cache: c,
		locks: newOwnerLocks(),
		log:   slog.With("component", "payment_method"),
	}
}

func validLastFour(s string) bool {
	if s == "" {
		return true
	}
	if len(s) != 4 {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// defaultAttempts 默认方式唯一索引冲突时整笔事务的最大尝试次数
const defaultAttempts = 3

// markDefault 清除用户其它默认后设置 id 为默认。
// 另一进程并发设置默认时，default_owner 唯一索引使后提交的一方报 ErrDuplicatedKey，由 retryOnDuplicate 重做。
func markDefault(tx *gorm.DB, ownerID, id string) error {
	if err := tx.Model(&models.PaymentMethod{}).
		Where("owner_id = ? AND id <> ? AND (is_default = ? OR default_owner IS NOT NULL)", ownerID, id, true).
		Updates(map[string]interface{}{"is_default": false, "default_owner": nil}).Error; err != nil {
		return err
	}
	return tx.Model(&models.PaymentMethod{}).
		Where("id = ? AND owner_id = ?", id, ownerID).
		Updates(map[string]interface{}{"is_default": true, "default_owner": ownerID}).Error
}

// retryOnDuplicate 唯一键冲突时重试整笔事务；名称重复会在重试时被显式检查拦下
func retryOnDuplicate(fn func() error) error {
	var err error
	for i := 0; i < defaultAttempts; i++ {
		if err = fn(); !errors.Is(err, gorm.ErrDuplicatedKey) {
			return err
		}
	}
	return newError(ErrConflict, "默认支付方式设置冲突，请重试")
}

// Create 创建支付方式；IsDefault=true 时同一事务内取消其它默认
func (s *PaymentMethodService) Create(ctx context.Context, ownerID string, in PaymentMethodInput) (*models.PaymentMethod, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, newError(ErrInvalidOperation, "支付方式名称不能为空")
	}
	if !in.Type.Valid() {
		return nil, newError(ErrInvalidOperation, "无效的支付方式类型")
	}
	if !validLastFour(in.LastFourDigits) {
		return nil, newError(ErrInvalidOperation, "卡号后四位必须为 4 位数字")
	}
	if in.CreditLimit != nil && in.Type != models.PaymentMethodCreditCard {
		return nil, newError(ErrInvalidOperation, "只有信用卡可以设置额度")
	}

	method := models.PaymentMethod{
		OwnerID:        ownerID,
		Name:           name,
		Type:           in.Type,
		LastFourDigits: in.LastFourDigits,
		BankName:       in.BankName,
		Icon:           in.Icon,
		Color:          in.Color,
		Balance:        in.Balance.Round(2),
		ExpirationDate: in.ExpirationDate,
		IsActive:       true,
	}
	if method.Color == "" {
		method.Color = models.DefaultCategoryColor
	}
	if in.CreditLimit != nil {
		method.CreditLimit = decimal.NewNullDecimal(in.CreditLimit.Round(2))
	}
	if method.ExpirationDate != nil {
		d := models.DateOnly(*method.ExpirationDate)
		method.ExpirationDate = &d
	}

	unlock := s.locks.Lock(ownerID)
	defer unlock()

	err := retryOnDuplicate(func() error {
		method.IsDefault = false
		method.DefaultOwner = nil
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var count int64
			if err := tx.Model(&models.PaymentMethod{}).
				Where("owner_id = ? AND name = ?", ownerID, name).
				Count(&count).Error; err != nil {
				return err
			}
			if count > 0 {
				return newError(ErrConflict, "支付方式名称已存在")
			}

			// 先以非默认插入，再与 SetDefault 走同一路径设为默认
			if err := tx.Create(&method).Error; err != nil {
				return err
			}
			if !in.IsDefault {
				return nil
			}
			if err := markDefault(tx, ownerID, method.ID); err != nil {
				return err
			}
			method.IsDefault = true
			method.DefaultOwner = &ownerID
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, ownerID)
	return &method, nil
}

// List 用户的支付方式列表，默认方式排在最前；结果按 includeInactive 分别缓存
func (s *PaymentMethodService) List(ctx context.Context, ownerID string, includeInactive bool) ([]models.PaymentMethod, error) {
	key := cache.PaymentMethodsKey(ownerID, includeInactive)
	var methods []models.PaymentMethod
	if cache.GetJSON(ctx, s.cache, key, &methods) {
		return methods, nil
	}

	query := s.db.WithContext(ctx).Where("owner_id = ?", ownerID)
	if !includeInactive {
		query = query.Where("is_active = ?", true)
	}
	if err := query.Order("is_default DESC, name ASC").Find(&methods).Error; err != nil {
		return nil, err
	}

	if err := cache.SetJSON(ctx, s.cache, key, methods, paymentMethodsTTL); err != nil {
		s.log.WarnContext(ctx, "写入支付方式缓存失败", "owner_id", ownerID, "error", err)
	}
	return methods, nil
}

// Get 获取用户自己的支付方式
func (s *PaymentMethodService) Get(ctx context.Context, ownerID, id string) (*models.PaymentMethod, error) {
	return s.find(s.db.WithContext(ctx), ownerID, id)
}

func (s *PaymentMethodService) find(tx *gorm.DB, ownerID, id string) (*models.PaymentMethod, error) {
	var method models.PaymentMethod
	if err := tx.Where("id = ? AND owner_id = ?", id, ownerID).First(&method).Error; err != nil {
		return nil, notFoundOr(err, "支付方式不存在")
	}
	return &method, nil
}

// Default 返回用户的默认支付方式，没有时返回 NotFound
func (s *PaymentMethodService) Default(ctx context.Context, ownerID string) (*models.PaymentMethod, error) {
	var method models.PaymentMethod
	err := s.db.WithContext(ctx).
		Where("owner_id = ? AND is_default = ?", ownerID, true).
		First(&method).Error
	if err != nil {
		return nil, notFoundOr(err, "未设置默认支付方式")
	}
	return &method, nil
}

// Update 更新支付方式属性；设为默认时同一事务内取消其它默认
func (s *PaymentMethodService) Update(ctx context.Context, ownerID, id string, in PaymentMethodUpdate) (*models.PaymentMethod, error) {
	unlock := s.locks.Lock(ownerID)
	defer unlock()

	var updated *models.PaymentMethod
	err := retryOnDuplicate(func() error {
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var err error
			updated, err = s.update(tx, ownerID, id, in)
			return err
		})
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, ownerID)
	return updated, nil
}

func (s *PaymentMethodService) update(tx *gorm.DB, ownerID, id string, in PaymentMethodUpdate) (*models.PaymentMethod, error) {
	method, err := s.find(tx, ownerID, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, newError(ErrInvalidOperation, "支付方式名称不能为空")
		}
		if name != method.Name {
			var count int64
			if err := tx.Model(&models.PaymentMethod{}).
				Where("owner_id = ? AND name = ? AND id <> ?", ownerID, name, id).
				Count(&count).Error; err != nil {
				return nil, err
			}
			if count > 0 {
				return nil, newError(ErrConflict, "支付方式名称已存在")
			}
		}
		updates["name"] = name
	}

	methodType := method.Type
	if in.Type != nil {
		if !in.Type.Valid() {
			return nil, newError(ErrInvalidOperation, "无效的支付方式类型")
		}
		methodType = *in.Type
		updates["type"] = methodType
	}
	if in.CreditLimit != nil {
		if methodType != models.PaymentMethodCreditCard {
			return nil, newError(ErrInvalidOperation, "只有信用卡可以设置额度")
		}
		updates["credit_limit"] = decimal.NewNullDecimal(in.CreditLimit.Round(2))
	} else if methodType != models.PaymentMethodCreditCard && method.CreditLimit.Valid {
		updates["credit_limit"] = decimal.NullDecimal{}
	}

	if in.LastFourDigits != nil {
		if !validLastFour(*in.LastFourDigits) {
			return nil, newError(ErrInvalidOperation, "卡号后四位必须为 4 位数字")
		}
		updates["last_four_digits"] = *in.LastFourDigits
	}
	if in.BankName != nil {
		updates["bank_name"] = *in.BankName
	}
	if in.Icon != nil {
		updates["icon"] = *in.Icon
	}
	if in.Color != nil {
		updates["color"] = *in.Color
	}
	if in.ExpirationDate != nil {
		d := models.DateOnly(*in.ExpirationDate)
		updates["expiration_date"] = &d
	}
	if in.IsActive != nil {
		updates["is_active"] = *in.IsActive
	}
	if in.IsDefault != nil && !*in.IsDefault {
		updates["is_default"] = false
		updates["default_owner"] = nil
	}

	if len(updates) > 0 {
		if err := tx.Model(method).Updates(updates).Error; err != nil {
			return nil, err
		}
	}
	if in.IsDefault != nil && *in.IsDefault {
		if err := markDefault(tx, ownerID, id); err != nil {
			return nil, err
		}
	}

	return s.find(tx, ownerID, id)
}

// Delete 删除支付方式，有消费记录引用时拒绝删除
func (s *PaymentMethodService) Delete(ctx context.Context, ownerID, id string) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		method, err := s.find(tx, ownerID, id)
		if err != nil {
			return err
		}

		var count int64
		if err := tx.Model(&models.Expense{}).Where("payment_method_id = ?", id).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return newError(ErrInvalidOperation, "该支付方式存在消费记录，无法删除")
		}
		return tx.Delete(method).Error
	})
	if err != nil {
		return err
	}

	s.invalidate(ctx, ownerID)
	return nil
}

// SetDefault 设置默认支付方式。
// 进程内按用户串行，跨进程由 default_owner 唯一索引兜底，任意时刻至多一个默认。
func (s *PaymentMethodService) SetDefault(ctx context.Context, ownerID, id string) (*models.PaymentMethod, error) {
	unlock := s.locks.Lock(ownerID)
	defer unlock()

	var method *models.PaymentMethod
	err := retryOnDuplicate(func() error {
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if _, err := s.find(tx, ownerID, id); err != nil {
				return err
			}
			if err := markDefault(tx, ownerID, id); err != nil {
				return err
			}
			var err error
			method, err = s.find(tx, ownerID, id)
			return err
		})
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, ownerID)
	return method, nil
}

// AdjustBalance 调整余额：Debit 减少，Credit 增加
func (s *PaymentMethodService) AdjustBalance(ctx context.Context, ownerID, id string, amount decimal.Decimal, dir BalanceDirection) error {
	if err := adjustBalance(s.db.WithContext(ctx), ownerID, id, amount, dir); err != nil {
		return err
	}
	s.invalidate(ctx, ownerID)
	return nil
}

// adjustBalance 在数据库端做原子增减，避免读改写丢失更新
func adjustBalance(tx *gorm.DB, ownerID, id string, amount decimal.Decimal, dir BalanceDirection) error {
	delta := amount.Round(2)
	if dir == Debit {
		delta = delta.Neg()
	}
	result := tx.Model(&models.PaymentMethod{}).
		Where("id = ? AND owner_id = ?", id, ownerID).
		Update("balance", gorm.Expr("balance + CAST(? AS DECIMAL(14,2))", delta))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return newError(ErrNotFound, "支付方式不存在")
	}
	return nil
}

// FindAllWithStats 所有支付方式及其消费笔数、总额和信用卡可用额度
func (s *PaymentMethodService) FindAllWithStats(ctx context.Context, ownerID string) ([]models.PaymentMethodWithStats, error) {
	db := s.db.WithContext(ctx)

	var methods []models.PaymentMethod
	if err := db.Where("owner_id = ?", ownerID).
		Order("is_default DESC, name ASC").
		Find(&methods).Error; err != nil {
		return nil, err
	}

	var rows []struct {
		PaymentMethodID string
		TotalExpenses   int64
		TotalAmount     decimal.Decimal
	}
	if err := db.Model(&models.Expense{}).
		Select("payment_method_id, COUNT(*) AS total_expenses, COALESCE(SUM(amount), 0) AS total_amount").
		Where("owner_id = ?", ownerID).
		Group("payment_method_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	stats := make(map[string]int, len(rows))
	for i, row := range rows {
		stats[row.PaymentMethodID] = i
	}

	result := make([]models.PaymentMethodWithStats, 0, len(methods))
	for _, m := range methods {
		item := models.PaymentMethodWithStats{PaymentMethod: m, TotalAmount: decimal.Zero}
		if i, ok := stats[m.ID]; ok {
			item.TotalExpenses = rows[i].TotalExpenses
			item.TotalAmount = rows[i].TotalAmount.Round(2)
		}
		if m.Type == models.PaymentMethodCreditCard && m.CreditLimit.Valid {
			item.AvailableCredit = decimal.NewNullDecimal(m.CreditLimit.Decimal.Sub(item.TotalAmount))
		}
		result = append(result, item)
	}
	return result, nil
}

// invalidate 清除支付方式列表缓存，失败只记录日志
func (s *PaymentMethodService) invalidate(ctx context.Context, ownerID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, cache.PaymentMethodsKeys(ownerID)...); err != nil {
		s.log.WarnContext(ctx, "清除支付方式缓存失败", "owner_id", ownerID, "error", err)
	}
}
