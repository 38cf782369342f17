package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PaymentMethodType 支付方式类型
type PaymentMethodType string

const (
	PaymentMethodCash          PaymentMethodType = "cash"
	PaymentMethodDebitCard     PaymentMethodType = "debit_card"
	PaymentMethodCreditCard    PaymentMethodType = "credit_card"
	PaymentMethodTransfer      PaymentMethodType = "transfer"
	PaymentMethodDigitalWallet PaymentMethodType = "digital_wallet"
)

// Valid 是否为已知的支付方式类型
func (t PaymentMethodType) Valid() bool {
	switch t {
	case PaymentMethodCash, PaymentMethodDebitCard, PaymentMethodCreditCard,
		PaymentMethodTransfer, PaymentMethodDigitalWallet:
		return true
	}
	return false
}

// PaymentMethod 支付方式
// Balance 只能通过消费记录的扣款/退款变动；CreditLimit 仅作展示，不做额度校验。
// DefaultOwner 在默认方式上等于 OwnerID，其余为 NULL，唯一索引在数据库层保证每个用户至多一个默认。
type PaymentMethod struct {
	ID             string              `json:"id" gorm:"type:varchar(36);primaryKey"`
	OwnerID        string              `json:"owner_id" gorm:"size:64;not null;uniqueIndex:idx_payment_method_owner_name,priority:1"`
	Name           string              `json:"name" gorm:"size:50;not null;uniqueIndex:idx_payment_method_owner_name,priority:2"`
	Type           PaymentMethodType   `json:"type" gorm:"size:20;not null"`
	LastFourDigits string              `json:"last_four_digits,omitempty" gorm:"size:4"`
	BankName       string              `json:"bank_name,omitempty" gorm:"size:100"`
	Icon           string              `json:"icon" gorm:"size:50"`
	Color          string              `json:"color" gorm:"size:20;default:#64748b"`
	Balance        decimal.Decimal     `json:"balance" gorm:"type:decimal(14,2);not null;default:0"`
	CreditLimit    decimal.NullDecimal `json:"credit_limit" gorm:"type:decimal(14,2)"`
	ExpirationDate *time.Time          `json:"expiration_date,omitempty" gorm:"type:date"`
	IsActive       bool                `json:"is_active" gorm:"not null;default:true"`
	IsDefault      bool                `json:"is_default" gorm:"not null;default:false;index"`
	DefaultOwner   *string             `json:"-" gorm:"size:64;uniqueIndex:idx_payment_method_default_owner"` // 仅默认方式非空
	CreatedAt      time.Time           `json:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at"`
}

func (PaymentMethod) TableName() string {
	return "payment_methods"
}

// BeforeCreate 生成 UUID 主键
func (p *PaymentMethod) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

// AfterFind 统一保留两位小数，sqlite 下数值列可能以浮点读回
func (p *PaymentMethod) AfterFind(tx *gorm.DB) error {
	p.Balance = p.Balance.Round(2)
	if p.CreditLimit.Valid {
		p.CreditLimit.Decimal = p.CreditLimit.Decimal.Round(2)
	}
	return nil
}

// PaymentMethodWithStats 带消费统计的支付方式
type PaymentMethodWithStats struct {
	PaymentMethod
	TotalExpenses   int64               `json:"total_expenses"`
	TotalAmount     decimal.Decimal     `json:"total_amount"`
	AvailableCredit decimal.NullDecimal `json:"available_credit"`
}
