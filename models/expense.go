package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ExpenseSource 消费记录来源
type ExpenseSource string

const (
	SourceManual ExpenseSource = "manual"
	SourceVoice  ExpenseSource = "voice"
	SourceOCR    ExpenseSource = "ocr"
)

// Expense 消费记录模型
// 每条记录必须属于同一用户下的一个类别（或系统类别）和一个支付方式。
type Expense struct {
	ID                 string          `json:"id" gorm:"type:varchar(36);primaryKey"`
	OwnerID            string          `json:"owner_id" gorm:"size:64;not null;index:idx_expense_owner_date,priority:1"`
	Amount             decimal.Decimal `json:"amount" gorm:"type:decimal(12,2);not null"`
	Description        string          `json:"description" gorm:"size:255"`
	Notes              string          `json:"notes,omitempty" gorm:"type:text"`
	Date               time.Time       `json:"date" gorm:"type:date;not null;index:idx_expense_owner_date,priority:2"`
	Source             ExpenseSource   `json:"source" gorm:"size:10;not null;default:manual"`
	ReceiptURL         string          `json:"receipt_url,omitempty" gorm:"size:512"`
	ReceiptKey         string          `json:"-" gorm:"size:255"`
	OCRData            string          `json:"ocr_data,omitempty" gorm:"type:text"` // OCR 原始结构化结果（JSON）
	VoiceTranscription string          `json:"voice_transcription,omitempty" gorm:"type:text"`
	AudioURL           string          `json:"audio_url,omitempty" gorm:"size:512"`
	AudioKey           string          `json:"-" gorm:"size:255"`
	CategoryID         string          `json:"category_id" gorm:"type:varchar(36);not null;index"`
	PaymentMethodID    string          `json:"payment_method_id" gorm:"type:varchar(36);not null;index"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`

	Category      *Category      `json:"category,omitempty" gorm:"foreignKey:CategoryID"`
	PaymentMethod *PaymentMethod `json:"payment_method,omitempty" gorm:"foreignKey:PaymentMethodID"`
}

// TableName 设置表名
func (Expense) TableName() string {
	return "expenses"
}

// BeforeCreate 生成 UUID 主键
func (e *Expense) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	return nil
}

// AfterFind 金额保留两位小数
func (e *Expense) AfterFind(tx *gorm.DB) error {
	e.Amount = e.Amount.Round(2)
	return nil
}

// BlobKeys 返回记录关联的附件存储 key
func (e *Expense) BlobKeys() []string {
	var keys []string
	if e.ReceiptKey != "" {
		keys = append(keys, e.ReceiptKey)
	}
	if e.AudioKey != "" {
		keys = append(keys, e.AudioKey)
	}
	return keys
}

// DateOnly 截断到自然日（UTC 零点）
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
