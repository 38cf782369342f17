package models

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// Draft OCR / 语音识别得到的消费草稿，尚未入账
type Draft struct {
	Amount        decimal.Decimal `json:"amount"`
	Description   string          `json:"description"`
	Date          *time.Time      `json:"date,omitempty"`
	CategoryHint  string          `json:"category_hint"`
	Transcription string          `json:"transcription,omitempty"`
	RawMetadata   json.RawMessage `json:"raw_metadata,omitempty"`
}
