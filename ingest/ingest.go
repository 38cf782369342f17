// Package ingest 把小票图片和语音转成消费草稿。
package ingest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"spendwise/models"
	"spendwise/service"

	"github.com/shopspring/decimal"
)

// ReceiptExtractor 小票 OCR
type ReceiptExtractor interface {
	ExtractReceipt(ctx context.Context, image []byte, mimeType string) (*models.Draft, error)
}

// VoiceExtractor 语音记账
type VoiceExtractor interface {
	ExtractVoice(ctx context.Context, audio []byte, mimeType string) (*models.Draft, error)
}

// rawDraft 模型返回的 JSON 结构
type rawDraft struct {
	Amount        json.RawMessage `json:"amount"`
	Description   string          `json:"description"`
	Merchant      string          `json:"merchant"`
	Date          string          `json:"date"`
	CategoryHint  string          `json:"category_hint"`
	Transcription string          `json:"transcription"`
}

var dateLayouts = []string{"2006-01-02", "2006/01/02", "02/01/2006", time.RFC3339}

// stripFences 去掉模型偶尔包裹的 ```json 代码块
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

func parseAmount(raw json.RawMessage) (decimal.Decimal, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return decimal.Zero, errors.New("missing amount")
	}
	var d decimal.Decimal
	if err := json.Unmarshal(raw, &d); err != nil {
		return decimal.Zero, err
	}
	return d, nil
}

func parseDate(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			d := models.DateOnly(t)
			return &d
		}
	}
	return nil
}

// ParseDraft 解析模型输出。金额缺失或不为正数时返回 InvalidOperation。
func ParseDraft(output string) (*models.Draft, error) {
	text := stripFences(output)
	if text == "" {
		return nil, &service.Error{Kind: service.ErrUpstream, Message: "识别服务返回为空"}
	}

	var raw rawDraft
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return nil, &service.Error{Kind: service.ErrUpstream, Message: "识别结果格式错误", Err: err}
	}

	amount, err := parseAmount(raw.Amount)
	if err != nil || !amount.IsPositive() {
		return nil, &service.Error{Kind: service.ErrInvalidOperation, Message: "未能识别出有效金额"}
	}

	description := strings.TrimSpace(raw.Description)
	if description == "" {
		description = strings.TrimSpace(raw.Merchant)
	}

	var compact bytes.Buffer
	metadata := json.RawMessage(text)
	if err := json.Compact(&compact, []byte(text)); err == nil {
		metadata = json.RawMessage(compact.Bytes())
	}

	return &models.Draft{
		Amount:        amount,
		Description:   description,
		Date:          parseDate(raw.Date),
		CategoryHint:  strings.TrimSpace(raw.CategoryHint),
		Transcription: strings.TrimSpace(raw.Transcription),
		RawMetadata:   metadata,
	}, nil
}

func upstream(op string, err error) error {
	return &service.Error{Kind: service.ErrUpstream, Message: fmt.Sprintf("%s失败", op), Err: err}
}

// Unavailable 未配置识别服务时使用，所有请求返回 Upstream 错误
type Unavailable struct{}

func (Unavailable) ExtractReceipt(context.Context, []byte, string) (*models.Draft, error) {
	return nil, &service.Error{Kind: service.ErrUpstream, Message: "未配置小票识别服务"}
}

func (Unavailable) ExtractVoice(context.Context, []byte, string) (*models.Draft, error) {
	return nil, &service.Error{Kind: service.ErrUpstream, Message: "未配置语音识别服务"}
}
