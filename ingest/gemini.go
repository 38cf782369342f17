package ingest

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"spendwise/models"

	"google.golang.org/genai"
)

const receiptPrompt = `You read shopping receipts. Return ONLY a JSON object, no markdown, with keys:
"amount" (number, the grand total paid), "description" (short text), "merchant" (store name),
"date" (YYYY-MM-DD or empty), "category_hint" (one of: food, transport, entertainment, health,
education, shopping, services, other), "items" (array of {"name","price"}).`

const voicePrompt = `Transcribe the audio and extract the single expense it describes. Return ONLY a JSON
object, no markdown, with keys: "transcription" (verbatim text), "amount" (number), "description"
(short text), "date" (YYYY-MM-DD or empty when not mentioned), "category_hint" (one of: food,
transport, entertainment, health, education, shopping, services, other).`

// generateFunc 调用模型并返回文本输出，测试中替换
type generateFunc func(ctx context.Context, parts []*genai.Part) (string, error)

// GeminiExtractor 基于 Gemini 多模态模型的 OCR / 语音识别
type GeminiExtractor struct {
	generate generateFunc
	log      *slog.Logger
}

// NewGeminiExtractor 创建 Gemini 识别器
func NewGeminiExtractor(ctx context.Context, apiKey, model string) (*GeminiExtractor, error) {
	if apiKey == "" {
		return nil, errors.New("ai.api_key 未配置")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, err
	}

	config := &genai.GenerateContentConfig{ResponseMIMEType: "application/json"}
	return newExtractor(func(ctx context.Context, parts []*genai.Part) (string, error) {
		contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}
		resp, err := client.Models.GenerateContent(ctx, model, contents, config)
		if err != nil {
			return "", err
		}
		return responseText(resp), nil
	}), nil
}

func newExtractor(generate generateFunc) *GeminiExtractor {
	return &GeminiExtractor{
		generate: generate,
		log:      slog.With("component", "ingest"),
	}
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil && part.Text != "" {
			b.WriteString(part.Text)
		}
	}
	return b.String()
}

// ExtractReceipt 识别小票图片
func (e *GeminiExtractor) ExtractReceipt(ctx context.Context, image []byte, mimeType string) (*models.Draft, error) {
	return e.extract(ctx, "小票识别", receiptPrompt, image, mimeType)
}

// ExtractVoice 识别语音
func (e *GeminiExtractor) ExtractVoice(ctx context.Context, audio []byte, mimeType string) (*models.Draft, error) {
	return e.extract(ctx, "语音识别", voicePrompt, audio, mimeType)
}

func (e *GeminiExtractor) extract(ctx context.Context, op, prompt string, data []byte, mimeType string) (*models.Draft, error) {
	if len(data) == 0 {
		return nil, upstream(op, errors.New("empty input"))
	}
	parts := []*genai.Part{
		genai.NewPartFromText(prompt),
		genai.NewPartFromBytes(data, mimeType),
	}

	output, err := e.generate(ctx, parts)
	if err != nil {
		e.log.ErrorContext(ctx, op+"调用失败", "mime_type", mimeType, "error", err)
		return nil, upstream(op, err)
	}

	draft, err := ParseDraft(output)
	if err != nil {
		e.log.WarnContext(ctx, op+"结果无法解析", "length", len(output), "error", err)
		return nil, err
	}
	return draft, nil
}
