package api

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"

	"spendwise/ingest"
	"spendwise/middleware"
	"spendwise/models"
	"spendwise/service"
	"spendwise/storage"

	"github.com/gin-gonic/gin"
)

// 上传大小上限
const (
	maxReceiptSize = 10 << 20
	maxAudioSize   = 25 << 20
)

// IngestHandler 小票识别和语音记账
type IngestHandler struct {
	expenses *service.ExpenseService
	storage  storage.Storage
	receipts ingest.ReceiptExtractor
	voice    ingest.VoiceExtractor
}

func NewIngestHandler(expenses *service.ExpenseService, st storage.Storage, receipts ingest.ReceiptExtractor, voice ingest.VoiceExtractor) *IngestHandler {
	return &IngestHandler{expenses: expenses, storage: st, receipts: receipts, voice: voice}
}

type extractFunc func(ctx context.Context, data []byte, mimeType string) (*models.Draft, error)

// readUpload 读取表单文件，返回内容和 MIME 类型
func readUpload(c *gin.Context, field string, limit int64, prefix string) (*multipart.FileHeader, []byte, string, bool) {
	file, err := c.FormFile(field)
	if err != nil {
		BadRequest(c, fmt.Sprintf("请上传文件（字段 %s）", field))
		return nil, nil, "", false
	}
	if file.Size > limit {
		BadRequest(c, fmt.Sprintf("文件不能超过 %dMB", limit>>20))
		return nil, nil, "", false
	}

	f, err := file.Open()
	if err != nil {
		InternalError(c, "读取文件失败")
		return nil, nil, "", false
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, limit+1))
	if err != nil {
		InternalError(c, "读取文件失败")
		return nil, nil, "", false
	}
	if len(data) == 0 || int64(len(data)) > limit {
		BadRequest(c, "文件为空或过大")
		return nil, nil, "", false
	}

	mimeType := file.Header.Get("Content-Type")
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = http.DetectContentType(data)
	}
	mimeType, _, _ = strings.Cut(mimeType, ";")
	if !strings.HasPrefix(mimeType, prefix) {
		BadRequest(c, "不支持的文件类型: "+mimeType)
		return nil, nil, "", false
	}
	return file, data, mimeType, true
}

func (h *IngestHandler) handle(c *gin.Context, source models.ExpenseSource, field, folder, prefix string, limit int64, extract extractFunc) {
	ownerID := middleware.GetCurrentOwnerID(c)
	file, data, mimeType, ok := readUpload(c, field, limit, prefix)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	obj, err := h.storage.Upload(ctx, data, folder, ownerID, file.Filename, mimeType)
	if err != nil {
		_ = c.Error(err)
		Error(c, http.StatusBadGateway, "上传附件失败")
		return
	}

	opts := service.DraftOptions{
		CategoryID:      c.PostForm("category_id"),
		PaymentMethodID: c.PostForm("payment_method_id"),
		Notes:           c.PostForm("notes"),
		AttachmentURL:   obj.URL,
		AttachmentKey:   obj.Key,
	}
	expense, err := h.ingest(ctx, ownerID, source, data, mimeType, opts, extract)
	if err != nil {
		// 入账失败时删掉刚上传的附件
		if delErr := h.storage.Delete(context.WithoutCancel(ctx), obj.Key); delErr != nil {
			slog.WarnContext(ctx, "删除附件失败", "key", obj.Key, "error", delErr)
		}
		handleServiceError(c, err, "识别入账失败")
		return
	}
	Created(c, "识别成功", expense)
}

func (h *IngestHandler) ingest(ctx context.Context, ownerID string, source models.ExpenseSource, data []byte, mimeType string, opts service.DraftOptions, extract extractFunc) (*models.Expense, error) {
	draft, err := extract(ctx, data, mimeType)
	if err != nil {
		return nil, err
	}
	return h.expenses.CreateFromDraft(ctx, ownerID, source, *draft, opts)
}

// OCR 上传小票识别入账
// @Summary 小票识别记账
// @Description 上传小票图片，识别金额、描述、日期和类别后直接入账。未指定支付方式时使用默认支付方式。
// @Tags 消费记录
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param receipt formData file true "小票图片"
// @Param category_id formData string false "类别ID，不传则按识别结果推荐"
// @Param payment_method_id formData string false "支付方式ID，不传则使用默认支付方式"
// @Param notes formData string false "备注"
// @Success 201 {object} Response{data=models.Expense} "识别成功"
// @Failure 400 {object} Response "参数错误"
// @Failure 429 {object} Response "请求过于频繁"
// @Failure 502 {object} Response "识别服务失败"
// @Router /api/v1/expenses/ocr [post]
func (h *IngestHandler) OCR(c *gin.Context) {
	h.handle(c, models.SourceOCR, "receipt", storage.FolderReceipts, "image/", maxReceiptSize, h.receipts.ExtractReceipt)
}

// Voice 上传语音识别入账
// @Summary 语音记账
// @Description 上传一段描述消费的录音，转写并提取金额、描述、日期和类别后直接入账
// @Tags 消费记录
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param audio formData file true "录音文件"
// @Param category_id formData string false "类别ID，不传则按识别结果推荐"
// @Param payment_method_id formData string false "支付方式ID，不传则使用默认支付方式"
// @Param notes formData string false "备注"
// @Success 201 {object} Response{data=models.Expense} "识别成功"
// @Failure 400 {object} Response "参数错误"
// @Failure 429 {object} Response "请求过于频繁"
// @Failure 502 {object} Response "识别服务失败"
// @Router /api/v1/expenses/voice [post]
func (h *IngestHandler) Voice(c *gin.Context) {
	h.handle(c, models.SourceVoice, "audio", storage.FolderAudio, "audio/", maxAudioSize, h.voice.ExtractVoice)
}
