package service

import (
	"context"
	"log/slog"
	"math"
	"strings"
	"time"

	"spendwise/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

// ExpenseService 消费记录账本。
// 记录写入与支付方式余额调整在同一事务内完成；缓存失效和附件清理在提交之后尽力执行。
type ExpenseService struct {
	db         *gorm.DB
	categories *CategoryService
	methods    *PaymentMethodService
	summary    *SummaryService
	cleaner    BlobCleaner
	now        func() time.Time
	log        *slog.Logger
}

// ExpenseInput 创建消费记录参数
type ExpenseInput struct {
	Amount             decimal.Decimal
	Description        string
	Notes              string
	Date               *time.Time
	CategoryID         string
	PaymentMethodID    string
	Source             models.ExpenseSource
	ReceiptURL         string
	ReceiptKey         string
	OCRData            string
	VoiceTranscription string
	AudioURL           string
	AudioKey           string
}

// ExpenseUpdate 更新参数，nil 字段不修改
type ExpenseUpdate struct {
	Amount          *decimal.Decimal
	Description     *string
	Notes           *string
	Date            *time.Time
	CategoryID      *string
	PaymentMethodID *string
}

// ExpenseFilter 列表查询条件，日期区间为闭区间
type ExpenseFilter struct {
	StartDate       *time.Time
	EndDate         *time.Time
	CategoryID      string
	PaymentMethodID string
	Page            int
	PageSize        int
	SortBy          string
	SortOrder       string
}

// ExpensePage 分页结果
type ExpensePage struct {
	Total      int64            `json:"total"`
	Page       int              `json:"page"`
	PageSize   int              `json:"page_size"`
	TotalPages int              `json:"total_pages"`
	List       []models.Expense `json:"list"`
}

// DraftOptions 识别结果入账时的附加参数
type DraftOptions struct {
	CategoryID      string
	PaymentMethodID string
	Notes           string
	AttachmentURL   string
	AttachmentKey   string
}

var sortColumns = map[string]string{
	"date":       "date",
	"amount":     "amount",
	"created_at": "created_at",
}

func NewExpenseService(db *gorm.DB, categories *CategoryService, methods *PaymentMethodService, summary *SummaryService, cleaner BlobCleaner) *ExpenseService {
	return &ExpenseService{
		db:         db,
		categories: categories,
		methods:    methods,
		summary:    summary,
		cleaner:    cleaner,
		now:        time.Now,
		log:        slog.With("component", "expense"),
	}
}

// Create 新增消费记录并从支付方式余额中扣除
func (s *ExpenseService) Create(ctx context.Context, ownerID string, in ExpenseInput) (*models.Expense, error) {
	amount := in.Amount.Round(2)
	if !amount.IsPositive() {
		return nil, newError(ErrInvalidOperation, "金额必须大于 0")
	}

	source := in.Source
	if source == "" {
		source = models.SourceManual
	}
	switch source {
	case models.SourceManual, models.SourceVoice, models.SourceOCR:
	default:
		return nil, newError(ErrInvalidOperation, "无效的记录来源")
	}

	date := models.DateOnly(s.now().UTC())
	if in.Date != nil {
		date = models.DateOnly(*in.Date)
	}

	expense := models.Expense{
		OwnerID:            ownerID,
		Amount:             amount,
		Description:        strings.TrimSpace(in.Description),
		Notes:              in.Notes,
		Date:               date,
		Source:             source,
		ReceiptURL:         in.ReceiptURL,
		ReceiptKey:         in.ReceiptKey,
		OCRData:            in.OCRData,
		VoiceTranscription: in.VoiceTranscription,
		AudioURL:           in.AudioURL,
		AudioKey:           in.AudioKey,
		CategoryID:         in.CategoryID,
		PaymentMethodID:    in.PaymentMethodID,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.categories.find(tx, ownerID, in.CategoryID); err != nil {
			return err
		}
		if _, err := s.methods.find(tx, ownerID, in.PaymentMethodID); err != nil {
			return err
		}
		if err := tx.Create(&expense).Error; err != nil {
			return err
		}
		return adjustBalance(tx, ownerID, in.PaymentMethodID, amount, Debit)
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, ownerID)
	s.log.InfoContext(ctx, "消费记录已创建", "owner_id", ownerID, "expense_id", expense.ID, "source", source)
	return s.Get(ctx, ownerID, expense.ID)
}

// Get 获取单条消费记录（含类别和支付方式）
func (s *ExpenseService) Get(ctx context.Context, ownerID, id string) (*models.Expense, error) {
	var expense models.Expense
	err := s.db.WithContext(ctx).
		Preload("Category").
		Preload("PaymentMethod").
		Where("id = ? AND owner_id = ?", id, ownerID).
		First(&expense).Error
	if err != nil {
		return nil, notFoundOr(err, "消费记录不存在")
	}
	return &expense, nil
}

// Update 修改消费记录。金额或支付方式变化时先退回原支付方式，再从新支付方式扣款。
func (s *ExpenseService) Update(ctx context.Context, ownerID, id string, in ExpenseUpdate) (*models.Expense, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.Expense
		if err := tx.Where("id = ? AND owner_id = ?", id, ownerID).First(&existing).Error; err != nil {
			return notFoundOr(err, "消费记录不存在")
		}

		updates := map[string]interface{}{}
		amount := existing.Amount
		if in.Amount != nil {
			amount = in.Amount.Round(2)
			if !amount.IsPositive() {
				return newError(ErrInvalidOperation, "金额必须大于 0")
			}
			updates["amount"] = amount
		}
		methodID := existing.PaymentMethodID
		if in.PaymentMethodID != nil && *in.PaymentMethodID != existing.PaymentMethodID {
			if _, err := s.methods.find(tx, ownerID, *in.PaymentMethodID); err != nil {
				return err
			}
			methodID = *in.PaymentMethodID
			updates["payment_method_id"] = methodID
		}
		if in.CategoryID != nil && *in.CategoryID != existing.CategoryID {
			if _, err := s.categories.find(tx, ownerID, *in.CategoryID); err != nil {
				return err
			}
			updates["category_id"] = *in.CategoryID
		}
		if in.Description != nil {
			updates["description"] = strings.TrimSpace(*in.Description)
		}
		if in.Notes != nil {
			updates["notes"] = *in.Notes
		}
		if in.Date != nil {
			updates["date"] = models.DateOnly(*in.Date)
		}

		if len(updates) == 0 {
			return nil
		}
		// Updates 会回写 existing，先记下原值
		oldAmount, oldMethodID := existing.Amount, existing.PaymentMethodID
		if err := tx.Model(&existing).Updates(updates).Error; err != nil {
			return err
		}

		if !amount.Equal(oldAmount) || methodID != oldMethodID {
			if err := adjustBalance(tx, ownerID, oldMethodID, oldAmount, Credit); err != nil {
				return err
			}
			if err := adjustBalance(tx, ownerID, methodID, amount, Debit); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, ownerID)
	return s.Get(ctx, ownerID, id)
}

// Delete 删除消费记录并退回金额；附件在提交后交给 BlobCleaner 清理
func (s *ExpenseService) Delete(ctx context.Context, ownerID, id string) error {
	var expense models.Expense
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ? AND owner_id = ?", id, ownerID).First(&expense).Error; err != nil {
			return notFoundOr(err, "消费记录不存在")
		}
		if err := adjustBalance(tx, ownerID, expense.PaymentMethodID, expense.Amount, Credit); err != nil {
			return err
		}
		return tx.Delete(&expense).Error
	})
	if err != nil {
		return err
	}

	s.invalidate(ctx, ownerID)

	if keys := expense.BlobKeys(); len(keys) > 0 && s.cleaner != nil {
		if err := s.cleaner.CleanupBlobs(ctx, ownerID, keys); err != nil {
			s.log.WarnContext(ctx, "附件清理失败", "owner_id", ownerID, "expense_id", id, "keys", keys, "error", err)
		}
	}
	return nil
}

// List 按条件分页查询消费记录
func (s *ExpenseService) List(ctx context.Context, ownerID string, f ExpenseFilter) (*ExpensePage, error) {
	page := f.Page
	if page < 1 {
		page = 1
	}
	pageSize := f.PageSize
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	column, ok := sortColumns[f.SortBy]
	if !ok {
		column = "date"
	}
	direction := "DESC"
	if strings.EqualFold(f.SortOrder, "asc") {
		direction = "ASC"
	}

	query := s.db.WithContext(ctx).Model(&models.Expense{}).Where("owner_id = ?", ownerID)
	if f.StartDate != nil {
		query = query.Where("date >= ?", models.DateOnly(*f.StartDate))
	}
	if f.EndDate != nil {
		query = query.Where("date <= ?", models.DateOnly(*f.EndDate))
	}
	if f.CategoryID != "" {
		query = query.Where("category_id = ?", f.CategoryID)
	}
	if f.PaymentMethodID != "" {
		query = query.Where("payment_method_id = ?", f.PaymentMethodID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, err
	}

	list := make([]models.Expense, 0)
	if err := query.
		Preload("Category").
		Preload("PaymentMethod").
		Order(column + " " + direction).
		Order("created_at DESC").
		Order("id ASC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&list).Error; err != nil {
		return nil, err
	}

	return &ExpensePage{
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: int(math.Ceil(float64(total) / float64(pageSize))),
		List:       list,
	}, nil
}

// Export 导出日期区间内（闭区间）的全部消费记录，按日期倒序
func (s *ExpenseService) Export(ctx context.Context, ownerID string, start, end time.Time) ([]models.Expense, error) {
	var expenses []models.Expense
	err := s.db.WithContext(ctx).
		Preload("Category").
		Preload("PaymentMethod").
		Where("owner_id = ? AND date >= ? AND date <= ?", ownerID, models.DateOnly(start), models.DateOnly(end)).
		Order("date DESC, created_at DESC").
		Find(&expenses).Error
	return expenses, err
}

// SuggestCategory 根据识别出的类别提示选出用户可见的类别
func (s *ExpenseService) SuggestCategory(ctx context.Context, ownerID, hint string) (*models.Category, error) {
	categories, err := s.categories.List(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	c := pickCategory(categories, hint)
	if c == nil {
		return nil, newError(ErrNotFound, "没有可用的类别")
	}
	return c, nil
}

// CreateFromDraft 把 OCR / 语音识别出的草稿入账。
// 未指定类别时按提示推荐，未指定支付方式时使用默认支付方式。
func (s *ExpenseService) CreateFromDraft(ctx context.Context, ownerID string, source models.ExpenseSource, draft models.Draft, opts DraftOptions) (*models.Expense, error) {
	if source != models.SourceOCR && source != models.SourceVoice {
		return nil, newError(ErrInvalidOperation, "无效的记录来源")
	}

	categoryID := opts.CategoryID
	if categoryID == "" {
		category, err := s.SuggestCategory(ctx, ownerID, draft.CategoryHint)
		if err != nil {
			return nil, err
		}
		categoryID = category.ID
	}

	methodID := opts.PaymentMethodID
	if methodID == "" {
		method, err := s.methods.Default(ctx, ownerID)
		if err != nil {
			return nil, wrapError(ErrInvalidOperation, "未指定支付方式且没有默认支付方式", err)
		}
		methodID = method.ID
	}

	in := ExpenseInput{
		Amount:          draft.Amount,
		Description:     draft.Description,
		Notes:           opts.Notes,
		Date:            draft.Date,
		CategoryID:      categoryID,
		PaymentMethodID: methodID,
		Source:          source,
	}
	switch source {
	case models.SourceOCR:
		in.ReceiptURL = opts.AttachmentURL
		in.ReceiptKey = opts.AttachmentKey
		if len(draft.RawMetadata) > 0 {
			in.OCRData = string(draft.RawMetadata)
		}
	case models.SourceVoice:
		in.AudioURL = opts.AttachmentURL
		in.AudioKey = opts.AttachmentKey
		in.VoiceTranscription = draft.Transcription
	}
	return s.Create(ctx, ownerID, in)
}

// invalidate 清除汇总和支付方式列表缓存
func (s *ExpenseService) invalidate(ctx context.Context, ownerID string) {
	if s.summary != nil {
		s.summary.Invalidate(ctx, ownerID)
	}
	s.methods.invalidate(ctx, ownerID)
}
