package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"spendwise/cache"
	"spendwise/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"
)

// DefaultSummaryTTL 汇总缓存默认有效期
const DefaultSummaryTTL = 5 * time.Minute

// summaryVersionTTL 共享版本号保留时间，需长于任何一次汇总计算
const summaryVersionTTL = 24 * time.Hour

var hundred = decimal.NewFromInt(100)

// Summary 用户消费汇总
type Summary struct {
	TotalCount           int64            `json:"total_count"`
	TotalAmount          decimal.Decimal  `json:"total_amount"`
	AverageAmount        decimal.Decimal  `json:"average_amount"`
	CurrentMonthTotal    decimal.Decimal  `json:"current_month_total"`
	PreviousMonthTotal   decimal.Decimal  `json:"previous_month_total"`
	MonthOverMonthChange float64          `json:"month_over_month_change"` // 百分比
	ByCategory           []BreakdownEntry `json:"by_category"`
	ByPaymentMethod      []BreakdownEntry `json:"by_payment_method"`
	GeneratedAt          time.Time        `json:"generated_at"`
}

// BreakdownEntry 按类别或支付方式分组的统计
type BreakdownEntry struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Color      string          `json:"color"`
	Count      int64           `json:"count"`
	Total      decimal.Decimal `json:"total"`
	Percentage float64         `json:"percentage"`
}

// SummaryService 汇总统计，读穿缓存，消费记录变动时失效。
// 同一用户并发重算通过 singleflight 合并。
type SummaryService struct {
	db    *gorm.DB
	cache cache.Cache
	ttl   time.Duration
	group singleflight.Group
	now   func() time.Time
	log   *slog.Logger

	// versions 每次失效自增，防止失效前开始的计算把旧结果写回缓存。
	// 跨副本的失效通过缓存中的 SummaryVersionKey 感知。
	mu       sync.Mutex
	versions map[string]uint64
}

func NewSummaryService(db *gorm.DB, c cache.Cache, ttl time.Duration) *SummaryService {
	if ttl <= 0 {
		ttl = DefaultSummaryTTL
	}
	return &SummaryService{
		db:       db,
		cache:    c,
		ttl:      ttl,
		now:      time.Now,
		log:      slog.With("component", "summary"),
		versions: make(map[string]uint64),
	}
}

// GetSummary 获取用户消费汇总
func (s *SummaryService) GetSummary(ctx context.Context, ownerID string) (*Summary, error) {
	key := cache.SummaryKey(ownerID)
	var cached Summary
	if cache.GetJSON(ctx, s.cache, key, &cached) {
		return &cached, nil
	}

	version := s.version(ownerID)
	shared := s.sharedVersion(ctx, ownerID)
	v, err, _ := s.group.Do(fmt.Sprintf("%s#%d#%s", ownerID, version, shared), func() (interface{}, error) {
		ctx := context.WithoutCancel(ctx)
		summary, err := s.compute(ctx, ownerID)
		if err != nil {
			return nil, err
		}

		s.mu.Lock()
		defer s.mu.Unlock()
		if s.versions[ownerID] != version || s.sharedVersion(ctx, ownerID) != shared {
			return summary, nil
		}
		if err := cache.SetJSON(ctx, s.cache, key, summary, s.ttl); err != nil {
			s.log.WarnContext(ctx, "写入汇总缓存失败", "owner_id", ownerID, "error", err)
			return summary, nil
		}
		// 其它副本的失效可能落在上面的检查与写入之间，写入后再确认一次
		if s.sharedVersion(ctx, ownerID) != shared {
			if err := s.cache.Del(ctx, key); err != nil {
				s.log.WarnContext(ctx, "清除汇总缓存失败", "owner_id", ownerID, "error", err)
			}
		}
		return summary, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Summary), nil
}

// Invalidate 使用户汇总缓存失效
func (s *SummaryService) Invalidate(ctx context.Context, ownerID string) {
	s.mu.Lock()
	s.versions[ownerID]++
	s.mu.Unlock()

	if s.cache == nil {
		return
	}
	// 先换版本号再删缓存，正在计算的副本据此放弃或撤回写入
	if err := s.cache.Set(ctx, cache.SummaryVersionKey(ownerID), []byte(uuid.NewString()), summaryVersionTTL); err != nil {
		s.log.WarnContext(ctx, "更新汇总版本失败", "owner_id", ownerID, "error", err)
	}
	if err := s.cache.Del(ctx, cache.SummaryKey(ownerID)); err != nil {
		s.log.WarnContext(ctx, "清除汇总缓存失败", "owner_id", ownerID, "error", err)
	}
}

// sharedVersion 读取缓存中的共享版本号，读取失败视为空
func (s *SummaryService) sharedVersion(ctx context.Context, ownerID string) string {
	if s.cache == nil {
		return ""
	}
	v, err := s.cache.Get(ctx, cache.SummaryVersionKey(ownerID))
	if err != nil {
		return ""
	}
	return string(v)
}

func (s *SummaryService) version(ownerID string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.versions[ownerID]
}

type aggregateRow struct {
	Count int64
	Total decimal.Decimal
}

type breakdownRow struct {
	ID    string
	Name  string
	Color string
	Count int64
	Total decimal.Decimal
}

func (s *SummaryService) compute(ctx context.Context, ownerID string) (*Summary, error) {
	db := s.db.WithContext(ctx)
	now := s.now().UTC()
	currentStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	nextStart := currentStart.AddDate(0, 1, 0)
	previousStart := currentStart.AddDate(0, -1, 0)

	var overall aggregateRow
	if err := db.Model(&models.Expense{}).
		Select("COUNT(*) AS count, COALESCE(SUM(amount), 0) AS total").
		Where("owner_id = ?", ownerID).
		Scan(&overall).Error; err != nil {
		return nil, err
	}

	current, err := s.sumBetween(db, ownerID, currentStart, nextStart)
	if err != nil {
		return nil, err
	}
	previous, err := s.sumBetween(db, ownerID, previousStart, currentStart)
	if err != nil {
		return nil, err
	}

	var byCategory []breakdownRow
	if err := db.Table("expenses AS e").
		Select("e.category_id AS id, c.name AS name, c.color AS color, COUNT(*) AS count, COALESCE(SUM(e.amount), 0) AS total").
		Joins("JOIN categories c ON c.id = e.category_id").
		Where("e.owner_id = ?", ownerID).
		Group("e.category_id, c.name, c.color").
		Order("total DESC, name ASC").
		Scan(&byCategory).Error; err != nil {
		return nil, err
	}

	var byMethod []breakdownRow
	if err := db.Table("expenses AS e").
		Select("e.payment_method_id AS id, p.name AS name, p.color AS color, COUNT(*) AS count, COALESCE(SUM(e.amount), 0) AS total").
		Joins("JOIN payment_methods p ON p.id = e.payment_method_id").
		Where("e.owner_id = ?", ownerID).
		Group("e.payment_method_id, p.name, p.color").
		Order("total DESC, name ASC").
		Scan(&byMethod).Error; err != nil {
		return nil, err
	}

	total := overall.Total.Round(2)
	summary := &Summary{
		TotalCount:           overall.Count,
		TotalAmount:          total,
		AverageAmount:        decimal.Zero,
		CurrentMonthTotal:    current,
		PreviousMonthTotal:   previous,
		MonthOverMonthChange: percentChange(current, previous),
		ByCategory:           breakdown(byCategory, total),
		ByPaymentMethod:      breakdown(byMethod, total),
		GeneratedAt:          now,
	}
	if overall.Count > 0 {
		summary.AverageAmount = total.Div(decimal.NewFromInt(overall.Count)).Round(2)
	}
	return summary, nil
}

// sumBetween [from, to) 区间内的消费总额
func (s *SummaryService) sumBetween(db *gorm.DB, ownerID string, from, to time.Time) (decimal.Decimal, error) {
	var row aggregateRow
	err := db.Model(&models.Expense{}).
		Select("COUNT(*) AS count, COALESCE(SUM(amount), 0) AS total").
		Where("owner_id = ? AND date >= ? AND date < ?", ownerID, from, to).
		Scan(&row).Error
	return row.Total.Round(2), err
}

// percentChange 环比变化百分比，上期为 0 时返回 0
func percentChange(current, previous decimal.Decimal) float64 {
	if previous.IsZero() {
		return 0
	}
	return current.Sub(previous).Div(previous).Mul(hundred).Round(2).InexactFloat64()
}

// percentOf 占比百分比，总额为 0 时返回 0
func percentOf(part, total decimal.Decimal) float64 {
	if total.IsZero() {
		return 0
	}
	return part.Div(total).Mul(hundred).Round(2).InexactFloat64()
}

func breakdown(rows []breakdownRow, total decimal.Decimal) []BreakdownEntry {
	entries := make([]BreakdownEntry, 0, len(rows))
	for _, r := range rows {
		t := r.Total.Round(2)
		entries = append(entries, BreakdownEntry{
			ID:         r.ID,
			Name:       r.Name,
			Color:      r.Color,
			Count:      r.Count,
			Total:      t,
			Percentage: percentOf(t, total),
		})
	}
	return entries
}
