// Package cache 缓存协作方：按 key 读写带 TTL 的字节值。
// 读失败一律按未命中处理，写/删失败由调用方记录日志后忽略。
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrMiss 未命中
var ErrMiss = errors.New("cache miss")

// Cache 缓存接口
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

// SummaryKey 用户消费汇总缓存 key
func SummaryKey(ownerID string) string {
	return "summary:" + ownerID
}

// SummaryVersionKey 用户汇总版本号 key，多个副本共享，每次失效写入新值
func SummaryVersionKey(ownerID string) string {
	return "summary_version:" + ownerID
}

// PaymentMethodsKey 支付方式列表缓存 key
func PaymentMethodsKey(ownerID string, includeInactive bool) string {
	return fmt.Sprintf("payment_methods:%s:%t", ownerID, includeInactive)
}

// PaymentMethodsKeys 某用户所有支付方式列表缓存 key
func PaymentMethodsKeys(ownerID string) []string {
	return []string{PaymentMethodsKey(ownerID, false), PaymentMethodsKey(ownerID, true)}
}

// GetJSON 读取并反序列化；任何错误都返回 false
func GetJSON(ctx context.Context, c Cache, key string, dst any) bool {
	if c == nil {
		return false
	}
	data, err := c.Get(ctx, key)
	if err != nil {
		return false
	}
	return json.Unmarshal(data, dst) == nil
}

// SetJSON 序列化后写入
func SetJSON(ctx context.Context, c Cache, key string, value any, ttl time.Duration) error {
	if c == nil {
		return nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal cache value: %w", err)
	}
	return c.Set(ctx, key, data, ttl)
}
