package service

import (
	"context"
	"errors"
	"fmt"

	"spendwise/storage"
)

// BlobCleaner 删除消费记录后清理其附件。
// 记录删除已提交后才调用，失败不影响删除结果。
type BlobCleaner interface {
	CleanupBlobs(ctx context.Context, ownerID string, keys []string) error
}

// StorageCleaner 直接调用存储删除附件
type StorageCleaner struct {
	storage storage.Storage
}

func NewStorageCleaner(st storage.Storage) *StorageCleaner {
	return &StorageCleaner{storage: st}
}

func (c *StorageCleaner) CleanupBlobs(ctx context.Context, ownerID string, keys []string) error {
	var errs []error
	for _, key := range keys {
		if err := c.storage.Delete(ctx, key); err != nil {
			errs = append(errs, fmt.Errorf("delete %s: %w", key, err))
		}
	}
	return errors.Join(errs...)
}
