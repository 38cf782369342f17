package cmd

import (
	"context"
	"fmt"
	"time"

	"spendwise/cache"
	"spendwise/config"
	"spendwise/database"
	"spendwise/ingest"
	"spendwise/queue"
	"spendwise/service"
	"spendwise/storage"

	"gorm.io/gorm"
)

// closers 退出时按注册的逆序关闭资源
type closers []func() error

func (c *closers) add(fn func() error) {
	*c = append(*c, fn)
}

func (c closers) closeAll() {
	for i := len(c) - 1; i >= 0; i-- {
		if err := c[i](); err != nil {
			logger.Warn("关闭资源失败", "error", err)
		}
	}
}

func openDatabase(cfg *config.Config, cl *closers) (*gorm.DB, error) {
	if err := database.Init(cfg); err != nil {
		return nil, fmt.Errorf("数据库初始化失败: %w", err)
	}
	db := database.GetDB()
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	cl.add(sqlDB.Close)
	return db, nil
}

func newCache(ctx context.Context, cfg *config.Config, cl *closers) (cache.Cache, error) {
	switch cfg.Cache.Driver {
	case "redis":
		c, err := cache.NewRedisCache(ctx, cfg.Cache.Addr, cfg.Cache.Password, cfg.Cache.DB)
		if err != nil {
			return nil, err
		}
		cl.add(c.Close)
		return c, nil
	default:
		c := cache.NewMemoryCache(cfg.Cache.MaxEntries)
		c.StartCleanup(ctx, time.Minute)
		return c, nil
	}
}

func newStorage(ctx context.Context, cfg *config.Config) (storage.Storage, error) {
	switch cfg.Storage.Driver {
	case "gcs":
		return storage.NewGCSStorage(ctx, cfg.Storage.Bucket, cfg.Storage.CredentialsFile)
	default:
		return storage.NewLocalStorage(cfg.Storage.LocalDir, cfg.Storage.PublicBaseURL)
	}
}

// newCleaner 配置了 AMQP 时发布清理消息交给 worker，否则在请求内直接删除
func newCleaner(cfg *config.Config, st storage.Storage, cl *closers) (service.BlobCleaner, error) {
	if cfg.AMQP.URL == "" {
		logger.Info("未配置 AMQP，附件在删除记录时同步清理")
		return service.NewStorageCleaner(st), nil
	}
	client, err := queue.NewClient(cfg.AMQP.URL, cfg.AMQP.Exchange, cfg.AMQP.Queue)
	if err != nil {
		return nil, err
	}
	cl.add(client.Close)
	logger.Info("附件清理通过队列异步执行", "queue", cfg.AMQP.Queue)
	return client, nil
}

type extractor interface {
	ingest.ReceiptExtractor
	ingest.VoiceExtractor
}

func newExtractor(ctx context.Context, cfg *config.Config) (extractor, error) {
	if cfg.AI.APIKey == "" {
		logger.Warn("未配置 ai.api_key，小票和语音识别不可用")
		return ingest.Unavailable{}, nil
	}
	return ingest.NewGeminiExtractor(ctx, cfg.AI.APIKey, cfg.AI.Model)
}
