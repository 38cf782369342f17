package cmd

import (
	"context"
	"errors"
	"fmt"

	"spendwise/queue"

	"github.com/spf13/cobra"
)

func workerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "worker",
		Short: "消费附件清理队列，删除已删除消费记录的小票和录音",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runWorker(cmd.Context())
		},
	}
}

func runWorker(ctx context.Context) error {
	if cfg.AMQP.URL == "" {
		return errors.New("未配置 amqp.url，无法启动 worker")
	}

	st, err := newStorage(ctx, cfg)
	if err != nil {
		return err
	}

	client, err := queue.NewClient(cfg.AMQP.URL, cfg.AMQP.Exchange, cfg.AMQP.Queue)
	if err != nil {
		return fmt.Errorf("连接 AMQP 失败: %w", err)
	}
	defer client.Close()

	logger.Info("worker 已启动", "queue", cfg.AMQP.Queue, "storage", cfg.Storage.Driver)
	err = client.Consume(ctx, queue.DeleteBlobs(st))
	if errors.Is(err, context.Canceled) {
		logger.Info("worker 已停止")
		return nil
	}
	return err
}
