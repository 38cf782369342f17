package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"spendwise/api"
	"spendwise/config"
	"spendwise/middleware"
	"spendwise/router"
	"spendwise/service"

	"github.com/spf13/cobra"
)

func serveCmd() *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "启动 HTTP 服务",
		RunE: func(cmd *cobra.Command, _ []string) error {
			// 命令行参数覆盖端口配置
			if port != "" {
				if !strings.HasPrefix(port, ":") {
					port = ":" + port
				}
				cfg.Server.Port = port
			}
			return runServe(cmd.Context())
		},
	}
	cmd.Flags().StringVarP(&port, "port", "p", "", "监听端口，如: 8080 或 :8080")
	return cmd
}

func runServe(ctx context.Context) error {
	config.PrintConfig()

	var cl closers
	defer cl.closeAll()

	db, err := openDatabase(cfg, &cl)
	if err != nil {
		return err
	}
	c, err := newCache(ctx, cfg, &cl)
	if err != nil {
		return err
	}
	st, err := newStorage(ctx, cfg)
	if err != nil {
		return err
	}
	cleaner, err := newCleaner(cfg, st, &cl)
	if err != nil {
		return err
	}
	extractor, err := newExtractor(ctx, cfg)
	if err != nil {
		return err
	}

	categories := service.NewCategoryService(db)
	methods := service.NewPaymentMethodService(db, c)
	summary := service.NewSummaryService(db, c, cfg.Cache.SummaryTTL)
	expenses := service.NewExpenseService(db, categories, methods, summary, cleaner)

	if n, err := categories.SeedSystemDefaults(ctx); err != nil {
		return fmt.Errorf("初始化系统类别失败: %w", err)
	} else if n > 0 {
		logger.Info("已创建系统类别", "count", n)
	}

	middleware.InitJWT(cfg)

	r := router.SetupRouter(cfg, router.Handlers{
		Categories:     api.NewCategoryHandler(categories, expenses),
		PaymentMethods: api.NewPaymentMethodHandler(methods),
		Expenses:       api.NewExpenseHandler(expenses),
		Summary:        api.NewSummaryHandler(summary),
		Ingest:         api.NewIngestHandler(expenses, st, extractor, extractor),
		Export:         api.NewExportHandler(expenses),
	}, logger)

	srv := &http.Server{
		Addr:              cfg.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("服务已启动",
			"addr", cfg.Server.Port,
			"swagger", fmt.Sprintf("http://localhost%s/swagger/index.html", cfg.Server.Port),
			"api", fmt.Sprintf("http://localhost%s/api/v1/", cfg.Server.Port),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("服务器启动失败: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("正在关闭服务")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("关闭服务失败: %w", err)
	}
	logger.Info("服务已关闭")
	return nil
}
