// Package cmd 命令行入口：serve 启动 HTTP 服务，worker 消费附件清理队列，
// seed 初始化系统类别，token 为指定用户签发调试用 JWT。
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"spendwise/config"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	version = "dev"
	cfg     *config.Config
	logger  *slog.Logger

	rootCmd = &cobra.Command{
		Use:               "spendwise",
		Short:             "个人记账后端",
		Long:              "Spendwise 个人记账后端：消费类别、支付方式余额、消费记录、汇总统计，以及小票和语音识别记账。",
		Version:           version,
		SilenceUsage:      true,
		PersistentPreRunE: initConfig,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "外部配置文件路径（可选）")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(workerCmd())
	rootCmd.AddCommand(seedCmd())
	rootCmd.AddCommand(tokenCmd())
	rootCmd.AddCommand(versionCmd())
}

// Execute 执行命令，收到 SIGINT/SIGTERM 时取消 context
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func initConfig(cmd *cobra.Command, _ []string) error {
	if cmd.Name() == "version" {
		return nil
	}

	// 本地开发读取 .env，文件不存在时忽略
	_ = godotenv.Load()

	c, err := config.LoadConfig(cfgFile)
	if err != nil {
		return err
	}
	cfg = c
	logger = config.SetupLogger(cfg.Log)
	return nil
}
