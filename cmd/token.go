package cmd

import (
	"fmt"
	"time"

	"spendwise/middleware"

	"github.com/spf13/cobra"
)

// tokenCmd 账号体系由上游负责，这里只为调试签发 token
func tokenCmd() *cobra.Command {
	var (
		owner  string
		expire time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "为指定用户签发 JWT",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if expire <= 0 {
				expire = cfg.JWT.ExpireTime
			}
			middleware.InitJWT(cfg)
			token, err := middleware.GenerateToken(owner, expire)
			if err != nil {
				return fmt.Errorf("签发 token 失败: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&owner, "owner", "", "用户 ID")
	cmd.Flags().DurationVar(&expire, "expire", 0, "有效期，默认取 jwt.expire_hours")
	_ = cmd.MarkFlagRequired("owner")
	return cmd
}
