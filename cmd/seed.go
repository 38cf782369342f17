package cmd

import (
	"fmt"

	"spendwise/service"

	"github.com/spf13/cobra"
)

func seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "初始化系统类别（已存在的跳过）",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var cl closers
			defer cl.closeAll()

			db, err := openDatabase(cfg, &cl)
			if err != nil {
				return err
			}
			n, err := service.NewCategoryService(db).SeedSystemDefaults(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "新增系统类别 %d 个\n", n)
			return nil
		},
	}
}
