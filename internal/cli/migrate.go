package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/zahias/pillars/pkg/database"
)

func newMigrateCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "执行数据库迁移",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(opts)
			if err != nil {
				return err
			}
			defer a.Close()

			version, dirty, err := database.SchemaVersion(a.sqlDB)
			if err != nil {
				return fmt.Errorf("读取 schema 版本失败: %w", err)
			}
			out := cmd.OutOrStdout()
			if dirty {
				color.New(color.FgYellow).Fprintf(out, "schema 版本 %d 处于 dirty 状态\n", version)
				return nil
			}
			color.New(color.FgGreen).Fprintf(out, "数据库 %s 已迁移到版本 %d\n", a.cfg.Database.Path, version)
			return nil
		},
	}
}
