// Package cli 实现 pillarsctl 命令行：迁移、工作簿导入导出与进度查看
package cli

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/zahias/pillars/config"
	"github.com/zahias/pillars/internal/repository"
	"github.com/zahias/pillars/internal/service"
	"github.com/zahias/pillars/pkg/database"
	applogger "github.com/zahias/pillars/pkg/logger"
	"github.com/zahias/pillars/pkg/metrics"
)

// options 全局 flag
type options struct {
	configPath string
	dbPath     string
	verbose    bool
}

// Execute 运行根命令
func Execute(ctx context.Context, version string) error {
	return NewRootCommand(version).ExecuteContext(ctx)
}

// NewRootCommand 构建 pillarsctl 命令树
func NewRootCommand(version string) *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:   "pillarsctl",
		Short: "Pillars 数据维护工具",
		Long: color.CyanString(`pillarsctl - Pillars 运维命令行

直接操作 SQLite 数据库：执行迁移、导入导出配置工作簿、查看指标进度。`),
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "配置文件路径")
	rootCmd.PersistentFlags().StringVar(&opts.dbPath, "db", "", "SQLite 数据库路径（覆盖配置中的 db.path）")
	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "输出调试日志")

	rootCmd.AddCommand(newMigrateCommand(opts))
	rootCmd.AddCommand(newImportCommand(opts))
	rootCmd.AddCommand(newExportCommand(opts))
	rootCmd.AddCommand(newTemplateCommand(opts))
	rootCmd.AddCommand(newProgressCommand(opts))

	return rootCmd
}

// app 一次命令执行所需的依赖
type app struct {
	cfg    *config.Config
	sqlDB  *sql.DB
	svc    *service.Service
	logger *zap.Logger
}

// openApp 加载配置、打开数据库并完成迁移
func openApp(opts *options) (*app, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}
	if opts.dbPath != "" {
		cfg.Database.Path = opts.dbPath
	}

	// 命令行输出为主，日志默认只保留告警
	logCfg := config.LogConfig{Level: "warn", Format: "console", Output: "stderr"}
	if opts.verbose {
		logCfg.Level = "debug"
	}
	logger, err := applogger.NewLogger(&logCfg)
	if err != nil {
		return nil, err
	}

	db, err := database.NewDB(&cfg.Database, logCfg.Level, logger)
	if err != nil {
		return nil, fmt.Errorf("打开数据库失败: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("获取底层 sql.DB 失败: %w", err)
	}
	if err := database.RunMigrations(sqlDB, logger); err != nil {
		sqlDB.Close()
		return nil, err
	}

	repo := repository.NewRepository(db)
	return &app{
		cfg:    cfg,
		sqlDB:  sqlDB,
		svc:    service.NewService(cfg, repo, metrics.New(), logger),
		logger: logger,
	}, nil
}

func (a *app) Close() {
	if err := a.sqlDB.Close(); err != nil {
		color.Red("关闭数据库失败: %v", err)
	}
	_ = a.logger.Sync()
}
