// Package testutil 提供基于临时 SQLite 文件的测试数据库
package testutil

import (
	"path/filepath"
	"testing"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/zahias/pillars/config"
	"github.com/zahias/pillars/pkg/database"
)

// NewTestDB 在 t.TempDir() 下创建已迁移的数据库，测试结束时关闭
func NewTestDB(t testing.TB) *gorm.DB {
	t.Helper()

	cfg := &config.DatabaseConfig{
		Path: filepath.Join(t.TempDir(), "test.db"),
	}
	logger := zap.NewNop()

	db, err := database.NewDB(cfg, "silent", logger)
	if err != nil {
		t.Fatalf("打开测试数据库失败: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("获取连接池失败: %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := database.RunMigrations(sqlDB, logger); err != nil {
		t.Fatalf("执行迁移失败: %v", err)
	}
	return db
}

// CountRows 返回表中行数
func CountRows(t testing.TB, db *gorm.DB, table string) int64 {
	t.Helper()
	var n int64
	if err := db.Table(table).Count(&n).Error; err != nil {
		t.Fatalf("统计 %s 失败: %v", table, err)
	}
	return n
}
